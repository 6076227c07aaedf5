package main

import (
	"context"
	"net/http"
	"time"

	"aggies-attic/internal/analytics/analytics_api"
	"aggies-attic/internal/auth/auth_api"
	"aggies-attic/internal/events/event_api"
	"aggies-attic/internal/facebook/facebook_api"
	"aggies-attic/internal/listings/listing_api"
	"aggies-attic/internal/logger"
	"aggies-attic/internal/media/media_api"
	"aggies-attic/internal/sse"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/google/uuid"
)

const requestIDHeader = "X-Request-ID"

type requestIDKey struct{}

// handlers bundles everything the router mounts.
type handlers struct {
	Auth         *auth_api.Handler
	Events       *event_api.Handler
	Listings     *listing_api.Handler
	Media        *media_api.Handler
	Facebook     *facebook_api.Handler
	Changes      *sse.Handler
	Analytics    *analytics_api.Handler
	RequireAdmin func(http.Handler) http.Handler
}

func newRouter(h handlers, allowedOrigins []string, log *logger.Logger) http.Handler {
	r := chi.NewRouter()

	r.Use(requestID)
	r.Use(requestLogger(log))
	r.Use(middleware.Recoverer)
	r.Use(corsHandler(allowedOrigins))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	r.Route("/api/auth", func(r chi.Router) {
		h.Auth.RegisterRoutes(r, h.RequireAdmin)
	})
	log.Info("ROUTER", "Auth routes registered under /api/auth")

	r.Route("/api/events", func(r chi.Router) {
		h.Events.RegisterRoutes(r, h.RequireAdmin)
	})
	log.Info("ROUTER", "Event routes registered under /api/events")

	r.Route("/api/listings", func(r chi.Router) {
		h.Listings.RegisterRoutes(r, h.RequireAdmin)
	})
	log.Info("ROUTER", "Listing routes registered under /api/listings")

	r.Get("/api/changes/stream", h.Changes.Stream)
	log.Info("ROUTER", "Change stream registered at /api/changes/stream")

	r.With(h.RequireAdmin).Post("/upload-image", h.Media.UploadImages)

	r.Route("/api/facebook", func(r chi.Router) {
		r.Use(h.RequireAdmin)
		h.Facebook.RegisterRoutes(r)
	})
	log.Info("ROUTER", "Facebook diagnostics registered under /api/facebook")

	r.Route("/api/analytics", func(r chi.Router) {
		r.Use(h.RequireAdmin)
		h.Analytics.RegisterRoutes(r)
	})
	log.Info("ROUTER", "Analytics registered under /api/analytics")

	return r
}

// corsHandler allows every origin when none are configured.
func corsHandler(origins []string) func(http.Handler) http.Handler {
	opts := cors.Options{
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Authorization", "Content-Type", requestIDHeader},
		ExposedHeaders: []string{requestIDHeader},
		MaxAge:         300,
	}
	if len(origins) == 0 {
		opts.AllowedOrigins = []string{"*"}
	} else {
		opts.AllowedOrigins = origins
		opts.AllowCredentials = true
	}
	return cors.Handler(opts)
}

// requestID keeps a caller-supplied X-Request-ID or assigns a new one.
func requestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(requestIDHeader)
		if id == "" {
			id = uuid.NewString()
		}
		w.Header().Set(requestIDHeader, id)
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), requestIDKey{}, id)))
	})
}

func requestLogger(log *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r)

			status := ww.Status()
			if status == 0 {
				status = http.StatusOK
			}
			log.LogAPI(r.Method, r.URL.Path, status, time.Since(start))
		})
	}
}
