package facebook_api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"aggies-attic/internal/facebook"
	"aggies-attic/internal/logger"
	"aggies-attic/internal/utils"

	"github.com/go-chi/chi/v5"
)

const defaultTestMessage = "Hello from Aggie’s Attic 👋"

type Diagnostics interface {
	facebook.Poster
	ListRecentPosts(ctx context.Context, limit int) ([]facebook.PostSummary, error)
}

// Handler exposes manual Page posting for checking credentials.
type Handler struct {
	Client Diagnostics
	Logger *logger.Logger
}

type result struct {
	OK    bool `json:"ok"`
	Data  any  `json:"data,omitempty"`
	Error any  `json:"error,omitempty"`
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Post("/test-text", h.TestText)
	r.Post("/test-photo", h.TestPhoto)
	r.Get("/recent", h.Recent)
}

func (h *Handler) fail(w http.ResponseWriter, op string, err error) {
	h.Logger.Warn("FACEBOOK", fmt.Sprintf("%s: %v", op, err))

	var detail any = err.Error()
	var apiErr *facebook.RemoteAPIError
	if errors.As(err, &apiErr) && apiErr.Payload != nil {
		detail = apiErr.Payload
	}
	_ = utils.WriteJSON(w, http.StatusBadRequest, result{OK: false, Error: detail})
}

func (h *Handler) TestText(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Message string `json:"message"`
	}
	if r.ContentLength != 0 {
		if err := utils.DecodeJSON(r, &body); err != nil {
			h.fail(w, "test-text", err)
			return
		}
	}
	if body.Message == "" {
		body.Message = defaultTestMessage
	}

	res, err := h.Client.PostFeedMessage(r.Context(), facebook.FeedPost{Message: body.Message})
	if err != nil {
		h.fail(w, "test-text", err)
		return
	}
	_ = utils.WriteJSON(w, http.StatusOK, result{OK: true, Data: res})
}

func (h *Handler) TestPhoto(w http.ResponseWriter, r *http.Request) {
	var body struct {
		ImageURL string `json:"imageUrl"`
		Caption  string `json:"caption"`
	}
	if err := utils.DecodeJSON(r, &body); err != nil {
		h.fail(w, "test-photo", err)
		return
	}
	if body.ImageURL == "" {
		_ = utils.WriteJSON(w, http.StatusBadRequest, result{OK: false, Error: "imageUrl required"})
		return
	}

	res, err := h.Client.PostPhotoByURL(r.Context(), facebook.PhotoPost{ImageURL: body.ImageURL, Caption: body.Caption})
	if err != nil {
		h.fail(w, "test-photo", err)
		return
	}
	_ = utils.WriteJSON(w, http.StatusOK, result{OK: true, Data: res})
}

func (h *Handler) Recent(w http.ResponseWriter, r *http.Request) {
	limit := 5
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			_ = utils.WriteJSON(w, http.StatusBadRequest, result{OK: false, Error: "limit must be a positive integer"})
			return
		}
		limit = n
	}

	posts, err := h.Client.ListRecentPosts(r.Context(), limit)
	if err != nil {
		h.fail(w, "recent", err)
		return
	}
	_ = utils.WriteJSON(w, http.StatusOK, result{OK: true, Data: posts})
}
