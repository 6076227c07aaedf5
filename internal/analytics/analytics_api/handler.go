package analytics_api

import (
	"fmt"
	"net/http"
	"strconv"

	"aggies-attic/internal/analytics"
	"aggies-attic/internal/apperr"
	"aggies-attic/internal/logger"
	"aggies-attic/internal/utils"

	"github.com/go-chi/chi/v5"
)

type Handler struct {
	Service *analytics.Service
	Logger  *logger.Logger
}

func NewHandler(service *analytics.Service, log *logger.Logger) *Handler {
	return &Handler{Service: service, Logger: log}
}

// RegisterRoutes expects the caller to gate the router behind admin auth.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/summary", h.Summary)
}

// Summary serves GET /summary[?days=N].
func (h *Handler) Summary(w http.ResponseWriter, r *http.Request) {
	days := analytics.DefaultDays
	if raw := r.URL.Query().Get("days"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			utils.WriteError(w, apperr.Validation("Invalid days"))
			return
		}
		days = n
	}

	summary, err := h.Service.Summary(r.Context(), days)
	if err != nil {
		if apperr.KindOf(err) == apperr.KindUnexpected {
			h.Logger.Error("ANALYTICS", fmt.Sprintf("summary: %v", err))
		}
		utils.WriteError(w, err)
		return
	}
	_ = utils.WriteJSON(w, http.StatusOK, summary)
}
