package auth_api

import (
	"net/http"

	"aggies-attic/internal/auth"
	"aggies-attic/internal/logger"
	"aggies-attic/internal/models"
	"aggies-attic/internal/utils"

	"github.com/go-chi/chi/v5"
)

type Handler struct {
	Service *auth.Service
	Logger  *logger.Logger
}

func NewHandler(s *auth.Service, log *logger.Logger) *Handler {
	return &Handler{Service: s, Logger: log}
}

// RegisterRoutes mounts /login publicly and /register and /logout behind
// requireAdmin.
func (h *Handler) RegisterRoutes(r chi.Router, requireAdmin func(http.Handler) http.Handler) {
	r.Post("/login", h.Login)
	r.With(requireAdmin).Post("/register", h.Register)
	r.With(requireAdmin).Post("/logout", h.Logout)
}

func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var creds models.Credentials
	if err := utils.DecodeJSON(r, &creds); err != nil {
		utils.WriteError(w, err)
		return
	}

	resp, err := h.Service.Login(r.Context(), creds)
	if err != nil {
		utils.WriteError(w, err)
		return
	}
	_ = utils.WriteJSON(w, http.StatusOK, resp)
}

func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	var creds models.Credentials
	if err := utils.DecodeJSON(r, &creds); err != nil {
		utils.WriteError(w, err)
		return
	}

	admin, err := h.Service.Register(r.Context(), creds)
	if err != nil {
		utils.WriteError(w, err)
		return
	}
	_ = utils.WriteJSON(w, http.StatusCreated, map[string]any{
		"message": "Admin created",
		"admin":   models.AdminSummary{ID: admin.ID.Hex(), Email: admin.Email},
	})
}

func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	if err := h.Service.Logout(r.Context(), auth.ClaimsFrom(r.Context())); err != nil {
		utils.WriteError(w, err)
		return
	}
	utils.WriteMessage(w, http.StatusOK, "Logged out")
}
