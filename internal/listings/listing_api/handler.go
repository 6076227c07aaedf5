package listing_api

import (
	"fmt"
	"net/http"
	"strconv"

	"aggies-attic/internal/apperr"
	"aggies-attic/internal/auth"
	"aggies-attic/internal/listings"
	"aggies-attic/internal/logger"
	"aggies-attic/internal/models"
	"aggies-attic/internal/utils"

	"github.com/go-chi/chi/v5"
)

type Handler struct {
	Service *listings.ListingService
	Logger  *logger.Logger
}

func NewHandler(s *listings.ListingService, log *logger.Logger) *Handler {
	return &Handler{Service: s, Logger: log}
}

type listingResponse struct {
	Message string          `json:"message"`
	Listing *models.Listing `json:"listing"`
}

func (h *Handler) RegisterRoutes(r chi.Router, requireAdmin func(http.Handler) http.Handler) {
	r.Get("/", h.List)
	r.Get("/{id}", h.Get)

	r.Group(func(r chi.Router) {
		r.Use(requireAdmin)
		r.Post("/", h.Create)
		r.Put("/{id}", h.Update)
		r.Put("/{id}/main-image", h.SetMainImage)
		r.Delete("/{id}/image/{index}", h.DeleteImage)
		r.Delete("/{id}/images/{index}", h.DeleteImage)
		r.Delete("/{id}", h.Delete)
	})
}

func (h *Handler) fail(w http.ResponseWriter, r *http.Request, err error) {
	if apperr.KindOf(err) == apperr.KindUnexpected {
		h.Logger.Error("LISTINGS", fmt.Sprintf("%s %s: %v", r.Method, r.URL.Path, err))
	}
	utils.WriteError(w, err)
}

func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	list, err := h.Service.List(r.Context())
	if err != nil {
		h.fail(w, r, err)
		return
	}
	_ = utils.WriteJSON(w, http.StatusOK, list)
}

func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	l, err := h.Service.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	_ = utils.WriteJSON(w, http.StatusOK, l)
}

func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	var in models.ListingInput
	if err := utils.DecodeJSON(r, &in); err != nil {
		utils.WriteError(w, err)
		return
	}
	l, err := h.Service.Create(r.Context(), in, auth.AdminID(r.Context()))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	_ = utils.WriteJSON(w, http.StatusCreated, listingResponse{Message: "Listing created", Listing: l})
}

func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	var in models.ListingInput
	if err := utils.DecodeJSON(r, &in); err != nil {
		utils.WriteError(w, err)
		return
	}
	l, err := h.Service.Update(r.Context(), chi.URLParam(r, "id"), in)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	_ = utils.WriteJSON(w, http.StatusOK, listingResponse{Message: "Listing updated", Listing: l})
}

func (h *Handler) SetMainImage(w http.ResponseWriter, r *http.Request) {
	var in models.MainImageInput
	if err := utils.DecodeJSON(r, &in); err != nil {
		utils.WriteError(w, err)
		return
	}
	l, err := h.Service.SetMainImage(r.Context(), chi.URLParam(r, "id"), in)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	_ = utils.WriteJSON(w, http.StatusOK, listingResponse{Message: "Main image updated successfully", Listing: l})
}

func (h *Handler) DeleteImage(w http.ResponseWriter, r *http.Request) {
	index, err := strconv.Atoi(chi.URLParam(r, "index"))
	if err != nil {
		utils.WriteError(w, apperr.Validation("Invalid image index"))
		return
	}
	l, err := h.Service.DeleteImage(r.Context(), chi.URLParam(r, "id"), index)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	_ = utils.WriteJSON(w, http.StatusOK, listingResponse{Message: "Image deleted successfully", Listing: l})
}

func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.Service.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		h.fail(w, r, err)
		return
	}
	utils.WriteMessage(w, http.StatusOK, "Listing and associated images deleted")
}
