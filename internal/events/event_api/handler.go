package event_api

import (
	"fmt"
	"net/http"
	"strconv"
	"time"

	"aggies-attic/internal/apperr"
	"aggies-attic/internal/auth"
	"aggies-attic/internal/calendar"
	"aggies-attic/internal/events"
	"aggies-attic/internal/events/qr"
	"aggies-attic/internal/logger"
	"aggies-attic/internal/media"
	"aggies-attic/internal/models"
	"aggies-attic/internal/utils"

	"github.com/go-chi/chi/v5"
)

const calendarName = "Aggie's Attic Events"

type Handler struct {
	Service        *events.EventService
	QR             *qr.QRGenerator
	BaseURL        string
	MaxUploadBytes int64
	Logger         *logger.Logger
}

func NewHandler(s *events.EventService, baseURL string, maxUpload int64, log *logger.Logger) *Handler {
	return &Handler{
		Service:        s,
		QR:             qr.NewQRGenerator(baseURL),
		BaseURL:        baseURL,
		MaxUploadBytes: maxUpload,
		Logger:         log,
	}
}

// RegisterRoutes mounts the public reads and the admin-only mutations.
func (h *Handler) RegisterRoutes(r chi.Router, requireAdmin func(http.Handler) http.Handler) {
	r.Get("/", h.ListActive)
	r.Get("/calendar.ics", h.Calendar)
	r.Get("/{id}", h.Get)
	r.Get("/{id}/qr.png", h.QRCode)

	r.Group(func(r chi.Router) {
		r.Use(requireAdmin)
		r.Post("/", h.Create)
		r.Put("/{id}", h.Update)
		r.Post("/{id}/images", h.AddImages)
		r.Delete("/{id}/images/{imageId}", h.DeleteImage)
		r.Delete("/{id}", h.Delete)
	})
}

func (h *Handler) fail(w http.ResponseWriter, r *http.Request, err error) {
	if apperr.KindOf(err) == apperr.KindUnexpected || apperr.KindOf(err) == apperr.KindRemote {
		h.Logger.Error("EVENTS", fmt.Sprintf("%s %s: %v", r.Method, r.URL.Path, err))
	}
	utils.WriteError(w, err)
}

func (h *Handler) ListActive(w http.ResponseWriter, r *http.Request) {
	list, err := h.Service.ListActive(r.Context())
	if err != nil {
		h.fail(w, r, err)
		return
	}
	_ = utils.WriteJSON(w, http.StatusOK, list)
}

func (h *Handler) Calendar(w http.ResponseWriter, r *http.Request) {
	list, err := h.Service.ListActive(r.Context())
	if err != nil {
		h.fail(w, r, err)
		return
	}
	w.Header().Set("Content-Type", "text/calendar; charset=utf-8")
	w.Header().Set("Content-Disposition", `inline; filename="events.ics"`)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(calendar.Render(list, calendarName, h.BaseURL, time.Now())))
}

func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	e, err := h.Service.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	_ = utils.WriteJSON(w, http.StatusOK, e)
}

func (h *Handler) QRCode(w http.ResponseWriter, r *http.Request) {
	e, err := h.Service.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.fail(w, r, err)
		return
	}

	size := qr.DefaultSize
	if raw := r.URL.Query().Get("size"); raw != "" {
		if size, err = strconv.Atoi(raw); err != nil {
			utils.WriteError(w, apperr.Validation("Invalid size"))
			return
		}
	}

	png, err := h.QR.EventPNG(e.ID.Hex(), size)
	if err != nil {
		h.fail(w, r, apperr.Unexpected("encode qr", err))
		return
	}
	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Cache-Control", "public, max-age=86400")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(png)
}

func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	var in models.EventInput
	if err := utils.DecodeJSON(r, &in); err != nil {
		utils.WriteError(w, err)
		return
	}

	e, err := h.Service.Create(r.Context(), in, auth.AdminID(r.Context()))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	_ = utils.WriteJSON(w, http.StatusCreated, e)
}

func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	var in models.EventInput
	if err := utils.DecodeJSON(r, &in); err != nil {
		utils.WriteError(w, err)
		return
	}

	e, err := h.Service.Update(r.Context(), chi.URLParam(r, "id"), in)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	_ = utils.WriteJSON(w, http.StatusOK, e)
}

type imagesResponse struct {
	Images   []models.EventImage `json:"images"`
	Uploaded []models.EventImage `json:"uploaded,omitempty"`
}

func (h *Handler) AddImages(w http.ResponseWriter, r *http.Request) {
	files, cleanup, err := media.FormFiles(w, r, media.ImagesField, h.MaxUploadBytes)
	if err != nil {
		utils.WriteError(w, err)
		return
	}
	defer cleanup()

	e, uploaded, err := h.Service.AddImages(r.Context(), chi.URLParam(r, "id"), files, auth.AdminID(r.Context()))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	_ = utils.WriteJSON(w, http.StatusCreated, imagesResponse{Images: e.Images, Uploaded: uploaded})
}

func (h *Handler) DeleteImage(w http.ResponseWriter, r *http.Request) {
	e, err := h.Service.DeleteImage(r.Context(), chi.URLParam(r, "id"), chi.URLParam(r, "imageId"))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	images := e.Images
	if images == nil {
		images = []models.EventImage{}
	}
	_ = utils.WriteJSON(w, http.StatusOK, imagesResponse{Images: images})
}

func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.Service.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		h.fail(w, r, err)
		return
	}
	utils.WriteMessage(w, http.StatusOK, "Event deleted")
}
