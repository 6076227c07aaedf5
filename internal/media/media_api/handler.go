package media_api

import (
	"fmt"
	"net/http"

	"aggies-attic/internal/apperr"
	"aggies-attic/internal/logger"
	"aggies-attic/internal/media"
	"aggies-attic/internal/utils"
)

// Handler serves the generic image upload used by the listing form.
type Handler struct {
	Store          media.Store
	Logger         *logger.Logger
	MaxUploadBytes int64
}

type uploadResponse struct {
	ImageURLs []string `json:"imageUrls"`
}

func (h *Handler) UploadImages(w http.ResponseWriter, r *http.Request) {
	files, cleanup, err := media.FormFiles(w, r, media.ImagesField, h.MaxUploadBytes)
	if err != nil {
		utils.WriteError(w, err)
		return
	}
	defer cleanup()

	assets, err := media.UploadAll(r.Context(), h.Store, files, h.Logger)
	if err != nil {
		utils.WriteError(w, apperr.Remote("Image upload failed", err))
		return
	}

	urls := make([]string, 0, len(assets))
	for _, a := range assets {
		urls = append(urls, a.URL)
	}
	h.Logger.Info("MEDIA", fmt.Sprintf("uploaded %d image(s)", len(urls)))
	_ = utils.WriteJSON(w, http.StatusOK, uploadResponse{ImageURLs: urls})
}
