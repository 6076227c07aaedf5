package media

import (
	"context"
	"errors"
	"fmt"
	"mime/multipart"
	"net/http"

	"aggies-attic/internal/apperr"
	"aggies-attic/internal/logger"
)

// ImagesField is the multipart field name for uploaded images.
const ImagesField = "images"

const multipartMemory = 8 << 20

// FormFiles parses a multipart request and returns the files under field.
// cleanup removes any temp files the parser spilled to disk and must be
// called whether or not the upload succeeds.
func FormFiles(w http.ResponseWriter, r *http.Request, field string, maxBytes int64) ([]*multipart.FileHeader, func(), error) {
	noop := func() {}
	if maxBytes > 0 {
		r.Body = http.MaxBytesReader(w, r.Body, maxBytes)
	}
	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return nil, noop, apperr.Validationf("Upload exceeds %d MB", maxBytes>>20)
		}
		return nil, noop, apperr.Validation("Expected a multipart/form-data body")
	}
	cleanup := func() { _ = r.MultipartForm.RemoveAll() }

	files := r.MultipartForm.File[field]
	if len(files) == 0 {
		cleanup()
		return nil, noop, apperr.Validation("No images uploaded")
	}
	return files, cleanup, nil
}

// UploadAll uploads files in order. If one fails, the assets already
// uploaded by this call are deleted again (best effort) and the upload
// error is returned.
func UploadAll(ctx context.Context, store Store, files []*multipart.FileHeader, log *logger.Logger) ([]Asset, error) {
	assets := make([]Asset, 0, len(files))
	for _, fh := range files {
		asset, err := uploadOne(ctx, store, fh)
		if err != nil {
			log.Error("MEDIA", fmt.Sprintf("upload of %s failed: %v", fh.Filename, err))
			DeleteAll(ctx, store, publicIDs(assets), log)
			return nil, err
		}
		log.Debug("MEDIA", fmt.Sprintf("uploaded %s as %s", fh.Filename, asset.PublicID))
		assets = append(assets, asset)
	}
	return assets, nil
}

func uploadOne(ctx context.Context, store Store, fh *multipart.FileHeader) (Asset, error) {
	f, err := fh.Open()
	if err != nil {
		return Asset{}, &UploadError{Filename: fh.Filename, Err: err}
	}
	defer f.Close()
	return store.Upload(ctx, f, fh.Filename)
}

// DeleteAll deletes each asset, logging and skipping failures.
func DeleteAll(ctx context.Context, store Store, ids []string, log *logger.Logger) {
	for _, id := range ids {
		err := store.Delete(ctx, id)
		log.LogSync("asset", id, "delete-asset", err)
	}
}

func publicIDs(assets []Asset) []string {
	ids := make([]string, 0, len(assets))
	for _, a := range assets {
		ids = append(ids, a.PublicID)
	}
	return ids
}
