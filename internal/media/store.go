// Package media uploads images to the image host and deletes them again.
package media

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/url"
	"path"
	"regexp"
	"strings"

	"aggies-attic/internal/config"

	"github.com/cloudinary/cloudinary-go/v2"
	"github.com/cloudinary/cloudinary-go/v2/api/uploader"
)

// Asset is an uploaded image.
type Asset struct {
	URL      string `json:"url"`
	PublicID string `json:"publicId"`
}

type Store interface {
	Upload(ctx context.Context, r io.Reader, filename string) (Asset, error)
	Delete(ctx context.Context, publicID string) error
}

// UploadError is returned by Store.Upload for any failed upload.
type UploadError struct {
	Filename string
	Err      error
}

func (e *UploadError) Error() string {
	return fmt.Sprintf("upload %q: %v", e.Filename, e.Err)
}

func (e *UploadError) Unwrap() error { return e.Err }

var ErrNotConfigured = errors.New("image host is not configured")

// Unconfigured stands in for the image host when no credentials are set.
// Every call fails with ErrNotConfigured.
type Unconfigured struct{}

func (Unconfigured) Upload(_ context.Context, _ io.Reader, filename string) (Asset, error) {
	return Asset{}, &UploadError{Filename: filename, Err: ErrNotConfigured}
}

func (Unconfigured) Delete(context.Context, string) error { return ErrNotConfigured }

// CloudinaryStore talks to Cloudinary. One attempt per call.
type CloudinaryStore struct {
	cld    *cloudinary.Cloudinary
	folder string
}

// NewCloudinaryStore prefers CLOUDINARY_URL and falls back to the separate
// cloud name / key / secret settings.
func NewCloudinaryStore(cfg config.CloudinaryConfig) (*CloudinaryStore, error) {
	var (
		cld *cloudinary.Cloudinary
		err error
	)
	switch {
	case cfg.URL != "":
		cld, err = cloudinary.NewFromURL(cfg.URL)
	case cfg.Configured():
		cld, err = cloudinary.NewFromParams(cfg.CloudName, cfg.APIKey, cfg.APISecret)
	default:
		return nil, ErrNotConfigured
	}
	if err != nil {
		return nil, fmt.Errorf("init cloudinary: %w", err)
	}
	cld.Config.URL.Secure = true
	return &CloudinaryStore{cld: cld, folder: cfg.Folder}, nil
}

func (s *CloudinaryStore) Upload(ctx context.Context, r io.Reader, filename string) (Asset, error) {
	resp, err := s.cld.Upload.Upload(ctx, r, uploader.UploadParams{Folder: s.folder})
	if err != nil {
		return Asset{}, &UploadError{Filename: filename, Err: err}
	}
	if resp.Error.Message != "" {
		return Asset{}, &UploadError{Filename: filename, Err: errors.New(resp.Error.Message)}
	}
	if resp.SecureURL == "" {
		return Asset{}, &UploadError{Filename: filename, Err: errors.New("no url in upload response")}
	}
	return Asset{URL: resp.SecureURL, PublicID: resp.PublicID}, nil
}

// Delete removes an asset. An asset that is already gone counts as deleted.
func (s *CloudinaryStore) Delete(ctx context.Context, publicID string) error {
	if publicID == "" {
		return nil
	}
	resp, err := s.cld.Upload.Destroy(ctx, uploader.DestroyParams{PublicID: publicID})
	if err != nil {
		return fmt.Errorf("destroy %s: %w", publicID, err)
	}
	if resp.Error.Message != "" {
		return fmt.Errorf("destroy %s: %s", publicID, resp.Error.Message)
	}
	switch resp.Result {
	case "ok", "not found":
		return nil
	default:
		return fmt.Errorf("destroy %s: unexpected result %q", publicID, resp.Result)
	}
}

var versionSegment = regexp.MustCompile(`^v\d+$`)

// PublicIDFromURL derives the public id from a delivery URL:
// .../image/upload/[transformations/]v123/folder/name.jpg gives folder/name.
// It returns "" for URLs that are not Cloudinary upload URLs.
func PublicIDFromURL(raw string) string {
	u, err := url.Parse(raw)
	if err != nil || u.Path == "" {
		return ""
	}

	parts := strings.Split(strings.Trim(u.Path, "/"), "/")
	start := -1
	for i, p := range parts {
		if p == "upload" {
			start = i + 1
			break
		}
	}
	if start < 0 || start >= len(parts) {
		return ""
	}
	rest := parts[start:]

	// Skip transformation segments up to and including the version, if any.
	for i, p := range rest {
		if versionSegment.MatchString(p) {
			rest = rest[i+1:]
			break
		}
	}
	if len(rest) == 0 {
		return ""
	}

	id := strings.Join(rest, "/")
	return strings.TrimSuffix(id, path.Ext(id))
}
