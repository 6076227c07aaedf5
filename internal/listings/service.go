package listings

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"aggies-attic/internal/apperr"
	"aggies-attic/internal/cache"
	"aggies-attic/internal/changes"
	"aggies-attic/internal/database"
	"aggies-attic/internal/logger"
	"aggies-attic/internal/media"
	"aggies-attic/internal/models"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// postTimeout bounds the background Page post of a new listing.
const postTimeout = 30 * time.Second

type DBLayer interface {
	List(ctx context.Context) ([]models.Listing, error)
	GetByID(ctx context.Context, id primitive.ObjectID) (*models.Listing, error)
	Create(ctx context.Context, l *models.Listing) error
	Save(ctx context.Context, l *models.Listing) error
	MarkPosted(ctx context.Context, id primitive.ObjectID, postID string) error
	Delete(ctx context.Context, id primitive.ObjectID) error
}

type Publisher interface {
	PostListing(ctx context.Context, l models.Listing) (string, error)
}

type ListingService struct {
	DB        DBLayer
	Media     media.Store
	Publisher Publisher
	Cache     *cache.Cache
	Notifier  changes.Notifier
	Logger    *logger.Logger

	wg sync.WaitGroup
}

func NewListingService(db DBLayer, store media.Store, pub Publisher, c *cache.Cache, n changes.Notifier, log *logger.Logger) *ListingService {
	if n == nil {
		n = changes.Nop{}
	}
	return &ListingService{DB: db, Media: store, Publisher: pub, Cache: c, Notifier: n, Logger: log}
}

// Wait blocks until every background Page post has finished.
func (s *ListingService) Wait() {
	s.wg.Wait()
}

func parseListingID(raw string) (primitive.ObjectID, error) {
	id, err := primitive.ObjectIDFromHex(raw)
	if err != nil {
		return primitive.NilObjectID, apperr.Validation("Invalid listing id")
	}
	return id, nil
}

func notFound(err error) error {
	if errors.Is(err, database.ErrNotFound) {
		return apperr.NotFound("Listing not found")
	}
	return apperr.Unexpected("listing store", err)
}

func trimmed(s *string) string {
	if s == nil {
		return ""
	}
	return strings.TrimSpace(*s)
}

func cleanURLs(urls []string) []string {
	out := make([]string, 0, len(urls))
	for _, u := range urls {
		if u = strings.TrimSpace(u); u != "" {
			out = append(out, u)
		}
	}
	return out
}

func (s *ListingService) List(ctx context.Context) ([]models.Listing, error) {
	var list []models.Listing
	if s.Cache.GetJSON(ctx, cache.ListingsKey, &list) {
		return list, nil
	}
	list, err := s.DB.List(ctx)
	if err != nil {
		return nil, apperr.Unexpected("list listings", err)
	}
	s.Cache.SetJSON(ctx, cache.ListingsKey, list)
	return list, nil
}

func (s *ListingService) Get(ctx context.Context, rawID string) (*models.Listing, error) {
	id, err := parseListingID(rawID)
	if err != nil {
		return nil, err
	}
	l, err := s.DB.GetByID(ctx, id)
	if err != nil {
		return nil, notFound(err)
	}
	return l, nil
}

// Create stores the listing and returns immediately; the Page post runs in
// the background and is stamped onto the record only if it succeeds.
func (s *ListingService) Create(ctx context.Context, in models.ListingInput, adminID *primitive.ObjectID) (*models.Listing, error) {
	title, desc := trimmed(in.Title), trimmed(in.Description)
	if title == "" || desc == "" {
		return nil, apperr.Validation("Missing required fields")
	}
	if in.Price != nil && *in.Price < 0 {
		return nil, apperr.Validation("Price must not be negative")
	}

	l := &models.Listing{
		Title:       title,
		Description: desc,
		Price:       in.Price,
		Images:      cleanURLs(in.ImageURLs),
		CreatedBy:   adminID,
	}
	if err := s.DB.Create(ctx, l); err != nil {
		return nil, apperr.Unexpected("create listing", err)
	}
	s.Logger.Info("LISTINGS", fmt.Sprintf("created listing %s", l.ID.Hex()))
	s.afterMutation(ctx, l.ID, changes.ActionCreated)

	s.wg.Add(1)
	go s.autoPost(context.WithoutCancel(ctx), *l)
	return l, nil
}

func (s *ListingService) autoPost(ctx context.Context, l models.Listing) {
	defer s.wg.Done()
	if s.Publisher == nil {
		return
	}
	ctx, cancel := context.WithTimeout(ctx, postTimeout)
	defer cancel()

	postID, err := s.Publisher.PostListing(ctx, l)
	s.Logger.LogSync("listing", l.ID.Hex(), "post", err)
	if err != nil {
		return
	}
	if err := s.DB.MarkPosted(ctx, l.ID, postID); err != nil {
		s.Logger.LogSync("listing", l.ID.Hex(), "mark-posted", err)
		return
	}
	if err := s.Cache.Invalidate(ctx, cache.ListingsKey); err != nil {
		s.Logger.LogSync("listing", l.ID.Hex(), "invalidate-cache", err)
	}
}

// Update applies a partial edit. Empty strings keep the stored value; a
// non-nil image list replaces the stored one.
func (s *ListingService) Update(ctx context.Context, rawID string, in models.ListingInput) (*models.Listing, error) {
	id, err := parseListingID(rawID)
	if err != nil {
		return nil, err
	}
	if in.Price != nil && *in.Price < 0 {
		return nil, apperr.Validation("Price must not be negative")
	}
	l, err := s.DB.GetByID(ctx, id)
	if err != nil {
		return nil, notFound(err)
	}

	if t := trimmed(in.Title); t != "" {
		l.Title = t
	}
	if d := trimmed(in.Description); d != "" {
		l.Description = d
	}
	if in.Price != nil {
		l.Price = in.Price
	}
	if in.ImageURLs != nil {
		l.Images = cleanURLs(in.ImageURLs)
		l.ClampMainImage()
	}

	return s.save(ctx, l)
}

func (s *ListingService) SetMainImage(ctx context.Context, rawID string, in models.MainImageInput) (*models.Listing, error) {
	id, err := parseListingID(rawID)
	if err != nil {
		return nil, err
	}
	if in.Index == nil {
		return nil, apperr.Validation("Invalid image index")
	}
	l, err := s.DB.GetByID(ctx, id)
	if err != nil {
		return nil, notFound(err)
	}
	if err := l.SetMainImage(*in.Index); err != nil {
		return nil, apperr.Validation("Invalid image index")
	}
	return s.save(ctx, l)
}

// DeleteImage removes image i. The hosted asset is deleted first and a
// failure there does not stop the record update.
func (s *ListingService) DeleteImage(ctx context.Context, rawID string, index int) (*models.Listing, error) {
	id, err := parseListingID(rawID)
	if err != nil {
		return nil, err
	}
	l, err := s.DB.GetByID(ctx, id)
	if err != nil {
		return nil, notFound(err)
	}
	if index < 0 || index >= len(l.Images) {
		return nil, apperr.Validation("Invalid image index")
	}

	if pid := media.PublicIDFromURL(l.Images[index]); pid != "" {
		s.Logger.LogSync("listing", id.Hex(), "delete-asset", s.Media.Delete(ctx, pid))
	}
	if _, err := l.RemoveImage(index); err != nil {
		return nil, apperr.Validation("Invalid image index")
	}
	return s.save(ctx, l)
}

func (s *ListingService) Delete(ctx context.Context, rawID string) error {
	id, err := parseListingID(rawID)
	if err != nil {
		return err
	}
	l, err := s.DB.GetByID(ctx, id)
	if err != nil {
		return notFound(err)
	}

	ids := make([]string, 0, len(l.Images))
	for _, u := range l.Images {
		if pid := media.PublicIDFromURL(u); pid != "" {
			ids = append(ids, pid)
		}
	}
	media.DeleteAll(ctx, s.Media, ids, s.Logger)

	if err := s.DB.Delete(ctx, id); err != nil {
		return notFound(err)
	}
	s.Logger.Info("LISTINGS", fmt.Sprintf("deleted listing %s", id.Hex()))
	s.afterMutation(ctx, id, changes.ActionDeleted)
	return nil
}

func (s *ListingService) save(ctx context.Context, l *models.Listing) (*models.Listing, error) {
	if err := s.DB.Save(ctx, l); err != nil {
		return nil, notFound(err)
	}
	s.afterMutation(ctx, l.ID, changes.ActionUpdated)
	return l, nil
}

func (s *ListingService) afterMutation(ctx context.Context, id primitive.ObjectID, action changes.Action) {
	if err := s.Cache.Invalidate(ctx, cache.ListingsKey); err != nil {
		s.Logger.LogSync("listing", id.Hex(), "invalidate-cache", err)
	}
	err := s.Notifier.Notify(ctx, changes.Change{
		Entity:     changes.EntityListing,
		EntityID:   id.Hex(),
		Action:     action,
		OccurredAt: time.Now().UTC(),
	})
	if err != nil {
		s.Logger.LogSync("listing", id.Hex(), "notify", err)
	}
}
