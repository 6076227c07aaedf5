package events

import (
	"context"
	"errors"
	"fmt"
	"mime/multipart"
	"strings"
	"time"

	"aggies-attic/internal/apperr"
	"aggies-attic/internal/cache"
	"aggies-attic/internal/changes"
	"aggies-attic/internal/database"
	"aggies-attic/internal/logger"
	"aggies-attic/internal/media"
	"aggies-attic/internal/models"
	"aggies-attic/internal/saga"
	"aggies-attic/internal/utils"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type DBLayer interface {
	ListActive(ctx context.Context) ([]models.Event, error)
	GetByID(ctx context.Context, id primitive.ObjectID) (*models.Event, error)
	Create(ctx context.Context, e *models.Event) error
	UpdateFields(ctx context.Context, id primitive.ObjectID, f models.EventFields) (*models.Event, error)
	PushImages(ctx context.Context, id primitive.ObjectID, images []models.EventImage) (*models.Event, error)
	PullImage(ctx context.Context, id, imageID primitive.ObjectID) (*models.Event, error)
	SetFacebook(ctx context.Context, id primitive.ObjectID, fb models.FacebookSync) (*models.Event, error)
	Delete(ctx context.Context, id primitive.ObjectID) error
}

// Publisher mirrors events onto the Facebook Page.
type Publisher interface {
	ReplaceEventPost(ctx context.Context, previousPostID string, e models.Event) (string, error)
	DeletePost(ctx context.Context, postID string) error
}

// EventService keeps an event's record, its hosted images and its Page
// post roughly in step. The database write always comes first and decides
// the outcome; the external steps after it are best effort.
type EventService struct {
	DB        DBLayer
	Media     media.Store
	Publisher Publisher
	Cache     *cache.Cache
	Notifier  changes.Notifier
	Logger    *logger.Logger
	Now       func() time.Time
}

func NewEventService(db DBLayer, store media.Store, pub Publisher, c *cache.Cache, n changes.Notifier, log *logger.Logger) *EventService {
	if n == nil {
		n = changes.Nop{}
	}
	return &EventService{DB: db, Media: store, Publisher: pub, Cache: c, Notifier: n, Logger: log, Now: time.Now}
}

func parseEventID(raw string) (primitive.ObjectID, error) {
	id, err := primitive.ObjectIDFromHex(raw)
	if err != nil {
		return primitive.NilObjectID, apperr.Validation("Invalid event id")
	}
	return id, nil
}

func notFound(err error) error {
	if errors.Is(err, database.ErrNotFound) {
		return apperr.NotFound("Event not found")
	}
	return apperr.Unexpected("event store", err)
}

// ValidateInput trims and parses an event body. An empty date string means
// no date.
func ValidateInput(in models.EventInput) (models.EventFields, error) {
	f := models.EventFields{
		Title:       strings.TrimSpace(in.Title),
		Description: strings.TrimSpace(in.Description),
	}
	if f.Title == "" || f.Description == "" {
		return f, apperr.Validation("Title and description are required")
	}

	var err error
	if in.Date != nil {
		if f.Date, err = utils.ParseCalendarDate(*in.Date); err != nil {
			return f, apperr.Validation("Invalid date")
		}
	}
	if in.EndDate != nil {
		if f.EndDate, err = utils.ParseCalendarDate(*in.EndDate); err != nil {
			return f, apperr.Validation("Invalid endDate")
		}
	}
	if err := f.CheckRange(); err != nil {
		return f, apperr.Validation(err.Error())
	}
	return f, nil
}

// ListActive serves the cached list when there is one. A cached list can
// outlive some of its events, so it is filtered again against the clock.
func (s *EventService) ListActive(ctx context.Context) ([]models.Event, error) {
	var events []models.Event
	if s.Cache.GetJSON(ctx, cache.ActiveEventsKey, &events) {
		return stillActive(events, s.Now()), nil
	}
	events, err := s.DB.ListActive(ctx)
	if err != nil {
		return nil, apperr.Unexpected("list active events", err)
	}
	s.Cache.SetJSON(ctx, cache.ActiveEventsKey, events)
	return events, nil
}

func (s *EventService) Get(ctx context.Context, rawID string) (*models.Event, error) {
	id, err := parseEventID(rawID)
	if err != nil {
		return nil, err
	}
	e, err := s.DB.GetByID(ctx, id)
	if err != nil {
		return nil, notFound(err)
	}
	return e, nil
}

func (s *EventService) Create(ctx context.Context, in models.EventInput, adminID *primitive.ObjectID) (*models.Event, error) {
	f, err := ValidateInput(in)
	if err != nil {
		return nil, err
	}

	e := &models.Event{
		Title:       f.Title,
		Description: f.Description,
		Date:        f.Date,
		EndDate:     f.EndDate,
		CreatedBy:   adminID,
	}
	if err := s.DB.Create(ctx, e); err != nil {
		return nil, apperr.Unexpected("create event", err)
	}
	s.Logger.Info("EVENTS", fmt.Sprintf("created event %s", e.ID.Hex()))

	s.afterMutation(ctx, e.ID, changes.ActionCreated)
	return s.syncPost(ctx, e), nil
}

// Update replaces title, description, date and endDate. Omitted dates are
// cleared.
func (s *EventService) Update(ctx context.Context, rawID string, in models.EventInput) (*models.Event, error) {
	id, err := parseEventID(rawID)
	if err != nil {
		return nil, err
	}
	f, err := ValidateInput(in)
	if err != nil {
		return nil, err
	}

	e, err := s.DB.UpdateFields(ctx, id, f)
	if err != nil {
		return nil, notFound(err)
	}
	s.Logger.Info("EVENTS", fmt.Sprintf("updated event %s", e.ID.Hex()))

	s.afterMutation(ctx, e.ID, changes.ActionUpdated)
	return s.syncPost(ctx, e), nil
}

// AddImages uploads files and appends them to the event. An upload failure
// aborts before the record is touched; a failed record update deletes the
// assets that were just uploaded.
func (s *EventService) AddImages(ctx context.Context, rawID string, files []*multipart.FileHeader, adminID *primitive.ObjectID) (*models.Event, []models.EventImage, error) {
	id, err := parseEventID(rawID)
	if err != nil {
		return nil, nil, err
	}
	if _, err := s.DB.GetByID(ctx, id); err != nil {
		return nil, nil, notFound(err)
	}

	assets, err := media.UploadAll(ctx, s.Media, files, s.Logger)
	if err != nil {
		return nil, nil, apperr.Remote("Image upload failed", err)
	}

	now := s.Now().UTC().Truncate(time.Millisecond)
	images := make([]models.EventImage, 0, len(assets))
	for _, a := range assets {
		images = append(images, models.EventImage{
			ID:         primitive.NewObjectID(),
			URL:        a.URL,
			PublicID:   a.PublicID,
			UploadedAt: now,
			UploadedBy: adminID,
		})
	}

	e, err := s.DB.PushImages(ctx, id, images)
	if err != nil {
		ids := make([]string, 0, len(assets))
		for _, a := range assets {
			ids = append(ids, a.PublicID)
		}
		media.DeleteAll(context.WithoutCancel(ctx), s.Media, ids, s.Logger)
		return nil, nil, notFound(err)
	}
	s.Logger.Info("EVENTS", fmt.Sprintf("added %d image(s) to event %s", len(images), e.ID.Hex()))

	s.afterMutation(ctx, e.ID, changes.ActionUpdated)
	return s.syncPost(ctx, e), images, nil
}

// DeleteImage removes one image: asset first (failure tolerated), then the
// sub-document, then the post is rebuilt.
func (s *EventService) DeleteImage(ctx context.Context, rawID, rawImageID string) (*models.Event, error) {
	id, err := parseEventID(rawID)
	if err != nil {
		return nil, err
	}
	imageID, err := primitive.ObjectIDFromHex(rawImageID)
	if err != nil {
		return nil, apperr.Validation("Invalid image id")
	}

	e, err := s.DB.GetByID(ctx, id)
	if err != nil {
		return nil, notFound(err)
	}
	img, ok := e.ImageByID(imageID)
	if !ok {
		return nil, apperr.NotFound("Image not found")
	}

	if img.PublicID != "" {
		s.Logger.LogSync("event", id.Hex(), "delete-asset", s.Media.Delete(ctx, img.PublicID))
	}

	e, err = s.DB.PullImage(ctx, id, imageID)
	if err != nil {
		return nil, notFound(err)
	}

	s.afterMutation(ctx, e.ID, changes.ActionUpdated)
	return s.syncPost(ctx, e), nil
}

// Delete removes the Page post and every asset, tolerating failures of
// either, and then always deletes the record.
func (s *EventService) Delete(ctx context.Context, rawID string) error {
	id, err := parseEventID(rawID)
	if err != nil {
		return err
	}
	e, err := s.DB.GetByID(ctx, id)
	if err != nil {
		return notFound(err)
	}

	var steps []saga.Step
	if postID := e.PostID(); postID != "" {
		steps = append(steps, saga.Step{
			Name: "delete-post",
			Run:  func(ctx context.Context) error { return s.Publisher.DeletePost(ctx, postID) },
		})
	}
	for _, pid := range e.PublicIDs() {
		pid := pid
		steps = append(steps, saga.Step{
			Name: "delete-asset " + pid,
			Run:  func(ctx context.Context) error { return s.Media.Delete(ctx, pid) },
		})
	}
	saga.Run(ctx, s.observe(id), steps...)

	if err := s.DB.Delete(ctx, id); err != nil {
		return notFound(err)
	}
	s.Logger.Info("EVENTS", fmt.Sprintf("deleted event %s", id.Hex()))

	s.afterMutation(ctx, id, changes.ActionDeleted)
	return nil
}

// syncPost replaces the event's Page post and records the outcome on the
// event. It never fails the caller: on error the previous post id is kept
// and lastError is set.
func (s *EventService) syncPost(ctx context.Context, e *models.Event) *models.Event {
	previous := e.PostID()
	var newPostID string

	res := saga.Run(ctx, s.observe(e.ID), saga.Step{
		Name: "replace-post",
		Run: func(ctx context.Context) error {
			id, err := s.Publisher.ReplaceEventPost(ctx, previous, *e)
			newPostID = id
			return err
		},
	})

	fb := e.Facebook
	if err := res.LastError(); err != nil {
		msg := err.Error()
		fb.LastError = &msg
	} else {
		now := s.Now().UTC().Truncate(time.Millisecond)
		fb = models.FacebookSync{PostID: &newPostID, LastSyncedAt: &now}
	}

	updated, err := s.DB.SetFacebook(ctx, e.ID, fb)
	if err != nil {
		s.Logger.LogSync("event", e.ID.Hex(), "persist-sync-state", err)
		e.Facebook = fb
		return e
	}
	return updated
}

func (s *EventService) observe(id primitive.ObjectID) saga.Observer {
	return func(r saga.StepResult) {
		s.Logger.LogSync("event", id.Hex(), r.Name, r.Err)
	}
}

func (s *EventService) afterMutation(ctx context.Context, id primitive.ObjectID, action changes.Action) {
	if err := s.Cache.Invalidate(ctx, cache.ActiveEventsKey); err != nil {
		s.Logger.LogSync("event", id.Hex(), "invalidate-cache", err)
	}
	err := s.Notifier.Notify(ctx, changes.Change{
		Entity:     changes.EntityEvent,
		EntityID:   id.Hex(),
		Action:     action,
		OccurredAt: s.Now().UTC(),
	})
	if err != nil {
		s.Logger.LogSync("event", id.Hex(), "notify", err)
	}
}

// stillActive keeps the events that are active at now, in their stored order.
func stillActive(events []models.Event, now time.Time) []models.Event {
	out := make([]models.Event, 0, len(events))
	for _, e := range events {
		if e.IsActive(now) {
			out = append(out, e)
		}
	}
	return out
}
