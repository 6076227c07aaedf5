package models

import (
	"errors"
	"sort"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// ActiveGraceWindow keeps an event without an end date listed for a day
// after it starts.
const ActiveGraceWindow = 24 * time.Hour

type EventImage struct {
	ID         primitive.ObjectID  `bson:"_id" json:"_id"`
	URL        string              `bson:"url" json:"url"`
	PublicID   string              `bson:"publicId" json:"publicId"`
	UploadedAt time.Time           `bson:"uploadedAt" json:"uploadedAt"`
	UploadedBy *primitive.ObjectID `bson:"uploadedBy,omitempty" json:"uploadedBy,omitempty"`
}

// FacebookSync mirrors the most recent Page post for an event.
type FacebookSync struct {
	PostID       *string    `bson:"postId" json:"postId"`
	LastSyncedAt *time.Time `bson:"lastSyncedAt" json:"lastSyncedAt"`
	LastError    *string    `bson:"lastError" json:"lastError"`
}

type Event struct {
	ID          primitive.ObjectID  `bson:"_id,omitempty" json:"_id"`
	Title       string              `bson:"title" json:"title"`
	Description string              `bson:"description" json:"description"`
	Date        *time.Time          `bson:"date" json:"date"`
	EndDate     *time.Time          `bson:"endDate" json:"endDate"`
	Images      []EventImage        `bson:"images" json:"images"`
	Facebook    FacebookSync        `bson:"facebook" json:"facebook"`
	CreatedBy   *primitive.ObjectID `bson:"createdBy,omitempty" json:"createdBy,omitempty"`
	CreatedAt   time.Time           `bson:"createdAt" json:"createdAt"`
	UpdatedAt   time.Time           `bson:"updatedAt" json:"updatedAt"`
}

// EventInput is the JSON body of create and update calls.
type EventInput struct {
	Title       string  `json:"title"`
	Description string  `json:"description"`
	Date        *string `json:"date"`
	EndDate     *string `json:"endDate"`
}

var ErrEndBeforeStart = errors.New("endDate must be greater than or equal to date")

// EventFields are the four admin-editable fields after validation.
type EventFields struct {
	Title       string
	Description string
	Date        *time.Time
	EndDate     *time.Time
}

func (f EventFields) CheckRange() error {
	if f.Date != nil && f.EndDate != nil && f.EndDate.Before(*f.Date) {
		return ErrEndBeforeStart
	}
	return nil
}

// IsActive is the Go form of the store's active-events filter: evergreen,
// or end date not yet passed, or no end date and started within the grace
// window.
func (e Event) IsActive(now time.Time) bool {
	switch {
	case e.Date == nil && e.EndDate == nil:
		return true
	case e.EndDate != nil:
		return !e.EndDate.Before(now)
	default:
		return !e.Date.Before(now.Add(-ActiveGraceWindow))
	}
}

func (e Event) FirstImageURL() string {
	if len(e.Images) == 0 {
		return ""
	}
	return e.Images[0].URL
}

func (e Event) PublicIDs() []string {
	ids := make([]string, 0, len(e.Images))
	for _, img := range e.Images {
		if img.PublicID != "" {
			ids = append(ids, img.PublicID)
		}
	}
	return ids
}

func (e Event) ImageByID(id primitive.ObjectID) (EventImage, bool) {
	for _, img := range e.Images {
		if img.ID == id {
			return img, true
		}
	}
	return EventImage{}, false
}

func (e Event) PostID() string {
	if e.Facebook.PostID == nil {
		return ""
	}
	return *e.Facebook.PostID
}

type SyncStatus string

const (
	SyncAbsent SyncStatus = "absent"
	SyncSynced SyncStatus = "synced"
	SyncStale  SyncStatus = "stale"
)

type SyncState struct {
	Status    SyncStatus
	PostID    string
	LastError string
}

func (e Event) SyncState() SyncState {
	s := SyncState{PostID: e.PostID()}
	if e.Facebook.LastError != nil && *e.Facebook.LastError != "" {
		s.Status = SyncStale
		s.LastError = *e.Facebook.LastError
		return s
	}
	if s.PostID == "" {
		s.Status = SyncAbsent
		return s
	}
	s.Status = SyncSynced
	return s
}

// SortActiveEvents orders dated events first, soonest first, then undated
// events. Ties and the undated group go newest created first.
func SortActiveEvents(events []Event) {
	sort.SliceStable(events, func(i, j int) bool {
		a, b := events[i], events[j]
		switch {
		case a.Date != nil && b.Date == nil:
			return true
		case a.Date == nil && b.Date != nil:
			return false
		case a.Date != nil && b.Date != nil && !a.Date.Equal(*b.Date):
			return a.Date.Before(*b.Date)
		}
		return a.CreatedAt.After(b.CreatedAt)
	})
}
