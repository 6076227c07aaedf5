// Package analytics builds the admin dashboard summary of events,
// listings and their Facebook Page mirror.
package analytics

import (
	"context"
	"time"

	"aggies-attic/internal/apperr"
	"aggies-attic/internal/models"
)

const (
	DefaultDays = 30
	MaxDays     = 365
)

type DBLayer interface {
	CountEvents(ctx context.Context) (int64, error)
	CountActiveEvents(ctx context.Context, now time.Time) (int64, error)
	EventSyncStates(ctx context.Context) ([]models.Event, error)
	ListingTotals(ctx context.Context) (ListingSummary, error)
	DailyListings(ctx context.Context, since time.Time) ([]DailyCount, error)
}

type EventSummary struct {
	Total       int64 `json:"total"`
	Active      int64 `json:"active"`
	Synced      int   `json:"synced"`
	Stale       int   `json:"stale"`
	NeverPosted int   `json:"neverPosted"`
}

type ListingSummary struct {
	Total         int64   `bson:"total" json:"total"`
	Posted        int64   `bson:"posted" json:"postedToFacebook"`
	WithoutImages int64   `bson:"withoutImages" json:"withoutImages"`
	AskingTotal   float64 `bson:"askingTotal" json:"askingTotal"`
}

type DailyCount struct {
	Date  string `bson:"_id" json:"date"`
	Count int    `bson:"count" json:"count"`
}

type Summary struct {
	GeneratedAt   time.Time      `json:"generatedAt"`
	Days          int            `json:"days"`
	Events        EventSummary   `json:"events"`
	Listings      ListingSummary `json:"listings"`
	DailyListings []DailyCount   `json:"dailyListings"`
}

type Service struct {
	DB  DBLayer
	Now func() time.Time
}

func NewService(db DBLayer) *Service {
	return &Service{DB: db, Now: time.Now}
}

// Summary reports current totals plus a per-day listing series covering
// the last days days, with empty days filled in as zero.
func (s *Service) Summary(ctx context.Context, days int) (*Summary, error) {
	if days < 1 || days > MaxDays {
		return nil, apperr.Validationf("days must be between 1 and %d", MaxDays)
	}
	now := s.Now().UTC()
	out := Summary{GeneratedAt: now, Days: days}

	var err error
	if out.Events.Total, err = s.DB.CountEvents(ctx); err != nil {
		return nil, apperr.Unexpected("Failed to build summary", err)
	}
	if out.Events.Active, err = s.DB.CountActiveEvents(ctx, now); err != nil {
		return nil, apperr.Unexpected("Failed to build summary", err)
	}
	states, err := s.DB.EventSyncStates(ctx)
	if err != nil {
		return nil, apperr.Unexpected("Failed to build summary", err)
	}
	for _, e := range states {
		switch e.SyncState().Status {
		case models.SyncSynced:
			out.Events.Synced++
		case models.SyncStale:
			out.Events.Stale++
		default:
			out.Events.NeverPosted++
		}
	}

	if out.Listings, err = s.DB.ListingTotals(ctx); err != nil {
		return nil, apperr.Unexpected("Failed to build summary", err)
	}

	start := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC).AddDate(0, 0, -(days - 1))
	counts, err := s.DB.DailyListings(ctx, start)
	if err != nil {
		return nil, apperr.Unexpected("Failed to build summary", err)
	}
	out.DailyListings = fillDays(start, days, counts)
	return &out, nil
}

func fillDays(start time.Time, days int, counts []DailyCount) []DailyCount {
	byDay := make(map[string]int, len(counts))
	for _, c := range counts {
		byDay[c.Date] = c.Count
	}
	series := make([]DailyCount, 0, days)
	for i := 0; i < days; i++ {
		day := start.AddDate(0, 0, i).Format("2006-01-02")
		series = append(series, DailyCount{Date: day, Count: byDay[day]})
	}
	return series
}
