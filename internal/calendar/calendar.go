// Package calendar renders events as an iCalendar feed.
package calendar

import (
	"time"

	"aggies-attic/internal/models"
	"aggies-attic/internal/utils"

	ics "github.com/arran4/golang-ical"
)

const (
	productID = "-//Aggies Attic//Events//EN"
	uidDomain = "aggiesattic.org"
)

// isDateOnly reports whether t carries only a calendar day, i.e. it was
// entered as YYYY-MM-DD and pinned to noon UTC.
func isDateOnly(t time.Time) bool {
	t = t.UTC()
	return t.Hour() == utils.CalendarNoonHour && t.Minute() == 0 && t.Second() == 0 && t.Nanosecond() == 0
}

// Render builds a calendar with one VEVENT per dated event. Undated
// (evergreen) events have nowhere to go on a calendar and are skipped.
func Render(events []models.Event, name, baseURL string, now time.Time) string {
	cal := ics.NewCalendar()
	cal.SetMethod(ics.MethodPublish)
	cal.SetProductId(productID)
	cal.SetName(name)
	cal.SetXWRCalName(name)

	for _, e := range events {
		start, end := e.Date, e.EndDate
		if start == nil {
			start = end
		}
		if start == nil {
			continue
		}
		if end == nil {
			end = start
		}

		ev := cal.AddEvent(e.ID.Hex() + "@" + uidDomain)
		ev.SetDtStampTime(now.UTC())
		ev.SetCreatedTime(e.CreatedAt.UTC())
		ev.SetModifiedAt(e.UpdatedAt.UTC())
		ev.SetSummary(e.Title)
		if e.Description != "" {
			ev.SetDescription(e.Description)
		}
		ev.SetURL(utils.EventPermalink(baseURL, e.ID.Hex()))

		if isDateOnly(*start) && isDateOnly(*end) {
			// DTEND of an all-day event is exclusive.
			ev.SetAllDayStartAt(start.UTC())
			ev.SetAllDayEndAt(end.UTC().AddDate(0, 0, 1))
			continue
		}
		ev.SetStartAt(start.UTC())
		if end.After(*start) {
			ev.SetEndAt(end.UTC())
		} else {
			ev.SetEndAt(start.UTC().Add(time.Hour))
		}
	}
	return cal.Serialize()
}
