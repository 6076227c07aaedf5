package calendar

import (
	"strings"
	"testing"
	"time"

	"aggies-attic/internal/models"

	ics "github.com/arran4/golang-ical"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func noon(y int, m time.Month, d int) *time.Time {
	t := time.Date(y, m, d, 12, 0, 0, 0, time.UTC)
	return &t
}

func TestRender(t *testing.T) {
	timed := time.Date(2025, 6, 5, 17, 30, 0, 0, time.UTC)
	events := []models.Event{
		{ID: primitive.NewObjectID(), Title: "Spring Sale", Description: "Half off", Date: noon(2025, 6, 1), EndDate: noon(2025, 6, 3)},
		{ID: primitive.NewObjectID(), Title: "Workshop", Date: &timed},
		{ID: primitive.NewObjectID(), Title: "Always open"},
	}

	out := Render(events, "Aggie's Attic Events", "https://example.org", time.Date(2025, 5, 1, 0, 0, 0, 0, time.UTC))

	cal, err := ics.ParseCalendar(strings.NewReader(out))
	require.NoError(t, err)
	require.Len(t, cal.Events(), 2, "undated events are skipped")

	assert.Contains(t, out, "SUMMARY:Spring Sale")
	assert.Contains(t, out, "DTSTART;VALUE=DATE:20250601")
	assert.Contains(t, out, "DTEND;VALUE=DATE:20250604")
	assert.Contains(t, out, "DTSTART:20250605T173000Z")
	assert.Contains(t, out, "URL:https://example.org/events/"+events[0].ID.Hex())
}

func TestIsDateOnly(t *testing.T) {
	assert.True(t, isDateOnly(*noon(2025, 1, 1)))
	assert.False(t, isDateOnly(time.Date(2025, 1, 1, 12, 0, 1, 0, time.UTC)))
	assert.False(t, isDateOnly(time.Date(2025, 1, 1, 9, 0, 0, 0, time.UTC)))
}
