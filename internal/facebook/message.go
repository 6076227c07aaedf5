package facebook

import (
	"strconv"
	"strings"
	"time"

	"aggies-attic/internal/models"
	"aggies-attic/internal/utils"
)

const (
	DefaultBaseURL      = "https://aggiesattic.org"
	maxDescriptionRunes = 900
	postDateLayout      = "Mon, Jan 2, 2006"
	defaultEventTitle   = "New Event"
	defaultListingTitle = "New listing"
)

// EventMessage is the text and link of an event post.
type EventMessage struct {
	Message string
	Link    string
}

func formatPostDate(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.UTC().Format(postDateLayout)
}

func whenLine(start, end *time.Time) string {
	s, e := formatPostDate(start), formatPostDate(end)
	switch {
	case s != "" && e != "" && s != e:
		return s + " – " + e
	case s != "":
		return s
	case e != "":
		return "Through " + e
	}
	return ""
}

func truncateRunes(s string, max int) string {
	r := []rune(s)
	if len(r) <= max {
		return s
	}
	return strings.TrimSpace(string(r[:max-1])) + "…"
}

// BuildEventMessage renders the post body: title, optional When line,
// optional description, then the event permalink.
func BuildEventMessage(e models.Event, baseURL string) EventMessage {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	id := ""
	if !e.ID.IsZero() {
		id = e.ID.Hex()
	}
	link := utils.EventPermalink(baseURL, id)

	title := strings.TrimSpace(e.Title)
	if title == "" {
		title = defaultEventTitle
	}

	lines := []string{title}
	if when := whenLine(e.Date, e.EndDate); when != "" {
		lines = append(lines, "When: "+when)
	}
	if desc := strings.TrimSpace(e.Description); desc != "" {
		lines = append(lines, "", truncateRunes(desc, maxDescriptionRunes))
	}
	lines = append(lines, "", link)

	return EventMessage{Message: strings.Join(lines, "\n"), Link: link}
}

// BuildListingCaption is "<title> — $<price>", or just the title when the
// listing has no price.
func BuildListingCaption(l models.Listing) string {
	title := strings.TrimSpace(l.Title)
	if title == "" {
		title = defaultListingTitle
	}
	if l.Price == nil {
		return title
	}
	return title + " — $" + strconv.FormatFloat(*l.Price, 'f', -1, 64)
}
