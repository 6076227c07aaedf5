package utils

import (
	"fmt"
	"strings"
)

// EventPermalink is the public page of an event. Without an id it is the
// site root.
func EventPermalink(baseURL, eventID string) string {
	baseURL = strings.TrimRight(baseURL, "/")
	if eventID == "" {
		return baseURL
	}
	return fmt.Sprintf("%s/events/%s", baseURL, eventID)
}
