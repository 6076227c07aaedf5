// Package changes describes the notifications sent after a successful
// event or listing mutation.
package changes

import (
	"context"
	"errors"
	"time"
)

type Entity string

const (
	EntityEvent   Entity = "event"
	EntityListing Entity = "listing"
)

type Action string

const (
	ActionCreated Action = "created"
	ActionUpdated Action = "updated"
	ActionDeleted Action = "deleted"
)

type Change struct {
	Entity     Entity    `json:"entity"`
	EntityID   string    `json:"entityId"`
	Action     Action    `json:"action"`
	OccurredAt time.Time `json:"occurredAt"`
}

type Notifier interface {
	Notify(ctx context.Context, c Change) error
}

// Nop drops every change.
type Nop struct{}

func (Nop) Notify(context.Context, Change) error { return nil }

// Fanout delivers each change to every notifier and returns the joined
// errors.
type Fanout []Notifier

func (f Fanout) Notify(ctx context.Context, c Change) error {
	var errs []error
	for _, n := range f {
		if err := n.Notify(ctx, c); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
