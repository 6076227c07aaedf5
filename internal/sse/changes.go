// Package sse streams record changes to browsers so public pages can
// refresh without polling.
package sse

import (
	"context"
	"sync"

	"aggies-attic/internal/changes"
)

const clientBuffer = 10

// Broadcaster fans changes out to subscribed clients, optionally
// filtered by entity.
type Broadcaster struct {
	mu      sync.RWMutex
	clients map[chan changes.Change]changes.Entity
}

func NewBroadcaster() *Broadcaster {
	return &Broadcaster{clients: make(map[chan changes.Change]changes.Entity)}
}

// Subscribe returns a channel of changes for entity, or for every entity
// when entity is empty. The channel is closed once ctx is done.
func (b *Broadcaster) Subscribe(ctx context.Context, entity changes.Entity) <-chan changes.Change {
	ch := make(chan changes.Change, clientBuffer)

	b.mu.Lock()
	b.clients[ch] = entity
	b.mu.Unlock()

	go func() {
		<-ctx.Done()
		b.mu.Lock()
		delete(b.clients, ch)
		close(ch)
		b.mu.Unlock()
	}()
	return ch
}

// Notify never blocks; a client whose buffer is full misses the change.
func (b *Broadcaster) Notify(_ context.Context, c changes.Change) error {
	b.mu.RLock()
	defer b.mu.RUnlock()
	for ch, entity := range b.clients {
		if entity != "" && entity != c.Entity {
			continue
		}
		select {
		case ch <- c:
		default:
		}
	}
	return nil
}

func (b *Broadcaster) ClientCount() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.clients)
}
