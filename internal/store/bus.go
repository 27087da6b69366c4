package store

import (
	"sync"

	"github.com/sambafall/comptoir/internal/domain/models"
)

// Bus fans "collection changed" notifications out to registered observers.
// Observers are invoked synchronously; unsubscribing is explicit so the
// subscription lifecycle stays a testable contract.
type Bus struct {
	mu     sync.Mutex
	nextID int
	subs   map[int]func(models.Collection)
}

// NewBus creates an empty observer registry.
func NewBus() *Bus {
	return &Bus{subs: make(map[int]func(models.Collection))}
}

// Subscribe registers an observer and returns its unsubscribe function,
// which is safe to call more than once.
func (b *Bus) Subscribe(fn func(models.Collection)) (unsubscribe func()) {
	b.mu.Lock()
	defer b.mu.Unlock()

	id := b.nextID
	b.nextID++
	b.subs[id] = fn

	return func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		delete(b.subs, id)
	}
}

// Notify tells every observer that the given collection changed. Callbacks
// run outside the registry lock so an observer may unsubscribe itself.
func (b *Bus) Notify(collection models.Collection) {
	b.mu.Lock()
	observers := make([]func(models.Collection), 0, len(b.subs))
	for _, fn := range b.subs {
		observers = append(observers, fn)
	}
	b.mu.Unlock()

	for _, fn := range observers {
		fn(collection)
	}
}
