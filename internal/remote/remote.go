package remote

import (
	"context"
	"errors"

	"github.com/sambafall/comptoir/internal/domain/models"
)

// ErrPermissionDenied marks a subscription or write rejected by the remote
// store's access rules. The cache keeps its last known value.
var ErrPermissionDenied = errors.New("remote: permission denied")

// ErrIndexRequired marks a query the server refused for lack of a supporting
// index. This is an operator-facing configuration error, not a retryable
// fault.
var ErrIndexRequired = errors.New("remote: supporting index required")

// CollectionSnapshot is a full authoritative replica of one collection.
// Exactly the field matching the emission's collection is populated.
type CollectionSnapshot struct {
	Settings  *models.Settings
	Products  []models.Product
	Customers []models.Customer
	Orders    []models.Order
	Expenses  []models.Expense
	Payments  []models.Payment
}

// Emission is one message on a change-stream subscription: either a full
// collection snapshot or a terminal error. After an emission with a non-nil
// Err no further emissions arrive and the channel is closed.
type Emission struct {
	Collection models.Collection
	Snapshot   CollectionSnapshot
	Err        error
}

// Watcher opens per-collection change-stream subscriptions. Each emission is
// the full current state of the collection, so applying it is idempotent.
// Cancelling ctx ends the subscription and closes the channel.
type Watcher interface {
	Watch(ctx context.Context, collection models.Collection) (<-chan Emission, error)
}

// Writer performs point writes against the remote store. Documents carry
// client-generated ids; the cache is never mutated here, updates flow back
// through the change stream.
type Writer interface {
	Create(ctx context.Context, collection models.Collection, doc any) error
	Update(ctx context.Context, collection models.Collection, id string, fields map[string]any) error
	Upsert(ctx context.Context, collection models.Collection, id string, doc any) error
}

// Store is the full remote document store contract.
type Store interface {
	Watcher
	Writer
}
