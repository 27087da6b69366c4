package syncer

import (
	"context"
	"errors"
	"sync"

	"go.uber.org/zap"

	"github.com/sambafall/comptoir/internal/domain/models"
	"github.com/sambafall/comptoir/internal/remote"
	"github.com/sambafall/comptoir/internal/store"
)

// State is the lifecycle of one collection subscription.
type State string

const (
	StateUnsubscribed State = "unsubscribed"
	StateSubscribing  State = "subscribing"
	StateSynced       State = "synced"
	StateError        State = "error"
)

// Persister stores the reconciled snapshot durably. Satisfied by
// localstore.Store.
type Persister interface {
	Save(models.Snapshot) error
}

// Engine is the change reconciler. It owns one change-stream subscription per
// mirrored collection and, for every emission, runs the three sequential
// steps: replace the cached collection, persist the snapshot, notify
// observers. Only the engine writes to the cache, and only with
// remote-confirmed state, so a partially failed business write can never
// drift the cache.
type Engine struct {
	watcher remote.Watcher
	cache   *store.Store
	local   Persister
	bus     *store.Bus
	logger  *zap.Logger

	mu     sync.Mutex
	cancel context.CancelFunc
	wg     sync.WaitGroup
	states map[models.Collection]State
	errs   map[models.Collection]error
}

// New wires a reconciler over the given collaborators.
func New(watcher remote.Watcher, cache *store.Store, local Persister, bus *store.Bus, logger *zap.Logger) *Engine {
	if logger == nil {
		logger = zap.NewNop()
	}

	states := make(map[models.Collection]State, len(models.Collections()))
	for _, coll := range models.Collections() {
		states[coll] = StateUnsubscribed
	}

	return &Engine{
		watcher: watcher,
		cache:   cache,
		local:   local,
		bus:     bus,
		logger:  logger,
		states:  states,
		errs:    make(map[models.Collection]error),
	}
}

// Start opens one subscription per mirrored collection. Calling Start while
// already running is a no-op; Stop must run first, otherwise duplicate
// listeners would accumulate.
func (e *Engine) Start(ctx context.Context) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.cancel != nil {
		e.logger.Warn("start ignored: sync already running")
		return
	}

	runCtx, cancel := context.WithCancel(ctx)
	e.cancel = cancel

	for _, coll := range models.Collections() {
		e.states[coll] = StateSubscribing
		delete(e.errs, coll)
		e.wg.Add(1)
		go e.run(runCtx, coll)
	}

	e.logger.Info("sync started", zap.Int("collections", len(models.Collections())))
}

// Stop cancels every open subscription and waits for them to unwind. It is
// idempotent and safe to call when already stopped. In-flight write
// sequences are user-initiated side effects and are deliberately not
// cancelled here.
func (e *Engine) Stop() {
	e.mu.Lock()
	cancel := e.cancel
	e.cancel = nil
	e.mu.Unlock()

	if cancel == nil {
		return
	}

	cancel()
	e.wg.Wait()

	e.mu.Lock()
	for _, coll := range models.Collections() {
		e.states[coll] = StateUnsubscribed
	}
	e.mu.Unlock()

	e.logger.Info("sync stopped")
}

// Status reports the current state of every collection subscription.
func (e *Engine) Status() map[models.Collection]State {
	e.mu.Lock()
	defer e.mu.Unlock()

	out := make(map[models.Collection]State, len(e.states))
	for coll, st := range e.states {
		out[coll] = st
	}
	return out
}

// LastError returns the terminal error of a collection subscription, if any.
func (e *Engine) LastError(collection models.Collection) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.errs[collection]
}

func (e *Engine) run(ctx context.Context, collection models.Collection) {
	defer e.wg.Done()

	emissions, err := e.watcher.Watch(ctx, collection)
	if err != nil {
		e.fail(collection, err)
		return
	}

	for em := range emissions {
		if em.Err != nil {
			// The collection keeps its last known cache value, stale but
			// available.
			e.fail(collection, em.Err)
			continue
		}
		e.apply(em)
		e.setState(collection, StateSynced, nil)
	}

	if ctx.Err() != nil {
		e.setState(collection, StateUnsubscribed, nil)
	}
}

// apply installs one remote-confirmed emission: in-memory replace, then
// persist, then notify. The steps run sequentially on the subscription's own
// goroutine, so two emissions of the same collection never interleave.
func (e *Engine) apply(em remote.Emission) {
	switch em.Collection {
	case models.CollectionSettings:
		if em.Snapshot.Settings != nil {
			e.cache.ReplaceSettings(*em.Snapshot.Settings)
		}
	case models.CollectionProducts:
		e.cache.ReplaceProducts(em.Snapshot.Products)
	case models.CollectionCustomers:
		e.cache.ReplaceCustomers(em.Snapshot.Customers)
	case models.CollectionOrders:
		e.cache.ReplaceOrders(em.Snapshot.Orders)
	case models.CollectionExpenses:
		e.cache.ReplaceExpenses(em.Snapshot.Expenses)
	case models.CollectionPayments:
		e.cache.ReplacePayments(em.Snapshot.Payments)
	}

	if err := e.local.Save(e.cache.Snapshot()); err != nil {
		// Swallowed: the in-memory cache is current and the previously
		// persisted snapshot remains valid for the next load.
		e.logger.Warn("snapshot persist failed",
			zap.String("collection", string(em.Collection)), zap.Error(err))
	}

	e.bus.Notify(em.Collection)
}

func (e *Engine) fail(collection models.Collection, err error) {
	switch {
	case errors.Is(err, remote.ErrIndexRequired):
		// Configuration error: an operator must provision the index; the
		// subscription is not retried automatically.
		e.logger.Error("subscription needs a supporting index",
			zap.String("collection", string(collection)), zap.Error(err))
	case errors.Is(err, remote.ErrPermissionDenied):
		e.logger.Warn("subscription denied, serving last known value",
			zap.String("collection", string(collection)), zap.Error(err))
	default:
		e.logger.Warn("subscription error",
			zap.String("collection", string(collection)), zap.Error(err))
	}

	e.setState(collection, StateError, err)
}

func (e *Engine) setState(collection models.Collection, st State, err error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.states[collection] = st
	if err != nil {
		e.errs[collection] = err
	}
}
