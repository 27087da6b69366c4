package store

import (
	"slices"
	"sync"

	"github.com/sambafall/comptoir/internal/domain/models"
)

// Store is the single in-memory replica of the last reconciled remote state.
// Only the sync engine writes to it, always with a full remote-confirmed
// collection snapshot; every other component reads. Accessors return copies
// of the collection slices so observers cannot mutate cached state.
type Store struct {
	mu   sync.RWMutex
	snap models.Snapshot
}

// New seeds the cache, typically from the local store's persisted snapshot.
func New(initial models.Snapshot) *Store {
	if initial.Settings.ID == "" {
		initial.Settings = models.DefaultSettings()
	}
	return &Store{snap: initial}
}

// Snapshot returns a copy of the full cached state.
func (s *Store) Snapshot() models.Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()

	snap := s.snap
	snap.Products = slices.Clone(snap.Products)
	snap.Customers = slices.Clone(snap.Customers)
	snap.Orders = slices.Clone(snap.Orders)
	snap.Expenses = slices.Clone(snap.Expenses)
	snap.Payments = slices.Clone(snap.Payments)
	return snap
}

// Settings returns the cached settings singleton.
func (s *Store) Settings() models.Settings {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snap.Settings
}

// Products returns a copy of the cached products collection.
func (s *Store) Products() []models.Product {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.snap.Products)
}

// Customers returns a copy of the cached customers collection.
func (s *Store) Customers() []models.Customer {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.snap.Customers)
}

// Orders returns a copy of the cached orders collection in the order the
// reconciler last received it (date descending per the remote query).
func (s *Store) Orders() []models.Order {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.snap.Orders)
}

// Expenses returns a copy of the cached expenses collection.
func (s *Store) Expenses() []models.Expense {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.snap.Expenses)
}

// Payments returns a copy of the cached payments ledger.
func (s *Store) Payments() []models.Payment {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.snap.Payments)
}

// Product looks up one cached product by id.
func (s *Store) Product(id string) (models.Product, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, p := range s.snap.Products {
		if p.ID == id {
			return p, true
		}
	}
	return models.Product{}, false
}

// Customer looks up one cached customer by id.
func (s *Store) Customer(id string) (models.Customer, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, c := range s.snap.Customers {
		if c.ID == id {
			return c, true
		}
	}
	return models.Customer{}, false
}

// Order looks up one cached order by id.
func (s *Store) Order(id string) (models.Order, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, o := range s.snap.Orders {
		if o.ID == id {
			return o, true
		}
	}
	return models.Order{}, false
}

// ReplaceSettings installs a remote-confirmed settings document.
func (s *Store) ReplaceSettings(settings models.Settings) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.snap.Settings = settings
}

// ReplaceProducts installs a remote-confirmed products snapshot. Replacing
// the whole collection makes reconciliation idempotent: re-applying the same
// snapshot is a no-op.
func (s *Store) ReplaceProducts(products []models.Product) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.snap.Products = slices.Clone(products)
}

// ReplaceCustomers installs a remote-confirmed customers snapshot.
func (s *Store) ReplaceCustomers(customers []models.Customer) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.snap.Customers = slices.Clone(customers)
}

// ReplaceOrders installs a remote-confirmed orders snapshot.
func (s *Store) ReplaceOrders(orders []models.Order) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.snap.Orders = slices.Clone(orders)
}

// ReplaceExpenses installs a remote-confirmed expenses snapshot.
func (s *Store) ReplaceExpenses(expenses []models.Expense) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.snap.Expenses = slices.Clone(expenses)
}

// ReplacePayments installs a remote-confirmed payments snapshot.
func (s *Store) ReplacePayments(payments []models.Payment) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.snap.Payments = slices.Clone(payments)
}
