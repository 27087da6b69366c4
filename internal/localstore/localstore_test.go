package localstore

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/sambafall/comptoir/internal/domain/models"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := Open(filepath.Join(t.TempDir(), "snapshots.db"), nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestFirstRunLoadsDefaults(t *testing.T) {
	store := openTestStore(t)

	snap, err := store.Load()
	require.NoError(t, err)
	require.Equal(t, models.DefaultSettings(), snap.Settings)
	require.Empty(t, snap.Products)
	require.Empty(t, snap.Orders)
}

func TestSaveLoadRoundTrip(t *testing.T) {
	store := openTestStore(t)

	saved := models.Snapshot{
		Settings: models.Settings{ID: models.SettingsID, CurrencyCode: "GNF", CurrencySymbol: "FG", SetupComplete: true},
		Products: []models.Product{
			{ID: "p1", Name: "Bottle 500ml", Category: models.CategoryBottle, SellingPrice: 100, StockQuantity: 12},
		},
		Customers: []models.Customer{
			{ID: "c1", Name: "Boutique Kaloum", CreditLimit: 1000, OutstandingBalance: 120},
		},
		Orders: []models.Order{
			{ID: "o1", CustomerID: "c1", Total: 210, Status: models.StatusPending},
		},
	}
	require.NoError(t, store.Save(saved))

	loaded, err := store.Load()
	require.NoError(t, err)
	require.Equal(t, saved.Settings, loaded.Settings)
	require.Equal(t, saved.Products, loaded.Products)
	require.Equal(t, saved.Customers, loaded.Customers)
	require.Equal(t, saved.Orders, loaded.Orders)
}

func TestSaveOverwritesPreviousSnapshot(t *testing.T) {
	store := openTestStore(t)

	require.NoError(t, store.Save(models.Snapshot{
		Settings: models.DefaultSettings(),
		Products: []models.Product{{ID: "p1", Name: "old"}, {ID: "p2", Name: "stale"}},
	}))
	require.NoError(t, store.Save(models.Snapshot{
		Settings: models.DefaultSettings(),
		Products: []models.Product{{ID: "p1", Name: "new"}},
	}))

	loaded, err := store.Load()
	require.NoError(t, err)
	require.Len(t, loaded.Products, 1)
	require.Equal(t, "new", loaded.Products[0].Name)
}

func TestReopenKeepsData(t *testing.T) {
	path := filepath.Join(t.TempDir(), "snapshots.db")

	store, err := Open(path, nil)
	require.NoError(t, err)
	require.NoError(t, store.Save(models.Snapshot{
		Settings: models.DefaultSettings(),
		Expenses: []models.Expense{{ID: "e1", Category: models.ExpenseTransport, Amount: 80}},
	}))
	require.NoError(t, store.Close())

	reopened, err := Open(path, nil)
	require.NoError(t, err)
	defer reopened.Close()

	loaded, err := reopened.Load()
	require.NoError(t, err)
	require.Len(t, loaded.Expenses, 1)
	require.Equal(t, 80.0, loaded.Expenses[0].Amount)
}
