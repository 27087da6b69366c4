package localstore

import (
	"database/sql"
	"encoding/json"
	"fmt"

	_ "github.com/mattn/go-sqlite3"
	"go.uber.org/zap"

	"github.com/sambafall/comptoir/internal/domain/models"
)

const schemaSQL = `
CREATE TABLE IF NOT EXISTS snapshots (
	key   TEXT PRIMARY KEY,
	value BLOB NOT NULL
);`

// Store persists the last reconciled snapshot so the application is usable
// immediately on restart, before the change streams reconnect. It is a cache
// of remote state, never a source of truth: Save overwrites, Load replays.
type Store struct {
	db     *sql.DB
	logger *zap.Logger
}

// Open creates or opens the snapshot database at the given path.
func Open(path string, logger *zap.Logger) (*Store, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open snapshot db: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to snapshot db: %w", err)
	}

	// SQLite allows a single writer; one connection avoids SQLITE_BUSY.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA synchronous = NORMAL",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to execute %q: %w", pragma, err)
		}
	}

	if _, err := db.Exec(schemaSQL); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to apply schema: %w", err)
	}

	return &Store{db: db, logger: logger}, nil
}

// Close closes the snapshot database.
func (s *Store) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Save persists the full snapshot in one transaction, overwriting whatever
// was stored before. On error the previously persisted snapshot remains
// intact and valid for the next Load; callers log and carry on.
func (s *Store) Save(snap models.Snapshot) error {
	entries := map[models.Collection]any{
		models.CollectionSettings:  snap.Settings,
		models.CollectionProducts:  snap.Products,
		models.CollectionCustomers: snap.Customers,
		models.CollectionOrders:    snap.Orders,
		models.CollectionExpenses:  snap.Expenses,
		models.CollectionPayments:  snap.Payments,
	}

	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("begin snapshot save: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	for key, value := range entries {
		blob, err := json.Marshal(value)
		if err != nil {
			return fmt.Errorf("encode %s: %w", key, err)
		}
		if _, err := tx.Exec(
			`INSERT INTO snapshots (key, value) VALUES (?, ?)
			 ON CONFLICT(key) DO UPDATE SET value = excluded.value`,
			string(key), blob,
		); err != nil {
			return fmt.Errorf("store %s: %w", key, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit snapshot save: %w", err)
	}

	s.logger.Debug("snapshot persisted")
	return nil
}

// Load returns the last persisted snapshot, or an empty snapshot with default
// settings on first run. Unknown keys are ignored so older databases keep
// loading after the schema of Snapshot grows.
func (s *Store) Load() (models.Snapshot, error) {
	snap := models.Snapshot{Settings: models.DefaultSettings()}

	rows, err := s.db.Query(`SELECT key, value FROM snapshots`)
	if err != nil {
		return snap, fmt.Errorf("load snapshot: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			key  string
			blob []byte
		)
		if err := rows.Scan(&key, &blob); err != nil {
			return snap, fmt.Errorf("scan snapshot row: %w", err)
		}

		var dest any
		switch models.Collection(key) {
		case models.CollectionSettings:
			dest = &snap.Settings
		case models.CollectionProducts:
			dest = &snap.Products
		case models.CollectionCustomers:
			dest = &snap.Customers
		case models.CollectionOrders:
			dest = &snap.Orders
		case models.CollectionExpenses:
			dest = &snap.Expenses
		case models.CollectionPayments:
			dest = &snap.Payments
		default:
			continue
		}

		if err := json.Unmarshal(blob, dest); err != nil {
			return snap, fmt.Errorf("decode %s: %w", key, err)
		}
	}

	return snap, rows.Err()
}
