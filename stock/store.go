package stock

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"ticket-gate/models"
	"ticket-gate/status"

	"github.com/pocketbase/dbx"
)

// Store is the persistence boundary for stock records. Get and the
// decrement operations work on the resource id, not the row id, because one
// resource has exactly one stock row.
type Store interface {
	// Get returns the current record, or status.ErrStockNotFound.
	Get(ctx context.Context, resourceID string) (*models.StockRecord, error)

	// DecrementWithVersion applies the decrement only when the stored
	// version still matches, bumping the version on success. Returns false
	// on a version conflict.
	DecrementWithVersion(ctx context.Context, resourceID string, quantity int, version int64) (bool, error)

	// Decrement applies a plain decrement with a version bump. Callers must
	// hold an external mutual exclusion over the resource.
	Decrement(ctx context.Context, resourceID string, quantity int) error

	// Transactional runs fn inside one storage transaction.
	Transactional(ctx context.Context, fn func(tx Tx) error) error
}

// Tx is the transactional view used by the pessimistic guard.
type Tx interface {
	// GetForUpdate reads the record under an exclusive row lock held until
	// the transaction ends.
	GetForUpdate(resourceID string) (*models.StockRecord, error)

	Decrement(resourceID string, quantity int) error
}

const stockColumns = "id, resource_id, total_quantity, remaining_quantity, version, unit_price"

// SQLStore persists stock records through dbx. Engines without SELECT ...
// FOR UPDATE (sqlite) fall back to transaction-level write serialization,
// which preserves the same exclusion for a single database file.
type SQLStore struct {
	db        *dbx.DB
	forUpdate bool
}

func NewSQLStore(db *dbx.DB, driver string) *SQLStore {
	return &SQLStore{
		db:        db,
		forUpdate: driver != "sqlite" && driver != "sqlite3",
	}
}

// EnsureSchema creates the stock table when it does not exist yet.
func (s *SQLStore) EnsureSchema(ctx context.Context) error {
	_, err := s.db.NewQuery(`
		CREATE TABLE IF NOT EXISTS ticket_stocks (
			id INTEGER PRIMARY KEY,
			resource_id TEXT NOT NULL UNIQUE,
			total_quantity INTEGER NOT NULL,
			remaining_quantity INTEGER NOT NULL,
			version INTEGER NOT NULL DEFAULT 0,
			unit_price TEXT NOT NULL DEFAULT '0'
		)`).WithContext(ctx).Execute()
	return err
}

// Create inserts a fresh stock row for a resource.
func (s *SQLStore) Create(ctx context.Context, rec *models.StockRecord) error {
	if rec.RemainingQuantity < 0 || rec.RemainingQuantity > rec.TotalQuantity {
		return fmt.Errorf("stock: invalid quantities, total=%d remaining=%d",
			rec.TotalQuantity, rec.RemainingQuantity)
	}

	_, err := s.db.Insert("ticket_stocks", dbx.Params{
		"resource_id":        rec.ResourceID,
		"total_quantity":     rec.TotalQuantity,
		"remaining_quantity": rec.RemainingQuantity,
		"version":            rec.Version,
		"unit_price":         rec.UnitPrice.String(),
	}).WithContext(ctx).Execute()
	return err
}

func (s *SQLStore) Get(ctx context.Context, resourceID string) (*models.StockRecord, error) {
	var rec models.StockRecord
	err := s.db.NewQuery("SELECT " + stockColumns + " FROM ticket_stocks WHERE resource_id={:rid}").
		Bind(dbx.Params{"rid": resourceID}).
		WithContext(ctx).
		One(&rec)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, status.ErrStockNotFound
	}
	if err != nil {
		return nil, err
	}
	return &rec, nil
}

func (s *SQLStore) DecrementWithVersion(ctx context.Context, resourceID string, quantity int, version int64) (bool, error) {
	res, err := s.db.NewQuery(`
		UPDATE ticket_stocks
		SET remaining_quantity = remaining_quantity - {:qty}, version = version + 1
		WHERE resource_id = {:rid} AND version = {:ver} AND remaining_quantity >= {:qty}`).
		Bind(dbx.Params{"qty": quantity, "rid": resourceID, "ver": version}).
		WithContext(ctx).
		Execute()
	if err != nil {
		return false, err
	}

	rows, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return rows == 1, nil
}

func (s *SQLStore) Decrement(ctx context.Context, resourceID string, quantity int) error {
	_, err := s.db.NewQuery(`
		UPDATE ticket_stocks
		SET remaining_quantity = remaining_quantity - {:qty}, version = version + 1
		WHERE resource_id = {:rid}`).
		Bind(dbx.Params{"qty": quantity, "rid": resourceID}).
		WithContext(ctx).
		Execute()
	return err
}

func (s *SQLStore) Transactional(ctx context.Context, fn func(tx Tx) error) error {
	return s.db.TransactionalContext(ctx, nil, func(tx *dbx.Tx) error {
		return fn(&sqlTx{tx: tx, ctx: ctx, forUpdate: s.forUpdate})
	})
}

type sqlTx struct {
	tx        *dbx.Tx
	ctx       context.Context
	forUpdate bool
}

func (t *sqlTx) GetForUpdate(resourceID string) (*models.StockRecord, error) {
	query := "SELECT " + stockColumns + " FROM ticket_stocks WHERE resource_id={:rid}"
	if t.forUpdate {
		query += " FOR UPDATE"
	}

	var rec models.StockRecord
	err := t.tx.NewQuery(query).
		Bind(dbx.Params{"rid": resourceID}).
		WithContext(t.ctx).
		One(&rec)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, status.ErrStockNotFound
	}
	if err != nil {
		return nil, err
	}
	return &rec, nil
}

func (t *sqlTx) Decrement(resourceID string, quantity int) error {
	_, err := t.tx.NewQuery(`
		UPDATE ticket_stocks
		SET remaining_quantity = remaining_quantity - {:qty}, version = version + 1
		WHERE resource_id = {:rid}`).
		Bind(dbx.Params{"qty": quantity, "rid": resourceID}).
		WithContext(t.ctx).
		Execute()
	return err
}
