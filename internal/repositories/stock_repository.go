package repositories

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

// StockRepository is the per-(material, site) balance ledger. It performs no
// sign validation; callers enforce business rules and supply the transaction.
type StockRepository interface {
	// GetBalance returns the current quantity, or zero when no row exists.
	// It always reads through the primary pool for read-your-writes freshness.
	GetBalance(materialID, siteID int64) (decimal.Decimal, error)
	// EnsureRow upserts a zero-quantity row so a later additive update cannot
	// miss. Safe to call for existing rows; callers run it before ApplyDelta
	// whenever the row may not exist yet.
	EnsureRow(executor SQLExecutor, materialID, siteID int64) error
	// ApplyDelta adds delta to the balance inside the caller's transaction.
	// Returns ErrNotFound when the row is absent.
	ApplyDelta(executor SQLExecutor, materialID, siteID int64, delta decimal.Decimal) error
}

type stockRepository struct {
	db *sql.DB
}

// NewStockRepository creates a new instance of StockRepository.
func NewStockRepository(db *sql.DB) StockRepository {
	return &stockRepository{db: db}
}

func (r *stockRepository) GetBalance(materialID, siteID int64) (decimal.Decimal, error) {
	var quantity decimal.Decimal
	query := `SELECT quantity FROM site_stock WHERE material_id = $1 AND site_id = $2`
	err := r.db.QueryRow(query, materialID, siteID).Scan(&quantity)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return decimal.Zero, nil
		}
		return decimal.Zero, fmt.Errorf("%w: getting balance for material %d at site %d: %v",
			ErrDatabaseError, materialID, siteID, err)
	}
	return quantity, nil
}

func (r *stockRepository) EnsureRow(executor SQLExecutor, materialID, siteID int64) error {
	query := `INSERT INTO site_stock (material_id, site_id, quantity)
	          VALUES ($1, $2, 0)
	          ON CONFLICT (material_id, site_id) DO NOTHING`
	if _, err := executor.Exec(query, materialID, siteID); err != nil {
		return fmt.Errorf("%w: ensuring stock row for material %d at site %d: %v",
			ErrDatabaseError, materialID, siteID, err)
	}
	return nil
}

func (r *stockRepository) ApplyDelta(executor SQLExecutor, materialID, siteID int64, delta decimal.Decimal) error {
	query := `UPDATE site_stock SET quantity = quantity + $1 WHERE material_id = $2 AND site_id = $3`
	result, err := executor.Exec(query, delta, materialID, siteID)
	if err != nil {
		return fmt.Errorf("%w: applying stock delta for material %d at site %d: %v",
			ErrDatabaseError, materialID, siteID, err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("%w: applying stock delta for material %d at site %d: %v",
			ErrDatabaseError, materialID, siteID, err)
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}
