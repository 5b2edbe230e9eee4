package repositories

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"almoxarifado_backend/internal/models"
)

// MovementRepository is the append-mostly movement journal. Records are never
// updated after insert except for the reversed flag.
type MovementRepository interface {
	Create(executor SQLExecutor, m *models.MovementRecord) (int64, error)
	GetByID(movementID int64) (*models.MovementRecord, error)
	// MarkReversed flips the reversed flag of an un-reversed record. Returns
	// ErrNotFound when the record is missing or already reversed, which gives
	// at-most-once reversal even under concurrent attempts.
	MarkReversed(executor SQLExecutor, movementID int64) error
	// GetHistory lists non-reversed movements for a site, newest first. Reads
	// the primary pool so history right after a write is never stale.
	GetHistory(siteID int64, filters models.HistoryFilters) ([]models.MovementRecord, error)
}

type movementRepository struct {
	db *sql.DB
}

// NewMovementRepository creates a new instance of MovementRepository.
func NewMovementRepository(db *sql.DB) MovementRepository {
	return &movementRepository{db: db}
}

func (r *movementRepository) Create(executor SQLExecutor, m *models.MovementRecord) (int64, error) {
	query := `INSERT INTO movements
	          (site_id, material_id, occurred_at, kind, description, quantity, supplier, receiver, notes, reversed)
	          VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, FALSE)
	          RETURNING id, created_at`
	err := executor.QueryRow(query,
		m.SiteID, m.MaterialID, m.OccurredAt, m.Kind, m.Description, m.Quantity,
		m.Supplier, m.Receiver, m.Notes,
	).Scan(&m.ID, &m.CreatedAt)
	if err != nil {
		return 0, mapWriteError(err, "creating movement record")
	}
	return m.ID, nil
}

func (r *movementRepository) GetByID(movementID int64) (*models.MovementRecord, error) {
	m := &models.MovementRecord{}
	query := `SELECT id, site_id, material_id, occurred_at, kind, description, quantity,
	                 supplier, receiver, notes, reversed, created_at
	          FROM movements WHERE id = $1`
	err := r.db.QueryRow(query, movementID).Scan(
		&m.ID, &m.SiteID, &m.MaterialID, &m.OccurredAt, &m.Kind, &m.Description, &m.Quantity,
		&m.Supplier, &m.Receiver, &m.Notes, &m.Reversed, &m.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("%w: finding movement %d: %v", ErrDatabaseError, movementID, err)
	}
	return m, nil
}

func (r *movementRepository) MarkReversed(executor SQLExecutor, movementID int64) error {
	result, err := executor.Exec(
		`UPDATE movements SET reversed = TRUE WHERE id = $1 AND reversed = FALSE`, movementID)
	if err != nil {
		return fmt.Errorf("%w: marking movement %d reversed: %v", ErrDatabaseError, movementID, err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("%w: marking movement %d reversed: %v", ErrDatabaseError, movementID, err)
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *movementRepository) GetHistory(siteID int64, filters models.HistoryFilters) ([]models.MovementRecord, error) {
	var queryBuilder strings.Builder
	queryBuilder.WriteString(`SELECT id, site_id, material_id, occurred_at, kind, description, quantity,
	       supplier, receiver, notes, reversed, created_at
	  FROM movements
	 WHERE site_id = $1 AND reversed = FALSE`)

	args := []interface{}{siteID}
	argCount := 2

	if filters.StartDate != nil {
		queryBuilder.WriteString(fmt.Sprintf(" AND occurred_at >= $%d", argCount))
		args = append(args, *filters.StartDate)
		argCount++
	}
	if filters.EndDate != nil {
		queryBuilder.WriteString(fmt.Sprintf(" AND occurred_at <= $%d", argCount))
		args = append(args, *filters.EndDate)
		argCount++
	}
	if len(filters.Kinds) > 0 {
		placeholders := make([]string, 0, len(filters.Kinds))
		for _, kind := range filters.Kinds {
			placeholders = append(placeholders, fmt.Sprintf("$%d", argCount))
			args = append(args, kind)
			argCount++
		}
		queryBuilder.WriteString(" AND kind IN (" + strings.Join(placeholders, ", ") + ")")
	}

	queryBuilder.WriteString(" ORDER BY occurred_at DESC, id DESC")
	if filters.Limit != nil {
		queryBuilder.WriteString(fmt.Sprintf(" LIMIT $%d", argCount))
		args = append(args, *filters.Limit)
	}

	rows, err := r.db.Query(queryBuilder.String(), args...)
	if err != nil {
		return nil, fmt.Errorf("%w: getting movement history: %v", ErrDatabaseError, err)
	}
	defer rows.Close()

	movements := []models.MovementRecord{}
	for rows.Next() {
		var m models.MovementRecord
		if err := rows.Scan(
			&m.ID, &m.SiteID, &m.MaterialID, &m.OccurredAt, &m.Kind, &m.Description, &m.Quantity,
			&m.Supplier, &m.Receiver, &m.Notes, &m.Reversed, &m.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("%w: scanning movement record: %v", ErrDatabaseError, err)
		}
		movements = append(movements, m)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: iterating movement history: %v", ErrDatabaseError, err)
	}
	return movements, nil
}
