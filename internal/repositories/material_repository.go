package repositories

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"almoxarifado_backend/internal/models"
)

// MaterialFilters narrows a paginated material listing.
type MaterialFilters struct {
	Description string
	Category    string
}

// MaterialRepository stores the shared material catalog.
type MaterialRepository interface {
	Create(executor SQLExecutor, m *models.Material) (int64, error)
	Update(executor SQLExecutor, m *models.Material) error
	// Delete removes the given materials and reports how many rows went away.
	Delete(executor SQLExecutor, materialIDs []int64) (int64, error)
	GetByID(materialID int64) (*models.Material, error)
	// GetPage lists catalog entries joined with the site's balance
	// (zero when no stock row exists). pageSize <= 0 disables pagination.
	GetPage(siteID int64, filters MaterialFilters, page, pageSize int) ([]models.Material, int, error)
	ListCategories() ([]string, error)
	ListUnits() ([]string, error)
}

type materialRepository struct {
	db     *sql.DB
	readDB *sql.DB
}

// NewMaterialRepository creates a new instance of MaterialRepository.
func NewMaterialRepository(db, readDB *sql.DB) MaterialRepository {
	return &materialRepository{db: db, readDB: readDB}
}

func (r *materialRepository) Create(executor SQLExecutor, m *models.Material) (int64, error) {
	query := `INSERT INTO materials (code, description, unit, category, min_stock, max_stock, notes)
	          VALUES ($1, $2, $3, $4, $5, $6, $7)
	          RETURNING id, created_at`
	err := executor.QueryRow(query,
		m.Code, m.Description, m.Unit, m.Category, m.MinStock, m.MaxStock, m.Notes,
	).Scan(&m.ID, &m.CreatedAt)
	if err != nil {
		return 0, mapWriteError(err, "creating material")
	}
	return m.ID, nil
}

func (r *materialRepository) Update(executor SQLExecutor, m *models.Material) error {
	result, err := executor.Exec(
		`UPDATE materials
		    SET code = $1, description = $2, unit = $3, category = $4,
		        min_stock = $5, max_stock = $6, notes = $7
		  WHERE id = $8`,
		m.Code, m.Description, m.Unit, m.Category, m.MinStock, m.MaxStock, m.Notes, m.ID)
	if err != nil {
		return mapWriteError(err, "updating material")
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("%w: updating material %d: %v", ErrDatabaseError, m.ID, err)
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *materialRepository) Delete(executor SQLExecutor, materialIDs []int64) (int64, error) {
	if len(materialIDs) == 0 {
		return 0, nil
	}
	placeholders := make([]string, 0, len(materialIDs))
	args := make([]interface{}, 0, len(materialIDs))
	for i, id := range materialIDs {
		placeholders = append(placeholders, fmt.Sprintf("$%d", i+1))
		args = append(args, id)
	}
	result, err := executor.Exec(
		`DELETE FROM materials WHERE id IN (`+strings.Join(placeholders, ", ")+`)`, args...)
	if err != nil {
		return 0, mapWriteError(err, "deleting materials")
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("%w: deleting materials: %v", ErrDatabaseError, err)
	}
	return affected, nil
}

func (r *materialRepository) GetByID(materialID int64) (*models.Material, error) {
	m := &models.Material{}
	query := `SELECT id, code, description, unit, category, min_stock, max_stock, notes, created_at
	          FROM materials WHERE id = $1`
	err := r.db.QueryRow(query, materialID).Scan(
		&m.ID, &m.Code, &m.Description, &m.Unit, &m.Category,
		&m.MinStock, &m.MaxStock, &m.Notes, &m.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("%w: finding material %d: %v", ErrDatabaseError, materialID, err)
	}
	return m, nil
}

func (r *materialRepository) GetPage(siteID int64, filters MaterialFilters, page, pageSize int) ([]models.Material, int, error) {
	var queryBuilder strings.Builder
	queryBuilder.WriteString(`SELECT m.id, m.code, m.description, m.unit, m.category,
	       m.min_stock, m.max_stock, m.notes, m.created_at,
	       COALESCE(ss.quantity, 0) AS current_balance,
	       COUNT(*) OVER() AS total_count
	  FROM materials m
	  LEFT JOIN site_stock ss ON m.id = ss.material_id AND ss.site_id = $1
	 WHERE 1=1`)

	args := []interface{}{siteID}
	argCount := 2

	if filters.Description != "" {
		queryBuilder.WriteString(fmt.Sprintf(" AND m.description ILIKE $%d", argCount))
		args = append(args, "%"+filters.Description+"%")
		argCount++
	}
	if filters.Category != "" {
		queryBuilder.WriteString(fmt.Sprintf(" AND m.category = $%d", argCount))
		args = append(args, filters.Category)
		argCount++
	}

	queryBuilder.WriteString(" ORDER BY m.description ASC")
	if pageSize > 0 {
		queryBuilder.WriteString(fmt.Sprintf(" LIMIT $%d OFFSET $%d", argCount, argCount+1))
		args = append(args, pageSize, (page-1)*pageSize)
	}

	rows, err := r.readDB.Query(queryBuilder.String(), args...)
	if err != nil {
		return nil, 0, fmt.Errorf("%w: listing materials: %v", ErrDatabaseError, err)
	}
	defer rows.Close()

	materials := []models.Material{}
	totalCount := 0
	for rows.Next() {
		var m models.Material
		if err := rows.Scan(
			&m.ID, &m.Code, &m.Description, &m.Unit, &m.Category,
			&m.MinStock, &m.MaxStock, &m.Notes, &m.CreatedAt,
			&m.CurrentBalance, &totalCount,
		); err != nil {
			return nil, 0, fmt.Errorf("%w: scanning material row: %v", ErrDatabaseError, err)
		}
		materials = append(materials, m)
	}
	if err = rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("%w: iterating material rows: %v", ErrDatabaseError, err)
	}
	return materials, totalCount, nil
}

func (r *materialRepository) ListCategories() ([]string, error) {
	return r.listDistinct("category")
}

func (r *materialRepository) ListUnits() ([]string, error) {
	return r.listDistinct("unit")
}

func (r *materialRepository) listDistinct(column string) ([]string, error) {
	// column is one of two compile-time constants, never caller input.
	query := fmt.Sprintf(
		`SELECT DISTINCT %s FROM materials WHERE %s IS NOT NULL AND %s != '' ORDER BY %s`,
		column, column, column, column)
	rows, err := r.readDB.Query(query)
	if err != nil {
		return nil, fmt.Errorf("%w: listing distinct %s values: %v", ErrDatabaseError, column, err)
	}
	defer rows.Close()

	values := []string{}
	for rows.Next() {
		var v string
		if err := rows.Scan(&v); err != nil {
			return nil, fmt.Errorf("%w: scanning %s value: %v", ErrDatabaseError, column, err)
		}
		values = append(values, v)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: iterating %s values: %v", ErrDatabaseError, column, err)
	}
	return values, nil
}
