package repositories

import (
	"database/sql"
	"errors"
	"fmt"

	"almoxarifado_backend/internal/models"
)

// KitRepository stores kits and their material lines. Line updates are a full
// replace (delete-then-reinsert), never a diff.
type KitRepository interface {
	CreateKit(executor SQLExecutor, kit *models.Kit) (int64, error)
	UpdateKit(executor SQLExecutor, kit *models.Kit) error
	DeleteKit(executor SQLExecutor, kitID int64) error
	GetKitByID(kitID int64) (*models.Kit, error)
	GetKitsBySite(siteID int64) ([]models.Kit, error)
	GetKitLines(kitID int64) ([]models.KitLine, error)
	ReplaceLines(executor SQLExecutor, kitID int64, lines []models.KitLine) error
	// GetKitCategories returns the distinct material categories of a kit's
	// lines, for lead time lookups.
	GetKitCategories(kitID int64) ([]string, error)
}

type kitRepository struct {
	db     *sql.DB
	readDB *sql.DB
}

// NewKitRepository creates a new instance of KitRepository.
func NewKitRepository(db, readDB *sql.DB) KitRepository {
	return &kitRepository{db: db, readDB: readDB}
}

func (r *kitRepository) CreateKit(executor SQLExecutor, kit *models.Kit) (int64, error) {
	query := `INSERT INTO kits (site_id, name, description) VALUES ($1, $2, $3) RETURNING id`
	err := executor.QueryRow(query, kit.SiteID, kit.Name, kit.Description).Scan(&kit.ID)
	if err != nil {
		return 0, mapWriteError(err, "creating kit")
	}
	return kit.ID, nil
}

func (r *kitRepository) UpdateKit(executor SQLExecutor, kit *models.Kit) error {
	result, err := executor.Exec(
		`UPDATE kits SET name = $1, description = $2 WHERE id = $3`,
		kit.Name, kit.Description, kit.ID)
	if err != nil {
		return mapWriteError(err, "updating kit")
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("%w: updating kit %d: %v", ErrDatabaseError, kit.ID, err)
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *kitRepository) DeleteKit(executor SQLExecutor, kitID int64) error {
	// kit_lines and task_kit_links go away via ON DELETE CASCADE.
	result, err := executor.Exec(`DELETE FROM kits WHERE id = $1`, kitID)
	if err != nil {
		return fmt.Errorf("%w: deleting kit %d: %v", ErrDatabaseError, kitID, err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("%w: deleting kit %d: %v", ErrDatabaseError, kitID, err)
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *kitRepository) GetKitByID(kitID int64) (*models.Kit, error) {
	kit := &models.Kit{}
	err := r.db.QueryRow(
		`SELECT id, site_id, name, description FROM kits WHERE id = $1`, kitID,
	).Scan(&kit.ID, &kit.SiteID, &kit.Name, &kit.Description)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("%w: finding kit %d: %v", ErrDatabaseError, kitID, err)
	}
	return kit, nil
}

func (r *kitRepository) GetKitsBySite(siteID int64) ([]models.Kit, error) {
	rows, err := r.readDB.Query(
		`SELECT id, site_id, name, description FROM kits WHERE site_id = $1 ORDER BY name ASC`, siteID)
	if err != nil {
		return nil, fmt.Errorf("%w: listing kits for site %d: %v", ErrDatabaseError, siteID, err)
	}
	defer rows.Close()

	kits := []models.Kit{}
	for rows.Next() {
		var kit models.Kit
		if err := rows.Scan(&kit.ID, &kit.SiteID, &kit.Name, &kit.Description); err != nil {
			return nil, fmt.Errorf("%w: scanning kit row: %v", ErrDatabaseError, err)
		}
		kits = append(kits, kit)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: iterating kit rows: %v", ErrDatabaseError, err)
	}
	return kits, nil
}

func (r *kitRepository) GetKitLines(kitID int64) ([]models.KitLine, error) {
	rows, err := r.readDB.Query(
		`SELECT kl.material_id, kl.quantity, m.description, m.unit
		   FROM kit_lines kl
		   JOIN materials m ON kl.material_id = m.id
		  WHERE kl.kit_id = $1`, kitID)
	if err != nil {
		return nil, fmt.Errorf("%w: listing lines for kit %d: %v", ErrDatabaseError, kitID, err)
	}
	defer rows.Close()

	lines := []models.KitLine{}
	for rows.Next() {
		var line models.KitLine
		if err := rows.Scan(&line.MaterialID, &line.Quantity,
			&line.MaterialDescription, &line.MaterialUnit); err != nil {
			return nil, fmt.Errorf("%w: scanning kit line: %v", ErrDatabaseError, err)
		}
		lines = append(lines, line)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: iterating kit lines: %v", ErrDatabaseError, err)
	}
	return lines, nil
}

func (r *kitRepository) ReplaceLines(executor SQLExecutor, kitID int64, lines []models.KitLine) error {
	if _, err := executor.Exec(`DELETE FROM kit_lines WHERE kit_id = $1`, kitID); err != nil {
		return fmt.Errorf("%w: clearing lines for kit %d: %v", ErrDatabaseError, kitID, err)
	}
	for _, line := range lines {
		_, err := executor.Exec(
			`INSERT INTO kit_lines (kit_id, material_id, quantity) VALUES ($1, $2, $3)`,
			kitID, line.MaterialID, line.Quantity)
		if err != nil {
			return mapWriteError(err, fmt.Sprintf("inserting line for kit %d", kitID))
		}
	}
	return nil
}

func (r *kitRepository) GetKitCategories(kitID int64) ([]string, error) {
	rows, err := r.db.Query(
		`SELECT DISTINCT m.category
		   FROM kit_lines kl
		   JOIN materials m ON kl.material_id = m.id
		  WHERE kl.kit_id = $1 AND m.category != ''`, kitID)
	if err != nil {
		return nil, fmt.Errorf("%w: listing categories for kit %d: %v", ErrDatabaseError, kitID, err)
	}
	defer rows.Close()

	categories := []string{}
	for rows.Next() {
		var c string
		if err := rows.Scan(&c); err != nil {
			return nil, fmt.Errorf("%w: scanning kit category: %v", ErrDatabaseError, err)
		}
		categories = append(categories, c)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: iterating kit categories: %v", ErrDatabaseError, err)
	}
	return categories, nil
}
