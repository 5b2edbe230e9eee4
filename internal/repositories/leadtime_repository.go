package repositories

import (
	"database/sql"
	"fmt"

	"github.com/lib/pq"

	"almoxarifado_backend/internal/models"
)

// LeadTimeRepository stores procurement lead times keyed by material category.
type LeadTimeRepository interface {
	Upsert(leadTime *models.PurchaseLeadTime) error
	Delete(leadTimeID int64) error
	List() ([]models.PurchaseLeadTime, error)
	// GetDaysByCategory returns a category-to-days map for the given
	// categories. Absent categories are simply missing from the map.
	GetDaysByCategory(executor SQLExecutor, categories []string) (map[string]int, error)
}

type leadTimeRepository struct {
	db     *sql.DB
	readDB *sql.DB
}

// NewLeadTimeRepository creates a new instance of LeadTimeRepository.
func NewLeadTimeRepository(db, readDB *sql.DB) LeadTimeRepository {
	return &leadTimeRepository{db: db, readDB: readDB}
}

func (r *leadTimeRepository) Upsert(leadTime *models.PurchaseLeadTime) error {
	query := `INSERT INTO purchase_lead_times (category, lead_days)
	          VALUES ($1, $2)
	          ON CONFLICT (category) DO UPDATE SET lead_days = EXCLUDED.lead_days
	          RETURNING id`
	err := r.db.QueryRow(query, leadTime.Category, leadTime.LeadDays).Scan(&leadTime.ID)
	if err != nil {
		return mapWriteError(err, "upserting lead time")
	}
	return nil
}

func (r *leadTimeRepository) Delete(leadTimeID int64) error {
	result, err := r.db.Exec(`DELETE FROM purchase_lead_times WHERE id = $1`, leadTimeID)
	if err != nil {
		return fmt.Errorf("%w: deleting lead time %d: %v", ErrDatabaseError, leadTimeID, err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("%w: deleting lead time %d: %v", ErrDatabaseError, leadTimeID, err)
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *leadTimeRepository) List() ([]models.PurchaseLeadTime, error) {
	rows, err := r.readDB.Query(
		`SELECT id, category, lead_days FROM purchase_lead_times ORDER BY category`)
	if err != nil {
		return nil, fmt.Errorf("%w: listing lead times: %v", ErrDatabaseError, err)
	}
	defer rows.Close()

	leadTimes := []models.PurchaseLeadTime{}
	for rows.Next() {
		var leadTime models.PurchaseLeadTime
		if err := rows.Scan(&leadTime.ID, &leadTime.Category, &leadTime.LeadDays); err != nil {
			return nil, fmt.Errorf("%w: scanning lead time: %v", ErrDatabaseError, err)
		}
		leadTimes = append(leadTimes, leadTime)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: iterating lead times: %v", ErrDatabaseError, err)
	}
	return leadTimes, nil
}

func (r *leadTimeRepository) GetDaysByCategory(executor SQLExecutor, categories []string) (map[string]int, error) {
	days := map[string]int{}
	if len(categories) == 0 {
		return days, nil
	}

	rows, err := executor.Query(
		`SELECT category, lead_days FROM purchase_lead_times WHERE category = ANY($1)`,
		pq.Array(categories))
	if err != nil {
		return nil, fmt.Errorf("%w: loading lead times by category: %v", ErrDatabaseError, err)
	}
	defer rows.Close()

	for rows.Next() {
		var category string
		var leadDays int
		if err := rows.Scan(&category, &leadDays); err != nil {
			return nil, fmt.Errorf("%w: scanning lead time row: %v", ErrDatabaseError, err)
		}
		days[category] = leadDays
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: iterating lead time rows: %v", ErrDatabaseError, err)
	}
	return days, nil
}
