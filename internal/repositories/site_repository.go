package repositories

import (
	"database/sql"
	"errors"
	"fmt"

	"almoxarifado_backend/internal/models"
)

// SiteRepository reads the site ("obra") reference table. Sites are managed
// outside this system; the engine only ever reads them.
type SiteRepository interface {
	GetByID(siteID int64) (*models.Site, error)
	// ListOthers returns every site except the given one, for transfer
	// destination pickers.
	ListOthers(currentSiteID int64) ([]models.Site, error)
}

type siteRepository struct {
	readDB *sql.DB
}

// NewSiteRepository creates a new instance of SiteRepository.
func NewSiteRepository(readDB *sql.DB) SiteRepository {
	return &siteRepository{readDB: readDB}
}

func (r *siteRepository) GetByID(siteID int64) (*models.Site, error) {
	s := &models.Site{}
	err := r.readDB.QueryRow(`SELECT id, name FROM sites WHERE id = $1`, siteID).Scan(&s.ID, &s.Name)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("%w: finding site %d: %v", ErrDatabaseError, siteID, err)
	}
	return s, nil
}

func (r *siteRepository) ListOthers(currentSiteID int64) ([]models.Site, error) {
	rows, err := r.readDB.Query(
		`SELECT id, name FROM sites WHERE id != $1 ORDER BY name`, currentSiteID)
	if err != nil {
		return nil, fmt.Errorf("%w: listing sites: %v", ErrDatabaseError, err)
	}
	defer rows.Close()

	sites := []models.Site{}
	for rows.Next() {
		var s models.Site
		if err := rows.Scan(&s.ID, &s.Name); err != nil {
			return nil, fmt.Errorf("%w: scanning site row: %v", ErrDatabaseError, err)
		}
		sites = append(sites, s)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: iterating site rows: %v", ErrDatabaseError, err)
	}
	return sites, nil
}
