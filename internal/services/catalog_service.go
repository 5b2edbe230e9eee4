package services

import (
	"errors"
	"fmt"
	"strings"

	"almoxarifado_backend/internal/models"
	"almoxarifado_backend/internal/repositories"
)

var (
	ErrMaterialNotFound = errors.New("material not found")
	ErrSiteNotFound     = errors.New("site not found")
	ErrDuplicateCode    = errors.New("material code already exists")
	ErrEmptyCode        = errors.New("material code must not be empty")
)

// MaterialPage is one page of the catalog listing with the total row count
// for pagination.
type MaterialPage struct {
	Items      []models.Material `json:"items"`
	TotalCount int               `json:"total_count"`
	Page       int               `json:"page"`
	PageSize   int               `json:"page_size"`
}

// CatalogService manages the shared material catalog and site lookups.
type CatalogService interface {
	CreateMaterial(m *models.Material) error
	UpdateMaterial(m *models.Material) error
	// DeleteMaterials removes the given ids in one transaction and returns
	// how many rows actually went away.
	DeleteMaterials(materialIDs []int64) (int64, error)
	GetMaterialByID(materialID int64) (*models.Material, error)
	GetMaterials(siteID int64, filters repositories.MaterialFilters, page, pageSize int) (*MaterialPage, error)
	// ImportMaterials upserts rows one by one and reports a per-row outcome;
	// a bad row never aborts the batch.
	ImportMaterials(rows []models.MaterialImportRow) []models.ImportOutcome
	ListCategories() ([]string, error)
	ListUnits() ([]string, error)
	GetSite(siteID int64) (*models.Site, error)
	ListOtherSites(currentSiteID int64) ([]models.Site, error)
}

type catalogService struct {
	materialRepo repositories.MaterialRepository
	siteRepo     repositories.SiteRepository
	tx           repositories.TxRunner
}

// NewCatalogService creates a new instance of CatalogService.
func NewCatalogService(
	mr repositories.MaterialRepository,
	sr repositories.SiteRepository,
	tx repositories.TxRunner,
) CatalogService {
	return &catalogService{materialRepo: mr, siteRepo: sr, tx: tx}
}

func (s *catalogService) CreateMaterial(m *models.Material) error {
	m.Code = strings.TrimSpace(m.Code)
	if m.Code == "" {
		return ErrEmptyCode
	}
	err := s.tx.WithinTx(func(executor repositories.SQLExecutor) error {
		_, err := s.materialRepo.Create(executor, m)
		return err
	})
	if errors.Is(err, repositories.ErrDuplicateKey) {
		return ErrDuplicateCode
	}
	return err
}

func (s *catalogService) UpdateMaterial(m *models.Material) error {
	m.Code = strings.TrimSpace(m.Code)
	if m.Code == "" {
		return ErrEmptyCode
	}
	err := s.tx.WithinTx(func(executor repositories.SQLExecutor) error {
		return s.materialRepo.Update(executor, m)
	})
	switch {
	case errors.Is(err, repositories.ErrNotFound):
		return ErrMaterialNotFound
	case errors.Is(err, repositories.ErrDuplicateKey):
		return ErrDuplicateCode
	}
	return err
}

func (s *catalogService) DeleteMaterials(materialIDs []int64) (int64, error) {
	var deleted int64
	err := s.tx.WithinTx(func(executor repositories.SQLExecutor) error {
		var err error
		deleted, err = s.materialRepo.Delete(executor, materialIDs)
		return err
	})
	return deleted, err
}

func (s *catalogService) GetMaterialByID(materialID int64) (*models.Material, error) {
	material, err := s.materialRepo.GetByID(materialID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrMaterialNotFound
		}
		return nil, err
	}
	return material, nil
}

func (s *catalogService) GetMaterials(siteID int64, filters repositories.MaterialFilters, page, pageSize int) (*MaterialPage, error) {
	items, total, err := s.materialRepo.GetPage(siteID, filters, page, pageSize)
	if err != nil {
		return nil, err
	}
	return &MaterialPage{Items: items, TotalCount: total, Page: page, PageSize: pageSize}, nil
}

func (s *catalogService) ImportMaterials(rows []models.MaterialImportRow) []models.ImportOutcome {
	outcomes := make([]models.ImportOutcome, 0, len(rows))
	for _, row := range rows {
		outcome := models.ImportOutcome{Code: row.Code, OK: true}
		material := &models.Material{
			Code:        strings.TrimSpace(row.Code),
			Description: strings.TrimSpace(row.Description),
			Unit:        row.Unit,
			Category:    row.Category,
			MinStock:    row.MinStock,
			MaxStock:    row.MaxStock,
			Notes:       row.Notes,
		}
		switch {
		case material.Code == "":
			outcome.OK = false
			outcome.Message = "missing code"
		case material.Description == "":
			outcome.OK = false
			outcome.Message = "missing description"
		default:
			err := s.tx.WithinTx(func(executor repositories.SQLExecutor) error {
				_, err := s.materialRepo.Create(executor, material)
				return err
			})
			if err != nil {
				outcome.OK = false
				if errors.Is(err, repositories.ErrDuplicateKey) {
					outcome.Message = "code already exists"
				} else {
					outcome.Message = fmt.Sprintf("insert failed: %v", err)
				}
			}
		}
		outcomes = append(outcomes, outcome)
	}
	return outcomes
}

func (s *catalogService) ListCategories() ([]string, error) {
	return s.materialRepo.ListCategories()
}

func (s *catalogService) ListUnits() ([]string, error) {
	return s.materialRepo.ListUnits()
}

func (s *catalogService) GetSite(siteID int64) (*models.Site, error) {
	site, err := s.siteRepo.GetByID(siteID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrSiteNotFound
		}
		return nil, err
	}
	return site, nil
}

func (s *catalogService) ListOtherSites(currentSiteID int64) ([]models.Site, error) {
	return s.siteRepo.ListOthers(currentSiteID)
}
