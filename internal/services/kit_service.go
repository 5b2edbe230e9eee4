package services

import (
	"errors"
	"strings"

	"almoxarifado_backend/internal/models"
	"almoxarifado_backend/internal/repositories"
)

var (
	ErrKitNotFound     = errors.New("kit not found")
	ErrEmptyKitName    = errors.New("kit name must not be empty")
	ErrInvalidKitLines = errors.New("kit lines must have positive quantities")
)

// KitService manages kits and their bills of materials. Line edits replace
// the whole line set atomically; there is no per-line mutation.
type KitService interface {
	CreateKit(kit *models.Kit) error
	UpdateKit(kit *models.Kit) error
	DeleteKit(kitID int64) error
	GetKitByID(kitID int64) (*models.Kit, error)
	GetKitsBySite(siteID int64) ([]models.Kit, error)
}

type kitService struct {
	kitRepo repositories.KitRepository
	tx      repositories.TxRunner
}

// NewKitService creates a new instance of KitService.
func NewKitService(kr repositories.KitRepository, tx repositories.TxRunner) KitService {
	return &kitService{kitRepo: kr, tx: tx}
}

func validateKit(kit *models.Kit) error {
	kit.Name = strings.TrimSpace(kit.Name)
	if kit.Name == "" {
		return ErrEmptyKitName
	}
	for _, line := range kit.Lines {
		if !line.Quantity.IsPositive() {
			return ErrInvalidKitLines
		}
	}
	return nil
}

func (s *kitService) CreateKit(kit *models.Kit) error {
	if err := validateKit(kit); err != nil {
		return err
	}
	return s.tx.WithinTx(func(executor repositories.SQLExecutor) error {
		if _, err := s.kitRepo.CreateKit(executor, kit); err != nil {
			return err
		}
		return s.kitRepo.ReplaceLines(executor, kit.ID, kit.Lines)
	})
}

func (s *kitService) UpdateKit(kit *models.Kit) error {
	if err := validateKit(kit); err != nil {
		return err
	}
	err := s.tx.WithinTx(func(executor repositories.SQLExecutor) error {
		if err := s.kitRepo.UpdateKit(executor, kit); err != nil {
			return err
		}
		return s.kitRepo.ReplaceLines(executor, kit.ID, kit.Lines)
	})
	if errors.Is(err, repositories.ErrNotFound) {
		return ErrKitNotFound
	}
	return err
}

func (s *kitService) DeleteKit(kitID int64) error {
	err := s.tx.WithinTx(func(executor repositories.SQLExecutor) error {
		return s.kitRepo.DeleteKit(executor, kitID)
	})
	if errors.Is(err, repositories.ErrNotFound) {
		return ErrKitNotFound
	}
	return err
}

func (s *kitService) GetKitByID(kitID int64) (*models.Kit, error) {
	kit, err := s.kitRepo.GetKitByID(kitID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrKitNotFound
		}
		return nil, err
	}
	lines, err := s.kitRepo.GetKitLines(kitID)
	if err != nil {
		return nil, err
	}
	kit.Lines = lines
	return kit, nil
}

func (s *kitService) GetKitsBySite(siteID int64) ([]models.Kit, error) {
	return s.kitRepo.GetKitsBySite(siteID)
}
