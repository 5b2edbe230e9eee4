package services

import (
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"almoxarifado_backend/internal/models"
	"almoxarifado_backend/internal/repositories"
)

var (
	ErrMovementNotFound    = errors.New("movement not found")
	ErrInvalidMovementKind = errors.New("movement kind must be Entrada or Saída")
	ErrInvalidQuantity     = errors.New("quantity must be greater than zero")
	ErrAlreadyReversed     = errors.New("movement already reversed")
	ErrNotReversible       = errors.New("transfer-settled movements cannot be reversed")
)

// RecordMovementRequest is the payload for a direct warehouse movement.
type RecordMovementRequest struct {
	MaterialID int64               `json:"material_id" binding:"required"`
	Kind       models.MovementKind `json:"kind" binding:"required"`
	Quantity   decimal.Decimal     `json:"quantity" binding:"required"`
	OccurredAt *time.Time          `json:"occurred_at"`
	Supplier   *string             `json:"supplier"`
	Receiver   *string             `json:"receiver"`
	Notes      *string             `json:"notes"`
}

// MovementService owns the movement journal and the stock ledger underneath
// it. Every write couples a journal insert with its ledger delta in one
// transaction, so the ledger is always the running sum of the journal.
type MovementService interface {
	RecordMovement(siteID int64, req RecordMovementRequest) (*models.MovementRecord, error)
	// ReverseMovement undoes one direct movement: it inserts the inverse
	// record, applies the opposite ledger delta and flags the original. A
	// record can be reversed at most once; the reversal itself is permanent.
	ReverseMovement(siteID, movementID, actorID int64) (*models.MovementRecord, error)
	GetHistory(siteID int64, filters models.HistoryFilters) ([]models.MovementRecord, error)
	GetBalance(materialID, siteID int64) (decimal.Decimal, error)
}

type movementService struct {
	movementRepo repositories.MovementRepository
	stockRepo    repositories.StockRepository
	materialRepo repositories.MaterialRepository
	tx           repositories.TxRunner
	now          func() time.Time
}

// NewMovementService creates a new instance of MovementService.
func NewMovementService(
	mr repositories.MovementRepository,
	sr repositories.StockRepository,
	matr repositories.MaterialRepository,
	tx repositories.TxRunner,
) MovementService {
	return &movementService{
		movementRepo: mr,
		stockRepo:    sr,
		materialRepo: matr,
		tx:           tx,
		now:          time.Now,
	}
}

// ledgerDelta is the signed ledger effect of a movement record.
func ledgerDelta(kind models.MovementKind, quantity decimal.Decimal) decimal.Decimal {
	if kind == models.KindWithdrawal {
		return quantity.Neg()
	}
	return quantity
}

func (s *movementService) RecordMovement(siteID int64, req RecordMovementRequest) (*models.MovementRecord, error) {
	if !req.Kind.IsDirect() {
		return nil, ErrInvalidMovementKind
	}
	if !req.Quantity.IsPositive() {
		return nil, ErrInvalidQuantity
	}

	material, err := s.materialRepo.GetByID(req.MaterialID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrMaterialNotFound
		}
		return nil, fmt.Errorf("loading material %d: %w", req.MaterialID, err)
	}

	occurredAt := s.now()
	if req.OccurredAt != nil {
		occurredAt = *req.OccurredAt
	}

	record := &models.MovementRecord{
		SiteID:      siteID,
		MaterialID:  material.ID,
		OccurredAt:  occurredAt,
		Kind:        req.Kind,
		Description: material.Description,
		Quantity:    req.Quantity,
		Supplier:    req.Supplier,
		Receiver:    req.Receiver,
		Notes:       req.Notes,
	}

	err = s.tx.WithinTx(func(executor repositories.SQLExecutor) error {
		if _, err := s.movementRepo.Create(executor, record); err != nil {
			return err
		}
		if err := s.stockRepo.EnsureRow(executor, record.MaterialID, siteID); err != nil {
			return err
		}
		return s.stockRepo.ApplyDelta(executor, record.MaterialID, siteID,
			ledgerDelta(record.Kind, record.Quantity))
	})
	if err != nil {
		return nil, err
	}
	return record, nil
}

func (s *movementService) ReverseMovement(siteID, movementID, actorID int64) (*models.MovementRecord, error) {
	original, err := s.movementRepo.GetByID(movementID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrMovementNotFound
		}
		return nil, fmt.Errorf("loading movement %d: %w", movementID, err)
	}
	if original.SiteID != siteID {
		return nil, ErrMovementNotFound
	}
	if original.Reversed {
		return nil, ErrAlreadyReversed
	}
	inverseKind, ok := original.Kind.Inverse()
	if !ok {
		return nil, ErrNotReversible
	}

	notes := fmt.Sprintf("Estorno do movimento %d (usuário %d)", original.ID, actorID)
	reversal := &models.MovementRecord{
		SiteID:      siteID,
		MaterialID:  original.MaterialID,
		OccurredAt:  s.now(),
		Kind:        inverseKind,
		Description: original.Description,
		Quantity:    original.Quantity,
		// The counterpart swaps sides with the kind: an Entrada's supplier
		// becomes the receiver of the correcting Saída.
		Supplier: original.Receiver,
		Receiver: original.Supplier,
		Notes:    &notes,
	}

	err = s.tx.WithinTx(func(executor repositories.SQLExecutor) error {
		// The reversed-flag guard makes concurrent reversals lose cleanly.
		if err := s.movementRepo.MarkReversed(executor, original.ID); err != nil {
			if errors.Is(err, repositories.ErrNotFound) {
				return ErrAlreadyReversed
			}
			return err
		}
		if _, err := s.movementRepo.Create(executor, reversal); err != nil {
			return err
		}
		if err := s.stockRepo.EnsureRow(executor, original.MaterialID, siteID); err != nil {
			return err
		}
		return s.stockRepo.ApplyDelta(executor, original.MaterialID, siteID,
			ledgerDelta(inverseKind, original.Quantity))
	})
	if err != nil {
		return nil, err
	}
	return reversal, nil
}

func (s *movementService) GetHistory(siteID int64, filters models.HistoryFilters) ([]models.MovementRecord, error) {
	return s.movementRepo.GetHistory(siteID, filters)
}

func (s *movementService) GetBalance(materialID, siteID int64) (decimal.Decimal, error) {
	balance, err := s.stockRepo.GetBalance(materialID, siteID)
	if err != nil {
		return decimal.Zero, err
	}
	return balance, nil
}
