package services

import (
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"almoxarifado_backend/internal/models"
	"almoxarifado_backend/internal/repositories"
)

var (
	ErrTransferNotFound     = errors.New("transfer not found")
	ErrInvalidTransferKind  = errors.New("kind must be Transferência, Empréstimo or Devolução")
	ErrSameSiteTransfer     = errors.New("origin and destination sites must differ")
	ErrTransferResolved     = errors.New("transfer already resolved")
	ErrInvalidResolution    = errors.New("resolution must be Aprovada, Recusada or Cancelada")
	ErrNotTransferParty     = errors.New("site is not a party to this transfer")
	ErrCancelNotRequester   = errors.New("only the requesting site may cancel")
	ErrApproveNotOriginSite = errors.New("only the origin site may approve or refuse")
)

// RequestTransferRequest opens a cross-site transaction. The requesting site
// is always the destination: it asks the origin site for material.
type RequestTransferRequest struct {
	OriginSiteID int64               `json:"origin_site_id" binding:"required"`
	MaterialID   int64               `json:"material_id" binding:"required"`
	Quantity     decimal.Decimal     `json:"quantity" binding:"required"`
	Kind         models.MovementKind `json:"kind" binding:"required"`
	Notes        *string             `json:"notes"`
}

// TransferService runs the cross-site workflow. A request stays Pendente and
// touches no stock until the origin site approves it; approval settles both
// ledgers and writes one tagged movement record per side, atomically.
type TransferService interface {
	RequestTransfer(destinationSiteID, userID int64, req RequestTransferRequest) (*models.PendingTransfer, error)
	// ResolveTransfer moves a Pendente request to a terminal status. Aprovada
	// and Recusada are decisions of the origin site; Cancelada belongs to the
	// destination (requesting) site. Terminal rows reject any further change.
	ResolveTransfer(actingSiteID, userID, transferID int64, status models.TransferStatus) (*models.PendingTransfer, error)
	GetPending(siteID int64, role repositories.TransferRole) ([]models.PendingTransfer, error)
	GetHistory(siteID int64) ([]models.PendingTransfer, error)
	// ComputeLoanBalances nets approved Empréstimo rows against approved
	// Devolução rows per (counterpart site, material). Credits are what
	// counterparts still owe this site, Debts what this site still owes back;
	// fully settled pairs appear in neither list.
	ComputeLoanBalances(siteID int64) (*models.LoanBalances, error)
}

type transferService struct {
	transferRepo repositories.TransferRepository
	movementRepo repositories.MovementRepository
	stockRepo    repositories.StockRepository
	materialRepo repositories.MaterialRepository
	siteRepo     repositories.SiteRepository
	tx           repositories.TxRunner
	now          func() time.Time
}

// NewTransferService creates a new instance of TransferService.
func NewTransferService(
	tr repositories.TransferRepository,
	mr repositories.MovementRepository,
	sr repositories.StockRepository,
	matr repositories.MaterialRepository,
	siter repositories.SiteRepository,
	tx repositories.TxRunner,
) TransferService {
	return &transferService{
		transferRepo: tr,
		movementRepo: mr,
		stockRepo:    sr,
		materialRepo: matr,
		siteRepo:     siter,
		tx:           tx,
		now:          time.Now,
	}
}

func (s *transferService) RequestTransfer(destinationSiteID, userID int64, req RequestTransferRequest) (*models.PendingTransfer, error) {
	if !req.Kind.IsTransfer() {
		return nil, ErrInvalidTransferKind
	}
	if !req.Quantity.IsPositive() {
		return nil, ErrInvalidQuantity
	}
	if req.OriginSiteID == destinationSiteID {
		return nil, ErrSameSiteTransfer
	}
	if _, err := s.siteRepo.GetByID(req.OriginSiteID); err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrSiteNotFound
		}
		return nil, fmt.Errorf("loading site %d: %w", req.OriginSiteID, err)
	}
	if _, err := s.materialRepo.GetByID(req.MaterialID); err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrMaterialNotFound
		}
		return nil, fmt.Errorf("loading material %d: %w", req.MaterialID, err)
	}

	transfer := &models.PendingTransfer{
		OriginSiteID:      req.OriginSiteID,
		DestinationSiteID: destinationSiteID,
		MaterialID:        req.MaterialID,
		Quantity:          req.Quantity,
		Kind:              req.Kind,
		Notes:             req.Notes,
		RequestedBy:       userID,
	}
	err := s.tx.WithinTx(func(executor repositories.SQLExecutor) error {
		_, err := s.transferRepo.Create(executor, transfer)
		return err
	})
	if err != nil {
		return nil, err
	}
	return transfer, nil
}

func (s *transferService) ResolveTransfer(actingSiteID, userID, transferID int64, status models.TransferStatus) (*models.PendingTransfer, error) {
	if !status.IsTerminal() {
		return nil, ErrInvalidResolution
	}

	transfer, err := s.transferRepo.GetByID(transferID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrTransferNotFound
		}
		return nil, fmt.Errorf("loading transfer %d: %w", transferID, err)
	}
	if actingSiteID != transfer.OriginSiteID && actingSiteID != transfer.DestinationSiteID {
		return nil, ErrNotTransferParty
	}
	if transfer.Status.IsTerminal() {
		return nil, ErrTransferResolved
	}
	if status == models.StatusCancelled && actingSiteID != transfer.DestinationSiteID {
		return nil, ErrCancelNotRequester
	}
	if status != models.StatusCancelled && actingSiteID != transfer.OriginSiteID {
		return nil, ErrApproveNotOriginSite
	}

	material, err := s.materialRepo.GetByID(transfer.MaterialID)
	if err != nil {
		return nil, fmt.Errorf("loading material %d: %w", transfer.MaterialID, err)
	}

	resolvedAt := s.now()
	err = s.tx.WithinTx(func(executor repositories.SQLExecutor) error {
		// The Pendente guard inside MarkResolved is what makes a second,
		// concurrent resolution fail instead of double-settling.
		if err := s.transferRepo.MarkResolved(executor, transfer.ID, status, userID, resolvedAt); err != nil {
			if errors.Is(err, repositories.ErrNotFound) {
				return ErrTransferResolved
			}
			return err
		}
		if status != models.StatusApproved {
			return nil
		}
		return s.settle(executor, transfer, material.Description, resolvedAt)
	})
	if err != nil {
		return nil, err
	}

	transfer.Status = status
	transfer.ResolvedAt = &resolvedAt
	transfer.ResolvedBy = &userID
	return transfer, nil
}

// settle writes the approved transaction into both sites' journals and
// ledgers: minus at the origin, plus at the destination.
func (s *transferService) settle(executor repositories.SQLExecutor, transfer *models.PendingTransfer, materialDescription string, resolvedAt time.Time) error {
	// The counterpart site goes into the counterpart field of each record;
	// the transfer's own notes travel with both journal entries.
	originCounterpart := fmt.Sprintf("Obra Destino ID: %d", transfer.DestinationSiteID)
	destinationCounterpart := fmt.Sprintf("Obra Origem ID: %d", transfer.OriginSiteID)

	originRecord := &models.MovementRecord{
		SiteID:      transfer.OriginSiteID,
		MaterialID:  transfer.MaterialID,
		OccurredAt:  resolvedAt,
		Kind:        transfer.Kind,
		Description: materialDescription,
		Quantity:    transfer.Quantity,
		Receiver:    &originCounterpart,
		Notes:       transfer.Notes,
	}
	destinationRecord := &models.MovementRecord{
		SiteID:      transfer.DestinationSiteID,
		MaterialID:  transfer.MaterialID,
		OccurredAt:  resolvedAt,
		Kind:        transfer.Kind,
		Description: materialDescription,
		Quantity:    transfer.Quantity,
		Supplier:    &destinationCounterpart,
		Notes:       transfer.Notes,
	}

	if _, err := s.movementRepo.Create(executor, originRecord); err != nil {
		return err
	}
	if _, err := s.movementRepo.Create(executor, destinationRecord); err != nil {
		return err
	}
	// The destination may never have held this material before.
	if err := s.stockRepo.EnsureRow(executor, transfer.MaterialID, transfer.OriginSiteID); err != nil {
		return err
	}
	if err := s.stockRepo.EnsureRow(executor, transfer.MaterialID, transfer.DestinationSiteID); err != nil {
		return err
	}
	if err := s.stockRepo.ApplyDelta(executor, transfer.MaterialID, transfer.OriginSiteID, transfer.Quantity.Neg()); err != nil {
		return err
	}
	return s.stockRepo.ApplyDelta(executor, transfer.MaterialID, transfer.DestinationSiteID, transfer.Quantity)
}

func (s *transferService) GetPending(siteID int64, role repositories.TransferRole) ([]models.PendingTransfer, error) {
	return s.transferRepo.GetPendingBySite(siteID, role)
}

func (s *transferService) GetHistory(siteID int64) ([]models.PendingTransfer, error) {
	return s.transferRepo.GetResolvedHistory(siteID)
}

type loanKey struct {
	siteID     int64
	materialID int64
}

func (s *transferService) ComputeLoanBalances(siteID int64) (*models.LoanBalances, error) {
	rows, err := s.transferRepo.GetApprovedLoanRows(siteID)
	if err != nil {
		return nil, err
	}

	// Positive means the counterpart owes this site. A loan out of this site
	// raises the counterpart's debt; a return from the counterpart lowers it.
	nets := map[loanKey]decimal.Decimal{}
	names := map[loanKey]models.LoanBalance{}
	for _, row := range rows {
		var counterpartID int64
		var counterpartName string
		var sign decimal.Decimal
		switch row.Kind {
		case models.KindLoan:
			if row.OriginSiteID == siteID {
				counterpartID, counterpartName = row.DestinationSiteID, row.DestinationSiteName
				sign = decimal.NewFromInt(1)
			} else {
				counterpartID, counterpartName = row.OriginSiteID, row.OriginSiteName
				sign = decimal.NewFromInt(-1)
			}
		case models.KindLoanReturn:
			if row.OriginSiteID == siteID {
				// This site returning borrowed material pays down its own
				// debt, which raises the net toward zero.
				counterpartID, counterpartName = row.DestinationSiteID, row.DestinationSiteName
				sign = decimal.NewFromInt(1)
			} else {
				counterpartID, counterpartName = row.OriginSiteID, row.OriginSiteName
				sign = decimal.NewFromInt(-1)
			}
		default:
			continue
		}

		key := loanKey{siteID: counterpartID, materialID: row.MaterialID}
		nets[key] = nets[key].Add(row.Quantity.Mul(sign))
		names[key] = models.LoanBalance{
			SiteID:              counterpartID,
			SiteName:            counterpartName,
			MaterialID:          row.MaterialID,
			MaterialDescription: row.MaterialDescription,
		}
	}

	balances := &models.LoanBalances{Credits: []models.LoanBalance{}, Debts: []models.LoanBalance{}}
	for key, net := range nets {
		if net.IsZero() {
			continue
		}
		balance := names[key]
		if net.IsPositive() {
			balance.Quantity = net
			balances.Credits = append(balances.Credits, balance)
		} else {
			balance.Quantity = net.Neg()
			balances.Debts = append(balances.Debts, balance)
		}
	}
	sortLoanBalances(balances.Credits)
	sortLoanBalances(balances.Debts)
	return balances, nil
}

func sortLoanBalances(balances []models.LoanBalance) {
	sort.Slice(balances, func(i, j int) bool {
		if balances[i].SiteName != balances[j].SiteName {
			return balances[i].SiteName < balances[j].SiteName
		}
		return balances[i].MaterialDescription < balances[j].MaterialDescription
	})
}
