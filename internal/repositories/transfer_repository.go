package repositories

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"almoxarifado_backend/internal/models"
)

// TransferRole selects which side of a pending transfer a site plays in a
// listing query.
type TransferRole string

const (
	RoleReceived TransferRole = "received"
	RoleSent     TransferRole = "sent"
)

// TransferRepository stores cross-site transfer/loan/return requests.
type TransferRepository interface {
	Create(executor SQLExecutor, t *models.PendingTransfer) (int64, error)
	GetByID(transferID int64) (*models.PendingTransfer, error)
	// MarkResolved moves a Pendente row to a terminal status. Returns
	// ErrNotFound when the row is missing or no longer Pendente, so a terminal
	// row can never be resolved twice even under concurrent approval.
	MarkResolved(executor SQLExecutor, transferID int64, status models.TransferStatus, resolvedBy int64, resolvedAt time.Time) error
	// GetPendingBySite lists Pendente rows where the site is destination
	// (received) or origin (sent), newest first, with joined display names.
	GetPendingBySite(siteID int64, role TransferRole) ([]models.PendingTransfer, error)
	// GetResolvedHistory lists non-Pendente rows involving the site.
	GetResolvedHistory(siteID int64) ([]models.PendingTransfer, error)
	// GetApprovedLoanRows returns every Aprovada Empréstimo/Devolução row
	// involving the site, for the loan balance aggregation.
	GetApprovedLoanRows(siteID int64) ([]models.PendingTransfer, error)
}

type transferRepository struct {
	db     *sql.DB
	readDB *sql.DB
}

// NewTransferRepository creates a new instance of TransferRepository. Listing
// queries go through readDB and tolerate short staleness; everything else
// uses the primary pool.
func NewTransferRepository(db, readDB *sql.DB) TransferRepository {
	return &transferRepository{db: db, readDB: readDB}
}

func (r *transferRepository) Create(executor SQLExecutor, t *models.PendingTransfer) (int64, error) {
	query := `INSERT INTO pending_transfers
	          (origin_site_id, destination_site_id, material_id, quantity, kind, notes, requested_by, status)
	          VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	          RETURNING id, requested_at`
	err := executor.QueryRow(query,
		t.OriginSiteID, t.DestinationSiteID, t.MaterialID, t.Quantity, t.Kind,
		t.Notes, t.RequestedBy, models.StatusPending,
	).Scan(&t.ID, &t.RequestedAt)
	if err != nil {
		return 0, mapWriteError(err, "creating pending transfer")
	}
	t.Status = models.StatusPending
	return t.ID, nil
}

func (r *transferRepository) GetByID(transferID int64) (*models.PendingTransfer, error) {
	t := &models.PendingTransfer{}
	query := `SELECT id, origin_site_id, destination_site_id, material_id, quantity, kind,
	                 notes, requested_by, status, requested_at, resolved_at, resolved_by
	          FROM pending_transfers WHERE id = $1`
	err := r.db.QueryRow(query, transferID).Scan(
		&t.ID, &t.OriginSiteID, &t.DestinationSiteID, &t.MaterialID, &t.Quantity, &t.Kind,
		&t.Notes, &t.RequestedBy, &t.Status, &t.RequestedAt, &t.ResolvedAt, &t.ResolvedBy,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("%w: finding transfer %d: %v", ErrDatabaseError, transferID, err)
	}
	return t, nil
}

func (r *transferRepository) MarkResolved(executor SQLExecutor, transferID int64, status models.TransferStatus, resolvedBy int64, resolvedAt time.Time) error {
	result, err := executor.Exec(
		`UPDATE pending_transfers
		    SET status = $1, resolved_at = $2, resolved_by = $3
		  WHERE id = $4 AND status = $5`,
		status, resolvedAt, resolvedBy, transferID, models.StatusPending)
	if err != nil {
		return fmt.Errorf("%w: resolving transfer %d: %v", ErrDatabaseError, transferID, err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("%w: resolving transfer %d: %v", ErrDatabaseError, transferID, err)
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

const transferListColumns = `
	SELECT t.id, t.origin_site_id, t.destination_site_id, t.material_id, t.quantity, t.kind,
	       t.notes, t.requested_by, t.status, t.requested_at, t.resolved_at, t.resolved_by,
	       o_origin.name AS origin_site_name,
	       o_dest.name AS destination_site_name,
	       m.description AS material_description,
	       m.unit AS material_unit
	  FROM pending_transfers t
	  JOIN sites o_origin ON t.origin_site_id = o_origin.id
	  JOIN sites o_dest ON t.destination_site_id = o_dest.id
	  JOIN materials m ON t.material_id = m.id`

func (r *transferRepository) GetPendingBySite(siteID int64, role TransferRole) ([]models.PendingTransfer, error) {
	sideClause := "t.destination_site_id = $1"
	if role == RoleSent {
		sideClause = "t.origin_site_id = $1"
	}
	query := transferListColumns +
		` WHERE ` + sideClause + ` AND t.status = $2
		 ORDER BY t.requested_at DESC`
	return r.scanTransferList(r.readDB.Query(query, siteID, models.StatusPending))
}

func (r *transferRepository) GetResolvedHistory(siteID int64) ([]models.PendingTransfer, error) {
	query := transferListColumns +
		` WHERE (t.origin_site_id = $1 OR t.destination_site_id = $1) AND t.status != $2
		 ORDER BY t.requested_at DESC`
	return r.scanTransferList(r.readDB.Query(query, siteID, models.StatusPending))
}

func (r *transferRepository) GetApprovedLoanRows(siteID int64) ([]models.PendingTransfer, error) {
	query := transferListColumns +
		` WHERE (t.origin_site_id = $1 OR t.destination_site_id = $1)
		   AND t.status = $2
		   AND t.kind IN ($3, $4)
		 ORDER BY t.requested_at`
	return r.scanTransferList(r.readDB.Query(query, siteID,
		models.StatusApproved, models.KindLoan, models.KindLoanReturn))
}

func (r *transferRepository) scanTransferList(rows *sql.Rows, err error) ([]models.PendingTransfer, error) {
	if err != nil {
		return nil, fmt.Errorf("%w: listing transfers: %v", ErrDatabaseError, err)
	}
	defer rows.Close()

	transfers := []models.PendingTransfer{}
	for rows.Next() {
		var t models.PendingTransfer
		if err := rows.Scan(
			&t.ID, &t.OriginSiteID, &t.DestinationSiteID, &t.MaterialID, &t.Quantity, &t.Kind,
			&t.Notes, &t.RequestedBy, &t.Status, &t.RequestedAt, &t.ResolvedAt, &t.ResolvedBy,
			&t.OriginSiteName, &t.DestinationSiteName, &t.MaterialDescription, &t.MaterialUnit,
		); err != nil {
			return nil, fmt.Errorf("%w: scanning transfer row: %v", ErrDatabaseError, err)
		}
		transfers = append(transfers, t)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: iterating transfer rows: %v", ErrDatabaseError, err)
	}
	return transfers, nil
}
