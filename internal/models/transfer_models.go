package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// TransferStatus is the state of a pending cross-site transaction. A
// transaction starts Pendente and moves exactly once to one of the terminal
// states; terminal rows are never mutated again.
type TransferStatus string

const (
	StatusPending   TransferStatus = "Pendente"
	StatusApproved  TransferStatus = "Aprovada"
	StatusRefused   TransferStatus = "Recusada"
	StatusCancelled TransferStatus = "Cancelada"
)

// IsTerminal reports whether the status ends the workflow.
func (s TransferStatus) IsTerminal() bool {
	switch s {
	case StatusApproved, StatusRefused, StatusCancelled:
		return true
	}
	return false
}

// PendingTransfer is a cross-site transfer, loan or return request. Stock is
// only touched when the request is approved; refusal and cancellation leave
// both ledgers untouched.
type PendingTransfer struct {
	ID                int64           `json:"id" db:"id"`
	OriginSiteID      int64           `json:"origin_site_id" db:"origin_site_id"`
	DestinationSiteID int64           `json:"destination_site_id" db:"destination_site_id"`
	MaterialID        int64           `json:"material_id" db:"material_id"`
	Quantity          decimal.Decimal `json:"quantity" db:"quantity"`
	Kind              MovementKind    `json:"kind" db:"kind"`
	Notes             *string         `json:"notes,omitempty" db:"notes"`
	RequestedBy       int64           `json:"requested_by" db:"requested_by"`
	Status            TransferStatus  `json:"status" db:"status"`
	RequestedAt       time.Time       `json:"requested_at" db:"requested_at"`
	ResolvedAt        *time.Time      `json:"resolved_at,omitempty" db:"resolved_at"`
	ResolvedBy        *int64          `json:"resolved_by,omitempty" db:"resolved_by"`

	// Joined display fields, populated by list queries only.
	OriginSiteName      string `json:"origin_site_name,omitempty"`
	DestinationSiteName string `json:"destination_site_name,omitempty"`
	MaterialDescription string `json:"material_description,omitempty"`
	MaterialUnit        string `json:"material_unit,omitempty"`
}

// LoanBalance is one net outstanding loan line between the queried site and a
// counterpart site, for a single material. Quantity is always positive.
type LoanBalance struct {
	SiteID              int64           `json:"site_id"`
	SiteName            string          `json:"site_name"`
	MaterialID          int64           `json:"material_id"`
	MaterialDescription string          `json:"material_description"`
	Quantity            decimal.Decimal `json:"quantity"`
}

// LoanBalances splits the outstanding loan lines by direction. Credits are
// what counterpart sites still owe the queried site; Debts are what the
// queried site still owes back.
type LoanBalances struct {
	Credits []LoanBalance `json:"credits"`
	Debts   []LoanBalance `json:"debts"`
}
