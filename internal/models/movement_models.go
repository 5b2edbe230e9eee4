package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// MovementKind is the closed set of stock movement kinds. Entrada and Saída
// are direct warehouse movements; the remaining kinds tag settlement records
// produced by the cross-site transfer workflow.
type MovementKind string

const (
	KindEntry      MovementKind = "Entrada"
	KindWithdrawal MovementKind = "Saída"
	KindTransfer   MovementKind = "Transferência"
	KindLoan       MovementKind = "Empréstimo"
	KindLoanReturn MovementKind = "Devolução"
)

// IsDirect reports whether the kind is a plain warehouse movement that a
// caller may record directly, as opposed to a transfer-settlement tag.
func (k MovementKind) IsDirect() bool {
	return k == KindEntry || k == KindWithdrawal
}

// IsTransfer reports whether the kind belongs to the cross-site workflow.
func (k MovementKind) IsTransfer() bool {
	switch k {
	case KindTransfer, KindLoan, KindLoanReturn:
		return true
	}
	return false
}

// Inverse returns the kind that undoes this one. Only Entrada and Saída have
// an inverse; transfer-tagged records are settled pairs and cannot be
// reversed through the movement log.
func (k MovementKind) Inverse() (MovementKind, bool) {
	switch k {
	case KindEntry:
		return KindWithdrawal, true
	case KindWithdrawal:
		return KindEntry, true
	}
	return "", false
}

// MovementRecord is one entry in the append-mostly movement journal.
// Description is a display snapshot taken at creation time; MaterialID is the
// stable reference used by reversal. Records are immutable except for the
// Reversed flag, which is set exactly once.
type MovementRecord struct {
	ID          int64           `json:"id" db:"id"`
	SiteID      int64           `json:"site_id" db:"site_id"`
	MaterialID  int64           `json:"material_id" db:"material_id"`
	OccurredAt  time.Time       `json:"occurred_at" db:"occurred_at"`
	Kind        MovementKind    `json:"kind" db:"kind"`
	Description string          `json:"description" db:"description"`
	Quantity    decimal.Decimal `json:"quantity" db:"quantity"`
	Supplier    *string         `json:"supplier,omitempty" db:"supplier"`
	Receiver    *string         `json:"receiver,omitempty" db:"receiver"`
	Notes       *string         `json:"notes,omitempty" db:"notes"`
	Reversed    bool            `json:"reversed" db:"reversed"`
	CreatedAt   time.Time       `json:"created_at" db:"created_at"`
}

// HistoryFilters narrows a movement history query. Zero values mean "no
// filter"; Limit caps the number of rows returned, newest first.
type HistoryFilters struct {
	StartDate *time.Time
	EndDate   *time.Time
	Kinds     []MovementKind
	Limit     *int
}
