package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Material is a catalog entry shared by all sites. Stock quantities live in
// SiteStock, not here; CurrentBalance is only populated by queries that join
// the stock table for a specific site.
type Material struct {
	ID          int64            `json:"id" db:"id"`
	Code        string           `json:"code" db:"code" binding:"required"`
	Description string           `json:"description" db:"description" binding:"required"`
	Unit        string           `json:"unit" db:"unit"`
	Category    string           `json:"category" db:"category"`
	MinStock    *decimal.Decimal `json:"min_stock,omitempty" db:"min_stock"`
	MaxStock    *decimal.Decimal `json:"max_stock,omitempty" db:"max_stock"`
	Notes       *string          `json:"notes,omitempty" db:"notes"`
	CreatedAt   time.Time        `json:"created_at" db:"created_at"`

	CurrentBalance *decimal.Decimal `json:"current_balance,omitempty"`
}

// Site is a construction site ("obra"), the partition boundary for stock,
// movements and tasks.
type Site struct {
	ID   int64  `json:"id" db:"id"`
	Name string `json:"name" db:"name"`
}

// SiteStock is the authoritative balance of one material at one site.
// Keyed by (material_id, site_id). The quantity may dip below zero while a
// multi-step settlement is in flight; business rules above the ledger keep it
// non-negative in steady state.
type SiteStock struct {
	MaterialID int64           `json:"material_id" db:"material_id"`
	SiteID     int64           `json:"site_id" db:"site_id"`
	Quantity   decimal.Decimal `json:"quantity" db:"quantity"`
}
