package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Kit is a named bill of materials owned by one site.
type Kit struct {
	ID          int64     `json:"id" db:"id"`
	SiteID      int64     `json:"site_id" db:"site_id"`
	Name        string    `json:"name" db:"name" binding:"required"`
	Description *string   `json:"description,omitempty" db:"description"`
	Lines       []KitLine `json:"lines,omitempty"`
}

// KitLine is one material entry of a kit. Line order is irrelevant.
type KitLine struct {
	MaterialID int64           `json:"material_id" db:"material_id" binding:"required"`
	Quantity   decimal.Decimal `json:"quantity" db:"quantity" binding:"required"`

	MaterialDescription string `json:"material_description,omitempty"`
	MaterialUnit        string `json:"material_unit,omitempty"`
}

// Task is one row of an imported site schedule. ExternalID is the stable key
// from the scheduling tool; re-imports match on it, never on the internal id.
type Task struct {
	ID         int64      `json:"id" db:"id"`
	SiteID     int64      `json:"site_id" db:"site_id"`
	ExternalID int64      `json:"external_id" db:"external_id"`
	Name       string     `json:"name" db:"name"`
	StartDate  time.Time  `json:"start_date" db:"start_date"`
	EndDate    *time.Time `json:"end_date,omitempty" db:"end_date"`
}

// TaskImportRow is one already-parsed row of a schedule file. Parsing the
// file itself is the caller's concern.
type TaskImportRow struct {
	ExternalID int64      `json:"external_id" binding:"required"`
	Name       string     `json:"name" binding:"required"`
	StartDate  time.Time  `json:"start_date" binding:"required"`
	EndDate    *time.Time `json:"end_date"`
}

// ScheduleDiff reports what a schedule import changed, by task name.
type ScheduleDiff struct {
	Added    []string `json:"added"`
	Removed  []string `json:"removed"`
	Modified []string `json:"modified"`
}

// TaskKitLink ties a kit to a scheduled task. Unique per (task, kit).
type TaskKitLink struct {
	ID       int64 `json:"id" db:"id"`
	TaskID   int64 `json:"task_id" db:"task_id"`
	KitID    int64 `json:"kit_id" db:"kit_id"`
	KitCount int   `json:"kit_count" db:"kit_count"`

	KitName       string    `json:"kit_name,omitempty"`
	TaskName      string    `json:"task_name,omitempty"`
	TaskStartDate time.Time `json:"task_start_date,omitempty"`
}

// AssemblyStatus is the lifecycle of a kit assembly request.
type AssemblyStatus string

const (
	AssemblyPending   AssemblyStatus = "Pendente"
	AssemblyAssembled AssemblyStatus = "Montado"
	AssemblyDelivered AssemblyStatus = "Entregue"
	AssemblyCancelled AssemblyStatus = "Cancelado"
)

// Valid reports whether the status is a known assembly state.
func (s AssemblyStatus) Valid() bool {
	switch s {
	case AssemblyPending, AssemblyAssembled, AssemblyDelivered, AssemblyCancelled:
		return true
	}
	return false
}

// AssemblyRequest asks the warehouse to assemble a linked kit ahead of its
// task. At most one exists per link.
type AssemblyRequest struct {
	ID                   int64          `json:"id" db:"id"`
	TaskKitLinkID        int64          `json:"task_kit_link_id" db:"task_kit_link_id"`
	PlannedExecutionDate time.Time      `json:"planned_execution_date" db:"planned_execution_date"`
	Status               AssemblyStatus `json:"status" db:"status"`

	KitName  string `json:"kit_name,omitempty"`
	TaskName string `json:"task_name,omitempty"`
	KitCount int    `json:"kit_count,omitempty"`
}

// PurchaseStatus is the lifecycle of a purchase notification.
type PurchaseStatus string

const (
	PurchasePending   PurchaseStatus = "Pendente"
	PurchaseRequested PurchaseStatus = "Solicitado"
)

// Valid reports whether the status is a known purchase state.
func (s PurchaseStatus) Valid() bool {
	return s == PurchasePending || s == PurchaseRequested
}

// PurchaseNotification warns that a linked kit's materials must be bought by
// NotifyDate to arrive before NeedDate. At most one exists per link.
type PurchaseNotification struct {
	ID            int64          `json:"id" db:"id"`
	TaskKitLinkID int64          `json:"task_kit_link_id" db:"task_kit_link_id"`
	NotifyDate    time.Time      `json:"notify_date" db:"notify_date"`
	NeedDate      time.Time      `json:"need_date" db:"need_date"`
	Status        PurchaseStatus `json:"status" db:"status"`

	KitName  string `json:"kit_name,omitempty"`
	TaskName string `json:"task_name,omitempty"`
}

// PurchaseLeadTime is the procurement lead time for one material category,
// unique per category.
type PurchaseLeadTime struct {
	ID       int64  `json:"id" db:"id"`
	Category string `json:"category" db:"category" binding:"required"`
	LeadDays int    `json:"lead_days" db:"lead_days" binding:"required"`
}

// MaterialImportRow is one row of a bulk material import.
type MaterialImportRow struct {
	Code        string           `json:"code" binding:"required"`
	Description string           `json:"description" binding:"required"`
	Unit        string           `json:"unit"`
	Category    string           `json:"category"`
	MinStock    *decimal.Decimal `json:"min_stock"`
	MaxStock    *decimal.Decimal `json:"max_stock"`
	Notes       *string          `json:"notes"`
}

// ImportOutcome is the per-item result of a batch operation that continues
// past individual failures.
type ImportOutcome struct {
	Code    string `json:"code"`
	OK      bool   `json:"ok"`
	Message string `json:"message,omitempty"`
}
