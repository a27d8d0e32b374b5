package models

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/angelmondragon/fieldops-logistics/pkg/enums"
)

// StockAllocation reserves stock for a requirement line on a visit.
type StockAllocation struct {
	Entity
	ProjectID         string                 `gorm:"column:project_id;type:varchar(64);not null;index"`
	VisitID           *string                `gorm:"column:visit_id;type:varchar(64);index"`
	RequirementLineID *string                `gorm:"column:requirement_line_id;type:varchar(64)"`
	QtyAllocated      decimal.Decimal        `gorm:"column:qty_allocated;type:numeric(18,4);not null"`
	Status            enums.AllocationStatus `gorm:"column:status;type:varchar(16);not null"`
	ConsumedBy        *string                `gorm:"column:consumed_by;type:varchar(128)"`
	ConsumedAt        *time.Time             `gorm:"column:consumed_at"`
}

func (StockAllocation) TableName() string { return "stock_allocations" }

// StockConsumption records stock used on a project. Rows are never updated.
type StockConsumption struct {
	Entity
	ProjectID          string          `gorm:"column:project_id;type:varchar(64);not null"`
	VisitID            *string         `gorm:"column:visit_id;type:varchar(64)"`
	SourceAllocationID *string         `gorm:"column:source_allocation_id;type:varchar(64);index"`
	QtyConsumed        decimal.Decimal `gorm:"column:qty_consumed;type:numeric(18,4);not null"`
	ConsumedBy         string          `gorm:"column:consumed_by;type:varchar(128)"`
}

func (StockConsumption) TableName() string { return "stock_consumptions" }
