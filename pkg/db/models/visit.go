package models

import (
	"github.com/shopspring/decimal"

	"github.com/angelmondragon/fieldops-logistics/pkg/enums"
)

// Visit is a scheduled trip to a project site.
type Visit struct {
	Entity
	ProjectID string            `gorm:"column:project_id;type:varchar(64);not null;index"`
	Status    enums.VisitStatus `gorm:"column:status;type:varchar(16);not null"`
}

func (Visit) TableName() string { return "visits" }

// ProjectRequirementLine is a material a project needs, optionally tied to a visit.
type ProjectRequirementLine struct {
	Entity
	ProjectID   string                      `gorm:"column:project_id;type:varchar(64);not null"`
	VisitID     *string                     `gorm:"column:visit_id;type:varchar(64);index"`
	IsBlocking  bool                        `gorm:"column:is_blocking;not null"`
	Status      enums.RequirementLineStatus `gorm:"column:status;type:varchar(16);not null"`
	QtyRequired decimal.Decimal             `gorm:"column:qty_required;type:numeric(18,4);not null"`
}

func (ProjectRequirementLine) TableName() string { return "project_requirement_lines" }
