package models

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/angelmondragon/fieldops-logistics/pkg/db/types"
	"github.com/angelmondragon/fieldops-logistics/pkg/enums"
)

// Part is a physical item tracked against one or more purchase orders.
// PrimaryPurchaseOrderID is set once by the first PO to claim the part.
type Part struct {
	Entity
	Status                 enums.PartStatus    `gorm:"column:status;type:varchar(32);not null"`
	Location               enums.PartLocation  `gorm:"column:location;type:varchar(32)"`
	PurchaseOrderIDs       dbtypes.StringArray `gorm:"column:purchase_order_ids;type:text"`
	PrimaryPurchaseOrderID *string             `gorm:"column:primary_purchase_order_id;type:varchar(64)"`
	POLineID               *string             `gorm:"column:po_line_id;type:varchar(64)"`
	QuantityRequired       decimal.Decimal     `gorm:"column:quantity_required;type:numeric(18,4);not null"`
	OrderDate              *time.Time          `gorm:"column:order_date"`
	WriteVersion           int                 `gorm:"column:write_version;not null"`
	WriteSource            string              `gorm:"column:write_source;type:varchar(64)"`
}

func (Part) TableName() string { return "parts" }

// CurrentWriteVersion reports the stored version, treating unset as 1.
func (p Part) CurrentWriteVersion() int {
	return normalizeVersion(p.WriteVersion)
}

func normalizeVersion(v int) int {
	if v <= 0 {
		return 1
	}
	return v
}
