package models

import "github.com/angelmondragon/fieldops-logistics/pkg/enums"

// Job holds the logistics subset of a field job.
type Job struct {
	Entity
	JobNumber           string                     `gorm:"column:job_number;type:varchar(64)"`
	IsLogisticsJob      bool                       `gorm:"column:is_logistics_job;not null"`
	LogisticsPurpose    *enums.LogisticsPurpose    `gorm:"column:logistics_purpose;type:varchar(32)"`
	StockTransferStatus *enums.StockTransferStatus `gorm:"column:stock_transfer_status;type:varchar(16)"`
	ProjectNumber       *string                    `gorm:"column:project_number;type:varchar(64)"`
	PurchaseOrderID     *string                    `gorm:"column:purchase_order_id;type:varchar(64)"`
	VehicleID           *string                    `gorm:"column:vehicle_id;type:varchar(64)"`
	PickupAddress       *string                    `gorm:"column:pickup_address;type:text"`
	DeliveryAddress     *string                    `gorm:"column:delivery_address;type:text"`
	Notes               *string                    `gorm:"column:notes;type:text"`
	WriteVersion        int                        `gorm:"column:write_version;not null"`
	WriteSource         string                     `gorm:"column:write_source;type:varchar(64)"`
}

func (Job) TableName() string { return "jobs" }

// CurrentWriteVersion reports the stored version, treating unset as 1.
func (j Job) CurrentWriteVersion() int {
	return normalizeVersion(j.WriteVersion)
}

// LogisticsJobCounter backs job numbering for one counter key.
type LogisticsJobCounter struct {
	Entity
	Key     string `gorm:"column:key;type:varchar(128);not null;index"`
	NextSeq int64  `gorm:"column:next_seq;not null"`
}

func (LogisticsJobCounter) TableName() string { return "logistics_job_counters" }
