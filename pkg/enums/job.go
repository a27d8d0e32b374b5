package enums

import (
	"fmt"
	"strings"
)

// StockTransferStatus is the ordinal progress of a logistics job's stock transfer.
type StockTransferStatus string

const (
	StockTransferStatusDraft      StockTransferStatus = "draft"
	StockTransferStatusNotStarted StockTransferStatus = "not_started"
	StockTransferStatusPending    StockTransferStatus = "pending"
	StockTransferStatusSkipped    StockTransferStatus = "skipped"
	StockTransferStatusCompleted  StockTransferStatus = "completed"
)

const (
	StockTransferRankOpen      = 0
	StockTransferRankPending   = 1
	StockTransferRankCompleted = 2
)

// Rank returns the ordinal position of the status. Unknown values rank as open.
func (s StockTransferStatus) Rank() int {
	switch StockTransferStatus(strings.ToLower(strings.TrimSpace(string(s)))) {
	case StockTransferStatusCompleted:
		return StockTransferRankCompleted
	case StockTransferStatusPending, StockTransferStatusSkipped:
		return StockTransferRankPending
	default:
		return StockTransferRankOpen
	}
}

// IsValid reports whether the value is a known StockTransferStatus.
func (s StockTransferStatus) IsValid() bool {
	switch s {
	case StockTransferStatusDraft, StockTransferStatusNotStarted, StockTransferStatusPending,
		StockTransferStatusSkipped, StockTransferStatusCompleted:
		return true
	}
	return false
}

// ParseStockTransferStatus accepts any casing and surrounding whitespace.
func ParseStockTransferStatus(value string) (StockTransferStatus, error) {
	status := StockTransferStatus(strings.ToLower(strings.TrimSpace(value)))
	if !status.IsValid() {
		return "", fmt.Errorf("invalid stock transfer status %q", value)
	}
	return status, nil
}

// LogisticsPurpose is the canonical intent of a logistics job.
type LogisticsPurpose string

const (
	LogisticsPurposePODeliveryToWarehouse LogisticsPurpose = "po_delivery_to_warehouse"
	LogisticsPurposePOPickupFromSupplier  LogisticsPurpose = "po_pickup_from_supplier"
	LogisticsPurposePartPickupForInstall  LogisticsPurpose = "part_pickup_for_install"
	LogisticsPurposeStockTransfer         LogisticsPurpose = "stock_transfer"
	LogisticsPurposeVehicleRestock        LogisticsPurpose = "vehicle_restock"
	LogisticsPurposeReturnToSupplier      LogisticsPurpose = "return_to_supplier"
	LogisticsPurposeSampleDropoff         LogisticsPurpose = "sample_dropoff"
	LogisticsPurposeOther                 LogisticsPurpose = "other"
)

var validLogisticsPurposes = []LogisticsPurpose{
	LogisticsPurposePODeliveryToWarehouse,
	LogisticsPurposePOPickupFromSupplier,
	LogisticsPurposePartPickupForInstall,
	LogisticsPurposeStockTransfer,
	LogisticsPurposeVehicleRestock,
	LogisticsPurposeReturnToSupplier,
	LogisticsPurposeSampleDropoff,
	LogisticsPurposeOther,
}

// LogisticsPurposes returns every canonical purpose.
func LogisticsPurposes() []LogisticsPurpose {
	out := make([]LogisticsPurpose, len(validLogisticsPurposes))
	copy(out, validLogisticsPurposes)
	return out
}

// IsValid reports whether the value is a canonical LogisticsPurpose.
func (p LogisticsPurpose) IsValid() bool {
	for _, candidate := range validLogisticsPurposes {
		if candidate == p {
			return true
		}
	}
	return false
}
