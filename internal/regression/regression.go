// Package regression keeps the logistics fields of a job from moving
// backwards. Offending fields are stripped or reverted, never rejected.
package regression

import (
	"strings"

	"github.com/angelmondragon/fieldops-logistics/internal/purpose"
	"github.com/angelmondragon/fieldops-logistics/pkg/db/models"
	"github.com/angelmondragon/fieldops-logistics/pkg/enums"
	"github.com/angelmondragon/fieldops-logistics/pkg/store"
)

const (
	FieldIsLogisticsJob      = "is_logistics_job"
	FieldLogisticsPurpose    = "logistics_purpose"
	FieldStockTransferStatus = "stock_transfer_status"
	FieldProjectNumber       = "project_number"
)

// JobState is the stored logistics subset of a job.
type JobState struct {
	IsLogisticsJob      bool
	LogisticsPurpose    string
	StockTransferStatus enums.StockTransferStatus
	ProjectNumber       string
	PurchaseOrderID     string
	VehicleID           string
	PickupAddress       string
	DeliveryAddress     string
	Notes               string
}

// StateFromJob reads the logistics subset of a stored job.
func StateFromJob(job models.Job) JobState {
	state := JobState{
		IsLogisticsJob:  job.IsLogisticsJob,
		ProjectNumber:   deref(job.ProjectNumber),
		PurchaseOrderID: deref(job.PurchaseOrderID),
		VehicleID:       deref(job.VehicleID),
		PickupAddress:   deref(job.PickupAddress),
		DeliveryAddress: deref(job.DeliveryAddress),
		Notes:           deref(job.Notes),
	}
	if job.LogisticsPurpose != nil {
		state.LogisticsPurpose = string(*job.LogisticsPurpose)
	}
	if job.StockTransferStatus != nil {
		state.StockTransferStatus = *job.StockTransferStatus
	}
	return state
}

// JobPatch is a sparse update. A nil field is absent; a pointer to the zero
// value clears the column.
type JobPatch struct {
	IsLogisticsJob      *bool
	LogisticsPurpose    *string
	StockTransferStatus *enums.StockTransferStatus
	ProjectNumber       *string
	PurchaseOrderID     *string
	VehicleID           *string
	PickupAddress       *string
	DeliveryAddress     *string
	Notes               *string
}

// Columns renders the present fields. Cleared strings become NULL.
func (p JobPatch) Columns() store.Columns {
	cols := store.Columns{}
	if p.IsLogisticsJob != nil {
		cols[FieldIsLogisticsJob] = *p.IsLogisticsJob
	}
	if p.LogisticsPurpose != nil {
		cols[FieldLogisticsPurpose] = nullable(*p.LogisticsPurpose)
	}
	if p.StockTransferStatus != nil {
		cols[FieldStockTransferStatus] = nullable(string(*p.StockTransferStatus))
	}
	if p.ProjectNumber != nil {
		cols[FieldProjectNumber] = nullable(*p.ProjectNumber)
	}
	if p.PurchaseOrderID != nil {
		cols["purchase_order_id"] = nullable(*p.PurchaseOrderID)
	}
	if p.VehicleID != nil {
		cols["vehicle_id"] = nullable(*p.VehicleID)
	}
	if p.PickupAddress != nil {
		cols["pickup_address"] = nullable(*p.PickupAddress)
	}
	if p.DeliveryAddress != nil {
		cols["delivery_address"] = nullable(*p.DeliveryAddress)
	}
	if p.Notes != nil {
		cols["notes"] = nullable(*p.Notes)
	}
	return cols
}

// RejectedField describes a patch field dropped to protect a ratchet.
type RejectedField struct {
	Field     string `json:"field"`
	Previous  string `json:"previous"`
	Attempted string `json:"attempted"`
	Reason    string `json:"reason"`
}

// StripRegressions removes patch fields that would revert is_logistics_job,
// null a valid purpose, clear the project number or downgrade a completed
// stock transfer. Stock transfer statuses are canonicalized and unknown ones
// are dropped. The input patch is not modified.
func StripRegressions(prev JobState, patch JobPatch) (JobPatch, []RejectedField) {
	out := patch
	var rejected []RejectedField

	if out.IsLogisticsJob != nil && prev.IsLogisticsJob && !*out.IsLogisticsJob {
		rejected = append(rejected, RejectedField{
			Field:     FieldIsLogisticsJob,
			Previous:  "true",
			Attempted: "false",
			Reason:    "logistics jobs cannot be reclassified",
		})
		out.IsLogisticsJob = nil
	}

	if out.LogisticsPurpose != nil && strings.TrimSpace(*out.LogisticsPurpose) == "" &&
		enums.LogisticsPurpose(prev.LogisticsPurpose).IsValid() {
		rejected = append(rejected, RejectedField{
			Field:    FieldLogisticsPurpose,
			Previous: prev.LogisticsPurpose,
			Reason:   "purpose cannot be cleared once set",
		})
		out.LogisticsPurpose = nil
	}

	if out.ProjectNumber != nil && strings.TrimSpace(*out.ProjectNumber) == "" &&
		strings.TrimSpace(prev.ProjectNumber) != "" {
		rejected = append(rejected, RejectedField{
			Field:    FieldProjectNumber,
			Previous: prev.ProjectNumber,
			Reason:   "project number cannot be cleared once set",
		})
		out.ProjectNumber = nil
	}

	if out.StockTransferStatus != nil && strings.TrimSpace(string(*out.StockTransferStatus)) != "" {
		attempted := *out.StockTransferStatus
		if status, err := enums.ParseStockTransferStatus(string(attempted)); err != nil {
			rejected = append(rejected, RejectedField{
				Field:     FieldStockTransferStatus,
				Previous:  string(prev.StockTransferStatus),
				Attempted: string(attempted),
				Reason:    "unknown stock transfer status",
			})
			out.StockTransferStatus = nil
		} else {
			out.StockTransferStatus = &status
		}
	}

	if out.StockTransferStatus != nil && isDowngradeFromCompleted(prev.StockTransferStatus, *out.StockTransferStatus) {
		rejected = append(rejected, RejectedField{
			Field:     FieldStockTransferStatus,
			Previous:  string(prev.StockTransferStatus),
			Attempted: string(*out.StockTransferStatus),
			Reason:    "completed stock transfers cannot move backwards",
		})
		out.StockTransferStatus = nil
	}

	return out, rejected
}

// DeriveLogisticsFields recomputes the ratcheted fields from prev and patch:
// is_logistics_job is true when any signal holds, the purpose is normalized
// and defaulted, and a downgrade from a completed transfer is reverted.
func DeriveLogisticsFields(prev JobState, patch JobPatch) JobPatch {
	out := patch
	next := merged(prev, patch)

	if out.LogisticsPurpose != nil && strings.TrimSpace(*out.LogisticsPurpose) != "" {
		normalized := string(purpose.Normalize(*out.LogisticsPurpose))
		out.LogisticsPurpose = &normalized
		next.LogisticsPurpose = normalized
	}

	isLogistics := prev.IsLogisticsJob ||
		(patch.IsLogisticsJob != nil && *patch.IsLogisticsJob) ||
		next.PurchaseOrderID != "" ||
		next.VehicleID != "" ||
		next.PickupAddress != "" ||
		next.DeliveryAddress != "" ||
		(next.LogisticsPurpose != "" && purpose.Normalize(next.LogisticsPurpose) != enums.LogisticsPurposeOther)

	if isLogistics != prev.IsLogisticsJob || patch.IsLogisticsJob != nil {
		flag := isLogistics
		out.IsLogisticsJob = &flag
	}

	if isLogistics && strings.TrimSpace(next.LogisticsPurpose) == "" {
		fallback := defaultPurpose(prev, next)
		out.LogisticsPurpose = &fallback
	}

	if out.StockTransferStatus != nil && isDowngradeFromCompleted(prev.StockTransferStatus, *out.StockTransferStatus) {
		kept := prev.StockTransferStatus
		out.StockTransferStatus = &kept
	}

	return out
}

func defaultPurpose(prev, next JobState) string {
	if strings.TrimSpace(prev.LogisticsPurpose) != "" {
		return string(purpose.Normalize(prev.LogisticsPurpose))
	}
	return string(purpose.Normalize(next.Notes))
}

func isDowngradeFromCompleted(prev, next enums.StockTransferStatus) bool {
	return prev.Rank() == enums.StockTransferRankCompleted && next.Rank() < enums.StockTransferRankCompleted
}

func merged(prev JobState, patch JobPatch) JobState {
	next := prev
	if patch.LogisticsPurpose != nil {
		next.LogisticsPurpose = strings.TrimSpace(*patch.LogisticsPurpose)
	}
	if patch.StockTransferStatus != nil {
		next.StockTransferStatus = *patch.StockTransferStatus
	}
	if patch.ProjectNumber != nil {
		next.ProjectNumber = strings.TrimSpace(*patch.ProjectNumber)
	}
	if patch.PurchaseOrderID != nil {
		next.PurchaseOrderID = strings.TrimSpace(*patch.PurchaseOrderID)
	}
	if patch.VehicleID != nil {
		next.VehicleID = strings.TrimSpace(*patch.VehicleID)
	}
	if patch.PickupAddress != nil {
		next.PickupAddress = strings.TrimSpace(*patch.PickupAddress)
	}
	if patch.DeliveryAddress != nil {
		next.DeliveryAddress = strings.TrimSpace(*patch.DeliveryAddress)
	}
	if patch.Notes != nil {
		next.Notes = *patch.Notes
	}
	return next
}

func nullable(s string) any {
	if strings.TrimSpace(s) == "" {
		return nil
	}
	return s
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
