// Package parts projects purchase order status onto linked parts and
// enforces the part status state machine.
package parts

import (
	"fmt"
	"sort"
	"strings"

	"go.uber.org/multierr"

	"github.com/angelmondragon/fieldops-logistics/pkg/db/models"
	"github.com/angelmondragon/fieldops-logistics/pkg/enums"
	pkgerrors "github.com/angelmondragon/fieldops-logistics/pkg/errors"
)

// MapPOStatusToPartStatus projects a purchase order status onto its parts.
// A cancelled order sends parts back to pending so they can be re-sourced.
func MapPOStatusToPartStatus(status enums.PurchaseOrderStatus) enums.PartStatus {
	switch status {
	case enums.PurchaseOrderStatusDraft:
		return enums.PartStatusPending
	case enums.PurchaseOrderStatusSent, enums.PurchaseOrderStatusOnOrder:
		return enums.PartStatusOnOrder
	case enums.PurchaseOrderStatusInTransit:
		return enums.PartStatusInTransit
	case enums.PurchaseOrderStatusInLoadingBay:
		return enums.PartStatusInLoadingBay
	case enums.PurchaseOrderStatusAtSupplier:
		return enums.PartStatusAtSupplier
	case enums.PurchaseOrderStatusInStorage:
		return enums.PartStatusInStorage
	case enums.PurchaseOrderStatusInVehicle:
		return enums.PartStatusInVehicle
	case enums.PurchaseOrderStatusInstalled:
		return enums.PartStatusInstalled
	case enums.PurchaseOrderStatusCancelled:
		return enums.PartStatusPending
	default:
		return enums.PartStatusPending
	}
}

// LocationForPartStatus returns where a part in the given status sits. The
// second result is false for statuses that do not imply a location.
func LocationForPartStatus(status enums.PartStatus) (enums.PartLocation, bool) {
	switch status {
	case enums.PartStatusPending, enums.PartStatusOnOrder, enums.PartStatusAtSupplier:
		return enums.PartLocationSupplier, true
	case enums.PartStatusInLoadingBay:
		return enums.PartLocationLoadingBay, true
	case enums.PartStatusInStorage:
		return enums.PartLocationWarehouseStorage, true
	case enums.PartStatusInVehicle:
		return enums.PartLocationVehicle, true
	case enums.PartStatusInstalled:
		return enums.PartLocationClientSite, true
	default:
		return "", false
	}
}

var allowedTransitions = map[enums.PartStatus][]enums.PartStatus{
	enums.PartStatusPending: {
		enums.PartStatusOnOrder, enums.PartStatusInTransit, enums.PartStatusAtSupplier,
		enums.PartStatusInLoadingBay, enums.PartStatusInStorage, enums.PartStatusInVehicle,
		enums.PartStatusCancelled,
	},
	enums.PartStatusOnOrder: {
		enums.PartStatusPending, enums.PartStatusInTransit, enums.PartStatusAtSupplier,
		enums.PartStatusInLoadingBay, enums.PartStatusInStorage, enums.PartStatusCancelled,
	},
	enums.PartStatusInTransit: {
		enums.PartStatusAtSupplier, enums.PartStatusInLoadingBay, enums.PartStatusInStorage,
		enums.PartStatusCancelled,
	},
	enums.PartStatusAtSupplier: {
		enums.PartStatusInTransit, enums.PartStatusInLoadingBay, enums.PartStatusInStorage,
		enums.PartStatusInVehicle, enums.PartStatusCancelled,
	},
	enums.PartStatusInLoadingBay: {
		enums.PartStatusInStorage, enums.PartStatusInVehicle, enums.PartStatusInstalled,
		enums.PartStatusCancelled,
	},
	enums.PartStatusInStorage: {
		enums.PartStatusInLoadingBay, enums.PartStatusInVehicle, enums.PartStatusInstalled,
		enums.PartStatusCancelled,
	},
	enums.PartStatusInVehicle: {
		enums.PartStatusInLoadingBay, enums.PartStatusInStorage, enums.PartStatusInstalled,
		enums.PartStatusCancelled,
	},
	enums.PartStatusInstalled: {},
	enums.PartStatusCancelled: {enums.PartStatusPending},
}

// AllowedTransitions returns the statuses reachable in one step from current.
func AllowedTransitions(current enums.PartStatus) []enums.PartStatus {
	next := allowedTransitions[current]
	out := make([]enums.PartStatus, len(next))
	copy(out, next)
	return out
}

// TransitionResult is the outcome of validating one status change.
type TransitionResult struct {
	Valid bool
	Err   error
}

// ValidateTransition checks current -> next against the transition table.
// An empty current status accepts any known next status, and staying in the
// same status is always valid.
func ValidateTransition(current, next enums.PartStatus) TransitionResult {
	if !next.IsValid() {
		return TransitionResult{Err: pkgerrors.Newf(pkgerrors.CodeValidation, "unknown part status %q", next)}
	}
	if current == "" || current == next {
		return TransitionResult{Valid: true}
	}
	allowed := allowedTransitions[current]
	for _, candidate := range allowed {
		if candidate == next {
			return TransitionResult{Valid: true}
		}
	}
	return TransitionResult{Err: transitionError(current, next, allowed)}
}

func transitionError(current, next enums.PartStatus, allowed []enums.PartStatus) error {
	names := make([]string, 0, len(allowed))
	for _, s := range allowed {
		names = append(names, string(s))
	}
	allowedText := "none"
	if len(names) > 0 {
		allowedText = strings.Join(names, ", ")
	}
	return pkgerrors.Newf(pkgerrors.CodeStateConflict,
		"part status cannot change from %q to %q (allowed: %s)", current, next, allowedText).
		WithDetails(map[string]any{
			"current":   string(current),
			"requested": string(next),
			"allowed":   names,
		})
}

// BatchReport aggregates per-part transition results. Nothing is applied.
type BatchReport struct {
	Valid   bool
	Results map[string]TransitionResult
	Err     error
}

// ValidateBatch validates desired statuses keyed by part id against the
// supplied part records. Ids without a matching part are reported as not found.
func ValidateBatch(parts []models.Part, desired map[string]enums.PartStatus) BatchReport {
	byID := make(map[string]models.Part, len(parts))
	for _, p := range parts {
		byID[p.ID] = p
	}

	ids := make([]string, 0, len(desired))
	for id := range desired {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	report := BatchReport{Valid: true, Results: make(map[string]TransitionResult, len(desired))}
	for _, id := range ids {
		part, ok := byID[id]
		var result TransitionResult
		if !ok {
			result = TransitionResult{Err: pkgerrors.Newf(pkgerrors.CodeNotFound, "part %s not found", id)}
		} else {
			result = ValidateTransition(part.Status, desired[id])
		}
		report.Results[id] = result
		if !result.Valid {
			report.Valid = false
			report.Err = multierr.Append(report.Err, fmt.Errorf("part %s: %w", id, result.Err))
		}
	}
	return report
}
