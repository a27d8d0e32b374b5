package inventory

import (
	"context"

	"github.com/shopspring/decimal"

	pkgerrors "github.com/angelmondragon/fieldops-logistics/pkg/errors"
	"github.com/angelmondragon/fieldops-logistics/pkg/metrics"
	"github.com/angelmondragon/fieldops-logistics/pkg/store"
)

// balanceTable adapts one balance table (InventoryQuantity or VehicleStock)
// to the compare-and-swap loop below.
type balanceTable[T any] struct {
	name    string
	repo    store.Repository[T]
	newRow  func(where store.Columns, qty decimal.Decimal) T
	idOf    func(T) string
	qtyOf   func(T) decimal.Decimal
	metrics *metrics.LogisticsMetrics
}

type adjustment struct {
	Before decimal.Decimal
	After  decimal.Decimal
}

// adjust applies delta to the balance row matching where. The oldest
// matching row is authoritative. A result below zero is refused.
func (b balanceTable[T]) adjust(ctx context.Context, where store.Columns, delta decimal.Decimal, attempts int) (adjustment, error) {
	for attempt := 0; attempt < attempts; attempt++ {
		rows, err := b.repo.Filter(ctx, store.Query{Where: where})
		if err != nil {
			return adjustment{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "read "+b.name)
		}

		if len(rows) == 0 {
			if delta.IsNegative() {
				return adjustment{}, insufficient(b.name, where, decimal.Zero, delta)
			}
			row := b.newRow(where, delta)
			if err := b.repo.Create(ctx, &row); err != nil {
				return adjustment{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create "+b.name)
			}
			folded, err := b.foldDuplicate(ctx, where, row, delta)
			if err != nil {
				return adjustment{}, err
			}
			if folded {
				b.metrics.InventoryCASRetry(b.name)
				continue
			}
			return adjustment{Before: decimal.Zero, After: delta}, nil
		}

		current := rows[0]
		before := b.qtyOf(current)
		after := before.Add(delta)
		if after.IsNegative() {
			return adjustment{}, insufficient(b.name, where, before, delta)
		}
		ok, err := b.repo.UpdateIf(ctx, b.idOf(current),
			store.Columns{"quantity": before},
			store.Columns{"quantity": after})
		if err != nil {
			return adjustment{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update "+b.name)
		}
		if ok {
			return adjustment{Before: before, After: after}, nil
		}
		b.metrics.InventoryCASRetry(b.name)
	}
	return adjustment{}, pkgerrors.Newf(pkgerrors.CodeConflict, "%s kept changing; gave up after %d attempts", b.name, attempts)
}

// foldDuplicate handles two callers creating the first row for the same key.
// When an older row exists, our row is zeroed and the caller retries the
// delta against the older one.
func (b balanceTable[T]) foldDuplicate(ctx context.Context, where store.Columns, created T, delta decimal.Decimal) (bool, error) {
	rows, err := b.repo.Filter(ctx, store.Query{Where: where})
	if err != nil {
		return false, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "read "+b.name)
	}
	if len(rows) == 0 || b.idOf(rows[0]) == b.idOf(created) {
		return false, nil
	}
	ok, err := b.repo.UpdateIf(ctx, b.idOf(created),
		store.Columns{"quantity": delta},
		store.Columns{"quantity": decimal.Zero})
	if err != nil {
		return false, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "fold "+b.name)
	}
	return ok, nil
}

func insufficient(table string, where store.Columns, available, delta decimal.Decimal) error {
	details := map[string]any{
		"table":     table,
		"available": available.String(),
		"requested": delta.Neg().String(),
	}
	for k, v := range where {
		details[k] = v
	}
	return pkgerrors.Newf(pkgerrors.CodeValidation,
		"insufficient stock in %s: %s available, %s requested", table, available, delta.Neg()).
		WithDetails(details)
}
