// Package movements is the append-only stock movement ledger. Each logical
// movement is stored at most once, identified by its idempotency key.
package movements

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/angelmondragon/fieldops-logistics/pkg/db/models"
	"github.com/angelmondragon/fieldops-logistics/pkg/enums"
	pkgerrors "github.com/angelmondragon/fieldops-logistics/pkg/errors"
	"github.com/angelmondragon/fieldops-logistics/pkg/logger"
	"github.com/angelmondragon/fieldops-logistics/pkg/metrics"
	"github.com/angelmondragon/fieldops-logistics/pkg/store"
	"github.com/angelmondragon/fieldops-logistics/pkg/validate"
)

const (
	defaultClaimWaitPolls  = 5
	defaultClaimPollPeriod = 100 * time.Millisecond
)

// Payload describes one stock movement as supplied by a caller.
type Payload struct {
	Source          string             `json:"source" validate:"required,max=32"`
	SourceID        string             `json:"source_id" validate:"max=64"`
	MovementType    enums.MovementType `json:"movement_type"`
	FromLocationID  *string            `json:"from_location_id,omitempty"`
	ToLocationID    *string            `json:"to_location_id,omitempty"`
	PriceListItemID *string            `json:"price_list_item_id,omitempty"`
	ItemSKU         string             `json:"item_sku" validate:"max=64"`
	ItemLabel       string             `json:"item_label" validate:"max=500"`
	Quantity        decimal.Decimal    `json:"quantity" validate:"dec_nonzero"`
	IdempotencyKey  string             `json:"idempotency_key,omitempty" validate:"max=64"`
	MovedBy         string             `json:"moved_by" validate:"max=128"`
	OccurredAt      time.Time          `json:"occurred_at"`
}

// Ledger records stock movements.
type Ledger interface {
	Prepare(ctx context.Context, payload Payload) (Payload, error)
	Find(ctx context.Context, key string) (*models.StockMovement, error)
	CreateIdempotent(ctx context.Context, payload Payload) (models.StockMovement, bool, error)
}

// LedgerParams wires the ledger.
type LedgerParams struct {
	Movements       store.Repository[models.StockMovement]
	Catalog         store.Repository[models.PriceListItem]
	Claims          *ClaimManager
	Logger          *logger.Logger
	Metrics         *metrics.LogisticsMetrics
	Now             func() time.Time
	ClaimWaitPolls  int
	ClaimPollPeriod time.Duration
}

type ledger struct {
	movements  store.Repository[models.StockMovement]
	catalog    store.Repository[models.PriceListItem]
	claims     *ClaimManager
	logg       *logger.Logger
	metrics    *metrics.LogisticsMetrics
	now        func() time.Time
	waitPolls  int
	pollPeriod time.Duration
}

// NewLedger builds a ledger. Claims are optional.
func NewLedger(params LedgerParams) (Ledger, error) {
	if params.Movements == nil {
		return nil, fmt.Errorf("movement repository required")
	}
	if params.Catalog == nil {
		return nil, fmt.Errorf("catalog repository required")
	}
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	now := params.Now
	if now == nil {
		now = time.Now
	}
	polls := params.ClaimWaitPolls
	if polls <= 0 {
		polls = defaultClaimWaitPolls
	}
	period := params.ClaimPollPeriod
	if period <= 0 {
		period = defaultClaimPollPeriod
	}
	return &ledger{
		movements:  params.Movements,
		catalog:    params.Catalog,
		claims:     params.Claims,
		logg:       params.Logger,
		metrics:    params.Metrics,
		now:        now,
		waitPolls:  polls,
		pollPeriod: period,
	}, nil
}

// Prepare enriches, normalizes and validates a payload and fills in its
// idempotency key. The returned payload is what CreateIdempotent stores.
func (l *ledger) Prepare(ctx context.Context, payload Payload) (Payload, error) {
	p, err := l.enrich(ctx, payload)
	if err != nil {
		return Payload{}, err
	}
	p, err = normalize(p)
	if err != nil {
		return Payload{}, err
	}
	if err := validatePayload(p); err != nil {
		return Payload{}, err
	}
	if p.OccurredAt.IsZero() {
		p.OccurredAt = l.now()
	}
	p.OccurredAt = p.OccurredAt.UTC()
	if p.IdempotencyKey == "" {
		p.IdempotencyKey = BuildIdempotencyKey(p)
	}
	return p, nil
}

// Find returns the ledger row for key, or nil when there is none.
func (l *ledger) Find(ctx context.Context, key string) (*models.StockMovement, error) {
	rows, err := l.movements.Filter(ctx, store.Query{
		Where: store.Columns{"idempotency_key": key},
		Limit: 1,
	})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "look up stock movement")
	}
	if len(rows) == 0 {
		return nil, nil
	}
	return &rows[0], nil
}

// CreateIdempotent inserts the movement unless a row with the same key
// exists, in which case that row is returned unchanged and created is false.
func (l *ledger) CreateIdempotent(ctx context.Context, payload Payload) (models.StockMovement, bool, error) {
	p, err := l.Prepare(ctx, payload)
	if err != nil {
		return models.StockMovement{}, false, err
	}
	ctx = l.logg.WithFields(ctx, map[string]any{
		"idempotency_key": p.IdempotencyKey,
		"movement_source": p.Source,
	})

	if existing, err := l.Find(ctx, p.IdempotencyKey); err != nil || existing != nil {
		return l.replayed(ctx, existing, p, err)
	}

	if l.claims != nil {
		claimed, err := l.claims.Claim(ctx, p.IdempotencyKey)
		if err != nil {
			return models.StockMovement{}, false, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "claim stock movement key")
		}
		if !claimed {
			existing, err := l.awaitWinner(ctx, p.IdempotencyKey)
			return l.replayed(ctx, existing, p, err)
		}
	}

	row := toModel(p)
	if err := l.movements.Create(ctx, &row); err != nil {
		l.releaseClaim(ctx, p.IdempotencyKey)
		if pkgerrors.IsUniqueViolation(err) {
			existing, findErr := l.Find(ctx, p.IdempotencyKey)
			if findErr == nil && existing != nil {
				return l.replayed(ctx, existing, p, nil)
			}
		}
		return models.StockMovement{}, false, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "insert stock movement")
	}

	l.metrics.LedgerWrite(p.Source, true)
	l.logg.Info(ctx, "stock movement recorded")
	return row, true, nil
}

func (l *ledger) replayed(ctx context.Context, existing *models.StockMovement, p Payload, err error) (models.StockMovement, bool, error) {
	if err != nil {
		return models.StockMovement{}, false, err
	}
	if existing == nil {
		return models.StockMovement{}, false, pkgerrors.Newf(pkgerrors.CodeConflict,
			"stock movement %s is being recorded by another caller", p.IdempotencyKey)
	}
	l.metrics.LedgerWrite(p.Source, false)
	l.logg.Debug(ctx, "stock movement already recorded")
	return *existing, false, nil
}

// awaitWinner polls for the row inserted by the caller that holds the claim.
func (l *ledger) awaitWinner(ctx context.Context, key string) (*models.StockMovement, error) {
	for i := 0; i < l.waitPolls; i++ {
		timer := time.NewTimer(l.pollPeriod)
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil, ctx.Err()
		case <-timer.C:
		}
		existing, err := l.Find(ctx, key)
		if err != nil || existing != nil {
			return existing, err
		}
	}
	return nil, nil
}

func (l *ledger) releaseClaim(ctx context.Context, key string) {
	if l.claims == nil {
		return
	}
	if err := l.claims.Release(ctx, key); err != nil {
		l.logg.Error(ctx, "failed to release stock movement claim", err)
	}
}

// enrich snapshots the catalog identity of the item, or synthesizes a
// custom SKU from the label when there is no catalog link.
func (l *ledger) enrich(ctx context.Context, p Payload) (Payload, error) {
	if id := deref(p.PriceListItemID); id != "" {
		item, err := l.catalog.Get(ctx, id)
		if errors.Is(err, store.ErrNotFound) {
			return Payload{}, pkgerrors.Newf(pkgerrors.CodeValidation, "price list item %s does not exist", id)
		}
		if err != nil {
			return Payload{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load price list item")
		}
		if item.SKU != "" {
			p.ItemSKU = item.SKU
		}
		if item.Name != "" {
			p.ItemLabel = item.Name
		}
		return p, nil
	}
	p.PriceListItemID = nil
	if strings.TrimSpace(p.ItemSKU) == "" && strings.TrimSpace(p.ItemLabel) != "" {
		p.ItemSKU = CustomSKU(p.ItemLabel)
	}
	return p, nil
}

func normalize(p Payload) (Payload, error) {
	source, ok := enums.NormalizeMovementSource(p.Source)
	if !ok {
		return Payload{}, pkgerrors.Newf(pkgerrors.CodeValidation, "unknown movement source %q", p.Source)
	}
	p.Source = string(source)
	if p.MovementType == "" {
		p.MovementType = enums.DefaultMovementType(source)
	}
	p.ItemSKU = strings.TrimSpace(p.ItemSKU)
	p.ItemLabel = strings.TrimSpace(p.ItemLabel)
	p.SourceID = strings.TrimSpace(p.SourceID)
	return p, nil
}

func validatePayload(p Payload) error {
	if err := validate.Struct(p); err != nil {
		return err
	}
	if !p.MovementType.IsValid() {
		return pkgerrors.Newf(pkgerrors.CodeValidation, "unknown movement type %q", p.MovementType)
	}
	if deref(p.PriceListItemID) == "" && p.ItemSKU == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "a price list item or item sku is required")
	}
	return nil
}

func toModel(p Payload) models.StockMovement {
	return models.StockMovement{
		Source:          enums.MovementSource(p.Source),
		SourceID:        p.SourceID,
		MovementType:    p.MovementType,
		FromLocationID:  p.FromLocationID,
		ToLocationID:    p.ToLocationID,
		PriceListItemID: p.PriceListItemID,
		ItemSKU:         p.ItemSKU,
		ItemLabel:       p.ItemLabel,
		Quantity:        p.Quantity,
		IdempotencyKey:  p.IdempotencyKey,
		MovedBy:         p.MovedBy,
		OccurredAt:      p.OccurredAt,
	}
}
