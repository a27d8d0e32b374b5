package movements

import (
	"context"
	"io"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/angelmondragon/fieldops-logistics/pkg/config"
	"github.com/angelmondragon/fieldops-logistics/pkg/db/models"
	"github.com/angelmondragon/fieldops-logistics/pkg/enums"
	pkgerrors "github.com/angelmondragon/fieldops-logistics/pkg/errors"
	"github.com/angelmondragon/fieldops-logistics/pkg/logger"
	"github.com/angelmondragon/fieldops-logistics/pkg/redis"
	"github.com/angelmondragon/fieldops-logistics/pkg/store"
	"github.com/angelmondragon/fieldops-logistics/pkg/store/storetest"
)

var baseTime = time.Date(2026, 3, 2, 10, 15, 0, 0, time.UTC)

func strPtr(s string) *string { return &s }

func newTestLedger(t *testing.T, claims *ClaimManager) (Ledger, *store.Set) {
	t.Helper()
	set := storetest.NewSet(t)
	l, err := NewLedger(LedgerParams{
		Movements:       set.Movements,
		Catalog:         set.PriceListItems,
		Claims:          claims,
		Logger:          logger.New(logger.Options{Output: io.Discard}),
		Now:             func() time.Time { return baseTime },
		ClaimWaitPolls:  2,
		ClaimPollPeriod: time.Millisecond,
	})
	require.NoError(t, err)
	require.NoError(t, set.PriceListItems.Create(context.Background(), &models.PriceListItem{
		Entity: models.Entity{ID: "pli-1"},
		SKU:    "INV-5KW",
		Name:   "Inverter 5kW",
	}))
	return l, set
}

func catalogPayload() Payload {
	return Payload{
		Source:          "vehicle_load",
		SourceID:        "job-42",
		FromLocationID:  strPtr("loc-bay"),
		ToLocationID:    strPtr("loc-van"),
		PriceListItemID: strPtr("pli-1"),
		Quantity:        decimal.NewFromInt(3),
		MovedBy:         "tech-7",
		OccurredAt:      baseTime.Add(12 * time.Second),
	}
}

func TestNewLedgerRequiresDependencies(t *testing.T) {
	set := storetest.NewSet(t)
	_, err := NewLedger(LedgerParams{Catalog: set.PriceListItems, Logger: logger.New(logger.Options{Output: io.Discard})})
	require.Error(t, err)
	_, err = NewLedger(LedgerParams{Movements: set.Movements, Logger: logger.New(logger.Options{Output: io.Discard})})
	require.Error(t, err)
	_, err = NewLedger(LedgerParams{Movements: set.Movements, Catalog: set.PriceListItems})
	require.Error(t, err)
}

func TestCreateIdempotentCollapsesRetriesWithinMinute(t *testing.T) {
	ctx := context.Background()
	l, set := newTestLedger(t, nil)

	first, created, err := l.CreateIdempotent(ctx, catalogPayload())
	require.NoError(t, err)
	require.True(t, created)
	assert.Equal(t, "INV-5KW", first.ItemSKU)
	assert.Equal(t, "Inverter 5kW", first.ItemLabel)
	assert.Equal(t, enums.MovementTypeTransfer, first.MovementType)

	retry := catalogPayload()
	retry.OccurredAt = baseTime.Add(50 * time.Second)
	second, created, err := l.CreateIdempotent(ctx, retry)
	require.NoError(t, err)
	require.False(t, created)
	require.Equal(t, first.ID, second.ID)

	rows, err := set.Movements.Filter(ctx, store.Query{})
	require.NoError(t, err)
	require.Len(t, rows, 1)

	later := catalogPayload()
	later.OccurredAt = baseTime.Add(2 * time.Minute)
	_, created, err = l.CreateIdempotent(ctx, later)
	require.NoError(t, err)
	require.True(t, created)
}

func TestCreateIdempotentNormalizesLegacySource(t *testing.T) {
	ctx := context.Background()
	l, _ := newTestLedger(t, nil)

	p := catalogPayload()
	p.Source = "PO-Receive"
	row, created, err := l.CreateIdempotent(ctx, p)
	require.NoError(t, err)
	require.True(t, created)
	require.Equal(t, enums.MovementSourcePurchaseOrderReceipt, row.Source)
	require.Equal(t, enums.MovementTypeReceipt, row.MovementType)

	canonical := catalogPayload()
	canonical.Source = string(enums.MovementSourcePurchaseOrderReceipt)
	_, created, err = l.CreateIdempotent(ctx, canonical)
	require.NoError(t, err)
	require.False(t, created)
}

func TestCreateIdempotentDerivesCustomSKU(t *testing.T) {
	ctx := context.Background()
	l, _ := newTestLedger(t, nil)

	row, created, err := l.CreateIdempotent(ctx, Payload{
		Source:     "manual_adjustment",
		ItemLabel:  "  Roof   Hook ",
		Quantity:   decimal.NewFromInt(-2),
		OccurredAt: baseTime,
	})
	require.NoError(t, err)
	require.True(t, created)
	require.Nil(t, row.PriceListItemID)
	require.Equal(t, CustomSKU("roof hook"), row.ItemSKU)
	require.True(t, IsCustomSKU(row.ItemSKU))
	require.Equal(t, enums.MovementTypeAdjustment, row.MovementType)
}

func TestPrepareRejectsInvalidPayloads(t *testing.T) {
	ctx := context.Background()
	l, _ := newTestLedger(t, nil)

	cases := map[string]Payload{
		"unknown source":  {Source: "teleport", ItemSKU: "X", Quantity: decimal.NewFromInt(1)},
		"zero quantity":   {Source: "stock_take", ItemSKU: "X", Quantity: decimal.Zero},
		"no item":         {Source: "stock_take", Quantity: decimal.NewFromInt(1)},
		"unknown catalog": {Source: "stock_take", PriceListItemID: strPtr("missing"), Quantity: decimal.NewFromInt(1)},
		"bad type":        {Source: "stock_take", ItemSKU: "X", MovementType: "teleport", Quantity: decimal.NewFromInt(1)},
	}
	for name, payload := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := l.Prepare(ctx, payload)
			require.Error(t, err)
			require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation), "got %v", err)
		})
	}
}

func TestPrepareKeepsCallerKeyAndDefaultsTime(t *testing.T) {
	l, _ := newTestLedger(t, nil)

	p, err := l.Prepare(context.Background(), Payload{Source: "stock_take", ItemSKU: "X", Quantity: decimal.NewFromInt(1), IdempotencyKey: "caller-key"})
	require.NoError(t, err)
	require.Equal(t, "caller-key", p.IdempotencyKey)
	require.True(t, p.OccurredAt.Equal(baseTime))
}

func TestFindReturnsNilWhenMissing(t *testing.T) {
	l, _ := newTestLedger(t, nil)
	row, err := l.Find(context.Background(), "smv1_missing")
	require.NoError(t, err)
	require.Nil(t, row)
}

func newClaims(t *testing.T) (*ClaimManager, *redis.Client) {
	t.Helper()
	mr := miniredis.RunT(t)
	client, err := redis.New(context.Background(), config.RedisConfig{Address: mr.Addr()}, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Close() })
	claims, err := NewClaimManager(client, time.Minute)
	require.NoError(t, err)
	return claims, client
}

func TestCreateIdempotentWithClaims(t *testing.T) {
	ctx := context.Background()
	claims, _ := newClaims(t)
	l, _ := newTestLedger(t, claims)

	row, created, err := l.CreateIdempotent(ctx, catalogPayload())
	require.NoError(t, err)
	require.True(t, created)

	again, created, err := l.CreateIdempotent(ctx, catalogPayload())
	require.NoError(t, err)
	require.False(t, created)
	require.Equal(t, row.ID, again.ID)
}

func TestCreateIdempotentConflictsWhileClaimHeldWithoutRow(t *testing.T) {
	ctx := context.Background()
	claims, _ := newClaims(t)
	l, _ := newTestLedger(t, claims)

	p, err := l.Prepare(ctx, catalogPayload())
	require.NoError(t, err)
	claimed, err := claims.Claim(ctx, p.IdempotencyKey)
	require.NoError(t, err)
	require.True(t, claimed)

	_, _, err = l.CreateIdempotent(ctx, catalogPayload())
	require.Error(t, err)
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeConflict))

	require.NoError(t, claims.Release(ctx, p.IdempotencyKey))
	_, created, err := l.CreateIdempotent(ctx, catalogPayload())
	require.NoError(t, err)
	require.True(t, created)
}

func TestBuildIdempotencyKeyIsStable(t *testing.T) {
	a := catalogPayload()
	a.Source = "vehicle_load"
	a.MovementType = enums.MovementTypeTransfer
	a.ItemSKU = "INV-5KW"
	b := a
	b.OccurredAt = a.OccurredAt.Add(30 * time.Second)

	require.Equal(t, BuildIdempotencyKey(a), BuildIdempotencyKey(b))
	require.Len(t, BuildIdempotencyKey(a), len(keyPrefix)+keyDigestLength)

	b.Quantity = decimal.NewFromInt(4)
	require.NotEqual(t, BuildIdempotencyKey(a), BuildIdempotencyKey(b))
}
