package allocations

import (
	"context"
	"io"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/angelmondragon/fieldops-logistics/pkg/db/models"
	"github.com/angelmondragon/fieldops-logistics/pkg/enums"
	pkgerrors "github.com/angelmondragon/fieldops-logistics/pkg/errors"
	"github.com/angelmondragon/fieldops-logistics/pkg/logger"
	"github.com/angelmondragon/fieldops-logistics/pkg/metrics"
	"github.com/angelmondragon/fieldops-logistics/pkg/store"
	"github.com/angelmondragon/fieldops-logistics/pkg/store/storetest"
)

type fixture struct {
	svc Service
	set *store.Set
	reg *prometheus.Registry
	now time.Time
}

func newFixture(t *testing.T) fixture {
	t.Helper()
	set := storetest.NewSet(t)
	now := time.Date(2026, 3, 4, 14, 0, 0, 0, time.UTC)
	reg := prometheus.NewRegistry()
	m := metrics.NewLogisticsMetrics(reg)
	svc, err := NewService(ServiceParams{
		Allocations:  set.Allocations,
		Consumptions: set.Consumptions,
		Visits:       set.Visits,
		Logger:       logger.New(logger.Options{Output: io.Discard}),
		Metrics:      m,
		Now:          func() time.Time { return now },
	})
	require.NoError(t, err)

	ctx := context.Background()
	require.NoError(t, set.Visits.Create(ctx, &models.Visit{Entity: models.Entity{ID: "visit-live"}, ProjectID: "proj-1", Status: enums.VisitStatusInProgress}))
	require.NoError(t, set.Visits.Create(ctx, &models.Visit{Entity: models.Entity{ID: "visit-later"}, ProjectID: "proj-1", Status: enums.VisitStatusScheduled}))
	return fixture{svc: svc, set: set, reg: reg, now: now}
}

func (f fixture) allocation(t *testing.T, id string, qty int64, visitID *string, status enums.AllocationStatus) {
	t.Helper()
	require.NoError(t, f.set.Allocations.Create(context.Background(), &models.StockAllocation{
		Entity:       models.Entity{ID: id},
		ProjectID:    "proj-1",
		VisitID:      visitID,
		QtyAllocated: decimal.NewFromInt(qty),
		Status:       status,
	}))
}

func (f fixture) consumedCount(t *testing.T) float64 {
	t.Helper()
	mfs, err := f.reg.Gather()
	require.NoError(t, err)
	for _, mf := range mfs {
		if mf.GetName() == "logistics_allocations_consumed_total" {
			return mf.GetMetric()[0].GetCounter().GetValue()
		}
	}
	return 0
}

func strPtr(s string) *string { return &s }

func input(qty int64) ConsumptionInput {
	return ConsumptionInput{
		ProjectID:          "proj-1",
		VisitID:            strPtr("visit-live"),
		SourceAllocationID: strPtr("alloc-1"),
		QtyConsumed:        decimal.NewFromInt(qty),
		ConsumedBy:         "tech-7",
	}
}

func TestValidateConsumptionOrderedChecks(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.allocation(t, "alloc-1", 5, strPtr("visit-live"), enums.AllocationStatusReserved)
	f.allocation(t, "alloc-released", 5, nil, enums.AllocationStatusReleased)

	cases := []struct {
		name   string
		mutate func(*ConsumptionInput)
		code   pkgerrors.Code
	}{
		{"missing project", func(in *ConsumptionInput) { in.ProjectID = "" }, pkgerrors.CodeValidation},
		{"unknown visit", func(in *ConsumptionInput) { in.VisitID = strPtr("nope") }, pkgerrors.CodeNotFound},
		{"visit not started", func(in *ConsumptionInput) { in.VisitID = strPtr("visit-later") }, pkgerrors.CodeValidation},
		{"unknown allocation", func(in *ConsumptionInput) { in.SourceAllocationID = strPtr("nope") }, pkgerrors.CodeNotFound},
		{"other project", func(in *ConsumptionInput) { in.ProjectID = "proj-2" }, pkgerrors.CodeValidation},
		{"other visit", func(in *ConsumptionInput) {
			in.VisitID = strPtr("visit-later")
			in.AllowOverride = true
		}, pkgerrors.CodeValidation},
		{"released", func(in *ConsumptionInput) { in.SourceAllocationID = strPtr("alloc-released") }, pkgerrors.CodeValidation},
		{"zero quantity", func(in *ConsumptionInput) { in.QtyConsumed = decimal.Zero }, pkgerrors.CodeValidation},
		{"over remaining", func(in *ConsumptionInput) { in.QtyConsumed = decimal.NewFromInt(6) }, pkgerrors.CodeValidation},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			in := input(2)
			tc.mutate(&in)
			err := f.svc.ValidateConsumption(ctx, in, nil)
			require.Error(t, err)
			require.True(t, pkgerrors.IsCode(err, tc.code), "got %v", err)
		})
	}

	require.NoError(t, f.svc.ValidateConsumption(ctx, input(5), nil))
}

func TestValidateConsumptionOverrideAllowsIdleVisit(t *testing.T) {
	f := newFixture(t)
	in := ConsumptionInput{
		ProjectID:     "proj-1",
		VisitID:       strPtr("visit-later"),
		QtyConsumed:   decimal.NewFromInt(1),
		AllowOverride: true,
	}
	require.NoError(t, f.svc.ValidateConsumption(context.Background(), in, nil))
}

func TestRemainingTracksConsumptions(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.allocation(t, "alloc-1", 5, strPtr("visit-live"), enums.AllocationStatusLoaded)

	_, err := f.svc.RecordConsumption(ctx, input(2))
	require.NoError(t, err)
	half := input(0)
	half.QtyConsumed = decimal.RequireFromString("1.5")
	_, err = f.svc.RecordConsumption(ctx, half)
	require.NoError(t, err)

	remaining, err := f.svc.Remaining(ctx, "alloc-1")
	require.NoError(t, err)
	assert.True(t, remaining.Equal(decimal.RequireFromString("1.5")), "remaining %s", remaining)

	_, err = f.svc.RecordConsumption(ctx, input(2))
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))

	rows, err := f.set.Consumptions.Filter(ctx, store.Query{})
	require.NoError(t, err)
	require.Len(t, rows, 2)
}

func TestRecordConsumptionFlipsAllocationOnce(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.allocation(t, "alloc-1", 3, strPtr("visit-live"), enums.AllocationStatusReserved)

	res, err := f.svc.RecordConsumption(ctx, input(3))
	require.NoError(t, err)
	require.True(t, res.Consumed)
	require.NotNil(t, res.Allocation)
	require.Equal(t, enums.AllocationStatusConsumed, res.Allocation.Status)

	stored, err := f.set.Allocations.Get(ctx, "alloc-1")
	require.NoError(t, err)
	require.Equal(t, enums.AllocationStatusConsumed, stored.Status)
	require.Equal(t, "tech-7", *stored.ConsumedBy)
	require.NotNil(t, stored.ConsumedAt)

	for i := 0; i < 3; i++ {
		again, changed, err := f.svc.Reconcile(ctx, "alloc-1", "someone-else")
		require.NoError(t, err)
		require.False(t, changed)
		require.Equal(t, enums.AllocationStatusConsumed, again.Status)
		require.Equal(t, "tech-7", *again.ConsumedBy)
	}
	require.Equal(t, float64(1), f.consumedCount(t))
}

func TestReconcileLeavesPartialAndReleasedAlone(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.allocation(t, "alloc-1", 3, nil, enums.AllocationStatusReserved)
	f.allocation(t, "alloc-released", 0, nil, enums.AllocationStatusReleased)

	_, changed, err := f.svc.Reconcile(ctx, "alloc-1", "cron")
	require.NoError(t, err)
	require.False(t, changed)

	released, changed, err := f.svc.Reconcile(ctx, "alloc-released", "cron")
	require.NoError(t, err)
	require.False(t, changed)
	require.Equal(t, enums.AllocationStatusReleased, released.Status)

	_, _, err = f.svc.Reconcile(ctx, "missing", "cron")
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotFound))
}

func TestReconcileOpenSweepsExhaustedAllocations(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.allocation(t, "alloc-1", 2, nil, enums.AllocationStatusLoaded)
	f.allocation(t, "alloc-2", 2, nil, enums.AllocationStatusReserved)
	f.allocation(t, "alloc-3", 0, nil, enums.AllocationStatusReserved)

	// consumption written without going through RecordConsumption
	require.NoError(t, f.set.Consumptions.Create(ctx, &models.StockConsumption{
		ProjectID:          "proj-1",
		SourceAllocationID: strPtr("alloc-1"),
		QtyConsumed:        decimal.NewFromInt(2),
	}))

	summary, err := f.svc.ReconcileOpen(ctx, "system:reconciler")
	require.NoError(t, err)
	require.Equal(t, 3, summary.Scanned)
	require.Equal(t, 2, summary.Consumed)

	untouched, err := f.set.Allocations.Get(ctx, "alloc-2")
	require.NoError(t, err)
	require.Equal(t, enums.AllocationStatusReserved, untouched.Status)
}
