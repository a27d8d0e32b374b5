package store_test

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/angelmondragon/fieldops-logistics/pkg/db/models"
	"github.com/angelmondragon/fieldops-logistics/pkg/enums"
	"github.com/angelmondragon/fieldops-logistics/pkg/store"
	"github.com/angelmondragon/fieldops-logistics/pkg/store/storetest"
)

func TestCollectionCreateGetFilter(t *testing.T) {
	ctx := context.Background()
	set := storetest.NewSet(t)

	visit := "visit-1"
	alloc := &models.StockAllocation{
		ProjectID:    "proj-1",
		VisitID:      &visit,
		QtyAllocated: decimal.NewFromInt(4),
		Status:       enums.AllocationStatusReserved,
	}
	require.NoError(t, set.Allocations.Create(ctx, alloc))
	require.NotEmpty(t, alloc.ID)

	got, err := set.Allocations.Get(ctx, alloc.ID)
	require.NoError(t, err)
	require.True(t, got.QtyAllocated.Equal(decimal.NewFromInt(4)))
	require.Equal(t, visit, *got.VisitID)

	require.NoError(t, set.Allocations.Create(ctx, &models.StockAllocation{ProjectID: "proj-1", Status: enums.AllocationStatusReserved}))

	withVisit, err := set.Allocations.Filter(ctx, store.Query{Where: store.Columns{"visit_id": visit}})
	require.NoError(t, err)
	require.Len(t, withVisit, 1)

	noVisit, err := set.Allocations.Filter(ctx, store.Query{Where: store.Columns{"visit_id": nil}})
	require.NoError(t, err)
	require.Len(t, noVisit, 1)

	all, err := set.Allocations.Filter(ctx, store.Query{Limit: 10})
	require.NoError(t, err)
	require.Len(t, all, 2)
}

func TestCollectionGetMissing(t *testing.T) {
	set := storetest.NewSet(t)
	_, err := set.Parts.Get(context.Background(), "missing")
	require.ErrorIs(t, err, store.ErrNotFound)
}

func TestCollectionUpdateOnlyTouchesProvidedColumns(t *testing.T) {
	ctx := context.Background()
	set := storetest.NewSet(t)

	part := &models.Part{Status: enums.PartStatusPending, Location: enums.PartLocationSupplier, WriteSource: "import"}
	require.NoError(t, set.Parts.Create(ctx, part))

	require.NoError(t, set.Parts.Update(ctx, part.ID, store.Columns{"status": enums.PartStatusOnOrder}))

	got, err := set.Parts.Get(ctx, part.ID)
	require.NoError(t, err)
	require.Equal(t, enums.PartStatusOnOrder, got.Status)
	require.Equal(t, enums.PartLocationSupplier, got.Location)
	require.Equal(t, "import", got.WriteSource)

	require.ErrorIs(t, set.Parts.Update(ctx, "missing", store.Columns{"status": "installed"}), store.ErrNotFound)
	require.NoError(t, set.Parts.Update(ctx, part.ID, nil))
}

func TestCollectionUpdateIfGuardsOnCurrentValue(t *testing.T) {
	ctx := context.Background()
	set := storetest.NewSet(t)

	counter := &models.LogisticsJobCounter{Key: "global:OTH", NextSeq: 2}
	require.NoError(t, set.Counters.Create(ctx, counter))

	ok, err := set.Counters.UpdateIf(ctx, counter.ID, store.Columns{"next_seq": int64(2)}, store.Columns{"next_seq": int64(3)})
	require.NoError(t, err)
	require.True(t, ok)

	ok, err = set.Counters.UpdateIf(ctx, counter.ID, store.Columns{"next_seq": int64(2)}, store.Columns{"next_seq": int64(3)})
	require.NoError(t, err)
	require.False(t, ok)

	got, err := set.Counters.Get(ctx, counter.ID)
	require.NoError(t, err)
	require.Equal(t, int64(3), got.NextSeq)

	_, err = set.Counters.UpdateIf(ctx, counter.ID, nil, nil)
	require.Error(t, err)
}

func TestCollectionUpdateIfOnDecimalQuantity(t *testing.T) {
	ctx := context.Background()
	set := storetest.NewSet(t)

	qty := &models.InventoryQuantity{PriceListItemID: "item-1", LocationID: "loc-1", Quantity: decimal.RequireFromString("2.5")}
	require.NoError(t, set.Quantities.Create(ctx, qty))

	ok, err := set.Quantities.UpdateIf(ctx, qty.ID,
		store.Columns{"quantity": decimal.RequireFromString("2.5")},
		store.Columns{"quantity": decimal.RequireFromString("1.5")})
	require.NoError(t, err)
	require.True(t, ok)

	got, err := set.Quantities.Get(ctx, qty.ID)
	require.NoError(t, err)
	require.True(t, got.Quantity.Equal(decimal.RequireFromString("1.5")), "got %s", got.Quantity)
}
