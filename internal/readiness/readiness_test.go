package readiness

import (
	"context"
	"io"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/angelmondragon/fieldops-logistics/pkg/db/models"
	"github.com/angelmondragon/fieldops-logistics/pkg/enums"
	pkgerrors "github.com/angelmondragon/fieldops-logistics/pkg/errors"
	"github.com/angelmondragon/fieldops-logistics/pkg/logger"
	"github.com/angelmondragon/fieldops-logistics/pkg/store/storetest"
)

func strPtr(s string) *string { return &s }

func line(id string, qty int64, blocking bool, status enums.RequirementLineStatus) models.ProjectRequirementLine {
	return models.ProjectRequirementLine{
		Entity:      models.Entity{ID: id},
		ProjectID:   "proj-1",
		VisitID:     strPtr("visit-1"),
		IsBlocking:  blocking,
		Status:      status,
		QtyRequired: decimal.NewFromInt(qty),
	}
}

func alloc(lineID, visitID string, qty int64, status enums.AllocationStatus) models.StockAllocation {
	return models.StockAllocation{
		ProjectID:         "proj-1",
		VisitID:           strPtr(visitID),
		RequirementLineID: strPtr(lineID),
		QtyAllocated:      decimal.NewFromInt(qty),
		Status:            status,
	}
}

func TestEvaluate(t *testing.T) {
	cases := []struct {
		name   string
		lines  []models.ProjectRequirementLine
		allocs []models.StockAllocation
		want   enums.ReadinessStatus
	}{
		{
			name:   "no blocking lines",
			lines:  []models.ProjectRequirementLine{line("l1", 4, false, enums.RequirementLineStatusOpen)},
			allocs: nil,
			want:   enums.ReadinessReadyToInstall,
		},
		{
			name:  "cancelled blocking line ignored",
			lines: []models.ProjectRequirementLine{line("l1", 4, true, enums.RequirementLineStatusCancelled)},
			want:  enums.ReadinessReadyToInstall,
		},
		{
			name:   "uncovered",
			lines:  []models.ProjectRequirementLine{line("l1", 4, true, enums.RequirementLineStatusOpen)},
			allocs: []models.StockAllocation{alloc("l1", "visit-1", 3, enums.AllocationStatusReserved)},
			want:   enums.ReadinessNotReady,
		},
		{
			name:  "covered not loaded",
			lines: []models.ProjectRequirementLine{line("l1", 4, true, enums.RequirementLineStatusOpen)},
			allocs: []models.StockAllocation{
				alloc("l1", "visit-1", 3, enums.AllocationStatusReserved),
				alloc("l1", "visit-1", 1, enums.AllocationStatusLoaded),
			},
			want: enums.ReadinessReadyToPack,
		},
		{
			name:  "all loaded",
			lines: []models.ProjectRequirementLine{line("l1", 4, true, enums.RequirementLineStatusOpen), line("l2", 1, true, enums.RequirementLineStatusOpen)},
			allocs: []models.StockAllocation{
				alloc("l1", "visit-1", 4, enums.AllocationStatusConsumed),
				alloc("l2", "visit-1", 1, enums.AllocationStatusLoaded),
			},
			want: enums.ReadinessReadyToInstall,
		},
		{
			name:  "released and other visit ignored",
			lines: []models.ProjectRequirementLine{line("l1", 2, true, enums.RequirementLineStatusOpen)},
			allocs: []models.StockAllocation{
				alloc("l1", "visit-1", 2, enums.AllocationStatusReleased),
				alloc("l1", "visit-2", 2, enums.AllocationStatusLoaded),
			},
			want: enums.ReadinessNotReady,
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := Evaluate("visit-1", tc.lines, tc.allocs)
			require.Equal(t, tc.want, got.Status)
			require.Equal(t, "visit-1", got.VisitID)
		})
	}
}

func TestEvaluateReportsCoverage(t *testing.T) {
	got := Evaluate("visit-1",
		[]models.ProjectRequirementLine{line("l2", 2, true, enums.RequirementLineStatusOpen), line("l1", 3, true, enums.RequirementLineStatusOpen)},
		[]models.StockAllocation{
			alloc("l1", "visit-1", 3, enums.AllocationStatusReserved),
			alloc("l2", "visit-1", 2, enums.AllocationStatusLoaded),
		})

	require.Equal(t, enums.ReadinessReadyToPack, got.Status)
	require.Len(t, got.BlockingLines, 2)
	require.Equal(t, "l1", got.BlockingLines[0].RequirementLineID)
	require.True(t, got.BlockingLines[0].Covered)
	require.False(t, got.BlockingLines[0].IsLoaded)
	require.True(t, got.BlockingLines[1].IsLoaded)
}

func TestServiceForVisit(t *testing.T) {
	ctx := context.Background()
	set := storetest.NewSet(t)
	svc, err := NewService(ServiceParams{
		Visits:           set.Visits,
		RequirementLines: set.RequirementLines,
		Allocations:      set.Allocations,
		Logger:           logger.New(logger.Options{Output: io.Discard}),
	})
	require.NoError(t, err)

	require.NoError(t, set.Visits.Create(ctx, &models.Visit{Entity: models.Entity{ID: "visit-1"}, ProjectID: "proj-1", Status: enums.VisitStatusScheduled}))
	l1 := line("l1", 2, true, enums.RequirementLineStatusOpen)
	require.NoError(t, set.RequirementLines.Create(ctx, &l1))
	a := alloc("l1", "visit-1", 2, enums.AllocationStatusReserved)
	require.NoError(t, set.Allocations.Create(ctx, &a))

	got, err := svc.ForVisit(ctx, "visit-1")
	require.NoError(t, err)
	require.Equal(t, enums.ReadinessReadyToPack, got.Status)

	_, err = svc.ForVisit(ctx, "missing")
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotFound))
}

func TestServiceForVisitIncludesProjectLevelLines(t *testing.T) {
	ctx := context.Background()
	set := storetest.NewSet(t)
	svc, err := NewService(ServiceParams{
		Visits:           set.Visits,
		RequirementLines: set.RequirementLines,
		Allocations:      set.Allocations,
		Logger:           logger.New(logger.Options{Output: io.Discard}),
	})
	require.NoError(t, err)

	require.NoError(t, set.Visits.Create(ctx, &models.Visit{Entity: models.Entity{ID: "visit-1"}, ProjectID: "proj-1", Status: enums.VisitStatusScheduled}))
	projectLine := line("l-project", 5, true, enums.RequirementLineStatusOpen)
	projectLine.VisitID = nil
	require.NoError(t, set.RequirementLines.Create(ctx, &projectLine))
	otherVisit := line("l-other", 1, true, enums.RequirementLineStatusOpen)
	otherVisit.VisitID = strPtr("visit-2")
	require.NoError(t, set.RequirementLines.Create(ctx, &otherVisit))
	otherProject := line("l-foreign", 1, true, enums.RequirementLineStatusOpen)
	otherProject.ProjectID = "proj-2"
	otherProject.VisitID = nil
	require.NoError(t, set.RequirementLines.Create(ctx, &otherProject))

	got, err := svc.ForVisit(ctx, "visit-1")
	require.NoError(t, err)
	require.Equal(t, enums.ReadinessNotReady, got.Status)
	require.Len(t, got.BlockingLines, 1)
	require.Equal(t, "l-project", got.BlockingLines[0].RequirementLineID)

	a := alloc("l-project", "visit-1", 5, enums.AllocationStatusLoaded)
	require.NoError(t, set.Allocations.Create(ctx, &a))
	got, err = svc.ForVisit(ctx, "visit-1")
	require.NoError(t, err)
	require.Equal(t, enums.ReadinessReadyToInstall, got.Status)
}
