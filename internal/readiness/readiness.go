// Package readiness derives whether a visit can be packed or installed from
// its blocking requirement lines and the allocations covering them.
package readiness

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/shopspring/decimal"

	"github.com/angelmondragon/fieldops-logistics/pkg/db/models"
	"github.com/angelmondragon/fieldops-logistics/pkg/enums"
	pkgerrors "github.com/angelmondragon/fieldops-logistics/pkg/errors"
	"github.com/angelmondragon/fieldops-logistics/pkg/logger"
	"github.com/angelmondragon/fieldops-logistics/pkg/store"
)

// LineCoverage is how far one blocking requirement line is satisfied.
type LineCoverage struct {
	RequirementLineID string          `json:"requirement_line_id"`
	Required          decimal.Decimal `json:"required"`
	Allocated         decimal.Decimal `json:"allocated"`
	Loaded            decimal.Decimal `json:"loaded"`
	Covered           bool            `json:"covered"`
	IsLoaded          bool            `json:"loaded_complete"`
}

// Readiness is the evaluated state of a visit.
type Readiness struct {
	VisitID       string                `json:"visit_id"`
	Status        enums.ReadinessStatus `json:"status"`
	BlockingLines []LineCoverage        `json:"blocking_lines"`
}

// Evaluate is pure. Lines that are not blocking or are cancelled are ignored.
// A visit with no blocking lines is ready to install.
func Evaluate(visitID string, lines []models.ProjectRequirementLine, allocations []models.StockAllocation) Readiness {
	out := Readiness{VisitID: visitID, Status: enums.ReadinessReadyToInstall, BlockingLines: []LineCoverage{}}

	allCovered, allLoaded := true, true
	for _, line := range lines {
		if !line.IsBlocking || line.Status == enums.RequirementLineStatusCancelled {
			continue
		}
		cov := LineCoverage{
			RequirementLineID: line.ID,
			Required:          line.QtyRequired,
			Allocated:         decimal.Zero,
			Loaded:            decimal.Zero,
		}
		for _, a := range allocations {
			if deref(a.RequirementLineID) != line.ID || deref(a.VisitID) != visitID {
				continue
			}
			switch a.Status {
			case enums.AllocationStatusLoaded, enums.AllocationStatusConsumed:
				cov.Loaded = cov.Loaded.Add(a.QtyAllocated)
				cov.Allocated = cov.Allocated.Add(a.QtyAllocated)
			case enums.AllocationStatusReserved:
				cov.Allocated = cov.Allocated.Add(a.QtyAllocated)
			}
		}
		cov.Covered = cov.Allocated.GreaterThanOrEqual(cov.Required)
		cov.IsLoaded = cov.Loaded.GreaterThanOrEqual(cov.Required)
		allCovered = allCovered && cov.Covered
		allLoaded = allLoaded && cov.IsLoaded
		out.BlockingLines = append(out.BlockingLines, cov)
	}

	sort.Slice(out.BlockingLines, func(i, j int) bool {
		return out.BlockingLines[i].RequirementLineID < out.BlockingLines[j].RequirementLineID
	})

	switch {
	case len(out.BlockingLines) == 0, allLoaded:
		out.Status = enums.ReadinessReadyToInstall
	case allCovered:
		out.Status = enums.ReadinessReadyToPack
	default:
		out.Status = enums.ReadinessNotReady
	}
	return out
}

type Service interface {
	ForVisit(ctx context.Context, visitID string) (Readiness, error)
}

type ServiceParams struct {
	Visits           store.Repository[models.Visit]
	RequirementLines store.Repository[models.ProjectRequirementLine]
	Allocations      store.Repository[models.StockAllocation]
	Logger           *logger.Logger
}

type service struct {
	visits      store.Repository[models.Visit]
	lines       store.Repository[models.ProjectRequirementLine]
	allocations store.Repository[models.StockAllocation]
	logg        *logger.Logger
}

func NewService(params ServiceParams) (Service, error) {
	if params.Visits == nil {
		return nil, fmt.Errorf("visit repository required")
	}
	if params.RequirementLines == nil {
		return nil, fmt.Errorf("requirement line repository required")
	}
	if params.Allocations == nil {
		return nil, fmt.Errorf("allocation repository required")
	}
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &service{
		visits:      params.Visits,
		lines:       params.RequirementLines,
		allocations: params.Allocations,
		logg:        params.Logger,
	}, nil
}

// ForVisit evaluates the visit against its project's requirement lines. Lines
// without a visit apply to every visit of the project.
func (s *service) ForVisit(ctx context.Context, visitID string) (Readiness, error) {
	visit, err := s.visits.Get(ctx, visitID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return Readiness{}, pkgerrors.Newf(pkgerrors.CodeNotFound, "visit %s not found", visitID)
		}
		return Readiness{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load visit")
	}

	projectLines, err := s.lines.Filter(ctx, store.Query{Where: store.Columns{"project_id": visit.ProjectID}})
	if err != nil {
		return Readiness{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list requirement lines")
	}
	lines := make([]models.ProjectRequirementLine, 0, len(projectLines))
	for _, line := range projectLines {
		if line.VisitID == nil || *line.VisitID == visitID {
			lines = append(lines, line)
		}
	}
	allocations, err := s.allocations.Filter(ctx, store.Query{Where: store.Columns{"visit_id": visitID}})
	if err != nil {
		return Readiness{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list allocations")
	}

	result := Evaluate(visitID, lines, allocations)
	s.logg.Debug(s.logg.WithFields(ctx, map[string]any{
		"visit_id":  visitID,
		"readiness": string(result.Status),
	}), "visit readiness evaluated")
	return result, nil
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
