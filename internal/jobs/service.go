// Package jobs writes the logistics subset of field jobs through the
// version gate and the regression guard.
package jobs

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/angelmondragon/fieldops-logistics/internal/locking"
	"github.com/angelmondragon/fieldops-logistics/internal/regression"
	"github.com/angelmondragon/fieldops-logistics/internal/sequence"
	"github.com/angelmondragon/fieldops-logistics/pkg/db/models"
	"github.com/angelmondragon/fieldops-logistics/pkg/enums"
	pkgerrors "github.com/angelmondragon/fieldops-logistics/pkg/errors"
	"github.com/angelmondragon/fieldops-logistics/pkg/logger"
	"github.com/angelmondragon/fieldops-logistics/pkg/store"
)

// EntityName is the name jobs are registered under in the version gate.
const EntityName = "jobs"

// CreateInput describes a new logistics job.
type CreateInput struct {
	Patch       regression.JobPatch
	WriteSource string
}

// PatchInput updates an existing job. ExpectedVersion is optional.
type PatchInput struct {
	JobID           string
	Patch           regression.JobPatch
	ExpectedVersion *int
	WriteSource     string
}

// PatchResult is the stored job plus any fields the guard dropped.
type PatchResult struct {
	Job      models.Job
	Rejected []regression.RejectedField
}

type Service interface {
	Create(ctx context.Context, input CreateInput) (models.Job, error)
	Patch(ctx context.Context, input PatchInput) (PatchResult, error)
}

type ServiceParams struct {
	Jobs     store.Repository[models.Job]
	Gate     *locking.Gate
	Guard    *regression.Guard
	Numberer *sequence.Numberer
	Logger   *logger.Logger
}

type service struct {
	jobs     store.Repository[models.Job]
	gate     *locking.Gate
	guard    *regression.Guard
	numberer *sequence.Numberer
	logg     *logger.Logger
}

func NewService(params ServiceParams) (Service, error) {
	if params.Jobs == nil {
		return nil, fmt.Errorf("job repository required")
	}
	if params.Gate == nil {
		return nil, fmt.Errorf("version gate required")
	}
	if params.Guard == nil {
		return nil, fmt.Errorf("regression guard required")
	}
	if params.Numberer == nil {
		return nil, fmt.Errorf("numberer required")
	}
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &service{
		jobs:     params.Jobs,
		gate:     params.Gate,
		guard:    params.Guard,
		numberer: params.Numberer,
		logg:     params.Logger,
	}, nil
}

// Create derives the logistics fields and assigns a job number for
// logistics jobs.
func (s *service) Create(ctx context.Context, input CreateInput) (models.Job, error) {
	res := s.guard.Apply(ctx, regression.JobState{}, input.Patch)
	job := models.Job{WriteVersion: 1, WriteSource: input.WriteSource}
	applyPatch(&job, res.Patch)

	if job.IsLogisticsJob {
		if err := s.assignNumber(ctx, &job); err != nil {
			return models.Job{}, err
		}
	}

	if err := s.jobs.Create(ctx, &job); err != nil {
		return models.Job{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "insert job")
	}
	s.logg.Info(s.logg.WithJobID(ctx, job.ID), "logistics job created")
	return job, nil
}

// Patch checks the caller's version, strips regressions and writes the
// remaining fields stamped with the next write version. A job promoted to
// logistics without a number gets one.
func (s *service) Patch(ctx context.Context, input PatchInput) (PatchResult, error) {
	ctx = s.logg.WithJobID(ctx, input.JobID)
	if err := s.gate.AssertVersion(ctx, EntityName, input.JobID, input.ExpectedVersion); err != nil {
		return PatchResult{}, err
	}

	job, err := s.jobs.Get(ctx, input.JobID)
	if errors.Is(err, store.ErrNotFound) {
		return PatchResult{}, pkgerrors.Newf(pkgerrors.CodeNotFound, "job %s not found", input.JobID)
	}
	if err != nil {
		return PatchResult{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load job")
	}

	res := s.guard.Apply(ctx, regression.StateFromJob(*job), input.Patch)
	cols := res.Patch.Columns()
	if len(cols) == 0 {
		return PatchResult{Job: *job, Rejected: res.Rejected}, nil
	}
	next := *job
	applyPatch(&next, res.Patch)
	if next.IsLogisticsJob && next.JobNumber == "" {
		// a number burned by a lost update below is not reused
		if err := s.assignNumber(ctx, &next); err != nil {
			return PatchResult{}, err
		}
		cols["job_number"] = next.JobNumber
	}
	stamp := locking.NextVersionPayload(*job, input.WriteSource)
	for k, v := range stamp.Columns() {
		cols[k] = v
	}

	// a concurrent writer that slipped in after the gate check loses us the row
	ok, err := s.jobs.UpdateIf(ctx, job.ID, store.Columns{"write_version": job.WriteVersion}, cols)
	if err != nil {
		return PatchResult{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update job")
	}
	if !ok {
		return PatchResult{}, pkgerrors.Newf(pkgerrors.CodeStaleWrite,
			"job %s changed while it was being updated", job.ID)
	}

	next.WriteVersion = stamp.WriteVersion
	next.WriteSource = stamp.WriteSource
	return PatchResult{Job: next, Rejected: res.Rejected}, nil
}

func (s *service) assignNumber(ctx context.Context, job *models.Job) error {
	purposeCode := ""
	if job.LogisticsPurpose != nil {
		purposeCode = string(*job.LogisticsPurpose)
	}
	number, err := s.numberer.NextJobNumber(ctx, deref(job.ProjectNumber), purposeCode)
	if err != nil {
		return err
	}
	job.JobNumber = number.Display
	return nil
}

func applyPatch(job *models.Job, patch regression.JobPatch) {
	if patch.IsLogisticsJob != nil {
		job.IsLogisticsJob = *patch.IsLogisticsJob
	}
	if patch.LogisticsPurpose != nil {
		job.LogisticsPurpose = nil
		if strings.TrimSpace(*patch.LogisticsPurpose) != "" {
			p := enums.LogisticsPurpose(*patch.LogisticsPurpose)
			job.LogisticsPurpose = &p
		}
	}
	if patch.StockTransferStatus != nil {
		job.StockTransferStatus = nil
		if strings.TrimSpace(string(*patch.StockTransferStatus)) != "" {
			st := *patch.StockTransferStatus
			job.StockTransferStatus = &st
		}
	}
	job.ProjectNumber = pick(job.ProjectNumber, patch.ProjectNumber)
	job.PurchaseOrderID = pick(job.PurchaseOrderID, patch.PurchaseOrderID)
	job.VehicleID = pick(job.VehicleID, patch.VehicleID)
	job.PickupAddress = pick(job.PickupAddress, patch.PickupAddress)
	job.DeliveryAddress = pick(job.DeliveryAddress, patch.DeliveryAddress)
	job.Notes = pick(job.Notes, patch.Notes)
}

func pick(current, next *string) *string {
	if next == nil {
		return current
	}
	if strings.TrimSpace(*next) == "" {
		return nil
	}
	v := *next
	return &v
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
