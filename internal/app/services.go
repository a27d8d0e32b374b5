// Package app wires the logistics services on top of the shared clients.
package app

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"gorm.io/gorm"

	"github.com/angelmondragon/fieldops-logistics/internal/allocations"
	"github.com/angelmondragon/fieldops-logistics/internal/inventory"
	"github.com/angelmondragon/fieldops-logistics/internal/jobs"
	"github.com/angelmondragon/fieldops-logistics/internal/locking"
	"github.com/angelmondragon/fieldops-logistics/internal/movements"
	"github.com/angelmondragon/fieldops-logistics/internal/parts"
	"github.com/angelmondragon/fieldops-logistics/internal/readiness"
	"github.com/angelmondragon/fieldops-logistics/internal/regression"
	"github.com/angelmondragon/fieldops-logistics/internal/sequence"
	"github.com/angelmondragon/fieldops-logistics/pkg/config"
	"github.com/angelmondragon/fieldops-logistics/pkg/db/models"
	"github.com/angelmondragon/fieldops-logistics/pkg/logger"
	"github.com/angelmondragon/fieldops-logistics/pkg/metrics"
	"github.com/angelmondragon/fieldops-logistics/pkg/redis"
	"github.com/angelmondragon/fieldops-logistics/pkg/store"
)

// Params carry the clients the services are built on. Redis is optional.
type Params struct {
	Config     *config.Config
	DB         *gorm.DB
	Redis      *redis.Client
	Logger     *logger.Logger
	Registerer prometheus.Registerer
}

// Services is the fully wired logistics layer.
type Services struct {
	Store       *store.Set
	Metrics     *metrics.LogisticsMetrics
	Ledger      movements.Ledger
	Inventory   *inventory.Sync
	Allocations allocations.Service
	Parts       parts.Service
	Readiness   readiness.Service
	Jobs        jobs.Service
	Numberer    *sequence.Numberer
	Gate        *locking.Gate
}

func Build(params Params) (*Services, error) {
	if params.Config == nil {
		return nil, fmt.Errorf("config required")
	}
	if params.DB == nil {
		return nil, fmt.Errorf("db required")
	}
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	cfg := params.Config
	logg := params.Logger
	set := store.NewSet(params.DB)
	m := metrics.NewLogisticsMetrics(params.Registerer)

	var claims *movements.ClaimManager
	if params.Redis != nil {
		var err error
		claims, err = movements.NewClaimManager(params.Redis, cfg.Ledger.ClaimTTL)
		if err != nil {
			return nil, fmt.Errorf("claim manager: %w", err)
		}
	}
	ledger, err := movements.NewLedger(movements.LedgerParams{
		Movements:       set.Movements,
		Catalog:         set.PriceListItems,
		Claims:          claims,
		Logger:          logg,
		Metrics:         m,
		ClaimWaitPolls:  cfg.Ledger.ClaimWaitPolls,
		ClaimPollPeriod: cfg.Ledger.ClaimPollPeriod,
	})
	if err != nil {
		return nil, fmt.Errorf("ledger: %w", err)
	}

	sync, err := inventory.NewSync(inventory.SyncParams{
		Locations:      set.Locations,
		Quantities:     set.Quantities,
		VehicleStock:   set.VehicleStock,
		Ledger:         ledger,
		Logger:         logg,
		Metrics:        m,
		MaxCASAttempts: cfg.Inventory.MaxCASAttempts,
	})
	if err != nil {
		return nil, fmt.Errorf("inventory: %w", err)
	}

	allocationSvc, err := allocations.NewService(allocations.ServiceParams{
		Allocations:  set.Allocations,
		Consumptions: set.Consumptions,
		Visits:       set.Visits,
		Logger:       logg,
		Metrics:      m,
	})
	if err != nil {
		return nil, fmt.Errorf("allocations: %w", err)
	}

	partsSvc, err := parts.NewService(parts.ServiceParams{
		PurchaseOrders:     set.PurchaseOrders,
		PurchaseOrderLines: set.PurchaseOrderLines,
		Parts:              set.Parts,
		Logger:             logg,
	})
	if err != nil {
		return nil, fmt.Errorf("parts: %w", err)
	}

	readinessSvc, err := readiness.NewService(readiness.ServiceParams{
		Visits:           set.Visits,
		RequirementLines: set.RequirementLines,
		Allocations:      set.Allocations,
		Logger:           logg,
	})
	if err != nil {
		return nil, fmt.Errorf("readiness: %w", err)
	}

	counter, err := NewCounter(cfg.Sequence, set, params.Redis, m)
	if err != nil {
		return nil, err
	}
	numberer, err := sequence.NewNumberer(counter, logg)
	if err != nil {
		return nil, fmt.Errorf("numberer: %w", err)
	}
	gate, err := locking.NewGate(locking.GateParams{
		Sources: map[string]locking.VersionSource{
			jobs.EntityName: locking.SourceFor[models.Job](set.Jobs),
		},
		Logger:  logg,
		Metrics: m,
	})
	if err != nil {
		return nil, fmt.Errorf("version gate: %w", err)
	}
	guard, err := regression.NewGuard(regression.GuardParams{Logger: logg, Metrics: m})
	if err != nil {
		return nil, fmt.Errorf("regression guard: %w", err)
	}
	jobsSvc, err := jobs.NewService(jobs.ServiceParams{
		Jobs:     set.Jobs,
		Gate:     gate,
		Guard:    guard,
		Numberer: numberer,
		Logger:   logg,
	})
	if err != nil {
		return nil, fmt.Errorf("jobs: %w", err)
	}

	return &Services{
		Store:       set,
		Metrics:     m,
		Ledger:      ledger,
		Inventory:   sync,
		Allocations: allocationSvc,
		Parts:       partsSvc,
		Readiness:   readinessSvc,
		Jobs:        jobsSvc,
		Numberer:    numberer,
		Gate:        gate,
	}, nil
}

// NewCounter picks the job-number counter backend named by cfg.
func NewCounter(cfg config.SequenceConfig, set *store.Set, client *redis.Client, m *metrics.LogisticsMetrics) (sequence.Counter, error) {
	if cfg.UsesRedis() {
		if client == nil {
			return nil, fmt.Errorf("sequence backend %q needs a redis client", cfg.Backend)
		}
		return sequence.NewRedisCounter(client)
	}
	return sequence.NewStoreCounter(sequence.StoreCounterParams{
		Counters:    set.Counters,
		MaxAttempts: cfg.MaxAttempts,
		Metrics:     m,
	})
}
