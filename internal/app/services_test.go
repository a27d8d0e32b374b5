package app

import (
	"context"
	"io"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/require"

	"github.com/angelmondragon/fieldops-logistics/internal/jobs"
	"github.com/angelmondragon/fieldops-logistics/internal/sequence"
	"github.com/angelmondragon/fieldops-logistics/pkg/config"
	pkgerrors "github.com/angelmondragon/fieldops-logistics/pkg/errors"
	"github.com/angelmondragon/fieldops-logistics/pkg/logger"
	"github.com/angelmondragon/fieldops-logistics/pkg/redis"
	"github.com/angelmondragon/fieldops-logistics/pkg/store/storetest"
)

func testConfig(backend string) *config.Config {
	return &config.Config{
		Sequence:  config.SequenceConfig{Backend: backend, MaxAttempts: 4},
		Ledger:    config.LedgerConfig{ClaimTTL: time.Minute, ClaimWaitPolls: 2, ClaimPollPeriod: 10 * time.Millisecond},
		Inventory: config.InventoryConfig{MaxCASAttempts: 3},
	}
}

func newRedis(t *testing.T) *redis.Client {
	t.Helper()
	mr := miniredis.RunT(t)
	client, err := redis.New(context.Background(), config.RedisConfig{Address: mr.Addr()}, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Close() })
	return client
}

func TestBuildWiresEveryService(t *testing.T) {
	svc, err := Build(Params{
		Config:     testConfig(config.SequenceBackendStore),
		DB:         storetest.NewDB(t),
		Logger:     logger.New(logger.Options{Output: io.Discard}),
		Registerer: prometheus.NewRegistry(),
	})
	require.NoError(t, err)
	require.NotNil(t, svc.Ledger)
	require.NotNil(t, svc.Inventory)
	require.NotNil(t, svc.Allocations)
	require.NotNil(t, svc.Parts)
	require.NotNil(t, svc.Readiness)
	require.NotNil(t, svc.Jobs)

	n, err := svc.Numberer.NextJobNumber(context.Background(), "7001", "delivery")
	require.NoError(t, err)
	require.EqualValues(t, 1, n.Seq)
}

func TestBuildRequiresDependencies(t *testing.T) {
	_, err := Build(Params{Logger: logger.New(logger.Options{Output: io.Discard})})
	require.Error(t, err)

	_, err = Build(Params{Config: testConfig(config.SequenceBackendStore), Logger: logger.New(logger.Options{Output: io.Discard})})
	require.Error(t, err)
}

func TestNewCounterSelectsBackend(t *testing.T) {
	set := storetest.NewSet(t)

	counter, err := NewCounter(config.SequenceConfig{Backend: config.SequenceBackendStore}, set, nil, nil)
	require.NoError(t, err)
	require.IsType(t, &sequence.StoreCounter{}, counter)

	_, err = NewCounter(config.SequenceConfig{Backend: config.SequenceBackendRedis}, set, nil, nil)
	require.Error(t, err)

	client := newRedis(t)
	counter, err = NewCounter(config.SequenceConfig{Backend: config.SequenceBackendRedis}, set, client, nil)
	require.NoError(t, err)
	require.IsType(t, &sequence.RedisCounter{}, counter)

	first, err := counter.Next(context.Background(), "7001:DLV")
	require.NoError(t, err)
	second, err := counter.Next(context.Background(), "7001:DLV")
	require.NoError(t, err)
	require.EqualValues(t, first+1, second)
}

func TestBuildWithRedisUsesClaims(t *testing.T) {
	svc, err := Build(Params{
		Config: testConfig(config.SequenceBackendRedis),
		DB:     storetest.NewDB(t),
		Redis:  newRedis(t),
		Logger: logger.New(logger.Options{Output: io.Discard}),
	})
	require.NoError(t, err)

	n, err := svc.Numberer.NextJobNumber(context.Background(), "7001", "delivery")
	require.NoError(t, err)
	require.EqualValues(t, 1, n.Seq)
}

func TestBuildGatesOnlyVersionCheckedEntities(t *testing.T) {
	ctx := context.Background()
	svc, err := Build(Params{
		Config:     testConfig(config.SequenceBackendStore),
		DB:         storetest.NewDB(t),
		Logger:     logger.New(logger.Options{Output: io.Discard}),
		Registerer: prometheus.NewRegistry(),
	})
	require.NoError(t, err)

	job, err := svc.Jobs.Create(ctx, jobs.CreateInput{})
	require.NoError(t, err)
	one := 1
	require.NoError(t, svc.Gate.AssertVersion(ctx, jobs.EntityName, job.ID, &one))

	// parts are written through the movement ledger, not version-checked patches
	err = svc.Gate.AssertVersion(ctx, "parts", "p-1", &one)
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeInternal))
}
