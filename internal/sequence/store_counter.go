package sequence

import (
	"context"
	"fmt"

	"github.com/angelmondragon/fieldops-logistics/pkg/db/models"
	pkgerrors "github.com/angelmondragon/fieldops-logistics/pkg/errors"
	"github.com/angelmondragon/fieldops-logistics/pkg/metrics"
	"github.com/angelmondragon/fieldops-logistics/pkg/store"
)

const defaultMaxAttempts = 8

// StoreCounterParams configure a StoreCounter.
type StoreCounterParams struct {
	Counters    store.Repository[models.LogisticsJobCounter]
	MaxAttempts int
	Metrics     *metrics.LogisticsMetrics
}

// StoreCounter keeps counters as rows and advances them with a conditional
// update on the value it read, retrying when another caller wins.
type StoreCounter struct {
	counters    store.Repository[models.LogisticsJobCounter]
	maxAttempts int
	metrics     *metrics.LogisticsMetrics
}

// NewStoreCounter builds a store-backed counter.
func NewStoreCounter(params StoreCounterParams) (*StoreCounter, error) {
	if params.Counters == nil {
		return nil, fmt.Errorf("counter repository required")
	}
	attempts := params.MaxAttempts
	if attempts <= 0 {
		attempts = defaultMaxAttempts
	}
	return &StoreCounter{
		counters:    params.Counters,
		maxAttempts: attempts,
		metrics:     params.Metrics,
	}, nil
}

// Next returns the next sequence number for key. A missing counter is
// created at next_seq=2 and 1 is returned.
func (c *StoreCounter) Next(ctx context.Context, key string) (int64, error) {
	if err := requireKey(key); err != nil {
		return 0, err
	}
	for attempt := 0; attempt < c.maxAttempts; attempt++ {
		rows, err := c.read(ctx, key)
		if err != nil {
			return 0, err
		}

		if len(rows) == 0 {
			seq, created, err := c.create(ctx, key)
			if err != nil {
				return 0, err
			}
			if created {
				return seq, nil
			}
			c.metrics.SequenceRetry(false)
			continue
		}

		// concurrent creates can leave several rows; the oldest one is authoritative
		current := rows[0]
		ok, err := c.counters.UpdateIf(ctx, current.ID,
			store.Columns{"next_seq": current.NextSeq},
			store.Columns{"next_seq": current.NextSeq + 1},
		)
		if err != nil {
			return 0, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "advance logistics job counter")
		}
		if ok {
			return current.NextSeq, nil
		}
		c.metrics.SequenceRetry(false)
	}
	c.metrics.SequenceRetry(true)
	return 0, pkgerrors.Newf(pkgerrors.CodeConflict, "counter %q is contended, gave up after %d attempts", key, c.maxAttempts)
}

func (c *StoreCounter) read(ctx context.Context, key string) ([]models.LogisticsJobCounter, error) {
	rows, err := c.counters.Filter(ctx, store.Query{Where: store.Columns{"key": key}})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "read logistics job counter")
	}
	return rows, nil
}

// create inserts a fresh counter. It reports created=false when another
// caller created the same key first, in which case the caller re-reads.
func (c *StoreCounter) create(ctx context.Context, key string) (int64, bool, error) {
	row := &models.LogisticsJobCounter{Key: key, NextSeq: 2}
	if err := c.counters.Create(ctx, row); err != nil {
		if pkgerrors.IsUniqueViolation(err) {
			return 0, false, nil
		}
		return 0, false, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create logistics job counter")
	}

	rows, err := c.read(ctx, key)
	if err != nil {
		return 0, false, err
	}
	if len(rows) > 0 && rows[0].ID != row.ID {
		// another row predates ours; ours is ignored from now on
		return 0, false, nil
	}
	return 1, true, nil
}
