// Package sequence numbers logistics jobs per project and purpose.
package sequence

import (
	"context"
	"fmt"
	"strings"

	"github.com/angelmondragon/fieldops-logistics/internal/purpose"
	pkgerrors "github.com/angelmondragon/fieldops-logistics/pkg/errors"
	"github.com/angelmondragon/fieldops-logistics/pkg/logger"
)

const globalScope = "global"

// Counter hands out increasing integers per counter key, starting at 1.
type Counter interface {
	Next(ctx context.Context, key string) (int64, error)
}

// CounterKey builds "{projectRef}:{purposeCode}", or "global:{purposeCode}"
// when there is no project context.
func CounterKey(projectRef, purposeCode string) string {
	scope := strings.TrimSpace(projectRef)
	if scope == "" {
		scope = globalScope
	}
	return scope + ":" + strings.TrimSpace(purposeCode)
}

// JobNumber is an assigned logistics job number.
type JobNumber struct {
	Key     string
	Seq     int64
	Display string
}

// Numberer assigns job numbers on top of a Counter.
type Numberer struct {
	counter Counter
	logg    *logger.Logger
}

// NewNumberer wires a Numberer; both dependencies are required.
func NewNumberer(counter Counter, logg *logger.Logger) (*Numberer, error) {
	if counter == nil {
		return nil, fmt.Errorf("counter required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &Numberer{counter: counter, logg: logg}, nil
}

// NextJobNumber normalizes the purpose, advances the matching counter and
// formats the display number as "{SHORT}-{projectRef|G}-{seq:04d}".
func (n *Numberer) NextJobNumber(ctx context.Context, projectRef, rawPurpose string) (JobNumber, error) {
	short := purpose.ShortCode(purpose.Normalize(rawPurpose))
	key := CounterKey(projectRef, short)
	seq, err := n.counter.Next(ctx, key)
	if err != nil {
		return JobNumber{}, err
	}
	scope := strings.TrimSpace(projectRef)
	if scope == "" {
		scope = "G"
	}
	number := JobNumber{
		Key:     key,
		Seq:     seq,
		Display: fmt.Sprintf("%s-%s-%04d", short, scope, seq),
	}
	n.logg.Info(n.logg.WithFields(ctx, map[string]any{
		"counter_key": key,
		"job_number":  number.Display,
	}), "logistics job number assigned")
	return number, nil
}

func requireKey(key string) error {
	if strings.TrimSpace(key) == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "counter key is required")
	}
	return nil
}
