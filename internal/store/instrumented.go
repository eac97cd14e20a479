package store

import (
	"context"

	"ai-interview-eval-service/internal/observability/metrics"
)

// Instrumented counts every store call by operation and outcome.
type Instrumented struct {
	Store
	metrics *metrics.Metrics
}

// WithMetrics wraps s so each operation is recorded in m.
func WithMetrics(s Store, m *metrics.Metrics) *Instrumented {
	return &Instrumented{Store: s, metrics: m}
}

func (i *Instrumented) Append(ctx context.Context, rec Record) (Record, error) {
	out, err := i.Store.Append(ctx, rec)
	i.metrics.RecordStoreOperation("append", err)
	return out, err
}

func (i *Instrumented) Query(ctx context.Context, f Filter) ([]Record, error) {
	out, err := i.Store.Query(ctx, f)
	i.metrics.RecordStoreOperation("query", err)
	return out, err
}

func (i *Instrumented) DeleteByID(ctx context.Context, id string) error {
	err := i.Store.DeleteByID(ctx, id)
	i.metrics.RecordStoreOperation("delete", err)
	return err
}
