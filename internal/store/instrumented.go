package store

import (
	"context"
	"errors"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Instrumented wraps a Store and records call counts and latency.
type Instrumented struct {
	next    Store
	calls   *prometheus.CounterVec
	latency *prometheus.HistogramVec
}

// NewInstrumented registers the store collectors on reg and wraps next.
func NewInstrumented(next Store, reg prometheus.Registerer) *Instrumented {
	calls := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "asset_store_calls_total",
			Help: "Asset store calls by operation and result",
		},
		[]string{"op", "result"},
	)
	latency := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "asset_store_call_duration_seconds",
			Help:    "Asset store call latency in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"op"},
	)
	reg.MustRegister(calls, latency)

	return &Instrumented{next: next, calls: calls, latency: latency}
}

func (s *Instrumented) observe(op string, start time.Time, err error) {
	result := "ok"
	switch {
	case err == nil:
	case errors.Is(err, ErrNotFound):
		result = "not_found"
	default:
		result = "error"
	}
	s.calls.WithLabelValues(op, result).Inc()
	s.latency.WithLabelValues(op).Observe(time.Since(start).Seconds())
}

// ListKeys implements Store.
func (s *Instrumented) ListKeys(ctx context.Context) ([]string, error) {
	start := time.Now()
	keys, err := s.next.ListKeys(ctx)
	s.observe("list_keys", start, err)
	return keys, err
}

// FindRow implements Store.
func (s *Instrumented) FindRow(ctx context.Context, id string) (RowIndex, error) {
	start := time.Now()
	idx, err := s.next.FindRow(ctx, id)
	s.observe("find_row", start, err)
	return idx, err
}

// ReadRow implements Store.
func (s *Instrumented) ReadRow(ctx context.Context, idx RowIndex) ([]string, error) {
	start := time.Now()
	row, err := s.next.ReadRow(ctx, idx)
	s.observe("read_row", start, err)
	return row, err
}

// AppendRow implements Store.
func (s *Instrumented) AppendRow(ctx context.Context, values []string) error {
	start := time.Now()
	err := s.next.AppendRow(ctx, values)
	s.observe("append_row", start, err)
	return err
}

// WriteCells implements Store.
func (s *Instrumented) WriteCells(ctx context.Context, idx RowIndex, values []string) error {
	start := time.Now()
	err := s.next.WriteCells(ctx, idx, values)
	s.observe("write_cells", start, err)
	return err
}
