package chainmap

import (
	"sync/atomic"
	"time"
)

// MetricsCollector defines an interface for collecting operational metrics.
// Implement this interface to integrate with monitoring systems like
// Prometheus; inject it via WithMetricsCollector.
type MetricsCollector interface {
	// RecordFind is called after each Find operation.
	// err is nil on a hit, ErrNotFound on a miss.
	RecordFind(duration time.Duration, err error)

	// RecordInsert is called after each Insert operation.
	RecordInsert(duration time.Duration, err error)

	// RecordRemove is called after each Remove operation.
	RecordRemove(duration time.Duration, err error)

	// RecordDeleteIf is called after each DeleteIf sweep.
	// removed is the number of entries deleted.
	RecordDeleteIf(removed int, duration time.Duration)
}

// NoopMetricsCollector is a no-op implementation of MetricsCollector.
// It is the default when no collector is configured.
type NoopMetricsCollector struct{}

func (NoopMetricsCollector) RecordFind(time.Duration, error)   {}
func (NoopMetricsCollector) RecordInsert(time.Duration, error) {}
func (NoopMetricsCollector) RecordRemove(time.Duration, error) {}
func (NoopMetricsCollector) RecordDeleteIf(int, time.Duration) {}

// BasicMetricsCollector provides simple in-memory metrics collection.
// Useful for debugging and basic monitoring without external dependencies.
type BasicMetricsCollector struct {
	FindCount        atomic.Int64
	FindErrors       atomic.Int64
	FindTotalNanos   atomic.Int64
	InsertCount      atomic.Int64
	InsertErrors     atomic.Int64
	InsertTotalNanos atomic.Int64
	RemoveCount      atomic.Int64
	RemoveErrors     atomic.Int64
	RemoveTotalNanos atomic.Int64
	DeleteIfCount    atomic.Int64
	DeletedEntries   atomic.Int64
}

func (m *BasicMetricsCollector) RecordFind(duration time.Duration, err error) {
	m.FindCount.Add(1)
	m.FindTotalNanos.Add(duration.Nanoseconds())
	if err != nil {
		m.FindErrors.Add(1)
	}
}

func (m *BasicMetricsCollector) RecordInsert(duration time.Duration, err error) {
	m.InsertCount.Add(1)
	m.InsertTotalNanos.Add(duration.Nanoseconds())
	if err != nil {
		m.InsertErrors.Add(1)
	}
}

func (m *BasicMetricsCollector) RecordRemove(duration time.Duration, err error) {
	m.RemoveCount.Add(1)
	m.RemoveTotalNanos.Add(duration.Nanoseconds())
	if err != nil {
		m.RemoveErrors.Add(1)
	}
}

func (m *BasicMetricsCollector) RecordDeleteIf(removed int, _ time.Duration) {
	m.DeleteIfCount.Add(1)
	m.DeletedEntries.Add(int64(removed))
}
