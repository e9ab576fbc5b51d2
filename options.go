package chainmap

import (
	"github.com/hupe1980/chainmap/slab"
)

type options[K, V any] struct {
	destroy DestroyFunc[V]
	pool    *slab.Pool[Node[K, V]]
	logger  *Logger
	metrics MetricsCollector
}

// Option configures a Table at creation time.
//
// Options carry the table's type parameters so that typed capabilities
// (destroy functions, shared pools) stay type-checked.
type Option[K, V any] func(*options[K, V])

// WithDestroy supplies a destroy function, transferring ownership of data
// values to the table: it is invoked for every entry removed by DeleteIf,
// Reset, or Close. Remove is the exception — it returns the data and hands
// ownership back to the caller without invoking the destroy function.
// Without a destroy function the table never touches data values.
func WithDestroy[K, V any](fn DestroyFunc[V]) Option[K, V] {
	return func(o *options[K, V]) {
		o.destroy = fn
	}
}

// WithPool makes the table draw nodes from a caller-managed pool instead of
// a private one. Multiple tables may share a pool; the caller must keep the
// pool alive (and not call its Free) until every table using it has been
// closed. Close never frees an injected pool.
func WithPool[K, V any](p *slab.Pool[Node[K, V]]) Option[K, V] {
	return func(o *options[K, V]) {
		o.pool = p
	}
}

// WithLogger sets the logger for lifecycle events. Defaults to NoopLogger.
func WithLogger[K, V any](l *Logger) Option[K, V] {
	return func(o *options[K, V]) {
		if l != nil {
			o.logger = l
		}
	}
}

// WithMetricsCollector sets the metrics collector for table operations.
// Defaults to NoopMetricsCollector.
func WithMetricsCollector[K, V any](mc MetricsCollector) Option[K, V] {
	return func(o *options[K, V]) {
		if mc != nil {
			o.metrics = mc
		}
	}
}
