package checkpoint

import (
	"github.com/hupe1980/pieceset"
	"github.com/hupe1980/pieceset/codec"
	"github.com/hupe1980/pieceset/resource"
)

// DefaultConcurrency is the number of parallel loads used by LoadAll.
const DefaultConcurrency = 8

type options struct {
	compression      codec.Type
	logger           *pieceset.Logger
	metricsCollector pieceset.MetricsCollector
	resource         *resource.Controller
	concurrency      int
}

// Option configures a Store.
type Option func(*options)

// WithCompression sets the codec used for new records. Existing records
// are always decoded with the codec they were written with.
//
// Default is codec.LZ4.
func WithCompression(c codec.Type) Option {
	return func(o *options) {
		o.compression = c
	}
}

// WithLogger configures structured logging for operations.
// Pass nil to disable logging.
//
// Example with JSON logging:
//
//	logger := pieceset.NewJSONLogger(slog.LevelInfo)
//	store := checkpoint.New(blobs, checkpoint.WithLogger(logger))
func WithLogger(logger *pieceset.Logger) Option {
	return func(o *options) {
		o.logger = logger
	}
}

// WithMetricsCollector configures a metrics collector for monitoring operations.
// Pass nil to disable metrics collection.
//
// Example with BasicMetricsCollector:
//
//	metrics := &pieceset.BasicMetricsCollector{}
//	store := checkpoint.New(blobs, checkpoint.WithMetricsCollector(metrics))
//	// ... use store ...
//	stats := metrics.GetStats()
//	fmt.Printf("Saves: %d, Avg latency: %dns\n", stats.SaveCount, stats.SaveAvgNanos)
func WithMetricsCollector(mc pieceset.MetricsCollector) Option {
	return func(o *options) {
		o.metricsCollector = mc
	}
}

// WithResourceController throttles checkpoint IO and bounds the bytes held
// in flight. A nil controller imposes no limits.
func WithResourceController(rc *resource.Controller) Option {
	return func(o *options) {
		o.resource = rc
	}
}

// WithConcurrency sets the number of parallel loads used by LoadAll.
// Values below 1 select DefaultConcurrency.
func WithConcurrency(n int) Option {
	return func(o *options) {
		o.concurrency = n
	}
}

func applyOptions(optFns []Option) options {
	o := options{
		compression:      codec.LZ4,
		metricsCollector: pieceset.NoopMetricsCollector{},
		logger:           pieceset.NoopLogger(),
		concurrency:      DefaultConcurrency,
	}
	for _, fn := range optFns {
		if fn != nil {
			fn(&o)
		}
	}
	if o.logger == nil {
		o.logger = pieceset.NoopLogger()
	}
	if o.metricsCollector == nil {
		o.metricsCollector = pieceset.NoopMetricsCollector{}
	}
	if o.concurrency < 1 {
		o.concurrency = DefaultConcurrency
	}
	return o
}
