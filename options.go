package bulkdelete

import (
	"log/slog"

	"go.opentelemetry.io/otel/trace"

	"github.com/caybokotze/bulk-blob-storage-deletion/bdtypes"
)

// WithConcurrencyLimit sets how many deletes may be in flight at once.
// Default is 10. Values below 1 are rejected by New.
func WithConcurrencyLimit(limit int) bdtypes.Option {
	return func(c *bdtypes.ClientConfig) {
		c.ConcurrencyLimit = limit
	}
}

// WithLogger sets the structured logger. Default is slog.Default().
func WithLogger(logger *slog.Logger) bdtypes.Option {
	return func(c *bdtypes.ClientConfig) {
		if logger != nil {
			c.Logger = logger
		}
	}
}

// WithResultHandler registers a callback invoked once per finished object.
// Calls are serialized.
func WithResultHandler(handler bdtypes.ResultHandler) bdtypes.Option {
	return func(c *bdtypes.ClientConfig) {
		c.ResultHandler = handler
	}
}

// WithTracerProvider sets the OpenTelemetry tracer provider. Default is a no-op.
func WithTracerProvider(tp trace.TracerProvider) bdtypes.Option {
	return func(c *bdtypes.ClientConfig) {
		if tp != nil {
			c.TracerProvider = tp
		}
	}
}
