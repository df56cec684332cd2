package delete

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"
	"golang.org/x/sync/semaphore"

	"github.com/caybokotze/bulk-blob-storage-deletion/bdtypes"
	"github.com/caybokotze/bulk-blob-storage-deletion/errors"
	"github.com/caybokotze/bulk-blob-storage-deletion/internal/storeapi"
)

const tracerName = "github.com/caybokotze/bulk-blob-storage-deletion/internal/operations/delete"

// Deleter is the single capability the engine needs from a store.
type Deleter interface {
	DeleteObject(ctx context.Context, container, key string) (bool, error)
}

// Engine deletes batches of objects with at most limit requests in flight.
type Engine struct {
	deleter Deleter
	limit   int
	logger  *slog.Logger
	handler bdtypes.ResultHandler
	tracer  trace.Tracer
}

// Config holds engine settings. Zero values select defaults.
type Config struct {
	ConcurrencyLimit int
	Logger           *slog.Logger
	ResultHandler    bdtypes.ResultHandler
	TracerProvider   trace.TracerProvider
}

// New creates an Engine. A non-positive limit falls back to the default.
func New(deleter Deleter, cfg Config) *Engine {
	limit := cfg.ConcurrencyLimit
	if limit <= 0 {
		limit = bdtypes.DefaultConcurrencyLimit
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	tp := cfg.TracerProvider
	if tp == nil {
		tp = noop.NewTracerProvider()
	}

	return &Engine{
		deleter: deleter,
		limit:   limit,
		logger:  logger,
		handler: cfg.ResultHandler,
		tracer:  tp.Tracer(tracerName),
	}
}

// Limit returns the concurrency limit.
func (e *Engine) Limit() int {
	return e.limit
}

// DeleteBatch deletes every identifier and returns once each has an outcome.
//
// Canceling ctx stops admission: items still waiting for a slot are recorded as
// skipped, while admitted deletes run to completion.
func (e *Engine) DeleteBatch(
	ctx context.Context,
	container string,
	batch []bdtypes.ObjectIdentifier,
) *bdtypes.BatchSummary {
	if len(batch) == 0 {
		return bdtypes.Summarize(container, nil, 0)
	}

	ctx, span := e.tracer.Start(ctx, "bulkdelete.DeleteBatch", trace.WithAttributes(
		attribute.String("container", container),
		attribute.Int("batch.size", len(batch)),
		attribute.Int("concurrency.limit", e.limit),
	))
	defer span.End()

	startTime := time.Now()

	// One slot per outcome; each goroutine writes only its own index.
	outcomes := make([]bdtypes.Outcome, len(batch))
	sem := semaphore.NewWeighted(int64(e.limit))

	var (
		wg        sync.WaitGroup
		handlerMu sync.Mutex
	)

	for i, id := range batch {
		wg.Add(1)

		go func(i int, id bdtypes.ObjectIdentifier) {
			defer wg.Done()

			outcome := e.deleteOne(ctx, sem, container, id)
			outcomes[i] = outcome

			e.logOutcome(ctx, container, outcome)
			if e.handler != nil {
				handlerMu.Lock()
				e.handler(outcome)
				handlerMu.Unlock()
			}
		}(i, id)
	}

	wg.Wait()

	summary := bdtypes.Summarize(container, outcomes, time.Since(startTime))

	span.SetAttributes(
		attribute.Int("outcome.deleted", summary.Deleted),
		attribute.Int("outcome.not_found", summary.NotFound),
		attribute.Int("outcome.failed", summary.Failed),
		attribute.Int("outcome.skipped", summary.Skipped),
	)
	if summary.HasFailures() {
		span.SetStatus(codes.Error, fmt.Sprintf("%d of %d items did not succeed",
			summary.Failed+summary.Skipped, summary.Total))
	}

	e.logger.InfoContext(ctx, "batch complete",
		slog.String("container", container),
		slog.Int("total", summary.Total),
		slog.Int("deleted", summary.Deleted),
		slog.Int("not_found", summary.NotFound),
		slog.Int("failed", summary.Failed),
		slog.Int("skipped", summary.Skipped),
		slog.Duration("duration", summary.Duration))

	return summary
}

// deleteOne waits for a slot, issues the delete and converts the result into an outcome.
func (e *Engine) deleteOne(
	ctx context.Context,
	sem *semaphore.Weighted,
	container string,
	id bdtypes.ObjectIdentifier,
) bdtypes.Outcome {
	if err := sem.Acquire(ctx, 1); err != nil {
		return bdtypes.Outcome{
			ID:     id,
			Status: bdtypes.StatusSkipped,
			Err:    err,
			Code:   errors.CodeOf(err),
		}
	}
	defer sem.Release(1)

	// An admitted delete is never abandoned mid-request.
	callCtx, span := e.tracer.Start(context.WithoutCancel(ctx), "bulkdelete.DeleteObject",
		trace.WithAttributes(attribute.String("key", id.String())))
	defer span.End()

	startTime := time.Now()
	deleted, err := e.callDelete(callCtx, container, id.String())
	outcome := bdtypes.Outcome{
		ID:       id,
		Duration: time.Since(startTime),
	}

	switch {
	case err == nil && deleted:
		outcome.Status = bdtypes.StatusDeleted
	case err == nil, errors.IsObjectNotFound(err):
		outcome.Status = bdtypes.StatusNotFound
	default:
		outcome.Status = bdtypes.StatusFailed
		outcome.Err = err
		outcome.Code = errors.CodeOf(err)
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.SetAttributes(attribute.String("status", outcome.Status.String()))

	return outcome
}

// callDelete invokes the store, turning a panic into an error.
func (e *Engine) callDelete(ctx context.Context, container, key string) (deleted bool, err error) {
	defer func() {
		if r := recover(); r != nil {
			deleted = false
			err = errors.NewObjectError("delete", container, key, fmt.Errorf("%w: %v", errors.ErrPanic, r))
		}
	}()

	return e.deleter.DeleteObject(ctx, container, key)
}

func (e *Engine) logOutcome(ctx context.Context, container string, o bdtypes.Outcome) {
	attrs := []slog.Attr{
		slog.String("container", container),
		slog.String("key", o.ID.String()),
		slog.String("status", o.Status.String()),
		slog.Duration("duration", o.Duration),
	}
	if o.Err != nil {
		attrs = append(attrs,
			slog.String("code", string(o.Code)),
			slog.String("error", o.Err.Error()))
		e.logger.LogAttrs(ctx, slog.LevelWarn, "delete did not succeed", attrs...)
		return
	}
	e.logger.LogAttrs(ctx, slog.LevelDebug, "delete finished", attrs...)
}

var _ Deleter = (storeapi.Store)(nil)
