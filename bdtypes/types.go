// Package bdtypes provides shared type definitions for bulk blob deletion.
package bdtypes

import (
	"log/slog"
	"sort"
	"time"

	"go.opentelemetry.io/otel/trace"

	"github.com/caybokotze/bulk-blob-storage-deletion/errors"
)

// DefaultConcurrencyLimit is the number of deletes allowed in flight when
// no limit is configured.
const DefaultConcurrencyLimit = 10

// ObjectIdentifier names one object within a container.
// It is opaque: no structure is assumed beyond uniqueness within a listing.
type ObjectIdentifier string

// String returns the identifier as a plain string.
func (id ObjectIdentifier) String() string {
	return string(id)
}

// Identifiers converts plain names into object identifiers, keeping order.
func Identifiers(names ...string) []ObjectIdentifier {
	ids := make([]ObjectIdentifier, len(names))
	for i, name := range names {
		ids[i] = ObjectIdentifier(name)
	}
	return ids
}

// OutcomeStatus is the terminal state of one identifier in a batch.
type OutcomeStatus int

const (
	// StatusDeleted means the delete request removed the object.
	StatusDeleted OutcomeStatus = iota

	// StatusNotFound means the object was already absent. Counted as success.
	StatusNotFound

	// StatusFailed means the delete request failed; see Outcome.Err.
	StatusFailed

	// StatusSkipped means the item was never admitted because the batch was canceled.
	StatusSkipped
)

// String returns a lowercase name for the status.
func (s OutcomeStatus) String() string {
	switch s {
	case StatusDeleted:
		return "deleted"
	case StatusNotFound:
		return "not_found"
	case StatusFailed:
		return "failed"
	case StatusSkipped:
		return "skipped"
	default:
		return "unknown"
	}
}

// Succeeded reports whether the status leaves the object absent.
func (s OutcomeStatus) Succeeded() bool {
	return s == StatusDeleted || s == StatusNotFound
}

// Outcome is the result for a single identifier. Exactly one is produced per
// identifier in a batch.
type Outcome struct {
	// ID is the object the outcome belongs to
	ID ObjectIdentifier

	// Status is the terminal state of the item
	Status OutcomeStatus

	// Err is the captured error for failed and skipped items
	Err error

	// Code classifies Err
	Code errors.ErrorCode

	// Duration is how long the delete call took, excluding admission wait
	Duration time.Duration
}

// Failure describes one item that did not reach the desired end state.
type Failure struct {
	ID      ObjectIdentifier
	Status  OutcomeStatus
	Code    errors.ErrorCode
	Message string
}

// BatchSummary aggregates every outcome of one deletion run.
// It is only built once all outcomes are known.
type BatchSummary struct {
	// Container is the container the batch targeted
	Container string

	// Total is the number of identifiers in the batch
	Total int

	// Deleted is the number of objects removed by this run
	Deleted int

	// NotFound is the number of objects that were already absent
	NotFound int

	// Failed is the number of delete requests that failed
	Failed int

	// Skipped is the number of items never attempted due to cancellation
	Skipped int

	// Failures lists failed and skipped items ordered by identifier
	Failures []Failure

	// Duration is the wall-clock time of the batch
	Duration time.Duration
}

// Succeeded returns the number of items whose object is now absent.
func (s *BatchSummary) Succeeded() int {
	return s.Deleted + s.NotFound
}

// HasFailures reports whether any item failed or was skipped.
func (s *BatchSummary) HasFailures() bool {
	return s.Failed > 0 || s.Skipped > 0
}

// Complete reports whether every item in the batch has an outcome.
func (s *BatchSummary) Complete() bool {
	return s.Total == s.Deleted+s.NotFound+s.Failed+s.Skipped
}

// Summarize folds outcomes into a BatchSummary.
func Summarize(container string, outcomes []Outcome, duration time.Duration) *BatchSummary {
	summary := &BatchSummary{
		Container: container,
		Total:     len(outcomes),
		Duration:  duration,
	}

	for _, o := range outcomes {
		switch o.Status {
		case StatusDeleted:
			summary.Deleted++
		case StatusNotFound:
			summary.NotFound++
		case StatusFailed:
			summary.Failed++
		case StatusSkipped:
			summary.Skipped++
		}

		if o.Status.Succeeded() {
			continue
		}

		failure := Failure{
			ID:     o.ID,
			Status: o.Status,
			Code:   o.Code,
		}
		if o.Err != nil {
			failure.Message = o.Err.Error()
		}
		summary.Failures = append(summary.Failures, failure)
	}

	sort.Slice(summary.Failures, func(i, j int) bool {
		return summary.Failures[i].ID < summary.Failures[j].ID
	})

	return summary
}

// Plan is an enumerated deletion batch awaiting confirmation.
type Plan struct {
	// Container is the container the objects were listed from
	Container string

	// Objects is the listing, in the order returned by the store
	Objects []ObjectIdentifier
}

// Len returns the number of objects in the plan.
func (p *Plan) Len() int {
	return len(p.Objects)
}

// ResultHandler observes outcomes as items complete.
// The engine serializes calls, so implementations need not be thread-safe.
type ResultHandler func(Outcome)

// ClientConfig holds configuration for the deletion client.
type ClientConfig struct {
	// ConcurrencyLimit caps simultaneous delete requests
	ConcurrencyLimit int

	// Logger receives structured operational logs
	Logger *slog.Logger

	// ResultHandler is notified once per completed item
	ResultHandler ResultHandler

	// TracerProvider supplies the tracer for batch and item spans
	TracerProvider trace.TracerProvider
}

// Option is a functional option for configuring the deletion client.
type Option func(*ClientConfig)

// StorageConfig selects a backend and how to reach it.
type StorageConfig struct {
	// Backend is one of "azure", "s3" or "minio"
	Backend string `yaml:"backend" validate:"oneof=azure s3 minio"`

	// ConnectionString is the backend's Key=Value;... connection string
	ConnectionString string `yaml:"connectionString"`

	// AccountURL selects Azure token authentication when no connection string is set
	AccountURL string `yaml:"accountURL" validate:"omitempty,url"`
}
