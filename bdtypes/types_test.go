package bdtypes

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/caybokotze/bulk-blob-storage-deletion/errors"
)

func TestSummarize(t *testing.T) {
	denied := errors.NewObjectError("delete", "logs", "x.txt", errors.ErrAccessDenied)
	outcomes := []Outcome{
		{ID: "c.txt", Status: StatusDeleted},
		{ID: "x.txt", Status: StatusFailed, Err: denied, Code: errors.CodeForbidden},
		{ID: "b.txt", Status: StatusNotFound},
		{ID: "a.txt", Status: StatusSkipped, Err: context.Canceled, Code: errors.CodeCanceled},
	}

	summary := Summarize("logs", outcomes, time.Second)

	assert.Equal(t, "logs", summary.Container)
	assert.Equal(t, 4, summary.Total)
	assert.Equal(t, 1, summary.Deleted)
	assert.Equal(t, 1, summary.NotFound)
	assert.Equal(t, 1, summary.Failed)
	assert.Equal(t, 1, summary.Skipped)
	assert.Equal(t, 2, summary.Succeeded())
	assert.True(t, summary.HasFailures())
	assert.True(t, summary.Complete())

	require.Len(t, summary.Failures, 2)
	assert.Equal(t, ObjectIdentifier("a.txt"), summary.Failures[0].ID)
	assert.Equal(t, StatusSkipped, summary.Failures[0].Status)
	assert.Equal(t, ObjectIdentifier("x.txt"), summary.Failures[1].ID)
	assert.Equal(t, errors.CodeForbidden, summary.Failures[1].Code)
	assert.Contains(t, summary.Failures[1].Message, "access denied")
}

func TestSummarize_Empty(t *testing.T) {
	summary := Summarize("logs", nil, 0)

	assert.Zero(t, summary.Total)
	assert.Zero(t, summary.Succeeded())
	assert.False(t, summary.HasFailures())
	assert.True(t, summary.Complete())
	assert.Empty(t, summary.Failures)
}

func TestSummarize_FailureWithoutError(t *testing.T) {
	summary := Summarize("logs", []Outcome{{ID: "a", Status: StatusFailed}}, 0)

	require.Len(t, summary.Failures, 1)
	assert.Empty(t, summary.Failures[0].Message)
}

func TestOutcomeStatus(t *testing.T) {
	tests := []struct {
		status    OutcomeStatus
		name      string
		succeeded bool
	}{
		{StatusDeleted, "deleted", true},
		{StatusNotFound, "not_found", true},
		{StatusFailed, "failed", false},
		{StatusSkipped, "skipped", false},
		{OutcomeStatus(42), "unknown", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.name, tt.status.String())
			assert.Equal(t, tt.succeeded, tt.status.Succeeded())
		})
	}
}

func TestIdentifiers(t *testing.T) {
	ids := Identifiers("a.txt", "b.txt")

	assert.Equal(t, []ObjectIdentifier{"a.txt", "b.txt"}, ids)
	assert.Equal(t, "a.txt", ids[0].String())
	assert.Empty(t, Identifiers())
}
