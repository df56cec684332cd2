package console

import (
	"fmt"
	"io"

	"github.com/fatih/color"

	"github.com/caybokotze/bulk-blob-storage-deletion/bdtypes"
)

// Renderer writes user-facing output. It is not a logger: messages are
// meant for the person at the terminal.
type Renderer struct {
	out io.Writer

	info    *color.Color
	success *color.Color
	warn    *color.Color
	failure *color.Color
}

// NewRenderer creates a Renderer writing to out.
func NewRenderer(out io.Writer, noColor bool) *Renderer {
	r := &Renderer{
		out:     out,
		info:    color.New(color.FgCyan),
		success: color.New(color.FgHiCyan),
		warn:    color.New(color.FgYellow),
		failure: color.New(color.FgRed),
	}
	if noColor {
		for _, c := range []*color.Color{r.info, r.success, r.warn, r.failure} {
			c.DisableColor()
		}
	}
	return r
}

// Banner announces the run settings.
func (r *Renderer) Banner(dryRun bool, limit int) {
	if dryRun {
		r.info.Fprintln(r.out, "Currently DryRun is enabled, which means the delete logic will be skipped")
	}
	fmt.Fprintf(r.out, "Running with `--thread-count-limit` set to %d\n", limit)
}

// Listing prints every object found in the container.
func (r *Renderer) Listing(plan *bdtypes.Plan) {
	fmt.Fprintf(r.out, "\nFound %d blobs in '%s':\n", plan.Len(), plan.Container)
	for _, id := range plan.Objects {
		fmt.Fprintf(r.out, "- %s\n", id)
	}
}

// NoObjects reports an empty container.
func (r *Renderer) NoObjects() {
	fmt.Fprintln(r.out, "No blobs found in this container.")
}

// DryRunComplete closes a dry run.
func (r *Renderer) DryRunComplete() {
	fmt.Fprintln(r.out, "\nDry run complete. No blobs were deleted.")
}

// Cancelled reports a declined confirmation.
func (r *Renderer) Cancelled() {
	fmt.Fprintln(r.out, "Operation cancelled.")
}

// ConfirmLabel is the question asked before deleting.
func ConfirmLabel(count int) string {
	return fmt.Sprintf("\nAre you sure you want to delete all %d blobs?", count)
}

// Outcome prints one line per finished item.
func (r *Renderer) Outcome(o bdtypes.Outcome) {
	switch o.Status {
	case bdtypes.StatusDeleted:
		r.success.Fprintf(r.out, "Deleted: %s\n", o.ID)
	case bdtypes.StatusNotFound:
		r.success.Fprintf(r.out, "Already absent: %s\n", o.ID)
	case bdtypes.StatusSkipped:
		r.warn.Fprintf(r.out, "Skipped: %s: %v\n", o.ID, o.Err)
	default:
		r.failure.Fprintf(r.out, "Failed: %s: %v\n", o.ID, o.Err)
	}
}

// Summary prints the final line. It never claims success when an item
// did not succeed.
func (r *Renderer) Summary(s *bdtypes.BatchSummary) {
	if !s.HasFailures() {
		if s.NotFound > 0 {
			r.success.Fprintf(r.out, "✅ All %d blobs deleted (%d were already absent).\n", s.Total, s.NotFound)
			return
		}
		r.success.Fprintf(r.out, "✅ All %d blobs deleted.\n", s.Total)
		return
	}

	r.warn.Fprintf(r.out, "⚠️  Deleted %d of %d blobs; %d failed, %d skipped.\n",
		s.Succeeded(), s.Total, s.Failed, s.Skipped)
	for _, f := range s.Failures {
		r.failure.Fprintf(r.out, "  - %s [%s %s]: %s\n", f.ID, f.Status, f.Code, f.Message)
	}
}

// Fatal reports an error that ends the run.
func (r *Renderer) Fatal(err error) {
	r.failure.Fprintf(r.out, "❌ Error: %v\n", err)
}
