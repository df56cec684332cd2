// Package app drives one interactive purge run: it resolves the connection
// string, lets the user pick a container, shows what will be removed and
// deletes it only after a positive confirmation.
package app

import (
	"context"
	stderrors "errors"
	"log/slog"
	"os"
	"strings"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"

	bulkdelete "github.com/caybokotze/bulk-blob-storage-deletion"
	"github.com/caybokotze/bulk-blob-storage-deletion/bdtypes"
	"github.com/caybokotze/bulk-blob-storage-deletion/errors"
	"github.com/caybokotze/bulk-blob-storage-deletion/internal/config"
	"github.com/caybokotze/bulk-blob-storage-deletion/internal/console"
	"github.com/caybokotze/bulk-blob-storage-deletion/internal/credentials"
)

// SelectContainerLabel is shown above the container menu.
const SelectContainerLabel = "Select a container to delete:"

// Opener connects to a storage account.
type Opener func(ctx context.Context, storage bdtypes.StorageConfig, opts ...bdtypes.Option) (*bulkdelete.Client, error)

// Runner executes purge runs. Zero-value collaborators fall back to
// defaults in New.
type Runner struct {
	prompter       console.Prompter
	renderer       *console.Renderer
	resolver       *credentials.Resolver
	open           Opener
	logger         *slog.Logger
	tracerProvider trace.TracerProvider
}

// Option configures a Runner.
type Option func(*Runner)

// WithPrompter sets the interactive prompter. Without one, a run needs an
// explicit container and --yes.
func WithPrompter(p console.Prompter) Option {
	return func(r *Runner) {
		r.prompter = p
	}
}

// WithRenderer sets where user-facing output goes.
func WithRenderer(renderer *console.Renderer) Option {
	return func(r *Runner) {
		if renderer != nil {
			r.renderer = renderer
		}
	}
}

// WithResolver sets the connection string resolver.
func WithResolver(resolver *credentials.Resolver) Option {
	return func(r *Runner) {
		r.resolver = resolver
	}
}

// WithOpener replaces the storage factory. Tests use it to inject an
// in-memory store.
func WithOpener(open Opener) Option {
	return func(r *Runner) {
		if open != nil {
			r.open = open
		}
	}
}

// WithLogger sets the structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(r *Runner) {
		if logger != nil {
			r.logger = logger
		}
	}
}

// WithTracerProvider sets the tracer provider handed to the client.
func WithTracerProvider(tp trace.TracerProvider) Option {
	return func(r *Runner) {
		if tp != nil {
			r.tracerProvider = tp
		}
	}
}

// New creates a Runner.
func New(opts ...Option) *Runner {
	r := &Runner{
		renderer:       console.NewRenderer(os.Stdout, false),
		open:           bulkdelete.Open,
		logger:         slog.Default(),
		tracerProvider: noop.NewTracerProvider(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Report describes how a run ended.
type Report struct {
	// RunID correlates the run's log lines
	RunID string

	// Container is the container that was selected
	Container string

	// Listed is the number of objects found
	Listed int

	// DryRun is set when the run stopped after listing
	DryRun bool

	// Cancelled is set when the user declined the confirmation
	Cancelled bool

	// Summary is nil unless deletion ran
	Summary *bdtypes.BatchSummary
}

// Failed reports whether any object could not be deleted.
func (r *Report) Failed() bool {
	return r.Summary != nil && r.Summary.HasFailures()
}

// Run performs one purge. A returned error ends the run before any delete
// was issued, except for context cancellation during deletion which is
// reflected in the summary instead.
func (r *Runner) Run(ctx context.Context, cfg config.Config) (*Report, error) {
	report := &Report{RunID: uuid.NewString(), DryRun: cfg.DryRun}
	logger := r.logger.With(slog.String("run_id", report.RunID))

	r.renderer.Banner(cfg.DryRun, cfg.ConcurrencyLimit)

	storage, err := r.storage(ctx, cfg.Storage)
	if err != nil {
		return report, err
	}

	client, err := r.open(ctx, storage,
		bulkdelete.WithConcurrencyLimit(cfg.ConcurrencyLimit),
		bulkdelete.WithLogger(logger),
		bulkdelete.WithTracerProvider(r.tracerProvider),
		bulkdelete.WithResultHandler(r.renderer.Outcome),
	)
	if err != nil {
		return report, err
	}
	defer func() {
		if err := client.Close(); err != nil {
			logger.WarnContext(ctx, "closing store failed", slog.String("error", err.Error()))
		}
	}()

	container, err := r.selectContainer(ctx, client, cfg.Container)
	if err != nil {
		return report, err
	}
	report.Container = container
	logger = logger.With(slog.String("container", container))

	plan, err := client.Plan(ctx, container)
	if stderrors.Is(err, errors.ErrNoObjects) {
		r.renderer.NoObjects()
		return report, nil
	}
	if err != nil {
		return report, err
	}
	report.Listed = plan.Len()

	r.renderer.Listing(plan)

	if cfg.DryRun {
		logger.InfoContext(ctx, "dry run, skipping deletion", slog.Int("objects", plan.Len()))
		r.renderer.DryRunComplete()
		return report, nil
	}

	confirmed, err := r.confirm(plan.Len(), cfg.AssumeYes)
	if err != nil {
		return report, err
	}
	if !confirmed {
		report.Cancelled = true
		r.renderer.Cancelled()
		return report, nil
	}

	logger.InfoContext(ctx, "deleting objects",
		slog.Int("objects", plan.Len()),
		slog.Int("concurrency_limit", client.Limit()))

	summary, err := client.Execute(ctx, plan)
	if err != nil {
		return report, err
	}
	report.Summary = summary
	r.renderer.Summary(summary)

	return report, nil
}

// storage fills in the connection string. Azure with an account URL falls
// back to token authentication only when no source yields a connection
// string.
func (r *Runner) storage(ctx context.Context, storage bdtypes.StorageConfig) (bdtypes.StorageConfig, error) {
	if storage.ConnectionString != "" {
		return storage, nil
	}
	accountURL := UsesAccountURL(storage)
	if r.resolver == nil {
		if accountURL {
			return storage, nil
		}
		return storage, errors.NewError("resolveCredentials",
			errors.Classify(errors.ErrInvalidCredentials, credentials.ErrNoConnectionString))
	}

	cred, err := r.resolver.Resolve(ctx)
	if accountURL && stderrors.Is(err, credentials.ErrNoConnectionString) {
		r.logger.DebugContext(ctx, "no connection string, using account URL",
			slog.String("account_url", storage.AccountURL))
		return storage, nil
	}
	if err != nil {
		return storage, err
	}
	r.logger.DebugContext(ctx, "using connection string", slog.Any("credential", cred))
	storage.ConnectionString = cred.Value
	return storage, nil
}

// UsesAccountURL reports whether storage can authenticate against Azure
// with its account URL when no connection string is found.
func UsesAccountURL(storage bdtypes.StorageConfig) bool {
	backend := strings.ToLower(storage.Backend)
	return (backend == "" || backend == config.BackendAzure) && storage.AccountURL != ""
}

func (r *Runner) selectContainer(ctx context.Context, client *bulkdelete.Client, container string) (string, error) {
	if container != "" {
		return container, nil
	}

	names, err := client.ListContainers(ctx)
	if err != nil {
		return "", err
	}
	if r.prompter == nil {
		return "", errors.NewError("selectContainer", errors.ErrInvalidInput).
			WithMessage("no container given and no terminal to choose one")
	}
	return r.prompter.Select(SelectContainerLabel, names)
}

func (r *Runner) confirm(count int, assumeYes bool) (bool, error) {
	if assumeYes {
		return true, nil
	}
	if r.prompter == nil {
		return false, errors.NewError("confirm", errors.ErrInvalidInput).
			WithMessage("confirmation required; pass --yes to run without a terminal")
	}
	return r.prompter.Confirm(console.ConfirmLabel(count))
}

// PromptConnectionString returns a credentials.PromptFunc asking p for the
// connection string of backend.
func PromptConnectionString(p console.Prompter, backend string) credentials.PromptFunc {
	label, placeholder := "Enter your Azure Blob Storage connection string", "DefaultEndpointsProtocol=https;AccountName=..."
	switch strings.ToLower(backend) {
	case config.BackendS3:
		label, placeholder = "Enter your S3 connection string", "Region=us-east-1;AccessKey=...;SecretKey=..."
	case config.BackendMinio:
		label, placeholder = "Enter your MinIO connection string", "Endpoint=http://localhost:9000;AccessKey=...;SecretKey=..."
	}
	return func(context.Context) (string, error) {
		return p.Input(label, placeholder)
	}
}
