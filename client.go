package bulkdelete

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"go.opentelemetry.io/otel/trace/noop"

	"github.com/caybokotze/bulk-blob-storage-deletion/bdtypes"
	"github.com/caybokotze/bulk-blob-storage-deletion/errors"
	"github.com/caybokotze/bulk-blob-storage-deletion/internal/operations/delete"
	"github.com/caybokotze/bulk-blob-storage-deletion/internal/operations/list"
	"github.com/caybokotze/bulk-blob-storage-deletion/internal/store/azure"
	"github.com/caybokotze/bulk-blob-storage-deletion/internal/store/minio"
	"github.com/caybokotze/bulk-blob-storage-deletion/internal/store/s3"
	"github.com/caybokotze/bulk-blob-storage-deletion/internal/storeapi"
	"github.com/caybokotze/bulk-blob-storage-deletion/internal/validation"
)

// Backend names accepted by Open.
const (
	BackendAzure = "azure"
	BackendS3    = "s3"
	BackendMinio = "minio"
)

// Client plans and executes bulk deletions against one storage account.
// It is safe for concurrent use.
type Client struct {
	store  storeapi.Store
	lister *list.Lister
	engine *delete.Engine
	logger *slog.Logger
}

// New creates a Client on top of an existing store.
func New(store storeapi.Store, opts ...bdtypes.Option) (*Client, error) {
	if store == nil {
		return nil, errors.NewError("client initialization", errors.ErrInvalidInput).WithMessage("store cannot be nil")
	}

	cfg := &bdtypes.ClientConfig{
		ConcurrencyLimit: bdtypes.DefaultConcurrencyLimit,
		Logger:           slog.Default(),
		TracerProvider:   noop.NewTracerProvider(),
	}
	for _, opt := range opts {
		opt(cfg)
	}

	if err := validation.ValidateConcurrencyLimit(cfg.ConcurrencyLimit); err != nil {
		return nil, err
	}

	return &Client{
		store:  store,
		lister: list.New(store, cfg.Logger),
		engine: delete.New(store, delete.Config{
			ConcurrencyLimit: cfg.ConcurrencyLimit,
			Logger:           cfg.Logger,
			ResultHandler:    cfg.ResultHandler,
			TracerProvider:   cfg.TracerProvider,
		}),
		logger: cfg.Logger,
	}, nil
}

// Open connects to the configured backend and returns a Client for it.
//
// Azure accepts either a connection string or, when that is empty, an
// account URL authenticated through the default Azure credential chain.
// S3 and MinIO take "Endpoint=...;AccessKey=...;SecretKey=..." strings.
func Open(ctx context.Context, storage bdtypes.StorageConfig, opts ...bdtypes.Option) (*Client, error) {
	store, err := openStore(ctx, storage)
	if err != nil {
		return nil, err
	}
	return New(store, opts...)
}

func openStore(ctx context.Context, storage bdtypes.StorageConfig) (storeapi.Store, error) {
	backend := strings.ToLower(strings.TrimSpace(storage.Backend))
	if backend == "" {
		backend = BackendAzure
	}

	if storage.ConnectionString == "" && (backend != BackendAzure || storage.AccountURL == "") {
		return nil, errors.NewError("connect", errors.ErrInvalidCredentials).WithMessage("connection string cannot be empty")
	}

	switch backend {
	case BackendAzure:
		if storage.ConnectionString == "" {
			return azure.NewFromAccountURL(storage.AccountURL)
		}
		return azure.NewFromConnectionString(storage.ConnectionString)
	case BackendS3:
		return s3.Open(ctx, storage.ConnectionString)
	case BackendMinio:
		return minio.Open(storage.ConnectionString)
	default:
		return nil, errors.NewError("connect", errors.ErrUnsupportedBackend).WithMessage(fmt.Sprintf("backend %q", storage.Backend))
	}
}

// Limit returns the concurrency limit of the deletion engine.
func (c *Client) Limit() int {
	return c.engine.Limit()
}

// ListContainers returns every container of the account.
// An account without containers yields ErrNoContainers.
func (c *Client) ListContainers(ctx context.Context) ([]string, error) {
	names, err := c.lister.Containers(ctx)
	if err != nil {
		return nil, err
	}
	if len(names) == 0 {
		return nil, errors.NewError("listContainers", errors.ErrNoContainers)
	}
	return names, nil
}

// Plan enumerates a container into a deletion batch. Listing is all or
// nothing: on error no partial plan is returned. An empty container yields
// an empty plan together with ErrNoObjects.
func (c *Client) Plan(ctx context.Context, container string) (*bdtypes.Plan, error) {
	if err := validation.ValidateContainerName(container); err != nil {
		return nil, err
	}

	ids, err := c.lister.Objects(ctx, container)
	if err != nil {
		return nil, err
	}

	plan := &bdtypes.Plan{Container: container, Objects: ids}
	if plan.Len() == 0 {
		return plan, errors.NewContainerError("plan", container, errors.ErrNoObjects)
	}
	return plan, nil
}

// Execute deletes every object of plan and waits for all of them.
// The returned summary accounts for each object exactly once.
func (c *Client) Execute(ctx context.Context, plan *bdtypes.Plan) (*bdtypes.BatchSummary, error) {
	if plan == nil {
		return nil, errors.NewError("execute", errors.ErrInvalidInput).WithMessage("plan cannot be nil")
	}
	if err := validation.ValidateContainerName(plan.Container); err != nil {
		return nil, err
	}

	return c.engine.DeleteBatch(ctx, plan.Container, plan.Objects), nil
}

// Delete removes the given keys from container.
func (c *Client) Delete(ctx context.Context, container string, keys ...string) (*bdtypes.BatchSummary, error) {
	if err := validation.ValidateContainerName(container); err != nil {
		return nil, err
	}
	for _, key := range keys {
		if err := validation.ValidateObjectKey(key); err != nil {
			return nil, err
		}
	}

	return c.engine.DeleteBatch(ctx, container, bdtypes.Identifiers(keys...)), nil
}

// Close releases resources held by the store.
func (c *Client) Close() error {
	if closer, ok := c.store.(storeapi.Closer); ok {
		return closer.Close()
	}
	return nil
}
