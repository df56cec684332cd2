package list

import (
	"context"
	"log/slog"

	"github.com/caybokotze/bulk-blob-storage-deletion/bdtypes"
	"github.com/caybokotze/bulk-blob-storage-deletion/errors"
	"github.com/caybokotze/bulk-blob-storage-deletion/internal/storeapi"
)

// Lister enumerates containers and objects of a store.
type Lister struct {
	store  storeapi.Store
	logger *slog.Logger
}

// New creates a new Lister.
func New(store storeapi.Store, logger *slog.Logger) *Lister {
	if logger == nil {
		logger = slog.Default()
	}
	return &Lister{
		store:  store,
		logger: logger,
	}
}

// Containers lists every container name of the account.
func (l *Lister) Containers(ctx context.Context) ([]string, error) {
	names, pages, err := Drain(ctx, l.store.NewContainerPager())
	if err != nil {
		return nil, errors.NewError("listContainers", err)
	}

	l.logger.DebugContext(ctx, "listed containers",
		slog.Int("count", len(names)),
		slog.Int("pages", pages))

	return names, nil
}

// Objects lists every object of a container in listing order.
func (l *Lister) Objects(ctx context.Context, container string) ([]bdtypes.ObjectIdentifier, error) {
	names, pages, err := Drain(ctx, l.store.NewObjectPager(container))
	if err != nil {
		return nil, errors.NewContainerError("listObjects", container, err)
	}

	l.logger.DebugContext(ctx, "listed objects",
		slog.String("container", container),
		slog.Int("count", len(names)),
		slog.Int("pages", pages))

	return bdtypes.Identifiers(names...), nil
}

// Drain fetches all pages of a pager and returns the names with the page count.
// No partial result is returned when a page fails.
func Drain(ctx context.Context, pager storeapi.Pager) ([]string, int, error) {
	var names []string
	pages := 0

	for pager.More() {
		if err := ctx.Err(); err != nil {
			return nil, pages, err
		}

		page, err := pager.NextPage(ctx)
		if err != nil {
			return nil, pages, err
		}
		pages++
		names = append(names, page...)
	}

	return names, pages, nil
}
