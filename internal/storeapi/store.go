// Package storeapi defines the storage capabilities the deletion tool depends on.
// Any object store offering these three operations can back the tool.
package storeapi

import "context"

// Pager walks a paginated listing one page at a time.
// A pager is single-use: create a new one to list again.
type Pager interface {
	// More reports whether another page can be fetched
	More() bool

	// NextPage fetches the next page of names
	NextPage(ctx context.Context) ([]string, error)
}

// Store is the storage account abstraction shared by all deletion workers.
// Implementations must be safe for concurrent use.
type Store interface {
	// NewContainerPager lists the containers of the account
	NewContainerPager() Pager

	// NewObjectPager lists the objects of a container
	NewObjectPager(container string) Pager

	// DeleteObject deletes an object if it exists. It reports deleted=false
	// with a nil error when the object was already absent.
	DeleteObject(ctx context.Context, container, key string) (deleted bool, err error)
}

// Closer is implemented by stores holding resources that must be released.
type Closer interface {
	Close() error
}

// SlicePager serves pre-fetched pages. Backends whose SDK returns a full
// listing in one call use it to satisfy Pager.
type SlicePager struct {
	pages [][]string
	next  int
	err   error
}

// NewSlicePager returns a pager over the given pages.
func NewSlicePager(pages ...[]string) *SlicePager {
	return &SlicePager{pages: pages}
}

// NewErrorPager returns a pager whose first page fails with err.
func NewErrorPager(err error) *SlicePager {
	return &SlicePager{err: err}
}

// More reports whether another page remains.
func (p *SlicePager) More() bool {
	if p.err != nil {
		return p.next == 0
	}
	return p.next < len(p.pages)
}

// NextPage returns the next page.
func (p *SlicePager) NextPage(ctx context.Context) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if p.err != nil {
		p.next++
		return nil, p.err
	}
	if p.next >= len(p.pages) {
		return nil, nil
	}
	page := p.pages[p.next]
	p.next++
	return page, nil
}
