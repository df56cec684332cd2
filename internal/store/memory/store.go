// Package memory provides an in-memory object store for testing and development.
// It implements storeapi.Store with thread-safe operations and records how many
// deletes were issued and how many ran at once.
package memory

import (
	"context"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/caybokotze/bulk-blob-storage-deletion/errors"
	"github.com/caybokotze/bulk-blob-storage-deletion/internal/storeapi"
)

const defaultPageSize = 1000

// DeleteHook can intercept a delete before it touches the store.
// Returning a non-nil error fails the delete with that error.
type DeleteHook func(container, key string) error

// Store is an in-memory storeapi.Store.
type Store struct {
	// containers maps a container name to its objects, kept in insertion order
	containers map[string][]string
	// mu protects containers
	mu sync.RWMutex

	pageSize   int
	latency    time.Duration
	hook       DeleteHook
	listErr    error
	containErr error

	deleteCalls atomic.Int64
	inFlight    atomic.Int64
	maxInFlight atomic.Int64
}

// Option configures a Store.
type Option func(*Store)

// WithPageSize sets how many names each listing page holds.
func WithPageSize(size int) Option {
	return func(s *Store) {
		if size > 0 {
			s.pageSize = size
		}
	}
}

// WithLatency makes every delete take at least d.
func WithLatency(d time.Duration) Option {
	return func(s *Store) {
		s.latency = d
	}
}

// WithDeleteHook installs a hook run for each delete while it is in flight.
func WithDeleteHook(hook DeleteHook) Option {
	return func(s *Store) {
		s.hook = hook
	}
}

// WithListError makes every object listing fail with err.
func WithListError(err error) Option {
	return func(s *Store) {
		s.listErr = err
	}
}

// WithContainerListError makes every container listing fail with err.
func WithContainerListError(err error) Option {
	return func(s *Store) {
		s.containErr = err
	}
}

// New creates an empty store.
func New(opts ...Option) *Store {
	s := &Store{
		containers: make(map[string][]string),
		pageSize:   defaultPageSize,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Put adds objects to a container, creating the container if needed.
func (s *Store) Put(container string, keys ...string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	existing := s.containers[container]
	for _, key := range keys {
		if indexOf(existing, key) < 0 {
			existing = append(existing, key)
		}
	}
	s.containers[container] = existing
}

// Objects returns the remaining objects of a container.
func (s *Store) Objects(container string) []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return append([]string(nil), s.containers[container]...)
}

// DeleteCalls returns the number of delete requests received.
func (s *Store) DeleteCalls() int {
	return int(s.deleteCalls.Load())
}

// MaxInFlight returns the highest number of concurrent deletes observed.
func (s *Store) MaxInFlight() int {
	return int(s.maxInFlight.Load())
}

// InFlight returns the number of deletes currently running.
func (s *Store) InFlight() int {
	return int(s.inFlight.Load())
}

// ResetStats clears the call and concurrency counters.
func (s *Store) ResetStats() {
	s.deleteCalls.Store(0)
	s.maxInFlight.Store(0)
}

// NewContainerPager lists containers in name order.
func (s *Store) NewContainerPager() storeapi.Pager {
	if s.containErr != nil {
		return storeapi.NewErrorPager(s.containErr)
	}

	s.mu.RLock()
	names := make([]string, 0, len(s.containers))
	for name := range s.containers {
		names = append(names, name)
	}
	s.mu.RUnlock()

	sort.Strings(names)
	return storeapi.NewSlicePager(chunk(names, s.pageSize)...)
}

// NewObjectPager lists a container's objects in insertion order.
func (s *Store) NewObjectPager(container string) storeapi.Pager {
	if s.listErr != nil {
		return storeapi.NewErrorPager(s.listErr)
	}

	s.mu.RLock()
	keys, ok := s.containers[container]
	keys = append([]string(nil), keys...)
	s.mu.RUnlock()

	if !ok {
		return storeapi.NewErrorPager(errors.NewContainerError("listObjects", container, errors.ErrContainerNotFound))
	}
	return storeapi.NewSlicePager(chunk(keys, s.pageSize)...)
}

// DeleteObject removes key from container if present.
func (s *Store) DeleteObject(ctx context.Context, container, key string) (bool, error) {
	s.deleteCalls.Add(1)
	current := s.inFlight.Add(1)
	defer s.inFlight.Add(-1)

	for {
		peak := s.maxInFlight.Load()
		if current <= peak || s.maxInFlight.CompareAndSwap(peak, current) {
			break
		}
	}

	if s.latency > 0 {
		select {
		case <-time.After(s.latency):
		case <-ctx.Done():
			return false, ctx.Err()
		}
	}

	if s.hook != nil {
		if err := s.hook(container, key); err != nil {
			return false, err
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	keys, ok := s.containers[container]
	if !ok {
		return false, errors.NewContainerError("delete", container, errors.ErrContainerNotFound)
	}
	i := indexOf(keys, key)
	if i < 0 {
		return false, nil
	}
	s.containers[container] = append(keys[:i], keys[i+1:]...)
	return true, nil
}

func indexOf(keys []string, key string) int {
	for i, k := range keys {
		if k == key {
			return i
		}
	}
	return -1
}

func chunk(names []string, size int) [][]string {
	pages := make([][]string, 0, (len(names)+size-1)/size)
	for i := 0; i < len(names); i += size {
		end := i + size
		if end > len(names) {
			end = len(names)
		}
		pages = append(pages, names[i:end])
	}
	return pages
}

var _ storeapi.Store = (*Store)(nil)
