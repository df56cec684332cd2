package bulkdelete

import (
	"context"
	stderrors "errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/caybokotze/bulk-blob-storage-deletion/bdtypes"
	"github.com/caybokotze/bulk-blob-storage-deletion/errors"
	"github.com/caybokotze/bulk-blob-storage-deletion/internal/store/memory"
	"github.com/caybokotze/bulk-blob-storage-deletion/internal/testutil"
)

func TestNew(t *testing.T) {
	tests := []struct {
		name    string
		opts    []bdtypes.Option
		wantErr error
		limit   int
	}{
		{name: "default limit", limit: bdtypes.DefaultConcurrencyLimit},
		{name: "custom limit", opts: []bdtypes.Option{WithConcurrencyLimit(3)}, limit: 3},
		{name: "limit of one", opts: []bdtypes.Option{WithConcurrencyLimit(1)}, limit: 1},
		{name: "zero limit", opts: []bdtypes.Option{WithConcurrencyLimit(0)}, wantErr: errors.ErrInvalidInput},
		{name: "negative limit", opts: []bdtypes.Option{WithConcurrencyLimit(-4)}, wantErr: errors.ErrInvalidInput},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client, err := New(memory.New(), tt.opts...)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				assert.Nil(t, client)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.limit, client.Limit())
		})
	}
}

func TestNew_NilStore(t *testing.T) {
	_, err := New(nil)
	assert.ErrorIs(t, err, errors.ErrInvalidInput)
}

func TestOpen_Errors(t *testing.T) {
	tests := []struct {
		name    string
		storage bdtypes.StorageConfig
		wantErr error
	}{
		{
			name:    "empty connection string",
			storage: bdtypes.StorageConfig{Backend: BackendAzure},
			wantErr: errors.ErrInvalidCredentials,
		},
		{
			name:    "s3 without connection string",
			storage: bdtypes.StorageConfig{Backend: BackendS3, AccountURL: "https://example"},
			wantErr: errors.ErrInvalidCredentials,
		},
		{
			name:    "malformed azure connection string",
			storage: bdtypes.StorageConfig{Backend: BackendAzure, ConnectionString: "not a connection string"},
			wantErr: errors.ErrInvalidCredentials,
		},
		{
			name:    "unknown backend",
			storage: bdtypes.StorageConfig{Backend: "gcs", ConnectionString: "x=y"},
			wantErr: errors.ErrUnsupportedBackend,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Open(context.Background(), tt.storage)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestOpen_MinioBackend(t *testing.T) {
	client, err := Open(context.Background(), bdtypes.StorageConfig{
		Backend:          BackendMinio,
		ConnectionString: "Endpoint=http://localhost:9000;AccessKey=minio;SecretKey=minio123",
	}, WithConcurrencyLimit(4))

	require.NoError(t, err)
	assert.Equal(t, 4, client.Limit())
	assert.NoError(t, client.Close())
}

func TestClient_ListContainers(t *testing.T) {
	t.Run("sorted names", func(t *testing.T) {
		store := memory.New(memory.WithPageSize(2))
		store.Put("uploads", "a")
		store.Put("archive", "b")
		store.Put("logs", "c")

		client, err := New(store)
		require.NoError(t, err)

		names, err := client.ListContainers(context.Background())
		require.NoError(t, err)
		assert.Equal(t, []string{"archive", "logs", "uploads"}, names)
	})

	t.Run("empty account", func(t *testing.T) {
		client, err := New(memory.New())
		require.NoError(t, err)

		names, err := client.ListContainers(context.Background())
		assert.ErrorIs(t, err, errors.ErrNoContainers)
		assert.Nil(t, names)
	})

	t.Run("listing failure", func(t *testing.T) {
		client, err := New(memory.New(memory.WithContainerListError(errors.ErrAccessDenied)))
		require.NoError(t, err)

		_, err = client.ListContainers(context.Background())
		assert.ErrorIs(t, err, errors.ErrAccessDenied)
	})
}

func TestClient_Plan(t *testing.T) {
	t.Run("drains every page", func(t *testing.T) {
		keys := testutil.GenerateKeys("file", 2500)
		store := memory.New(memory.WithPageSize(1000))
		store.Put("logs", keys...)

		client, err := New(store)
		require.NoError(t, err)

		plan, err := client.Plan(context.Background(), "logs")
		require.NoError(t, err)
		assert.Equal(t, "logs", plan.Container)
		assert.Equal(t, bdtypes.Identifiers(keys...), plan.Objects)
	})

	t.Run("empty container", func(t *testing.T) {
		store := memory.New()
		store.Put("empty")

		client, err := New(store)
		require.NoError(t, err)

		plan, err := client.Plan(context.Background(), "empty")
		assert.ErrorIs(t, err, errors.ErrNoObjects)
		require.NotNil(t, plan)
		assert.Zero(t, plan.Len())
	})

	t.Run("missing container", func(t *testing.T) {
		client, err := New(memory.New())
		require.NoError(t, err)

		plan, err := client.Plan(context.Background(), "ghost")
		assert.ErrorIs(t, err, errors.ErrContainerNotFound)
		assert.Nil(t, plan)
	})

	t.Run("listing failure yields no partial plan", func(t *testing.T) {
		store := memory.New(memory.WithListError(errors.ErrConnection))
		store.Put("logs", "a", "b")

		client, err := New(store)
		require.NoError(t, err)

		plan, err := client.Plan(context.Background(), "logs")
		assert.ErrorIs(t, err, errors.ErrConnection)
		assert.Nil(t, plan)
		assert.Zero(t, store.DeleteCalls())
	})

	t.Run("invalid container name", func(t *testing.T) {
		client, err := New(memory.New())
		require.NoError(t, err)

		_, err = client.Plan(context.Background(), "")
		assert.ErrorIs(t, err, errors.ErrInvalidContainerName)
	})
}

func TestClient_Execute(t *testing.T) {
	t.Run("deletes the whole plan", func(t *testing.T) {
		keys := testutil.GenerateKeys("blob", 100)
		store := memory.New()
		store.Put("logs", keys...)

		client, err := New(store, WithConcurrencyLimit(8))
		require.NoError(t, err)

		plan, err := client.Plan(context.Background(), "logs")
		require.NoError(t, err)

		summary, err := client.Execute(context.Background(), plan)
		require.NoError(t, err)

		assert.Equal(t, 100, summary.Total)
		assert.Equal(t, 100, summary.Deleted)
		assert.False(t, summary.HasFailures())
		assert.Empty(t, store.Objects("logs"))
		assert.LessOrEqual(t, store.MaxInFlight(), 8)
	})

	t.Run("objects removed after planning count as success", func(t *testing.T) {
		store := memory.New()
		store.Put("logs", "a.txt", "b.txt", "c.txt")

		client, err := New(store)
		require.NoError(t, err)

		plan, err := client.Plan(context.Background(), "logs")
		require.NoError(t, err)

		_, err = store.DeleteObject(context.Background(), "logs", "b.txt")
		require.NoError(t, err)

		summary, err := client.Execute(context.Background(), plan)
		require.NoError(t, err)
		assert.Equal(t, 2, summary.Deleted)
		assert.Equal(t, 1, summary.NotFound)
		assert.Equal(t, 3, summary.Succeeded())
	})

	t.Run("nil plan", func(t *testing.T) {
		client, err := New(memory.New())
		require.NoError(t, err)

		_, err = client.Execute(context.Background(), nil)
		assert.ErrorIs(t, err, errors.ErrInvalidInput)
	})
}

func TestClient_ExecuteReportsEachFailure(t *testing.T) {
	store := memory.New(memory.WithDeleteHook(func(_, key string) error {
		if key == "x.txt" {
			return errors.NewObjectError("delete", "logs", key, errors.ErrAccessDenied)
		}
		return nil
	}))
	store.Put("logs", "a.txt", "x.txt", "b.txt")

	var (
		mu   sync.Mutex
		seen []bdtypes.Outcome
	)
	client, err := New(store, WithResultHandler(func(o bdtypes.Outcome) {
		mu.Lock()
		defer mu.Unlock()
		seen = append(seen, o)
	}))
	require.NoError(t, err)

	plan, err := client.Plan(context.Background(), "logs")
	require.NoError(t, err)

	summary, err := client.Execute(context.Background(), plan)
	require.NoError(t, err)

	assert.Len(t, seen, 3)
	assert.Equal(t, 2, summary.Deleted)
	assert.Equal(t, 1, summary.Failed)
	require.Len(t, summary.Failures, 1)
	assert.Equal(t, bdtypes.ObjectIdentifier("x.txt"), summary.Failures[0].ID)
	assert.Equal(t, errors.CodeForbidden, summary.Failures[0].Code)
	assert.Equal(t, []string{"x.txt"}, store.Objects("logs"))
}

func TestClient_ExecuteCanceled(t *testing.T) {
	release := make(chan struct{})
	store := memory.New(memory.WithDeleteHook(func(_, _ string) error {
		<-release
		return nil
	}))
	store.Put("logs", testutil.GenerateKeys("k", 20)...)

	client, err := New(store, WithConcurrencyLimit(2))
	require.NoError(t, err)

	plan, err := client.Plan(context.Background(), "logs")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan *bdtypes.BatchSummary)
	go func() {
		summary, _ := client.Execute(ctx, plan)
		done <- summary
	}()

	require.Eventually(t, func() bool { return store.InFlight() == 2 }, time.Second, time.Millisecond)
	cancel()
	// Admitted deletes finish; waiting items are skipped.
	time.Sleep(20 * time.Millisecond)
	close(release)

	summary := <-done
	assert.Equal(t, 20, summary.Total)
	assert.True(t, summary.Complete())
	assert.Equal(t, 2, summary.Deleted)
	assert.Equal(t, 18, summary.Skipped)
	assert.Equal(t, 2, store.DeleteCalls())
}

func TestClient_Delete(t *testing.T) {
	store := memory.New()
	store.Put("logs", "a", "b", "c")

	client, err := New(store)
	require.NoError(t, err)

	summary, err := client.Delete(context.Background(), "logs", "a", "c", "missing")
	require.NoError(t, err)
	assert.Equal(t, 2, summary.Deleted)
	assert.Equal(t, 1, summary.NotFound)
	assert.Equal(t, []string{"b"}, store.Objects("logs"))

	_, err = client.Delete(context.Background(), "logs", "")
	assert.ErrorIs(t, err, errors.ErrInvalidObjectKey)
}

func TestClient_Close(t *testing.T) {
	client, err := New(memory.New())
	require.NoError(t, err)
	assert.NoError(t, client.Close())

	closed := &closingStore{Store: memory.New(), err: stderrors.New("close failed")}
	client, err = New(closed)
	require.NoError(t, err)
	assert.EqualError(t, client.Close(), "close failed")
}

type closingStore struct {
	*memory.Store
	err error
}

func (s *closingStore) Close() error { return s.err }
