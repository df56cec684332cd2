package minio

import (
	"context"
	"fmt"
	"net/http"
	"testing"

	"github.com/minio/minio-go/v7"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/caybokotze/bulk-blob-storage-deletion/errors"
	"github.com/caybokotze/bulk-blob-storage-deletion/internal/operations/list"
	"github.com/caybokotze/bulk-blob-storage-deletion/internal/testutil"
)

func TestStore_ListObjectsInPages(t *testing.T) {
	keys := make([]string, 7)
	for i := range keys {
		keys[i] = fmt.Sprintf("obj-%d", i)
	}
	mock := &testutil.MockMinioClient{
		ListObjectsFunc: func(ctx context.Context, bucket string, opts minio.ListObjectsOptions) <-chan minio.ObjectInfo {
			assert.Equal(t, "logs", bucket)
			assert.True(t, opts.Recursive)
			return testutil.ObjectStream(ctx, keys, nil)
		},
	}
	store := New(mock)
	store.pageSize = 3

	names, pages, err := list.Drain(context.Background(), store.NewObjectPager("logs"))

	require.NoError(t, err)
	assert.Equal(t, keys, names)
	assert.Equal(t, 3, pages)
}

func TestStore_ListObjectsStreamError(t *testing.T) {
	mock := &testutil.MockMinioClient{
		ListObjectsFunc: func(ctx context.Context, _ string, _ minio.ListObjectsOptions) <-chan minio.ObjectInfo {
			return testutil.ObjectStream(ctx, []string{"a", "b"}, minio.ErrorResponse{
				Code:       "NoSuchBucket",
				StatusCode: http.StatusNotFound,
			})
		},
	}

	ids, err := list.New(New(mock), nil).Objects(context.Background(), "missing")

	assert.Nil(t, ids)
	assert.True(t, errors.IsContainerNotFound(err))
}

func TestStore_ListObjectsEmpty(t *testing.T) {
	ids, err := list.New(New(&testutil.MockMinioClient{}), nil).Objects(context.Background(), "empty")

	require.NoError(t, err)
	assert.Empty(t, ids)
}

func TestStore_ListBuckets(t *testing.T) {
	mock := &testutil.MockMinioClient{
		ListBucketsFunc: func(context.Context) ([]minio.BucketInfo, error) {
			return []minio.BucketInfo{{Name: "archive"}, {Name: "logs"}}, nil
		},
	}

	names, err := list.New(New(mock), nil).Containers(context.Background())

	require.NoError(t, err)
	assert.Equal(t, []string{"archive", "logs"}, names)
}

func TestStore_DeleteObject(t *testing.T) {
	mock := &testutil.MockMinioClient{
		RemoveObjectFunc: func(_ context.Context, _, key string, _ minio.RemoveObjectOptions) error {
			switch key {
			case "gone.txt":
				return minio.ErrorResponse{Code: "NoSuchKey", StatusCode: http.StatusNotFound}
			case "locked.txt":
				return minio.ErrorResponse{Code: "AccessDenied", StatusCode: http.StatusForbidden}
			case "expired.txt":
				return minio.ErrorResponse{Code: "ExpiredToken", StatusCode: http.StatusBadRequest}
			}
			return nil
		},
	}
	store := New(mock)

	tests := []struct {
		key         string
		wantDeleted bool
		wantCode    errors.ErrorCode
	}{
		{key: "a.txt", wantDeleted: true},
		{key: "gone.txt"},
		{key: "locked.txt", wantCode: errors.CodeForbidden},
		{key: "expired.txt", wantCode: errors.CodeUnauthorized},
	}

	for _, tt := range tests {
		t.Run(tt.key, func(t *testing.T) {
			deleted, err := store.DeleteObject(context.Background(), "logs", tt.key)

			assert.Equal(t, tt.wantDeleted, deleted)
			if tt.wantCode == "" {
				assert.NoError(t, err)
				return
			}
			assert.Equal(t, tt.wantCode, errors.CodeOf(err))
		})
	}
}

func TestOpen(t *testing.T) {
	tests := []struct {
		name    string
		conn    string
		wantErr error
	}{
		{name: "url endpoint", conn: "Endpoint=https://minio.internal:9000;AccessKey=a;SecretKey=b"},
		{name: "host endpoint", conn: "Endpoint=localhost:9000;UseSSL=false;AccessKey=a;SecretKey=b"},
		{name: "missing endpoint", conn: "AccessKey=a;SecretKey=b", wantErr: errors.ErrInvalidCredentials},
		{name: "bad url", conn: "Endpoint=https://", wantErr: errors.ErrInvalidInput},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store, err := Open(tt.conn)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.NotNil(t, store)
		})
	}
}
