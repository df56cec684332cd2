package s3

import (
	"context"
	stderrors "errors"
	"sync"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/aws/smithy-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/caybokotze/bulk-blob-storage-deletion/errors"
	"github.com/caybokotze/bulk-blob-storage-deletion/internal/operations/list"
	"github.com/caybokotze/bulk-blob-storage-deletion/internal/testutil"
)

func TestStore_ListObjectsFollowsContinuation(t *testing.T) {
	var tokens []string
	mock := &testutil.MockS3Client{
		ListObjectsV2Func: func(
			_ context.Context,
			in *s3.ListObjectsV2Input,
			_ ...func(*s3.Options),
		) (*s3.ListObjectsV2Output, error) {
			assert.Equal(t, "logs", aws.ToString(in.Bucket))
			tokens = append(tokens, aws.ToString(in.ContinuationToken))
			if in.ContinuationToken == nil {
				return &s3.ListObjectsV2Output{
					Contents:              testutil.CreateObjects("a.txt", "b.txt"),
					IsTruncated:           aws.Bool(true),
					NextContinuationToken: aws.String("page-2"),
				}, nil
			}
			return &s3.ListObjectsV2Output{
				Contents:    testutil.CreateObjects("c.txt"),
				IsTruncated: aws.Bool(false),
			}, nil
		},
	}

	ids, err := list.New(New(mock), nil).Objects(context.Background(), "logs")

	require.NoError(t, err)
	require.Len(t, ids, 3)
	assert.Equal(t, "c.txt", ids[2].String())
	assert.Equal(t, []string{"", "page-2"}, tokens)
}

func TestStore_ListObjectsMissingBucket(t *testing.T) {
	mock := &testutil.MockS3Client{
		ListObjectsV2Func: func(context.Context, *s3.ListObjectsV2Input, ...func(*s3.Options)) (*s3.ListObjectsV2Output, error) {
			return nil, &types.NoSuchBucket{Message: aws.String("The specified bucket does not exist")}
		},
	}

	ids, err := list.New(New(mock), nil).Objects(context.Background(), "missing")

	assert.Nil(t, ids)
	assert.True(t, errors.IsContainerNotFound(err))
}

func TestStore_ListBuckets(t *testing.T) {
	mock := &testutil.MockS3Client{
		ListBucketsFunc: func(context.Context, *s3.ListBucketsInput, ...func(*s3.Options)) (*s3.ListBucketsOutput, error) {
			return &s3.ListBucketsOutput{Buckets: []types.Bucket{
				{Name: aws.String("archive")},
				{Name: aws.String("logs")},
			}}, nil
		},
	}

	names, err := list.New(New(mock), nil).Containers(context.Background())

	require.NoError(t, err)
	assert.Equal(t, []string{"archive", "logs"}, names)
}

func TestStore_ListBucketsInvalidKey(t *testing.T) {
	mock := &testutil.MockS3Client{
		ListBucketsFunc: func(context.Context, *s3.ListBucketsInput, ...func(*s3.Options)) (*s3.ListBucketsOutput, error) {
			return nil, &smithy.GenericAPIError{Code: "InvalidAccessKeyId", Message: "key does not exist"}
		},
	}

	_, err := list.New(New(mock), nil).Containers(context.Background())

	assert.ErrorIs(t, err, errors.ErrInvalidCredentials)
}

func TestStore_DeleteObject(t *testing.T) {
	var mu sync.Mutex
	var requested []string

	mock := &testutil.MockS3Client{
		DeleteObjectFunc: func(
			_ context.Context,
			in *s3.DeleteObjectInput,
			_ ...func(*s3.Options),
		) (*s3.DeleteObjectOutput, error) {
			mu.Lock()
			requested = append(requested, aws.ToString(in.Key))
			mu.Unlock()

			switch aws.ToString(in.Key) {
			case "gone.txt":
				return nil, &types.NoSuchKey{}
			case "locked.txt":
				return nil, &smithy.GenericAPIError{Code: "AccessDenied", Message: "Access Denied"}
			case "flaky.txt":
				return nil, stderrors.New("unexpected EOF")
			}
			return &s3.DeleteObjectOutput{}, nil
		},
	}
	store := New(mock)

	tests := []struct {
		name        string
		key         string
		wantDeleted bool
		wantCode    errors.ErrorCode
	}{
		{name: "existing key", key: "a.txt", wantDeleted: true},
		{name: "absent key", key: "gone.txt"},
		{name: "permission error", key: "locked.txt", wantCode: errors.CodeForbidden},
		{name: "unclassified error", key: "flaky.txt", wantCode: errors.CodeUnknown},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			deleted, err := store.DeleteObject(context.Background(), "logs", tt.key)

			assert.Equal(t, tt.wantDeleted, deleted)
			if tt.wantCode == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Equal(t, tt.wantCode, errors.CodeOf(err))
			assert.Contains(t, err.Error(), tt.key)
		})
	}

	assert.ElementsMatch(t, []string{"a.txt", "gone.txt", "locked.txt", "flaky.txt"}, requested)
}

func TestConvertAWSError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want error
	}{
		{"no such bucket code", &smithy.GenericAPIError{Code: "NoSuchBucket"}, errors.ErrContainerNotFound},
		{"not found code", &smithy.GenericAPIError{Code: "NotFound"}, errors.ErrObjectNotFound},
		{"signature mismatch", &smithy.GenericAPIError{Code: "SignatureDoesNotMatch"}, errors.ErrInvalidCredentials},
		{"request timeout", &smithy.GenericAPIError{Code: "RequestTimeout"}, errors.ErrTimeout},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := convertAWSError(tt.err)
			assert.ErrorIs(t, got, tt.want)
			assert.ErrorIs(t, got, tt.err)
		})
	}

	assert.Nil(t, convertAWSError(nil))
}

func TestOpen(t *testing.T) {
	store, err := Open(context.Background(), "Endpoint=http://localhost:4566;Region=eu-west-1;AccessKey=test;SecretKey=test")

	require.NoError(t, err)
	assert.NotNil(t, store)

	_, err = Open(context.Background(), "Endpoint")
	assert.ErrorIs(t, err, errors.ErrInvalidCredentials)
}
