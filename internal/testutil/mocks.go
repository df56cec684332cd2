// Package testutil provides test utilities and mocks for the storage backends.
// This package is internal and should only be used for testing within this module.
package testutil

import (
	"context"
	"sync"

	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/secretsmanager"
	"github.com/minio/minio-go/v7"
)

// MockS3Client is a mock of the S3 operations used by the s3 store.
// It allows customization of each operation through function fields.
type MockS3Client struct {
	ListBucketsFunc   func(context.Context, *s3.ListBucketsInput, ...func(*s3.Options)) (*s3.ListBucketsOutput, error)
	ListObjectsV2Func func(context.Context, *s3.ListObjectsV2Input, ...func(*s3.Options)) (*s3.ListObjectsV2Output, error)
	DeleteObjectFunc  func(context.Context, *s3.DeleteObjectInput, ...func(*s3.Options)) (*s3.DeleteObjectOutput, error)
}

// ListBuckets mocks the S3 ListBuckets operation.
func (m *MockS3Client) ListBuckets(
	ctx context.Context,
	params *s3.ListBucketsInput,
	optFns ...func(*s3.Options),
) (*s3.ListBucketsOutput, error) {
	if m.ListBucketsFunc != nil {
		return m.ListBucketsFunc(ctx, params, optFns...)
	}
	return &s3.ListBucketsOutput{}, nil
}

// ListObjectsV2 mocks the S3 ListObjectsV2 operation.
func (m *MockS3Client) ListObjectsV2(
	ctx context.Context,
	params *s3.ListObjectsV2Input,
	optFns ...func(*s3.Options),
) (*s3.ListObjectsV2Output, error) {
	if m.ListObjectsV2Func != nil {
		return m.ListObjectsV2Func(ctx, params, optFns...)
	}
	return &s3.ListObjectsV2Output{}, nil
}

// DeleteObject mocks the S3 DeleteObject operation.
func (m *MockS3Client) DeleteObject(
	ctx context.Context,
	params *s3.DeleteObjectInput,
	optFns ...func(*s3.Options),
) (*s3.DeleteObjectOutput, error) {
	if m.DeleteObjectFunc != nil {
		return m.DeleteObjectFunc(ctx, params, optFns...)
	}
	return &s3.DeleteObjectOutput{}, nil
}

// MockMinioClient is a mock of the minio-go operations used by the minio store.
type MockMinioClient struct {
	ListBucketsFunc  func(context.Context) ([]minio.BucketInfo, error)
	ListObjectsFunc  func(context.Context, string, minio.ListObjectsOptions) <-chan minio.ObjectInfo
	RemoveObjectFunc func(context.Context, string, string, minio.RemoveObjectOptions) error
}

// ListBuckets mocks the minio ListBuckets operation.
func (m *MockMinioClient) ListBuckets(ctx context.Context) ([]minio.BucketInfo, error) {
	if m.ListBucketsFunc != nil {
		return m.ListBucketsFunc(ctx)
	}
	return nil, nil
}

// ListObjects mocks the minio ListObjects operation.
// The default returns an already closed channel.
func (m *MockMinioClient) ListObjects(
	ctx context.Context,
	bucketName string,
	opts minio.ListObjectsOptions,
) <-chan minio.ObjectInfo {
	if m.ListObjectsFunc != nil {
		return m.ListObjectsFunc(ctx, bucketName, opts)
	}
	ch := make(chan minio.ObjectInfo)
	close(ch)
	return ch
}

// RemoveObject mocks the minio RemoveObject operation.
func (m *MockMinioClient) RemoveObject(
	ctx context.Context,
	bucketName, objectName string,
	opts minio.RemoveObjectOptions,
) error {
	if m.RemoveObjectFunc != nil {
		return m.RemoveObjectFunc(ctx, bucketName, objectName, opts)
	}
	return nil
}

// ObjectStream returns a channel yielding an entry per key, then err if set.
// The channel closes early when ctx is canceled.
func ObjectStream(ctx context.Context, keys []string, err error) <-chan minio.ObjectInfo {
	ch := make(chan minio.ObjectInfo)
	go func() {
		defer close(ch)
		for _, key := range keys {
			select {
			case ch <- minio.ObjectInfo{Key: key}:
			case <-ctx.Done():
				return
			}
		}
		if err != nil {
			select {
			case ch <- minio.ObjectInfo{Err: err}:
			case <-ctx.Done():
			}
		}
	}()
	return ch
}

// MockSecretsManagerClient is a mock of the Secrets Manager operations used
// by the credential resolver.
type MockSecretsManagerClient struct {
	GetSecretValueFunc func(
		context.Context,
		*secretsmanager.GetSecretValueInput,
		...func(*secretsmanager.Options),
	) (*secretsmanager.GetSecretValueOutput, error)

	mu    sync.Mutex
	calls []string
}

// GetSecretValue mocks the Secrets Manager GetSecretValue operation.
func (m *MockSecretsManagerClient) GetSecretValue(
	ctx context.Context,
	params *secretsmanager.GetSecretValueInput,
	optFns ...func(*secretsmanager.Options),
) (*secretsmanager.GetSecretValueOutput, error) {
	m.mu.Lock()
	if params != nil && params.SecretId != nil {
		m.calls = append(m.calls, *params.SecretId)
	}
	m.mu.Unlock()

	if m.GetSecretValueFunc != nil {
		return m.GetSecretValueFunc(ctx, params, optFns...)
	}
	return &secretsmanager.GetSecretValueOutput{}, nil
}

// Calls returns the secret ids requested so far.
func (m *MockSecretsManagerClient) Calls() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.calls...)
}
