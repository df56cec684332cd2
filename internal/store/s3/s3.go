// Package s3 implements the object store abstraction on Amazon S3 and
// S3-compatible services. Buckets play the role of containers.
package s3

import (
	"context"
	stderrors "errors"
	"net"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/aws/smithy-go"

	"github.com/caybokotze/bulk-blob-storage-deletion/errors"
	"github.com/caybokotze/bulk-blob-storage-deletion/internal/store/connstr"
	"github.com/caybokotze/bulk-blob-storage-deletion/internal/storeapi"
)

const defaultRegion = "us-east-1"

// API is the subset of the S3 client used by the store.
// This interface allows for mocking in tests.
type API interface {
	ListBuckets(ctx context.Context, params *s3.ListBucketsInput, optFns ...func(*s3.Options)) (*s3.ListBucketsOutput, error)

	ListObjectsV2(
		ctx context.Context,
		params *s3.ListObjectsV2Input,
		optFns ...func(*s3.Options),
	) (*s3.ListObjectsV2Output, error)

	DeleteObject(
		ctx context.Context,
		params *s3.DeleteObjectInput,
		optFns ...func(*s3.Options),
	) (*s3.DeleteObjectOutput, error)
}

// Store is a storeapi.Store backed by S3.
type Store struct {
	client API
}

// New wraps an existing client.
func New(client API) *Store {
	return &Store{client: client}
}

// Open builds a client from a connection string such as
//
//	Endpoint=http://localhost:4566;Region=us-east-1;AccessKey=test;SecretKey=test;PathStyle=true
//
// Every key is optional. Without AccessKey the default AWS credential chain
// is used, and without Endpoint the regional AWS endpoint is used.
func Open(ctx context.Context, connectionString string) (*Store, error) {
	values, err := connstr.Parse(connectionString)
	if err != nil {
		return nil, err
	}

	region := values.Get(connstr.KeyRegion)
	if region == "" {
		region = defaultRegion
	}

	loadOpts := []func(*config.LoadOptions) error{config.WithRegion(region)}
	if ak := values.Get(connstr.KeyAccessKey); ak != "" {
		loadOpts = append(loadOpts, config.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(ak, values.Get(connstr.KeySecretKey), values.Get(connstr.KeySessionToken)),
		))
	}

	cfg, err := config.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return nil, errors.NewError("connect", errors.ErrInvalidCredentials).WithMessage(err.Error())
	}

	endpoint := values.Get(connstr.KeyEndpoint)
	pathStyle := values.Bool(connstr.KeyPathStyle, endpoint != "")

	client := s3.NewFromConfig(cfg, func(o *s3.Options) {
		if endpoint != "" {
			o.BaseEndpoint = aws.String(endpoint)
		}
		o.UsePathStyle = pathStyle
	})

	return New(client), nil
}

// NewContainerPager lists the account's buckets.
func (s *Store) NewContainerPager() storeapi.Pager {
	return &bucketPager{
		inner: s3.NewListBucketsPaginator(s.client, &s3.ListBucketsInput{}),
	}
}

// NewObjectPager lists a bucket's keys with ListObjectsV2.
func (s *Store) NewObjectPager(container string) storeapi.Pager {
	return &objectPager{
		inner: s3.NewListObjectsV2Paginator(s.client, &s3.ListObjectsV2Input{
			Bucket: aws.String(container),
		}),
	}
}

// DeleteObject deletes a single key.
// S3 acknowledges deletes of absent keys, so deleted is only false when the
// service explicitly reports the key as missing.
func (s *Store) DeleteObject(ctx context.Context, container, key string) (bool, error) {
	_, err := s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(container),
		Key:    aws.String(key),
	})
	if err == nil {
		return true, nil
	}

	converted := convertAWSError(err)
	if errors.IsObjectNotFound(converted) {
		return false, nil
	}
	return false, errors.NewObjectError("delete", container, key, converted)
}

type bucketPager struct {
	inner *s3.ListBucketsPaginator
}

func (p *bucketPager) More() bool {
	return p.inner.HasMorePages()
}

func (p *bucketPager) NextPage(ctx context.Context) ([]string, error) {
	out, err := p.inner.NextPage(ctx)
	if err != nil {
		return nil, convertAWSError(err)
	}
	names := make([]string, 0, len(out.Buckets))
	for _, b := range out.Buckets {
		if b.Name != nil {
			names = append(names, *b.Name)
		}
	}
	return names, nil
}

type objectPager struct {
	inner *s3.ListObjectsV2Paginator
}

func (p *objectPager) More() bool {
	return p.inner.HasMorePages()
}

func (p *objectPager) NextPage(ctx context.Context) ([]string, error) {
	out, err := p.inner.NextPage(ctx)
	if err != nil {
		return nil, convertAWSError(err)
	}
	keys := make([]string, 0, len(out.Contents))
	for _, obj := range out.Contents {
		if obj.Key != nil {
			keys = append(keys, *obj.Key)
		}
	}
	return keys, nil
}

// convertAWSError converts AWS SDK errors to the package sentinels.
func convertAWSError(err error) error {
	if err == nil {
		return nil
	}

	var noSuchBucket *types.NoSuchBucket
	if stderrors.As(err, &noSuchBucket) {
		return errors.Classify(errors.ErrContainerNotFound, err)
	}

	var noSuchKey *types.NoSuchKey
	if stderrors.As(err, &noSuchKey) {
		return errors.Classify(errors.ErrObjectNotFound, err)
	}

	var apiErr smithy.APIError
	if stderrors.As(err, &apiErr) {
		switch apiErr.ErrorCode() {
		case "NoSuchBucket":
			return errors.Classify(errors.ErrContainerNotFound, err)
		case "NoSuchKey", "NotFound":
			return errors.Classify(errors.ErrObjectNotFound, err)
		case "AccessDenied", "AllAccessDisabled", "AccountProblem":
			return errors.Classify(errors.ErrAccessDenied, err)
		case "InvalidAccessKeyId", "SignatureDoesNotMatch", "ExpiredToken", "InvalidToken":
			return errors.Classify(errors.ErrInvalidCredentials, err)
		case "RequestTimeout":
			return errors.Classify(errors.ErrTimeout, err)
		}
	}

	var netErr net.Error
	if stderrors.As(err, &netErr) {
		if netErr.Timeout() {
			return errors.Classify(errors.ErrTimeout, err)
		}
		return errors.Classify(errors.ErrConnection, err)
	}

	return err
}

var _ storeapi.Store = (*Store)(nil)
