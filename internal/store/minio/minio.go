// Package minio implements the object store abstraction on MinIO and other
// S3-compatible servers through minio-go.
package minio

import (
	"context"
	"net/http"
	"net/url"
	"strings"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"github.com/caybokotze/bulk-blob-storage-deletion/errors"
	"github.com/caybokotze/bulk-blob-storage-deletion/internal/store/connstr"
	"github.com/caybokotze/bulk-blob-storage-deletion/internal/storeapi"
)

// DefaultPageSize is how many keys each listing page holds.
const DefaultPageSize = 1000

// API is the subset of *minio.Client used by the store.
type API interface {
	ListBuckets(ctx context.Context) ([]minio.BucketInfo, error)
	ListObjects(ctx context.Context, bucketName string, opts minio.ListObjectsOptions) <-chan minio.ObjectInfo
	RemoveObject(ctx context.Context, bucketName, objectName string, opts minio.RemoveObjectOptions) error
}

// Store is a storeapi.Store backed by a MinIO server.
type Store struct {
	client   API
	pageSize int
}

// New wraps an existing client.
func New(client API) *Store {
	return &Store{client: client, pageSize: DefaultPageSize}
}

// Open connects using a connection string such as
//
//	Endpoint=https://minio.internal:9000;AccessKey=admin;SecretKey=secret
//
// Endpoint is required. A scheme selects TLS; without one UseSSL decides.
func Open(connectionString string) (*Store, error) {
	values, err := connstr.Parse(connectionString)
	if err != nil {
		return nil, err
	}

	raw := values.Get(connstr.KeyEndpoint)
	if raw == "" {
		return nil, errors.NewError("connect", errors.ErrInvalidCredentials).
			WithMessage("connection string has no Endpoint")
	}

	host, secure := raw, values.Bool(connstr.KeyUseSSL, false)
	if strings.Contains(raw, "://") {
		u, err := url.Parse(raw)
		if err != nil || u.Host == "" {
			return nil, errors.NewError("connect", errors.ErrInvalidInput).
				WithMessage("invalid Endpoint " + raw)
		}
		host, secure = u.Host, u.Scheme == "https"
	}

	opts := &minio.Options{
		Secure: secure,
		Region: values.Get(connstr.KeyRegion),
	}
	if ak := values.Get(connstr.KeyAccessKey); ak != "" {
		opts.Creds = credentials.NewStaticV4(ak, values.Get(connstr.KeySecretKey), values.Get(connstr.KeySessionToken))
	} else {
		opts.Creds = credentials.NewEnvMinio()
	}
	if values.Bool(connstr.KeyPathStyle, true) {
		opts.BucketLookup = minio.BucketLookupPath
	}

	client, err := minio.New(host, opts)
	if err != nil {
		return nil, errors.NewError("connect", errors.ErrInvalidInput).WithMessage(err.Error())
	}
	return New(client), nil
}

// NewContainerPager lists buckets. The server returns them in one response.
func (s *Store) NewContainerPager() storeapi.Pager {
	return &bucketPager{client: s.client}
}

// NewObjectPager streams the bucket listing and groups it into pages.
func (s *Store) NewObjectPager(container string) storeapi.Pager {
	return &objectPager{client: s.client, bucket: container, pageSize: s.pageSize}
}

// DeleteObject removes a single object. The server acknowledges removal of
// absent objects, so deleted is false only on an explicit NoSuchKey.
func (s *Store) DeleteObject(ctx context.Context, container, key string) (bool, error) {
	err := s.client.RemoveObject(ctx, container, key, minio.RemoveObjectOptions{})
	if err == nil {
		return true, nil
	}
	converted := translateError(err)
	if errors.IsObjectNotFound(converted) {
		return false, nil
	}
	return false, errors.NewObjectError("delete", container, key, converted)
}

type bucketPager struct {
	client API
	done   bool
}

func (p *bucketPager) More() bool {
	return !p.done
}

func (p *bucketPager) NextPage(ctx context.Context) ([]string, error) {
	p.done = true
	buckets, err := p.client.ListBuckets(ctx)
	if err != nil {
		return nil, translateError(err)
	}
	names := make([]string, 0, len(buckets))
	for _, b := range buckets {
		names = append(names, b.Name)
	}
	return names, nil
}

// objectPager drains the listing channel pageSize entries at a time.
// The listing goroutine is bound to the context of the first NextPage call.
type objectPager struct {
	client   API
	bucket   string
	pageSize int

	ch     <-chan minio.ObjectInfo
	cancel context.CancelFunc
	done   bool
}

func (p *objectPager) More() bool {
	return !p.done
}

func (p *objectPager) NextPage(ctx context.Context) ([]string, error) {
	if p.ch == nil {
		listCtx, cancel := context.WithCancel(ctx)
		p.cancel = cancel
		p.ch = p.client.ListObjects(listCtx, p.bucket, minio.ListObjectsOptions{Recursive: true})
	}

	page := make([]string, 0, p.pageSize)
	for len(page) < p.pageSize {
		select {
		case <-ctx.Done():
			p.finish()
			return nil, ctx.Err()
		case obj, ok := <-p.ch:
			if !ok {
				p.finish()
				return page, nil
			}
			if obj.Err != nil {
				p.finish()
				return nil, translateError(obj.Err)
			}
			page = append(page, obj.Key)
		}
	}
	return page, nil
}

func (p *objectPager) finish() {
	p.done = true
	if p.cancel != nil {
		p.cancel()
	}
}

// translateError converts minio error responses to the package sentinels.
func translateError(err error) error {
	if err == nil {
		return nil
	}

	resp := minio.ToErrorResponse(err)
	switch resp.Code {
	case "NoSuchKey":
		return errors.Classify(errors.ErrObjectNotFound, err)
	case "NoSuchBucket":
		return errors.Classify(errors.ErrContainerNotFound, err)
	case "AccessDenied", "AllAccessDisabled":
		return errors.Classify(errors.ErrAccessDenied, err)
	case "InvalidAccessKeyId", "SignatureDoesNotMatch", "ExpiredToken":
		return errors.Classify(errors.ErrInvalidCredentials, err)
	case "RequestTimeout":
		return errors.Classify(errors.ErrTimeout, err)
	}

	switch resp.StatusCode {
	case http.StatusForbidden:
		return errors.Classify(errors.ErrAccessDenied, err)
	case http.StatusUnauthorized:
		return errors.Classify(errors.ErrInvalidCredentials, err)
	}

	return err
}

var _ storeapi.Store = (*Store)(nil)
