// Package azure implements the object store abstraction on Azure Blob Storage.
package azure

import (
	"context"
	stderrors "errors"
	"net/http"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore"
	"github.com/Azure/azure-sdk-for-go/sdk/azcore/runtime"
	"github.com/Azure/azure-sdk-for-go/sdk/azcore/to"
	"github.com/Azure/azure-sdk-for-go/sdk/azidentity"
	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob"
	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob/bloberror"

	"github.com/caybokotze/bulk-blob-storage-deletion/errors"
	"github.com/caybokotze/bulk-blob-storage-deletion/internal/storeapi"
)

// BlobAPI is the subset of *azblob.Client used by the store.
// It exists so tests can substitute fake pagers and delete responses.
type BlobAPI interface {
	NewListContainersPager(o *azblob.ListContainersOptions) *runtime.Pager[azblob.ListContainersResponse]
	NewListBlobsFlatPager(containerName string, o *azblob.ListBlobsFlatOptions) *runtime.Pager[azblob.ListBlobsFlatResponse]
	DeleteBlob(
		ctx context.Context,
		containerName, blobName string,
		o *azblob.DeleteBlobOptions,
	) (azblob.DeleteBlobResponse, error)
}

// Store is a storeapi.Store backed by an Azure storage account.
type Store struct {
	client BlobAPI
}

// NewFromConnectionString connects with an account connection string.
func NewFromConnectionString(connectionString string) (*Store, error) {
	client, err := azblob.NewClientFromConnectionString(connectionString, nil)
	if err != nil {
		return nil, errors.NewError("connect", errors.ErrInvalidCredentials).WithMessage(err.Error())
	}
	return New(client), nil
}

// NewFromAccountURL connects to an account URL using the default Azure
// credential chain (environment, workload identity, managed identity, CLI).
func NewFromAccountURL(accountURL string) (*Store, error) {
	cred, err := azidentity.NewDefaultAzureCredential(nil)
	if err != nil {
		return nil, errors.NewError("connect", errors.ErrInvalidCredentials).WithMessage(err.Error())
	}
	client, err := azblob.NewClient(accountURL, cred, nil)
	if err != nil {
		return nil, errors.NewError("connect", errors.ErrInvalidInput).WithMessage(err.Error())
	}
	return New(client), nil
}

// New wraps an existing client.
func New(client BlobAPI) *Store {
	return &Store{client: client}
}

// NewContainerPager lists the account's containers.
func (s *Store) NewContainerPager() storeapi.Pager {
	return &pager[azblob.ListContainersResponse]{
		inner: s.client.NewListContainersPager(nil),
		names: func(page azblob.ListContainersResponse) []string {
			names := make([]string, 0, len(page.ContainerItems))
			for _, item := range page.ContainerItems {
				if item != nil && item.Name != nil {
					names = append(names, *item.Name)
				}
			}
			return names
		},
	}
}

// NewObjectPager lists the blobs of a container in a flat listing.
func (s *Store) NewObjectPager(container string) storeapi.Pager {
	return &pager[azblob.ListBlobsFlatResponse]{
		inner: s.client.NewListBlobsFlatPager(container, nil),
		names: func(page azblob.ListBlobsFlatResponse) []string {
			if page.Segment == nil {
				return nil
			}
			names := make([]string, 0, len(page.Segment.BlobItems))
			for _, item := range page.Segment.BlobItems {
				if item != nil && item.Name != nil {
					names = append(names, *item.Name)
				}
			}
			return names
		},
	}
}

// DeleteObject deletes a blob together with its snapshots if it exists.
func (s *Store) DeleteObject(ctx context.Context, container, key string) (bool, error) {
	_, err := s.client.DeleteBlob(ctx, container, key, &azblob.DeleteBlobOptions{
		DeleteSnapshots: to.Ptr(azblob.DeleteSnapshotsOptionTypeInclude),
	})
	if err == nil {
		return true, nil
	}
	if bloberror.HasCode(err, bloberror.BlobNotFound) {
		return false, nil
	}
	return false, errors.NewObjectError("delete", container, key, convertError(err))
}

// pager adapts an SDK pager to storeapi.Pager.
type pager[T any] struct {
	inner *runtime.Pager[T]
	names func(T) []string
}

func (p *pager[T]) More() bool {
	return p.inner.More()
}

func (p *pager[T]) NextPage(ctx context.Context) ([]string, error) {
	page, err := p.inner.NextPage(ctx)
	if err != nil {
		return nil, convertError(err)
	}
	return p.names(page), nil
}

// convertError maps Azure service errors onto the package sentinels while
// keeping the original error in the chain.
func convertError(err error) error {
	if err == nil {
		return nil
	}

	var sentinel error
	switch {
	case bloberror.HasCode(err, bloberror.BlobNotFound):
		sentinel = errors.ErrObjectNotFound
	case bloberror.HasCode(err, bloberror.ContainerNotFound, bloberror.ContainerBeingDeleted):
		sentinel = errors.ErrContainerNotFound
	case bloberror.HasCode(err, bloberror.AuthenticationFailed, bloberror.InvalidAuthenticationInfo):
		sentinel = errors.ErrInvalidCredentials
	case bloberror.HasCode(err,
		bloberror.AuthorizationFailure,
		bloberror.AuthorizationPermissionMismatch,
		bloberror.InsufficientAccountPermissions):
		sentinel = errors.ErrAccessDenied
	}

	if sentinel == nil {
		var respErr *azcore.ResponseError
		if stderrors.As(err, &respErr) {
			switch respErr.StatusCode {
			case http.StatusNotFound:
				sentinel = errors.ErrContainerNotFound
			case http.StatusUnauthorized:
				sentinel = errors.ErrInvalidCredentials
			case http.StatusForbidden:
				sentinel = errors.ErrAccessDenied
			}
		}
	}

	return errors.Classify(sentinel, err)
}

var _ storeapi.Store = (*Store)(nil)
