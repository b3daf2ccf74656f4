package azureblob

import (
	"context"
	"errors"
	"io"
	"strings"
	"time"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore"
	"github.com/Azure/azure-sdk-for-go/sdk/azcore/policy"
	"github.com/Azure/azure-sdk-for-go/sdk/azcore/to"
	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob"
	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob/blob"
	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob/bloberror"

	"facility-portal/internal/ports/blobstore"
)

const DefaultPageSize int32 = 1000

// RetryOptions: los códigos transitorios de Storage se reintentan en List y Put.
// Get no reintenta (ver readRetry); el fetcher corta cada lectura por su cuenta.
var RetryOptions = policy.RetryOptions{
	MaxRetries:    3,
	TryTimeout:    30 * time.Second,
	RetryDelay:    500 * time.Millisecond,
	MaxRetryDelay: 5 * time.Second,
	StatusCodes:   []int{408, 429, 500, 502, 503, 504},
}

// BlobStore lee y escribe los objetos de telemetría en un container de Azure Blob Storage.
type BlobStore struct {
	client    *azblob.Client
	container string
	pageSize  int32
	readRetry policy.RetryOptions
}

type Options struct {
	Retry    *policy.RetryOptions // nil => RetryOptions
	PageSize int32
}

func New(connStr, container string, opts Options) (*BlobStore, error) {
	if strings.TrimSpace(container) == "" {
		return nil, errors.New("azblob: container required")
	}
	retry := RetryOptions
	if opts.Retry != nil {
		retry = *opts.Retry
	}
	if opts.PageSize <= 0 {
		opts.PageSize = DefaultPageSize
	}

	client, err := azblob.NewClientFromConnectionString(connStr, &azblob.ClientOptions{
		ClientOptions: azcore.ClientOptions{Retry: retry},
	})
	if err != nil {
		return nil, err
	}
	readRetry := retry
	readRetry.MaxRetries = -1 // < 0: un solo intento
	return &BlobStore{client: client, container: container, pageSize: opts.PageSize, readRetry: readRetry}, nil
}

// List pide una sola página desde cursor (el NextMarker de Azure).
func (s *BlobStore) List(ctx context.Context, prefix, cursor string) (blobstore.Page, error) {
	opts := &azblob.ListBlobsFlatOptions{MaxResults: to.Ptr(s.pageSize)}
	if prefix != "" {
		opts.Prefix = to.Ptr(prefix)
	}
	if cursor != "" {
		opts.Marker = to.Ptr(cursor)
	}

	pager := s.client.NewListBlobsFlatPager(s.container, opts)
	resp, err := pager.NextPage(ctx)
	if err != nil {
		return blobstore.Page{}, err
	}

	page := blobstore.Page{Keys: []string{}}
	if resp.Segment != nil {
		for _, item := range resp.Segment.BlobItems {
			if item != nil && item.Name != nil {
				page.Keys = append(page.Keys, *item.Name)
			}
		}
	}
	if resp.NextMarker != nil {
		page.NextCursor = *resp.NextMarker
	}
	return page, nil
}

// Get hace un único intento: un día que falla cuenta como skipped.
func (s *BlobStore) Get(ctx context.Context, key string) ([]byte, error) {
	ctx = policy.WithRetryOptions(ctx, s.readRetry)
	resp, err := s.client.DownloadStream(ctx, s.container, key, nil)
	if err != nil {
		if bloberror.HasCode(err, bloberror.BlobNotFound) {
			return nil, blobstore.ErrNotFound
		}
		return nil, err
	}
	defer resp.Body.Close()
	return io.ReadAll(resp.Body)
}

func (s *BlobStore) Put(ctx context.Context, key string, body []byte) error {
	_, err := s.client.UploadBuffer(ctx, s.container, key, body, &azblob.UploadBufferOptions{
		HTTPHeaders: &blob.HTTPHeaders{BlobContentType: to.Ptr(contentType(key))},
	})
	return err
}

// EnsureContainer crea el container si no existe (arranque en dev / Azurite).
func (s *BlobStore) EnsureContainer(ctx context.Context) error {
	_, err := s.client.CreateContainer(ctx, s.container, nil)
	if err != nil && !bloberror.HasCode(err, bloberror.ContainerAlreadyExists) {
		return err
	}
	return nil
}

func contentType(key string) string {
	if strings.HasSuffix(key, ".ndjson") {
		return "application/x-ndjson"
	}
	return "application/json"
}
