package factory

import (
	"context"
	"fmt"
	"image"

	"go-psr-analyzer/internal/config"
	"go-psr-analyzer/internal/storage"
)

// FetcherType selects where URL-referenced images are read from.
type FetcherType string

const (
	// HTTPFetcher reads images from plain HTTP(S) URLs
	HTTPFetcher FetcherType = "http"
	// AzureFetcher reads images from Azure blob URLs
	AzureFetcher FetcherType = "azure"
)

// ArtifactStoreType selects where export artifacts are written.
type ArtifactStoreType string

const (
	// LocalArtifacts writes artifacts to a local directory
	LocalArtifacts ArtifactStoreType = "local"
	// AzureArtifacts writes artifacts to an Azure blob container
	AzureArtifacts ArtifactStoreType = "azure"
)

// StorageFactory creates storage implementations from the configuration.
type StorageFactory interface {
	CreateFetcher(fetcherType FetcherType) (storage.ImageFetcher, error)
	CreateArtifactStore(storeType ArtifactStoreType) (storage.ArtifactStore, error)
}

type storageFactory struct {
	cfg *config.Config
}

// NewStorageFactory creates a storage factory bound to the configuration.
func NewStorageFactory(cfg *config.Config) StorageFactory {
	return &storageFactory{cfg: cfg}
}

// CreateFetcher creates the image fetcher for the specified source type.
func (f *storageFactory) CreateFetcher(fetcherType FetcherType) (storage.ImageFetcher, error) {
	switch fetcherType {
	case HTTPFetcher:
		return storage.NewHTTPImageFetcher(f.cfg.MaxFetchBytes), nil
	case AzureFetcher:
		blobs, err := storage.NewAzureStorage(f.cfg.AzureAccountName, f.cfg.AzureAccountKey)
		if err != nil {
			return nil, err
		}
		return &blobFetcher{blobs: blobs}, nil
	default:
		return nil, fmt.Errorf("unsupported fetcher type: %s", fetcherType)
	}
}

// CreateArtifactStore creates the artifact store for the specified backend.
func (f *storageFactory) CreateArtifactStore(storeType ArtifactStoreType) (storage.ArtifactStore, error) {
	switch storeType {
	case LocalArtifacts:
		return storage.NewLocalArtifactStore(f.cfg.ExportDir)
	case AzureArtifacts:
		return storage.NewAzureArtifactStore(f.cfg.AzureAccountName, f.cfg.AzureAccountKey, f.cfg.AzureContainer)
	default:
		return nil, fmt.Errorf("unsupported artifact store type: %s", storeType)
	}
}

// blobFetcher adapts blob storage to the fetcher interface so the repository
// can resolve blob URLs the same way as HTTP ones.
type blobFetcher struct {
	blobs storage.BlobStorage
}

func (f *blobFetcher) FetchImage(ctx context.Context, imageURL string) (image.Image, string, error) {
	return f.blobs.GetImage(ctx, imageURL)
}
