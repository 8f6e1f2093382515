package repository

import (
	"context"
	"errors"
	"fmt"
	"image"
	"image/draw"

	"go-psr-analyzer/internal/storage"
)

// sourceRepository resolves references against the upload store first and
// falls back to HTTP for URL references.
type sourceRepository struct {
	uploads storage.UploadStore
	fetcher storage.ImageFetcher
	maxDim  int
}

// NewSourceRepository creates an ImageRepository over the given upload store
// and fetcher. Images wider or taller than maxDimension are rejected;
// maxDimension <= 0 disables the check.
func NewSourceRepository(uploads storage.UploadStore, fetcher storage.ImageFetcher, maxDimension int) ImageRepository {
	return &sourceRepository{
		uploads: uploads,
		fetcher: fetcher,
		maxDim:  maxDimension,
	}
}

func (r *sourceRepository) Resolve(ctx context.Context, ref ImageRef) (*image.Gray, *Metadata, error) {
	if err := ref.Validate(); err != nil {
		return nil, nil, err
	}
	if ref.ID != "" {
		return r.fromUpload(ref.ID)
	}
	return r.fromURL(ctx, ref.URL)
}

func (r *sourceRepository) fromUpload(id string) (*image.Gray, *Metadata, error) {
	up, err := r.uploads.Get(id)
	if err != nil {
		if errors.Is(err, storage.ErrUploadNotFound) {
			return nil, nil, fmt.Errorf("upload %s: %w", id, ErrImageNotFound)
		}
		return nil, nil, err
	}

	img, err := r.uploads.Image(id)
	if err != nil {
		if errors.Is(err, storage.ErrUploadNotFound) {
			return nil, nil, fmt.Errorf("upload %s: %w", id, ErrImageNotFound)
		}
		return nil, nil, err
	}
	if err := r.checkDimensions(img.Bounds().Dx(), img.Bounds().Dy()); err != nil {
		return nil, nil, err
	}

	meta := &Metadata{
		Source:        "upload:" + id,
		ContentType:   "image/png",
		ContentLength: up.SizeBytes,
		Width:         up.Width,
		Height:        up.Height,
		Format:        "png",
	}
	return img, meta, nil
}

func (r *sourceRepository) fromURL(ctx context.Context, imageURL string) (*image.Gray, *Metadata, error) {
	img, format, err := r.fetcher.FetchImage(ctx, imageURL)
	if err != nil {
		return nil, nil, err
	}

	gray := ToGray(img)
	if err := r.checkDimensions(gray.Bounds().Dx(), gray.Bounds().Dy()); err != nil {
		return nil, nil, err
	}

	meta := &Metadata{
		Source:      imageURL,
		ContentType: "image/" + format,
		Width:       gray.Bounds().Dx(),
		Height:      gray.Bounds().Dy(),
		Format:      format,
	}
	return gray, meta, nil
}

func (r *sourceRepository) checkDimensions(w, h int) error {
	if r.maxDim > 0 && (w > r.maxDim || h > r.maxDim) {
		return fmt.Errorf("image is %dx%d, limit is %d: %w", w, h, r.maxDim, ErrImageTooLarge)
	}
	return nil
}

// ToGray converts any decoded image to 8-bit grayscale anchored at the
// origin. Already-conforming images pass through unchanged.
func ToGray(src image.Image) *image.Gray {
	if g, ok := src.(*image.Gray); ok && g.Bounds().Min == (image.Point{}) {
		return g
	}
	b := src.Bounds()
	dst := image.NewGray(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(dst, dst.Bounds(), src, b.Min, draw.Src)
	return dst
}
