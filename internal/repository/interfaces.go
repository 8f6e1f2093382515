package repository

import (
	"context"
	"image"
)

// ImageRef identifies a source image either by upload id or by remote URL.
// Exactly one of the two fields must be set.
type ImageRef struct {
	ID  string
	URL string
}

// Validate checks that the reference is usable.
func (r ImageRef) Validate() error {
	if (r.ID == "") == (r.URL == "") {
		return ErrInvalidRef
	}
	return nil
}

// String returns the reference in the form echoed back in responses.
func (r ImageRef) String() string {
	if r.ID != "" {
		return "upload:" + r.ID
	}
	return r.URL
}

// Metadata describes the resolved source image.
type Metadata struct {
	Source        string
	ContentType   string
	ContentLength int64
	Width         int
	Height        int
	Format        string
}

// ImageRepository resolves an image reference into a normalized grayscale
// image ready for analysis.
type ImageRepository interface {
	// Resolve loads the referenced image, converts it to 8-bit grayscale
	// anchored at the origin, and reports its metadata.
	Resolve(ctx context.Context, ref ImageRef) (*image.Gray, *Metadata, error)
}
