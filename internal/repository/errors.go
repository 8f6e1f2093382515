package repository

import "errors"

var (
	// ErrInvalidRef indicates an image reference that sets neither or both
	// of upload id and URL
	ErrInvalidRef = errors.New("image reference must set exactly one of image_id and image_url")

	// ErrImageNotFound indicates the referenced image was not found
	ErrImageNotFound = errors.New("image not found")

	// ErrImageTooLarge indicates the image exceeds the dimension limit
	ErrImageTooLarge = errors.New("image dimensions exceed limit")
)
