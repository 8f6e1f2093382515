package storage

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/png"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/anthonynsimon/bild/transform"
	"github.com/google/uuid"
)

// ErrUploadNotFound is returned for ids that were never stored, have
// expired, or are not valid upload ids.
var ErrUploadNotFound = errors.New("upload not found")

// previewMaxSide bounds the longest side of preview thumbnails.
const previewMaxSide = 512

// Upload is the bookkeeping record for one stored image.
type Upload struct {
	ID        string
	Path      string
	Width     int
	Height    int
	SizeBytes int64
	CreatedAt time.Time
	ExpiresAt time.Time
}

// UploadStore keeps uploaded images on disk for a limited time so analysis
// requests can reference them by id.
type UploadStore interface {
	Save(img *image.Gray) (*Upload, error)
	Get(id string) (*Upload, error)
	Image(id string) (*image.Gray, error)
	Preview(id string) ([]byte, error)
	Delete(id string) error
	Close()
}

type diskUploadStore struct {
	dir string
	ttl time.Duration

	mu      sync.RWMutex
	uploads map[string]*Upload

	done      chan struct{}
	closeOnce sync.Once
}

// NewDiskUploadStore creates a store writing PNG files under dir. Entries
// expire after ttl; a janitor goroutine sweeps expired files.
func NewDiskUploadStore(dir string, ttl time.Duration) (UploadStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create upload directory: %w", err)
	}

	s := &diskUploadStore{
		dir:     dir,
		ttl:     ttl,
		uploads: make(map[string]*Upload),
		done:    make(chan struct{}),
	}
	go s.janitor()
	return s, nil
}

func (s *diskUploadStore) Save(img *image.Gray) (*Upload, error) {
	if img == nil {
		return nil, errors.New("no image to store")
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("failed to encode upload: %w", err)
	}

	id := uuid.NewString()
	path := filepath.Join(s.dir, id+".png")
	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		return nil, fmt.Errorf("failed to write upload: %w", err)
	}

	now := time.Now().UTC()
	up := &Upload{
		ID:        id,
		Path:      path,
		Width:     img.Bounds().Dx(),
		Height:    img.Bounds().Dy(),
		SizeBytes: int64(buf.Len()),
		CreatedAt: now,
		ExpiresAt: now.Add(s.ttl),
	}

	s.mu.Lock()
	s.uploads[id] = up
	s.mu.Unlock()

	return up, nil
}

func (s *diskUploadStore) Get(id string) (*Upload, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, ErrUploadNotFound
	}

	s.mu.RLock()
	up, ok := s.uploads[id]
	s.mu.RUnlock()
	if !ok {
		return nil, ErrUploadNotFound
	}
	if time.Now().After(up.ExpiresAt) {
		s.remove(id)
		return nil, ErrUploadNotFound
	}
	return up, nil
}

func (s *diskUploadStore) Image(id string) (*image.Gray, error) {
	up, err := s.Get(id)
	if err != nil {
		return nil, err
	}

	data, err := os.ReadFile(up.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to read upload: %w", err)
	}
	img, err := png.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to decode upload: %w", err)
	}
	gray, ok := img.(*image.Gray)
	if !ok {
		return nil, fmt.Errorf("upload %s is not grayscale", id)
	}
	return gray, nil
}

// Preview renders a PNG thumbnail whose longest side is at most 512 pixels.
func (s *diskUploadStore) Preview(id string) ([]byte, error) {
	img, err := s.Image(id)
	if err != nil {
		return nil, err
	}

	w := img.Bounds().Dx()
	h := img.Bounds().Dy()
	if w > previewMaxSide || h > previewMaxSide {
		scale := float64(previewMaxSide) / float64(max(w, h))
		tw := max(1, int(float64(w)*scale+0.5))
		th := max(1, int(float64(h)*scale+0.5))
		resized := transform.Resize(img, tw, th, transform.Linear)

		var buf bytes.Buffer
		if err := png.Encode(&buf, resized); err != nil {
			return nil, fmt.Errorf("failed to encode preview: %w", err)
		}
		return buf.Bytes(), nil
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("failed to encode preview: %w", err)
	}
	return buf.Bytes(), nil
}

func (s *diskUploadStore) Delete(id string) error {
	if _, err := s.Get(id); err != nil {
		return err
	}
	s.remove(id)
	return nil
}

func (s *diskUploadStore) Close() {
	s.closeOnce.Do(func() {
		close(s.done)
	})
}

func (s *diskUploadStore) remove(id string) {
	s.mu.Lock()
	up, ok := s.uploads[id]
	if ok {
		delete(s.uploads, id)
	}
	s.mu.Unlock()

	if ok {
		os.Remove(up.Path)
	}
}

func (s *diskUploadStore) janitor() {
	interval := s.ttl / 2
	if interval < 10*time.Millisecond {
		interval = 10 * time.Millisecond
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-s.done:
			return
		case now := <-ticker.C:
			s.sweep(now)
		}
	}
}

func (s *diskUploadStore) sweep(now time.Time) {
	s.mu.RLock()
	var expired []string
	for id, up := range s.uploads {
		if now.After(up.ExpiresAt) {
			expired = append(expired, id)
		}
	}
	s.mu.RUnlock()

	for _, id := range expired {
		s.remove(id)
	}
}
