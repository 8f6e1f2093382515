package service

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"image"
	"io"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"go-psr-analyzer/internal/analyzer"
	apperrors "go-psr-analyzer/internal/errors"
	"go-psr-analyzer/internal/logger"
	"go-psr-analyzer/internal/observer"
	"go-psr-analyzer/internal/render"
	"go-psr-analyzer/internal/repository"
	"go-psr-analyzer/internal/storage"
	"go-psr-analyzer/pkg/models"
	"go-psr-analyzer/pkg/services"
	"go-psr-analyzer/pkg/validation"
)

// AnalysisService is the application facade: it resolves source images, runs
// the pipeline and assembles transport payloads.
type AnalysisService interface {
	Analyze(ctx context.Context, request models.AnalyzeRequest) (*models.AnalyzeResponse, error)
	Preview(ctx context.Context, panelName string, request models.AnalyzeRequest) (*models.PreviewResponse, error)
	Export(ctx context.Context, request models.ExportRequest) (*models.ExportResponse, error)

	Upload(ctx context.Context, r io.Reader) (*models.UploadResponse, error)
	GetUpload(id string) (*models.UploadResponse, error)
	DeleteUpload(id string) error

	Defaults() *models.DefaultsResponse
	Health() map[string]interface{}

	// Close drains the export workers and releases the upload store.
	Close()
}

// Dependencies carries everything the service needs. The container owns
// construction order.
type Dependencies struct {
	Repository   repository.ImageRepository
	Uploads      storage.UploadStore
	Artifacts    storage.ArtifactStore
	Pipeline     analyzer.Pipeline
	Builder      *services.ReportBuilder
	URLs         *validation.URLValidator
	Publisher    observer.Subject
	Metrics      *observer.MetricsObserver
	Workers      *WorkerPool
	Defaults     analyzer.Params
	Timeout      time.Duration
	MaxDimension int
}

const (
	serviceName    = "CHANDRA PSR Analyzer"
	serviceVersion = "v1"
)

type analysisService struct {
	deps    Dependencies
	started time.Time
}

// NewAnalysisService creates the service and starts its export workers.
func NewAnalysisService(deps Dependencies) AnalysisService {
	if deps.Workers != nil {
		deps.Workers.Start()
	}
	return &analysisService{deps: deps, started: time.Now()}
}

// Analyze runs the full pipeline over the referenced image.
func (s *analysisService) Analyze(ctx context.Context, request models.AnalyzeRequest) (*models.AnalyzeResponse, error) {
	start := time.Now()
	ref := repository.ImageRef{ID: request.ImageID, URL: request.ImageURL}
	s.publish(ctx, observer.AnalysisStarted, ref.String(), 0, true, "")

	img, meta, err := s.resolve(ctx, ref)
	if err != nil {
		s.publish(ctx, observer.AnalysisFailed, ref.String(), time.Since(start), false, err.Error())
		return nil, err
	}

	params := services.MergeParameters(s.deps.Defaults, request.Parameters)

	runCtx, cancel := s.runContext(ctx)
	defer cancel()

	report, err := s.deps.Pipeline.Run(img, params)
	if err != nil {
		s.publish(ctx, observer.AnalysisFailed, ref.String(), time.Since(start), false, err.Error())
		return nil, err
	}
	warnDegenerate(ref.String(), report)

	response, err := s.deps.Builder.BuildAnalyzeResponse(runCtx, ref.String(), toImageMetadata(meta), report, time.Since(start), request.OmitPanels)
	if err != nil {
		s.publish(ctx, observer.AnalysisFailed, ref.String(), time.Since(start), false, err.Error())
		return nil, mapRenderError(err)
	}

	s.publish(ctx, observer.AnalysisCompleted, ref.String(), time.Since(start), true, "")
	return response, nil
}

// Preview runs only the stages the requested panel needs and renders it.
func (s *analysisService) Preview(ctx context.Context, panelName string, request models.AnalyzeRequest) (*models.PreviewResponse, error) {
	start := time.Now()

	panel, err := render.ParsePanel(panelName)
	if err != nil {
		return nil, err
	}

	ref := repository.ImageRef{ID: request.ImageID, URL: request.ImageURL}
	img, _, err := s.resolve(ctx, ref)
	if err != nil {
		return nil, err
	}

	params := services.MergeParameters(s.deps.Defaults, request.Parameters)
	report, err := s.deps.Pipeline.RunSelection(img, params, panel.Selection())
	if err != nil {
		return nil, err
	}
	warnDegenerate(ref.String(), report)

	response, err := s.deps.Builder.BuildPreviewResponse(ref.String(), panel, report, time.Since(start))
	if err != nil {
		return nil, mapRenderError(err)
	}
	return response, nil
}

// Export resolves and validates the request synchronously, then queues the
// analysis and artifact writes on the worker pool.
func (s *analysisService) Export(ctx context.Context, request models.ExportRequest) (*models.ExportResponse, error) {
	ref := repository.ImageRef{ID: request.ImageID, URL: request.ImageURL}
	img, _, err := s.resolve(ctx, ref)
	if err != nil {
		return nil, err
	}

	params := services.MergeParameters(s.deps.Defaults, request.Parameters)
	if err := params.Validate(); err != nil {
		return nil, err
	}

	exportID := uuid.NewString()
	name := request.Name
	if name == "" {
		name = "psr_" + exportID
	}
	imageName := name + "_analysis.png"
	statsName := name + "_statistics.json"

	s.publish(ctx, observer.ExportQueued, ref.String(), 0, true, "")

	s.deps.Workers.Submit(func() {
		s.runExport(ref.String(), img, params, imageName, statsName)
	})

	return &models.ExportResponse{
		ExportID:  exportID,
		Status:    "queued",
		Artifacts: []string{imageName, statsName},
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	}, nil
}

// runExport is the worker-side half of Export. It runs detached from the
// request context.
func (s *analysisService) runExport(ref string, img *image.Gray, params analyzer.Params, imageName, statsName string) {
	start := time.Now()
	ctx, cancel := s.runContext(context.Background())
	defer cancel()

	report, err := s.deps.Pipeline.Run(img, params)
	if err != nil {
		s.publish(ctx, observer.ExportFailed, ref, time.Since(start), false, err.Error())
		return
	}
	warnDegenerate(ref, report)

	composite, statsJSON, err := s.deps.Builder.BuildExportArtifacts(report)
	if err != nil {
		s.publish(ctx, observer.ExportFailed, ref, time.Since(start), false, err.Error())
		return
	}

	if _, err := s.deps.Artifacts.Put(ctx, imageName, "image/png", composite); err != nil {
		s.publish(ctx, observer.ExportFailed, ref, time.Since(start), false, err.Error())
		return
	}
	if _, err := s.deps.Artifacts.Put(ctx, statsName, "application/json", statsJSON); err != nil {
		s.publish(ctx, observer.ExportFailed, ref, time.Since(start), false, err.Error())
		return
	}

	s.publish(ctx, observer.ExportCompleted, ref, time.Since(start), true, "")
}

// Upload decodes, normalizes and stores an image, returning its id and a
// preview thumbnail.
func (s *analysisService) Upload(ctx context.Context, r io.Reader) (*models.UploadResponse, error) {
	src, _, err := image.Decode(r)
	if err != nil {
		return nil, apperrors.NewValidationError("invalid image file", err)
	}

	gray := repository.ToGray(src)
	w, h := gray.Bounds().Dx(), gray.Bounds().Dy()
	if s.deps.MaxDimension > 0 && (w > s.deps.MaxDimension || h > s.deps.MaxDimension) {
		return nil, apperrors.NewValidationError(
			fmt.Sprintf("image is %dx%d, limit is %d", w, h, s.deps.MaxDimension), nil)
	}

	up, err := s.deps.Uploads.Save(gray)
	if err != nil {
		return nil, apperrors.NewInternalError("failed to store upload", err)
	}
	return s.uploadResponse(up)
}

// GetUpload returns the stored upload's metadata and preview.
func (s *analysisService) GetUpload(id string) (*models.UploadResponse, error) {
	up, err := s.deps.Uploads.Get(id)
	if err != nil {
		return nil, mapUploadError(err)
	}
	return s.uploadResponse(up)
}

// DeleteUpload removes a stored upload.
func (s *analysisService) DeleteUpload(id string) error {
	if err := s.deps.Uploads.Delete(id); err != nil {
		return mapUploadError(err)
	}
	return nil
}

// Defaults reports the default parameters and their accepted ranges.
func (s *analysisService) Defaults() *models.DefaultsResponse {
	return &models.DefaultsResponse{
		Parameters: services.ParameterValues(s.deps.Defaults),
		Ranges:     services.ParameterRanges(),
	}
}

// Health reports service liveness and the accumulated metrics.
func (s *analysisService) Health() map[string]interface{} {
	health := map[string]interface{}{
		"status":         "healthy",
		"service":        serviceName,
		"version":        serviceVersion,
		"uptime_seconds": int64(time.Since(s.started).Seconds()),
	}
	if s.deps.Metrics != nil {
		health["metrics"] = s.deps.Metrics.GetMetrics()
	}
	return health
}

func (s *analysisService) Close() {
	if s.deps.Workers != nil {
		s.deps.Workers.Close()
	}
	if s.deps.Uploads != nil {
		s.deps.Uploads.Close()
	}
}

func (s *analysisService) resolve(ctx context.Context, ref repository.ImageRef) (*image.Gray, *repository.Metadata, error) {
	if err := ref.Validate(); err != nil {
		return nil, nil, apperrors.NewValidationError("invalid image reference", err)
	}
	if ref.URL != "" {
		if err := s.deps.URLs.ValidateImageURL(ref.URL); err != nil {
			return nil, nil, err
		}
	}

	img, meta, err := s.deps.Repository.Resolve(ctx, ref)
	if err != nil {
		s.publish(ctx, observer.ImageFetchFailed, ref.String(), 0, false, err.Error())
		return nil, nil, mapResolveError(err)
	}

	s.publish(ctx, observer.ImageFetched, ref.String(), 0, true, "")
	return img, meta, nil
}

func (s *analysisService) runContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if s.deps.Timeout > 0 {
		return context.WithTimeout(ctx, s.deps.Timeout)
	}
	return context.WithCancel(ctx)
}

// warnDegenerate flags zero-dynamic-range inputs. The run itself succeeds
// with well-defined degenerate output.
func warnDegenerate(ref string, report *analyzer.AnalysisReport) {
	if report.Stats == nil || !report.Stats.Degenerate {
		return
	}
	logger.WithFields(logrus.Fields{
		"image_ref":      ref,
		"mean_intensity": report.Stats.MeanIntensity,
	}).Warn("Input image has zero dynamic range; masks and terrain are degenerate")
}

func (s *analysisService) publish(ctx context.Context, eventType observer.EventType, ref string, elapsed time.Duration, success bool, errMsg string) {
	if s.deps.Publisher == nil {
		return
	}
	s.deps.Publisher.NotifyObservers(ctx, observer.AnalysisEvent{
		EventType:      eventType,
		Timestamp:      time.Now().UTC(),
		ImageRef:       ref,
		ProcessingTime: elapsed,
		Success:        success,
		ErrorMessage:   errMsg,
	})
}

func (s *analysisService) uploadResponse(up *storage.Upload) (*models.UploadResponse, error) {
	preview, err := s.deps.Uploads.Preview(up.ID)
	if err != nil {
		return nil, mapUploadError(err)
	}
	return &models.UploadResponse{
		ImageID:   up.ID,
		Width:     up.Width,
		Height:    up.Height,
		SizeBytes: up.SizeBytes,
		Preview:   base64.StdEncoding.EncodeToString(preview),
		CreatedAt: up.CreatedAt.Format(time.RFC3339),
		ExpiresAt: up.ExpiresAt.Format(time.RFC3339),
	}, nil
}

func toImageMetadata(meta *repository.Metadata) models.ImageMetadata {
	if meta == nil {
		return models.ImageMetadata{}
	}
	return models.ImageMetadata{
		Source:        meta.Source,
		ContentType:   meta.ContentType,
		ContentLength: meta.ContentLength,
		Width:         meta.Width,
		Height:        meta.Height,
		Format:        meta.Format,
	}
}

func mapResolveError(err error) error {
	var appErr *apperrors.AppError
	if errors.As(err, &appErr) {
		return err
	}
	switch {
	case errors.Is(err, repository.ErrInvalidRef):
		return apperrors.NewValidationError("invalid image reference", err)
	case errors.Is(err, repository.ErrImageNotFound):
		return apperrors.NewNotFoundError("image not found", err)
	case errors.Is(err, repository.ErrImageTooLarge):
		return apperrors.NewValidationError("image exceeds the dimension limit", err)
	case errors.Is(err, context.DeadlineExceeded):
		return apperrors.NewTimeoutError("image fetch timeout", err)
	default:
		return apperrors.NewNetworkError("failed to fetch image", err)
	}
}

func mapUploadError(err error) error {
	if errors.Is(err, storage.ErrUploadNotFound) {
		return apperrors.NewNotFoundError("upload not found", err)
	}
	return apperrors.NewInternalError("upload store failure", err)
}

func mapRenderError(err error) error {
	var appErr *apperrors.AppError
	if errors.As(err, &appErr) {
		return err
	}
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return apperrors.NewTimeoutError("analysis timed out", err)
	}
	return apperrors.NewProcessingError("failed to render analysis output", err)
}
