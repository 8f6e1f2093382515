package container

import (
	"fmt"
	"net/http"

	"go-psr-analyzer/internal/analyzer"
	"go-psr-analyzer/internal/config"
	"go-psr-analyzer/internal/factory"
	"go-psr-analyzer/internal/logger"
	"go-psr-analyzer/internal/observer"
	"go-psr-analyzer/internal/render"
	"go-psr-analyzer/internal/repository"
	"go-psr-analyzer/internal/service"
	"go-psr-analyzer/internal/storage"
	"go-psr-analyzer/internal/transport"
	"go-psr-analyzer/pkg/services"
	"go-psr-analyzer/pkg/validation"
)

// Container holds all application dependencies
type Container struct {
	config  *config.Config
	uploads storage.UploadStore
	service service.AnalysisService
	handler http.Handler
}

// NewContainer creates a new dependency injection container
func NewContainer(cfg *config.Config) (*Container, error) {
	logger.SetLevel(cfg.LogLevel)

	uploads, err := storage.NewDiskUploadStore(cfg.UploadDir, cfg.UploadTTL)
	if err != nil {
		return nil, fmt.Errorf("failed to create upload store: %w", err)
	}

	storageFactory := factory.NewStorageFactory(cfg)
	fetcher, err := storageFactory.CreateFetcher(factory.FetcherType(cfg.ImageSource))
	if err != nil {
		return nil, fmt.Errorf("failed to create image fetcher: %w", err)
	}
	artifacts, err := storageFactory.CreateArtifactStore(factory.ArtifactStoreType(cfg.ExportBackend))
	if err != nil {
		return nil, fmt.Errorf("failed to create artifact store: %w", err)
	}

	publisher := observer.NewEventPublisher()
	metrics := observer.NewMetricsObserver()
	publisher.Subscribe(observer.NewLoggingObserver(logger.Logger))
	publisher.Subscribe(metrics)

	builder := services.NewReportBuilder(render.NewRenderer(), validation.NewLandingValidator())

	var urls *validation.URLValidator
	if len(cfg.AllowedHosts) > 0 {
		urls = validation.NewURLValidatorWithOptions([]string{"http", "https"}, cfg.AllowedHosts)
	} else {
		urls = validation.NewURLValidator()
	}

	analysisService := service.NewAnalysisService(service.Dependencies{
		Repository:   repository.NewSourceRepository(uploads, fetcher, cfg.MaxImageDimension),
		Uploads:      uploads,
		Artifacts:    artifacts,
		Pipeline:     analyzer.NewPipeline(),
		Builder:      builder,
		URLs:         urls,
		Publisher:    publisher,
		Metrics:      metrics,
		Workers:      service.NewWorkerPool(cfg.ExportWorkers),
		Defaults:     analyzer.DefaultParams(),
		Timeout:      cfg.AnalysisTimeout,
		MaxDimension: cfg.MaxImageDimension,
	})

	handler := transport.NewHandler(analysisService, cfg)

	return &Container{
		config:  cfg,
		uploads: uploads,
		service: analysisService,
		handler: handler,
	}, nil
}

// Handler returns the HTTP handler
func (c *Container) Handler() http.Handler {
	return c.handler
}

// Config returns the configuration
func (c *Container) Config() *config.Config {
	return c.config
}

// Service returns the analysis service
func (c *Container) Service() service.AnalysisService {
	return c.service
}

// Close drains background work and releases held resources.
func (c *Container) Close() {
	if c.service != nil {
		c.service.Close()
	}
}
