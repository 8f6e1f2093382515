package transport

import (
	"bytes"
	"encoding/json"
	"image"
	"image/png"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"go-psr-analyzer/internal/analyzer"
	"go-psr-analyzer/internal/config"
	"go-psr-analyzer/internal/observer"
	"go-psr-analyzer/internal/render"
	"go-psr-analyzer/internal/repository"
	"go-psr-analyzer/internal/service"
	"go-psr-analyzer/internal/storage"
	"go-psr-analyzer/pkg/models"
	"go-psr-analyzer/pkg/services"
	"go-psr-analyzer/pkg/validation"
)

func newTestHandler(t *testing.T) http.Handler {
	t.Helper()
	gin.SetMode(gin.TestMode)

	cfg := &config.Config{
		Host:               "127.0.0.1",
		Port:               "0",
		RequestTimeout:     30 * time.Second,
		AnalysisTimeout:    30 * time.Second,
		MaxRequestBodySize: 10 * 1024 * 1024,
		AllowedOrigins:     []string{"*"},
	}

	uploads, err := storage.NewDiskUploadStore(t.TempDir(), time.Minute)
	if err != nil {
		t.Fatalf("failed to create upload store: %v", err)
	}
	artifacts, err := storage.NewLocalArtifactStore(t.TempDir())
	if err != nil {
		t.Fatalf("failed to create artifact store: %v", err)
	}

	publisher := observer.NewEventPublisher()
	metrics := observer.NewMetricsObserver()
	publisher.Subscribe(metrics)

	svc := service.NewAnalysisService(service.Dependencies{
		Repository:   repository.NewSourceRepository(uploads, storage.NewHTTPImageFetcher(1<<20), 2048),
		Uploads:      uploads,
		Artifacts:    artifacts,
		Pipeline:     analyzer.NewPipeline(),
		Builder:      services.NewReportBuilder(render.NewRenderer(), validation.NewLandingValidator()),
		URLs:         validation.NewURLValidator(),
		Publisher:    publisher,
		Metrics:      metrics,
		Workers:      service.NewWorkerPool(1),
		Defaults:     analyzer.DefaultParams(),
		Timeout:      30 * time.Second,
		MaxDimension: 2048,
	})
	t.Cleanup(svc.Close)

	return NewHandler(svc, cfg)
}

func multipartImage(t *testing.T, field string) (*bytes.Buffer, string) {
	return multipartImageNamed(t, field, "crater.png")
}

func multipartImageNamed(t *testing.T, field, filename string) (*bytes.Buffer, string) {
	t.Helper()
	img := image.NewGray(image.Rect(0, 0, 40, 30))
	for i := range img.Pix {
		img.Pix[i] = uint8((i * 7) % 256)
	}
	var pngBuf bytes.Buffer
	if err := png.Encode(&pngBuf, img); err != nil {
		t.Fatalf("failed to encode test image: %v", err)
	}

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	fw, err := mw.CreateFormFile(field, filename)
	if err != nil {
		t.Fatalf("failed to create form file: %v", err)
	}
	if _, err := fw.Write(pngBuf.Bytes()); err != nil {
		t.Fatalf("failed to write form file: %v", err)
	}
	mw.Close()
	return &body, mw.FormDataContentType()
}

func doRequest(handler http.Handler, method, path, contentType string, body *bytes.Buffer) *httptest.ResponseRecorder {
	if body == nil {
		body = &bytes.Buffer{}
	}
	req := httptest.NewRequest(method, path, body)
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)
	return w
}

func uploadViaHandler(t *testing.T, handler http.Handler) string {
	t.Helper()
	body, contentType := multipartImage(t, "image")
	w := doRequest(handler, http.MethodPost, "/api/upload", contentType, body)
	if w.Code != http.StatusOK {
		t.Fatalf("upload returned %d: %s", w.Code, w.Body.String())
	}
	var up models.UploadResponse
	if err := json.Unmarshal(w.Body.Bytes(), &up); err != nil {
		t.Fatalf("failed to decode upload response: %v", err)
	}
	if up.ImageID == "" {
		t.Fatal("upload response missing image_id")
	}
	return up.ImageID
}

func TestHealthEndpoint(t *testing.T) {
	handler := newTestHandler(t)

	w := doRequest(handler, http.MethodGet, "/health", "", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}

	var health map[string]interface{}
	if err := json.Unmarshal(w.Body.Bytes(), &health); err != nil {
		t.Fatalf("failed to decode health response: %v", err)
	}
	if health["status"] != "healthy" {
		t.Errorf("expected healthy status, got %v", health["status"])
	}
	if health["service"] != "CHANDRA PSR Analyzer" {
		t.Errorf("unexpected service name %v", health["service"])
	}
}

func TestDefaultsEndpoint(t *testing.T) {
	handler := newTestHandler(t)

	w := doRequest(handler, http.MethodGet, "/api/defaults", "", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}

	var defaults models.DefaultsResponse
	if err := json.Unmarshal(w.Body.Bytes(), &defaults); err != nil {
		t.Fatalf("failed to decode defaults response: %v", err)
	}
	if defaults.Parameters.ClaheClipLimit != 2.0 {
		t.Errorf("expected default clip limit 2.0, got %v", defaults.Parameters.ClaheClipLimit)
	}
	if len(defaults.Ranges) != 8 {
		t.Errorf("expected 8 parameter ranges, got %d", len(defaults.Ranges))
	}
}

func TestUploadRequiresImageField(t *testing.T) {
	handler := newTestHandler(t)

	body, contentType := multipartImage(t, "file")
	w := doRequest(handler, http.MethodPost, "/api/upload", contentType, body)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", w.Code)
	}

	var errResp models.ErrorResponse
	if err := json.Unmarshal(w.Body.Bytes(), &errResp); err != nil {
		t.Fatalf("failed to decode error response: %v", err)
	}
	if errResp.Message != "no image provided" {
		t.Errorf("unexpected error message %q", errResp.Message)
	}
}

func TestUploadRejectsUnsupportedExtension(t *testing.T) {
	handler := newTestHandler(t)

	body, contentType := multipartImageNamed(t, "image", "scene.gif")
	w := doRequest(handler, http.MethodPost, "/api/upload", contentType, body)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", w.Code)
	}

	var errResp models.ErrorResponse
	if err := json.Unmarshal(w.Body.Bytes(), &errResp); err != nil {
		t.Fatalf("failed to decode error response: %v", err)
	}
	if errResp.Message != "unsupported file extension" {
		t.Errorf("unexpected error message %q", errResp.Message)
	}
}

func TestAnalyzeEndpoint(t *testing.T) {
	handler := newTestHandler(t)
	imageID := uploadViaHandler(t, handler)

	payload := bytes.NewBufferString(`{"image_id":"` + imageID + `"}`)
	w := doRequest(handler, http.MethodPost, "/api/analyze", "application/json", payload)
	if w.Code != http.StatusOK {
		t.Fatalf("analyze returned %d: %s", w.Code, w.Body.String())
	}

	var response models.AnalyzeResponse
	if err := json.Unmarshal(w.Body.Bytes(), &response); err != nil {
		t.Fatalf("failed to decode analyze response: %v", err)
	}
	if len(response.Visualizations) != 6 {
		t.Errorf("expected 6 visualizations, got %d", len(response.Visualizations))
	}
	for _, key := range []string{"original", "enhanced", "threshold", "adaptive", "edges", "roughness"} {
		if _, ok := response.Visualizations[key]; !ok {
			t.Errorf("missing visualization %q", key)
		}
	}
	if _, ok := response.Statistics.CoveragePercent["threshold"]; !ok {
		t.Error("missing threshold coverage")
	}
}

func TestAnalyzeEndpointValidation(t *testing.T) {
	handler := newTestHandler(t)

	tests := []struct {
		name string
		body string
		code int
	}{
		{"malformed json", `{"image_id":`, http.StatusBadRequest},
		{"no reference", `{}`, http.StatusBadRequest},
		{"both references", `{"image_id":"a","image_url":"https://example.com/a.png"}`, http.StatusBadRequest},
		{"unknown upload", `{"image_id":"3e7c9f1a-0b6d-4c7e-9f2a-1d3b5a7c9e0f"}`, http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := doRequest(handler, http.MethodPost, "/api/analyze", "application/json", bytes.NewBufferString(tt.body))
			if w.Code != tt.code {
				t.Errorf("expected %d, got %d: %s", tt.code, w.Code, w.Body.String())
			}
			if !strings.Contains(w.Body.String(), "error") {
				t.Errorf("expected error envelope, got %s", w.Body.String())
			}
		})
	}
}

func TestPreviewEndpoint(t *testing.T) {
	handler := newTestHandler(t)
	imageID := uploadViaHandler(t, handler)

	payload := bytes.NewBufferString(`{"image_id":"` + imageID + `"}`)
	w := doRequest(handler, http.MethodPost, "/api/preview/adaptive", "application/json", payload)
	if w.Code != http.StatusOK {
		t.Fatalf("preview returned %d: %s", w.Code, w.Body.String())
	}

	var response models.PreviewResponse
	if err := json.Unmarshal(w.Body.Bytes(), &response); err != nil {
		t.Fatalf("failed to decode preview response: %v", err)
	}
	if response.Panel != "adaptive" {
		t.Errorf("expected panel adaptive, got %q", response.Panel)
	}
	if response.Visualization == "" {
		t.Error("expected rendered panel")
	}
}

func TestPreviewEndpointUnknownPanel(t *testing.T) {
	handler := newTestHandler(t)
	imageID := uploadViaHandler(t, handler)

	payload := bytes.NewBufferString(`{"image_id":"` + imageID + `"}`)
	w := doRequest(handler, http.MethodPost, "/api/preview/heatmap", "application/json", payload)
	if w.Code != http.StatusBadRequest {
		t.Errorf("expected 400, got %d: %s", w.Code, w.Body.String())
	}
}

func TestUploadLifecycleEndpoints(t *testing.T) {
	handler := newTestHandler(t)
	imageID := uploadViaHandler(t, handler)

	w := doRequest(handler, http.MethodGet, "/api/uploads/"+imageID, "", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("get upload returned %d", w.Code)
	}

	w = doRequest(handler, http.MethodDelete, "/api/uploads/"+imageID, "", nil)
	if w.Code != http.StatusNoContent {
		t.Fatalf("delete upload returned %d", w.Code)
	}

	w = doRequest(handler, http.MethodGet, "/api/uploads/"+imageID, "", nil)
	if w.Code != http.StatusNotFound {
		t.Errorf("expected 404 after delete, got %d", w.Code)
	}
}

func TestExportEndpoint(t *testing.T) {
	handler := newTestHandler(t)
	imageID := uploadViaHandler(t, handler)

	payload := bytes.NewBufferString(`{"image_id":"` + imageID + `","name":"site7"}`)
	w := doRequest(handler, http.MethodPost, "/api/export", "application/json", payload)
	if w.Code != http.StatusAccepted {
		t.Fatalf("export returned %d: %s", w.Code, w.Body.String())
	}

	var response models.ExportResponse
	if err := json.Unmarshal(w.Body.Bytes(), &response); err != nil {
		t.Fatalf("failed to decode export response: %v", err)
	}
	if response.Status != "queued" {
		t.Errorf("expected queued status, got %q", response.Status)
	}
	if len(response.Artifacts) != 2 {
		t.Errorf("expected 2 artifact names, got %v", response.Artifacts)
	}
}

func TestCORSPreflight(t *testing.T) {
	handler := newTestHandler(t)

	req := httptest.NewRequest(http.MethodOptions, "/api/analyze", nil)
	req.Header.Set("Origin", "https://psr.example.com")
	req.Header.Set("Access-Control-Request-Method", "POST")
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	if w.Code != http.StatusNoContent {
		t.Fatalf("expected 204 preflight, got %d", w.Code)
	}
	if got := w.Header().Get("Access-Control-Allow-Origin"); got != "*" {
		t.Errorf("expected wildcard allow-origin, got %q", got)
	}
}
