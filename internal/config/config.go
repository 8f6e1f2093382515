package config

import (
	"fmt"
	"net"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config carries every runtime setting. Values come from built-in defaults,
// then an optional YAML file named by CONFIG_FILE, then environment
// variables, later sources winning.
type Config struct {
	Host               string        `yaml:"host"`
	Port               string        `yaml:"port"`
	LogLevel           string        `yaml:"log_level"`
	RequestTimeout     time.Duration `yaml:"request_timeout"`
	AnalysisTimeout    time.Duration `yaml:"analysis_timeout"`
	MaxRequestBodySize int64         `yaml:"max_request_body_size"`
	MaxFetchBytes      int64         `yaml:"max_fetch_bytes"`
	MaxImageDimension  int           `yaml:"max_image_dimension"`

	UploadDir      string        `yaml:"upload_dir"`
	UploadTTL      time.Duration `yaml:"upload_ttl"`
	ExportDir      string        `yaml:"export_dir"`
	ExportWorkers  int           `yaml:"export_workers"`
	ExportBackend  string        `yaml:"export_backend"`
	ImageSource    string        `yaml:"image_source"`
	AllowedHosts   []string      `yaml:"allowed_hosts"`
	AllowedOrigins []string      `yaml:"allowed_origins"`

	AzureAccountName string `yaml:"azure_account_name"`
	AzureAccountKey  string `yaml:"azure_account_key"`
	AzureContainer   string `yaml:"azure_container"`
}

func (c *Config) ServerAddress() string {
	host := strings.TrimSpace(c.Host)
	port := strings.TrimSpace(c.Port)
	return net.JoinHostPort(host, port)
}

// Load builds the configuration from defaults, the optional CONFIG_FILE and
// the environment, and validates the result.
func Load() (*Config, error) {
	cfg := &Config{
		Host:               "0.0.0.0",
		Port:               "8080",
		LogLevel:           "info",
		RequestTimeout:     30 * time.Second,
		AnalysisTimeout:    20 * time.Second,
		MaxRequestBodySize: 10 * 1024 * 1024, // 10MB
		MaxFetchBytes:      10 * 1024 * 1024,
		MaxImageDimension:  4096,
		UploadDir:          "uploads",
		UploadTTL:          time.Hour,
		ExportDir:          "exports",
		ExportWorkers:      2,
		ExportBackend:      "local",
		ImageSource:        "http",
		AllowedOrigins:     []string{"*"},
	}

	if path := os.Getenv("CONFIG_FILE"); path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
		}
	}

	cfg.applyEnv()

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyEnv() {
	c.Host = getEnvOrDefault("HOST", c.Host)
	c.Port = getEnvOrDefault("PORT", c.Port)
	c.LogLevel = getEnvOrDefault("LOG_LEVEL", c.LogLevel)
	c.RequestTimeout = parseDurationOrDefault("REQUEST_TIMEOUT", c.RequestTimeout)
	c.AnalysisTimeout = parseDurationOrDefault("ANALYSIS_TIMEOUT", c.AnalysisTimeout)
	c.MaxRequestBodySize = parseInt64OrDefault("MAX_REQUEST_BODY_SIZE", c.MaxRequestBodySize)
	c.MaxFetchBytes = parseInt64OrDefault("MAX_FETCH_BYTES", c.MaxFetchBytes)
	c.MaxImageDimension = parseIntOrDefault("MAX_IMAGE_DIMENSION", c.MaxImageDimension)
	c.UploadDir = getEnvOrDefault("UPLOAD_DIR", c.UploadDir)
	c.UploadTTL = parseDurationOrDefault("UPLOAD_TTL", c.UploadTTL)
	c.ExportDir = getEnvOrDefault("EXPORT_DIR", c.ExportDir)
	c.ExportWorkers = parseIntOrDefault("EXPORT_WORKERS", c.ExportWorkers)
	c.ExportBackend = getEnvOrDefault("EXPORT_BACKEND", c.ExportBackend)
	c.ImageSource = getEnvOrDefault("IMAGE_SOURCE", c.ImageSource)
	c.AllowedHosts = parseListOrDefault("ALLOWED_HOSTS", c.AllowedHosts)
	c.AllowedOrigins = parseListOrDefault("ALLOWED_ORIGINS", c.AllowedOrigins)
	c.AzureAccountName = getEnvOrDefault("AZURE_STORAGE_ACCOUNT", c.AzureAccountName)
	c.AzureAccountKey = getEnvOrDefault("AZURE_STORAGE_KEY", c.AzureAccountKey)
	c.AzureContainer = getEnvOrDefault("AZURE_STORAGE_CONTAINER", c.AzureContainer)
}

func (c *Config) validate() error {
	p, err := strconv.Atoi(strings.TrimSpace(c.Port))
	if err != nil || p < 1 || p > 65535 {
		return fmt.Errorf("invalid PORT: %q", c.Port)
	}
	if c.MaxRequestBodySize <= 0 {
		return fmt.Errorf("MAX_REQUEST_BODY_SIZE must be > 0 (got %d)", c.MaxRequestBodySize)
	}
	if c.MaxFetchBytes <= 0 {
		return fmt.Errorf("MAX_FETCH_BYTES must be > 0 (got %d)", c.MaxFetchBytes)
	}
	if c.RequestTimeout <= 0 || c.AnalysisTimeout <= 0 {
		return fmt.Errorf("timeouts must be > 0 (got request=%s, analysis=%s)",
			c.RequestTimeout, c.AnalysisTimeout)
	}
	if c.UploadTTL <= 0 {
		return fmt.Errorf("UPLOAD_TTL must be > 0 (got %s)", c.UploadTTL)
	}
	if c.ExportWorkers < 1 {
		return fmt.Errorf("EXPORT_WORKERS must be >= 1 (got %d)", c.ExportWorkers)
	}
	switch c.ExportBackend {
	case "local", "azure":
	default:
		return fmt.Errorf("invalid EXPORT_BACKEND: %q (want local or azure)", c.ExportBackend)
	}
	switch c.ImageSource {
	case "http", "azure":
	default:
		return fmt.Errorf("invalid IMAGE_SOURCE: %q (want http or azure)", c.ImageSource)
	}
	if c.ExportBackend == "azure" || c.ImageSource == "azure" {
		if c.AzureAccountName == "" || c.AzureAccountKey == "" {
			return fmt.Errorf("azure backends need AZURE_STORAGE_ACCOUNT and AZURE_STORAGE_KEY")
		}
	}
	if c.ExportBackend == "azure" && c.AzureContainer == "" {
		return fmt.Errorf("azure export needs AZURE_STORAGE_CONTAINER")
	}
	return nil
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func parseDurationOrDefault(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(strings.TrimSpace(value)); err == nil && duration > 0 {
			return duration
		}
	}
	return defaultValue
}

func parseIntOrDefault(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(strings.TrimSpace(value)); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func parseInt64OrDefault(key string, defaultValue int64) int64 {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.ParseInt(strings.TrimSpace(value), 10, 64); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func parseListOrDefault(key string, defaultValue []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	parts := strings.Split(value, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	if len(out) == 0 {
		return defaultValue
	}
	return out
}
