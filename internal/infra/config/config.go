package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

const defaultConfigPath = "configs/config.yaml"

// Config aggregates runtime configuration used across the service.
type Config struct {
	Survey  SurveyConfig  `yaml:"survey"`
	Camera  CameraConfig  `yaml:"camera"`
	Vision  VisionConfig  `yaml:"vision"`
	Storage StorageConfig `yaml:"storage"`
	Publish PublishConfig `yaml:"publish"`
	HTTP    HTTPConfig    `yaml:"http"`
}

// SurveyConfig holds the run defaults.
type SurveyConfig struct {
	StopsConfigPath string        `yaml:"stopsConfigPath"`
	OutputDir       string        `yaml:"outputDir"`
	OutputPath      string        `yaml:"outputPath"`
	Quality         string        `yaml:"quality"`
	InterCallDelay  time.Duration `yaml:"interCallDelay"`
	// ImageLocation is the IANA zone used for frame file names and naive timestamps.
	ImageLocation string `yaml:"imageLocation"`
}

// CameraConfig contains camera service settings.
type CameraConfig struct {
	APIKey   string        `yaml:"apiKey"`
	FrameURL string        `yaml:"frameUrl"`
	Timeout  time.Duration `yaml:"timeout"`
}

// VisionConfig contains multimodal model settings.
type VisionConfig struct {
	APIKey  string        `yaml:"apiKey"`
	URL     string        `yaml:"url"`
	Timeout time.Duration `yaml:"timeout"`
}

// StorageConfig selects where stop images are kept.
type StorageConfig struct {
	Driver   string   `yaml:"driver"`
	LocalDir string   `yaml:"localDir"`
	R2       R2Config `yaml:"r2"`
}

// R2Config addresses an S3-compatible bucket.
type R2Config struct {
	Endpoint  string `yaml:"endpoint"`
	AccessKey string `yaml:"accessKey"`
	SecretKey string `yaml:"secretKey"`
	Bucket    string `yaml:"bucket"`
	Region    string `yaml:"region"`
}

// PublishConfig toggles the optional result publishers.
type PublishConfig struct {
	Valkey ValkeyConfig `yaml:"valkey"`
	NATS   NATSConfig   `yaml:"nats"`
}

// ValkeyConfig mirrors the latest payload into a key.
type ValkeyConfig struct {
	Enabled bool   `yaml:"enabled"`
	Addr    string `yaml:"addr"`
	Key     string `yaml:"key"`
}

// NATSConfig announces finished runs on a subject.
type NATSConfig struct {
	Enabled bool   `yaml:"enabled"`
	URL     string `yaml:"url"`
	Subject string `yaml:"subject"`
}

// HTTPConfig controls server level behavior.
type HTTPConfig struct {
	Address        string          `yaml:"address"`
	ReadTimeout    time.Duration   `yaml:"readTimeout"`
	WriteTimeout   time.Duration   `yaml:"writeTimeout"`
	AllowedOrigins []string        `yaml:"allowedOrigins"`
	RateLimit      RateLimitConfig `yaml:"rateLimit"`
}

// RateLimitConfig drives the request limiting middleware.
type RateLimitConfig struct {
	Enabled           bool `yaml:"enabled"`
	RequestsPerMinute int  `yaml:"requestsPerMinute"`
	Burst             int  `yaml:"burst"`
}

// Load reads configuration from .env, a YAML file and environment variables.
func Load() (*Config, error) {
	_ = godotenv.Load() // ignore missing file

	cfg := defaultConfig()

	if path := os.Getenv("CONFIG_PATH"); path != "" {
		if err := hydrateFromFile(cfg, path); err != nil {
			return nil, err
		}
	} else if _, err := os.Stat(defaultConfigPath); err == nil {
		if err := hydrateFromFile(cfg, defaultConfigPath); err != nil {
			return nil, err
		}
	}

	applyEnvOverrides(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

func hydrateFromFile(cfg *Config, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("parse config file: %w", err)
	}
	return nil
}

func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("RHOMBUS_API_KEY"); v != "" {
		cfg.Camera.APIKey = v
	}
	if v := os.Getenv("RHOMBUS_FRAME_URL"); v != "" {
		cfg.Camera.FrameURL = v
	}
	if v := os.Getenv("GEMINI_API_KEY"); v != "" {
		cfg.Vision.APIKey = v
	}
	if v := os.Getenv("GEMINI_URL"); v != "" {
		cfg.Vision.URL = v
	}
	if v := os.Getenv("SURVEY_STOPS_CONFIG"); v != "" {
		cfg.Survey.StopsConfigPath = v
	}
	if v := os.Getenv("SURVEY_OUTPUT_DIR"); v != "" {
		cfg.Survey.OutputDir = v
	}
	if v := os.Getenv("SURVEY_OUTPUT_PATH"); v != "" {
		cfg.Survey.OutputPath = v
	}
	if v := os.Getenv("SURVEY_QUALITY"); v != "" {
		cfg.Survey.Quality = v
	}
	if v := os.Getenv("SURVEY_INTER_CALL_DELAY"); v != "" {
		if parsed, err := time.ParseDuration(v); err == nil {
			cfg.Survey.InterCallDelay = parsed
		}
	}
	if v := os.Getenv("SURVEY_IMAGE_LOCATION"); v != "" {
		cfg.Survey.ImageLocation = v
	}
	if v := os.Getenv("STORAGE_DRIVER"); v != "" {
		cfg.Storage.Driver = v
	}
	if v := os.Getenv("STORAGE_LOCAL_DIR"); v != "" {
		cfg.Storage.LocalDir = v
	}
	if v := os.Getenv("R2_ENDPOINT"); v != "" {
		cfg.Storage.R2.Endpoint = v
	}
	if v := os.Getenv("R2_ACCESS_KEY"); v != "" {
		cfg.Storage.R2.AccessKey = v
	}
	if v := os.Getenv("R2_SECRET_KEY"); v != "" {
		cfg.Storage.R2.SecretKey = v
	}
	if v := os.Getenv("R2_BUCKET"); v != "" {
		cfg.Storage.R2.Bucket = v
	}
	if v := os.Getenv("R2_REGION"); v != "" {
		cfg.Storage.R2.Region = v
	}
	if v := os.Getenv("VALKEY_ENABLED"); v != "" {
		cfg.Publish.Valkey.Enabled = parseBool(v)
	}
	if v := os.Getenv("VALKEY_ADDR"); v != "" {
		cfg.Publish.Valkey.Addr = v
	}
	if v := os.Getenv("NATS_ENABLED"); v != "" {
		cfg.Publish.NATS.Enabled = parseBool(v)
	}
	if v := os.Getenv("NATS_URL"); v != "" {
		cfg.Publish.NATS.URL = v
	}
	if v := os.Getenv("HTTP_ADDRESS"); v != "" {
		cfg.HTTP.Address = v
	}
	if v := os.Getenv("HTTP_ALLOWED_ORIGINS"); v != "" {
		cfg.HTTP.AllowedOrigins = splitList(v)
	}
	if v := os.Getenv("HTTP_RATE_LIMIT_ENABLED"); v != "" {
		cfg.HTTP.RateLimit.Enabled = parseBool(v)
	}
	if v := os.Getenv("HTTP_RATE_LIMIT_RPM"); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil {
			cfg.HTTP.RateLimit.RequestsPerMinute = parsed
		}
	}
	if v := os.Getenv("HTTP_RATE_LIMIT_BURST"); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil {
			cfg.HTTP.RateLimit.Burst = parsed
		}
	}
}

func parseBool(v string) bool {
	return v == "1" || strings.EqualFold(v, "true")
}

func splitList(v string) []string {
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func defaultConfig() *Config {
	return &Config{
		Survey: SurveyConfig{
			StopsConfigPath: "stops_config.json",
			OutputDir:       "output",
			Quality:         "medium",
			InterCallDelay:  2 * time.Second,
			ImageLocation:   "Local",
		},
		Camera: CameraConfig{
			FrameURL: "https://api2.rhombussystems.com/api/video/getExactFrameUri",
			Timeout:  30 * time.Second,
		},
		Vision: VisionConfig{
			URL:     "https://generativelanguage.googleapis.com/v1beta/models/gemini-2.0-flash:generateContent",
			Timeout: 60 * time.Second,
		},
		Storage: StorageConfig{
			Driver:   "local",
			LocalDir: "output",
		},
		Publish: PublishConfig{
			Valkey: ValkeyConfig{Key: "stop-survey:latest"},
			NATS:   NATSConfig{URL: "nats://127.0.0.1:4222", Subject: "stop-survey.run.completed"},
		},
		HTTP: HTTPConfig{
			Address:        ":8080",
			ReadTimeout:    5 * time.Second,
			WriteTimeout:   10 * time.Second,
			AllowedOrigins: []string{"http://localhost:3000", "http://localhost:5173"},
			RateLimit: RateLimitConfig{
				Enabled:           true,
				RequestsPerMinute: 60,
				Burst:             20,
			},
		},
	}
}

// ResolvedOutputPath is outputPath, or <outputDir>/stops_output.json when unset.
func (c SurveyConfig) ResolvedOutputPath() string {
	if c.OutputPath != "" {
		return c.OutputPath
	}
	return filepath.Join(c.OutputDir, "stops_output.json")
}

// Location resolves ImageLocation; "Local" and "" mean the host zone.
func (c SurveyConfig) Location() (*time.Location, error) {
	switch c.ImageLocation {
	case "", "Local":
		return time.Local, nil
	default:
		return time.LoadLocation(c.ImageLocation)
	}
}

// Validate ensures the configuration is safe to use.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.Survey.StopsConfigPath) == "" {
		return errors.New("survey.stopsConfigPath cannot be empty")
	}
	if strings.TrimSpace(c.Survey.OutputDir) == "" {
		return errors.New("survey.outputDir cannot be empty")
	}
	switch c.Survey.Quality {
	case "high", "medium", "low", "very_low":
	default:
		return fmt.Errorf("survey.quality %q must be one of high, medium, low, very_low", c.Survey.Quality)
	}
	if c.Survey.InterCallDelay < 0 {
		return errors.New("survey.interCallDelay cannot be negative")
	}
	if _, err := c.Survey.Location(); err != nil {
		return fmt.Errorf("survey.imageLocation: %w", err)
	}
	if c.Camera.Timeout <= 0 {
		return errors.New("camera.timeout must be positive")
	}
	if c.Vision.Timeout <= 0 {
		return errors.New("vision.timeout must be positive")
	}
	switch c.Storage.Driver {
	case "local":
		if strings.TrimSpace(c.Storage.LocalDir) == "" {
			return errors.New("storage.localDir cannot be empty for the local driver")
		}
	case "r2":
		if strings.TrimSpace(c.Storage.R2.Endpoint) == "" || strings.TrimSpace(c.Storage.R2.Bucket) == "" {
			return errors.New("storage.r2.endpoint and storage.r2.bucket are required for the r2 driver")
		}
	case "memory":
	default:
		return fmt.Errorf("storage.driver %q must be local, r2 or memory", c.Storage.Driver)
	}
	if c.Publish.Valkey.Enabled && strings.TrimSpace(c.Publish.Valkey.Addr) == "" {
		return errors.New("publish.valkey.addr cannot be empty when valkey publishing is enabled")
	}
	if c.Publish.NATS.Enabled && strings.TrimSpace(c.Publish.NATS.URL) == "" {
		return errors.New("publish.nats.url cannot be empty when nats publishing is enabled")
	}
	if c.HTTP.Address == "" {
		return errors.New("http.address cannot be empty")
	}
	if c.HTTP.RateLimit.Enabled {
		if c.HTTP.RateLimit.RequestsPerMinute <= 0 {
			return errors.New("http.rateLimit.requestsPerMinute must be positive")
		}
		if c.HTTP.RateLimit.Burst <= 0 {
			return errors.New("http.rateLimit.burst must be positive")
		}
	}
	return nil
}
