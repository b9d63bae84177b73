package common

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds all application configuration
type Config struct {
	Server ServerConfig `yaml:"server"`
	Queue  QueueConfig  `yaml:"queue"`
	Worker WorkerConfig `yaml:"worker"`
	OCR    OCRConfig    `yaml:"ocr"`
	LLM    LLMConfig    `yaml:"llm"`
	Log    LogConfig    `yaml:"log"`
}

// ServerConfig holds server-related configuration
type ServerConfig struct {
	Port           string   `yaml:"port"`
	GRPCAddr       string   `yaml:"grpc_addr"`
	FrontendURL    string   `yaml:"frontend_url"`
	AllowedOrigins []string `yaml:"allowed_origins"`
	MaxFileSize    int64    `yaml:"max_file_size"`
}

// QueueConfig describes the job store. URL is postgres://... or sqlite://path.
type QueueConfig struct {
	URL         string        `yaml:"url"`
	MaxConns    int32         `yaml:"max_conns"`
	DialTimeout time.Duration `yaml:"dial_timeout"`
}

type WorkerConfig struct {
	Count        int           `yaml:"count"`
	PollInterval time.Duration `yaml:"poll_interval"`
	JobTimeout   time.Duration `yaml:"job_timeout"`
	ResultTTL    time.Duration `yaml:"result_ttl"`
	StaleAfter   time.Duration `yaml:"stale_after"`
}

// OCRConfig holds OCR-related configuration
type OCRConfig struct {
	Tesseract     string `yaml:"tesseract"`
	Pdftotext     string `yaml:"pdftotext"`
	Pdftoppm      string `yaml:"pdftoppm"`
	Lang          string `yaml:"lang"`
	TessdataDir   string `yaml:"tessdata_dir"`
	HeicConverter string `yaml:"heic_converter"`
	DPI           int    `yaml:"dpi"`
	MaxPages      int    `yaml:"max_pages"`
}

// LLMConfig holds LLM-related configuration
type LLMConfig struct {
	APIKey      string        `yaml:"api_key"`
	BaseURL     string        `yaml:"base_url"`
	Model       string        `yaml:"model"`
	Temperature float32       `yaml:"temperature"`
	Timeout     time.Duration `yaml:"timeout"`
	RateLimit   float64       `yaml:"rate_limit"`
	RateBurst   int           `yaml:"rate_burst"`
}

type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

const defaultFrontendURL = "http://localhost:3000"

// DefaultConfig returns the built-in defaults.
func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Port:        "8000",
			GRPCAddr:    ":9090",
			FrontendURL: defaultFrontendURL,
			AllowedOrigins: []string{
				"http://localhost:3000",
				"http://localhost:3001",
			},
			MaxFileSize: 10 << 20,
		},
		Queue: QueueConfig{
			URL:         "sqlite://ocr_jobs.db",
			MaxConns:    10,
			DialTimeout: 3 * time.Second,
		},
		Worker: WorkerConfig{
			Count:        2,
			PollInterval: time.Second,
			JobTimeout:   5 * time.Minute,
			ResultTTL:    24 * time.Hour,
			StaleAfter:   30 * time.Minute,
		},
		OCR: OCRConfig{
			Tesseract:     "tesseract",
			Pdftotext:     "pdftotext",
			Pdftoppm:      "pdftoppm",
			Lang:          "por",
			HeicConverter: "magick",
			DPI:           300,
		},
		LLM: LLMConfig{
			BaseURL:   "https://api.openai.com/v1",
			Model:     "gpt-4o-mini",
			Timeout:   60 * time.Second,
			RateBurst: 1,
		},
		Log: LogConfig{
			Level:  "info",
			Format: "json",
		},
	}
}

// LoadConfig builds the configuration from defaults, then the optional YAML
// file at path, then environment variables.
func LoadConfig(path string) (*Config, error) {
	cfg := DefaultConfig()
	if path != "" {
		raw, err := os.ReadFile(path)
		if err != nil {
			return nil, NewAppError("CONFIG_ERROR", "read config file", err)
		}
		if err := yaml.Unmarshal(raw, cfg); err != nil {
			return nil, NewAppError("CONFIG_ERROR", "parse config file "+path, err)
		}
	}
	cfg.applyEnv()
	return cfg, nil
}

func (c *Config) applyEnv() {
	c.Server.Port = getEnv("PORT", c.Server.Port)
	c.Server.GRPCAddr = getEnv("GRPC_ADDR", c.Server.GRPCAddr)
	c.Server.FrontendURL = getEnv("FRONTEND_URL", c.Server.FrontendURL)
	c.Server.MaxFileSize = getEnvAsInt64("MAX_FILE_SIZE", c.Server.MaxFileSize)

	c.Queue.URL = getEnv("QUEUE_URL", c.Queue.URL)
	c.Queue.MaxConns = getEnvAsInt32("QUEUE_MAX_CONNS", c.Queue.MaxConns)
	c.Queue.DialTimeout = getEnvAsDuration("QUEUE_DIAL_TIMEOUT", c.Queue.DialTimeout)

	c.Worker.Count = getEnvAsInt("WORKER_COUNT", c.Worker.Count)
	c.Worker.PollInterval = getEnvAsDuration("WORKER_POLL_INTERVAL", c.Worker.PollInterval)
	c.Worker.JobTimeout = getEnvAsDuration("JOB_TIMEOUT", c.Worker.JobTimeout)
	c.Worker.ResultTTL = getEnvAsDuration("JOB_RESULT_TTL", c.Worker.ResultTTL)
	c.Worker.StaleAfter = getEnvAsDuration("JOB_STALE_AFTER", c.Worker.StaleAfter)

	c.OCR.Tesseract = getEnv("OCR_TESSERACT", c.OCR.Tesseract)
	c.OCR.Pdftotext = getEnv("OCR_PDFTOTEXT", c.OCR.Pdftotext)
	c.OCR.Pdftoppm = getEnv("OCR_PDFTOPPM", c.OCR.Pdftoppm)
	c.OCR.Lang = getEnv("OCR_LANG", c.OCR.Lang)
	c.OCR.TessdataDir = getEnv("TESSDATA_PREFIX", c.OCR.TessdataDir)
	c.OCR.HeicConverter = getEnv("HEIC_CONVERTER", c.OCR.HeicConverter)
	c.OCR.DPI = getEnvAsInt("OCR_DPI", c.OCR.DPI)
	c.OCR.MaxPages = getEnvAsInt("OCR_MAX_PAGES", c.OCR.MaxPages)

	c.LLM.APIKey = strings.TrimSpace(getEnv("OPENAI_API_KEY", c.LLM.APIKey))
	c.LLM.BaseURL = getEnv("OPENAI_BASE_URL", c.LLM.BaseURL)
	c.LLM.Model = getEnv("OPENAI_MODEL", c.LLM.Model)
	c.LLM.Temperature = getEnvAsFloat32("OPENAI_TEMPERATURE", c.LLM.Temperature)
	c.LLM.Timeout = getEnvAsDuration("OPENAI_TIMEOUT", c.LLM.Timeout)
	c.LLM.RateLimit = getEnvAsFloat64("LLM_RATE_LIMIT", c.LLM.RateLimit)
	c.LLM.RateBurst = getEnvAsInt("LLM_RATE_BURST", c.LLM.RateBurst)

	c.Log.Level = getEnv("LOG_LEVEL", c.Log.Level)
	c.Log.Format = getEnv("LOG_FORMAT", c.Log.Format)
}

// Origins returns the CORS allow-list with the frontend URL appended once.
func (s ServerConfig) Origins() []string {
	out := make([]string, 0, len(s.AllowedOrigins)+1)
	seen := make(map[string]bool, len(s.AllowedOrigins)+1)
	for _, o := range append(append([]string{}, s.AllowedOrigins...), s.FrontendURL) {
		o = strings.TrimRight(strings.TrimSpace(o), "/")
		if o == "" || seen[o] {
			continue
		}
		seen[o] = true
		out = append(out, o)
	}
	return out
}

// HTTPAddr is the listen address for the REST API.
func (s ServerConfig) HTTPAddr() string {
	if strings.Contains(s.Port, ":") {
		return s.Port
	}
	return ":" + s.Port
}

// Helper functions for environment variable parsing
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvAsInt32(key string, defaultValue int32) int32 {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.ParseInt(value, 10, 32); err == nil {
			return int32(intVal)
		}
	}
	return defaultValue
}

func getEnvAsInt64(key string, defaultValue int64) int64 {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.ParseInt(value, 10, 64); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvAsFloat32(key string, defaultValue float32) float32 {
	if value := os.Getenv(key); value != "" {
		if floatVal, err := strconv.ParseFloat(value, 32); err == nil {
			return float32(floatVal)
		}
	}
	return defaultValue
}

func getEnvAsFloat64(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatVal, err := strconv.ParseFloat(value, 64); err == nil {
			return floatVal
		}
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}

// Validate validates the loaded configuration. A missing LLM key is allowed;
// it surfaces in health checks and as job failures.
func (c *Config) Validate() error {
	v := NewValidator().
		Field("QUEUE_URL", c.Queue.URL, Required).
		Field("QUEUE_URL", schemeOf(c.Queue.URL), OneOf("postgres", "postgresql", "sqlite")).
		Field("PORT", c.Server.Port, Required).
		Field("MAX_FILE_SIZE", c.Server.MaxFileSize, Positive).
		Field("WORKER_COUNT", c.Worker.Count, Positive).
		Field("WORKER_POLL_INTERVAL", c.Worker.PollInterval, Positive).
		Field("JOB_TIMEOUT", c.Worker.JobTimeout, Positive).
		Field("LOG_FORMAT", strings.ToLower(c.Log.Format), OneOf("json", "text"))
	if err := v.Err("CONFIG_ERROR"); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	return nil
}

func schemeOf(url string) string {
	scheme, _, _ := strings.Cut(url, "://")
	return strings.ToLower(scheme)
}
