package common

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds all application configuration
type Config struct {
	OCR      OCRConfig      `yaml:"ocr"`
	LLM      LLMConfig      `yaml:"llm"`
	Pipeline PipelineConfig `yaml:"pipeline"`
	Store    StoreConfig    `yaml:"store"`
}

// OCRConfig holds recognition-service configuration
type OCRConfig struct {
	Endpoint string        `yaml:"endpoint"`
	APIKey   string        `yaml:"api_key"`
	Timeout  time.Duration `yaml:"timeout"`
}

// LLMConfig holds language-model-service configuration
type LLMConfig struct {
	Endpoint         string        `yaml:"endpoint"`
	APIKey           string        `yaml:"api_key"`
	Model            string        `yaml:"model"`
	Temperature      float32       `yaml:"temperature"`
	Timeout          time.Duration `yaml:"timeout"`
	MaxRefineTokens  int           `yaml:"max_refine_tokens"`
	MaxExtractTokens int           `yaml:"max_extract_tokens"`
}

// PipelineConfig holds document-pipeline configuration
type PipelineConfig struct {
	InputDir       string `yaml:"input_dir"`
	PagesDir       string `yaml:"pages_dir"`
	CleanedTextDir string `yaml:"cleaned_text_dir"`
	ExportPath     string `yaml:"export_path"`
	Pdftoppm       string `yaml:"pdftoppm"`
	DPI            int    `yaml:"dpi"`
	MaxImageDim    int    `yaml:"max_image_dim"`
	MaxWorkers     int    `yaml:"max_workers"`
}

// StoreConfig holds the record store configuration
type StoreConfig struct {
	Path string `yaml:"path"`
}

// LoadConfig loads configuration from an optional YAML file, then overrides
// from environment variables. An empty path skips the file step.
func LoadConfig(path string) (*Config, error) {
	cfg := defaultConfig()

	if path != "" {
		b, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config file: %w", err)
		}
		if err := yaml.Unmarshal(b, cfg); err != nil {
			return nil, fmt.Errorf("parse config file: %w", err)
		}
	}

	cfg.OCR.Endpoint = getEnv("ADI_ENDPOINT", cfg.OCR.Endpoint)
	cfg.OCR.APIKey = getEnv("ADI_API_KEY", cfg.OCR.APIKey)
	cfg.OCR.Timeout = getEnvAsDuration("ADI_TIMEOUT", cfg.OCR.Timeout)

	cfg.LLM.Endpoint = getEnv("AZURE_OPENAI_ENDPOINT", cfg.LLM.Endpoint)
	cfg.LLM.APIKey = getEnv("AZURE_OPENAI_API_KEY", cfg.LLM.APIKey)
	cfg.LLM.Model = getEnv("AZURE_OPENAI_MODEL", cfg.LLM.Model)
	cfg.LLM.Temperature = getEnvAsFloat32("AZURE_OPENAI_TEMPERATURE", cfg.LLM.Temperature)
	cfg.LLM.Timeout = getEnvAsDuration("AZURE_OPENAI_TIMEOUT", cfg.LLM.Timeout)

	cfg.Pipeline.InputDir = getEnv("INPUT_DIR", cfg.Pipeline.InputDir)
	cfg.Pipeline.PagesDir = getEnv("PAGES_DIR", cfg.Pipeline.PagesDir)
	cfg.Pipeline.CleanedTextDir = getEnv("CLEANED_TEXT_DIR", cfg.Pipeline.CleanedTextDir)
	cfg.Pipeline.ExportPath = getEnv("EXPORT_PATH", cfg.Pipeline.ExportPath)
	cfg.Pipeline.Pdftoppm = getEnv("PDFTOPPM", cfg.Pipeline.Pdftoppm)
	cfg.Pipeline.DPI = getEnvAsInt("RASTER_DPI", cfg.Pipeline.DPI)
	cfg.Pipeline.MaxWorkers = getEnvAsInt("MAX_WORKERS", cfg.Pipeline.MaxWorkers)

	cfg.Store.Path = getEnv("STORE_PATH", cfg.Store.Path)

	return cfg, nil
}

func defaultConfig() *Config {
	return &Config{
		OCR: OCRConfig{
			Timeout: 60 * time.Second,
		},
		LLM: LLMConfig{
			Model:            "gpt-4o",
			Temperature:      0,
			Timeout:          45 * time.Second,
			MaxRefineTokens:  4000,
			MaxExtractTokens: 8192,
		},
		Pipeline: PipelineConfig{
			InputDir:       "input/uploads",
			PagesDir:       "output/pdf_images",
			CleanedTextDir: "cleaned_text",
			ExportPath:     "output/business_permits_extracted.xlsx",
			Pdftoppm:       "pdftoppm",
			DPI:            300,
			MaxImageDim:    3500,
			MaxWorkers:     4,
		},
		Store: StoreConfig{
			Path: "output/permits.db",
		},
	}
}

// Validate validates the loaded configuration
func (c *Config) Validate() error {
	if c.OCR.Endpoint == "" {
		return NewAppError("CONFIG_ERROR", "ADI_ENDPOINT is required", ErrInvalidInput)
	}
	if c.OCR.APIKey == "" {
		return NewAppError("CONFIG_ERROR", "ADI_API_KEY is required", ErrInvalidInput)
	}
	if c.LLM.Endpoint == "" {
		return NewAppError("CONFIG_ERROR", "AZURE_OPENAI_ENDPOINT is required", ErrInvalidInput)
	}
	if c.LLM.APIKey == "" {
		return NewAppError("CONFIG_ERROR", "AZURE_OPENAI_API_KEY is required", ErrInvalidInput)
	}
	if c.Pipeline.InputDir == "" {
		return NewAppError("CONFIG_ERROR", "input directory is required", ErrInvalidInput)
	}
	return nil
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

func getEnvAsFloat32(key string, defaultValue float32) float32 {
	if value := os.Getenv(key); value != "" {
		if floatVal, err := strconv.ParseFloat(value, 32); err == nil {
			return float32(floatVal)
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
