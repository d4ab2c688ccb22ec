package common

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadConfigDefaults(t *testing.T) {
	cfg, err := LoadConfig("")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Pipeline.DPI != 300 {
		t.Errorf("DPI = %d, want 300", cfg.Pipeline.DPI)
	}
	if cfg.Pipeline.MaxWorkers != 4 {
		t.Errorf("MaxWorkers = %d, want 4", cfg.Pipeline.MaxWorkers)
	}
	if cfg.OCR.Timeout != 60*time.Second {
		t.Errorf("OCR timeout = %v", cfg.OCR.Timeout)
	}
	if cfg.LLM.MaxExtractTokens != 8192 {
		t.Errorf("MaxExtractTokens = %d", cfg.LLM.MaxExtractTokens)
	}
}

func TestLoadConfigFileAndEnvOverride(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	yaml := `
ocr:
  endpoint: https://file.example/analyze
  api_key: file-key
pipeline:
  input_dir: /data/permits
  max_workers: 2
`
	if err := os.WriteFile(path, []byte(yaml), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	t.Setenv("ADI_API_KEY", "env-key")
	t.Setenv("MAX_WORKERS", "8")

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.OCR.Endpoint != "https://file.example/analyze" {
		t.Errorf("endpoint = %q", cfg.OCR.Endpoint)
	}
	if cfg.OCR.APIKey != "env-key" {
		t.Errorf("env must override file, got %q", cfg.OCR.APIKey)
	}
	if cfg.Pipeline.InputDir != "/data/permits" {
		t.Errorf("input dir = %q", cfg.Pipeline.InputDir)
	}
	if cfg.Pipeline.MaxWorkers != 8 {
		t.Errorf("env must override file workers, got %d", cfg.Pipeline.MaxWorkers)
	}
}

func TestLoadConfigMissingFile(t *testing.T) {
	if _, err := LoadConfig("/does/not/exist.yaml"); err == nil {
		t.Error("expected error for missing config file")
	}
}

func TestValidate(t *testing.T) {
	cfg, err := LoadConfig("")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if err := cfg.Validate(); err == nil {
		t.Error("empty endpoints must fail validation")
	}

	cfg.OCR.Endpoint = "https://ocr.example/analyze"
	cfg.OCR.APIKey = "k1"
	cfg.LLM.Endpoint = "https://llm.example/chat"
	cfg.LLM.APIKey = "k2"
	if err := cfg.Validate(); err != nil {
		t.Errorf("validate: %v", err)
	}
}
