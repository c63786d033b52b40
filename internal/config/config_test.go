package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadDefaults(t *testing.T) {
	dataDir := t.TempDir()

	cfg, err := Load("", dataDir)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.Server.Port != 8080 {
		t.Errorf("expected default port 8080, got %d", cfg.Server.Port)
	}
	if cfg.Queue.Workers != 4 {
		t.Errorf("expected 4 workers, got %d", cfg.Queue.Workers)
	}
	if cfg.Queue.MaxRetries != 3 {
		t.Errorf("expected retry ceiling 3, got %d", cfg.Queue.MaxRetries)
	}
	if cfg.Queue.AutoMatchThreshold != 0.85 {
		t.Errorf("expected auto-match threshold 0.85, got %f", cfg.Queue.AutoMatchThreshold)
	}
	if cfg.Storage.SQLitePath != filepath.Join(dataDir, "dealintake.db") {
		t.Errorf("unexpected sqlite path: %s", cfg.Storage.SQLitePath)
	}
	if cfg.Security.JWTSecret == "" {
		t.Error("expected a generated JWT secret when none configured")
	}
}

func TestLoadConfigFile(t *testing.T) {
	dataDir := t.TempDir()
	configPath := filepath.Join(dataDir, "dealintake.yaml")

	content := `server:
  port: 9191
queue:
  workers: 2
  auto_match_threshold: 0.9
`
	if err := os.WriteFile(configPath, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(configPath, dataDir)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.Server.Port != 9191 {
		t.Errorf("expected port 9191 from file, got %d", cfg.Server.Port)
	}
	if cfg.Queue.Workers != 2 {
		t.Errorf("expected 2 workers from file, got %d", cfg.Queue.Workers)
	}
	if cfg.Queue.AutoMatchThreshold != 0.9 {
		t.Errorf("expected auto-match threshold 0.9, got %f", cfg.Queue.AutoMatchThreshold)
	}
}

func TestEnvOverrides(t *testing.T) {
	os.Setenv("DEALINTAKE_OCR_BASE_URL", "http://ocr.internal:7000")
	os.Setenv("DEALINTAKE_LLM_PROVIDERS_OPENAI_API_KEY", "sk-test")
	os.Setenv("DEALINTAKE_LLM_PROVIDERS_OPENAI_MODEL", "gpt-4o")
	defer os.Unsetenv("DEALINTAKE_OCR_BASE_URL")
	defer os.Unsetenv("DEALINTAKE_LLM_PROVIDERS_OPENAI_API_KEY")
	defer os.Unsetenv("DEALINTAKE_LLM_PROVIDERS_OPENAI_MODEL")

	cfg, err := Load("", t.TempDir())
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.OCR.BaseURL != "http://ocr.internal:7000" {
		t.Errorf("OCR base url not overridden: %s", cfg.OCR.BaseURL)
	}

	p, err := cfg.DefaultProvider()
	if err != nil {
		t.Fatalf("DefaultProvider failed: %v", err)
	}
	if p.APIKey != "sk-test" {
		t.Errorf("provider api key not overridden: %s", p.APIKey)
	}
	if p.Model != "gpt-4o" {
		t.Errorf("provider model not overridden: %s", p.Model)
	}
}

func TestValidateRejectsBadQueue(t *testing.T) {
	cfg := &Config{}
	cfg.Queue.Workers = 0
	if err := validate(cfg); err == nil {
		t.Error("expected error for zero workers")
	}

	cfg.Queue.Workers = 1
	cfg.Queue.AutoMatchThreshold = 1.5
	if err := validate(cfg); err == nil {
		t.Error("expected error for out-of-range auto-match threshold")
	}
}

func TestValidateRequiresWatchDirWhenEnabled(t *testing.T) {
	cfg := &Config{}
	cfg.Queue.Workers = 1
	cfg.Queue.AutoMatchThreshold = 0.85
	cfg.Intake.Enabled = true
	if err := validate(cfg); err == nil {
		t.Error("expected error for enabled intake without watch_dir")
	}
}
