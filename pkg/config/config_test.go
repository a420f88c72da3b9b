package config

import (
	"os"
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	os.Unsetenv("KIWOOM_ENV")
	os.Unsetenv("KIWOOM_BASE_URL")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() failed: %v", err)
	}

	if cfg.Env != EnvPaper {
		t.Errorf("Expected Env to default to paper, got %s", cfg.Env)
	}

	if !cfg.Kiwoom.IsPaper {
		t.Error("Expected IsPaper to be true for paper env")
	}

	if cfg.Kiwoom.BaseURL != "https://mockapi.kiwoom.com" {
		t.Errorf("Expected paper base URL, got %s", cfg.Kiwoom.BaseURL)
	}

	if cfg.Kiwoom.MinInterval != 350*time.Millisecond {
		t.Errorf("Expected MinInterval 350ms, got %v", cfg.Kiwoom.MinInterval)
	}

	if cfg.OutputDir != "output" {
		t.Errorf("Expected OutputDir to be output, got %s", cfg.OutputDir)
	}
}

func TestLoadRealEnv(t *testing.T) {
	os.Setenv("KIWOOM_ENV", "real")
	os.Setenv("KIWOOM_APP_KEY", "key")
	os.Setenv("KIWOOM_APP_SECRET", "secret")

	defer func() {
		os.Unsetenv("KIWOOM_ENV")
		os.Unsetenv("KIWOOM_APP_KEY")
		os.Unsetenv("KIWOOM_APP_SECRET")
	}()

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() failed: %v", err)
	}

	if cfg.Kiwoom.IsPaper {
		t.Error("Expected IsPaper to be false for real env")
	}

	if cfg.Kiwoom.BaseURL != "https://api.kiwoom.com" {
		t.Errorf("Expected real base URL, got %s", cfg.Kiwoom.BaseURL)
	}

	if err := cfg.Kiwoom.Validate(); err != nil {
		t.Errorf("Expected credentials to validate, got %v", err)
	}
}

func TestLoadBaseURLOverride(t *testing.T) {
	os.Setenv("KIWOOM_BASE_URL", "http://localhost:9443")
	defer os.Unsetenv("KIWOOM_BASE_URL")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() failed: %v", err)
	}

	if cfg.Kiwoom.BaseURL != "http://localhost:9443" {
		t.Errorf("Expected override base URL, got %s", cfg.Kiwoom.BaseURL)
	}
}

func TestValidateInvalidEnv(t *testing.T) {
	os.Setenv("KIWOOM_ENV", "sandbox")
	defer os.Unsetenv("KIWOOM_ENV")

	_, err := Load()
	if err == nil {
		t.Error("Expected error when KIWOOM_ENV is invalid, got nil")
	}
}

func TestKiwoomValidateMissingCredentials(t *testing.T) {
	tests := []struct {
		name string
		cfg  KiwoomConfig
	}{
		{"missing key", KiwoomConfig{AppSecret: "s", IsPaper: true}},
		{"missing secret", KiwoomConfig{AppKey: "k", IsPaper: true}},
		{"missing both", KiwoomConfig{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := tt.cfg.Validate(); err == nil {
				t.Error("Expected validation error, got nil")
			}
		})
	}
}

func TestGetEnvAsDuration(t *testing.T) {
	os.Setenv("TEST_DURATION", "2h")
	defer os.Unsetenv("TEST_DURATION")

	duration := getEnvAsDuration("TEST_DURATION", "1h")
	expected := 2 * time.Hour

	if duration != expected {
		t.Errorf("Expected duration to be %v, got %v", expected, duration)
	}

	if got := getEnvAsDuration("TEST_DURATION_UNSET", "30s"); got != 30*time.Second {
		t.Errorf("Expected fallback 30s, got %v", got)
	}
}

func TestLoadFromExplicitEnvFile(t *testing.T) {
	os.Unsetenv("OUTPUT_DIR")
	os.Unsetenv("KIWOOM_ENV")
	defer os.Unsetenv("OUTPUT_DIR")
	defer os.Unsetenv("KIWOOM_ENV")

	path := t.TempDir() + "/custom.env"
	content := "OUTPUT_DIR=runs\nKIWOOM_ENV=paper\n"
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write env file: %v", err)
	}

	cfg, err := LoadFrom(path)
	if err != nil {
		t.Fatalf("LoadFrom() failed: %v", err)
	}

	if cfg.OutputDir != "runs" {
		t.Errorf("Expected OutputDir from env file, got %s", cfg.OutputDir)
	}
}

func TestLoadFromMissingEnvFile(t *testing.T) {
	if _, err := LoadFrom("/nonexistent/custom.env"); err == nil {
		t.Error("Expected error for missing env file, got nil")
	}
}
