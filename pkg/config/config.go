package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	EnvPaper = "paper"
	EnvReal  = "real"
)

// Config holds all configuration for swingscan
// ⭐ SSOT: 모든 환경변수는 여기서만 읽음
type Config struct {
	// Environment (paper | real)
	Env string

	// Brokerage API
	Kiwoom KiwoomConfig

	// Naver Finance (시장 요약 스크랩)
	Naver NaverConfig

	// Output directory for CSV artifacts
	OutputDir string

	// Logging
	LogLevel  string
	LogFormat string

	// Serve facade
	Port string

	// HTTP
	HTTPTimeout time.Duration
}

// KiwoomConfig holds Kiwoom REST API configuration
type KiwoomConfig struct {
	AppKey    string
	AppSecret string
	AccountNo string
	BaseURL   string
	CondWSURL string // 조건검색 websocket endpoint
	IsPaper   bool

	// Minimum gap between consecutive REST calls
	MinInterval time.Duration
}

// NaverConfig holds Naver Finance configuration
type NaverConfig struct {
	BaseURL string
}

// LoadFrom loads an explicit env file first, then reads the environment.
// 이미 설정된 환경변수는 godotenv가 덮어쓰지 않으므로 실제 환경이 항상 우선함
func LoadFrom(envFile string) (*Config, error) {
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil {
			return nil, fmt.Errorf("load env file %s: %w", envFile, err)
		}
	}
	return Load()
}

// Load reads configuration from environment variables
// ⭐ SSOT: 이 함수만 os.Getenv()를 호출함
func Load() (*Config, error) {
	loadEnvFile()

	env := strings.ToLower(strings.TrimSpace(getEnv("KIWOOM_ENV", EnvPaper)))
	isPaper := env == EnvPaper

	var kiwoom KiwoomConfig
	if isPaper {
		kiwoom = KiwoomConfig{
			AppKey:    getEnv("KIWOOM_PAPER_APP_KEY", ""),
			AppSecret: getEnv("KIWOOM_PAPER_APP_SECRET", ""),
			AccountNo: getEnv("KIWOOM_PAPER_ACCOUNT_NO", ""),
			BaseURL:   getEnv("KIWOOM_BASE_URL", "https://mockapi.kiwoom.com"),
			CondWSURL: getEnv("KIWOOM_COND_WS_URL", "wss://mockapi.kiwoom.com:10000/api/dostk/websocket"),
		}
	} else {
		kiwoom = KiwoomConfig{
			AppKey:    getEnv("KIWOOM_APP_KEY", ""),
			AppSecret: getEnv("KIWOOM_APP_SECRET", ""),
			AccountNo: getEnv("KIWOOM_ACCOUNT_NO", ""),
			BaseURL:   getEnv("KIWOOM_BASE_URL", "https://api.kiwoom.com"),
			CondWSURL: getEnv("KIWOOM_COND_WS_URL", "wss://api.kiwoom.com:10000/api/dostk/websocket"),
		}
	}
	kiwoom.IsPaper = isPaper
	kiwoom.MinInterval = getEnvAsDuration("KIWOOM_MIN_INTERVAL", "350ms")

	cfg := &Config{
		Env:    env,
		Kiwoom: kiwoom,

		Naver: NaverConfig{
			BaseURL: getEnv("NAVER_BASE_URL", "https://finance.naver.com"),
		},

		OutputDir: getEnv("OUTPUT_DIR", "output"),

		LogLevel:  getEnv("LOG_LEVEL", "info"),
		LogFormat: getEnv("LOG_FORMAT", "console"),

		Port: getEnv("PORT", "8085"),

		HTTPTimeout: getEnvAsDuration("HTTP_TIMEOUT", "20s"),
	}

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

// validate checks structural configuration. Credentials are checked lazily by
// KiwoomConfig.Validate so commands that never touch the brokerage (serve,
// version) run without keys.
func (c *Config) validate() error {
	if c.Env != EnvPaper && c.Env != EnvReal {
		return fmt.Errorf("KIWOOM_ENV must be one of: paper, real (got %q)", c.Env)
	}
	if c.Kiwoom.MinInterval <= 0 {
		return fmt.Errorf("KIWOOM_MIN_INTERVAL must be positive")
	}
	return nil
}

// Validate checks that brokerage credentials are present for the selected
// environment.
func (k KiwoomConfig) Validate() error {
	prefix := "KIWOOM"
	if k.IsPaper {
		prefix = "KIWOOM_PAPER"
	}
	if k.AppKey == "" {
		return fmt.Errorf("%s_APP_KEY is required", prefix)
	}
	if k.AppSecret == "" {
		return fmt.Errorf("%s_APP_SECRET is required", prefix)
	}
	return nil
}

// Helper functions (private, only used within this file)

// loadEnvFile tries to load .env from multiple locations
func loadEnvFile() {
	paths := []string{
		".env",
	}

	// Also try relative to executable
	if exe, err := os.Executable(); err == nil {
		exeDir := filepath.Dir(exe)
		paths = append(paths,
			filepath.Join(exeDir, ".env"),
			filepath.Join(exeDir, "..", ".env"),
		)
	}

	for _, path := range paths {
		if _, err := os.Stat(path); err == nil {
			_ = godotenv.Load(path)
			return
		}
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue string) time.Duration {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		valueStr = defaultValue
	}

	duration, err := time.ParseDuration(valueStr)
	if err != nil {
		duration, _ = time.ParseDuration(defaultValue)
	}

	return duration
}
