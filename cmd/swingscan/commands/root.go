package commands

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/swinglab/swingscan/internal/kiwoom"
	"github.com/swinglab/swingscan/internal/strategy"
	"github.com/swinglab/swingscan/pkg/config"
	"github.com/swinglab/swingscan/pkg/id"
	"github.com/swinglab/swingscan/pkg/logger"
)

var (
	// Global flags
	configFile string
	envName    string
	verbose    bool
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "swingscan",
	Short: "SwingScan - 키움 REST 기반 스윙 종목 스캐너",
	Long: `SwingScan Unified CLI

키움증권 REST API로 거래량/등락률 상위 종목을 스캔하고,
눌림목(PULLBACK)/반등(REBOUND) 신호를 평가합니다.

Usage:
  go run ./cmd/swingscan [command]

Examples:
  go run ./cmd/swingscan scan --mode swing
  go run ./cmd/swingscan signal --input output/scan_swing.csv
  go run ./cmd/swingscan monitor --watchlist output/scan_swing.csv
  go run ./cmd/swingscan serve --port 8085`,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	// Global flags
	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "env 파일 경로 (기본은 .env 자동 탐색)")
	rootCmd.PersistentFlags().StringVar(&envName, "env", "", "환경 선택 (paper|real, 기본은 KIWOOM_ENV)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
}

// loadConfig applies the global flags and reads the environment.
func loadConfig() (*config.Config, error) {
	if envName != "" {
		os.Setenv("KIWOOM_ENV", envName)
	}

	cfg, err := config.LoadFrom(configFile)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	if verbose {
		cfg.LogLevel = "debug"
	}
	return cfg, nil
}

// newRunLogger tags every log line of one invocation with a run id.
// The same id goes into default output filenames, so an artifact can be
// matched back to its log stream.
func newRunLogger(cfg *config.Config) (*logger.Logger, string) {
	runID := id.New()
	return logger.New(cfg).WithField("run_id", runID), runID
}

// loadProfile loads the strategy profile, falling back to defaults.
// 로드된 프로파일은 해시와 경고까지 로그에 남긴다.
func loadProfile(path string, log *logger.Logger) (*strategy.Profile, error) {
	if path == "" {
		p := strategy.Default()
		return &p, nil
	}

	prof, err := strategy.Load(path)
	if err != nil {
		return nil, fmt.Errorf("load profile: %w", err)
	}

	hash, err := strategy.Hash(prof)
	if err != nil {
		return nil, fmt.Errorf("hash profile: %w", err)
	}

	log.WithFields(map[string]interface{}{
		"profile": path,
		"name":    prof.Name,
		"hash":    hash[:12],
	}).Info("Strategy profile loaded")

	for _, w := range strategy.Warn(prof) {
		log.WithField("code", w.Code).Warn(w.Message)
	}
	return prof, nil
}

// closeBroker revokes the access token on exit.
func closeBroker(broker *kiwoom.Client) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	broker.Close(ctx)
}

// defaultOutPath builds <dir>/<stem>_<runID>.csv
// ULID는 시간순 정렬이 되므로 파일명만으로도 최신 실행을 찾을 수 있음
func defaultOutPath(dir, stem, runID string) string {
	return filepath.Join(dir, fmt.Sprintf("%s_%s.csv", stem, runID))
}
