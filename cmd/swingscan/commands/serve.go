package commands

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/swinglab/swingscan/internal/api"
	"github.com/swinglab/swingscan/internal/api/handlers"
	"github.com/swinglab/swingscan/internal/metrics"
	"github.com/swinglab/swingscan/pkg/logger"
)

// serveCmd represents the serve command
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "실행 결과 조회 API 서버 시작",
	Long: `스캔/신호 실행 결과 CSV를 조회하는 읽기 전용 API 서버를 시작합니다.

Endpoints:
  GET  /health               - Health check
  GET  /metrics              - Prometheus 지표
  GET  /api/runs             - 실행 결과 목록
  GET  /api/runs/{name}      - 실행 결과 상세 (?limit=N)

Example:
  go run ./cmd/swingscan serve
  go run ./cmd/swingscan serve --port 8085 --dir output`,
	RunE: runServe,
}

var (
	servePort string
	serveDir  string
)

func init() {
	rootCmd.AddCommand(serveCmd)

	// Flags
	serveCmd.Flags().StringVar(&servePort, "port", "", "API 서버 포트 (기본 PORT 환경변수)")
	serveCmd.Flags().StringVar(&serveDir, "dir", "", "결과 디렉토리 (기본 OUTPUT_DIR 환경변수)")
}

func runServe(cmd *cobra.Command, args []string) error {
	fmt.Println("=== SwingScan API Server ===")

	// 1. Load config
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	// Override from flags if set
	if servePort != "" {
		cfg.Port = servePort
	}
	dir := cfg.OutputDir
	if serveDir != "" {
		dir = serveDir
	}

	// 2. Initialize logger
	log := logger.New(cfg)

	log.WithFields(map[string]interface{}{
		"port": cfg.Port,
		"dir":  dir,
		"env":  cfg.Env,
	}).Info("Initializing API server")

	// 3. Create metrics and handlers
	m := metrics.New()
	runs := handlers.NewRunsHandler(dir, m, log)

	// 4. Create router and server
	router := api.NewRouter(runs, m, log)
	server := api.New(cfg.Port, dir, log, router)

	// 5. Start server with graceful shutdown
	go func() {
		if err := server.Start(); err != nil {
			log.WithError(err).Fatal("Failed to start server")
		}
	}()

	fmt.Printf("\n✅ Server running on http://localhost:%s\n", cfg.Port)
	fmt.Println("\nAvailable endpoints:")
	fmt.Println("  GET  /health")
	fmt.Println("  GET  /metrics")
	fmt.Println("  GET  /api/runs")
	fmt.Println("  GET  /api/runs/{name}")
	fmt.Println("\nPress Ctrl+C to stop")

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	log.Info("Shutting down server...")

	// Graceful shutdown with timeout
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}

	log.Info("Server stopped")
	return nil
}
