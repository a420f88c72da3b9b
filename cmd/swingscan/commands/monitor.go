package commands

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/swinglab/swingscan/internal/contracts"
	"github.com/swinglab/swingscan/internal/kiwoom"
	"github.com/swinglab/swingscan/internal/monitor"
	"github.com/swinglab/swingscan/internal/naver"
	"github.com/swinglab/swingscan/internal/scheduler"
	sig "github.com/swinglab/swingscan/internal/signal"
	"github.com/swinglab/swingscan/internal/strategy"
	"github.com/swinglab/swingscan/pkg/httputil"
)

// monitorCmd represents the monitor command
var monitorCmd = &cobra.Command{
	Use:   "monitor",
	Short: "장중 워치리스트 감시",
	Long: `워치리스트 CSV의 후보 종목을 장중에 주기적으로 재평가합니다.

감시 사이클:
- 평일 장중(기본 09:00~15:30)에만 동작
- REBOUND 전환 → 진입 알림 로그
- 밴드 내 PULLBACK → 관찰 목록 로그
- 사이클 결과는 스냅샷 CSV로 저장

Ctrl+C로 종료하면 실행 이력 요약을 출력합니다.

Example:
  go run ./cmd/swingscan monitor --watchlist output/scan_swing.csv
  go run ./cmd/swingscan monitor --watchlist output/scan_swing.csv --interval 10
  go run ./cmd/swingscan monitor --watchlist output/scan_swing.csv --once`,
	RunE: runMonitor,
}

var (
	monWatchlist string
	monInterval  int
	monOpen      string
	monClose     string
	monOut       string
	monProfile   string
	monOnce      bool
)

func init() {
	rootCmd.AddCommand(monitorCmd)

	def := monitor.DefaultConfig()

	// Flags
	monitorCmd.Flags().StringVar(&monWatchlist, "watchlist", def.WatchlistPath, "감시할 후보 CSV 경로")
	monitorCmd.Flags().IntVar(&monInterval, "interval", def.Interval, "점검 주기 (분)")
	monitorCmd.Flags().StringVar(&monOpen, "market-open", def.MarketOpen, "장 시작 시각 (HH:MM, KST)")
	monitorCmd.Flags().StringVar(&monClose, "market-close", def.MarketClose, "장 마감 시각 (HH:MM, KST)")
	monitorCmd.Flags().StringVar(&monOut, "out", def.OutPath, "스냅샷 CSV 경로")
	monitorCmd.Flags().StringVar(&monProfile, "profile", "", "전략 프로파일 YAML 경로")
	monitorCmd.Flags().BoolVar(&monOnce, "once", false, "스케줄 없이 1회만 점검")
}

func runMonitor(cmd *cobra.Command, args []string) error {
	fmt.Println("=== SwingScan 장중 감시 ===")

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	log, _ := newRunLogger(cfg)

	prof, err := loadProfile(monProfile, log)
	if err != nil {
		return err
	}
	if err := strategy.Validate(prof); err != nil {
		return fmt.Errorf("%w: %v", contracts.ErrInvalidParameter, err)
	}

	httpClient := httputil.New(cfg, log)

	broker, err := kiwoom.NewClient(cfg.Kiwoom, httpClient, log)
	if err != nil {
		return fmt.Errorf("create kiwoom client: %w", err)
	}
	defer closeBroker(broker)

	fetcher := sig.NewFetcher(sig.FetcherConfig{
		Workers:    prof.Signal.Workers,
		ChartScope: prof.Signal.ChartScope,
	}, broker, log)
	evaluator := sig.NewEvaluator(sig.EvaluatorConfig{
		TickUnit:    prof.Signal.TickUnit,
		RecoveryPct: prof.Signal.RecoveryPct,
	}, log)
	market := naver.NewClient(httpClient, cfg.Naver.BaseURL, log)

	job, err := monitor.New(monitor.Config{
		WatchlistPath: monWatchlist,
		Interval:      monInterval,
		MarketOpen:    monOpen,
		MarketClose:   monClose,
		OutPath:       monOut,
	}, prof.Signal, fetcher, evaluator, market, log)
	if err != nil {
		return fmt.Errorf("create monitor job: %w", err)
	}

	if monOnce {
		// 장외 시간이면 사이클은 로그만 남기고 건너뜀
		if err := job.Run(cmd.Context()); err != nil {
			return fmt.Errorf("monitor cycle: %w", err)
		}
		PrintSuccess("1회 점검 완료")
		return nil
	}

	sched := scheduler.New(log)
	if err := sched.AddJob(job); err != nil {
		return fmt.Errorf("register monitor job: %w", err)
	}
	sched.Start()

	fmt.Println()
	PrintKeyValue("watchlist", monWatchlist, 9)
	PrintKeyValue("schedule", job.Schedule(), 9)
	PrintKeyValue("hours", fmt.Sprintf("%s ~ %s KST", monOpen, monClose), 9)
	PrintKeyValue("snapshot", monOut, 9)
	fmt.Println("\nPress Ctrl+C to stop")

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	fmt.Println("\nShutting down monitor...")
	sched.Stop()
	printMonitorSummary(sched, job.Name())

	return nil
}

// printMonitorSummary prints the run history collected while monitoring.
func printMonitorSummary(sched *scheduler.Scheduler, jobName string) {
	history, err := sched.GetJobHistory(jobName)
	if err != nil || len(history.Results) == 0 {
		fmt.Println("실행된 사이클이 없습니다")
		return
	}

	fmt.Println()
	PrintSeparator()
	fmt.Printf("  감시 요약: %d 사이클, 성공률 %.1f%%\n", len(history.Results), history.GetSuccessRate()*100)
	PrintSeparator()

	for _, r := range history.GetLatestResults(5) {
		status := "✅"
		if !r.Success {
			status = "❌"
		}
		fmt.Printf("  %s %s (%.1fs)", status, r.StartTime.Format("15:04:05"), r.Duration.Seconds())
		if r.Error != "" {
			fmt.Printf("  %s", r.Error)
		}
		fmt.Println()
	}
}
