package commands

import (
	"fmt"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/swinglab/swingscan/internal/contracts"
	"github.com/swinglab/swingscan/internal/kiwoom"
	"github.com/swinglab/swingscan/internal/report"
	"github.com/swinglab/swingscan/internal/signal"
	"github.com/swinglab/swingscan/internal/strategy"
	"github.com/swinglab/swingscan/pkg/httputil"
)

// signalCmd represents the signal command
var signalCmd = &cobra.Command{
	Use:   "signal",
	Short: "후보 종목의 눌림목/반등 신호 평가",
	Long: `스캔 결과 CSV의 후보 종목마다 분봉 차트를 받아
눌림목(PULLBACK)/반등(REBOUND) 신호를 평가합니다.

신호 판정:
- REBOUND:  고점 대비 하락 후 회복 밴드 안으로 복귀
- PULLBACK: 고점 대비 하락 중 (회복 전)
- NONE:     신고가 진행 또는 판정 불가

Example:
  go run ./cmd/swingscan signal --input output/scan_swing.csv
  go run ./cmd/swingscan signal --input output/scan_swing.csv --only-signal
  go run ./cmd/swingscan signal --input output/scan_swing.csv --chart-scope 5 --workers 8`,
	RunE: runSignal,
}

var (
	sigInput    string
	sigTickUnit float64
	sigScope    string
	sigRecovery float64
	sigWorkers  int
	sigLimit    int
	sigOnly     bool
	sigOut      string
	sigProfile  string
)

func init() {
	rootCmd.AddCommand(signalCmd)

	def := strategy.Default()

	// Flags
	signalCmd.Flags().StringVar(&sigInput, "input", "output/candidates.csv", "후보 CSV 경로 (scan 출력)")
	signalCmd.Flags().Float64Var(&sigTickUnit, "tick-unit", def.Signal.TickUnit, "최소 유의미 등락폭 (가격 단위)")
	signalCmd.Flags().StringVar(&sigScope, "chart-scope", def.Signal.ChartScope, "분봉 단위 (1|3|5|10|15|30|45|60)")
	signalCmd.Flags().Float64Var(&sigRecovery, "recovery-pct", def.Signal.RecoveryPct, "회복 인정 폭 (고점의 비율)")
	signalCmd.Flags().IntVar(&sigWorkers, "workers", def.Signal.Workers, "동시 차트 조회 수")
	signalCmd.Flags().IntVar(&sigLimit, "limit", 0, "평가할 후보 수 상한 (0 = 전체)")
	signalCmd.Flags().BoolVar(&sigOnly, "only-signal", false, "신호가 있는 종목만 출력")
	signalCmd.Flags().StringVar(&sigOut, "out", "", "CSV 출력 경로 (기본 output/signals_<run_id>.csv)")
	signalCmd.Flags().StringVar(&sigProfile, "profile", "", "전략 프로파일 YAML 경로")
}

func runSignal(cmd *cobra.Command, args []string) error {
	fmt.Println("=== SwingScan 신호 평가 ===")

	if sigLimit < 0 {
		return fmt.Errorf("%w: limit must be >= 0, got %d", contracts.ErrInvalidParameter, sigLimit)
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	log, runID := newRunLogger(cfg)

	prof, err := loadProfile(sigProfile, log)
	if err != nil {
		return err
	}
	applySignalFlags(cmd, prof)

	if err := strategy.Validate(prof); err != nil {
		return fmt.Errorf("%w: %v", contracts.ErrInvalidParameter, err)
	}

	// 네트워크 호출 전에 입력부터 읽는다
	cands, err := report.ReadCandidates(sigInput)
	if err != nil {
		return fmt.Errorf("read candidates: %w", err)
	}
	if len(cands) == 0 {
		PrintWarning(fmt.Sprintf("평가할 후보가 없습니다: %s", sigInput))
		return nil
	}
	if sigLimit > 0 && len(cands) > sigLimit {
		cands = cands[:sigLimit]
	}

	ctx := cmd.Context()
	httpClient := httputil.New(cfg, log)

	broker, err := kiwoom.NewClient(cfg.Kiwoom, httpClient, log)
	if err != nil {
		return fmt.Errorf("create kiwoom client: %w", err)
	}
	defer closeBroker(broker)

	fetcher := signal.NewFetcher(signal.FetcherConfig{
		Workers:    prof.Signal.Workers,
		ChartScope: prof.Signal.ChartScope,
	}, broker, log)
	evaluator := signal.NewEvaluator(signal.EvaluatorConfig{
		TickUnit:    prof.Signal.TickUnit,
		RecoveryPct: prof.Signal.RecoveryPct,
	}, log)

	start := time.Now()

	series, err := fetcher.FetchAll(ctx, cands)
	if err != nil {
		return fmt.Errorf("fetch charts: %w", err)
	}
	results := evaluator.EvaluateAll(cands, series)

	if sigOnly {
		withSignal := results[:0]
		for _, r := range results {
			if r.HasSignal() {
				withSignal = append(withSignal, r)
			}
		}
		results = withSignal
	}

	printSignals(results)

	out := sigOut
	if out == "" {
		out = defaultOutPath(cfg.OutputDir, "signals", runID)
	}
	if err := report.WriteSignals(out, results); err != nil {
		return fmt.Errorf("write csv: %w", err)
	}

	PrintSuccess(fmt.Sprintf("%d종목 평가 → %s (%.1fs)", len(results), out, time.Since(start).Seconds()))
	return nil
}

// applySignalFlags overlays explicitly set flags onto the profile.
func applySignalFlags(cmd *cobra.Command, prof *strategy.Profile) {
	flags := cmd.Flags()
	if flags.Changed("tick-unit") {
		prof.Signal.TickUnit = sigTickUnit
	}
	if flags.Changed("chart-scope") {
		prof.Signal.ChartScope = sigScope
	}
	if flags.Changed("recovery-pct") {
		prof.Signal.RecoveryPct = sigRecovery
	}
	if flags.Changed("workers") {
		prof.Signal.Workers = sigWorkers
	}
}

func printSignals(results []contracts.SignalResult) {
	if len(results) == 0 {
		PrintWarning("신호가 있는 종목이 없습니다")
		return
	}

	fmt.Println()
	cols := []string{"코드", "종목명", "신호", "현재가", "낙폭", "회복비", "거래량비", "비고"}
	widths := []int{8, 18, 10, 10, 8, 8, 8, 8}
	PrintTableHeader(cols, widths)
	for _, r := range results {
		note := ""
		if r.DataMissing {
			note = "결측"
		}
		PrintTableRow([]string{
			r.Code,
			r.Name,
			string(r.Signal),
			fmt.Sprintf("%.0f", r.LastPrice),
			fmt.Sprintf("%.2f%%", r.DipPct),
			fmt.Sprintf("%.3f", r.RecoveryRatio),
			fmt.Sprintf("%.2f", r.VolRatio),
			note,
		}, widths)
	}
	fmt.Println()

	rebounds, pullbacks := 0, 0
	for _, r := range results {
		switch r.Signal {
		case contracts.SignalRebound:
			rebounds++
		case contracts.SignalPullback:
			pullbacks++
		}
	}
	PrintKeyValue("REBOUND", strconv.Itoa(rebounds), 8)
	PrintKeyValue("PULLBACK", strconv.Itoa(pullbacks), 8)
}
