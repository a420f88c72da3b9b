package commands

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/swinglab/swingscan/internal/contracts"
	"github.com/swinglab/swingscan/internal/kiwoom"
	"github.com/swinglab/swingscan/internal/report"
	"github.com/swinglab/swingscan/internal/screen"
	"github.com/swinglab/swingscan/internal/strategy"
	"github.com/swinglab/swingscan/pkg/httputil"
	"github.com/swinglab/swingscan/pkg/logger"
)

// scanCmd represents the scan command
var scanCmd = &cobra.Command{
	Use:   "scan",
	Short: "랭킹 스냅샷 스캔 및 후보 선정",
	Long: `키움 REST 랭킹 API로 종목을 스캔합니다.

스캔 모드:
- volume:    당일 거래량 상위
- change:    전일 대비 등락률 상위
- condition: HTS 저장 조건검색식 (--condition-idx 필수)
- swing:     volume ∩ change 교집합 + 스윙 점수

결과는 표로 출력되고 CSV로 저장됩니다.

Example:
  go run ./cmd/swingscan scan --mode volume --min-price 5000
  go run ./cmd/swingscan scan --mode condition --condition-idx 0
  go run ./cmd/swingscan scan --mode swing --limit 30 --out output/swing.csv`,
	RunE: runScan,
}

var (
	scanMode      string
	scanCondIdx   int
	scanKeyword   string
	scanMinPrice  float64
	scanMaxPrice  float64
	scanMinVolume int64
	scanLimit     int
	scanSwingMin  float64
	scanSwingMax  float64
	scanOut       string
	scanProfile   string
)

func init() {
	rootCmd.AddCommand(scanCmd)

	def := strategy.Default()

	// Flags
	scanCmd.Flags().StringVar(&scanMode, "mode", "volume", "스캔 모드 (volume|change|condition|swing)")
	scanCmd.Flags().IntVar(&scanCondIdx, "condition-idx", -1, "조건검색식 인덱스 (condition 모드 필수)")
	scanCmd.Flags().StringVar(&scanKeyword, "keyword", def.Screen.Keyword, "종목명 포함 필터")
	scanCmd.Flags().Float64Var(&scanMinPrice, "min-price", def.Screen.MinPrice, "최소 현재가")
	scanCmd.Flags().Float64Var(&scanMaxPrice, "max-price", def.Screen.MaxPrice, "최대 현재가 (0 = 상한 없음)")
	scanCmd.Flags().Int64Var(&scanMinVolume, "min-volume", def.Screen.MinVolume, "최소 누적 거래량")
	scanCmd.Flags().IntVar(&scanLimit, "limit", def.Screen.Limit, "최대 종목 수")
	scanCmd.Flags().Float64Var(&scanSwingMin, "swing-min-change", def.Swing.MinChangePct, "스윙 등락률 하한 (%)")
	scanCmd.Flags().Float64Var(&scanSwingMax, "swing-max-change", def.Swing.MaxChangePct, "스윙 등락률 상한 (%)")
	scanCmd.Flags().StringVar(&scanOut, "out", "", "CSV 출력 경로 (기본 output/scan_<mode>_<run_id>.csv)")
	scanCmd.Flags().StringVar(&scanProfile, "profile", "", "전략 프로파일 YAML 경로")
}

func runScan(cmd *cobra.Command, args []string) error {
	fmt.Println("=== SwingScan 스캔 ===")

	// 네트워크 호출 전에 파라미터부터 거른다
	mode := contracts.Mode(scanMode)
	if !mode.Valid() {
		return fmt.Errorf("%w: invalid mode %q (use: volume, change, condition, swing)",
			contracts.ErrInvalidParameter, scanMode)
	}
	if mode == contracts.ModeCondition && scanCondIdx < 0 {
		return fmt.Errorf("%w: condition mode requires --condition-idx (run 'swingscan conditions' to list)",
			contracts.ErrInvalidParameter)
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	log, runID := newRunLogger(cfg)

	prof, err := loadProfile(scanProfile, log)
	if err != nil {
		return err
	}
	applyScanFlags(cmd, prof)

	if err := strategy.Validate(prof); err != nil {
		return fmt.Errorf("%w: %v", contracts.ErrInvalidParameter, err)
	}

	ctx := cmd.Context()
	httpClient := httputil.New(cfg, log)

	broker, err := kiwoom.NewClient(cfg.Kiwoom, httpClient, log)
	if err != nil {
		return fmt.Errorf("create kiwoom client: %w", err)
	}
	defer closeBroker(broker)

	ranker := screen.NewRanker(screen.RankerConfig{
		MinPrice:  prof.Screen.MinPrice,
		MaxPrice:  prof.Screen.MaxPrice,
		MinVolume: prof.Screen.MinVolume,
		Keyword:   prof.Screen.Keyword,
		Limit:     prof.Screen.Limit,
	}, log)

	start := time.Now()

	out := scanOut
	if out == "" {
		out = defaultOutPath(cfg.OutputDir, "scan_"+string(mode), runID)
	}

	if mode == contracts.ModeSwing {
		cands, err := assembleSwing(ctx, broker, ranker, prof, log)
		if err != nil {
			return err
		}

		printCandidates(cands)
		if err := report.WriteCandidates(out, cands); err != nil {
			return fmt.Errorf("write csv: %w", err)
		}

		PrintSuccess(fmt.Sprintf("%d종목 → %s (%.1fs)", len(cands), out, time.Since(start).Seconds()))
		return nil
	}

	var quotes []contracts.Quote
	switch mode {
	case contracts.ModeVolume:
		quotes, err = broker.VolumeRank(ctx)
	case contracts.ModeChange:
		quotes, err = broker.ChangeRank(ctx)
	case contracts.ModeCondition:
		quotes, err = fetchConditionQuotes(ctx, broker, scanCondIdx)
	}
	if err != nil {
		return fmt.Errorf("fetch %s snapshot: %w", mode, err)
	}

	ranked, err := ranker.Rank(mode, quotes)
	if err != nil {
		return fmt.Errorf("rank quotes: %w", err)
	}

	printRanked(ranked)

	selected := make([]contracts.Quote, len(ranked))
	for i, rq := range ranked {
		selected[i] = rq.Quote
	}
	if err := report.WriteQuotes(out, selected); err != nil {
		return fmt.Errorf("write csv: %w", err)
	}

	PrintSuccess(fmt.Sprintf("%d종목 → %s (%.1fs)", len(ranked), out, time.Since(start).Seconds()))
	return nil
}

// applyScanFlags overlays explicitly set flags onto the profile.
// 우선순위: 플래그 > 프로파일 > 기본값
func applyScanFlags(cmd *cobra.Command, prof *strategy.Profile) {
	flags := cmd.Flags()
	if flags.Changed("keyword") {
		prof.Screen.Keyword = scanKeyword
	}
	if flags.Changed("min-price") {
		prof.Screen.MinPrice = scanMinPrice
	}
	if flags.Changed("max-price") {
		prof.Screen.MaxPrice = scanMaxPrice
	}
	if flags.Changed("min-volume") {
		prof.Screen.MinVolume = scanMinVolume
	}
	if flags.Changed("limit") {
		prof.Screen.Limit = scanLimit
	}
	if flags.Changed("swing-min-change") {
		prof.Swing.MinChangePct = scanSwingMin
	}
	if flags.Changed("swing-max-change") {
		prof.Swing.MaxChangePct = scanSwingMax
	}
}

// assembleSwing builds the swing candidate list: both rankings, the
// intersection score, then the change-rate band on the scored output.
func assembleSwing(ctx context.Context, broker *kiwoom.Client, ranker *screen.Ranker, prof *strategy.Profile, log *logger.Logger) ([]contracts.Candidate, error) {
	volQuotes, err := broker.VolumeRank(ctx)
	if err != nil {
		return nil, fmt.Errorf("fetch volume snapshot: %w", err)
	}
	chgQuotes, err := broker.ChangeRank(ctx)
	if err != nil {
		return nil, fmt.Errorf("fetch change snapshot: %w", err)
	}

	volRanked, err := ranker.Rank(contracts.ModeVolume, volQuotes)
	if err != nil {
		return nil, fmt.Errorf("rank volume quotes: %w", err)
	}
	chgRanked, err := ranker.Rank(contracts.ModeChange, chgQuotes)
	if err != nil {
		return nil, fmt.Errorf("rank change quotes: %w", err)
	}

	scorer := screen.NewScorer(screen.ScorerConfig{Limit: prof.Screen.Limit}, log)
	cands, err := scorer.Score(volRanked, chgRanked)
	if err != nil {
		return nil, fmt.Errorf("score candidates: %w", err)
	}

	banded := cands[:0]
	for _, c := range cands {
		if c.ChangeRate >= prof.Swing.MinChangePct && c.ChangeRate <= prof.Swing.MaxChangePct {
			banded = append(banded, c)
		}
	}
	if len(banded) < len(cands) {
		log.WithFields(map[string]interface{}{
			"dropped": len(cands) - len(banded),
			"band":    fmt.Sprintf("[%.1f, %.1f]", prof.Swing.MinChangePct, prof.Swing.MaxChangePct),
		}).Info("Change-rate band applied")
	}
	return banded, nil
}

// fetchConditionQuotes resolves the index against the saved condition list.
func fetchConditionQuotes(ctx context.Context, broker *kiwoom.Client, idx int) ([]contracts.Quote, error) {
	conds, err := broker.Conditions(ctx)
	if err != nil {
		return nil, fmt.Errorf("list conditions: %w", err)
	}
	if idx >= len(conds) {
		return nil, fmt.Errorf("%w: condition index %d out of range (%d conditions saved)",
			contracts.ErrInvalidParameter, idx, len(conds))
	}

	cond := conds[idx]
	fmt.Printf("조건검색식: [%s] %s\n", cond.Seq, cond.Name)
	return broker.ConditionSearch(ctx, cond.Seq)
}

func printRanked(ranked []contracts.RankedQuote) {
	if len(ranked) == 0 {
		PrintWarning("조건을 만족하는 종목이 없습니다")
		return
	}

	fmt.Println()
	cols := []string{"순위", "코드", "종목명", "현재가", "거래량", "등락률"}
	widths := []int{4, 8, 20, 12, 14, 8}
	PrintTableHeader(cols, widths)
	for _, rq := range ranked {
		PrintTableRow([]string{
			strconv.Itoa(rq.Rank),
			rq.Code,
			rq.Name,
			fmt.Sprintf("%.0f", rq.Price),
			strconv.FormatInt(rq.Volume, 10),
			fmt.Sprintf("%+.2f%%", rq.ChangeRate),
		}, widths)
	}
	fmt.Println()
}

func printCandidates(cands []contracts.Candidate) {
	if len(cands) == 0 {
		PrintWarning("스윙 후보가 없습니다 (교집합 또는 등락률 밴드가 빈 결과)")
		return
	}

	fmt.Println()
	cols := []string{"코드", "종목명", "현재가", "거래량", "등락률", "스윙점수"}
	widths := []int{8, 20, 12, 14, 8, 10}
	PrintTableHeader(cols, widths)
	for _, c := range cands {
		PrintTableRow([]string{
			c.Code,
			c.Name,
			fmt.Sprintf("%.0f", c.Price),
			strconv.FormatInt(c.Volume, 10),
			fmt.Sprintf("%+.2f%%", c.ChangeRate),
			fmt.Sprintf("%.2f", c.SwingScore),
		}, widths)
	}
	fmt.Println()
}
