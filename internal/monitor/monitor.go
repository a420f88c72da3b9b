// Package monitor re-evaluates a watchlist of candidates on a schedule
// during market hours, logging rebounds as entry alerts and in-band
// pullbacks as a watch list.
package monitor

import (
	"context"
	"fmt"
	"time"

	"github.com/swinglab/swingscan/internal/contracts"
	"github.com/swinglab/swingscan/internal/naver"
	"github.com/swinglab/swingscan/internal/report"
	"github.com/swinglab/swingscan/internal/signal"
	"github.com/swinglab/swingscan/internal/strategy"
	"github.com/swinglab/swingscan/pkg/logger"
)

var kst = time.FixedZone("KST", 9*60*60)

// MarketSource provides index snapshots for cycle log context.
type MarketSource interface {
	MarketSummary(ctx context.Context) []naver.IndexSnapshot
}

// Config defines the watch cadence and market-hours window (KST).
type Config struct {
	WatchlistPath string
	Interval      int    // 점검 주기 (분)
	MarketOpen    string // HH:MM
	MarketClose   string // HH:MM
	OutPath       string
}

// DefaultConfig returns default configuration
func DefaultConfig() Config {
	return Config{
		WatchlistPath: "output/weekly_candidates.csv",
		Interval:      5,
		MarketOpen:    "09:00",
		MarketClose:   "15:30",
		OutPath:       "output/monitor_snapshot.csv",
	}
}

// Job runs one watch cycle per schedule tick.
// ⭐ SSOT: 장중 감시 사이클은 이 Job에서만
type Job struct {
	config    Config
	profile   strategy.SignalProfile
	fetcher   *signal.Fetcher
	evaluator *signal.Evaluator
	market    MarketSource
	logger    *logger.Logger

	openMin  int
	closeMin int
	now      func() time.Time
}

// New validates the config and builds the job.
func New(cfg Config, profile strategy.SignalProfile, fetcher *signal.Fetcher, evaluator *signal.Evaluator, market MarketSource, log *logger.Logger) (*Job, error) {
	if cfg.WatchlistPath == "" {
		return nil, fmt.Errorf("%w: watchlist path is required", contracts.ErrInvalidParameter)
	}
	if cfg.Interval < 1 {
		return nil, fmt.Errorf("%w: interval must be positive, got %d", contracts.ErrInvalidParameter, cfg.Interval)
	}

	openMin, err := parseHHMM(cfg.MarketOpen)
	if err != nil {
		return nil, fmt.Errorf("%w: market open %q: %v", contracts.ErrInvalidParameter, cfg.MarketOpen, err)
	}
	closeMin, err := parseHHMM(cfg.MarketClose)
	if err != nil {
		return nil, fmt.Errorf("%w: market close %q: %v", contracts.ErrInvalidParameter, cfg.MarketClose, err)
	}
	if openMin >= closeMin {
		return nil, fmt.Errorf("%w: market open must be before close", contracts.ErrInvalidParameter)
	}

	return &Job{
		config:    cfg,
		profile:   profile,
		fetcher:   fetcher,
		evaluator: evaluator,
		market:    market,
		logger:    log,
		openMin:   openMin,
		closeMin:  closeMin,
		now:       time.Now,
	}, nil
}

// Name returns the job name
func (j *Job) Name() string {
	return "monitor"
}

// Schedule returns the cron expression (weekdays, every Interval minutes).
func (j *Job) Schedule() string {
	return fmt.Sprintf("0 */%d * * * 1-5", j.config.Interval)
}

// Run executes one watch cycle. Outside market hours it skips quietly so
// the scheduler never records a failure for a closed market.
func (j *Job) Run(ctx context.Context) error {
	now := j.now().In(kst)
	if !j.withinMarketHours(now) {
		j.logger.WithField("time", now.Format("Mon 15:04")).Debug("Outside market hours, skipping cycle")
		return nil
	}

	watchlist, err := report.ReadCandidates(j.config.WatchlistPath)
	if err != nil {
		return fmt.Errorf("read watchlist: %w", err)
	}
	if len(watchlist) == 0 {
		j.logger.WithField("path", j.config.WatchlistPath).Warn("Watchlist is empty, nothing to monitor")
		return nil
	}

	series, err := j.fetcher.FetchAll(ctx, watchlist)
	if err != nil {
		return fmt.Errorf("fetch tick series: %w", err)
	}

	results := make([]contracts.SignalResult, 0, len(watchlist))
	rebounds, watches := 0, 0
	for i, c := range watchlist {
		ticks := series[i]
		// 판정은 최근 구간만 본다
		if n := j.profile.RecentHighBars; n > 0 && len(ticks) > n {
			ticks = ticks[len(ticks)-n:]
		}

		r := j.evaluator.Evaluate(c, ticks)
		results = append(results, r)

		switch r.Signal {
		case contracts.SignalRebound:
			rebounds++
			j.logger.WithFields(map[string]interface{}{
				"code":           r.Code,
				"name":           r.Name,
				"last":           r.LastPrice,
				"dip_pct":        r.DipPct,
				"recovery_ratio": r.RecoveryRatio,
			}).Info("Entry alert: rebound confirmed")
		case contracts.SignalPullback:
			if j.profile.WatchCandidate(r.DipPct, r.VolRatio) {
				watches++
				j.logger.WithFields(map[string]interface{}{
					"code":      r.Code,
					"name":      r.Name,
					"last":      r.LastPrice,
					"dip_pct":   r.DipPct,
					"vol_ratio": r.VolRatio,
				}).Info("Watch: pullback in band")
			}
		}
	}

	if err := report.WriteSignals(j.config.OutPath, results); err != nil {
		return fmt.Errorf("write snapshot: %w", err)
	}

	for _, snap := range j.market.MarketSummary(ctx) {
		j.logger.WithFields(map[string]interface{}{
			"index":      snap.Index,
			"level":      snap.Level,
			"change_pct": snap.ChangePct,
			"direction":  snap.Direction,
		}).Info("Market snapshot")
	}

	j.logger.WithFields(map[string]interface{}{
		"checked":  len(results),
		"rebounds": rebounds,
		"watch":    watches,
		"out":      j.config.OutPath,
	}).Info("Monitor cycle completed")

	return nil
}

// withinMarketHours reports whether t falls on a weekday inside
// [open, close).
func (j *Job) withinMarketHours(t time.Time) bool {
	switch t.Weekday() {
	case time.Saturday, time.Sunday:
		return false
	}
	minutes := t.Hour()*60 + t.Minute()
	return minutes >= j.openMin && minutes < j.closeMin
}

func parseHHMM(s string) (int, error) {
	parsed, err := time.Parse("15:04", s)
	if err != nil {
		return 0, err
	}
	return parsed.Hour()*60 + parsed.Minute(), nil
}
