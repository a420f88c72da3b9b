package screen

import (
	"fmt"
	"sort"
	"strings"

	"github.com/swinglab/swingscan/internal/contracts"
	"github.com/swinglab/swingscan/pkg/logger"
)

// Ranker filters raw snapshot quotes and orders them by the mode's metric.
// ⭐ SSOT: 후보 필터링/정렬 로직은 여기서만
type Ranker struct {
	config RankerConfig
	logger *logger.Logger
}

// RankerConfig defines filter thresholds and the output cap.
type RankerConfig struct {
	MinPrice  float64 // 최소 현재가 (0 = 미적용)
	MaxPrice  float64 // 최대 현재가 (0 = 미적용)
	MinVolume int64   // 최소 거래량 (0 = 미적용)
	Keyword   string  // 종목코드/종목명 부분 일치, 대소문자 무시 (빈 문자열 = 미적용)
	Limit     int     // 상위 N개만 유지
}

// NewRanker creates a new ranker
func NewRanker(config RankerConfig, logger *logger.Logger) *Ranker {
	return &Ranker{
		config: config,
		logger: logger,
	}
}

// Rank filters quotes by the configured thresholds, orders them by the
// mode's metric and assigns 1-based ranks.
//
// Volume mode sorts by traded volume, change mode by change rate, both
// descending with ascending code as the tie-break. Condition mode keeps the
// source order: the saved search on the broker side already defines it.
func (r *Ranker) Rank(mode contracts.Mode, quotes []contracts.Quote) ([]contracts.RankedQuote, error) {
	if r.config.Limit <= 0 {
		return nil, fmt.Errorf("%w: limit must be positive, got %d", contracts.ErrInvalidParameter, r.config.Limit)
	}
	if !mode.Fetchable() {
		return nil, fmt.Errorf("%w: mode %q is not rankable", contracts.ErrInvalidParameter, mode)
	}

	passed := make([]contracts.Quote, 0, len(quotes))
	filtered := make(map[string]int) // Filter name -> count

	for _, q := range quotes {
		reason := r.checkThresholds(q)
		if reason == "" {
			passed = append(passed, q)
		} else {
			filtered[reason]++
		}
	}

	switch mode {
	case contracts.ModeVolume:
		sort.Slice(passed, func(i, j int) bool {
			if passed[i].Volume != passed[j].Volume {
				return passed[i].Volume > passed[j].Volume
			}
			return passed[i].Code < passed[j].Code
		})
	case contracts.ModeChange:
		sort.Slice(passed, func(i, j int) bool {
			if passed[i].ChangeRate != passed[j].ChangeRate {
				return passed[i].ChangeRate > passed[j].ChangeRate
			}
			return passed[i].Code < passed[j].Code
		})
	case contracts.ModeCondition:
		// keep source order
	}

	kept := len(passed)
	if kept > r.config.Limit {
		passed = passed[:r.config.Limit]
	}

	ranked := make([]contracts.RankedQuote, 0, len(passed))
	for i, q := range passed {
		ranked = append(ranked, contracts.RankedQuote{
			Quote: q,
			Rank:  i + 1,
		})
	}

	r.logger.WithFields(map[string]interface{}{
		"mode":         string(mode),
		"total_input":  len(quotes),
		"passed":       len(ranked),
		"filtered_out": len(quotes) - kept,
		"filters":      filtered,
	}).Info("Ranking completed")

	return ranked, nil
}

// checkThresholds checks if a quote passes all filter thresholds.
// Returns empty string if passed, otherwise returns filter name.
func (r *Ranker) checkThresholds(q contracts.Quote) string {
	if q.Price < r.config.MinPrice {
		return "min_price"
	}
	if r.config.MaxPrice > 0 && q.Price > r.config.MaxPrice {
		return "max_price"
	}
	if q.Volume < r.config.MinVolume {
		return "min_volume"
	}
	if r.config.Keyword != "" {
		key := strings.ToLower(r.config.Keyword)
		if !strings.Contains(strings.ToLower(q.Code), key) &&
			!strings.Contains(strings.ToLower(q.Name), key) {
			return "keyword"
		}
	}
	return ""
}

// DefaultRankerConfig returns default configuration
func DefaultRankerConfig() RankerConfig {
	return RankerConfig{
		MinPrice:  0,
		MaxPrice:  0,
		MinVolume: 0,
		Keyword:   "",
		Limit:     50,
	}
}
