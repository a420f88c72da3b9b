package signal

import (
	"github.com/swinglab/swingscan/internal/contracts"
	"github.com/swinglab/swingscan/pkg/logger"
)

// Evaluator classifies each candidate's intraday series as a pullback
// (dipped from the session high and still depressed), a rebound (dipped and
// recovered back near the high), or none.
// ⭐ SSOT: 눌림목/반등 판정 로직은 여기서만
type Evaluator struct {
	config EvaluatorConfig
	logger *logger.Logger
}

// EvaluatorConfig defines the two knobs the classification depends on.
type EvaluatorConfig struct {
	TickUnit    float64 // 최소 유의미 등락폭 (가격 단위)
	RecoveryPct float64 // 고점 대비 회복 인정 폭 (고점의 비율)
}

// NewEvaluator creates a new evaluator
func NewEvaluator(config EvaluatorConfig, logger *logger.Logger) *Evaluator {
	return &Evaluator{
		config: config,
		logger: logger,
	}
}

type evalState int

const (
	seekingHigh evalState = iota
	inDip
)

// Evaluate classifies one candidate over its ordered tick series and fills
// the supporting metrics. An empty series yields NONE with DataMissing set;
// the caller keeps the row and moves on.
//
// Classification depends only on the series, TickUnit and RecoveryPct.
// Volume feeds the metrics, never the classification.
func (e *Evaluator) Evaluate(c contracts.Candidate, ticks []contracts.TickPoint) contracts.SignalResult {
	result := contracts.SignalResult{
		Candidate: c,
		Signal:    contracts.SignalNone,
		Bars:      len(ticks),
	}

	if len(ticks) == 0 {
		result.DataMissing = true
		return result
	}

	sig, peak, trough := e.classify(ticks)
	last := ticks[len(ticks)-1].Price

	result.Signal = sig
	result.LastPrice = last
	if peak > 0 && trough < peak {
		result.DipPct = (peak - trough) / peak * 100
	}
	if sig != contracts.SignalNone {
		// non-NONE implies a registered dip, so trough < peak holds
		result.RecoveryRatio = (last - trough) / (peak - trough)
	}

	ma5 := NewSMA(5)
	ma20 := NewSMA(20)
	for _, tk := range ticks {
		ma5.Update(tk.Price)
		ma20.Update(tk.Price)
	}
	result.MA5 = ma5.Value()
	result.MA20 = ma20.Value()
	result.VolRatio = volumeRatio(ticks, 5, 20)

	return result
}

// classify walks the series once. The tick that registers a dip never
// classifies the rebound itself; recovery is checked from the next tick on.
func (e *Evaluator) classify(ticks []contracts.TickPoint) (contracts.Signal, float64, float64) {
	peak := ticks[0].Price
	trough := ticks[0].Price
	state := seekingHigh

	for _, tk := range ticks[1:] {
		price := tk.Price

		switch state {
		case seekingHigh:
			// a print above peak+tickUnit restarts dip tracking from the new peak
			if price > peak+e.config.TickUnit {
				peak = price
				trough = price
				continue
			}
			if price <= peak-e.config.TickUnit {
				state = inDip
				if price < trough {
					trough = price
				}
				continue
			}
			if price < trough {
				trough = price
			}

		case inDip:
			if peak-price <= e.config.RecoveryPct*peak {
				return contracts.SignalRebound, peak, trough
			}
			if price < trough {
				trough = price
			}
		}
	}

	if state == inDip {
		return contracts.SignalPullback, peak, trough
	}
	return contracts.SignalNone, peak, trough
}

// EvaluateAll classifies every candidate against its index-aligned series.
// Output order follows the input candidate order, not completion order.
func (e *Evaluator) EvaluateAll(candidates []contracts.Candidate, series [][]contracts.TickPoint) []contracts.SignalResult {
	results := make([]contracts.SignalResult, 0, len(candidates))
	counts := map[contracts.Signal]int{}
	missing := 0

	for i, c := range candidates {
		var ticks []contracts.TickPoint
		if i < len(series) {
			ticks = series[i]
		}

		result := e.Evaluate(c, ticks)
		results = append(results, result)

		counts[result.Signal]++
		if result.DataMissing {
			missing++
		}
	}

	e.logger.WithFields(map[string]interface{}{
		"candidates":   len(candidates),
		"rebound":      counts[contracts.SignalRebound],
		"pullback":     counts[contracts.SignalPullback],
		"none":         counts[contracts.SignalNone],
		"data_missing": missing,
	}).Info("Signal evaluation completed")

	return results
}

// DefaultEvaluatorConfig returns default configuration
func DefaultEvaluatorConfig() EvaluatorConfig {
	return EvaluatorConfig{
		TickUnit:    1.0,
		RecoveryPct: 0.005,
	}
}
