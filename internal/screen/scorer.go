package screen

import (
	"fmt"
	"sort"

	"github.com/swinglab/swingscan/internal/contracts"
	"github.com/swinglab/swingscan/pkg/logger"
)

// Scorer merges a volume-ranked list and a change-ranked list into one
// scored candidate set.
// ⭐ SSOT: 스윙 후보 교집합/점수 로직은 여기서만
type Scorer struct {
	config ScorerConfig
	logger *logger.Logger
}

// ScorerConfig defines the output cap for scored candidates.
type ScorerConfig struct {
	Limit int // 상위 N개만 유지
}

// NewScorer creates a new scorer
func NewScorer(config ScorerConfig, logger *logger.Logger) *Scorer {
	return &Scorer{
		config: config,
		logger: logger,
	}
}

// Score keeps only codes present in both lists and scores each by combined
// rank strength. Rank 1 in a list of n contributes (n+1-1)/n = 1.0, the last
// rank contributes 1/n, so the score lands in (0, 2].
//
// Price and volume come from the volume-list snapshot, change rate from the
// change-list snapshot; each list is authoritative for its own metric.
// Both input lists empty of overlap is an empty result, not an error.
func (s *Scorer) Score(volume, change []contracts.RankedQuote) ([]contracts.Candidate, error) {
	if s.config.Limit <= 0 {
		return nil, fmt.Errorf("%w: limit must be positive, got %d", contracts.ErrInvalidParameter, s.config.Limit)
	}

	if len(volume) == 0 || len(change) == 0 {
		s.logger.Info("Empty input list, no swing candidates")
		return []contracts.Candidate{}, nil
	}

	changeByCode := make(map[string]contracts.RankedQuote, len(change))
	for _, c := range change {
		changeByCode[c.Code] = c
	}

	type scored struct {
		candidate contracts.Candidate
		tieVolume int64 // 두 스냅샷 거래량 합
	}

	nv := float64(len(volume))
	nc := float64(len(change))

	merged := make([]scored, 0, len(volume))
	for _, v := range volume {
		c, ok := changeByCode[v.Code]
		if !ok {
			continue
		}

		sv := (nv + 1 - float64(v.Rank)) / nv
		sc := (nc + 1 - float64(c.Rank)) / nc

		// 거래량 스냅샷 필드 우선, 비어 있으면 등락률 스냅샷으로 보충
		name := v.Name
		if name == "" {
			name = c.Name
		}
		price := v.Price
		if price == 0 {
			price = c.Price
		}
		vol := v.Volume
		if vol == 0 {
			vol = c.Volume
		}

		merged = append(merged, scored{
			candidate: contracts.Candidate{
				Quote: contracts.Quote{
					Code:       v.Code,
					Name:       name,
					Price:      price,
					Volume:     vol,
					ChangeRate: c.ChangeRate,
				},
				SwingScore: sv + sc,
			},
			tieVolume: v.Volume + c.Volume,
		})
	}

	// Sort by swing score (descending); ties broken by combined volume
	// (descending), then ascending code
	sort.Slice(merged, func(i, j int) bool {
		if merged[i].candidate.SwingScore != merged[j].candidate.SwingScore {
			return merged[i].candidate.SwingScore > merged[j].candidate.SwingScore
		}
		if merged[i].tieVolume != merged[j].tieVolume {
			return merged[i].tieVolume > merged[j].tieVolume
		}
		return merged[i].candidate.Code < merged[j].candidate.Code
	})

	if len(merged) > s.config.Limit {
		merged = merged[:s.config.Limit]
	}

	candidates := make([]contracts.Candidate, 0, len(merged))
	for _, m := range merged {
		candidates = append(candidates, m.candidate)
	}

	fields := map[string]interface{}{
		"volume_list":  len(volume),
		"change_list":  len(change),
		"intersection": len(candidates),
	}
	if len(candidates) > 0 {
		fields["top_code"] = candidates[0].Code
		fields["top_score"] = candidates[0].SwingScore
	}
	s.logger.WithFields(fields).Info("Scoring completed")

	return candidates, nil
}

// DefaultScorerConfig returns default configuration
func DefaultScorerConfig() ScorerConfig {
	return ScorerConfig{
		Limit: 50,
	}
}
