package contracts

import "time"

// Signal classifies the intraday pattern of one candidate.
type Signal string

const (
	SignalNone     Signal = "NONE"
	SignalPullback Signal = "PULLBACK"
	SignalRebound  Signal = "REBOUND"
)

// TickPoint is one intraday print for a code. Sequences are ordered by
// strictly increasing Time and are not necessarily uniformly spaced.
type TickPoint struct {
	Time   time.Time `json:"time"`
	Price  float64   `json:"price"`
	Volume int64     `json:"volume,omitempty"` // 지표 계산용, 신호 분류에는 미사용
}

// SignalResult carries the classification and supporting metrics for one
// evaluated candidate. DataMissing marks candidates whose tick series could
// not be fetched; they are recorded as NONE instead of failing the batch.
type SignalResult struct {
	Candidate
	Signal        Signal  `json:"signal"`
	LastPrice     float64 `json:"last_price"`
	DipPct        float64 `json:"dip_pct"`
	RecoveryRatio float64 `json:"recovery_ratio"`
	MA5           float64 `json:"ma5"`
	MA20          float64 `json:"ma20"`
	VolRatio      float64 `json:"vol_ratio"`
	Bars          int     `json:"bars"`
	DataMissing   bool    `json:"data_missing"`
}

// HasSignal reports whether the row classified as a pullback or a rebound.
func (r *SignalResult) HasSignal() bool {
	return r.Signal == SignalPullback || r.Signal == SignalRebound
}
