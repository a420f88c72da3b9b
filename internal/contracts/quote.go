package contracts

// Mode selects which ranking snapshot a run is built from.
type Mode string

const (
	ModeVolume    Mode = "volume"
	ModeChange    Mode = "change"
	ModeCondition Mode = "condition"
	ModeSwing     Mode = "swing"
)

// Valid reports whether m is a mode the CLI accepts.
func (m Mode) Valid() bool {
	switch m {
	case ModeVolume, ModeChange, ModeCondition, ModeSwing:
		return true
	}
	return false
}

// Fetchable reports whether m maps to a single data-source query.
// swing is a composite of volume and change and is assembled by the caller.
func (m Mode) Fetchable() bool {
	return m == ModeVolume || m == ModeChange || m == ModeCondition
}

// Quote is one stock row from a ranking snapshot, immutable at fetch time.
// ⭐ SSOT: 시세 스냅샷 행 타입은 여기서만
type Quote struct {
	Code       string  `json:"code"`
	Name       string  `json:"name"`
	Price      float64 `json:"price"`
	Volume     int64   `json:"volume"`
	ChangeRate float64 `json:"change_rate"`
}

// RankedQuote is a Quote plus its 1-based position within one source list.
// Rank 1 is best (highest volume, or highest change rate).
type RankedQuote struct {
	Quote
	Rank int `json:"rank"`
}
