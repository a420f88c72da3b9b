package contracts

// Candidate is a swing-mode row: a code present in both leader lists, scored
// by combined rank strength. Produced once per run, persisted only through
// the output file.
// ⭐ SSOT: 스윙 후보 타입은 여기서만
type Candidate struct {
	Quote
	SwingScore float64 `json:"swing_score"`
}
