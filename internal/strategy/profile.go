package strategy

// Profile은 스캔/시그널 실행 파라미터 묶음
// CLI 플래그 > 프로파일 > Default() 순으로 우선 적용
type Profile struct {
	Name   string        `yaml:"name" json:"name"`
	Screen ScreenProfile `yaml:"screen" json:"screen"`
	Swing  SwingProfile  `yaml:"swing" json:"swing"`
	Signal SignalProfile `yaml:"signal" json:"signal"`
}

// ScreenProfile 후보 필터 임계값
type ScreenProfile struct {
	MinPrice  float64 `yaml:"min_price" json:"min_price"`
	MaxPrice  float64 `yaml:"max_price" json:"max_price"` // 0 = 상한 미적용
	MinVolume int64   `yaml:"min_volume" json:"min_volume"`
	Keyword   string  `yaml:"keyword" json:"keyword"`
	Limit     int     `yaml:"limit" json:"limit"`
}

// SwingProfile 스윙 모드 등락률 허용 구간
// 과열(상한 초과)과 급락(하한 미만) 종목을 점수 산출 이후 단계에서 거른다
type SwingProfile struct {
	MinChangePct float64 `yaml:"min_change_pct" json:"min_change_pct"`
	MaxChangePct float64 `yaml:"max_change_pct" json:"max_change_pct"`
}

// SignalProfile 눌림목/반등 판정과 차트 수집 파라미터
// TickUnit은 최소 유의미 등락폭 (가격 단위), RecoveryPct는 고점 대비 회복
// 인정 폭 (고점의 비율). RecentHighBars는 모니터 판정 구간 (최근 N봉, 0 = 전체).
type SignalProfile struct {
	TickUnit       float64 `yaml:"tick_unit" json:"tick_unit"`
	RecoveryPct    float64 `yaml:"recovery_pct" json:"recovery_pct"`
	ChartScope     string  `yaml:"chart_scope" json:"chart_scope"`
	Workers        int     `yaml:"workers" json:"workers"`
	RecentHighBars int     `yaml:"recent_high_bars" json:"recent_high_bars"`
	PullbackMinPct float64 `yaml:"pullback_min_pct" json:"pullback_min_pct"`
	PullbackMaxPct float64 `yaml:"pullback_max_pct" json:"pullback_max_pct"`
	MinVolRatio    float64 `yaml:"min_vol_ratio" json:"min_vol_ratio"`
}

// chartScopes는 분봉 API가 받는 tic_scope 값
var chartScopes = map[string]bool{
	"1": true, "3": true, "5": true, "10": true,
	"15": true, "30": true, "45": true, "60": true,
}

// Default returns the built-in profile.
func Default() Profile {
	return Profile{
		Screen: ScreenProfile{
			Limit: 50,
		},
		Swing: SwingProfile{
			MinChangePct: -3.0,
			MaxChangePct: 12.0,
		},
		Signal: SignalProfile{
			TickUnit:       1.0,
			RecoveryPct:    0.005,
			ChartScope:     "1",
			Workers:        4,
			RecentHighBars: 120,
			PullbackMinPct: 3.0,
			PullbackMaxPct: 15.0,
			MinVolRatio:    1.0,
		},
	}
}

// WatchCandidate reports whether a pullback row qualifies for the monitor
// watch list: dip depth inside the pullback band and volume holding up.
func (p SignalProfile) WatchCandidate(dipPct, volRatio float64) bool {
	if dipPct < p.PullbackMinPct || dipPct > p.PullbackMaxPct {
		return false
	}
	return volRatio >= p.MinVolRatio
}
