package strategy

import "fmt"

// ValidationError 검증 실패 (프로그램 중단)
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// Warning 권장 위반 (경고만)
type Warning struct {
	Code    string
	Message string
}

// Validate checks all required constraints
// 실패 시 error 반환 (프로그램 중단)
func Validate(p *Profile) error {
	// === Screen ===
	if p.Screen.Limit <= 0 {
		return ValidationError{"screen.limit", "must be > 0"}
	}
	if p.Screen.MinPrice < 0 {
		return ValidationError{"screen.min_price", "must be >= 0"}
	}
	if p.Screen.MaxPrice < 0 {
		return ValidationError{"screen.max_price", "must be >= 0"}
	}
	if p.Screen.MaxPrice > 0 && p.Screen.MinPrice > p.Screen.MaxPrice {
		return ValidationError{"screen", "min_price must be <= max_price"}
	}
	if p.Screen.MinVolume < 0 {
		return ValidationError{"screen.min_volume", "must be >= 0"}
	}

	// === Swing ===
	if p.Swing.MinChangePct >= p.Swing.MaxChangePct {
		return ValidationError{"swing", "min_change_pct must be < max_change_pct"}
	}

	// === Signal ===
	if p.Signal.TickUnit <= 0 {
		return ValidationError{"signal.tick_unit", "must be > 0"}
	}
	if p.Signal.RecoveryPct <= 0 || p.Signal.RecoveryPct >= 1 {
		return ValidationError{"signal.recovery_pct", "must be in (0, 1)"}
	}
	if !chartScopes[p.Signal.ChartScope] {
		return ValidationError{"signal.chart_scope", fmt.Sprintf("unsupported scope %q", p.Signal.ChartScope)}
	}
	if p.Signal.Workers < 1 {
		return ValidationError{"signal.workers", "must be >= 1"}
	}
	if p.Signal.RecentHighBars < 0 {
		return ValidationError{"signal.recent_high_bars", "must be >= 0"}
	}
	if p.Signal.PullbackMinPct < 0 {
		return ValidationError{"signal.pullback_min_pct", "must be >= 0"}
	}
	if p.Signal.PullbackMinPct > p.Signal.PullbackMaxPct {
		return ValidationError{"signal", "pullback_min_pct must be <= pullback_max_pct"}
	}
	if p.Signal.MinVolRatio < 0 {
		return ValidationError{"signal.min_vol_ratio", "must be >= 0"}
	}

	return nil
}

// Warn checks recommended constraints (non-fatal)
func Warn(p *Profile) []Warning {
	var warnings []Warning

	// REST 호출이 전역 속도 제한에 직렬화되므로 워커를 늘려도 빨라지지 않음
	if p.Signal.Workers > 8 {
		warnings = append(warnings, Warning{
			Code:    "HIGH_WORKERS",
			Message: fmt.Sprintf("workers=%d: 요청 간격 제한으로 효과 없음", p.Signal.Workers),
		})
	}

	// 회복 인정 폭이 넓으면 얕은 반등도 전부 REBOUND로 분류됨
	if p.Signal.RecoveryPct >= 0.05 {
		warnings = append(warnings, Warning{
			Code:    "WIDE_RECOVERY",
			Message: fmt.Sprintf("recovery_pct=%.3f: 고점 대비 5%% 이상을 회복으로 인정", p.Signal.RecoveryPct),
		})
	}

	// 후보가 많을수록 분봉 조회 수가 비례해서 늘어남
	if p.Screen.Limit > 100 {
		warnings = append(warnings, Warning{
			Code:    "HIGH_LIMIT",
			Message: fmt.Sprintf("limit=%d: 차트 조회 %d회, 실행 시간 주의", p.Screen.Limit, p.Screen.Limit),
		})
	}

	return warnings
}
