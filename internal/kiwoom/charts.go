package kiwoom

import (
	"context"
	"sort"
	"time"

	"github.com/swinglab/swingscan/internal/contracts"
)

const chartPath = "/api/dostk/chart"

// cntr_tm 포맷 (예: 20260310130100), 한국거래소 기준
const chartTimeLayout = "20060102150405"

var kst = time.FixedZone("KST", 9*60*60)

// MinuteChart fetches the intraday minute chart (ka10080) for one code and
// returns it oldest-first. scope selects the bar width in minutes (1/3/5/...).
// Bars without a parsable close are dropped.
func (c *Client) MinuteChart(ctx context.Context, code, scope string) ([]contracts.TickPoint, error) {
	env, err := c.call(ctx, "ka10080", chartPath, map[string]string{
		"stk_cd":       code,
		"tic_scope":    scope,
		"upd_stkpc_tp": "1",
	})
	if err != nil {
		return nil, err
	}

	items := extractItems(env, "stk_min_pole_chart_qry", "stk_tic_stk_pc_chrt", "output", "items")

	ticks := make([]contracts.TickPoint, 0, len(items))
	for _, item := range items {
		if !item.IsObject() {
			continue
		}

		price := parsePrice(firstString(item, "cur_prc", "stk_clsprc", "close"))
		if price <= 0 {
			continue
		}

		tick := contracts.TickPoint{
			Price:  price,
			Volume: parseVolume(firstString(item, "trde_qty", "volume")),
		}
		if ts := firstString(item, "cntr_tm"); ts != "" {
			if t, err := time.ParseInLocation(chartTimeLayout, ts, kst); err == nil {
				tick.Time = t
			}
		}
		ticks = append(ticks, tick)
	}

	// The API returns newest-first; the signal walk needs oldest-first.
	// Stable so bars without a timestamp keep their relative order.
	sort.SliceStable(ticks, func(i, j int) bool {
		return ticks[i].Time.Before(ticks[j].Time)
	})

	c.logger.WithFields(map[string]interface{}{
		"code": code,
		"bars": len(ticks),
	}).Debug("Minute chart fetched")

	return ticks, nil
}
