package kiwoom

import (
	"context"
	"strconv"
	"strings"

	"github.com/tidwall/gjson"

	"github.com/swinglab/swingscan/internal/contracts"
)

const rankPath = "/api/dostk/rkinfo"

// VolumeRank fetches the traded-volume leaders (ka10030) as raw quotes.
// Ordering and filtering happen downstream.
func (c *Client) VolumeRank(ctx context.Context) ([]contracts.Quote, error) {
	env, err := c.call(ctx, "ka10030", rankPath, map[string]string{
		"mrkt_tp":        "000",
		"sort_tp":        "1",
		"mang_stk_incls": "0",
		"crd_tp":         "0",
		"trde_qty_tp":    "0",
		"pric_tp":        "0",
		"trde_prica_tp":  "0",
		"mrkt_open_tp":   "0",
		"stex_tp":        c.stexTp(),
	})
	if err != nil {
		return nil, err
	}

	quotes := parseQuotes(extractItems(env, "tdy_trde_qty_upper", "output", "items"))
	c.logger.WithField("count", len(quotes)).Debug("Volume rank fetched")
	return quotes, nil
}

// ChangeRank fetches the day-over-day change-rate leaders (ka10027).
func (c *Client) ChangeRank(ctx context.Context) ([]contracts.Quote, error) {
	env, err := c.call(ctx, "ka10027", rankPath, map[string]string{
		"mrkt_tp":        "000",
		"sort_tp":        "1",
		"trde_qty_cnd":   "0000",
		"stk_cnd":        "0",
		"crd_cnd":        "0",
		"updown_incls":   "1",
		"pric_cnd":       "0",
		"trde_prica_cnd": "0",
		"stex_tp":        c.stexTp(),
	})
	if err != nil {
		return nil, err
	}

	quotes := parseQuotes(extractItems(env, "pred_pre_flu_rt_upper", "output", "items"))
	c.logger.WithField("count", len(quotes)).Debug("Change rank fetched")
	return quotes, nil
}

// extractItems finds the first list under any of the candidate keys, checking
// the envelope root first and a nested "body" object second. Response shapes
// vary between API versions, hence the fallback chain.
func extractItems(env gjson.Result, keys ...string) []gjson.Result {
	for _, key := range keys {
		if v := env.Get(key); v.IsArray() {
			return v.Array()
		}
	}
	if body := env.Get("body"); body.IsObject() {
		for _, key := range keys {
			if v := body.Get(key); v.IsArray() {
				return v.Array()
			}
		}
	}
	return nil
}

func parseQuotes(items []gjson.Result) []contracts.Quote {
	quotes := make([]contracts.Quote, 0, len(items))
	for _, item := range items {
		if !item.IsObject() {
			continue
		}
		q := parseQuote(item)
		if q.Code == "" {
			continue
		}
		quotes = append(quotes, q)
	}
	return quotes
}

// parseQuote maps one response item to a Quote. Keys differ across the
// ranking, condition and chart payloads, so every field walks a fallback
// chain mirroring the API variants.
func parseQuote(item gjson.Result) contracts.Quote {
	return contracts.Quote{
		Code:       strings.TrimSpace(firstString(item, "stk_cd", "code", "item_cd", "isu_cd")),
		Name:       strings.TrimSpace(firstString(item, "stk_nm", "name", "item_nm", "isu_nm")),
		Price:      parsePrice(firstString(item, "cur_prc", "cur_price", "stck_prpr", "price")),
		Volume:     parseVolume(firstString(item, "acml_vol", "trde_qty", "now_trde_qty", "volume")),
		ChangeRate: parseSignedFloat(firstString(item, "flu_rt", "prdy_ctrt", "change_rate")),
	}
}

// firstString returns the first non-empty string value among the keys.
func firstString(item gjson.Result, keys ...string) string {
	for _, key := range keys {
		if v := item.Get(key); v.Exists() && v.String() != "" {
			return v.String()
		}
	}
	return ""
}

// parsePrice strips commas and a sign prefix and returns the absolute value.
// Kiwoom prefixes prices with +/- to encode direction; magnitude is what the
// pipeline wants.
func parsePrice(s string) float64 {
	clean := strings.TrimLeft(strings.ReplaceAll(strings.TrimSpace(s), ",", ""), "+-")
	if clean == "" {
		return 0
	}
	v, err := strconv.ParseFloat(clean, 64)
	if err != nil {
		return 0
	}
	return v
}

// parseVolume parses a comma-grouped count. Malformed input reads as 0.
func parseVolume(s string) int64 {
	clean := strings.ReplaceAll(strings.TrimSpace(s), ",", "")
	if clean == "" {
		return 0
	}
	v, err := strconv.ParseFloat(clean, 64)
	if err != nil {
		return 0
	}
	return int64(v)
}

// parseSignedFloat keeps the sign; change rates are meaningfully negative.
func parseSignedFloat(s string) float64 {
	clean := strings.ReplaceAll(strings.TrimSpace(s), ",", "")
	if clean == "" {
		return 0
	}
	v, err := strconv.ParseFloat(clean, 64)
	if err != nil {
		return 0
	}
	return v
}
