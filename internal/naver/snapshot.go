// Package naver scrapes market index summaries from Naver Finance for
// monitor log context. Best-effort only: a failed scrape degrades to a
// warning, never to a failed cycle.
package naver

import (
	"context"
	"fmt"
	"io"
	"math"
	"net/http"
	"net/url"
	"regexp"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/swinglab/swingscan/pkg/httputil"
	"github.com/swinglab/swingscan/pkg/logger"
)

// 지수 페이지 경로와 대상 지수
const indexPath = "/sise/sise_index.naver"

var indexCodes = []string{"KOSPI", "KOSDAQ"}

// Direction of an index move, derived from the page's 상승/하락/보합 marker.
const (
	DirectionUp   = "UP"
	DirectionDown = "DOWN"
	DirectionFlat = "FLAT"
)

// IndexSnapshot is one index level with its daily change.
type IndexSnapshot struct {
	Index     string
	Level     float64
	ChangePct float64
	Direction string
}

// Client handles communication with Naver Finance
// ⭐ SSOT: Naver Finance 호출은 이 클라이언트에서만
type Client struct {
	httpClient *httputil.Client
	logger     *logger.Logger
	baseURL    string
}

// NewClient creates a new Naver Finance client
func NewClient(httpClient *httputil.Client, baseURL string, log *logger.Logger) *Client {
	return &Client{
		httpClient: httpClient,
		logger:     log,
		baseURL:    baseURL,
	}
}

// MarketSummary fetches KOSPI and KOSDAQ snapshots. An index that fails to
// fetch or parse is logged and skipped; the caller gets whatever succeeded.
func (c *Client) MarketSummary(ctx context.Context) []IndexSnapshot {
	snapshots := make([]IndexSnapshot, 0, len(indexCodes))
	for _, code := range indexCodes {
		snap, err := c.FetchIndex(ctx, code)
		if err != nil {
			c.logger.WithError(err).WithField("index", code).Warn("Index snapshot failed")
			continue
		}
		snapshots = append(snapshots, *snap)
	}
	return snapshots
}

// FetchIndex fetches one index page and parses the current level and change.
func (c *Client) FetchIndex(ctx context.Context, code string) (*IndexSnapshot, error) {
	params := url.Values{}
	params.Set("code", code)

	html, err := c.fetchHTML(ctx, indexPath, params)
	if err != nil {
		return nil, err
	}

	snap, err := parseIndexHTML(html, code)
	if err != nil {
		return nil, err
	}

	c.logger.WithFields(map[string]interface{}{
		"index":      snap.Index,
		"level":      snap.Level,
		"change_pct": snap.ChangePct,
	}).Debug("Fetched index snapshot")
	return snap, nil
}

// fetchHTML fetches HTML from Naver Finance
func (c *Client) fetchHTML(ctx context.Context, path string, params url.Values) (string, error) {
	fullURL := fmt.Sprintf("%s%s", c.baseURL, path)
	if len(params) > 0 {
		fullURL = fmt.Sprintf("%s?%s", fullURL, params.Encode())
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fullURL, nil)
	if err != nil {
		return "", fmt.Errorf("create request failed: %w", err)
	}
	// 브라우저 UA 없이는 빈 페이지가 내려옴
	req.Header.Set("User-Agent", "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36")
	req.Header.Set("Referer", "https://finance.naver.com/")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("HTTP request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("unexpected status code: %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read response body: %w", err)
	}

	return string(body), nil
}

var changePctRe = regexp.MustCompile(`(\d+(?:\.\d+)?)%`)

// parseIndexHTML parses a sise_index page.
// 등락률은 부호 없이 표기되고 방향은 상승/하락/보합 문구로 나옴
func parseIndexHTML(html, code string) (*IndexSnapshot, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, fmt.Errorf("parse HTML failed: %w", err)
	}

	levelText := strings.TrimSpace(doc.Find("#now_value").First().Text())
	level := parseNum(levelText)
	if level <= 0 {
		return nil, fmt.Errorf("index level not found for %s", code)
	}

	changeText := strings.TrimSpace(doc.Find("#change_value_and_rate").First().Text())
	pct := 0.0
	if m := changePctRe.FindStringSubmatch(changeText); m != nil {
		pct = parseNum(m[1])
	}

	direction := DirectionFlat
	switch {
	case strings.Contains(changeText, "하락"):
		direction = DirectionDown
		pct = -math.Abs(pct)
	case strings.Contains(changeText, "상승"):
		direction = DirectionUp
	}

	return &IndexSnapshot{
		Index:     code,
		Level:     level,
		ChangePct: pct,
		Direction: direction,
	}, nil
}

// parseNum parses a display number like "2,501.53"
func parseNum(s string) float64 {
	s = strings.TrimSpace(s)
	s = strings.ReplaceAll(s, ",", "")
	s = strings.TrimPrefix(s, "+")
	if s == "" || s == "-" {
		return 0
	}
	n, _ := strconv.ParseFloat(s, 64)
	return n
}
