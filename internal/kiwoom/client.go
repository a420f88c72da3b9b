package kiwoom

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/tidwall/gjson"
	"golang.org/x/time/rate"

	"github.com/swinglab/swingscan/internal/contracts"
	"github.com/swinglab/swingscan/pkg/config"
	"github.com/swinglab/swingscan/pkg/httputil"
	"github.com/swinglab/swingscan/pkg/logger"
)

// Client calls the Kiwoom REST API.
// ⭐ SSOT: 키움 REST 호출은 이 클라이언트에서만
type Client struct {
	cfg        config.KiwoomConfig
	httpClient *httputil.Client
	logger     *logger.Logger
	tokens     *tokenManager
	limiter    *rate.Limiter
}

// NewClient creates a new Kiwoom API client. Credentials are checked here so
// a misconfigured run fails before any network call.
func NewClient(cfg config.KiwoomConfig, httpClient *httputil.Client, log *logger.Logger) (*Client, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %w", contracts.ErrInvalidParameter, err)
	}

	return &Client{
		cfg:        cfg,
		httpClient: httpClient,
		logger:     log,
		tokens:     newTokenManager(cfg, httpClient, log),
		limiter:    rate.NewLimiter(rate.Every(cfg.MinInterval), 1),
	}, nil
}

// Close revokes the access token. Safe to call when no token was issued.
func (c *Client) Close(ctx context.Context) {
	c.tokens.Revoke(ctx)
}

// stexTp returns the exchange segment code: "1" for the paper server, "3"
// for the real one.
func (c *Client) stexTp() string {
	if c.cfg.IsPaper {
		return "1"
	}
	return "3"
}

// call posts one API request and returns the parsed envelope.
func (c *Client) call(ctx context.Context, apiID, path string, body map[string]string) (gjson.Result, error) {
	return c.request(ctx, apiID, path, body, "", "")
}

// request posts a JSON body with the Kiwoom auth headers. contYN/nextKey set
// the continuation headers when a caller pages through a long list.
func (c *Client) request(ctx context.Context, apiID, path string, body map[string]string, contYN, nextKey string) (gjson.Result, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return gjson.Result{}, err
	}

	token, err := c.tokens.AccessToken(ctx)
	if err != nil {
		return gjson.Result{}, err
	}

	payload, err := json.Marshal(body)
	if err != nil {
		return gjson.Result{}, fmt.Errorf("marshal %s body: %w", apiID, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.BaseURL+path, bytes.NewReader(payload))
	if err != nil {
		return gjson.Result{}, fmt.Errorf("create %s request: %w", apiID, err)
	}
	req.Header.Set("Content-Type", "application/json;charset=UTF-8")
	req.Header.Set("api-id", apiID)
	req.Header.Set("authorization", "Bearer "+token)
	if contYN != "" {
		req.Header.Set("cont-yn", contYN)
	}
	if nextKey != "" {
		req.Header.Set("next-key", nextKey)
	}

	c.logger.WithFields(map[string]interface{}{
		"api_id": apiID,
		"path":   path,
	}).Debug("Kiwoom API request")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return gjson.Result{}, fmt.Errorf("%w: %s request: %w", contracts.ErrSourceUnavailable, apiID, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return gjson.Result{}, fmt.Errorf("%w: read %s response: %w", contracts.ErrSourceUnavailable, apiID, err)
	}

	if resp.StatusCode != http.StatusOK {
		return gjson.Result{}, fmt.Errorf("%w: %s status %d: %s",
			contracts.ErrSourceUnavailable, apiID, resp.StatusCode, truncate(raw, 200))
	}

	if !gjson.ValidBytes(raw) {
		return gjson.Result{}, fmt.Errorf("%w: %s returned malformed JSON", contracts.ErrSourceUnavailable, apiID)
	}

	env := gjson.ParseBytes(raw)

	// return_code 0 또는 생략이 정상
	if rc := env.Get("return_code"); rc.Exists() && rc.Int() != 0 {
		msg := env.Get("return_msg").String()
		if msg == "" {
			msg = "API request failed"
		}
		return gjson.Result{}, fmt.Errorf("%w: %s return_code %d: %s",
			contracts.ErrSourceUnavailable, apiID, rc.Int(), msg)
	}

	return env, nil
}

func truncate(b []byte, n int) string {
	if len(b) <= n {
		return string(b)
	}
	return string(b[:n]) + "..."
}
