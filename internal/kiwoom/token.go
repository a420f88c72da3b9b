package kiwoom

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/swinglab/swingscan/internal/contracts"
	"github.com/swinglab/swingscan/pkg/config"
	"github.com/swinglab/swingscan/pkg/httputil"
	"github.com/swinglab/swingscan/pkg/logger"
)

const (
	tokenPath  = "/oauth2/token"
	revokePath = "/oauth2/revoke"

	// expires_dt 포맷 (예: 20261231235959)
	expiresDtLayout = "20060102150405"

	// 만료 1분 전부터 재발급
	tokenEarlyRefresh = time.Minute
)

// tokenManager issues, caches and revokes the OAuth access token.
// ⭐ SSOT: 접근 토큰 수명주기는 여기서만 관리
type tokenManager struct {
	cfg        config.KiwoomConfig
	httpClient *httputil.Client
	logger     *logger.Logger

	mu        sync.RWMutex
	token     string
	tokenType string
	expiresAt time.Time // zero = 만료시각 미상, 재발급 안 함
}

func newTokenManager(cfg config.KiwoomConfig, httpClient *httputil.Client, log *logger.Logger) *tokenManager {
	return &tokenManager{
		cfg:        cfg,
		httpClient: httpClient,
		logger:     log,
	}
}

func (m *tokenManager) expiringSoon() bool {
	if m.expiresAt.IsZero() {
		return false
	}
	return !time.Now().Before(m.expiresAt.Add(-tokenEarlyRefresh))
}

// AccessToken returns a valid token, refreshing when absent or near expiry.
func (m *tokenManager) AccessToken(ctx context.Context) (string, error) {
	m.mu.RLock()
	if m.token != "" && !m.expiringSoon() {
		token := m.token
		m.mu.RUnlock()
		return token, nil
	}
	m.mu.RUnlock()

	m.mu.Lock()
	defer m.mu.Unlock()

	// Double-check after acquiring write lock
	if m.token != "" && !m.expiringSoon() {
		return m.token, nil
	}

	if err := m.refresh(ctx); err != nil {
		return "", err
	}
	return m.token, nil
}

// refresh requests a new token. Caller holds the write lock.
func (m *tokenManager) refresh(ctx context.Context) error {
	payload := map[string]string{
		"grant_type": "client_credentials",
		"appkey":     m.cfg.AppKey,
		"secretkey":  m.cfg.AppSecret,
	}

	resp, err := m.httpClient.PostJSON(ctx, m.cfg.BaseURL+tokenPath, payload)
	if err != nil {
		return fmt.Errorf("%w: token request: %w", contracts.ErrSourceUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("%w: token request status %d: %s", contracts.ErrSourceUnavailable, resp.StatusCode, string(body))
	}

	var result struct {
		Token       string `json:"token"`
		AccessToken string `json:"access_token"`
		TokenType   string `json:"token_type"`
		ExpiresDt   string `json:"expires_dt"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return fmt.Errorf("%w: decode token response: %w", contracts.ErrSourceUnavailable, err)
	}

	token := result.Token
	if token == "" {
		token = result.AccessToken
	}
	if token == "" {
		return fmt.Errorf("%w: token missing in response", contracts.ErrSourceUnavailable)
	}

	m.token = token
	m.tokenType = result.TokenType
	if m.tokenType == "" {
		m.tokenType = "Bearer"
	}

	m.expiresAt = time.Time{}
	if result.ExpiresDt != "" {
		if t, err := time.ParseInLocation(expiresDtLayout, result.ExpiresDt, time.Local); err == nil {
			m.expiresAt = t
		}
	}

	m.logger.WithField("expires_dt", result.ExpiresDt).Info("Kiwoom access token issued")
	return nil
}

// Revoke invalidates the cached token server-side. Best effort: failures are
// logged, never returned, and the local cache is always cleared.
func (m *tokenManager) Revoke(ctx context.Context) {
	m.mu.Lock()
	token := m.token
	m.token = ""
	m.expiresAt = time.Time{}
	m.mu.Unlock()

	if token == "" {
		return
	}

	payload, err := json.Marshal(map[string]string{
		"appkey":    m.cfg.AppKey,
		"secretkey": m.cfg.AppSecret,
		"token":     token,
	})
	if err != nil {
		return
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, m.cfg.BaseURL+revokePath, bytes.NewReader(payload))
	if err != nil {
		return
	}
	req.Header.Set("Content-Type", "application/json;charset=UTF-8")
	req.Header.Set("api-id", "au10002")
	req.Header.Set("authorization", "Bearer "+token)

	resp, err := m.httpClient.DisableRetry().Do(req)
	if err != nil {
		m.logger.WithError(err).Warn("Token revoke failed")
		return
	}
	resp.Body.Close()

	m.logger.Debug("Kiwoom access token revoked")
}
