package kiwoom

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/gorilla/websocket"
	"github.com/tidwall/gjson"

	"github.com/swinglab/swingscan/internal/contracts"
)

const (
	condHandshakeTimeout = 10 * time.Second
	condExchangeTimeout  = 30 * time.Second
)

// Condition is one saved condition-search expression registered in the HTS.
type Condition struct {
	Seq  string
	Name string
}

// 조건검색 websocket 메시지 (trnm 기반)
type condLoginReq struct {
	Trnm  string `json:"trnm"`
	Token string `json:"token"`
}

type condListReq struct {
	Trnm string `json:"trnm"`
}

type condSearchReq struct {
	Trnm       string `json:"trnm"`
	Seq        string `json:"seq"`
	SearchType string `json:"search_type"`
	StexTp     string `json:"stex_tp"`
	ContYN     string `json:"cont_yn"`
	NextKey    string `json:"next_key"`
}

// Conditions fetches the saved condition list (CNSRLST) over the condition
// websocket. One-shot: connect, login, request, close.
func (c *Client) Conditions(ctx context.Context) ([]Condition, error) {
	env, err := c.condExchange(ctx, condListReq{Trnm: "CNSRLST"}, "CNSRLST")
	if err != nil {
		return nil, err
	}

	conds := make([]Condition, 0)
	for _, pair := range env.Get("data").Array() {
		arr := pair.Array()
		if len(arr) < 2 {
			continue
		}
		seq := strings.TrimSpace(arr[0].String())
		if seq == "" {
			continue
		}
		conds = append(conds, Condition{
			Seq:  seq,
			Name: strings.TrimSpace(arr[1].String()),
		})
	}

	c.logger.WithField("count", len(conds)).Debug("Condition list fetched")
	return conds, nil
}

// ConditionSearch runs one saved condition search (CNSRREQ) and returns the
// matching quotes. The hit order is the server's order and is preserved.
func (c *Client) ConditionSearch(ctx context.Context, seq string) ([]contracts.Quote, error) {
	seq = strings.TrimSpace(seq)
	if seq == "" {
		return nil, fmt.Errorf("%w: condition seq is required", contracts.ErrInvalidParameter)
	}

	env, err := c.condExchange(ctx, condSearchReq{
		Trnm:       "CNSRREQ",
		Seq:        seq,
		SearchType: "0",
		StexTp:     "K",
		ContYN:     "N",
		NextKey:    "",
	}, "CNSRREQ")
	if err != nil {
		return nil, err
	}

	items := extractItems(env, "data", "condition_item_list", "stk_list", "output", "items")

	quotes := make([]contracts.Quote, 0, len(items))
	for _, item := range items {
		if !item.IsObject() {
			continue
		}
		q := parseConditionQuote(item)
		if q.Code == "" {
			continue
		}
		quotes = append(quotes, q)
	}

	c.logger.WithFields(map[string]interface{}{
		"seq":   seq,
		"count": len(quotes),
	}).Debug("Condition search fetched")

	return quotes, nil
}

// parseConditionQuote maps one FID-keyed hit to a Quote. 9001 carries the
// exchange-prefixed code (A005930), 302 the name, 10 the price, 13 the
// accumulated volume, 12 the change rate.
func parseConditionQuote(item gjson.Result) contracts.Quote {
	code := strings.TrimSpace(firstString(item, "9001", "jmcode", "stk_cd", "code"))
	if len(code) == 7 && code[0] >= 'A' && code[0] <= 'Z' {
		code = code[1:]
	}

	return contracts.Quote{
		Code:       code,
		Name:       strings.TrimSpace(firstString(item, "302", "stk_nm", "name")),
		Price:      parsePrice(firstString(item, "10", "cur_prc", "price")),
		Volume:     parseVolume(firstString(item, "13", "acml_vol", "trde_qty", "volume")),
		ChangeRate: parseSignedFloat(firstString(item, "12", "flu_rt", "change_rate")),
	}
}

// condExchange dials the condition websocket, authenticates, sends one request
// and waits for the matching response. The session is torn down before
// returning; condition search is a query, not a subscription.
func (c *Client) condExchange(ctx context.Context, req interface{}, wantTrnm string) (gjson.Result, error) {
	token, err := c.tokens.AccessToken(ctx)
	if err != nil {
		return gjson.Result{}, err
	}

	dialer := websocket.Dialer{
		HandshakeTimeout: condHandshakeTimeout,
	}

	conn, _, err := dialer.DialContext(ctx, c.cfg.CondWSURL, nil)
	if err != nil {
		return gjson.Result{}, fmt.Errorf("%w: condition websocket dial: %w", contracts.ErrSourceUnavailable, err)
	}
	defer conn.Close()

	deadline, ok := ctx.Deadline()
	if !ok {
		deadline = time.Now().Add(condExchangeTimeout)
	}
	conn.SetReadDeadline(deadline)
	conn.SetWriteDeadline(deadline)

	if err := conn.WriteJSON(condLoginReq{Trnm: "LOGIN", Token: token}); err != nil {
		return gjson.Result{}, fmt.Errorf("%w: condition login send: %w", contracts.ErrSourceUnavailable, err)
	}
	if _, err := awaitTrnm(conn, "LOGIN"); err != nil {
		return gjson.Result{}, err
	}

	c.logger.WithField("trnm", wantTrnm).Debug("Condition websocket request")

	if err := conn.WriteJSON(req); err != nil {
		return gjson.Result{}, fmt.Errorf("%w: condition request send: %w", contracts.ErrSourceUnavailable, err)
	}

	return awaitTrnm(conn, wantTrnm)
}

// awaitTrnm reads frames until one carrying the wanted trnm arrives. PING
// keepalives are echoed back verbatim; unrelated frames are skipped.
func awaitTrnm(conn *websocket.Conn, want string) (gjson.Result, error) {
	for {
		_, message, err := conn.ReadMessage()
		if err != nil {
			return gjson.Result{}, fmt.Errorf("%w: condition websocket read: %w", contracts.ErrSourceUnavailable, err)
		}

		if !gjson.ValidBytes(message) {
			continue
		}
		env := gjson.ParseBytes(message)

		trnm := env.Get("trnm").String()
		if trnm == "PING" || trnm == "PINGPONG" {
			if err := conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return gjson.Result{}, fmt.Errorf("%w: condition keepalive echo: %w", contracts.ErrSourceUnavailable, err)
			}
			continue
		}
		if trnm != want {
			continue
		}

		if code := env.Get("return_code"); code.Exists() && code.Int() != 0 {
			msg := env.Get("return_msg").String()
			if msg == "" {
				msg = "unknown error"
			}
			return gjson.Result{}, fmt.Errorf("%w: %s failed (return_code=%d): %s",
				contracts.ErrSourceUnavailable, want, code.Int(), msg)
		}

		return env, nil
	}
}
