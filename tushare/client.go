package tushare

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/tidwall/gjson"
	"golang.org/x/time/rate"
)

const (
	DefaultBaseURL   = "http://api.tushare.pro"
	DefaultTimeout   = 15 * time.Second
	DefaultRateLimit = 3.0

	// 积分不足
	codePermissionDenied = 40203
)

var ErrEmptyToken = errors.New("tushare token is empty")

// APIError 接口返回非 0 code
type APIError struct {
	API  string
	Code int
	Msg  string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("tushare %s: code %d: %s", e.API, e.Code, e.Msg)
}

// IsPermission 积分或权限不足
func (e *APIError) IsPermission() bool {
	return e.Code == codePermissionDenied || strings.Contains(e.Msg, "权限") || strings.Contains(e.Msg, "积分")
}

// IsPermission 判断 err 链中是否有权限错误
func IsPermission(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.IsPermission()
}

type Client struct {
	baseURL    string
	token      string
	httpClient *http.Client
	limiter    *rate.Limiter
	timeout    time.Duration
	log        zerolog.Logger
}

type ClientOption func(*Client)

func WithBaseURL(baseURL string) ClientOption {
	return func(c *Client) {
		c.baseURL = strings.TrimRight(baseURL, "/")
	}
}

func WithHTTPClient(httpClient *http.Client) ClientOption {
	return func(c *Client) {
		c.httpClient = httpClient
	}
}

// WithRateLimit 每秒请求数, <= 0 不限速
func WithRateLimit(requestsPerSecond float64) ClientOption {
	return func(c *Client) {
		if requestsPerSecond <= 0 {
			c.limiter = rate.NewLimiter(rate.Inf, 1)
			return
		}
		burst := int(requestsPerSecond)
		if burst < 1 {
			burst = 1
		}
		c.limiter = rate.NewLimiter(rate.Limit(requestsPerSecond), burst)
	}
}

// WithTimeout 单次调用超时
func WithTimeout(d time.Duration) ClientOption {
	return func(c *Client) {
		if d > 0 {
			c.timeout = d
		}
	}
}

func WithLogger(log zerolog.Logger) ClientOption {
	return func(c *Client) {
		c.log = log.With().Str("component", "tushare").Logger()
	}
}

func NewClient(token string, opts ...ClientOption) *Client {
	c := &Client{
		baseURL:    DefaultBaseURL,
		token:      token,
		httpClient: &http.Client{},
		limiter:    rate.NewLimiter(rate.Limit(DefaultRateLimit), int(DefaultRateLimit)),
		timeout:    DefaultTimeout,
		log:        zerolog.Nop(),
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

type request struct {
	APIName string            `json:"api_name"`
	Token   string            `json:"token"`
	Params  map[string]string `json:"params"`
	Fields  string            `json:"fields"`
}

// Query 调用任意接口, 返回 fields/items 表
func (c *Client) Query(ctx context.Context, api string, params map[string]string, fields []string) (*Table, error) {
	if c.token == "" {
		return nil, ErrEmptyToken
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("tushare %s: rate limit wait: %w", api, err)
	}

	if params == nil {
		params = map[string]string{}
	}
	body, err := json.Marshal(request{
		APIName: api,
		Token:   c.token,
		Params:  params,
		Fields:  strings.Join(fields, ","),
	})
	if err != nil {
		return nil, fmt.Errorf("tushare %s: encode request: %w", api, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("tushare %s: create request: %w", api, err)
	}
	req.Header.Set("Content-Type", "application/json")

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("tushare %s: %w", api, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("tushare %s: read response: %w", api, err)
	}

	c.log.Debug().
		Str("api", api).
		Int("status", resp.StatusCode).
		Dur("elapsed", time.Since(start)).
		Msg("tushare request")

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("tushare %s: unexpected status %d", api, resp.StatusCode)
	}
	if !gjson.ValidBytes(raw) {
		return nil, fmt.Errorf("tushare %s: invalid json response", api)
	}

	if code := gjson.GetBytes(raw, "code").Int(); code != 0 {
		return nil, &APIError{API: api, Code: int(code), Msg: gjson.GetBytes(raw, "msg").String()}
	}

	return parseTable(raw), nil
}
