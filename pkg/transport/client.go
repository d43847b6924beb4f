package transport

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v5"
)

var (
	ErrEmptyURL         = errors.New("transport: empty URL")
	ErrInvalidURL       = errors.New("transport: invalid URL")
	ErrMaxRetries       = errors.New("transport: max retries reached")
	ErrUnexpectedStatus = errors.New("transport: unexpected status")
)

type Config struct {
	Timeout        time.Duration                    `env:"HTTP_TIMEOUT" envDefault:"5s"`
	MaxRetries     int                              `env:"HTTP_MAX_RETRIES" envDefault:"2"`
	BackoffInitial time.Duration                    `env:"HTTP_BACKOFF_INITIAL" envDefault:"50ms"`
	BackoffMax     time.Duration                    `env:"HTTP_BACKOFF_MAX" envDefault:"500ms"`
	UserAgent      string                           `env:"HTTP_USER_AGENT" envDefault:"recordwire"`
	BaseHeaders    map[string]string                `env:"-"`
	RetryStatus    []int                            `env:"-"`
	RetryOn        func(status int, err error) bool `env:"-"`
}

func DefaultConfig() Config {
	return Config{
		Timeout:        5 * time.Second,
		MaxRetries:     2,
		BackoffInitial: 50 * time.Millisecond,
		BackoffMax:     500 * time.Millisecond,
		UserAgent:      "recordwire",
	}
}

type Request struct {
	Method  string
	URL     string
	Params  map[string]string
	Headers map[string]string
	Body    []byte
}

type Response struct {
	Status  int
	Body    []byte
	Headers http.Header
	URL     string
}

type Client interface {
	Do(ctx context.Context, req Request) (Response, error)
	Get(ctx context.Context, rawURL string, params, headers map[string]string) (Response, error)
}

type realClient struct {
	http *http.Client
	cfg  Config
}

func New(cfg Config) Client {
	normalizeConfig(&cfg)

	tr := &http.Transport{
		Proxy: http.ProxyFromEnvironment,
		DialContext: (&net.Dialer{
			Timeout:   5 * time.Second,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		ForceAttemptHTTP2:     true,
		MaxIdleConns:          100,
		IdleConnTimeout:       90 * time.Second,
		TLSHandshakeTimeout:   5 * time.Second,
		ExpectContinueTimeout: 1 * time.Second,
	}

	return &realClient{
		http: &http.Client{
			Timeout:   cfg.Timeout,
			Transport: tr,
		},
		cfg: cfg,
	}
}

func NewWithHTTP(hc *http.Client, cfg Config) Client {
	normalizeConfig(&cfg)
	if hc == nil {
		return New(cfg)
	}
	return &realClient{http: hc, cfg: cfg}
}

func (c *realClient) Get(ctx context.Context, rawURL string, params, headers map[string]string) (Response, error) {
	return c.Do(ctx, Request{
		Method:  http.MethodGet,
		URL:     rawURL,
		Params:  params,
		Headers: headers,
	})
}

// Do sends the request, retrying network errors and retryable statuses up to
// MaxRetries times. A non-retryable response is returned as is whatever its
// status.
func (c *realClient) Do(ctx context.Context, r Request) (Response, error) {
	if r.URL == "" {
		return Response{}, ErrEmptyURL
	}
	if r.Method == "" {
		r.Method = http.MethodGet
	}

	u, err := buildURL(r.URL, r.Params)
	if err != nil {
		return Response{}, fmt.Errorf("%w: %v", ErrInvalidURL, err)
	}

	b := c.newBackOff()

	var lastErr error
	for attempt := 0; attempt <= c.cfg.MaxRetries; attempt++ {
		if attempt > 0 {
			if err := sleep(ctx, b.NextBackOff()); err != nil {
				return Response{}, err
			}
		}

		res, retry, err := c.attempt(ctx, r, u)
		if err == nil && !retry {
			return res, nil
		}
		if ctx.Err() != nil {
			return Response{}, ctx.Err()
		}
		if !retry {
			return res, err
		}
		if err == nil {
			err = fmt.Errorf("retryable status %d", res.Status)
		}
		lastErr = err
	}

	return Response{}, fmt.Errorf("%w: %v", ErrMaxRetries, lastErr)
}

func (c *realClient) attempt(ctx context.Context, r Request, u string) (Response, bool, error) {
	var body io.Reader
	if r.Body != nil {
		body = bytes.NewReader(r.Body)
	}

	req, err := http.NewRequestWithContext(ctx, r.Method, u, body)
	if err != nil {
		return Response{}, false, fmt.Errorf("transport: build request: %w", err)
	}
	c.setRequestHeaders(req, r.Headers)

	resp, err := c.http.Do(req)
	if err != nil {
		return Response{}, c.shouldRetry(0, err), fmt.Errorf("transport: request failed: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	res := Response{
		Status:  resp.StatusCode,
		Body:    data,
		Headers: resp.Header.Clone(),
		URL:     u,
	}
	if err != nil {
		return res, c.shouldRetry(resp.StatusCode, err), fmt.Errorf("transport: read body: %w", err)
	}

	return res, c.shouldRetry(resp.StatusCode, nil), nil
}

func (c *realClient) newBackOff() *backoff.ExponentialBackOff {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = c.cfg.BackoffInitial
	b.MaxInterval = c.cfg.BackoffMax
	b.Reset()
	return b
}

func (c *realClient) setRequestHeaders(req *http.Request, customHeaders map[string]string) {
	for k, v := range c.cfg.BaseHeaders {
		req.Header.Set(k, v)
	}

	if _, ok := headerLookup(customHeaders, "User-Agent"); !ok {
		req.Header.Set("User-Agent", c.cfg.UserAgent)
	}

	if _, ok := headerLookup(customHeaders, "Accept"); !ok {
		req.Header.Set("Accept", "application/json")
	}

	for k, v := range customHeaders {
		req.Header.Set(k, v)
	}
}

func (c *realClient) shouldRetry(status int, err error) bool {
	if c.cfg.RetryOn != nil {
		return c.cfg.RetryOn(status, err)
	}
	if err != nil {
		return true
	}
	for _, s := range c.cfg.RetryStatus {
		if status == s {
			return true
		}
	}
	return false
}

func sleep(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

func normalizeConfig(cfg *Config) {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 5 * time.Second
	}
	if cfg.MaxRetries < 0 {
		cfg.MaxRetries = 0
	}
	if cfg.BackoffInitial <= 0 {
		cfg.BackoffInitial = 50 * time.Millisecond
	}
	if cfg.BackoffMax < cfg.BackoffInitial {
		cfg.BackoffMax = cfg.BackoffInitial
	}
	if cfg.UserAgent == "" {
		cfg.UserAgent = "recordwire"
	}
	if len(cfg.RetryStatus) == 0 && cfg.RetryOn == nil {
		cfg.RetryStatus = []int{http.StatusTooManyRequests}
		for code := 500; code <= 599; code++ {
			cfg.RetryStatus = append(cfg.RetryStatus, code)
		}
	}
}

func buildURL(raw string, params map[string]string) (string, error) {
	u, err := url.Parse(raw)
	if err != nil {
		return "", err
	}
	if u.Scheme == "" || u.Host == "" {
		return "", fmt.Errorf("%q is not absolute", raw)
	}
	if len(params) > 0 {
		q := u.Query()
		for k, v := range params {
			q.Set(k, v)
		}
		u.RawQuery = q.Encode()
	}
	return u.String(), nil
}

func headerLookup(h map[string]string, key string) (string, bool) {
	for k, v := range h {
		if strings.EqualFold(k, key) {
			return v, true
		}
	}
	return "", false
}
