package gtranslate

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"prama/internal/textutil"
)

const (
	// AutoDetect asks the backend to detect the source language.
	AutoDetect = "auto"

	defaultBaseURL        = "https://translate.googleapis.com"
	translatePath         = "/translate_a/single"
	defaultHTTPTimeout    = 15 * time.Second
	defaultRetryMaxDelay  = 8 * time.Second
	defaultRetryBaseDelay = 500 * time.Millisecond
	defaultRetryAttempts  = 3
	maxSnippetLength      = 200
)

// Config captures the runtime settings for the translate endpoint.
type Config struct {
	BaseURL        string
	TimeoutSeconds int
}

// Result is one translation response.
type Result struct {
	Text   string
	Source string
}

// Client wraps the translate_a/single endpoint.
type Client struct {
	baseURL string
	http    *http.Client
	retry   retryPolicy
	sleep   func(time.Duration)
}

// Option customizes the client.
type Option func(*Client)

// WithHTTPClient overrides the default HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.http = hc
		}
	}
}

// WithRetryMaxAttempts sets the total number of attempts per call.
func WithRetryMaxAttempts(attempts int) Option {
	return func(c *Client) { c.retry.attempts = attempts }
}

// WithRetryBackoff sets the first retry delay and the delay ceiling.
func WithRetryBackoff(first, ceiling time.Duration) Option {
	return func(c *Client) {
		c.retry.first = first
		c.retry.ceiling = ceiling
	}
}

// WithSleeper replaces the real wait between attempts.
func WithSleeper(sleeper func(time.Duration)) Option {
	return func(c *Client) { c.sleep = sleeper }
}

// NewClient constructs a translate client.
func NewClient(cfg Config, opts ...Option) *Client {
	timeout := defaultHTTPTimeout
	if cfg.TimeoutSeconds > 0 {
		timeout = time.Duration(cfg.TimeoutSeconds) * time.Second
	}
	c := &Client{
		baseURL: strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/"),
		http:    &http.Client{Timeout: timeout},
		retry: retryPolicy{
			attempts: defaultRetryAttempts,
			first:    defaultRetryBaseDelay,
			ceiling:  defaultRetryMaxDelay,
		},
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.baseURL == "" {
		c.baseURL = defaultBaseURL
	}
	return c
}

// HTTPStatusError reports a non-2xx response from the endpoint.
type HTTPStatusError struct {
	StatusCode int
	Body       string
	RetryAfter time.Duration
}

func (e *HTTPStatusError) Error() string {
	return fmt.Sprintf("translate request: http %d: %s", e.StatusCode, snippet(e.Body))
}

// Detect returns the language code the backend detects for text.
func (c *Client) Detect(ctx context.Context, text string) (string, error) {
	result, err := c.Translate(ctx, text, AutoDetect, "en")
	if err != nil {
		return "", fmt.Errorf("translate detect: %w", err)
	}
	if result.Source == "" {
		return "", errors.New("translate detect: no language reported")
	}
	return result.Source, nil
}

// Translate translates text from src into dst. Use AutoDetect as src to let
// the backend choose; Result.Source reports the language it settled on.
func (c *Client) Translate(ctx context.Context, text, src, dst string) (Result, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return Result{}, errors.New("translate: text required")
	}
	src = strings.TrimSpace(src)
	if src == "" {
		src = AutoDetect
	}
	dst = strings.TrimSpace(dst)
	if dst == "" {
		return Result{}, errors.New("translate: target language required")
	}

	attempts := c.retry.maxAttempts()
	for attempt := 1; ; attempt++ {
		body, err := c.sendOnce(ctx, text, src, dst)
		if err == nil {
			result, parseErr := parseResponse(body)
			if parseErr != nil {
				return Result{}, parseErr
			}
			if result.Source == "" && src != AutoDetect {
				result.Source = src
			}
			return result, nil
		}
		if attempt >= attempts || !retryable(ctx, err) {
			if attempt > 1 {
				return Result{}, fmt.Errorf("translate: failed after %d attempts: %w", attempt, err)
			}
			return Result{}, err
		}
		if waitErr := c.wait(ctx, c.retry.delay(err, attempt)); waitErr != nil {
			return Result{}, waitErr
		}
	}
}

func (c *Client) sendOnce(ctx context.Context, text, src, dst string) ([]byte, error) {
	endpoint, err := url.Parse(c.baseURL + translatePath)
	if err != nil {
		return nil, fmt.Errorf("translate request: build url: %w", err)
	}
	query := url.Values{}
	query.Set("client", "gtx")
	query.Set("sl", src)
	query.Set("tl", dst)
	query.Set("dt", "t")
	query.Set("q", text)
	endpoint.RawQuery = query.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("translate request: new request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("translate request: http error (timeout=%s): %w", c.http.Timeout, err)
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("translate request: read body: %w", err)
	}
	if resp.StatusCode >= http.StatusMultipleChoices {
		retryAfter, _ := parseRetryAfter(resp.Header.Get("Retry-After"))
		return nil, &HTTPStatusError{
			StatusCode: resp.StatusCode,
			Body:       strings.TrimSpace(string(body)),
			RetryAfter: retryAfter,
		}
	}
	return body, nil
}

// parseResponse decodes [[["translated","original",...],...],null,"hi",...].
func parseResponse(body []byte) (Result, error) {
	var payload []json.RawMessage
	if err := json.Unmarshal(body, &payload); err != nil {
		return Result{}, fmt.Errorf("translate response: decode: %w (payload snippet: %s)", err, snippet(string(body)))
	}
	if len(payload) == 0 {
		return Result{}, errors.New("translate response: empty payload")
	}

	var segments [][]any
	if err := json.Unmarshal(payload[0], &segments); err != nil {
		return Result{}, fmt.Errorf("translate response: decode segments: %w", err)
	}
	var b strings.Builder
	for _, segment := range segments {
		if len(segment) == 0 {
			continue
		}
		if s, ok := segment[0].(string); ok {
			b.WriteString(s)
		}
	}

	var result Result
	result.Text = strings.TrimSpace(b.String())
	if len(payload) > 2 {
		var source string
		if err := json.Unmarshal(payload[2], &source); err == nil {
			result.Source = strings.TrimSpace(source)
		}
	}
	if result.Text == "" {
		return Result{}, errors.New("translate response: no translated text")
	}
	return result, nil
}

// retryPolicy doubles the delay per attempt from first up to ceiling.
type retryPolicy struct {
	attempts int
	first    time.Duration
	ceiling  time.Duration
}

func (p retryPolicy) maxAttempts() int {
	return max(p.attempts, 1)
}

func (p retryPolicy) delay(err error, attempt int) time.Duration {
	var statusErr *HTTPStatusError
	if errors.As(err, &statusErr) && statusErr.RetryAfter > 0 {
		return p.clamp(statusErr.RetryAfter)
	}
	d := p.first
	for i := 1; i < attempt && d > 0; i++ {
		d *= 2
		if p.ceiling > 0 && d >= p.ceiling {
			break
		}
	}
	return p.clamp(d)
}

func (p retryPolicy) clamp(d time.Duration) time.Duration {
	switch {
	case d < 0:
		return 0
	case p.ceiling > 0 && d > p.ceiling:
		return p.ceiling
	default:
		return d
	}
}

// retryable accepts transport failures, 408, 429 and 5xx responses.
func retryable(ctx context.Context, err error) bool {
	if ctx.Err() != nil || errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	var statusErr *HTTPStatusError
	if errors.As(err, &statusErr) {
		code := statusErr.StatusCode
		return code == http.StatusRequestTimeout || code == http.StatusTooManyRequests || code >= http.StatusInternalServerError
	}
	var netErr net.Error
	var urlErr *url.Error
	return errors.As(err, &netErr) || errors.As(err, &urlErr)
}

func (c *Client) wait(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	if c.sleep != nil {
		c.sleep(d)
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

func parseRetryAfter(value string) (time.Duration, bool) {
	value = strings.TrimSpace(value)
	if value == "" {
		return 0, false
	}
	if seconds, err := strconv.Atoi(value); err == nil {
		if seconds < 0 {
			return 0, false
		}
		return time.Duration(seconds) * time.Second, true
	}
	if when, err := http.ParseTime(value); err == nil {
		delay := time.Until(when)
		if delay < 0 {
			return 0, false
		}
		return delay, true
	}
	return 0, false
}

func snippet(s string) string {
	return textutil.Truncate(strings.TrimSpace(s), maxSnippetLength)
}
