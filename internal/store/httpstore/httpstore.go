package httpstore

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/sony/gobreaker/v2"

	"github.com/Makepad-fr/todos/internal/model"
)

// HTTP-backed task storage. The collection lives on a remote API; this
// client only issues one request per call and never retries.

const maxBodyBytes = 4 << 20

// ErrMissingID is returned when a created task comes back without an id.
var ErrMissingID = errors.New("created task has no id")

// StatusError reports a non-2xx response.
type StatusError struct {
	Method     string
	URL        string
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	msg := fmt.Sprintf("%s %s: %d %s", e.Method, e.URL, e.StatusCode, http.StatusText(e.StatusCode))
	if e.Body != "" {
		msg += ": " + e.Body
	}
	return msg
}

// BreakerConfig tunes the optional circuit breaker.
type BreakerConfig struct {
	// FailureThreshold trips the breaker after this many consecutive failures.
	FailureThreshold uint32
	// Timeout is how long the breaker stays open before probing again.
	Timeout time.Duration
}

// Client talks to the task collection rooted at a base URL.
type Client struct {
	base    string
	http    *http.Client
	logger  *slog.Logger
	breaker *gobreaker.CircuitBreaker[[]byte]
	timeout time.Duration
}

type Option func(*Client)

// WithHTTPClient replaces the underlying http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

// WithTimeout sets a per-request timeout. Zero keeps the transport default.
// It applies to whichever http.Client the other options end up selecting.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) { c.timeout = d }
}

func WithLogger(l *slog.Logger) Option {
	return func(c *Client) { c.logger = l }
}

// WithCircuitBreaker makes calls fail fast once the API keeps failing.
func WithCircuitBreaker(cfg BreakerConfig) Option {
	return func(c *Client) {
		threshold := cfg.FailureThreshold
		if threshold == 0 {
			threshold = 5
		}
		c.breaker = gobreaker.NewCircuitBreaker[[]byte](gobreaker.Settings{
			Name:        "todos-api",
			MaxRequests: 1,
			Timeout:     cfg.Timeout,
			ReadyToTrip: func(counts gobreaker.Counts) bool {
				return counts.ConsecutiveFailures >= threshold
			},
			IsSuccessful: func(err error) bool {
				return err == nil || errors.Is(err, context.Canceled)
			},
			OnStateChange: func(name string, from, to gobreaker.State) {
				c.logger.Warn("circuit breaker state changed",
					"breaker", name,
					"from", from.String(),
					"to", to.String(),
				)
			},
		})
	}
}

// New builds a client for the API at baseURL. Paths are appended to the
// base as-is, so "http://host/api" and "http://host/api/" are equivalent.
func New(baseURL string, opts ...Option) (*Client, error) {
	u, err := url.Parse(strings.TrimSpace(baseURL))
	if err != nil {
		return nil, fmt.Errorf("parse base url: %w", err)
	}
	if (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return nil, fmt.Errorf("base url %q: want an absolute http(s) url", baseURL)
	}
	base := u.String()
	if !strings.HasSuffix(base, "/") {
		base += "/"
	}
	c := &Client{
		base:   base,
		http:   &http.Client{},
		logger: slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.http == nil {
		c.http = &http.Client{}
	}
	if c.timeout > 0 {
		// Copy so a caller's client is not modified.
		hc := *c.http
		hc.Timeout = c.timeout
		c.http = &hc
	}
	return c, nil
}

// BaseURL returns the normalised base, always ending in "/".
func (c *Client) BaseURL() string { return c.base }

// List fetches the whole collection in server order.
func (c *Client) List(ctx context.Context) ([]model.Task, error) {
	var tasks []model.Task
	if err := c.do(ctx, http.MethodGet, "todos/", nil, &tasks); err != nil {
		return nil, fmt.Errorf("list tasks: %w", err)
	}
	if tasks == nil {
		tasks = []model.Task{}
	}
	return tasks, nil
}

type createRequest struct {
	Title     string `json:"title"`
	Completed bool   `json:"completed"`
}

// Create adds a task with the given title. New tasks always start open.
func (c *Client) Create(ctx context.Context, title string) (model.Task, error) {
	var t model.Task
	if err := c.do(ctx, http.MethodPost, "todos/add", createRequest{Title: title}, &t); err != nil {
		return model.Task{}, fmt.Errorf("create task: %w", err)
	}
	if t.ID == "" {
		return model.Task{}, fmt.Errorf("create task: %w", ErrMissingID)
	}
	return t, nil
}

type updateRequest struct {
	Completed bool `json:"completed"`
}

// SetCompleted updates the completion flag of task id and returns the
// fields the server echoed back.
func (c *Client) SetCompleted(ctx context.Context, id model.ID, completed bool) (model.TaskPatch, error) {
	var p model.TaskPatch
	if err := c.do(ctx, http.MethodPut, taskPath(id, "update"), updateRequest{Completed: completed}, &p); err != nil {
		return model.TaskPatch{}, fmt.Errorf("update task %s: %w", id, err)
	}
	return p, nil
}

// Delete removes task id. Any response body is ignored.
func (c *Client) Delete(ctx context.Context, id model.ID) error {
	if err := c.do(ctx, http.MethodDelete, taskPath(id, "delete"), nil, nil); err != nil {
		return fmt.Errorf("delete task %s: %w", id, err)
	}
	return nil
}

func taskPath(id model.ID, action string) string {
	return url.PathEscape(id.String()) + "/" + action
}

func (c *Client) do(ctx context.Context, method, path string, in, out any) error {
	body, err := c.execute(func() ([]byte, error) {
		return c.roundTrip(ctx, method, c.base+path, in)
	})
	if err != nil {
		return err
	}
	if out == nil {
		return nil
	}
	if len(bytes.TrimSpace(body)) == 0 {
		return fmt.Errorf("%s %s: empty response body", method, c.base+path)
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("json unmarshal: %w", err)
	}
	return nil
}

func (c *Client) execute(fn func() ([]byte, error)) ([]byte, error) {
	if c.breaker == nil {
		return fn()
	}
	return c.breaker.Execute(fn)
}

func (c *Client) roundTrip(ctx context.Context, method, target string, in any) ([]byte, error) {
	var reqBody io.Reader
	if in != nil {
		b, err := json.Marshal(in)
		if err != nil {
			return nil, fmt.Errorf("json marshal: %w", err)
		}
		reqBody = bytes.NewReader(b)
	}
	req, err := http.NewRequestWithContext(ctx, method, target, reqBody)
	if err != nil {
		return nil, fmt.Errorf("new request: %w", err)
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	b, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}
	c.logger.Debug("api request",
		"method", method,
		"url", target,
		"status", resp.StatusCode,
		"duration_ms", time.Since(start).Milliseconds(),
	)
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &StatusError{
			Method:     method,
			URL:        target,
			StatusCode: resp.StatusCode,
			Body:       snippet(b),
		}
	}
	return b, nil
}

func snippet(b []byte) string {
	s := strings.TrimSpace(string(b))
	if len(s) > 200 {
		s = s[:197] + "..."
	}
	return s
}
