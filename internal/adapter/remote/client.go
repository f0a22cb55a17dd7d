// Package remote implements domain.Persist against a REST service, and
// serves the same protocol over any other backend.
//
// Each family lives under its own collection path:
//
//	POST   /{family}              create
//	GET    /{family}/{key...}     read
//	PUT    /{family}/{key...}     update
//	DELETE /{family}/{key...}     delete
//	POST   /{family}/query        query, with a predicate payload
//
// Families are hpis, yields, regions and series. 404 maps to ErrNotFound,
// 409 to ErrAlreadyExists and any other non-2xx status to ErrDatabase.
package remote

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/goccy/go-json"
	"github.com/sony/gobreaker/v2"

	"github.com/couchcryptid/homie-data/internal/domain"
	"github.com/couchcryptid/homie-data/internal/observability"
)

const backendName = "remote"

// maxErrorBody bounds how much of an error response is kept in messages.
const maxErrorBody = 512

// Client is a remote persistence backend.
type Client struct {
	baseURL    string
	httpClient *http.Client
	breaker    *gobreaker.CircuitBreaker[[]byte]
	cache      *lruCache[string, []byte]
	logger     *slog.Logger
	metrics    *observability.Metrics
}

// NewClient creates a client for the service at baseURL. Single-record
// reads are cached in an LRU of cacheSize entries; zero disables caching.
func NewClient(baseURL string, timeout time.Duration, cacheSize int, logger *slog.Logger, metrics *observability.Metrics) *Client {
	logger = logger.With("component", "remote")
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: timeout,
		},
		breaker: newBreaker(logger),
		cache:   newLRUCache[string, []byte](cacheSize),
		logger:  logger,
		metrics: metrics,
	}
}

// errRejected marks a 4xx answer other than 404 and 409: the remote is up
// and refused the request itself.
var errRejected = errors.New("request rejected")

// newBreaker opens after five consecutive transport or server failures and
// probes again after 30 seconds. Client-side outcomes never count as
// failures: not-found, conflict, rejected requests and caller cancellation.
func newBreaker(logger *slog.Logger) *gobreaker.CircuitBreaker[[]byte] {
	return gobreaker.NewCircuitBreaker[[]byte](gobreaker.Settings{
		Name:        "remote-backend",
		MaxRequests: 1,
		Interval:    time.Minute,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
		IsSuccessful: func(err error) bool {
			return err == nil ||
				errors.Is(err, domain.ErrNotFound) ||
				errors.Is(err, domain.ErrAlreadyExists) ||
				errors.Is(err, errRejected) ||
				errors.Is(err, context.Canceled)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn("circuit breaker state change", "name", name, "from", from.String(), "to", to.String())
		},
	})
}

// CheckReadiness probes GET /healthz on the remote service.
func (c *Client) CheckReadiness(ctx context.Context) error {
	_, err := c.send(ctx, http.MethodGet, "/healthz", nil)
	return err
}

// Close releases idle connections.
func (c *Client) Close() error {
	c.httpClient.CloseIdleConnections()
	return nil
}

// do sends in as the JSON body (when non-nil) and decodes the response
// into out (when non-nil).
func (c *Client) do(ctx context.Context, method, path string, in, out any) error {
	var body []byte
	if in != nil {
		b, err := json.Marshal(in)
		if err != nil {
			return domain.DatabaseErrorf("encode %s %s: %w", method, path, err)
		}
		body = b
	}
	resp, err := c.send(ctx, method, path, body)
	if err != nil {
		return err
	}
	return decode(resp, out, method, path)
}

func decode(data []byte, out any, method, path string) error {
	if out == nil || len(data) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return domain.DatabaseErrorf("decode %s %s: %w", method, path, err)
	}
	return nil
}

// send performs one request through the circuit breaker and returns the
// response body of a 2xx answer.
func (c *Client) send(ctx context.Context, method, path string, body []byte) ([]byte, error) {
	data, err := c.breaker.Execute(func() ([]byte, error) {
		return c.roundTrip(ctx, method, path, body)
	})
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return nil, domain.DatabaseErrorf("%s %s: %w", method, path, err)
	}
	return data, err
}

func (c *Client) roundTrip(ctx context.Context, method, path string, body []byte) ([]byte, error) {
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return nil, domain.DatabaseErrorf("create request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, domain.DatabaseErrorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, domain.DatabaseErrorf("read %s %s response: %w", method, path, err)
	}
	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return data, nil
	}
	return nil, statusError(resp.StatusCode, method, path, data)
}

func statusError(status int, method, path string, body []byte) error {
	msg := errorMessage(body)
	switch {
	case status == http.StatusNotFound:
		return domain.NotFoundf("%s %s: %s", method, path, msg)
	case status == http.StatusConflict:
		return domain.AlreadyExistsf("%s %s: %s", method, path, msg)
	case status == http.StatusRequestTimeout || status == http.StatusTooManyRequests:
		// Transient; counts against the breaker.
	case status >= 400 && status < 500:
		return domain.DatabaseErrorf("%s %s: %w: status %d: %s", method, path, errRejected, status, msg)
	}
	return domain.DatabaseErrorf("%s %s: status %d: %s", method, path, status, msg)
}

// errorMessage prefers the error field of a JSON error body.
func errorMessage(body []byte) string {
	var e errorResponse
	if err := json.Unmarshal(body, &e); err == nil && e.Error != "" {
		return e.Error
	}
	if len(body) > maxErrorBody {
		body = body[:maxErrorBody]
	}
	return strings.TrimSpace(string(body))
}

// observe starts timing one operation. The returned func records the
// duration and counts a failure when *err is non-nil.
func (c *Client) observe(entity, op string) func(*error) {
	start := time.Now()
	return func(err *error) {
		if c.metrics == nil {
			return
		}
		c.metrics.BackendOpDuration.WithLabelValues(backendName, entity, op).Observe(time.Since(start).Seconds())
		if *err != nil {
			c.metrics.BackendErrors.WithLabelValues(backendName, entity, op).Inc()
		}
	}
}

// cachedRead serves GET path from the cache when possible.
func (c *Client) cachedRead(ctx context.Context, path string, out any) error {
	if data, ok := c.cache.get(path); ok {
		c.countCache("hit")
		return decode(data, out, http.MethodGet, path)
	}
	c.countCache("miss")

	data, err := c.send(ctx, http.MethodGet, path, nil)
	if err != nil {
		return err
	}
	if err := decode(data, out, http.MethodGet, path); err != nil {
		return err
	}
	c.cache.put(path, data)
	return nil
}

func (c *Client) countCache(result string) {
	if c.metrics != nil {
		c.metrics.RemoteCache.WithLabelValues(result).Inc()
	}
}

// write sends a mutating request to target and drops the cached read of key.
func (c *Client) write(ctx context.Context, method, target, key string, in any) error {
	defer c.cache.invalidate(key)
	return c.do(ctx, method, target, in, nil)
}
