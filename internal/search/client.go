package search

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/sony/gobreaker"

	"codeberg.org/snonux/galleryexplorer/internal/logging"
)

const (
	// UserAgent is sent with every engine request
	UserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) " +
		"AppleWebKit/537.36 (KHTML, like Gecko) " +
		"Chrome/120.0.0.0 Safari/537.36"

	acceptHeader = "text/html,application/xhtml+xml,application/xml;" +
		"q=0.9,image/avif,image/webp,image/apng,*/*;q=0.8"
	acceptLanguage = "en-US,en;q=0.9,es;q=0.8"

	defaultEngineTimeout = 15 * time.Second
	maxDocumentBytes     = 8 << 20

	breakerFailures = 3
	breakerCooldown = 30 * time.Second
)

// Client performs engine requests with browser-like headers. Each engine
// gets its own circuit breaker so that an engine which keeps failing at the
// transport level is skipped for a while instead of being hammered.
type Client struct {
	httpClient *http.Client
	log        logrus.FieldLogger

	mu       sync.Mutex
	breakers map[string]*gobreaker.CircuitBreaker
}

// NewClient creates a client with the default engine timeout
func NewClient(log logrus.FieldLogger) *Client {
	return NewClientWithHTTP(&http.Client{Timeout: defaultEngineTimeout}, log)
}

// NewClientWithHTTP wraps an existing http.Client
func NewClientWithHTTP(hc *http.Client, log logrus.FieldLogger) *Client {
	return &Client{
		httpClient: hc,
		log:        logging.OrDiscard(log),
		breakers:   make(map[string]*gobreaker.CircuitBreaker),
	}
}

// page is a fetched engine document
type page struct {
	status int
	body   []byte
}

// get issues a GET request for engine
func (c *Client) get(ctx context.Context, engine, rawURL string, extra http.Header) (*page, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	return c.do(engine, req, extra)
}

// postForm issues a form-encoded POST request for engine
func (c *Client) postForm(ctx context.Context, engine, rawURL string, form url.Values) (*page, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, rawURL, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return c.do(engine, req, nil)
}

func (c *Client) do(engine string, req *http.Request, extra http.Header) (*page, error) {
	req.Header.Set("User-Agent", UserAgent)
	req.Header.Set("Accept", acceptHeader)
	req.Header.Set("Accept-Language", acceptLanguage)
	for k, vs := range extra {
		for _, v := range vs {
			req.Header.Set(k, v)
		}
	}

	c.log.WithFields(logrus.Fields{"engine": engine, "method": req.Method, "url": req.URL.String()}).Debug("engine request")

	res, err := c.breaker(engine).Execute(func() (interface{}, error) {
		resp, err := c.httpClient.Do(req)
		if err != nil {
			return nil, fmt.Errorf("request failed: %w", err)
		}
		defer resp.Body.Close()

		body, err := io.ReadAll(io.LimitReader(resp.Body, maxDocumentBytes))
		if err != nil {
			return nil, fmt.Errorf("failed to read response: %w", err)
		}
		return &page{status: resp.StatusCode, body: body}, nil
	})
	if err != nil {
		return nil, err
	}
	return res.(*page), nil
}

// breaker returns the circuit breaker for engine, creating it on first use
func (c *Client) breaker(engine string) *gobreaker.CircuitBreaker {
	c.mu.Lock()
	defer c.mu.Unlock()

	if cb, ok := c.breakers[engine]; ok {
		return cb
	}

	cb := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:    engine,
		Timeout: breakerCooldown,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= breakerFailures
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			c.log.WithFields(logrus.Fields{"engine": name, "from": from.String(), "to": to.String()}).Warn("engine circuit breaker changed state")
		},
	})
	c.breakers[engine] = cb
	return cb
}
