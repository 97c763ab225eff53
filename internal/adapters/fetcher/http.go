// Package fetcher provides HTTP adapters implementing ports.Fetcher.
package fetcher

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"golang.org/x/time/rate"

	"github.com/0xcro3dile/linesearch-go/internal/domain/ports"
)

const (
	// DefaultTimeout is the default HTTP request timeout.
	DefaultTimeout = 30 * time.Second

	// DefaultMaxBodyBytes caps how much of a response body is read.
	DefaultMaxBodyBytes int64 = 32 << 20
)

var _ ports.Fetcher = (*HTTPFetcher)(nil)

// ErrBodyTooLarge is returned when a response exceeds the configured cap.
var ErrBodyTooLarge = errors.New("response body too large")

// StatusError reports a non-success HTTP status.
type StatusError struct {
	URL        string
	StatusCode int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("GET %s: status %d", e.URL, e.StatusCode)
}

// Config configures an HTTPFetcher.
type Config struct {
	Timeout      time.Duration
	MaxBodyBytes int64
	// RatePerSec throttles outbound requests; zero disables throttling.
	RatePerSec float64
	Client     *http.Client
	Logger     *slog.Logger
}

// HTTPFetcher performs plain unauthenticated GETs.
type HTTPFetcher struct {
	client  *http.Client
	limiter *rate.Limiter
	maxBody int64
	logger  *slog.Logger
}

// NewHTTPFetcher creates a fetcher from cfg, filling defaults.
func NewHTTPFetcher(cfg Config) *HTTPFetcher {
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	if cfg.MaxBodyBytes <= 0 {
		cfg.MaxBodyBytes = DefaultMaxBodyBytes
	}
	client := cfg.Client
	if client == nil {
		client = &http.Client{Timeout: cfg.Timeout}
	}
	limiter := rate.NewLimiter(rate.Inf, 1)
	if cfg.RatePerSec > 0 {
		limiter = rate.NewLimiter(rate.Limit(cfg.RatePerSec), 1)
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default().With("component", "fetcher")
	}
	return &HTTPFetcher{
		client:  client,
		limiter: limiter,
		maxBody: cfg.MaxBodyBytes,
		logger:  logger,
	}
}

// Fetch GETs url and returns the body. Any status outside 2xx is a *StatusError.
func (f *HTTPFetcher) Fetch(ctx context.Context, url string) ([]byte, error) {
	if err := f.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limit wait: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}

	start := time.Now()
	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("calling %s: %w", url, err)
	}
	defer resp.Body.Close()

	f.logger.Debug("fetched", "url", url, "status", resp.StatusCode, "elapsed", time.Since(start))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &StatusError{URL: url, StatusCode: resp.StatusCode}
	}
	return readCapped(resp.Body, f.maxBody)
}

func readCapped(r io.Reader, limit int64) ([]byte, error) {
	body, err := io.ReadAll(io.LimitReader(r, limit+1))
	if err != nil {
		return nil, fmt.Errorf("reading body: %w", err)
	}
	if int64(len(body)) > limit {
		return nil, ErrBodyTooLarge
	}
	return body, nil
}
