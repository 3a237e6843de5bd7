package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/m3ux/internal/shared"
	"golang.org/x/oauth2"
	"golang.org/x/time/rate"
)

// Fetcher retrieves the raw text of a playlist source.
type Fetcher interface {
	Fetch(ctx context.Context, source string) (string, error)
}

// FetcherOpts configures [NewHTTPFetcher].
type FetcherOpts struct {
	Token          string        // bearer token; empty sends no Authorization header
	Timeout        time.Duration // per attempt; zero means 30s
	Retries        int           // extra attempts after the first
	RetryPerSecond float64       // attempt rate; zero means 1 per second
	Client         *http.Client  // base client; defaults to http.DefaultClient
	Logger         *log.Logger
}

// NewFetcher returns an [HTTPFetcher] for http(s) sources and a [FileFetcher] otherwise.
func NewFetcher(source string, opts FetcherOpts) Fetcher {
	if isHTTP(source) {
		return NewHTTPFetcher(opts)
	}
	return &FileFetcher{}
}

func isHTTP(source string) bool {
	return strings.HasPrefix(source, "http://") || strings.HasPrefix(source, "https://")
}

// HTTPFetcher retrieves playlists over HTTP.
type HTTPFetcher struct {
	client  *http.Client
	timeout time.Duration
	retries int
	limiter *rate.Limiter
	logger  *log.Logger
}

// NewHTTPFetcher creates an HTTPFetcher from opts.
func NewHTTPFetcher(opts FetcherOpts) *HTTPFetcher {
	if opts.Client == nil {
		opts.Client = http.DefaultClient
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 30 * time.Second
	}
	if opts.RetryPerSecond <= 0 {
		opts.RetryPerSecond = 1
	}
	if opts.Retries < 0 {
		opts.Retries = 0
	}
	if opts.Logger == nil {
		opts.Logger = shared.NopLogger()
	}

	client := opts.Client
	if opts.Token != "" {
		ctx := context.WithValue(context.Background(), oauth2.HTTPClient, opts.Client)
		client = oauth2.NewClient(ctx, oauth2.StaticTokenSource(&oauth2.Token{AccessToken: opts.Token, TokenType: "Bearer"}))
	}

	return &HTTPFetcher{
		client:  client,
		timeout: opts.Timeout,
		retries: opts.Retries,
		limiter: rate.NewLimiter(rate.Limit(opts.RetryPerSecond), 1),
		logger:  opts.Logger,
	}
}

// retryable marks failures worth another attempt.
type retryable struct{ err error }

func (r retryable) Error() string { return r.err.Error() }
func (r retryable) Unwrap() error { return r.err }

// Fetch GETs source and returns the body of the first 2xx response.
func (f *HTTPFetcher) Fetch(ctx context.Context, source string) (string, error) {
	var lastErr error
	for attempt := 0; attempt <= f.retries; attempt++ {
		if err := f.limiter.Wait(ctx); err != nil {
			return "", fmt.Errorf("%w: %w", shared.ErrRetrieval, err)
		}

		f.logger.Info("downloading playlist", "source", source, "attempt", attempt+1)
		body, err := f.get(ctx, source)
		if err == nil {
			return body, nil
		}
		lastErr = err

		var r retryable
		if !errors.As(err, &r) {
			break
		}
		f.logger.Warn("download failed", "source", source, "attempt", attempt+1, "error", err)
	}
	return "", fmt.Errorf("%w: %w", shared.ErrRetrieval, lastErr)
}

func (f *HTTPFetcher) get(ctx context.Context, source string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, f.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, source, nil)
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return "", retryable{fmt.Errorf("request failed: %w", err)}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", retryable{fmt.Errorf("failed to read response: %w", err)}
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		err := fmt.Errorf("unexpected status %d", resp.StatusCode)
		if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500 {
			return "", retryable{err}
		}
		return "", err
	}

	return string(body), nil
}

// FileFetcher reads playlists from the local filesystem.
type FileFetcher struct{}

// Fetch reads source as a path or a file:// URL.
func (FileFetcher) Fetch(ctx context.Context, source string) (string, error) {
	path := source
	if strings.HasPrefix(source, "file://") {
		u, err := url.Parse(source)
		if err != nil {
			return "", fmt.Errorf("%w: invalid file URL: %w", shared.ErrRetrieval, err)
		}
		path = u.Path
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("%w: %w", shared.ErrRetrieval, err)
	}
	return string(data), nil
}
