package services

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/desertthunder/m3ux/internal/shared"
	tu "github.com/desertthunder/m3ux/internal/testing"
)

func fastOpts() FetcherOpts {
	return FetcherOpts{Timeout: 2 * time.Second, RetryPerSecond: 1000}
}

func TestHTTPFetcher(t *testing.T) {
	t.Run("returns body on success", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte("#EXTM3U\n"))
		}))
		defer srv.Close()

		body, err := NewHTTPFetcher(fastOpts()).Fetch(context.Background(), srv.URL)
		if err != nil {
			t.Fatalf("Fetch() error = %v", err)
		}
		if body != "#EXTM3U\n" {
			t.Errorf("Fetch() = %q", body)
		}
	})

	t.Run("sends bearer token", func(t *testing.T) {
		var auth string
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			auth = r.Header.Get("Authorization")
		}))
		defer srv.Close()

		opts := fastOpts()
		opts.Token = "secret"
		if _, err := NewHTTPFetcher(opts).Fetch(context.Background(), srv.URL); err != nil {
			t.Fatalf("Fetch() error = %v", err)
		}
		if auth != "Bearer secret" {
			t.Errorf("Authorization = %q, want Bearer secret", auth)
		}
	})

	t.Run("retries server errors", func(t *testing.T) {
		var calls atomic.Int32
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if calls.Add(1) < 3 {
				w.WriteHeader(http.StatusBadGateway)
				return
			}
			w.Write([]byte("ok"))
		}))
		defer srv.Close()

		opts := fastOpts()
		opts.Retries = 2
		body, err := NewHTTPFetcher(opts).Fetch(context.Background(), srv.URL)
		if err != nil {
			t.Fatalf("Fetch() error = %v", err)
		}
		if body != "ok" || calls.Load() != 3 {
			t.Errorf("Fetch() = %q after %d calls", body, calls.Load())
		}
	})

	t.Run("gives up after retries", func(t *testing.T) {
		var calls atomic.Int32
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			calls.Add(1)
			w.WriteHeader(http.StatusServiceUnavailable)
		}))
		defer srv.Close()

		opts := fastOpts()
		opts.Retries = 1
		_, err := NewHTTPFetcher(opts).Fetch(context.Background(), srv.URL)
		if !errors.Is(err, shared.ErrRetrieval) {
			t.Errorf("Fetch() error = %v, want ErrRetrieval", err)
		}
		if calls.Load() != 2 {
			t.Errorf("expected 2 attempts, got %d", calls.Load())
		}
	})

	t.Run("does not retry client errors", func(t *testing.T) {
		var calls atomic.Int32
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			calls.Add(1)
			w.WriteHeader(http.StatusNotFound)
		}))
		defer srv.Close()

		opts := fastOpts()
		opts.Retries = 3
		_, err := NewHTTPFetcher(opts).Fetch(context.Background(), srv.URL)
		if !errors.Is(err, shared.ErrRetrieval) {
			t.Errorf("Fetch() error = %v, want ErrRetrieval", err)
		}
		if calls.Load() != 1 {
			t.Errorf("expected 1 attempt, got %d", calls.Load())
		}
	})

	t.Run("transport failure", func(t *testing.T) {
		opts := fastOpts()
		opts.Client = &http.Client{Transport: tu.NewMockRoundTripper(nil, errors.New("connection refused"))}
		_, err := NewHTTPFetcher(opts).Fetch(context.Background(), "http://example.invalid/list.m3u")
		if !errors.Is(err, shared.ErrRetrieval) {
			t.Errorf("Fetch() error = %v, want ErrRetrieval", err)
		}
	})

	t.Run("body read failure", func(t *testing.T) {
		opts := fastOpts()
		opts.Client = &http.Client{Transport: tu.NewMockRoundTripper(&http.Response{
			StatusCode: http.StatusOK,
			Body:       &tu.FCloser{},
			Header:     http.Header{},
		}, nil)}
		_, err := NewHTTPFetcher(opts).Fetch(context.Background(), "http://example.com/list.m3u")
		if !errors.Is(err, shared.ErrRetrieval) {
			t.Errorf("Fetch() error = %v, want ErrRetrieval", err)
		}
	})

	t.Run("canceled context", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		_, err := NewHTTPFetcher(fastOpts()).Fetch(ctx, "http://example.com/list.m3u")
		if !errors.Is(err, shared.ErrRetrieval) {
			t.Errorf("Fetch() error = %v, want ErrRetrieval", err)
		}
	})
}

func TestFileFetcher(t *testing.T) {
	path := filepath.Join(t.TempDir(), "list.m3u")
	tu.MustWriteFile(t, path, "#EXTM3U\n")

	for _, source := range []string{path, "file://" + path} {
		body, err := NewFetcher(source, FetcherOpts{}).Fetch(context.Background(), source)
		if err != nil {
			t.Fatalf("Fetch(%s) error = %v", source, err)
		}
		if body != "#EXTM3U\n" {
			t.Errorf("Fetch(%s) = %q", source, body)
		}
	}

	_, err := FileFetcher{}.Fetch(context.Background(), filepath.Join(t.TempDir(), "missing.m3u"))
	if !errors.Is(err, shared.ErrRetrieval) {
		t.Errorf("Fetch() error = %v, want ErrRetrieval", err)
	}
}

func TestNewFetcher(t *testing.T) {
	if _, ok := NewFetcher("https://example.com/a.m3u", FetcherOpts{}).(*HTTPFetcher); !ok {
		t.Error("expected HTTPFetcher for https source")
	}
	if _, ok := NewFetcher("./a.m3u", FetcherOpts{}).(*FileFetcher); !ok {
		t.Error("expected FileFetcher for local path")
	}
}
