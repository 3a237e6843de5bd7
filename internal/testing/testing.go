// package testing contains shared testing utilities
package testing

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"sync"
	"testing"
)

// StaticFetcher is a test double for services.Fetcher returning fixed text or an error.
type StaticFetcher struct {
	mu    sync.Mutex
	Text  string
	Err   error
	Calls []string
}

func (f *StaticFetcher) Fetch(ctx context.Context, source string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Calls = append(f.Calls, source)
	if f.Err != nil {
		return "", f.Err
	}
	return f.Text, nil
}

// MemorySink is a test double for services.Sink that keeps written files in a map.
type MemorySink struct {
	Files map[string]string
	Err   error
}

func NewMemorySink() *MemorySink {
	return &MemorySink{Files: map[string]string{}}
}

func (s *MemorySink) Write(path, text string) error {
	if s.Err != nil {
		return s.Err
	}
	s.Files[path] = text
	return nil
}

func (s *MemorySink) Exists(path string) bool {
	_, ok := s.Files[path]
	return ok
}

// FWriter always returns an error on Write
type FWriter struct{}

func (f *FWriter) Write(p []byte) (n int, err error) {
	return 0, errors.New("write failed")
}

// MockRoundTripper allows custom HTTP responses for testing
type MockRoundTripper struct {
	response *http.Response
	err      error
}

func NewMockRoundTripper(r *http.Response, e error) *MockRoundTripper {
	return &MockRoundTripper{response: r, err: e}
}

func (m *MockRoundTripper) RoundTrip(*http.Request) (*http.Response, error) {
	return m.response, m.err
}

// FCloser simulates a failure when reading response body
type FCloser struct{}

func (f *FCloser) Read(p []byte) (n int, err error) {
	return 0, errors.New("read failed")
}

func (f *FCloser) Close() error {
	return nil
}

// Body wraps s as a response body.
func Body(s string) io.ReadCloser {
	return io.NopCloser(strings.NewReader(s))
}

// M3U builds a playlist document from (name, group) pairs. Locators are http://example.com/<name>.
func M3U(pairs ...string) string {
	if len(pairs)%2 != 0 {
		panic("M3U needs name/group pairs")
	}
	var b strings.Builder
	b.WriteString("#EXTM3U\n")
	for i := 0; i < len(pairs); i += 2 {
		fmt.Fprintf(&b, "#EXTINF:-1 tvg-name=%q group-title=%q,%s\n", pairs[i], pairs[i+1], pairs[i])
		fmt.Fprintf(&b, "http://example.com/%s\n", pairs[i])
	}
	return b.String()
}

// MustChdir changes into dir and restores the previous working directory when the test ends.
func MustChdir(t *testing.T, dir string) {
	t.Helper()
	wd, err := os.Getwd()
	if err != nil {
		t.Fatalf("Failed to get working directory: %v", err)
	}
	if err := os.Chdir(dir); err != nil {
		t.Fatalf("Failed to change directory to %s: %v", dir, err)
	}
	t.Cleanup(func() { os.Chdir(wd) })
}

func AssertFileExists(t *testing.T, path string) {
	t.Helper()
	if _, err := os.Stat(path); os.IsNotExist(err) {
		t.Errorf("File does not exist: %s", path)
	}
}

func AssertNoFile(t *testing.T, path string) {
	t.Helper()
	if _, err := os.Stat(path); err == nil {
		t.Errorf("File should not exist: %s", path)
	}
}

func MustReadFile(t *testing.T, path string) string {
	t.Helper()
	content, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("Failed to read file %s: %v", path, err)
	}
	return string(content)
}

func MustWriteFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("Failed to write file %s: %v", path, err)
	}
}
