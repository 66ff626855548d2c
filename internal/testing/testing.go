// package testing contains shared testing utilities
package testing

import (
	"context"
	"errors"
	"io"
	"net/http"
	"os"
	"testing"

	"github.com/imanmossavat/litstage/internal/api"
)

// StubBackend is a configurable test double for the staging engine's backend.
//
// Each hook defaults to a no-op success; tests override only what they assert
// on. Calls records the method names in invocation order.
type StubBackend struct {
	Calls []string

	ListRowsFunc        func(ctx context.Context, sessionID string, req api.ListRowsRequest) (*api.ListRowsResponse, error)
	PatchRowFunc        func(ctx context.Context, sessionID, stagingID string, fields map[string]*string) error
	DeleteRowFunc       func(ctx context.Context, sessionID, stagingID string) error
	SelectRowFunc       func(ctx context.Context, sessionID, stagingID string, selected bool) error
	SelectRowsFunc      func(ctx context.Context, sessionID string, stagingIDs []string, selected bool) error
	CheckRetractionFunc func(ctx context.Context, sessionID string, stagingIDs []string) (*api.RetractionCheckResponse, error)
}

func (s *StubBackend) ListRows(ctx context.Context, sessionID string, req api.ListRowsRequest) (*api.ListRowsResponse, error) {
	s.Calls = append(s.Calls, "ListRows")
	if s.ListRowsFunc != nil {
		return s.ListRowsFunc(ctx, sessionID, req)
	}
	return &api.ListRowsResponse{Stats: api.RowStats{BySource: map[string]int{}}}, nil
}

func (s *StubBackend) PatchRow(ctx context.Context, sessionID, stagingID string, fields map[string]*string) error {
	s.Calls = append(s.Calls, "PatchRow")
	if s.PatchRowFunc != nil {
		return s.PatchRowFunc(ctx, sessionID, stagingID, fields)
	}
	return nil
}

func (s *StubBackend) DeleteRow(ctx context.Context, sessionID, stagingID string) error {
	s.Calls = append(s.Calls, "DeleteRow")
	if s.DeleteRowFunc != nil {
		return s.DeleteRowFunc(ctx, sessionID, stagingID)
	}
	return nil
}

func (s *StubBackend) SelectRow(ctx context.Context, sessionID, stagingID string, selected bool) error {
	s.Calls = append(s.Calls, "SelectRow")
	if s.SelectRowFunc != nil {
		return s.SelectRowFunc(ctx, sessionID, stagingID, selected)
	}
	return nil
}

func (s *StubBackend) SelectRows(ctx context.Context, sessionID string, stagingIDs []string, selected bool) error {
	s.Calls = append(s.Calls, "SelectRows")
	if s.SelectRowsFunc != nil {
		return s.SelectRowsFunc(ctx, sessionID, stagingIDs, selected)
	}
	return nil
}

func (s *StubBackend) CheckRetractions(ctx context.Context, sessionID string, stagingIDs []string) (*api.RetractionCheckResponse, error) {
	s.Calls = append(s.Calls, "CheckRetractions")
	if s.CheckRetractionFunc != nil {
		return s.CheckRetractionFunc(ctx, sessionID, stagingIDs)
	}
	return &api.RetractionCheckResponse{}, nil
}

// FWriter always returns an error on Write
type FWriter struct{}

func (f *FWriter) Write(p []byte) (n int, err error) {
	return 0, errors.New("write failed")
}

// LimitedWriter fails after a certain number of writes
type LimitedWriter struct {
	maxWrites int
	written   int
	target    io.Writer
}

func (l *LimitedWriter) Write(p []byte) (n int, err error) {
	if l.written >= l.maxWrites {
		return 0, errors.New("write limit exceeded")
	}
	l.written++
	return l.target.Write(p)
}

func NewLimitedWriter(maxWrites, written int, target io.Writer) LimitedWriter {
	return LimitedWriter{maxWrites: maxWrites, written: written, target: target}
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

func MustGetwd(t *testing.T) string {
	t.Helper()
	wd, err := os.Getwd()
	if err != nil {
		t.Fatalf("Failed to get working directory: %v", err)
	}
	return wd
}

func MustChdir(t *testing.T, dir string) {
	t.Helper()
	if err := os.Chdir(dir); err != nil {
		t.Fatalf("Failed to change directory to %s: %v", dir, err)
	}
}

func AssertFileExists(t *testing.T, path string) {
	t.Helper()
	if _, err := os.Stat(path); os.IsNotExist(err) {
		t.Errorf("File does not exist: %s", path)
	}
}

func AssertDirExists(t *testing.T, path string) {
	t.Helper()
	info, err := os.Stat(path)
	if os.IsNotExist(err) {
		t.Errorf("Directory does not exist: %s", path)
		return
	}
	if !info.IsDir() {
		t.Errorf("Path is not a directory: %s", path)
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
