// package testing contains shared testing utilities
package testing

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"sync"
	"testing"

	"github.com/desertthunder/spotdl/internal/models"
)

// FakeProvider is a test double for [services.MetadataProvider] serving canned pages keyed by page token.
type FakeProvider struct {
	mu         sync.Mutex
	Pages      map[string]*models.TrackPage // "" is the first page
	PageErrs   map[string]error
	CollErrs   map[string]error // keyed by collection id, checked before PageErrs
	AuthErr    error
	Token      string
	authCalls  int
	fetchCalls []string
}

func (f *FakeProvider) Authenticate(ctx context.Context) (models.Credential, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.authCalls++
	if f.AuthErr != nil {
		return models.Credential{}, f.AuthErr
	}
	token := f.Token
	if token == "" {
		token = "fake-token"
	}
	return models.Credential{AccessToken: token}, nil
}

func (f *FakeProvider) FetchPage(ctx context.Context, c models.Collection, pageToken string) (*models.TrackPage, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.fetchCalls = append(f.fetchCalls, pageToken)
	if err, ok := f.CollErrs[c.ID]; ok {
		return nil, err
	}
	if err, ok := f.PageErrs[pageToken]; ok {
		return nil, err
	}
	page, ok := f.Pages[pageToken]
	if !ok {
		return nil, fmt.Errorf("no page for token %q", pageToken)
	}
	return page, nil
}

// AuthCalls returns the number of Authenticate calls.
func (f *FakeProvider) AuthCalls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.authCalls
}

// FetchCalls returns the page tokens requested, in order.
func (f *FakeProvider) FetchCalls() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.fetchCalls...)
}

// FakeSearcher is a test double for [services.Searcher] answering from a query → URL map.
type FakeSearcher struct {
	mu      sync.Mutex
	Results map[string]string
	Errs    map[string]error
	Err     error // returned for every query when set
	queries []string
}

func (f *FakeSearcher) Search(ctx context.Context, query string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.queries = append(f.queries, query)
	if f.Err != nil {
		return "", f.Err
	}
	if err, ok := f.Errs[query]; ok {
		return "", err
	}
	return f.Results[query], nil
}

// Calls returns the queries searched, in order.
func (f *FakeSearcher) Calls() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.queries...)
}

// FakeExtractor is a test double for [services.Extractor] that writes Content to the output path.
type FakeExtractor struct {
	mu        sync.Mutex
	Content   []byte
	Fail      map[string]error // keyed by media URL
	SkipWrite bool             // report success without creating the file
	Hook      func(outputPath string)
	calls     []string
}

func (f *FakeExtractor) Extract(ctx context.Context, mediaURL, outputPath string) error {
	f.mu.Lock()
	f.calls = append(f.calls, outputPath)
	err := f.Fail[mediaURL]
	hook := f.Hook
	f.mu.Unlock()

	if hook != nil {
		hook(outputPath)
	}
	if err != nil {
		return err
	}
	if f.SkipWrite {
		return nil
	}
	content := f.Content
	if content == nil {
		content = []byte("fake mp3 audio payload")
	}
	return os.WriteFile(outputPath, content, 0644)
}

// Calls returns the output paths requested, in order.
func (f *FakeExtractor) Calls() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.calls...)
}

// FakeTagger is a test double for the tag writer.
type FakeTagger struct {
	mu    sync.Mutex
	Err   error
	paths []string
	tags  []models.Tags
}

func (f *FakeTagger) WriteTags(path string, tags models.Tags) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.paths = append(f.paths, path)
	f.tags = append(f.tags, tags)
	return f.Err
}

// Written returns the paths and tags passed to WriteTags.
func (f *FakeTagger) Written() ([]string, []models.Tags) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.paths...), append([]models.Tags(nil), f.tags...)
}

// FakeFetcher is a test double for [services.Fetcher].
type FakeFetcher struct {
	mu    sync.Mutex
	Data  []byte
	Err   error
	calls []string
}

func (f *FakeFetcher) Fetch(ctx context.Context, rawURL string) ([]byte, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, rawURL)
	if f.Err != nil {
		return nil, f.Err
	}
	return f.Data, nil
}

// Calls returns the URLs fetched, in order.
func (f *FakeFetcher) Calls() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.calls...)
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

var _ io.ReadCloser = (*FCloser)(nil)

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
