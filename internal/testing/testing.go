// package testing contains shared testing utilities
package testing

import (
	"context"
	"errors"
	"io"
	"net/http"
	"os"
	"testing"

	"github.com/tunebridge/tunebridge/internal/models"
)

// MockSource is a configurable test double for [services.SourceCatalog].
// Unset function fields fall back to benign defaults.
type MockSource struct {
	FetchPlaylistFunc func(ctx context.Context, playlistID string) (*models.SourcePlaylist, error)
	GetPlaylistsFunc  func(ctx context.Context) ([]models.Playlist, error)
}

func (m *MockSource) FetchPlaylist(ctx context.Context, playlistID string) (*models.SourcePlaylist, error) {
	if m.FetchPlaylistFunc != nil {
		return m.FetchPlaylistFunc(ctx, playlistID)
	}
	return &models.SourcePlaylist{ID: playlistID}, nil
}

func (m *MockSource) GetPlaylists(ctx context.Context) ([]models.Playlist, error) {
	if m.GetPlaylistsFunc != nil {
		return m.GetPlaylistsFunc(ctx)
	}
	return []models.Playlist{}, nil
}

func (m *MockSource) Name() string { return "mock source" }

// MockDestination is a configurable test double for [services.DestinationCatalog].
type MockDestination struct {
	AuthenticateFunc   func(ctx context.Context, credentials map[string]string) error
	SearchTrackFunc    func(ctx context.Context, query string) (string, bool, error)
	CreatePlaylistFunc func(ctx context.Context, name, description string, public bool) (*models.Playlist, error)
	AddTracksFunc      func(ctx context.Context, playlistID string, trackIDs []string) error
	GetPlaylistsFunc   func(ctx context.Context) ([]models.Playlist, error)
}

func (m *MockDestination) Authenticate(ctx context.Context, credentials map[string]string) error {
	if m.AuthenticateFunc != nil {
		return m.AuthenticateFunc(ctx, credentials)
	}
	return nil
}

func (m *MockDestination) SearchTrack(ctx context.Context, query string) (string, bool, error) {
	if m.SearchTrackFunc != nil {
		return m.SearchTrackFunc(ctx, query)
	}
	return "", false, nil
}

func (m *MockDestination) CreatePlaylist(ctx context.Context, name, description string, public bool) (*models.Playlist, error) {
	if m.CreatePlaylistFunc != nil {
		return m.CreatePlaylistFunc(ctx, name, description, public)
	}
	return &models.Playlist{ID: "mock_playlist", Name: name, Description: description, Public: public}, nil
}

func (m *MockDestination) AddTracks(ctx context.Context, playlistID string, trackIDs []string) error {
	if m.AddTracksFunc != nil {
		return m.AddTracksFunc(ctx, playlistID, trackIDs)
	}
	return nil
}

func (m *MockDestination) GetPlaylists(ctx context.Context) ([]models.Playlist, error) {
	if m.GetPlaylistsFunc != nil {
		return m.GetPlaylistsFunc(ctx)
	}
	return []models.Playlist{}, nil
}

func (m *MockDestination) Name() string { return "mock destination" }

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
