package services

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/tunebridge/tunebridge/internal/shared"
	"golang.org/x/oauth2"
)

// newTestSpotifyService returns an authenticated service pointed at a test server.
func newTestSpotifyService(t *testing.T, handler http.Handler) *SpotifyService {
	t.Helper()

	srv, err := NewSpotifyService(map[string]string{
		"client_id":     "test_client_id",
		"client_secret": "test_client_secret",
	})
	if err != nil {
		t.Fatalf("failed to create service: %v", err)
	}

	ts := httptest.NewServer(handler)
	t.Cleanup(ts.Close)

	srv.baseURL = ts.URL
	srv.token = &oauth2.Token{AccessToken: "test_token", TokenType: "Bearer"}

	return srv
}

func TestSpotifyService(t *testing.T) {
	t.Run("NewSpotifyService", func(t *testing.T) {
		t.Run("With Valid Credentials", func(t *testing.T) {
			credentials := map[string]string{
				"client_id":     "test_client_id",
				"client_secret": "test_client_secret",
				"redirect_uri":  "http://127.0.0.1:9090/callback",
			}

			srv, err := NewSpotifyService(credentials)
			if err != nil {
				t.Fatalf("expected no error, got %v", err)
			}

			if srv == nil {
				t.Fatal("expected service to be created")
			}

			if srv.Name() != "Spotify" {
				t.Errorf("expected service name 'Spotify', got %s", srv.Name())
			}

			if srv.config.RedirectURL != "http://127.0.0.1:9090/callback" {
				t.Errorf("expected configured redirect URI, got %s", srv.config.RedirectURL)
			}
		})

		t.Run("Missing Client ID", func(t *testing.T) {
			credentials := map[string]string{
				"client_secret": "test_client_secret",
			}

			_, err := NewSpotifyService(credentials)
			if !errors.Is(err, shared.ErrMissingCredentials) {
				t.Errorf("expected ErrMissingCredentials for missing client_id, got %v", err)
			}
		})

		t.Run("Missing Client Secret", func(t *testing.T) {
			credentials := map[string]string{
				"client_id": "test_client_id",
			}

			_, err := NewSpotifyService(credentials)
			if !errors.Is(err, shared.ErrMissingCredentials) {
				t.Errorf("expected ErrMissingCredentials for missing client_secret, got %v", err)
			}
		})

		t.Run("Default Redirect URI", func(t *testing.T) {
			credentials := map[string]string{
				"client_id":     "test_client_id",
				"client_secret": "test_client_secret",
			}

			srv, err := NewSpotifyService(credentials)
			if err != nil {
				t.Fatalf("expected no error, got %v", err)
			}

			if srv.config.RedirectURL != defaultRedirectURI {
				t.Errorf("expected default redirect URI, got %s", srv.config.RedirectURL)
			}
		})
	})

	t.Run("Get AuthURL", func(t *testing.T) {
		credentials := map[string]string{
			"client_id":     "test_client_id",
			"client_secret": "test_client_secret",
		}

		srv, err := NewSpotifyService(credentials)
		if err != nil {
			t.Fatalf("failed to create service: %v", err)
		}

		authURL := srv.GetAuthURL("test_state")
		if authURL == "" {
			t.Error("expected auth URL to be generated")
		}

		if !strings.Contains(authURL, "accounts.spotify.com") {
			t.Error("auth URL should contain Spotify domain")
		}
		if !strings.Contains(authURL, "test_client_id") {
			t.Error("auth URL should contain client_id")
		}
		if !strings.Contains(authURL, "test_state") {
			t.Error("auth URL should contain state")
		}
	})

	t.Run("Authenticate", func(t *testing.T) {
		credentials := map[string]string{
			"client_id":     "test_client_id",
			"client_secret": "test_client_secret",
		}

		srv, err := NewSpotifyService(credentials)
		if err != nil {
			t.Fatalf("failed to create service: %v", err)
		}

		t.Run("WithAccessToken", func(t *testing.T) {
			authCreds := map[string]string{
				"access_token": "test_access_token",
			}

			err := srv.Authenticate(context.Background(), authCreds)
			if err != nil {
				t.Errorf("expected no error with access token, got %v", err)
			}

			if srv.token == nil {
				t.Error("expected token to be set")
			}

			if srv.token.AccessToken != "test_access_token" {
				t.Errorf("expected access token to be 'test_access_token', got %s", srv.token.AccessToken)
			}
		})

		t.Run("Missing Credentials", func(t *testing.T) {
			authCreds := map[string]string{}

			err := srv.Authenticate(context.Background(), authCreds)
			if !errors.Is(err, shared.ErrMissingCredentials) {
				t.Errorf("expected ErrMissingCredentials, got %v", err)
			}
		})
	})

	t.Run("Catalog Interface", func(t *testing.T) {
		credentials := map[string]string{
			"client_id":     "test_client_id",
			"client_secret": "test_client_secret",
		}

		srv, err := NewSpotifyService(credentials)
		if err != nil {
			t.Fatalf("failed to create service: %v", err)
		}

		var _ DestinationCatalog = srv
	})

	t.Run("SetTokenRefreshCallback", func(t *testing.T) {
		credentials := map[string]string{
			"client_id":     "test_client_id",
			"client_secret": "test_client_secret",
		}

		srv, err := NewSpotifyService(credentials)
		if err != nil {
			t.Fatalf("failed to create service: %v", err)
		}

		t.Run("sets callback successfully", func(t *testing.T) {
			srv.SetTokenRefreshCallback(func(token *oauth2.Token) {
				// Callback set for testing
			})

			if srv.onTokenRefresh == nil {
				t.Error("expected callback to be set")
			}
		})

		t.Run("can set nil callback", func(t *testing.T) {
			srv.SetTokenRefreshCallback(nil)
			if srv.onTokenRefresh != nil {
				t.Error("expected callback to be nil")
			}
		})

		t.Run("callback can be replaced", func(t *testing.T) {
			srv.SetTokenRefreshCallback(func(token *oauth2.Token) {
				// First callback
			})

			srv.SetTokenRefreshCallback(func(token *oauth2.Token) {
				// Second callback
			})

			if srv.onTokenRefresh == nil {
				t.Error("expected callback to be set")
			}
		})
	})

	t.Run("refreshableTokenSource", func(t *testing.T) {
		t.Run("calls callback on first token fetch", func(t *testing.T) {
			callbackCalled := false
			var capturedToken *oauth2.Token

			mockSource := &mockTokenSource{
				token: &oauth2.Token{AccessToken: "test_token"},
			}

			source := &refreshableTokenSource{
				source: mockSource,
				callback: func(token *oauth2.Token) {
					callbackCalled = true
					capturedToken = token
				},
			}

			token, err := source.Token()
			if err != nil {
				t.Fatalf("expected no error, got %v", err)
			}

			if !callbackCalled {
				t.Error("expected callback to be called on first fetch")
			}
			if capturedToken == nil {
				t.Error("expected token to be captured")
			}
			if capturedToken.AccessToken != "test_token" {
				t.Errorf("expected captured token to be 'test_token', got %s", capturedToken.AccessToken)
			}
			if token.AccessToken != "test_token" {
				t.Errorf("expected returned token to be 'test_token', got %s", token.AccessToken)
			}
		})

		t.Run("calls callback when token changes", func(t *testing.T) {
			callCount := 0
			var capturedTokens []*oauth2.Token

			mockSource := &mockTokenSource{
				token: &oauth2.Token{AccessToken: "token1"},
			}

			source := &refreshableTokenSource{
				source: mockSource,
				callback: func(token *oauth2.Token) {
					callCount++
					capturedTokens = append(capturedTokens, token)
				},
			}

			_, _ = source.Token()
			if callCount != 1 {
				t.Errorf("expected callback called once, got %d", callCount)
			}

			mockSource.token = &oauth2.Token{AccessToken: "token2"}
			token2, _ := source.Token()

			if callCount != 2 {
				t.Errorf("expected callback called twice, got %d", callCount)
			}
			if len(capturedTokens) != 2 {
				t.Errorf("expected 2 captured tokens, got %d", len(capturedTokens))
			}
			if token2.AccessToken != "token2" {
				t.Errorf("expected new token, got %s", token2.AccessToken)
			}
		})

		t.Run("doesn't call callback when token unchanged", func(t *testing.T) {
			callCount := 0

			mockSource := &mockTokenSource{
				token: &oauth2.Token{AccessToken: "same_token"},
			}

			source := &refreshableTokenSource{
				source: mockSource,
				callback: func(token *oauth2.Token) {
					callCount++
				},
			}

			source.Token()
			source.Token()
			source.Token()

			if callCount != 1 {
				t.Errorf("expected callback called once, got %d", callCount)
			}
		})

		t.Run("handles nil callback gracefully", func(t *testing.T) {
			mockSource := &mockTokenSource{
				token: &oauth2.Token{AccessToken: "test_token"},
			}

			source := &refreshableTokenSource{
				source:   mockSource,
				callback: nil,
			}

			token, err := source.Token()
			if err != nil {
				t.Fatalf("expected no error with nil callback, got %v", err)
			}
			if token.AccessToken != "test_token" {
				t.Error("expected token to be returned despite nil callback")
			}
		})

		t.Run("propagates source errors", func(t *testing.T) {
			mockSource := &mockTokenSource{
				err: errors.New("token source error"),
			}

			source := &refreshableTokenSource{
				source: mockSource,
				callback: func(token *oauth2.Token) {
					t.Error("callback should not be called on error")
				},
			}

			token, err := source.Token()
			if err == nil {
				t.Fatal("expected error from source")
			}
			if !strings.Contains(err.Error(), "token source error") {
				t.Errorf("expected source error, got %v", err)
			}
			if token != nil {
				t.Error("expected nil token on error")
			}
		})

		t.Run("handles callback panic gracefully", func(t *testing.T) {
			defer func() {
				if r := recover(); r != nil {
					t.Error("expected panic to be contained within callback")
				}
			}()

			mockSource := &mockTokenSource{
				token: &oauth2.Token{AccessToken: "test_token"},
			}

			source := &refreshableTokenSource{
				source: mockSource,
				callback: func(token *oauth2.Token) {
					panic("callback panic")
				},
			}

			func() {
				defer func() {
					_ = recover()
				}()
				source.Token()
			}()
		})
	})
}

func TestSpotifySearchTrack(t *testing.T) {
	t.Run("Found", func(t *testing.T) {
		var gotQuery string
		srv := newTestSpotifyService(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.URL.Path != "/search" {
				t.Errorf("expected /search, got %s", r.URL.Path)
			}
			gotQuery = r.URL.Query().Get("q")
			if r.URL.Query().Get("type") != "track" {
				t.Errorf("expected type=track, got %s", r.URL.Query().Get("type"))
			}
			if r.URL.Query().Get("limit") != "1" {
				t.Errorf("expected limit=1, got %s", r.URL.Query().Get("limit"))
			}
			if got := r.Header.Get("Authorization"); got != "Bearer test_token" {
				t.Errorf("expected bearer auth header, got %q", got)
			}

			json.NewEncoder(w).Encode(map[string]any{
				"tracks": map[string]any{
					"items": []map[string]any{
						{"id": "track123", "name": "Bohemian Rhapsody"},
					},
				},
			})
		}))

		id, found, err := srv.SearchTrack(context.Background(), "Bohemian Rhapsody artist:Queen")
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if !found {
			t.Error("expected track to be found")
		}
		if id != "track123" {
			t.Errorf("expected track123, got %s", id)
		}
		if gotQuery != "Bohemian Rhapsody artist:Queen" {
			t.Errorf("expected query to round-trip, got %q", gotQuery)
		}
	})

	t.Run("No Results", func(t *testing.T) {
		srv := newTestSpotifyService(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			json.NewEncoder(w).Encode(map[string]any{
				"tracks": map[string]any{"items": []any{}},
			})
		}))

		id, found, err := srv.SearchTrack(context.Background(), "does not exist")
		if err != nil {
			t.Fatalf("expected no error for empty results, got %v", err)
		}
		if found {
			t.Error("expected found to be false")
		}
		if id != "" {
			t.Errorf("expected empty id, got %s", id)
		}
	})

	t.Run("Token Expired", func(t *testing.T) {
		srv := newTestSpotifyService(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusUnauthorized)
			json.NewEncoder(w).Encode(map[string]any{
				"error": map[string]any{"status": 401, "message": "The access token expired"},
			})
		}))

		_, _, err := srv.SearchTrack(context.Background(), "anything")
		if !errors.Is(err, shared.ErrTokenExpired) {
			t.Errorf("expected ErrTokenExpired, got %v", err)
		}
		if !strings.Contains(err.Error(), "The access token expired") {
			t.Errorf("expected API message in error, got %v", err)
		}
	})

	t.Run("Rate Limited", func(t *testing.T) {
		srv := newTestSpotifyService(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusTooManyRequests)
			json.NewEncoder(w).Encode(map[string]any{
				"error": map[string]any{"status": 429, "message": "API rate limit exceeded"},
			})
		}))

		_, _, err := srv.SearchTrack(context.Background(), "anything")
		if !errors.Is(err, shared.ErrRateLimited) {
			t.Errorf("expected ErrRateLimited, got %v", err)
		}
	})

	t.Run("Not Authenticated", func(t *testing.T) {
		srv, err := NewSpotifyService(map[string]string{
			"client_id":     "test_client_id",
			"client_secret": "test_client_secret",
		})
		if err != nil {
			t.Fatalf("failed to create service: %v", err)
		}

		_, _, err = srv.SearchTrack(context.Background(), "anything")
		if !errors.Is(err, shared.ErrNotAuthenticated) {
			t.Errorf("expected ErrNotAuthenticated, got %v", err)
		}
	})
}

func TestSpotifyCreatePlaylist(t *testing.T) {
	meCalls := 0

	mux := http.NewServeMux()
	mux.HandleFunc("/me", func(w http.ResponseWriter, r *http.Request) {
		meCalls++
		json.NewEncoder(w).Encode(map[string]any{"id": "user123", "display_name": "Test User"})
	})
	mux.HandleFunc("/users/user123/playlists", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("expected POST, got %s", r.Method)
		}

		var body struct {
			Name        string `json:"name"`
			Description string `json:"description"`
			Public      bool   `json:"public"`
		}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			t.Fatalf("failed to decode create body: %v", err)
		}

		if body.Name != "My Mix" {
			t.Errorf("expected name 'My Mix', got %s", body.Name)
		}
		if body.Description != "from youtube" {
			t.Errorf("expected description 'from youtube', got %s", body.Description)
		}
		if body.Public {
			t.Error("expected playlist to be created private")
		}

		json.NewEncoder(w).Encode(map[string]any{
			"id":   "pl42",
			"name": body.Name,
			"external_urls": map[string]string{
				"spotify": "https://open.spotify.com/playlist/pl42",
			},
		})
	})

	srv := newTestSpotifyService(t, mux)

	playlist, err := srv.CreatePlaylist(context.Background(), "My Mix", "from youtube", false)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	if playlist.ID != "pl42" {
		t.Errorf("expected playlist ID pl42, got %s", playlist.ID)
	}
	if playlist.URL != "https://open.spotify.com/playlist/pl42" {
		t.Errorf("unexpected playlist URL: %s", playlist.URL)
	}
	if playlist.Public {
		t.Error("expected private playlist")
	}
	if playlist.Name != "My Mix" || playlist.Description != "from youtube" {
		t.Errorf("expected requested name/description to be preserved, got %q / %q", playlist.Name, playlist.Description)
	}

	// A second create reuses the cached user ID.
	if _, err := srv.CreatePlaylist(context.Background(), "Another", "", false); err != nil {
		t.Fatalf("expected no error on second create, got %v", err)
	}
	if meCalls != 1 {
		t.Errorf("expected /me to be called once, got %d", meCalls)
	}
}

func TestSpotifyAddTracks(t *testing.T) {
	t.Run("Sends Track URIs", func(t *testing.T) {
		var gotURIs []string
		srv := newTestSpotifyService(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.URL.Path != "/playlists/pl42/tracks" {
				t.Errorf("expected /playlists/pl42/tracks, got %s", r.URL.Path)
			}

			var body struct {
				URIs []string `json:"uris"`
			}
			if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
				t.Fatalf("failed to decode body: %v", err)
			}
			gotURIs = body.URIs

			w.WriteHeader(http.StatusCreated)
			json.NewEncoder(w).Encode(map[string]string{"snapshot_id": "snap1"})
		}))

		err := srv.AddTracks(context.Background(), "pl42", []string{"aaa", "bbb"})
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}

		want := []string{"spotify:track:aaa", "spotify:track:bbb"}
		if len(gotURIs) != len(want) {
			t.Fatalf("expected %d uris, got %d", len(want), len(gotURIs))
		}
		for i := range want {
			if gotURIs[i] != want[i] {
				t.Errorf("uri %d: expected %s, got %s", i, want[i], gotURIs[i])
			}
		}
	})

	t.Run("Empty Is A No-Op", func(t *testing.T) {
		calls := 0
		srv := newTestSpotifyService(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			calls++
		}))

		if err := srv.AddTracks(context.Background(), "pl42", nil); err != nil {
			t.Fatalf("expected no error for empty track list, got %v", err)
		}
		if calls != 0 {
			t.Errorf("expected no request for empty track list, got %d", calls)
		}
	})

	t.Run("Rejects Oversized Batch", func(t *testing.T) {
		calls := 0
		srv := newTestSpotifyService(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			calls++
		}))

		ids := make([]string, spotifyMaxTracksPerAdd+1)
		for i := range ids {
			ids[i] = "id"
		}

		err := srv.AddTracks(context.Background(), "pl42", ids)
		if !errors.Is(err, shared.ErrInvalidArgument) {
			t.Errorf("expected ErrInvalidArgument, got %v", err)
		}
		if calls != 0 {
			t.Errorf("expected no request for oversized batch, got %d", calls)
		}
	})
}

func TestSpotifyGetPlaylists(t *testing.T) {
	srv := newTestSpotifyService(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/me/playlists" {
			t.Errorf("expected /me/playlists, got %s", r.URL.Path)
		}

		switch r.URL.Query().Get("offset") {
		case "0":
			json.NewEncoder(w).Encode(map[string]any{
				"items": []map[string]any{
					{
						"id":            "pl1",
						"name":          "First",
						"public":        true,
						"tracks":        map[string]int{"total": 12},
						"external_urls": map[string]string{"spotify": "https://open.spotify.com/playlist/pl1"},
					},
					{
						"id":     "pl2",
						"name":   "Second",
						"tracks": map[string]int{"total": 3},
					},
				},
				"next": "https://api.spotify.com/v1/me/playlists?offset=50&limit=50",
			})
		case "50":
			json.NewEncoder(w).Encode(map[string]any{
				"items": []map[string]any{
					{"id": "pl3", "name": "Third", "tracks": map[string]int{"total": 7}},
				},
				"next": nil,
			})
		default:
			t.Errorf("unexpected offset %s", r.URL.Query().Get("offset"))
		}
	}))

	playlists, err := srv.GetPlaylists(context.Background())
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	if len(playlists) != 3 {
		t.Fatalf("expected 3 playlists across pages, got %d", len(playlists))
	}

	if playlists[0].ID != "pl1" || playlists[1].ID != "pl2" || playlists[2].ID != "pl3" {
		t.Errorf("expected page order preserved, got %s %s %s", playlists[0].ID, playlists[1].ID, playlists[2].ID)
	}

	if playlists[0].TrackCount != 12 {
		t.Errorf("expected track count 12, got %d", playlists[0].TrackCount)
	}

	// Playlists without external_urls fall back to the canonical open.spotify.com link.
	if playlists[1].URL != "https://open.spotify.com/playlist/pl2" {
		t.Errorf("expected fallback URL, got %s", playlists[1].URL)
	}
}

// mockTokenSource implements [oauth2.TokenSource] for testing
type mockTokenSource struct {
	token *oauth2.Token
	err   error
}

func (m *mockTokenSource) Token() (*oauth2.Token, error) {
	return m.token, m.err
}
