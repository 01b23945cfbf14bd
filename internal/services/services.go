// package services defines the catalog interfaces for converting playlists
//
// YouTube Music (via proxy) is the source, Spotify the destination
package services

import (
	"context"

	"github.com/tunebridge/tunebridge/internal/models"
	"golang.org/x/oauth2"
)

// SourceCatalog is the read side of a conversion: the platform the playlist
// and its track metadata are fetched from.
type SourceCatalog interface {
	// FetchPlaylist retrieves a playlist with its full track listing.
	// The playlistID is the catalog's own identifier, already extracted
	// from any share URL by the caller.
	FetchPlaylist(ctx context.Context, playlistID string) (*models.SourcePlaylist, error)

	// GetPlaylists retrieves the authenticated user's library playlists.
	GetPlaylists(ctx context.Context) ([]models.Playlist, error)

	// Name returns the catalog name (e.g., "YouTube Music")
	Name() string
}

// DestinationCatalog is the write side of a conversion: the platform the new
// playlist is created and populated on.
type DestinationCatalog interface {
	// Authenticate prepares the client for API calls.
	// Returns an error if credentials are missing or rejected.
	Authenticate(ctx context.Context, credentials map[string]string) error

	// SearchTrack runs a single-result search. found is false when the
	// catalog has no candidate; err is reserved for transport and API
	// failures and is never set for an empty result.
	SearchTrack(ctx context.Context, query string) (id string, found bool, err error)

	// CreatePlaylist creates an empty playlist and returns its metadata,
	// including the shareable URL.
	CreatePlaylist(ctx context.Context, name, description string, public bool) (*models.Playlist, error)

	// AddTracks attaches tracks to a playlist in one wire call.
	// Callers own batching; the catalog caps a single call at its
	// per-request limit.
	AddTracks(ctx context.Context, playlistID string, trackIDs []string) error

	// GetPlaylists retrieves the authenticated user's playlists.
	GetPlaylists(ctx context.Context) ([]models.Playlist, error)

	// Name returns the catalog name (e.g., "Spotify")
	Name() string
}

// OAuthCatalog extends a catalog with the OAuth2 authorization-code flow.
// The auth command asserts this capability before starting the local
// callback server.
type OAuthCatalog interface {
	// GetAuthURL builds the user-facing authorization URL carrying the
	// CSRF state token.
	GetAuthURL(state string) string

	// GetOAuthConfig exposes the OAuth2 configuration used by the
	// callback handler to exchange the authorization code.
	GetOAuthConfig() *oauth2.Config

	// OAuthenticate installs a previously obtained token.
	OAuthenticate(ctx context.Context, token *oauth2.Token) error
}
