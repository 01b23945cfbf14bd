// Package services implements the catalog clients the converter consumes: Spotify as the destination and YouTube Music as the source.
//
// # Catalog Roles
//
// The two catalogs play fixed, asymmetric roles. [SourceCatalog] enumerates
// playlists and tracks to convert from; [DestinationCatalog] searches its own
// index and receives the converted playlist.
//
// # Spotify Implementation
//
// [SpotifyService] uses OAuth2 for authentication with automatic token refresh.
//
// The [oauth2.Config] client refreshes expired tokens using the refresh token;
// a refresh callback lets the CLI persist new tokens back into the config file.
//
// # YouTube Music Implementation
//
// [YTMusicService] communicates with the FastAPI proxy server wrapping ytmusicapi.
//
// The proxy handles YouTube Music authentication complexities.
// The auth_file path is sent via X-Auth-File header on each request; public
// playlists need no auth at all.
// All YouTube Music operations are synchronous HTTP calls to the proxy endpoints.
//
// # Error Handling
//
// Services use typed errors from the shared package:
//   - [shared.ErrNotAuthenticated] : Authenticate() not called
//   - [shared.ErrTokenExpired] : OAuth token expired, reauthorization needed
//   - [shared.ErrRateLimited] : the catalog returned HTTP 429
//   - [shared.ErrAPIRequest] : HTTP request failed
//   - [shared.ErrPlaylistNotFound] : playlist ID not found
//
// # API Mappings
//
// Both services convert provider-specific JSON responses to models types:
//   - Spotify: [SpotifyTrack] → [models.Track] with ISRC from external_ids
//   - YouTube Music: proxy track objects → [models.Track] with all credited artists
package services
