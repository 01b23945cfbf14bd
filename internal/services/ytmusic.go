// YouTube Music implementation of [SourceCatalog]
//
// Communicates with the FastAPI proxy server (music/) running on port 8080.
// The proxy wraps the ytmusicapi Python library for YouTube Music operations.
package services

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"

	"github.com/tunebridge/tunebridge/internal/models"
	"github.com/tunebridge/tunebridge/internal/shared"
)

const defaultProxyURL string = "http://127.0.0.1:8080"

// YTMusicImage represents an image/thumbnail from YouTube Music.
type YTMusicImage struct {
	URL    string `json:"url"`
	Width  int    `json:"width"`
	Height int    `json:"height"`
}

// YTMusicArtist represents one credited artist on a track.
type YTMusicArtist struct {
	Name string `json:"name"`
	ID   string `json:"id"`
}

type ytMusicAlbum struct {
	Name string `json:"name"`
	ID   string `json:"id"`
}

// YTMusicTrack represents a track entry in proxy playlist responses.
// Deleted or region-blocked entries arrive as JSON nulls and decode to the
// zero value.
type YTMusicTrack struct {
	VideoID     string          `json:"videoId"`
	Title       string          `json:"title"`
	Artists     []YTMusicArtist `json:"artists"`
	Album       *ytMusicAlbum   `json:"album"`
	Duration    string          `json:"duration"`
	DurationSec int             `json:"duration_seconds"` // Duration in seconds
	Thumbnails  []YTMusicImage  `json:"thumbnails"`
	ISRC        string          `json:"isrc,omitempty"`
	SetVideoID  string          `json:"setVideoId,omitempty"` // For playlist operations
}

// YTMusicPlaylist represents a playlist detail response from the proxy.
type YTMusicPlaylist struct {
	ID          string         `json:"id"`
	Title       string         `json:"title"`
	Description string         `json:"description"`
	Privacy     string         `json:"privacy"`
	Thumbnails  []YTMusicImage `json:"thumbnails"`
	TrackCount  int            `json:"trackCount"`
	Tracks      []YTMusicTrack `json:"tracks,omitempty"`
}

// YTMusicService implements [SourceCatalog] for YouTube Music via the proxy.
type YTMusicService struct {
	baseURL    string
	authFile   string
	httpClient *http.Client
}

// NewYTMusicService creates a new YouTube Music service instance.
func NewYTMusicService(baseURL string) *YTMusicService {
	if baseURL == "" {
		baseURL = defaultProxyURL
	}

	return &YTMusicService{
		baseURL:    baseURL,
		httpClient: http.DefaultClient,
	}
}

// Name returns the service name.
func (y *YTMusicService) Name() string {
	return "YouTube Music"
}

// Authenticate stores the auth file path sent to the proxy on subsequent
// requests. Public playlist reads work without it; library listing does not.
//
// Expects credentials["auth_file"] to contain the path to a browser.json
// produced by `tunebridge setup ytmusic`.
func (y *YTMusicService) Authenticate(ctx context.Context, credentials map[string]string) error {
	authFile, ok := credentials["auth_file"]
	if !ok || authFile == "" {
		return fmt.Errorf("%w: missing auth_file", shared.ErrMissingCredentials)
	}

	y.authFile = authFile
	return nil
}

func (y *YTMusicService) doRequest(ctx context.Context, method, endpoint string, result any) error {
	apiURL := y.baseURL + endpoint

	req, err := http.NewRequestWithContext(ctx, method, apiURL, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	if y.authFile != "" {
		req.Header.Set("X-Auth-File", y.authFile)
	}

	req.Header.Set("Accept", "application/json")

	resp, err := y.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: youtube music proxy unreachable: %v", shared.ErrServiceUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return y.statusError(resp)
	}

	if result != nil {
		if err := json.NewDecoder(resp.Body).Decode(result); err != nil {
			return fmt.Errorf("failed to decode response: %w", err)
		}
	}

	return nil
}

// statusError converts a non-2xx proxy response into a typed error.
// FastAPI reports failures as {"detail": "..."}.
func (y *YTMusicService) statusError(resp *http.Response) error {
	detail := fmt.Sprintf("status %d", resp.StatusCode)

	var errResp struct {
		Detail string `json:"detail"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&errResp); err == nil && errResp.Detail != "" {
		detail = fmt.Sprintf("status %d: %s", resp.StatusCode, errResp.Detail)
	}

	switch resp.StatusCode {
	case http.StatusUnauthorized, http.StatusForbidden:
		return fmt.Errorf("%w: %s", shared.ErrNotAuthenticated, detail)
	case http.StatusNotFound:
		return fmt.Errorf("%w: %s", shared.ErrPlaylistNotFound, detail)
	case http.StatusTooManyRequests:
		return fmt.Errorf("%w: %s", shared.ErrRateLimited, detail)
	}

	return fmt.Errorf("%w: youtube music %s", shared.ErrAPIRequest, detail)
}

// FetchPlaylist retrieves a playlist with its full track listing.
//
// Calls GET /api/playlists/{id} on the proxy. Null track entries (deleted
// or unavailable videos) are dropped so downstream counts cover only tracks
// that can be resolved.
func (y *YTMusicService) FetchPlaylist(ctx context.Context, playlistID string) (*models.SourcePlaylist, error) {
	if playlistID == "" {
		return nil, fmt.Errorf("%w: playlist id is empty", shared.ErrInvalidArgument)
	}

	var ytPlaylist YTMusicPlaylist

	endpoint := fmt.Sprintf("/api/playlists/%s", url.PathEscape(playlistID))
	if err := y.doRequest(ctx, http.MethodGet, endpoint, &ytPlaylist); err != nil {
		return nil, err
	}

	playlist := &models.SourcePlaylist{
		ID:          ytPlaylist.ID,
		Name:        ytPlaylist.Title,
		Description: ytPlaylist.Description,
		ArtworkURL:  largestThumbnail(ytPlaylist.Thumbnails),
		Tracks:      make([]models.Track, 0, len(ytPlaylist.Tracks)),
	}
	if playlist.ID == "" {
		playlist.ID = playlistID
	}

	for _, ytt := range ytPlaylist.Tracks {
		if ytt.VideoID == "" && ytt.Title == "" {
			continue
		}

		track := models.NewTrack(ytt.Title, artistNames(ytt.Artists), albumName(ytt.Album), ytt.DurationSec)
		track.ID = ytt.VideoID
		track.ISRC = ytt.ISRC
		playlist.Tracks = append(playlist.Tracks, track)
	}

	return playlist, nil
}

// GetPlaylists retrieves all playlists in the authenticated user's library.
//
// Calls GET /api/library/playlists on the proxy.
func (y *YTMusicService) GetPlaylists(ctx context.Context) ([]models.Playlist, error) {
	var ytPlaylists []struct {
		PlaylistID  string         `json:"playlistId"`
		Title       string         `json:"title"`
		Description string         `json:"description"`
		Privacy     string         `json:"privacy"`
		Count       int            `json:"count"`
		Thumbnails  []YTMusicImage `json:"thumbnails"`
	}

	if err := y.doRequest(ctx, http.MethodGet, "/api/library/playlists", &ytPlaylists); err != nil {
		return nil, err
	}

	playlists := make([]models.Playlist, len(ytPlaylists))
	for i, ytp := range ytPlaylists {
		playlists[i] = models.Playlist{
			ID:          ytp.PlaylistID,
			Name:        ytp.Title,
			Description: ytp.Description,
			TrackCount:  ytp.Count,
			Public:      ytp.Privacy == "PUBLIC",
			URL:         ytMusicPlaylistURL(ytp.PlaylistID),
		}
	}

	return playlists, nil
}

// Ping verifies the proxy is reachable.
//
// Calls GET /health on the proxy.
func (y *YTMusicService) Ping(ctx context.Context) error {
	return y.doRequest(ctx, http.MethodGet, "/health", nil)
}

func artistNames(artists []YTMusicArtist) []string {
	names := make([]string, 0, len(artists))
	for _, artist := range artists {
		if artist.Name != "" {
			names = append(names, artist.Name)
		}
	}

	return names
}

func albumName(album *ytMusicAlbum) string {
	if album == nil {
		return ""
	}

	return album.Name
}

// largestThumbnail picks the highest-resolution thumbnail URL. The proxy
// reports sizes in ascending order but that is not guaranteed.
func largestThumbnail(thumbs []YTMusicImage) string {
	best := ""
	bestArea := -1
	for _, thumb := range thumbs {
		if thumb.URL == "" {
			continue
		}
		if area := thumb.Width * thumb.Height; area > bestArea {
			best = thumb.URL
			bestArea = area
		}
	}

	return best
}

func ytMusicPlaylistURL(id string) string {
	return "https://music.youtube.com/playlist?list=" + id
}
