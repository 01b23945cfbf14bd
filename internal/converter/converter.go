// package converter implements the YouTube Music → Spotify conversion pipeline.
//
// The core abstraction is Converter, which orchestrates fetching the source
// playlist, resolving tracks against the destination catalog, and creating the
// destination playlist. Operations emit progress updates via channels for
// non-blocking status reporting to CLI/UI layers.
package converter

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/tunebridge/tunebridge/internal/models"
	"github.com/tunebridge/tunebridge/internal/shared"
)

const (
	// Spotify rejects attach requests above 100 tracks, so larger batch
	// sizes are clamped rather than passed through.
	defaultBatchSize = 100

	fallbackPlaylistName = "Playlist from YouTube"
)

// SourceClient is the slice of the source catalog the converter consumes.
type SourceClient interface {
	// FetchPlaylist retrieves a playlist with its full track listing.
	FetchPlaylist(ctx context.Context, playlistID string) (*models.SourcePlaylist, error)
}

// DestinationClient is the slice of the destination catalog the converter
// consumes. AddTracks performs exactly one wire call per invocation; the
// converter owns batching, so a test double can count attach calls.
type DestinationClient interface {
	SearchTrack(ctx context.Context, query string) (id string, found bool, err error)
	CreatePlaylist(ctx context.Context, name, description string, public bool) (*models.Playlist, error)
	AddTracks(ctx context.Context, playlistID string, trackIDs []string) error
}

// Options configures a single conversion run.
type Options struct {
	Name        string  // Override for the destination playlist name
	Description string  // Override for the destination playlist description
	BatchSize   int     // Tracks per attach call (default and maximum 100)
	Workers     int     // Concurrent resolution workers; <= 1 resolves sequentially
	RateLimit   float64 // Search requests per second for the worker pool (default 5)
}

// ConverterOpts configures the shared collaborators of a Converter.
type ConverterOpts struct {
	Cache         ResolutionStore // optional cross-run resolution cache
	SearchTimeout time.Duration   // per-search timeout, default 10s
	Logger        *log.Logger
}

// Converter implements the conversion pipeline between two catalogs.
type Converter struct {
	source      SourceClient
	destination DestinationClient
	resolver    *Resolver
	logger      *log.Logger
}

// NewConverter creates a Converter with the provided catalog clients.
func NewConverter(source SourceClient, destination DestinationClient, opts ConverterOpts) *Converter {
	logger := opts.Logger
	if logger == nil {
		logger = shared.NewLogger(nil)
	}

	return &Converter{
		source:      source,
		destination: destination,
		resolver: NewResolver(destination, ResolverOpts{
			Cache:   opts.Cache,
			Timeout: opts.SearchTimeout,
			Logger:  logger,
		}),
		logger: logger,
	}
}

// sendProgress sends a progress update through the channel without blocking.
// Uses select with default to ensure progress reporting never blocks execution.
func (c *Converter) sendProgress(progress chan<- ProgressUpdate, update ProgressUpdate) {
	if progress == nil {
		return
	}
	select {
	case progress <- update:
		// Sent successfully
	default:
		// Channel full or closed, skip this update
	}
}

// ParseSourceURL extracts the playlist ID from a YouTube or YouTube Music
// share URL. Only https URLs on a YouTube host carrying a list parameter are
// accepted.
func ParseSourceURL(raw string) (string, error) {
	if strings.TrimSpace(raw) == "" {
		return "", fmt.Errorf("%w: URL is empty", shared.ErrInvalidPlaylistURL)
	}

	parsed, err := url.Parse(raw)
	if err != nil {
		return "", fmt.Errorf("%w: %v", shared.ErrInvalidPlaylistURL, err)
	}

	if parsed.Scheme != "https" {
		return "", fmt.Errorf("%w: scheme must be https, got %q", shared.ErrInvalidPlaylistURL, parsed.Scheme)
	}

	if !isYouTubeHost(parsed.Host) {
		return "", fmt.Errorf("%w: %q is not a YouTube host", shared.ErrInvalidPlaylistURL, parsed.Host)
	}

	playlistID := parsed.Query().Get("list")
	if playlistID == "" {
		return "", fmt.Errorf("%w: missing list parameter", shared.ErrInvalidPlaylistURL)
	}

	return playlistID, nil
}

func isYouTubeHost(host string) bool {
	switch strings.ToLower(host) {
	case "music.youtube.com", "www.youtube.com", "youtube.com", "m.youtube.com", "youtu.be":
		return true
	}
	return false
}

// Convert runs the full pipeline: validate the URL, fetch the source playlist,
// resolve every track, create the destination playlist, and attach the
// resolved tracks in batches.
//
// Individual track failures never abort the run; they accumulate in the
// result's unresolved list. A failed attach batch returns the partial result
// alongside the error, since earlier batches stay attached.
func (c *Converter) Convert(ctx context.Context, playlistURL string, opts Options, progress chan<- ProgressUpdate) (*models.ConversionResult, error) {
	if c.source == nil {
		return nil, fmt.Errorf("%w: source catalog not initialized", shared.ErrServiceUnavailable)
	}
	if c.destination == nil {
		return nil, fmt.Errorf("%w: destination catalog not initialized", shared.ErrServiceUnavailable)
	}

	playlistID, err := ParseSourceURL(playlistURL)
	if err != nil {
		return nil, err
	}

	c.sendProgress(progress, fetchingSourceUpdate(1, 1))
	c.logger.Info("fetching source playlist", "id", playlistID)

	playlist, err := c.source.FetchPlaylist(ctx, playlistID)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch source playlist: %w", err)
	}

	total := len(playlist.Tracks)
	if total == 0 {
		return nil, fmt.Errorf("%w: %s", shared.ErrEmptyPlaylist, playlistID)
	}

	c.sendProgress(progress, foundPlaylistUpdate(1, 1, playlist))
	c.logger.Info("found source playlist", "name", playlist.Name, "tracks", total)

	resolutions := c.resolveTracks(ctx, playlist.Tracks, opts, progress)

	trackIDs := make([]string, 0, total)
	unresolved := make([]models.Track, 0)
	for _, res := range resolutions {
		if res.Status == StatusFound {
			trackIDs = append(trackIDs, res.ID)
		} else {
			unresolved = append(unresolved, res.Track)
		}
	}

	if len(trackIDs) == 0 {
		return nil, fmt.Errorf("%w: searched %d tracks", shared.ErrNoMatches, total)
	}

	name := finalName(opts.Name, playlist.Name)
	description := finalDescription(opts.Description, playlist.Description, len(unresolved))

	c.sendProgress(progress, createDestinationUpdate(1, 1))
	c.logger.Info("creating destination playlist", "name", name)

	created, err := c.destination.CreatePlaylist(ctx, name, description, false)
	if err != nil {
		return nil, fmt.Errorf("%w: create playlist: %v", shared.ErrDestinationWrite, err)
	}

	result := &models.ConversionResult{
		PlaylistURL:    created.URL,
		Unresolved:     unresolved,
		TotalTracks:    total,
		ResolvedTracks: len(trackIDs),
	}

	batchSize := opts.BatchSize
	if batchSize <= 0 || batchSize > defaultBatchSize {
		batchSize = defaultBatchSize
	}

	batches := (len(trackIDs) + batchSize - 1) / batchSize
	for i := 0; i < len(trackIDs); i += batchSize {
		end := i + batchSize
		if end > len(trackIDs) {
			end = len(trackIDs)
		}

		batch := i/batchSize + 1
		c.sendProgress(progress, attachTracksUpdate(batch, batches, end-i))

		if err := c.destination.AddTracks(ctx, created.ID, trackIDs[i:end]); err != nil {
			// Earlier batches are already attached; the playlist exists partially filled.
			return result, fmt.Errorf("%w: attach batch %d/%d: %v", shared.ErrDestinationWrite, batch, batches, err)
		}
	}

	c.sendProgress(progress, conversionDoneUpdate(result, created))
	c.logger.Info("conversion completed",
		"resolved", result.ResolvedTracks,
		"total", result.TotalTracks,
		"rate", fmt.Sprintf("%.1f%%", result.SuccessRate()))

	return result, nil
}

// resolveTracks resolves every track, sequentially by default and through the
// worker pool when Options.Workers asks for more than one.
func (c *Converter) resolveTracks(ctx context.Context, tracks []models.Track, opts Options, progress chan<- ProgressUpdate) []Resolution {
	if opts.Workers > 1 {
		return c.resolveParallel(ctx, tracks, opts, progress)
	}
	return c.resolveSequential(ctx, tracks, progress)
}

func (c *Converter) resolveSequential(ctx context.Context, tracks []models.Track, progress chan<- ProgressUpdate) []Resolution {
	total := len(tracks)
	c.sendProgress(progress, resolvingTracksUpdate(0, total, nil))

	resolutions := make([]Resolution, total)
	for i, track := range tracks {
		c.sendProgress(progress, resolvingTracksUpdate(i+1, total, &track))
		resolutions[i] = c.resolver.Resolve(ctx, track)
	}

	return resolutions
}

// finalName applies the name precedence: override, then the source playlist's
// own name, then the fallback constant.
func finalName(override, source string) string {
	switch {
	case override != "":
		return override
	case source != "":
		return source
	default:
		return fallbackPlaylistName
	}
}

// finalDescription applies the same precedence per field; the fallback states
// how many tracks could not be found.
func finalDescription(override, source string, unresolved int) string {
	switch {
	case override != "":
		return override
	case source != "":
		return source
	default:
		return fmt.Sprintf("Playlist converted from YouTube. %d songs not found.", unresolved)
	}
}
