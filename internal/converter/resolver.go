package converter

import (
	"context"
	"fmt"
	"time"

	"github.com/charmbracelet/log"
	"github.com/tunebridge/tunebridge/internal/models"
	"github.com/tunebridge/tunebridge/internal/shared"
)

const defaultSearchTimeout = 10 * time.Second

// ResolutionStatus describes the outcome of matching one track against the
// destination catalog.
type ResolutionStatus int

const (
	// StatusFound means the search produced a destination track ID.
	StatusFound ResolutionStatus = iota
	// StatusNotFound means the search completed with no results.
	StatusNotFound
	// StatusFailed means the search itself errored; the track is reported
	// as unresolved but the run continues.
	StatusFailed
)

func (s ResolutionStatus) String() string {
	switch s {
	case StatusFound:
		return "found"
	case StatusNotFound:
		return "not_found"
	case StatusFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// Resolution pairs a source track with its match outcome.
type Resolution struct {
	Track  models.Track
	Status ResolutionStatus
	ID     string // destination track ID when Status is StatusFound
	Err    error  // populated when Status is StatusFailed
}

// ResolutionStore caches track resolutions across runs. Implementations
// swallow their own storage errors; a cache failure must never fail a lookup.
type ResolutionStore interface {
	Lookup(ctx context.Context, key string) (id string, ok bool)
	Store(ctx context.Context, key string, track models.Track, id string)
}

// Resolver matches individual source tracks against the destination catalog,
// consulting the optional cache first.
type Resolver struct {
	destination DestinationClient
	cache       ResolutionStore
	timeout     time.Duration
	logger      *log.Logger
}

// ResolverOpts configures optional Resolver collaborators.
type ResolverOpts struct {
	Cache   ResolutionStore
	Timeout time.Duration
	Logger  *log.Logger
}

// NewResolver creates a Resolver for the given destination catalog.
func NewResolver(destination DestinationClient, opts ResolverOpts) *Resolver {
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = defaultSearchTimeout
	}

	logger := opts.Logger
	if logger == nil {
		logger = shared.NewLogger(nil)
	}

	return &Resolver{
		destination: destination,
		cache:       opts.Cache,
		timeout:     timeout,
		logger:      logger,
	}
}

// BuildQuery produces the destination search query for a track. The primary
// artist is scoped with the artist: field filter when present.
func BuildQuery(track models.Track) string {
	artist := track.PrimaryArtist()
	if artist == "" {
		return track.Title
	}
	return fmt.Sprintf("%s artist:%s", track.Title, artist)
}

// Resolve matches one track. Search failures degrade to StatusFailed rather
// than propagating, so a flaky catalog only costs the affected tracks.
func (r *Resolver) Resolve(ctx context.Context, track models.Track) Resolution {
	key := shared.NormalizeTrackKey(track.Title, track.PrimaryArtist())

	if r.cache != nil {
		if id, ok := r.cache.Lookup(ctx, key); ok {
			r.logger.Debug("resolution cache hit", "key", key, "id", id)
			return Resolution{Track: track, Status: StatusFound, ID: id}
		}
	}

	searchCtx := ctx
	if r.timeout > 0 {
		var cancel context.CancelFunc
		searchCtx, cancel = context.WithTimeout(ctx, r.timeout)
		defer cancel()
	}

	id, found, err := r.destination.SearchTrack(searchCtx, BuildQuery(track))
	if err != nil {
		r.logger.Warn("track search failed", "title", track.Title, "error", err)
		return Resolution{Track: track, Status: StatusFailed, Err: err}
	}

	if !found {
		r.logger.Info("track not found", "title", track.Title, "artist", track.PrimaryArtist())
		return Resolution{Track: track, Status: StatusNotFound}
	}

	if r.cache != nil {
		r.cache.Store(ctx, key, track, id)
	}

	return Resolution{Track: track, Status: StatusFound, ID: id}
}
