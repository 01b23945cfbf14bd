package converter

import (
	"fmt"

	"github.com/tunebridge/tunebridge/internal/models"
)

// Phase identifies the pipeline stage a progress update belongs to.
type Phase int

const (
	// FetchSource covers retrieving the playlist from the source catalog.
	FetchSource Phase = iota
	// ResolveTracks covers matching tracks against the destination catalog.
	ResolveTracks
	// CreatePlaylist covers creating the destination playlist.
	CreatePlaylist
	// AttachTracks covers adding resolved tracks in batches.
	AttachTracks
	// Complete marks the end of a successful conversion.
	Complete
)

func (p Phase) String() string {
	switch p {
	case FetchSource:
		return "fetch_source"
	case ResolveTracks:
		return "resolve_tracks"
	case CreatePlaylist:
		return "create_playlist"
	case AttachTracks:
		return "attach_tracks"
	case Complete:
		return "complete"
	default:
		return "unknown"
	}
}

// ProgressUpdate is a single status message from a running conversion. Data
// carries phase-specific payloads for consumers that want more than text.
type ProgressUpdate struct {
	Phase   Phase
	Step    int
	Total   int
	Message string
	Data    any
}

func fetchingSourceUpdate(step, total int) ProgressUpdate {
	return ProgressUpdate{
		Phase:   FetchSource,
		Step:    step,
		Total:   total,
		Message: "Fetching playlist from YouTube Music...",
	}
}

func foundPlaylistUpdate(step, total int, playlist *models.SourcePlaylist) ProgressUpdate {
	name := playlist.Name
	if name == "" {
		name = playlist.ID
	}

	return ProgressUpdate{
		Phase:   FetchSource,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("Found playlist: %s (%d tracks)", name, len(playlist.Tracks)),
		Data:    playlist,
	}
}

func resolvingTracksUpdate(step, total int, track *models.Track) ProgressUpdate {
	message := "Searching for tracks on Spotify..."
	if track != nil {
		message = fmt.Sprintf("[%d/%d] %s - %s", step, total, track.ArtistLine(), track.Title)
	}

	return ProgressUpdate{
		Phase:   ResolveTracks,
		Step:    step,
		Total:   total,
		Message: message,
	}
}

func createDestinationUpdate(step, total int) ProgressUpdate {
	return ProgressUpdate{
		Phase:   CreatePlaylist,
		Step:    step,
		Total:   total,
		Message: "Creating playlist on Spotify...",
	}
}

func attachTracksUpdate(step, total, count int) ProgressUpdate {
	return ProgressUpdate{
		Phase:   AttachTracks,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("[%d/%d] Adding %d tracks...", step, total, count),
	}
}

func conversionDoneUpdate(result *models.ConversionResult, playlist *models.Playlist) ProgressUpdate {
	return ProgressUpdate{
		Phase:   Complete,
		Step:    1,
		Total:   1,
		Message: fmt.Sprintf("Playlist created: %s (ID: %s)", playlist.Name, playlist.ID),
		Data:    result,
	}
}
