package ui

import (
	"github.com/tunebridge/tunebridge/internal/converter"
	"github.com/tunebridge/tunebridge/internal/models"
)

// playlistsFetchedMsg carries the source library listing, or the error that
// prevented fetching it.
type playlistsFetchedMsg struct {
	playlists []models.Playlist
	err       error
}

// tracksFetchedMsg carries one source playlist with its full track listing.
type tracksFetchedMsg struct {
	playlist *models.SourcePlaylist
	err      error
}

// progressUpdateMsg relays one converter progress update into the Elm loop.
type progressUpdateMsg converter.ProgressUpdate

// conversionCompleteMsg carries the final outcome. Both fields can be set at
// once when a run fails after the destination playlist was created.
type conversionCompleteMsg struct {
	result *models.ConversionResult
	err    error
}
