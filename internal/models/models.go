package models

import (
	"strings"
	"time"
)

// UnknownAlbum is the sentinel recorded when the source catalog reports no album.
const UnknownAlbum = "Unknown"

// Track represents one song as read from the source catalog.
//
// Values are set at construction and treated as read-only afterwards.
type Track struct {
	ID       string // catalog-specific identifier, may be empty
	Title    string
	Artists  []string // ordered, may be empty
	Album    string
	Duration int    // seconds, 0 when the catalog does not report one
	ISRC     string // International Standard Recording Code, may be empty
}

// NewTrack builds a Track, substituting defaults for missing metadata:
// an empty album becomes [UnknownAlbum] and a negative duration becomes 0.
func NewTrack(title string, artists []string, album string, duration int) Track {
	if album == "" {
		album = UnknownAlbum
	}
	if duration < 0 {
		duration = 0
	}
	return Track{Title: title, Artists: artists, Album: album, Duration: duration}
}

// PrimaryArtist returns the first credited artist, or "" when none are known.
func (t Track) PrimaryArtist() string {
	if len(t.Artists) == 0 {
		return ""
	}
	return t.Artists[0]
}

// ArtistLine returns all credited artists joined for display and storage.
func (t Track) ArtistLine() string {
	return strings.Join(t.Artists, ", ")
}

// SourcePlaylist represents the playlist fetched from the source catalog.
//
// Track order matches the source platform ordering and is preserved through
// resolution. The playlist is built once per conversion run and never mutated.
type SourcePlaylist struct {
	ID          string
	Name        string
	Description string
	ArtworkURL  string // largest thumbnail reported by the source, may be empty
	Tracks      []Track
}

// Playlist represents playlist metadata from either catalog.
//
// For playlists created on the destination, URL carries the shareable link.
type Playlist struct {
	ID          string
	Name        string
	Description string
	TrackCount  int
	Public      bool
	URL         string
}

// ConversionResult aggregates the outcome of one conversion run.
//
// Every source track is accounted for exactly once: either it contributed a
// resolved identifier or it appears in Unresolved. ResolvedTracks plus
// len(Unresolved) always equals TotalTracks.
type ConversionResult struct {
	PlaylistURL    string
	Unresolved     []Track // resolution-attempt order
	TotalTracks    int
	ResolvedTracks int
}

// SuccessRate returns the percentage of source tracks that resolved,
// 0 when the playlist had no tracks.
func (r *ConversionResult) SuccessRate() float64 {
	if r.TotalTracks == 0 {
		return 0
	}
	return float64(r.ResolvedTracks) / float64(r.TotalTracks) * 100
}

// Model defines the base interface for all persistent entities.
type Model interface {
	ID() string           // ID returns the unique identifier for this model
	CreatedAt() time.Time // CreatedAt returns when this model was created
	UpdatedAt() time.Time // UpdatedAt returns when this model was last updated
	Validate() error      // Validate checks if the model's data is valid and returns an error if not
}

// Repository defines the interface for data access operations.
// Implementations handle database interactions for specific model types.
type Repository[T Model] interface {
	Create(model T) error                      // Create inserts a new model into the database
	Get(id string) (T, error)                  // Get retrieves a model by its ID
	Update(model T) error                      // Update modifies an existing model in the database
	Delete(id string) error                    // Delete removes a model from the database by its ID
	List(criteria map[string]any) ([]T, error) // List retrieves all models matching the given criteria
}
