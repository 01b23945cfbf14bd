package models

import (
	"fmt"
	"time"
)

// base carries the lifecycle fields shared by every persistent entity.
type base struct {
	id        string
	sequence  int
	createdAt time.Time
	updatedAt time.Time
	deletedAt *time.Time
}

func newBase(sequence int) base {
	now := time.Now()
	return base{sequence: sequence, createdAt: now, updatedAt: now}
}

// ID returns the unique identifier for this model
func (b *base) ID() string { return b.id }

// SetID assigns the identifier, normally a UUID generated at insert time
func (b *base) SetID(id string) { b.id = id }

// Sequence returns the human-readable ordering number
func (b *base) Sequence() int { return b.sequence }

// CreatedAt returns when this model was created
func (b *base) CreatedAt() time.Time { return b.createdAt }

// UpdatedAt returns when this model was last updated
func (b *base) UpdatedAt() time.Time { return b.updatedAt }

// SetUpdatedAt overwrites the last-updated timestamp
func (b *base) SetUpdatedAt(t time.Time) { b.updatedAt = t }

// DeletedAt returns the soft-delete timestamp, nil for live rows
func (b *base) DeletedAt() *time.Time { return b.deletedAt }

// SetDeletedAt marks the row soft-deleted
func (b *base) SetDeletedAt(t *time.Time) { b.deletedAt = t }

// CachedResolution is a persisted search resolution: a normalized
// title/artist key mapped to the destination-catalog track identifier it
// resolved to. Rows are written after a successful search and consulted
// before the next one.
type CachedResolution struct {
	base
	key       string
	title     string
	artist    string
	spotifyID string
	hits      int
}

// NewCachedResolution builds a resolution row for the given track and
// destination identifier. Callers derive key from the track's title and
// primary artist with shared.NormalizeTrackKey so lookups and inserts agree.
func NewCachedResolution(sequence int, key, spotifyID string, track Track) *CachedResolution {
	return &CachedResolution{
		base:      newBase(sequence),
		key:       key,
		title:     track.Title,
		artist:    track.ArtistLine(),
		spotifyID: spotifyID,
	}
}

// Key returns the normalized title|artist lookup key
func (c *CachedResolution) Key() string { return c.key }

// SetKey overwrites the lookup key, used when scanning rows
func (c *CachedResolution) SetKey(key string) { c.key = key }

// Title returns the source track title as first seen
func (c *CachedResolution) Title() string { return c.title }

// Artist returns the credited artist line as first seen
func (c *CachedResolution) Artist() string { return c.artist }

// SpotifyID returns the resolved destination track identifier
func (c *CachedResolution) SpotifyID() string { return c.spotifyID }

// Hits returns how many lookups this row has served
func (c *CachedResolution) Hits() int { return c.hits }

// SetHits overwrites the served-lookup counter
func (c *CachedResolution) SetHits(n int) { c.hits = n }

// Validate checks that the row carries a usable key and identifier
func (c *CachedResolution) Validate() error {
	if c.key == "" {
		return fmt.Errorf("cached resolution requires a key")
	}
	if c.spotifyID == "" {
		return fmt.Errorf("cached resolution requires a track identifier")
	}
	return nil
}

// PlaylistSnapshot is a saved listing of a playlist from either catalog,
// kept so listings can be inspected offline and diffed between runs.
type PlaylistSnapshot struct {
	base
	service     string
	serviceID   string
	name        string
	description string
	trackCount  int
	public      bool
}

// NewPlaylistSnapshot builds a snapshot row from a playlist DTO.
func NewPlaylistSnapshot(sequence int, service string, playlist Playlist) *PlaylistSnapshot {
	return &PlaylistSnapshot{
		base:        newBase(sequence),
		service:     service,
		serviceID:   playlist.ID,
		name:        playlist.Name,
		description: playlist.Description,
		trackCount:  playlist.TrackCount,
		public:      playlist.Public,
	}
}

// Service returns the catalog the playlist belongs to
func (p *PlaylistSnapshot) Service() string { return p.service }

// ServiceID returns the playlist's catalog-specific identifier
func (p *PlaylistSnapshot) ServiceID() string { return p.serviceID }

// Name returns the playlist name at snapshot time
func (p *PlaylistSnapshot) Name() string { return p.name }

// Description returns the playlist description at snapshot time
func (p *PlaylistSnapshot) Description() string { return p.description }

// TrackCount returns the track total at snapshot time
func (p *PlaylistSnapshot) TrackCount() int { return p.trackCount }

// Public reports whether the playlist was publicly visible
func (p *PlaylistSnapshot) Public() bool { return p.public }

// Playlist rebuilds the DTO carried by this snapshot
func (p *PlaylistSnapshot) Playlist() Playlist {
	return Playlist{
		ID:          p.serviceID,
		Name:        p.name,
		Description: p.description,
		TrackCount:  p.trackCount,
		Public:      p.public,
	}
}

// Validate checks that the snapshot names its catalog and playlist
func (p *PlaylistSnapshot) Validate() error {
	if p.service == "" {
		return fmt.Errorf("playlist snapshot requires a service")
	}
	if p.serviceID == "" {
		return fmt.Errorf("playlist snapshot requires a service ID")
	}
	return nil
}

// Account is an authorized destination-catalog profile, recorded when an
// OAuth flow completes so `auth status` can show who the stored tokens
// belong to.
type Account struct {
	base
	service     string
	accountID   string
	displayName string
	email       string
	country     string
	product     string
	lastAuthAt  time.Time
}

// NewAccount builds an account row for an authorized profile.
func NewAccount(sequence int, service, accountID, displayName string) *Account {
	return &Account{
		base:        newBase(sequence),
		service:     service,
		accountID:   accountID,
		displayName: displayName,
		lastAuthAt:  time.Now(),
	}
}

// Service returns the catalog the account belongs to
func (a *Account) Service() string { return a.service }

// AccountID returns the profile's catalog-specific identifier
func (a *Account) AccountID() string { return a.accountID }

// DisplayName returns the profile display name
func (a *Account) DisplayName() string { return a.displayName }

// Email returns the profile email when the catalog shares it
func (a *Account) Email() string { return a.email }

// SetEmail records the profile email
func (a *Account) SetEmail(email string) { a.email = email }

// Country returns the profile country code when known
func (a *Account) Country() string { return a.country }

// SetCountry records the profile country code
func (a *Account) SetCountry(country string) { a.country = country }

// Product returns the subscription tier when known
func (a *Account) Product() string { return a.product }

// SetProduct records the subscription tier
func (a *Account) SetProduct(product string) { a.product = product }

// LastAuthAt returns when this account last completed authorization
func (a *Account) LastAuthAt() time.Time { return a.lastAuthAt }

// SetLastAuthAt records a completed authorization
func (a *Account) SetLastAuthAt(t time.Time) { a.lastAuthAt = t }

// Validate checks that the account names its catalog and profile
func (a *Account) Validate() error {
	if a.service == "" {
		return fmt.Errorf("account requires a service")
	}
	if a.accountID == "" {
		return fmt.Errorf("account requires an account ID")
	}
	return nil
}

// Conversion run statuses.
const (
	ConversionRunning   = "running"
	ConversionCompleted = "completed"
	ConversionFailed    = "failed"
)

// Conversion is the durable record of one convert run: which playlist was
// read, what got created, and how many tracks made it across.
type Conversion struct {
	base
	sourcePlaylistID string
	sourceName       string
	destPlaylistID   string
	destURL          string
	status           string
	tracksTotal      int
	tracksConverted  int
	tracksUnresolved int
	errorMessage     string
	startedAt        *time.Time
	completedAt      *time.Time
}

// NewConversion builds a running conversion row for the given source playlist.
func NewConversion(sequence int, sourcePlaylistID string) *Conversion {
	now := time.Now()
	return &Conversion{
		base:             newBase(sequence),
		sourcePlaylistID: sourcePlaylistID,
		status:           ConversionRunning,
		startedAt:        &now,
	}
}

// SourcePlaylistID returns the source playlist identifier
func (c *Conversion) SourcePlaylistID() string { return c.sourcePlaylistID }

// SourceName returns the source playlist name once known
func (c *Conversion) SourceName() string { return c.sourceName }

// SetSourceName records the source playlist name
func (c *Conversion) SetSourceName(name string) { c.sourceName = name }

// DestPlaylistID returns the created playlist identifier, empty until created
func (c *Conversion) DestPlaylistID() string { return c.destPlaylistID }

// SetDestPlaylistID records the created playlist identifier
func (c *Conversion) SetDestPlaylistID(id string) { c.destPlaylistID = id }

// DestURL returns the created playlist URL
func (c *Conversion) DestURL() string { return c.destURL }

// SetDestURL records the created playlist URL
func (c *Conversion) SetDestURL(url string) { c.destURL = url }

// Status returns the run status, one of the Conversion constants
func (c *Conversion) Status() string { return c.status }

// SetStatus overwrites the run status
func (c *Conversion) SetStatus(status string) { c.status = status }

// TracksTotal returns how many tracks the source playlist carried
func (c *Conversion) TracksTotal() int { return c.tracksTotal }

// SetTracksTotal records the source track count
func (c *Conversion) SetTracksTotal(n int) { c.tracksTotal = n }

// TracksConverted returns how many tracks were attached
func (c *Conversion) TracksConverted() int { return c.tracksConverted }

// SetTracksConverted records the attached track count
func (c *Conversion) SetTracksConverted(n int) { c.tracksConverted = n }

// TracksUnresolved returns how many tracks no match was found for
func (c *Conversion) TracksUnresolved() int { return c.tracksUnresolved }

// SetTracksUnresolved records the unmatched track count
func (c *Conversion) SetTracksUnresolved(n int) { c.tracksUnresolved = n }

// ErrorMessage returns the failure detail for failed runs
func (c *Conversion) ErrorMessage() string { return c.errorMessage }

// SetErrorMessage records the failure detail
func (c *Conversion) SetErrorMessage(message string) { c.errorMessage = message }

// StartedAt returns when the run began, nil when never started
func (c *Conversion) StartedAt() *time.Time { return c.startedAt }

// SetStartedAt records the run start
func (c *Conversion) SetStartedAt(t *time.Time) { c.startedAt = t }

// CompletedAt returns when the run finished, nil while running
func (c *Conversion) CompletedAt() *time.Time { return c.completedAt }

// SetCompletedAt records the run end
func (c *Conversion) SetCompletedAt(t *time.Time) { c.completedAt = t }

// Complete marks the run completed with its final counts.
func (c *Conversion) Complete(result *ConversionResult) {
	now := time.Now()
	c.status = ConversionCompleted
	c.destURL = result.PlaylistURL
	c.tracksTotal = result.TotalTracks
	c.tracksConverted = result.ResolvedTracks
	c.tracksUnresolved = len(result.Unresolved)
	c.completedAt = &now
}

// Fail marks the run failed with the error detail.
func (c *Conversion) Fail(err error) {
	now := time.Now()
	c.status = ConversionFailed
	if err != nil {
		c.errorMessage = err.Error()
	}
	c.completedAt = &now
}

// Validate checks that the run names its source playlist and a known status
func (c *Conversion) Validate() error {
	if c.sourcePlaylistID == "" {
		return fmt.Errorf("conversion requires a source playlist ID")
	}
	switch c.status {
	case ConversionRunning, ConversionCompleted, ConversionFailed:
		return nil
	default:
		return fmt.Errorf("conversion status %q not recognized", c.status)
	}
}
