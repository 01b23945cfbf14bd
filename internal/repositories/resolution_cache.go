package repositories

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/tunebridge/tunebridge/internal/models"
	"github.com/tunebridge/tunebridge/internal/shared"
)

// ResolutionRepository implements models.Repository[*models.CachedResolution] for the search cache.
//
// Rows map a normalized title/artist key to the Spotify track it resolved to.
// Cache rows are disposable: Delete and Clear remove them outright so the
// UNIQUE key frees up for re-insertion.
type ResolutionRepository struct {
	db *sql.DB
}

// NewResolutionRepository creates a new ResolutionRepository with the given database connection
func NewResolutionRepository(db *sql.DB) *ResolutionRepository {
	return &ResolutionRepository{db: db}
}

// CacheStats summarizes the state of the resolution cache.
type CacheStats struct {
	Entries   int // rows in the cache
	TotalHits int // lookups served across all rows
}

// Create inserts a new [models.CachedResolution] into the database with generated ID and sequence
func (r *ResolutionRepository) Create(res *models.CachedResolution) error {
	sequence, err := NextSequence(r.db, "resolutions")
	if err != nil {
		return fmt.Errorf("failed to generate sequence: %w", err)
	}

	id := shared.GenerateID()
	res.SetID(id)

	if err := res.Validate(); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	query := `
		INSERT INTO resolutions (id, sequence, key, title, artist, spotify_id, hits, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err = r.db.Exec(query,
		id,
		sequence,
		res.Key(),
		res.Title(),
		res.Artist(),
		res.SpotifyID(),
		res.Hits(),
		res.CreatedAt(),
		res.UpdatedAt(),
	)
	if err != nil {
		return fmt.Errorf("failed to insert resolution: %w", err)
	}

	return nil
}

// Get retrieves a resolution by ID
func (r *ResolutionRepository) Get(id string) (*models.CachedResolution, error) {
	query := `
		SELECT id, sequence, key, title, artist, spotify_id, hits, created_at, updated_at
		FROM resolutions
		WHERE id = ?
	`

	return r.scanOne(r.db.QueryRow(query, id))
}

// GetByKey retrieves a resolution by its normalized title/artist key
func (r *ResolutionRepository) GetByKey(key string) (*models.CachedResolution, error) {
	query := `
		SELECT id, sequence, key, title, artist, spotify_id, hits, created_at, updated_at
		FROM resolutions
		WHERE key = ?
	`

	return r.scanOne(r.db.QueryRow(query, key))
}

// RecordHit increments the served-lookup counter for a key
func (r *ResolutionRepository) RecordHit(key string) error {
	_, err := r.db.Exec("UPDATE resolutions SET hits = hits + 1 WHERE key = ?", key)
	if err != nil {
		return fmt.Errorf("failed to record hit: %w", err)
	}
	return nil
}

// Update modifies an existing resolution in the database
func (r *ResolutionRepository) Update(res *models.CachedResolution) error {
	if err := res.Validate(); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	now := time.Now()
	res.SetUpdatedAt(now)

	query := `
		UPDATE resolutions
		SET title = ?, artist = ?, spotify_id = ?, hits = ?, updated_at = ?
		WHERE id = ?
	`

	result, err := r.db.Exec(query,
		res.Title(),
		res.Artist(),
		res.SpotifyID(),
		res.Hits(),
		now,
		res.ID(),
	)
	if err != nil {
		return fmt.Errorf("failed to update resolution: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get affected rows: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("resolution not found: %s", res.ID())
	}

	return nil
}

// Delete removes a resolution by ID
func (r *ResolutionRepository) Delete(id string) error {
	result, err := r.db.Exec("DELETE FROM resolutions WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("failed to delete resolution: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get affected rows: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("resolution not found: %s", id)
	}

	return nil
}

// List retrieves all resolutions matching the given criteria
func (r *ResolutionRepository) List(criteria map[string]any) ([]*models.CachedResolution, error) {
	query := `
		SELECT id, sequence, key, title, artist, spotify_id, hits, created_at, updated_at
		FROM resolutions
		WHERE 1 = 1
	`

	args := []any{}

	if artist, ok := criteria["artist"].(string); ok && artist != "" {
		query += " AND artist = ?"
		args = append(args, artist)
	}

	query += " ORDER BY sequence ASC"

	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query resolutions: %w", err)
	}
	defer rows.Close()

	var resolutions []*models.CachedResolution
	for rows.Next() {
		res, err := r.scanRow(rows)
		if err != nil {
			return nil, err
		}
		resolutions = append(resolutions, res)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}

	return resolutions, nil
}

// Stats reports the row count and cumulative hit count of the cache
func (r *ResolutionRepository) Stats() (*CacheStats, error) {
	stats := &CacheStats{}
	err := r.db.QueryRow("SELECT COUNT(*), COALESCE(SUM(hits), 0) FROM resolutions").
		Scan(&stats.Entries, &stats.TotalHits)
	if err != nil {
		return nil, fmt.Errorf("failed to read cache stats: %w", err)
	}
	return stats, nil
}

// Clear removes every cached resolution and reports how many rows went away
func (r *ResolutionRepository) Clear() (int64, error) {
	result, err := r.db.Exec("DELETE FROM resolutions")
	if err != nil {
		return 0, fmt.Errorf("failed to clear cache: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get affected rows: %w", err)
	}

	return rows, nil
}

// scanOne scans a single [sql.Row] into a [models.CachedResolution]
func (r *ResolutionRepository) scanOne(row *sql.Row) (*models.CachedResolution, error) {
	var (
		id        string
		sequence  int
		key       string
		title     string
		artist    string
		spotifyID string
		hits      int
		createdAt time.Time
		updatedAt time.Time
	)

	err := row.Scan(&id, &sequence, &key, &title, &artist, &spotifyID, &hits, &createdAt, &updatedAt)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("resolution not found")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan resolution: %w", err)
	}

	dto := models.Track{Title: title}
	if artist != "" {
		dto.Artists = []string{artist}
	}

	res := models.NewCachedResolution(sequence, key, spotifyID, dto)
	res.SetID(id)
	res.SetUpdatedAt(updatedAt)
	res.SetHits(hits)

	return res, nil
}

// scanRow scans a row from [sql.Rows] into a [models.CachedResolution]
func (r *ResolutionRepository) scanRow(rows *sql.Rows) (*models.CachedResolution, error) {
	var (
		id        string
		sequence  int
		key       string
		title     string
		artist    string
		spotifyID string
		hits      int
		createdAt time.Time
		updatedAt time.Time
	)

	err := rows.Scan(&id, &sequence, &key, &title, &artist, &spotifyID, &hits, &createdAt, &updatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to scan resolution: %w", err)
	}

	dto := models.Track{Title: title}
	if artist != "" {
		dto.Artists = []string{artist}
	}

	res := models.NewCachedResolution(sequence, key, spotifyID, dto)
	res.SetID(id)
	res.SetUpdatedAt(updatedAt)
	res.SetHits(hits)

	return res, nil
}

// ResolutionCacheAdapter implements converter.ResolutionStore using ResolutionRepository.
//
// Lookup failures and duplicate stores are swallowed; a cache can never fail a
// conversion. Lookups that hit bump the row's counter for cache stats.
type ResolutionCacheAdapter struct {
	repo *ResolutionRepository
}

// NewResolutionCacheAdapter creates a new ResolutionCacheAdapter with the given repository
func NewResolutionCacheAdapter(repo *ResolutionRepository) *ResolutionCacheAdapter {
	return &ResolutionCacheAdapter{repo: repo}
}

// Lookup returns the cached Spotify track ID for a key when one exists.
func (a *ResolutionCacheAdapter) Lookup(ctx context.Context, key string) (string, bool) {
	res, err := a.repo.GetByKey(key)
	if err != nil || res == nil {
		return "", false
	}

	_ = a.repo.RecordHit(key)

	return res.SpotifyID(), true
}

// Store caches a resolved track.
// Errors are dropped, including UNIQUE violations when another run stored the
// same resolution first.
func (a *ResolutionCacheAdapter) Store(ctx context.Context, key string, track models.Track, id string) {
	res := models.NewCachedResolution(0, key, id, track)
	_ = a.repo.Create(res)
}
