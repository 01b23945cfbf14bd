package repositories

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/tunebridge/tunebridge/internal/models"
	"github.com/tunebridge/tunebridge/internal/shared"
)

// SnapshotRepository implements models.Repository[*models.PlaylistSnapshot] for playlist listings.
//
// Handles snapshot CRUD operations with soft delete support and service-specific lookups.
type SnapshotRepository struct {
	db *sql.DB
}

// NewSnapshotRepository creates a new SnapshotRepository with the given database connection
func NewSnapshotRepository(db *sql.DB) *SnapshotRepository {
	return &SnapshotRepository{db: db}
}

// Create inserts a new snapshot into the database with generated ID and sequence
func (r *SnapshotRepository) Create(snapshot *models.PlaylistSnapshot) error {
	sequence, err := NextSequence(r.db, "snapshots")
	if err != nil {
		return fmt.Errorf("failed to generate sequence: %w", err)
	}

	id := shared.GenerateID()
	snapshot.SetID(id)

	if err := snapshot.Validate(); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	query := `
		INSERT INTO snapshots (id, sequence, service, service_id, name, description, track_count, public, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err = r.db.Exec(query,
		id,
		sequence,
		snapshot.Service(),
		snapshot.ServiceID(),
		snapshot.Name(),
		snapshot.Description(),
		snapshot.TrackCount(),
		snapshot.Public(),
		snapshot.CreatedAt(),
		snapshot.UpdatedAt(),
	)
	if err != nil {
		return fmt.Errorf("failed to insert snapshot: %w", err)
	}

	return nil
}

// Get retrieves a snapshot by ID, excluding soft-deleted snapshots
func (r *SnapshotRepository) Get(id string) (*models.PlaylistSnapshot, error) {
	query := `
		SELECT id, sequence, service, service_id, name, description, track_count, public, created_at, updated_at, deleted_at
		FROM snapshots
		WHERE id = ? AND deleted_at IS NULL
	`

	return r.scanOne(r.db.QueryRow(query, id))
}

// GetByServiceID retrieves a snapshot by service and service_id
func (r *SnapshotRepository) GetByServiceID(service, serviceID string) (*models.PlaylistSnapshot, error) {
	query := `
		SELECT id, sequence, service, service_id, name, description, track_count, public, created_at, updated_at, deleted_at
		FROM snapshots
		WHERE service = ? AND service_id = ? AND deleted_at IS NULL
	`

	return r.scanOne(r.db.QueryRow(query, service, serviceID))
}

// Update modifies an existing snapshot in the database
func (r *SnapshotRepository) Update(snapshot *models.PlaylistSnapshot) error {
	if err := snapshot.Validate(); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	now := time.Now()
	snapshot.SetUpdatedAt(now)

	query := `
		UPDATE snapshots
		SET name = ?, description = ?, track_count = ?, public = ?, updated_at = ?
		WHERE id = ? AND deleted_at IS NULL
	`

	result, err := r.db.Exec(query,
		snapshot.Name(),
		snapshot.Description(),
		snapshot.TrackCount(),
		snapshot.Public(),
		now,
		snapshot.ID(),
	)
	if err != nil {
		return fmt.Errorf("failed to update snapshot: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get affected rows: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("snapshot not found or already deleted: %s", snapshot.ID())
	}

	return nil
}

// Delete soft-deletes a snapshot by ID
func (r *SnapshotRepository) Delete(id string) error {
	now := time.Now()

	query := `
		UPDATE snapshots
		SET deleted_at = ?
		WHERE id = ? AND deleted_at IS NULL
	`

	result, err := r.db.Exec(query, now, id)
	if err != nil {
		return fmt.Errorf("failed to delete snapshot: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get affected rows: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("snapshot not found or already deleted: %s", id)
	}

	return nil
}

// List retrieves all snapshots matching the given criteria, excluding soft-deleted snapshots
func (r *SnapshotRepository) List(criteria map[string]any) ([]*models.PlaylistSnapshot, error) {
	query := `
		SELECT id, sequence, service, service_id, name, description, track_count, public, created_at, updated_at, deleted_at
		FROM snapshots
		WHERE deleted_at IS NULL
	`

	args := []any{}

	if service, ok := criteria["service"].(string); ok && service != "" {
		query += " AND service = ?"
		args = append(args, service)
	}

	query += " ORDER BY sequence ASC"

	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query snapshots: %w", err)
	}
	defer rows.Close()

	var snapshots []*models.PlaylistSnapshot
	for rows.Next() {
		snapshot, err := r.scanRow(rows)
		if err != nil {
			return nil, err
		}
		snapshots = append(snapshots, snapshot)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}

	return snapshots, nil
}

// SaveListing records a catalog's playlist listing, updating rows for
// playlists seen before and inserting the rest.
func (r *SnapshotRepository) SaveListing(service string, playlists []models.Playlist) error {
	for _, playlist := range playlists {
		snapshot := models.NewPlaylistSnapshot(0, service, playlist)

		existing, err := r.GetByServiceID(service, playlist.ID)
		if err == nil && existing != nil {
			snapshot.SetID(existing.ID())
			if err := r.Update(snapshot); err != nil {
				return fmt.Errorf("failed to refresh snapshot %s: %w", playlist.ID, err)
			}
			continue
		}

		if err := r.Create(snapshot); err != nil {
			return fmt.Errorf("failed to snapshot playlist %s: %w", playlist.ID, err)
		}
	}

	return nil
}

// scanOne scans a single row into a [models.PlaylistSnapshot]
func (r *SnapshotRepository) scanOne(row *sql.Row) (*models.PlaylistSnapshot, error) {
	var (
		id          string
		sequence    int
		service     string
		serviceID   string
		name        string
		description string
		trackCount  int
		public      bool
		createdAt   time.Time
		updatedAt   time.Time
		deletedAt   sql.NullTime
	)

	err := row.Scan(&id, &sequence, &service, &serviceID, &name, &description, &trackCount, &public, &createdAt, &updatedAt, &deletedAt)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("snapshot not found")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan snapshot: %w", err)
	}

	dto := models.Playlist{
		ID:          serviceID,
		Name:        name,
		Description: description,
		TrackCount:  trackCount,
		Public:      public,
	}

	snapshot := models.NewPlaylistSnapshot(sequence, service, dto)
	snapshot.SetID(id)
	snapshot.SetUpdatedAt(updatedAt)
	if deletedAt.Valid {
		snapshot.SetDeletedAt(&deletedAt.Time)
	}

	return snapshot, nil
}

// scanRow scans a row from [sql.Rows] into a [models.PlaylistSnapshot]
func (r *SnapshotRepository) scanRow(rows *sql.Rows) (*models.PlaylistSnapshot, error) {
	var (
		id          string
		sequence    int
		service     string
		serviceID   string
		name        string
		description string
		trackCount  int
		public      bool
		createdAt   time.Time
		updatedAt   time.Time
		deletedAt   sql.NullTime
	)

	err := rows.Scan(&id, &sequence, &service, &serviceID, &name, &description, &trackCount, &public, &createdAt, &updatedAt, &deletedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to scan snapshot: %w", err)
	}

	dto := models.Playlist{
		ID:          serviceID,
		Name:        name,
		Description: description,
		TrackCount:  trackCount,
		Public:      public,
	}

	snapshot := models.NewPlaylistSnapshot(sequence, service, dto)
	snapshot.SetID(id)
	snapshot.SetUpdatedAt(updatedAt)
	if deletedAt.Valid {
		snapshot.SetDeletedAt(&deletedAt.Time)
	}

	return snapshot, nil
}
