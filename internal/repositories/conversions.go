package repositories

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/tunebridge/tunebridge/internal/models"
	"github.com/tunebridge/tunebridge/internal/shared"
)

// ConversionRepository implements models.Repository[*models.Conversion] for run history.
//
// Handles conversion record CRUD operations with soft delete support and status-based queries.
type ConversionRepository struct {
	db *sql.DB
}

// NewConversionRepository creates a new ConversionRepository with the given database connection
func NewConversionRepository(db *sql.DB) *ConversionRepository {
	return &ConversionRepository{db: db}
}

// Create inserts a new conversion record into the database with generated ID and sequence
func (r *ConversionRepository) Create(conversion *models.Conversion) error {
	sequence, err := NextSequence(r.db, "conversions")
	if err != nil {
		return fmt.Errorf("failed to generate sequence: %w", err)
	}

	id := shared.GenerateID()
	conversion.SetID(id)

	if err := conversion.Validate(); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	query := `
		INSERT INTO conversions (
			id, sequence, source_playlist_id, source_name, dest_playlist_id,
			dest_url, status, tracks_total, tracks_converted, tracks_unresolved,
			error_message, started_at, completed_at, created_at, updated_at
		)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	var destPlaylistID any = conversion.DestPlaylistID()
	if destPlaylistID == "" {
		destPlaylistID = nil
	}

	var errorMessage any = conversion.ErrorMessage()
	if errorMessage == "" {
		errorMessage = nil
	}

	_, err = r.db.Exec(query,
		id,
		sequence,
		conversion.SourcePlaylistID(),
		conversion.SourceName(),
		destPlaylistID,
		conversion.DestURL(),
		conversion.Status(),
		conversion.TracksTotal(),
		conversion.TracksConverted(),
		conversion.TracksUnresolved(),
		errorMessage,
		conversion.StartedAt(),
		conversion.CompletedAt(),
		conversion.CreatedAt(),
		conversion.UpdatedAt(),
	)
	if err != nil {
		return fmt.Errorf("failed to insert conversion: %w", err)
	}

	return nil
}

// Get retrieves a conversion record by ID, excluding soft-deleted records
func (r *ConversionRepository) Get(id string) (*models.Conversion, error) {
	query := `
		SELECT
			id, sequence, source_playlist_id, source_name, dest_playlist_id,
			dest_url, status, tracks_total, tracks_converted, tracks_unresolved,
			error_message, started_at, completed_at, created_at, updated_at, deleted_at
		FROM conversions
		WHERE id = ? AND deleted_at IS NULL
	`

	return r.scanOne(r.db.QueryRow(query, id))
}

// Update modifies an existing conversion record in the database
func (r *ConversionRepository) Update(conversion *models.Conversion) error {
	if err := conversion.Validate(); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	now := time.Now()
	conversion.SetUpdatedAt(now)

	query := `
		UPDATE conversions
		SET source_name = ?, dest_playlist_id = ?, dest_url = ?, status = ?,
			tracks_total = ?, tracks_converted = ?, tracks_unresolved = ?,
			error_message = ?, started_at = ?, completed_at = ?, updated_at = ?
		WHERE id = ? AND deleted_at IS NULL
	`

	var destPlaylistID any = conversion.DestPlaylistID()
	if destPlaylistID == "" {
		destPlaylistID = nil
	}

	var errorMessage any = conversion.ErrorMessage()
	if errorMessage == "" {
		errorMessage = nil
	}

	result, err := r.db.Exec(query,
		conversion.SourceName(),
		destPlaylistID,
		conversion.DestURL(),
		conversion.Status(),
		conversion.TracksTotal(),
		conversion.TracksConverted(),
		conversion.TracksUnresolved(),
		errorMessage,
		conversion.StartedAt(),
		conversion.CompletedAt(),
		now,
		conversion.ID(),
	)
	if err != nil {
		return fmt.Errorf("failed to update conversion: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get affected rows: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("conversion not found or already deleted: %s", conversion.ID())
	}

	return nil
}

// Delete soft-deletes a conversion record by ID
func (r *ConversionRepository) Delete(id string) error {
	now := time.Now()

	query := `
		UPDATE conversions
		SET deleted_at = ?
		WHERE id = ? AND deleted_at IS NULL
	`

	result, err := r.db.Exec(query, now, id)
	if err != nil {
		return fmt.Errorf("failed to delete conversion: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get affected rows: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("conversion not found or already deleted: %s", id)
	}

	return nil
}

// List retrieves all conversion records matching the given criteria, newest first
func (r *ConversionRepository) List(criteria map[string]any) ([]*models.Conversion, error) {
	query := `
		SELECT
			id, sequence, source_playlist_id, source_name, dest_playlist_id,
			dest_url, status, tracks_total, tracks_converted, tracks_unresolved,
			error_message, started_at, completed_at, created_at, updated_at, deleted_at
		FROM conversions
		WHERE deleted_at IS NULL
	`

	args := []any{}

	if status, ok := criteria["status"].(string); ok && status != "" {
		query += " AND status = ?"
		args = append(args, status)
	}

	if sourcePlaylistID, ok := criteria["source_playlist_id"].(string); ok && sourcePlaylistID != "" {
		query += " AND source_playlist_id = ?"
		args = append(args, sourcePlaylistID)
	}

	query += " ORDER BY sequence DESC"

	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query conversions: %w", err)
	}
	defer rows.Close()

	var conversions []*models.Conversion
	for rows.Next() {
		conversion, err := r.scanRow(rows)
		if err != nil {
			return nil, err
		}
		conversions = append(conversions, conversion)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}

	return conversions, nil
}

// scanOne scans a single [sql.Row] into a [models.Conversion]
func (r *ConversionRepository) scanOne(row *sql.Row) (*models.Conversion, error) {
	var (
		id               string
		sequence         int
		sourcePlaylistID string
		sourceName       string
		destPlaylistID   sql.NullString
		destURL          string
		status           string
		tracksTotal      int
		tracksConverted  int
		tracksUnresolved int
		errorMessage     sql.NullString
		startedAt        sql.NullTime
		completedAt      sql.NullTime
		createdAt        time.Time
		updatedAt        time.Time
		deletedAt        sql.NullTime
	)

	err := row.Scan(
		&id, &sequence, &sourcePlaylistID, &sourceName, &destPlaylistID,
		&destURL, &status, &tracksTotal, &tracksConverted, &tracksUnresolved,
		&errorMessage, &startedAt, &completedAt, &createdAt, &updatedAt, &deletedAt,
	)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("conversion not found")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan conversion: %w", err)
	}

	return hydrateConversion(
		sequence, id, sourcePlaylistID, sourceName, destURL, status,
		tracksTotal, tracksConverted, tracksUnresolved,
		destPlaylistID, errorMessage, startedAt, completedAt, updatedAt, deletedAt,
	), nil
}

// scanRow scans a row from [sql.Rows] into a [models.Conversion]
func (r *ConversionRepository) scanRow(rows *sql.Rows) (*models.Conversion, error) {
	var (
		id               string
		sequence         int
		sourcePlaylistID string
		sourceName       string
		destPlaylistID   sql.NullString
		destURL          string
		status           string
		tracksTotal      int
		tracksConverted  int
		tracksUnresolved int
		errorMessage     sql.NullString
		startedAt        sql.NullTime
		completedAt      sql.NullTime
		createdAt        time.Time
		updatedAt        time.Time
		deletedAt        sql.NullTime
	)

	err := rows.Scan(
		&id, &sequence, &sourcePlaylistID, &sourceName, &destPlaylistID,
		&destURL, &status, &tracksTotal, &tracksConverted, &tracksUnresolved,
		&errorMessage, &startedAt, &completedAt, &createdAt, &updatedAt, &deletedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to scan conversion: %w", err)
	}

	return hydrateConversion(
		sequence, id, sourcePlaylistID, sourceName, destURL, status,
		tracksTotal, tracksConverted, tracksUnresolved,
		destPlaylistID, errorMessage, startedAt, completedAt, updatedAt, deletedAt,
	), nil
}

// hydrateConversion rebuilds a [models.Conversion] from scanned columns.
func hydrateConversion(
	sequence int,
	id, sourcePlaylistID, sourceName, destURL, status string,
	tracksTotal, tracksConverted, tracksUnresolved int,
	destPlaylistID, errorMessage sql.NullString,
	startedAt, completedAt sql.NullTime,
	updatedAt time.Time,
	deletedAt sql.NullTime,
) *models.Conversion {
	conversion := models.NewConversion(sequence, sourcePlaylistID)
	conversion.SetID(id)
	conversion.SetUpdatedAt(updatedAt)
	conversion.SetSourceName(sourceName)
	conversion.SetDestURL(destURL)
	conversion.SetStatus(status)
	conversion.SetTracksTotal(tracksTotal)
	conversion.SetTracksConverted(tracksConverted)
	conversion.SetTracksUnresolved(tracksUnresolved)

	if destPlaylistID.Valid {
		conversion.SetDestPlaylistID(destPlaylistID.String)
	}
	if errorMessage.Valid {
		conversion.SetErrorMessage(errorMessage.String)
	}
	if startedAt.Valid {
		conversion.SetStartedAt(&startedAt.Time)
	} else {
		conversion.SetStartedAt(nil)
	}
	if completedAt.Valid {
		conversion.SetCompletedAt(&completedAt.Time)
	}
	if deletedAt.Valid {
		conversion.SetDeletedAt(&deletedAt.Time)
	}

	return conversion
}
