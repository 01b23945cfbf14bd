package repositories

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/tunebridge/tunebridge/internal/models"
	"github.com/tunebridge/tunebridge/internal/shared"
)

// AccountRepository implements [models.Repository] for authorized profile [models.Account] persistence.
type AccountRepository struct {
	db *sql.DB
}

// NewAccountRepository creates a new [AccountRepository] with the given database connection
func NewAccountRepository(db *sql.DB) *AccountRepository {
	return &AccountRepository{db: db}
}

// Create inserts a new account into the database with generated ID and sequence
func (r *AccountRepository) Create(account *models.Account) error {
	sequence, err := NextSequence(r.db, "accounts")
	if err != nil {
		return fmt.Errorf("failed to generate sequence: %w", err)
	}

	id := shared.GenerateID()
	account.SetID(id)

	if err := account.Validate(); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	query := `
		INSERT INTO accounts (id, sequence, service, account_id, display_name, email, country, product, last_auth_at, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err = r.db.Exec(query,
		id,
		sequence,
		account.Service(),
		account.AccountID(),
		account.DisplayName(),
		account.Email(),
		account.Country(),
		account.Product(),
		account.LastAuthAt(),
		account.CreatedAt(),
		account.UpdatedAt(),
	)
	if err != nil {
		return fmt.Errorf("failed to insert account: %w", err)
	}

	return nil
}

// Get retrieves an account by ID, excluding soft-deleted accounts
func (r *AccountRepository) Get(id string) (*models.Account, error) {
	query := `
		SELECT id, sequence, service, account_id, display_name, email, country, product, last_auth_at, created_at, updated_at, deleted_at
		FROM accounts
		WHERE id = ? AND deleted_at IS NULL
	`

	return r.scanOne(r.db.QueryRow(query, id))
}

// GetByService retrieves the most recently authorized account for a service
func (r *AccountRepository) GetByService(service string) (*models.Account, error) {
	query := `
		SELECT id, sequence, service, account_id, display_name, email, country, product, last_auth_at, created_at, updated_at, deleted_at
		FROM accounts
		WHERE service = ? AND deleted_at IS NULL
		ORDER BY last_auth_at DESC
		LIMIT 1
	`

	return r.scanOne(r.db.QueryRow(query, service))
}

// GetByServiceAccount retrieves an account by service and its catalog-side identifier
func (r *AccountRepository) GetByServiceAccount(service, accountID string) (*models.Account, error) {
	query := `
		SELECT id, sequence, service, account_id, display_name, email, country, product, last_auth_at, created_at, updated_at, deleted_at
		FROM accounts
		WHERE service = ? AND account_id = ? AND deleted_at IS NULL
	`

	return r.scanOne(r.db.QueryRow(query, service, accountID))
}

// Update modifies an existing account in the database
func (r *AccountRepository) Update(account *models.Account) error {
	if err := account.Validate(); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	now := time.Now()
	account.SetUpdatedAt(now)

	query := `
		UPDATE accounts
		SET display_name = ?, email = ?, country = ?, product = ?, last_auth_at = ?, updated_at = ?
		WHERE id = ? AND deleted_at IS NULL
	`

	result, err := r.db.Exec(query,
		account.DisplayName(),
		account.Email(),
		account.Country(),
		account.Product(),
		account.LastAuthAt(),
		now,
		account.ID(),
	)
	if err != nil {
		return fmt.Errorf("failed to update account: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get affected rows: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("account not found or already deleted: %s", account.ID())
	}

	return nil
}

// Upsert records an authorized profile, refreshing the existing row when this
// service account completed authorization before.
func (r *AccountRepository) Upsert(account *models.Account) error {
	existing, err := r.GetByServiceAccount(account.Service(), account.AccountID())
	if err == nil && existing != nil {
		account.SetID(existing.ID())
		return r.Update(account)
	}

	return r.Create(account)
}

// Delete soft-deletes an account by ID
func (r *AccountRepository) Delete(id string) error {
	now := time.Now()

	query := `
		UPDATE accounts
		SET deleted_at = ?
		WHERE id = ? AND deleted_at IS NULL
	`

	result, err := r.db.Exec(query, now, id)
	if err != nil {
		return fmt.Errorf("failed to delete account: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get affected rows: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("account not found or already deleted: %s", id)
	}

	return nil
}

// List retrieves all accounts matching the given criteria, excluding soft-deleted accounts
func (r *AccountRepository) List(criteria map[string]any) ([]*models.Account, error) {
	query := `
		SELECT id, sequence, service, account_id, display_name, email, country, product, last_auth_at, created_at, updated_at, deleted_at
		FROM accounts
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
		return nil, fmt.Errorf("failed to query accounts: %w", err)
	}
	defer rows.Close()

	var accounts []*models.Account
	for rows.Next() {
		account, err := r.scanRow(rows)
		if err != nil {
			return nil, err
		}
		accounts = append(accounts, account)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}

	return accounts, nil
}

// scanOne scans a single [sql.Row] into a [models.Account]
func (r *AccountRepository) scanOne(row *sql.Row) (*models.Account, error) {
	var (
		id          string
		sequence    int
		service     string
		accountID   string
		displayName string
		email       string
		country     string
		product     string
		lastAuthAt  sql.NullTime
		createdAt   time.Time
		updatedAt   time.Time
		deletedAt   sql.NullTime
	)

	err := row.Scan(&id, &sequence, &service, &accountID, &displayName, &email, &country, &product, &lastAuthAt, &createdAt, &updatedAt, &deletedAt)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("account not found")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan account: %w", err)
	}

	account := models.NewAccount(sequence, service, accountID, displayName)
	account.SetID(id)
	account.SetUpdatedAt(updatedAt)
	account.SetEmail(email)
	account.SetCountry(country)
	account.SetProduct(product)
	if lastAuthAt.Valid {
		account.SetLastAuthAt(lastAuthAt.Time)
	}
	if deletedAt.Valid {
		account.SetDeletedAt(&deletedAt.Time)
	}

	return account, nil
}

// scanRow scans a row from [sql.Rows] into a [models.Account]
func (r *AccountRepository) scanRow(rows *sql.Rows) (*models.Account, error) {
	var (
		id          string
		sequence    int
		service     string
		accountID   string
		displayName string
		email       string
		country     string
		product     string
		lastAuthAt  sql.NullTime
		createdAt   time.Time
		updatedAt   time.Time
		deletedAt   sql.NullTime
	)

	err := rows.Scan(&id, &sequence, &service, &accountID, &displayName, &email, &country, &product, &lastAuthAt, &createdAt, &updatedAt, &deletedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to scan account: %w", err)
	}

	account := models.NewAccount(sequence, service, accountID, displayName)
	account.SetID(id)
	account.SetUpdatedAt(updatedAt)
	account.SetEmail(email)
	account.SetCountry(country)
	account.SetProduct(product)
	if lastAuthAt.Valid {
		account.SetLastAuthAt(lastAuthAt.Time)
	}
	if deletedAt.Valid {
		account.SetDeletedAt(&deletedAt.Time)
	}

	return account, nil
}
