package sqlite

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/landitus/bookmarks"
)

// Compile-time interface verification.
var _ bookmarks.APIKeyService = (*APIKeyService)(nil)

// APIKeyService implements bookmarks.APIKeyService using SQLite.
type APIKeyService struct {
	db *DB
}

// NewAPIKeyService creates a new APIKeyService.
func NewAPIKeyService(db *DB) *APIKeyService {
	return &APIKeyService{db: db}
}

// CreateAPIKey creates a key and returns its token.
func (s *APIKeyService) CreateAPIKey(ctx context.Context, key *bookmarks.APIKey) (string, error) {
	if err := key.Validate(); err != nil {
		return "", err
	}

	token, err := bookmarks.GenerateAPIKeyToken()
	if err != nil {
		return "", err
	}

	key.ID = uuid.New().String()
	key.Prefix = bookmarks.APIKeyTokenPrefix(token)
	key.KeyHash = bookmarks.HashAPIKeyToken(token)
	key.CreatedAt = s.db.now()
	key.LastUsedAt = nil

	if _, err := s.db.ExecContext(ctx, `
		INSERT INTO api_keys (id, user_id, name, prefix, key_hash, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`, key.ID, key.UserID, key.Name, key.Prefix, key.KeyHash, key.CreatedAt.Format(time.RFC3339)); err != nil {
		return "", err
	}

	return token, nil
}

// Authenticate returns the key matching token and records its use.
func (s *APIKeyService) Authenticate(ctx context.Context, token string) (*bookmarks.APIKey, error) {
	if !bookmarks.ValidAPIKeyToken(token) {
		return nil, bookmarks.Errorf(bookmarks.EUNAUTHORIZED, "invalid API key")
	}

	row := s.db.QueryRowContext(ctx, `
		SELECT id, user_id, name, prefix, key_hash, created_at, last_used_at
		FROM api_keys
		WHERE key_hash = ?
	`, bookmarks.HashAPIKeyToken(token))

	key, err := scanAPIKey(row)
	if err == sql.ErrNoRows {
		return nil, bookmarks.Errorf(bookmarks.EUNAUTHORIZED, "invalid API key")
	}
	if err != nil {
		return nil, err
	}

	now := s.db.now()
	if _, err := s.db.ExecContext(ctx, `
		UPDATE api_keys SET last_used_at = ? WHERE id = ?
	`, now.Format(time.RFC3339), key.ID); err != nil {
		return nil, err
	}
	key.LastUsedAt = &now

	return key, nil
}

// FindAPIKeys retrieves keys matching the filter, newest first.
func (s *APIKeyService) FindAPIKeys(ctx context.Context, filter bookmarks.APIKeyFilter) ([]*bookmarks.APIKey, error) {
	var query strings.Builder
	var args []any

	query.WriteString("SELECT id, user_id, name, prefix, key_hash, created_at, last_used_at FROM api_keys WHERE 1=1")

	if filter.ID != nil {
		query.WriteString(" AND id = ?")
		args = append(args, *filter.ID)
	}
	if filter.UserID != nil {
		query.WriteString(" AND user_id = ?")
		args = append(args, *filter.UserID)
	}

	query.WriteString(" ORDER BY created_at DESC, rowid DESC")

	rows, err := s.db.QueryContext(ctx, query.String(), args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var keys []*bookmarks.APIKey
	for rows.Next() {
		key, err := scanAPIKey(rows)
		if err != nil {
			return nil, err
		}
		keys = append(keys, key)
	}

	return keys, rows.Err()
}

// DeleteAPIKey revokes a key.
func (s *APIKeyService) DeleteAPIKey(ctx context.Context, id string) error {
	result, err := s.db.ExecContext(ctx, "DELETE FROM api_keys WHERE id = ?", id)
	if err != nil {
		return err
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}

	if rows == 0 {
		return bookmarks.Errorf(bookmarks.ENOTFOUND, "API key not found")
	}

	return nil
}

func scanAPIKey(row scanner) (*bookmarks.APIKey, error) {
	var key bookmarks.APIKey
	var createdAt, lastUsedAt string

	if err := row.Scan(&key.ID, &key.UserID, &key.Name, &key.Prefix, &key.KeyHash, &createdAt, &lastUsedAt); err != nil {
		return nil, err
	}

	var err error
	if key.CreatedAt, err = parseRFC3339(createdAt, "created_at"); err != nil {
		return nil, err
	}
	if key.LastUsedAt, err = parseOptionalRFC3339(lastUsedAt, "last_used_at"); err != nil {
		return nil, err
	}

	return &key, nil
}
