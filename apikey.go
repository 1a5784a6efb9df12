package bookmarks

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"strings"
	"time"
)

// APIKeyPrefix starts every API key token.
const APIKeyPrefix = "bk_"

// apiKeyDisplayLen is the number of token characters kept for display.
const apiKeyDisplayLen = 11

// APIKey is a per-user bearer token used by the browser extension and other
// clients of the items API. Only the SHA-256 hash of the token is stored.
type APIKey struct {
	ID         string     `json:"id"`
	UserID     string     `json:"userId"`
	Name       string     `json:"name"`
	Prefix     string     `json:"prefix"`
	KeyHash    string     `json:"-"`
	CreatedAt  time.Time  `json:"createdAt"`
	LastUsedAt *time.Time `json:"lastUsedAt,omitempty"`
}

// Validate returns an error if the key contains invalid fields.
func (k *APIKey) Validate() error {
	if k.UserID == "" {
		return Errorf(EINVALID, "API key user ID required")
	}
	if k.Name == "" {
		return Errorf(EINVALID, "API key name required")
	}
	return nil
}

// APIKeyService represents a service for managing API keys.
type APIKeyService interface {
	// CreateAPIKey creates a key and returns its token. The token is not
	// stored and cannot be recovered later.
	CreateAPIKey(ctx context.Context, key *APIKey) (token string, err error)

	// Authenticate returns the key matching token and records its use.
	// Returns EUNAUTHORIZED if the token is malformed or unknown.
	Authenticate(ctx context.Context, token string) (*APIKey, error)

	// FindAPIKeys retrieves keys matching the filter, newest first.
	FindAPIKeys(ctx context.Context, filter APIKeyFilter) ([]*APIKey, error)

	// DeleteAPIKey revokes a key.
	// Returns ENOTFOUND if the key does not exist.
	DeleteAPIKey(ctx context.Context, id string) error
}

// APIKeyFilter represents a filter for FindAPIKeys.
type APIKeyFilter struct {
	ID     *string `json:"id"`
	UserID *string `json:"userId"`
}

// GenerateAPIKeyToken returns a new random token.
func GenerateAPIKeyToken() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return APIKeyPrefix + hex.EncodeToString(b), nil
}

// ValidAPIKeyToken reports whether token has the expected shape.
func ValidAPIKeyToken(token string) bool {
	if !strings.HasPrefix(token, APIKeyPrefix) {
		return false
	}
	body := strings.TrimPrefix(token, APIKeyPrefix)
	if len(body) != 64 {
		return false
	}
	_, err := hex.DecodeString(body)
	return err == nil
}

// HashAPIKeyToken returns the hex SHA-256 digest stored for token.
func HashAPIKeyToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}

// APIKeyTokenPrefix returns the displayable start of token.
func APIKeyTokenPrefix(token string) string {
	if len(token) <= apiKeyDisplayLen {
		return token
	}
	return token[:apiKeyDisplayLen]
}

type contextKey int

const userIDContextKey = contextKey(iota + 1)

// NewContextWithUserID returns a new context with the authenticated user ID.
func NewContextWithUserID(ctx context.Context, userID string) context.Context {
	return context.WithValue(ctx, userIDContextKey, userID)
}

// UserIDFromContext returns the authenticated user ID, or "" if none is set.
func UserIDFromContext(ctx context.Context) string {
	userID, _ := ctx.Value(userIDContextKey).(string)
	return userID
}
