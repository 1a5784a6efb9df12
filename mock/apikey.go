package mock

import (
	"context"

	"github.com/landitus/bookmarks"
)

var _ bookmarks.APIKeyService = (*APIKeyService)(nil)

// APIKeyService is a mock implementation of bookmarks.APIKeyService.
type APIKeyService struct {
	CreateAPIKeyFn func(ctx context.Context, key *bookmarks.APIKey) (string, error)
	AuthenticateFn func(ctx context.Context, token string) (*bookmarks.APIKey, error)
	FindAPIKeysFn  func(ctx context.Context, filter bookmarks.APIKeyFilter) ([]*bookmarks.APIKey, error)
	DeleteAPIKeyFn func(ctx context.Context, id string) error
}

func (s *APIKeyService) CreateAPIKey(ctx context.Context, key *bookmarks.APIKey) (string, error) {
	return s.CreateAPIKeyFn(ctx, key)
}

func (s *APIKeyService) Authenticate(ctx context.Context, token string) (*bookmarks.APIKey, error) {
	return s.AuthenticateFn(ctx, token)
}

func (s *APIKeyService) FindAPIKeys(ctx context.Context, filter bookmarks.APIKeyFilter) ([]*bookmarks.APIKey, error) {
	return s.FindAPIKeysFn(ctx, filter)
}

func (s *APIKeyService) DeleteAPIKey(ctx context.Context, id string) error {
	return s.DeleteAPIKeyFn(ctx, id)
}
