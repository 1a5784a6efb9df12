package mock

import (
	"context"

	"github.com/landitus/bookmarks"
)

var _ bookmarks.ItemService = (*ItemService)(nil)

// ItemService is a mock implementation of bookmarks.ItemService.
type ItemService struct {
	CreateItemFn   func(ctx context.Context, item *bookmarks.Item) error
	FindItemByIDFn func(ctx context.Context, id string) (*bookmarks.Item, error)
	FindItemsFn    func(ctx context.Context, filter bookmarks.ItemFilter) ([]*bookmarks.Item, error)
	UpdateItemFn   func(ctx context.Context, id string, upd bookmarks.ItemUpdate) (*bookmarks.Item, error)
	DeleteItemFn   func(ctx context.Context, id string) error
}

func (s *ItemService) CreateItem(ctx context.Context, item *bookmarks.Item) error {
	return s.CreateItemFn(ctx, item)
}

func (s *ItemService) FindItemByID(ctx context.Context, id string) (*bookmarks.Item, error) {
	return s.FindItemByIDFn(ctx, id)
}

func (s *ItemService) FindItems(ctx context.Context, filter bookmarks.ItemFilter) ([]*bookmarks.Item, error) {
	return s.FindItemsFn(ctx, filter)
}

func (s *ItemService) UpdateItem(ctx context.Context, id string, upd bookmarks.ItemUpdate) (*bookmarks.Item, error) {
	return s.UpdateItemFn(ctx, id, upd)
}

func (s *ItemService) DeleteItem(ctx context.Context, id string) error {
	return s.DeleteItemFn(ctx, id)
}
