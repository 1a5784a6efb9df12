package mock

import (
	"context"

	"github.com/landitus/bookmarks"
)

var _ bookmarks.TopicService = (*TopicService)(nil)

// TopicService is a mock implementation of bookmarks.TopicService.
type TopicService struct {
	FindTopicsFn    func(ctx context.Context, filter bookmarks.TopicFilter) ([]*bookmarks.Topic, error)
	SetItemTopicsFn func(ctx context.Context, userID, itemID string, names []string) ([]*bookmarks.Topic, error)
	DeleteTopicFn   func(ctx context.Context, id string) error
}

func (s *TopicService) FindTopics(ctx context.Context, filter bookmarks.TopicFilter) ([]*bookmarks.Topic, error) {
	return s.FindTopicsFn(ctx, filter)
}

func (s *TopicService) SetItemTopics(ctx context.Context, userID, itemID string, names []string) ([]*bookmarks.Topic, error) {
	return s.SetItemTopicsFn(ctx, userID, itemID, names)
}

func (s *TopicService) DeleteTopic(ctx context.Context, id string) error {
	return s.DeleteTopicFn(ctx, id)
}
