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
var _ bookmarks.TopicService = (*TopicService)(nil)

// TopicService implements bookmarks.TopicService using SQLite.
type TopicService struct {
	db *DB
}

// NewTopicService creates a new TopicService.
func NewTopicService(db *DB) *TopicService {
	return &TopicService{db: db}
}

// FindTopics retrieves topics matching the filter with their item counts.
func (s *TopicService) FindTopics(ctx context.Context, filter bookmarks.TopicFilter) ([]*bookmarks.Topic, error) {
	var query strings.Builder
	var args []any

	query.WriteString(`
		SELECT t.id, t.user_id, t.name, t.slug, t.created_at, COUNT(it.item_id)
		FROM topics t
		LEFT JOIN item_topics it ON it.topic_id = t.id
		WHERE 1=1`)

	if filter.UserID != nil {
		query.WriteString(" AND t.user_id = ?")
		args = append(args, *filter.UserID)
	}
	if filter.Slug != nil {
		query.WriteString(" AND t.slug = ?")
		args = append(args, *filter.Slug)
	}

	query.WriteString(" GROUP BY t.id ORDER BY t.name COLLATE NOCASE ASC")
	appendPagination(&query, &args, filter.Limit, filter.Offset)

	rows, err := s.db.QueryContext(ctx, query.String(), args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var topics []*bookmarks.Topic
	for rows.Next() {
		var topic bookmarks.Topic
		var createdAt string

		if err := rows.Scan(&topic.ID, &topic.UserID, &topic.Name, &topic.Slug, &createdAt, &topic.ItemCount); err != nil {
			return nil, err
		}
		if topic.CreatedAt, err = parseRFC3339(createdAt, "created_at"); err != nil {
			return nil, err
		}
		topics = append(topics, &topic)
	}

	return topics, rows.Err()
}

// SetItemTopics replaces the topics of an item owned by userID.
func (s *TopicService) SetItemTopics(ctx context.Context, userID, itemID string, names []string) ([]*bookmarks.Topic, error) {
	tx, err := s.db.BeginTx(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	var owner string
	err = tx.QueryRowContext(ctx, "SELECT user_id FROM items WHERE id = ?", itemID).Scan(&owner)
	if err == sql.ErrNoRows || (err == nil && owner != userID) {
		return nil, bookmarks.Errorf(bookmarks.ENOTFOUND, "item not found")
	}
	if err != nil {
		return nil, err
	}

	if _, err := tx.ExecContext(ctx, "DELETE FROM item_topics WHERE item_id = ?", itemID); err != nil {
		return nil, err
	}

	now := s.db.now()
	topics := make([]*bookmarks.Topic, 0, len(names))
	for pos, name := range bookmarks.CleanTopics(names) {
		topic := &bookmarks.Topic{
			ID:        uuid.New().String(),
			UserID:    userID,
			Name:      name,
			Slug:      bookmarks.Slugify(name),
			CreatedAt: now,
		}
		if err := topic.Validate(); err != nil {
			return nil, err
		}

		if _, err := tx.ExecContext(ctx, `
			INSERT INTO topics (id, user_id, name, slug, created_at)
			VALUES (?, ?, ?, ?, ?)
			ON CONFLICT (user_id, slug) DO NOTHING
		`, topic.ID, topic.UserID, topic.Name, topic.Slug, now.Format(time.RFC3339)); err != nil {
			return nil, err
		}

		// The topic may already exist under its original spelling.
		var createdAt string
		if err := tx.QueryRowContext(ctx, `
			SELECT id, name, created_at FROM topics WHERE user_id = ? AND slug = ?
		`, userID, topic.Slug).Scan(&topic.ID, &topic.Name, &createdAt); err != nil {
			return nil, err
		}
		if topic.CreatedAt, err = parseRFC3339(createdAt, "created_at"); err != nil {
			return nil, err
		}

		if _, err := tx.ExecContext(ctx, `
			INSERT INTO item_topics (item_id, topic_id, position) VALUES (?, ?, ?)
		`, itemID, topic.ID, pos); err != nil {
			return nil, err
		}

		topics = append(topics, topic)
	}

	for _, topic := range topics {
		if err := tx.QueryRowContext(ctx, `
			SELECT COUNT(*) FROM item_topics WHERE topic_id = ?
		`, topic.ID).Scan(&topic.ItemCount); err != nil {
			return nil, err
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}
	return topics, nil
}

// DeleteTopic removes a topic. Item links are removed by cascade.
func (s *TopicService) DeleteTopic(ctx context.Context, id string) error {
	result, err := s.db.ExecContext(ctx, "DELETE FROM topics WHERE id = ?", id)
	if err != nil {
		return err
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}

	if rows == 0 {
		return bookmarks.Errorf(bookmarks.ENOTFOUND, "topic not found")
	}

	return nil
}
