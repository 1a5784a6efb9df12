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
var _ bookmarks.ItemService = (*ItemService)(nil)

const itemColumns = `id, user_id, url, title, description, image_url, site_name, author, favicon_url,
	published_at, type, status, favorite, content, excerpt, summary, language, reading_time, word_count,
	content_hash, processing_status, processing_error, processed_at, created_at, updated_at`

// ItemService implements bookmarks.ItemService using SQLite.
type ItemService struct {
	db *DB
}

// NewItemService creates a new ItemService.
func NewItemService(db *DB) *ItemService {
	return &ItemService{db: db}
}

// CreateItem creates a new item.
// Returns ECONFLICT if the user already saved the URL.
func (s *ItemService) CreateItem(ctx context.Context, item *bookmarks.Item) error {
	if err := item.Validate(); err != nil {
		return err
	}

	item.ID = uuid.New().String()
	item.CreatedAt = s.db.now()
	item.UpdatedAt = item.CreatedAt

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO items (`+itemColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		item.ID, item.UserID, item.URL, item.Title, item.Description, item.ImageURL, item.SiteName,
		item.Author, item.FaviconURL, formatOptionalTime(item.PublishedAt), string(item.Type),
		string(item.Status), item.Favorite, item.Content, item.Excerpt, item.Summary, item.Language,
		item.ReadingTime, item.WordCount, item.ContentHash, string(item.ProcessingStatus),
		item.ProcessingError, formatOptionalTime(item.ProcessedAt),
		item.CreatedAt.Format(time.RFC3339), item.UpdatedAt.Format(time.RFC3339))
	if isUniqueViolation(err) {
		return bookmarks.Errorf(bookmarks.ECONFLICT, "item already exists for %s", item.URL)
	}
	return err
}

// FindItemByID retrieves an item by ID, including its topics.
func (s *ItemService) FindItemByID(ctx context.Context, id string) (*bookmarks.Item, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+itemColumns+` FROM items WHERE id = ?`, id)

	item, err := scanItem(row)
	if err == sql.ErrNoRows {
		return nil, bookmarks.Errorf(bookmarks.ENOTFOUND, "item not found")
	}
	if err != nil {
		return nil, err
	}

	if err := s.attachTopics(ctx, []*bookmarks.Item{item}); err != nil {
		return nil, err
	}
	return item, nil
}

// FindItems retrieves items matching the filter, newest first.
func (s *ItemService) FindItems(ctx context.Context, filter bookmarks.ItemFilter) ([]*bookmarks.Item, error) {
	var query strings.Builder
	var args []any

	query.WriteString("SELECT " + itemColumns + " FROM items WHERE 1=1")

	if filter.ID != nil {
		query.WriteString(" AND id = ?")
		args = append(args, *filter.ID)
	}
	if filter.UserID != nil {
		query.WriteString(" AND user_id = ?")
		args = append(args, *filter.UserID)
	}
	if filter.URL != nil {
		query.WriteString(" AND url = ?")
		args = append(args, *filter.URL)
	}
	if filter.Status != nil {
		query.WriteString(" AND status = ?")
		args = append(args, string(*filter.Status))
	}
	if filter.Type != nil {
		query.WriteString(" AND type = ?")
		args = append(args, string(*filter.Type))
	}
	if filter.Favorite != nil {
		query.WriteString(" AND favorite = ?")
		args = append(args, *filter.Favorite)
	}
	if filter.ProcessingStatus != nil {
		query.WriteString(" AND processing_status = ?")
		args = append(args, string(*filter.ProcessingStatus))
	}
	if filter.Topic != nil {
		query.WriteString(` AND id IN (
			SELECT it.item_id FROM item_topics it
			JOIN topics t ON t.id = it.topic_id
			WHERE t.slug = ?)`)
		args = append(args, *filter.Topic)
	}
	if q := strings.TrimSpace(filter.Query); q != "" {
		query.WriteString(` AND (title LIKE ? ESCAPE '\' OR description LIKE ? ESCAPE '\' OR url LIKE ? ESCAPE '\')`)
		p := likePattern(q)
		args = append(args, p, p, p)
	}

	query.WriteString(" ORDER BY created_at DESC, rowid DESC")
	appendPagination(&query, &args, filter.Limit, filter.Offset)

	rows, err := s.db.QueryContext(ctx, query.String(), args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []*bookmarks.Item
	for rows.Next() {
		item, err := scanItem(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	if err := s.attachTopics(ctx, items); err != nil {
		return nil, err
	}
	return items, nil
}

// UpdateItem updates an existing item.
func (s *ItemService) UpdateItem(ctx context.Context, id string, upd bookmarks.ItemUpdate) (*bookmarks.Item, error) {
	item, err := s.FindItemByID(ctx, id)
	if err != nil {
		return nil, err
	}

	applyItemUpdate(item, upd)

	if err := item.Validate(); err != nil {
		return nil, err
	}

	item.UpdatedAt = s.db.now()

	_, err = s.db.ExecContext(ctx, `
		UPDATE items
		SET title = ?, description = ?, image_url = ?, site_name = ?, author = ?, favicon_url = ?,
			published_at = ?, type = ?, status = ?, favorite = ?, content = ?, excerpt = ?, summary = ?,
			language = ?, reading_time = ?, word_count = ?, content_hash = ?, processing_status = ?,
			processing_error = ?, processed_at = ?, updated_at = ?
		WHERE id = ?
	`,
		item.Title, item.Description, item.ImageURL, item.SiteName, item.Author, item.FaviconURL,
		formatOptionalTime(item.PublishedAt), string(item.Type), string(item.Status), item.Favorite,
		item.Content, item.Excerpt, item.Summary, item.Language, item.ReadingTime, item.WordCount,
		item.ContentHash, string(item.ProcessingStatus), item.ProcessingError,
		formatOptionalTime(item.ProcessedAt), item.UpdatedAt.Format(time.RFC3339), id)
	if err != nil {
		return nil, err
	}

	return item, nil
}

// DeleteItem permanently removes an item. Topic links are removed by cascade.
func (s *ItemService) DeleteItem(ctx context.Context, id string) error {
	result, err := s.db.ExecContext(ctx, "DELETE FROM items WHERE id = ?", id)
	if err != nil {
		return err
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}

	if rows == 0 {
		return bookmarks.Errorf(bookmarks.ENOTFOUND, "item not found")
	}

	return nil
}

func applyItemUpdate(item *bookmarks.Item, upd bookmarks.ItemUpdate) {
	if upd.Title != nil {
		item.Title = *upd.Title
	}
	if upd.Description != nil {
		item.Description = *upd.Description
	}
	if upd.ImageURL != nil {
		item.ImageURL = *upd.ImageURL
	}
	if upd.SiteName != nil {
		item.SiteName = *upd.SiteName
	}
	if upd.Author != nil {
		item.Author = *upd.Author
	}
	if upd.FaviconURL != nil {
		item.FaviconURL = *upd.FaviconURL
	}
	if upd.PublishedAt != nil {
		item.PublishedAt = upd.PublishedAt
	}
	if upd.Type != nil {
		item.Type = *upd.Type
	}
	if upd.Status != nil {
		item.Status = *upd.Status
	}
	if upd.Favorite != nil {
		item.Favorite = *upd.Favorite
	}
	if upd.Content != nil {
		item.Content = *upd.Content
	}
	if upd.Excerpt != nil {
		item.Excerpt = *upd.Excerpt
	}
	if upd.Summary != nil {
		item.Summary = *upd.Summary
	}
	if upd.Language != nil {
		item.Language = *upd.Language
	}
	if upd.ReadingTime != nil {
		item.ReadingTime = *upd.ReadingTime
	}
	if upd.WordCount != nil {
		item.WordCount = *upd.WordCount
	}
	if upd.ContentHash != nil {
		item.ContentHash = *upd.ContentHash
	}
	if upd.ProcessingStatus != nil {
		item.ProcessingStatus = *upd.ProcessingStatus
	}
	if upd.ProcessingError != nil {
		item.ProcessingError = *upd.ProcessingError
	}
	if upd.ProcessedAt != nil {
		item.ProcessedAt = upd.ProcessedAt
	}
}

// attachTopics loads topic names for items in link order.
func (s *ItemService) attachTopics(ctx context.Context, items []*bookmarks.Item) error {
	if len(items) == 0 {
		return nil
	}

	byID := make(map[string]*bookmarks.Item, len(items))
	args := make([]any, 0, len(items))
	for _, item := range items {
		item.Topics = []string{}
		byID[item.ID] = item
		args = append(args, item.ID)
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT it.item_id, t.name
		FROM item_topics it
		JOIN topics t ON t.id = it.topic_id
		WHERE it.item_id IN (`+placeholders(len(args))+`)
		ORDER BY it.position ASC
	`, args...)
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var itemID, name string
		if err := rows.Scan(&itemID, &name); err != nil {
			return err
		}
		if item := byID[itemID]; item != nil {
			item.Topics = append(item.Topics, name)
		}
	}
	return rows.Err()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanItem(row scanner) (*bookmarks.Item, error) {
	var item bookmarks.Item
	var typ, status, processingStatus string
	var publishedAt, processedAt, createdAt, updatedAt string

	if err := row.Scan(&item.ID, &item.UserID, &item.URL, &item.Title, &item.Description,
		&item.ImageURL, &item.SiteName, &item.Author, &item.FaviconURL, &publishedAt, &typ, &status,
		&item.Favorite, &item.Content, &item.Excerpt, &item.Summary, &item.Language, &item.ReadingTime,
		&item.WordCount, &item.ContentHash, &processingStatus, &item.ProcessingError, &processedAt,
		&createdAt, &updatedAt); err != nil {
		return nil, err
	}

	item.Type = bookmarks.ContentType(typ)
	item.Status = bookmarks.Status(status)
	item.ProcessingStatus = bookmarks.ProcessingStatus(processingStatus)

	var err error
	if item.PublishedAt, err = parseOptionalRFC3339(publishedAt, "published_at"); err != nil {
		return nil, err
	}
	if item.ProcessedAt, err = parseOptionalRFC3339(processedAt, "processed_at"); err != nil {
		return nil, err
	}
	if item.CreatedAt, err = parseRFC3339(createdAt, "created_at"); err != nil {
		return nil, err
	}
	if item.UpdatedAt, err = parseRFC3339(updatedAt, "updated_at"); err != nil {
		return nil, err
	}

	return &item, nil
}
