package bookmarks

import (
	"context"
	"net/url"
	"strings"
	"time"
	"unicode"
)

// Status is the lifecycle bucket an item lives in.
type Status string

// Status constants. New items land in the inbox.
const (
	StatusInbox   Status = "inbox"
	StatusQueue   Status = "queue"
	StatusLibrary Status = "library"
	StatusArchive Status = "archive"
)

// Statuses lists every valid status in display order.
var Statuses = []Status{StatusInbox, StatusQueue, StatusLibrary, StatusArchive}

// IsValid reports whether s is a known status.
func (s Status) IsValid() bool {
	switch s {
	case StatusInbox, StatusQueue, StatusLibrary, StatusArchive:
		return true
	}
	return false
}

// ParseStatus parses a status name case-insensitively.
func ParseStatus(s string) (Status, error) {
	status := Status(strings.ToLower(strings.TrimSpace(s)))
	if !status.IsValid() {
		return "", Errorf(EINVALID, "unknown status %q", s)
	}
	return status, nil
}

// ProcessingStatus tracks content extraction and enrichment of an item.
type ProcessingStatus string

// ProcessingStatus constants.
const (
	ProcessingPending    ProcessingStatus = "pending"
	ProcessingProcessing ProcessingStatus = "processing"
	ProcessingCompleted  ProcessingStatus = "completed"
	ProcessingFailed     ProcessingStatus = "failed"
)

// IsValid reports whether s is a known processing status.
func (s ProcessingStatus) IsValid() bool {
	switch s {
	case ProcessingPending, ProcessingProcessing, ProcessingCompleted, ProcessingFailed:
		return true
	}
	return false
}

// Item represents a saved URL with its scraped and enriched metadata.
type Item struct {
	ID          string     `json:"id"`
	UserID      string     `json:"userId"`
	URL         string     `json:"url"`
	Title       string     `json:"title"`
	Description string     `json:"description"`
	ImageURL    string     `json:"imageUrl"`
	SiteName    string     `json:"siteName"`
	Author      string     `json:"author"`
	FaviconURL  string     `json:"faviconUrl"`
	PublishedAt *time.Time `json:"publishedAt,omitempty"`

	Type     ContentType `json:"type"`
	Status   Status      `json:"status"`
	Favorite bool        `json:"favorite"`

	// Content is the readable body as Markdown.
	Content     string   `json:"content,omitempty"`
	Excerpt     string   `json:"excerpt"`
	Summary     string   `json:"summary"`
	Language    string   `json:"language"`
	ReadingTime int      `json:"readingTime"`
	WordCount   int      `json:"wordCount"`
	ContentHash string   `json:"contentHash"`
	Topics      []string `json:"topics"`

	ProcessingStatus ProcessingStatus `json:"processingStatus"`
	ProcessingError  string           `json:"processingError,omitempty"`
	ProcessedAt      *time.Time       `json:"processedAt,omitempty"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Validate returns an error if the item contains invalid fields.
func (i *Item) Validate() error {
	if i.UserID == "" {
		return Errorf(EINVALID, "item user ID required")
	}
	if i.URL == "" {
		return Errorf(EINVALID, "item URL required")
	}
	if !i.Status.IsValid() {
		return Errorf(EINVALID, "invalid item status %q", i.Status)
	}
	if !i.Type.IsValid() {
		return Errorf(EINVALID, "invalid item type %q", i.Type)
	}
	if !i.ProcessingStatus.IsValid() {
		return Errorf(EINVALID, "invalid processing status %q", i.ProcessingStatus)
	}
	return nil
}

// DisplayTitle returns the title, falling back to the URL's host and path.
func (i *Item) DisplayTitle() string {
	if i.Title != "" {
		return i.Title
	}
	u, err := url.Parse(i.URL)
	if err != nil || u.Host == "" {
		return i.URL
	}
	return strings.TrimSuffix(u.Host+u.Path, "/")
}

// ItemService represents a service for managing items.
type ItemService interface {
	// CreateItem creates a new item.
	CreateItem(ctx context.Context, item *Item) error

	// FindItemByID retrieves an item by ID, including its topics.
	// Returns ENOTFOUND if the item does not exist.
	FindItemByID(ctx context.Context, id string) (*Item, error)

	// FindItems retrieves items matching the filter, newest first.
	FindItems(ctx context.Context, filter ItemFilter) ([]*Item, error)

	// UpdateItem updates an existing item.
	// Returns ENOTFOUND if the item does not exist.
	UpdateItem(ctx context.Context, id string, upd ItemUpdate) (*Item, error)

	// DeleteItem permanently removes an item and its topic links.
	// Returns ENOTFOUND if the item does not exist.
	DeleteItem(ctx context.Context, id string) error
}

// ItemFilter represents a filter for FindItems.
type ItemFilter struct {
	ID               *string           `json:"id"`
	UserID           *string           `json:"userId"`
	URL              *string           `json:"url"`
	Status           *Status           `json:"status"`
	Type             *ContentType      `json:"type"`
	Topic            *string           `json:"topic"` // topic slug
	Favorite         *bool             `json:"favorite"`
	ProcessingStatus *ProcessingStatus `json:"processingStatus"`

	// Query matches a substring of the title, description or URL.
	Query string `json:"query"`

	Offset int `json:"offset"`
	Limit  int `json:"limit"`
}

// ItemUpdate represents fields that can be updated on an item.
type ItemUpdate struct {
	Title       *string      `json:"title"`
	Description *string      `json:"description"`
	ImageURL    *string      `json:"imageUrl"`
	SiteName    *string      `json:"siteName"`
	Author      *string      `json:"author"`
	FaviconURL  *string      `json:"faviconUrl"`
	PublishedAt *time.Time   `json:"publishedAt"`
	Type        *ContentType `json:"type"`
	Status      *Status      `json:"status"`
	Favorite    *bool        `json:"favorite"`

	Content     *string `json:"content"`
	Excerpt     *string `json:"excerpt"`
	Summary     *string `json:"summary"`
	Language    *string `json:"language"`
	ReadingTime *int    `json:"readingTime"`
	WordCount   *int    `json:"wordCount"`
	ContentHash *string `json:"contentHash"`

	ProcessingStatus *ProcessingStatus `json:"processingStatus"`
	ProcessingError  *string           `json:"processingError"`
	ProcessedAt      *time.Time        `json:"processedAt"`
}

// WordsPerMinute is the reading speed used for reading time estimates.
const WordsPerMinute = 200

// CountWords returns the number of whitespace-separated words in text.
func CountWords(text string) int {
	return len(strings.FieldsFunc(text, unicode.IsSpace))
}

// ReadingTime returns the estimated reading time in minutes for the given
// word count, rounded up. Zero words take zero minutes.
func ReadingTime(words int) int {
	if words <= 0 {
		return 0
	}
	return (words + WordsPerMinute - 1) / WordsPerMinute
}
