package bookmarks

import (
	"context"
	"strings"
	"time"
	"unicode"
)

// MaxItemTopics caps the number of topics attached to a single item.
const MaxItemTopics = 5

// Topic is a user-scoped tag attached to items by enrichment.
type Topic struct {
	ID        string    `json:"id"`
	UserID    string    `json:"userId"`
	Name      string    `json:"name"`
	Slug      string    `json:"slug"`
	ItemCount int       `json:"itemCount"`
	CreatedAt time.Time `json:"createdAt"`
}

// Validate returns an error if the topic contains invalid fields.
func (t *Topic) Validate() error {
	if t.UserID == "" {
		return Errorf(EINVALID, "topic user ID required")
	}
	if t.Name == "" {
		return Errorf(EINVALID, "topic name required")
	}
	if t.Slug == "" {
		return Errorf(EINVALID, "topic slug required")
	}
	return nil
}

// TopicService represents a service for managing topics.
type TopicService interface {
	// FindTopics retrieves topics matching the filter with their item counts,
	// ordered by name.
	FindTopics(ctx context.Context, filter TopicFilter) ([]*Topic, error)

	// SetItemTopics replaces the topics of an item. Topics are created on
	// demand and matched by slug. Returns the resulting topics.
	// Returns ENOTFOUND if the item does not exist.
	SetItemTopics(ctx context.Context, userID, itemID string, names []string) ([]*Topic, error)

	// DeleteTopic removes a topic and detaches it from all items.
	// Returns ENOTFOUND if the topic does not exist.
	DeleteTopic(ctx context.Context, id string) error
}

// TopicFilter represents a filter for FindTopics.
type TopicFilter struct {
	UserID *string `json:"userId"`
	Slug   *string `json:"slug"`

	Offset int `json:"offset"`
	Limit  int `json:"limit"`
}

// Slugify converts a topic name into a lower-case, hyphen-separated slug.
// Letters and digits of any script are kept.
func Slugify(name string) string {
	var b strings.Builder
	hyphen := false
	for _, r := range strings.ToLower(strings.TrimSpace(name)) {
		switch {
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			b.WriteRune(r)
			hyphen = false
		case b.Len() > 0 && !hyphen:
			b.WriteByte('-')
			hyphen = true
		}
	}
	return strings.TrimSuffix(b.String(), "-")
}

// CleanTopics trims names, drops empty ones and duplicates by slug, and caps
// the result at MaxItemTopics. Order is preserved.
func CleanTopics(names []string) []string {
	seen := make(map[string]bool)
	var out []string
	for _, name := range names {
		name = strings.TrimSpace(name)
		slug := Slugify(name)
		if slug == "" || seen[slug] {
			continue
		}
		seen[slug] = true
		out = append(out, name)
		if len(out) == MaxItemTopics {
			break
		}
	}
	return out
}
