package bookmarks

import (
	"fmt"
	"strings"
)

// FormatItem renders an item as a Markdown document for display.
// The header carries the title and a metadata line; the summary and the
// readable content follow when present.
func FormatItem(item *Item) string {
	var b strings.Builder

	fmt.Fprintf(&b, "# %s\n\n", item.DisplayTitle())

	meta := []string{string(item.Status), string(item.Type)}
	if item.Favorite {
		meta = append(meta, "favorite")
	}
	if item.ReadingTime > 0 {
		meta = append(meta, fmt.Sprintf("%d min read", item.ReadingTime))
	}
	if item.ProcessingStatus != ProcessingCompleted {
		meta = append(meta, "processing "+string(item.ProcessingStatus))
	}
	fmt.Fprintf(&b, "%s\n%s\n", item.URL, strings.Join(meta, " · "))

	if len(item.Topics) > 0 {
		fmt.Fprintf(&b, "Topics: %s\n", strings.Join(item.Topics, ", "))
	}
	if item.ProcessingError != "" {
		fmt.Fprintf(&b, "Error: %s\n", item.ProcessingError)
	}

	if item.Summary != "" {
		fmt.Fprintf(&b, "\n## Summary\n\n%s\n", item.Summary)
	} else if item.Description != "" {
		fmt.Fprintf(&b, "\n%s\n", item.Description)
	}

	if item.Content != "" {
		fmt.Fprintf(&b, "\n---\n\n%s\n", strings.TrimSpace(item.Content))
	}

	return b.String()
}
