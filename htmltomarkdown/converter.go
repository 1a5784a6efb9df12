// Package htmltomarkdown implements bookmarks.Converter with html-to-markdown.
package htmltomarkdown

import (
	"regexp"
	"strings"

	"github.com/JohannesKaufmann/html-to-markdown/v2/converter"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/base"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/commonmark"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/strikethrough"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/table"
	"github.com/landitus/bookmarks"
)

// Ensure Converter implements bookmarks.Converter at compile time.
var _ bookmarks.Converter = (*Converter)(nil)

var blankLines = regexp.MustCompile(`\n{3,}`)

// Converter wraps html-to-markdown to convert HTML to Markdown.
type Converter struct {
	conv *converter.Converter
}

// NewConverter creates a new Converter.
func NewConverter() *Converter {
	conv := converter.NewConverter(
		converter.WithPlugins(
			base.NewBasePlugin(),
			commonmark.NewCommonmarkPlugin(),
			table.NewTablePlugin(),
			strikethrough.NewStrikethroughPlugin(),
		),
	)
	return &Converter{conv: conv}
}

// Convert transforms HTML content into Markdown. Runs of blank lines are
// collapsed and the result is trimmed.
func (c *Converter) Convert(html string) (string, error) {
	if strings.TrimSpace(html) == "" {
		return "", bookmarks.Errorf(bookmarks.EINVALID, "empty HTML input")
	}

	result, err := c.conv.ConvertString(html)
	if err != nil {
		return "", err
	}

	return strings.TrimSpace(blankLines.ReplaceAllString(result, "\n\n")), nil
}
