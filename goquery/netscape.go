package goquery

import (
	"io"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/landitus/bookmarks"
)

// ParseBookmarkFile reads a Netscape bookmark file, the HTML format browsers
// use to export bookmarks, and returns the http(s) links in document order.
func ParseBookmarkFile(r io.Reader) ([]string, error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return nil, bookmarks.Errorf(bookmarks.EINVALID, "failed to parse bookmark file: %v", err)
	}

	var urls []string
	doc.Find("a[href]").Each(func(_ int, sel *goquery.Selection) {
		href := strings.TrimSpace(sel.AttrOr("href", ""))
		lower := strings.ToLower(href)
		if !strings.HasPrefix(lower, "http://") && !strings.HasPrefix(lower, "https://") {
			return
		}
		urls = append(urls, href)
	})

	return urls, nil
}
