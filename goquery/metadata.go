package goquery

import (
	"encoding/json"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/landitus/bookmarks"
)

// Ensure MetadataScraper implements bookmarks.MetadataScraper at compile time.
var _ bookmarks.MetadataScraper = (*MetadataScraper)(nil)

// MetadataScraper reads page metadata from Open Graph, Twitter card, JSON-LD
// and standard HTML tags. The first non-empty source wins for each field.
type MetadataScraper struct{}

// NewMetadataScraper creates a new MetadataScraper.
func NewMetadataScraper() *MetadataScraper {
	return &MetadataScraper{}
}

// Scrape parses html fetched from pageURL.
func (s *MetadataScraper) Scrape(html, pageURL string) (*bookmarks.Metadata, error) {
	base, err := url.Parse(pageURL)
	if err != nil {
		return nil, bookmarks.Errorf(bookmarks.EINVALID, "invalid page URL: %v", err)
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, bookmarks.Errorf(bookmarks.EINVALID, "failed to parse HTML: %v", err)
	}

	meta := collectMeta(doc)
	ld := collectLinkedData(doc)

	md := &bookmarks.Metadata{
		Title: first(
			meta["og:title"],
			meta["twitter:title"],
			ld.Headline,
			ld.Name,
			clean(doc.Find("head title").First().Text()),
			clean(doc.Find("h1").First().Text()),
		),
		Description: first(
			meta["og:description"],
			meta["twitter:description"],
			meta["description"],
			ld.Description,
		),
		Image: resolveRef(base, first(
			meta["og:image"],
			meta["og:image:url"],
			meta["og:image:secure_url"],
			meta["twitter:image"],
			meta["twitter:image:src"],
			ld.Image,
			linkHref(doc, "image_src"),
		)),
		SiteName: first(
			meta["og:site_name"],
			meta["application-name"],
			ld.Publisher,
		),
		Author: first(
			meta["author"],
			nonURL(meta["article:author"]),
			ld.Author,
			meta["twitter:creator"],
			clean(doc.Find(`[rel="author"]`).First().Text()),
		),
		Canonical: resolveRef(base, first(linkHref(doc, "canonical"), meta["og:url"])),
		Type:      meta["og:type"],
		Language:  language(doc, meta["og:locale"]),
	}

	md.Favicon = resolveRef(base, first(
		linkHref(doc, "icon"),
		linkHref(doc, "shortcut icon"),
		linkHref(doc, "apple-touch-icon"),
		"/favicon.ico",
	))

	if published := first(
		meta["article:published_time"],
		meta["og:published_time"],
		ld.DatePublished,
		meta["date"],
		meta["dc.date"],
		doc.Find("time[datetime]").First().AttrOr("datetime", ""),
	); published != "" {
		if t, ok := parseDate(published); ok {
			md.PublishedAt = &t
		}
	}

	return md, nil
}

// collectMeta indexes <meta> tags by lower-cased property or name.
// The first occurrence of a key wins.
func collectMeta(doc *goquery.Document) map[string]string {
	meta := make(map[string]string)
	doc.Find("meta").Each(func(_ int, sel *goquery.Selection) {
		key := sel.AttrOr("property", "")
		if key == "" {
			key = sel.AttrOr("name", "")
		}
		if key == "" {
			key = sel.AttrOr("itemprop", "")
		}
		key = strings.ToLower(strings.TrimSpace(key))
		content := clean(sel.AttrOr("content", ""))
		if key == "" || content == "" {
			return
		}
		if _, ok := meta[key]; !ok {
			meta[key] = content
		}
	})
	return meta
}

// linkHref returns the href of the first <link> whose rel matches exactly
// (case-insensitive).
func linkHref(doc *goquery.Document, rel string) string {
	var href string
	doc.Find("link[rel][href]").EachWithBreak(func(_ int, sel *goquery.Selection) bool {
		if strings.EqualFold(strings.TrimSpace(sel.AttrOr("rel", "")), rel) {
			href = strings.TrimSpace(sel.AttrOr("href", ""))
			return href == ""
		}
		return true
	})
	return href
}

func language(doc *goquery.Document, locale string) string {
	lang := first(doc.Find("html").AttrOr("lang", ""), locale)
	lang = strings.ToLower(strings.TrimSpace(lang))
	if i := strings.IndexAny(lang, "-_"); i > 0 {
		lang = lang[:i]
	}
	return lang
}

// linkedData holds the JSON-LD fields the scraper uses.
type linkedData struct {
	Headline      string
	Name          string
	Description   string
	Image         string
	Author        string
	Publisher     string
	DatePublished string
}

// collectLinkedData merges schema.org objects found in JSON-LD scripts,
// including @graph members. Earlier objects take precedence.
func collectLinkedData(doc *goquery.Document) linkedData {
	var ld linkedData
	doc.Find(`script[type="application/ld+json"]`).Each(func(_ int, sel *goquery.Selection) {
		var v any
		if err := json.Unmarshal([]byte(sel.Text()), &v); err != nil {
			return
		}
		for _, obj := range flattenLinkedData(v) {
			ld.Headline = first(ld.Headline, str(obj["headline"]))
			ld.Name = first(ld.Name, str(obj["name"]))
			ld.Description = first(ld.Description, str(obj["description"]))
			ld.Image = first(ld.Image, str(obj["image"]))
			ld.Author = first(ld.Author, str(obj["author"]))
			ld.Publisher = first(ld.Publisher, str(obj["publisher"]))
			ld.DatePublished = first(ld.DatePublished, str(obj["datePublished"]))
		}
	})
	return ld
}

func flattenLinkedData(v any) []map[string]any {
	switch v := v.(type) {
	case []any:
		var out []map[string]any
		for _, e := range v {
			out = append(out, flattenLinkedData(e)...)
		}
		return out
	case map[string]any:
		if graph, ok := v["@graph"]; ok {
			return flattenLinkedData(graph)
		}
		return []map[string]any{v}
	}
	return nil
}

// str reduces a JSON-LD value to a string: strings as is, the first element
// of arrays, and the name or url of nested objects.
func str(v any) string {
	switch v := v.(type) {
	case string:
		return clean(v)
	case []any:
		if len(v) > 0 {
			return str(v[0])
		}
	case map[string]any:
		return first(str(v["name"]), str(v["url"]))
	}
	return ""
}

var dateLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05Z0700",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
	time.RFC1123Z,
	time.RFC1123,
}

func parseDate(s string) (time.Time, bool) {
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), true
		}
	}
	return time.Time{}, false
}

func resolveRef(base *url.URL, href string) string {
	if href == "" {
		return ""
	}
	ref, err := url.Parse(href)
	if err != nil {
		return ""
	}
	return base.ResolveReference(ref).String()
}

func nonURL(s string) string {
	if strings.HasPrefix(s, "http://") || strings.HasPrefix(s, "https://") {
		return ""
	}
	return s
}

func clean(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

func first(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
