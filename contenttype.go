package bookmarks

import (
	"mime"
	"net/url"
	"path"
	"strings"
)

// ContentType classifies what kind of resource an item points at.
type ContentType string

// ContentType constants.
const (
	TypeArticle    ContentType = "article"
	TypeVideo      ContentType = "video"
	TypeAudio      ContentType = "audio"
	TypeImage      ContentType = "image"
	TypePDF        ContentType = "pdf"
	TypeRepository ContentType = "repository"
	TypeProduct    ContentType = "product"
	TypeSocial     ContentType = "social"
	TypeWebsite    ContentType = "website"
)

// ContentTypes lists every valid content type.
var ContentTypes = []ContentType{
	TypeArticle, TypeVideo, TypeAudio, TypeImage, TypePDF,
	TypeRepository, TypeProduct, TypeSocial, TypeWebsite,
}

// IsValid reports whether t is a known content type.
func (t ContentType) IsValid() bool {
	for _, ct := range ContentTypes {
		if t == ct {
			return true
		}
	}
	return false
}

// ParseContentType parses a content type name case-insensitively.
func ParseContentType(s string) (ContentType, error) {
	t := ContentType(strings.ToLower(strings.TrimSpace(s)))
	if !t.IsValid() {
		return "", Errorf(EINVALID, "unknown content type %q", s)
	}
	return t, nil
}

// weak reports whether t is a guess that a better signal may replace.
func (t ContentType) weak() bool {
	return t == TypeWebsite || t == TypeArticle || t == ""
}

// MergeContentType returns the type proposed by enrichment when the detected
// type is only a weak guess (website or article). Invalid proposals are ignored.
func MergeContentType(detected, proposed ContentType) ContentType {
	if !proposed.IsValid() {
		return detected
	}
	if detected.weak() {
		return proposed
	}
	return detected
}

var hostTypes = map[string]ContentType{
	"youtube.com":        TypeVideo,
	"youtu.be":           TypeVideo,
	"vimeo.com":          TypeVideo,
	"twitch.tv":          TypeVideo,
	"open.spotify.com":   TypeAudio,
	"soundcloud.com":     TypeAudio,
	"podcasts.apple.com": TypeAudio,
	"twitter.com":        TypeSocial,
	"x.com":              TypeSocial,
	"bsky.app":           TypeSocial,
	"mastodon.social":    TypeSocial,
	"threads.net":        TypeSocial,
	"etsy.com":           TypeProduct,
	"github.com":         TypeRepository,
	"gitlab.com":         TypeRepository,
	"bitbucket.org":      TypeRepository,
	"codeberg.org":       TypeRepository,
}

var extensionTypes = map[string]ContentType{
	".pdf":  TypePDF,
	".png":  TypeImage,
	".jpg":  TypeImage,
	".jpeg": TypeImage,
	".gif":  TypeImage,
	".webp": TypeImage,
	".svg":  TypeImage,
	".mp4":  TypeVideo,
	".webm": TypeVideo,
	".mov":  TypeVideo,
	".mp3":  TypeAudio,
	".m4a":  TypeAudio,
	".ogg":  TypeAudio,
	".wav":  TypeAudio,
}

// DetectContentType classifies a resource from its URL, the MIME type of the
// HTTP response and its Open Graph type. Rules are applied in order: MIME type,
// well-known hosts, URL path extension, Open Graph type. Anything else is a
// website.
func DetectContentType(rawURL, mimeType, ogType string) ContentType {
	if t := typeFromMIME(mimeType); t != "" {
		return t
	}

	u, err := url.Parse(rawURL)
	if err == nil {
		if t := typeFromHost(u); t != "" {
			return t
		}
		if t, ok := extensionTypes[strings.ToLower(path.Ext(u.Path))]; ok {
			return t
		}
	}

	og := strings.ToLower(strings.TrimSpace(ogType))
	switch {
	case strings.HasPrefix(og, "video"):
		return TypeVideo
	case strings.HasPrefix(og, "music"):
		return TypeAudio
	case og == "article":
		return TypeArticle
	case og == "product" || strings.HasPrefix(og, "product."):
		return TypeProduct
	}

	return TypeWebsite
}

func typeFromMIME(mimeType string) ContentType {
	if mimeType == "" {
		return ""
	}
	mt, _, err := mime.ParseMediaType(mimeType)
	if err != nil {
		return ""
	}
	switch {
	case mt == "application/pdf":
		return TypePDF
	case strings.HasPrefix(mt, "image/"):
		return TypeImage
	case strings.HasPrefix(mt, "video/"):
		return TypeVideo
	case strings.HasPrefix(mt, "audio/"):
		return TypeAudio
	}
	return ""
}

func typeFromHost(u *url.URL) ContentType {
	host := strings.TrimPrefix(strings.ToLower(u.Hostname()), "www.")
	host = strings.TrimPrefix(host, "m.")

	if strings.HasPrefix(host, "amazon.") || strings.Contains(host, ".amazon.") {
		return TypeProduct
	}

	t, ok := hostTypes[host]
	if !ok {
		return ""
	}

	// Only owner/repo paths on code hosts are repositories.
	if t == TypeRepository {
		segments := strings.Split(strings.Trim(u.Path, "/"), "/")
		if len(segments) < 2 || segments[0] == "" || segments[1] == "" {
			return ""
		}
	}
	return t
}
