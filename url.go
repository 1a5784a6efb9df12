package bookmarks

import (
	"net"
	"net/url"
	"slices"
	"strings"
)

// trackingParams are query parameters stripped during normalization.
var trackingParams = map[string]bool{
	"fbclid":  true,
	"gclid":   true,
	"mc_cid":  true,
	"mc_eid":  true,
	"ref_src": true,
}

// NormalizeURL canonicalizes a user-submitted URL so the same page saved twice
// maps to the same item. A missing scheme defaults to https; only http and
// https are accepted. The host is lower-cased, default ports, fragments and
// tracking parameters are dropped, remaining query parameters are sorted and
// trailing slashes are removed from the path.
func NormalizeURL(raw string) (string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", Errorf(EINVALID, "URL required")
	}
	if !strings.Contains(raw, "://") {
		raw = "https://" + raw
	}

	u, err := url.Parse(raw)
	if err != nil {
		return "", Errorf(EINVALID, "invalid URL %q", raw)
	}

	u.Scheme = strings.ToLower(u.Scheme)
	if u.Scheme != "http" && u.Scheme != "https" {
		return "", Errorf(EINVALID, "unsupported URL scheme %q", u.Scheme)
	}

	host := strings.ToLower(u.Hostname())
	if host == "" {
		return "", Errorf(EINVALID, "URL host required")
	}
	port := u.Port()
	if (u.Scheme == "http" && port == "80") || (u.Scheme == "https" && port == "443") {
		port = ""
	}
	if port != "" {
		u.Host = net.JoinHostPort(host, port)
	} else if strings.Contains(host, ":") {
		u.Host = "[" + host + "]"
	} else {
		u.Host = host
	}

	u.Fragment = ""
	u.RawFragment = ""
	u.User = nil

	u.RawQuery = normalizeQuery(u.RawQuery)
	u.ForceQuery = false

	if strings.HasSuffix(u.Path, "/") {
		u.Path = strings.TrimRight(u.Path, "/")
		u.RawPath = ""
	}

	return u.String(), nil
}

// normalizeQuery drops tracking parameters and sorts the remaining pairs by
// key. Pairs are kept byte for byte, so values containing ';' and bare keys
// such as "?flag" survive unchanged.
func normalizeQuery(rawQuery string) string {
	if rawQuery == "" {
		return ""
	}

	type pair struct{ key, raw string }
	var pairs []pair
	for _, raw := range strings.Split(rawQuery, "&") {
		if raw == "" {
			continue
		}
		key, _, _ := strings.Cut(raw, "=")
		if k, err := url.QueryUnescape(key); err == nil {
			key = k
		}
		lower := strings.ToLower(key)
		if strings.HasPrefix(lower, "utm_") || trackingParams[lower] {
			continue
		}
		pairs = append(pairs, pair{key: key, raw: raw})
	}

	slices.SortStableFunc(pairs, func(a, b pair) int {
		return strings.Compare(a.key, b.key)
	})

	kept := make([]string, len(pairs))
	for i, p := range pairs {
		kept[i] = p.raw
	}
	return strings.Join(kept, "&")
}

// Hostname returns the lower-cased host of rawURL without a "www." prefix,
// or an empty string when rawURL cannot be parsed.
func Hostname(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return ""
	}
	return strings.TrimPrefix(strings.ToLower(u.Hostname()), "www.")
}
