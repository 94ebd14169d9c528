package cid

import (
	"errors"
	"net/url"
	"strings"
)

const (
	// Param is the query key that carries the attribution token.
	Param = "cid"

	// placeholderOrigin resolves relative input when no origin hint is known.
	placeholderOrigin = "https://placeholder.local"
)

// Extraction is the result of looking for a token in a URL.
// SanitizedHref is set only when CID is set.
type Extraction struct {
	CID           string
	SanitizedHref string
}

// Found reports whether a token was extracted.
func (e Extraction) Found() bool { return e.CID != "" }

// Parse parses rawURL as an absolute URL and, failing that, resolves it against
// originHint. Relative and partial inputs such as "/landing?cid=x" are accepted.
// The result is canonical: scheme and host are lower-cased, a default port is
// dropped and an http(s) URL without a path gets "/".
func Parse(rawURL, originHint string) (*url.URL, error) {
	if u, err := url.Parse(rawURL); err == nil && u.IsAbs() {
		return canonical(u), nil
	}

	if originHint == "" {
		originHint = placeholderOrigin
	}
	base, err := url.Parse(originHint)
	if err != nil || !base.IsAbs() {
		return nil, ErrUnparsable
	}

	ref, err := url.Parse(rawURL)
	if err != nil {
		return nil, errors.Join(ErrUnparsable, err)
	}
	return canonical(base.ResolveReference(ref)), nil
}

func canonical(u *url.URL) *url.URL {
	u.Scheme = strings.ToLower(u.Scheme)
	if u.Host == "" {
		return u
	}
	u.Host = hostPort(u)
	if u.Path == "" && u.Opaque == "" && (u.Scheme == "http" || u.Scheme == "https") {
		u.Path, u.RawPath = "/", ""
	}
	return u
}

// Extract returns the token carried by u together with u's sanitized form.
func Extract(u *url.URL) Extraction {
	if u == nil {
		return Extraction{}
	}

	sanitized := *u

	// Fragment is left untouched when the query carries the token.
	if token, rest, ok := takeParam(u.RawQuery); ok {
		sanitized.RawQuery = rest
		sanitized.ForceQuery = false
		return Extraction{CID: token, SanitizedHref: sanitized.String()}
	}

	if u.Fragment == "" && u.RawFragment == "" {
		return Extraction{}
	}

	token, hash := ExtractFromHash("#" + u.EscapedFragment())
	if token == "" {
		return Extraction{}
	}
	setFragment(&sanitized, strings.TrimPrefix(hash, "#"))
	return Extraction{CID: token, SanitizedHref: sanitized.String()}
}

// ExtractFromHash looks for a token inside a fragment ("#route?cid=x&k=v" or
// "#cid=x&k=v"). It returns the token and the rebuilt fragment including the
// leading "#", or an empty string when nothing remains. When no token is found
// the fragment is returned unchanged.
func ExtractFromHash(hash string) (string, string) {
	if hash == "" {
		return "", ""
	}

	trimmed := strings.TrimPrefix(hash, "#")
	path, query := splitHash(trimmed)

	if query != "" {
		token, rest, ok := takeParam(query)
		if !ok {
			return "", hash
		}
		return token, buildHash(path, rest)
	}

	if strings.HasPrefix(trimmed, Param+"=") {
		token, rest, ok := takeParam(trimmed)
		if !ok {
			return "", hash
		}
		if rest == "" {
			return token, ""
		}
		return token, "#" + rest
	}

	return "", hash
}

// FromURL parses rawURL and returns its token, or an empty string.
func FromURL(rawURL, originHint string) string {
	u, err := Parse(rawURL, originHint)
	if err != nil {
		return ""
	}
	return Extract(u).CID
}

// Origin returns the scheme://host[:port] of rawURL, lower-cased and without a
// default port. It returns an empty string for inputs without a host.
func Origin(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil || !u.IsAbs() {
		return ""
	}
	return OriginOf(u)
}

// OriginOf is Origin for an already parsed URL.
func OriginOf(u *url.URL) string {
	if u == nil || u.Host == "" {
		return ""
	}
	return strings.ToLower(u.Scheme) + "://" + hostPort(u)
}

// hostPort returns u's lower-cased host with any non-default port.
func hostPort(u *url.URL) string {
	scheme := strings.ToLower(u.Scheme)
	host := strings.ToLower(u.Hostname())
	port := u.Port()
	if (scheme == "https" && port == "443") || (scheme == "http" && port == "80") {
		port = ""
	}
	if strings.Contains(host, ":") {
		host = "[" + host + "]"
	}
	if port != "" {
		host += ":" + port
	}
	return host
}

// SameOrigin compares two origins ignoring a single trailing slash.
// Empty origins never match.
func SameOrigin(a, b string) bool {
	if a == "" || b == "" {
		return false
	}
	return strings.TrimSuffix(a, "/") == strings.TrimSuffix(b, "/")
}

// takeParam returns the first non-empty token in a raw "k=v&k=v" string and
// the string with every token pair removed. Other pairs are kept verbatim.
func takeParam(raw string) (string, string, bool) {
	if raw == "" {
		return "", raw, false
	}

	var (
		token string
		seen  bool
		kept  []string
	)
	for _, pair := range strings.Split(raw, "&") {
		if pair == "" {
			continue
		}
		key, value, _ := strings.Cut(pair, "=")
		if unescape(key) != Param {
			kept = append(kept, pair)
			continue
		}
		if !seen {
			token = unescape(value)
			seen = true
		}
	}

	if token == "" {
		return "", raw, false
	}
	return token, strings.Join(kept, "&"), true
}

func unescape(s string) string {
	v, err := url.QueryUnescape(s)
	if err != nil {
		return s
	}
	return v
}

// splitHash splits a fragment (without "#") at the first "?".
func splitHash(hash string) (string, string) {
	path, query, found := strings.Cut(hash, "?")
	if !found {
		return hash, ""
	}
	return path, query
}

func buildHash(path, query string) string {
	switch {
	case path == "" && query == "":
		return ""
	case path == "":
		return "#?" + query
	case query == "":
		return "#" + path
	default:
		return "#" + path + "?" + query
	}
}

func setFragment(u *url.URL, raw string) {
	if raw == "" {
		u.Fragment, u.RawFragment = "", ""
		return
	}
	decoded, err := url.PathUnescape(raw)
	if err != nil {
		decoded = raw
	}
	u.Fragment = decoded
	u.RawFragment = raw
}
