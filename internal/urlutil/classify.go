// Package urlutil contains the pure URL predicates that decide what gets
// fetched, what gets rewritten, and what is left alone during a mirror run.
package urlutil

import (
	"net/url"
	"path"
	"strings"
)

// nonFetchableSchemes lists schemes that cannot be meaningfully downloaded.
var nonFetchableSchemes = map[string]struct{}{
	"mailto":     {},
	"tel":        {},
	"sms":        {},
	"javascript": {},
	"data":       {},
	"geo":        {},
	"blob":       {},
}

// Classification is the result of evaluating a reference against a root host.
type Classification struct {
	Fetchable bool
	Internal  bool
}

// Classify evaluates a raw reference against the crawl's root host.
// A reference is fetchable iff it is http-ish and its scheme is not in the
// excluded set; it is internal iff it carries no host or its host equals
// rootHost exactly.
func Classify(raw, rootHost string) Classification {
	u, err := url.Parse(raw)
	if err != nil {
		return Classification{}
	}
	var c Classification
	if _, excluded := nonFetchableSchemes[u.Scheme]; !excluded {
		c.Fetchable = u.Scheme == "http" || u.Scheme == "https" || u.Scheme == ""
	}
	c.Internal = u.Host == "" || u.Host == rootHost
	return c
}

// Sanitize strips Windows backslashes and parent-directory references from
// a raw href/src value before it is classified or resolved.
func Sanitize(ref string) string {
	ref = strings.ReplaceAll(ref, `\`, "/")
	ref = strings.ReplaceAll(ref, "..", "")
	return strings.TrimSpace(ref)
}

// IsFragment reports whether ref is a same-page fragment reference.
// Fragments are skipped before any classification happens.
func IsFragment(ref string) bool {
	return strings.HasPrefix(ref, "#")
}

// IsHTTPish reports whether raw has an http, https, or empty scheme.
// Relative and protocol-relative references count as http-ish.
func IsHTTPish(raw string) bool {
	u, err := url.Parse(raw)
	if err != nil {
		return false
	}
	return u.Scheme == "http" || u.Scheme == "https" || u.Scheme == ""
}

// IsNonFetchable reports whether raw uses a scheme that cannot be
// downloaded (mailto:, tel:, javascript:, ...).
func IsNonFetchable(raw string) bool {
	u, err := url.Parse(raw)
	if err != nil {
		return false
	}
	_, excluded := nonFetchableSchemes[u.Scheme]
	return excluded
}

// IsInternal reports whether u belongs to rootHost. The host comparison is
// an exact string compare; a URL with no host at all (relative reference)
// is internal.
func IsInternal(u *url.URL, rootHost string) bool {
	return u.Host == "" || u.Host == rootHost
}

// IsPageLike reports whether u looks like an HTML page rather than an
// asset: its path ends in a slash or carries no file extension.
func IsPageLike(u *url.URL) bool {
	if strings.HasSuffix(u.Path, "/") {
		return true
	}
	return path.Ext(u.Path) == ""
}
