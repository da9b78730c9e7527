package mirror

import (
	"net/url"
	"path/filepath"

	"github.com/PuerkitoBio/goquery"
	"github.com/gomirror/sitemirror/internal/pathmap"
	"github.com/gomirror/sitemirror/internal/urlutil"
)

// RewriteLinks rewrites every internal href/src attribute in doc to a path
// relative to pageDir, using the same mapping that places the referenced
// file on disk. External references, fragments, and non-fetchable schemes
// are left untouched verbatim. It returns the number of attributes
// rewritten.
func RewriteLinks(doc *goquery.Document, pageURL *url.URL, root, pageDir string) int {
	rootHost := pageURL.Host
	rewritten := 0
	doc.Find("a, img, script, link").Each(func(_ int, sel *goquery.Selection) {
		attr := attrName(sel)
		original, ok := sel.Attr(attr)
		if !ok {
			return
		}
		ref := urlutil.Sanitize(original)
		if ref == "" || urlutil.IsFragment(ref) || urlutil.IsNonFetchable(ref) || !urlutil.IsHTTPish(ref) {
			return
		}
		abs, err := pageURL.Parse(ref)
		if err != nil {
			return
		}
		if !urlutil.IsInternal(abs, rootHost) {
			return
		}
		local := pathmap.Map(abs, root)
		rel, err := filepath.Rel(pageDir, local)
		if err != nil {
			rel = local
		}
		sel.SetAttr(attr, filepath.ToSlash(rel))
		rewritten++
	})
	return rewritten
}

// attrName picks the reference attribute by tag: href for a/link, src for
// img/script.
func attrName(sel *goquery.Selection) string {
	switch goquery.NodeName(sel) {
	case "a", "link":
		return "href"
	default:
		return "src"
	}
}

// refAttr extracts a tag's reference during enumeration, preferring src
// over href.
func refAttr(sel *goquery.Selection) (string, bool) {
	if v, ok := sel.Attr("src"); ok && v != "" {
		return v, true
	}
	if v, ok := sel.Attr("href"); ok && v != "" {
		return v, true
	}
	return "", false
}
