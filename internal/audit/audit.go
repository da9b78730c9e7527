// Package audit verifies a finished mirror: it re-derives every resource
// the mirrored pages reference and checks that each one exists somewhere
// under the mirror root. Matching is by basename only, deliberately
// tolerant of files having been moved or renamed since the crawl.
package audit

import (
	"fmt"
	"io"
	"io/fs"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"go.uber.org/zap"

	"github.com/gomirror/sitemirror/internal/urlutil"
)

// Report summarizes one audit run.
type Report struct {
	BaseURL        string
	Root           string
	HTMLFiles      int
	TotalResources int
	Missing        []string
}

// MissingPercent returns the share of referenced resources that could not
// be found, as a percentage. Zero referenced resources yields zero.
func (r Report) MissingPercent() float64 {
	if r.TotalResources == 0 {
		return 0
	}
	return float64(len(r.Missing)) / float64(r.TotalResources) * 100
}

// WriteMissing writes the newline-delimited list of missing resource URLs.
func (r Report) WriteMissing(dest string) error {
	var b strings.Builder
	for _, m := range r.Missing {
		b.WriteString(m)
		b.WriteByte('\n')
	}
	if err := os.WriteFile(dest, []byte(b.String()), 0o600); err != nil {
		return fmt.Errorf("write missing list %s: %w", dest, err)
	}
	return nil
}

// WriteSummary writes the human-readable audit report.
func (r Report) WriteSummary(w io.Writer) error {
	_, err := fmt.Fprintf(w,
		"Mirror audit\n"+
			"  Base URL:   %s\n"+
			"  Directory:  %s\n"+
			"  HTML files: %d\n"+
			"  Resources:  %d\n"+
			"  Missing:    %d (%.1f%%)\n",
		r.BaseURL, r.Root, r.HTMLFiles, r.TotalResources, len(r.Missing), r.MissingPercent())
	if err != nil {
		return fmt.Errorf("write summary: %w", err)
	}
	return nil
}

// Auditor walks a mirror tree and reports missing resources.
type Auditor struct {
	logger *zap.Logger
}

// New constructs an Auditor.
func New(logger *zap.Logger) *Auditor {
	return &Auditor{logger: logger}
}

// Run audits the mirror under root against baseURL. Every HTML file is
// parsed, its img/link/script references resolved against baseURL and
// deduplicated; a resource is missing iff no file anywhere under root has
// its path basename.
func (a *Auditor) Run(root, baseURL string) (Report, error) {
	base, err := url.Parse(baseURL)
	if err != nil {
		return Report{}, fmt.Errorf("parse base url %q: %w", baseURL, err)
	}

	var htmlFiles []string
	basenames := make(map[string]struct{})
	err = filepath.WalkDir(root, func(p string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		if d.IsDir() {
			return nil
		}
		basenames[d.Name()] = struct{}{}
		if strings.HasSuffix(d.Name(), ".html") {
			htmlFiles = append(htmlFiles, p)
		}
		return nil
	})
	if err != nil {
		return Report{}, fmt.Errorf("walk %s: %w", root, err)
	}

	report := Report{
		BaseURL:   baseURL,
		Root:      root,
		HTMLFiles: len(htmlFiles),
	}

	resources := make(map[string]struct{})
	for _, file := range htmlFiles {
		for _, res := range a.pageResources(file, base) {
			resources[res] = struct{}{}
		}
	}
	report.TotalResources = len(resources)

	for res := range resources {
		u, err := url.Parse(res)
		if err != nil {
			continue
		}
		name := path.Base(u.Path)
		if name == "." || name == "/" {
			continue
		}
		if _, found := basenames[name]; !found {
			report.Missing = append(report.Missing, res)
		}
	}
	sort.Strings(report.Missing)
	return report, nil
}

// pageResources extracts the absolute resource URLs one page references.
// An unreadable or unparsable page counts as zero references.
func (a *Auditor) pageResources(file string, base *url.URL) []string {
	f, err := os.Open(file)
	if err != nil {
		a.logger.Warn("cannot open page", zap.String("path", file), zap.Error(err))
		return nil
	}
	defer f.Close()

	doc, err := goquery.NewDocumentFromReader(f)
	if err != nil {
		a.logger.Warn("cannot parse page", zap.String("path", file), zap.Error(err))
		return nil
	}

	var refs []string
	doc.Find("img, link, script").Each(func(_ int, sel *goquery.Selection) {
		ref, ok := sel.Attr("src")
		if !ok {
			ref, ok = sel.Attr("href")
		}
		if !ok {
			return
		}
		ref = urlutil.Sanitize(ref)
		if ref == "" || urlutil.IsFragment(ref) || urlutil.IsNonFetchable(ref) || !urlutil.IsHTTPish(ref) {
			return
		}
		abs, err := base.Parse(ref)
		if err != nil {
			return
		}
		refs = append(refs, abs.String())
	})
	return refs
}
