package mirror

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/gomirror/sitemirror/internal/fetch"
)

// stubFetcher serves canned bodies and records how often each URL was
// requested. Safe for concurrent use by the asset workers.
type stubFetcher struct {
	mu    sync.Mutex
	pages map[string]string
	hits  map[string]int
}

func newStubFetcher(pages map[string]string) *stubFetcher {
	return &stubFetcher{pages: pages, hits: make(map[string]int)}
}

func (f *stubFetcher) Get(_ context.Context, rawURL string) (fetch.Response, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.hits[rawURL]++
	body, ok := f.pages[rawURL]
	if !ok {
		return fetch.Response{}, &fetch.StatusError{URL: rawURL, StatusCode: 404}
	}
	return fetch.Response{URL: rawURL, StatusCode: 200, Body: []byte(body)}, nil
}

func (f *stubFetcher) hitCount(rawURL string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.hits[rawURL]
}

func testSite() map[string]string {
	return map[string]string{
		"https://a.com/": `<html><body>
<a href="/about">About</a>
<a href="https://other.com/x">External</a>
<a href="mailto:x@y.com">Mail</a>
<a href="#top">Top</a>
<img src="/static/logo.png">
</body></html>`,
		"https://a.com/about":           `<html><body><img src="/static/logo.png"><a href="/">Home</a></body></html>`,
		"https://a.com/static/logo.png": "PNGDATA",
	}
}

func newTestEngine(t *testing.T, fetcher Fetcher, root string, maxPages int) *Engine {
	t.Helper()
	return NewEngine(Config{
		StartURL:   "https://a.com/",
		Root:       root,
		MaxPages:   maxPages,
		Threads:    2,
		QueueDepth: 16,
	}, fetcher, zap.NewNop())
}

func TestEngine_Run(t *testing.T) {
	root := filepath.Join(t.TempDir(), "a_com")
	fetcher := newStubFetcher(testSite())
	engine := newTestEngine(t, fetcher, root, 10)

	require.NoError(t, engine.Run(context.Background()))

	index, err := os.ReadFile(filepath.Join(root, "index.html"))
	require.NoError(t, err)
	assert.Contains(t, string(index), `href="about.html"`)
	assert.Contains(t, string(index), `src="static/logo.png"`)
	assert.Contains(t, string(index), `href="https://other.com/x"`, "external link untouched")
	assert.Contains(t, string(index), `href="mailto:x@y.com"`, "non-fetchable link untouched")

	about, err := os.ReadFile(filepath.Join(root, "about.html"))
	require.NoError(t, err)
	assert.Contains(t, string(about), `src="static/logo.png"`)
	assert.Contains(t, string(about), `href="index.html"`)

	logo, err := os.ReadFile(filepath.Join(root, "static", "logo.png"))
	require.NoError(t, err)
	assert.Equal(t, "PNGDATA", string(logo))

	assert.Equal(t, 0, fetcher.hitCount("https://other.com/x"), "external pages are never fetched")
	assert.Equal(t, 1, fetcher.hitCount("https://a.com/about"), "each page fetched once")
}

func TestEngine_Run_MaxPagesCap(t *testing.T) {
	root := filepath.Join(t.TempDir(), "a_com")
	fetcher := newStubFetcher(testSite())
	engine := newTestEngine(t, fetcher, root, 1)

	require.NoError(t, engine.Run(context.Background()))

	assert.Equal(t, 1, fetcher.hitCount("https://a.com/"))
	assert.Equal(t, 0, fetcher.hitCount("https://a.com/about"), "discovered page stays queued past the cap")

	_, err := os.Stat(filepath.Join(root, "index.html"))
	assert.NoError(t, err)
	_, err = os.Stat(filepath.Join(root, "about.html"))
	assert.True(t, os.IsNotExist(err))
}

func TestEngine_Run_RerunSkipsExistingAssets(t *testing.T) {
	root := filepath.Join(t.TempDir(), "a_com")
	fetcher := newStubFetcher(testSite())

	require.NoError(t, newTestEngine(t, fetcher, root, 10).Run(context.Background()))
	first := fetcher.hitCount("https://a.com/static/logo.png")
	assert.GreaterOrEqual(t, first, 1)

	require.NoError(t, newTestEngine(t, fetcher, root, 10).Run(context.Background()))
	assert.Equal(t, first, fetcher.hitCount("https://a.com/static/logo.png"),
		"second run must not refetch an existing asset")
	assert.Equal(t, 2, fetcher.hitCount("https://a.com/"), "pages are always refetched")
}

func TestEngine_Run_PageFailureIsSkipped(t *testing.T) {
	root := filepath.Join(t.TempDir(), "a_com")
	site := testSite()
	site["https://a.com/"] = `<html><body><a href="/missing">Gone</a><a href="/about">About</a></body></html>`
	fetcher := newStubFetcher(site)

	require.NoError(t, newTestEngine(t, fetcher, root, 10).Run(context.Background()))

	assert.Equal(t, 1, fetcher.hitCount("https://a.com/missing"), "failed page is marked visited, not retried")
	_, err := os.Stat(filepath.Join(root, "about.html"))
	assert.NoError(t, err, "crawl continues past a failed page")
}

func TestEngine_Run_InvalidConfig(t *testing.T) {
	engine := NewEngine(Config{StartURL: "https://a.com/", Root: "", MaxPages: 1, Threads: 1, QueueDepth: 1},
		newStubFetcher(nil), zap.NewNop())
	err := engine.Run(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "mirror config")
}

func TestEngine_Run_AssetFailureDoesNotFailCrawl(t *testing.T) {
	root := filepath.Join(t.TempDir(), "a_com")
	site := testSite()
	delete(site, "https://a.com/static/logo.png")
	fetcher := newStubFetcher(site)

	require.NoError(t, newTestEngine(t, fetcher, root, 10).Run(context.Background()))

	_, err := os.Stat(filepath.Join(root, "static", "logo.png"))
	assert.True(t, os.IsNotExist(err), "failed asset is left absent")
	_, err = os.Stat(filepath.Join(root, "index.html"))
	assert.NoError(t, err)
}
