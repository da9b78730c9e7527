// Package mirror implements the breadth-first crawl coordinator and the
// concurrent asset download workers behind it. A single driving goroutine
// walks pages in discovery order while a fixed pool of workers drains the
// shared asset queue; the only state shared across goroutines is that
// queue.
package mirror

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/gomirror/sitemirror/internal/fetch"
	"github.com/gomirror/sitemirror/internal/pathmap"
	"github.com/gomirror/sitemirror/internal/urlutil"
)

// Fetcher is the transport capability the engine depends on.
type Fetcher interface {
	Get(ctx context.Context, rawURL string) (fetch.Response, error)
}

// Engine drives one mirror run.
type Engine struct {
	cfg     Config
	fetcher Fetcher
	logger  *zap.Logger
	runID   string
}

// crawlState is the bookkeeping owned exclusively by the driving
// goroutine: the BFS page queue plus the visited and pending sets, all
// keyed by exact URL string identity.
type crawlState struct {
	pages   []string
	visited map[string]struct{}
	queued  map[string]struct{}
}

func newCrawlState(startURL string) *crawlState {
	return &crawlState{
		pages:   []string{startURL},
		visited: make(map[string]struct{}),
		queued:  map[string]struct{}{startURL: {}},
	}
}

func (s *crawlState) pop() string {
	next := s.pages[0]
	s.pages = s.pages[1:]
	delete(s.queued, next)
	return next
}

// enqueuePage adds a discovered page unless it was already visited or is
// already pending.
func (s *crawlState) enqueuePage(raw string) {
	if _, seen := s.visited[raw]; seen {
		return
	}
	if _, pending := s.queued[raw]; pending {
		return
	}
	s.pages = append(s.pages, raw)
	s.queued[raw] = struct{}{}
}

// NewEngine builds an Engine. The fetcher and logger are required.
func NewEngine(cfg Config, fetcher Fetcher, logger *zap.Logger) *Engine {
	return &Engine{
		cfg:     cfg,
		fetcher: fetcher,
		logger:  logger,
		runID:   uuid.NewString(),
	}
}

// Run executes the crawl until the page queue drains or the page cap is
// reached, then closes the asset queue and waits for every outstanding
// download before emitting the summary.
func (e *Engine) Run(ctx context.Context) error {
	if err := e.cfg.Validate(); err != nil {
		return fmt.Errorf("mirror config: %w", err)
	}
	start, err := url.Parse(e.cfg.StartURL)
	if err != nil {
		return fmt.Errorf("parse start url: %w", err)
	}

	logger := e.logger.With(zap.String("run_id", e.runID))
	// The auditor recovers the mirror root from this exact line.
	logger.Info(fmt.Sprintf("Starting download for %s into %s", e.cfg.StartURL, e.cfg.Root))

	assets := NewAssetQueue(e.cfg.QueueDepth)
	var wg sync.WaitGroup
	for i := 0; i < e.cfg.Threads; i++ {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()
			e.assetWorker(ctx, id, assets, logger)
		}(i + 1)
	}

	state := newCrawlState(e.cfg.StartURL)
	began := time.Now()

	for len(state.pages) > 0 && len(state.visited) < e.cfg.MaxPages {
		if ctx.Err() != nil {
			break
		}
		pageURL := state.pop()
		if _, seen := state.visited[pageURL]; seen {
			continue
		}
		state.visited[pageURL] = struct{}{}
		logger.Info(fmt.Sprintf("[%d/%d] %s", len(state.visited), e.cfg.MaxPages, pageURL))

		e.processPage(ctx, pageURL, start.Host, state, assets, logger)
	}

	assets.Close()
	wg.Wait()

	elapsed := time.Since(began)
	if len(state.visited) == 0 {
		logger.Warn("Nothing downloaded; check the URL or connectivity")
		return nil
	}
	logger.Info("Crawl finished",
		zap.Int("pages", len(state.visited)),
		zap.Duration("elapsed", elapsed),
		zap.Duration("avg_per_page", elapsed/time.Duration(len(state.visited))),
	)
	return nil
}

// processPage fetches one page, routes its references, rewrites its
// internal links, and writes it to the mirror. Failures are logged and the
// page stays visited so it is never retried.
func (e *Engine) processPage(
	ctx context.Context,
	pageURL, rootHost string,
	state *crawlState,
	assets *AssetQueue,
	logger *zap.Logger,
) {
	base, err := url.Parse(pageURL)
	if err != nil {
		PageErrors.Inc()
		logger.Warn("bad page url", zap.String("url", pageURL), zap.Error(err))
		return
	}

	resp, err := e.fetcher.Get(ctx, pageURL)
	if err != nil {
		PageErrors.Inc()
		logger.Warn("page fetch failed", zap.String("url", pageURL), zap.Error(err))
		return
	}
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(resp.Body))
	if err != nil {
		PageErrors.Inc()
		logger.Warn("page parse failed", zap.String("url", pageURL), zap.Error(err))
		return
	}

	doc.Find("img, script, link, a").Each(func(_ int, sel *goquery.Selection) {
		ref, ok := refAttr(sel)
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
		if !urlutil.IsInternal(abs, rootHost) {
			return
		}
		if urlutil.IsPageLike(abs) {
			state.enqueuePage(abs.String())
			return
		}
		task := Task{URL: abs.String(), Dest: pathmap.Map(abs, e.cfg.Root)}
		if err := assets.Enqueue(ctx, task); err != nil {
			logger.Warn("asset enqueue failed", zap.String("url", task.URL), zap.Error(err))
		}
	})

	local := pathmap.Map(base, e.cfg.Root)
	pageDir := filepath.Dir(local)
	LinksRewritten.Add(float64(RewriteLinks(doc, base, e.cfg.Root, pageDir)))

	html, err := doc.Html()
	if err != nil {
		PageErrors.Inc()
		logger.Warn("page serialize failed", zap.String("url", pageURL), zap.Error(err))
		return
	}
	used, err := pathmap.SafeWriteFile(local, []byte(html), logger)
	if err != nil {
		PageErrors.Inc()
		logger.Warn("page write failed", zap.String("url", pageURL), zap.String("path", local), zap.Error(err))
		return
	}
	PagesSaved.Inc()
	logger.Debug("Saved page", zap.String("url", pageURL), zap.String("path", used))
}

// assetWorker drains the shared queue until it is closed.
func (e *Engine) assetWorker(ctx context.Context, id int, assets *AssetQueue, logger *zap.Logger) {
	logger = logger.With(zap.Int("worker", id))
	for {
		task, err := assets.Dequeue(ctx)
		if err != nil {
			if !errors.Is(err, ErrQueueClosed) && ctx.Err() == nil {
				logger.Error("asset dequeue failed", zap.Error(err))
			}
			return
		}
		e.downloadAsset(ctx, task, logger)
	}
}

// downloadAsset fetches one asset unless its destination already exists,
// making reruns idempotent. Failures leave the asset absent and never fail
// the crawl.
func (e *Engine) downloadAsset(ctx context.Context, task Task, logger *zap.Logger) {
	if urlutil.IsNonFetchable(task.URL) || !urlutil.IsHTTPish(task.URL) {
		logger.Debug("skip non-fetchable asset", zap.String("url", task.URL))
		return
	}
	if _, err := os.Stat(task.Dest); err == nil {
		AssetsSkipped.Inc()
		logger.Debug("asset already present", zap.String("path", task.Dest))
		return
	}
	resp, err := e.fetcher.Get(ctx, task.URL)
	if err != nil {
		AssetErrors.Inc()
		logger.Warn("asset fetch failed", zap.String("url", task.URL), zap.Error(err))
		return
	}
	used, err := pathmap.SafeWriteFile(task.Dest, resp.Body, logger)
	if err != nil {
		AssetErrors.Inc()
		logger.Warn("asset write failed", zap.String("url", task.URL), zap.String("path", task.Dest), zap.Error(err))
		return
	}
	AssetsDownloaded.Inc()
	logger.Debug("Saved resource", zap.String("url", task.URL), zap.String("path", used))
}
