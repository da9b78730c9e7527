package mirror

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// PagesSaved tracks the number of pages fetched, rewritten, and saved.
	PagesSaved = promauto.NewCounter(prometheus.CounterOpts{
		Name: "mirror_pages_saved_total",
		Help: "The total number of HTML pages saved to the mirror.",
	})
	// PageErrors tracks page fetches or parses that failed.
	PageErrors = promauto.NewCounter(prometheus.CounterOpts{
		Name: "mirror_page_errors_total",
		Help: "The total number of pages that could not be fetched or parsed.",
	})
	// AssetsDownloaded tracks assets fetched and written to disk.
	AssetsDownloaded = promauto.NewCounter(prometheus.CounterOpts{
		Name: "mirror_assets_downloaded_total",
		Help: "The total number of assets downloaded.",
	})
	// AssetsSkipped tracks asset downloads skipped because the file existed.
	AssetsSkipped = promauto.NewCounter(prometheus.CounterOpts{
		Name: "mirror_assets_skipped_total",
		Help: "The total number of asset downloads skipped as already present.",
	})
	// AssetErrors tracks assets that could not be fetched or written.
	AssetErrors = promauto.NewCounter(prometheus.CounterOpts{
		Name: "mirror_asset_errors_total",
		Help: "The total number of failed asset downloads.",
	})
	// LinksRewritten tracks internal references rewritten to local paths.
	LinksRewritten = promauto.NewCounter(prometheus.CounterOpts{
		Name: "mirror_links_rewritten_total",
		Help: "The total number of internal links rewritten to relative local paths.",
	})
)
