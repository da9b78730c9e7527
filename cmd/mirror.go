package cmd

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/gomirror/sitemirror/internal/fetch"
	"github.com/gomirror/sitemirror/internal/logging"
	"github.com/gomirror/sitemirror/internal/mirror"
)

// newMirrorCmd creates and configures the 'mirror' subcommand.
func newMirrorCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "mirror",
		Short: "Recursively mirror a website for offline use",
		Long: `Crawls internal pages breadth-first starting from --url, downloads
linked assets through a pool of worker threads, and rewrites internal
links to relative local paths under the destination folder.`,
		RunE: runMirror,
	}

	cmd.Flags().String("url", "", "starting URL to crawl (e.g. https://example.com/)")
	cmd.Flags().String("destination", "", "output folder (default: host with dots replaced by underscores)")
	cmd.Flags().Int("max-pages", 50, "maximum number of HTML pages to crawl")
	cmd.Flags().Int("threads", 6, "number of concurrent download workers")
	_ = cmd.MarkFlagRequired("url")

	for _, name := range []string{"url", "destination", "max-pages", "threads"} {
		_ = viper.BindPFlag("mirror."+name, cmd.Flags().Lookup(name))
	}
	return cmd
}

func runMirror(cmd *cobra.Command, _ []string) error {
	rawURL := viper.GetString("mirror.url")
	maxPages := viper.GetInt("mirror.max-pages")
	threads := viper.GetInt("mirror.threads")

	// All validation happens before any network activity.
	if maxPages < 1 {
		return fmt.Errorf("--max-pages must be >= 1 (got %d)", maxPages)
	}
	if threads < 1 {
		return fmt.Errorf("--threads must be >= 1 (got %d)", threads)
	}
	start, err := url.Parse(rawURL)
	if err != nil || start.Host == "" {
		return fmt.Errorf("--url must be an absolute URL with a host (got %q)", rawURL)
	}
	root := viper.GetString("mirror.destination")
	if root == "" {
		root = defaultDestination(start.Host)
	}

	logger, closeLog, err := logging.New(
		viper.GetBool("log.development"),
		viper.GetString("mirror.log_file"),
	)
	if err != nil {
		return err
	}
	defer closeLog()
	defer func() { _ = logger.Sync() }()

	client := fetch.NewClient(fetch.Config{
		UserAgent:      viper.GetString("http.user_agent"),
		RequestTimeout: viper.GetDuration("http.timeout"),
	}, fetch.NewExponentialRetryPolicy(), logger)

	engine := mirror.NewEngine(mirror.Config{
		StartURL:   rawURL,
		Root:       root,
		MaxPages:   maxPages,
		Threads:    threads,
		QueueDepth: viper.GetInt("mirror.queue_depth"),
	}, client, logger)

	return engine.Run(cmd.Context())
}

// defaultDestination derives the output folder from the crawl host.
func defaultDestination(host string) string {
	return strings.ReplaceAll(host, ".", "_")
}
