package mirror

import (
	"fmt"
	"net/url"
)

// Config captures every knob that influences a mirror run.
type Config struct {
	// StartURL is the page the breadth-first crawl begins from.
	StartURL string
	// Root is the local directory the site is mirrored into.
	Root string
	// MaxPages caps how many HTML pages are visited.
	MaxPages int
	// Threads is the size of the asset download worker pool.
	Threads int
	// QueueDepth bounds the shared asset queue.
	QueueDepth int
}

// Validate checks for obviously bad configuration combinations.
func (c Config) Validate() error {
	u, err := url.Parse(c.StartURL)
	if err != nil {
		return fmt.Errorf("parse start url %q: %w", c.StartURL, err)
	}
	if u.Host == "" {
		return fmt.Errorf("start url %q must be absolute with a host", c.StartURL)
	}
	if c.Root == "" {
		return fmt.Errorf("mirror root must be set")
	}
	if c.MaxPages < 1 {
		return fmt.Errorf("max pages must be >= 1")
	}
	if c.Threads < 1 {
		return fmt.Errorf("threads must be >= 1")
	}
	if c.QueueDepth < 1 {
		return fmt.Errorf("queue depth must be >= 1")
	}
	return nil
}
