// Package cmd defines and implements the CLI commands for the sitemirror
// executable.
package cmd

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/gomirror/sitemirror/pkg/config"
)

// newRootCmd creates and configures the root command.
func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sitemirror",
		Short: "Mirror a website for offline use and audit the result.",
		Long: `sitemirror crawls a website breadth-first, downloads its pages and
assets into a local folder, and rewrites internal links so the mirror
works offline. The audit command re-checks a finished mirror for
resources that are referenced but missing on disk.`,
		SilenceUsage: true,
	}

	cobra.OnInitialize(config.Init)

	cmd.AddCommand(newMirrorCmd())
	cmd.AddCommand(newAuditCmd())
	return cmd
}

// Execute is the main entry point.
func Execute() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
