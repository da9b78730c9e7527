package cmd

import (
	"bufio"
	"errors"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/gomirror/sitemirror/internal/audit"
	"github.com/gomirror/sitemirror/internal/logging"
)

// newAuditCmd creates and configures the 'audit' subcommand.
func newAuditCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "audit",
		Short: "Check a finished mirror for missing resources",
		Long: `Walks a mirror directory, re-derives every resource its pages
reference, and reports the ones that cannot be found anywhere under the
directory. When --dir is omitted, the mirror root is recovered from the
previous run's log, falling back to an interactive prompt.`,
		RunE: runAudit,
	}

	cmd.Flags().String("url", "", "base URL of the mirrored website")
	cmd.Flags().String("dir", "", "path to the mirror directory")

	for _, name := range []string{"url", "dir"} {
		_ = viper.BindPFlag("audit."+name, cmd.Flags().Lookup(name))
	}
	return cmd
}

func runAudit(cmd *cobra.Command, _ []string) error {
	logger, closeLog, err := logging.New(viper.GetBool("log.development"), "")
	if err != nil {
		return err
	}
	defer closeLog()
	defer func() { _ = logger.Sync() }()

	baseURL := viper.GetString("audit.url")
	dir := viper.GetString("audit.dir")

	if dir == "" {
		recoveredURL, recoveredDir, rerr := audit.RecoverRoot(viper.GetString("mirror.log_file"))
		if rerr != nil {
			logger.Warn("could not recover mirror root from log", zap.Error(rerr))
		} else {
			dir = recoveredDir
			if baseURL == "" {
				baseURL = recoveredURL
			}
		}
	}
	if dir == "" {
		dir = prompt(cmd, "Path to the mirror directory: ")
	}
	if baseURL == "" {
		baseURL = prompt(cmd, "Base URL of the mirrored site: ")
	}
	if dir == "" {
		return errors.New("no mirror directory given or recovered")
	}
	if baseURL == "" {
		return errors.New("no base URL given or recovered")
	}

	report, err := audit.New(logger).Run(dir, baseURL)
	if err != nil {
		return err
	}

	if err := report.WriteMissing(viper.GetString("audit.missing_file")); err != nil {
		return err
	}
	if err := report.WriteSummary(cmd.OutOrStdout()); err != nil {
		return err
	}

	if len(report.Missing) > 0 {
		cmd.Println("The following files are missing:")
		for _, m := range report.Missing {
			cmd.Println(m)
		}
	} else {
		cmd.Println("All files are correctly downloaded.")
	}
	return nil
}

// prompt asks interactively when neither flags nor the log yield a value.
func prompt(cmd *cobra.Command, label string) string {
	cmd.Print(label)
	line, err := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
	if err != nil && line == "" {
		return ""
	}
	return strings.TrimSpace(line)
}
