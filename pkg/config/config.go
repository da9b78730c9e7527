// Package config initializes the application's configuration. It uses the
// Viper library to read settings from a config file, environment
// variables, and command-line flags, providing a unified configuration
// system.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/viper"
)

// Init initializes the application's configuration using Viper. It sets
// defaults for every non-flag knob, defines the config search paths, and
// enables environment overrides. Designed to be called once at startup,
// before any command runs.
func Init() {
	viper.SetConfigName("config")
	viper.AddConfigPath(".")
	viper.AddConfigPath("$HOME/.sitemirror")

	viper.SetDefault("http.user_agent",
		"Mozilla/5.0 (X11; Linux x86_64; rv:128.0) Gecko/20100101 Firefox/128.0")
	viper.SetDefault("http.timeout", "15s")
	viper.SetDefault("mirror.queue_depth", 1024)
	viper.SetDefault("mirror.log_file", "web_scraper.log")
	viper.SetDefault("audit.missing_file", "missing_files.txt")
	viper.SetDefault("log.development", false)

	viper.SetEnvPrefix("SITEMIRROR") // e.g. SITEMIRROR_HTTP_TIMEOUT=30s
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			// The logger does not exist yet at this point.
			fmt.Fprintf(os.Stderr, "reading config file: %v\n", err)
		}
	}
}
