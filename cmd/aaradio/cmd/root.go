// Package cmd implements the CLI commands for aaradio.
package cmd

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/jmylchreest/aaradio/internal/config"
	"github.com/jmylchreest/aaradio/internal/observability"
	"github.com/jmylchreest/aaradio/internal/version"
)

// cfgFile holds the config file path from CLI flag.
var cfgFile string

// rootCmd represents the base command when called without any subcommands.
var rootCmd = &cobra.Command{
	Use:     "aaradio",
	Short:   "AudioAddict channel directory and stream resolver",
	Version: version.Short(),
	Long: `aaradio lists the channels of the AudioAddict radio networks (DI.fm, Sky.fm,
JazzRadio.com and RockRadio.com) and resolves playable stream URLs for them.

It can be used directly from the command line, or run as a small HTTP
service that serves channel listings, stream redirects and M3U playlists.`,
	SilenceUsage: true,
	// PersistentPreRunE is set in init() to avoid initialization cycle
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() error {
	if err := rootCmd.Execute(); err != nil {
		return fmt.Errorf("executing root command: %w", err)
	}
	return nil
}

func init() {
	cobra.OnInitialize(initConfig)

	// initLogging references rootCmd.PersistentFlags
	rootCmd.PersistentPreRunE = func(_ *cobra.Command, _ []string) error {
		return initLogging()
	}

	// Logging flags are not bound to viper; they only override config/env
	// when explicitly set (checked with Changed).
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ./config.yaml, /etc/aaradio/config.yaml or $HOME/.aaradio/config.yaml)")
	rootCmd.PersistentFlags().String("log-level", "info", "log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().String("log-format", "text", "log format (text, json)")

	// Listen settings shared by every command that talks to AudioAddict.
	rootCmd.PersistentFlags().StringP("service", "s", "", "service to use (di, sky, jazzradio, rockradio)")
	rootCmd.PersistentFlags().StringP("quality", "q", "", "stream quality (public3, premium_high, android_premium_high)")
	rootCmd.PersistentFlags().String("source", "", "preferred stream host, e.g. prem4")
	rootCmd.PersistentFlags().String("listen-key", "", "premium listen key")

	mustBindPFlag("audioaddict.service", rootCmd.PersistentFlags().Lookup("service"))
	mustBindPFlag("audioaddict.stream_quality", rootCmd.PersistentFlags().Lookup("quality"))
	mustBindPFlag("audioaddict.source_preference", rootCmd.PersistentFlags().Lookup("source"))
	mustBindPFlag("audioaddict.listen_key", rootCmd.PersistentFlags().Lookup("listen-key"))
}

// initConfig reads in config file and ENV variables if set.
func initConfig() {
	config.SetDefaults(viper.GetViper())

	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("config")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(".")
		viper.AddConfigPath("/etc/aaradio")
		if home, err := os.UserHomeDir(); err == nil {
			viper.AddConfigPath(home + "/.aaradio")
		}
	}

	viper.SetEnvPrefix(config.EnvPrefix)
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			fmt.Fprintln(os.Stderr, "Error reading config file:", err)
		}
		return
	}
	fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
}

// initLogging configures the default slog logger.
//
// Priority order (highest to lowest):
//  1. CLI flags (--log-level, --log-format), only if explicitly provided
//  2. Environment variables (AARADIO_LOGGING_LEVEL, AARADIO_LOGGING_FORMAT)
//  3. Config file values
//  4. Built-in defaults (info, text)
func initLogging() error {
	level := viper.GetString("logging.level")
	format := viper.GetString("logging.format")

	if rootCmd.PersistentFlags().Changed("log-level") {
		level, _ = rootCmd.PersistentFlags().GetString("log-level")
	}
	if rootCmd.PersistentFlags().Changed("log-format") {
		format, _ = rootCmd.PersistentFlags().GetString("log-format")
	}

	if level == "" {
		level = "info"
	}
	if format == "" {
		format = "text"
	}

	logCfg := config.LoggingConfig{
		Level:      strings.ToLower(level),
		Format:     strings.ToLower(format),
		AddSource:  viper.GetBool("logging.add_source"),
		TimeFormat: viper.GetString("logging.time_format"),
	}
	if logCfg.Level == "warning" {
		logCfg.Level = "warn"
	}

	// Logs go to stderr so command output on stdout stays pipeable.
	logger := observability.NewLoggerWithWriter(logCfg, os.Stderr)
	logger = observability.WithApp(logger, version.ApplicationName)
	slog.SetDefault(logger)

	return nil
}

// loadConfig unmarshals and validates the merged flag, env, file and default values.
func loadConfig() (*config.Config, error) {
	cfg, err := config.FromViper(viper.GetViper())
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}
	return cfg, nil
}

// mustBindPFlag binds a viper key to a cobra flag and panics if binding fails.
func mustBindPFlag(key string, flag *pflag.Flag) {
	if err := viper.BindPFlag(key, flag); err != nil {
		panic(fmt.Sprintf("failed to bind flag %q to key %q: %v", flag.Name, key, err))
	}
}
