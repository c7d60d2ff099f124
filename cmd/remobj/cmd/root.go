// Package cmd provides the CLI commands for remobj.
package cmd

import (
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/remobj/remobj-go/internal/config"
)

var cfgFile string

var rootCmd = &cobra.Command{
	Use:   "remobj",
	Short: "remobj - transparent remote object access over a message channel",
	Long: `remobj exposes a Go value over a channel as a provider, or consumes a
remote provider's value as a lazy proxy tree.

Quick start:
  1. Start a provider:  remobj provide --listen 127.0.0.1:8080
  2. Invoke it:         remobj consume --dial ws://127.0.0.1:8080/ --op call --path Now

Configuration is loaded from remobj.yaml in the current directory,
$HOME/.remobj/, or /etc/remobj/, and can be overridden with REMOBJ_ prefixed
environment variables (e.g. REMOBJ_SERVER_LISTEN_ADDR=:9090).`,
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: ./remobj.yaml)")
}

func initConfig() {
	config.InitViper(cfgFile)
}

// parseLogLevel converts a string log level to slog.Level.
// Returns slog.LevelInfo for unrecognized values.
func parseLogLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
