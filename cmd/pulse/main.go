package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	slogmulti "github.com/samber/slog-multi"
	"github.com/spf13/cobra"

	"github.com/pulseui/pulse/internal/config"
)

// Version information set at build time.
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

const banner = `
  ╔═╗┬ ┬┬  ┌─┐┌─┐
  ╠═╝│ ││  └─┐├┤
  ╩  └─┘┴─┘└─┘└─┘
`

func main() {
	var configDir string

	rootCmd := &cobra.Command{
		Use:   "pulse",
		Short: "Fine-grained reactive state for Go",
		Long: `Pulse is a fine-grained reactive state engine for Go.

Signals hold mutable values, memos derive cached values from them, and
effects run side work whenever the values they read change. Propagation
is synchronous, glitch-free, and only follows actual value changes.

The CLI ships a demo of the engine and an inspector server that streams
live engine activity over WebSocket and Prometheus.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.PersistentFlags().StringVarP(&configDir, "config-dir", "c", ".", "Directory containing pulse.yaml")

	rootCmd.AddCommand(
		demoCmd(&configDir),
		serveCmd(&configDir),
		versionCmd(),
	)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "\033[31mError:\033[0m %s\n", err)
		os.Exit(1)
	}
}

// printBanner prints the Pulse ASCII art banner.
func printBanner() {
	fmt.Print(banner)
}

// newLogger builds the process logger from config. When a log file is
// configured, records fan out to both stderr and the file.
func newLogger(cfg *config.Config) (*slog.Logger, func(), error) {
	level := slog.LevelInfo
	switch cfg.Log.Level {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	}

	opts := &slog.HandlerOptions{Level: level}

	makeHandler := func(w io.Writer) slog.Handler {
		if cfg.Log.Format == "json" {
			return slog.NewJSONHandler(w, opts)
		}
		return slog.NewTextHandler(w, opts)
	}

	closeFn := func() {}
	handler := makeHandler(os.Stderr)

	if cfg.Log.File != "" {
		f, err := os.OpenFile(cfg.Log.File, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
		if err != nil {
			return nil, nil, fmt.Errorf("open log file: %w", err)
		}
		closeFn = func() { f.Close() }
		handler = slogmulti.Fanout(handler, makeHandler(f))
	}

	return slog.New(handler).With("app", cfg.Name), closeFn, nil
}
