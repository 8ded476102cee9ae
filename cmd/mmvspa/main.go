package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/tirix/metamath-vspa/internal/config"
)

var (
	cfgPath  string
	dbPath   string
	logLevel string

	cfg    config.Config
	logger *slog.Logger
)

var rootCmd = &cobra.Command{
	Use:   "mmvspa",
	Short: "mmvspa - a Metamath proof-worksheet language server",
	Long:  "mmvspa validates Metamath proof worksheets against a .mm database, as a standalone checker or as an LSP server over stdio.",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		loaded, err := config.Load(cfgPath)
		if err != nil {
			return err
		}
		cfg = loaded
		if dbPath != "" {
			cfg.DatabasePath = dbPath
		}
		if logLevel != "" {
			cfg.LogLevel = logLevel
		}

		level := slog.LevelInfo
		switch cfg.LogLevel {
		case "debug":
			level = slog.LevelDebug
		case "warn":
			level = slog.LevelWarn
		case "error":
			level = slog.LevelError
		}
		logger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgPath, "config", "", "path to mmvspa.toml or mmvspa.yaml (default: none, built-in defaults apply)")
	rootCmd.PersistentFlags().StringVar(&dbPath, "db", "", "path to the .mm database (overrides the config file)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "debug, info, warn, or error (overrides the config file)")

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(checkCmd)
}

// newSignalContext returns a context canceled on SIGINT/SIGTERM, so a
// long-running subcommand (serve) can shut down its goroutines instead
// of being killed mid-write.
func newSignalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
