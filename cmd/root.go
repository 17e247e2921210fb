package cmd

import (
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/adalundhe/shopkeep/core/config"
	"github.com/adalundhe/shopkeep/core/storage"
)

var rootCmd = &cobra.Command{
	Use:   "shopkeep",
	Short: "Shopkeep - conversational order management over a spreadsheet",
	Long: `Shopkeep runs a shopkeeper agent and tool server over a
spreadsheet-backed inventory: customers ask in natural language, the
agent places, updates and cancels orders directly in the sheet.`,
}

func Execute() error {
	return rootCmd.Execute()
}

// loadEnvironment resolves the app directories and layered settings.
func loadEnvironment() (*storage.Dirs, *config.Manager, error) {
	dirs, err := storage.ResolveDirs()
	if err != nil {
		return nil, nil, fmt.Errorf("resolve directories: %w", err)
	}
	if err := dirs.EnsureAll(); err != nil {
		return nil, nil, fmt.Errorf("prepare directories: %w", err)
	}

	manager := config.NewManager(dirs)
	if err := manager.Load(); err != nil {
		return nil, nil, fmt.Errorf("load settings: %w", err)
	}
	return dirs, manager, nil
}

// newLogger builds the process logger from the logging settings.
func newLogger(cfg config.LoggingConfig) *slog.Logger {
	var level slog.Level
	switch strings.ToLower(cfg.Level) {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{Level: level}
	if strings.ToLower(cfg.Format) == "json" {
		return slog.New(slog.NewJSONHandler(os.Stderr, opts))
	}
	return slog.New(slog.NewTextHandler(os.Stderr, opts))
}
