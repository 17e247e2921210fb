package cmd

import (
	"errors"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/adalundhe/shopkeep/core/skills"
	"github.com/adalundhe/shopkeep/server"
)

var serveAddr string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP tool server",
	Long: `Start the tool server exposing the order operations over
POST /tools/{name}. Without a stored connection the server still starts
and reports no_connection_configured on every tool call.`,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "listen address (overrides settings)")
}

func runServe(cmd *cobra.Command, args []string) error {
	dirs, manager, err := loadEnvironment()
	if err != nil {
		return err
	}
	defer manager.Close()

	cfg := manager.Get()
	logger := newLogger(cfg.Logging)

	serverCfg := cfg.Server
	if serveAddr != "" {
		serverCfg.Addr = serveAddr
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := manager.Watch(ctx); err != nil {
		logger.Warn("settings watch unavailable", "error", err)
	}

	backend, err := server.BuildBackend(ctx, cfg, dirs, logger)
	if err != nil {
		var tokenErr *server.TokenError
		if !errors.As(err, &tokenErr) {
			return err
		}
		logger.Warn("backend unavailable, run 'shopkeep setup'", "reason", tokenErr.Token)
		srv := server.New(serverCfg, skills.NewRegistry(), logger, server.WithUnavailableToken(tokenErr.Token))
		return srv.Start(ctx)
	}
	defer backend.Close()

	srv := server.New(serverCfg, backend.Registry, logger)
	return srv.Start(ctx)
}
