package cmd

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/adalundhe/shopkeep/agents/storefront"
	"github.com/adalundhe/shopkeep/core/credentials"
	"github.com/adalundhe/shopkeep/server"
)

var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "Talk to the shopkeeper",
	Long: `Interactive customer-facing session: the shopkeeper answers
product questions and places orders in the sheet through its tools.
Type 'exit' to leave.`,
	RunE: runChat,
}

func init() {
	rootCmd.AddCommand(chatCmd)
}

func runChat(cmd *cobra.Command, args []string) error {
	dirs, manager, err := loadEnvironment()
	if err != nil {
		return err
	}
	defer manager.Close()

	cfg := manager.Get()
	logger := newLogger(cfg.Logging)

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	backend, err := server.BuildBackend(ctx, cfg, dirs, logger)
	if err != nil {
		return fmt.Errorf("no usable backend, run 'shopkeep setup': %w", err)
	}
	defer backend.Close()

	store, err := credentials.NewStore(dirs.ConfigDir("credentials"))
	if err != nil {
		return err
	}
	apiKey, err := credentials.AnthropicAPIKey(store)
	if err != nil {
		return err
	}

	agent := storefront.NewAgent(storefront.AgentConfig{
		APIKey:    apiKey,
		Model:     cfg.LLM.DefaultModel,
		MaxTokens: cfg.LLM.MaxTokens,
		Logger:    logger,
	}, backend.Registry)

	fmt.Println("Shopkeeper is ready. Type 'exit' to leave.")
	in := bufio.NewScanner(os.Stdin)
	for {
		fmt.Print("\nyou> ")
		if !in.Scan() {
			return in.Err()
		}
		line := strings.TrimSpace(in.Text())
		if line == "" {
			continue
		}
		if line == "exit" || line == "quit" {
			return nil
		}

		turnCtx, cancel := contextWithTimeout(ctx, cfg.LLM.Timeout)
		reply, err := agent.Chat(turnCtx, line)
		cancel()
		if err != nil {
			fmt.Printf("shopkeeper> I hit a problem: %v\n", err)
			continue
		}
		fmt.Printf("shopkeeper> %s\n", reply)
	}
}

func contextWithTimeout(ctx context.Context, d time.Duration) (context.Context, context.CancelFunc) {
	if d <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, d)
}
