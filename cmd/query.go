package cmd

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/adalundhe/shopkeep/server"
)

var queryTool string

var queryCmd = &cobra.Command{
	Use:   "query [pattern]",
	Short: "Query the inventory from the command line",
	Long: `Run a tool directly without the agent. By default this calls
get_inventory with the given pattern; --tool selects another read-only
tool, e.g. get_orders.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runQuery,
}

func init() {
	rootCmd.AddCommand(queryCmd)
	queryCmd.Flags().StringVar(&queryTool, "tool", "get_inventory", "tool to invoke")
}

func runQuery(cmd *cobra.Command, args []string) error {
	dirs, manager, err := loadEnvironment()
	if err != nil {
		return err
	}
	defer manager.Close()

	cfg := manager.Get()
	logger := newLogger(cfg.Logging)

	backend, err := server.BuildBackend(cmd.Context(), cfg, dirs, logger)
	if err != nil {
		return fmt.Errorf("no usable backend, run 'shopkeep setup': %w", err)
	}
	defer backend.Close()

	pattern := "all"
	if len(args) == 1 {
		pattern = args[0]
	}
	input, err := json.Marshal(map[string]string{"query": pattern})
	if err != nil {
		return err
	}

	result := backend.Registry.Invoke(cmd.Context(), queryTool, input)
	if !result.Success {
		return fmt.Errorf("%s: %s", queryTool, result.Error)
	}

	out := json.NewEncoder(os.Stdout)
	out.SetIndent("", "  ")
	return out.Encode(result.Data)
}
