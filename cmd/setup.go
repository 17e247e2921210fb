package cmd

import (
	"bufio"
	"fmt"
	"os"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/adalundhe/shopkeep/core/config"
	"github.com/adalundhe/shopkeep/core/credentials"
	"github.com/adalundhe/shopkeep/core/sheets"
)

var setupCmd = &cobra.Command{
	Use:   "setup",
	Short: "Configure the sheet connection and credentials",
	Long: `Interactive wizard that stores the workbook binding in
connection.json and the OAuth and API secrets in the encrypted
credential store.`,
	RunE: runSetup,
}

func init() {
	rootCmd.AddCommand(setupCmd)
}

func runSetup(cmd *cobra.Command, args []string) error {
	dirs, manager, err := loadEnvironment()
	if err != nil {
		return err
	}
	defer manager.Close()

	in := bufio.NewReader(os.Stdin)
	fmt.Println("Shopkeep setup")
	fmt.Println()

	workbookID, err := promptRequired(in, "Workbook ID")
	if err != nil {
		return err
	}
	inventoryName, err := promptDefault(in, "Inventory worksheet", "Sheet1")
	if err != nil {
		return err
	}
	ordersName, err := promptDefault(in, "Orders worksheet", "Orders")
	if err != nil {
		return err
	}

	clientID, err := promptRequired(in, "OAuth client ID")
	if err != nil {
		return err
	}
	clientSecret, err := promptSecret("OAuth client secret")
	if err != nil {
		return err
	}
	refreshToken, err := promptSecret("Sheets refresh token")
	if err != nil {
		return err
	}
	anthropicKey, err := promptSecret("Anthropic API key (blank to skip)")
	if err != nil {
		return err
	}

	conn := &config.Connection{
		Inventory: config.SheetBinding{WorkbookID: workbookID, Worksheet: inventoryName},
		Orders:    config.SheetBinding{WorkbookID: workbookID, Worksheet: ordersName},
	}
	if err := config.SaveConnection(dirs, conn); err != nil {
		return fmt.Errorf("save connection: %w", err)
	}

	store, err := credentials.NewStore(dirs.ConfigDir("credentials"))
	if err != nil {
		return fmt.Errorf("open credential store: %w", err)
	}
	err = credentials.SaveSheetsCredentials(store, sheets.Credentials{
		ClientID:     clientID,
		ClientSecret: clientSecret,
		RefreshToken: refreshToken,
	})
	if err != nil {
		return fmt.Errorf("save sheet credentials: %w", err)
	}
	if anthropicKey != "" {
		if err := store.Set(credentials.KeyAnthropicAPIKey, anthropicKey); err != nil {
			return fmt.Errorf("save API key: %w", err)
		}
	}

	fmt.Println()
	fmt.Println("Setup complete. Start the server with 'shopkeep serve' or talk to the shopkeeper with 'shopkeep chat'.")
	return nil
}

func promptRequired(in *bufio.Reader, label string) (string, error) {
	for {
		fmt.Printf("%s: ", label)
		line, err := in.ReadString('\n')
		if err != nil {
			return "", err
		}
		if value := strings.TrimSpace(line); value != "" {
			return value, nil
		}
		fmt.Println("a value is required")
	}
}

func promptDefault(in *bufio.Reader, label, fallback string) (string, error) {
	fmt.Printf("%s [%s]: ", label, fallback)
	line, err := in.ReadString('\n')
	if err != nil {
		return "", err
	}
	if value := strings.TrimSpace(line); value != "" {
		return value, nil
	}
	return fallback, nil
}

// promptSecret reads without echo so tokens never land in scrollback.
func promptSecret(label string) (string, error) {
	fmt.Printf("%s: ", label)
	raw, err := term.ReadPassword(int(syscall.Stdin))
	fmt.Println()
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(raw)), nil
}
