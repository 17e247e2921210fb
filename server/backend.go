package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/adalundhe/shopkeep/agents/storefront"
	"github.com/adalundhe/shopkeep/core/config"
	"github.com/adalundhe/shopkeep/core/credentials"
	"github.com/adalundhe/shopkeep/core/inventory"
	"github.com/adalundhe/shopkeep/core/orders"
	"github.com/adalundhe/shopkeep/core/schema"
	"github.com/adalundhe/shopkeep/core/sheets"
	"github.com/adalundhe/shopkeep/core/skills"
	"github.com/adalundhe/shopkeep/core/storage"
)

// TokenError is a wiring failure carrying a stable error token. Callers
// surface the token verbatim instead of a prose message.
type TokenError struct {
	Token string
	cause error
}

func (e *TokenError) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %v", e.Token, e.cause)
	}
	return e.Token
}

func (e *TokenError) Unwrap() error { return e.cause }

// Backend is the fully wired order engine behind the tool surface.
type Backend struct {
	Registry *skills.Registry
	Manager  *orders.Manager
	Ledger   *inventory.Ledger

	classifier *schema.Classifier
}

// Close releases backend resources.
func (b *Backend) Close() {
	if b.classifier != nil {
		b.classifier.Close()
	}
}

// BuildBackend assembles the sheet client, ledger, order manager and tool
// registry from the stored connection and credentials. Failures return a
// TokenError naming what is missing.
func BuildBackend(ctx context.Context, cfg *config.Config, dirs *storage.Dirs, logger *slog.Logger) (*Backend, error) {
	if logger == nil {
		logger = slog.Default()
	}

	conn, err := config.LoadConnection(dirs)
	if errors.Is(err, config.ErrNoConnection) {
		return nil, &TokenError{Token: orders.TokenNoConnection}
	}
	if err != nil {
		return nil, &TokenError{Token: orders.TokenMissingConfiguration, cause: err}
	}

	if !conn.Inventory.Configured() {
		return nil, &TokenError{Token: orders.TokenMissingInventoryConfig}
	}
	if !conn.Orders.Configured() {
		return nil, &TokenError{Token: orders.TokenMissingOrdersConfig}
	}

	creds, err := loadSheetsCredentials(dirs, conn)
	if err != nil {
		return nil, err
	}

	var clientOpts []sheets.ClientOption
	if cfg.Sheets.BaseURL != "" {
		clientOpts = append(clientOpts, sheets.WithBaseURL(cfg.Sheets.BaseURL))
	}
	client := sheets.NewClient(ctx, creds, clientOpts...)

	classifier, err := schema.NewClassifier()
	if err != nil {
		return nil, fmt.Errorf("build classifier: %w", err)
	}

	ledger := inventory.NewLedger(client, classifier, conn.Inventory.Ref(), conn.Inventory.Layout, logger)
	manager := orders.NewManager(orders.ManagerConfig{
		Service:      client,
		Classifier:   classifier,
		Ledger:       ledger,
		OrdersRef:    conn.Orders.Ref(),
		OrdersLayout: conn.Orders.Layout,
		Guard:        orders.NewDedupeGuard(cfg.Orders.DedupeWindowDuration(), nil),
		Logger:       logger,
	})

	registry := skills.NewRegistry()
	toolset := storefront.NewToolset(manager, ledger, logger)
	if err := toolset.Register(registry); err != nil {
		classifier.Close()
		return nil, fmt.Errorf("register tools: %w", err)
	}

	return &Backend{
		Registry:   registry,
		Manager:    manager,
		Ledger:     ledger,
		classifier: classifier,
	}, nil
}

// loadSheetsCredentials prefers the encrypted store; a refresh token still
// sitting in a legacy connection file fills the gap when the store has the
// OAuth client pair but no token yet.
func loadSheetsCredentials(dirs *storage.Dirs, conn *config.Connection) (sheets.Credentials, error) {
	store, err := credentials.NewStore(dirs.ConfigDir("credentials"))
	if err != nil {
		return sheets.Credentials{}, &TokenError{Token: orders.TokenMissingConfiguration, cause: err}
	}

	creds, err := credentials.SheetsCredentials(store)
	if err == nil {
		return creds, nil
	}

	if conn.RefreshToken != "" {
		id, idErr := store.Get(credentials.KeySheetsClientID)
		secret, secretErr := store.Get(credentials.KeySheetsClientSecret)
		if idErr == nil && secretErr == nil {
			return sheets.Credentials{
				ClientID:     id,
				ClientSecret: secret,
				RefreshToken: conn.RefreshToken,
			}, nil
		}
	}

	return sheets.Credentials{}, &TokenError{Token: orders.TokenMissingInventoryConfig, cause: err}
}
