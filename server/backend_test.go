package server

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/adalundhe/shopkeep/core/config"
	"github.com/adalundhe/shopkeep/core/credentials"
	"github.com/adalundhe/shopkeep/core/sheets"
	"github.com/adalundhe/shopkeep/core/storage"
)

func testDirs(t *testing.T) *storage.Dirs {
	t.Helper()
	return &storage.Dirs{
		Config: t.TempDir(),
		Data:   t.TempDir(),
		Cache:  t.TempDir(),
		State:  t.TempDir(),
	}
}

func assertToken(t *testing.T, err error, token string) {
	t.Helper()

	var tokenErr *TokenError
	require.ErrorAs(t, err, &tokenErr)
	assert.Equal(t, token, tokenErr.Token)
}

func TestBuildBackend_NoConnection(t *testing.T) {
	_, err := BuildBackend(context.Background(), config.DefaultConfig(), testDirs(t), nil)
	assertToken(t, err, "no_connection_configured")
}

func TestBuildBackend_MissingCredentials(t *testing.T) {
	dirs := testDirs(t)
	require.NoError(t, config.SaveConnection(dirs, &config.Connection{
		Inventory: config.SheetBinding{WorkbookID: "wb", Worksheet: "Sheet1"},
		Orders:    config.SheetBinding{WorkbookID: "wb", Worksheet: "Orders"},
	}))

	_, err := BuildBackend(context.Background(), config.DefaultConfig(), dirs, nil)
	assertToken(t, err, "missing_inventory_config_or_token")
}

func TestBuildBackend_FullyConfigured(t *testing.T) {
	dirs := testDirs(t)
	require.NoError(t, config.SaveConnection(dirs, &config.Connection{
		Inventory: config.SheetBinding{WorkbookID: "wb", Worksheet: "Sheet1"},
		Orders:    config.SheetBinding{WorkbookID: "wb", Worksheet: "Orders"},
	}))

	store, err := credentials.NewStore(dirs.ConfigDir("credentials"))
	require.NoError(t, err)
	require.NoError(t, credentials.SaveSheetsCredentials(store, sheets.Credentials{
		ClientID:     "cid",
		ClientSecret: "cs",
		RefreshToken: "rt",
	}))

	backend, err := BuildBackend(context.Background(), config.DefaultConfig(), dirs, nil)
	require.NoError(t, err)
	defer backend.Close()

	assert.Len(t, backend.Registry.Names(), 10)
}

func TestTokenError_Unwrap(t *testing.T) {
	cause := errors.New("boom")
	err := &TokenError{Token: "missing_configuration", cause: cause}

	assert.Contains(t, err.Error(), "missing_configuration")
	assert.ErrorIs(t, err, cause)
}
