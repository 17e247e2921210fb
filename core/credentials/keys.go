package credentials

import (
	"errors"
	"os"

	"github.com/adalundhe/shopkeep/core/sheets"
)

// SheetsCredentials assembles the OAuth client triple for the spreadsheet
// backend from the store.
func SheetsCredentials(store *Store) (sheets.Credentials, error) {
	id, err := store.Get(KeySheetsClientID)
	if err != nil {
		return sheets.Credentials{}, err
	}
	secret, err := store.Get(KeySheetsClientSecret)
	if err != nil {
		return sheets.Credentials{}, err
	}
	token, err := store.Get(KeySheetsRefreshToken)
	if err != nil {
		return sheets.Credentials{}, err
	}
	return sheets.Credentials{
		ClientID:     id,
		ClientSecret: secret,
		RefreshToken: token,
	}, nil
}

// SaveSheetsCredentials writes the OAuth client triple to the store.
func SaveSheetsCredentials(store *Store, creds sheets.Credentials) error {
	if err := store.Set(KeySheetsClientID, creds.ClientID); err != nil {
		return err
	}
	if err := store.Set(KeySheetsClientSecret, creds.ClientSecret); err != nil {
		return err
	}
	return store.Set(KeySheetsRefreshToken, creds.RefreshToken)
}

// AnthropicAPIKey resolves the model provider key: the environment wins so
// CI and containers never need a credential file.
func AnthropicAPIKey(store *Store) (string, error) {
	if key := os.Getenv("ANTHROPIC_API_KEY"); key != "" {
		return key, nil
	}
	key, err := store.Get(KeyAnthropicAPIKey)
	if errors.Is(err, ErrNotFound) {
		return "", errors.New("no Anthropic API key: set ANTHROPIC_API_KEY or run setup")
	}
	return key, err
}
