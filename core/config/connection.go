package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/adalundhe/shopkeep/core/sheets"
	"github.com/adalundhe/shopkeep/core/storage"
)

const connectionFile = "connection.json"

var (
	ErrNoConnection      = errors.New("no connection configured")
	ErrInvalidConnection = errors.New("invalid connection file format")
)

// SheetBinding ties one logical table to a worksheet, optionally pinned to
// a stored layout descriptor captured during setup.
type SheetBinding struct {
	WorkbookID string         `json:"workbook_id"`
	Worksheet  string         `json:"worksheet_name"`
	Layout     *sheets.Layout `json:"table_structure,omitempty"`
}

// Ref converts the binding into a sheet reference.
func (b SheetBinding) Ref() sheets.SheetRef {
	return sheets.SheetRef{WorkbookID: b.WorkbookID, Worksheet: b.Worksheet}
}

// Configured reports whether the binding points anywhere.
func (b SheetBinding) Configured() bool {
	return b.WorkbookID != "" && b.Worksheet != ""
}

// Connection is the persisted dual-sheet configuration. RefreshToken is
// only populated when migrating a legacy file that carried its token
// inline; new files keep tokens in the credential store.
type Connection struct {
	Inventory    SheetBinding `json:"inventory"`
	Orders       SheetBinding `json:"orders"`
	RefreshToken string       `json:"refresh_token,omitempty"`
}

// legacyConnection is the original single-sheet file format.
type legacyConnection struct {
	SheetID      string `json:"sheet_id"`
	RefreshToken string `json:"refresh_token"`
}

// ConnectionPath returns where the connection file lives.
func ConnectionPath(dirs *storage.Dirs) string {
	return dirs.ConfigDir(connectionFile)
}

// LoadConnection reads the connection file, transparently upgrading the
// legacy single-sheet format: the one workbook is assumed to hold its
// inventory on "Sheet1" and its orders on "Orders".
func LoadConnection(dirs *storage.Dirs) (*Connection, error) {
	data, err := os.ReadFile(ConnectionPath(dirs))
	if os.IsNotExist(err) {
		return nil, ErrNoConnection
	}
	if err != nil {
		return nil, err
	}
	return parseConnection(data)
}

func parseConnection(data []byte) (*Connection, error) {
	var conn Connection
	if err := json.Unmarshal(data, &conn); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidConnection, err)
	}
	if conn.Inventory.Configured() && conn.Orders.Configured() {
		return &conn, nil
	}

	var legacy legacyConnection
	if err := json.Unmarshal(data, &legacy); err != nil || legacy.SheetID == "" {
		return nil, ErrInvalidConnection
	}
	return &Connection{
		Inventory:    SheetBinding{WorkbookID: legacy.SheetID, Worksheet: "Sheet1"},
		Orders:       SheetBinding{WorkbookID: legacy.SheetID, Worksheet: "Orders"},
		RefreshToken: legacy.RefreshToken,
	}, nil
}

// SaveConnection writes the connection file with private permissions. The
// RefreshToken field is dropped on save; tokens belong in the credential
// store.
func SaveConnection(dirs *storage.Dirs, conn *Connection) error {
	if conn == nil || !conn.Inventory.Configured() || !conn.Orders.Configured() {
		return ErrInvalidConnection
	}

	saved := *conn
	saved.RefreshToken = ""

	data, err := json.MarshalIndent(&saved, "", "  ")
	if err != nil {
		return err
	}

	path := ConnectionPath(dirs)
	if err := storage.EnsureSensitiveDir(filepath.Dir(path)); err != nil {
		return err
	}
	return os.WriteFile(path, data, 0600)
}
