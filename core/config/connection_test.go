package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/adalundhe/shopkeep/core/sheets"
	"github.com/adalundhe/shopkeep/core/storage"
)

func writeConnection(t *testing.T, dirs *storage.Dirs, content string) {
	t.Helper()
	path := filepath.Join(dirs.Config, "connection.json")
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatalf("Write failed: %v", err)
	}
}

func TestLoadConnection_DualSheet(t *testing.T) {
	dirs := testDirs(t)
	writeConnection(t, dirs, `{
		"inventory": {
			"workbook_id": "wb-1",
			"worksheet_name": "Inventory",
			"table_structure": {"start_row": 0, "start_col": 0, "headers": ["Item Name", "Quantity"]}
		},
		"orders": {"workbook_id": "wb-1", "worksheet_name": "Orders"}
	}`)

	conn, err := LoadConnection(dirs)
	if err != nil {
		t.Fatalf("LoadConnection failed: %v", err)
	}

	if conn.Inventory.Ref() != (sheets.SheetRef{WorkbookID: "wb-1", Worksheet: "Inventory"}) {
		t.Errorf("Inventory ref: got %+v", conn.Inventory.Ref())
	}
	if conn.Inventory.Layout == nil || len(conn.Inventory.Layout.Headers) != 2 {
		t.Errorf("Inventory layout not parsed: %+v", conn.Inventory.Layout)
	}
	if conn.Orders.Layout != nil {
		t.Error("Orders layout should be nil when absent")
	}
}

func TestLoadConnection_LegacySingleSheet(t *testing.T) {
	dirs := testDirs(t)
	writeConnection(t, dirs, `{"sheet_id": "wb-legacy", "refresh_token": "tok"}`)

	conn, err := LoadConnection(dirs)
	if err != nil {
		t.Fatalf("LoadConnection failed: %v", err)
	}

	if conn.Inventory.WorkbookID != "wb-legacy" || conn.Inventory.Worksheet != "Sheet1" {
		t.Errorf("Inventory binding: got %+v", conn.Inventory)
	}
	if conn.Orders.WorkbookID != "wb-legacy" || conn.Orders.Worksheet != "Orders" {
		t.Errorf("Orders binding: got %+v", conn.Orders)
	}
	if conn.RefreshToken != "tok" {
		t.Errorf("RefreshToken: got %q", conn.RefreshToken)
	}
}

func TestLoadConnection_Missing(t *testing.T) {
	_, err := LoadConnection(testDirs(t))
	if err != ErrNoConnection {
		t.Errorf("got %v, want ErrNoConnection", err)
	}
}

func TestLoadConnection_Invalid(t *testing.T) {
	dirs := testDirs(t)
	writeConnection(t, dirs, `{"something": "else"}`)

	if _, err := LoadConnection(dirs); err == nil {
		t.Error("invalid file should fail")
	}
}

func TestSaveConnection_RoundTripDropsToken(t *testing.T) {
	dirs := testDirs(t)
	conn := &Connection{
		Inventory:    SheetBinding{WorkbookID: "wb-2", Worksheet: "Stock"},
		Orders:       SheetBinding{WorkbookID: "wb-2", Worksheet: "Orders"},
		RefreshToken: "secret",
	}

	if err := SaveConnection(dirs, conn); err != nil {
		t.Fatalf("SaveConnection failed: %v", err)
	}

	loaded, err := LoadConnection(dirs)
	if err != nil {
		t.Fatalf("LoadConnection failed: %v", err)
	}
	if loaded.Inventory.Worksheet != "Stock" {
		t.Errorf("Worksheet: got %s", loaded.Inventory.Worksheet)
	}
	if loaded.RefreshToken != "" {
		t.Error("RefreshToken must not be persisted")
	}
}

func TestSaveConnection_RejectsIncomplete(t *testing.T) {
	dirs := testDirs(t)
	err := SaveConnection(dirs, &Connection{
		Inventory: SheetBinding{WorkbookID: "wb"},
	})
	if err == nil {
		t.Error("incomplete connection should be rejected")
	}
}
