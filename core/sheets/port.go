package sheets

import "context"

// RangeService is the I/O port for a range-oriented spreadsheet backend.
// Ranges are expressed in A1 notation, including the worksheet prefix
// (e.g. "Orders!A2:F1000"). Implementations own their own retry and
// timeout policy; callers treat every failure as terminal.
type RangeService interface {
	// GetRange returns the cell values inside the rectangle. Trailing
	// empty cells may be omitted per row.
	GetRange(ctx context.Context, workbookID, a1Range string) ([][]string, error)

	// AppendRow appends a single row after the last data row of the
	// table anchored at a1Range.
	AppendRow(ctx context.Context, workbookID, a1Range string, values []string) error

	// UpdateRange overwrites the cells inside the rectangle.
	UpdateRange(ctx context.Context, workbookID, a1Range string, values [][]string) error
}

// SheetRef addresses one worksheet inside a workbook.
type SheetRef struct {
	WorkbookID string `json:"workbook_id"`
	Worksheet  string `json:"worksheet_name"`
}
