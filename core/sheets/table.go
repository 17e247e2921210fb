package sheets

import (
	"context"
	"strings"
)

const (
	// fallbackScanRange is deliberately oversized so that tables which
	// do not start at A1 are still captured when no layout is stored.
	fallbackScanRange = "A1:Z2000"

	// layoutScanRows bounds how far below a stored header row we read.
	layoutScanRows = 1000
)

// Layout pins where a logical table sits inside a worksheet. StartRow and
// StartCol are 0-based as stored in the connection file; the header row
// itself lives at StartRow and data begins on the row after it.
type Layout struct {
	StartRow int      `json:"start_row" yaml:"start_row"`
	StartCol int      `json:"start_col" yaml:"start_col"`
	Headers  []string `json:"headers" yaml:"headers"`
}

// Table is a rectangular read of a worksheet: an ordered header list and
// one map per data row keyed by those headers. Tables are rebuilt on every
// read; nothing here survives across calls.
type Table struct {
	Headers []string
	Rows    []map[string]string
}

// RowCount returns the number of non-blank data rows.
func (t *Table) RowCount() int {
	return len(t.Rows)
}

// SheetRow converts a data-row index into its 1-based worksheet row,
// accounting for the header row and any layout offset.
func (t *Table) SheetRow(layout *Layout, rowIdx int) int {
	if layout == nil {
		return rowIdx + 2
	}
	return layout.StartRow + 2 + rowIdx
}

// QuantityColumn returns the 1-based worksheet column of the first header
// containing a stock-tracking token, or 0 when the table has none.
func (t *Table) QuantityColumn(layout *Layout) int {
	offset := 0
	if layout != nil {
		offset = layout.StartCol
	}
	for i, header := range t.Headers {
		lower := strings.ToLower(header)
		if strings.Contains(lower, "quantity") ||
			strings.Contains(lower, "stock") ||
			strings.Contains(lower, "qty") ||
			strings.Contains(lower, "available") {
			return offset + i + 1
		}
	}
	return 0
}

// Reader builds Tables from a RangeService, either from a stored layout
// descriptor or by auto-detecting the header row with a full-range scan.
type Reader struct {
	svc RangeService
}

// NewReader creates a Reader over the given range service.
func NewReader(svc RangeService) *Reader {
	return &Reader{svc: svc}
}

// Read fetches the table for ref. When layout is non-nil the read range is
// computed exactly from the stored descriptor and rows are keyed by the
// stored headers positionally. Otherwise the first row of a best-effort
// scan becomes the header row, normalized to snake_case. Headers are never
// inferred by content sniffing.
func (r *Reader) Read(ctx context.Context, ref SheetRef, layout *Layout) (*Table, error) {
	if layout != nil && len(layout.Headers) > 0 {
		return r.readWithLayout(ctx, ref, layout)
	}
	return r.readFallback(ctx, ref)
}

func (r *Reader) readWithLayout(ctx context.Context, ref SheetRef, layout *Layout) (*Table, error) {
	startCol := layout.StartCol + 1
	endCol := startCol + len(layout.Headers) - 1
	dataRow := layout.StartRow + 2 // 1-based, skipping the header row

	rng := RectRange(ref.Worksheet, startCol, dataRow, endCol, layoutScanRows)
	raw, err := r.svc.GetRange(ctx, ref.WorkbookID, rng)
	if err != nil {
		return nil, err
	}

	table := &Table{Headers: layout.Headers}
	for _, row := range raw {
		if blankRow(row) {
			continue
		}
		table.Rows = append(table.Rows, keyByHeaders(layout.Headers, row))
	}
	return table, nil
}

func (r *Reader) readFallback(ctx context.Context, ref SheetRef) (*Table, error) {
	raw, err := r.svc.GetRange(ctx, ref.WorkbookID, ref.Worksheet+"!"+fallbackScanRange)
	if err != nil {
		return nil, err
	}
	if len(raw) == 0 {
		return &Table{}, nil
	}

	headers := make([]string, 0, len(raw[0]))
	for _, h := range raw[0] {
		headers = append(headers, NormalizeHeader(h))
	}

	table := &Table{Headers: headers}
	for _, row := range raw[1:] {
		if blankRow(row) {
			continue
		}
		record := make(map[string]string, len(headers))
		for i, header := range headers {
			if header == "" {
				continue
			}
			record[header] = cellAt(row, i)
		}
		if len(record) > 0 {
			table.Rows = append(table.Rows, record)
		}
	}
	return table, nil
}

// NormalizeHeader lowercases a header and collapses spaces and hyphens to
// underscores, the same cleaning the classifier applies to its keys.
func NormalizeHeader(header string) string {
	h := strings.ToLower(strings.TrimSpace(header))
	h = strings.ReplaceAll(h, " ", "_")
	h = strings.ReplaceAll(h, "-", "_")
	return h
}

func keyByHeaders(headers []string, row []string) map[string]string {
	record := make(map[string]string, len(headers))
	for i, header := range headers {
		record[header] = cellAt(row, i)
	}
	return record
}

func cellAt(row []string, i int) string {
	if i < len(row) {
		return strings.TrimSpace(row[i])
	}
	return ""
}

func blankRow(row []string) bool {
	for _, cell := range row {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}
