package orders

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/adalundhe/shopkeep/core/schema"
	"github.com/adalundhe/shopkeep/core/sheets"
)

var errOrderNotFound = errors.New("order not found")

// orderRow is one located order with its classified columns.
type orderRow struct {
	table    *sheets.Table
	mapping  map[schema.Role]schema.HeaderMatch
	row      map[string]string
	index    int
	sheetRow int
}

// value reads the cell under the header classified as role, or "".
func (or *orderRow) value(role schema.Role) string {
	match, ok := or.mapping[role]
	if !ok {
		return ""
	}
	return strings.TrimSpace(or.row[match.Key])
}

// headerIndex locates a header's position, -1 when absent.
func (or *orderRow) headerIndex(header string) int {
	for i, h := range or.table.Headers {
		if h == header {
			return i
		}
	}
	return -1
}

// findOrder scans the orders table for the row whose id-role column
// equals orderID. A sheet with no recognizable id column cannot locate
// anything, which surfaces as not-found rather than a schema error.
func (m *Manager) findOrder(ctx context.Context, orderID string) (*orderRow, error) {
	table, err := m.reader.Read(ctx, m.ordersRef, m.ordersLayout)
	if err != nil {
		return nil, err
	}

	mapping := m.classifier.Mapping(table.Headers)
	idMatch, ok := mapping[schema.RoleID]
	if !ok {
		return nil, errOrderNotFound
	}

	want := strings.TrimSpace(orderID)
	for i, row := range table.Rows {
		if strings.TrimSpace(row[idMatch.Key]) == want {
			return &orderRow{
				table:    table,
				mapping:  mapping,
				row:      row,
				index:    i,
				sheetRow: table.SheetRow(m.ordersLayout, i),
			}, nil
		}
	}
	return nil, errOrderNotFound
}

// writeOrderCell point-writes one cell of the located order row.
func (m *Manager) writeOrderCell(ctx context.Context, or *orderRow, headerIdx int, value string) error {
	col := m.startCol() + headerIdx + 1
	cell := sheets.CellRange(m.ordersRef.Worksheet, col, or.sheetRow)
	return m.svc.UpdateRange(ctx, m.ordersRef.WorkbookID, cell, [][]string{{value}})
}

// applyRowUpdates writes every non-empty value from a reconciled update
// row to its cell. Empty entries mean "leave the cell alone": updates
// only ever rewrite cells that have a new value.
func (m *Manager) applyRowUpdates(ctx context.Context, or *orderRow, updates []string) (int, error) {
	written := 0
	for i, value := range updates {
		if value == "" {
			continue
		}
		if err := m.writeOrderCell(ctx, or, i, value); err != nil {
			return written, fmt.Errorf("write %q: %w", or.table.Headers[i], err)
		}
		written++
	}
	return written, nil
}
