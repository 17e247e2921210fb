package inventory

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"github.com/adalundhe/shopkeep/core/schema"
	"github.com/adalundhe/shopkeep/core/sheets"
)

var (
	ErrProductNotFound       = errors.New("product not found in inventory")
	ErrQuantityColumnMissing = errors.New("quantity column not found")
	ErrInsufficientStock     = errors.New("insufficient stock")
	ErrRowUntracked          = errors.New("row has no numeric quantity")
)

// Ledger locates products in the inventory sheet and adjusts their stock.
// The sheet is the only source of truth; every operation re-reads it.
type Ledger struct {
	svc        sheets.RangeService
	reader     *sheets.Reader
	classifier *schema.Classifier
	ref        sheets.SheetRef
	layout     *sheets.Layout
	logger     *slog.Logger
}

// NewLedger builds a Ledger over the given sheet. logger may be nil.
func NewLedger(
	svc sheets.RangeService,
	classifier *schema.Classifier,
	ref sheets.SheetRef,
	layout *sheets.Layout,
	logger *slog.Logger,
) *Ledger {
	if logger == nil {
		logger = slog.Default()
	}
	return &Ledger{
		svc:        svc,
		reader:     sheets.NewReader(svc),
		classifier: classifier,
		ref:        ref,
		layout:     layout,
		logger:     logger,
	}
}

// Item is one matched inventory row with its classified columns. Fields
// preserves the row under its original column names for downstream tools.
type Item struct {
	RowIndex   int
	SheetRow   int
	Detections map[schema.Role]schema.Detection
	Fields     map[string]string
}

// Name returns the detected product name value.
func (it *Item) Name() string {
	return it.Detections[schema.RoleProductName].Value
}

// Availability parses the item's quantity cell. sheetTracked reports
// whether the inventory sheet tracks quantities at all; untracked sheets
// make every row untracked.
func (it *Item) Availability(sheetTracked bool) Availability {
	if !sheetTracked {
		return Untracked()
	}
	det, ok := it.Detections[schema.RoleQuantity]
	if !ok {
		return Untracked()
	}
	return ParseAvailability(det.Value)
}

// Snapshot is one read of the inventory sheet, shared across the lookups
// of a single operation so multi-item orders see a consistent view.
type Snapshot struct {
	Table   *sheets.Table
	layout  *sheets.Layout
	tracked bool
	items   []*Item
}

// Snapshot reads the whole inventory table and classifies every row.
func (l *Ledger) Snapshot(ctx context.Context) (*Snapshot, error) {
	table, err := l.reader.Read(ctx, l.ref, l.layout)
	if err != nil {
		return nil, fmt.Errorf("read inventory: %w", err)
	}

	snap := &Snapshot{
		Table:   table,
		layout:  l.layout,
		tracked: table.QuantityColumn(l.layout) != 0,
	}
	for i, row := range table.Rows {
		snap.items = append(snap.items, &Item{
			RowIndex:   i,
			SheetRow:   table.SheetRow(l.layout, i),
			Detections: l.classifier.Classify(table.Headers, row),
			Fields:     row,
		})
	}
	return snap, nil
}

// Tracked reports whether the sheet has a quantity column at all. Sheets
// without one belong to service or food businesses; availability checks
// and stock writes are skipped wholesale for them.
func (s *Snapshot) Tracked() bool {
	return s.tracked
}

// Items returns every classified row.
func (s *Snapshot) Items() []*Item {
	return s.items
}

// Find locates a product by name. Case-insensitive exact match wins over
// substring containment; within each strength the first row wins. The
// substring fallback keeps "Aloe Gel" resolving even when the sheet says
// "Aloe Gel 200ml".
func (s *Snapshot) Find(query string) (*Item, bool) {
	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" {
		return nil, false
	}

	var partial *Item
	for _, item := range s.items {
		name := strings.ToLower(item.Name())
		if name == "" {
			continue
		}
		if name == q {
			return item, true
		}
		if partial == nil && strings.Contains(name, q) {
			partial = item
		}
	}
	if partial != nil {
		return partial, true
	}
	return nil, false
}

// Adjust applies a signed delta to the item's quantity cell with a
// point-range write. The cell is re-read immediately before writing and
// the new value computed from that fresh read, which narrows (but cannot
// close) the window where a concurrent order would clobber the count.
// Negative results are rejected with ErrInsufficientStock.
func (l *Ledger) Adjust(ctx context.Context, snap *Snapshot, item *Item, delta int) (int, error) {
	col := snap.Table.QuantityColumn(l.layout)
	if col == 0 {
		return 0, ErrQuantityColumnMissing
	}

	cell := sheets.CellRange(l.ref.Worksheet, col, item.SheetRow)
	fresh, err := l.readCell(ctx, cell)
	if err != nil {
		return 0, fmt.Errorf("read quantity cell: %w", err)
	}

	avail := ParseAvailability(fresh)
	if !avail.Tracked {
		return 0, ErrRowUntracked
	}

	next := avail.Count + delta
	if next < 0 {
		return avail.Count, fmt.Errorf("%w: have %d, change %d", ErrInsufficientStock, avail.Count, delta)
	}

	values := [][]string{{strconv.Itoa(next)}}
	if err := l.svc.UpdateRange(ctx, l.ref.WorkbookID, cell, values); err != nil {
		return 0, fmt.Errorf("write quantity cell: %w", err)
	}

	l.logger.Info("inventory adjusted",
		"product", item.Name(),
		"cell", cell,
		"previous", avail.Count,
		"delta", delta,
		"new", next)
	return next, nil
}

func (l *Ledger) readCell(ctx context.Context, cell string) (string, error) {
	rows, err := l.svc.GetRange(ctx, l.ref.WorkbookID, cell)
	if err != nil {
		return "", err
	}
	if len(rows) == 0 || len(rows[0]) == 0 {
		return "", nil
	}
	return rows[0][0], nil
}
