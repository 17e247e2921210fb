package sheets

import (
	"context"
	"fmt"
	"strings"
	"sync"
)

// FakeService is an in-memory RangeService for tests. Each worksheet is a
// dense grid addressed the same way the real backend addresses it, so
// range math bugs show up in tests rather than against live sheets.
type FakeService struct {
	mu     sync.Mutex
	sheets map[string][][]string

	// Err, when set, is returned by every call.
	Err error

	Gets    []string
	Appends []string
	Updates []string
}

// NewFakeService creates an empty fake.
func NewFakeService() *FakeService {
	return &FakeService{sheets: make(map[string][][]string)}
}

// Seed installs a worksheet grid. Row 0 of grid lands on sheet row 1.
func (f *FakeService) Seed(workbookID, worksheet string, grid [][]string) {
	f.mu.Lock()
	defer f.mu.Unlock()

	copied := make([][]string, len(grid))
	for i, row := range grid {
		copied[i] = append([]string(nil), row...)
	}
	f.sheets[f.key(workbookID, worksheet)] = copied
}

// Cell returns the value at a 1-based coordinate, or "" when out of range.
func (f *FakeService) Cell(workbookID, worksheet string, col, row int) string {
	f.mu.Lock()
	defer f.mu.Unlock()

	grid := f.sheets[f.key(workbookID, worksheet)]
	if row-1 < 0 || row-1 >= len(grid) {
		return ""
	}
	if col-1 < 0 || col-1 >= len(grid[row-1]) {
		return ""
	}
	return grid[row-1][col-1]
}

// RowCount returns the number of rows currently in the worksheet.
func (f *FakeService) RowCount(workbookID, worksheet string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.sheets[f.key(workbookID, worksheet)])
}

// Row returns a copy of a 1-based sheet row.
func (f *FakeService) Row(workbookID, worksheet string, row int) []string {
	f.mu.Lock()
	defer f.mu.Unlock()

	grid := f.sheets[f.key(workbookID, worksheet)]
	if row-1 < 0 || row-1 >= len(grid) {
		return nil
	}
	return append([]string(nil), grid[row-1]...)
}

// GetRange implements RangeService.
func (f *FakeService) GetRange(_ context.Context, workbookID, a1Range string) ([][]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.Gets = append(f.Gets, a1Range)
	if f.Err != nil {
		return nil, f.Err
	}

	worksheet, start, end, err := ParseA1(a1Range)
	if err != nil {
		return nil, err
	}
	grid := f.sheets[f.key(workbookID, worksheet)]

	startRow, endRow := start.Row, end.Row
	if startRow == 0 {
		startRow = 1
	}
	if endRow == 0 || endRow > len(grid) {
		endRow = len(grid)
	}

	var out [][]string
	for r := startRow; r <= endRow; r++ {
		row := grid[r-1]
		var cells []string
		for c := start.Col; c <= end.Col; c++ {
			if c-1 < len(row) {
				cells = append(cells, row[c-1])
			} else {
				cells = append(cells, "")
			}
		}
		// The real values API omits trailing empty cells.
		for len(cells) > 0 && cells[len(cells)-1] == "" {
			cells = cells[:len(cells)-1]
		}
		out = append(out, cells)
	}
	return out, nil
}

// AppendRow implements RangeService.
func (f *FakeService) AppendRow(_ context.Context, workbookID, a1Range string, values []string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.Appends = append(f.Appends, a1Range)
	if f.Err != nil {
		return f.Err
	}

	worksheet, start, _, err := ParseA1(a1Range)
	if err != nil {
		return err
	}

	key := f.key(workbookID, worksheet)
	row := make([]string, start.Col-1, start.Col-1+len(values))
	row = append(row, values...)
	f.sheets[key] = append(f.sheets[key], row)
	return nil
}

// UpdateRange implements RangeService.
func (f *FakeService) UpdateRange(_ context.Context, workbookID, a1Range string, values [][]string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.Updates = append(f.Updates, fmt.Sprintf("%s=%v", a1Range, values))
	if f.Err != nil {
		return f.Err
	}

	worksheet, start, _, err := ParseA1(a1Range)
	if err != nil {
		return err
	}

	key := f.key(workbookID, worksheet)
	grid := f.sheets[key]
	for i, rowValues := range values {
		r := start.Row + i
		for len(grid) < r {
			grid = append(grid, nil)
		}
		row := grid[r-1]
		for j, v := range rowValues {
			c := start.Col + j
			for len(row) < c {
				row = append(row, "")
			}
			row[c-1] = v
		}
		grid[r-1] = row
	}
	f.sheets[key] = grid
	return nil
}

func (f *FakeService) key(workbookID, worksheet string) string {
	return workbookID + "/" + strings.TrimSpace(worksheet)
}
