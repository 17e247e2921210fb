package sheets

import (
	"fmt"
	"strconv"
	"strings"
)

// Column letter arithmetic. The spreadsheet API is 1-based while stored
// layout descriptors are 0-based; both conventions appear at call sites,
// so each gets its own helper instead of a shared offset parameter.

// ColumnLetter converts a 1-based column number to its letter ("A" == 1).
func ColumnLetter(col int) string {
	return string(rune('A' + col - 1))
}

// ColumnLetterZero converts a 0-based column index to its letter ("A" == 0).
func ColumnLetterZero(col int) string {
	return string(rune('A' + col))
}

// CellRange builds an A1 reference for a single cell, 1-based.
func CellRange(worksheet string, col, row int) string {
	return fmt.Sprintf("%s!%s%d", worksheet, ColumnLetter(col), row)
}

// RectRange builds an A1 reference for a rectangle, 1-based inclusive.
func RectRange(worksheet string, startCol, startRow, endCol, endRow int) string {
	return fmt.Sprintf("%s!%s%d:%s%d",
		worksheet, ColumnLetter(startCol), startRow, ColumnLetter(endCol), endRow)
}

// ColumnSpan builds an unbounded column range such as "Orders!A:F".
func ColumnSpan(worksheet string, startCol, endCol int) string {
	return fmt.Sprintf("%s!%s:%s", worksheet, ColumnLetter(startCol), ColumnLetter(endCol))
}

// CellAddr is a parsed A1 cell reference, 1-based.
type CellAddr struct {
	Col int
	Row int
}

// ParseA1 splits an A1 range into its worksheet name and start/end cells.
// A bare cell reference ("B5") yields identical start and end. Unbounded
// column spans ("A:F") report row 0 on both ends.
func ParseA1(a1 string) (worksheet string, start, end CellAddr, err error) {
	ref := a1
	if idx := strings.LastIndex(a1, "!"); idx >= 0 {
		worksheet = a1[:idx]
		ref = a1[idx+1:]
	}

	first, rest, _ := strings.Cut(ref, ":")
	start, err = parseCell(first)
	if err != nil {
		return "", CellAddr{}, CellAddr{}, err
	}
	if rest == "" {
		return worksheet, start, start, nil
	}
	end, err = parseCell(rest)
	if err != nil {
		return "", CellAddr{}, CellAddr{}, err
	}
	return worksheet, start, end, nil
}

func parseCell(ref string) (CellAddr, error) {
	if ref == "" {
		return CellAddr{}, fmt.Errorf("empty cell reference")
	}

	split := 0
	for split < len(ref) && ref[split] >= 'A' && ref[split] <= 'Z' {
		split++
	}
	if split == 0 {
		return CellAddr{}, fmt.Errorf("cell reference %q has no column", ref)
	}

	col := 0
	for _, c := range ref[:split] {
		col = col*26 + int(c-'A'+1)
	}

	if split == len(ref) {
		return CellAddr{Col: col}, nil
	}

	row, err := strconv.Atoi(ref[split:])
	if err != nil {
		return CellAddr{}, fmt.Errorf("cell reference %q has a bad row: %w", ref, err)
	}
	return CellAddr{Col: col, Row: row}, nil
}
