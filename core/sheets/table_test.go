package sheets

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testWorkbook = "wb-1"

func TestReader_WithLayout(t *testing.T) {
	fake := NewFakeService()
	fake.Seed(testWorkbook, "Orders", [][]string{
		{"", "", ""},
		{"", "Order ID", "Customer", "Item"},
		{"", "ORD-1", "Ali", "Aloe Gel"},
		{"", "", "", ""},
		{"", "ORD-2", "Sara", "Face Wash"},
	})

	layout := &Layout{
		StartRow: 1,
		StartCol: 1,
		Headers:  []string{"Order ID", "Customer", "Item"},
	}

	table, err := NewReader(fake).Read(context.Background(), SheetRef{testWorkbook, "Orders"}, layout)
	require.NoError(t, err)

	// Stored headers pass through untouched, blank rows are dropped.
	assert.Equal(t, []string{"Order ID", "Customer", "Item"}, table.Headers)
	require.Equal(t, 2, table.RowCount())
	assert.Equal(t, "Ali", table.Rows[0]["Customer"])
	assert.Equal(t, "Face Wash", table.Rows[1]["Item"])

	require.Len(t, fake.Gets, 1)
	assert.Equal(t, "Orders!B3:D1000", fake.Gets[0])
}

func TestReader_Fallback(t *testing.T) {
	fake := NewFakeService()
	fake.Seed(testWorkbook, "Sheet1", [][]string{
		{"Product Name", "Quantity", "Unit-Price"},
		{"Aloe Gel", "50", "500"},
		{"", "", ""},
		{"Face Wash", "12"},
	})

	table, err := NewReader(fake).Read(context.Background(), SheetRef{testWorkbook, "Sheet1"}, nil)
	require.NoError(t, err)

	assert.Equal(t, []string{"product_name", "quantity", "unit_price"}, table.Headers)
	require.Equal(t, 2, table.RowCount())
	assert.Equal(t, "50", table.Rows[0]["quantity"])

	// Missing trailing cell reads as empty string, not absent.
	assert.Equal(t, "", table.Rows[1]["unit_price"])
}

func TestReader_FallbackEmptySheet(t *testing.T) {
	fake := NewFakeService()

	table, err := NewReader(fake).Read(context.Background(), SheetRef{testWorkbook, "Empty"}, nil)
	require.NoError(t, err)
	assert.Equal(t, 0, table.RowCount())
	assert.Empty(t, table.Headers)
}

func TestReader_TransportErrorPropagates(t *testing.T) {
	fake := NewFakeService()
	fake.Err = errors.New("boom")

	_, err := NewReader(fake).Read(context.Background(), SheetRef{testWorkbook, "Sheet1"}, nil)
	require.Error(t, err)
	assert.Len(t, fake.Gets, 1, "no retries")
}

func TestTable_SheetRow(t *testing.T) {
	table := &Table{}

	assert.Equal(t, 2, table.SheetRow(nil, 0))
	assert.Equal(t, 5, table.SheetRow(nil, 3))

	layout := &Layout{StartRow: 3}
	assert.Equal(t, 5, table.SheetRow(layout, 0))
}

func TestTable_QuantityColumn(t *testing.T) {
	table := &Table{Headers: []string{"Item", "In Stock", "Price"}}
	assert.Equal(t, 2, table.QuantityColumn(nil))

	offset := &Layout{StartCol: 2}
	assert.Equal(t, 4, table.QuantityColumn(offset))

	none := &Table{Headers: []string{"Item", "Price"}}
	assert.Equal(t, 0, none.QuantityColumn(nil))
}

func TestNormalizeHeader(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"Product Name", "product_name"},
		{" Unit-Price ", "unit_price"},
		{"QTY", "qty"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, NormalizeHeader(tt.in))
	}
}
