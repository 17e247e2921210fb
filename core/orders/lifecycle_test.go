package orders

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/adalundhe/shopkeep/core/inventory"
	"github.com/adalundhe/shopkeep/core/schema"
	"github.com/adalundhe/shopkeep/core/sheets"
)

const (
	testWorkbook   = "wb-shop"
	inventorySheet = "Inventory"
	ordersSheet    = "Orders"

	testOrderID = "ORD-1700000000"
)

// Inventory columns: A=Product Name, B=Price, C=Quantity.
func seedShop(fake *sheets.FakeService) {
	fake.Seed(testWorkbook, inventorySheet, [][]string{
		{"Product Name", "Price", "Quantity"},
		{"Aloe Gel", "500", "50"},
		{"Face Cream", "900", "10"},
		{"Pizza", "300", "5"},
	})
	fake.Seed(testWorkbook, ordersSheet, [][]string{defaultOrderHeaders})
}

func newTestManager(t *testing.T, fake *sheets.FakeService) *Manager {
	t.Helper()

	classifier, err := schema.NewClassifier()
	require.NoError(t, err)
	t.Cleanup(classifier.Close)

	invRef := sheets.SheetRef{WorkbookID: testWorkbook, Worksheet: inventorySheet}
	ledger := inventory.NewLedger(fake, classifier, invRef, nil, nil)

	return NewManager(ManagerConfig{
		Service:    fake,
		Classifier: classifier,
		Ledger:     ledger,
		OrdersRef:  sheets.SheetRef{WorkbookID: testWorkbook, Worksheet: ordersSheet},
		Now:        func() time.Time { return time.Unix(1_700_000_000, 0) },
	})
}

func invStock(fake *sheets.FakeService, row int) string {
	return fake.Cell(testWorkbook, inventorySheet, 3, row)
}

func orderCell(fake *sheets.FakeService, col, row int) string {
	return fake.Cell(testWorkbook, ordersSheet, col, row)
}

func TestCreate_Success(t *testing.T) {
	fake := sheets.NewFakeService()
	seedShop(fake)
	m := newTestManager(t, fake)

	res := m.Create(context.Background(), CreateRequest{
		CustomerName:    "Ali Khan",
		ProductName:     "aloe gel",
		Quantity:        3,
		CustomerEmail:   "ali@example.com",
		CustomerAddress: "12 Canal Road",
		PaymentMode:     "COD",
	})
	require.True(t, res.Success, "error=%s message=%s", res.Error, res.Message)

	assert.Equal(t, "47", invStock(fake, 2))
	assert.Equal(t, 50, res.OrderDetails["previous_stock"])
	assert.Equal(t, 47, res.OrderDetails["new_stock"])
	assert.Equal(t, testOrderID, res.OrderDetails["order_id"])

	// Appended order row, columns A..K.
	assert.Equal(t, testOrderID, orderCell(fake, 1, 2))
	assert.Equal(t, "Ali Khan", orderCell(fake, 2, 2))
	assert.Equal(t, "Aloe Gel", orderCell(fake, 3, 2))
	assert.Equal(t, "3", orderCell(fake, 4, 2))
	assert.Equal(t, "500", orderCell(fake, 5, 2))
	assert.Equal(t, "1500", orderCell(fake, 6, 2))
	assert.Equal(t, StatusPending, orderCell(fake, 7, 2))
	assert.Equal(t, "ali@example.com", orderCell(fake, 8, 2))
	assert.Equal(t, "12 Canal Road", orderCell(fake, 9, 2))
	assert.Equal(t, "COD", orderCell(fake, 10, 2))

	assert.Contains(t, res.OrderSummary, testOrderID)
	assert.Contains(t, res.OrderSummary, "3 x Aloe Gel")
}

func TestCreate_ProductNotFound(t *testing.T) {
	fake := sheets.NewFakeService()
	seedShop(fake)
	m := newTestManager(t, fake)

	res := m.Create(context.Background(), CreateRequest{
		CustomerName: "Ali", ProductName: "Shampoo", Quantity: 1,
	})
	assert.Equal(t, TokenProductNotFound, res.Error)
	assert.False(t, res.Success)
	assert.Equal(t, 1, fake.RowCount(testWorkbook, ordersSheet), "no order row written")
}

func TestCreate_InsufficientStock(t *testing.T) {
	fake := sheets.NewFakeService()
	seedShop(fake)
	m := newTestManager(t, fake)

	res := m.Create(context.Background(), CreateRequest{
		CustomerName: "Ali", ProductName: "Aloe Gel", Quantity: 100,
	})
	assert.Equal(t, TokenInsufficientStock, res.Error)
	assert.Equal(t, "50", invStock(fake, 2), "stock untouched on rejection")
	assert.Equal(t, 1, fake.RowCount(testWorkbook, ordersSheet))
}

func TestCreate_Validation(t *testing.T) {
	fake := sheets.NewFakeService()
	seedShop(fake)
	m := newTestManager(t, fake)

	res := m.Create(context.Background(), CreateRequest{ProductName: "Aloe Gel", Quantity: 1})
	assert.Equal(t, TokenMissingCustomerInfo, res.Error)

	res = m.Create(context.Background(), CreateRequest{CustomerName: "Ali", Quantity: 1})
	assert.Equal(t, TokenInvalidFormat, res.Error)

	res = m.Create(context.Background(), CreateRequest{CustomerName: "Ali", ProductName: "Aloe Gel"})
	assert.Equal(t, TokenInvalidFormat, res.Error)
}

func TestCreate_DuplicateSuppressed(t *testing.T) {
	fake := sheets.NewFakeService()
	seedShop(fake)
	m := newTestManager(t, fake)

	req := CreateRequest{
		CustomerName:  "Ali Khan",
		ProductName:   "Aloe Gel",
		Quantity:      3,
		CustomerEmail: "ali@example.com",
	}

	first := m.Create(context.Background(), req)
	require.True(t, first.Success)

	second := m.Create(context.Background(), req)
	assert.True(t, second.Success)
	assert.True(t, second.DuplicatePrevention)

	// Exactly one decrement and one appended row.
	assert.Equal(t, "47", invStock(fake, 2))
	assert.Equal(t, 2, fake.RowCount(testWorkbook, ordersSheet))
}

func TestCreate_UntrackedSheetSkipsStock(t *testing.T) {
	fake := sheets.NewFakeService()
	fake.Seed(testWorkbook, inventorySheet, [][]string{
		{"Item Name", "Price"},
		{"Haircut", "1500"},
	})
	fake.Seed(testWorkbook, ordersSheet, [][]string{defaultOrderHeaders})
	m := newTestManager(t, fake)

	res := m.Create(context.Background(), CreateRequest{
		CustomerName: "Ali", ProductName: "Haircut", Quantity: 2,
	})
	require.True(t, res.Success, "error=%s message=%s", res.Error, res.Message)
	assert.Equal(t, "Haircut", orderCell(fake, 3, 2))
	assert.Equal(t, "2", orderCell(fake, 4, 2))
}

func TestCreate_SeedsHeadersOnEmptyOrdersSheet(t *testing.T) {
	fake := sheets.NewFakeService()
	fake.Seed(testWorkbook, inventorySheet, [][]string{
		{"Product Name", "Price", "Quantity"},
		{"Aloe Gel", "500", "50"},
	})
	m := newTestManager(t, fake)

	res := m.Create(context.Background(), CreateRequest{
		CustomerName: "Ali", ProductName: "Aloe Gel", Quantity: 1,
	})
	require.True(t, res.Success, "error=%s message=%s", res.Error, res.Message)

	assert.Equal(t, "Order ID", orderCell(fake, 1, 1))
	assert.Equal(t, "Status", orderCell(fake, 7, 1))
	assert.Equal(t, testOrderID, orderCell(fake, 1, 2))
}

func TestCreateMulti_Success(t *testing.T) {
	fake := sheets.NewFakeService()
	seedShop(fake)
	m := newTestManager(t, fake)

	res := m.CreateMulti(context.Background(), CreateMultiRequest{
		CustomerName: "Sara",
		Products:     "Aloe Gel:2, Pizza:1",
	})
	require.True(t, res.Success, "error=%s message=%s", res.Error, res.Message)

	assert.Equal(t, "48", invStock(fake, 2))
	assert.Equal(t, "4", invStock(fake, 4))

	assert.Equal(t, "Aloe Gel, Pizza", orderCell(fake, 3, 2))
	assert.Equal(t, "2, 1", orderCell(fake, 4, 2))
	assert.Equal(t, "1300", orderCell(fake, 6, 2))
	assert.Equal(t, StatusPending, orderCell(fake, 7, 2))
}

func TestCreateMulti_FailFastLeavesStockUntouched(t *testing.T) {
	fake := sheets.NewFakeService()
	seedShop(fake)
	m := newTestManager(t, fake)

	res := m.CreateMulti(context.Background(), CreateMultiRequest{
		CustomerName: "Sara",
		Products:     "Pizza:2, Face Cream:99",
	})
	assert.Equal(t, TokenInsufficientStock, res.Error)

	// The valid first item must not have been deducted.
	assert.Equal(t, "5", invStock(fake, 4))
	assert.Equal(t, "10", invStock(fake, 3))
	assert.Equal(t, 1, fake.RowCount(testWorkbook, ordersSheet))
}

func TestCreateMulti_ParseErrors(t *testing.T) {
	fake := sheets.NewFakeService()
	seedShop(fake)
	m := newTestManager(t, fake)

	res := m.CreateMulti(context.Background(), CreateMultiRequest{CustomerName: "Sara"})
	assert.Equal(t, TokenEmptyProducts, res.Error)

	res = m.CreateMulti(context.Background(), CreateMultiRequest{CustomerName: "Sara", Products: "Aloe Gel"})
	assert.Equal(t, TokenInvalidFormat, res.Error)

	res = m.CreateMulti(context.Background(), CreateMultiRequest{CustomerName: "Sara", Products: "Aloe Gel:zero"})
	assert.Equal(t, TokenParsingError, res.Error)
}
