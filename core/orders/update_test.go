package orders

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/adalundhe/shopkeep/core/sheets"
)

func createTestOrder(t *testing.T, m *Manager) string {
	t.Helper()

	res := m.Create(context.Background(), CreateRequest{
		CustomerName:    "Ali Khan",
		ProductName:     "Aloe Gel",
		Quantity:        3,
		CustomerEmail:   "ali@example.com",
		CustomerAddress: "12 Canal Road",
	})
	require.True(t, res.Success, "error=%s message=%s", res.Error, res.Message)
	return res.OrderDetails["order_id"].(string)
}

func TestUpdate_QuantityOnly(t *testing.T) {
	fake := sheets.NewFakeService()
	seedShop(fake)
	m := newTestManager(t, fake)
	id := createTestOrder(t, m) // stock 50 -> 47

	res := m.Update(context.Background(), UpdateRequest{OrderID: id, NewQuantity: 5})
	require.True(t, res.Success, "error=%s message=%s", res.Error, res.Message)

	assert.Equal(t, "45", invStock(fake, 2), "only the difference is deducted")
	assert.Equal(t, "5", orderCell(fake, 4, 2))
	assert.Equal(t, "1500", orderCell(fake, 6, 2), "subtotal untouched on quantity-only change")
	assert.Equal(t, StatusPending, orderCell(fake, 7, 2))
}

func TestUpdate_QuantityDecreaseRestores(t *testing.T) {
	fake := sheets.NewFakeService()
	seedShop(fake)
	m := newTestManager(t, fake)
	id := createTestOrder(t, m)

	res := m.Update(context.Background(), UpdateRequest{OrderID: id, NewQuantity: 1})
	require.True(t, res.Success)

	assert.Equal(t, "49", invStock(fake, 2))
	assert.Equal(t, "1", orderCell(fake, 4, 2))
}

func TestUpdate_QuantityIncreaseInsufficient(t *testing.T) {
	fake := sheets.NewFakeService()
	seedShop(fake)
	m := newTestManager(t, fake)
	id := createTestOrder(t, m)

	res := m.Update(context.Background(), UpdateRequest{OrderID: id, NewQuantity: 200})
	assert.Equal(t, TokenInsufficientStock, res.Error)

	assert.Equal(t, "47", invStock(fake, 2), "stock untouched on rejection")
	assert.Equal(t, "3", orderCell(fake, 4, 2), "row untouched on rejection")
}

func TestUpdate_ProductChange(t *testing.T) {
	fake := sheets.NewFakeService()
	seedShop(fake)
	m := newTestManager(t, fake)
	id := createTestOrder(t, m)

	res := m.Update(context.Background(), UpdateRequest{OrderID: id, NewProductName: "Pizza"})
	require.True(t, res.Success, "error=%s message=%s", res.Error, res.Message)

	assert.Equal(t, "50", invStock(fake, 2), "old product fully restored")
	assert.Equal(t, "2", invStock(fake, 4), "new product deducted at the old quantity")

	assert.Equal(t, "Pizza", orderCell(fake, 3, 2))
	assert.Equal(t, "3", orderCell(fake, 4, 2))
	assert.Equal(t, "300", orderCell(fake, 5, 2))
	assert.Equal(t, "900", orderCell(fake, 6, 2), "subtotal repriced for the new product")
}

func TestUpdate_NewProductNotFound(t *testing.T) {
	fake := sheets.NewFakeService()
	seedShop(fake)
	m := newTestManager(t, fake)
	id := createTestOrder(t, m)

	res := m.Update(context.Background(), UpdateRequest{OrderID: id, NewProductName: "Shampoo"})
	assert.Equal(t, TokenNewProductNotFound, res.Error)

	assert.Equal(t, "47", invStock(fake, 2))
	assert.Equal(t, "Aloe Gel", orderCell(fake, 3, 2))
}

func TestUpdate_CustomerInfoOnly(t *testing.T) {
	fake := sheets.NewFakeService()
	seedShop(fake)
	m := newTestManager(t, fake)
	id := createTestOrder(t, m)

	res := m.Update(context.Background(), UpdateRequest{OrderID: id, CustomerAddress: "45 Mall Road"})
	require.True(t, res.Success)

	assert.Equal(t, "45 Mall Road", orderCell(fake, 9, 2))
	assert.Equal(t, "Ali Khan", orderCell(fake, 2, 2), "untouched cells keep their values")
	assert.Equal(t, "47", invStock(fake, 2), "no inventory movement")
}

func TestUpdate_OrderNotFound(t *testing.T) {
	fake := sheets.NewFakeService()
	seedShop(fake)
	m := newTestManager(t, fake)

	res := m.Update(context.Background(), UpdateRequest{OrderID: "ORD-404", NewQuantity: 2})
	assert.Equal(t, TokenOrderNotFound, res.Error)

	res = m.Update(context.Background(), UpdateRequest{})
	assert.Equal(t, TokenInvalidFormat, res.Error)
}

func TestUpdate_MultiItemOrderDetected(t *testing.T) {
	fake := sheets.NewFakeService()
	seedShop(fake)
	m := newTestManager(t, fake)

	multi := m.CreateMulti(context.Background(), CreateMultiRequest{
		CustomerName: "Sara",
		Products:     "Aloe Gel:2, Pizza:1",
	})
	require.True(t, multi.Success)
	id := multi.OrderDetails["order_id"].(string)

	res := m.Update(context.Background(), UpdateRequest{OrderID: id, NewQuantity: 4})
	assert.Equal(t, TokenMultipleProductsOrder, res.Error)
	assert.Equal(t, "update_multi_order", res.RetryWith)

	assert.Equal(t, "48", invStock(fake, 2), "multi-item stock untouched")
}

func TestUpdateMulti_MinimalMovement(t *testing.T) {
	fake := sheets.NewFakeService()
	seedShop(fake)
	m := newTestManager(t, fake)

	multi := m.CreateMulti(context.Background(), CreateMultiRequest{
		CustomerName: "Sara",
		Products:     "Aloe Gel:2, Pizza:1",
	})
	require.True(t, multi.Success)
	id := multi.OrderDetails["order_id"].(string)

	res := m.UpdateMulti(context.Background(), UpdateMultiRequest{
		OrderID:  id,
		Products: "Aloe Gel:2, Face Cream:3",
	})
	require.True(t, res.Success, "error=%s message=%s", res.Error, res.Message)

	assert.Equal(t, "48", invStock(fake, 2), "unchanged item untouched")
	assert.Equal(t, "5", invStock(fake, 4), "removed item restored")
	assert.Equal(t, "7", invStock(fake, 3), "added item deducted")

	assert.Equal(t, "Aloe Gel, Face Cream", orderCell(fake, 3, 2))
	assert.Equal(t, "2, 3", orderCell(fake, 4, 2))
	assert.Equal(t, "3700", orderCell(fake, 6, 2))
}

func TestUpdateMulti_InsufficientLeavesStockUntouched(t *testing.T) {
	fake := sheets.NewFakeService()
	seedShop(fake)
	m := newTestManager(t, fake)

	multi := m.CreateMulti(context.Background(), CreateMultiRequest{
		CustomerName: "Sara",
		Products:     "Aloe Gel:2, Pizza:1",
	})
	require.True(t, multi.Success)
	id := multi.OrderDetails["order_id"].(string)

	res := m.UpdateMulti(context.Background(), UpdateMultiRequest{
		OrderID:  id,
		Products: "Aloe Gel:2, Face Cream:99",
	})
	assert.Equal(t, TokenInsufficientStock, res.Error)

	assert.Equal(t, "48", invStock(fake, 2))
	assert.Equal(t, "4", invStock(fake, 4), "removed item not restored when validation fails")
	assert.Equal(t, "10", invStock(fake, 3))
	assert.Equal(t, "Aloe Gel, Pizza", orderCell(fake, 3, 2), "row untouched")
}

func TestUpdateMulti_OrderNotFound(t *testing.T) {
	fake := sheets.NewFakeService()
	seedShop(fake)
	m := newTestManager(t, fake)

	res := m.UpdateMulti(context.Background(), UpdateMultiRequest{OrderID: "ORD-404", Products: "Aloe Gel:1"})
	assert.Equal(t, TokenOrderNotFound, res.Error)
}
