package orders

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/adalundhe/shopkeep/core/inventory"
	"github.com/adalundhe/shopkeep/core/schema"
)

// Update changes a single-item order: product substitution, quantity
// change, or customer-info corrections, with inventory moved to match.
func (m *Manager) Update(ctx context.Context, req UpdateRequest) Result {
	return m.guarded(TokenUpdateFailed, func() Result { return m.update(ctx, req) })
}

func (m *Manager) update(ctx context.Context, req UpdateRequest) Result {
	if req.OrderID == "" {
		return failure(TokenInvalidFormat, "order_id is required")
	}

	or, err := m.findOrder(ctx, req.OrderID)
	if err != nil {
		if errors.Is(err, errOrderNotFound) {
			return failure(TokenOrderNotFound, fmt.Sprintf("Order %q not found", req.OrderID))
		}
		return failureErr(TokenUpdateFailed, err)
	}

	curProduct := or.value(schema.RoleProductName)
	curQtyRaw := or.value(schema.RoleQuantity)

	// Schema-kind guard: a comma means this row holds parallel lists and
	// must go through the multi-item path, not be silently coerced.
	if strings.Contains(curProduct, ",") || strings.Contains(curQtyRaw, ",") {
		return Result{
			Error:     TokenMultipleProductsOrder,
			Message:   "This order holds multiple products; use the multi-item update tool",
			RetryWith: "update_multi_order",
		}
	}

	oldQty, oldQtyErr := strconv.Atoi(curQtyRaw)
	numericRow := oldQtyErr == nil

	productChanged := req.NewProductName != "" &&
		!strings.EqualFold(strings.TrimSpace(req.NewProductName), curProduct)

	newQty := oldQty
	if req.NewQuantity > 0 {
		newQty = req.NewQuantity
	}
	quantityChanged := req.NewQuantity > 0 && (!numericRow || req.NewQuantity != oldQty)

	var product ProductFields
	var derived DerivedFields

	if productChanged || quantityChanged {
		snap, err := m.ledger.Snapshot(ctx)
		if err != nil {
			return failureErr(TokenUpdateFailed, err)
		}

		if productChanged {
			res, ok := m.substituteProduct(ctx, snap, curProduct, req.NewProductName, oldQty, newQty, numericRow)
			if !ok {
				return res
			}
			newItem, _ := snap.Find(req.NewProductName)
			product = productFields(newItem, req.NewProductName)
			derived.Subtotal = ComputeSubtotal(product.Price, newQty)
			derived.Quantity = strconv.Itoa(newQty)
		} else {
			if res, ok := m.resizeQuantity(ctx, snap, curProduct, oldQty, req.NewQuantity, numericRow); !ok {
				return res
			}
			derived.Quantity = strconv.Itoa(req.NewQuantity)
		}
	}

	customer := CustomerFields{
		Name:        req.CustomerName,
		Email:       req.CustomerEmail,
		Address:     req.CustomerAddress,
		PaymentMode: req.PaymentMode,
		Notes:       req.Notes,
	}

	updates := FillRow(or.table.Headers, customer, product, derived)
	written, err := m.applyRowUpdates(ctx, or, updates)
	if err != nil {
		return failureErr(TokenUpdateFailed, err)
	}

	m.logger.Info("order updated",
		"order_id", req.OrderID,
		"product_changed", productChanged,
		"quantity_changed", quantityChanged,
		"cells_written", written)

	return Result{
		Success: true,
		Message: fmt.Sprintf("Order %s updated", req.OrderID),
		OrderDetails: map[string]any{
			"order_id":         req.OrderID,
			"product_changed":  productChanged,
			"quantity_changed": quantityChanged,
			"cells_written":    written,
		},
	}
}

// substituteProduct swaps the ordered product. The old product gets its
// full quantity back and the new one is deducted independently, not as
// a net diff, because the product identity itself changed.
func (m *Manager) substituteProduct(
	ctx context.Context,
	snap *inventory.Snapshot,
	oldName, newName string,
	oldQty, newQty int,
	numericRow bool,
) (Result, bool) {
	newItem, ok := snap.Find(newName)
	if !ok {
		return failure(TokenNewProductNotFound,
			fmt.Sprintf("Product %q not found in inventory", newName)), false
	}

	if avail := newItem.Availability(snap.Tracked()); avail.Tracked && avail.Count < newQty {
		return failure(TokenInsufficientStock,
			fmt.Sprintf("Only %d units of %q available, but %d requested",
				avail.Count, newItem.Name(), newQty)), false
	}

	if numericRow && oldQty > 0 {
		if oldItem, found := snap.Find(oldName); found {
			if err := m.adjustLenient(ctx, snap, oldItem, oldQty); err != nil {
				return failureErr(TokenUpdateFailed, err), false
			}
		}
	}

	if err := m.adjustLenient(ctx, snap, newItem, -newQty); err != nil {
		if errors.Is(err, inventory.ErrInsufficientStock) {
			return failureErr(TokenInsufficientStock, err), false
		}
		return failureErr(TokenUpdateFailed, err), false
	}
	return Result{}, true
}

// resizeQuantity adjusts inventory by exactly the signed difference when
// only the quantity changed.
func (m *Manager) resizeQuantity(
	ctx context.Context,
	snap *inventory.Snapshot,
	productName string,
	oldQty, newQty int,
	numericRow bool,
) (Result, bool) {
	if !numericRow {
		// The stored quantity was never numeric; rewrite the cell but
		// leave inventory alone.
		return Result{}, true
	}

	item, ok := snap.Find(productName)
	if !ok {
		return Result{}, true // product no longer stocked; nothing to move
	}

	diff := newQty - oldQty
	if avail := item.Availability(snap.Tracked()); avail.Tracked && diff > 0 && avail.Count < diff {
		return failure(TokenInsufficientStock,
			fmt.Sprintf("Only %d more units of %q available, but %d more requested",
				avail.Count, item.Name(), diff)), false
	}

	if err := m.adjustLenient(ctx, snap, item, -diff); err != nil {
		if errors.Is(err, inventory.ErrInsufficientStock) {
			return failureErr(TokenInsufficientStock, err), false
		}
		return failureErr(TokenUpdateFailed, err), false
	}
	return Result{}, true
}

// UpdateMulti replaces the item list of a multi-item order, moving only
// the stock that actually changed.
func (m *Manager) UpdateMulti(ctx context.Context, req UpdateMultiRequest) Result {
	return m.guarded(TokenUpdateFailed, func() Result { return m.updateMulti(ctx, req) })
}

func (m *Manager) updateMulti(ctx context.Context, req UpdateMultiRequest) Result {
	if req.OrderID == "" {
		return failure(TokenInvalidFormat, "order_id is required")
	}

	newItems, err := ParseItemList(req.Products)
	if err != nil {
		return failure(parseToken(err), err.Error())
	}

	or, err := m.findOrder(ctx, req.OrderID)
	if err != nil {
		if errors.Is(err, errOrderNotFound) {
			return failure(TokenOrderNotFound, fmt.Sprintf("Order %q not found", req.OrderID))
		}
		return failureErr(TokenUpdateFailed, err)
	}

	oldItems := ParseStoredLists(or.value(schema.RoleProductName), or.value(schema.RoleQuantity))
	restoreList, deductList := DiffItems(oldItems, newItems)

	snap, err := m.ledger.Snapshot(ctx)
	if err != nil {
		return failureErr(TokenUpdateFailed, err)
	}

	// Validate every deduction before any stock moves.
	deductItems := make([]*inventory.Item, len(deductList))
	for i, it := range deductList {
		found, ok := snap.Find(it.Name)
		if !ok {
			return failure(TokenProductNotFound,
				fmt.Sprintf("Product %q not found in inventory", it.Name))
		}
		if avail := found.Availability(snap.Tracked()); avail.Tracked && avail.Count < it.Quantity {
			return failure(TokenInsufficientStock,
				fmt.Sprintf("Only %d units of %q available, but %d more requested",
					avail.Count, found.Name(), it.Quantity))
		}
		deductItems[i] = found
	}

	// Restores first, then deductions.
	for _, it := range restoreList {
		if it.Quantity <= 0 {
			continue
		}
		if found, ok := snap.Find(it.Name); ok {
			if err := m.adjustLenient(ctx, snap, found, it.Quantity); err != nil {
				return failureErr(TokenUpdateFailed, err)
			}
		}
	}
	for i, it := range deductList {
		if err := m.adjustLenient(ctx, snap, deductItems[i], -it.Quantity); err != nil {
			if errors.Is(err, inventory.ErrInsufficientStock) {
				return failureErr(TokenInsufficientStock, err)
			}
			return failureErr(TokenUpdateFailed, err)
		}
	}

	// Reprice the whole new list for the consolidated row fields.
	var matched []*inventory.Item
	var grandTotal float64
	var hasTotal bool
	for i, it := range newItems {
		found, ok := snap.Find(it.Name)
		if !ok {
			continue
		}
		newItems[i].Name = found.Name()
		matched = append(matched, found)

		if sub := ComputeSubtotal(found.Detections[schema.RolePrice].Value, it.Quantity); sub != "" {
			if v, okPrice := ParsePrice(sub); okPrice {
				grandTotal += v
				hasTotal = true
			}
		}
	}
	total := ""
	if hasTotal {
		total = FormatAmount(grandTotal)
	}

	customer := CustomerFields{
		Name:        req.CustomerName,
		Email:       req.CustomerEmail,
		Address:     req.CustomerAddress,
		PaymentMode: req.PaymentMode,
		Notes:       req.Notes,
	}
	product := ProductFields{
		Name:   JoinNames(newItems),
		Weight: joinedWeights(matched),
	}
	derived := DerivedFields{
		Quantity: JoinQuantities(newItems),
		Subtotal: total,
	}

	updates := FillRow(or.table.Headers, customer, product, derived)
	written, err := m.applyRowUpdates(ctx, or, updates)
	if err != nil {
		return failureErr(TokenUpdateFailed, err)
	}

	m.logger.Info("multi-item order updated",
		"order_id", req.OrderID,
		"restored", len(restoreList),
		"deducted", len(deductList),
		"cells_written", written)

	return Result{
		Success: true,
		Message: fmt.Sprintf("Order %s updated", req.OrderID),
		OrderDetails: map[string]any{
			"order_id":   req.OrderID,
			"products":   JoinNames(newItems),
			"quantities": JoinQuantities(newItems),
			"restored":   itemsToMap(restoreList),
			"deducted":   itemsToMap(deductList),
			"total":      total,
		},
	}
}

// adjustLenient applies a stock delta, treating untracked rows and
// missing quantity columns as a silent no-op.
func (m *Manager) adjustLenient(ctx context.Context, snap *inventory.Snapshot, item *inventory.Item, delta int) error {
	_, err := m.ledger.Adjust(ctx, snap, item, delta)
	if err == nil ||
		errors.Is(err, inventory.ErrRowUntracked) ||
		errors.Is(err, inventory.ErrQuantityColumnMissing) {
		return nil
	}
	return err
}

func itemsToMap(items []Item) map[string]int {
	out := make(map[string]int, len(items))
	for _, it := range items {
		out[it.Name] = it.Quantity
	}
	return out
}
