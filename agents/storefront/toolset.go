package storefront

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"math/rand"
	"strings"
	"time"

	"github.com/gobwas/glob"

	"github.com/adalundhe/shopkeep/core/inventory"
	"github.com/adalundhe/shopkeep/core/orders"
	"github.com/adalundhe/shopkeep/core/skills"
)

const suffixAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

// Toolset binds the order engine to the skill registry. The same handlers
// serve the conversational agent and the HTTP tool endpoint.
type Toolset struct {
	manager *orders.Manager
	ledger  *inventory.Ledger
	logger  *slog.Logger

	now    orders.Clock
	suffix func() string
}

// ToolsetOption adjusts a Toolset.
type ToolsetOption func(*Toolset)

// WithClock injects the clock used for quick confirmations.
func WithClock(now orders.Clock) ToolsetOption {
	return func(ts *Toolset) { ts.now = now }
}

// WithSuffix injects the order-ID suffix generator.
func WithSuffix(suffix func() string) ToolsetOption {
	return func(ts *Toolset) { ts.suffix = suffix }
}

// NewToolset wires the order tools. logger may be nil.
func NewToolset(manager *orders.Manager, ledger *inventory.Ledger, logger *slog.Logger, opts ...ToolsetOption) *Toolset {
	if logger == nil {
		logger = slog.Default()
	}
	ts := &Toolset{
		manager: manager,
		ledger:  ledger,
		logger:  logger,
		now:     time.Now,
		suffix:  randomSuffix,
	}
	for _, opt := range opts {
		opt(ts)
	}
	return ts
}

func randomSuffix() string {
	b := make([]byte, 3)
	for i := range b {
		b[i] = suffixAlphabet[rand.Intn(len(suffixAlphabet))]
	}
	return string(b)
}

// Register adds every order tool to the registry.
func (ts *Toolset) Register(reg *skills.Registry) error {
	all := []*skills.Skill{
		skills.NewSkill("get_inventory").
			Description("Get current inventory data. Use this for all product inquiries, availability checks, stock levels and pricing questions. The query may be a product name, a glob pattern like 'aloe*', or 'all'.").
			StringParam("query", "Product name, glob pattern, or 'all'", false).
			Handler(ts.getInventory).
			Build(),
		skills.NewSkill("get_orders").
			Description("Get orders data from the orders sheet. Use this to check recent orders, order history, and order status.").
			StringParam("query", "Free-form note about what is being looked up", false).
			Handler(ts.getOrders).
			Build(),
		skills.NewSkill("process_customer_order").
			Description("Complete end-to-end order processing for a single product. Detects the orders sheet columns automatically and reports which customer fields are still missing.").
			StringParam("customer_name", "Customer's full name", true).
			StringParam("product_name", "Product to order", true).
			IntParam("quantity", "Units to order", true).
			StringParam("customer_email", "Customer email address", false).
			StringParam("customer_address", "Delivery address", false).
			StringParam("payment_mode", "COD or Online", false).
			StringParam("notes", "Free-form order notes", false).
			Handler(ts.processOrder).
			Build(),
		skills.NewSkill("process_multi_order").
			Description("Place one order holding several products. products uses the format 'Name:Qty,Name:Qty,...'.").
			StringParam("customer_name", "Customer's full name", true).
			StringParam("products", "Items as 'Name:Qty,Name:Qty,...'", true).
			StringParam("customer_email", "Customer email address", false).
			StringParam("customer_address", "Delivery address", false).
			StringParam("payment_mode", "COD or Online", false).
			StringParam("notes", "Free-form order notes", false).
			Handler(ts.processMultiOrder).
			Build(),
		skills.NewSkill("update_order").
			Description("Change a single-product order by its order ID: swap the product, resize the quantity, or correct customer details. Reports multiple_products_order_detected for multi-item orders.").
			StringParam("order_id", "Order ID, e.g. ORD-1700000000", true).
			StringParam("new_product_name", "Replacement product", false).
			IntParam("new_quantity", "Replacement quantity", false).
			StringParam("customer_name", "Corrected customer name", false).
			StringParam("customer_email", "Corrected email address", false).
			StringParam("customer_address", "Corrected delivery address", false).
			StringParam("payment_mode", "Corrected payment mode", false).
			StringParam("notes", "Replacement notes", false).
			Handler(ts.updateOrder).
			Build(),
		skills.NewSkill("update_multi_order").
			Description("Replace the item list of a multi-item order. Stock moves only by the difference between the old and new lists.").
			StringParam("order_id", "Order ID", true).
			StringParam("products", "New item list as 'Name:Qty,Name:Qty,...'", true).
			StringParam("customer_name", "Corrected customer name", false).
			StringParam("customer_email", "Corrected email address", false).
			StringParam("customer_address", "Corrected delivery address", false).
			StringParam("payment_mode", "Corrected payment mode", false).
			StringParam("notes", "Replacement notes", false).
			Handler(ts.updateMultiOrder).
			Build(),
		skills.NewSkill("cancel_order").
			Description("Cancel an order by its order ID and restore its stock. Works for single- and multi-item orders; only Pending orders can be cancelled.").
			StringParam("order_id", "Order ID", true).
			Handler(ts.cancelOrder).
			Build(),
		skills.NewSkill("adjust_inventory").
			Description("Manually adjust stock for a product. quantity_change can be negative (reduce stock) or positive (add stock).").
			StringParam("product_name", "Product to adjust", true).
			IntParam("quantity_change", "Signed stock change", true).
			Handler(ts.adjustInventory).
			Build(),
		skills.NewSkill("quick_order_summary").
			Description("Quickly generate an order confirmation without touching the sheets. Use this to immediately confirm an order to the customer.").
			StringParam("customer_name", "Customer's full name", true).
			StringParam("product_name", "Product ordered", true).
			IntParam("quantity", "Units ordered", true).
			StringParam("customer_email", "Customer email address", false).
			StringParam("customer_address", "Delivery address", false).
			StringParam("payment_mode", "COD or Online", false).
			Handler(ts.quickOrderSummary).
			Build(),
		skills.NewSkill("product_data").
			Description("Fetch a product record with its original column names preserved, for marketing and content tools downstream.").
			StringParam("product_name", "Product to look up; empty returns the whole catalog", false).
			Handler(ts.productData).
			Build(),
	}

	for _, skill := range all {
		if err := reg.Register(skill); err != nil {
			return fmt.Errorf("register %s: %w", skill.Name, err)
		}
	}
	return nil
}

type queryParams struct {
	Query string `json:"query"`
}

func (ts *Toolset) getInventory(ctx context.Context, input json.RawMessage) (any, error) {
	var params queryParams
	if err := unmarshalParams(input, &params); err != nil {
		return nil, err
	}
	if params.Query == "" {
		params.Query = "all"
	}
	ts.logger.Info("inventory query", "query", params.Query)

	snap, err := ts.ledger.Snapshot(ctx)
	if err != nil {
		return map[string]any{"error": err.Error()}, nil
	}

	rows := filterItems(snap.Items(), params.Query)
	data := make([]map[string]string, 0, len(rows))
	for _, item := range rows {
		data = append(data, item.Fields)
	}

	return map[string]any{
		"query": params.Query,
		"inventory": map[string]any{
			"headers":   snap.Table.Headers,
			"data":      data,
			"row_count": len(data),
		},
		"timestamp": ts.now().Unix(),
	}, nil
}

// filterItems narrows the catalog by the detected product name. A pattern
// containing glob metacharacters is compiled with gobwas/glob; a plain
// query falls back to case-insensitive containment so "aloe" still finds
// "Aloe Gel".
func filterItems(items []*inventory.Item, query string) []*inventory.Item {
	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" || q == "all" {
		return items
	}

	var matcher glob.Glob
	if strings.ContainsAny(q, "*?[{") {
		if g, err := glob.Compile(q); err == nil {
			matcher = g
		}
	}

	var out []*inventory.Item
	for _, item := range items {
		name := strings.ToLower(item.Name())
		if matcher != nil {
			if matcher.Match(name) {
				out = append(out, item)
			}
			continue
		}
		if strings.Contains(name, q) {
			out = append(out, item)
		}
	}
	return out
}

func (ts *Toolset) getOrders(ctx context.Context, input json.RawMessage) (any, error) {
	var params queryParams
	if err := unmarshalParams(input, &params); err != nil {
		return nil, err
	}
	if params.Query == "" {
		params.Query = "recent"
	}
	ts.logger.Info("orders query", "query", params.Query)

	table, err := ts.manager.Orders(ctx)
	if err != nil {
		return map[string]any{"error": err.Error()}, nil
	}

	return map[string]any{
		"query": params.Query,
		"orders": map[string]any{
			"headers":   table.Headers,
			"data":      table.Rows,
			"row_count": table.RowCount(),
		},
		"timestamp": ts.now().Unix(),
	}, nil
}

func (ts *Toolset) processOrder(ctx context.Context, input json.RawMessage) (any, error) {
	var req orders.CreateRequest
	if err := unmarshalParams(input, &req); err != nil {
		return nil, err
	}
	return ts.manager.Create(ctx, req), nil
}

func (ts *Toolset) processMultiOrder(ctx context.Context, input json.RawMessage) (any, error) {
	var req orders.CreateMultiRequest
	if err := unmarshalParams(input, &req); err != nil {
		return nil, err
	}
	return ts.manager.CreateMulti(ctx, req), nil
}

func (ts *Toolset) updateOrder(ctx context.Context, input json.RawMessage) (any, error) {
	var req orders.UpdateRequest
	if err := unmarshalParams(input, &req); err != nil {
		return nil, err
	}
	return ts.manager.Update(ctx, req), nil
}

func (ts *Toolset) updateMultiOrder(ctx context.Context, input json.RawMessage) (any, error) {
	var req orders.UpdateMultiRequest
	if err := unmarshalParams(input, &req); err != nil {
		return nil, err
	}
	return ts.manager.UpdateMulti(ctx, req), nil
}

func (ts *Toolset) cancelOrder(ctx context.Context, input json.RawMessage) (any, error) {
	var req orders.CancelRequest
	if err := unmarshalParams(input, &req); err != nil {
		return nil, err
	}
	return ts.manager.Cancel(ctx, req), nil
}

type adjustParams struct {
	ProductName    string `json:"product_name"`
	QuantityChange int    `json:"quantity_change"`
}

func (ts *Toolset) adjustInventory(ctx context.Context, input json.RawMessage) (any, error) {
	var params adjustParams
	if err := unmarshalParams(input, &params); err != nil {
		return nil, err
	}
	ts.logger.Info("manual stock adjustment",
		"product", params.ProductName,
		"change", params.QuantityChange)

	snap, err := ts.ledger.Snapshot(ctx)
	if err != nil {
		return map[string]any{"error": err.Error()}, nil
	}

	item, ok := snap.Find(params.ProductName)
	if !ok {
		return map[string]any{"error": orders.TokenProductNotFound}, nil
	}

	next, err := ts.ledger.Adjust(ctx, snap, item, params.QuantityChange)
	switch {
	case errors.Is(err, inventory.ErrQuantityColumnMissing):
		return map[string]any{"error": orders.TokenQuantityColumnNotFound}, nil
	case errors.Is(err, inventory.ErrInsufficientStock):
		return map[string]any{"error": orders.TokenInsufficientStock, "current_quantity": next}, nil
	case err != nil:
		return map[string]any{"error": err.Error()}, nil
	}

	return map[string]any{
		"success":           true,
		"product_name":      params.ProductName,
		"previous_quantity": next - params.QuantityChange,
		"quantity_change":   params.QuantityChange,
		"new_quantity":      next,
		"message":           "Inventory updated successfully",
		"timestamp":         ts.now().Unix(),
	}, nil
}

type quickSummaryParams struct {
	CustomerName    string `json:"customer_name"`
	ProductName     string `json:"product_name"`
	Quantity        int    `json:"quantity"`
	CustomerEmail   string `json:"customer_email"`
	CustomerAddress string `json:"customer_address"`
	PaymentMode     string `json:"payment_mode"`
}

func (ts *Toolset) quickOrderSummary(ctx context.Context, input json.RawMessage) (any, error) {
	var params quickSummaryParams
	if err := unmarshalParams(input, &params); err != nil {
		return nil, err
	}

	now := ts.now()
	orderID := fmt.Sprintf("ORD-%d-%s", now.Unix(), ts.suffix())

	return map[string]any{
		"success":                true,
		"immediate_confirmation": true,
		"order_id":               orderID,
		"customer_name":          params.CustomerName,
		"product_name":           params.ProductName,
		"quantity":               params.Quantity,
		"customer_email":         params.CustomerEmail,
		"customer_address":       params.CustomerAddress,
		"payment_mode":           params.PaymentMode,
		"status":                 "confirmed",
		"message":                "Order confirmed! Processing in background...",
		"timestamp":              now.Unix(),
	}, nil
}

type productDataParams struct {
	ProductName string `json:"product_name"`
}

func (ts *Toolset) productData(ctx context.Context, input json.RawMessage) (any, error) {
	var params productDataParams
	if err := unmarshalParams(input, &params); err != nil {
		return nil, err
	}

	snap, err := ts.ledger.Snapshot(ctx)
	if err != nil {
		return map[string]any{"error": err.Error()}, nil
	}

	// Downstream marketing tools key into this record by the sheet's own
	// column names, so rows go out unrenamed.
	if params.ProductName == "" {
		data := make([]map[string]string, 0, len(snap.Items()))
		for _, item := range snap.Items() {
			data = append(data, item.Fields)
		}
		return map[string]any{
			"headers":      snap.Table.Headers,
			"product_data": data,
			"row_count":    len(data),
		}, nil
	}

	item, ok := snap.Find(params.ProductName)
	if !ok {
		return map[string]any{"error": orders.TokenProductNotFound}, nil
	}
	return map[string]any{
		"headers":      snap.Table.Headers,
		"product_data": item.Fields,
	}, nil
}

func unmarshalParams(input json.RawMessage, out any) error {
	if len(input) == 0 {
		return nil
	}
	if err := json.Unmarshal(input, out); err != nil {
		return fmt.Errorf("invalid tool input: %w", err)
	}
	return nil
}
