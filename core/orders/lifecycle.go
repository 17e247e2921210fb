package orders

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/adalundhe/shopkeep/core/inventory"
	"github.com/adalundhe/shopkeep/core/schema"
	"github.com/adalundhe/shopkeep/core/sheets"
)

// defaultOrderHeaders seeds a brand-new orders worksheet that has no
// header row yet.
var defaultOrderHeaders = []string{
	"Order ID", "Customer Name", "Product Name", "Quantity", "Unit Price",
	"Subtotal", "Status", "Customer Email", "Customer Address",
	"Payment Mode", "Notes",
}

// Manager orchestrates create, update and cancel across the inventory and
// orders sheets. Every operation is stateless: both sheets are re-read per
// call and the only cross-request state is the dedupe guard.
type Manager struct {
	svc          sheets.RangeService
	reader       *sheets.Reader
	classifier   *schema.Classifier
	ledger       *inventory.Ledger
	ordersRef    sheets.SheetRef
	ordersLayout *sheets.Layout
	guard        *DedupeGuard
	logger       *slog.Logger
	now          Clock
}

// ManagerConfig wires a Manager. Guard, Logger and Now may be zero for
// defaults.
type ManagerConfig struct {
	Service      sheets.RangeService
	Classifier   *schema.Classifier
	Ledger       *inventory.Ledger
	OrdersRef    sheets.SheetRef
	OrdersLayout *sheets.Layout
	Guard        *DedupeGuard
	Logger       *slog.Logger
	Now          Clock
}

// NewManager builds a Manager from cfg.
func NewManager(cfg ManagerConfig) *Manager {
	if cfg.Guard == nil {
		cfg.Guard = NewDedupeGuard(DefaultDedupeWindow, cfg.Now)
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	return &Manager{
		svc:          cfg.Service,
		reader:       sheets.NewReader(cfg.Service),
		classifier:   cfg.Classifier,
		ledger:       cfg.Ledger,
		ordersRef:    cfg.OrdersRef,
		ordersLayout: cfg.OrdersLayout,
		guard:        cfg.Guard,
		logger:       cfg.Logger,
		now:          cfg.Now,
	}
}

// Orders reads the current orders table.
func (m *Manager) Orders(ctx context.Context) (*sheets.Table, error) {
	return m.reader.Read(ctx, m.ordersRef, m.ordersLayout)
}

// Create places a single-item order. See CreateMulti for the multi-item
// path; the two share validation and inventory semantics but store their
// rows differently.
func (m *Manager) Create(ctx context.Context, req CreateRequest) Result {
	return m.guarded(TokenProcessingFailed, func() Result { return m.create(ctx, req) })
}

func (m *Manager) create(ctx context.Context, req CreateRequest) Result {
	if req.CustomerName == "" {
		return failure(TokenMissingCustomerInfo, "customer_name is required")
	}
	if req.ProductName == "" {
		return failure(TokenInvalidFormat, "product_name is required")
	}
	if req.Quantity < 1 {
		return failure(TokenInvalidFormat, "quantity must be a positive integer")
	}

	key := DedupeKey(req.CustomerName, req.ProductName, req.Quantity, req.CustomerEmail, req.CustomerAddress)
	if m.guard.Seen(key) {
		m.logger.Warn("duplicate order suppressed", "key", key)
		return Result{
			Success:             true,
			Message:             "Order already processed",
			DuplicatePrevention: true,
		}
	}
	m.guard.Record(key)

	snap, err := m.ledger.Snapshot(ctx)
	if err != nil {
		return failureErr(TokenProcessingFailed, err)
	}

	item, ok := snap.Find(req.ProductName)
	if !ok {
		return failure(TokenProductNotFound,
			fmt.Sprintf("Product %q not found in inventory", req.ProductName))
	}

	avail := item.Availability(snap.Tracked())
	if avail.Tracked && avail.Count < req.Quantity {
		return failure(TokenInsufficientStock,
			fmt.Sprintf("Only %d units available, but %d requested", avail.Count, req.Quantity))
	}

	table, err := m.ordersTable(ctx)
	if err != nil {
		return failureErr(TokenProcessingFailed, err)
	}

	product := productFields(item, req.ProductName)
	orderID := m.newOrderID()
	derived := DerivedFields{
		Quantity: strconv.Itoa(req.Quantity),
		Status:   StatusPending,
		OrderID:  orderID,
		Subtotal: ComputeSubtotal(product.Price, req.Quantity),
	}
	row := FillRow(table.Headers, customerFields(req), product, derived)

	newStock := avail.Count
	if avail.Tracked {
		newStock, err = m.ledger.Adjust(ctx, snap, item, -req.Quantity)
		if err != nil {
			if errors.Is(err, inventory.ErrInsufficientStock) {
				return failureErr(TokenInsufficientStock, err)
			}
			if !errors.Is(err, inventory.ErrRowUntracked) {
				return failureErr(TokenProcessingFailed, err)
			}
		}
	}

	if err := m.appendOrderRow(ctx, table, row); err != nil {
		// Inventory is already deducted at this point; there is no
		// compensating rollback (see DESIGN.md).
		return failureErr(TokenProcessingFailed, err)
	}

	m.logger.Info("order created",
		"order_id", orderID,
		"customer", req.CustomerName,
		"product", product.Name,
		"quantity", req.Quantity)

	lines := []SummaryLine{{Name: product.Name, Quantity: req.Quantity, Subtotal: derived.Subtotal}}
	return Result{
		Success:      true,
		Message:      fmt.Sprintf("Order processed successfully for %s", req.CustomerName),
		OrderSummary: RenderOrderSummary(orderID, req.CustomerName, lines, derived.Subtotal, StatusPending),
		OrderDetails: map[string]any{
			"order_id":            orderID,
			"customer_name":       req.CustomerName,
			"product_name":        product.Name,
			"quantity":            req.Quantity,
			"previous_stock":      avail.Count,
			"new_stock":           newStock,
			"columns_filled":      len(table.Headers),
			"complete_order_data": zipRow(table.Headers, row),
		},
	}
}

// CreateMulti places a multi-item order from the "Name:Qty,..." format.
// Every item is validated before any stock moves, so a bad line item
// aborts the whole order with inventory untouched.
func (m *Manager) CreateMulti(ctx context.Context, req CreateMultiRequest) Result {
	return m.guarded(TokenProcessingFailed, func() Result { return m.createMulti(ctx, req) })
}

func (m *Manager) createMulti(ctx context.Context, req CreateMultiRequest) Result {
	if req.CustomerName == "" {
		return failure(TokenMissingCustomerInfo, "customer_name is required")
	}

	items, err := ParseItemList(req.Products)
	if err != nil {
		return failure(parseToken(err), err.Error())
	}

	snap, err := m.ledger.Snapshot(ctx)
	if err != nil {
		return failureErr(TokenProcessingFailed, err)
	}

	// Validation pass: all or nothing.
	matched := make([]*inventory.Item, len(items))
	for i, it := range items {
		found, ok := snap.Find(it.Name)
		if !ok {
			return failure(TokenProductNotFound,
				fmt.Sprintf("Product %q not found in inventory", it.Name))
		}
		if avail := found.Availability(snap.Tracked()); avail.Tracked && avail.Count < it.Quantity {
			return failure(TokenInsufficientStock,
				fmt.Sprintf("Only %d units of %q available, but %d requested",
					avail.Count, found.Name(), it.Quantity))
		}
		matched[i] = found
	}

	table, err := m.ordersTable(ctx)
	if err != nil {
		return failureErr(TokenProcessingFailed, err)
	}

	// Commit pass.
	var lines []SummaryLine
	var grandTotal float64
	var hasTotal bool
	for i, it := range items {
		found := matched[i]
		if found.Availability(snap.Tracked()).Tracked {
			if _, err := m.ledger.Adjust(ctx, snap, found, -it.Quantity); err != nil {
				if errors.Is(err, inventory.ErrInsufficientStock) {
					return failureErr(TokenInsufficientStock, err)
				}
				if !errors.Is(err, inventory.ErrRowUntracked) {
					return failureErr(TokenProcessingFailed, err)
				}
			}
		}

		sub := ComputeSubtotal(found.Detections[schema.RolePrice].Value, it.Quantity)
		if sub != "" {
			if v, ok := ParsePrice(sub); ok {
				grandTotal += v
				hasTotal = true
			}
		}
		lines = append(lines, SummaryLine{Name: found.Name(), Quantity: it.Quantity, Subtotal: sub})

		// Store the canonical inventory name, not the query string.
		items[i].Name = found.Name()
	}

	total := ""
	if hasTotal {
		total = FormatAmount(grandTotal)
	}

	orderID := m.newOrderID()
	derived := DerivedFields{
		Quantity: JoinQuantities(items),
		Status:   StatusPending,
		OrderID:  orderID,
		Subtotal: total,
	}
	product := ProductFields{
		Name:   JoinNames(items),
		Weight: joinedWeights(matched),
	}
	row := FillRow(table.Headers, customerFieldsMulti(req), product, derived)

	if err := m.appendOrderRow(ctx, table, row); err != nil {
		return failureErr(TokenProcessingFailed, err)
	}

	m.logger.Info("multi-item order created",
		"order_id", orderID,
		"customer", req.CustomerName,
		"items", len(items))

	return Result{
		Success:      true,
		Message:      fmt.Sprintf("Order processed successfully for %s", req.CustomerName),
		OrderSummary: RenderOrderSummary(orderID, req.CustomerName, lines, total, StatusPending),
		OrderDetails: map[string]any{
			"order_id":            orderID,
			"customer_name":       req.CustomerName,
			"products":            JoinNames(items),
			"quantities":          JoinQuantities(items),
			"total":               total,
			"complete_order_data": zipRow(table.Headers, row),
		},
	}
}

func (m *Manager) newOrderID() string {
	return fmt.Sprintf("ORD-%d", m.now().Unix())
}

// ordersTable reads the orders sheet, seeding the default header row when
// the worksheet is still empty.
func (m *Manager) ordersTable(ctx context.Context) (*sheets.Table, error) {
	table, err := m.reader.Read(ctx, m.ordersRef, m.ordersLayout)
	if err != nil {
		return nil, err
	}
	if len(table.Headers) > 0 {
		return table, nil
	}

	headerCell := sheets.CellRange(m.ordersRef.Worksheet, m.startCol()+1, m.startRow()+1)
	if err := m.svc.UpdateRange(ctx, m.ordersRef.WorkbookID, headerCell, [][]string{defaultOrderHeaders}); err != nil {
		return nil, fmt.Errorf("seed orders headers: %w", err)
	}

	headers := make([]string, 0, len(defaultOrderHeaders))
	for _, h := range defaultOrderHeaders {
		headers = append(headers, sheets.NormalizeHeader(h))
	}
	return &sheets.Table{Headers: headers}, nil
}

func (m *Manager) appendOrderRow(ctx context.Context, table *sheets.Table, row []string) error {
	startCol := m.startCol() + 1
	endCol := startCol + len(table.Headers) - 1
	rng := sheets.ColumnSpan(m.ordersRef.Worksheet, startCol, endCol)
	return m.svc.AppendRow(ctx, m.ordersRef.WorkbookID, rng, row)
}

func (m *Manager) startCol() int {
	if m.ordersLayout != nil {
		return m.ordersLayout.StartCol
	}
	return 0
}

func (m *Manager) startRow() int {
	if m.ordersLayout != nil {
		return m.ordersLayout.StartRow
	}
	return 0
}

// guarded folds panics and stray failures into a structured Result so no
// operation ever surfaces a raw stack to the agent.
func (m *Manager) guarded(token string, fn func() Result) (res Result) {
	defer func() {
		if r := recover(); r != nil {
			m.logger.Error("operation panicked", "token", token, "panic", r)
			res = Result{Error: token, Details: fmt.Sprint(r)}
		}
	}()
	return fn()
}

func failureErr(token string, err error) Result {
	return Result{Error: token, Message: err.Error(), Details: err.Error()}
}

func parseToken(err error) string {
	switch {
	case errors.Is(err, ErrEmptyProducts):
		return TokenEmptyProducts
	case errors.Is(err, ErrBadQuantity):
		return TokenParsingError
	default:
		return TokenInvalidFormat
	}
}

func customerFields(req CreateRequest) CustomerFields {
	return CustomerFields{
		Name:        req.CustomerName,
		Email:       req.CustomerEmail,
		Address:     req.CustomerAddress,
		PaymentMode: req.PaymentMode,
		Notes:       req.Notes,
	}
}

func customerFieldsMulti(req CreateMultiRequest) CustomerFields {
	return CustomerFields{
		Name:        req.CustomerName,
		Email:       req.CustomerEmail,
		Address:     req.CustomerAddress,
		PaymentMode: req.PaymentMode,
		Notes:       req.Notes,
	}
}

// productFields projects a matched inventory row into reconciler inputs,
// falling back to the query string when the sheet has no usable name.
func productFields(item *inventory.Item, queryName string) ProductFields {
	det := item.Detections
	name := det[schema.RoleProductName].Value
	if name == "" {
		name = queryName
	}
	return ProductFields{
		Name:        name,
		Size:        det[schema.RoleSize].Value,
		Color:       det[schema.RoleColor].Value,
		Price:       det[schema.RolePrice].Value,
		Weight:      det[schema.RoleWeight].Value,
		Category:    fieldByCleanKey(item.Fields, "category"),
		Description: fieldByCleanKey(item.Fields, "description"),
	}
}

func fieldByCleanKey(fields map[string]string, want string) string {
	for key, value := range fields {
		if schema.CleanKey(key) == want {
			return value
		}
	}
	return ""
}

func joinedWeights(items []*inventory.Item) string {
	weights := make([]string, 0, len(items))
	nonEmpty := false
	for _, it := range items {
		w := it.Detections[schema.RoleWeight].Value
		if w != "" {
			nonEmpty = true
		}
		weights = append(weights, w)
	}
	if !nonEmpty {
		return ""
	}
	return strings.Join(weights, listSep)
}

func zipRow(headers, row []string) map[string]string {
	out := make(map[string]string, len(headers))
	for i, h := range headers {
		if i < len(row) {
			out[h] = row[i]
		}
	}
	return out
}
