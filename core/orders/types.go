package orders

import "time"

// Clock supplies the current time. Injected so dedupe windows and
// generated order IDs are testable.
type Clock func() time.Time

// Status values an order row moves through. Delivered is set externally;
// this engine only ever writes Pending and Cancelled.
const (
	StatusPending   = "Pending"
	StatusCancelled = "Cancelled"
	StatusDelivered = "Delivered"
)

// Result is the structured payload every operation returns to the agent.
// Operations never fail with a raw error; the outermost wrapper folds
// unexpected failures into Error/Details.
type Result struct {
	Success             bool           `json:"success"`
	Error               string         `json:"error,omitempty"`
	Message             string         `json:"message,omitempty"`
	Details             string         `json:"details,omitempty"`
	OrderSummary        string         `json:"order_summary,omitempty"`
	OrderDetails        map[string]any `json:"order_details,omitempty"`
	DuplicatePrevention bool           `json:"duplicate_prevention,omitempty"`
	RetryWith           string         `json:"retry_with,omitempty"`
}

func failure(token, message string) Result {
	return Result{Error: token, Message: message}
}

// CreateRequest places a single-item order.
type CreateRequest struct {
	CustomerName    string `json:"customer_name"`
	ProductName     string `json:"product_name"`
	Quantity        int    `json:"quantity"`
	CustomerEmail   string `json:"customer_email,omitempty"`
	CustomerAddress string `json:"customer_address,omitempty"`
	PaymentMode     string `json:"payment_mode,omitempty"`
	Notes           string `json:"notes,omitempty"`
}

// CreateMultiRequest places a multi-item order. Products carries the
// compatibility format "Name:Qty,Name:Qty,...".
type CreateMultiRequest struct {
	CustomerName    string `json:"customer_name"`
	Products        string `json:"products"`
	CustomerEmail   string `json:"customer_email,omitempty"`
	CustomerAddress string `json:"customer_address,omitempty"`
	PaymentMode     string `json:"payment_mode,omitempty"`
	Notes           string `json:"notes,omitempty"`
}

// UpdateRequest changes a single-item order. Zero values mean "leave
// unchanged".
type UpdateRequest struct {
	OrderID         string `json:"order_id"`
	NewProductName  string `json:"new_product_name,omitempty"`
	NewQuantity     int    `json:"new_quantity,omitempty"`
	CustomerName    string `json:"customer_name,omitempty"`
	CustomerEmail   string `json:"customer_email,omitempty"`
	CustomerAddress string `json:"customer_address,omitempty"`
	PaymentMode     string `json:"payment_mode,omitempty"`
	Notes           string `json:"notes,omitempty"`
}

// UpdateMultiRequest replaces the item list of a multi-item order.
type UpdateMultiRequest struct {
	OrderID         string `json:"order_id"`
	Products        string `json:"products"`
	CustomerName    string `json:"customer_name,omitempty"`
	CustomerEmail   string `json:"customer_email,omitempty"`
	CustomerAddress string `json:"customer_address,omitempty"`
	PaymentMode     string `json:"payment_mode,omitempty"`
	Notes           string `json:"notes,omitempty"`
}

// CancelRequest cancels an order by ID. Single- and multi-item orders
// share the same path; a single-item order is a one-element item list.
type CancelRequest struct {
	OrderID string `json:"order_id"`
}
