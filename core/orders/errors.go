package orders

import "errors"

// Machine-readable error tokens returned to the calling agent. Existing
// agent prompts branch on these strings, so they are wire format and must
// never be reworded.
const (
	TokenNoConnection           = "no_connection_configured"
	TokenMissingConfiguration   = "missing_configuration"
	TokenMissingInventoryConfig = "missing_inventory_config_or_token"
	TokenMissingOrdersConfig    = "missing_orders_config_or_token"

	TokenProductNotFound    = "product_not_found"
	TokenNewProductNotFound = "new_product_not_found"
	TokenOrderNotFound      = "order_not_found"

	TokenInsufficientStock      = "insufficient_stock"
	TokenAlreadyCancelled       = "already_cancelled"
	TokenCannotCancelDelivered  = "cannot_cancel_delivered"
	TokenInvalidCancelStatus    = "invalid_status_for_cancellation"
	TokenMultipleProductsOrder  = "multiple_products_order_detected"
	TokenMissingCustomerInfo    = "missing_customer_information"
	TokenQuantityColumnNotFound = "quantity_column_not_found"

	TokenInvalidFormat = "invalid_format"
	TokenParsingError  = "parsing_error"
	TokenEmptyProducts = "empty_products"

	TokenProcessingFailed   = "processing_failed"
	TokenUpdateFailed       = "update_failed"
	TokenCancellationFailed = "cancellation_failed"
)

var (
	ErrEmptyProducts = errors.New("no products given")
	ErrInvalidFormat = errors.New("malformed product list")
	ErrBadQuantity   = errors.New("quantity is not a positive integer")
)
