package orders

import (
	"strconv"
	"strings"

	"github.com/adalundhe/shopkeep/core/schema"
)

// CustomerFields is what the customer supplied with the request.
type CustomerFields struct {
	Name        string
	Email       string
	Address     string
	PaymentMode string
	Notes       string
}

// ProductFields is what the matched inventory row supplied.
type ProductFields struct {
	Name        string
	Size        string
	Color       string
	Price       string
	Category    string
	Weight      string
	Description string
}

// DerivedFields is what this engine computed or generated itself.
type DerivedFields struct {
	Quantity string
	Status   string
	OrderID  string
	Subtotal string
}

type fieldPair struct {
	key   string
	value string
}

// customerMarkers gate the customer-priority pass: only headers carrying
// one of these tokens are eligible for stage 1 at all.
var customerMarkers = []string{
	"customer_name", "customer_email", "email", "customer_address",
	"address", "delivery", "payment_mode", "payment", "mode",
}

// FillRow produces one cell per output header by reconciling the three
// value sources in fixed priority: customer-identity fields first, then
// product and computed fields, then remaining operational fields, then
// empty string. The order matters: a column named "customer" must
// resolve to the customer's name before any later matcher can grab it,
// and "customer_email" is checked before the bare "customer" token so an
// email column never receives a name. Output length always equals
// len(headers).
func FillRow(headers []string, customer CustomerFields, product ProductFields, derived DerivedFields) []string {
	customerPairs := []fieldPair{
		// Email and address keys sit before the bare "customer" token so
		// "customer_email" and "customer_address" columns never receive
		// the customer's name.
		{"customer_email", customer.Email},
		{"email", customer.Email},
		{"customer_address", customer.Address},
		{"address", customer.Address},
		{"delivery", customer.Address},
		{"customer_name", customer.Name},
		{"customer", customer.Name},
		{"payment_mode", customer.PaymentMode},
		{"payment", customer.PaymentMode},
		{"mode", customer.PaymentMode},
	}

	productPairs := []fieldPair{
		{"item_name", product.Name},
		{"product_name", product.Name},
		{"item", product.Name},
		{"name", product.Name},
		{"size", product.Size},
		{"color", product.Color},
		{"colour", product.Color},
		{"price", product.Price},
		{"unit_price", product.Price},
		{"cost", product.Price},
		{"subtotal", derived.Subtotal},
		{"total", derived.Subtotal},
		{"category", product.Category},
		{"weight", product.Weight},
		{"description", product.Description},
	}

	operationalPairs := []fieldPair{
		{"notes", customer.Notes},
		{"note", customer.Notes},
		{"quantity", derived.Quantity},
		{"qty", derived.Quantity},
		{"status", derived.Status},
		{"order_id", derived.OrderID},
		{"order_no", derived.OrderID},
		{"order_number", derived.OrderID},
		{"order", derived.OrderID},
	}

	row := make([]string, 0, len(headers))
	for _, header := range headers {
		clean := schema.CleanKey(header)

		value, filled := "", false
		if hasAnyToken(clean, customerMarkers) {
			value, filled = fillFirstKeyed(clean, customerPairs)
		}
		if !filled {
			value, filled = fillFirstNonEmpty(clean, productPairs)
		}
		if !filled {
			value, _ = fillFirstKeyed(clean, operationalPairs)
		}
		row = append(row, value)
	}
	return row
}

// fillFirstKeyed stops at the first key contained in the header, whether
// or not its value is usable. A header that names a customer field but
// arrived without a value stays blank rather than falling through to a
// product match.
func fillFirstKeyed(clean string, pairs []fieldPair) (string, bool) {
	for _, p := range pairs {
		if strings.Contains(clean, p.key) {
			return p.value, true
		}
	}
	return "", false
}

// fillFirstNonEmpty keeps scanning past keys whose value is empty, so a
// sparse product record doesn't mask a later usable mapping.
func fillFirstNonEmpty(clean string, pairs []fieldPair) (string, bool) {
	for _, p := range pairs {
		if p.value != "" && strings.Contains(clean, p.key) {
			return p.value, true
		}
	}
	return "", false
}

func hasAnyToken(clean string, tokens []string) bool {
	for _, tok := range tokens {
		if strings.Contains(clean, tok) {
			return true
		}
	}
	return false
}

// ParsePrice extracts a best-effort numeric price from a raw cell by
// keeping only digits and dots ("Rs. 1,500.50" -> 1500.50).
func ParsePrice(raw string) (float64, bool) {
	var b strings.Builder
	for _, c := range raw {
		if (c >= '0' && c <= '9') || c == '.' {
			b.WriteRune(c)
		}
	}
	if b.Len() == 0 {
		return 0, false
	}
	v, err := strconv.ParseFloat(b.String(), 64)
	if err != nil {
		return 0, false
	}
	return v, true
}

// ComputeSubtotal renders unit price times quantity, or "" when the price
// cell has no usable number. Callers treat the empty string as "leave the
// column blank", never as an error.
func ComputeSubtotal(rawPrice string, quantity int) string {
	unit, ok := ParsePrice(rawPrice)
	if !ok {
		return ""
	}
	return FormatAmount(unit * float64(quantity))
}

// FormatAmount renders a monetary amount without a trailing ".0".
func FormatAmount(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
