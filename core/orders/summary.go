package orders

import (
	"fmt"
	"strings"
)

// Summary rendering is deliberately more permissive than the order flow
// itself: missing data degrades to a placeholder so the customer always
// gets a confirmation text, even when a price cell was unparseable or a
// downstream side effect failed.

const pricePlaceholder = "price on request"

// SummaryLine describes one ordered item for rendering.
type SummaryLine struct {
	Name     string
	Quantity int
	Subtotal string // empty when no usable price
}

// RenderOrderSummary produces the customer-facing confirmation for an
// order. total may be empty.
func RenderOrderSummary(orderID, customerName string, lines []SummaryLine, total, status string) string {
	var b strings.Builder

	fmt.Fprintf(&b, "Order %s for %s\n", orderID, customerName)
	for _, line := range lines {
		sub := line.Subtotal
		if sub == "" {
			sub = pricePlaceholder
		}
		fmt.Fprintf(&b, "  - %d x %s (%s)\n", line.Quantity, line.Name, sub)
	}
	if total != "" {
		fmt.Fprintf(&b, "Total: %s\n", total)
	}
	fmt.Fprintf(&b, "Status: %s", status)
	return b.String()
}

// RenderCancellation produces the confirmation for a cancelled order.
func RenderCancellation(orderID string, restored []SummaryLine) string {
	var b strings.Builder

	fmt.Fprintf(&b, "Order %s cancelled.", orderID)
	for _, line := range restored {
		fmt.Fprintf(&b, "\n  - %d x %s returned to stock", line.Quantity, line.Name)
	}
	return b.String()
}
