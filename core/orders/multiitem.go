package orders

import (
	"fmt"
	"strconv"
	"strings"
)

// Item is one product/quantity pair inside a multi-item order.
type Item struct {
	Name     string
	Quantity int
}

// listSep joins the parallel product and quantity lists stored in a
// single order row. The comma format is forced by the one-row-per-order
// spreadsheet schema and is wire format for existing sheets.
const listSep = ", "

// ParseItemList decodes the "Name:Qty,Name:Qty,..." compatibility format.
// Structural problems (missing colon, empty name) return ErrInvalidFormat;
// a non-positive or non-numeric quantity returns ErrBadQuantity.
func ParseItemList(raw string) ([]Item, error) {
	if strings.TrimSpace(raw) == "" {
		return nil, ErrEmptyProducts
	}

	var items []Item
	for _, token := range strings.Split(raw, ",") {
		token = strings.TrimSpace(token)
		if token == "" {
			continue
		}

		name, qtyStr, found := strings.Cut(token, ":")
		name = strings.TrimSpace(name)
		if !found || name == "" {
			return nil, fmt.Errorf("%w: %q", ErrInvalidFormat, token)
		}

		qty, err := strconv.Atoi(strings.TrimSpace(qtyStr))
		if err != nil || qty <= 0 {
			return nil, fmt.Errorf("%w: %q", ErrBadQuantity, token)
		}
		items = append(items, Item{Name: name, Quantity: qty})
	}

	if len(items) == 0 {
		return nil, ErrEmptyProducts
	}
	return items, nil
}

// ParseStoredLists decodes the comma-joined parallel name and quantity
// strings read back from an order row. The two lists share index
// alignment; a quantity that fails to parse disables numeric handling for
// that entry (quantity 0), it does not fail the whole order.
func ParseStoredLists(names, quantities string) []Item {
	nameList := splitList(names)
	qtyList := splitList(quantities)

	items := make([]Item, 0, len(nameList))
	for i, name := range nameList {
		qty := 0
		if i < len(qtyList) {
			if n, err := strconv.Atoi(qtyList[i]); err == nil {
				qty = n
			}
		}
		items = append(items, Item{Name: name, Quantity: qty})
	}
	return items
}

// JoinNames serializes the product-name half of an order row.
func JoinNames(items []Item) string {
	names := make([]string, len(items))
	for i, it := range items {
		names[i] = it.Name
	}
	return strings.Join(names, listSep)
}

// JoinQuantities serializes the quantity half of an order row.
func JoinQuantities(items []Item) string {
	qtys := make([]string, len(items))
	for i, it := range items {
		qtys[i] = strconv.Itoa(it.Quantity)
	}
	return strings.Join(qtys, listSep)
}

// DiffItems computes the minimal inventory movements between an order's
// old and new item lists. Removed or reduced items land on the restore
// list (full quantity when removed, the reduction otherwise); added or
// increased items land on the deduct list. Unchanged items appear on
// neither, so their stock is never touched. Names compare
// case-insensitively; the returned entries keep the display name of the
// side they came from.
func DiffItems(oldItems, newItems []Item) (restore, deduct []Item) {
	newByName := make(map[string]Item, len(newItems))
	for _, it := range newItems {
		newByName[strings.ToLower(it.Name)] = it
	}
	oldByName := make(map[string]Item, len(oldItems))
	for _, it := range oldItems {
		oldByName[strings.ToLower(it.Name)] = it
	}

	for _, oldItem := range oldItems {
		newItem, stillPresent := newByName[strings.ToLower(oldItem.Name)]
		switch {
		case !stillPresent:
			restore = append(restore, oldItem)
		case newItem.Quantity < oldItem.Quantity:
			restore = append(restore, Item{
				Name:     oldItem.Name,
				Quantity: oldItem.Quantity - newItem.Quantity,
			})
		}
	}

	for _, newItem := range newItems {
		oldItem, existed := oldByName[strings.ToLower(newItem.Name)]
		switch {
		case !existed:
			deduct = append(deduct, newItem)
		case newItem.Quantity > oldItem.Quantity:
			deduct = append(deduct, Item{
				Name:     newItem.Name,
				Quantity: newItem.Quantity - oldItem.Quantity,
			})
		}
	}
	return restore, deduct
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		part = strings.TrimSpace(part)
		if part != "" {
			out = append(out, part)
		}
	}
	return out
}
