package schema

// Role is the semantic meaning inferred for a spreadsheet column from its
// header text. Sheets carry no declared schema, so every read starts by
// mapping raw headers onto these roles.
type Role string

const (
	RoleProductName Role = "product_name"
	RoleQuantity    Role = "quantity"
	RolePrice       Role = "price"
	RoleID          Role = "id"
	RoleStatus      Role = "status"
	RoleSize        Role = "size"
	RoleColor       Role = "color"
	RoleWeight      Role = "weight"
)

// roleOrder fixes the scan order so classification is deterministic for
// any header set.
var roleOrder = []Role{
	RoleProductName,
	RoleQuantity,
	RolePrice,
	RoleID,
	RoleStatus,
	RoleSize,
	RoleColor,
	RoleWeight,
}

// roleSynonyms lists candidate header tokens per role, covering the
// terminology of fashion, beauty, food and electronics sheets seen in the
// wild. Order matters: earlier synonyms win within a pass.
var roleSynonyms = map[Role][]string{
	RoleProductName: {
		"item_name", "product_name", "product_title", "name", "product",
		"title", "merchandise", "article", "sku_name",
	},
	RoleQuantity: {
		"quantity", "qty", "stock", "available", "inventory", "count",
		"units", "pieces", "amount", "availability", "in_stock",
	},
	RolePrice: {
		"unit_price", "price", "cost", "amount", "rate", "selling_price",
		"retail_price", "mrp", "value", "pkr", "usd", "inr",
	},
	RoleID: {
		"item_id", "product_id", "id", "sku", "code", "barcode",
		"item_code", "product_code", "order_no", "order_id", "orderid",
	},
	RoleStatus: {
		"status", "availability", "available", "active", "enabled",
		"payment_status", "order_status", "stock_status",
	},
	RoleSize: {
		"size", "dimensions", "variant", "option", "type",
	},
	RoleColor: {
		"color", "colour", "shade", "variant",
	},
	RoleWeight: {
		"weight", "mass", "volume", "ml", "grams", "kg", "oz",
	},
}

// Roles returns every role in scan order.
func Roles() []Role {
	out := make([]Role, len(roleOrder))
	copy(out, roleOrder)
	return out
}

// Synonyms returns the ordered synonym list for a role.
func Synonyms(role Role) []string {
	return append([]string(nil), roleSynonyms[role]...)
}
