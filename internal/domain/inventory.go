package domain

import (
	"strconv"
)

// InventoryItem is a caller-supplied inventory record. Only sku, barcode and
// name are interpreted; every other field is passed through untouched.
type InventoryItem map[string]any

// SKU returns the item's stock-keeping unit, or "" when absent
func (i InventoryItem) SKU() string {
	return i.stringField("sku")
}

// Barcode returns the item's barcode, or "" when absent
func (i InventoryItem) Barcode() string {
	return i.stringField("barcode")
}

// Name returns the item's display name, or "" when absent
func (i InventoryItem) Name() string {
	return i.stringField("name")
}

// Clone returns a shallow copy so callers can add fields without touching the original
func (i InventoryItem) Clone() InventoryItem {
	if i == nil {
		return nil
	}
	out := make(InventoryItem, len(i))
	for k, v := range i {
		out[k] = v
	}
	return out
}

// stringField reads a field as text. JSON numbers (barcodes are often sent
// unquoted) are rendered without exponent or trailing zeros.
func (i InventoryItem) stringField(key string) string {
	switch v := i[key].(type) {
	case string:
		return v
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case int:
		return strconv.Itoa(v)
	case int64:
		return strconv.FormatInt(v, 10)
	default:
		return ""
	}
}
