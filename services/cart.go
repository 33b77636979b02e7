package services

import (
	"github.com/arco-atelier/arco-api/models"
)

// ShippingPolicy decides the shipping fee for a subtotal
type ShippingPolicy struct {
	Fee           int64
	FreeThreshold int64 // 0 disables free shipping
}

// FeeFor returns the shipping fee owed for subtotal. Empty carts ship for free.
func (p ShippingPolicy) FeeFor(subtotal int64) int64 {
	if subtotal <= 0 {
		return 0
	}
	if p.FreeThreshold > 0 && subtotal >= p.FreeThreshold {
		return 0
	}
	return p.Fee
}

// Totals is the price breakdown of a cart or order
type Totals struct {
	Subtotal    int64 `json:"subtotal"`
	Discount    int64 `json:"discount_amount"`
	ShippingFee int64 `json:"shipping_fee"`
	Total       int64 `json:"total_amount"`
}

// CalculateTotals computes subtotal - discount + shipping.
// The shipping fee is based on the subtotal before discount; the discount never exceeds the subtotal.
func CalculateTotals(items models.OrderItems, discount int64, policy ShippingPolicy) Totals {
	subtotal := items.Subtotal()
	if discount < 0 {
		discount = 0
	}
	if discount > subtotal {
		discount = subtotal
	}
	fee := policy.FeeFor(subtotal)

	return Totals{
		Subtotal:    subtotal,
		Discount:    discount,
		ShippingFee: fee,
		Total:       subtotal - discount + fee,
	}
}

// Cart accumulates selected items. Lines with the same product, size and color are merged.
type Cart struct {
	lines models.OrderItems
}

// NewCart creates an empty cart
func NewCart() *Cart {
	return &Cart{}
}

// Add appends a line or increases the quantity of a matching one
func (c *Cart) Add(item models.OrderItem) error {
	if item.Quantity <= 0 {
		return ErrQuantityInvalid
	}
	if i := c.find(item.ProductID, item.Size, item.Color); i >= 0 {
		c.lines[i].Quantity += item.Quantity
		return nil
	}
	c.lines = append(c.lines, item)
	return nil
}

// UpdateQuantity sets the quantity of a line. Zero or less removes it.
func (c *Cart) UpdateQuantity(productID uint, size, color string, quantity int) {
	i := c.find(productID, size, color)
	if i < 0 {
		return
	}
	if quantity <= 0 {
		c.lines = append(c.lines[:i], c.lines[i+1:]...)
		return
	}
	c.lines[i].Quantity = quantity
}

// Remove deletes a line
func (c *Cart) Remove(productID uint, size, color string) {
	c.UpdateQuantity(productID, size, color, 0)
}

// Clear empties the cart
func (c *Cart) Clear() {
	c.lines = nil
}

// Items returns a copy of the cart lines
func (c *Cart) Items() models.OrderItems {
	out := make(models.OrderItems, len(c.lines))
	copy(out, c.lines)
	return out
}

// Len returns the number of distinct lines
func (c *Cart) Len() int {
	return len(c.lines)
}

// QuantityByProduct sums quantities across sizes and colors per product
func (c *Cart) QuantityByProduct() map[uint]int {
	out := make(map[uint]int, len(c.lines))
	for _, l := range c.lines {
		out[l.ProductID] += l.Quantity
	}
	return out
}

// Totals computes the price breakdown for the current lines
func (c *Cart) Totals(discount int64, policy ShippingPolicy) Totals {
	return CalculateTotals(c.lines, discount, policy)
}

func (c *Cart) find(productID uint, size, color string) int {
	for i, l := range c.lines {
		if l.ProductID == productID && l.Size == size && l.Color == color {
			return i
		}
	}
	return -1
}
