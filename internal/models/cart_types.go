package models

import "github.com/shopspring/decimal"

// Cart defines the struct for the 'carts' table plus its priced lines.
type Cart struct {
	ID       int64           `json:"id" db:"id"`
	ClientID int64           `json:"clientId" db:"client_id"`
	Items    []CartItem      `json:"items" db:"-"`
	Total    decimal.Decimal `json:"total" db:"-"`
}

// CartItem defines the struct for the 'cart_items' table.
// Price is the offer's live price, never a stored copy.
type CartItem struct {
	ID       int64 `json:"id" db:"id"`
	CartID   int64 `json:"cartId" db:"cart_id"`
	OfferID  int64 `json:"offerId" db:"offer_id"`
	Quantity int   `json:"quantity" db:"quantity"`

	ProductName  string          `json:"productName,omitempty" db:"-"`
	SupplierName string          `json:"supplierName,omitempty" db:"-"`
	Price        decimal.Decimal `json:"price" db:"-"`
	LineTotal    decimal.Decimal `json:"lineTotal" db:"-"`
}

// Recalculate fills every LineTotal and the cart Total from live prices.
func (c *Cart) Recalculate() {
	total := decimal.Zero
	for i := range c.Items {
		item := &c.Items[i]
		item.LineTotal = item.Price.Mul(decimal.NewFromInt(int64(item.Quantity)))
		total = total.Add(item.LineTotal)
	}
	c.Total = total
}
