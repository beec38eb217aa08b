package models

import (
	"time"

	"github.com/shopspring/decimal"
)

type OrderStatus string

const (
	StatusNew        OrderStatus = "new"
	StatusProcessing OrderStatus = "processing"
	StatusShipped    OrderStatus = "shipped"
	StatusDelivered  OrderStatus = "delivered"
	StatusCanceled   OrderStatus = "canceled"
)

var allowedTransitions = map[OrderStatus]map[OrderStatus]bool{
	StatusNew: {
		StatusProcessing: true,
		StatusCanceled:   true,
	},
	StatusProcessing: {
		StatusShipped:  true,
		StatusCanceled: true,
	},
	StatusShipped: {
		StatusDelivered: true,
		StatusCanceled:  true,
	},
	StatusDelivered: {},
	StatusCanceled:  {},
}

func (s OrderStatus) Valid() bool {
	_, ok := allowedTransitions[s]
	return ok
}

// IsTerminal reports whether no further transition is possible.
func (s OrderStatus) IsTerminal() bool {
	return len(allowedTransitions[s]) == 0
}

func (s OrderStatus) CanTransitionTo(next OrderStatus) bool {
	return allowedTransitions[s][next]
}

// Order is the model for the 'orders' table.
type Order struct {
	ID        int64       `json:"id" db:"id"`
	ClientID  int64       `json:"clientId" db:"client_id"`
	ContactID int64       `json:"contactId" db:"contact_id"`
	Status    OrderStatus `json:"status" db:"status"`
	CreatedAt time.Time   `json:"createdAt" db:"created_at"`

	Items []OrderItem     `json:"items" db:"-"`
	Total decimal.Decimal `json:"total" db:"-"`
}

// OrderItem is the model for the 'order_items' table.
type OrderItem struct {
	ID           int64           `json:"id" db:"id"`
	OrderID      int64           `json:"orderId" db:"order_id"`
	OfferID      int64           `json:"offerId" db:"offer_id"`
	Quantity     int             `json:"quantity" db:"quantity"`
	PricePerItem decimal.Decimal `json:"pricePerItem" db:"price_per_item"` // Price at the time of purchase

	ProductName string          `json:"productName,omitempty" db:"-"`
	LineTotal   decimal.Decimal `json:"lineTotal" db:"-"`
}

// Recalculate fills every LineTotal and the order Total from the frozen prices.
func (o *Order) Recalculate() {
	total := decimal.Zero
	for i := range o.Items {
		item := &o.Items[i]
		item.LineTotal = item.PricePerItem.Mul(decimal.NewFromInt(int64(item.Quantity)))
		total = total.Add(item.LineTotal)
	}
	o.Total = total
}

// StatusChange is emitted after an order moved from Old to New.
type StatusChange struct {
	OrderID     int64       `json:"orderId"`
	ClientEmail string      `json:"clientEmail"`
	Old         OrderStatus `json:"old"`
	New         OrderStatus `json:"new"`
}
