package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Product is the model for the 'products' table.
// Name is the natural key shared by every supplier.
type Product struct {
	ID         int64  `json:"id" db:"id"`
	Name       string `json:"name" db:"name"`
	Slug       string `json:"slug" db:"slug"`
	CategoryID *int64 `json:"categoryId,omitempty" db:"category_id"` // Use pointer for NULL

	// Joins (Not in DB table, populated manually)
	Offers []Offer `json:"offers" db:"-"`
}

// Offer is one supplier's sellable listing of a product ('offers' table).
type Offer struct {
	ID         int64           `json:"id" db:"id"`
	ProductID  int64           `json:"productId" db:"product_id"`
	SupplierID int64           `json:"supplierId" db:"supplier_id"`
	ExternalID string          `json:"externalId" db:"external_id"`
	Price      decimal.Decimal `json:"price" db:"price"`
	Quantity   int             `json:"quantity" db:"quantity"`
	ArchivedAt *time.Time      `json:"-" db:"archived_at"`

	// Flattened fields for UI convenience (populated manually)
	SupplierName string           `json:"supplierName,omitempty" db:"-"`
	Parameters   []OfferParameter `json:"parameters" db:"-"`
}

// Live reports whether the offer is visible to catalog, cart and checkout.
func (o *Offer) Live() bool {
	return o.ArchivedAt == nil
}

// OfferParameter is a named attribute value of an offer, e.g. Color=Red.
type OfferParameter struct {
	Name  string `json:"name" db:"name"`
	Value string `json:"value" db:"value"`
}
