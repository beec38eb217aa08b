// Package cart manages each client's single shopping cart. Line prices are
// always read from the live offer.
package cart

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/01moynul/retail-orders/internal/apperr"
	"github.com/01moynul/retail-orders/internal/database"
	"github.com/01moynul/retail-orders/internal/models"
)

var (
	ErrInvalidQuantity  = apperr.Validation("invalid_quantity", "quantity must be at least 1")
	ErrOfferNotFound    = apperr.NotFound("offer_not_found", "offer not found")
	ErrSupplierInactive = apperr.Conflict("supplier_inactive", "supplier is not accepting orders")
	ErrItemNotFound     = apperr.NotFound("item_not_found", "cart item not found")
)

type Service struct {
	db  *sql.DB
	now func() time.Time
}

func NewService(db *sql.DB) *Service {
	return &Service{db: db, now: time.Now}
}

// getOrCreateCartID finds the client's cart or creates one.
// It can be used within a transaction.
func (s *Service) getOrCreateCartID(ctx context.Context, q database.Querier, clientID int64) (int64, error) {
	now := s.now().UTC()
	result, err := q.ExecContext(ctx, `
		INSERT INTO carts (client_id, created_at, updated_at) VALUES (?, ?, ?)
		ON DUPLICATE KEY UPDATE id = LAST_INSERT_ID(id)`,
		clientID, now, now)
	if err != nil {
		return 0, fmt.Errorf("cart: get or create: %w", err)
	}
	cartID, err := result.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("cart: get or create: %w", err)
	}
	return cartID, nil
}

// Add puts quantity units of the offer into the client's cart. Adding an
// offer already in the cart increases that line's quantity.
func (s *Service) Add(ctx context.Context, clientID, offerID int64, quantity int) (*models.CartItem, error) {
	if quantity < 1 {
		return nil, ErrInvalidQuantity
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("cart: begin: %w", err)
	}
	defer tx.Rollback()

	cartID, err := s.getOrCreateCartID(ctx, tx, clientID)
	if err != nil {
		return nil, err
	}

	// Logic check: the offer is live and its supplier takes orders
	var accepting bool
	err = tx.QueryRowContext(ctx, `
		SELECT s.accepting_orders
		FROM offers o
		JOIN suppliers s ON s.id = o.supplier_id
		WHERE o.id = ? AND o.archived_at IS NULL`, offerID).Scan(&accepting)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrOfferNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("cart: check offer: %w", err)
	}
	if !accepting {
		return nil, ErrSupplierInactive
	}

	// Insert or Update logic (Upsert)
	_, err = tx.ExecContext(ctx, `
		INSERT INTO cart_items (cart_id, offer_id, quantity) VALUES (?, ?, ?)
		ON DUPLICATE KEY UPDATE quantity = quantity + VALUES(quantity)`,
		cartID, offerID, quantity)
	if err != nil {
		return nil, fmt.Errorf("cart: add item: %w", err)
	}

	item := &models.CartItem{CartID: cartID, OfferID: offerID}
	err = tx.QueryRowContext(ctx,
		"SELECT id, quantity FROM cart_items WHERE cart_id = ? AND offer_id = ?", cartID, offerID,
	).Scan(&item.ID, &item.Quantity)
	if err != nil {
		return nil, fmt.Errorf("cart: read item: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("cart: commit: %w", err)
	}
	return item, nil
}

// View returns the client's cart with live prices and the grand total,
// creating an empty cart on first access.
func (s *Service) View(ctx context.Context, clientID int64) (*models.Cart, error) {
	cartID, err := s.getOrCreateCartID(ctx, s.db, clientID)
	if err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT ci.id, ci.offer_id, p.name, s.name, o.price, ci.quantity
		FROM cart_items ci
		JOIN offers o ON o.id = ci.offer_id
		JOIN products p ON p.id = o.product_id
		JOIN suppliers s ON s.id = o.supplier_id
		WHERE ci.cart_id = ? AND o.archived_at IS NULL
		ORDER BY ci.id`, cartID)
	if err != nil {
		return nil, fmt.Errorf("cart: query items: %w", err)
	}
	defer rows.Close()

	cart := &models.Cart{ID: cartID, ClientID: clientID, Items: []models.CartItem{}}
	for rows.Next() {
		item := models.CartItem{CartID: cartID}
		if err := rows.Scan(&item.ID, &item.OfferID, &item.ProductName, &item.SupplierName, &item.Price, &item.Quantity); err != nil {
			return nil, fmt.Errorf("cart: scan item: %w", err)
		}
		cart.Items = append(cart.Items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("cart: iterate items: %w", err)
	}

	cart.Recalculate()
	return cart, nil
}

// Update sets the quantity of one line of the client's own cart.
func (s *Service) Update(ctx context.Context, clientID, itemID int64, quantity int) error {
	if quantity < 1 {
		return ErrInvalidQuantity
	}

	result, err := s.db.ExecContext(ctx, `
		UPDATE cart_items ci
		JOIN carts c ON c.id = ci.cart_id
		SET ci.quantity = ?
		WHERE ci.id = ? AND c.client_id = ?`,
		quantity, itemID, clientID)
	if err != nil {
		return fmt.Errorf("cart: update item: %w", err)
	}
	return requireRow(result)
}

// Remove deletes one line of the client's own cart.
func (s *Service) Remove(ctx context.Context, clientID, itemID int64) error {
	result, err := s.db.ExecContext(ctx, `
		DELETE ci FROM cart_items ci
		JOIN carts c ON c.id = ci.cart_id
		WHERE ci.id = ? AND c.client_id = ?`,
		itemID, clientID)
	if err != nil {
		return fmt.Errorf("cart: remove item: %w", err)
	}
	return requireRow(result)
}

// requireRow maps "no row matched" to ErrItemNotFound. The connection
// reports matched rows, so an unchanged quantity still counts.
func requireRow(result sql.Result) error {
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("cart: rows affected: %w", err)
	}
	if n == 0 {
		return ErrItemNotFound
	}
	return nil
}
