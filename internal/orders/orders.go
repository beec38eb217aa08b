// Package orders turns a client's cart into an order and moves orders
// through their status lifecycle.
package orders

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/01moynul/retail-orders/internal/apperr"
	"github.com/01moynul/retail-orders/internal/database"
	"github.com/01moynul/retail-orders/internal/models"
	"github.com/rs/zerolog/log"
)

var (
	ErrEmptyCart         = apperr.Validation("empty_cart", "cart is empty")
	ErrContactNotOwned   = apperr.Validation("contact_not_owned", "contact does not belong to the client")
	ErrOrderNotFound     = apperr.NotFound("order_not_found", "order not found")
	ErrInvalidStatus     = apperr.Validation("invalid_status", "unknown order status")
	ErrInvalidTransition = apperr.Validation("invalid_transition", "invalid order status transition")
)

// Notifier receives order events after they are committed.
type Notifier interface {
	OrderPlaced(ctx context.Context, order *models.Order, clientEmail string) error
	StatusChanged(ctx context.Context, change models.StatusChange) error
}

type Service struct {
	db       *sql.DB
	notifier Notifier
	now      func() time.Time
}

func NewService(db *sql.DB, notifier Notifier) *Service {
	return &Service{db: db, notifier: notifier, now: time.Now}
}

// Create places an order from the client's cart. The order, its item
// snapshot and the emptied cart are committed together; notifications are
// queued afterwards and their failure does not undo the order.
func (s *Service) Create(ctx context.Context, client *models.Client, contactID int64) (*models.Order, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("orders: begin: %w", err)
	}
	defer tx.Rollback()

	// 1. --- Cart lines, locked against concurrent edits ---
	var cartID int64
	err = tx.QueryRowContext(ctx, "SELECT id FROM carts WHERE client_id = ? FOR UPDATE", client.ID).Scan(&cartID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrEmptyCart
	}
	if err != nil {
		return nil, fmt.Errorf("orders: find cart: %w", err)
	}

	rows, err := tx.QueryContext(ctx, `
		SELECT ci.offer_id, p.name, ci.quantity, o.price
		FROM cart_items ci
		JOIN offers o ON o.id = ci.offer_id
		JOIN products p ON p.id = o.product_id
		WHERE ci.cart_id = ? AND o.archived_at IS NULL
		ORDER BY ci.id
		FOR UPDATE`, cartID)
	if err != nil {
		return nil, fmt.Errorf("orders: read cart: %w", err)
	}
	var items []models.OrderItem
	for rows.Next() {
		var item models.OrderItem
		if err := rows.Scan(&item.OfferID, &item.ProductName, &item.Quantity, &item.PricePerItem); err != nil {
			rows.Close()
			return nil, fmt.Errorf("orders: scan cart line: %w", err)
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return nil, fmt.Errorf("orders: read cart: %w", err)
	}
	rows.Close()

	if len(items) == 0 {
		return nil, ErrEmptyCart
	}

	// 2. --- Contact ownership ---
	var owned int64
	err = tx.QueryRowContext(ctx, "SELECT id FROM contacts WHERE id = ? AND client_id = ?", contactID, client.ID).Scan(&owned)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrContactNotOwned
	}
	if err != nil {
		return nil, fmt.Errorf("orders: check contact: %w", err)
	}

	// 3. --- Order and item snapshot ---
	now := s.now().UTC()
	order := &models.Order{
		ClientID:  client.ID,
		ContactID: contactID,
		Status:    models.StatusNew,
		CreatedAt: now,
	}
	result, err := tx.ExecContext(ctx, `
		INSERT INTO orders (client_id, contact_id, status, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?)`,
		order.ClientID, order.ContactID, order.Status, now, now)
	if err != nil {
		return nil, fmt.Errorf("orders: insert order: %w", err)
	}
	if order.ID, err = result.LastInsertId(); err != nil {
		return nil, fmt.Errorf("orders: insert order: %w", err)
	}

	for i := range items {
		item := &items[i]
		item.OrderID = order.ID
		result, err := tx.ExecContext(ctx, `
			INSERT INTO order_items (order_id, offer_id, quantity, price_per_item)
			VALUES (?, ?, ?, ?)`,
			order.ID, item.OfferID, item.Quantity, item.PricePerItem)
		if err != nil {
			return nil, fmt.Errorf("orders: insert item for offer %d: %w", item.OfferID, err)
		}
		if item.ID, err = result.LastInsertId(); err != nil {
			return nil, fmt.Errorf("orders: insert item for offer %d: %w", item.OfferID, err)
		}
	}

	// 4. --- Empty the cart ---
	if _, err := tx.ExecContext(ctx, "DELETE FROM cart_items WHERE cart_id = ?", cartID); err != nil {
		return nil, fmt.Errorf("orders: clear cart: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("orders: commit: %w", err)
	}

	order.Items = items
	order.Recalculate()
	log.Info().Int64("order_id", order.ID).Int64("client_id", client.ID).Str("total", order.Total.StringFixed(2)).Msg("order created")

	if err := s.notifier.OrderPlaced(ctx, order, client.Email); err != nil {
		log.Error().Err(err).Int64("order_id", order.ID).Msg("failed to queue order notifications")
	}
	return order, nil
}

// List returns the client's orders, newest first, with their items.
func (s *Service) List(ctx context.Context, clientID int64) ([]models.Order, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, client_id, contact_id, status, created_at
		FROM orders WHERE client_id = ?
		ORDER BY created_at DESC, id DESC`, clientID)
	if err != nil {
		return nil, fmt.Errorf("orders: list: %w", err)
	}
	defer rows.Close()

	orders := []models.Order{}
	for rows.Next() {
		var o models.Order
		if err := rows.Scan(&o.ID, &o.ClientID, &o.ContactID, &o.Status, &o.CreatedAt); err != nil {
			return nil, fmt.Errorf("orders: scan order: %w", err)
		}
		o.Items = []models.OrderItem{}
		orders = append(orders, o)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("orders: list: %w", err)
	}
	rows.Close()

	if err := s.loadItems(ctx, orders); err != nil {
		return nil, err
	}
	return orders, nil
}

// Get returns one order of the client.
func (s *Service) Get(ctx context.Context, clientID, orderID int64) (*models.Order, error) {
	var o models.Order
	err := s.db.QueryRowContext(ctx, `
		SELECT id, client_id, contact_id, status, created_at
		FROM orders WHERE id = ? AND client_id = ?`, orderID, clientID,
	).Scan(&o.ID, &o.ClientID, &o.ContactID, &o.Status, &o.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrOrderNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("orders: get: %w", err)
	}
	o.Items = []models.OrderItem{}

	orders := []models.Order{o}
	if err := s.loadItems(ctx, orders); err != nil {
		return nil, err
	}
	return &orders[0], nil
}

func (s *Service) loadItems(ctx context.Context, orders []models.Order) error {
	if len(orders) == 0 {
		return nil
	}

	index := make(map[int64]int, len(orders))
	ids := make([]int64, len(orders))
	for i, o := range orders {
		index[o.ID] = i
		ids[i] = o.ID
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT oi.id, oi.order_id, oi.offer_id, p.name, oi.quantity, oi.price_per_item
		FROM order_items oi
		JOIN offers o ON o.id = oi.offer_id
		JOIN products p ON p.id = o.product_id
		WHERE oi.order_id IN (`+database.Placeholders(len(ids))+`)
		ORDER BY oi.id`, database.Int64Args(ids)...)
	if err != nil {
		return fmt.Errorf("orders: query items: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var item models.OrderItem
		if err := rows.Scan(&item.ID, &item.OrderID, &item.OfferID, &item.ProductName, &item.Quantity, &item.PricePerItem); err != nil {
			return fmt.Errorf("orders: scan item: %w", err)
		}
		if i, ok := index[item.OrderID]; ok {
			orders[i].Items = append(orders[i].Items, item)
		}
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("orders: query items: %w", err)
	}

	for i := range orders {
		orders[i].Recalculate()
	}
	return nil
}

// UpdateStatus moves the order to next. It compares the stored status
// with next explicitly: an unchanged status returns a nil change and emits
// nothing; an allowed transition is persisted and then handed to the
// notifier.
func (s *Service) UpdateStatus(ctx context.Context, orderID int64, next models.OrderStatus) (*models.StatusChange, error) {
	if !next.Valid() {
		return nil, ErrInvalidStatus.WithMessage(fmt.Sprintf("unknown order status %q", next))
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("orders: begin: %w", err)
	}
	defer tx.Rollback()

	var current models.OrderStatus
	var clientEmail string
	err = tx.QueryRowContext(ctx, `
		SELECT o.status, c.email
		FROM orders o
		JOIN clients c ON c.id = o.client_id
		WHERE o.id = ?
		FOR UPDATE`, orderID).Scan(&current, &clientEmail)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrOrderNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("orders: read status: %w", err)
	}

	if current == next {
		return nil, nil
	}
	if !current.CanTransitionTo(next) {
		log.Warn().Int64("order_id", orderID).Str("from", string(current)).Str("to", string(next)).Msg("rejected status transition")
		return nil, ErrInvalidTransition.WithMessage(fmt.Sprintf("cannot move order from %s to %s", current, next))
	}

	if _, err := tx.ExecContext(ctx,
		"UPDATE orders SET status = ?, updated_at = ? WHERE id = ?", next, s.now().UTC(), orderID); err != nil {
		return nil, fmt.Errorf("orders: update status: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("orders: commit: %w", err)
	}

	change := &models.StatusChange{OrderID: orderID, ClientEmail: clientEmail, Old: current, New: next}
	log.Info().Int64("order_id", orderID).Str("from", string(current)).Str("to", string(next)).Msg("order status changed")

	if err := s.notifier.StatusChanged(ctx, *change); err != nil {
		log.Error().Err(err).Int64("order_id", orderID).Msg("failed to queue status notification")
	}
	return change, nil
}
