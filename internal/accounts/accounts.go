// Package accounts keeps the client and supplier profiles attached to
// authenticated users, their delivery contacts, and the capability check.
package accounts

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/01moynul/retail-orders/internal/apperr"
	"github.com/01moynul/retail-orders/internal/models"
)

var (
	ErrSupplierNotFound = apperr.NotFound("not_found", "supplier profile not found")
	ErrContactNotFound  = apperr.NotFound("contact_not_found", "contact not found")
	ErrContactExists    = apperr.Conflict("contact_exists", "an identical contact already exists")
	ErrContactInUse     = apperr.Conflict("contact_in_use", "contact is referenced by an order")
)

// Can reports whether the identity holds the required role. Roles are
// disjoint: an admin is not a client or a supplier.
func Can(id models.Identity, required models.Role) bool {
	return id.Role == required
}

// CanAny reports whether Can holds for at least one of the roles.
func CanAny(id models.Identity, roles ...models.Role) bool {
	for _, r := range roles {
		if Can(id, r) {
			return true
		}
	}
	return false
}

type Store struct {
	db *sql.DB
}

func NewStore(db *sql.DB) *Store {
	return &Store{db: db}
}

// EnsureClient returns the client profile of the identity, creating it on
// first use and keeping the stored email in sync with the token.
func (s *Store) EnsureClient(ctx context.Context, id models.Identity) (*models.Client, error) {
	res, err := s.db.ExecContext(ctx, `
		INSERT INTO clients (user_id, email) VALUES (?, ?)
		ON DUPLICATE KEY UPDATE email = VALUES(email), id = LAST_INSERT_ID(id)`,
		id.UserID, id.Email)
	if err != nil {
		return nil, fmt.Errorf("accounts: ensure client: %w", err)
	}
	clientID, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("accounts: ensure client: %w", err)
	}
	return &models.Client{ID: clientID, UserID: id.UserID, Email: id.Email}, nil
}

// EnsureSupplier returns the supplier profile of the user, creating an
// empty one (accepting orders) on first use.
func (s *Store) EnsureSupplier(ctx context.Context, userID int64) (*models.Supplier, error) {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO suppliers (user_id) VALUES (?)
		ON DUPLICATE KEY UPDATE id = LAST_INSERT_ID(id)`, userID)
	if err != nil {
		return nil, fmt.Errorf("accounts: ensure supplier: %w", err)
	}
	return s.GetSupplier(ctx, userID)
}

func (s *Store) GetSupplier(ctx context.Context, userID int64) (*models.Supplier, error) {
	var sup models.Supplier
	err := s.db.QueryRowContext(ctx,
		"SELECT id, user_id, name, accepting_orders FROM suppliers WHERE user_id = ?", userID,
	).Scan(&sup.ID, &sup.UserID, &sup.Name, &sup.AcceptingOrders)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrSupplierNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("accounts: get supplier: %w", err)
	}
	return &sup, nil
}

// SetAcceptingOrders toggles whether the supplier's offers can be added to carts.
func (s *Store) SetAcceptingOrders(ctx context.Context, userID int64, accepting bool) (*models.Supplier, error) {
	sup, err := s.EnsureSupplier(ctx, userID)
	if err != nil {
		return nil, err
	}
	if _, err := s.db.ExecContext(ctx,
		"UPDATE suppliers SET accepting_orders = ? WHERE id = ?", accepting, sup.ID); err != nil {
		return nil, fmt.Errorf("accounts: set accepting orders: %w", err)
	}
	sup.AcceptingOrders = accepting
	return sup, nil
}
