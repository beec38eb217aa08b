package cart

import (
	"context"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newService(t *testing.T) (*Service, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	s := NewService(db)
	s.now = func() time.Time { return time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC) }
	return s, mock
}

var itemCols = []string{"id", "offer_id", "product_name", "supplier_name", "price", "quantity"}

func expectCart(mock sqlmock.Sqlmock, clientID, cartID int64) {
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO carts (client_id, created_at, updated_at)")).
		WithArgs(clientID, sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(cartID, 1))
}

func expectAdd(mock sqlmock.Sqlmock, clientID, cartID, offerID int64, quantity, stored int) {
	mock.ExpectBegin()
	expectCart(mock, clientID, cartID)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT s.accepting_orders")).
		WithArgs(offerID).
		WillReturnRows(sqlmock.NewRows([]string{"accepting_orders"}).AddRow(true))
	mock.ExpectExec(regexp.QuoteMeta("ON DUPLICATE KEY UPDATE quantity = quantity + VALUES(quantity)")).
		WithArgs(cartID, offerID, quantity).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, quantity FROM cart_items WHERE cart_id = ? AND offer_id = ?")).
		WithArgs(cartID, offerID).
		WillReturnRows(sqlmock.NewRows([]string{"id", "quantity"}).AddRow(100, stored))
	mock.ExpectCommit()
}

// Adding offer X twice (2 then 3) leaves one line of 5, total 50.00.
func TestAddAccumulatesAndTotalsLive(t *testing.T) {
	s, mock := newService(t)
	ctx := context.Background()

	expectAdd(mock, 1, 7, 42, 2, 2)
	item, err := s.Add(ctx, 1, 42, 2)
	require.NoError(t, err)
	assert.Equal(t, 2, item.Quantity)

	expectCart(mock, 1, 7)
	mock.ExpectQuery(regexp.QuoteMeta("FROM cart_items ci")).
		WithArgs(int64(7)).
		WillReturnRows(sqlmock.NewRows(itemCols).AddRow(100, 42, "Widget", "A", "10.00", 2))
	cart, err := s.View(ctx, 1)
	require.NoError(t, err)
	assert.True(t, cart.Total.Equal(decimal.RequireFromString("20.00")))

	expectAdd(mock, 1, 7, 42, 3, 5)
	item, err = s.Add(ctx, 1, 42, 3)
	require.NoError(t, err)
	assert.Equal(t, int64(100), item.ID)
	assert.Equal(t, 5, item.Quantity)

	expectCart(mock, 1, 7)
	mock.ExpectQuery(regexp.QuoteMeta("FROM cart_items ci")).
		WithArgs(int64(7)).
		WillReturnRows(sqlmock.NewRows(itemCols).AddRow(100, 42, "Widget", "A", "10.00", 5))
	cart, err = s.View(ctx, 1)
	require.NoError(t, err)
	require.Len(t, cart.Items, 1)
	assert.Equal(t, 5, cart.Items[0].Quantity)
	assert.True(t, cart.Total.Equal(decimal.RequireFromString("50.00")))

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestAddRejectsInvalidQuantity(t *testing.T) {
	s, mock := newService(t)

	_, err := s.Add(context.Background(), 1, 42, 0)
	assert.ErrorIs(t, err, ErrInvalidQuantity)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestAddRejectsUnknownOffer(t *testing.T) {
	s, mock := newService(t)

	mock.ExpectBegin()
	expectCart(mock, 1, 7)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT s.accepting_orders")).
		WithArgs(int64(404)).
		WillReturnRows(sqlmock.NewRows([]string{"accepting_orders"}))
	mock.ExpectRollback()

	_, err := s.Add(context.Background(), 1, 404, 1)
	assert.ErrorIs(t, err, ErrOfferNotFound)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestAddRejectsInactiveSupplier(t *testing.T) {
	s, mock := newService(t)

	mock.ExpectBegin()
	expectCart(mock, 1, 7)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT s.accepting_orders")).
		WithArgs(int64(42)).
		WillReturnRows(sqlmock.NewRows([]string{"accepting_orders"}).AddRow(false))
	mock.ExpectRollback()

	_, err := s.Add(context.Background(), 1, 42, 1)
	assert.ErrorIs(t, err, ErrSupplierInactive)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestViewEmptyCart(t *testing.T) {
	s, mock := newService(t)

	expectCart(mock, 3, 9)
	mock.ExpectQuery(regexp.QuoteMeta("FROM cart_items ci")).
		WithArgs(int64(9)).
		WillReturnRows(sqlmock.NewRows(itemCols))

	cart, err := s.View(context.Background(), 3)
	require.NoError(t, err)
	assert.Equal(t, int64(9), cart.ID)
	assert.Empty(t, cart.Items)
	assert.True(t, cart.Total.IsZero())
}

func TestUpdateAndRemoveAreScopedToOwner(t *testing.T) {
	s, mock := newService(t)
	ctx := context.Background()

	mock.ExpectExec(regexp.QuoteMeta("UPDATE cart_items ci")).
		WithArgs(4, int64(100), int64(1)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta("UPDATE cart_items ci")).
		WithArgs(4, int64(100), int64(2)).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(regexp.QuoteMeta("DELETE ci FROM cart_items ci")).
		WithArgs(int64(100), int64(2)).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(regexp.QuoteMeta("DELETE ci FROM cart_items ci")).
		WithArgs(int64(100), int64(1)).
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, s.Update(ctx, 1, 100, 4))
	assert.ErrorIs(t, s.Update(ctx, 2, 100, 4), ErrItemNotFound)
	assert.ErrorIs(t, s.Remove(ctx, 2, 100), ErrItemNotFound)
	require.NoError(t, s.Remove(ctx, 1, 100))
	assert.ErrorIs(t, s.Update(ctx, 1, 100, 0), ErrInvalidQuantity)

	require.NoError(t, mock.ExpectationsWereMet())
}
