package accounts

import (
	"context"
	"regexp"
	"testing"

	"github.com/01moynul/retail-orders/internal/database"
	"github.com/01moynul/retail-orders/internal/models"
	"github.com/DATA-DOG/go-sqlmock"
	"github.com/go-sql-driver/mysql"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newStore(t *testing.T) (*Store, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return NewStore(db), mock
}

func TestCan(t *testing.T) {
	client := models.Identity{UserID: 1, Role: models.RoleClient}
	supplier := models.Identity{UserID: 2, Role: models.RoleSupplier}
	admin := models.Identity{UserID: 3, Role: models.RoleAdmin}

	assert.True(t, Can(client, models.RoleClient))
	assert.False(t, Can(client, models.RoleSupplier))
	assert.False(t, Can(supplier, models.RoleAdmin))
	assert.True(t, Can(admin, models.RoleAdmin))
	assert.False(t, Can(admin, models.RoleClient))
	assert.False(t, Can(admin, models.RoleSupplier))

	assert.True(t, CanAny(supplier, models.RoleAdmin, models.RoleSupplier))
	assert.False(t, CanAny(client, models.RoleAdmin, models.RoleSupplier))
}

func TestEnsureClient(t *testing.T) {
	store, mock := newStore(t)

	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO clients (user_id, email) VALUES (?, ?)")).
		WithArgs(int64(10), "buyer@example.com").
		WillReturnResult(sqlmock.NewResult(4, 1))

	client, err := store.EnsureClient(context.Background(), models.Identity{UserID: 10, Email: "buyer@example.com"})
	require.NoError(t, err)
	assert.Equal(t, &models.Client{ID: 4, UserID: 10, Email: "buyer@example.com"}, client)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestSetAcceptingOrders(t *testing.T) {
	store, mock := newStore(t)

	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO suppliers (user_id) VALUES (?)")).
		WithArgs(int64(20)).
		WillReturnResult(sqlmock.NewResult(7, 1))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, user_id, name, accepting_orders FROM suppliers WHERE user_id = ?")).
		WithArgs(int64(20)).
		WillReturnRows(sqlmock.NewRows([]string{"id", "user_id", "name", "accepting_orders"}).AddRow(7, 20, "Acme", true))
	mock.ExpectExec(regexp.QuoteMeta("UPDATE suppliers SET accepting_orders = ? WHERE id = ?")).
		WithArgs(false, int64(7)).
		WillReturnResult(sqlmock.NewResult(0, 1))

	sup, err := store.SetAcceptingOrders(context.Background(), 20, false)
	require.NoError(t, err)
	assert.Equal(t, "Acme", sup.Name)
	assert.False(t, sup.AcceptingOrders)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestGetSupplierNotFound(t *testing.T) {
	store, mock := newStore(t)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, user_id, name, accepting_orders FROM suppliers")).
		WithArgs(int64(99)).
		WillReturnRows(sqlmock.NewRows([]string{"id", "user_id", "name", "accepting_orders"}))

	_, err := store.GetSupplier(context.Background(), 99)
	assert.ErrorIs(t, err, ErrSupplierNotFound)
}

func sampleContact() *models.Contact {
	return &models.Contact{
		FirstName: "Anna", LastName: "Smith", Email: "anna@example.com",
		PhoneNumber: "+100200300", City: "Springfield", Street: "Main", House: "5",
	}
}

func TestCreateContact(t *testing.T) {
	store, mock := newStore(t)
	c := sampleContact()

	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO contacts (client_id, first_name")).
		WithArgs(int64(4), "Anna", "Smith", "", "anna@example.com", "+100200300",
			"Springfield", "Main", "5", "", "", "", c.Fingerprint()).
		WillReturnResult(sqlmock.NewResult(12, 1))

	require.NoError(t, store.CreateContact(context.Background(), 4, c))
	assert.Equal(t, int64(12), c.ID)
	assert.Equal(t, int64(4), c.ClientID)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateContactDuplicate(t *testing.T) {
	store, mock := newStore(t)

	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO contacts")).
		WillReturnError(&mysql.MySQLError{Number: database.ErrNumDuplicateEntry, Message: "Duplicate entry"})

	err := store.CreateContact(context.Background(), 4, sampleContact())
	assert.ErrorIs(t, err, ErrContactExists)
}

func TestUpdateContactNotOwned(t *testing.T) {
	store, mock := newStore(t)
	c := sampleContact()
	c.ID = 30

	mock.ExpectExec(regexp.QuoteMeta("UPDATE contacts SET")).
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := store.UpdateContact(context.Background(), 4, c)
	assert.ErrorIs(t, err, ErrContactNotFound)
}

func TestDeleteContact(t *testing.T) {
	store, mock := newStore(t)

	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM contacts WHERE id = ? AND client_id = ?")).
		WithArgs(int64(30), int64(4)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM contacts WHERE id = ? AND client_id = ?")).
		WithArgs(int64(31), int64(4)).
		WillReturnError(&mysql.MySQLError{Number: database.ErrNumRowIsReferenced})

	require.NoError(t, store.DeleteContact(context.Background(), 4, 30))
	assert.ErrorIs(t, store.DeleteContact(context.Background(), 4, 31), ErrContactInUse)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestListContacts(t *testing.T) {
	store, mock := newStore(t)

	cols := []string{"id", "client_id", "first_name", "last_name", "patronymic", "email", "phone_number",
		"city", "street", "house", "building", "structure", "apartment"}
	mock.ExpectQuery(regexp.QuoteMeta("FROM contacts WHERE client_id = ? ORDER BY id")).
		WithArgs(int64(4)).
		WillReturnRows(sqlmock.NewRows(cols).
			AddRow(1, 4, "Anna", "Smith", "", "anna@example.com", "+1", "Springfield", "Main", "5", "", "", ""))

	contacts, err := store.ListContacts(context.Background(), 4)
	require.NoError(t, err)
	require.Len(t, contacts, 1)
	assert.Equal(t, "Springfield", contacts[0].City)
}
