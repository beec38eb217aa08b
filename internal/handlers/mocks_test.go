package handlers

import (
	"context"

	"github.com/01moynul/retail-orders/internal/catalog"
	"github.com/01moynul/retail-orders/internal/models"
	"github.com/01moynul/retail-orders/internal/tasks"
	"github.com/stretchr/testify/mock"
)

type MockCatalog struct{ mock.Mock }

func (m *MockCatalog) ListCategories(ctx context.Context) ([]models.Category, error) {
	args := m.Called(ctx)
	v, _ := args.Get(0).([]models.Category)
	return v, args.Error(1)
}

func (m *MockCatalog) ListProducts(ctx context.Context, f catalog.Filter) (*catalog.Page, error) {
	args := m.Called(ctx, f)
	v, _ := args.Get(0).(*catalog.Page)
	return v, args.Error(1)
}

func (m *MockCatalog) GetProduct(ctx context.Context, id int64) (*models.Product, error) {
	args := m.Called(ctx, id)
	v, _ := args.Get(0).(*models.Product)
	return v, args.Error(1)
}

type MockCart struct{ mock.Mock }

func (m *MockCart) Add(ctx context.Context, clientID, offerID int64, quantity int) (*models.CartItem, error) {
	args := m.Called(ctx, clientID, offerID, quantity)
	v, _ := args.Get(0).(*models.CartItem)
	return v, args.Error(1)
}

func (m *MockCart) View(ctx context.Context, clientID int64) (*models.Cart, error) {
	args := m.Called(ctx, clientID)
	v, _ := args.Get(0).(*models.Cart)
	return v, args.Error(1)
}

func (m *MockCart) Update(ctx context.Context, clientID, itemID int64, quantity int) error {
	return m.Called(ctx, clientID, itemID, quantity).Error(0)
}

func (m *MockCart) Remove(ctx context.Context, clientID, itemID int64) error {
	return m.Called(ctx, clientID, itemID).Error(0)
}

type MockOrders struct{ mock.Mock }

func (m *MockOrders) Create(ctx context.Context, client *models.Client, contactID int64) (*models.Order, error) {
	args := m.Called(ctx, client, contactID)
	v, _ := args.Get(0).(*models.Order)
	return v, args.Error(1)
}

func (m *MockOrders) List(ctx context.Context, clientID int64) ([]models.Order, error) {
	args := m.Called(ctx, clientID)
	v, _ := args.Get(0).([]models.Order)
	return v, args.Error(1)
}

func (m *MockOrders) Get(ctx context.Context, clientID, orderID int64) (*models.Order, error) {
	args := m.Called(ctx, clientID, orderID)
	v, _ := args.Get(0).(*models.Order)
	return v, args.Error(1)
}

func (m *MockOrders) UpdateStatus(ctx context.Context, orderID int64, next models.OrderStatus) (*models.StatusChange, error) {
	args := m.Called(ctx, orderID, next)
	v, _ := args.Get(0).(*models.StatusChange)
	return v, args.Error(1)
}

type MockAccounts struct{ mock.Mock }

func (m *MockAccounts) EnsureClient(ctx context.Context, id models.Identity) (*models.Client, error) {
	args := m.Called(ctx, id)
	v, _ := args.Get(0).(*models.Client)
	return v, args.Error(1)
}

func (m *MockAccounts) EnsureSupplier(ctx context.Context, userID int64) (*models.Supplier, error) {
	args := m.Called(ctx, userID)
	v, _ := args.Get(0).(*models.Supplier)
	return v, args.Error(1)
}

func (m *MockAccounts) SetAcceptingOrders(ctx context.Context, userID int64, accepting bool) (*models.Supplier, error) {
	args := m.Called(ctx, userID, accepting)
	v, _ := args.Get(0).(*models.Supplier)
	return v, args.Error(1)
}

func (m *MockAccounts) ListContacts(ctx context.Context, clientID int64) ([]models.Contact, error) {
	args := m.Called(ctx, clientID)
	v, _ := args.Get(0).([]models.Contact)
	return v, args.Error(1)
}

func (m *MockAccounts) GetContact(ctx context.Context, clientID, contactID int64) (*models.Contact, error) {
	args := m.Called(ctx, clientID, contactID)
	v, _ := args.Get(0).(*models.Contact)
	return v, args.Error(1)
}

func (m *MockAccounts) CreateContact(ctx context.Context, clientID int64, c *models.Contact) error {
	return m.Called(ctx, clientID, c).Error(0)
}

func (m *MockAccounts) UpdateContact(ctx context.Context, clientID int64, c *models.Contact) error {
	return m.Called(ctx, clientID, c).Error(0)
}

func (m *MockAccounts) DeleteContact(ctx context.Context, clientID, contactID int64) error {
	return m.Called(ctx, clientID, contactID).Error(0)
}

type MockTasks struct{ mock.Mock }

func (m *MockTasks) SubmitFor(ctx context.Context, owner int64, name string, args any) (string, error) {
	a := m.Called(ctx, owner, name, args)
	return a.String(0), a.Error(1)
}

func (m *MockTasks) Poll(ctx context.Context, id string) (*tasks.Status, error) {
	args := m.Called(ctx, id)
	v, _ := args.Get(0).(*tasks.Status)
	return v, args.Error(1)
}

func (m *MockTasks) Latest(ctx context.Context, name string) (string, error) {
	args := m.Called(ctx, name)
	return args.String(0), args.Error(1)
}
