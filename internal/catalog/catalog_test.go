package catalog

import (
	"context"
	"encoding/json"
	"regexp"
	"testing"

	"github.com/01moynul/retail-orders/internal/models"
	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/go-cmp/cmp"
	"github.com/shopspring/decimal"
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

var (
	productCols = []string{"id", "name", "slug", "category_id"}
	offerCols   = []string{"id", "product_id", "supplier_id", "name", "external_id", "price", "quantity"}
	paramCols   = []string{"offer_id", "name", "value"}
)

func int64Ptr(v int64) *int64 { return &v }

func TestListProductsFiltersAndPaginates(t *testing.T) {
	store, mock := newStore(t)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM products p WHERE EXISTS")).
		WithArgs(int64(1), "%Widget%").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(21))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT p.id, p.name, p.slug, p.category_id FROM products p WHERE EXISTS")).
		WithArgs(int64(1), "%Widget%", 20, 20).
		WillReturnRows(sqlmock.NewRows(productCols).AddRow(5, "Widget", "widget", 1))
	mock.ExpectQuery(regexp.QuoteMeta("FROM offers o")).
		WithArgs(int64(5)).
		WillReturnRows(sqlmock.NewRows(offerCols).AddRow(11, 5, 3, "Acme", "1", "10.00", 5))
	mock.ExpectQuery(regexp.QuoteMeta("FROM offer_parameters op")).
		WithArgs(int64(11)).
		WillReturnRows(sqlmock.NewRows(paramCols).AddRow(11, "Color", "Red"))

	page, err := store.ListProducts(context.Background(), Filter{CategoryID: 1, Search: " Widget ", Page: 2})
	require.NoError(t, err)

	assert.Equal(t, 21, page.Count)
	assert.Equal(t, 2, page.Page)
	assert.Equal(t, DefaultPageSize, page.PageSize)

	want := []models.Product{{
		ID: 5, Name: "Widget", Slug: "widget", CategoryID: int64Ptr(1),
		Offers: []models.Offer{{
			ID: 11, ProductID: 5, SupplierID: 3, SupplierName: "Acme", ExternalID: "1",
			Price: decimal.RequireFromString("10.00"), Quantity: 5,
			Parameters: []models.OfferParameter{{Name: "Color", Value: "Red"}},
		}},
	}}
	if diff := cmp.Diff(want, page.Results, cmp.Comparer(func(a, b decimal.Decimal) bool { return a.Equal(b) })); diff != "" {
		t.Errorf("products mismatch (-want +got):\n%s", diff)
	}
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestListProductsSearchIsLiteral(t *testing.T) {
	store, mock := newStore(t)

	mock.ExpectQuery(regexp.QuoteMeta("AND p.name COLLATE utf8mb4_0900_ai_ci LIKE ? ESCAPE '!'")).
		WithArgs("%50!% off!_sale!!%").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))

	page, err := store.ListProducts(context.Background(), Filter{Search: "50% off_sale!"})
	require.NoError(t, err)
	assert.Empty(t, page.Results)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestListProductsEmpty(t *testing.T) {
	store, mock := newStore(t)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM products p")).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))

	page, err := store.ListProducts(context.Background(), Filter{PageSize: 1000})
	require.NoError(t, err)
	assert.Equal(t, 0, page.Count)
	assert.Equal(t, MaxPageSize, page.PageSize)
	assert.NotNil(t, page.Results)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestGetProductNotFound(t *testing.T) {
	store, mock := newStore(t)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT p.id, p.name, p.slug, p.category_id FROM products p")).
		WithArgs(int64(404)).
		WillReturnRows(sqlmock.NewRows(productCols))

	_, err := store.GetProduct(context.Background(), 404)
	assert.ErrorIs(t, err, ErrProductNotFound)
}

func TestGetProductWithoutCategoryOrParameters(t *testing.T) {
	store, mock := newStore(t)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT p.id, p.name, p.slug, p.category_id FROM products p")).
		WithArgs(int64(5)).
		WillReturnRows(sqlmock.NewRows(productCols).AddRow(5, "Widget", "widget", nil))
	mock.ExpectQuery(regexp.QuoteMeta("FROM offers o")).
		WithArgs(int64(5)).
		WillReturnRows(sqlmock.NewRows(offerCols).AddRow(11, 5, 3, "Acme", "1", "12.50", 0))
	mock.ExpectQuery(regexp.QuoteMeta("FROM offer_parameters op")).
		WithArgs(int64(11)).
		WillReturnRows(sqlmock.NewRows(paramCols))

	p, err := store.GetProduct(context.Background(), 5)
	require.NoError(t, err)
	assert.Nil(t, p.CategoryID)
	require.Len(t, p.Offers, 1)
	assert.Equal(t, "12.5", p.Offers[0].Price.String())
	assert.Empty(t, p.Offers[0].Parameters)
}

func TestExportHandlerReturnsDocument(t *testing.T) {
	store, mock := newStore(t)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, name FROM categories")).
		WillReturnRows(sqlmock.NewRows([]string{"id", "name"}).AddRow(1, "Gadgets"))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT p.id, p.name, p.slug, p.category_id FROM products p")).
		WillReturnRows(sqlmock.NewRows(productCols).AddRow(5, "Widget", "widget", 1))
	mock.ExpectQuery(regexp.QuoteMeta("FROM offers o")).
		WithArgs(int64(5)).
		WillReturnRows(sqlmock.NewRows(offerCols).AddRow(11, 5, 3, "Acme", "1", "10.00", 5))
	mock.ExpectQuery(regexp.QuoteMeta("FROM offer_parameters op")).
		WithArgs(int64(11)).
		WillReturnRows(sqlmock.NewRows(paramCols))

	result, err := ExportHandler(store)(context.Background(), nil)
	require.NoError(t, err)

	raw, ok := result.(json.RawMessage)
	require.True(t, ok)

	var doc ExportDocument
	require.NoError(t, json.Unmarshal(raw, &doc))
	assert.Len(t, doc.Categories, 1)
	require.Len(t, doc.Products, 1)
	assert.Equal(t, "Acme", doc.Products[0].Offers[0].SupplierName)
	require.NoError(t, mock.ExpectationsWereMet())
}
