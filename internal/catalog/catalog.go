// Package catalog serves read access to the merged product catalog:
// products, their live offers from every supplier, and categories.
package catalog

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/01moynul/retail-orders/internal/apperr"
	"github.com/01moynul/retail-orders/internal/database"
	"github.com/01moynul/retail-orders/internal/models"
)

const (
	DefaultPageSize = 20
	MaxPageSize     = 100
)

var ErrProductNotFound = apperr.NotFound("product_not_found", "product not found")

// Filter narrows ListProducts. Zero values mean "no filter".
type Filter struct {
	CategoryID int64
	Search     string
	Page       int
	PageSize   int
}

func (f *Filter) normalize() {
	if f.Page < 1 {
		f.Page = 1
	}
	if f.PageSize < 1 {
		f.PageSize = DefaultPageSize
	}
	if f.PageSize > MaxPageSize {
		f.PageSize = MaxPageSize
	}
	f.Search = strings.TrimSpace(f.Search)
}

// Page is one page of ListProducts results.
type Page struct {
	Count    int              `json:"count"`
	Page     int              `json:"page"`
	PageSize int              `json:"pageSize"`
	Results  []models.Product `json:"results"`
}

type Store struct {
	db *sql.DB
}

func NewStore(db *sql.DB) *Store {
	return &Store{db: db}
}

func (s *Store) ListCategories(ctx context.Context) ([]models.Category, error) {
	rows, err := s.db.QueryContext(ctx, "SELECT id, name FROM categories ORDER BY name, id")
	if err != nil {
		return nil, fmt.Errorf("catalog: list categories: %w", err)
	}
	defer rows.Close()

	categories := []models.Category{}
	for rows.Next() {
		var c models.Category
		if err := rows.Scan(&c.ID, &c.Name); err != nil {
			return nil, fmt.Errorf("catalog: scan category: %w", err)
		}
		categories = append(categories, c)
	}
	return categories, rows.Err()
}

// likeEscaper makes a search term match literally inside a LIKE pattern
// that declares '!' as its escape character.
var likeEscaper = strings.NewReplacer("!", "!!", "%", "!%", "_", "!_")

// ListProducts returns products that have at least one live offer.
func (s *Store) ListProducts(ctx context.Context, f Filter) (*Page, error) {
	f.normalize()

	// 1. WHERE clause shared by the count and the page query
	var where strings.Builder
	var args []any
	where.WriteString(" WHERE EXISTS (SELECT 1 FROM offers o WHERE o.product_id = p.id AND o.archived_at IS NULL)")
	if f.CategoryID > 0 {
		where.WriteString(" AND p.category_id = ?")
		args = append(args, f.CategoryID)
	}
	if f.Search != "" {
		where.WriteString(" AND p.name COLLATE utf8mb4_0900_ai_ci LIKE ? ESCAPE '!'")
		args = append(args, "%"+likeEscaper.Replace(f.Search)+"%")
	}

	// 2. Total count
	page := &Page{Page: f.Page, PageSize: f.PageSize, Results: []models.Product{}}
	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM products p"+where.String(), args...).Scan(&page.Count); err != nil {
		return nil, fmt.Errorf("catalog: count products: %w", err)
	}
	if page.Count == 0 {
		return page, nil
	}

	// 3. Page of products
	query := "SELECT p.id, p.name, p.slug, p.category_id FROM products p" + where.String() +
		" ORDER BY p.name, p.id LIMIT ? OFFSET ?"
	args = append(args, f.PageSize, (f.Page-1)*f.PageSize)
	products, err := s.queryProducts(ctx, query, args...)
	if err != nil {
		return nil, err
	}

	// 4. Offers for the page
	if err := s.loadOffers(ctx, products); err != nil {
		return nil, err
	}
	page.Results = products
	return page, nil
}

// GetProduct returns one product with its live offers.
func (s *Store) GetProduct(ctx context.Context, id int64) (*models.Product, error) {
	products, err := s.queryProducts(ctx, `
		SELECT p.id, p.name, p.slug, p.category_id FROM products p
		WHERE p.id = ? AND EXISTS (SELECT 1 FROM offers o WHERE o.product_id = p.id AND o.archived_at IS NULL)`, id)
	if err != nil {
		return nil, err
	}
	if len(products) == 0 {
		return nil, ErrProductNotFound
	}
	if err := s.loadOffers(ctx, products); err != nil {
		return nil, err
	}
	return &products[0], nil
}

func (s *Store) queryProducts(ctx context.Context, query string, args ...any) ([]models.Product, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("catalog: query products: %w", err)
	}
	defer rows.Close()

	products := []models.Product{}
	for rows.Next() {
		var p models.Product
		if err := rows.Scan(&p.ID, &p.Name, &p.Slug, &p.CategoryID); err != nil {
			return nil, fmt.Errorf("catalog: scan product: %w", err)
		}
		p.Offers = []models.Offer{}
		products = append(products, p)
	}
	return products, rows.Err()
}

// loadOffers attaches live offers and their parameters to products in two
// queries, whatever the number of products.
func (s *Store) loadOffers(ctx context.Context, products []models.Product) error {
	if len(products) == 0 {
		return nil
	}

	productIndex := make(map[int64]int, len(products))
	productIDs := make([]int64, len(products))
	for i, p := range products {
		productIndex[p.ID] = i
		productIDs[i] = p.ID
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT o.id, o.product_id, o.supplier_id, s.name, o.external_id, o.price, o.quantity
		FROM offers o
		JOIN suppliers s ON s.id = o.supplier_id
		WHERE o.archived_at IS NULL AND o.product_id IN (`+database.Placeholders(len(productIDs))+`)
		ORDER BY o.product_id, o.price, o.id`, database.Int64Args(productIDs)...)
	if err != nil {
		return fmt.Errorf("catalog: query offers: %w", err)
	}

	type offerRef struct{ product, offer int }
	offerIndex := make(map[int64]offerRef)
	var offerIDs []int64
	for rows.Next() {
		var o models.Offer
		if err := rows.Scan(&o.ID, &o.ProductID, &o.SupplierID, &o.SupplierName, &o.ExternalID, &o.Price, &o.Quantity); err != nil {
			rows.Close()
			return fmt.Errorf("catalog: scan offer: %w", err)
		}
		o.Parameters = []models.OfferParameter{}
		pi := productIndex[o.ProductID]
		products[pi].Offers = append(products[pi].Offers, o)
		offerIndex[o.ID] = offerRef{product: pi, offer: len(products[pi].Offers) - 1}
		offerIDs = append(offerIDs, o.ID)
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return fmt.Errorf("catalog: iterate offers: %w", err)
	}
	rows.Close()

	if len(offerIDs) == 0 {
		return nil
	}

	paramRows, err := s.db.QueryContext(ctx, `
		SELECT op.offer_id, p.name, op.value
		FROM offer_parameters op
		JOIN parameters p ON p.id = op.parameter_id
		WHERE op.offer_id IN (`+database.Placeholders(len(offerIDs))+`)
		ORDER BY op.offer_id, p.name`, database.Int64Args(offerIDs)...)
	if err != nil {
		return fmt.Errorf("catalog: query parameters: %w", err)
	}
	defer paramRows.Close()

	for paramRows.Next() {
		var offerID int64
		var param models.OfferParameter
		if err := paramRows.Scan(&offerID, &param.Name, &param.Value); err != nil {
			return fmt.Errorf("catalog: scan parameter: %w", err)
		}
		ref, ok := offerIndex[offerID]
		if !ok {
			return errors.New("catalog: parameter for unknown offer")
		}
		offer := &products[ref.product].Offers[ref.offer]
		offer.Parameters = append(offer.Parameters, param)
	}
	return paramRows.Err()
}
