package pricelist

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/01moynul/retail-orders/internal/apperr"
	"github.com/01moynul/retail-orders/internal/database"
	"github.com/gosimple/slug"
	"github.com/rs/zerolog/log"
)

var ErrSupplierNotFound = apperr.NotFound("not_found", "supplier not found")

// Result summarizes one reconciliation pass.
type Result struct {
	Supplier       string `json:"supplier"`
	Categories     int    `json:"categories"`
	OffersUpserted int    `json:"offers_upserted"`
	OffersRemoved  int    `json:"offers_removed"`
	OffersArchived int    `json:"offers_archived"`
}

type Reconciler struct {
	db  *sql.DB
	now func() time.Time
}

func NewReconciler(db *sql.DB) *Reconciler {
	return &Reconciler{db: db, now: time.Now}
}

// storedOffer is an offer of the supplier as it exists before the pass.
type storedOffer struct {
	ID         int64
	ExternalID string
	ProductID  int64
	Archived   bool
}

// plan is the pure part of a pass: which stored offers go away and which
// are reused for the document's goods.
type plan struct {
	remove     []int64
	byExternal map[string]int64
}

// planReconciliation keeps every stored offer whose external id is in ids
// (reviving it if archived) and removes every live offer whose id is not.
func planReconciliation(existing []storedOffer, ids map[string]bool) plan {
	p := plan{byExternal: make(map[string]int64)}
	for _, o := range existing {
		switch {
		case ids[o.ExternalID]:
			p.byExternal[o.ExternalID] = o.ID
		case !o.Archived:
			p.remove = append(p.remove, o.ID)
		}
	}
	return p
}

// Reconcile makes the supplier's offers match doc in one transaction.
// Offers absent from doc are deleted, or archived when an order still
// references them.
func (r *Reconciler) Reconcile(ctx context.Context, userID int64, doc *Document) (*Result, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("pricelist: begin: %w", err)
	}
	defer tx.Rollback()

	now := r.now().UTC()
	res := &Result{}

	// 0. --- Lock the supplier; uploads of one supplier run one at a time ---
	var supplierID int64
	err = tx.QueryRowContext(ctx,
		"SELECT id, name FROM suppliers WHERE user_id = ? FOR UPDATE", userID,
	).Scan(&supplierID, &res.Supplier)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrSupplierNotFound.WithMessage(fmt.Sprintf("no supplier profile for user %d", userID))
	}
	if err != nil {
		return nil, fmt.Errorf("pricelist: lock supplier: %w", err)
	}

	// 1. --- Categories ---
	if res.Categories, err = upsertCategories(ctx, tx, doc); err != nil {
		return nil, err
	}

	// 2. --- Current offers and the plan ---
	existing, err := loadStoredOffers(ctx, tx, supplierID)
	if err != nil {
		return nil, err
	}
	p := planReconciliation(existing, doc.ExternalIDs())

	// 3. --- Remove offers that left the price list ---
	archivedIDs, err := removeOffers(ctx, tx, p.remove, now)
	if err != nil {
		return nil, err
	}
	res.OffersRemoved = len(p.remove) - len(archivedIDs)
	res.OffersArchived = len(archivedIDs)

	// Archived rows can be revived by a good naming the same product, since
	// (product, supplier) is unique.
	archivedByProduct := make(map[int64]int64)
	justArchived := make(map[int64]bool, len(archivedIDs))
	for _, id := range archivedIDs {
		justArchived[id] = true
	}
	claimed := make(map[int64]bool, len(p.byExternal))
	for _, id := range p.byExternal {
		claimed[id] = true
	}
	for _, o := range existing {
		if (o.Archived || justArchived[o.ID]) && !claimed[o.ID] {
			archivedByProduct[o.ProductID] = o.ID
		}
	}

	// 4. --- Upsert products, offers and parameters ---
	// Goods that keep a stored offer go first: an offer moving to another
	// product frees its old product for the new goods that follow.
	order := make([]int, 0, len(doc.Goods))
	for i := range doc.Goods {
		if _, ok := p.byExternal[doc.Goods[i].ID.String()]; ok {
			order = append(order, i)
		}
	}
	for i := range doc.Goods {
		if _, ok := p.byExternal[doc.Goods[i].ID.String()]; !ok {
			order = append(order, i)
		}
	}

	paramIDs := make(map[string]int64)
	for _, i := range order {
		g := &doc.Goods[i]

		productID, err := upsertProduct(ctx, tx, g)
		if err != nil {
			return nil, err
		}

		offerID, found := p.byExternal[g.ID.String()]
		if !found {
			offerID, found = archivedByProduct[productID]
			delete(archivedByProduct, productID)
		}

		if found {
			_, err = tx.ExecContext(ctx, `
				UPDATE offers SET product_id = ?, external_id = ?, price = ?, quantity = ?, archived_at = NULL, updated_at = ?
				WHERE id = ?`,
				productID, g.ID.String(), g.Price, g.Quantity, now, offerID)
			if err != nil {
				return nil, fmt.Errorf("pricelist: update offer %s: %w", g.ID, err)
			}
		} else {
			result, err := tx.ExecContext(ctx, `
				INSERT INTO offers (product_id, supplier_id, external_id, price, quantity, updated_at)
				VALUES (?, ?, ?, ?, ?, ?)`,
				productID, supplierID, g.ID.String(), g.Price, g.Quantity, now)
			if err != nil {
				return nil, fmt.Errorf("pricelist: insert offer %s: %w", g.ID, err)
			}
			if offerID, err = result.LastInsertId(); err != nil {
				return nil, fmt.Errorf("pricelist: insert offer %s: %w", g.ID, err)
			}
		}

		if err := replaceParameters(ctx, tx, offerID, g.Parameters, paramIDs); err != nil {
			return nil, err
		}
		res.OffersUpserted++
	}

	// 5. --- Shop name ---
	if doc.Shop != "" && doc.Shop != res.Supplier {
		if _, err := tx.ExecContext(ctx, "UPDATE suppliers SET name = ? WHERE id = ?", doc.Shop, supplierID); err != nil {
			return nil, fmt.Errorf("pricelist: rename supplier: %w", err)
		}
		res.Supplier = doc.Shop
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("pricelist: commit: %w", err)
	}

	log.Info().
		Int64("supplier_id", supplierID).
		Int("offers_upserted", res.OffersUpserted).
		Int("offers_removed", res.OffersRemoved).
		Int("offers_archived", res.OffersArchived).
		Msg("price list reconciled")
	return res, nil
}

func upsertCategories(ctx context.Context, tx *sql.Tx, doc *Document) (int, error) {
	declared := make(map[int64]bool, len(doc.Categories))
	for _, c := range doc.Categories {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO categories (id, name) VALUES (?, ?)
			ON DUPLICATE KEY UPDATE name = VALUES(name)`, c.ID, c.Name)
		if err != nil {
			return 0, fmt.Errorf("pricelist: upsert category %d: %w", c.ID, err)
		}
		declared[c.ID] = true
	}

	// Goods may point at a category the document never declared.
	for _, g := range doc.Goods {
		if g.Category <= 0 || declared[g.Category] {
			continue
		}
		_, err := tx.ExecContext(ctx, `
			INSERT INTO categories (id, name) VALUES (?, '')
			ON DUPLICATE KEY UPDATE id = id`, g.Category)
		if err != nil {
			return 0, fmt.Errorf("pricelist: placeholder category %d: %w", g.Category, err)
		}
		declared[g.Category] = true
	}
	return len(doc.Categories), nil
}

func loadStoredOffers(ctx context.Context, tx *sql.Tx, supplierID int64) ([]storedOffer, error) {
	rows, err := tx.QueryContext(ctx, `
		SELECT id, external_id, product_id, archived_at IS NOT NULL
		FROM offers WHERE supplier_id = ? FOR UPDATE`, supplierID)
	if err != nil {
		return nil, fmt.Errorf("pricelist: load offers: %w", err)
	}
	defer rows.Close()

	var offers []storedOffer
	for rows.Next() {
		var o storedOffer
		if err := rows.Scan(&o.ID, &o.ExternalID, &o.ProductID, &o.Archived); err != nil {
			return nil, fmt.Errorf("pricelist: scan offer: %w", err)
		}
		offers = append(offers, o)
	}
	return offers, rows.Err()
}

// removeOffers deletes the given offers, except those still referenced by
// an order item: they are archived instead and dropped from carts. It
// returns the archived ids.
func removeOffers(ctx context.Context, tx *sql.Tx, ids []int64, now time.Time) ([]int64, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	rows, err := tx.QueryContext(ctx,
		"SELECT DISTINCT offer_id FROM order_items WHERE offer_id IN ("+database.Placeholders(len(ids))+")",
		database.Int64Args(ids)...)
	if err != nil {
		return nil, fmt.Errorf("pricelist: find ordered offers: %w", err)
	}
	referenced := make(map[int64]bool)
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			rows.Close()
			return nil, fmt.Errorf("pricelist: scan ordered offer: %w", err)
		}
		referenced[id] = true
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return nil, fmt.Errorf("pricelist: find ordered offers: %w", err)
	}
	rows.Close()

	var toDelete, toArchive []int64
	for _, id := range ids {
		if referenced[id] {
			toArchive = append(toArchive, id)
		} else {
			toDelete = append(toDelete, id)
		}
	}

	if len(toDelete) > 0 {
		_, err := tx.ExecContext(ctx,
			"DELETE FROM offers WHERE id IN ("+database.Placeholders(len(toDelete))+")",
			database.Int64Args(toDelete)...)
		if err != nil {
			return nil, fmt.Errorf("pricelist: delete offers: %w", err)
		}
	}

	if len(toArchive) > 0 {
		args := append([]any{now}, database.Int64Args(toArchive)...)
		_, err := tx.ExecContext(ctx,
			"UPDATE offers SET archived_at = ?, quantity = 0 WHERE id IN ("+database.Placeholders(len(toArchive))+")",
			args...)
		if err != nil {
			return nil, fmt.Errorf("pricelist: archive offers: %w", err)
		}
		_, err = tx.ExecContext(ctx,
			"DELETE FROM cart_items WHERE offer_id IN ("+database.Placeholders(len(toArchive))+")",
			database.Int64Args(toArchive)...)
		if err != nil {
			return nil, fmt.Errorf("pricelist: drop archived offers from carts: %w", err)
		}
	}
	return toArchive, nil
}

func upsertProduct(ctx context.Context, tx *sql.Tx, g *Good) (int64, error) {
	category := sql.NullInt64{Int64: g.Category, Valid: g.Category > 0}
	result, err := tx.ExecContext(ctx, `
		INSERT INTO products (name, slug, category_id) VALUES (?, ?, ?)
		ON DUPLICATE KEY UPDATE category_id = VALUES(category_id), id = LAST_INSERT_ID(id)`,
		g.Name, slug.Make(g.Name), category)
	if err != nil {
		return 0, fmt.Errorf("pricelist: upsert product %q: %w", g.Name, err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("pricelist: upsert product %q: %w", g.Name, err)
	}
	return id, nil
}

// replaceParameters swaps the offer's parameter set for params. Parameter
// ids are cached in ids for the rest of the pass.
func replaceParameters(ctx context.Context, tx *sql.Tx, offerID int64, params map[string]Scalar, ids map[string]int64) error {
	if _, err := tx.ExecContext(ctx, "DELETE FROM offer_parameters WHERE offer_id = ?", offerID); err != nil {
		return fmt.Errorf("pricelist: clear parameters of offer %d: %w", offerID, err)
	}
	if len(params) == 0 {
		return nil
	}

	names := make([]string, 0, len(params))
	for name := range params {
		names = append(names, name)
	}
	sort.Strings(names)

	values := make([]string, 0, len(names))
	args := make([]any, 0, len(names)*3)
	for _, name := range names {
		paramID, ok := ids[name]
		if !ok {
			result, err := tx.ExecContext(ctx, `
				INSERT INTO parameters (name) VALUES (?)
				ON DUPLICATE KEY UPDATE id = LAST_INSERT_ID(id)`, name)
			if err != nil {
				return fmt.Errorf("pricelist: upsert parameter %q: %w", name, err)
			}
			if paramID, err = result.LastInsertId(); err != nil {
				return fmt.Errorf("pricelist: upsert parameter %q: %w", name, err)
			}
			ids[name] = paramID
		}
		values = append(values, "(?, ?, ?)")
		args = append(args, offerID, paramID, params[name].String())
	}

	_, err := tx.ExecContext(ctx,
		"INSERT INTO offer_parameters (offer_id, parameter_id, value) VALUES "+strings.Join(values, ", "),
		args...)
	if err != nil {
		return fmt.Errorf("pricelist: insert parameters of offer %d: %w", offerID, err)
	}
	return nil
}
