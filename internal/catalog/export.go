package catalog

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/01moynul/retail-orders/internal/models"
	"github.com/01moynul/retail-orders/internal/tasks"
	"github.com/rs/zerolog/log"
)

// ExportTaskName is the task that renders the whole catalog as JSON.
const ExportTaskName = "catalog.export"

// ExportFileName is the attachment name of a downloaded export.
const ExportFileName = "products.json"

// ExportDocument is the payload of a catalog export.
type ExportDocument struct {
	GeneratedAt time.Time         `json:"generatedAt"`
	Categories  []models.Category `json:"categories"`
	Products    []models.Product  `json:"products"`
}

// Export renders every product with a live offer, plus all categories.
func (s *Store) Export(ctx context.Context) ([]byte, error) {
	categories, err := s.ListCategories(ctx)
	if err != nil {
		return nil, err
	}

	products, err := s.queryProducts(ctx, `
		SELECT p.id, p.name, p.slug, p.category_id FROM products p
		WHERE EXISTS (SELECT 1 FROM offers o WHERE o.product_id = p.id AND o.archived_at IS NULL)
		ORDER BY p.id`)
	if err != nil {
		return nil, err
	}
	if err := s.loadOffers(ctx, products); err != nil {
		return nil, err
	}

	doc := ExportDocument{GeneratedAt: time.Now().UTC(), Categories: categories, Products: products}
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("catalog: encode export: %w", err)
	}
	return data, nil
}

// ExportHandler runs ExportTaskName tasks. The task result is the export
// document itself.
func ExportHandler(s *Store) tasks.HandlerFunc {
	return func(ctx context.Context, _ json.RawMessage) (any, error) {
		data, err := s.Export(ctx)
		if err != nil {
			return nil, err
		}
		log.Info().Int("bytes", len(data)).Msg("catalog exported")
		return json.RawMessage(data), nil
	}
}
