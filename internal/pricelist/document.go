// Package pricelist parses supplier price lists and reconciles a
// supplier's offers against them.
package pricelist

import (
	"bytes"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/01moynul/retail-orders/internal/apperr"
	"github.com/go-playground/validator/v10"
	"github.com/goccy/go-yaml"
	"github.com/shopspring/decimal"
)

var ErrMalformedDocument = apperr.Validation("parse_error", "malformed price list")

// maxPrice is the first value DECIMAL(10,2) cannot hold.
var maxPrice = decimal.New(1, 8)

// Scalar accepts any YAML scalar and keeps its text, so `id: 42` and
// `id: "42"` decode to the same external id.
type Scalar string

func (s *Scalar) UnmarshalYAML(unmarshal func(any) error) error {
	var raw any
	if err := unmarshal(&raw); err != nil {
		return err
	}
	switch v := raw.(type) {
	case nil:
		*s = ""
	case string:
		*s = Scalar(v)
	case float64:
		*s = Scalar(strconv.FormatFloat(v, 'f', -1, 64))
	case float32:
		*s = Scalar(strconv.FormatFloat(float64(v), 'f', -1, 32))
	case int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64, bool:
		*s = Scalar(fmt.Sprint(v))
	default:
		return fmt.Errorf("expected a scalar value, got %T", raw)
	}
	return nil
}

func (s Scalar) String() string {
	return string(s)
}

// Document is one uploaded price list.
type Document struct {
	Shop       string     `yaml:"shop" validate:"max=100"`
	Categories []Category `yaml:"categories" validate:"dive"`
	Goods      []Good     `yaml:"goods" validate:"dive"`
}

type Category struct {
	ID   int64  `yaml:"id" validate:"required,gt=0"`
	Name string `yaml:"name" validate:"required,max=50"`
}

// Good is one line of the price list; ID is the supplier's external id.
type Good struct {
	ID         Scalar            `yaml:"id" validate:"required,max=64"`
	Category   int64             `yaml:"category" validate:"gte=0"`
	Name       string            `yaml:"name" validate:"required,max=100"`
	RawPrice   Scalar            `yaml:"price" validate:"required"`
	Quantity   int               `yaml:"quantity" validate:"gte=0"`
	Parameters map[string]Scalar `yaml:"parameters" validate:"dive,keys,required,max=50,endkeys,max=100"`

	Price decimal.Decimal `yaml:"-"`
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// Parse decodes and validates a YAML price list. Every failure wraps
// ErrMalformedDocument.
func Parse(data []byte) (*Document, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, malformed("document is empty")
	}

	var doc Document
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, malformed("invalid YAML: %v", err)
	}
	if err := doc.Validate(); err != nil {
		return nil, err
	}
	return &doc, nil
}

// Validate checks field constraints, parses prices, and rejects duplicate
// external ids or product names within the document.
func (d *Document) Validate() error {
	if err := validate.Struct(d); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			msgs := make([]string, 0, len(verrs))
			for _, fe := range verrs {
				msgs = append(msgs, fmt.Sprintf("%s failed %q", strings.TrimPrefix(fe.Namespace(), "Document."), fe.Tag()))
			}
			return malformed("%s", strings.Join(msgs, "; "))
		}
		return malformed("%v", err)
	}

	categoryIDs := make(map[int64]bool, len(d.Categories))
	for i, c := range d.Categories {
		if categoryIDs[c.ID] {
			return malformed("categories[%d]: duplicate category id %d", i, c.ID)
		}
		categoryIDs[c.ID] = true
	}

	ids := make(map[Scalar]bool, len(d.Goods))
	names := make(map[string]bool, len(d.Goods))
	for i := range d.Goods {
		g := &d.Goods[i]
		if ids[g.ID] {
			return malformed("goods[%d]: duplicate id %q", i, g.ID)
		}
		ids[g.ID] = true
		if names[g.Name] {
			return malformed("goods[%d]: duplicate name %q", i, g.Name)
		}
		names[g.Name] = true

		price, err := decimal.NewFromString(strings.TrimSpace(g.RawPrice.String()))
		if err != nil {
			return malformed("goods[%d]: invalid price %q", i, g.RawPrice)
		}
		if price.IsNegative() {
			return malformed("goods[%d]: price must not be negative", i)
		}
		if price.Exponent() < -2 && !price.Equal(price.Round(2)) {
			return malformed("goods[%d]: price has more than two decimal places", i)
		}
		if price.GreaterThanOrEqual(maxPrice) {
			return malformed("goods[%d]: price is too large", i)
		}
		g.Price = price.Round(2)
	}
	return nil
}

// ExternalIDs returns the set S of external ids named by the document.
func (d *Document) ExternalIDs() map[string]bool {
	s := make(map[string]bool, len(d.Goods))
	for _, g := range d.Goods {
		s[g.ID.String()] = true
	}
	return s
}

func malformed(format string, args ...any) error {
	return ErrMalformedDocument.WithMessage("malformed price list: " + fmt.Sprintf(format, args...))
}
