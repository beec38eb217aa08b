package apperr_test

import (
	"errors"
	"fmt"
	"testing"

	"github.com/01moynul/retail-orders/internal/apperr"
	"github.com/stretchr/testify/assert"
)

func TestErrorIsMatchesByCode(t *testing.T) {
	sentinel := apperr.Validation("empty_cart", "cart is empty")
	specific := sentinel.WithMessage("cart 7 is empty")
	wrapped := fmt.Errorf("orders: create: %w", specific)

	assert.True(t, errors.Is(wrapped, sentinel))
	assert.False(t, errors.Is(wrapped, apperr.Validation("contact_not_owned", "x")))
	assert.Equal(t, "cart 7 is empty", specific.Error())
}

func TestKindAndCodeOf(t *testing.T) {
	err := fmt.Errorf("wrap: %w", apperr.Conflict("supplier_inactive", "supplier is not accepting orders"))

	assert.Equal(t, apperr.KindConflict, apperr.KindOf(err))
	assert.Equal(t, "supplier_inactive", apperr.CodeOf(err))

	plain := errors.New("boom")
	assert.Equal(t, apperr.KindUnknown, apperr.KindOf(plain))
	assert.Empty(t, apperr.CodeOf(plain))
}

func TestKindString(t *testing.T) {
	assert.Equal(t, "validation", apperr.KindValidation.String())
	assert.Equal(t, "not_found", apperr.KindNotFound.String())
	assert.Equal(t, "conflict", apperr.KindConflict.String())
	assert.Equal(t, "processing", apperr.KindProcessing.String())
	assert.Equal(t, "unknown", apperr.KindUnknown.String())
}
