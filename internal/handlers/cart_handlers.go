package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

//
// --- Cart Handlers (Client-Only) ---
//

// AddToCartInput defines the JSON for adding an offer to the cart.
type AddToCartInput struct {
	OfferID  int64 `json:"offer_id" binding:"required,min=1"`
	Quantity int   `json:"quantity" binding:"required,min=1"`
}

// UpdateCartItemInput defines the JSON for changing a line's quantity.
type UpdateCartItemInput struct {
	Quantity int `json:"quantity" binding:"required,min=1"`
}

// GetCart handles GET /v1/cart
func (h *Handlers) GetCart(c *gin.Context) {
	client, ok := h.currentClient(c)
	if !ok {
		return
	}
	cart, err := h.Cart.View(c.Request.Context(), client.ID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, cart)
}

// AddToCart handles POST /v1/cart/items
func (h *Handlers) AddToCart(c *gin.Context) {
	var input AddToCartInput
	if err := c.ShouldBindJSON(&input); err != nil {
		badRequest(c, "Invalid input: "+err.Error())
		return
	}

	client, ok := h.currentClient(c)
	if !ok {
		return
	}
	item, err := h.Cart.Add(c.Request.Context(), client.ID, input.OfferID, input.Quantity)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, item)
}

// UpdateCartItem handles PATCH /v1/cart/items/:id
func (h *Handlers) UpdateCartItem(c *gin.Context) {
	itemID, ok := idParam(c, "id")
	if !ok {
		return
	}
	var input UpdateCartItemInput
	if err := c.ShouldBindJSON(&input); err != nil {
		badRequest(c, "Invalid input: "+err.Error())
		return
	}

	client, ok := h.currentClient(c)
	if !ok {
		return
	}
	if err := h.Cart.Update(c.Request.Context(), client.ID, itemID, input.Quantity); err != nil {
		respondError(c, err)
		return
	}

	cart, err := h.Cart.View(c.Request.Context(), client.ID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, cart)
}

// DeleteCartItem handles DELETE /v1/cart/items/:id
func (h *Handlers) DeleteCartItem(c *gin.Context) {
	itemID, ok := idParam(c, "id")
	if !ok {
		return
	}
	client, ok := h.currentClient(c)
	if !ok {
		return
	}
	if err := h.Cart.Remove(c.Request.Context(), client.ID, itemID); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
