package handlers

import (
	"net/http"

	"github.com/01moynul/retail-orders/internal/models"
	"github.com/gin-gonic/gin"
)

//
// --- Order Handlers ---
//

// CheckoutInput defines the JSON for placing an order.
type CheckoutInput struct {
	ContactID int64 `json:"contact_id" binding:"required,min=1"`
}

// UpdateOrderStatusInput defines the JSON for an admin status change.
type UpdateOrderStatusInput struct {
	Status models.OrderStatus `json:"status" binding:"required"`
}

// Checkout handles POST /v1/orders
func (h *Handlers) Checkout(c *gin.Context) {
	var input CheckoutInput
	if err := c.ShouldBindJSON(&input); err != nil {
		badRequest(c, "Invalid input: "+err.Error())
		return
	}

	client, ok := h.currentClient(c)
	if !ok {
		return
	}
	order, err := h.Orders.Create(c.Request.Context(), client, input.ContactID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, order)
}

// GetMyOrders handles GET /v1/orders
func (h *Handlers) GetMyOrders(c *gin.Context) {
	client, ok := h.currentClient(c)
	if !ok {
		return
	}
	orders, err := h.Orders.List(c.Request.Context(), client.ID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, orders)
}

// GetOrderDetails handles GET /v1/orders/:id
func (h *Handlers) GetOrderDetails(c *gin.Context) {
	orderID, ok := idParam(c, "id")
	if !ok {
		return
	}
	client, ok := h.currentClient(c)
	if !ok {
		return
	}
	order, err := h.Orders.Get(c.Request.Context(), client.ID, orderID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, order)
}

// UpdateOrderStatus handles PATCH /v1/admin/orders/:id/status
func (h *Handlers) UpdateOrderStatus(c *gin.Context) {
	orderID, ok := idParam(c, "id")
	if !ok {
		return
	}
	var input UpdateOrderStatusInput
	if err := c.ShouldBindJSON(&input); err != nil {
		badRequest(c, "Invalid input: "+err.Error())
		return
	}

	change, err := h.Orders.UpdateStatus(c.Request.Context(), orderID, input.Status)
	if err != nil {
		respondError(c, err)
		return
	}
	if change == nil {
		c.JSON(http.StatusOK, gin.H{"order_id": orderID, "status": input.Status, "changed": false})
		return
	}
	c.JSON(http.StatusOK, gin.H{"order_id": orderID, "status": change.New, "previous": change.Old, "changed": true})
}
