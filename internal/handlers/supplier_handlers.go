package handlers

import (
	"io"
	"net/http"

	"github.com/01moynul/retail-orders/internal/middleware"
	"github.com/01moynul/retail-orders/internal/pricelist"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

// MaxPricelistSize caps an uploaded price list.
const MaxPricelistSize = 10 << 20

// SupplierStatusInput defines the JSON for toggling order intake.
type SupplierStatusInput struct {
	AcceptingOrders *bool `json:"accepting_orders" binding:"required"`
}

// GetSupplierStatus handles GET /v1/supplier/status
func (h *Handlers) GetSupplierStatus(c *gin.Context) {
	id, _ := middleware.Identity(c)
	supplier, err := h.Accounts.EnsureSupplier(c.Request.Context(), id.UserID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"name": supplier.Name, "accepting_orders": supplier.AcceptingOrders})
}

// UpdateSupplierStatus handles PATCH /v1/supplier/status
func (h *Handlers) UpdateSupplierStatus(c *gin.Context) {
	var input SupplierStatusInput
	if err := c.ShouldBindJSON(&input); err != nil {
		badRequest(c, "Invalid input: "+err.Error())
		return
	}

	id, _ := middleware.Identity(c)
	supplier, err := h.Accounts.SetAcceptingOrders(c.Request.Context(), id.UserID, *input.AcceptingOrders)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"name": supplier.Name, "accepting_orders": supplier.AcceptingOrders})
}

// UploadPricelist handles POST /v1/supplier/pricelist
// The document is only read here; parsing and reconciliation happen in the
// worker and their outcome is reported through the task status.
func (h *Handlers) UploadPricelist(c *gin.Context) {
	// 1. Get the file from the request
	file, err := c.FormFile("file")
	if err != nil {
		badRequest(c, "No file uploaded")
		return
	}
	if file.Size > MaxPricelistSize {
		c.JSON(http.StatusRequestEntityTooLarge, gin.H{"error": "Price list is too large", "code": "too_large"})
		return
	}

	f, err := file.Open()
	if err != nil {
		badRequest(c, "Failed to read uploaded file")
		return
	}
	defer f.Close()
	data, err := io.ReadAll(io.LimitReader(f, MaxPricelistSize))
	if err != nil {
		badRequest(c, "Failed to read uploaded file")
		return
	}

	// 2. Make sure the supplier profile exists before the worker locks it
	id, _ := middleware.Identity(c)
	if _, err := h.Accounts.EnsureSupplier(c.Request.Context(), id.UserID); err != nil {
		respondError(c, err)
		return
	}

	// 3. Queue the reconciliation
	taskID, err := h.Tasks.SubmitFor(c.Request.Context(), id.UserID, pricelist.TaskName, pricelist.TaskArgs{
		UserID:   id.UserID,
		Document: string(data),
	})
	if err != nil {
		respondError(c, err)
		return
	}

	zerolog.Ctx(c.Request.Context()).Info().Str("task_id", taskID).Int64("user_id", id.UserID).Str("file", file.Filename).Msg("price list queued")
	c.JSON(http.StatusAccepted, gin.H{"task_id": taskID})
}
