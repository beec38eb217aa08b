package handlers

import (
	"net/http"

	"github.com/01moynul/retail-orders/internal/models"
	"github.com/gin-gonic/gin"
)

// GetMyContacts handles GET /v1/contacts
func (h *Handlers) GetMyContacts(c *gin.Context) {
	client, ok := h.currentClient(c)
	if !ok {
		return
	}
	contacts, err := h.Accounts.ListContacts(c.Request.Context(), client.ID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, contacts)
}

// CreateContact handles POST /v1/contacts
func (h *Handlers) CreateContact(c *gin.Context) {
	var contact models.Contact
	if err := c.ShouldBindJSON(&contact); err != nil {
		badRequest(c, "Invalid input: "+err.Error())
		return
	}

	client, ok := h.currentClient(c)
	if !ok {
		return
	}
	if err := h.Accounts.CreateContact(c.Request.Context(), client.ID, &contact); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, contact)
}

// GetContact handles GET /v1/contacts/:id
func (h *Handlers) GetContact(c *gin.Context) {
	contactID, ok := idParam(c, "id")
	if !ok {
		return
	}
	client, ok := h.currentClient(c)
	if !ok {
		return
	}
	contact, err := h.Accounts.GetContact(c.Request.Context(), client.ID, contactID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, contact)
}

// UpdateContact handles PUT /v1/contacts/:id
func (h *Handlers) UpdateContact(c *gin.Context) {
	contactID, ok := idParam(c, "id")
	if !ok {
		return
	}
	var contact models.Contact
	if err := c.ShouldBindJSON(&contact); err != nil {
		badRequest(c, "Invalid input: "+err.Error())
		return
	}

	client, ok := h.currentClient(c)
	if !ok {
		return
	}
	contact.ID = contactID
	if err := h.Accounts.UpdateContact(c.Request.Context(), client.ID, &contact); err != nil {
		respondError(c, err)
		return
	}
	contact.ClientID = client.ID
	c.JSON(http.StatusOK, contact)
}

// DeleteContact handles DELETE /v1/contacts/:id
func (h *Handlers) DeleteContact(c *gin.Context) {
	contactID, ok := idParam(c, "id")
	if !ok {
		return
	}
	client, ok := h.currentClient(c)
	if !ok {
		return
	}
	if err := h.Accounts.DeleteContact(c.Request.Context(), client.ID, contactID); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
