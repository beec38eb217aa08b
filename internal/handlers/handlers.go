package handlers

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"github.com/01moynul/retail-orders/internal/apperr"
	"github.com/01moynul/retail-orders/internal/catalog"
	"github.com/01moynul/retail-orders/internal/middleware"
	"github.com/01moynul/retail-orders/internal/models"
	"github.com/01moynul/retail-orders/internal/tasks"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

type CatalogService interface {
	ListCategories(ctx context.Context) ([]models.Category, error)
	ListProducts(ctx context.Context, f catalog.Filter) (*catalog.Page, error)
	GetProduct(ctx context.Context, id int64) (*models.Product, error)
}

type CartService interface {
	Add(ctx context.Context, clientID, offerID int64, quantity int) (*models.CartItem, error)
	View(ctx context.Context, clientID int64) (*models.Cart, error)
	Update(ctx context.Context, clientID, itemID int64, quantity int) error
	Remove(ctx context.Context, clientID, itemID int64) error
}

type OrderService interface {
	Create(ctx context.Context, client *models.Client, contactID int64) (*models.Order, error)
	List(ctx context.Context, clientID int64) ([]models.Order, error)
	Get(ctx context.Context, clientID, orderID int64) (*models.Order, error)
	UpdateStatus(ctx context.Context, orderID int64, next models.OrderStatus) (*models.StatusChange, error)
}

type AccountService interface {
	EnsureClient(ctx context.Context, id models.Identity) (*models.Client, error)
	EnsureSupplier(ctx context.Context, userID int64) (*models.Supplier, error)
	SetAcceptingOrders(ctx context.Context, userID int64, accepting bool) (*models.Supplier, error)

	ListContacts(ctx context.Context, clientID int64) ([]models.Contact, error)
	GetContact(ctx context.Context, clientID, contactID int64) (*models.Contact, error)
	CreateContact(ctx context.Context, clientID int64, c *models.Contact) error
	UpdateContact(ctx context.Context, clientID int64, c *models.Contact) error
	DeleteContact(ctx context.Context, clientID, contactID int64) error
}

type TaskService interface {
	SubmitFor(ctx context.Context, owner int64, name string, args any) (string, error)
	Poll(ctx context.Context, id string) (*tasks.Status, error)
	Latest(ctx context.Context, name string) (string, error)
}

// Handlers struct holds all dependencies for our handlers.
type Handlers struct {
	Catalog  CatalogService
	Cart     CartService
	Orders   OrderService
	Accounts AccountService
	Tasks    TaskService
}

// respondError maps an error to its HTTP status and writes
// {"error": message, "code": code}. Errors outside the apperr taxonomy are
// logged and hidden behind a generic 500.
func respondError(c *gin.Context, err error) {
	var appErr *apperr.Error
	if !errors.As(err, &appErr) {
		zerolog.Ctx(c.Request.Context()).Error().Err(err).Str("path", c.FullPath()).Msg("request failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error", "code": "internal"})
		return
	}

	status := http.StatusInternalServerError
	switch appErr.Kind {
	case apperr.KindValidation:
		status = http.StatusBadRequest
	case apperr.KindNotFound:
		status = http.StatusNotFound
	case apperr.KindConflict:
		status = http.StatusConflict
	}
	c.JSON(status, gin.H{"error": appErr.Message, "code": appErr.Code})
}

func badRequest(c *gin.Context, msg string) {
	c.JSON(http.StatusBadRequest, gin.H{"error": msg, "code": "invalid_input"})
}

// idParam parses a positive integer path parameter, writing a 400 when it
// is not one.
func idParam(c *gin.Context, name string) (int64, bool) {
	id, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil || id < 1 {
		badRequest(c, "Invalid "+name)
		return 0, false
	}
	return id, true
}

// currentClient resolves the client profile of the caller, creating it on
// first use.
func (h *Handlers) currentClient(c *gin.Context) (*models.Client, bool) {
	id, _ := middleware.Identity(c)
	client, err := h.Accounts.EnsureClient(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return nil, false
	}
	return client, true
}
