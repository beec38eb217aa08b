package routes

import (
	"net/http"

	"github.com/01moynul/retail-orders/internal/handlers"
	"github.com/01moynul/retail-orders/internal/middleware"
	"github.com/01moynul/retail-orders/internal/models"
	"github.com/gin-gonic/gin"
)

func SetupRouter(h *handlers.Handlers, tokens middleware.TokenValidator, corsOrigin string) *gin.Engine {
	router := gin.New()

	// CORS first so preflight requests never reach auth.
	router.Use(middleware.CORSMiddleware(corsOrigin))
	router.Use(middleware.RequestLogger())
	router.Use(gin.Recovery())

	v1 := router.Group("/v1")
	{
		// --- Ping Route (Public) ---
		v1.GET("/ping", func(c *gin.Context) {
			c.JSON(http.StatusOK, gin.H{"message": "pong!"})
		})

		// --- Public Catalog Routes ---
		v1.GET("/categories", h.GetAllCategories)
		v1.GET("/products", h.SearchProducts)
		v1.GET("/products/:id", h.GetProduct)

		// --- Protected Routes (Login Required) ---
		auth := v1.Group("/")
		auth.Use(middleware.AuthMiddleware(tokens))

		// --- Client Routes ---
		client := auth.Group("/")
		client.Use(middleware.RequireRole(models.RoleClient))
		{
			client.GET("/cart", h.GetCart)
			client.POST("/cart/items", h.AddToCart)
			client.PATCH("/cart/items/:id", h.UpdateCartItem)
			client.DELETE("/cart/items/:id", h.DeleteCartItem)

			client.GET("/contacts", h.GetMyContacts)
			client.POST("/contacts", h.CreateContact)
			client.GET("/contacts/:id", h.GetContact)
			client.PUT("/contacts/:id", h.UpdateContact)
			client.DELETE("/contacts/:id", h.DeleteContact)

			client.POST("/orders", h.Checkout)
			client.GET("/orders", h.GetMyOrders)
			client.GET("/orders/:id", h.GetOrderDetails)
		}

		// --- Supplier Routes ---
		supplier := auth.Group("/supplier")
		supplier.Use(middleware.RequireRole(models.RoleSupplier))
		{
			supplier.GET("/status", h.GetSupplierStatus)
			supplier.PATCH("/status", h.UpdateSupplierStatus)
			supplier.POST("/pricelist", h.UploadPricelist)
		}

		// --- Export & Task Routes (Supplier or Admin) ---
		staff := auth.Group("/")
		staff.Use(middleware.RequireRole(models.RoleSupplier, models.RoleAdmin))
		{
			staff.POST("/exports/products", h.StartProductExport)
			staff.GET("/exports/products/latest", h.GetLatestProductExport)
			staff.GET("/tasks/:id", h.GetTaskStatus)
			staff.GET("/tasks/:id/download", h.DownloadTaskResult)
		}

		// --- Admin-Only Routes ---
		admin := auth.Group("/admin")
		admin.Use(middleware.RequireRole(models.RoleAdmin))
		{
			admin.PATCH("/orders/:id/status", h.UpdateOrderStatus)
		}
	}

	return router
}
