package routes

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/01moynul/retail-orders/internal/auth"
	"github.com/01moynul/retail-orders/internal/handlers"
	"github.com/01moynul/retail-orders/internal/models"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRouteProtection(t *testing.T) {
	gin.SetMode(gin.TestMode)
	tokens := auth.NewTokenManager("secret", time.Hour)
	router := SetupRouter(&handlers.Handlers{}, tokens, "*")

	token := func(role models.Role) string {
		s, err := tokens.GenerateToken(models.Identity{UserID: 1, Email: "x@example.com", Role: role})
		require.NoError(t, err)
		return "Bearer " + s
	}

	tests := []struct {
		name   string
		method string
		path   string
		auth   string
		want   int
	}{
		{"ping is public", http.MethodGet, "/v1/ping", "", http.StatusOK},
		{"cart needs a token", http.MethodGet, "/v1/cart", "", http.StatusUnauthorized},
		{"supplier cannot checkout", http.MethodPost, "/v1/orders", token(models.RoleSupplier), http.StatusForbidden},
		{"client cannot upload", http.MethodPost, "/v1/supplier/pricelist", token(models.RoleClient), http.StatusForbidden},
		{"client cannot poll tasks", http.MethodGet, "/v1/tasks/abc", token(models.RoleClient), http.StatusForbidden},
		{"admin cannot checkout", http.MethodPost, "/v1/orders", token(models.RoleAdmin), http.StatusForbidden},
		{"admin cannot upload", http.MethodPost, "/v1/supplier/pricelist", token(models.RoleAdmin), http.StatusForbidden},
		{"supplier cannot change order status", http.MethodPatch, "/v1/admin/orders/1/status", token(models.RoleSupplier), http.StatusForbidden},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(tt.method, tt.path, nil)
			if tt.auth != "" {
				req.Header.Set("Authorization", tt.auth)
			}
			w := httptest.NewRecorder()
			router.ServeHTTP(w, req)
			assert.Equal(t, tt.want, w.Code)
		})
	}
}
