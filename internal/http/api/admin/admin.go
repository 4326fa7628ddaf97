package admin

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/netbillhq/netbill/internal/billing"
	"github.com/netbillhq/netbill/internal/config"
	handlers "github.com/netbillhq/netbill/internal/http/api/admin/handlers"
	"github.com/netbillhq/netbill/internal/models"
	"github.com/netbillhq/netbill/internal/security"
	"gorm.io/gorm"
)

// RegisterAdminRoutes registers admin routes, middleware, and handlers.
func RegisterAdminRoutes(r *gin.Engine, db *gorm.DB, engine *billing.Engine, jwtCfg config.JWTConfig) {
	if r == nil || db == nil {
		return
	}

	healthHandler := handlers.NewHealthHandler(db)
	r.GET("/healthz", healthHandler.Healthz)

	versionHandler := handlers.NewVersionHandler()
	r.GET("/v0/version", versionHandler.GetVersion)

	adminGroup := r.Group("/v0/admin")

	authHandler := handlers.NewAuthHandler(db, jwtCfg)
	adminGroup.POST("/login", authHandler.Login)

	authed := adminGroup.Group("")
	authed.Use(adminAuthMiddleware(db, jwtCfg))

	customerHandler := handlers.NewCustomerHandler(db)
	authed.POST("/customers", customerHandler.Create)
	authed.GET("/customers", customerHandler.List)
	authed.GET("/customers/:id", customerHandler.Get)
	authed.PUT("/customers/:id", customerHandler.Update)
	authed.DELETE("/customers/:id", customerHandler.Delete)

	siteHandler := handlers.NewSiteHandler(db)
	authed.POST("/sites", siteHandler.Create)
	authed.GET("/sites", siteHandler.List)
	authed.GET("/sites/:id", siteHandler.Get)
	authed.PUT("/sites/:id", siteHandler.Update)
	authed.DELETE("/sites/:id", siteHandler.Delete)

	workOrderHandler := handlers.NewWorkOrderHandler(db)
	authed.POST("/work-orders", workOrderHandler.Create)
	authed.GET("/work-orders", workOrderHandler.List)
	authed.PUT("/work-orders/:id", workOrderHandler.Update)
	authed.DELETE("/work-orders/:id", workOrderHandler.Delete)

	paymentMethodHandler := handlers.NewPaymentMethodHandler(db)
	authed.GET("/payment-methods", paymentMethodHandler.List)
	authed.PUT("/payment-methods/:id", paymentMethodHandler.Update)

	subscriptionHandler := handlers.NewSubscriptionHandler(db, engine)
	authed.POST("/subscriptions", subscriptionHandler.Create)
	authed.GET("/subscriptions", subscriptionHandler.List)
	authed.GET("/subscriptions/:id", subscriptionHandler.Get)
	authed.PUT("/subscriptions/:id", subscriptionHandler.Update)
	authed.POST("/subscriptions/:id/pause", subscriptionHandler.Pause)
	authed.POST("/subscriptions/:id/cancel", subscriptionHandler.Cancel)
	authed.POST("/subscriptions/:id/reactivate", subscriptionHandler.Reactivate)
	authed.GET("/subscriptions/:id/payments", subscriptionHandler.ListPayments)

	paymentHandler := handlers.NewPaymentHandler(db, engine)
	authed.GET("/payments/:id", paymentHandler.Get)
	authed.POST("/payments/:id/record", paymentHandler.Record)

	auditLogHandler := handlers.NewAuditLogHandler(db)
	authed.GET("/audit-logs", auditLogHandler.List)
}

// adminAuthMiddleware validates admin JWTs and loads admin context.
func adminAuthMiddleware(db *gorm.DB, jwtCfg config.JWTConfig) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing authorization header"})
			return
		}

		token := strings.TrimPrefix(authHeader, "Bearer ")
		if token == authHeader {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid authorization format"})
			return
		}
		token = strings.TrimSpace(token)
		if token == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "empty token"})
			return
		}

		claims, errJWT := security.ParseAdminToken(jwtCfg.Secret, token)
		if errJWT != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
			return
		}

		var admin models.Admin
		if errFind := db.WithContext(c.Request.Context()).First(&admin, claims.AdminID).Error; errFind != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "admin not found"})
			return
		}
		if !admin.Active {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "admin disabled"})
			return
		}

		c.Set("adminID", admin.ID)
		c.Set("adminUsername", admin.Username)
		c.Next()
	}
}
