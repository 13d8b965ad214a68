package routes

import (
	adminapi "tuition-billing/internal/api/admin"
	paymentsapi "tuition-billing/internal/api/payments"
	stripewebhooks "tuition-billing/internal/api/stripewebhook"
	usersapi "tuition-billing/internal/api/users"
	"tuition-billing/internal/app/http/middleware"
	"tuition-billing/internal/domain/billing"
	"tuition-billing/internal/domain/users"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

type Deps struct {
	DB        *gorm.DB
	JWTSecret string
	Users     *usersapi.Handler
	Payments  *paymentsapi.Handler
	Admin     *adminapi.Handler
	Webhook   *stripewebhooks.Handler
}

func RegisterRoutes(r *gin.Engine, d Deps) {
	// Raw body is signed; keep it away from the sanitizer.
	if d.Webhook != nil {
		r.POST("/webhook", d.Webhook.StripeWebhook)
	}
	r.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	auth := r.Group("/")
	auth.Use(middleware.AuthMiddleware(d.JWTSecret), middleware.RequireActiveAccount(d.DB))
	auth.GET("/me", d.Users.GetCurrentUser)

	// Students
	student := r.Group("/")
	student.Use(
		middleware.AuthMiddleware(d.JWTSecret),
		middleware.RequireRole(users.RoleStudent),
		middleware.RequireActiveAccount(d.DB),
	)
	student.GET("/payments", d.Payments.History)

	pay := student.Group("/payments")
	pay.Use(middleware.SanitizeAndCleanInputMiddleware())
	pay.POST("/omise-card", d.Payments.Pay(billing.PlatformOmise))
	pay.POST("/stripe-card", d.Payments.Pay(billing.PlatformStripe))

	// Admin routes
	admin := r.Group("/admin")
	admin.Use(
		middleware.AuthMiddleware(d.JWTSecret),
		middleware.RequireRole(users.RoleAdmin),
		middleware.RequireActiveAccount(d.DB),
	)
	admin.GET("/payments", d.Admin.ListAllPayments)
	admin.GET("/payments/audit", d.Admin.AuditPayments)
}
