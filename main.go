package main

import (
	"errors"
	"log/slog"
	"time"

	"tuition-billing/config"
	"tuition-billing/database"
	adminapi "tuition-billing/internal/api/admin"
	paymentsapi "tuition-billing/internal/api/payments"
	stripewebhooks "tuition-billing/internal/api/stripewebhook"
	usersapi "tuition-billing/internal/api/users"
	routes "tuition-billing/internal/app/http"
	"tuition-billing/internal/infra/billingdb"
	"tuition-billing/internal/infra/gateway"
	"tuition-billing/internal/infra/omise"
	"tuition-billing/internal/infra/stripe"
	"tuition-billing/internal/logger"
	"tuition-billing/internal/payment"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

func main() {
	config.LoadEnv()
	log := logger.Init(config.APP_ENV)
	if config.APP_ENV == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	db := database.InitDB(config.DB_URL)
	store := billingdb.New(db)

	var handlers []*payment.Handler
	opts := []payment.Option{payment.WithGatewayTimeout(config.GATEWAY_TIMEOUT)}

	omiseClient, err := omise.NewClient(omise.Config{
		BaseURL:    config.OMISE_API_URL,
		PublicKey:  config.OMISE_PUBLIC_KEY,
		SecretKey:  config.OMISE_SECRET_KEY,
		APIVersion: config.OMISE_API_VERSION,
	})
	switch {
	case err == nil:
		handlers = append(handlers, payment.NewHandler(payment.NewOmiseStrategy(omiseClient, config.PAYMENT_CURRENCY), store, log, opts...))
	case errors.Is(err, gateway.ErrNotConfigured):
		log.Warn("omise disabled: OMISE_SECRET_KEY not set")
	default:
		logger.Fatal("omise client", "error", err)
	}

	stripeClient, err := stripe.NewClient(config.STRIPE_SECRET_KEY, nil)
	switch {
	case err == nil:
		handlers = append(handlers, payment.NewHandler(payment.NewStripeStrategy(stripeClient, config.PAYMENT_CURRENCY), store, log, opts...))
	case errors.Is(err, gateway.ErrNotConfigured):
		log.Warn("stripe disabled: STRIPE_SECRET_KEY not set")
	default:
		logger.Fatal("stripe client", "error", err)
	}

	registry := payment.NewRegistry(handlers...)
	log.Info("payment platforms registered", "platforms", registry.Platforms())

	deps := routes.Deps{
		DB:        db,
		JWTSecret: config.JWT_SECRET,
		Users:     usersapi.NewHandler(db, store, log),
		Payments:  paymentsapi.NewHandler(store, registry, log),
		Admin:     adminapi.NewHandler(store, log),
	}
	if stripeClient != nil && config.STRIPE_WEBHOOK_SECRET != "" {
		reconciler := payment.NewReconciler(store, log)
		deps.Webhook = stripewebhooks.NewHandler(config.STRIPE_WEBHOOK_SECRET, stripeClient, reconciler, config.STRIPE_AUTO_RECONCILE, log)
	}

	r := gin.New()
	r.Use(gin.Recovery(), requestLogger(log))

	if config.CORS_ORIGIN != "" {
		r.Use(cors.New(cors.Config{
			AllowOrigins:     []string{config.CORS_ORIGIN},
			AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
			AllowHeaders:     []string{"Origin", "Content-Type", "Authorization"},
			ExposeHeaders:    []string{"Content-Length"},
			AllowCredentials: true,
			MaxAge:           12 * time.Hour,
		}))
	}

	routes.RegisterRoutes(r, deps)

	log.Info("listening", "port", config.PORT)
	if err := r.Run(":" + config.PORT); err != nil {
		logger.Fatal("server stopped", "error", err)
	}
}

func requestLogger(log *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		log.Info("request",
			"method", c.Request.Method,
			"path", c.FullPath(),
			"status", c.Writer.Status(),
			"duration_ms", time.Since(start).Milliseconds(),
		)
	}
}
