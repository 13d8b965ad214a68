package config

import (
	"log"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

var (
	APP_ENV     string
	PORT        string
	DB_URL      string
	JWT_SECRET  string
	CORS_ORIGIN string

	PAYMENT_CURRENCY string
	GATEWAY_TIMEOUT  time.Duration

	OMISE_PUBLIC_KEY  string
	OMISE_SECRET_KEY  string
	OMISE_API_VERSION string
	OMISE_API_URL     string

	STRIPE_SECRET_KEY     string
	STRIPE_WEBHOOK_SECRET string
	STRIPE_AUTO_RECONCILE bool
)

func LoadEnv() {
	err := godotenv.Load()
	if err != nil {
		log.Println("No .env file found. Using system environment variables.")
	}

	APP_ENV = getEnv("APP_ENV", "development")
	PORT = getEnv("PORT", "8080")
	DB_URL = mustEnv("DB_URL")
	JWT_SECRET = getEnv("JWT_SECRET", "")
	CORS_ORIGIN = getEnv("CORS_ORIGIN", "")

	PAYMENT_CURRENCY = getEnv("PAYMENT_CURRENCY", "JPY")
	GATEWAY_TIMEOUT = getDuration("GATEWAY_TIMEOUT", 30*time.Second)

	OMISE_PUBLIC_KEY = getEnv("OMISE_PUBLIC_KEY", "")
	OMISE_SECRET_KEY = getEnv("OMISE_SECRET_KEY", "")
	OMISE_API_VERSION = getEnv("OMISE_API_VERSION", "2019-05-29")
	OMISE_API_URL = getEnv("OMISE_API_URL", "https://api.omise.co")

	STRIPE_SECRET_KEY = getEnv("STRIPE_SECRET_KEY", "")
	STRIPE_WEBHOOK_SECRET = getEnv("STRIPE_WEBHOOK_SECRET", "")
	STRIPE_AUTO_RECONCILE = getBool("STRIPE_AUTO_RECONCILE", false)
}

func mustEnv(key string) string {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		log.Fatalf("Missing required environment variable: %s", key)
	}
	return v
}

func getEnv(key string, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

func getDuration(key string, fallback time.Duration) time.Duration {
	v := getEnv(key, "")
	if v == "" {
		return fallback
	}
	d, err := time.ParseDuration(v)
	if err != nil || d <= 0 {
		log.Printf("Invalid %s=%q, using %s", key, v, fallback)
		return fallback
	}
	return d
}

func getBool(key string, fallback bool) bool {
	switch strings.ToLower(strings.TrimSpace(getEnv(key, ""))) {
	case "1", "true", "yes", "on":
		return true
	case "0", "false", "no", "off":
		return false
	default:
		return fallback
	}
}
