package config

import (
	"log"
	"os"

	"github.com/joho/godotenv"
)

// Config holds application configuration loaded from the environment.
type Config struct {
	Port string
	Mode string

	DBHost     string
	DBUser     string
	DBPassword string
	DBName     string
	DBPort     string

	MongoURI    string
	MongoDBName string

	JWTSecret string

	PaystackSecretKey string
	PaystackBaseURL   string
	CheckoutURL       string // frontend return page appended with ?ref=

	SendgridAPIKey string
	MailFrom       string
	MailFromName   string
}

// Load reads .env (when present) and builds the Config. Missing optional
// values fall back to development defaults.
func Load() *Config {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	return &Config{
		Port: getEnv("PORT", "8080"),
		Mode: getEnv("GIN_MODE", "debug"),

		DBHost:     getEnv("DB_HOST", "localhost"),
		DBUser:     getEnv("DB_USER", "postgres"),
		DBPassword: getEnv("DB_PASSWORD", "postgres"),
		DBName:     getEnv("DB_NAME", "learnhub"),
		DBPort:     getEnv("DB_PORT", "5432"),

		MongoURI:    getEnv("MONGO_URI", "mongodb://localhost:27017"),
		MongoDBName: getEnv("MONGO_DB_NAME", "learnhub"),

		JWTSecret: getEnv("JWT_SECRET", "default-secret-key-change-in-production"),

		PaystackSecretKey: getEnv("PAYSTACK_SECRET_KEY", ""),
		PaystackBaseURL:   getEnv("PAYSTACK_BASE_URL", "https://api.paystack.co"),
		CheckoutURL:       getEnv("CHECKOUT_CALLBACK_URL", "http://localhost:3000/payment/callback"),

		SendgridAPIKey: getEnv("SENDGRID_API_KEY", ""),
		MailFrom:       getEnv("MAIL_FROM", "no-reply@learnhub.local"),
		MailFromName:   getEnv("MAIL_FROM_NAME", "LearnHub"),
	}
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
