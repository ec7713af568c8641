package config

import (
	"os"
	"time"

	_ "github.com/joho/godotenv/autoload"
)

// Config collects every environment-backed setting. Loaded once in the
// composition root and passed down; nothing reads os.Getenv after startup.
type Config struct {
	Port string

	DBHost     string
	DBPort     string
	DBUser     string
	DBPassword string
	DBName     string
	DBSSLMode  string

	GoogleClientID     string
	GoogleClientSecret string

	// PublicOrigin is the externally visible origin of this service. The
	// OAuth redirect target is always <PublicOrigin>/auth/callback and must
	// exactly match the value registered with Google.
	PublicOrigin string

	JWTSecret  string
	SessionTTL time.Duration
}

func Load() Config {
	return Config{
		Port: getenv("PORT", "8080"),

		DBHost:     getenv("DB_HOST", "localhost"),
		DBPort:     getenv("DB_PORT", "5432"),
		DBUser:     getenv("DB_USER", "postgres"),
		DBPassword: os.Getenv("DB_PASSWORD"),
		DBName:     getenv("DB_NAME", "caption_gallery"),
		DBSSLMode:  getenv("DB_SSLMODE", "disable"),

		GoogleClientID:     os.Getenv("GOOGLE_CLIENT_ID"),
		GoogleClientSecret: os.Getenv("GOOGLE_CLIENT_SECRET"),

		PublicOrigin: getenv("PUBLIC_ORIGIN", "http://localhost:8080"),

		JWTSecret:  os.Getenv("JWT_SECRET"),
		SessionTTL: 72 * time.Hour,
	}
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
