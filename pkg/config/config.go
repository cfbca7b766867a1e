package config

import (
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

type Config struct {
	Port          string
	JWTSecret     string
	AdminEmail    string
	AdminPassword string

	EmailHost     string
	EmailPort     int
	EmailUsername string
	EmailPassword string
	EmailFrom     string
	AppBaseURL    string

	OpenLibraryURL string
}

// Load reads configuration from the environment, picking up a local .env
// file when present.
func Load() *Config {
	_ = godotenv.Load()

	emailPort := 587
	if v := getEnv("EMAIL_PORT", "587"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			emailPort = n
		}
	}

	return &Config{
		Port:          getEnv("PORT", "8080"),
		JWTSecret:     getEnv("JWT_SECRET_KEY", "dev_secret_key_change_in_production"),
		AdminEmail:    getEnv("ADMIN_EMAIL", "admin@example.com"),
		AdminPassword: getEnv("ADMIN_PASSWORD", "admin123"),

		EmailHost:     getEnv("EMAIL_HOST", ""),
		EmailPort:     emailPort,
		EmailUsername: getEnv("EMAIL_USERNAME", ""),
		EmailPassword: getEnv("EMAIL_PASSWORD", ""),
		EmailFrom:     getEnv("EMAIL_FROM", "noreply@greatreads.com"),
		AppBaseURL:    getEnv("APP_BASE_URL", "http://localhost:8080"),

		OpenLibraryURL: getEnv("OPENLIBRARY_URL", "https://openlibrary.org"),
	}
}

func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}
