package config

import (
	"os"
	"strconv"
	"strings"
)

// Config holds application configuration
type Config struct {
	Port          string
	Env           string
	LogLevel      string
	DataDir       string
	FrontendURL   string
	CORSOrigins   []string
	AdminUsername string
	AdminPassword string
	JWTSecret     string
	JWTExpiryHrs  int

	// Optional Redis-backed idempotency reservation for payments
	RedisAddr     string
	RedisPassword string

	// SendGrid email configuration
	SendGridAPIKey    string
	SendGridFromEmail string
	SendGridFromName  string

	// Default appointment durations in minutes
	StaffBookingDuration  int
	PublicBookingDuration int
}

// Load reads configuration from environment variables
func Load() *Config {
	return &Config{
		Port:          getEnv("PORT", "3001"),
		Env:           getEnv("ENV", "development"),
		LogLevel:      getEnv("LOG_LEVEL", "info"),
		DataDir:       getEnv("DATA_DIR", "./data"),
		FrontendURL:   getEnv("FRONTEND_URL", "http://localhost:3000"),
		CORSOrigins:   getEnvAsSlice("CORS_ORIGINS", []string{"http://localhost:3000"}),
		AdminUsername: getEnv("ADMIN_USERNAME", "admin"),
		AdminPassword: getEnv("ADMIN_PASSWORD", "password"),
		JWTSecret:     getEnv("JWT_SECRET", ""),
		JWTExpiryHrs:  getEnvAsInt("JWT_EXPIRY_HOURS", 24),

		RedisAddr:     getEnv("REDIS_ADDR", ""),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),

		SendGridAPIKey:    getEnv("SENDGRID_API_KEY", ""),
		SendGridFromEmail: getEnv("SENDGRID_FROM_EMAIL", ""),
		SendGridFromName:  getEnv("SENDGRID_FROM_NAME", "Villahermosa Dental Clinic"),

		StaffBookingDuration:  getEnvAsInt("STAFF_BOOKING_DURATION_MINS", 60),
		PublicBookingDuration: getEnvAsInt("PUBLIC_BOOKING_DURATION_MINS", 30),
	}
}

// getEnv retrieves an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvAsInt retrieves an environment variable as an integer or returns a default value
func getEnvAsInt(key string, defaultValue int) int {
	valueStr := getEnv(key, "")
	if value, err := strconv.Atoi(valueStr); err == nil {
		return value
	}
	return defaultValue
}

// getEnvAsSlice retrieves a comma-separated environment variable or returns a default value
func getEnvAsSlice(key string, defaultValue []string) []string {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return defaultValue
	}
	parts := strings.Split(valueStr, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
