// File: /config/config.go
package config

import (
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// MinBcryptCost is the lowest work factor accepted for password hashes.
const MinBcryptCost = 12

type Config struct {
	Port        string
	GinMode     string
	DBDriver    string
	DatabaseURL string
	JWTSecret   string
	JWTExpiry   time.Duration
	BcryptCost  int
	FrontendURL string
	CORSOrigins []string

	GoogleClientID     string
	GoogleTokenInfoURL string

	// Email Configuration
	SMTPHost     string
	SMTPPort     int
	SMTPUsername string
	SMTPPassword string
	FromEmail    string
	FromName     string

	Storage StorageConfig

	RateLimitPerMinute int
	RateLimitBurst     int

	SeedData      bool
	AdminEmail    string
	AdminPassword string
}

// StorageConfig points at an S3-compatible bucket.
type StorageConfig struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	Bucket    string
	Region    string
	UseSSL    bool
	PublicURL string
}

func Load() *Config {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, reading configuration from environment")
	}

	smtpPort, _ := strconv.Atoi(getEnv("SMTP_PORT", "2525"))
	expiry, err := time.ParseDuration(getEnv("JWT_EXPIRY", "24h"))
	if err != nil {
		log.Printf("Invalid JWT_EXPIRY, falling back to 24h: %v", err)
		expiry = 24 * time.Hour
	}
	cost, _ := strconv.Atoi(getEnv("BCRYPT_COST", strconv.Itoa(MinBcryptCost)))
	if cost < MinBcryptCost {
		cost = MinBcryptCost
	}
	perMinute, _ := strconv.Atoi(getEnv("RATE_LIMIT_PER_MINUTE", "60"))
	burst, _ := strconv.Atoi(getEnv("RATE_LIMIT_BURST", "10"))
	if perMinute < 1 {
		perMinute = 60
	}
	if burst < 1 {
		burst = 10
	}

	endpoint := getEnv("STORAGE_ENDPOINT", "localhost:9000")
	useSSL := getEnvBool("STORAGE_USE_SSL", false)
	bucket := getEnv("STORAGE_BUCKET", "campus-events")
	scheme := "http"
	if useSSL {
		scheme = "https"
	}

	return &Config{
		Port:        getEnv("PORT", "8080"),
		GinMode:     getEnv("GIN_MODE", "debug"),
		DBDriver:    getEnv("DB_DRIVER", "mysql"),
		DatabaseURL: getEnv("DATABASE_URL", "user:password@tcp(localhost:3306)/campus_events?charset=utf8mb4&parseTime=True&loc=UTC"),
		JWTSecret:   getEnv("JWT_SECRET", "your-secret-key"),
		JWTExpiry:   expiry,
		BcryptCost:  cost,
		FrontendURL: strings.TrimRight(getEnv("FRONTEND_URL", "http://localhost:3000"), "/"),
		CORSOrigins: splitList(getEnv("CORS_ORIGINS", "http://localhost:3000")),

		GoogleClientID:     getEnv("GOOGLE_CLIENT_ID", ""),
		GoogleTokenInfoURL: getEnv("GOOGLE_TOKENINFO_URL", "https://oauth2.googleapis.com/tokeninfo"),

		// Email settings
		SMTPHost:     getEnv("SMTP_HOST", "sandbox.smtp.mailtrap.io"),
		SMTPPort:     smtpPort,
		SMTPUsername: getEnv("SMTP_USERNAME", ""),
		SMTPPassword: getEnv("SMTP_PASSWORD", ""),
		FromEmail:    getEnv("FROM_EMAIL", "noreply@campusevents.local"),
		FromName:     getEnv("FROM_NAME", "Campus Events"),

		Storage: StorageConfig{
			Endpoint:  endpoint,
			AccessKey: getEnv("STORAGE_ACCESS_KEY", "minioadmin"),
			SecretKey: getEnv("STORAGE_SECRET_KEY", "minioadmin"),
			Bucket:    bucket,
			Region:    getEnv("STORAGE_REGION", "us-east-1"),
			UseSSL:    useSSL,
			PublicURL: strings.TrimRight(getEnv("STORAGE_PUBLIC_URL", scheme+"://"+endpoint+"/"+bucket), "/"),
		},

		RateLimitPerMinute: perMinute,
		RateLimitBurst:     burst,

		SeedData:      getEnvBool("SEED_DATA", false),
		AdminEmail:    getEnv("ADMIN_EMAIL", ""),
		AdminPassword: getEnv("ADMIN_PASSWORD", ""),
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	value, err := strconv.ParseBool(os.Getenv(key))
	if err != nil {
		return defaultValue
	}
	return value
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
