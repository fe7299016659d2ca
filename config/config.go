package config

import (
	"log"
	"os"
	"strconv"
	"time"
)

type Config struct {
	Env                string
	Port               string
	MongoURI           string
	DatabaseName       string
	AccessTokenSecret  string
	RefreshTokenSecret string
	AccessTokenTTL     time.Duration
	RefreshTokenTTL    time.Duration
	LoginMaxAttempts   int
	LoginWindow        time.Duration
	RedisAddr          string
	RedisPassword      string
	RedisDB            int
	CookieDomain       string
	AllowedOrigins     string
	GCSBucket          string
	CredentialsFile    string
	AdminEmail         string
	AdminPassword      string
	LogLevel           string
}

func Load() *Config {
	cfg := &Config{
		Env:                getEnv("ENV", "development"),
		Port:               getEnv("PORT", "8080"),
		MongoURI:           mustGetEnv("MONGODB_URI"),
		DatabaseName:       getEnv("DATABASE_NAME", "taskmanager"),
		AccessTokenSecret:  mustGetEnv("JWT_SECRET"),
		RefreshTokenSecret: mustGetEnv("JWT_REFRESH_SECRET"),
		AccessTokenTTL:     time.Duration(getEnvAsInt("ACCESS_TOKEN_TTL_MINUTES", 60)) * time.Minute,
		RefreshTokenTTL:    time.Duration(getEnvAsInt("REFRESH_TOKEN_TTL_DAYS", 7)) * 24 * time.Hour,
		LoginMaxAttempts:   getEnvAsInt("LOGIN_MAX_ATTEMPTS", 5),
		LoginWindow:        time.Duration(getEnvAsInt("LOGIN_WINDOW_MINUTES", 15)) * time.Minute,
		RedisAddr:          getEnv("REDIS_ADDR", ""),
		RedisPassword:      getEnv("REDIS_PASSWORD", ""),
		RedisDB:            getEnvAsInt("REDIS_DB", 0),
		CookieDomain:       getEnv("COOKIE_DOMAIN", ""),
		AllowedOrigins:     getEnv("ALLOWED_ORIGINS", ""),
		GCSBucket:          getEnv("GCS_BUCKET", ""),
		CredentialsFile:    getEnv("CREDENTIALS_FILE_LOCATION", ""),
		AdminEmail:         getEnv("ADMIN_EMAIL", ""),
		AdminPassword:      getEnv("ADMIN_PASSWORD", ""),
		LogLevel:           getEnv("LOG_LEVEL", "info"),
	}

	// Sharing one secret across both token kinds would let a stolen refresh
	// token pass as an access token.
	if cfg.AccessTokenSecret == cfg.RefreshTokenSecret {
		log.Fatal("JWT_SECRET and JWT_REFRESH_SECRET must differ")
	}

	return cfg
}

func (c *Config) IsProduction() bool {
	return c.Env == "production"
}

func getEnv(key string, defaultVal string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultVal
}

func mustGetEnv(key string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	log.Fatalf("Missing required environment variable: %s", key)
	return ""
}

func getEnvAsInt(key string, defaultVal int) int {
	valStr := os.Getenv(key)
	if valStr == "" {
		return defaultVal
	}
	val, err := strconv.Atoi(valStr)
	if err != nil {
		log.Printf("Invalid value for %s, using default %d", key, defaultVal)
		return defaultVal
	}
	return val
}
