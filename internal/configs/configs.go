package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
)

type Config struct {
	AppURL                      string
	DatabaseDSN                 string
	RedisAddr                   string
	RedisKeyPrefix              string
	RateLimit                   int
	ShutdownTimeoutSeconds      int
	JWTSigningKey               string
	SessionTTLHours             int
	PrimaryAdminEmail           string
	PrimaryAdminPassword        string
	PrimaryAdminName            string
	CleanupIntervalDays         int
	AutoReleaseHours            int
	ReleaseCheckIntervalMinutes int
}

func Load() Config {
	appHost := getEnv("APP_HOST", "127.0.0.1")
	appPort := getEnv("APP_PORT", "8080")
	redisHost := getEnv("REDIS_HOST", "127.0.0.1")
	redisPort := getEnv("REDIS_PORT", "6379")

	if _, err := strconv.Atoi(appPort); err != nil {
		log.Fatalf("APP_PORT must be a port number, got %q", appPort)
	}

	cfg := Config{
		AppURL:                      fmt.Sprintf("%s:%s", appHost, appPort),
		DatabaseDSN:                 getEnv("DATABASE_DSN", "taskboard.db"),
		RedisAddr:                   fmt.Sprintf("%s:%s", redisHost, redisPort),
		RedisKeyPrefix:              getEnv("REDIS_KEY_PREFIX", "taskboard:"),
		RateLimit:                   getEnvAsInt("RATE_LIMIT_PER_MINUTE", 60),
		ShutdownTimeoutSeconds:      getEnvAsInt("SHUTDOWN_TIMEOUT_SECONDS", 20),
		JWTSigningKey:               getEnv("JWT_SIGNING_KEY", ""),
		SessionTTLHours:             getEnvAsInt("SESSION_TTL_HOURS", 24),
		PrimaryAdminEmail:           getEnv("PRIMARY_ADMIN_EMAIL", ""),
		PrimaryAdminPassword:        getEnv("PRIMARY_ADMIN_PASSWORD", ""),
		PrimaryAdminName:            getEnv("PRIMARY_ADMIN_NAME", "Administrador"),
		CleanupIntervalDays:         getEnvAsInt("CLEANUP_INTERVAL_DAYS", 20),
		AutoReleaseHours:            getEnvAsInt("AUTO_RELEASE_HOURS", 24),
		ReleaseCheckIntervalMinutes: getEnvAsInt("RELEASE_CHECK_INTERVAL_MINUTES", 60),
	}

	validate(cfg)
	return cfg
}

func validate(cfg Config) {
	if cfg.DatabaseDSN == "" {
		log.Fatal("DATABASE_DSN must not be empty")
	}
	if cfg.RateLimit <= 0 {
		log.Fatal("RATE_LIMIT_PER_MINUTE must be greater than 0")
	}
	if cfg.JWTSigningKey == "" {
		log.Fatal("JWT_SIGNING_KEY must not be empty")
	}
	if cfg.SessionTTLHours <= 0 {
		log.Fatal("SESSION_TTL_HOURS must be greater than 0")
	}
	if cfg.PrimaryAdminEmail == "" {
		log.Fatal("PRIMARY_ADMIN_EMAIL must not be empty")
	}
	if cfg.PrimaryAdminPassword == "" {
		log.Fatal("PRIMARY_ADMIN_PASSWORD must not be empty")
	}
	if cfg.CleanupIntervalDays <= 0 {
		log.Fatal("CLEANUP_INTERVAL_DAYS must be greater than 0")
	}
	if cfg.AutoReleaseHours <= 0 {
		log.Fatal("AUTO_RELEASE_HOURS must be greater than 0")
	}
	if cfg.ReleaseCheckIntervalMinutes <= 0 {
		log.Fatal("RELEASE_CHECK_INTERVAL_MINUTES must be greater than 0")
	}
}

func getEnv(key, defaultVal string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultVal
}

func getEnvAsInt(key string, defaultVal int) int {
	if v := os.Getenv(key); v != "" {
		i, err := strconv.Atoi(v)
		if err != nil {
			log.Fatalf("invalid integer value for %s", key)
		}
		return i
	}
	return defaultVal
}
