package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all runtime configuration for the room service.
type Config struct {
	DatabaseURL  string
	JWTSecretKey string
	ServerPort   int

	// LockWindow is how long before a tournament's start the room
	// stops accepting participant slot changes.
	LockWindow time.Duration

	// R2 credentials for archiving final room snapshots. If the bucket is
	// not configured, archiving is disabled.
	R2AccountID       string
	R2AccessKeyID     string
	R2SecretAccessKey string
	R2BucketName      string
	R2PublicBaseURL   string
}

const defaultLockWindowMinutes = 10

// Load reads configuration from the environment, optionally picking up a
// local .env file first.
func Load() (*Config, error) {
	_ = godotenv.Load()

	dbURL := os.Getenv("DATABASE_URL")
	if dbURL == "" {
		return nil, fmt.Errorf("DATABASE_URL environment variable is not set")
	}

	jwtKey := os.Getenv("JWT_SECRET_KEY")
	if jwtKey == "" {
		return nil, fmt.Errorf("JWT_SECRET_KEY environment variable is not set")
	}

	portStr := os.Getenv("SERVER_PORT")
	if portStr == "" {
		portStr = "8080"
	}
	port, err := strconv.Atoi(portStr)
	if err != nil {
		return nil, fmt.Errorf("invalid SERVER_PORT environment variable: %w", err)
	}
	if port <= 0 || port > 65535 {
		return nil, fmt.Errorf("SERVER_PORT must be between 1 and 65535, got %d", port)
	}

	lockMinutes := defaultLockWindowMinutes
	if v := os.Getenv("ROOM_LOCK_WINDOW_MINUTES"); v != "" {
		lockMinutes, err = strconv.Atoi(v)
		if err != nil {
			return nil, fmt.Errorf("invalid ROOM_LOCK_WINDOW_MINUTES environment variable: %w", err)
		}
		if lockMinutes <= 0 {
			return nil, fmt.Errorf("ROOM_LOCK_WINDOW_MINUTES must be positive, got %d", lockMinutes)
		}
	}

	cfg := &Config{
		DatabaseURL:       dbURL,
		JWTSecretKey:      jwtKey,
		ServerPort:        port,
		LockWindow:        time.Duration(lockMinutes) * time.Minute,
		R2AccountID:       os.Getenv("R2_ACCOUNT_ID"),
		R2AccessKeyID:     os.Getenv("R2_ACCESS_KEY_ID"),
		R2SecretAccessKey: os.Getenv("R2_SECRET_ACCESS_KEY"),
		R2BucketName:      os.Getenv("R2_BUCKET_NAME"),
		R2PublicBaseURL:   os.Getenv("R2_PUBLIC_BASE_URL"),
	}

	return cfg, nil
}

// ArchivingEnabled reports whether the R2 snapshot archiver is configured.
func (c *Config) ArchivingEnabled() bool {
	return c.R2AccountID != "" && c.R2AccessKeyID != "" && c.R2SecretAccessKey != "" && c.R2BucketName != ""
}
