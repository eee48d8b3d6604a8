package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	StoreFirestore = "firestore"
	StoreSQLite    = "sqlite"

	minJWTSecretLength = 32
)

type Config struct {
	ServerPort    string
	Environment   string
	LogLevel      string
	ClientURLs    []string
	JWTSecret     string
	JWTExpiry     time.Duration
	StoreDriver   string
	SQLiteDSN     string
	UploadDir     string
	StorageBucket string

	FirebaseProject         string
	FirebaseCredentialsFile string
}

// Load reads the configuration from the environment, optionally seeded by a
// .env file. Secrets and endpoints have no defaults: a missing value fails
// startup.
func Load() (*Config, error) {
	_ = godotenv.Load()

	var missing []string
	required := func(key string) string {
		value := strings.TrimSpace(os.Getenv(key))
		if value == "" {
			missing = append(missing, key)
		}
		return value
	}

	config := &Config{
		ServerPort:              required("PORT"),
		JWTSecret:               required("JWT_SECRET"),
		ClientURLs:              splitList(required("CLIENT_URL")),
		StoreDriver:             strings.ToLower(required("STORE_DRIVER")),
		Environment:             getEnv("ENVIRONMENT", "development"),
		LogLevel:                getEnv("LOG_LEVEL", "info"),
		JWTExpiry:               time.Duration(getEnvAsInt64("JWT_EXPIRY_HOURS", 7*24)) * time.Hour,
		UploadDir:               getEnv("UPLOAD_DIR", "./uploads"),
		StorageBucket:           getEnv("STORAGE_BUCKET", ""),
		FirebaseCredentialsFile: getEnv("FIREBASE_CREDENTIALS_FILE", ""),
	}

	switch config.StoreDriver {
	case StoreFirestore:
		config.FirebaseProject = required("FIREBASE_PROJECT_ID")
	case StoreSQLite:
		config.SQLiteDSN = required("SQLITE_DSN")
	case "":
	default:
		return nil, fmt.Errorf("config: unsupported STORE_DRIVER %q", config.StoreDriver)
	}

	if len(missing) > 0 {
		return nil, fmt.Errorf("config: missing required environment variables: %s", strings.Join(missing, ", "))
	}

	if len(config.JWTSecret) < minJWTSecretLength {
		return nil, errors.New("config: JWT_SECRET must be at least 32 bytes")
	}

	return config, nil
}

func (c *Config) IsDevelopment() bool {
	return c.Environment == "development"
}

func getEnv(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists && value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt64(key string, defaultValue int64) int64 {
	if value, exists := os.LookupEnv(key); exists {
		intValue, err := strconv.ParseInt(value, 10, 64)
		if err == nil && intValue > 0 {
			return intValue
		}
	}
	return defaultValue
}

func splitList(value string) []string {
	var out []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
