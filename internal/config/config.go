package config

import (
	"errors"
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	BackendSQLite    = "sqlite"
	BackendFirestore = "firestore"
)

type Config struct {
	HTTPPort  string
	LogLevel  string
	LogFormat string

	StoreBackend             string
	DatabaseURL              string
	FirestoreProjectID       string
	FirestoreCredentialsFile string

	GeminiAPIKey string
	StripeKey    string
	DeployURL    string

	JWTSecret  string
	TokenTTL   time.Duration
	BcryptCost int
}

// Load reads an optional .env file and then the process environment.
func Load() Config {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, relying on environment variables")
	}

	return Config{
		HTTPPort:  getEnv("HTTP_PORT", "8000"),
		LogLevel:  getEnv("LOG_LEVEL", "INFO"),
		LogFormat: getEnv("LOG_FORMAT", "json"),

		StoreBackend:             strings.ToLower(getEnv("STORE_BACKEND", BackendSQLite)),
		DatabaseURL:              getEnv("DATABASE_URL", "marketplace.db"),
		FirestoreProjectID:       getEnv("FIRESTORE_PROJECT_ID", ""),
		FirestoreCredentialsFile: getEnv("FIRESTORE_CREDENTIALS_FILE", ""),

		GeminiAPIKey: getEnv("GEMINI_API_KEY", ""),
		StripeKey:    getEnv("STRIPE_KEY", ""),
		DeployURL:    strings.TrimRight(getEnv("DEPLOY_URL", "http://localhost:8000"), "/"),

		JWTSecret:  getEnv("JWT_SECRET", ""),
		TokenTTL:   getEnvAsDuration("TOKEN_TTL", 2*time.Hour),
		BcryptCost: getEnvAsInt("BCRYPT_COST", 10),
	}
}

// Validate reports settings the server cannot start without. The model and
// processor keys are optional: the matching endpoints fail upstream instead.
func (c Config) Validate() error {
	var errs []error
	if c.JWTSecret == "" {
		errs = append(errs, errors.New("JWT_SECRET environment variable is required"))
	}
	switch c.StoreBackend {
	case BackendSQLite:
		if c.DatabaseURL == "" {
			errs = append(errs, errors.New("DATABASE_URL is required for the sqlite backend"))
		}
	case BackendFirestore:
		if c.FirestoreProjectID == "" {
			errs = append(errs, errors.New("FIRESTORE_PROJECT_ID is required for the firestore backend"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown STORE_BACKEND %q", c.StoreBackend))
	}
	if c.TokenTTL <= 0 {
		errs = append(errs, errors.New("TOKEN_TTL must be positive"))
	}
	return errors.Join(errs...)
}

func getEnv(key string, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := getEnv(key, "")
	if value, err := strconv.Atoi(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	valueStr := getEnv(key, "")
	if value, err := time.ParseDuration(valueStr); err == nil {
		return value
	}
	return defaultValue
}
