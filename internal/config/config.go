package config

import (
	"errors"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
)

var AppEnv Config

type Config struct {
	Port              string
	MongoURI          string
	DBName            string
	JWTSecret         string
	RequestTimeout    time.Duration
	LogLevel          string
	LogFormat         string
	CORSOrigins       []string
	MongoTransactions bool

	// Checkout policy.
	RestockOnCancel       bool
	CheckoutLockTTL       time.Duration
	DeliveryFee           float64
	FreeDeliveryThreshold float64
}

func Load() {
	if err := godotenv.Load(); err != nil {
		log.Info().Err(err).Msg(".env not loaded")
	}
	AppEnv = FromEnv()
}

// FromEnv reads the process environment without touching .env files.
func FromEnv() Config {
	return Config{
		Port:                  getEnvOrDefault("PORT", "8080"),
		MongoURI:              getEnvOrDefault("MONGO_URI", ""),
		DBName:                getEnvOrDefault("DB_NAME", "storefront"),
		JWTSecret:             getEnvOrDefault("JWT_SECRET", ""),
		RequestTimeout:        getDurationEnv("REQUEST_TIMEOUT_SECONDS", 5, time.Second),
		LogLevel:              getEnvOrDefault("LOG_LEVEL", "info"),
		LogFormat:             getEnvOrDefault("LOG_FORMAT", "json"),
		CORSOrigins:           getListEnv("CORS_ORIGINS", []string{"*"}),
		MongoTransactions:     getBoolEnv("MONGO_TRANSACTIONS", false),
		RestockOnCancel:       getBoolEnv("RESTOCK_ON_CANCEL", false),
		CheckoutLockTTL:       getDurationEnv("CHECKOUT_LOCK_TTL_SECONDS", 30, time.Second),
		DeliveryFee:           getFloatEnv("DELIVERY_FEE", 0),
		FreeDeliveryThreshold: getFloatEnv("FREE_DELIVERY_THRESHOLD", 0),
	}
}

func (c Config) Validate() error {
	var errs []error
	if c.MongoURI == "" {
		errs = append(errs, errors.New("MONGO_URI is required"))
	}
	if c.JWTSecret == "" {
		errs = append(errs, errors.New("JWT_SECRET is required"))
	}
	if c.DeliveryFee < 0 {
		errs = append(errs, errors.New("DELIVERY_FEE must be zero or greater"))
	}
	return errors.Join(errs...)
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := strings.TrimSpace(os.Getenv(key)); value != "" {
		return value
	}
	return defaultValue
}

func getDurationEnv(key string, defaultValue int, unit time.Duration) time.Duration {
	if value := strings.TrimSpace(os.Getenv(key)); value != "" {
		if parsed, err := strconv.Atoi(value); err == nil && parsed > 0 {
			return time.Duration(parsed) * unit
		}
	}
	return time.Duration(defaultValue) * unit
}

func getBoolEnv(key string, defaultValue bool) bool {
	if value := strings.TrimSpace(os.Getenv(key)); value != "" {
		if parsed, err := strconv.ParseBool(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}

func getFloatEnv(key string, defaultValue float64) float64 {
	if value := strings.TrimSpace(os.Getenv(key)); value != "" {
		if parsed, err := strconv.ParseFloat(value, 64); err == nil {
			return parsed
		}
	}
	return defaultValue
}

func getListEnv(key string, defaultValue []string) []string {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return defaultValue
	}
	out := make([]string, 0)
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	if len(out) == 0 {
		return defaultValue
	}
	return out
}
