// Package config loads process-wide configuration from environment variables
// and an optional .env file. Configuration is immutable after load.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config represents the application configuration.
type Config struct {
	// Port the HTTP server listens on.
	Port string
	// OCRServiceURL is the base URL of the external OCR vendor.
	OCRServiceURL string
	// ModelAPIKey enables the generative derivation path when set.
	ModelAPIKey string
	// VATStandardRate is the single configured VAT regime's standard rate.
	VATStandardRate float64
	// DefaultAmount is substituted when no amount is extractable.
	DefaultAmount float64
	// ClassifierRulesPath optionally points at a YAML rule table.
	ClassifierRulesPath string
	// ModelTimeout bounds the generative model round trip.
	ModelTimeout time.Duration
}

// Load loads configuration from environment variables. A .env file in the
// current directory is honored when present.
func Load() (*Config, error) {
	_ = godotenv.Load()

	vatRate, err := parseFloatEnv("VAT_STANDARD_RATE", 0.19)
	if err != nil {
		return nil, fmt.Errorf("invalid VAT_STANDARD_RATE: %w", err)
	}
	if vatRate < 0 || vatRate >= 1 {
		return nil, fmt.Errorf("VAT_STANDARD_RATE %g out of range [0, 1)", vatRate)
	}

	defaultAmount, err := parseFloatEnv("DEFAULT_AMOUNT", 10.00)
	if err != nil {
		return nil, fmt.Errorf("invalid DEFAULT_AMOUNT: %w", err)
	}

	timeoutSeconds, err := parseFloatEnv("MODEL_TIMEOUT_SECONDS", 30)
	if err != nil {
		return nil, fmt.Errorf("invalid MODEL_TIMEOUT_SECONDS: %w", err)
	}

	return &Config{
		Port:                getEnvOrDefault("PORT", "8111"),
		OCRServiceURL:       getEnvOrDefault("OCR_SERVICE_URL", "http://localhost:8090"),
		ModelAPIKey:         os.Getenv("GEMINI_API_KEY"),
		VATStandardRate:     vatRate,
		DefaultAmount:       defaultAmount,
		ClassifierRulesPath: os.Getenv("CLASSIFIER_RULES_PATH"),
		ModelTimeout:        time.Duration(timeoutSeconds * float64(time.Second)),
	}, nil
}

func getEnvOrDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func parseFloatEnv(key string, fallback float64) (float64, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	return strconv.ParseFloat(v, 64)
}
