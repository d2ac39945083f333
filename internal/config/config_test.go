package config

import (
	"testing"
	"time"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"PORT", "OCR_SERVICE_URL", "GEMINI_API_KEY",
		"VAT_STANDARD_RATE", "DEFAULT_AMOUNT",
		"CLASSIFIER_RULES_PATH", "MODEL_TIMEOUT_SECONDS",
	} {
		t.Setenv(key, "")
	}
}

func TestLoad_Defaults(t *testing.T) {
	clearEnv(t)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.Port != "8111" {
		t.Errorf("Port = %q, want 8111", cfg.Port)
	}
	if cfg.OCRServiceURL != "http://localhost:8090" {
		t.Errorf("OCRServiceURL = %q", cfg.OCRServiceURL)
	}
	if cfg.VATStandardRate != 0.19 {
		t.Errorf("VATStandardRate = %v, want 0.19", cfg.VATStandardRate)
	}
	if cfg.DefaultAmount != 10.00 {
		t.Errorf("DefaultAmount = %v, want 10.00", cfg.DefaultAmount)
	}
	if cfg.ModelTimeout != 30*time.Second {
		t.Errorf("ModelTimeout = %v, want 30s", cfg.ModelTimeout)
	}
	if cfg.ModelAPIKey != "" {
		t.Errorf("ModelAPIKey = %q, want empty", cfg.ModelAPIKey)
	}
}

func TestLoad_Overrides(t *testing.T) {
	clearEnv(t)
	t.Setenv("PORT", "9000")
	t.Setenv("GEMINI_API_KEY", "key-123")
	t.Setenv("VAT_STANDARD_RATE", "0.20")
	t.Setenv("DEFAULT_AMOUNT", "5.00")
	t.Setenv("MODEL_TIMEOUT_SECONDS", "2.5")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.Port != "9000" {
		t.Errorf("Port = %q, want 9000", cfg.Port)
	}
	if cfg.ModelAPIKey != "key-123" {
		t.Errorf("ModelAPIKey = %q", cfg.ModelAPIKey)
	}
	if cfg.VATStandardRate != 0.20 {
		t.Errorf("VATStandardRate = %v, want 0.20", cfg.VATStandardRate)
	}
	if cfg.DefaultAmount != 5.00 {
		t.Errorf("DefaultAmount = %v, want 5.00", cfg.DefaultAmount)
	}
	if cfg.ModelTimeout != 2500*time.Millisecond {
		t.Errorf("ModelTimeout = %v, want 2.5s", cfg.ModelTimeout)
	}
}

func TestLoad_InvalidValues(t *testing.T) {
	tests := []struct {
		name  string
		key   string
		value string
	}{
		{"non-numeric rate", "VAT_STANDARD_RATE", "nineteen"},
		{"rate out of range", "VAT_STANDARD_RATE", "1.5"},
		{"negative rate", "VAT_STANDARD_RATE", "-0.1"},
		{"non-numeric amount", "DEFAULT_AMOUNT", "ten"},
		{"non-numeric timeout", "MODEL_TIMEOUT_SECONDS", "soon"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			clearEnv(t)
			t.Setenv(tc.key, tc.value)
			if _, err := Load(); err == nil {
				t.Fatalf("expected Load to reject %s=%q", tc.key, tc.value)
			}
		})
	}
}
