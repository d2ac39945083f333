package main

import (
	"fmt"
	"log"
	"net/http"

	"github.com/rs/cors"
	"golang.org/x/net/http2"
	"golang.org/x/net/http2/h2c"

	"github.com/ledgerlens/backend/internal/config"
	"github.com/ledgerlens/backend/internal/derivation"
	"github.com/ledgerlens/backend/internal/ocr"
	"github.com/ledgerlens/backend/internal/service"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	rules := derivation.DefaultRules()
	if cfg.ClassifierRulesPath != "" {
		rules, err = derivation.LoadRules(cfg.ClassifierRulesPath)
		if err != nil {
			log.Fatalf("Failed to load classifier rules: %v", err)
		}
		log.Printf("Loaded %d classifier rules from %s", len(rules), cfg.ClassifierRulesPath)
	}

	if cfg.ModelAPIKey == "" {
		log.Println("GEMINI_API_KEY not set - generative derivation disabled, using deterministic fallback only")
	}

	ocrClient := ocr.NewClient(cfg.OCRServiceURL)
	deriver := derivation.NewDeriver(derivation.Options{
		ModelAPIKey:     cfg.ModelAPIKey,
		VATStandardRate: cfg.VATStandardRate,
		DefaultAmount:   cfg.DefaultAmount,
		Rules:           rules,
		ModelTimeout:    cfg.ModelTimeout,
	})

	receiptService := service.NewReceiptService(ocrClient, deriver)

	mux := http.NewServeMux()
	receiptService.RegisterRoutes(mux)

	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})

	c := cors.New(cors.Options{
		AllowedOrigins: []string{
			"http://localhost:1234", // Local frontend
			"http://127.0.0.1:1234", // Alternative local
		},
		AllowedMethods: []string{
			http.MethodGet,
			http.MethodPost,
			http.MethodOptions,
		},
		AllowedHeaders: []string{
			"Accept",
			"Content-Type",
			"User-Agent",
		},
	})

	handler := c.Handler(mux)

	srv := &http.Server{
		Addr:    fmt.Sprintf(":%s", cfg.Port),
		Handler: h2c.NewHandler(handler, &http2.Server{}),
	}

	log.Printf("Starting server on port %s", cfg.Port)
	if err := srv.ListenAndServe(); err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}
}
