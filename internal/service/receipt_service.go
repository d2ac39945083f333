// Package service exposes the derivation engine over a thin HTTP boundary:
// upload in, journal entry out, plus CSV export for the download collaborator.
package service

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"

	"github.com/ledgerlens/backend/internal/derivation"
	"github.com/ledgerlens/backend/internal/export"
	"github.com/ledgerlens/backend/internal/ocr"
)

// maxUploadBytes caps receipt uploads at 10MB.
const maxUploadBytes = 10 << 20

// Recognizer is the OCR collaborator boundary.
type Recognizer interface {
	Recognize(ctx context.Context, data []byte, filename string) (ocr.Result, error)
}

// ReceiptService handles receipt processing requests.
type ReceiptService struct {
	recognizer Recognizer
	deriver    *derivation.Deriver
}

// NewReceiptService creates a receipt service.
func NewReceiptService(recognizer Recognizer, deriver *derivation.Deriver) *ReceiptService {
	return &ReceiptService{
		recognizer: recognizer,
		deriver:    deriver,
	}
}

// RegisterRoutes registers the service's handlers on the mux.
func (s *ReceiptService) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("POST /api/receipts/process", s.handleProcess)
	mux.HandleFunc("POST /api/receipts/export", s.handleExport)
}

// handleProcess accepts a multipart receipt upload, runs OCR and derivation,
// and responds with the journal entry. Internal failure detail is logged but
// never surfaced: the client sees only a generic processing failure.
func (s *ReceiptService) handleProcess(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		http.Error(w, "invalid upload", http.StatusBadRequest)
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		http.Error(w, "missing file field", http.StatusBadRequest)
		return
	}
	defer file.Close()

	data, err := io.ReadAll(io.LimitReader(file, maxUploadBytes))
	if err != nil {
		http.Error(w, "invalid upload", http.StatusBadRequest)
		return
	}

	result, err := s.recognizer.Recognize(r.Context(), data, header.Filename)
	if err != nil {
		log.Printf("[ReceiptService] recognition failed: %v", err)
		http.Error(w, "processing failed", http.StatusBadGateway)
		return
	}

	entry, err := s.deriver.Derive(r.Context(), result)
	if err != nil {
		log.Printf("[ReceiptService] derivation failed: %v", err)
		http.Error(w, "processing failed", http.StatusBadGateway)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(entry); err != nil {
		log.Printf("[ReceiptService] encode response: %v", err)
	}
}

// handleExport serializes a journal entry (as produced by handleProcess)
// into the CSV download format.
func (s *ReceiptService) handleExport(w http.ResponseWriter, r *http.Request) {
	var entry derivation.JournalEntry
	if err := json.NewDecoder(r.Body).Decode(&entry); err != nil {
		http.Error(w, "invalid journal entry", http.StatusBadRequest)
		return
	}

	if err := entry.Validate(); err != nil {
		http.Error(w, "invalid journal entry", http.StatusBadRequest)
		return
	}

	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", exportFilename(&entry)))

	if err := export.WriteCSV(w, &entry); err != nil {
		log.Printf("[ReceiptService] CSV export failed: %v", err)
	}
}

// exportFilename builds a download filename like "journal-JE-9F2C41AB.csv".
func exportFilename(entry *derivation.JournalEntry) string {
	if entry.Reference != "" {
		return "journal-" + entry.Reference + ".csv"
	}
	return "journal-entry.csv"
}
