package ocr

import (
	"bytes"
	"fmt"
	"io"
	"log"
	"strings"

	"github.com/ledongthuc/pdf"
)

const (
	maxTextBytes     = 100 * 1024 // 100KB cap for extracted text
	scannedThreshold = 50         // chars per page below which PDF is considered scanned
)

// PDFAnalysis contains the results of pre-processing a PDF document.
type PDFAnalysis struct {
	PageCount     int
	ExtractedText string
	IsScanned     bool
	Error         error
}

// AnalyzePDF extracts the text layer and page count from a PDF.
// It is wrapped in recover() and never panics or blocks recognition.
// On any error, it returns conservative defaults (scanned, no text).
func AnalyzePDF(data []byte) (result *PDFAnalysis) {
	result = &PDFAnalysis{
		PageCount: 1,
		IsScanned: true,
	}

	defer func() {
		if r := recover(); r != nil {
			log.Printf("[pdf-preprocessor] recovered from panic: %v", r)
			result.Error = fmt.Errorf("panic during PDF analysis: %v", r)
			result.IsScanned = true
		}
	}()

	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		result.Error = fmt.Errorf("open PDF reader: %w", err)
		return result
	}

	result.PageCount = reader.NumPage()
	if result.PageCount < 1 {
		result.PageCount = 1
	}

	plainText, err := reader.GetPlainText()
	if err != nil {
		result.Error = fmt.Errorf("extract plain text: %w", err)
		return result
	}

	textBytes, err := io.ReadAll(io.LimitReader(plainText, int64(maxTextBytes)))
	if err != nil {
		result.Error = fmt.Errorf("read plain text: %w", err)
		return result
	}

	result.ExtractedText = strings.TrimSpace(string(textBytes))
	result.IsScanned = isLikelyScanned(result.ExtractedText, result.PageCount)

	return result
}

// isLikelyScanned reports whether the PDF is probably a scanned image
// (little or no text layer relative to page count).
func isLikelyScanned(text string, pageCount int) bool {
	if pageCount < 1 {
		pageCount = 1
	}
	return len(text)/pageCount < scannedThreshold
}
