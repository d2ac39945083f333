package ocr

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestClient_Recognize(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/recognize" {
			t.Errorf("unexpected path %q", r.URL.Path)
		}
		if err := r.ParseMultipartForm(10 << 20); err != nil {
			t.Fatalf("parse multipart: %v", err)
		}
		file, header, err := r.FormFile("file")
		if err != nil {
			t.Fatalf("form file: %v", err)
		}
		defer file.Close()
		if header.Filename != "receipt.jpg" {
			t.Errorf("filename = %q, want receipt.jpg", header.Filename)
		}

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"establishment": "Test Merchant", "total": "25.50", "date": "15/01/2024"}`))
	}))
	defer server.Close()

	client := NewClient(server.URL)
	result, err := client.Recognize(context.Background(), []byte("fake image bytes"), "receipt.jpg")
	if err != nil {
		t.Fatalf("Recognize failed: %v", err)
	}

	if result["establishment"] != "Test Merchant" {
		t.Errorf("establishment = %v, want Test Merchant", result["establishment"])
	}
	if result["total"] != "25.50" {
		t.Errorf("total = %v, want 25.50", result["total"])
	}
}

func TestClient_RecognizeServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "recognition engine offline", http.StatusServiceUnavailable)
	}))
	defer server.Close()

	client := NewClient(server.URL)
	if _, err := client.Recognize(context.Background(), []byte("data"), "receipt.jpg"); err == nil {
		t.Fatal("expected error from non-200 response")
	}
}

func TestClient_RecognizeEmptyBody(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`null`))
	}))
	defer server.Close()

	client := NewClient(server.URL)
	result, err := client.Recognize(context.Background(), []byte("data"), "receipt.jpg")
	if err != nil {
		t.Fatalf("Recognize failed: %v", err)
	}
	if result == nil {
		t.Fatal("result should be an empty map, not nil")
	}
}

func TestClient_HealthCheck(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/health" {
			t.Errorf("unexpected path %q", r.URL.Path)
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"status": "ok", "version": "1.4.2"}`))
	}))
	defer server.Close()

	client := NewClient(server.URL)
	health, err := client.HealthCheck(context.Background())
	if err != nil {
		t.Fatalf("HealthCheck failed: %v", err)
	}
	if health.Status != "ok" {
		t.Errorf("Status = %q, want ok", health.Status)
	}
}

func TestIsPDF(t *testing.T) {
	if !isPDF([]byte("%PDF-1.7 rest of file")) {
		t.Error("PDF magic bytes not detected")
	}
	if isPDF([]byte("\xff\xd8\xff\xe0 jpeg")) {
		t.Error("JPEG misdetected as PDF")
	}
	if isPDF([]byte("%P")) {
		t.Error("short input misdetected as PDF")
	}
}

func TestAnalyzePDF_GarbageInput(t *testing.T) {
	analysis := AnalyzePDF([]byte("%PDF-1.7 not actually a valid pdf body"))
	if analysis.Error == nil {
		t.Error("expected an analysis error for malformed PDF data")
	}
	if !analysis.IsScanned {
		t.Error("malformed PDF should default to scanned")
	}
	if analysis.ExtractedText != "" {
		t.Errorf("ExtractedText = %q, want empty", analysis.ExtractedText)
	}
}

func TestResult_Serialize(t *testing.T) {
	res := Result{"total": "25.50", "establishment": "Test Merchant"}
	serialized := res.Serialize()
	if serialized == "" {
		t.Fatal("serialization should not be empty")
	}
	// Keys are emitted deterministically sorted by encoding/json.
	if serialized != `{"establishment":"Test Merchant","total":"25.50"}` {
		t.Errorf("unexpected serialization: %s", serialized)
	}
}
