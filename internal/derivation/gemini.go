package derivation

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/ledgerlens/backend/internal/ocr"
)

const defaultGeminiBaseURL = "https://generativelanguage.googleapis.com/v1beta"

// GenerativeDeriver derives journal entries by asking a generative text model
// to produce the target structure directly. It either returns a parsed,
// schema-valid, balanced entry or fails closed — it never fabricates a
// plausible-looking but unvalidated entry.
type GenerativeDeriver struct {
	apiKey      string
	httpClient  *http.Client
	baseURL     string
	vatRate     float64
	RetryConfig RetryConfig
}

// NewGenerativeDeriver creates a Gemini-backed deriver. The standard VAT
// rate is embedded in the prompt's conservative VAT rule.
func NewGenerativeDeriver(apiKey string, vatRate float64) *GenerativeDeriver {
	return &GenerativeDeriver{
		apiKey: apiKey,
		httpClient: &http.Client{
			Timeout: 60 * time.Second,
		},
		baseURL:     defaultGeminiBaseURL,
		vatRate:     vatRate,
		RetryConfig: DefaultModelRetryConfig,
	}
}

// Available returns true if the model API is configured.
func (g *GenerativeDeriver) Available() bool {
	return g.apiKey != ""
}

// Derive serializes the OCR result into a structured-output request and
// parses the model's response into a journal entry. Fails with a
// DerivationError on transport failure, non-success response, or output
// that survives none of the recovery stages.
func (g *GenerativeDeriver) Derive(ctx context.Context, res ocr.Result) (*JournalEntry, error) {
	if !g.Available() {
		return nil, &DerivationError{
			Code:    ErrModelUnavailable,
			Message: "model API key not configured",
			Stage:   "transport",
		}
	}

	prompt := buildJournalPrompt(res.Serialize(), g.vatRate)

	text, err := WithRetry(ctx, g.RetryConfig, func(ctx context.Context) (string, error) {
		return g.callModel(ctx, prompt)
	})
	if err != nil {
		return nil, err
	}

	entry, err := decodeEntry(text)
	if err != nil {
		return nil, err
	}

	return entry, nil
}

// buildJournalPrompt builds the instruction carrying the OCR payload, the
// exact output schema, the conservative VAT rule and the balance requirement.
func buildJournalPrompt(serialized string, vatRate float64) string {
	return fmt.Sprintf(`You are an accounting assistant. Convert the OCR output of a receipt or invoice into a double-entry journal entry.

Return ONLY a valid JSON object with this exact structure (camelCase keys):
{
  "date": "YYYY-MM-DD",
  "merchant": "merchant name",
  "description": "short description of the purchase",
  "reference": "free-form reference",
  "entries": [
    {"type": "debit", "account": "expense account", "amount": 0.00, "description": "..."},
    {"type": "credit", "account": "Cash/Bank Account", "amount": 0.00, "description": "..."}
  ],
  "lineItems": [
    {"description": "...", "quantity": 1, "unitPrice": 0.00, "total": 0.00, "vatRate": 0.00, "category": "..."}
  ],
  "vatBreakdown": {"netAmount": 0.00, "vatAmount": 0.00, "grossAmount": 0.00, "vatRate": 0.00},
  "totalDebit": 0.00,
  "totalCredit": 0.00
}

Rules:
- The sum of debit amounts MUST equal the sum of credit amounts, and both must equal totalDebit and totalCredit.
- Do NOT assume a VAT or tax rate unless the source text explicitly mentions VAT, tax, or a percentage. If no tax is shown, set vatAmount to 0 and vatRate to 0. The standard rate, when explicitly shown, is %s.
- Use one debit line per expense category and one credit line against "Cash/Bank Account".
- Include at least one lineItems entry describing what was purchased.
- Express all amounts as positive numbers with at most 2 decimal places.
- If the date is ambiguous, prefer day/month/year order.

OCR output:
%s`, ratePercent(vatRate), serialized)
}

// callModel calls the Gemini API with a text prompt and returns the raw
// response text.
func (g *GenerativeDeriver) callModel(ctx context.Context, prompt string) (string, error) {
	url := fmt.Sprintf("%s/models/gemini-2.0-flash:generateContent?key=%s", g.baseURL, g.apiKey)

	reqBody := map[string]any{
		"contents": []map[string]any{
			{
				"parts": []map[string]any{
					{"text": prompt},
				},
			},
		},
		"generationConfig": map[string]any{
			"temperature":      0.1,
			"maxOutputTokens":  4096,
			"responseMimeType": "application/json",
		},
	}

	bodyBytes, err := json.Marshal(reqBody)
	if err != nil {
		return "", fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(bodyBytes))
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := g.httpClient.Do(req)
	if err != nil {
		return "", classifyModelError(err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return "", classifyModelHTTPError(resp.StatusCode, string(respBody))
	}

	var modelResp struct {
		Candidates []struct {
			Content struct {
				Parts []struct {
					Text string `json:"text"`
				} `json:"parts"`
			} `json:"content"`
		} `json:"candidates"`
	}
	if err := json.Unmarshal(respBody, &modelResp); err != nil {
		return "", fmt.Errorf("parse model response: %w", err)
	}

	if len(modelResp.Candidates) == 0 || len(modelResp.Candidates[0].Content.Parts) == 0 {
		return "", &DerivationError{
			Code:    ErrGenerationFailed,
			Message: "empty model response",
			Stage:   "decode",
		}
	}

	return modelResp.Candidates[0].Content.Parts[0].Text, nil
}

// classifyModelError converts network errors to DerivationErrors.
func classifyModelError(err error) *DerivationError {
	return &DerivationError{
		Code:      ErrModelUnavailable,
		Message:   "model API request failed",
		Stage:     "transport",
		Retryable: true,
		Cause:     err,
	}
}

// classifyModelHTTPError converts HTTP errors to DerivationErrors.
func classifyModelHTTPError(statusCode int, body string) *DerivationError {
	if statusCode == http.StatusTooManyRequests {
		return &DerivationError{
			Code:      ErrModelRateLimited,
			Message:   "model API rate limited",
			Stage:     "transport",
			Retryable: true,
		}
	}
	return &DerivationError{
		Code:      ErrModelUnavailable,
		Message:   fmt.Sprintf("model API error (HTTP %d): %s", statusCode, body),
		Stage:     "transport",
		Retryable: statusCode >= 500,
	}
}

// decodeEntry parses the model's free-text response into a journal entry,
// attempting recovery stages in order until one yields a schema-valid,
// balanced entry: (1) the raw response as-is, (2) the response with prose
// fencing stripped, (3) the outermost matching-brace span. Exhausting all
// stages fails closed.
func decodeEntry(text string) (*JournalEntry, error) {
	candidates := []string{text}
	if stripped := stripFencing(text); stripped != text {
		candidates = append(candidates, stripped)
	}
	if span, ok := braceSpan(text); ok {
		candidates = append(candidates, span)
	}

	var lastErr error
	for _, candidate := range candidates {
		entry, err := parseEntryJSON(candidate)
		if err == nil {
			return entry, nil
		}
		lastErr = err
	}

	return nil, &DerivationError{
		Code:    ErrGenerationFailed,
		Message: "model output survived no recovery stage",
		Stage:   "decode",
		Cause:   lastErr,
	}
}

// parseEntryJSON validates one candidate payload against the schema, decodes
// it, and checks the entry invariants.
func parseEntryJSON(candidate string) (*JournalEntry, error) {
	data := []byte(strings.TrimSpace(candidate))
	if len(data) == 0 {
		return nil, fmt.Errorf("empty candidate")
	}

	if err := validateEntryJSON(data); err != nil {
		return nil, err
	}

	var entry JournalEntry
	if err := json.Unmarshal(data, &entry); err != nil {
		return nil, fmt.Errorf("unmarshal entry: %w", err)
	}
	if err := entry.Validate(); err != nil {
		return nil, err
	}

	return &entry, nil
}

// stripFencing removes common prose wrappers around an embedded JSON payload:
// markdown code fences and leading/trailing commentary lines.
func stripFencing(text string) string {
	text = strings.TrimSpace(text)
	if idx := strings.Index(text, "```"); idx != -1 {
		text = text[idx:]
		text = strings.TrimPrefix(text, "```json")
		text = strings.TrimPrefix(text, "```")
		if end := strings.Index(text, "```"); end != -1 {
			text = text[:end]
		}
	}
	return strings.TrimSpace(text)
}

// braceSpan locates the outermost matching-brace substring in the text.
func braceSpan(text string) (string, bool) {
	start := -1
	depth := 0
	inString := false
	escaped := false

	for i, c := range text {
		if inString {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inString = false
			}
			continue
		}
		switch c {
		case '"':
			if start != -1 {
				inString = true
			}
		case '{':
			if start == -1 {
				start = i
			}
			depth++
		case '}':
			if start != -1 {
				depth--
				if depth == 0 {
					return text[start : i+1], true
				}
			}
		}
	}

	return "", false
}
