package derivation

import (
	"context"
	"log"
	"time"

	"github.com/ledgerlens/backend/internal/ocr"
)

// Options configures a Deriver. All values are read-only after construction;
// concurrent derivations share nothing else.
type Options struct {
	// ModelAPIKey enables the generative path when non-empty.
	ModelAPIKey string
	// VATStandardRate is the configured standard VAT rate, e.g. 0.19.
	VATStandardRate float64
	// DefaultAmount is substituted when no amount is extractable.
	DefaultAmount float64
	// Rules is the ordered classification rule table.
	Rules []ClassifierRule
	// ModelTimeout bounds the generative round trip. The orchestrator treats
	// an expired timeout as failure and proceeds to the fallback.
	ModelTimeout time.Duration
}

// Deriver orchestrates the two derivation paths: the generative model first,
// then the deterministic fallback on any failure. The two-tier design exists
// because the model offers richer categorization and line-item decomposition
// but has unpredictable availability and output quality; the fallback is the
// correctness backstop for the "always produces a usable entry" guarantee.
type Deriver struct {
	generative   *GenerativeDeriver
	extractor    *FieldExtractor
	builder      *FallbackBuilder
	rules        []ClassifierRule
	vatRate      float64
	modelTimeout time.Duration
}

// NewDeriver creates a Deriver from the given options.
func NewDeriver(opts Options) *Deriver {
	rules := opts.Rules
	if len(rules) == 0 {
		rules = DefaultRules()
	}
	timeout := opts.ModelTimeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	var generative *GenerativeDeriver
	if opts.ModelAPIKey != "" {
		generative = NewGenerativeDeriver(opts.ModelAPIKey, opts.VATStandardRate)
	}

	return &Deriver{
		generative:   generative,
		extractor:    NewFieldExtractor(opts.DefaultAmount),
		builder:      NewFallbackBuilder(),
		rules:        rules,
		vatRate:      opts.VATStandardRate,
		modelTimeout: timeout,
	}
}

// Derive converts an OCR result into a journal entry. The generative path is
// tried first under a bounded timeout; on any error — transport, malformed
// response, validation — the deterministic builder produces the entry
// instead. The returned entry always satisfies the balance invariant.
func (d *Deriver) Derive(ctx context.Context, res ocr.Result) (*JournalEntry, error) {
	if d.generative != nil && d.generative.Available() {
		mctx, cancel := context.WithTimeout(ctx, d.modelTimeout)
		entry, err := d.generative.Derive(mctx, res)
		cancel()
		if err == nil {
			return entry, nil
		}
		log.Printf("[Deriver] generative path failed, using fallback: %v", err)
	}

	entry := d.deriveFallback(res)

	// Unreachable by construction, checked defensively so a broken entry can
	// never escape to the caller.
	if err := entry.Validate(); err != nil {
		return nil, err
	}

	return entry, nil
}

// deriveFallback runs the deterministic path: field extraction, category
// classification and VAT split feeding the fallback builder.
func (d *Deriver) deriveFallback(res ocr.Result) *JournalEntry {
	serialized := res.Serialize()
	fields := d.extractor.Extract(res)
	cat := Classify(fields.Merchant+" "+serialized, d.rules)
	vat := ComputeVAT(fields.Amount, serialized, d.vatRate)
	return d.builder.Build(fields, cat, vat)
}
