package derivation

import "fmt"

// DerivationErrorCode represents specific derivation error types.
type DerivationErrorCode string

const (
	ErrModelUnavailable DerivationErrorCode = "MODEL_UNAVAILABLE"
	ErrModelRateLimited DerivationErrorCode = "MODEL_RATE_LIMITED"
	ErrGenerationFailed DerivationErrorCode = "GENERATION_FAILED"
	ErrInvalidEntry     DerivationErrorCode = "INVALID_ENTRY"
)

// DerivationError is a structured error for derivation failures.
type DerivationError struct {
	Code      DerivationErrorCode
	Message   string
	Stage     string // e.g. "transport", "decode", "validate"
	Retryable bool
	Cause     error
}

func (e *DerivationError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

func (e *DerivationError) Unwrap() error {
	return e.Cause
}

// IsRetryable returns whether this error is retryable.
func (e *DerivationError) IsRetryable() bool {
	return e.Retryable
}
