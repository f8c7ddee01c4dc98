package square

import "fmt"

// Error codes for the Square integration.
const (
	ErrCodeInvalidConfig     = "invalid_config"
	ErrCodeAPICall           = "api_call_failed"
	ErrCodeOAuth             = "oauth_failed"
	ErrCodeWebhookValidation = "webhook_validation"
	ErrCodeInvalidEvent      = "invalid_event"
	ErrCodeEventProcessing   = "event_processing"
	ErrCodeMerchantNotFound  = "merchant_not_found"
	ErrCodeNotConnected      = "not_connected"
)

// SquareError represents an error from the Square integration with a stable
// code callers can branch on.
type SquareError struct {
	Code    string
	Message string
	Err     error
}

// Error implements the error interface.
func (e *SquareError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying error.
func (e *SquareError) Unwrap() error {
	return e.Err
}

// NewSquareError creates a new SquareError.
func NewSquareError(code, message string, err error) *SquareError {
	return &SquareError{Code: code, Message: message, Err: err}
}

// IsSquareErrorCode reports whether err is a SquareError with the given code.
func IsSquareErrorCode(err error, code string) bool {
	se, ok := err.(*SquareError)
	return ok && se.Code == code
}
