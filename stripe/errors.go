package stripe

import "fmt"

// Error codes for the Stripe integration.
const (
	ErrCodeWebhookValidation = "webhook_validation"
	ErrCodeInvalidEvent      = "invalid_event"
	ErrCodeAPICall           = "api_call_failed"
	ErrCodeCustomerNotFound  = "customer_not_found"
	ErrCodeOrgNotFound       = "organization_not_found"
	ErrCodePlanNotFound      = "plan_not_found"
	ErrCodeEventProcessing   = "event_processing"
)

// StripeError represents an error from Stripe operations with a stable code
// callers can branch on.
type StripeError struct {
	Code    string
	Message string
	Err     error
}

// Error implements the error interface.
func (e *StripeError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying error.
func (e *StripeError) Unwrap() error {
	return e.Err
}

// NewStripeError creates a new StripeError.
func NewStripeError(code, message string, err error) *StripeError {
	return &StripeError{Code: code, Message: message, Err: err}
}

// IsStripeErrorCode reports whether err is a StripeError with the given code.
func IsStripeErrorCode(err error, code string) bool {
	se, ok := err.(*StripeError)
	return ok && se.Code == code
}
