package errors

import (
	"fmt"
	"net/http"
)

// The custom Error type satisfies the error interface.
// Error() returns a human-readable description of the error.
//
// Error codes in the 40001-49999 range are the user's fault,
// codes in the 50001-59999 range are the server's fault.
//
// Do not reuse an error code for a different meaning, even if the old one
// is no longer in use: gaps in the numbering are fine.
var (
	ErrUnauthorized           = Error{Code: 40001, HTTPstatus: http.StatusUnauthorized, Err: fmt.Errorf("unauthorized")}
	ErrMalformedBody          = Error{Code: 40002, HTTPstatus: http.StatusBadRequest, Err: fmt.Errorf("malformed JSON body")}
	ErrMalformedURLParam      = Error{Code: 40003, HTTPstatus: http.StatusBadRequest, Err: fmt.Errorf("malformed URL parameter")}
	ErrEmailMalformed         = Error{Code: 40004, HTTPstatus: http.StatusBadRequest, Err: fmt.Errorf("malformed email address")}
	ErrOrganizationNotFound   = Error{Code: 40005, HTTPstatus: http.StatusNotFound, Err: fmt.Errorf("organization not found")}
	ErrNoOrganizationProvided = Error{Code: 40006, HTTPstatus: http.StatusBadRequest, Err: fmt.Errorf("no organization provided")}
	ErrDeviceNotFound         = Error{Code: 40007, HTTPstatus: http.StatusNotFound, Err: fmt.Errorf("device not found")}
	ErrInvalidDeviceData      = Error{Code: 40008, HTTPstatus: http.StatusBadRequest, Err: fmt.Errorf("invalid device data")}
	ErrDeviceLimitReached     = Error{Code: 40009, HTTPstatus: http.StatusForbidden, Err: fmt.Errorf("device limit reached for the current plan")}
	ErrMerchantNotConnected   = Error{Code: 40010, HTTPstatus: http.StatusNotFound, Err: fmt.Errorf("merchant not connected")}
	ErrOAuthStateInvalid      = Error{Code: 40011, HTTPstatus: http.StatusBadRequest, Err: fmt.Errorf("invalid or already used oauth state")}
	ErrOAuthStateExpired      = Error{Code: 40012, HTTPstatus: http.StatusBadRequest, Err: fmt.Errorf("oauth state expired")}
	ErrInvalidAmount          = Error{Code: 40013, HTTPstatus: http.StatusBadRequest, Err: fmt.Errorf("invalid donation amount")}
	ErrSubscriptionNotFound   = Error{Code: 40014, HTTPstatus: http.StatusNotFound, Err: fmt.Errorf("subscription not found")}
	ErrPromoCodeNotFound      = Error{Code: 40015, HTTPstatus: http.StatusNotFound, Err: fmt.Errorf("promo code not found")}
	ErrPromoCodeExpired       = Error{Code: 40016, HTTPstatus: http.StatusBadRequest, Err: fmt.Errorf("promo code expired")}
	ErrPromoCodeExhausted     = Error{Code: 40017, HTTPstatus: http.StatusBadRequest, Err: fmt.Errorf("promo code redemption limit reached")}
	ErrInvalidPlan            = Error{Code: 40018, HTTPstatus: http.StatusBadRequest, Err: fmt.Errorf("invalid subscription plan")}
	ErrDuplicateConflict      = Error{Code: 40901, HTTPstatus: http.StatusConflict, Err: fmt.Errorf("duplicate resource")}

	ErrMarshalingServerJSONFailed = Error{Code: 50001, HTTPstatus: http.StatusInternalServerError, Err: fmt.Errorf("marshaling (server-side) JSON failed")}
	ErrGenericInternalServerError = Error{Code: 50002, HTTPstatus: http.StatusInternalServerError, Err: fmt.Errorf("internal server error")}
	ErrInternalStorageError       = Error{Code: 50003, HTTPstatus: http.StatusInternalServerError, Err: fmt.Errorf("internal storage error")}
	ErrSquareError                = Error{Code: 50004, HTTPstatus: http.StatusInternalServerError, Err: fmt.Errorf("square API error")}
	ErrStripeError                = Error{Code: 50005, HTTPstatus: http.StatusInternalServerError, Err: fmt.Errorf("stripe API error")}
	ErrNotificationFailure        = Error{Code: 50006, HTTPstatus: http.StatusInternalServerError, Err: fmt.Errorf("notification sending failed")}
	ErrOAuthServerError           = Error{Code: 50007, HTTPstatus: http.StatusInternalServerError, Err: fmt.Errorf("oauth flow failed")}
)
