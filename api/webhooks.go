package api

import (
	"io"
	"net/http"

	"github.com/Zrodkin/ShulPadServer-sub001/internal/log"
	"github.com/Zrodkin/ShulPadServer-sub001/square"
	"github.com/Zrodkin/ShulPadServer-sub001/stripe"
)

// maxWebhookBodyBytes caps the webhook payloads of both providers.
const maxWebhookBodyBytes = int64(65536)

// squareWebhookHandler processes incoming webhook events from square:
// subscription and invoice updates plus authorization revocations. Signature
// validation and idempotency live in the square service; this handler only
// translates its errors to status codes the provider retry logic expects.
func (a *API) squareWebhookHandler(w http.ResponseWriter, r *http.Request) {
	if a.square == nil {
		log.Errorf("square webhook: square service not available")
		w.WriteHeader(http.StatusServiceUnavailable)
		return
	}
	r.Body = http.MaxBytesReader(w, r.Body, maxWebhookBodyBytes)
	payload, err := io.ReadAll(r.Body)
	if err != nil {
		log.Errorf("square webhook: error reading request body: %s", err.Error())
		w.WriteHeader(http.StatusBadRequest)
		return
	}
	signature := r.Header.Get(square.SignatureHeader)
	if signature == "" {
		log.Errorf("square webhook: missing signature header")
		w.WriteHeader(http.StatusBadRequest)
		return
	}
	if err := a.square.HandleWebhookEvent(payload, signature); err != nil {
		log.Errorf("square webhook: failed to process event: %v", err)
		switch {
		case square.IsSquareErrorCode(err, square.ErrCodeWebhookValidation),
			square.IsSquareErrorCode(err, square.ErrCodeInvalidEvent):
			w.WriteHeader(http.StatusBadRequest)
		case square.IsSquareErrorCode(err, square.ErrCodeMerchantNotFound):
			// a business state mismatch; acking avoids pointless retries
			w.WriteHeader(http.StatusOK)
		default:
			w.WriteHeader(http.StatusInternalServerError)
		}
		return
	}
	w.WriteHeader(http.StatusOK)
}

// stripeWebhookHandler processes incoming webhook events from stripe for
// subscription management: creations, updates, deletions and payment events.
func (a *API) stripeWebhookHandler(w http.ResponseWriter, r *http.Request) {
	if a.stripe == nil {
		log.Errorf("stripe webhook: stripe service not available")
		w.WriteHeader(http.StatusServiceUnavailable)
		return
	}
	r.Body = http.MaxBytesReader(w, r.Body, maxWebhookBodyBytes)
	payload, err := io.ReadAll(r.Body)
	if err != nil {
		log.Errorf("stripe webhook: error reading request body: %s", err.Error())
		w.WriteHeader(http.StatusBadRequest)
		return
	}
	signature := r.Header.Get("Stripe-Signature")
	if signature == "" {
		log.Errorf("stripe webhook: missing Stripe-Signature header")
		w.WriteHeader(http.StatusBadRequest)
		return
	}
	if err := a.stripe.HandleWebhookEvent(payload, signature); err != nil {
		log.Errorf("stripe webhook: failed to process event: %v", err)
		switch {
		case stripe.IsStripeErrorCode(err, stripe.ErrCodeWebhookValidation),
			stripe.IsStripeErrorCode(err, stripe.ErrCodeInvalidEvent):
			w.WriteHeader(http.StatusBadRequest)
		case stripe.IsStripeErrorCode(err, stripe.ErrCodeOrgNotFound),
			stripe.IsStripeErrorCode(err, stripe.ErrCodePlanNotFound):
			// business logic errors that shouldn't cause retries
			w.WriteHeader(http.StatusOK)
		default:
			w.WriteHeader(http.StatusInternalServerError)
		}
		return
	}
	w.WriteHeader(http.StatusOK)
}
