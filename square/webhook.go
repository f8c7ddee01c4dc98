package square

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"

	"github.com/Zrodkin/ShulPadServer-sub001/db"
)

// SignatureHeader is the HTTP header carrying the webhook signature.
const SignatureHeader = "x-square-hmacsha256-signature"

// ComputeSignature returns the base64 HMAC-SHA256 of the notification URL
// concatenated with the raw request body, keyed with the webhook signature
// key. This is the scheme Square signs webhook deliveries with.
func ComputeSignature(signatureKey, notificationURL string, body []byte) string {
	mac := hmac.New(sha256.New, []byte(signatureKey))
	mac.Write([]byte(notificationURL))
	mac.Write(body)
	return base64.StdEncoding.EncodeToString(mac.Sum(nil))
}

// VerifySignature checks a webhook delivery signature in constant time.
func VerifySignature(signatureKey, notificationURL string, body []byte, signature string) bool {
	if signatureKey == "" || signature == "" {
		return false
	}
	expected := ComputeSignature(signatureKey, notificationURL, body)
	return hmac.Equal([]byte(expected), []byte(signature))
}

// ParseEvent decodes a webhook envelope.
func ParseEvent(body []byte) (*WebhookEvent, error) {
	var event WebhookEvent
	if err := json.Unmarshal(body, &event); err != nil {
		return nil, NewSquareError(ErrCodeInvalidEvent, "failed to parse webhook event", err)
	}
	if event.EventID == "" || event.Type == "" {
		return nil, NewSquareError(ErrCodeInvalidEvent, "webhook event missing id or type", nil)
	}
	return &event, nil
}

// subscriptionFromEvent extracts the subscription object from a
// subscription.* webhook event.
func subscriptionFromEvent(event *WebhookEvent) (*Subscription, error) {
	var wrapper struct {
		Subscription *Subscription `json:"subscription"`
	}
	if err := json.Unmarshal(event.Data.Object, &wrapper); err != nil {
		return nil, NewSquareError(ErrCodeInvalidEvent, "failed to parse subscription object", err)
	}
	if wrapper.Subscription == nil || wrapper.Subscription.ID == "" {
		return nil, NewSquareError(ErrCodeInvalidEvent, "event carries no subscription", nil)
	}
	return wrapper.Subscription, nil
}

// invoiceFromEvent extracts the invoice object from an invoice.* webhook
// event.
func invoiceFromEvent(event *WebhookEvent) (*Invoice, error) {
	var wrapper struct {
		Invoice *Invoice `json:"invoice"`
	}
	if err := json.Unmarshal(event.Data.Object, &wrapper); err != nil {
		return nil, NewSquareError(ErrCodeInvalidEvent, "failed to parse invoice object", err)
	}
	if wrapper.Invoice == nil || wrapper.Invoice.ID == "" {
		return nil, NewSquareError(ErrCodeInvalidEvent, "event carries no invoice", nil)
	}
	return wrapper.Invoice, nil
}

// mapSubscriptionStatus maps a Square subscription object to the local
// billing state. An ACTIVE subscription with a canceled date set means the
// merchant scheduled a cancellation that has not taken effect yet.
func mapSubscriptionStatus(sub *Subscription) db.SubscriptionStatus {
	switch sub.Status {
	case "ACTIVE":
		if sub.CanceledDate != "" {
			return db.StatusPendingCancellation
		}
		return db.StatusActive
	case "CANCELED", "DEACTIVATED":
		return db.StatusCanceled
	case "PAUSED":
		return db.StatusPaused
	case "PENDING":
		return db.StatusIncomplete
	default:
		return db.StatusIncomplete
	}
}
