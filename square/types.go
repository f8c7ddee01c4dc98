package square

import "encoding/json"

// Money is an amount in minor units of a currency, as Square represents it.
type Money struct {
	Amount   int64  `json:"amount"`
	Currency string `json:"currency"`
}

// TokenResponse is the body of the Square OAuth token endpoint.
type TokenResponse struct {
	AccessToken  string `json:"access_token"`
	TokenType    string `json:"token_type"`
	ExpiresAt    string `json:"expires_at"` // RFC 3339
	MerchantID   string `json:"merchant_id"`
	RefreshToken string `json:"refresh_token"`
}

// Location is a Square merchant location.
type Location struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Status   string `json:"status"` // ACTIVE or INACTIVE
	Currency string `json:"currency,omitempty"`
}

// CatalogItem is the item payload of a catalog object.
type CatalogItem struct {
	Name        string          `json:"name"`
	Description string          `json:"description,omitempty"`
	Variations  []CatalogObject `json:"variations,omitempty"`
}

// CatalogItemVariation is the variation payload of a catalog object.
type CatalogItemVariation struct {
	ItemID      string `json:"item_id,omitempty"`
	Name        string `json:"name"`
	PricingType string `json:"pricing_type"` // FIXED_PRICING or VARIABLE_PRICING
	PriceMoney  *Money `json:"price_money,omitempty"`
}

// CatalogObject is a node of the Square catalog tree. Only the item types
// the kiosk uses are modeled.
type CatalogObject struct {
	Type                  string                `json:"type"` // ITEM or ITEM_VARIATION
	ID                    string                `json:"id"`
	Version               int64                 `json:"version,omitempty"`
	IsDeleted             bool                  `json:"is_deleted,omitempty"`
	PresentAtAllLocations bool                  `json:"present_at_all_locations"`
	ItemData              *CatalogItem          `json:"item_data,omitempty"`
	ItemVariationData     *CatalogItemVariation `json:"item_variation_data,omitempty"`
}

// OrderLineItem is a single line of an order.
type OrderLineItem struct {
	Name           string `json:"name,omitempty"`
	Quantity       string `json:"quantity"`
	CatalogID      string `json:"catalog_object_id,omitempty"`
	BasePriceMoney *Money `json:"base_price_money,omitempty"`
	Note           string `json:"note,omitempty"`
}

// Order is a Square order.
type Order struct {
	ID          string          `json:"id,omitempty"`
	LocationID  string          `json:"location_id"`
	ReferenceID string          `json:"reference_id,omitempty"`
	LineItems   []OrderLineItem `json:"line_items,omitempty"`
	TotalMoney  *Money          `json:"total_money,omitempty"`
	State       string          `json:"state,omitempty"`
}

// CreatePaymentRequest is the body of the CreatePayment endpoint.
type CreatePaymentRequest struct {
	SourceID          string `json:"source_id"`
	IdempotencyKey    string `json:"idempotency_key"`
	AmountMoney       Money  `json:"amount_money"`
	OrderID           string `json:"order_id,omitempty"`
	LocationID        string `json:"location_id,omitempty"`
	BuyerEmailAddress string `json:"buyer_email_address,omitempty"`
	Note              string `json:"note,omitempty"`
}

// Payment is a Square payment.
type Payment struct {
	ID          string `json:"id"`
	Status      string `json:"status"` // APPROVED, COMPLETED, CANCELED, FAILED
	OrderID     string `json:"order_id,omitempty"`
	LocationID  string `json:"location_id,omitempty"`
	AmountMoney Money  `json:"amount_money"`
	ReceiptURL  string `json:"receipt_url,omitempty"`
	CreatedAt   string `json:"created_at,omitempty"`
}

// Subscription is a Square subscription object as delivered by the API and
// webhooks. Dates are Square's YYYY-MM-DD strings; CanceledDate set on an
// ACTIVE subscription means a cancellation is scheduled for end of cycle.
type Subscription struct {
	ID                 string `json:"id"`
	LocationID         string `json:"location_id"`
	CustomerID         string `json:"customer_id"`
	PlanVariationID    string `json:"plan_variation_id"`
	Status             string `json:"status"` // PENDING, ACTIVE, CANCELED, DEACTIVATED, PAUSED
	StartDate          string `json:"start_date,omitempty"`
	CanceledDate       string `json:"canceled_date,omitempty"`
	ChargedThroughDate string `json:"charged_through_date,omitempty"`
	MonthlyBillingDay  int    `json:"monthly_billing_anchor_date,omitempty"`
}

// Invoice is a Square invoice, delivered on invoice webhooks. Only the
// fields the reconciliation needs are modeled.
type Invoice struct {
	ID             string `json:"id"`
	SubscriptionID string `json:"subscription_id,omitempty"`
	Status         string `json:"status"` // DRAFT, UNPAID, SCHEDULED, PARTIALLY_PAID, PAID, CANCELED, FAILED
	CreatedAt      string `json:"created_at,omitempty"`
}

// WebhookEvent is the envelope Square posts to the notification URL.
type WebhookEvent struct {
	MerchantID string           `json:"merchant_id"`
	Type       string           `json:"type"`
	EventID    string           `json:"event_id"`
	CreatedAt  string           `json:"created_at"`
	Data       WebhookEventData `json:"data"`
}

// WebhookEventData carries the typed object of a webhook event. Object is a
// wrapper keyed by the object kind, e.g. {"subscription": {...}}.
type WebhookEventData struct {
	Type   string          `json:"type"`
	ID     string          `json:"id"`
	Object json.RawMessage `json:"object"`
}

// apiErrorDetail is one entry of a Square error response.
type apiErrorDetail struct {
	Category string `json:"category"`
	Code     string `json:"code"`
	Detail   string `json:"detail,omitempty"`
	Field    string `json:"field,omitempty"`
}
