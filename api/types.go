package api

import (
	"time"

	"github.com/Zrodkin/ShulPadServer-sub001/db"
	"github.com/Zrodkin/ShulPadServer-sub001/square"
	"github.com/Zrodkin/ShulPadServer-sub001/subscriptions"
)

// DeviceRegistrationRequest is the payload to enroll a kiosk device.
type DeviceRegistrationRequest struct {
	OrganizationID string `json:"organizationId"`
	DeviceID       string `json:"deviceId"`
	Name           string `json:"name,omitempty"`
	Platform       string `json:"platform,omitempty"`
	AppVersion     string `json:"appVersion,omitempty"`
}

// DeviceTokenResponse is the response of a device registration, carrying the
// JWT token the device uses on the protected routes.
type DeviceTokenResponse struct {
	Token    string                 `json:"token"`
	Expirity time.Time              `json:"expirity"`
	Device   *db.DeviceRegistration `json:"device,omitempty"`
}

// MerchantStatusResponse describes the square connection of an organization.
type MerchantStatusResponse struct {
	Connected  bool      `json:"connected"`
	MerchantID string    `json:"merchantId,omitempty"`
	LocationID string    `json:"locationId,omitempty"`
	ExpiresAt  time.Time `json:"expiresAt,omitempty"`
}

// CatalogResponse carries the donation preset catalog of the merchant.
type CatalogResponse struct {
	Objects []square.CatalogObject `json:"objects"`
}

// SetCatalogRequest replaces the donation presets of the merchant.
type SetCatalogRequest struct {
	// Amounts are the preset donation amounts in the currency's smallest
	// unit (cents).
	Amounts  []int64 `json:"amounts"`
	Currency string  `json:"currency,omitempty"`
}

// OrderRequest is the payload to create a donation order.
type OrderRequest struct {
	Amount   int64  `json:"amount"`
	Currency string `json:"currency,omitempty"`
	Note     string `json:"note,omitempty"`
}

// PaymentRequest is the payload to charge a kiosk donation.
type PaymentRequest struct {
	SourceID   string `json:"sourceId"`
	Amount     int64  `json:"amount"`
	Currency   string `json:"currency,omitempty"`
	DonorEmail string `json:"donorEmail,omitempty"`
	DonorPhone string `json:"donorPhone,omitempty"`
	Note       string `json:"note,omitempty"`
}

// SubscriptionCheckout is the payload to create a stripe checkout session.
type SubscriptionCheckout struct {
	PlanID        string `json:"planId"`
	BillingPeriod string `json:"billingPeriod,omitempty"`
	Email         string `json:"email,omitempty"`
	Locale        string `json:"locale,omitempty"`
	// Quantity is the number of kiosk devices to license.
	Quantity int64 `json:"quantity,omitempty"`
}

// SubscriptionStatusResponse is the local subscription state of the device's
// organization, including the entitlements derived from it.
type SubscriptionStatusResponse struct {
	Entitled     bool                    `json:"entitled"`
	MaxDevices   int                     `json:"maxDevices"`
	Features     []subscriptions.Feature `json:"features,omitempty"`
	Subscription *db.Subscription        `json:"subscription,omitempty"`
	Events       []*db.SubscriptionEvent `json:"events,omitempty"`
}

// PromoCodeRequest carries a promo code to validate or redeem.
type PromoCodeRequest struct {
	Code string `json:"code"`
}

// PromoCodeResponse describes a promo code after validation or redemption.
type PromoCodeResponse struct {
	Code       string    `json:"code"`
	PercentOff int       `json:"percentOff,omitempty"`
	FreeDays   int       `json:"freeDays,omitempty"`
	ExpiresAt  time.Time `json:"expiresAt"`
}
