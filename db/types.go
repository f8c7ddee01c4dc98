package db

import "time"

// Organization is a nonprofit using the kiosk app. The ID is a UUID minted
// on creation and carried as metadata through the payment providers.
type Organization struct {
	ID        string    `gorm:"primaryKey;size:36" json:"id"`
	Name      string    `gorm:"size:128" json:"name"`
	Email     string    `gorm:"size:128;index" json:"email"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"-"`
}

// MerchantConnection holds the OAuth credentials linking an organization to a
// payment provider account. One row per organization and provider.
type MerchantConnection struct {
	ID             uint64    `gorm:"primaryKey;autoIncrement" json:"-"`
	OrganizationID string    `gorm:"size:36;uniqueIndex:idx_conn_org_provider" json:"organizationId"`
	Provider       Provider  `gorm:"size:16;uniqueIndex:idx_conn_org_provider" json:"provider"`
	MerchantID     string    `gorm:"size:64;index" json:"merchantId"`
	LocationID     string    `gorm:"size:64" json:"locationId"`
	AccessToken    string    `gorm:"size:512" json:"-"`
	RefreshToken   string    `gorm:"size:512" json:"-"`
	ExpiresAt      time.Time `json:"expiresAt"`
	CreatedAt      time.Time `json:"createdAt"`
	UpdatedAt      time.Time `json:"updatedAt"`
}

// OAuthState is a single-use CSRF token for an in-flight OAuth authorization.
type OAuthState struct {
	State          string `gorm:"primaryKey;size:64"`
	OrganizationID string `gorm:"size:36;index"`
	DeviceID       string `gorm:"size:64"`
	RedirectURI    string `gorm:"size:512"`
	Used           bool
	ExpiresAt      time.Time
	CreatedAt      time.Time
}

// Subscription is the local mirror of a provider subscription object. One row
// per organization and provider; webhooks keep it reconciled.
type Subscription struct {
	ID                     uint64             `gorm:"primaryKey;autoIncrement" json:"-"`
	OrganizationID         string             `gorm:"size:36;uniqueIndex:idx_sub_org_provider" json:"organizationId"`
	Provider               Provider           `gorm:"size:16;uniqueIndex:idx_sub_org_provider" json:"provider"`
	ProviderSubscriptionID string             `gorm:"size:128;index" json:"providerSubscriptionId"`
	PlanID                 string             `gorm:"size:64" json:"planId"`
	Status                 SubscriptionStatus `gorm:"size:32" json:"status"`
	BillingPeriod          BillingPeriod      `gorm:"size:16" json:"billingPeriod"`
	DeviceQuantity         int                `json:"deviceQuantity"`
	CustomerEmail          string             `gorm:"size:128" json:"customerEmail"`
	CurrentPeriodStart     time.Time          `json:"currentPeriodStart"`
	CurrentPeriodEnd       time.Time          `json:"currentPeriodEnd"`
	CancelAt               *time.Time         `json:"cancelAt,omitempty"`
	LastPaymentAt          time.Time          `json:"lastPaymentAt"`
	CreatedAt              time.Time          `json:"createdAt"`
	UpdatedAt              time.Time          `json:"updatedAt"`
}

// SubscriptionEvent is an audit trail entry for every billing state change
// applied from a provider webhook.
type SubscriptionEvent struct {
	ID             uint64             `gorm:"primaryKey;autoIncrement" json:"-"`
	OrganizationID string             `gorm:"size:36;index" json:"organizationId"`
	Provider       Provider           `gorm:"size:16" json:"provider"`
	EventID        string             `gorm:"size:128" json:"eventId"`
	EventType      string             `gorm:"size:64" json:"eventType"`
	Status         SubscriptionStatus `gorm:"size:32" json:"status"`
	Detail         string             `gorm:"size:256" json:"detail,omitempty"`
	CreatedAt      time.Time          `json:"createdAt"`
}

// PromoCode grants either a discount or free days when redeemed at checkout.
type PromoCode struct {
	Code           string    `gorm:"primaryKey;size:64" json:"code"`
	PercentOff     int       `json:"percentOff,omitempty"`
	FreeDays       int       `json:"freeDays,omitempty"`
	MaxRedemptions int       `json:"maxRedemptions"`
	Redemptions    int       `json:"redemptions"`
	Active         bool      `json:"active"`
	ExpiresAt      time.Time `json:"expiresAt"`
	CreatedAt      time.Time `json:"createdAt"`
}

// DeviceRegistration is a kiosk device enrolled by an organization. The
// DeviceID comes from the app install and doubles as the JWT subject.
type DeviceRegistration struct {
	DeviceID       string    `gorm:"primaryKey;size:64" json:"deviceId"`
	OrganizationID string    `gorm:"size:36;index" json:"organizationId"`
	Name           string    `gorm:"size:128" json:"name"`
	Platform       string    `gorm:"size:32" json:"platform"`
	AppVersion     string    `gorm:"size:32" json:"appVersion"`
	Active         bool      `json:"active"`
	LastSeenAt     time.Time `json:"lastSeenAt"`
	CreatedAt      time.Time `json:"createdAt"`
}

// WebhookEvent records a processed provider event for idempotency. The
// provider+event unique index is what makes redeliveries no-ops.
type WebhookEvent struct {
	ID          uint64   `gorm:"primaryKey;autoIncrement"`
	Provider    Provider `gorm:"size:16;uniqueIndex:idx_wh_provider_event"`
	EventID     string   `gorm:"size:128;uniqueIndex:idx_wh_provider_event"`
	EventType   string   `gorm:"size:64"`
	ReceivedAt  time.Time
	ProcessedAt *time.Time
}
