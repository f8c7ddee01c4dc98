package square

import (
	"fmt"
	"os"
)

const (
	// EnvironmentProduction selects the live Square API.
	EnvironmentProduction = "production"
	// EnvironmentSandbox selects the Square sandbox API.
	EnvironmentSandbox = "sandbox"

	productionBaseURL = "https://connect.squareup.com"
	sandboxBaseURL    = "https://connect.squareupsandbox.com"

	// squareVersion pins the Square API version sent on every request.
	squareVersion = "2024-08-21"
)

// Config contains the configuration for the Square integration.
type Config struct {
	// ApplicationID is the Square application (client) ID.
	ApplicationID string
	// ApplicationSecret is the OAuth client secret.
	ApplicationSecret string
	// Environment is either "production" or "sandbox".
	Environment string
	// APIBaseURL overrides the environment's API base URL when set, e.g.
	// to route requests through a proxy.
	APIBaseURL string
	// WebhookSignatureKey is the key Square signs webhook payloads with.
	WebhookSignatureKey string
	// WebhookURL is the notification URL exactly as registered in the Square
	// developer console. It is part of the signed payload.
	WebhookURL string
	// RedirectURL is the OAuth callback URL of this backend.
	RedirectURL string
	// OAuthScopes are the permissions requested during authorization.
	OAuthScopes string
}

// DefaultOAuthScopes are the permissions the kiosk needs: reading merchant
// and catalog data, writing catalog items, taking payments and managing
// subscriptions.
const DefaultOAuthScopes = "MERCHANT_PROFILE_READ ITEMS_READ ITEMS_WRITE ORDERS_READ ORDERS_WRITE PAYMENTS_READ PAYMENTS_WRITE SUBSCRIPTIONS_READ INVOICES_READ"

// NewConfig creates a new Square configuration from environment variables.
func NewConfig() *Config {
	return &Config{
		ApplicationID:       os.Getenv("SQUARE_APPLICATION_ID"),
		ApplicationSecret:   os.Getenv("SQUARE_APPLICATION_SECRET"),
		Environment:         getEnvOrDefault("SQUARE_ENVIRONMENT", EnvironmentSandbox),
		APIBaseURL:          os.Getenv("SQUARE_API_BASE_URL"),
		WebhookSignatureKey: os.Getenv("SQUARE_WEBHOOK_SIGNATURE_KEY"),
		WebhookURL:          os.Getenv("SQUARE_WEBHOOK_URL"),
		RedirectURL:         os.Getenv("SQUARE_REDIRECT_URL"),
		OAuthScopes:         getEnvOrDefault("SQUARE_OAUTH_SCOPES", DefaultOAuthScopes),
	}
}

// Validate checks that the configuration has the required fields.
func (c *Config) Validate() error {
	if c.ApplicationID == "" || c.ApplicationSecret == "" {
		return fmt.Errorf("square application credentials are required")
	}
	if c.Environment != EnvironmentProduction && c.Environment != EnvironmentSandbox {
		return fmt.Errorf("invalid square environment %q", c.Environment)
	}
	return nil
}

// BaseURL returns the API base URL for the configured environment.
func (c *Config) BaseURL() string {
	if c.APIBaseURL != "" {
		return c.APIBaseURL
	}
	if c.Environment == EnvironmentProduction {
		return productionBaseURL
	}
	return sandboxBaseURL
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
