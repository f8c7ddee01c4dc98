package stripe

import (
	"os"

	"github.com/Zrodkin/ShulPadServer-sub001/db"
)

// Plan describes a purchasable subscription tier and its Stripe price IDs.
type Plan struct {
	// ID is the local plan identifier stored on subscriptions.
	ID string
	// Name is the human readable plan name.
	Name string
	// MonthlyPriceID and AnnualPriceID are the Stripe price IDs per cadence.
	MonthlyPriceID string
	AnnualPriceID  string
	// TrialDays is the free trial length granted at checkout.
	TrialDays int64
}

// Config contains the configuration for the Stripe integration.
type Config struct {
	// APIKey is the Stripe secret key.
	APIKey string
	// WebhookSecret is the signing secret of the webhook endpoint.
	WebhookSecret string
	// ReturnURL is where checkout redirects after completion.
	ReturnURL string
	// Plans are the purchasable tiers.
	Plans []Plan
}

// NewConfig creates a new Stripe configuration from environment variables.
func NewConfig() *Config {
	return &Config{
		APIKey:        os.Getenv("STRIPE_API_SECRET"),
		WebhookSecret: os.Getenv("STRIPE_WEBHOOK_SECRET"),
		ReturnURL:     os.Getenv("STRIPE_RETURN_URL"),
		Plans: []Plan{
			{
				ID:             "standard",
				Name:           "Standard",
				MonthlyPriceID: os.Getenv("STRIPE_PRICE_STANDARD_MONTHLY"),
				AnnualPriceID:  os.Getenv("STRIPE_PRICE_STANDARD_ANNUAL"),
				TrialDays:      14,
			},
			{
				ID:             "pro",
				Name:           "Pro",
				MonthlyPriceID: os.Getenv("STRIPE_PRICE_PRO_MONTHLY"),
				AnnualPriceID:  os.Getenv("STRIPE_PRICE_PRO_ANNUAL"),
				TrialDays:      14,
			},
		},
	}
}

// PlanByID returns the plan with the given local identifier.
func (c *Config) PlanByID(planID string) (*Plan, bool) {
	for i := range c.Plans {
		if c.Plans[i].ID == planID {
			return &c.Plans[i], true
		}
	}
	return nil, false
}

// PlanByPriceID resolves the plan owning the given Stripe price ID.
func (c *Config) PlanByPriceID(priceID string) (*Plan, bool) {
	if priceID == "" {
		return nil, false
	}
	for i := range c.Plans {
		if c.Plans[i].MonthlyPriceID == priceID || c.Plans[i].AnnualPriceID == priceID {
			return &c.Plans[i], true
		}
	}
	return nil, false
}

// PriceID returns the price ID of the plan for the given billing period.
func (p *Plan) PriceID(period db.BillingPeriod) string {
	if period == db.BillingPeriodAnnual {
		return p.AnnualPriceID
	}
	return p.MonthlyPriceID
}
