package stripe

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/Zrodkin/ShulPadServer-sub001/db"
	stripeapi "github.com/stripe/stripe-go/v82"
	stripeportalsession "github.com/stripe/stripe-go/v82/billingportal/session"
	stripecheckoutsession "github.com/stripe/stripe-go/v82/checkout/session"
	stripecustomer "github.com/stripe/stripe-go/v82/customer"
	stripewebhook "github.com/stripe/stripe-go/v82/webhook"
)

// orgMetadataKey is the customer and subscription metadata key carrying the
// local organization ID through Stripe objects.
const orgMetadataKey = "org_id"

// Client wraps the Stripe API client with additional functionality
type Client struct {
	config     *Config
	httpClient *http.Client
}

// NewClient creates a new Stripe client with the given configuration
func NewClient(config *Config) *Client {
	stripeapi.Key = config.APIKey

	return &Client{
		config: config,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// ValidateWebhookEvent validates and parses a webhook event
func (c *Client) ValidateWebhookEvent(payload []byte, signatureHeader string) (*stripeapi.Event, error) {
	event, err := stripewebhook.ConstructEvent(payload, signatureHeader, c.config.WebhookSecret)
	if err != nil {
		return nil, NewStripeError(ErrCodeWebhookValidation, "webhook signature validation failed", err)
	}
	return &event, nil
}

// GetCustomer retrieves a customer by ID
func (*Client) GetCustomer(customerID string) (*stripeapi.Customer, error) {
	params := &stripeapi.CustomerParams{}
	customer, err := stripecustomer.Get(customerID, params)
	if err != nil {
		return nil, NewStripeError(ErrCodeAPICall, "failed to get customer", err)
	}
	return customer, nil
}

// GetCustomerByEmail retrieves a customer by email address
func (*Client) GetCustomerByEmail(email string) (*stripeapi.Customer, error) {
	params := &stripeapi.CustomerListParams{
		Email: stripeapi.String(email),
	}

	customers := stripecustomer.List(params)
	if !customers.Next() {
		return nil, NewStripeError(ErrCodeCustomerNotFound, fmt.Sprintf("customer with email %s not found", email), nil)
	}

	return customers.Customer(), nil
}

// GetCustomerByOrgID retrieves the customer carrying the organization ID in
// its metadata.
func (*Client) GetCustomerByOrgID(orgID string) (*stripeapi.Customer, error) {
	customers := stripecustomer.Search(&stripeapi.CustomerSearchParams{
		SearchParams: stripeapi.SearchParams{
			Query: fmt.Sprintf("metadata['%s']:'%s'", orgMetadataKey, orgID),
			Limit: stripeapi.Int64(1),
		},
	})

	if !customers.Next() {
		return nil, NewStripeError(ErrCodeCustomerNotFound, fmt.Sprintf("customer for organization %s not found", orgID), nil)
	}

	return customers.Customer(), nil
}

// UpdateCustomerMetadata updates a customer's metadata
func (*Client) UpdateCustomerMetadata(customerID string, metadata map[string]string) error {
	params := &stripeapi.CustomerParams{
		Metadata: metadata,
	}
	_, err := stripecustomer.Update(customerID, params)
	if err != nil {
		return NewStripeError(ErrCodeAPICall, "failed to update customer metadata", err)
	}
	return nil
}

// CheckoutSessionParams holds parameters for creating a checkout session
type CheckoutSessionParams struct {
	PriceID       string
	ReturnURL     string
	OrgID         string
	CustomerEmail string
	Locale        string
	Quantity      int64
	TrialDays     int64
}

// CreateCheckoutSession creates a new checkout session in subscription mode.
// The organization ID travels in the subscription metadata so webhook events
// can be mapped back without a customer lookup.
// Overview of stripe checkout mechanics: https://docs.stripe.com/checkout/custom/quickstart
func (c *Client) CreateCheckoutSession(params *CheckoutSessionParams) (*stripeapi.CheckoutSession, error) {
	if params.Locale == "" {
		params.Locale = "auto"
	}
	if params.Quantity <= 0 {
		params.Quantity = 1
	}

	checkoutParams := &stripeapi.CheckoutSessionParams{
		Mode: stripeapi.String(string(stripeapi.CheckoutSessionModeSubscription)),
		LineItems: []*stripeapi.CheckoutSessionLineItemParams{
			{
				Price:    stripeapi.String(params.PriceID),
				Quantity: stripeapi.Int64(params.Quantity),
			},
		},
		// embedded client rendered inside the app's web view
		UIMode: stripeapi.String(string(stripeapi.CheckoutSessionUIModeCustom)),
		SubscriptionData: &stripeapi.CheckoutSessionSubscriptionDataParams{
			Metadata: map[string]string{
				orgMetadataKey: params.OrgID,
			},
		},
		AllowPromotionCodes:      stripeapi.Bool(true),
		BillingAddressCollection: stripeapi.String(string(stripeapi.CheckoutSessionBillingAddressCollectionAuto)),
		Locale:                   stripeapi.String(params.Locale),
	}
	if params.TrialDays > 0 {
		checkoutParams.SubscriptionData.TrialPeriodDays = stripeapi.Int64(params.TrialDays)
	}

	// reuse the existing customer when the organization already has one
	customer, err := c.GetCustomerByOrgID(params.OrgID)
	if err != nil {
		checkoutParams.CustomerEmail = stripeapi.String(params.CustomerEmail)
	} else {
		checkoutParams.Customer = &customer.ID
	}

	if params.ReturnURL != "" {
		checkoutParams.ReturnURL = stripeapi.String(params.ReturnURL + "/{CHECKOUT_SESSION_ID}")
	}

	session, err := stripecheckoutsession.New(checkoutParams)
	if err != nil {
		return nil, NewStripeError(ErrCodeAPICall, "failed to create checkout session", err)
	}

	return session, nil
}

// CheckoutSessionStatus represents the status of a checkout session
type CheckoutSessionStatus struct {
	Status             string `json:"status"`
	CustomerEmail      string `json:"customer_email"`
	SubscriptionStatus string `json:"subscription_status"`
}

// GetCheckoutSession retrieves a checkout session by ID
func (*Client) GetCheckoutSession(sessionID string) (*CheckoutSessionStatus, error) {
	params := &stripeapi.CheckoutSessionParams{}

	session, err := stripecheckoutsession.Get(sessionID, params)
	if err != nil {
		return nil, NewStripeError(ErrCodeAPICall, "failed to get checkout session", err)
	}

	status := &CheckoutSessionStatus{
		Status: string(session.Status),
	}
	if session.CustomerDetails != nil {
		status.CustomerEmail = session.CustomerDetails.Email
	}
	if session.Subscription != nil {
		status.SubscriptionStatus = string(session.Subscription.Status)
	}

	return status, nil
}

// CreatePortalSession creates a billing portal session for the customer of
// the given organization.
func (c *Client) CreatePortalSession(orgID, returnURL string) (*stripeapi.BillingPortalSession, error) {
	customer, err := c.GetCustomerByOrgID(orgID)
	if err != nil {
		return nil, err
	}

	params := &stripeapi.BillingPortalSessionParams{
		Customer: &customer.ID,
	}
	if returnURL != "" {
		params.ReturnURL = stripeapi.String(returnURL)
	}

	session, err := stripeportalsession.New(params)
	if err != nil {
		return nil, NewStripeError(ErrCodeAPICall, "failed to create portal session", err)
	}

	return session, nil
}

// SubscriptionInfo represents the information related to a Stripe
// subscription that is relevant for the application.
type SubscriptionInfo struct {
	ID                string
	Status            stripeapi.SubscriptionStatus
	CancelAtPeriodEnd bool
	CancelAt          time.Time
	BillingPeriod     db.BillingPeriod
	PriceID           string
	OrgID             string
	CustomerID        string
	Quantity          int64
	StartDate         time.Time
	EndDate           time.Time
}

// parseSubscriptionFromEvent extracts subscription information from a
// webhook event payload without any API calls.
func parseSubscriptionFromEvent(event *stripeapi.Event) (*SubscriptionInfo, error) {
	var subscription stripeapi.Subscription
	if err := json.Unmarshal(event.Data.Raw, &subscription); err != nil {
		return nil, NewStripeError(ErrCodeInvalidEvent, "failed to parse subscription from event", err)
	}

	orgID := subscription.Metadata[orgMetadataKey]
	if orgID == "" {
		return nil, NewStripeError(ErrCodeInvalidEvent, "subscription missing organization metadata", nil)
	}
	if len(subscription.Items.Data) == 0 {
		return nil, NewStripeError(ErrCodeInvalidEvent, "subscription has no items", nil)
	}
	item := subscription.Items.Data[0]

	info := &SubscriptionInfo{
		ID:                subscription.ID,
		Status:            subscription.Status,
		CancelAtPeriodEnd: subscription.CancelAtPeriodEnd,
		OrgID:             orgID,
		Quantity:          item.Quantity,
		StartDate:         time.Unix(item.CurrentPeriodStart, 0),
		EndDate:           time.Unix(item.CurrentPeriodEnd, 0),
	}
	if subscription.CancelAt > 0 {
		info.CancelAt = time.Unix(subscription.CancelAt, 0)
	}
	if subscription.Customer != nil {
		info.CustomerID = subscription.Customer.ID
	}
	if item.Price != nil {
		info.PriceID = item.Price.ID
		if item.Price.Type == stripeapi.PriceTypeRecurring && item.Price.Recurring != nil {
			switch item.Price.Recurring.Interval {
			case stripeapi.PriceRecurringIntervalYear:
				info.BillingPeriod = db.BillingPeriodAnnual
			case stripeapi.PriceRecurringIntervalMonth:
				info.BillingPeriod = db.BillingPeriodMonthly
			}
		}
	}

	return info, nil
}

// InvoiceInfo represents invoice information extracted from events
type InvoiceInfo struct {
	ID          string
	PaymentTime time.Time
	OrgID       string
}

// parseInvoiceFromEvent extracts invoice information from a webhook event.
func parseInvoiceFromEvent(event *stripeapi.Event) (*InvoiceInfo, error) {
	var invoice stripeapi.Invoice
	if err := json.Unmarshal(event.Data.Raw, &invoice); err != nil {
		return nil, NewStripeError(ErrCodeInvalidEvent, "failed to parse invoice from event", err)
	}

	if invoice.Parent == nil || invoice.Parent.SubscriptionDetails == nil {
		return nil, NewStripeError(ErrCodeInvalidEvent, "invoice missing subscription details", nil)
	}
	orgID := invoice.Parent.SubscriptionDetails.Metadata[orgMetadataKey]
	if orgID == "" {
		return nil, NewStripeError(ErrCodeInvalidEvent, "invoice missing organization metadata", nil)
	}

	paymentTime := time.Now()
	if invoice.EffectiveAt > 0 {
		paymentTime = time.Unix(invoice.EffectiveAt, 0)
	}

	return &InvoiceInfo{
		ID:          invoice.ID,
		PaymentTime: paymentTime,
		OrgID:       orgID,
	}, nil
}
