// Package stripe provides the Stripe side of the billing integration:
// subscription checkout, the billing portal and webhook reconciliation.
package stripe

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/Zrodkin/ShulPadServer-sub001/db"
	"github.com/Zrodkin/ShulPadServer-sub001/internal/log"
	stripeapi "github.com/stripe/stripe-go/v82"
)

// Repository is the storage interface the Stripe service needs. Implemented
// by *db.Storage.
type Repository interface {
	Organization(id string) (*db.Organization, error)
	Subscription(orgID string, provider db.Provider) (*db.Subscription, error)
	SubscriptionByProviderID(provider db.Provider, providerSubID string) (*db.Subscription, error)
	SetSubscription(sub *db.Subscription) error
	AppendSubscriptionEvent(ev *db.SubscriptionEvent) error
}

// Service provides the main business logic for Stripe operations
type Service struct {
	client      *Client
	repo        Repository
	events      EventStore
	lockManager *LockManager
	config      *Config
}

// NewService creates a new Stripe service. A nil events store falls back to
// an in-memory one.
func NewService(config *Config, repo Repository, events EventStore) (*Service, error) {
	if config == nil {
		return nil, fmt.Errorf("config is required")
	}
	if repo == nil {
		return nil, fmt.Errorf("repository is required")
	}
	if events == nil {
		events = NewMemoryEventStore(0)
	}

	return &Service{
		client:      NewClient(config),
		repo:        repo,
		events:      events,
		lockManager: NewLockManager(),
		config:      config,
	}, nil
}

// HandleWebhookEvent processes a webhook event with idempotency
func (s *Service) HandleWebhookEvent(payload []byte, signatureHeader string) error {
	event, err := s.client.ValidateWebhookEvent(payload, signatureHeader)
	if err != nil {
		return err
	}

	if s.events.EventExists(event.ID) {
		log.Debugf("stripe webhook: event %s already processed, skipping", event.ID)
		return nil
	}

	if err := s.HandleEvent(event); err != nil {
		return err
	}

	if err := s.events.MarkProcessed(event.ID); err != nil && !errors.Is(err, db.ErrAlreadyExists) {
		log.Warnw("failed to mark event processed", "event", event.ID, "error", err)
	}
	return nil
}

// HandleEvent dispatches an already validated webhook event.
func (s *Service) HandleEvent(event *stripeapi.Event) error {
	switch event.Type {
	case stripeapi.EventTypeCustomerSubscriptionCreated,
		stripeapi.EventTypeCustomerSubscriptionUpdated,
		stripeapi.EventTypeCustomerSubscriptionDeleted:
		return s.handleSubscription(event)
	case stripeapi.EventTypeInvoicePaymentSucceeded:
		return s.handleInvoicePaid(event)
	case stripeapi.EventTypeInvoicePaymentFailed:
		return s.handleInvoiceFailed(event)
	case stripeapi.EventTypeCheckoutSessionCompleted:
		return s.handleCheckoutCompleted(event)
	default:
		log.Debugf("stripe webhook: received unhandled event type %s (id %s)", event.Type, event.ID)
		return nil
	}
}

// mapSubscriptionStatus maps a Stripe subscription to the local billing
// state. An active or trialing subscription with cancel_at_period_end set
// means a cancellation is scheduled but not effective yet.
func mapSubscriptionStatus(info *SubscriptionInfo) db.SubscriptionStatus {
	switch info.Status {
	case stripeapi.SubscriptionStatusActive:
		if info.CancelAtPeriodEnd {
			return db.StatusPendingCancellation
		}
		return db.StatusActive
	case stripeapi.SubscriptionStatusTrialing:
		if info.CancelAtPeriodEnd {
			return db.StatusPendingCancellation
		}
		return db.StatusTrialing
	case stripeapi.SubscriptionStatusCanceled,
		stripeapi.SubscriptionStatusUnpaid,
		stripeapi.SubscriptionStatusIncompleteExpired:
		return db.StatusCanceled
	case stripeapi.SubscriptionStatusPastDue:
		return db.StatusPastDue
	case stripeapi.SubscriptionStatusPaused:
		return db.StatusPaused
	default:
		return db.StatusIncomplete
	}
}

// handleSubscription reconciles the local subscription mirror with a
// customer.subscription.* event.
func (s *Service) handleSubscription(event *stripeapi.Event) error {
	info, err := parseSubscriptionFromEvent(event)
	if err != nil {
		return err
	}

	unlock := s.lockManager.LockOrganization(info.OrgID)
	defer unlock()

	org, err := s.repo.Organization(info.OrgID)
	if err != nil {
		return NewStripeError(ErrCodeOrgNotFound,
			fmt.Sprintf("organization %s not found for subscription %s", info.OrgID, info.ID), err)
	}

	status := mapSubscriptionStatus(info)
	// a deleted event is terminal regardless of the carried status
	if event.Type == stripeapi.EventTypeCustomerSubscriptionDeleted {
		status = db.StatusCanceled
	}

	planID := info.PriceID
	if plan, ok := s.config.PlanByPriceID(info.PriceID); ok {
		planID = plan.ID
	}

	sub, err := s.repo.Subscription(org.ID, db.ProviderStripe)
	if err != nil {
		if !errors.Is(err, db.ErrNotFound) {
			return err
		}
		sub = &db.Subscription{
			OrganizationID: org.ID,
			Provider:       db.ProviderStripe,
		}
	}
	sub.ProviderSubscriptionID = info.ID
	sub.PlanID = planID
	sub.Status = status
	sub.BillingPeriod = info.BillingPeriod
	sub.DeviceQuantity = int(info.Quantity)
	sub.CurrentPeriodStart = info.StartDate
	sub.CurrentPeriodEnd = info.EndDate
	if !info.CancelAt.IsZero() {
		cancelAt := info.CancelAt
		sub.CancelAt = &cancelAt
	} else if status != db.StatusPendingCancellation {
		sub.CancelAt = nil
	}
	if sub.CustomerEmail == "" && s.client != nil && info.CustomerID != "" {
		if customer, err := s.client.GetCustomer(info.CustomerID); err == nil {
			sub.CustomerEmail = customer.Email
		}
	}
	if err := s.repo.SetSubscription(sub); err != nil {
		return NewStripeError(ErrCodeEventProcessing, "failed to store subscription", err)
	}

	if err := s.repo.AppendSubscriptionEvent(&db.SubscriptionEvent{
		OrganizationID: org.ID,
		Provider:       db.ProviderStripe,
		EventID:        event.ID,
		EventType:      string(event.Type),
		Status:         status,
		Detail:         fmt.Sprintf("subscription %s is %s", info.ID, info.Status),
	}); err != nil {
		log.Warnw("failed to append subscription event", "event", event.ID, "error", err)
	}

	log.Infow("stripe subscription reconciled",
		"org", org.ID,
		"subscription", info.ID,
		"status", status)
	return nil
}

// handleInvoicePaid records a successful charge on the local subscription.
func (s *Service) handleInvoicePaid(event *stripeapi.Event) error {
	invoice, err := parseInvoiceFromEvent(event)
	if err != nil {
		return err
	}

	unlock := s.lockManager.LockOrganization(invoice.OrgID)
	defer unlock()

	sub, err := s.repo.Subscription(invoice.OrgID, db.ProviderStripe)
	if err != nil {
		if errors.Is(err, db.ErrNotFound) {
			log.Debugw("invoice for organization without subscription", "org", invoice.OrgID)
			return nil
		}
		return err
	}
	sub.LastPaymentAt = invoice.PaymentTime
	if sub.Status == db.StatusPastDue {
		sub.Status = db.StatusActive
	}
	return s.repo.SetSubscription(sub)
}

// handleInvoiceFailed flags the local subscription as past due.
func (s *Service) handleInvoiceFailed(event *stripeapi.Event) error {
	invoice, err := parseInvoiceFromEvent(event)
	if err != nil {
		return err
	}

	unlock := s.lockManager.LockOrganization(invoice.OrgID)
	defer unlock()

	sub, err := s.repo.Subscription(invoice.OrgID, db.ProviderStripe)
	if err != nil {
		if errors.Is(err, db.ErrNotFound) {
			return nil
		}
		return err
	}
	sub.Status = db.StatusPastDue
	if err := s.repo.SetSubscription(sub); err != nil {
		return err
	}
	return s.repo.AppendSubscriptionEvent(&db.SubscriptionEvent{
		OrganizationID: sub.OrganizationID,
		Provider:       db.ProviderStripe,
		EventID:        event.ID,
		EventType:      string(event.Type),
		Status:         db.StatusPastDue,
		Detail:         fmt.Sprintf("invoice %s failed", invoice.ID),
	})
}

// handleCheckoutCompleted logs a finished checkout session. The subscription
// state itself arrives through the customer.subscription events.
func (s *Service) handleCheckoutCompleted(event *stripeapi.Event) error {
	var session stripeapi.CheckoutSession
	if err := json.Unmarshal(event.Data.Raw, &session); err != nil {
		return NewStripeError(ErrCodeInvalidEvent, "failed to parse checkout session from event", err)
	}
	email := ""
	if session.CustomerDetails != nil {
		email = session.CustomerDetails.Email
	}
	log.Infow("stripe checkout completed",
		"session", session.ID,
		"status", session.Status,
		"email", email)
	return nil
}

// CreateSubscriptionCheckout creates a checkout session for the given
// organization, plan and billing period.
func (s *Service) CreateSubscriptionCheckout(orgID, planID string, period db.BillingPeriod,
	customerEmail, locale string, quantity int64,
) (*stripeapi.CheckoutSession, error) {
	org, err := s.repo.Organization(orgID)
	if err != nil {
		return nil, NewStripeError(ErrCodeOrgNotFound, fmt.Sprintf("organization %s not found", orgID), err)
	}
	plan, ok := s.config.PlanByID(planID)
	if !ok {
		return nil, NewStripeError(ErrCodePlanNotFound, fmt.Sprintf("unknown plan %s", planID), nil)
	}
	priceID := plan.PriceID(period)
	if priceID == "" {
		return nil, NewStripeError(ErrCodePlanNotFound,
			fmt.Sprintf("plan %s has no %s price", planID, period), nil)
	}
	if customerEmail == "" {
		customerEmail = org.Email
	}
	return s.client.CreateCheckoutSession(&CheckoutSessionParams{
		PriceID:       priceID,
		ReturnURL:     s.config.ReturnURL,
		OrgID:         org.ID,
		CustomerEmail: customerEmail,
		Locale:        locale,
		Quantity:      quantity,
		TrialDays:     plan.TrialDays,
	})
}

// GetCheckoutSession retrieves the status of a checkout session.
func (s *Service) GetCheckoutSession(sessionID string) (*CheckoutSessionStatus, error) {
	return s.client.GetCheckoutSession(sessionID)
}

// CreatePortalSession creates a billing portal session for the organization.
func (s *Service) CreatePortalSession(orgID, returnURL string) (*stripeapi.BillingPortalSession, error) {
	if _, err := s.repo.Organization(orgID); err != nil {
		return nil, NewStripeError(ErrCodeOrgNotFound, fmt.Sprintf("organization %s not found", orgID), err)
	}
	if returnURL == "" {
		returnURL = s.config.ReturnURL
	}
	return s.client.CreatePortalSession(orgID, returnURL)
}
