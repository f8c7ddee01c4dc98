package square

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Zrodkin/ShulPadServer-sub001/db"
	"github.com/Zrodkin/ShulPadServer-sub001/internal"
	"github.com/Zrodkin/ShulPadServer-sub001/internal/log"
	"github.com/google/uuid"
)

// oauthStateTTL is how long an OAuth state token stays valid.
const oauthStateTTL = 10 * time.Minute

// Repository is the storage interface the Square service needs. Implemented
// by *db.Storage.
type Repository interface {
	Organization(id string) (*db.Organization, error)
	SetOAuthState(st *db.OAuthState) error
	ConsumeOAuthState(state string) (*db.OAuthState, error)
	SetMerchantConnection(conn *db.MerchantConnection) error
	MerchantConnection(orgID string, provider db.Provider) (*db.MerchantConnection, error)
	MerchantConnectionByMerchantID(merchantID string) (*db.MerchantConnection, error)
	MerchantConnectionsExpiringBefore(deadline time.Time) ([]*db.MerchantConnection, error)
	DelMerchantConnection(orgID string, provider db.Provider) error
	Subscription(orgID string, provider db.Provider) (*db.Subscription, error)
	SubscriptionByProviderID(provider db.Provider, providerSubID string) (*db.Subscription, error)
	SetSubscription(sub *db.Subscription) error
	AppendSubscriptionEvent(ev *db.SubscriptionEvent) error
}

// EventStore tracks processed webhook events for idempotency.
type EventStore interface {
	EventExists(eventID string) bool
	MarkProcessed(eventID string) error
}

// Service implements the Square side of the backend: the OAuth token
// lifecycle, kiosk passthrough calls and webhook reconciliation.
type Service struct {
	client *Client
	config *Config
	repo   Repository
	events EventStore
	locks  *LockManager
}

// NewService creates a new Square service.
func NewService(client *Client, config *Config, repo Repository, events EventStore) *Service {
	return &Service{
		client: client,
		config: config,
		repo:   repo,
		events: events,
		locks:  NewLockManager(),
	}
}

// BeginOAuth mints a single-use state token for the organization and returns
// the Square authorization URL the merchant's browser should be sent to.
func (s *Service) BeginOAuth(orgID, deviceID, redirectURI string) (string, error) {
	if _, err := s.repo.Organization(orgID); err != nil {
		return "", err
	}
	state := internal.RandomHex(16)
	if err := s.repo.SetOAuthState(&db.OAuthState{
		State:          state,
		OrganizationID: orgID,
		DeviceID:       deviceID,
		RedirectURI:    redirectURI,
		ExpiresAt:      time.Now().Add(oauthStateTTL),
	}); err != nil {
		return "", err
	}
	return s.client.AuthorizeURL(state), nil
}

// CompleteOAuth consumes the state token, exchanges the authorization code
// for tokens and stores the merchant connection. It returns the consumed
// state so the caller can honor its redirect URI.
func (s *Service) CompleteOAuth(ctx context.Context, state, code string) (*db.OAuthState, *db.MerchantConnection, error) {
	st, err := s.repo.ConsumeOAuthState(state)
	if err != nil {
		return nil, nil, err
	}
	token, err := s.client.ObtainToken(ctx, code)
	if err != nil {
		return st, nil, err
	}
	conn := &db.MerchantConnection{
		OrganizationID: st.OrganizationID,
		Provider:       db.ProviderSquare,
		MerchantID:     token.MerchantID,
		AccessToken:    token.AccessToken,
		RefreshToken:   token.RefreshToken,
		ExpiresAt:      parseRFC3339(token.ExpiresAt),
	}
	// best effort, the kiosk can pick the location later
	if loc, err := s.client.MainLocation(ctx, token.AccessToken); err == nil {
		conn.LocationID = loc.ID
	} else {
		log.Warnw("could not resolve main location", "merchant", token.MerchantID, "error", err)
	}
	if err := s.repo.SetMerchantConnection(conn); err != nil {
		return st, nil, err
	}
	log.Infow("square merchant connected",
		"org", st.OrganizationID,
		"merchant", token.MerchantID,
		"expires", conn.ExpiresAt)
	return st, conn, nil
}

// Connection returns the organization's Square connection.
func (s *Service) Connection(orgID string) (*db.MerchantConnection, error) {
	conn, err := s.repo.MerchantConnection(orgID, db.ProviderSquare)
	if err != nil {
		if errors.Is(err, db.ErrNotFound) {
			return nil, NewSquareError(ErrCodeNotConnected, "organization has no square connection", err)
		}
		return nil, err
	}
	return conn, nil
}

// RefreshConnection rotates the access token of a connection using its
// refresh token and persists the result.
func (s *Service) RefreshConnection(ctx context.Context, conn *db.MerchantConnection) error {
	token, err := s.client.RefreshToken(ctx, conn.RefreshToken)
	if err != nil {
		return err
	}
	conn.AccessToken = token.AccessToken
	if token.RefreshToken != "" {
		conn.RefreshToken = token.RefreshToken
	}
	conn.ExpiresAt = parseRFC3339(token.ExpiresAt)
	if err := s.repo.SetMerchantConnection(conn); err != nil {
		return err
	}
	log.Infow("square token refreshed",
		"org", conn.OrganizationID,
		"merchant", conn.MerchantID,
		"expires", conn.ExpiresAt)
	return nil
}

// RefreshExpiring refreshes every connection whose token expires within the
// given window. It returns how many connections were refreshed; individual
// failures are logged and skipped so one broken merchant cannot stall the
// sweep.
func (s *Service) RefreshExpiring(ctx context.Context, window time.Duration) (int, error) {
	conns, err := s.repo.MerchantConnectionsExpiringBefore(time.Now().Add(window))
	if err != nil {
		return 0, err
	}
	refreshed := 0
	for _, conn := range conns {
		if conn.Provider != db.ProviderSquare {
			continue
		}
		if err := s.RefreshConnection(ctx, conn); err != nil {
			log.Warnw("square token refresh failed",
				"org", conn.OrganizationID,
				"merchant", conn.MerchantID,
				"error", err)
			continue
		}
		refreshed++
	}
	return refreshed, nil
}

// Disconnect revokes the merchant authorization at Square and removes the
// local connection. Revocation failures are logged but do not keep the local
// state around, since the merchant asked to disconnect.
func (s *Service) Disconnect(ctx context.Context, orgID string) error {
	conn, err := s.Connection(orgID)
	if err != nil {
		return err
	}
	if err := s.client.RevokeToken(ctx, conn.MerchantID); err != nil {
		log.Warnw("square token revocation failed", "merchant", conn.MerchantID, "error", err)
	}
	return s.repo.DelMerchantConnection(orgID, db.ProviderSquare)
}

// Catalog returns the donation catalog of the organization's merchant.
func (s *Service) Catalog(ctx context.Context, orgID string) ([]CatalogObject, error) {
	conn, err := s.Connection(orgID)
	if err != nil {
		return nil, err
	}
	return s.client.ListCatalog(ctx, conn.AccessToken, "ITEM")
}

// SetDonationPresets replaces the preset donation amounts of the merchant's
// catalog with one item holding a fixed-price variation per amount.
func (s *Service) SetDonationPresets(ctx context.Context, orgID string, amounts []int64, currency string) (*CatalogObject, error) {
	conn, err := s.Connection(orgID)
	if err != nil {
		return nil, err
	}
	variations := make([]CatalogObject, 0, len(amounts))
	for i, amount := range amounts {
		variations = append(variations, CatalogObject{
			Type:                  "ITEM_VARIATION",
			ID:                    fmt.Sprintf("#preset-%d", i),
			PresentAtAllLocations: true,
			ItemVariationData: &CatalogItemVariation{
				Name:        internal.FormatAmount(amount, currency),
				PricingType: "FIXED_PRICING",
				PriceMoney:  &Money{Amount: amount, Currency: currency},
			},
		})
	}
	object := &CatalogObject{
		Type:                  "ITEM",
		ID:                    "#donation-presets",
		PresentAtAllLocations: true,
		ItemData: &CatalogItem{
			Name:       "Donation",
			Variations: variations,
		},
	}
	return s.client.UpsertCatalogObject(ctx, conn.AccessToken, uuid.NewString(), object)
}

// DonationRequest describes a kiosk donation to charge.
type DonationRequest struct {
	SourceID   string
	Amount     int64
	Currency   string
	DonorEmail string
	Note       string
}

// CreateDonationOrder creates an unpaid order for a kiosk donation. The
// kiosk pays it later through CreateDonationPayment or a card-present flow.
func (s *Service) CreateDonationOrder(ctx context.Context, orgID string, amount int64, currency, note string) (*Order, error) {
	conn, err := s.Connection(orgID)
	if err != nil {
		return nil, err
	}
	return s.client.CreateOrder(ctx, conn.AccessToken, uuid.NewString(), &Order{
		LocationID:  conn.LocationID,
		ReferenceID: orgID,
		LineItems: []OrderLineItem{{
			Name:           "Donation",
			Quantity:       "1",
			BasePriceMoney: &Money{Amount: amount, Currency: currency},
			Note:           note,
		}},
	})
}

// CreateDonationPayment creates an order and charges the payment source for
// a kiosk donation.
func (s *Service) CreateDonationPayment(ctx context.Context, orgID string, req *DonationRequest) (*Payment, error) {
	conn, err := s.Connection(orgID)
	if err != nil {
		return nil, err
	}
	order, err := s.client.CreateOrder(ctx, conn.AccessToken, uuid.NewString(), &Order{
		LocationID:  conn.LocationID,
		ReferenceID: orgID,
		LineItems: []OrderLineItem{{
			Name:           "Donation",
			Quantity:       "1",
			BasePriceMoney: &Money{Amount: req.Amount, Currency: req.Currency},
			Note:           req.Note,
		}},
	})
	if err != nil {
		return nil, err
	}
	return s.client.CreatePayment(ctx, conn.AccessToken, &CreatePaymentRequest{
		SourceID:          req.SourceID,
		IdempotencyKey:    uuid.NewString(),
		AmountMoney:       Money{Amount: req.Amount, Currency: req.Currency},
		OrderID:           order.ID,
		LocationID:        conn.LocationID,
		BuyerEmailAddress: req.DonorEmail,
		Note:              req.Note,
	})
}

// HandleWebhookEvent validates the signature of a webhook delivery and
// processes the event exactly once.
func (s *Service) HandleWebhookEvent(payload []byte, signature string) error {
	if !VerifySignature(s.config.WebhookSignatureKey, s.config.WebhookURL, payload, signature) {
		return NewSquareError(ErrCodeWebhookValidation, "webhook signature verification failed", nil)
	}
	event, err := ParseEvent(payload)
	if err != nil {
		return err
	}
	return s.HandleEvent(event)
}

// HandleEvent processes an already validated webhook event. Redeliveries of
// processed events are acknowledged without side effects.
func (s *Service) HandleEvent(event *WebhookEvent) error {
	if s.events.EventExists(event.EventID) {
		log.Debugw("skipping already processed event", "event", event.EventID, "type", event.Type)
		return nil
	}
	unlock := s.locks.AcquireLock(event.MerchantID)
	defer unlock()

	var err error
	switch event.Type {
	case "subscription.created", "subscription.updated":
		err = s.handleSubscriptionEvent(event)
	case "invoice.payment_made":
		err = s.handleInvoicePaid(event)
	case "invoice.scheduled_charge_failed", "invoice.payment_failed":
		err = s.handleInvoiceFailed(event)
	case "oauth.authorization.revoked":
		err = s.handleAuthorizationRevoked(event)
	default:
		log.Debugw("ignoring unhandled square event", "type", event.Type, "event", event.EventID)
		return nil
	}
	if err != nil {
		return err
	}
	if err := s.events.MarkProcessed(event.EventID); err != nil && !errors.Is(err, db.ErrAlreadyExists) {
		log.Warnw("failed to mark event processed", "event", event.EventID, "error", err)
	}
	return nil
}

// handleSubscriptionEvent reconciles the local subscription mirror with the
// subscription object carried by the event.
func (s *Service) handleSubscriptionEvent(event *WebhookEvent) error {
	remote, err := subscriptionFromEvent(event)
	if err != nil {
		return err
	}
	conn, err := s.repo.MerchantConnectionByMerchantID(event.MerchantID)
	if err != nil {
		if errors.Is(err, db.ErrNotFound) {
			return NewSquareError(ErrCodeMerchantNotFound,
				fmt.Sprintf("no connection for merchant %s", event.MerchantID), err)
		}
		return err
	}
	status := mapSubscriptionStatus(remote)

	sub, err := s.repo.Subscription(conn.OrganizationID, db.ProviderSquare)
	if err != nil {
		if !errors.Is(err, db.ErrNotFound) {
			return err
		}
		sub = &db.Subscription{
			OrganizationID: conn.OrganizationID,
			Provider:       db.ProviderSquare,
		}
	}
	sub.ProviderSubscriptionID = remote.ID
	sub.PlanID = remote.PlanVariationID
	sub.Status = status
	sub.CurrentPeriodStart = parseSquareDate(remote.StartDate)
	sub.CurrentPeriodEnd = parseSquareDate(remote.ChargedThroughDate)
	if remote.CanceledDate != "" {
		cancelAt := parseSquareDate(remote.CanceledDate)
		sub.CancelAt = &cancelAt
	} else {
		sub.CancelAt = nil
	}
	if err := s.repo.SetSubscription(sub); err != nil {
		return NewSquareError(ErrCodeEventProcessing, "failed to store subscription", err)
	}
	if err := s.repo.AppendSubscriptionEvent(&db.SubscriptionEvent{
		OrganizationID: conn.OrganizationID,
		Provider:       db.ProviderSquare,
		EventID:        event.EventID,
		EventType:      event.Type,
		Status:         status,
		Detail:         fmt.Sprintf("subscription %s is %s", remote.ID, remote.Status),
	}); err != nil {
		log.Warnw("failed to append subscription event", "event", event.EventID, "error", err)
	}
	log.Infow("square subscription reconciled",
		"org", conn.OrganizationID,
		"subscription", remote.ID,
		"status", status)
	return nil
}

// handleInvoicePaid records a successful charge on the local subscription.
func (s *Service) handleInvoicePaid(event *WebhookEvent) error {
	invoice, err := invoiceFromEvent(event)
	if err != nil {
		return err
	}
	if invoice.SubscriptionID == "" || invoice.Status != "PAID" {
		return nil
	}
	sub, err := s.repo.SubscriptionByProviderID(db.ProviderSquare, invoice.SubscriptionID)
	if err != nil {
		if errors.Is(err, db.ErrNotFound) {
			log.Debugw("invoice for unknown subscription", "subscription", invoice.SubscriptionID)
			return nil
		}
		return err
	}
	sub.LastPaymentAt = time.Now()
	if sub.Status == db.StatusPastDue {
		sub.Status = db.StatusActive
	}
	return s.repo.SetSubscription(sub)
}

// handleInvoiceFailed flags the local subscription as past due.
func (s *Service) handleInvoiceFailed(event *WebhookEvent) error {
	invoice, err := invoiceFromEvent(event)
	if err != nil {
		return err
	}
	if invoice.SubscriptionID == "" {
		return nil
	}
	sub, err := s.repo.SubscriptionByProviderID(db.ProviderSquare, invoice.SubscriptionID)
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
		Provider:       db.ProviderSquare,
		EventID:        event.EventID,
		EventType:      event.Type,
		Status:         db.StatusPastDue,
		Detail:         fmt.Sprintf("invoice %s failed", invoice.ID),
	})
}

// handleAuthorizationRevoked drops the local connection after the merchant
// revoked the app from the Square dashboard.
func (s *Service) handleAuthorizationRevoked(event *WebhookEvent) error {
	conn, err := s.repo.MerchantConnectionByMerchantID(event.MerchantID)
	if err != nil {
		if errors.Is(err, db.ErrNotFound) {
			return nil
		}
		return err
	}
	log.Infow("square authorization revoked remotely",
		"org", conn.OrganizationID,
		"merchant", event.MerchantID)
	return s.repo.DelMerchantConnection(conn.OrganizationID, db.ProviderSquare)
}

// parseRFC3339 parses a Square RFC 3339 timestamp, returning the zero time
// on failure.
func parseRFC3339(s string) time.Time {
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}
	}
	return t
}

// parseSquareDate parses Square's YYYY-MM-DD date strings.
func parseSquareDate(s string) time.Time {
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		return time.Time{}
	}
	return t
}
