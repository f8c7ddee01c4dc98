package stripe

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/Zrodkin/ShulPadServer-sub001/db"
	qt "github.com/frankban/quicktest"
	"github.com/google/uuid"
	stripeapi "github.com/stripe/stripe-go/v82"
	"gorm.io/driver/sqlite"
)

const testWebhookSecret = "whsec_test_secret"

var testDB *db.Storage

func TestMain(m *testing.M) {
	var err error
	testDB, err = db.New(sqlite.Open(fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())))
	if err != nil {
		panic(err)
	}
	defer testDB.Close()
	os.Exit(m.Run())
}

// newTestService builds a service wired to the shared test storage. The
// client stays nil: event reconciliation never talks to the Stripe API.
func newTestService() *Service {
	return &Service{
		repo:        testDB,
		events:      NewMemoryEventStore(0),
		lockManager: NewLockManager(),
		config: &Config{
			WebhookSecret: testWebhookSecret,
			Plans: []Plan{{
				ID:             "standard",
				Name:           "Standard",
				MonthlyPriceID: "price_std_month",
				AnnualPriceID:  "price_std_year",
			}},
		},
	}
}

// mockSubscriptionEvent builds a webhook event carrying a subscription
// object, the way Stripe delivers customer.subscription.* events.
func mockSubscriptionEvent(c *qt.C, eventID string, eventType stripeapi.EventType,
	sub *stripeapi.Subscription,
) *stripeapi.Event {
	raw, err := json.Marshal(sub)
	c.Assert(err, qt.IsNil)
	return &stripeapi.Event{
		ID:   eventID,
		Type: eventType,
		Data: &stripeapi.EventData{Raw: raw},
	}
}

func mockSubscription(orgID, priceID string, status stripeapi.SubscriptionStatus,
	cancelAtPeriodEnd bool,
) *stripeapi.Subscription {
	now := time.Now()
	return &stripeapi.Subscription{
		ID:                "sub_test_1",
		Status:            status,
		CancelAtPeriodEnd: cancelAtPeriodEnd,
		Metadata:          map[string]string{orgMetadataKey: orgID},
		Customer:          &stripeapi.Customer{ID: "cus_test_1"},
		Items: &stripeapi.SubscriptionItemList{
			Data: []*stripeapi.SubscriptionItem{{
				Quantity:           2,
				CurrentPeriodStart: now.Unix(),
				CurrentPeriodEnd:   now.Add(30 * 24 * time.Hour).Unix(),
				Price: &stripeapi.Price{
					ID:   priceID,
					Type: stripeapi.PriceTypeRecurring,
					Recurring: &stripeapi.PriceRecurring{
						Interval: stripeapi.PriceRecurringIntervalMonth,
					},
				},
			}},
		},
	}
}

func TestMapSubscriptionStatus(t *testing.T) {
	c := qt.New(t)

	cases := []struct {
		name     string
		info     SubscriptionInfo
		expected db.SubscriptionStatus
	}{
		{"active", SubscriptionInfo{Status: stripeapi.SubscriptionStatusActive}, db.StatusActive},
		{
			"active with scheduled cancellation",
			SubscriptionInfo{Status: stripeapi.SubscriptionStatusActive, CancelAtPeriodEnd: true},
			db.StatusPendingCancellation,
		},
		{"trialing", SubscriptionInfo{Status: stripeapi.SubscriptionStatusTrialing}, db.StatusTrialing},
		{
			"trialing with scheduled cancellation",
			SubscriptionInfo{Status: stripeapi.SubscriptionStatusTrialing, CancelAtPeriodEnd: true},
			db.StatusPendingCancellation,
		},
		{"canceled", SubscriptionInfo{Status: stripeapi.SubscriptionStatusCanceled}, db.StatusCanceled},
		{"unpaid", SubscriptionInfo{Status: stripeapi.SubscriptionStatusUnpaid}, db.StatusCanceled},
		{"incomplete expired", SubscriptionInfo{Status: stripeapi.SubscriptionStatusIncompleteExpired}, db.StatusCanceled},
		{"past due", SubscriptionInfo{Status: stripeapi.SubscriptionStatusPastDue}, db.StatusPastDue},
		{"paused", SubscriptionInfo{Status: stripeapi.SubscriptionStatusPaused}, db.StatusPaused},
		{"incomplete", SubscriptionInfo{Status: stripeapi.SubscriptionStatusIncomplete}, db.StatusIncomplete},
	}
	for _, tc := range cases {
		c.Run(tc.name, func(c *qt.C) {
			c.Assert(mapSubscriptionStatus(&tc.info), qt.Equals, tc.expected)
		})
	}
}

func TestHandleSubscriptionEvents(t *testing.T) {
	c := qt.New(t)
	defer func() { _ = testDB.Reset() }()

	service := newTestService()
	org := &db.Organization{Name: "stripe-org", Email: "billing@example.org"}
	c.Assert(testDB.SetOrganization(org), qt.IsNil)

	c.Run("subscription created", func(c *qt.C) {
		event := mockSubscriptionEvent(c, "evt_1", stripeapi.EventTypeCustomerSubscriptionCreated,
			mockSubscription(org.ID, "price_std_month", stripeapi.SubscriptionStatusActive, false))
		c.Assert(service.HandleEvent(event), qt.IsNil)

		sub, err := testDB.Subscription(org.ID, db.ProviderStripe)
		c.Assert(err, qt.IsNil)
		c.Assert(sub.Status, qt.Equals, db.StatusActive)
		c.Assert(sub.PlanID, qt.Equals, "standard")
		c.Assert(sub.BillingPeriod, qt.Equals, db.BillingPeriodMonthly)
		c.Assert(sub.DeviceQuantity, qt.Equals, 2)
	})

	c.Run("scheduled cancellation", func(c *qt.C) {
		remote := mockSubscription(org.ID, "price_std_month", stripeapi.SubscriptionStatusActive, true)
		remote.CancelAt = time.Now().Add(20 * 24 * time.Hour).Unix()
		event := mockSubscriptionEvent(c, "evt_2", stripeapi.EventTypeCustomerSubscriptionUpdated, remote)
		c.Assert(service.HandleEvent(event), qt.IsNil)

		sub, err := testDB.Subscription(org.ID, db.ProviderStripe)
		c.Assert(err, qt.IsNil)
		c.Assert(sub.Status, qt.Equals, db.StatusPendingCancellation)
		c.Assert(sub.CancelAt, qt.IsNotNil)
	})

	c.Run("deleted event is terminal", func(c *qt.C) {
		// deleted events can carry a stale status, the mapping must not matter
		event := mockSubscriptionEvent(c, "evt_3", stripeapi.EventTypeCustomerSubscriptionDeleted,
			mockSubscription(org.ID, "price_std_month", stripeapi.SubscriptionStatusActive, false))
		c.Assert(service.HandleEvent(event), qt.IsNil)

		sub, err := testDB.Subscription(org.ID, db.ProviderStripe)
		c.Assert(err, qt.IsNil)
		c.Assert(sub.Status, qt.Equals, db.StatusCanceled)
	})

	c.Run("unknown organization", func(c *qt.C) {
		event := mockSubscriptionEvent(c, "evt_4", stripeapi.EventTypeCustomerSubscriptionCreated,
			mockSubscription(uuid.NewString(), "price_std_month", stripeapi.SubscriptionStatusActive, false))
		err := service.HandleEvent(event)
		c.Assert(err, qt.IsNotNil)
		c.Assert(IsStripeErrorCode(err, ErrCodeOrgNotFound), qt.IsTrue)
	})

	c.Run("missing metadata", func(c *qt.C) {
		remote := mockSubscription("", "price_std_month", stripeapi.SubscriptionStatusActive, false)
		remote.Metadata = nil
		event := mockSubscriptionEvent(c, "evt_5", stripeapi.EventTypeCustomerSubscriptionCreated, remote)
		err := service.HandleEvent(event)
		c.Assert(err, qt.IsNotNil)
		c.Assert(IsStripeErrorCode(err, ErrCodeInvalidEvent), qt.IsTrue)
	})

	c.Run("audit trail written", func(c *qt.C) {
		events, err := testDB.SubscriptionEvents(org.ID, 10)
		c.Assert(err, qt.IsNil)
		c.Assert(len(events) >= 3, qt.IsTrue)
	})
}

func TestHandleInvoiceEvents(t *testing.T) {
	c := qt.New(t)
	defer func() { _ = testDB.Reset() }()

	service := newTestService()
	org := &db.Organization{Name: "invoice-org", Email: "invoices@example.org"}
	c.Assert(testDB.SetOrganization(org), qt.IsNil)
	c.Assert(testDB.SetSubscription(&db.Subscription{
		OrganizationID:         org.ID,
		Provider:               db.ProviderStripe,
		ProviderSubscriptionID: "sub_test_1",
		Status:                 db.StatusActive,
	}), qt.IsNil)

	mockInvoiceEvent := func(eventID string, eventType stripeapi.EventType, effectiveAt int64) *stripeapi.Event {
		raw, err := json.Marshal(&stripeapi.Invoice{
			ID:          "in_test_1",
			EffectiveAt: effectiveAt,
			Parent: &stripeapi.InvoiceParent{
				Type: "subscription_details",
				SubscriptionDetails: &stripeapi.InvoiceParentSubscriptionDetails{
					Metadata: map[string]string{orgMetadataKey: org.ID},
				},
			},
		})
		c.Assert(err, qt.IsNil)
		return &stripeapi.Event{ID: eventID, Type: eventType, Data: &stripeapi.EventData{Raw: raw}}
	}

	c.Run("payment failure marks past due", func(c *qt.C) {
		event := mockInvoiceEvent("evt_inv_1", stripeapi.EventTypeInvoicePaymentFailed, 0)
		c.Assert(service.HandleEvent(event), qt.IsNil)

		sub, err := testDB.Subscription(org.ID, db.ProviderStripe)
		c.Assert(err, qt.IsNil)
		c.Assert(sub.Status, qt.Equals, db.StatusPastDue)
	})

	c.Run("payment success restores active", func(c *qt.C) {
		paidAt := time.Now().Add(-time.Hour)
		event := mockInvoiceEvent("evt_inv_2", stripeapi.EventTypeInvoicePaymentSucceeded, paidAt.Unix())
		c.Assert(service.HandleEvent(event), qt.IsNil)

		sub, err := testDB.Subscription(org.ID, db.ProviderStripe)
		c.Assert(err, qt.IsNil)
		c.Assert(sub.Status, qt.Equals, db.StatusActive)
		c.Assert(sub.LastPaymentAt.Unix(), qt.Equals, paidAt.Unix())
	})
}

// signPayload builds a Stripe-Signature header for the payload, the same
// scheme stripe-go's webhook.ConstructEvent verifies.
func signPayload(payload []byte, secret string, at time.Time) string {
	mac := hmac.New(sha256.New, []byte(secret))
	fmt.Fprintf(mac, "%d.%s", at.Unix(), payload)
	return fmt.Sprintf("t=%d,v1=%s", at.Unix(), hex.EncodeToString(mac.Sum(nil)))
}

func TestHandleWebhookEvent(t *testing.T) {
	c := qt.New(t)
	defer func() { _ = testDB.Reset() }()

	service := newTestService()
	service.client = NewClient(service.config)
	org := &db.Organization{Name: "webhook-org", Email: "hooks@example.org"}
	c.Assert(testDB.SetOrganization(org), qt.IsNil)

	remote := mockSubscription(org.ID, "price_std_month", stripeapi.SubscriptionStatusActive, false)
	// no customer reference, so reconciliation stays offline
	remote.Customer = nil
	raw, err := json.Marshal(remote)
	c.Assert(err, qt.IsNil)
	payload := []byte(fmt.Sprintf(`{"id":"evt_sig_1","type":"customer.subscription.created","api_version":%q,"data":{"object":%s}}`,
		stripeapi.APIVersion, raw))

	c.Run("rejects bad signature", func(c *qt.C) {
		err := service.HandleWebhookEvent(payload, "t=1,v1=deadbeef")
		c.Assert(err, qt.IsNotNil)
		c.Assert(IsStripeErrorCode(err, ErrCodeWebhookValidation), qt.IsTrue)
	})

	c.Run("accepts valid signature and dedupes", func(c *qt.C) {
		sig := signPayload(payload, testWebhookSecret, time.Now())
		c.Assert(service.HandleWebhookEvent(payload, sig), qt.IsNil)

		sub, err := testDB.Subscription(org.ID, db.ProviderStripe)
		c.Assert(err, qt.IsNil)
		c.Assert(sub.Status, qt.Equals, db.StatusActive)

		// mutate the local state and replay; the duplicate must be ignored
		sub.Status = db.StatusPaused
		c.Assert(testDB.SetSubscription(sub), qt.IsNil)
		c.Assert(service.HandleWebhookEvent(payload, sig), qt.IsNil)
		sub, err = testDB.Subscription(org.ID, db.ProviderStripe)
		c.Assert(err, qt.IsNil)
		c.Assert(sub.Status, qt.Equals, db.StatusPaused)
	})
}
