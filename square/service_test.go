package square

import (
	"encoding/json"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/Zrodkin/ShulPadServer-sub001/db"
	qt "github.com/frankban/quicktest"
	"github.com/google/uuid"
	"gorm.io/driver/sqlite"
)

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
// client stays nil: webhook reconciliation never talks to the Square API.
func newTestService() *Service {
	return NewService(nil, &Config{
		ApplicationID:       "app-id",
		ApplicationSecret:   "app-secret",
		Environment:         EnvironmentSandbox,
		WebhookSignatureKey: testSignatureKey,
		WebhookURL:          testWebhookURL,
	}, testDB, db.NewProviderEventStore(testDB, db.ProviderSquare))
}

// connectedOrg inserts an organization with a Square connection.
func connectedOrg(c *qt.C, merchantID string) *db.Organization {
	org := &db.Organization{Name: "org-" + merchantID, Email: merchantID + "@example.org"}
	c.Assert(testDB.SetOrganization(org), qt.IsNil)
	c.Assert(testDB.SetMerchantConnection(&db.MerchantConnection{
		OrganizationID: org.ID,
		Provider:       db.ProviderSquare,
		MerchantID:     merchantID,
		LocationID:     "L1",
		AccessToken:    "at",
		RefreshToken:   "rt",
		ExpiresAt:      time.Now().Add(30 * 24 * time.Hour),
	}), qt.IsNil)
	return org
}

// subscriptionEvent builds a signed webhook payload carrying a subscription.
func subscriptionEvent(c *qt.C, eventID, eventType, merchantID string, sub *Subscription) ([]byte, string) {
	wrapped, err := json.Marshal(map[string]any{"subscription": sub})
	c.Assert(err, qt.IsNil)
	payload, err := json.Marshal(&WebhookEvent{
		MerchantID: merchantID,
		Type:       eventType,
		EventID:    eventID,
		CreatedAt:  time.Now().Format(time.RFC3339),
		Data: WebhookEventData{
			Type:   "subscription",
			ID:     sub.ID,
			Object: wrapped,
		},
	})
	c.Assert(err, qt.IsNil)
	return payload, ComputeSignature(testSignatureKey, testWebhookURL, payload)
}

func invoiceEvent(c *qt.C, eventID, eventType, merchantID string, invoice *Invoice) ([]byte, string) {
	wrapped, err := json.Marshal(map[string]any{"invoice": invoice})
	c.Assert(err, qt.IsNil)
	payload, err := json.Marshal(&WebhookEvent{
		MerchantID: merchantID,
		Type:       eventType,
		EventID:    eventID,
		CreatedAt:  time.Now().Format(time.RFC3339),
		Data: WebhookEventData{
			Type:   "invoice",
			ID:     invoice.ID,
			Object: wrapped,
		},
	})
	c.Assert(err, qt.IsNil)
	return payload, ComputeSignature(testSignatureKey, testWebhookURL, payload)
}

func TestHandleWebhookEvent(t *testing.T) {
	c := qt.New(t)
	defer func() { _ = testDB.Reset() }()

	service := newTestService()
	org := connectedOrg(c, "MLSQ-WEB")

	c.Run("rejects bad signature", func(c *qt.C) {
		payload, _ := subscriptionEvent(c, "evt-sig", "subscription.updated", "MLSQ-WEB",
			&Subscription{ID: "sq-sub-1", Status: "ACTIVE"})
		err := service.HandleWebhookEvent(payload, "tampered")
		c.Assert(err, qt.IsNotNil)
		c.Assert(IsSquareErrorCode(err, ErrCodeWebhookValidation), qt.IsTrue)
	})

	c.Run("subscription created", func(c *qt.C) {
		payload, sig := subscriptionEvent(c, "evt-1", "subscription.created", "MLSQ-WEB", &Subscription{
			ID:                 "sq-sub-1",
			Status:             "ACTIVE",
			PlanVariationID:    "plan-standard",
			StartDate:          "2026-05-01",
			ChargedThroughDate: "2026-06-01",
		})
		c.Assert(service.HandleWebhookEvent(payload, sig), qt.IsNil)

		sub, err := testDB.Subscription(org.ID, db.ProviderSquare)
		c.Assert(err, qt.IsNil)
		c.Assert(sub.Status, qt.Equals, db.StatusActive)
		c.Assert(sub.ProviderSubscriptionID, qt.Equals, "sq-sub-1")
		c.Assert(sub.PlanID, qt.Equals, "plan-standard")
		c.Assert(sub.CancelAt, qt.IsNil)
	})

	c.Run("duplicate delivery is a no-op", func(c *qt.C) {
		payload, sig := subscriptionEvent(c, "evt-1", "subscription.created", "MLSQ-WEB", &Subscription{
			ID:     "sq-sub-1",
			Status: "CANCELED",
		})
		c.Assert(service.HandleWebhookEvent(payload, sig), qt.IsNil)

		// the canceled status of the replayed event must not be applied
		sub, err := testDB.Subscription(org.ID, db.ProviderSquare)
		c.Assert(err, qt.IsNil)
		c.Assert(sub.Status, qt.Equals, db.StatusActive)
	})

	c.Run("scheduled cancellation", func(c *qt.C) {
		payload, sig := subscriptionEvent(c, "evt-2", "subscription.updated", "MLSQ-WEB", &Subscription{
			ID:                 "sq-sub-1",
			Status:             "ACTIVE",
			PlanVariationID:    "plan-standard",
			CanceledDate:       "2026-06-30",
			ChargedThroughDate: "2026-06-30",
		})
		c.Assert(service.HandleWebhookEvent(payload, sig), qt.IsNil)

		sub, err := testDB.Subscription(org.ID, db.ProviderSquare)
		c.Assert(err, qt.IsNil)
		c.Assert(sub.Status, qt.Equals, db.StatusPendingCancellation)
		c.Assert(sub.CancelAt, qt.IsNotNil)
		c.Assert(sub.CancelAt.Format("2006-01-02"), qt.Equals, "2026-06-30")
	})

	c.Run("failed invoice marks past due", func(c *qt.C) {
		payload, sig := invoiceEvent(c, "evt-3", "invoice.scheduled_charge_failed", "MLSQ-WEB", &Invoice{
			ID:             "inv-1",
			SubscriptionID: "sq-sub-1",
			Status:         "FAILED",
		})
		c.Assert(service.HandleWebhookEvent(payload, sig), qt.IsNil)

		sub, err := testDB.Subscription(org.ID, db.ProviderSquare)
		c.Assert(err, qt.IsNil)
		c.Assert(sub.Status, qt.Equals, db.StatusPastDue)
	})

	c.Run("paid invoice restores active", func(c *qt.C) {
		payload, sig := invoiceEvent(c, "evt-4", "invoice.payment_made", "MLSQ-WEB", &Invoice{
			ID:             "inv-2",
			SubscriptionID: "sq-sub-1",
			Status:         "PAID",
		})
		c.Assert(service.HandleWebhookEvent(payload, sig), qt.IsNil)

		sub, err := testDB.Subscription(org.ID, db.ProviderSquare)
		c.Assert(err, qt.IsNil)
		c.Assert(sub.Status, qt.Equals, db.StatusActive)
		c.Assert(sub.LastPaymentAt.IsZero(), qt.IsFalse)
	})

	c.Run("final cancellation", func(c *qt.C) {
		payload, sig := subscriptionEvent(c, "evt-5", "subscription.updated", "MLSQ-WEB", &Subscription{
			ID:           "sq-sub-1",
			Status:       "CANCELED",
			CanceledDate: "2026-06-30",
		})
		c.Assert(service.HandleWebhookEvent(payload, sig), qt.IsNil)

		sub, err := testDB.Subscription(org.ID, db.ProviderSquare)
		c.Assert(err, qt.IsNil)
		c.Assert(sub.Status, qt.Equals, db.StatusCanceled)

		events, err := testDB.SubscriptionEvents(org.ID, 10)
		c.Assert(err, qt.IsNil)
		c.Assert(len(events) >= 3, qt.IsTrue)
	})

	c.Run("unknown merchant", func(c *qt.C) {
		payload, sig := subscriptionEvent(c, "evt-6", "subscription.updated", "MLSQ-GHOST",
			&Subscription{ID: "sq-sub-x", Status: "ACTIVE"})
		err := service.HandleWebhookEvent(payload, sig)
		c.Assert(err, qt.IsNotNil)
		c.Assert(IsSquareErrorCode(err, ErrCodeMerchantNotFound), qt.IsTrue)
	})

	c.Run("authorization revoked removes connection", func(c *qt.C) {
		payload, err := json.Marshal(&WebhookEvent{
			MerchantID: "MLSQ-WEB",
			Type:       "oauth.authorization.revoked",
			EventID:    "evt-7",
			CreatedAt:  time.Now().Format(time.RFC3339),
			Data:       WebhookEventData{Type: "revocation", Object: json.RawMessage(`{}`)},
		})
		c.Assert(err, qt.IsNil)
		sig := ComputeSignature(testSignatureKey, testWebhookURL, payload)
		c.Assert(service.HandleWebhookEvent(payload, sig), qt.IsNil)

		_, err = testDB.MerchantConnection(org.ID, db.ProviderSquare)
		c.Assert(err, qt.Equals, db.ErrNotFound)
	})
}

func TestBeginOAuth(t *testing.T) {
	c := qt.New(t)
	defer func() { _ = testDB.Reset() }()

	service := newTestService()
	client, err := NewClient(service.config)
	c.Assert(err, qt.IsNil)
	service.client = client

	org := &db.Organization{Name: "oauth-org", Email: "oauth@example.org"}
	c.Assert(testDB.SetOrganization(org), qt.IsNil)

	authURL, err := service.BeginOAuth(org.ID, "ipad-1", "shulpad://oauth")
	c.Assert(err, qt.IsNil)
	c.Assert(authURL, qt.Contains, "connect.squareupsandbox.com/oauth2/authorize")
	c.Assert(authURL, qt.Contains, "client_id=app-id")

	_, err = service.BeginOAuth("00000000-0000-0000-0000-000000000000", "ipad-1", "")
	c.Assert(err, qt.Equals, db.ErrNotFound)
}
