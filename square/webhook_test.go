package square

import (
	"testing"

	"github.com/Zrodkin/ShulPadServer-sub001/db"
	qt "github.com/frankban/quicktest"
)

const (
	testSignatureKey = "whsk_test_key"
	testWebhookURL   = "https://api.example.org/webhooks/square"
)

func TestVerifySignature(t *testing.T) {
	c := qt.New(t)
	body := []byte(`{"event_id":"evt-1","type":"subscription.updated"}`)

	sig := ComputeSignature(testSignatureKey, testWebhookURL, body)
	c.Assert(VerifySignature(testSignatureKey, testWebhookURL, body, sig), qt.IsTrue)

	// any change to key, URL, body or signature must invalidate
	c.Assert(VerifySignature("other-key", testWebhookURL, body, sig), qt.IsFalse)
	c.Assert(VerifySignature(testSignatureKey, "https://elsewhere", body, sig), qt.IsFalse)
	c.Assert(VerifySignature(testSignatureKey, testWebhookURL, []byte(`{}`), sig), qt.IsFalse)
	c.Assert(VerifySignature(testSignatureKey, testWebhookURL, body, "bogus"), qt.IsFalse)
	c.Assert(VerifySignature(testSignatureKey, testWebhookURL, body, ""), qt.IsFalse)
	c.Assert(VerifySignature("", testWebhookURL, body, sig), qt.IsFalse)
}

func TestParseEvent(t *testing.T) {
	c := qt.New(t)

	event, err := ParseEvent([]byte(`{
		"merchant_id": "MLSQ1",
		"type": "subscription.updated",
		"event_id": "evt-42",
		"created_at": "2026-05-01T10:00:00Z",
		"data": {
			"type": "subscription",
			"id": "sq-sub-1",
			"object": {"subscription": {"id": "sq-sub-1", "status": "ACTIVE"}}
		}
	}`))
	c.Assert(err, qt.IsNil)
	c.Assert(event.EventID, qt.Equals, "evt-42")
	c.Assert(event.MerchantID, qt.Equals, "MLSQ1")

	sub, err := subscriptionFromEvent(event)
	c.Assert(err, qt.IsNil)
	c.Assert(sub.ID, qt.Equals, "sq-sub-1")
	c.Assert(sub.Status, qt.Equals, "ACTIVE")

	_, err = ParseEvent([]byte(`not json`))
	c.Assert(err, qt.IsNotNil)
	_, err = ParseEvent([]byte(`{"type":"subscription.updated"}`))
	c.Assert(err, qt.IsNotNil)
}

func TestMapSubscriptionStatus(t *testing.T) {
	c := qt.New(t)

	cases := []struct {
		name     string
		sub      Subscription
		expected db.SubscriptionStatus
	}{
		{"active", Subscription{Status: "ACTIVE"}, db.StatusActive},
		{
			"active with scheduled cancellation",
			Subscription{Status: "ACTIVE", CanceledDate: "2026-06-30"},
			db.StatusPendingCancellation,
		},
		{"canceled", Subscription{Status: "CANCELED"}, db.StatusCanceled},
		{"deactivated", Subscription{Status: "DEACTIVATED"}, db.StatusCanceled},
		{"paused", Subscription{Status: "PAUSED"}, db.StatusPaused},
		{"pending", Subscription{Status: "PENDING"}, db.StatusIncomplete},
		{"unknown", Subscription{Status: "SOMETHING_NEW"}, db.StatusIncomplete},
	}
	for _, tc := range cases {
		c.Run(tc.name, func(c *qt.C) {
			c.Assert(mapSubscriptionStatus(&tc.sub), qt.Equals, tc.expected)
		})
	}
}
