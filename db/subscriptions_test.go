package db

import (
	"testing"
	"time"

	qt "github.com/frankban/quicktest"
)

func TestSubscriptions(t *testing.T) {
	c := qt.New(t)
	defer func() { _ = testDB.Reset() }()

	org := testOrganization("subscriptions")

	c.Run("set and get", func(c *qt.C) {
		_, err := testDB.Subscription(org.ID, ProviderSquare)
		c.Assert(err, qt.Equals, ErrNotFound)

		err = testDB.SetSubscription(&Subscription{
			OrganizationID:         org.ID,
			Provider:               ProviderSquare,
			ProviderSubscriptionID: "sq-sub-1",
			PlanID:                 "standard",
			Status:                 StatusActive,
			BillingPeriod:          BillingPeriodMonthly,
			DeviceQuantity:         2,
		})
		c.Assert(err, qt.IsNil)

		sub, err := testDB.Subscription(org.ID, ProviderSquare)
		c.Assert(err, qt.IsNil)
		c.Assert(sub.Status, qt.Equals, StatusActive)
		c.Assert(sub.PlanID, qt.Equals, "standard")
	})

	c.Run("upsert keeps single row per provider", func(c *qt.C) {
		cancelAt := time.Now().Add(10 * 24 * time.Hour)
		err := testDB.SetSubscription(&Subscription{
			OrganizationID:         org.ID,
			Provider:               ProviderSquare,
			ProviderSubscriptionID: "sq-sub-1",
			PlanID:                 "standard",
			Status:                 StatusPendingCancellation,
			CancelAt:               &cancelAt,
		})
		c.Assert(err, qt.IsNil)

		sub, err := testDB.Subscription(org.ID, ProviderSquare)
		c.Assert(err, qt.IsNil)
		c.Assert(sub.Status, qt.Equals, StatusPendingCancellation)
		c.Assert(sub.CancelAt, qt.IsNotNil)
	})

	c.Run("lookup by provider subscription id", func(c *qt.C) {
		sub, err := testDB.SubscriptionByProviderID(ProviderSquare, "sq-sub-1")
		c.Assert(err, qt.IsNil)
		c.Assert(sub.OrganizationID, qt.Equals, org.ID)

		_, err = testDB.SubscriptionByProviderID(ProviderStripe, "sq-sub-1")
		c.Assert(err, qt.Equals, ErrNotFound)
	})

	c.Run("active subscription", func(c *qt.C) {
		// pending cancellation still counts as entitled
		sub, err := testDB.ActiveSubscription(org.ID)
		c.Assert(err, qt.IsNil)
		c.Assert(sub.Status, qt.Equals, StatusPendingCancellation)

		sub.Status = StatusCanceled
		c.Assert(testDB.SetSubscription(sub), qt.IsNil)
		_, err = testDB.ActiveSubscription(org.ID)
		c.Assert(err, qt.Equals, ErrNotFound)
	})

	c.Run("audit trail", func(c *qt.C) {
		for _, status := range []SubscriptionStatus{StatusActive, StatusPendingCancellation, StatusCanceled} {
			err := testDB.AppendSubscriptionEvent(&SubscriptionEvent{
				OrganizationID: org.ID,
				Provider:       ProviderSquare,
				EventID:        "evt-" + string(status),
				EventType:      "subscription.updated",
				Status:         status,
			})
			c.Assert(err, qt.IsNil)
		}
		events, err := testDB.SubscriptionEvents(org.ID, 2)
		c.Assert(err, qt.IsNil)
		c.Assert(events, qt.HasLen, 2)
		c.Assert(events[0].Status, qt.Equals, StatusCanceled)
	})
}

func TestStatusEntitled(t *testing.T) {
	c := qt.New(t)
	c.Assert(StatusActive.Entitled(), qt.IsTrue)
	c.Assert(StatusTrialing.Entitled(), qt.IsTrue)
	c.Assert(StatusPendingCancellation.Entitled(), qt.IsTrue)
	c.Assert(StatusPastDue.Entitled(), qt.IsFalse)
	c.Assert(StatusCanceled.Entitled(), qt.IsFalse)
	c.Assert(StatusPaused.Entitled(), qt.IsFalse)
	c.Assert(StatusIncomplete.Entitled(), qt.IsFalse)
}
