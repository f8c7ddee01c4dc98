package db

import (
	"testing"
	"time"

	qt "github.com/frankban/quicktest"
)

func TestOAuthStates(t *testing.T) {
	c := qt.New(t)
	defer func() { _ = testDB.Reset() }()

	org := testOrganization("oauth")

	c.Run("consume marks the state used", func(c *qt.C) {
		err := testDB.SetOAuthState(&OAuthState{
			State:          "state-1",
			OrganizationID: org.ID,
			DeviceID:       "device-1",
			ExpiresAt:      time.Now().Add(10 * time.Minute),
		})
		c.Assert(err, qt.IsNil)

		st, err := testDB.ConsumeOAuthState("state-1")
		c.Assert(err, qt.IsNil)
		c.Assert(st.OrganizationID, qt.Equals, org.ID)
		c.Assert(st.DeviceID, qt.Equals, "device-1")

		// second consumption must fail
		_, err = testDB.ConsumeOAuthState("state-1")
		c.Assert(err, qt.Equals, ErrNotFound)
	})

	c.Run("expired state cannot be consumed", func(c *qt.C) {
		err := testDB.SetOAuthState(&OAuthState{
			State:          "state-2",
			OrganizationID: org.ID,
			ExpiresAt:      time.Now().Add(-time.Minute),
		})
		c.Assert(err, qt.IsNil)

		_, err = testDB.ConsumeOAuthState("state-2")
		c.Assert(err, qt.Equals, ErrCodeExpired)
	})

	c.Run("unknown state", func(c *qt.C) {
		_, err := testDB.ConsumeOAuthState("missing")
		c.Assert(err, qt.Equals, ErrNotFound)
	})

	c.Run("prune expired", func(c *qt.C) {
		c.Assert(testDB.DeleteExpiredOAuthStates(time.Now()), qt.IsNil)
		_, err := testDB.OAuthState("state-2")
		c.Assert(err, qt.Equals, ErrNotFound)
	})
}
