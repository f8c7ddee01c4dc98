package db

import (
	"testing"
	"time"

	qt "github.com/frankban/quicktest"
)

func TestDeviceRegistrations(t *testing.T) {
	c := qt.New(t)
	defer func() { _ = testDB.Reset() }()

	org := testOrganization("devices")

	c.Run("register and count", func(c *qt.C) {
		for _, id := range []string{"ipad-lobby", "ipad-entrance"} {
			err := testDB.SetDeviceRegistration(&DeviceRegistration{
				DeviceID:       id,
				OrganizationID: org.ID,
				Name:           id,
				Platform:       "ios",
				AppVersion:     "2.4.0",
				Active:         true,
				LastSeenAt:     time.Now(),
			})
			c.Assert(err, qt.IsNil)
		}
		count, err := testDB.CountActiveDevices(org.ID)
		c.Assert(err, qt.IsNil)
		c.Assert(count, qt.Equals, int64(2))

		devs, err := testDB.OrganizationDevices(org.ID)
		c.Assert(err, qt.IsNil)
		c.Assert(devs, qt.HasLen, 2)
	})

	c.Run("heartbeat", func(c *qt.C) {
		seenAt := time.Now().Add(time.Minute).Truncate(time.Second)
		c.Assert(testDB.TouchDevice("ipad-lobby", seenAt), qt.IsNil)

		dev, err := testDB.DeviceRegistration("ipad-lobby")
		c.Assert(err, qt.IsNil)
		c.Assert(dev.LastSeenAt.Unix(), qt.Equals, seenAt.Unix())

		c.Assert(testDB.TouchDevice("ghost", seenAt), qt.Equals, ErrNotFound)
	})

	c.Run("deactivate", func(c *qt.C) {
		c.Assert(testDB.DeactivateDevice("ipad-entrance"), qt.IsNil)
		count, err := testDB.CountActiveDevices(org.ID)
		c.Assert(err, qt.IsNil)
		c.Assert(count, qt.Equals, int64(1))
	})
}
