package subscriptions

import (
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

// registerDevices enrolls n active devices starting at the given index, so
// successive calls add devices instead of upserting the existing rows.
func registerDevices(c *qt.C, orgID string, from, n int) {
	for i := from; i < from+n; i++ {
		c.Assert(testDB.SetDeviceRegistration(&db.DeviceRegistration{
			DeviceID:       fmt.Sprintf("%s-dev-%d", orgID, i),
			OrganizationID: orgID,
			Platform:       "ios",
			Active:         true,
			LastSeenAt:     time.Now(),
		}), qt.IsNil)
	}
}

func TestCanRegisterDevice(t *testing.T) {
	c := qt.New(t)
	defer func() { _ = testDB.Reset() }()

	service := New(testDB, nil)

	c.Run("no subscription allows a single device", func(c *qt.C) {
		org := &db.Organization{Name: "trial-org", Email: "trial@example.org"}
		c.Assert(testDB.SetOrganization(org), qt.IsNil)

		ok, err := service.CanRegisterDevice(org.ID)
		c.Assert(err, qt.IsNil)
		c.Assert(ok, qt.IsTrue)

		registerDevices(c, org.ID, 0, 1)
		ok, err = service.CanRegisterDevice(org.ID)
		c.Assert(err, qt.IsNil)
		c.Assert(ok, qt.IsFalse)
	})

	c.Run("purchased quantity caps devices", func(c *qt.C) {
		org := &db.Organization{Name: "paid-org", Email: "paid@example.org"}
		c.Assert(testDB.SetOrganization(org), qt.IsNil)
		c.Assert(testDB.SetSubscription(&db.Subscription{
			OrganizationID: org.ID,
			Provider:       db.ProviderStripe,
			PlanID:         "standard",
			Status:         db.StatusActive,
			DeviceQuantity: 3,
		}), qt.IsNil)

		registerDevices(c, org.ID, 0, 2)
		ok, err := service.CanRegisterDevice(org.ID)
		c.Assert(err, qt.IsNil)
		c.Assert(ok, qt.IsTrue)

		registerDevices(c, org.ID, 2, 1)
		count, err := testDB.CountActiveDevices(org.ID)
		c.Assert(err, qt.IsNil)
		c.Assert(count, qt.Equals, int64(3))
		ok, err = service.CanRegisterDevice(org.ID)
		c.Assert(err, qt.IsNil)
		c.Assert(ok, qt.IsFalse)
	})

	c.Run("canceled subscription falls back to trial limit", func(c *qt.C) {
		org := &db.Organization{Name: "lapsed-org", Email: "lapsed@example.org"}
		c.Assert(testDB.SetOrganization(org), qt.IsNil)
		c.Assert(testDB.SetSubscription(&db.Subscription{
			OrganizationID: org.ID,
			Provider:       db.ProviderSquare,
			PlanID:         "standard",
			Status:         db.StatusCanceled,
			DeviceQuantity: 5,
		}), qt.IsNil)

		registerDevices(c, org.ID, 0, 1)
		ok, err := service.CanRegisterDevice(org.ID)
		c.Assert(err, qt.IsNil)
		c.Assert(ok, qt.IsFalse)
	})
}

func TestHasFeature(t *testing.T) {
	c := qt.New(t)
	defer func() { _ = testDB.Reset() }()

	service := New(testDB, nil)

	org := &db.Organization{Name: "feature-org", Email: "features@example.org"}
	c.Assert(testDB.SetOrganization(org), qt.IsNil)

	ok, err := service.HasFeature(org.ID, FeatureSMSReceipts)
	c.Assert(err, qt.IsNil)
	c.Assert(ok, qt.IsFalse)

	c.Assert(testDB.SetSubscription(&db.Subscription{
		OrganizationID: org.ID,
		Provider:       db.ProviderStripe,
		PlanID:         "standard",
		Status:         db.StatusActive,
	}), qt.IsNil)
	ok, err = service.HasFeature(org.ID, FeatureSMSReceipts)
	c.Assert(err, qt.IsNil)
	c.Assert(ok, qt.IsFalse)
	ok, err = service.HasFeature(org.ID, FeatureBackgroundSync)
	c.Assert(err, qt.IsNil)
	c.Assert(ok, qt.IsTrue)

	sub, err := testDB.Subscription(org.ID, db.ProviderStripe)
	c.Assert(err, qt.IsNil)
	sub.PlanID = "pro"
	c.Assert(testDB.SetSubscription(sub), qt.IsNil)
	ok, err = service.HasFeature(org.ID, FeatureSMSReceipts)
	c.Assert(err, qt.IsNil)
	c.Assert(ok, qt.IsTrue)
}
