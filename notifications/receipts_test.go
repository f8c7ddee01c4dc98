package notifications

import (
	"testing"
	"time"

	qt "github.com/frankban/quicktest"
)

func TestBuildEmailReceipt(t *testing.T) {
	c := qt.New(t)

	n, err := BuildEmailReceipt("donor@example.com", ReceiptData{
		OrgName:    "Beth Shalom",
		Amount:     1800,
		Currency:   "usd",
		DonatedAt:  time.Date(2026, 5, 12, 10, 0, 0, 0, time.UTC),
		ReceiptURL: "https://squareup.com/receipt/123",
	})
	c.Assert(err, qt.IsNil)
	c.Assert(n.ToAddress, qt.Equals, "donor@example.com")
	c.Assert(n.Subject, qt.Contains, "Beth Shalom")
	c.Assert(n.PlainBody, qt.Contains, "$18.00")
	c.Assert(n.PlainBody, qt.Contains, "May 12, 2026")
	c.Assert(n.PlainBody, qt.Contains, "https://squareup.com/receipt/123")
	c.Assert(n.Body, qt.Contains, "<h2>")
}

func TestBuildSMSReceipt(t *testing.T) {
	c := qt.New(t)

	n, err := BuildSMSReceipt("+15551234567", ReceiptData{
		OrgName:   "Beth Shalom",
		Amount:    500,
		Currency:  "usd",
		DonatedAt: time.Now(),
	})
	c.Assert(err, qt.IsNil)
	c.Assert(n.ToNumber, qt.Equals, "+15551234567")
	c.Assert(n.Body, qt.Contains, "$5.00")
	c.Assert(n.Body, qt.Not(qt.Contains), "Receipt:")
}
