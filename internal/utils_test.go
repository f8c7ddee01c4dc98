package internal

import (
	"testing"

	qt "github.com/frankban/quicktest"
)

func TestValidEmail(t *testing.T) {
	c := qt.New(t)
	c.Assert(ValidEmail("gabbai@shul.org"), qt.IsTrue)
	c.Assert(ValidEmail("first.last+tag@sub.example.co"), qt.IsTrue)
	c.Assert(ValidEmail("not-an-email"), qt.IsFalse)
	c.Assert(ValidEmail("missing@tld"), qt.IsFalse)
	c.Assert(ValidEmail("@example.org"), qt.IsFalse)
}

func TestRandomHex(t *testing.T) {
	c := qt.New(t)
	h := RandomHex(16)
	c.Assert(h, qt.HasLen, 32)
	c.Assert(RandomHex(16), qt.Not(qt.Equals), h)
}

func TestFormatAmount(t *testing.T) {
	c := qt.New(t)
	c.Assert(FormatAmount(1800, "usd"), qt.Equals, "$18.00")
	c.Assert(FormatAmount(1800, "USD"), qt.Equals, "$18.00")
	c.Assert(FormatAmount(505, "eur"), qt.Equals, "€5.05")
	c.Assert(FormatAmount(100000, "ils"), qt.Equals, "₪1000.00")
	c.Assert(FormatAmount(100000, "jpy"), qt.Equals, "JPY 1000.00")
}
