// Package internal provides some helpers used across the backend.
package internal

import (
	"crypto/rand"
	"fmt"
	"regexp"
	"strings"
)

const emailRegexTemplate = `^[\w.\+\.\-]+@([\w\-]+\.)+[\w]{2,}$`

var emailRegex = regexp.MustCompile(emailRegexTemplate)

// ValidEmail helper function allows to validate an email address.
func ValidEmail(email string) bool {
	return emailRegex.MatchString(email)
}

// RandomBytes helper function allows to generate a random byte slice of n bytes.
func RandomBytes(n int) []byte {
	b := make([]byte, n)
	_, err := rand.Read(b)
	if err != nil {
		panic(err)
	}
	return b
}

// RandomHex helper function allows to generate a random hex string of n bytes.
func RandomHex(n int) string {
	return fmt.Sprintf("%x", RandomBytes(n))
}

// currencySymbols maps the currencies the kiosk supports to their display
// symbol. Unknown currencies fall back to the uppercased code.
var currencySymbols = map[string]string{
	"usd": "$",
	"cad": "$",
	"eur": "€",
	"gbp": "£",
	"ils": "₪",
}

// FormatAmount renders an amount in minor units (cents) as a human readable
// string, e.g. 1800 "usd" -> "$18.00".
func FormatAmount(cents int64, currency string) string {
	symbol, ok := currencySymbols[strings.ToLower(currency)]
	if !ok {
		symbol = strings.ToUpper(currency) + " "
	}
	return fmt.Sprintf("%s%d.%02d", symbol, cents/100, cents%100)
}
