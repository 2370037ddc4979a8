package money

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// DefaultCurrency is the reference currency used for quotes and defaults.
const DefaultCurrency = "USD"

// supported enumerates the wallet currencies.
var supported = map[string]struct{}{
	"USD": {},
	"EUR": {},
	"CNY": {},
	"NGN": {},
	"XAF": {},
	"XOF": {},
	"GHS": {},
	"ZAR": {},
}

// Supported reports whether the currency code is one the wallet holds.
func Supported(code string) bool {
	_, ok := supported[code]
	return ok
}

// Currencies returns the supported currency codes in no particular order.
func Currencies() []string {
	codes := make([]string, 0, len(supported))
	for code := range supported {
		codes = append(codes, code)
	}
	return codes
}

// ValidateAmount checks that the amount is a strictly positive value.
func ValidateAmount(amount decimal.Decimal) error {
	if !amount.IsPositive() {
		return fmt.Errorf("amount must be greater than zero")
	}
	return nil
}
