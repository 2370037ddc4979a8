package account

import "github.com/shopspring/decimal"

// SeedBalance is a test helper that sets an account balance directly when
// using the in-memory store.
func SeedBalance(s Store, id, currency string, amount decimal.Decimal) {
	if mem, ok := s.(*memoryStore); ok {
		if rec, err := mem.find(id); err == nil {
			rec.mu.Lock()
			defer rec.mu.Unlock()
			rec.acct.Balances[currency] = amount
		}
	}
}
