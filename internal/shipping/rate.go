package shipping

import "github.com/shopspring/decimal"

// Cost is what the shopper pays for a manual method: nothing once the
// subtotal reaches the threshold, the flat price otherwise.
func Cost(m Manual, subtotal decimal.Decimal) decimal.Decimal {
	if m.FreeShippingThreshold != nil && subtotal.GreaterThanOrEqual(*m.FreeShippingThreshold) {
		return decimal.Zero
	}
	return m.Price.Round(2)
}
