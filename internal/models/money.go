package models

import "github.com/shopspring/decimal"

// MoneyPlaces is the precision every stored amount is kept at.
const MoneyPlaces = 2

// SplitCommission divides total into the platform commission and the
// influencer share. The commission is rounded to MoneyPlaces and the
// influencer receives the exact remainder, so the parts always sum to total.
func SplitCommission(total, rate decimal.Decimal) (commission, influencer decimal.Decimal) {
	commission = total.Mul(rate).Round(MoneyPlaces)
	influencer = total.Sub(commission)
	return commission, influencer
}
