package domain

import "github.com/shopspring/decimal"

// LoyaltyRates holds the two configured constants of the points ledger:
// EarnRate currency units spent earn one point, and each redeemed point is
// worth RedeemValue currency units of discount.
type LoyaltyRates struct {
	EarnRate    decimal.Decimal
	RedeemValue decimal.Decimal
}

func DefaultLoyaltyRates() LoyaltyRates {
	return LoyaltyRates{
		EarnRate:    decimal.NewFromInt(100),
		RedeemValue: decimal.NewFromInt(10),
	}
}

// MaxRedeemable clamps a redemption request: a customer may not redeem more
// points than they hold, nor more than the order subtotal supports.
func (r LoyaltyRates) MaxRedeemable(balance int, subtotal decimal.Decimal) int {
	bySubtotal := subtotal.Div(r.RedeemValue).Floor().IntPart()
	if int64(balance) < bySubtotal {
		return balance
	}
	return int(bySubtotal)
}

// Discount is the currency value of the redeemed points.
func (r LoyaltyRates) Discount(pointsUsed int) decimal.Decimal {
	return r.RedeemValue.Mul(decimal.NewFromInt(int64(pointsUsed)))
}

// PointsEarned is computed on the post-discount amount.
func (r LoyaltyRates) PointsEarned(finalAmount decimal.Decimal) int {
	return int(finalAmount.Div(r.EarnRate).Floor().IntPart())
}

// NewBalance applies one order to a ledger: redeemed points leave, earned
// points arrive, and the balance never goes below zero.
func NewBalance(balance, pointsUsed, pointsEarned int) int {
	b := balance - pointsUsed + pointsEarned
	if b < 0 {
		return 0
	}
	return b
}
