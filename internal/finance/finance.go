package finance

import (
	"math/big"
	"time"

	"github.com/shopspring/decimal"
)

const (
	// WeekSeconds is the reward period used for expected gauge APR.
	WeekSeconds = int64(7 * 24 * time.Hour / time.Second)
	// YearSeconds is the annualisation base.
	YearSeconds = int64(365 * 24 * time.Hour / time.Second)
)

var hundred = decimal.NewFromInt(100)

// FormatUnits converts a raw integer amount into a decimal with the given
// number of token decimals.
func FormatUnits(value *big.Int, decimals int32) decimal.Decimal {
	if value == nil {
		return decimal.Zero
	}
	return decimal.NewFromBigInt(value, -decimals)
}

// APR annualises reward/total over the time left until periodEnd and returns
// it as a percentage. A zero total or a lapsed period yields zero.
func APR(now, periodEnd int64, reward, total decimal.Decimal) decimal.Decimal {
	if total.IsZero() {
		return decimal.Zero
	}
	if now >= periodEnd {
		return decimal.Zero
	}
	remaining := decimal.NewFromInt(periodEnd - now)
	year := decimal.NewFromInt(YearSeconds)

	return reward.Mul(year).Mul(hundred).Div(total.Mul(remaining))
}

// SafeDiv returns a/b, or zero when b is zero.
func SafeDiv(a, b decimal.Decimal) decimal.Decimal {
	if b.IsZero() {
		return decimal.Zero
	}
	return a.Div(b)
}
