package billboard

import (
	"math/big"

	"github.com/shopspring/decimal"
)

// USDC carries six decimal places on-chain. Amounts cross the API boundary as
// decimal USD and cross the authority boundary as base-unit integers.
const USDCDecimals = 6

var baseUnitFactor = decimal.New(1, USDCDecimals) // 10^6

// ToBaseUnits converts a decimal USD amount to USDC base units, truncating
// anything finer than a micro-dollar.
func ToBaseUnits(usd decimal.Decimal) *big.Int {
	return usd.Mul(baseUnitFactor).Truncate(0).BigInt()
}

// FromBaseUnits converts USDC base units to a decimal USD amount.
func FromBaseUnits(units *big.Int) decimal.Decimal {
	if units == nil {
		return decimal.Zero
	}
	return decimal.NewFromBigInt(units, -USDCDecimals)
}

// USD builds a decimal amount from whole dollars, for per-slot minimums.
func USD(dollars int64) decimal.Decimal {
	return decimal.NewFromInt(dollars)
}

// FormatUSD renders a base-unit amount as a bare dollar string ("25", "9.5")
// for use in caller-facing messages.
func FormatUSD(units *big.Int) string {
	return FromBaseUnits(units).String()
}
