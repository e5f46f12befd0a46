// README: Common money value object used across modules.
package types

import (
	"fmt"
	"math"
)

// Money is an amount in paise (two-digit fixed point). All externally
// visible amounts are rounded half-up to this scale; intermediate fare
// math may stay in float64.
type Money int64

// MoneyFromRupees converts a rupee amount to Money, rounding half-up
// (away from zero) at the second decimal.
func MoneyFromRupees(v float64) Money {
	if v < 0 {
		return -MoneyFromRupees(-v)
	}
	return Money(math.Floor(v*100 + 0.5))
}

func (m Money) Rupees() float64 {
	return float64(m) / 100
}

func (m Money) Add(o Money) Money { return m + o }

func (m Money) Sub(o Money) Money { return m - o }

// MulFloat scales the amount by f and re-rounds half-up.
func (m Money) MulFloat(f float64) Money {
	return MoneyFromRupees(m.Rupees() * f)
}

func (m Money) IsZero() bool { return m == 0 }

func (m Money) String() string {
	v := int64(m)
	sign := ""
	if v < 0 {
		sign = "-"
		v = -v
	}
	return fmt.Sprintf("%s%d.%02d", sign, v/100, v%100)
}
