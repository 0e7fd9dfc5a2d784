// Package fixedpoint implements checked integer arithmetic on sdkmath.Int
// with an 18-decimal fixed-point unit.
//
// Every operation floors. Operations that could leave the 256-bit range of
// sdkmath.Int, divide by zero, or produce a negative quantity return an error
// instead of panicking. Saturating helpers exist for the places where a
// clamped result is the intended behaviour.
package fixedpoint

import (
	"errors"
	"fmt"
	"math/big"

	sdkmath "cosmossdk.io/math"
	"github.com/shopspring/decimal"
)

// Decimals is the number of decimals in Unity.
const Decimals = 18

// BpsBase is the denominator for basis-point ratios.
const BpsBase = 10_000

// PerMilleBase is the denominator for per-mille ratios.
const PerMilleBase = 1_000

var (
	// Unity is 1.0 in 18-decimal fixed point.
	Unity = sdkmath.NewIntWithDecimal(1, Decimals)

	ErrOverflow       = errors.New("fixed point overflow")
	ErrUnderflow      = errors.New("fixed point underflow")
	ErrDivisionByZero = errors.New("fixed point division by zero")
)

// OrZero returns zero for an uninitialised Int.
func OrZero(v sdkmath.Int) sdkmath.Int {
	if v.IsNil() {
		return sdkmath.ZeroInt()
	}
	return v
}

func fits(v *big.Int) bool {
	return v.BitLen() <= sdkmath.MaxBitLen
}

// Add returns a+b.
func Add(a, b sdkmath.Int) (sdkmath.Int, error) {
	sum := new(big.Int).Add(OrZero(a).BigInt(), OrZero(b).BigInt())
	if !fits(sum) {
		return sdkmath.ZeroInt(), fmt.Errorf("%w: %s + %s", ErrOverflow, a, b)
	}
	return sdkmath.NewIntFromBigInt(sum), nil
}

// Sub returns a-b and fails when the result would be negative.
func Sub(a, b sdkmath.Int) (sdkmath.Int, error) {
	a, b = OrZero(a), OrZero(b)
	if b.GT(a) {
		return sdkmath.ZeroInt(), fmt.Errorf("%w: %s - %s", ErrUnderflow, a, b)
	}
	return a.Sub(b), nil
}

// SaturatingSub returns a-b, or zero when b exceeds a.
func SaturatingSub(a, b sdkmath.Int) sdkmath.Int {
	a, b = OrZero(a), OrZero(b)
	if b.GTE(a) {
		return sdkmath.ZeroInt()
	}
	return a.Sub(b)
}

// Mul returns a*b.
func Mul(a, b sdkmath.Int) (sdkmath.Int, error) {
	prod := new(big.Int).Mul(OrZero(a).BigInt(), OrZero(b).BigInt())
	if !fits(prod) {
		return sdkmath.ZeroInt(), fmt.Errorf("%w: %s * %s", ErrOverflow, a, b)
	}
	return sdkmath.NewIntFromBigInt(prod), nil
}

// MulDiv returns floor(a*b/c). The intermediate product is not bounded, only
// the result is.
func MulDiv(a, b, c sdkmath.Int) (sdkmath.Int, error) {
	c = OrZero(c)
	if c.IsZero() {
		return sdkmath.ZeroInt(), fmt.Errorf("%w: %s * %s / 0", ErrDivisionByZero, a, b)
	}
	prod := new(big.Int).Mul(OrZero(a).BigInt(), OrZero(b).BigInt())
	q := prod.Quo(prod, c.BigInt())
	if !fits(q) {
		return sdkmath.ZeroInt(), fmt.Errorf("%w: %s * %s / %s", ErrOverflow, a, b, c)
	}
	return sdkmath.NewIntFromBigInt(q), nil
}

// MulDivCeil returns ceil(a*b/c) for non-negative operands.
func MulDivCeil(a, b, c sdkmath.Int) (sdkmath.Int, error) {
	c = OrZero(c)
	if c.IsZero() {
		return sdkmath.ZeroInt(), fmt.Errorf("%w: %s * %s / 0", ErrDivisionByZero, a, b)
	}
	prod := new(big.Int).Mul(OrZero(a).BigInt(), OrZero(b).BigInt())
	q, r := new(big.Int).QuoRem(prod, c.BigInt(), new(big.Int))
	if r.Sign() != 0 {
		q.Add(q, big.NewInt(1))
	}
	if !fits(q) {
		return sdkmath.ZeroInt(), fmt.Errorf("%w: %s * %s / %s", ErrOverflow, a, b, c)
	}
	return sdkmath.NewIntFromBigInt(q), nil
}

// MulUnity returns a*b/1e18.
func MulUnity(a, b sdkmath.Int) (sdkmath.Int, error) {
	return MulDiv(a, b, Unity)
}

// DivUnity returns a*1e18/b.
func DivUnity(a, b sdkmath.Int) (sdkmath.Int, error) {
	return MulDiv(a, Unity, b)
}

// Bps returns value*ratio/base, e.g. Bps(x, 7000, BpsBase) is 70% of x.
func Bps(value sdkmath.Int, ratio, base uint64) (sdkmath.Int, error) {
	return MulDiv(value, sdkmath.NewIntFromUint64(ratio), sdkmath.NewIntFromUint64(base))
}

// Min returns the smaller of a and b.
func Min(a, b sdkmath.Int) sdkmath.Int {
	return sdkmath.MinInt(OrZero(a), OrZero(b))
}

// Max returns the larger of a and b.
func Max(a, b sdkmath.Int) sdkmath.Int {
	return sdkmath.MaxInt(OrZero(a), OrZero(b))
}

// Rescale converts value from one decimal precision to another, flooring
// when precision is lost.
func Rescale(value sdkmath.Int, from, to uint32) sdkmath.Int {
	value = OrZero(value)
	switch {
	case from == to:
		return value
	case from < to:
		return value.Mul(sdkmath.NewIntWithDecimal(1, int(to-from)))
	default:
		return value.Quo(sdkmath.NewIntWithDecimal(1, int(from-to)))
	}
}

// FromRatio converts a value carrying `decimals` decimals into 18-decimal
// fixed point.
func FromRatio(value sdkmath.Int, decimals uint32) sdkmath.Int {
	return Rescale(value, decimals, Decimals)
}

// Format renders an 18-decimal fixed-point value as a decimal string.
func Format(value sdkmath.Int) string {
	return decimal.NewFromBigInt(OrZero(value).BigInt(), -Decimals).String()
}

// FromDecimalString parses a human-readable decimal into 18-decimal fixed
// point, truncating excess precision.
func FromDecimalString(s string) (sdkmath.Int, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return sdkmath.ZeroInt(), fmt.Errorf("parse fixed point %q: %w", s, err)
	}
	scaled := d.Shift(Decimals).Truncate(0).BigInt()
	if !fits(scaled) {
		return sdkmath.ZeroInt(), fmt.Errorf("%w: %s", ErrOverflow, s)
	}
	return sdkmath.NewIntFromBigInt(scaled), nil
}

// MustFromDecimalString is FromDecimalString for constants and tests.
func MustFromDecimalString(s string) sdkmath.Int {
	v, err := FromDecimalString(s)
	if err != nil {
		panic(err)
	}
	return v
}
