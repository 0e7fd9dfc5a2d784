package fixedpoint_test

import (
	"math/big"
	"testing"

	sdkmath "cosmossdk.io/math"
	"github.com/stretchr/testify/require"

	"github.com/maltprotocol/malt/internal/fixedpoint"
)

func TestSubRejectsNegativeResult(t *testing.T) {
	_, err := fixedpoint.Sub(sdkmath.NewInt(5), sdkmath.NewInt(6))
	require.ErrorIs(t, err, fixedpoint.ErrUnderflow)

	out, err := fixedpoint.Sub(sdkmath.NewInt(6), sdkmath.NewInt(5))
	require.NoError(t, err)
	require.Equal(t, sdkmath.OneInt(), out)
}

func TestSaturatingSubFloorsAtZero(t *testing.T) {
	require.True(t, fixedpoint.SaturatingSub(sdkmath.NewInt(5), sdkmath.NewInt(9)).IsZero())
	require.Equal(t, sdkmath.NewInt(4), fixedpoint.SaturatingSub(sdkmath.NewInt(9), sdkmath.NewInt(5)))
}

func TestMulDivFloorsAndCeils(t *testing.T) {
	floor, err := fixedpoint.MulDiv(sdkmath.NewInt(10), sdkmath.NewInt(10), sdkmath.NewInt(3))
	require.NoError(t, err)
	require.Equal(t, sdkmath.NewInt(33), floor)

	ceil, err := fixedpoint.MulDivCeil(sdkmath.NewInt(10), sdkmath.NewInt(10), sdkmath.NewInt(3))
	require.NoError(t, err)
	require.Equal(t, sdkmath.NewInt(34), ceil)

	exact, err := fixedpoint.MulDivCeil(sdkmath.NewInt(9), sdkmath.NewInt(10), sdkmath.NewInt(3))
	require.NoError(t, err)
	require.Equal(t, sdkmath.NewInt(30), exact)
}

func TestMulDivRejectsZeroDivisor(t *testing.T) {
	_, err := fixedpoint.MulDiv(sdkmath.OneInt(), sdkmath.OneInt(), sdkmath.ZeroInt())
	require.ErrorIs(t, err, fixedpoint.ErrDivisionByZero)
}

func TestMulRejectsOverflow(t *testing.T) {
	huge := sdkmath.NewIntFromBigInt(new(big.Int).Lsh(big.NewInt(1), 200))
	_, err := fixedpoint.Mul(huge, huge)
	require.ErrorIs(t, err, fixedpoint.ErrOverflow)

	// the intermediate product may exceed 256 bits as long as the result fits
	out, err := fixedpoint.MulDiv(huge, huge, huge)
	require.NoError(t, err)
	require.Equal(t, huge, out)
}

func TestUnityHelpers(t *testing.T) {
	sixTenths := fixedpoint.MustFromDecimalString("0.6")
	require.Equal(t, sdkmath.NewIntWithDecimal(6, 17), sixTenths)

	out, err := fixedpoint.MulUnity(sdkmath.NewInt(1000), sixTenths)
	require.NoError(t, err)
	require.Equal(t, sdkmath.NewInt(600), out)

	ratio, err := fixedpoint.DivUnity(sdkmath.NewInt(600), sdkmath.NewInt(1000))
	require.NoError(t, err)
	require.Equal(t, sixTenths, ratio)
	require.Equal(t, "0.6", fixedpoint.Format(ratio))
}

func TestBpsSplit(t *testing.T) {
	out, err := fixedpoint.Bps(sdkmath.NewInt(100), 7000, fixedpoint.BpsBase)
	require.NoError(t, err)
	require.Equal(t, sdkmath.NewInt(70), out)
}

func TestRescale(t *testing.T) {
	require.Equal(t, fixedpoint.Unity, fixedpoint.FromRatio(sdkmath.NewInt(1_000_000), 6))
	require.Equal(t, sdkmath.NewInt(1_000_000), fixedpoint.Rescale(fixedpoint.Unity, 18, 6))
	require.Equal(t, sdkmath.NewInt(7), fixedpoint.Rescale(sdkmath.NewInt(7), 4, 4))
}

func TestOrZeroHandlesNilInt(t *testing.T) {
	var unset sdkmath.Int
	require.True(t, fixedpoint.OrZero(unset).IsZero())
	require.Equal(t, sdkmath.NewInt(3), fixedpoint.Max(unset, sdkmath.NewInt(3)))
}
