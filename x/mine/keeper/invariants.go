package keeper

import (
	"fmt"

	sdkmath "cosmossdk.io/math"
	sdk "github.com/cosmos/cosmos-sdk/types"

	"github.com/maltprotocol/malt/x/mine/types"
)

func RegisterInvariants(ir sdk.InvariantRegistry, k Keeper) {
	ir.RegisterRoute(types.ModuleName, "reward-conservation", RewardConservationInvariant(k))
	ir.RegisterRoute(types.ModuleName, "padding-sum", PaddingSumInvariant(k))
}

// AllInvariants runs all invariants of the mine module.
func AllInvariants(k Keeper) sdk.Invariant {
	return func(ctx sdk.Context) (string, bool) {
		for _, inv := range []sdk.Invariant{RewardConservationInvariant(k), PaddingSumInvariant(k)} {
			if msg, broken := inv(ctx); broken {
				return msg, broken
			}
		}
		return "", false
	}
}

// RewardConservationInvariant checks that stakers' reward balances sum to
// the declared reward, allowing one unit of rounding dust per staker.
func RewardConservationInvariant(k Keeper) sdk.Invariant {
	return func(ctx sdk.Context) (string, bool) {
		state, err := k.loadShareState(ctx)
		if err != nil {
			return sdk.FormatInvariant(types.ModuleName, "reward-conservation", err.Error()), true
		}
		sum := sdkmath.ZeroInt()
		stakers := int64(0)
		err = k.StakePadding.Walk(ctx, nil, func(addr sdk.AccAddress, _ sdkmath.Int) (bool, error) {
			balance, err := k.balanceOfRewards(ctx, state, addr)
			if err != nil {
				return true, err
			}
			sum = sum.Add(balance)
			stakers++
			return false, nil
		})
		if err != nil {
			return sdk.FormatInvariant(types.ModuleName, "reward-conservation", err.Error()), true
		}
		if stakers == 0 {
			return sdk.FormatInvariant(types.ModuleName, "reward-conservation", ""), false
		}

		diff := sum.Sub(state.declared).Abs()
		if diff.GT(sdkmath.NewInt(stakers)) {
			msg := fmt.Sprintf("INVARIANT BROKEN: reward balances sum to %s, declared %s\n", sum, state.declared)
			return sdk.FormatInvariant(types.ModuleName, "reward-conservation", msg), true
		}
		return sdk.FormatInvariant(types.ModuleName, "reward-conservation", ""), false
	}
}

// PaddingSumInvariant checks that account paddings sum to the total.
func PaddingSumInvariant(k Keeper) sdk.Invariant {
	return func(ctx sdk.Context) (string, bool) {
		sum := sdkmath.ZeroInt()
		err := k.StakePadding.Walk(ctx, nil, func(_ sdk.AccAddress, padding sdkmath.Int) (bool, error) {
			sum = sum.Add(padding)
			return false, nil
		})
		if err != nil {
			return sdk.FormatInvariant(types.ModuleName, "padding-sum", err.Error()), true
		}
		total, err := k.TotalPadding(ctx)
		if err != nil {
			return sdk.FormatInvariant(types.ModuleName, "padding-sum", err.Error()), true
		}
		if !sum.Equal(total) {
			msg := fmt.Sprintf("INVARIANT BROKEN: paddings sum to %s, total %s\n", sum, total)
			return sdk.FormatInvariant(types.ModuleName, "padding-sum", msg), true
		}
		return sdk.FormatInvariant(types.ModuleName, "padding-sum", ""), false
	}
}
