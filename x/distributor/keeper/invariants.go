package keeper

import (
	"fmt"

	sdk "github.com/cosmos/cosmos-sdk/types"

	"github.com/maltprotocol/malt/x/distributor/types"
)

func RegisterInvariants(ir sdk.InvariantRegistry, k Keeper) {
	ir.RegisterRoute(types.ModuleName, "vesting-bounds", VestingBoundsInvariant(k))
}

// VestingBoundsInvariant checks each schedule vested at most its declared
// amount and that the module still holds every unvested token.
func VestingBoundsInvariant(k Keeper) sdk.Invariant {
	return func(ctx sdk.Context) (string, bool) {
		var msg string
		broken := false

		schedules, err := k.OpenSchedules(ctx)
		if err != nil {
			return sdk.FormatInvariant(types.ModuleName, "vesting-bounds", err.Error()), true
		}
		for _, s := range schedules {
			if s.Vested.GT(s.Declared) {
				msg += fmt.Sprintf("INVARIANT BROKEN: schedule %d vested %s above declared %s\n", s.ID, s.Vested, s.Declared)
				broken = true
			}
		}

		unvested, err := k.Unvested(ctx)
		if err != nil {
			return sdk.FormatInvariant(types.ModuleName, "vesting-bounds", err.Error()), true
		}
		params, err := k.GetParams(ctx)
		if err != nil {
			return sdk.FormatInvariant(types.ModuleName, "vesting-bounds", err.Error()), true
		}
		balance := k.bankKeeper.GetBalance(ctx, k.ModuleAddress(), params.RewardDenom).Amount
		if unvested.GT(balance) {
			msg += fmt.Sprintf("INVARIANT BROKEN: unvested %s exceeds module balance %s\n", unvested, balance)
			broken = true
		}

		return sdk.FormatInvariant(types.ModuleName, "vesting-bounds", msg), broken
	}
}
