package keeper

import (
	"context"
	"errors"

	"cosmossdk.io/collections"
	sdkmath "cosmossdk.io/math"
	"github.com/cosmos/cosmos-sdk/telemetry"
	sdk "github.com/cosmos/cosmos-sdk/types"

	"github.com/maltprotocol/malt/internal/sdkctx"
	"github.com/maltprotocol/malt/x/overflow/types"
)

// Address is where forfeited rewards are sent. Forfeits land in the pool
// and are released again through RequestCapital.
func (k Keeper) Address() sdk.AccAddress {
	return k.ModuleAddress()
}

// HandleForfeit records rewards already transferred into the pool.
func (k Keeper) HandleForfeit(ctx context.Context, amount sdkmath.Int) error {
	if amount.IsNil() || !amount.IsPositive() {
		return nil
	}
	total, err := k.GetTotalForfeited(ctx)
	if err != nil {
		return err
	}
	if err := k.TotalForfeited.Set(ctx, total.Add(amount)); err != nil {
		return err
	}
	sdkctx.EmitEvent(ctx, sdk.NewEvent(
		"overflow_forfeit_received",
		sdk.NewAttribute("amount", amount.String()),
	))
	telemetry.IncrCounter(1, types.ModuleName, "forfeits")
	k.Logger(ctx).Debug("forfeited rewards absorbed", "amount", amount.String())
	return nil
}

// GetTotalForfeited returns all rewards ever forfeited into the pool.
func (k Keeper) GetTotalForfeited(ctx context.Context) (sdkmath.Int, error) {
	total, err := k.TotalForfeited.Get(ctx)
	if errors.Is(err, collections.ErrNotFound) {
		return sdkmath.ZeroInt(), nil
	}
	return total, err
}
