package keeper

import (
	"context"
	"fmt"

	sdkmath "cosmossdk.io/math"
	"github.com/cosmos/cosmos-sdk/telemetry"
	sdk "github.com/cosmos/cosmos-sdk/types"

	"github.com/maltprotocol/malt/internal/fixedpoint"
	"github.com/maltprotocol/malt/internal/sdkctx"
	"github.com/maltprotocol/malt/x/throttle/types"
)

// HandleReward splits the throttle's balance for the current epoch. Up to
// the epoch target goes to the distributor and anything above it to the
// overflow pool. A call that brings no new funds backfills any remaining
// shortfall against the target from the overflow pool, which counts as
// rewarded but not as profit. Without a baseline everything is forwarded.
func (k Keeper) HandleReward(ctx context.Context) (types.HandleRewardResult, error) {
	result := types.HandleRewardResult{
		Received:      sdkmath.ZeroInt(),
		ToDistributor: sdkmath.ZeroInt(),
		ToOverflow:    sdkmath.ZeroInt(),
		FromOverflow:  sdkmath.ZeroInt(),
	}
	if err := k.ready(); err != nil {
		return result, err
	}
	if k.crisisKeeper != nil && k.crisisKeeper.IsRewardsHalted(ctx) {
		k.Logger(ctx).Info("reward routing halted, holding deposits")
		return result, nil
	}
	params, err := k.GetParams(ctx)
	if err != nil {
		return result, err
	}
	epoch, err := k.daoKeeper.Epoch(ctx)
	if err != nil {
		return result, err
	}
	result.Epoch = epoch

	rec, err := k.touchEpoch(ctx, epoch, params)
	if err != nil {
		return result, err
	}
	targets, throttled, err := k.GetTargets(ctx, epoch, params.SmoothingPeriod)
	if err != nil {
		return result, err
	}

	available := k.bankKeeper.GetBalance(ctx, k.ModuleAddress(), params.RewardDenom).Amount
	result.Received = available
	rec.Profit = rec.Profit.Add(available)

	if !throttled {
		result.ToDistributor = available
	} else {
		shortfall := fixedpoint.SaturatingSub(targets.EpochProfit, rec.Rewarded)
		result.ToDistributor = fixedpoint.Min(available, shortfall)
		result.ToOverflow = available.Sub(result.ToDistributor)

		// Backfill only a shortfall left by earlier calls this epoch. New
		// funds may still close it on a later call.
		if available.IsZero() && shortfall.IsPositive() {
			obtained, err := k.overflowKeeper.RequestCapital(ctx, k.ModuleAddress().String(), shortfall)
			if err != nil {
				return result, err
			}
			result.FromOverflow = obtained
		}
	}

	if result.ToOverflow.IsPositive() {
		coins := sdk.NewCoins(sdk.NewCoin(params.RewardDenom, result.ToOverflow))
		if err := k.bankKeeper.SendCoinsFromModuleToModule(ctx, types.ModuleName, k.overflowModule, coins); err != nil {
			return result, err
		}
	}
	declared := result.ToDistributor.Add(result.FromOverflow)
	if declared.IsPositive() {
		coins := sdk.NewCoins(sdk.NewCoin(params.RewardDenom, declared))
		if err := k.bankKeeper.SendCoinsFromModuleToModule(ctx, types.ModuleName, k.distributorModule, coins); err != nil {
			return result, err
		}
		if err := k.distributorKeeper.DeclareReward(ctx, k.ModuleAddress().String(), declared); err != nil {
			return result, err
		}
	}
	rec.Rewarded = rec.Rewarded.Add(declared)

	if available.IsZero() && declared.IsZero() {
		k.Logger(ctx).Debug("no reward to handle", "epoch", epoch)
		return result, nil
	}
	if err := k.Epochs.Set(ctx, epoch, rec); err != nil {
		return result, err
	}

	sdkctx.EmitEvent(ctx, sdk.NewEvent(
		types.EventTypeHandleReward,
		sdk.NewAttribute("epoch", fmt.Sprintf("%d", epoch)),
		sdk.NewAttribute("received", available.String()),
		sdk.NewAttribute("to_distributor", result.ToDistributor.String()),
		sdk.NewAttribute("to_overflow", result.ToOverflow.String()),
		sdk.NewAttribute("from_overflow", result.FromOverflow.String()),
	))
	telemetry.IncrCounter(1, types.ModuleName, "rewards_handled")
	k.Logger(ctx).Info("handled reward",
		"epoch", epoch,
		"received", available.String(),
		"to_distributor", result.ToDistributor.String(),
		"to_overflow", result.ToOverflow.String(),
		"from_overflow", result.FromOverflow.String(),
		"target", targets.EpochProfit.String(),
	)
	return result, nil
}
