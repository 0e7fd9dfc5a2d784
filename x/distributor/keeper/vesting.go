package keeper

import (
	"context"
	"fmt"

	"cosmossdk.io/collections"
	errorsmod "cosmossdk.io/errors"
	sdkmath "cosmossdk.io/math"
	"github.com/cosmos/cosmos-sdk/telemetry"
	sdk "github.com/cosmos/cosmos-sdk/types"

	"github.com/maltprotocol/malt/internal/fixedpoint"
	"github.com/maltprotocol/malt/internal/sdkctx"
	"github.com/maltprotocol/malt/x/distributor/types"
)

// DeclareReward vests amount of the module balance to bonded stakers by the
// end of the current focal period. With nothing bonded the reward goes
// straight to the forfeit handler.
func (k Keeper) DeclareReward(ctx context.Context, caller string, amount sdkmath.Int) error {
	if err := k.Roles.Require(ctx, caller, types.RoleThrottler); err != nil {
		return err
	}
	if amount.IsNil() || !amount.IsPositive() {
		return errorsmod.Wrap(types.ErrInvalidAmount, "cannot declare zero reward")
	}
	if k.bondingKeeper == nil {
		return types.ErrNoBondingKeeper
	}
	if _, err := k.Vest(ctx); err != nil {
		return err
	}

	params, err := k.GetParams(ctx)
	if err != nil {
		return err
	}
	unvested, err := k.Unvested(ctx)
	if err != nil {
		return err
	}
	balance := k.bankKeeper.GetBalance(ctx, k.ModuleAddress(), params.RewardDenom).Amount
	free := fixedpoint.SaturatingSub(balance, unvested)
	if amount.GT(free) {
		return errorsmod.Wrapf(types.ErrInsufficientBalance, "declaring %s with %s free", amount, free)
	}

	bonded, err := k.bondingKeeper.TotalBonded(ctx)
	if err != nil {
		return err
	}
	if !bonded.IsPositive() {
		k.Logger(ctx).Info("no stake bonded, forfeiting reward", "amount", amount.String())
		return k.sendToForfeitHandler(ctx, params, amount)
	}

	_, windowEnd, err := k.focalPeriod(ctx)
	if err != nil {
		return err
	}
	id, err := k.ScheduleSeq.Next(ctx)
	if err != nil {
		return err
	}
	schedule := types.VestingSchedule{
		ID:          id,
		Declared:    amount,
		Vested:      sdkmath.ZeroInt(),
		WindowStart: sdkctx.NowUnix(ctx),
		WindowEnd:   windowEnd,
	}
	if err := k.Schedules.Set(ctx, id, schedule); err != nil {
		return err
	}

	declared, err := k.TotalDeclaredReward(ctx)
	if err != nil {
		return err
	}
	declared = declared.Add(amount)
	if err := k.TotalDeclared.Set(ctx, declared); err != nil {
		return err
	}

	sdkctx.EmitEvent(ctx, sdk.NewEvent(
		types.EventTypeDeclareReward,
		sdk.NewAttribute("schedule_id", fmt.Sprintf("%d", id)),
		sdk.NewAttribute("amount", amount.String()),
		sdk.NewAttribute("window_end", fmt.Sprintf("%d", windowEnd)),
		sdk.NewAttribute("total_declared", declared.String()),
	))
	telemetry.IncrCounter(1, types.ModuleName, "declarations")
	k.Logger(ctx).Info("declared reward",
		"schedule_id", id,
		"amount", amount.String(),
		"window_end", windowEnd,
	)
	return nil
}

// Vest releases what every open schedule has vested since the last call
// into the reward module and closes fully vested schedules.
func (k Keeper) Vest(ctx context.Context) (sdkmath.Int, error) {
	now := sdkctx.NowUnix(ctx)
	var (
		updated []types.VestingSchedule
		closed  []uint64
	)
	released := sdkmath.ZeroInt()
	err := k.Schedules.Walk(ctx, nil, func(id uint64, s types.VestingSchedule) (bool, error) {
		delta := fixedpoint.SaturatingSub(s.VestedAt(now), s.Vested)
		if delta.IsZero() && now < s.WindowEnd {
			return false, nil
		}
		s.Vested = s.Vested.Add(delta)
		released = released.Add(delta)
		if s.Vested.GTE(s.Declared) {
			closed = append(closed, id)
		} else {
			updated = append(updated, s)
		}
		return false, nil
	})
	if err != nil {
		return sdkmath.ZeroInt(), err
	}

	for _, s := range updated {
		if err := k.Schedules.Set(ctx, s.ID, s); err != nil {
			return sdkmath.ZeroInt(), err
		}
	}
	for _, id := range closed {
		if err := k.Schedules.Remove(ctx, id); err != nil {
			return sdkmath.ZeroInt(), err
		}
	}
	if released.IsZero() {
		return released, nil
	}

	params, err := k.GetParams(ctx)
	if err != nil {
		return sdkmath.ZeroInt(), err
	}
	if err := k.bankKeeper.SendCoinsFromModuleToModule(ctx, types.ModuleName, k.rewardModule, k.rewardCoins(params, released)); err != nil {
		return sdkmath.ZeroInt(), err
	}
	total, err := k.TotalReleasedReward(ctx)
	if err != nil {
		return sdkmath.ZeroInt(), err
	}
	if err := k.TotalReleased.Set(ctx, total.Add(released)); err != nil {
		return sdkmath.ZeroInt(), err
	}

	sdkctx.EmitEvent(ctx, sdk.NewEvent(
		types.EventTypeVest,
		sdk.NewAttribute("amount", released.String()),
		sdk.NewAttribute("closed_schedules", fmt.Sprintf("%d", len(closed))),
	))
	return released, nil
}

// DecrementRewards removes reward the mine already paid out from the
// declared total.
func (k Keeper) DecrementRewards(ctx context.Context, caller string, amount sdkmath.Int) error {
	if err := k.Roles.Require(ctx, caller, types.RoleRewardMine); err != nil {
		return err
	}
	declared, err := k.reduceDeclared(ctx, amount)
	if err != nil {
		return err
	}
	sdkctx.EmitEvent(ctx, sdk.NewEvent(
		types.EventTypeDecrement,
		sdk.NewAttribute("amount", amount.String()),
		sdk.NewAttribute("total_declared", declared.String()),
	))
	return nil
}

// Forfeit removes amount from the declared total and hands the unvested
// reward behind it to the forfeit handler. Newer schedules give up their
// reward first.
func (k Keeper) Forfeit(ctx context.Context, caller string, amount sdkmath.Int) error {
	if err := k.Roles.Require(ctx, caller, types.RoleRewardMine); err != nil {
		return err
	}
	declared, err := k.reduceDeclared(ctx, amount)
	if err != nil {
		return err
	}
	if amount.IsZero() {
		return nil
	}
	if _, err := k.Vest(ctx); err != nil {
		return err
	}

	now := sdkctx.NowUnix(ctx)
	var schedules []types.VestingSchedule
	rng := new(collections.Range[uint64]).Descending()
	err = k.Schedules.Walk(ctx, rng, func(_ uint64, s types.VestingSchedule) (bool, error) {
		schedules = append(schedules, s)
		return false, nil
	})
	if err != nil {
		return err
	}

	remaining := amount
	taken := sdkmath.ZeroInt()
	for _, s := range schedules {
		if !remaining.IsPositive() {
			break
		}
		cut := fixedpoint.Min(remaining, s.Unvested())
		if cut.IsZero() {
			continue
		}
		remaining = remaining.Sub(cut)
		taken = taken.Add(cut)
		// restart the window at now so the remainder keeps vesting linearly
		s.Declared = s.Unvested().Sub(cut)
		s.Vested = sdkmath.ZeroInt()
		s.WindowStart = now
		if s.Declared.IsZero() {
			err = k.Schedules.Remove(ctx, s.ID)
		} else {
			err = k.Schedules.Set(ctx, s.ID, s)
		}
		if err != nil {
			return err
		}
	}

	sdkctx.EmitEvent(ctx, sdk.NewEvent(
		types.EventTypeForfeit,
		sdk.NewAttribute("amount", amount.String()),
		sdk.NewAttribute("unvested_returned", taken.String()),
		sdk.NewAttribute("total_declared", declared.String()),
	))
	if taken.IsZero() {
		k.Logger(ctx).Debug("forfeit found nothing unvested", "amount", amount.String())
		return nil
	}
	params, err := k.GetParams(ctx)
	if err != nil {
		return err
	}
	return k.sendToForfeitHandler(ctx, params, taken)
}

func (k Keeper) reduceDeclared(ctx context.Context, amount sdkmath.Int) (sdkmath.Int, error) {
	if amount.IsNil() || amount.IsNegative() {
		return sdkmath.ZeroInt(), errorsmod.Wrap(types.ErrInvalidAmount, "amount must be non-negative")
	}
	declared, err := k.TotalDeclaredReward(ctx)
	if err != nil {
		return sdkmath.ZeroInt(), err
	}
	if amount.GT(declared) {
		return sdkmath.ZeroInt(), errorsmod.Wrapf(types.ErrExceedsDeclared, "%s > %s", amount, declared)
	}
	declared = declared.Sub(amount)
	return declared, k.TotalDeclared.Set(ctx, declared)
}

func (k Keeper) sendToForfeitHandler(ctx context.Context, params types.Params, amount sdkmath.Int) error {
	if k.forfeitHandler == nil {
		return types.ErrNoForfeitHandler
	}
	if err := k.bankKeeper.SendCoinsFromModuleToAccount(ctx, types.ModuleName, k.forfeitHandler.Address(), k.rewardCoins(params, amount)); err != nil {
		return err
	}
	telemetry.IncrCounter(1, types.ModuleName, "forfeits")
	return k.forfeitHandler.HandleForfeit(ctx, amount)
}
