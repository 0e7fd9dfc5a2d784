package keeper

import (
	"context"

	"cosmossdk.io/collections"
	errorsmod "cosmossdk.io/errors"
	sdkmath "cosmossdk.io/math"

	"github.com/maltprotocol/malt/internal/fixedpoint"
	"github.com/maltprotocol/malt/x/throttle/types"
)

// Targets is the throttled reward goal of an epoch.
type Targets struct {
	EpochProfit sdkmath.Int
	// APR is annualised in basis points.
	APR sdkmath.Int
}

// GetTargets averages profit per unit bonded over up to smoothingPeriod
// epochs before epoch, skipping epoch 0 and epochs with nothing bonded,
// scales it to the epoch's bonded value and adds the throttle headroom.
// ok is false when there is no baseline, in which case rewards go
// through unthrottled.
func (k Keeper) GetTargets(ctx context.Context, epoch, smoothingPeriod uint64) (Targets, bool, error) {
	zero := Targets{EpochProfit: sdkmath.ZeroInt(), APR: sdkmath.ZeroInt()}
	if epoch == 0 {
		return zero, false, nil
	}
	if err := k.ready(); err != nil {
		return zero, false, err
	}
	params, err := k.GetParams(ctx)
	if err != nil {
		return zero, false, err
	}

	start := uint64(1)
	if epoch > smoothingPeriod+1 {
		start = epoch - smoothingPeriod
	}
	rng := new(collections.Range[uint64]).StartInclusive(start).EndExclusive(epoch)

	sum := sdkmath.ZeroInt()
	count := int64(0)
	err = k.Epochs.Walk(ctx, rng, func(_ uint64, rec types.EpochRecord) (bool, error) {
		if !rec.BondedValue.IsPositive() {
			return false, nil
		}
		ratio, err := fixedpoint.DivUnity(rec.Profit, rec.BondedValue)
		if err != nil {
			return true, err
		}
		sum = sum.Add(ratio)
		count++
		return false, nil
	})
	if err != nil {
		return zero, false, err
	}
	if count == 0 {
		return zero, false, nil
	}

	current, err := k.touchEpoch(ctx, epoch, params)
	if err != nil {
		return zero, false, err
	}
	if !current.BondedValue.IsPositive() {
		return zero, false, nil
	}

	mean := sum.QuoRaw(count)
	full, err := fixedpoint.MulUnity(mean, current.BondedValue)
	if err != nil {
		return zero, false, err
	}
	target, err := fixedpoint.Bps(full, fixedpoint.BpsBase+current.ThrottleAmount, fixedpoint.BpsBase)
	if err != nil {
		return zero, false, err
	}
	apr, err := k.annualise(ctx, target, current.BondedValue)
	if err != nil {
		return zero, false, err
	}
	return Targets{EpochProfit: target, APR: apr}, true, nil
}

// annualise converts one epoch's reward into an APR in basis points.
func (k Keeper) annualise(ctx context.Context, reward, bonded sdkmath.Int) (sdkmath.Int, error) {
	if !bonded.IsPositive() {
		return sdkmath.ZeroInt(), nil
	}
	epochsPerYear, err := k.daoKeeper.EpochsPerYear(ctx)
	if err != nil {
		return sdkmath.ZeroInt(), err
	}
	scaled, err := fixedpoint.Mul(reward, sdkmath.NewIntFromUint64(epochsPerYear*fixedpoint.BpsBase))
	if err != nil {
		return sdkmath.ZeroInt(), err
	}
	return scaled.Quo(bonded), nil
}

func (k Keeper) currentTargets(ctx context.Context) (Targets, error) {
	if err := k.ready(); err != nil {
		return Targets{}, err
	}
	epoch, err := k.daoKeeper.Epoch(ctx)
	if err != nil {
		return Targets{}, err
	}
	params, err := k.GetParams(ctx)
	if err != nil {
		return Targets{}, err
	}
	targets, _, err := k.GetTargets(ctx, epoch, params.SmoothingPeriod)
	return targets, err
}

// TargetEpochProfit is the current epoch's reward target, zero without a
// baseline.
func (k Keeper) TargetEpochProfit(ctx context.Context) (sdkmath.Int, error) {
	targets, err := k.currentTargets(ctx)
	if err != nil {
		return sdkmath.ZeroInt(), err
	}
	return targets.EpochProfit, nil
}

// TargetAPR is the current epoch's target APR in basis points.
func (k Keeper) TargetAPR(ctx context.Context) (sdkmath.Int, error) {
	targets, err := k.currentTargets(ctx)
	if err != nil {
		return sdkmath.ZeroInt(), err
	}
	return targets.APR, nil
}

// EpochAPR is the APR, in basis points, an epoch's declared rewards
// represent.
func (k Keeper) EpochAPR(ctx context.Context, epoch uint64) (sdkmath.Int, error) {
	if k.daoKeeper == nil {
		return sdkmath.ZeroInt(), errorsmod.Wrap(types.ErrNotConfigured, "dao")
	}
	rec, err := k.EpochData(ctx, epoch)
	if err != nil {
		return sdkmath.ZeroInt(), err
	}
	return k.annualise(ctx, rec.Rewarded, rec.BondedValue)
}

// AverageAPR averages EpochAPR over [start, end), counting only epochs
// with bonded value.
func (k Keeper) AverageAPR(ctx context.Context, start, end uint64) (sdkmath.Int, error) {
	if end <= start {
		return sdkmath.ZeroInt(), errorsmod.Wrapf(types.ErrInvalidEpochs, "[%d, %d)", start, end)
	}
	if k.daoKeeper == nil {
		return sdkmath.ZeroInt(), errorsmod.Wrap(types.ErrNotConfigured, "dao")
	}
	rng := new(collections.Range[uint64]).StartInclusive(start).EndExclusive(end)
	total := sdkmath.ZeroInt()
	count := int64(0)
	err := k.Epochs.Walk(ctx, rng, func(_ uint64, rec types.EpochRecord) (bool, error) {
		if !rec.BondedValue.IsPositive() {
			return false, nil
		}
		apr, err := k.annualise(ctx, rec.Rewarded, rec.BondedValue)
		if err != nil {
			return true, err
		}
		total = total.Add(apr)
		count++
		return false, nil
	})
	if err != nil || count == 0 {
		return sdkmath.ZeroInt(), err
	}
	return total.QuoRaw(count), nil
}
