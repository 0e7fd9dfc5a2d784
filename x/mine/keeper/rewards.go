package keeper

import (
	"context"

	errorsmod "cosmossdk.io/errors"
	sdkmath "cosmossdk.io/math"
	"github.com/cosmos/cosmos-sdk/telemetry"
	sdk "github.com/cosmos/cosmos-sdk/types"

	"github.com/maltprotocol/malt/internal/fixedpoint"
	"github.com/maltprotocol/malt/internal/sdkctx"
	"github.com/maltprotocol/malt/x/mine/types"
)

// shareState is the pool-wide state every reward share is computed from.
type shareState struct {
	declared sdkmath.Int // T
	padding  sdkmath.Int // G
	bonded   sdkmath.Int // B
}

func (k Keeper) loadShareState(ctx context.Context) (shareState, error) {
	if err := k.ready(); err != nil {
		return shareState{}, err
	}
	declared, err := k.distributor.TotalDeclaredReward(ctx)
	if err != nil {
		return shareState{}, err
	}
	padding, err := k.TotalPadding(ctx)
	if err != nil {
		return shareState{}, err
	}
	bonded, err := k.bondingKeeper.TotalBonded(ctx)
	if err != nil {
		return shareState{}, err
	}
	return shareState{declared: declared, padding: padding, bonded: bonded}, nil
}

// balanceOf is (T+G)*stake/B minus the account's padding, floored at zero.
func (s shareState) balanceOf(stake, padding sdkmath.Int) (sdkmath.Int, error) {
	if !s.bonded.IsPositive() || !stake.IsPositive() {
		return sdkmath.ZeroInt(), nil
	}
	gross, err := fixedpoint.MulDiv(s.declared.Add(s.padding), stake, s.bonded)
	if err != nil {
		return sdkmath.ZeroInt(), err
	}
	return fixedpoint.SaturatingSub(gross, padding), nil
}

// BalanceOfRewards is the account's share of all declared reward, vested
// or not, including what it already withdrew.
func (k Keeper) BalanceOfRewards(ctx context.Context, account sdk.AccAddress) (sdkmath.Int, error) {
	state, err := k.loadShareState(ctx)
	if err != nil {
		return sdkmath.ZeroInt(), err
	}
	return k.balanceOfRewards(ctx, state, account)
}

func (k Keeper) balanceOfRewards(ctx context.Context, state shareState, account sdk.AccAddress) (sdkmath.Int, error) {
	stake, err := k.bondingKeeper.BalanceOfBonded(ctx, account)
	if err != nil {
		return sdkmath.ZeroInt(), err
	}
	padding, err := k.BalanceOfStakePadding(ctx, account)
	if err != nil {
		return sdkmath.ZeroInt(), err
	}
	return state.balanceOf(stake, padding)
}

// Earned is what the account can withdraw now: its unwithdrawn share,
// capped by reward actually vested into the mine and not yet paid out.
func (k Keeper) Earned(ctx context.Context, account sdk.AccAddress) (sdkmath.Int, error) {
	balance, err := k.BalanceOfRewards(ctx, account)
	if err != nil {
		return sdkmath.ZeroInt(), err
	}
	return k.earned(ctx, account, balance)
}

func (k Keeper) earned(ctx context.Context, account sdk.AccAddress, balance sdkmath.Int) (sdkmath.Int, error) {
	withdrawn, err := k.WithdrawnBy(ctx, account)
	if err != nil {
		return sdkmath.ZeroInt(), err
	}
	released, err := k.distributor.TotalReleasedReward(ctx)
	if err != nil {
		return sdkmath.ZeroInt(), err
	}
	paid, err := getInt(ctx, k.GlobalWithdrawn)
	if err != nil {
		return sdkmath.ZeroInt(), err
	}
	return fixedpoint.Min(
		fixedpoint.SaturatingSub(balance, withdrawn),
		fixedpoint.SaturatingSub(released, paid),
	), nil
}

// OnBond pads a new bond so that it earns nothing from reward declared
// before it. It must run before the bonding keeper records the stake.
func (k Keeper) OnBond(ctx context.Context, caller string, account sdk.AccAddress, amount sdkmath.Int) error {
	if err := k.Roles.Require(ctx, caller, types.RoleMiningService); err != nil {
		return err
	}
	if amount.IsNil() || amount.IsNegative() {
		return errorsmod.Wrap(types.ErrInvalidAmount, "bond amount must be non-negative")
	}
	if amount.IsZero() {
		return nil
	}
	state, err := k.loadShareState(ctx)
	if err != nil {
		return err
	}

	var padding sdkmath.Int
	if state.bonded.IsPositive() {
		if padding, err = fixedpoint.MulDiv(state.declared.Add(state.padding), amount, state.bonded); err != nil {
			return err
		}
	} else {
		if padding, err = fixedpoint.Mul(amount, sdkmath.NewInt(types.InitialPaddingMultiplier)); err != nil {
			return err
		}
	}

	current, err := k.BalanceOfStakePadding(ctx, account)
	if err != nil {
		return err
	}
	if err := setAccountInt(ctx, k.StakePadding, account, current.Add(padding)); err != nil {
		return err
	}
	if err := k.TotalStakePadding.Set(ctx, state.padding.Add(padding)); err != nil {
		return err
	}

	sdkctx.EmitEvent(ctx, sdk.NewEvent(
		types.EventTypeBond,
		sdk.NewAttribute("account", account.String()),
		sdk.NewAttribute("amount", amount.String()),
		sdk.NewAttribute("stake_padding", padding.String()),
	))
	return nil
}

// OnUnbond settles an unbond before the bonding keeper removes the stake.
// Earned reward is paid out. Of the rest, the unbonded fraction is
// forfeited if unpaid and decremented from the declared total if already
// paid, and padding shrinks by the same fraction.
func (k Keeper) OnUnbond(ctx context.Context, caller string, account sdk.AccAddress, amount sdkmath.Int) error {
	if err := k.Roles.Require(ctx, caller, types.RoleMiningService); err != nil {
		return err
	}
	if amount.IsNil() || amount.IsNegative() {
		return errorsmod.Wrap(types.ErrInvalidAmount, "unbond amount must be non-negative")
	}
	if err := k.ready(); err != nil {
		return err
	}
	stake, err := k.bondingKeeper.BalanceOfBonded(ctx, account)
	if err != nil {
		return err
	}
	if amount.GT(stake) {
		return errorsmod.Wrapf(types.ErrUnbondExceedsBond, "unbonding %s of %s", amount, stake)
	}
	if amount.IsZero() {
		return nil
	}

	if _, err := k.withdraw(ctx, account, account, sdkmath.ZeroInt(), true); err != nil {
		return err
	}

	state, err := k.loadShareState(ctx)
	if err != nil {
		return err
	}
	balance, err := k.balanceOfRewards(ctx, state, account)
	if err != nil {
		return err
	}
	withdrawn, err := k.WithdrawnBy(ctx, account)
	if err != nil {
		return err
	}
	padding, err := k.BalanceOfStakePadding(ctx, account)
	if err != nil {
		return err
	}

	unpaid := fixedpoint.SaturatingSub(balance, withdrawn)
	forfeit, withdrawnCut, paddingCut := unpaid, withdrawn, padding
	if amount.LT(stake) {
		if forfeit, err = fixedpoint.MulDiv(unpaid, amount, stake); err != nil {
			return err
		}
		if withdrawnCut, err = fixedpoint.MulDiv(withdrawn, amount, stake); err != nil {
			return err
		}
		if paddingCut, err = fixedpoint.MulDiv(padding, amount, stake); err != nil {
			return err
		}
	}
	decrement := fixedpoint.Min(withdrawnCut, state.declared)
	forfeit = fixedpoint.Min(forfeit, state.declared.Sub(decrement))

	self := k.ModuleAddress().String()
	if decrement.IsPositive() {
		if err := k.distributor.DecrementRewards(ctx, self, decrement); err != nil {
			return err
		}
	}
	if forfeit.IsPositive() {
		if err := k.distributor.Forfeit(ctx, self, forfeit); err != nil {
			return err
		}
	}

	if err := setAccountInt(ctx, k.Withdrawn, account, withdrawn.Sub(withdrawnCut)); err != nil {
		return err
	}
	if err := setAccountInt(ctx, k.StakePadding, account, padding.Sub(paddingCut)); err != nil {
		return err
	}
	if err := k.TotalStakePadding.Set(ctx, fixedpoint.SaturatingSub(state.padding, paddingCut)); err != nil {
		return err
	}

	sdkctx.EmitEvent(ctx, sdk.NewEvent(
		types.EventTypeUnbond,
		sdk.NewAttribute("account", account.String()),
		sdk.NewAttribute("amount", amount.String()),
		sdk.NewAttribute("forfeited", forfeit.String()),
		sdk.NewAttribute("decremented", decrement.String()),
	))
	k.Logger(ctx).Info("settled unbond",
		"account", account.String(),
		"amount", amount.String(),
		"forfeited", forfeit.String(),
		"decremented", decrement.String(),
	)
	return nil
}

// Withdraw pays the account up to amount of its earned reward.
func (k Keeper) Withdraw(ctx context.Context, account sdk.AccAddress, amount sdkmath.Int) (sdkmath.Int, error) {
	return k.withdraw(ctx, account, account, amount, false)
}

// WithdrawAll pays the account everything it has earned.
func (k Keeper) WithdrawAll(ctx context.Context, account sdk.AccAddress) (sdkmath.Int, error) {
	return k.withdraw(ctx, account, account, sdkmath.ZeroInt(), true)
}

// WithdrawForAccount pays up to amount of the account's earned reward to
// another address.
func (k Keeper) WithdrawForAccount(ctx context.Context, caller string, account sdk.AccAddress, amount sdkmath.Int, to sdk.AccAddress) (sdkmath.Int, error) {
	if err := k.Roles.Require(ctx, caller, types.RoleMiningService, types.RoleReinvestor); err != nil {
		return sdkmath.ZeroInt(), err
	}
	if to.Empty() {
		return sdkmath.ZeroInt(), errorsmod.Wrap(types.ErrInvalidRecipient, "empty recipient")
	}
	return k.withdraw(ctx, account, to, amount, false)
}

// withdraw pays min(amount, earned), or all earned reward when all is set.
// Requests above what was earned are capped, never rejected.
func (k Keeper) withdraw(ctx context.Context, account, to sdk.AccAddress, amount sdkmath.Int, all bool) (sdkmath.Int, error) {
	if !all && (amount.IsNil() || amount.IsNegative()) {
		return sdkmath.ZeroInt(), errorsmod.Wrap(types.ErrInvalidAmount, "withdraw amount must be non-negative")
	}
	earned, err := k.Earned(ctx, account)
	if err != nil {
		return sdkmath.ZeroInt(), err
	}
	paid := earned
	if !all {
		paid = fixedpoint.Min(amount, earned)
	}
	if !paid.IsPositive() {
		return sdkmath.ZeroInt(), nil
	}

	withdrawn, err := k.WithdrawnBy(ctx, account)
	if err != nil {
		return sdkmath.ZeroInt(), err
	}
	if err := setAccountInt(ctx, k.Withdrawn, account, withdrawn.Add(paid)); err != nil {
		return sdkmath.ZeroInt(), err
	}
	global, err := getInt(ctx, k.GlobalWithdrawn)
	if err != nil {
		return sdkmath.ZeroInt(), err
	}
	if err := k.GlobalWithdrawn.Set(ctx, global.Add(paid)); err != nil {
		return sdkmath.ZeroInt(), err
	}

	params, err := k.GetParams(ctx)
	if err != nil {
		return sdkmath.ZeroInt(), err
	}
	coins := sdk.NewCoins(sdk.NewCoin(params.RewardDenom, paid))
	if err := k.bankKeeper.SendCoinsFromModuleToAccount(ctx, types.ModuleName, to, coins); err != nil {
		return sdkmath.ZeroInt(), err
	}

	sdkctx.EmitEvent(ctx, sdk.NewEvent(
		types.EventTypeWithdraw,
		sdk.NewAttribute("account", account.String()),
		sdk.NewAttribute("recipient", to.String()),
		sdk.NewAttribute("amount", paid.String()),
	))
	telemetry.IncrCounter(1, types.ModuleName, "withdrawals")
	return paid, nil
}
