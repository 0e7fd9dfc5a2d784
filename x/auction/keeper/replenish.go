package keeper

import (
	"context"
	"fmt"

	errorsmod "cosmossdk.io/errors"
	sdkmath "cosmossdk.io/math"
	"github.com/cosmos/cosmos-sdk/telemetry"
	sdk "github.com/cosmos/cosmos-sdk/types"

	"github.com/maltprotocol/malt/internal/fixedpoint"
	"github.com/maltprotocol/malt/internal/sdkctx"
	"github.com/maltprotocol/malt/x/auction/types"
)

// AllocateArbRewards applies ArbTokenReplenishSplit of amount, plus any
// carried excess, to outstanding arbitrage tokens in auction order. Only
// the share actually applied is taken from caller; the rest of amount is
// returned.
func (k Keeper) AllocateArbRewards(ctx context.Context, caller string, amount sdkmath.Int) (sdkmath.Int, error) {
	if err := k.Roles.Require(ctx, caller, types.RoleStabilizer); err != nil {
		return sdkmath.ZeroInt(), err
	}
	if amount.IsNil() || !amount.IsPositive() {
		return sdkmath.ZeroInt(), nil
	}
	callerAddr, err := sdk.AccAddressFromBech32(caller)
	if err != nil {
		return sdkmath.ZeroInt(), errorsmod.Wrapf(types.ErrInvalidRecipient, "caller %s: %s", caller, err)
	}

	params, err := k.GetParams(ctx)
	if err != nil {
		return sdkmath.ZeroInt(), err
	}
	split, err := fixedpoint.Bps(amount, params.ArbTokenReplenishSplit, fixedpoint.BpsBase)
	if err != nil {
		return sdkmath.ZeroInt(), err
	}
	excess, err := k.getExcess(ctx)
	if err != nil {
		return sdkmath.ZeroInt(), err
	}

	allocated, err := k.replenish(ctx, split.Add(excess))
	if err != nil {
		return sdkmath.ZeroInt(), err
	}

	fromExcess := fixedpoint.Min(allocated, excess)
	fromCaller := allocated.Sub(fromExcess)
	if err := k.ExcessRewards.Set(ctx, excess.Sub(fromExcess)); err != nil {
		return sdkmath.ZeroInt(), err
	}
	if fromCaller.IsPositive() {
		if err := k.bankKeeper.SendCoinsFromAccountToModule(ctx, callerAddr, types.ModuleName, k.reserveCoins(params, fromCaller)); err != nil {
			return sdkmath.ZeroInt(), err
		}
	}

	returned := amount.Sub(fromCaller)
	k.Logger(ctx).Debug("allocated arbitrage rewards",
		"offered", amount.String(),
		"applied", fromCaller.String(),
		"from_excess", fromExcess.String(),
		"returned", returned.String(),
	)
	return returned, nil
}

// replenish walks auctions from the replenishing cursor and raises their
// claimable tokens by at most budget in total. The cursor only moves past
// an auction once it is fully replenished or has no commitments, and the
// walk stops at the first unfinalized auction.
func (k Keeper) replenish(ctx context.Context, budget sdkmath.Int) (sdkmath.Int, error) {
	cursor, err := k.getUint64(ctx, k.ReplenishingAuctionID)
	if err != nil {
		return sdkmath.ZeroInt(), err
	}
	next, err := k.AuctionSeq.Peek(ctx)
	if err != nil {
		return sdkmath.ZeroInt(), err
	}

	remaining := budget
	allocated := sdkmath.ZeroInt()
	for id := cursor; id < next; id++ {
		auction, err := k.GetAuction(ctx, id)
		if err != nil {
			return sdkmath.ZeroInt(), err
		}
		if !auction.Finalized {
			break
		}
		outstanding := auction.OutstandingArbTokens()
		if auction.Commitments.IsZero() || outstanding.IsZero() {
			cursor = id + 1
			continue
		}
		if !remaining.IsPositive() {
			break
		}

		applied := fixedpoint.Min(remaining, outstanding)
		auction.ClaimableTokens = auction.ClaimableTokens.Add(applied)
		remaining = remaining.Sub(applied)
		allocated = allocated.Add(applied)
		if err := k.setAuction(ctx, auction); err != nil {
			return sdkmath.ZeroInt(), err
		}

		sdkctx.EmitEvent(ctx, sdk.NewEvent(
			types.EventTypeAuctionReplenish,
			sdk.NewAttribute("auction_id", fmt.Sprintf("%d", id)),
			sdk.NewAttribute("amount", applied.String()),
			sdk.NewAttribute("claimable_tokens", auction.ClaimableTokens.String()),
		))

		if applied.LT(outstanding) {
			break
		}
		cursor = id + 1
	}

	if err := k.ReplenishingAuctionID.Set(ctx, cursor); err != nil {
		return sdkmath.ZeroInt(), err
	}
	return allocated, nil
}

// ClaimArbitrage pays account the replenished arbitrage tokens of auction
// id it has not redeemed yet, one reserve unit per token.
func (k Keeper) ClaimArbitrage(ctx context.Context, account sdk.AccAddress, id uint64) (sdkmath.Int, error) {
	auction, err := k.GetAuction(ctx, id)
	if err != nil {
		return sdkmath.ZeroInt(), err
	}
	participation, found, err := k.getParticipation(ctx, account, id)
	if err != nil {
		return sdkmath.ZeroInt(), err
	}
	if !found {
		return sdkmath.ZeroInt(), errorsmod.Wrapf(types.ErrNothingToClaim, "no participation in auction %d", id)
	}

	claimable, err := userClaimableArbTokens(auction, participation)
	if err != nil {
		return sdkmath.ZeroInt(), err
	}
	payout := fixedpoint.SaturatingSub(claimable, participation.Redeemed)
	if !payout.IsPositive() {
		return sdkmath.ZeroInt(), errorsmod.Wrapf(types.ErrNothingToClaim, "auction %d", id)
	}

	params, err := k.GetParams(ctx)
	if err != nil {
		return sdkmath.ZeroInt(), err
	}
	if err := k.bankKeeper.SendCoinsFromModuleToAccount(ctx, types.ModuleName, account, k.reserveCoins(params, payout)); err != nil {
		return sdkmath.ZeroInt(), err
	}
	participation.Redeemed = participation.Redeemed.Add(payout)
	if err := k.setParticipation(ctx, account, participation); err != nil {
		return sdkmath.ZeroInt(), err
	}

	sdkctx.EmitEvent(ctx, sdk.NewEvent(
		types.EventTypeArbitrageClaimed,
		sdk.NewAttribute("auction_id", fmt.Sprintf("%d", id)),
		sdk.NewAttribute("account", account.String()),
		sdk.NewAttribute("amount", payout.String()),
	))
	telemetry.IncrCounter(1, types.ModuleName, "claims")
	return payout, nil
}

// balanceOfArbTokens is the account's pro-rata share of the auction's
// arbitrage tokens.
func balanceOfArbTokens(a types.Auction, p types.AccountParticipation) (sdkmath.Int, error) {
	if a.Commitments.IsZero() {
		return sdkmath.ZeroInt(), nil
	}
	return fixedpoint.MulDiv(p.Commitment, a.MaltPurchased, a.Commitments)
}

// userClaimableArbTokens is the replenished part of the account's balance,
// including what was already redeemed.
func userClaimableArbTokens(a types.Auction, p types.AccountParticipation) (sdkmath.Int, error) {
	if a.MaltPurchased.IsZero() {
		return sdkmath.ZeroInt(), nil
	}
	balance, err := balanceOfArbTokens(a, p)
	if err != nil {
		return sdkmath.ZeroInt(), err
	}
	return fixedpoint.MulDiv(balance, a.ClaimableTokens, a.MaltPurchased)
}

// BalanceOfArbTokens returns the arbitrage tokens account holds in auction id.
func (k Keeper) BalanceOfArbTokens(ctx context.Context, id uint64, account sdk.AccAddress) (sdkmath.Int, error) {
	auction, err := k.GetAuction(ctx, id)
	if err != nil {
		return sdkmath.ZeroInt(), err
	}
	p, _, err := k.getParticipation(ctx, account, id)
	if err != nil {
		return sdkmath.ZeroInt(), err
	}
	return balanceOfArbTokens(auction, p)
}

// UserClaimableArbTokens returns the cumulative claimable arbitrage tokens
// of account in auction id. Redeemed tokens are included.
func (k Keeper) UserClaimableArbTokens(ctx context.Context, account sdk.AccAddress, id uint64) (sdkmath.Int, error) {
	auction, err := k.GetAuction(ctx, id)
	if err != nil {
		return sdkmath.ZeroInt(), err
	}
	p, _, err := k.getParticipation(ctx, account, id)
	if err != nil {
		return sdkmath.ZeroInt(), err
	}
	return userClaimableArbTokens(auction, p)
}
