package keeper

import (
	"context"
	"errors"
	"fmt"

	sdkmath "cosmossdk.io/math"
	"github.com/cosmos/cosmos-sdk/telemetry"
	sdk "github.com/cosmos/cosmos-sdk/types"

	"github.com/maltprotocol/malt/internal/fixedpoint"
	"github.com/maltprotocol/malt/internal/sdkctx"
	auctiontypes "github.com/maltprotocol/malt/x/auction/types"
	"github.com/maltprotocol/malt/x/overflow/types"
)

// PurchaseArbitrageTokens commits idle pool capital, at most maxAmount and
// at most MaxFulfillment of the pool, to the active auction. Without an
// open auction it does nothing.
func (k Keeper) PurchaseArbitrageTokens(ctx context.Context, caller string, maxAmount sdkmath.Int) (sdkmath.Int, error) {
	if err := k.Roles.Require(ctx, caller, types.RoleAuctionOperator); err != nil {
		return sdkmath.ZeroInt(), err
	}
	if k.auctionKeeper == nil {
		return sdkmath.ZeroInt(), types.ErrNoAuctionKeeper
	}
	if maxAmount.IsNil() || !maxAmount.IsPositive() {
		return sdkmath.ZeroInt(), nil
	}

	id, active, err := k.auctionKeeper.GetActiveAuctionID(ctx)
	if err != nil || !active {
		return sdkmath.ZeroInt(), err
	}

	params, err := k.GetParams(ctx)
	if err != nil {
		return sdkmath.ZeroInt(), err
	}
	ceiling, err := k.maxRelease(ctx, params)
	if err != nil {
		return sdkmath.ZeroInt(), err
	}
	amount := fixedpoint.Min(maxAmount, ceiling)
	if !amount.IsPositive() {
		return sdkmath.ZeroInt(), nil
	}

	committed, err := k.auctionKeeper.PurchaseArbitrageTokens(ctx, k.ModuleAddress(), amount)
	if errors.Is(err, auctiontypes.ErrAuctionNotActive) || errors.Is(err, auctiontypes.ErrNothingToClaim) {
		return sdkmath.ZeroInt(), nil
	}
	if err != nil {
		return sdkmath.ZeroInt(), err
	}
	if err := k.recordAuction(ctx, id); err != nil {
		return sdkmath.ZeroInt(), err
	}

	sdkctx.EmitEvent(ctx, sdk.NewEvent(
		"overflow_auction_commitment",
		sdk.NewAttribute("auction_id", fmt.Sprintf("%d", id)),
		sdk.NewAttribute("amount", committed.String()),
	))
	telemetry.IncrCounter(1, types.ModuleName, "auction_commitments")
	return committed, nil
}

func (k Keeper) recordAuction(ctx context.Context, id uint64) error {
	count, err := k.getUint64(ctx, k.AuctionCount)
	if err != nil {
		return err
	}
	if count > 0 {
		last, err := k.AuctionIDs.Get(ctx, count-1)
		if err != nil {
			return err
		}
		if last == id {
			return nil
		}
	}
	if err := k.AuctionIDs.Set(ctx, count, id); err != nil {
		return err
	}
	return k.AuctionCount.Set(ctx, count+1)
}

// ClaimArbitrage collects replenished arbitrage tokens for every auction
// the pool joined, oldest first. The index moves past an auction once all
// of the pool's tokens in it are redeemed. Proceeds stay in the pool.
func (k Keeper) ClaimArbitrage(ctx context.Context) (sdkmath.Int, error) {
	if k.auctionKeeper == nil {
		return sdkmath.ZeroInt(), types.ErrNoAuctionKeeper
	}
	index, err := k.getUint64(ctx, k.ReplenishingIndex)
	if err != nil {
		return sdkmath.ZeroInt(), err
	}
	count, err := k.getUint64(ctx, k.AuctionCount)
	if err != nil {
		return sdkmath.ZeroInt(), err
	}

	pool := k.ModuleAddress()
	claimed := sdkmath.ZeroInt()
	for ; index < count; index++ {
		id, err := k.AuctionIDs.Get(ctx, index)
		if err != nil {
			return claimed, err
		}

		paid, err := k.auctionKeeper.ClaimArbitrage(ctx, pool, id)
		switch {
		case errors.Is(err, auctiontypes.ErrNothingToClaim):
		case err != nil:
			return claimed, err
		default:
			claimed = claimed.Add(paid)
		}

		balance, err := k.auctionKeeper.BalanceOfArbTokens(ctx, id, pool)
		if err != nil {
			return claimed, err
		}
		participation, err := k.auctionKeeper.GetAccountParticipation(ctx, pool, id)
		if err != nil && !errors.Is(err, auctiontypes.ErrParticipationNotFound) {
			return claimed, err
		}
		if err == nil && participation.Redeemed.LT(balance) {
			break
		}
	}
	if err := k.ReplenishingIndex.Set(ctx, index); err != nil {
		return claimed, err
	}

	if claimed.IsPositive() {
		sdkctx.EmitEvent(ctx, sdk.NewEvent(
			"overflow_arbitrage_claimed",
			sdk.NewAttribute("amount", claimed.String()),
			sdk.NewAttribute("replenishing_index", fmt.Sprintf("%d", index)),
		))
	}
	return claimed, nil
}
