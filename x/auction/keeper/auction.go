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

// TriggerAuction opens a Dutch auction to raise up to
// purchaseAmount*(1-reserveRatio) of reserve. pegPrice is 1e18 fixed point.
// An expired predecessor is finalized first.
func (k Keeper) TriggerAuction(
	ctx context.Context,
	caller string,
	pegPrice sdkmath.Int,
	purchaseAmount sdkmath.Int,
) (types.Auction, error) {
	if err := k.Roles.Require(ctx, caller, types.RoleStabilizer); err != nil {
		return types.Auction{}, err
	}
	if k.halted(ctx) {
		return types.Auction{}, types.ErrAuctionsHalted
	}
	if pegPrice.IsNil() || !pegPrice.IsPositive() {
		return types.Auction{}, errorsmod.Wrap(types.ErrInvalidPrice, "peg price must be positive")
	}
	if purchaseAmount.IsNil() || !purchaseAmount.IsPositive() {
		return types.Auction{}, errorsmod.Wrap(types.ErrInvalidAmount, "purchase amount must be positive")
	}

	if _, err := k.CheckAuctionFinalization(ctx); err != nil {
		return types.Auction{}, err
	}
	if latest, found, err := k.latestAuction(ctx); err != nil {
		return types.Auction{}, err
	} else if found && latest.Active {
		return types.Auction{}, errorsmod.Wrapf(types.ErrAuctionActive, "auction %d", latest.ID)
	}

	params, err := k.GetParams(ctx)
	if err != nil {
		return types.Auction{}, err
	}
	ratio, decimals, err := k.liquidityExtension.ReserveRatio(ctx)
	if err != nil {
		return types.Auction{}, fmt.Errorf("read reserve ratio: %w", err)
	}
	reserveRatio := fixedpoint.FromRatio(ratio, decimals)

	maxCommitments, err := fixedpoint.MulUnity(purchaseAmount, fixedpoint.SaturatingSub(fixedpoint.Unity, reserveRatio))
	if err != nil {
		return types.Auction{}, err
	}
	if !maxCommitments.IsPositive() {
		return types.Auction{}, errorsmod.Wrapf(types.ErrInvalidAmount,
			"reserve ratio %s leaves no auction capacity", fixedpoint.Format(reserveRatio))
	}
	startingPrice, endingPrice, err := calculateAuctionPricing(params, pegPrice, reserveRatio)
	if err != nil {
		return types.Auction{}, err
	}

	if k.impliedCollateral != nil {
		if err := k.impliedCollateral.HandleDeficit(ctx, purchaseAmount); err != nil {
			return types.Auction{}, fmt.Errorf("implied collateral: %w", err)
		}
	}

	id, err := k.AuctionSeq.Next(ctx)
	if err != nil {
		return types.Auction{}, err
	}
	now := sdkctx.NowUnix(ctx)
	auction := types.NewAuction(
		id,
		now,
		now+int64(params.AuctionLength),
		pegPrice,
		startingPrice,
		endingPrice,
		reserveRatio,
		maxCommitments,
	)
	if err := k.setAuction(ctx, auction); err != nil {
		return types.Auction{}, err
	}

	sdkctx.EmitEvent(ctx, sdk.NewEvent(
		types.EventTypeAuctionTriggered,
		sdk.NewAttribute("auction_id", fmt.Sprintf("%d", id)),
		sdk.NewAttribute("max_commitments", maxCommitments.String()),
		sdk.NewAttribute("starting_price", fixedpoint.Format(startingPrice)),
		sdk.NewAttribute("ending_price", fixedpoint.Format(endingPrice)),
		sdk.NewAttribute("reserve_ratio", fixedpoint.Format(reserveRatio)),
		sdk.NewAttribute("ending_time", fmt.Sprintf("%d", auction.EndingTime)),
	))
	telemetry.IncrCounter(1, types.ModuleName, "triggered")
	k.Logger(ctx).Info("auction triggered",
		"auction_id", id,
		"max_commitments", maxCommitments.String(),
		"ending_price", fixedpoint.Format(endingPrice),
	)

	return auction, nil
}

// PurchaseArbitrageTokens commits up to amount of buyer's reserve to the
// active auction and returns the commitment actually taken.
func (k Keeper) PurchaseArbitrageTokens(ctx context.Context, buyer sdk.AccAddress, amount sdkmath.Int) (sdkmath.Int, error) {
	if amount.IsNil() || !amount.IsPositive() {
		return sdkmath.ZeroInt(), errorsmod.Wrap(types.ErrInvalidAmount, "commitment must be positive")
	}
	if buyer.Empty() {
		return sdkmath.ZeroInt(), errorsmod.Wrap(types.ErrInvalidRecipient, "empty buyer")
	}
	if k.halted(ctx) {
		return sdkmath.ZeroInt(), types.ErrAuctionsHalted
	}

	auction, found, err := k.latestAuction(ctx)
	if err != nil {
		return sdkmath.ZeroInt(), err
	}
	now := sdkctx.NowUnix(ctx)
	if !found || !auction.Active || now >= auction.EndingTime {
		return sdkmath.ZeroInt(), types.ErrAuctionNotActive
	}

	effective := fixedpoint.Min(amount, auction.RemainingCapacity())
	if !effective.IsPositive() {
		return sdkmath.ZeroInt(), errorsmod.Wrapf(types.ErrNothingToClaim, "auction %d is full", auction.ID)
	}

	params, err := k.GetParams(ctx)
	if err != nil {
		return sdkmath.ZeroInt(), err
	}
	if err := k.bankKeeper.SendCoins(ctx, buyer, k.liquidityExtension.Address(), k.reserveCoins(params, effective)); err != nil {
		return sdkmath.ZeroInt(), err
	}
	purchased, err := k.liquidityExtension.PurchaseAndBurn(ctx, effective)
	if err != nil {
		return sdkmath.ZeroInt(), fmt.Errorf("purchase and burn: %w", err)
	}

	participation, _, err := k.getParticipation(ctx, buyer, auction.ID)
	if err != nil {
		return sdkmath.ZeroInt(), err
	}
	participation.Commitment = participation.Commitment.Add(effective)
	participation.MaltPurchased = participation.MaltPurchased.Add(purchased)
	auction.Commitments = auction.Commitments.Add(effective)
	auction.MaltPurchased = auction.MaltPurchased.Add(purchased)

	closed := auction.Commitments.GTE(auction.MaxCommitments)
	if closed {
		auction.Active = false
		auction.ClosedTime = now
	}

	if err := k.setParticipation(ctx, buyer, participation); err != nil {
		return sdkmath.ZeroInt(), err
	}
	if err := k.setAuction(ctx, auction); err != nil {
		return sdkmath.ZeroInt(), err
	}

	sdkctx.EmitEvent(ctx, sdk.NewEvent(
		types.EventTypeAuctionCommitted,
		sdk.NewAttribute("auction_id", fmt.Sprintf("%d", auction.ID)),
		sdk.NewAttribute("account", buyer.String()),
		sdk.NewAttribute("commitment", effective.String()),
		sdk.NewAttribute("malt_purchased", purchased.String()),
	))
	if closed {
		sdkctx.EmitEvent(ctx, sdk.NewEvent(
			types.EventTypeAuctionClosed,
			sdk.NewAttribute("auction_id", fmt.Sprintf("%d", auction.ID)),
			sdk.NewAttribute("price", fixedpoint.Format(priceAt(auction, now))),
		))
	}
	telemetry.IncrCounter(1, types.ModuleName, "commitments")

	return effective, nil
}

// CheckAuctionFinalization finalizes every auction whose ending time has
// passed. It reports whether any auction was finalized and is safe to call
// repeatedly.
func (k Keeper) CheckAuctionFinalization(ctx context.Context) (bool, error) {
	cursor, err := k.getUint64(ctx, k.FinalizationCursor)
	if err != nil {
		return false, err
	}
	next, err := k.AuctionSeq.Peek(ctx)
	if err != nil {
		return false, err
	}

	now := sdkctx.NowUnix(ctx)
	finalizedAny := false
	advancing := true
	for id := cursor; id < next; id++ {
		auction, err := k.GetAuction(ctx, id)
		if err != nil {
			return finalizedAny, err
		}
		if !auction.Finalized && now >= auction.EndingTime {
			if err := k.finalizeAuction(ctx, &auction, now); err != nil {
				return finalizedAny, err
			}
			finalizedAny = true
		}
		if advancing && auction.Finalized {
			cursor = id + 1
			continue
		}
		advancing = false
	}
	if err := k.FinalizationCursor.Set(ctx, cursor); err != nil {
		return finalizedAny, err
	}
	return finalizedAny, nil
}

func (k Keeper) finalizeAuction(ctx context.Context, auction *types.Auction, now int64) error {
	params, err := k.GetParams(ctx)
	if err != nil {
		return err
	}

	auction.FinalPrice = priceAt(*auction, now)
	auction.Active = false

	remaining := auction.RemainingCapacity()
	budget := sdkmath.ZeroInt()
	if remaining.IsPositive() && k.burnReserveSkew != nil && auction.ReserveRatio.GTE(params.MinReserveRatio) {
		skewBudget, err := k.burnReserveSkew.GetRealBurnBudget(ctx, remaining, auction.ReserveRatio)
		if err != nil {
			return fmt.Errorf("burn budget: %w", err)
		}
		budget = fixedpoint.Min(skewBudget, remaining)
	}
	if budget.IsPositive() {
		purchased, err := k.liquidityExtension.PurchaseAndBurn(ctx, budget)
		if err != nil {
			return fmt.Errorf("final purchase and burn: %w", err)
		}
		auction.FinalPurchased = purchased
	}
	auction.FinalBurnBudget = budget
	auction.Finalized = true

	if err := k.setAuction(ctx, *auction); err != nil {
		return err
	}

	sdkctx.EmitEvent(ctx, sdk.NewEvent(
		types.EventTypeAuctionFinalized,
		sdk.NewAttribute("auction_id", fmt.Sprintf("%d", auction.ID)),
		sdk.NewAttribute("final_price", fixedpoint.Format(auction.FinalPrice)),
		sdk.NewAttribute("commitments", auction.Commitments.String()),
		sdk.NewAttribute("arb_tokens", auction.MaltPurchased.String()),
		sdk.NewAttribute("final_burn_budget", budget.String()),
		sdk.NewAttribute("final_purchased", auction.FinalPurchased.String()),
	))
	telemetry.IncrCounter(1, types.ModuleName, "finalized")
	k.Logger(ctx).Info("auction finalized",
		"auction_id", auction.ID,
		"final_price", fixedpoint.Format(auction.FinalPrice),
		"final_burn_budget", budget.String(),
	)
	return nil
}
