package keeper

import (
	"context"
	"errors"
	"strconv"

	errorsmod "cosmossdk.io/errors"
	sdkmath "cosmossdk.io/math"
	"github.com/cosmos/cosmos-sdk/telemetry"
	sdk "github.com/cosmos/cosmos-sdk/types"

	"github.com/maltprotocol/malt/internal/fixedpoint"
	"github.com/maltprotocol/malt/internal/sdkctx"
	auctiontypes "github.com/maltprotocol/malt/x/auction/types"
	"github.com/maltprotocol/malt/x/escapehatch/types"
)

// exitQuote prices an exit of part of one participation.
type exitQuote struct {
	auction       auctiontypes.Auction
	participation auctiontypes.AccountParticipation
	amount        sdkmath.Int
	malt          sdkmath.Int
	returned      sdkmath.Int
}

func zeroQuote() exitQuote {
	return exitQuote{amount: sdkmath.ZeroInt(), malt: sdkmath.ZeroInt(), returned: sdkmath.ZeroInt()}
}

// exitableCommitment is the part of a commitment that can still leave the
// auction. Commitment backing tokens already redeemed stays, so the
// account's claimable balance never drops below what it was paid.
func exitableCommitment(a auctiontypes.Auction, p auctiontypes.AccountParticipation) (sdkmath.Int, error) {
	if !p.Commitment.IsPositive() {
		return sdkmath.ZeroInt(), nil
	}
	if !p.Redeemed.IsPositive() {
		return p.Commitment, nil
	}
	if !a.ClaimableTokens.IsPositive() {
		return sdkmath.ZeroInt(), nil
	}
	locked, err := fixedpoint.MulDivCeil(p.Redeemed, a.Commitments, a.ClaimableTokens)
	if err != nil {
		return sdkmath.ZeroInt(), err
	}
	return fixedpoint.SaturatingSub(p.Commitment, locked), nil
}

// quote computes what exiting amount of the account's commitment returns.
// The MALT the exited commitment bought is valued at market. A loss is
// passed on in full; a profit is capped at MaxEarlyExitBps of the exit,
// ramping in linearly over CooloffPeriod after the auction ends.
func (k Keeper) quote(ctx context.Context, params types.Params, account sdk.AccAddress, id uint64, amount sdkmath.Int) (exitQuote, error) {
	q := zeroQuote()
	auction, err := k.auctionKeeper.GetAuction(ctx, id)
	if err != nil {
		return q, err
	}
	q.auction = auction
	if auction.Active {
		return q, errorsmod.Wrapf(types.ErrActiveAuctionExit, "auction %d", id)
	}
	participation, err := k.auctionKeeper.GetAccountParticipation(ctx, account, id)
	if errors.Is(err, auctiontypes.ErrParticipationNotFound) {
		return q, nil
	}
	if err != nil {
		return q, err
	}
	q.participation = participation
	if amount.IsNil() || !amount.IsPositive() {
		return q, nil
	}

	exitable, err := exitableCommitment(auction, participation)
	if err != nil {
		return q, err
	}
	q.amount = fixedpoint.Min(amount, exitable)
	if !q.amount.IsPositive() {
		return q, nil
	}
	if q.malt, err = fixedpoint.MulDiv(participation.MaltPurchased, q.amount, participation.Commitment); err != nil {
		return q, err
	}

	if !auction.PegPrice.IsPositive() {
		return q, errorsmod.Wrapf(types.ErrInvalidPrice, "auction %d has no peg price", id)
	}
	price, decimals, err := k.dexHandler.MaltMarketPrice(ctx)
	if err != nil {
		return q, err
	}
	if price.IsNil() || !price.IsPositive() {
		return q, errorsmod.Wrap(types.ErrInvalidPrice, "market price must be positive")
	}
	value, err := fixedpoint.MulDiv(q.malt, fixedpoint.FromRatio(price, decimals), auction.PegPrice)
	if err != nil {
		return q, err
	}
	if value.LTE(q.amount) {
		q.returned = value
		return q, nil
	}

	elapsed := sdkctx.NowUnix(ctx) - auction.EndTime()
	if elapsed < 0 {
		elapsed = 0
	}
	if elapsed > params.CooloffPeriod {
		elapsed = params.CooloffPeriod
	}
	maxProfit, err := fixedpoint.Bps(q.amount, params.MaxEarlyExitBps, fixedpoint.BpsBase)
	if err != nil {
		return q, err
	}
	if maxProfit, err = fixedpoint.MulDiv(maxProfit, sdkmath.NewInt(elapsed), sdkmath.NewInt(params.CooloffPeriod)); err != nil {
		return q, err
	}
	q.returned = q.amount.Add(fixedpoint.Min(value.Sub(q.amount), maxProfit))
	return q, nil
}

// EarlyExitReturn returns the reserve exiting amount of the account's
// commitment in auction id would pay now. Positions that cannot exit quote
// zero.
func (k Keeper) EarlyExitReturn(ctx context.Context, account sdk.AccAddress, id uint64, amount sdkmath.Int) (sdkmath.Int, error) {
	if k.dexHandler == nil || k.auctionKeeper == nil {
		return sdkmath.ZeroInt(), types.ErrNotConfigured
	}
	params, err := k.GetParams(ctx)
	if err != nil {
		return sdkmath.ZeroInt(), err
	}
	q, err := k.quote(ctx, params, account, id, amount)
	if errors.Is(err, types.ErrActiveAuctionExit) {
		return sdkmath.ZeroInt(), nil
	}
	if err != nil {
		return sdkmath.ZeroInt(), err
	}
	return q.returned, nil
}

// ExitEarly gives up amount of the account's commitment in a finished
// auction. The MALT it bought is minted and sold, the account receives the
// quoted return and any surplus goes to the surplus module. The auction
// participation shrinks by the exited commitment.
func (k Keeper) ExitEarly(ctx context.Context, account sdk.AccAddress, id uint64, amount, minReturn sdkmath.Int) (sdkmath.Int, error) {
	if k.dexHandler == nil || k.auctionKeeper == nil {
		return sdkmath.ZeroInt(), types.ErrNotConfigured
	}
	if k.crisisKeeper != nil && k.crisisKeeper.IsEarlyExitsHalted(ctx) {
		return sdkmath.ZeroInt(), types.ErrEarlyExitsHalted
	}
	params, err := k.GetParams(ctx)
	if err != nil {
		return sdkmath.ZeroInt(), err
	}
	q, err := k.quote(ctx, params, account, id, amount)
	if err != nil {
		return sdkmath.ZeroInt(), err
	}
	if !q.returned.IsPositive() {
		return sdkmath.ZeroInt(), errorsmod.Wrapf(types.ErrNothingToClaim, "account %s auction %d", account, id)
	}
	minReturn = fixedpoint.OrZero(minReturn)
	if q.returned.LT(minReturn) {
		return sdkmath.ZeroInt(), errorsmod.Wrapf(types.ErrSlippage, "return %s below minimum %s", q.returned, minReturn)
	}

	self := k.ModuleAddress()
	if err := k.bankKeeper.MintCoins(ctx, types.ModuleName, sdk.NewCoins(sdk.NewCoin(params.MaltDenom, q.malt))); err != nil {
		return sdkmath.ZeroInt(), err
	}
	proceeds, err := k.dexHandler.SellMalt(ctx, self, q.malt)
	if err != nil {
		return sdkmath.ZeroInt(), err
	}
	paid := q.returned
	if proceeds.LT(paid) {
		// rounding in the pool may leave the sale one unit short
		if paid.Sub(proceeds).GT(sdkmath.OneInt()) {
			return sdkmath.ZeroInt(), errorsmod.Wrapf(types.ErrInsufficientProceeds, "sold for %s, owed %s", proceeds, paid)
		}
		paid = proceeds
	}
	if paid.IsPositive() {
		coins := sdk.NewCoins(sdk.NewCoin(params.ReserveDenom, paid))
		if err := k.bankKeeper.SendCoinsFromModuleToAccount(ctx, types.ModuleName, account, coins); err != nil {
			return sdkmath.ZeroInt(), err
		}
	}
	surplus := proceeds.Sub(paid)
	if surplus.IsPositive() {
		coins := sdk.NewCoins(sdk.NewCoin(params.ReserveDenom, surplus))
		if err := k.bankKeeper.SendCoinsFromModuleToModule(ctx, types.ModuleName, k.surplusModule, coins); err != nil {
			return sdkmath.ZeroInt(), err
		}
	}

	newMalt := fixedpoint.SaturatingSub(q.participation.MaltPurchased, q.malt)
	if err := k.auctionKeeper.AmendAccountParticipation(ctx, self.String(), account, id, q.amount, newMalt); err != nil {
		return sdkmath.ZeroInt(), err
	}

	exitID, err := k.ExitSeq.Next(ctx)
	if err != nil {
		return sdkmath.ZeroInt(), err
	}
	record := types.ExitRecord{
		ID:        exitID,
		Account:   account.String(),
		AuctionID: id,
		Amount:    q.amount,
		MaltSold:  q.malt,
		Proceeds:  proceeds,
		Returned:  paid,
		Time:      sdkctx.NowUnix(ctx),
	}
	if err := k.recordExit(ctx, record, account); err != nil {
		return sdkmath.ZeroInt(), err
	}

	sdkctx.EmitEvent(ctx, sdk.NewEvent(
		types.EventTypeEarlyExit,
		sdk.NewAttribute("account", account.String()),
		sdk.NewAttribute("auction_id", strconv.FormatUint(id, 10)),
		sdk.NewAttribute("amount", q.amount.String()),
		sdk.NewAttribute("malt_sold", q.malt.String()),
		sdk.NewAttribute("returned", paid.String()),
	))
	telemetry.IncrCounter(1, types.ModuleName, "early_exits")
	k.Logger(ctx).Info("auction early exit",
		"account", account.String(),
		"auction_id", id,
		"amount", q.amount.String(),
		"returned", paid.String(),
		"surplus", surplus.String(),
	)
	return paid, nil
}
