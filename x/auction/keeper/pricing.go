package keeper

import (
	"context"

	sdkmath "cosmossdk.io/math"

	"github.com/maltprotocol/malt/internal/fixedpoint"
	"github.com/maltprotocol/malt/internal/sdkctx"
	"github.com/maltprotocol/malt/x/auction/types"
)

// calculateAuctionPricing starts at peg and decays toward the reserve
// backing per token, never ending above MaxAuctionEnd of the start.
func calculateAuctionPricing(params types.Params, pegPrice, reserveRatio sdkmath.Int) (sdkmath.Int, sdkmath.Int, error) {
	startingPrice := pegPrice
	endingPrice, err := fixedpoint.MulUnity(pegPrice, reserveRatio)
	if err != nil {
		return sdkmath.Int{}, sdkmath.Int{}, err
	}
	ceiling, err := fixedpoint.Bps(startingPrice, params.MaxAuctionEnd, fixedpoint.PerMilleBase)
	if err != nil {
		return sdkmath.Int{}, sdkmath.Int{}, err
	}
	return startingPrice, fixedpoint.Min(endingPrice, ceiling), nil
}

// priceAt is the auction price at unix time t. The price decays linearly
// from StartingPrice to EndingPrice over [StartingTime, EndingTime] and
// freezes once bidding stops.
func priceAt(a types.Auction, t int64) sdkmath.Int {
	if a.Finalized {
		return a.FinalPrice
	}
	if end := a.EndTime(); t > end {
		t = end
	}
	duration := a.EndingTime - a.StartingTime
	if duration <= 0 || t >= a.EndingTime {
		return a.EndingPrice
	}
	elapsed := t - a.StartingTime
	if elapsed <= 0 {
		return a.StartingPrice
	}

	spread := fixedpoint.SaturatingSub(a.StartingPrice, a.EndingPrice)
	decay, err := fixedpoint.MulDiv(spread, sdkmath.NewInt(elapsed), sdkmath.NewInt(duration))
	if err != nil {
		return a.EndingPrice
	}
	return fixedpoint.Max(fixedpoint.SaturatingSub(a.StartingPrice, decay), a.EndingPrice)
}

// CurrentPrice returns the price of auction id at the current block time.
func (k Keeper) CurrentPrice(ctx context.Context, id uint64) (sdkmath.Int, error) {
	a, err := k.GetAuction(ctx, id)
	if err != nil {
		return sdkmath.Int{}, err
	}
	return priceAt(a, sdkctx.NowUnix(ctx)), nil
}
