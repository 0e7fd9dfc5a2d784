package keeper

import (
	"context"
	"errors"

	"cosmossdk.io/collections"
	errorsmod "cosmossdk.io/errors"
	sdkmath "cosmossdk.io/math"
	sdk "github.com/cosmos/cosmos-sdk/types"

	"github.com/maltprotocol/malt/internal/sdkctx"
	"github.com/maltprotocol/malt/x/auction/types"
)

// GetAuction returns auction id.
func (k Keeper) GetAuction(ctx context.Context, id uint64) (types.Auction, error) {
	a, err := k.Auctions.Get(ctx, id)
	if errors.Is(err, collections.ErrNotFound) {
		return types.Auction{}, errorsmod.Wrapf(types.ErrAuctionNotFound, "auction %d", id)
	}
	return a, err
}

// AuctionExists reports whether auction id was ever triggered.
func (k Keeper) AuctionExists(ctx context.Context, id uint64) (bool, error) {
	return k.Auctions.Has(ctx, id)
}

// CurrentAuctionID is the id the next triggered auction will receive.
func (k Keeper) CurrentAuctionID(ctx context.Context) (uint64, error) {
	return k.AuctionSeq.Peek(ctx)
}

// GetReplenishingAuctionID returns the replenishment cursor.
func (k Keeper) GetReplenishingAuctionID(ctx context.Context) (uint64, error) {
	return k.getUint64(ctx, k.ReplenishingAuctionID)
}

func (k Keeper) latestAuction(ctx context.Context) (types.Auction, bool, error) {
	next, err := k.AuctionSeq.Peek(ctx)
	if err != nil {
		return types.Auction{}, false, err
	}
	if next == 0 {
		return types.Auction{}, false, nil
	}
	a, err := k.GetAuction(ctx, next-1)
	if err != nil {
		return types.Auction{}, false, err
	}
	return a, true, nil
}

// GetActiveAuction returns the active auction, if any.
func (k Keeper) GetActiveAuction(ctx context.Context) (types.Auction, bool, error) {
	a, found, err := k.latestAuction(ctx)
	if err != nil || !found || !a.Active {
		return types.Auction{}, false, err
	}
	return a, true, nil
}

// GetActiveAuctionID returns the id of the auction currently accepting
// commitments.
func (k Keeper) GetActiveAuctionID(ctx context.Context) (uint64, bool, error) {
	a, found, err := k.GetActiveAuction(ctx)
	if err != nil || !found {
		return 0, false, err
	}
	if sdkctx.NowUnix(ctx) >= a.EndingTime {
		return 0, false, nil
	}
	return a.ID, true, nil
}

// GetAuctionCommitments returns (commitments, maxCommitments).
func (k Keeper) GetAuctionCommitments(ctx context.Context, id uint64) (sdkmath.Int, sdkmath.Int, error) {
	a, err := k.GetAuction(ctx, id)
	if err != nil {
		return sdkmath.Int{}, sdkmath.Int{}, err
	}
	return a.Commitments, a.MaxCommitments, nil
}

// GetAuctionPrices returns (startingPrice, endingPrice, finalPrice).
func (k Keeper) GetAuctionPrices(ctx context.Context, id uint64) (sdkmath.Int, sdkmath.Int, sdkmath.Int, error) {
	a, err := k.GetAuction(ctx, id)
	if err != nil {
		return sdkmath.Int{}, sdkmath.Int{}, sdkmath.Int{}, err
	}
	return a.StartingPrice, a.EndingPrice, a.FinalPrice, nil
}

// IsAuctionActive reports whether auction id is still open.
func (k Keeper) IsAuctionActive(ctx context.Context, id uint64) (bool, error) {
	a, err := k.GetAuction(ctx, id)
	if err != nil {
		return false, err
	}
	return a.Active, nil
}

// IsAuctionFinished reports whether bidding on auction id has stopped.
func (k Keeper) IsAuctionFinished(ctx context.Context, id uint64) (bool, error) {
	a, err := k.GetAuction(ctx, id)
	if err != nil {
		return false, err
	}
	return !a.Active || sdkctx.NowUnix(ctx) >= a.EndingTime, nil
}

// IsAuctionFinalized reports whether auction id has been finalized.
func (k Keeper) IsAuctionFinalized(ctx context.Context, id uint64) (bool, error) {
	a, err := k.GetAuction(ctx, id)
	if err != nil {
		return false, err
	}
	return a.Finalized, nil
}

// GetAccountParticipation returns account's position in auction id.
func (k Keeper) GetAccountParticipation(ctx context.Context, account sdk.AccAddress, id uint64) (types.AccountParticipation, error) {
	p, found, err := k.getParticipation(ctx, account, id)
	if err != nil {
		return types.AccountParticipation{}, err
	}
	if !found {
		return types.AccountParticipation{}, errorsmod.Wrapf(types.ErrParticipationNotFound, "account %s auction %d", account, id)
	}
	return p, nil
}

// GetAccountCommitments lists account's positions ordered by auction id.
func (k Keeper) GetAccountCommitments(ctx context.Context, account sdk.AccAddress) ([]types.AccountParticipation, error) {
	var out []types.AccountParticipation
	rng := collections.NewPrefixedPairRange[sdk.AccAddress, uint64](account)
	err := k.Participations.Walk(ctx, rng, func(_ collections.Pair[sdk.AccAddress, uint64], p types.AccountParticipation) (bool, error) {
		out = append(out, p)
		return false, nil
	})
	return out, err
}

// GetAuctionParticipations lists every position in auction id.
func (k Keeper) GetAuctionParticipations(ctx context.Context, id uint64) ([]types.AccountParticipation, error) {
	var out []types.AccountParticipation
	err := k.Participations.Walk(ctx, nil, func(key collections.Pair[sdk.AccAddress, uint64], p types.AccountParticipation) (bool, error) {
		if key.K2() == id {
			out = append(out, p)
		}
		return false, nil
	})
	return out, err
}
