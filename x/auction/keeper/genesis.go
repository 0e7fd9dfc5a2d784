package keeper

import (
	"context"

	"cosmossdk.io/collections"
	sdkmath "cosmossdk.io/math"
	sdk "github.com/cosmos/cosmos-sdk/types"

	"github.com/maltprotocol/malt/internal/fixedpoint"
	"github.com/maltprotocol/malt/x/auction/types"
)

// InitGenesis loads genesis state.
func (k Keeper) InitGenesis(ctx context.Context, gs *types.GenesisState) error {
	if err := gs.Validate(); err != nil {
		return err
	}
	if err := k.Params.Set(ctx, gs.Params); err != nil {
		return err
	}
	if err := k.Roles.Import(ctx, gs.Roles); err != nil {
		return err
	}
	for _, a := range gs.Auctions {
		if err := k.setAuction(ctx, a); err != nil {
			return err
		}
	}
	for _, p := range gs.Participations {
		account, err := sdk.AccAddressFromBech32(p.Account)
		if err != nil {
			return err
		}
		if err := k.setParticipation(ctx, account, p); err != nil {
			return err
		}
	}
	if err := k.AuctionSeq.Set(ctx, gs.NextAuctionID); err != nil {
		return err
	}
	if err := k.ReplenishingAuctionID.Set(ctx, gs.ReplenishingAuctionID); err != nil {
		return err
	}
	if err := k.FinalizationCursor.Set(ctx, gs.FinalizationCursor); err != nil {
		return err
	}
	return k.ExcessRewards.Set(ctx, fixedpoint.OrZero(gs.ExcessRewards))
}

// ExportGenesis dumps state.
func (k Keeper) ExportGenesis(ctx context.Context) (*types.GenesisState, error) {
	params, err := k.GetParams(ctx)
	if err != nil {
		return nil, err
	}
	roles, err := k.Roles.Export(ctx)
	if err != nil {
		return nil, err
	}
	gs := &types.GenesisState{Params: params, Roles: roles, ExcessRewards: sdkmath.ZeroInt()}

	if err := k.Auctions.Walk(ctx, nil, func(_ uint64, a types.Auction) (bool, error) {
		gs.Auctions = append(gs.Auctions, a)
		return false, nil
	}); err != nil {
		return nil, err
	}
	if err := k.Participations.Walk(ctx, nil, func(_ collections.Pair[sdk.AccAddress, uint64], p types.AccountParticipation) (bool, error) {
		gs.Participations = append(gs.Participations, p)
		return false, nil
	}); err != nil {
		return nil, err
	}

	if gs.NextAuctionID, err = k.AuctionSeq.Peek(ctx); err != nil {
		return nil, err
	}
	if gs.ReplenishingAuctionID, err = k.getUint64(ctx, k.ReplenishingAuctionID); err != nil {
		return nil, err
	}
	if gs.FinalizationCursor, err = k.getUint64(ctx, k.FinalizationCursor); err != nil {
		return nil, err
	}
	if gs.ExcessRewards, err = k.getExcess(ctx); err != nil {
		return nil, err
	}
	return gs, nil
}
