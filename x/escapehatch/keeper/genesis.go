package keeper

import (
	"context"

	sdk "github.com/cosmos/cosmos-sdk/types"

	"github.com/maltprotocol/malt/x/escapehatch/types"
)

// InitGenesis loads the exit log and rebuilds the totals from it.
func (k Keeper) InitGenesis(ctx context.Context, gs *types.GenesisState) error {
	if err := gs.Validate(); err != nil {
		return err
	}
	if err := k.Params.Set(ctx, gs.Params); err != nil {
		return err
	}
	for _, r := range gs.Exits {
		account, err := sdk.AccAddressFromBech32(r.Account)
		if err != nil {
			return err
		}
		if err := k.recordExit(ctx, r, account); err != nil {
			return err
		}
	}
	return k.ExitSeq.Set(ctx, uint64(len(gs.Exits)))
}

// ExportGenesis dumps params and the exit log.
func (k Keeper) ExportGenesis(ctx context.Context) (*types.GenesisState, error) {
	params, err := k.GetParams(ctx)
	if err != nil {
		return nil, err
	}
	gs := &types.GenesisState{Params: params}
	err = k.Exits.Walk(ctx, nil, func(_ uint64, r types.ExitRecord) (bool, error) {
		gs.Exits = append(gs.Exits, r)
		return false, nil
	})
	if err != nil {
		return nil, err
	}
	return gs, nil
}
