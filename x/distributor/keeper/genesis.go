package keeper

import (
	"context"
	"errors"

	"cosmossdk.io/collections"

	"github.com/maltprotocol/malt/internal/sdkctx"
	"github.com/maltprotocol/malt/x/distributor/types"
)

// InitGenesis loads genesis state. A zero FocalStart pins focal period 0
// to the genesis block time.
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
	focalStart := gs.FocalStart
	if focalStart == 0 {
		focalStart = sdkctx.NowUnix(ctx)
	}
	if err := k.FocalStart.Set(ctx, focalStart); err != nil {
		return err
	}
	for _, s := range gs.Schedules {
		if err := k.Schedules.Set(ctx, s.ID, s); err != nil {
			return err
		}
	}
	if err := k.ScheduleSeq.Set(ctx, gs.NextScheduleID); err != nil {
		return err
	}
	if err := k.TotalDeclared.Set(ctx, gs.TotalDeclared); err != nil {
		return err
	}
	return k.TotalReleased.Set(ctx, gs.TotalReleased)
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
	focalStart, err := k.FocalStart.Get(ctx)
	if err != nil && !errors.Is(err, collections.ErrNotFound) {
		return nil, err
	}
	schedules, err := k.OpenSchedules(ctx)
	if err != nil {
		return nil, err
	}
	next, err := k.ScheduleSeq.Peek(ctx)
	if err != nil {
		return nil, err
	}
	declared, err := k.TotalDeclaredReward(ctx)
	if err != nil {
		return nil, err
	}
	released, err := k.TotalReleasedReward(ctx)
	if err != nil {
		return nil, err
	}
	return &types.GenesisState{
		Params:         params,
		Roles:          roles,
		FocalStart:     focalStart,
		Schedules:      schedules,
		NextScheduleID: next,
		TotalDeclared:  declared,
		TotalReleased:  released,
	}, nil
}
