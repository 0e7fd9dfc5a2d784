package keeper

import (
	"context"

	sdkmath "cosmossdk.io/math"
	sdk "github.com/cosmos/cosmos-sdk/types"

	"github.com/maltprotocol/malt/x/mine/types"
)

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
	for _, a := range gs.Accounts {
		addr, err := sdk.AccAddressFromBech32(a.Address)
		if err != nil {
			return err
		}
		if err := setAccountInt(ctx, k.StakePadding, addr, a.StakePadding); err != nil {
			return err
		}
		if err := setAccountInt(ctx, k.Withdrawn, addr, a.Withdrawn); err != nil {
			return err
		}
	}
	if err := k.TotalStakePadding.Set(ctx, gs.TotalStakePadding); err != nil {
		return err
	}
	return k.GlobalWithdrawn.Set(ctx, gs.GlobalWithdrawn)
}

func (k Keeper) ExportGenesis(ctx context.Context) (*types.GenesisState, error) {
	params, err := k.GetParams(ctx)
	if err != nil {
		return nil, err
	}
	roles, err := k.Roles.Export(ctx)
	if err != nil {
		return nil, err
	}
	accounts, err := k.accountStates(ctx)
	if err != nil {
		return nil, err
	}
	total, err := k.TotalPadding(ctx)
	if err != nil {
		return nil, err
	}
	global, err := getInt(ctx, k.GlobalWithdrawn)
	if err != nil {
		return nil, err
	}
	return &types.GenesisState{
		Params:            params,
		Roles:             roles,
		Accounts:          accounts,
		TotalStakePadding: total,
		GlobalWithdrawn:   global,
	}, nil
}

// accountStates merges padding and withdrawal entries per account, in
// padding key order followed by withdraw-only accounts.
func (k Keeper) accountStates(ctx context.Context) ([]types.AccountState, error) {
	var out []types.AccountState
	index := make(map[string]int)
	err := k.StakePadding.Walk(ctx, nil, func(addr sdk.AccAddress, padding sdkmath.Int) (bool, error) {
		index[addr.String()] = len(out)
		out = append(out, types.AccountState{Address: addr.String(), StakePadding: padding, Withdrawn: sdkmath.ZeroInt()})
		return false, nil
	})
	if err != nil {
		return nil, err
	}
	err = k.Withdrawn.Walk(ctx, nil, func(addr sdk.AccAddress, withdrawn sdkmath.Int) (bool, error) {
		if i, ok := index[addr.String()]; ok {
			out[i].Withdrawn = withdrawn
			return false, nil
		}
		out = append(out, types.AccountState{Address: addr.String(), StakePadding: sdkmath.ZeroInt(), Withdrawn: withdrawn})
		return false, nil
	})
	return out, err
}
