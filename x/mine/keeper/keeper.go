package keeper

import (
	"context"
	"errors"

	"cosmossdk.io/collections"
	"cosmossdk.io/core/store"
	"cosmossdk.io/log"
	sdkmath "cosmossdk.io/math"
	sdk "github.com/cosmos/cosmos-sdk/types"
	authtypes "github.com/cosmos/cosmos-sdk/x/auth/types"

	"github.com/maltprotocol/malt/internal/access"
	"github.com/maltprotocol/malt/internal/collcodec"
	"github.com/maltprotocol/malt/internal/sdkctx"
	"github.com/maltprotocol/malt/x/mine/types"
)

// Keeper is a stake-padded reward mine. Rewards declared by the
// distributor are shared pro rata over real stake plus padding, and the
// padding keeps existing shares unchanged across bonds and unbonds.
type Keeper struct {
	storeService store.KVStoreService

	bankKeeper    types.BankKeeper
	bondingKeeper types.BondingKeeper
	distributor   types.DistributorKeeper

	Schema            collections.Schema
	Params            collections.Item[types.Params]
	Roles             access.Roles
	StakePadding      collections.Map[sdk.AccAddress, sdkmath.Int]
	TotalStakePadding collections.Item[sdkmath.Int]
	Withdrawn         collections.Map[sdk.AccAddress, sdkmath.Int]
	GlobalWithdrawn   collections.Item[sdkmath.Int]
}

// NewKeeper creates a new mine keeper.
func NewKeeper(
	storeService store.KVStoreService,
	authority string,
	bankKeeper types.BankKeeper,
	distributor types.DistributorKeeper,
) Keeper {
	sb := collections.NewSchemaBuilder(storeService)

	k := Keeper{
		storeService: storeService,
		bankKeeper:   bankKeeper,
		distributor:  distributor,
		Params: collections.NewItem(
			sb,
			collections.NewPrefix(types.ParamsKey),
			"params",
			collcodec.JSONValue[types.Params](),
		),
		Roles: access.NewRoles(sb, collections.NewPrefix(types.RolesKeyPrefix), authority),
		StakePadding: collections.NewMap(
			sb,
			collections.NewPrefix(types.StakePaddingKeyPrefix),
			"stake_padding",
			sdk.AccAddressKey,
			sdk.IntValue,
		),
		TotalStakePadding: collections.NewItem(
			sb,
			collections.NewPrefix(types.TotalStakePaddingKey),
			"total_stake_padding",
			sdk.IntValue,
		),
		Withdrawn: collections.NewMap(
			sb,
			collections.NewPrefix(types.WithdrawnKeyPrefix),
			"withdrawn",
			sdk.AccAddressKey,
			sdk.IntValue,
		),
		GlobalWithdrawn: collections.NewItem(
			sb,
			collections.NewPrefix(types.GlobalWithdrawnKey),
			"global_withdrawn",
			sdk.IntValue,
		),
	}

	schema, err := sb.Build()
	if err != nil {
		panic(err)
	}
	k.Schema = schema
	return k
}

// SetBondingKeeper wires the stake source.
func (k *Keeper) SetBondingKeeper(bk types.BondingKeeper) {
	k.bondingKeeper = bk
}

// SetDistributor swaps the reward distributor.
func (k *Keeper) SetDistributor(dk types.DistributorKeeper) {
	k.distributor = dk
}

func (k Keeper) Logger(ctx context.Context) log.Logger {
	return sdkctx.Logger(ctx, types.ModuleName)
}

// ModuleAddress is the mine account; the distributor grants it the reward
// mine role.
func (k Keeper) ModuleAddress() sdk.AccAddress {
	return authtypes.NewModuleAddress(types.ModuleName)
}

func (k Keeper) GetParams(ctx context.Context) (types.Params, error) {
	params, err := k.Params.Get(ctx)
	if errors.Is(err, collections.ErrNotFound) {
		return types.DefaultParams(), nil
	}
	return params, err
}

// UpdateParams replaces params. Only the authority may call it.
func (k Keeper) UpdateParams(ctx context.Context, requester string, params types.Params) error {
	if err := k.Roles.RequireAuthority(requester); err != nil {
		return err
	}
	if err := params.Validate(); err != nil {
		return err
	}
	return k.Params.Set(ctx, params)
}

func (k Keeper) ready() error {
	if k.bondingKeeper == nil {
		return types.ErrNoBondingKeeper
	}
	if k.distributor == nil {
		return types.ErrNoDistributor
	}
	return nil
}

func getInt(ctx context.Context, item collections.Item[sdkmath.Int]) (sdkmath.Int, error) {
	v, err := item.Get(ctx)
	if errors.Is(err, collections.ErrNotFound) {
		return sdkmath.ZeroInt(), nil
	}
	return v, err
}

func getAccountInt(ctx context.Context, m collections.Map[sdk.AccAddress, sdkmath.Int], account sdk.AccAddress) (sdkmath.Int, error) {
	v, err := m.Get(ctx, account)
	if errors.Is(err, collections.ErrNotFound) {
		return sdkmath.ZeroInt(), nil
	}
	return v, err
}

// setAccountInt stores v, dropping the entry when it reaches zero.
func setAccountInt(ctx context.Context, m collections.Map[sdk.AccAddress, sdkmath.Int], account sdk.AccAddress, v sdkmath.Int) error {
	if v.IsZero() {
		return m.Remove(ctx, account)
	}
	return m.Set(ctx, account, v)
}

// BalanceOfStakePadding returns the account's stake padding.
func (k Keeper) BalanceOfStakePadding(ctx context.Context, account sdk.AccAddress) (sdkmath.Int, error) {
	return getAccountInt(ctx, k.StakePadding, account)
}

// TotalPadding returns the sum of all stake padding.
func (k Keeper) TotalPadding(ctx context.Context) (sdkmath.Int, error) {
	return getInt(ctx, k.TotalStakePadding)
}

// WithdrawnBy returns the reward withdrawn by the account that still
// counts against its balance.
func (k Keeper) WithdrawnBy(ctx context.Context, account sdk.AccAddress) (sdkmath.Int, error) {
	return getAccountInt(ctx, k.Withdrawn, account)
}

// TotalReleasedReward is what the distributor has vested into the mine.
func (k Keeper) TotalReleasedReward(ctx context.Context) (sdkmath.Int, error) {
	if k.distributor == nil {
		return sdkmath.ZeroInt(), types.ErrNoDistributor
	}
	return k.distributor.TotalReleasedReward(ctx)
}
