package keeper

import (
	"context"
	"errors"
	"fmt"

	"cosmossdk.io/collections"
	"cosmossdk.io/core/store"
	errorsmod "cosmossdk.io/errors"
	"cosmossdk.io/log"
	sdkmath "cosmossdk.io/math"
	"github.com/cosmos/cosmos-sdk/telemetry"
	sdk "github.com/cosmos/cosmos-sdk/types"
	authtypes "github.com/cosmos/cosmos-sdk/x/auth/types"

	"github.com/maltprotocol/malt/internal/access"
	"github.com/maltprotocol/malt/internal/collcodec"
	"github.com/maltprotocol/malt/internal/fixedpoint"
	"github.com/maltprotocol/malt/internal/sdkctx"
	"github.com/maltprotocol/malt/x/overflow/types"
)

// Keeper manages the reward overflow pool: a reserve buffer that absorbs
// excess epoch rewards and backfills shortfalls.
type Keeper struct {
	storeService store.KVStoreService

	bankKeeper    types.BankKeeper
	auctionKeeper types.AuctionKeeper

	Schema            collections.Schema
	Params            collections.Item[types.Params]
	Roles             access.Roles
	AuctionIDs        collections.Map[uint64, uint64]
	AuctionCount      collections.Item[uint64]
	ReplenishingIndex collections.Item[uint64]
	TotalForfeited    collections.Item[sdkmath.Int]
}

// NewKeeper creates a new overflow keeper.
func NewKeeper(storeService store.KVStoreService, authority string, bankKeeper types.BankKeeper) Keeper {
	sb := collections.NewSchemaBuilder(storeService)
	k := Keeper{
		storeService: storeService,
		bankKeeper:   bankKeeper,
		Params: collections.NewItem(
			sb,
			collections.NewPrefix(types.ParamsKey),
			"params",
			collcodec.JSONValue[types.Params](),
		),
		Roles: access.NewRoles(sb, collections.NewPrefix(types.RolesKeyPrefix), authority),
		AuctionIDs: collections.NewMap(
			sb,
			collections.NewPrefix(types.AuctionIDsKeyPrefix),
			"auction_ids",
			collections.Uint64Key,
			collections.Uint64Value,
		),
		AuctionCount: collections.NewItem(
			sb,
			collections.NewPrefix(types.AuctionCountKey),
			"auction_count",
			collections.Uint64Value,
		),
		ReplenishingIndex: collections.NewItem(
			sb,
			collections.NewPrefix(types.ReplenishingIndexKey),
			"replenishing_index",
			collections.Uint64Value,
		),
		TotalForfeited: collections.NewItem(
			sb,
			collections.NewPrefix(types.TotalForfeitedKey),
			"total_forfeited",
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

// SetAuctionKeeper wires the auction the pool participates in.
func (k *Keeper) SetAuctionKeeper(ak types.AuctionKeeper) {
	k.auctionKeeper = ak
}

// Logger returns a module-scoped logger.
func (k Keeper) Logger(ctx context.Context) log.Logger {
	return sdkctx.Logger(ctx, types.ModuleName)
}

// ModuleAddress is the pool account.
func (k Keeper) ModuleAddress() sdk.AccAddress {
	return authtypes.NewModuleAddress(types.ModuleName)
}

// GetParams returns params, falling back to defaults before genesis.
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

// Balance returns the pool's reserve balance.
func (k Keeper) Balance(ctx context.Context) (sdkmath.Int, error) {
	params, err := k.GetParams(ctx)
	if err != nil {
		return sdkmath.ZeroInt(), err
	}
	return k.bankKeeper.GetBalance(ctx, k.ModuleAddress(), params.ReserveDenom).Amount, nil
}

// maxRelease is the most one draw may take: MaxFulfillment of the balance.
func (k Keeper) maxRelease(ctx context.Context, params types.Params) (sdkmath.Int, error) {
	balance := k.bankKeeper.GetBalance(ctx, k.ModuleAddress(), params.ReserveDenom).Amount
	return fixedpoint.Bps(balance, params.MaxFulfillment, fixedpoint.PerMilleBase)
}

// RequestCapital sends the caller min(amount, MaxFulfillment of the pool)
// and returns what was sent. An empty pool releases nothing without error.
func (k Keeper) RequestCapital(ctx context.Context, caller string, amount sdkmath.Int) (sdkmath.Int, error) {
	if err := k.Roles.Require(ctx, caller, types.RoleCapitalRequester); err != nil {
		return sdkmath.ZeroInt(), err
	}
	if amount.IsNil() || !amount.IsPositive() {
		return sdkmath.ZeroInt(), nil
	}
	recipient, err := sdk.AccAddressFromBech32(caller)
	if err != nil {
		return sdkmath.ZeroInt(), errorsmod.Wrapf(types.ErrInvalidRecipient, "%s: %s", caller, err)
	}

	params, err := k.GetParams(ctx)
	if err != nil {
		return sdkmath.ZeroInt(), err
	}
	ceiling, err := k.maxRelease(ctx, params)
	if err != nil {
		return sdkmath.ZeroInt(), err
	}
	released := fixedpoint.Min(amount, ceiling)
	if !released.IsPositive() {
		k.Logger(ctx).Debug("overflow pool empty", "requested", amount.String())
		return sdkmath.ZeroInt(), nil
	}

	coins := sdk.NewCoins(sdk.NewCoin(params.ReserveDenom, released))
	if err := k.bankKeeper.SendCoinsFromModuleToAccount(ctx, types.ModuleName, recipient, coins); err != nil {
		return sdkmath.ZeroInt(), err
	}

	sdkctx.EmitEvent(ctx, sdk.NewEvent(
		"overflow_capital_released",
		sdk.NewAttribute("recipient", caller),
		sdk.NewAttribute("requested", amount.String()),
		sdk.NewAttribute("released", released.String()),
	))
	telemetry.IncrCounter(1, types.ModuleName, "capital_requests")
	k.Logger(ctx).Info("released overflow capital",
		"recipient", caller,
		"requested", amount.String(),
		"released", released.String(),
	)
	return released, nil
}

func (k Keeper) getUint64(ctx context.Context, item collections.Item[uint64]) (uint64, error) {
	v, err := item.Get(ctx)
	if errors.Is(err, collections.ErrNotFound) {
		return 0, nil
	}
	return v, err
}

// ParticipatedAuctions lists auctions the pool committed to, oldest first.
func (k Keeper) ParticipatedAuctions(ctx context.Context) ([]uint64, error) {
	var out []uint64
	err := k.AuctionIDs.Walk(ctx, nil, func(_ uint64, id uint64) (bool, error) {
		out = append(out, id)
		return false, nil
	})
	return out, err
}

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
	for i, id := range gs.AuctionIDs {
		if err := k.AuctionIDs.Set(ctx, uint64(i), id); err != nil {
			return err
		}
	}
	if err := k.AuctionCount.Set(ctx, uint64(len(gs.AuctionIDs))); err != nil {
		return err
	}
	if err := k.ReplenishingIndex.Set(ctx, gs.ReplenishingIndex); err != nil {
		return err
	}
	return k.TotalForfeited.Set(ctx, fixedpoint.OrZero(gs.TotalForfeited))
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
	ids, err := k.ParticipatedAuctions(ctx)
	if err != nil {
		return nil, err
	}
	index, err := k.getUint64(ctx, k.ReplenishingIndex)
	if err != nil {
		return nil, fmt.Errorf("read replenishing index: %w", err)
	}
	forfeited, err := k.GetTotalForfeited(ctx)
	if err != nil {
		return nil, err
	}
	return &types.GenesisState{
		Params:            params,
		Roles:             roles,
		AuctionIDs:        ids,
		ReplenishingIndex: index,
		TotalForfeited:    forfeited,
	}, nil
}
