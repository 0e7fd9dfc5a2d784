package keeper

import (
	"context"
	"errors"

	"cosmossdk.io/collections"
	"cosmossdk.io/core/store"
	"cosmossdk.io/log"
	sdk "github.com/cosmos/cosmos-sdk/types"
	authtypes "github.com/cosmos/cosmos-sdk/x/auth/types"

	"github.com/maltprotocol/malt/internal/access"
	"github.com/maltprotocol/malt/internal/collcodec"
	"github.com/maltprotocol/malt/internal/sdkctx"
	"github.com/maltprotocol/malt/x/escapehatch/types"
)

// Keeper lets auction participants leave a finished auction before it is
// replenished, selling the MALT their commitment bought.
type Keeper struct {
	storeService store.KVStoreService
	authority    string

	bankKeeper    types.BankKeeper
	auctionKeeper types.AuctionKeeper
	dexHandler    types.DexHandler
	crisisKeeper  types.CrisisKeeper

	// surplusModule receives sale proceeds above what exits return.
	surplusModule string

	Schema       collections.Schema
	Params       collections.Item[types.Params]
	Exits        collections.Map[uint64, types.ExitRecord]
	ExitSeq      collections.Sequence
	AccountExits collections.Map[sdk.AccAddress, types.ExitTotals]
	GlobalExits  collections.Item[types.ExitTotals]
}

// NewKeeper creates a new escape hatch keeper.
func NewKeeper(
	storeService store.KVStoreService,
	authority string,
	bankKeeper types.BankKeeper,
	auctionKeeper types.AuctionKeeper,
	surplusModule string,
) Keeper {
	sb := collections.NewSchemaBuilder(storeService)

	k := Keeper{
		storeService:  storeService,
		authority:     authority,
		bankKeeper:    bankKeeper,
		auctionKeeper: auctionKeeper,
		surplusModule: surplusModule,
		Params: collections.NewItem(
			sb,
			collections.NewPrefix(types.ParamsKey),
			"params",
			collcodec.JSONValue[types.Params](),
		),
		Exits: collections.NewMap(
			sb,
			collections.NewPrefix(types.ExitsKeyPrefix),
			"exits",
			collections.Uint64Key,
			collcodec.JSONValue[types.ExitRecord](),
		),
		ExitSeq: collections.NewSequence(
			sb,
			collections.NewPrefix(types.ExitSequenceKey),
			"exit_sequence",
		),
		AccountExits: collections.NewMap(
			sb,
			collections.NewPrefix(types.AccountExitsKeyPrefix),
			"account_exits",
			sdk.AccAddressKey,
			collcodec.JSONValue[types.ExitTotals](),
		),
		GlobalExits: collections.NewItem(
			sb,
			collections.NewPrefix(types.GlobalExitsKey),
			"global_exits",
			collcodec.JSONValue[types.ExitTotals](),
		),
	}

	schema, err := sb.Build()
	if err != nil {
		panic(err)
	}
	k.Schema = schema
	return k
}

// SetDexHandler wires the market MALT is priced and sold on.
func (k *Keeper) SetDexHandler(dex types.DexHandler) {
	k.dexHandler = dex
}

// SetCrisisKeeper installs the emergency halt switch.
func (k *Keeper) SetCrisisKeeper(ck types.CrisisKeeper) {
	k.crisisKeeper = ck
}

func (k Keeper) Logger(ctx context.Context) log.Logger {
	return sdkctx.Logger(ctx, types.ModuleName)
}

func (k Keeper) GetAuthority() string {
	return k.authority
}

// ModuleAddress holds minted MALT and sale proceeds during an exit.
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
	if err := access.RequireAuthority(k.authority, requester); err != nil {
		return err
	}
	if err := params.Validate(); err != nil {
		return err
	}
	return k.Params.Set(ctx, params)
}

// GetAccountExits returns an account's exit totals.
func (k Keeper) GetAccountExits(ctx context.Context, account sdk.AccAddress) (types.ExitTotals, error) {
	totals, err := k.AccountExits.Get(ctx, account)
	if errors.Is(err, collections.ErrNotFound) {
		return types.NewExitTotals(), nil
	}
	return totals, err
}

// GetGlobalExits returns exit totals across all accounts.
func (k Keeper) GetGlobalExits(ctx context.Context) (types.ExitTotals, error) {
	totals, err := k.GlobalExits.Get(ctx)
	if errors.Is(err, collections.ErrNotFound) {
		return types.NewExitTotals(), nil
	}
	return totals, err
}

// recordExit appends r to the exit log and folds it into the totals.
func (k Keeper) recordExit(ctx context.Context, r types.ExitRecord, account sdk.AccAddress) error {
	if err := k.Exits.Set(ctx, r.ID, r); err != nil {
		return err
	}
	accountTotals, err := k.GetAccountExits(ctx, account)
	if err != nil {
		return err
	}
	if err := k.AccountExits.Set(ctx, account, accountTotals.Add(r)); err != nil {
		return err
	}
	global, err := k.GetGlobalExits(ctx)
	if err != nil {
		return err
	}
	return k.GlobalExits.Set(ctx, global.Add(r))
}
