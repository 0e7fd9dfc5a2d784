package keeper

import (
	"context"
	"errors"

	"cosmossdk.io/collections"
	"cosmossdk.io/core/store"
	errorsmod "cosmossdk.io/errors"
	"cosmossdk.io/log"
	sdkmath "cosmossdk.io/math"
	sdk "github.com/cosmos/cosmos-sdk/types"
	authtypes "github.com/cosmos/cosmos-sdk/x/auth/types"

	"github.com/maltprotocol/malt/internal/access"
	"github.com/maltprotocol/malt/internal/collcodec"
	"github.com/maltprotocol/malt/internal/sdkctx"
	"github.com/maltprotocol/malt/x/throttle/types"
)

// Keeper smooths epoch rewards: each epoch forwards up to a target derived
// from recent realized returns to the distributor and buffers the rest in
// the overflow pool.
type Keeper struct {
	storeService store.KVStoreService
	authority    string

	bankKeeper        types.BankKeeper
	daoKeeper         types.DAOKeeper
	bondingKeeper     types.BondingKeeper
	distributorKeeper types.DistributorKeeper
	overflowKeeper    types.OverflowKeeper
	crisisKeeper      types.CrisisKeeper

	distributorModule string
	overflowModule    string

	Schema collections.Schema
	Params collections.Item[types.Params]
	Epochs collections.Map[uint64, types.EpochRecord]
}

// NewKeeper creates a new throttle keeper. Forwarded rewards are moved to
// distributorModule and excess to overflowModule.
func NewKeeper(
	storeService store.KVStoreService,
	authority string,
	bankKeeper types.BankKeeper,
	daoKeeper types.DAOKeeper,
	distributorModule string,
	overflowModule string,
) Keeper {
	sb := collections.NewSchemaBuilder(storeService)

	k := Keeper{
		storeService:      storeService,
		authority:         authority,
		bankKeeper:        bankKeeper,
		daoKeeper:         daoKeeper,
		distributorModule: distributorModule,
		overflowModule:    overflowModule,
		Params: collections.NewItem(
			sb,
			collections.NewPrefix(types.ParamsKey),
			"params",
			collcodec.JSONValue[types.Params](),
		),
		Epochs: collections.NewMap(
			sb,
			collections.NewPrefix(types.EpochRecordsPrefix),
			"epochs",
			collections.Uint64Key,
			collcodec.JSONValue[types.EpochRecord](),
		),
	}

	schema, err := sb.Build()
	if err != nil {
		panic(err)
	}
	k.Schema = schema
	return k
}

func (k *Keeper) SetBondingKeeper(bk types.BondingKeeper) {
	k.bondingKeeper = bk
}

func (k *Keeper) SetDistributor(dk types.DistributorKeeper) {
	k.distributorKeeper = dk
}

func (k *Keeper) SetOverflowPool(ok types.OverflowKeeper) {
	k.overflowKeeper = ok
}

// SetCrisisKeeper installs the emergency halt switch. While rewards are
// halted deposits stay in the throttle account.
func (k *Keeper) SetCrisisKeeper(ck types.CrisisKeeper) {
	k.crisisKeeper = ck
}

func (k Keeper) Logger(ctx context.Context) log.Logger {
	return sdkctx.Logger(ctx, types.ModuleName)
}

// GetAuthority returns the module's authority.
func (k Keeper) GetAuthority() string {
	return k.authority
}

// ModuleAddress is the throttle account rewards are deposited into.
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
	if err := access.RequireAuthority(k.authority, requester); err != nil {
		return err
	}
	if err := params.Validate(); err != nil {
		return err
	}
	return k.Params.Set(ctx, params)
}

func (k Keeper) ready() error {
	switch {
	case k.daoKeeper == nil:
		return errorsmod.Wrap(types.ErrNotConfigured, "dao")
	case k.bondingKeeper == nil:
		return errorsmod.Wrap(types.ErrNotConfigured, "bonding")
	case k.distributorKeeper == nil:
		return errorsmod.Wrap(types.ErrNotConfigured, "distributor")
	case k.overflowKeeper == nil:
		return errorsmod.Wrap(types.ErrNotConfigured, "overflow pool")
	}
	return nil
}

// EpochData returns the record of an epoch. Epochs never touched return a
// zero record.
func (k Keeper) EpochData(ctx context.Context, epoch uint64) (types.EpochRecord, error) {
	rec, err := k.Epochs.Get(ctx, epoch)
	if errors.Is(err, collections.ErrNotFound) {
		return types.NewEpochRecord(epoch, sdkmath.ZeroInt(), 0), nil
	}
	return rec, err
}

// touchEpoch loads the epoch record, snapshotting bonded value and the
// current throttle the first time the epoch is seen.
func (k Keeper) touchEpoch(ctx context.Context, epoch uint64, params types.Params) (types.EpochRecord, error) {
	rec, err := k.Epochs.Get(ctx, epoch)
	if err == nil {
		return rec, nil
	}
	if !errors.Is(err, collections.ErrNotFound) {
		return types.EpochRecord{}, err
	}
	bonded, err := k.bondingKeeper.AverageBondedValue(ctx, epoch)
	if err != nil {
		return types.EpochRecord{}, err
	}
	return types.NewEpochRecord(epoch, bonded, params.Throttle), nil
}

// InitGenesis loads genesis state.
func (k Keeper) InitGenesis(ctx context.Context, gs *types.GenesisState) error {
	if err := gs.Validate(); err != nil {
		return err
	}
	if err := k.Params.Set(ctx, gs.Params); err != nil {
		return err
	}
	for _, rec := range gs.Epochs {
		if err := k.Epochs.Set(ctx, rec.Epoch, rec); err != nil {
			return err
		}
	}
	return nil
}

// ExportGenesis dumps state.
func (k Keeper) ExportGenesis(ctx context.Context) (*types.GenesisState, error) {
	params, err := k.GetParams(ctx)
	if err != nil {
		return nil, err
	}
	gs := &types.GenesisState{Params: params}
	err = k.Epochs.Walk(ctx, nil, func(_ uint64, rec types.EpochRecord) (bool, error) {
		gs.Epochs = append(gs.Epochs, rec)
		return false, nil
	})
	return gs, err
}
