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
	"github.com/maltprotocol/malt/x/auction/types"
)

// Keeper runs collateral auctions and the arbitrage token ledger.
type Keeper struct {
	storeService store.KVStoreService

	bankKeeper         types.BankKeeper
	liquidityExtension types.LiquidityExtension
	impliedCollateral  types.ImpliedCollateralService
	burnReserveSkew    types.AuctionBurnReserveSkew
	crisisKeeper       types.CrisisKeeper

	Schema                collections.Schema
	Params                collections.Item[types.Params]
	Roles                 access.Roles
	Auctions              collections.Map[uint64, types.Auction]
	Participations        collections.Map[collections.Pair[sdk.AccAddress, uint64], types.AccountParticipation]
	AuctionSeq            collections.Sequence
	ReplenishingAuctionID collections.Item[uint64]
	FinalizationCursor    collections.Item[uint64]
	ExcessRewards         collections.Item[sdkmath.Int]
}

// NewKeeper creates a new auction keeper.
func NewKeeper(
	storeService store.KVStoreService,
	authority string,
	bankKeeper types.BankKeeper,
	liquidityExtension types.LiquidityExtension,
	impliedCollateral types.ImpliedCollateralService,
	burnReserveSkew types.AuctionBurnReserveSkew,
) Keeper {
	sb := collections.NewSchemaBuilder(storeService)

	k := Keeper{
		storeService:       storeService,
		bankKeeper:         bankKeeper,
		liquidityExtension: liquidityExtension,
		impliedCollateral:  impliedCollateral,
		burnReserveSkew:    burnReserveSkew,
		Params: collections.NewItem(
			sb,
			collections.NewPrefix(types.ParamsKey),
			"params",
			collcodec.JSONValue[types.Params](),
		),
		Roles: access.NewRoles(sb, collections.NewPrefix(types.RolesKeyPrefix), authority),
		Auctions: collections.NewMap(
			sb,
			collections.NewPrefix(types.AuctionKeyPrefix),
			"auctions",
			collections.Uint64Key,
			collcodec.JSONValue[types.Auction](),
		),
		Participations: collections.NewMap(
			sb,
			collections.NewPrefix(types.ParticipationKeyPrefix),
			"participations",
			collections.PairKeyCodec(sdk.AccAddressKey, collections.Uint64Key),
			collcodec.JSONValue[types.AccountParticipation](),
		),
		AuctionSeq: collections.NewSequence(
			sb,
			collections.NewPrefix(types.AuctionSequenceKey),
			"auction_sequence",
		),
		ReplenishingAuctionID: collections.NewItem(
			sb,
			collections.NewPrefix(types.ReplenishingAuctionIDKey),
			"replenishing_auction_id",
			collections.Uint64Value,
		),
		FinalizationCursor: collections.NewItem(
			sb,
			collections.NewPrefix(types.FinalizationCursorKey),
			"finalization_cursor",
			collections.Uint64Value,
		),
		ExcessRewards: collections.NewItem(
			sb,
			collections.NewPrefix(types.ExcessRewardsKey),
			"excess_rewards",
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

// SetLiquidityExtension swaps the liquidity extension.
func (k *Keeper) SetLiquidityExtension(le types.LiquidityExtension) {
	k.liquidityExtension = le
}

// SetImpliedCollateralService swaps the implied collateral service.
func (k *Keeper) SetImpliedCollateralService(ics types.ImpliedCollateralService) {
	k.impliedCollateral = ics
}

// SetBurnReserveSkew swaps the burn budget source.
func (k *Keeper) SetBurnReserveSkew(skew types.AuctionBurnReserveSkew) {
	k.burnReserveSkew = skew
}

// SetCrisisKeeper installs the emergency halt switch. Without one auctions
// never halt.
func (k *Keeper) SetCrisisKeeper(ck types.CrisisKeeper) {
	k.crisisKeeper = ck
}

func (k Keeper) halted(ctx context.Context) bool {
	return k.crisisKeeper != nil && k.crisisKeeper.IsAuctionsHalted(ctx)
}

// Logger returns a module-scoped logger.
func (k Keeper) Logger(ctx context.Context) log.Logger {
	return sdkctx.Logger(ctx, types.ModuleName)
}

// GetAuthority returns the keeper authority address.
func (k Keeper) GetAuthority() string {
	return k.Roles.Authority()
}

// ModuleAddress is the account holding replenishment reserve.
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

func (k Keeper) getUint64(ctx context.Context, item collections.Item[uint64]) (uint64, error) {
	v, err := item.Get(ctx)
	if errors.Is(err, collections.ErrNotFound) {
		return 0, nil
	}
	return v, err
}

func (k Keeper) getExcess(ctx context.Context) (sdkmath.Int, error) {
	v, err := k.ExcessRewards.Get(ctx)
	if errors.Is(err, collections.ErrNotFound) {
		return sdkmath.ZeroInt(), nil
	}
	return v, err
}

func (k Keeper) setAuction(ctx context.Context, a types.Auction) error {
	return k.Auctions.Set(ctx, a.ID, a)
}

func (k Keeper) getParticipation(ctx context.Context, account sdk.AccAddress, id uint64) (types.AccountParticipation, bool, error) {
	p, err := k.Participations.Get(ctx, collections.Join(account, id))
	if errors.Is(err, collections.ErrNotFound) {
		return types.NewAccountParticipation(id, account.String()), false, nil
	}
	if err != nil {
		return types.AccountParticipation{}, false, err
	}
	return p, true, nil
}

func (k Keeper) setParticipation(ctx context.Context, account sdk.AccAddress, p types.AccountParticipation) error {
	return k.Participations.Set(ctx, collections.Join(account, p.AuctionID), p)
}

func (k Keeper) reserveCoins(params types.Params, amount sdkmath.Int) sdk.Coins {
	return sdk.NewCoins(sdk.NewCoin(params.ReserveDenom, amount))
}
