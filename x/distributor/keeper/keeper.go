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
	"github.com/maltprotocol/malt/x/distributor/types"
)

// Keeper vests declared rewards into a reward mine over focal periods.
type Keeper struct {
	storeService store.KVStoreService

	bankKeeper     types.BankKeeper
	bondingKeeper  types.BondingKeeper
	forfeitHandler types.ForfeitHandler

	// rewardModule is the module account vested rewards are sent to.
	rewardModule string

	Schema        collections.Schema
	Params        collections.Item[types.Params]
	Roles         access.Roles
	Schedules     collections.Map[uint64, types.VestingSchedule]
	ScheduleSeq   collections.Sequence
	TotalDeclared collections.Item[sdkmath.Int]
	TotalReleased collections.Item[sdkmath.Int]
	FocalStart    collections.Item[int64]
}

// NewKeeper creates a new distributor keeper vesting into rewardModule.
func NewKeeper(
	storeService store.KVStoreService,
	authority string,
	bankKeeper types.BankKeeper,
	rewardModule string,
) Keeper {
	sb := collections.NewSchemaBuilder(storeService)

	k := Keeper{
		storeService: storeService,
		bankKeeper:   bankKeeper,
		rewardModule: rewardModule,
		Params: collections.NewItem(
			sb,
			collections.NewPrefix(types.ParamsKey),
			"params",
			collcodec.JSONValue[types.Params](),
		),
		Roles: access.NewRoles(sb, collections.NewPrefix(types.RolesKeyPrefix), authority),
		Schedules: collections.NewMap(
			sb,
			collections.NewPrefix(types.SchedulesKeyPrefix),
			"schedules",
			collections.Uint64Key,
			collcodec.JSONValue[types.VestingSchedule](),
		),
		ScheduleSeq: collections.NewSequence(sb, collections.NewPrefix(types.ScheduleSeqKey), "schedule_sequence"),
		TotalDeclared: collections.NewItem(
			sb,
			collections.NewPrefix(types.TotalDeclaredKey),
			"total_declared",
			sdk.IntValue,
		),
		TotalReleased: collections.NewItem(
			sb,
			collections.NewPrefix(types.TotalReleasedKey),
			"total_released",
			sdk.IntValue,
		),
		FocalStart: collections.NewItem(
			sb,
			collections.NewPrefix(types.FocalStartKey),
			"focal_start",
			collections.Int64Value,
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

// SetForfeitHandler wires the forfeit sink.
func (k *Keeper) SetForfeitHandler(fh types.ForfeitHandler) {
	k.forfeitHandler = fh
}

func (k Keeper) Logger(ctx context.Context) log.Logger {
	return sdkctx.Logger(ctx, types.ModuleName)
}

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

func (k Keeper) getInt(ctx context.Context, item collections.Item[sdkmath.Int]) (sdkmath.Int, error) {
	v, err := item.Get(ctx)
	if errors.Is(err, collections.ErrNotFound) {
		return sdkmath.ZeroInt(), nil
	}
	return v, err
}

// TotalDeclaredReward is declared reward not yet decremented or forfeited.
func (k Keeper) TotalDeclaredReward(ctx context.Context) (sdkmath.Int, error) {
	return k.getInt(ctx, k.TotalDeclared)
}

// TotalReleasedReward is the cumulative amount vested into the reward mine.
func (k Keeper) TotalReleasedReward(ctx context.Context) (sdkmath.Int, error) {
	return k.getInt(ctx, k.TotalReleased)
}

// focalStart returns the start of focal period 0, pinning it to the
// current block time on first use.
func (k Keeper) focalStart(ctx context.Context) (int64, error) {
	start, err := k.FocalStart.Get(ctx)
	if err == nil {
		return start, nil
	}
	if !errors.Is(err, collections.ErrNotFound) {
		return 0, err
	}
	start = sdkctx.NowUnix(ctx)
	return start, k.FocalStart.Set(ctx, start)
}

// FocalID is the index of the focal period containing the block time.
func (k Keeper) FocalID(ctx context.Context) (uint64, error) {
	id, _, err := k.focalPeriod(ctx)
	return id, err
}

func (k Keeper) focalPeriod(ctx context.Context) (id uint64, end int64, err error) {
	params, err := k.GetParams(ctx)
	if err != nil {
		return 0, 0, err
	}
	start, err := k.focalStart(ctx)
	if err != nil {
		return 0, 0, err
	}
	elapsed := sdkctx.NowUnix(ctx) - start
	if elapsed < 0 {
		elapsed = 0
	}
	id = uint64(elapsed / params.FocalLength)
	return id, start + int64(id+1)*params.FocalLength, nil
}

// OpenSchedules lists open vesting schedules, oldest first.
func (k Keeper) OpenSchedules(ctx context.Context) ([]types.VestingSchedule, error) {
	var out []types.VestingSchedule
	err := k.Schedules.Walk(ctx, nil, func(_ uint64, s types.VestingSchedule) (bool, error) {
		out = append(out, s)
		return false, nil
	})
	return out, err
}

// Unvested sums what open schedules still hold back.
func (k Keeper) Unvested(ctx context.Context) (sdkmath.Int, error) {
	total := sdkmath.ZeroInt()
	err := k.Schedules.Walk(ctx, nil, func(_ uint64, s types.VestingSchedule) (bool, error) {
		total = total.Add(s.Unvested())
		return false, nil
	})
	return total, err
}

func (k Keeper) rewardCoins(params types.Params, amount sdkmath.Int) sdk.Coins {
	return sdk.NewCoins(sdk.NewCoin(params.RewardDenom, amount))
}
