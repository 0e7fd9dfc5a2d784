package keeper

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"cosmossdk.io/collections"
	"cosmossdk.io/core/store"
	"cosmossdk.io/log"
	sdk "github.com/cosmos/cosmos-sdk/types"

	"github.com/maltprotocol/malt/internal/collcodec"
	"github.com/maltprotocol/malt/internal/sdkctx"
	"github.com/maltprotocol/malt/x/dao/types"
)

// Keeper is the protocol epoch clock.
type Keeper struct {
	storeService store.KVStoreService
	authority    string

	Schema     collections.Schema
	Params     collections.Item[types.Params]
	EpochState collections.Item[types.EpochState]
}

// NewKeeper creates a new dao keeper.
func NewKeeper(storeService store.KVStoreService, authority string) Keeper {
	sb := collections.NewSchemaBuilder(storeService)
	k := Keeper{
		storeService: storeService,
		authority:    authority,
		Params: collections.NewItem(
			sb,
			collections.NewPrefix(types.ParamsKey),
			"params",
			collcodec.JSONValue[types.Params](),
		),
		EpochState: collections.NewItem(
			sb,
			collections.NewPrefix(types.EpochStateKey),
			"epoch_state",
			collcodec.JSONValue[types.EpochState](),
		),
	}
	schema, err := sb.Build()
	if err != nil {
		panic(err)
	}
	k.Schema = schema
	return k
}

// Logger returns a module-scoped logger.
func (k Keeper) Logger(ctx context.Context) log.Logger {
	return sdkctx.Logger(ctx, types.ModuleName)
}

// GetAuthority returns the keeper authority address.
func (k Keeper) GetAuthority() string {
	return k.authority
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
	if strings.TrimSpace(requester) != k.authority {
		return fmt.Errorf("unauthorized dao params update: expected %s", k.authority)
	}
	if err := params.Validate(); err != nil {
		return err
	}
	return k.Params.Set(ctx, params)
}

func (k Keeper) state(ctx context.Context) (types.EpochState, error) {
	st, err := k.EpochState.Get(ctx)
	if errors.Is(err, collections.ErrNotFound) {
		return types.EpochState{StartTimeUnix: sdkctx.NowUnix(ctx)}, nil
	}
	return st, err
}

// Epoch returns the current epoch index.
func (k Keeper) Epoch(ctx context.Context) (uint64, error) {
	st, err := k.state(ctx)
	if err != nil {
		return 0, err
	}
	return st.Epoch, nil
}

// EpochsPerYear returns the annualisation factor for the current epoch
// length.
func (k Keeper) EpochsPerYear(ctx context.Context) (uint64, error) {
	params, err := k.GetParams(ctx)
	if err != nil {
		return 0, err
	}
	return params.EpochsPerYear(), nil
}

// EpochStartTime returns the unix start of the current epoch.
func (k Keeper) EpochStartTime(ctx context.Context) (int64, error) {
	st, err := k.state(ctx)
	if err != nil {
		return 0, err
	}
	return st.StartTimeUnix, nil
}

// Advance moves the clock forward one epoch once the current epoch has run
// its full length. It reports whether the epoch changed.
func (k Keeper) Advance(ctx context.Context) (bool, error) {
	params, err := k.GetParams(ctx)
	if err != nil {
		return false, err
	}
	st, err := k.state(ctx)
	if err != nil {
		return false, err
	}
	now := sdkctx.NowUnix(ctx)
	next := st.StartTimeUnix + int64(params.EpochLength)
	if now < next {
		return false, nil
	}

	st.Epoch++
	st.StartTimeUnix = next
	if err := k.EpochState.Set(ctx, st); err != nil {
		return false, err
	}

	sdkctx.EmitEvent(ctx, sdk.NewEvent(
		"dao_epoch_advanced",
		sdk.NewAttribute("epoch", fmt.Sprintf("%d", st.Epoch)),
		sdk.NewAttribute("start_time_unix", fmt.Sprintf("%d", st.StartTimeUnix)),
	))
	k.Logger(ctx).Info("advanced epoch", "epoch", st.Epoch)
	return true, nil
}

// InitGenesis loads genesis state.
func (k Keeper) InitGenesis(ctx context.Context, gs *types.GenesisState) error {
	if err := gs.Validate(); err != nil {
		return err
	}
	if err := k.Params.Set(ctx, gs.Params); err != nil {
		return err
	}
	st := gs.State
	if st.StartTimeUnix == 0 {
		st.StartTimeUnix = sdkctx.NowUnix(ctx)
	}
	return k.EpochState.Set(ctx, st)
}

// ExportGenesis dumps state.
func (k Keeper) ExportGenesis(ctx context.Context) (*types.GenesisState, error) {
	params, err := k.GetParams(ctx)
	if err != nil {
		return nil, err
	}
	st, err := k.state(ctx)
	if err != nil {
		return nil, err
	}
	return &types.GenesisState{Params: params, State: st}, nil
}
