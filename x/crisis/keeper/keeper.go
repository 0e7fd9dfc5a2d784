package keeper

import (
	"context"
	"errors"
	"sort"
	"strings"

	"cosmossdk.io/collections"
	"cosmossdk.io/core/store"
	errorsmod "cosmossdk.io/errors"
	"cosmossdk.io/log"
	sdk "github.com/cosmos/cosmos-sdk/types"

	"github.com/maltprotocol/malt/internal/collcodec"
	"github.com/maltprotocol/malt/internal/sdkctx"
	"github.com/maltprotocol/malt/x/crisis/types"
)

// Keeper holds the emergency halt switches for the stabilization flows.
type Keeper struct {
	storeService store.KVStoreService
	authority    string

	Schema        collections.Schema
	CouncilConfig collections.Item[types.CouncilConfig]
	HaltState     collections.Item[types.HaltState]
}

// NewKeeper creates a new stability crisis keeper.
func NewKeeper(storeService store.KVStoreService, authority string) Keeper {
	sb := collections.NewSchemaBuilder(storeService)

	k := Keeper{
		storeService: storeService,
		authority:    authority,
		CouncilConfig: collections.NewItem(
			sb,
			collections.NewPrefix(types.CouncilConfigKey),
			"security_council_config",
			collcodec.JSONValue[types.CouncilConfig](),
		),
		HaltState: collections.NewItem(
			sb,
			collections.NewPrefix(types.HaltStateKey),
			"halt_state",
			collcodec.JSONValue[types.HaltState](),
		),
	}
	schema, err := sb.Build()
	if err != nil {
		panic(err)
	}
	k.Schema = schema
	return k
}

func (k Keeper) GetAuthority() string {
	return k.authority
}

func (k Keeper) Logger(ctx context.Context) log.Logger {
	return sdkctx.Logger(ctx, types.ModuleName)
}

// SetSecurityCouncilConfig stores the council allowed to halt.
func (k Keeper) SetSecurityCouncilConfig(ctx context.Context, requester string, config types.CouncilConfig) error {
	if strings.TrimSpace(requester) != strings.TrimSpace(k.authority) {
		return errorsmod.Wrap(types.ErrUnauthorized, "council config update")
	}
	if err := config.Validate(); err != nil {
		return err
	}
	return k.CouncilConfig.Set(ctx, config)
}

// GetSecurityCouncilConfig returns the configured council.
func (k Keeper) GetSecurityCouncilConfig(ctx context.Context) (types.CouncilConfig, error) {
	config, err := k.CouncilConfig.Get(ctx)
	if errors.Is(err, collections.ErrNotFound) {
		return types.CouncilConfig{}, types.ErrCouncilNotConfigured
	}
	return config, err
}

// Halt freezes the requested flows once a council quorum has signed.
func (k Keeper) Halt(ctx context.Context, msg types.MsgHalt) error {
	if err := msg.ValidateBasic(); err != nil {
		return errorsmod.Wrap(types.ErrInvalidHalt, err.Error())
	}
	config, err := k.GetSecurityCouncilConfig(ctx)
	if err != nil {
		return err
	}
	if err := verifyCouncilSigners(config, msg.Signers); err != nil {
		return err
	}
	if !containsSigner(msg.Signers, msg.Requester) {
		return errorsmod.Wrap(types.ErrInvalidHalt, "requester must be part of signer set")
	}

	scopes := msg.Scopes
	if len(scopes) == 0 {
		scopes = types.AllScopes
	}
	sdkCtx, now := sdkctx.Now(ctx)
	state := types.HaltState{
		Active:               true,
		Reason:               strings.TrimSpace(msg.Reason),
		TriggeredBy:          normalizeSigners(msg.Signers),
		TriggeredByRequester: strings.TrimSpace(msg.Requester),
		TriggeredAtHeight:    sdkCtx.BlockHeight(),
		TriggeredAtUnix:      now.Unix(),
	}
	for _, scope := range scopes {
		switch scope {
		case types.ScopeAuctions:
			state.AuctionsHalted = true
		case types.ScopeEarlyExits:
			state.EarlyExitsHalted = true
		case types.ScopeRewards:
			state.RewardsHalted = true
		}
	}
	if err := k.HaltState.Set(ctx, state); err != nil {
		return err
	}

	sdkctx.EmitEvent(ctx, sdk.NewEvent(
		types.EventTypeHalted,
		sdk.NewAttribute("reason", state.Reason),
		sdk.NewAttribute("requester", state.TriggeredByRequester),
		sdk.NewAttribute("signers", strings.Join(state.TriggeredBy, ",")),
		sdk.NewAttribute("scopes", strings.Join(scopes, ",")),
	))
	k.Logger(ctx).Info("stabilization halted", "reason", state.Reason, "scopes", strings.Join(scopes, ","))
	return nil
}

// Resume clears the halt after remediation.
func (k Keeper) Resume(ctx context.Context, requester string) error {
	if strings.TrimSpace(requester) != strings.TrimSpace(k.authority) {
		return errorsmod.Wrap(types.ErrUnauthorized, "halt clear request")
	}
	if err := k.HaltState.Set(ctx, types.HaltState{}); err != nil {
		return err
	}
	sdkctx.EmitEvent(ctx, sdk.NewEvent(types.EventTypeResumed))
	k.Logger(ctx).Info("stabilization resumed")
	return nil
}

func (k Keeper) GetHaltState(ctx context.Context) (types.HaltState, error) {
	state, err := k.HaltState.Get(ctx)
	if errors.Is(err, collections.ErrNotFound) {
		return types.HaltState{}, nil
	}
	return state, err
}

func (k Keeper) IsAuctionsHalted(ctx context.Context) bool {
	state, err := k.GetHaltState(ctx)
	return err == nil && state.Active && state.AuctionsHalted
}

func (k Keeper) IsEarlyExitsHalted(ctx context.Context) bool {
	state, err := k.GetHaltState(ctx)
	return err == nil && state.Active && state.EarlyExitsHalted
}

func (k Keeper) IsRewardsHalted(ctx context.Context) bool {
	state, err := k.GetHaltState(ctx)
	return err == nil && state.Active && state.RewardsHalted
}

// InitGenesis loads genesis state.
func (k Keeper) InitGenesis(ctx context.Context, gs *types.GenesisState) error {
	if err := gs.Validate(); err != nil {
		return err
	}
	if gs.Council != nil {
		if err := k.CouncilConfig.Set(ctx, *gs.Council); err != nil {
			return err
		}
	}
	return k.HaltState.Set(ctx, gs.Halt)
}

// ExportGenesis dumps state.
func (k Keeper) ExportGenesis(ctx context.Context) (*types.GenesisState, error) {
	gs := &types.GenesisState{}
	config, err := k.GetSecurityCouncilConfig(ctx)
	switch {
	case err == nil:
		gs.Council = &config
	case !errors.Is(err, types.ErrCouncilNotConfigured):
		return nil, err
	}
	if gs.Halt, err = k.GetHaltState(ctx); err != nil {
		return nil, err
	}
	return gs, nil
}

func verifyCouncilSigners(config types.CouncilConfig, signers []string) error {
	memberSet := make(map[string]struct{}, len(config.Members))
	for _, member := range config.Members {
		memberSet[strings.TrimSpace(member)] = struct{}{}
	}

	normalized := normalizeSigners(signers)
	if len(normalized) < config.Threshold {
		return errorsmod.Wrapf(types.ErrInsufficientSignatures, "got %d, need %d", len(normalized), config.Threshold)
	}
	for _, signer := range normalized {
		if _, ok := memberSet[signer]; !ok {
			return errorsmod.Wrapf(types.ErrNotCouncilMember, "signer %s", signer)
		}
	}
	return nil
}

func normalizeSigners(signers []string) []string {
	seen := make(map[string]struct{}, len(signers))
	out := make([]string, 0, len(signers))
	for _, signer := range signers {
		signer = strings.TrimSpace(signer)
		if signer == "" {
			continue
		}
		if _, ok := seen[signer]; ok {
			continue
		}
		seen[signer] = struct{}{}
		out = append(out, signer)
	}
	sort.Strings(out)
	return out
}

func containsSigner(signers []string, target string) bool {
	target = strings.TrimSpace(target)
	for _, signer := range signers {
		if strings.TrimSpace(signer) == target {
			return true
		}
	}
	return false
}
