package app

import (
	"context"

	"cosmossdk.io/core/store"
	sdkmath "cosmossdk.io/math"
	sdk "github.com/cosmos/cosmos-sdk/types"
	authtypes "github.com/cosmos/cosmos-sdk/x/auth/types"

	auctionkeeper "github.com/maltprotocol/malt/x/auction/keeper"
	auctiontypes "github.com/maltprotocol/malt/x/auction/types"
	crisiskeeper "github.com/maltprotocol/malt/x/crisis/keeper"
	crisistypes "github.com/maltprotocol/malt/x/crisis/types"
	daokeeper "github.com/maltprotocol/malt/x/dao/keeper"
	daotypes "github.com/maltprotocol/malt/x/dao/types"
	distributorkeeper "github.com/maltprotocol/malt/x/distributor/keeper"
	distributortypes "github.com/maltprotocol/malt/x/distributor/types"
	escapehatchkeeper "github.com/maltprotocol/malt/x/escapehatch/keeper"
	escapehatchtypes "github.com/maltprotocol/malt/x/escapehatch/types"
	minekeeper "github.com/maltprotocol/malt/x/mine/keeper"
	minetypes "github.com/maltprotocol/malt/x/mine/types"
	overflowkeeper "github.com/maltprotocol/malt/x/overflow/keeper"
	overflowtypes "github.com/maltprotocol/malt/x/overflow/types"
	throttlekeeper "github.com/maltprotocol/malt/x/throttle/keeper"
	throttletypes "github.com/maltprotocol/malt/x/throttle/types"
)

// StoreKeys lists the KV stores the stabilization modules mount.
var StoreKeys = []string{
	daotypes.StoreKey,
	auctiontypes.StoreKey,
	overflowtypes.StoreKey,
	distributortypes.StoreKey,
	minetypes.StoreKey,
	throttletypes.StoreKey,
	escapehatchtypes.StoreKey,
	crisistypes.StoreKey,
}

// maccPerms is a map of module account permissions
var maccPerms = map[string][]string{
	auctiontypes.ModuleName:     nil,
	overflowtypes.ModuleName:    nil,
	distributortypes.ModuleName: nil,
	minetypes.ModuleName:        nil,
	throttletypes.ModuleName:    nil,
	// the escape hatch mints the MALT an exiting commitment bought
	escapehatchtypes.ModuleName: {authtypes.Minter},
}

// GetMaccPerms returns a copy of the module account permissions.
func GetMaccPerms() map[string][]string {
	dup := make(map[string][]string, len(maccPerms))
	for k, v := range maccPerms {
		dup[k] = v
	}
	return dup
}

// BankKeeper is the custody surface every stabilization module draws on.
type BankKeeper interface {
	GetBalance(ctx context.Context, addr sdk.AccAddress, denom string) sdk.Coin
	SendCoins(ctx context.Context, from, to sdk.AccAddress, amt sdk.Coins) error
	SendCoinsFromAccountToModule(ctx context.Context, sender sdk.AccAddress, recipientModule string, amt sdk.Coins) error
	SendCoinsFromModuleToAccount(ctx context.Context, senderModule string, recipient sdk.AccAddress, amt sdk.Coins) error
	SendCoinsFromModuleToModule(ctx context.Context, senderModule, recipientModule string, amt sdk.Coins) error
	MintCoins(ctx context.Context, moduleName string, amt sdk.Coins) error
}

// BondingKeeper owns LP stake. It must call MiningService.OnBond and
// OnUnbond before changing a bond.
type BondingKeeper interface {
	TotalBonded(ctx context.Context) (sdkmath.Int, error)
	BalanceOfBonded(ctx context.Context, account sdk.AccAddress) (sdkmath.Int, error)
	AverageBondedValue(ctx context.Context, epoch uint64) (sdkmath.Int, error)
}

// Collaborators are the protocol components living outside these modules.
type Collaborators struct {
	Bonding            BondingKeeper
	LiquidityExtension auctiontypes.LiquidityExtension
	ImpliedCollateral  auctiontypes.ImpliedCollateralService
	BurnReserveSkew    auctiontypes.AuctionBurnReserveSkew
	Dex                escapehatchtypes.DexHandler
}

// Keepers holds the cross-wired stabilization keepers.
type Keepers struct {
	authority string

	CrisisKeeper      crisiskeeper.Keeper
	DAOKeeper         daokeeper.Keeper
	AuctionKeeper     auctionkeeper.Keeper
	OverflowKeeper    overflowkeeper.Keeper
	DistributorKeeper distributorkeeper.Keeper
	MineKeeper        minekeeper.Keeper
	MiningService     *minekeeper.MiningService
	ThrottleKeeper    throttlekeeper.Keeper
	EscapeHatchKeeper escapehatchkeeper.Keeper
}

// NewKeepers constructs every keeper and wires collaborators. Keepers are
// built leaves first since each holds its collaborators by value.
func NewKeepers(
	storeService func(storeKey string) store.KVStoreService,
	authority string,
	bankKeeper BankKeeper,
	c Collaborators,
) *Keepers {
	k := &Keepers{authority: authority}

	// Crisis first: the halt switch is copied into every keeper it guards.
	k.CrisisKeeper = crisiskeeper.NewKeeper(storeService(crisistypes.StoreKey), authority)

	k.DAOKeeper = daokeeper.NewKeeper(storeService(daotypes.StoreKey), authority)

	k.AuctionKeeper = auctionkeeper.NewKeeper(
		storeService(auctiontypes.StoreKey),
		authority,
		bankKeeper,
		c.LiquidityExtension,
		c.ImpliedCollateral,
		c.BurnReserveSkew,
	)
	k.AuctionKeeper.SetCrisisKeeper(k.CrisisKeeper)

	// Overflow pool - reward buffer and auction participant.
	k.OverflowKeeper = overflowkeeper.NewKeeper(storeService(overflowtypes.StoreKey), authority, bankKeeper)
	k.OverflowKeeper.SetAuctionKeeper(k.AuctionKeeper)

	// Distributor - vests declared rewards into the mine account.
	k.DistributorKeeper = distributorkeeper.NewKeeper(
		storeService(distributortypes.StoreKey),
		authority,
		bankKeeper,
		minetypes.ModuleName,
	)
	k.DistributorKeeper.SetBondingKeeper(c.Bonding)
	k.DistributorKeeper.SetForfeitHandler(k.OverflowKeeper)

	k.MineKeeper = minekeeper.NewKeeper(storeService(minetypes.StoreKey), authority, bankKeeper, k.DistributorKeeper)
	k.MineKeeper.SetBondingKeeper(c.Bonding)
	k.MiningService = minekeeper.NewMiningService(k.MineKeeper.Roles, k.MineKeeper)

	// Throttle - smooths epoch rewards between the distributor and overflow.
	k.ThrottleKeeper = throttlekeeper.NewKeeper(
		storeService(throttletypes.StoreKey),
		authority,
		bankKeeper,
		k.DAOKeeper,
		distributortypes.ModuleName,
		overflowtypes.ModuleName,
	)
	k.ThrottleKeeper.SetBondingKeeper(c.Bonding)
	k.ThrottleKeeper.SetDistributor(k.DistributorKeeper)
	k.ThrottleKeeper.SetOverflowPool(k.OverflowKeeper)
	k.ThrottleKeeper.SetCrisisKeeper(k.CrisisKeeper)

	k.EscapeHatchKeeper = escapehatchkeeper.NewKeeper(
		storeService(escapehatchtypes.StoreKey),
		authority,
		bankKeeper,
		k.AuctionKeeper,
		overflowtypes.ModuleName,
	)
	k.EscapeHatchKeeper.SetDexHandler(c.Dex)
	k.EscapeHatchKeeper.SetCrisisKeeper(k.CrisisKeeper)

	return k
}

// GrantModuleRoles grants the roles modules need to call each other, plus
// the stabilizer and bonding roles held by outside components. Genesis
// that already carries these grants makes this a no-op.
func (k *Keepers) GrantModuleRoles(ctx context.Context, stabilizer, bonding string) error {
	throttle := k.ThrottleKeeper.ModuleAddress().String()
	mine := k.MineKeeper.ModuleAddress().String()

	grants := []struct {
		grant   func(ctx context.Context, requester, role, account string) error
		role    string
		account string
	}{
		{k.AuctionKeeper.Roles.Grant, auctiontypes.RoleStabilizer, stabilizer},
		{k.AuctionKeeper.Roles.Grant, auctiontypes.RoleAuctionAmender, k.EscapeHatchKeeper.ModuleAddress().String()},
		{k.OverflowKeeper.Roles.Grant, overflowtypes.RoleCapitalRequester, throttle},
		{k.OverflowKeeper.Roles.Grant, overflowtypes.RoleAuctionOperator, stabilizer},
		{k.DistributorKeeper.Roles.Grant, distributortypes.RoleThrottler, throttle},
		{k.DistributorKeeper.Roles.Grant, distributortypes.RoleRewardMine, mine},
		{k.MineKeeper.Roles.Grant, minetypes.RoleMiningService, k.MiningService.Address().String()},
		{k.MineKeeper.Roles.Grant, minetypes.RoleBonding, bonding},
	}
	for _, g := range grants {
		if err := g.grant(ctx, k.authority, g.role, g.account); err != nil {
			return err
		}
	}
	return nil
}
