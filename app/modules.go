package app

import (
	sdk "github.com/cosmos/cosmos-sdk/types"
	"github.com/cosmos/cosmos-sdk/types/module"

	"github.com/maltprotocol/malt/x/auction"
	auctiontypes "github.com/maltprotocol/malt/x/auction/types"
	"github.com/maltprotocol/malt/x/crisis"
	crisistypes "github.com/maltprotocol/malt/x/crisis/types"
	"github.com/maltprotocol/malt/x/dao"
	daotypes "github.com/maltprotocol/malt/x/dao/types"
	"github.com/maltprotocol/malt/x/distributor"
	distributortypes "github.com/maltprotocol/malt/x/distributor/types"
	"github.com/maltprotocol/malt/x/escapehatch"
	escapehatchtypes "github.com/maltprotocol/malt/x/escapehatch/types"
	"github.com/maltprotocol/malt/x/mine"
	minetypes "github.com/maltprotocol/malt/x/mine/types"
	"github.com/maltprotocol/malt/x/overflow"
	overflowtypes "github.com/maltprotocol/malt/x/overflow/types"
	"github.com/maltprotocol/malt/x/throttle"
	throttletypes "github.com/maltprotocol/malt/x/throttle/types"
)

// ModuleBasics holds the non-dependant parts of every stabilization module.
var ModuleBasics = module.NewBasicManager(
	dao.AppModuleBasic{},
	auction.AppModuleBasic{},
	overflow.AppModuleBasic{},
	distributor.AppModuleBasic{},
	mine.AppModuleBasic{},
	throttle.AppModuleBasic{},
	escapehatch.AppModuleBasic{},
	crisis.AppModuleBasic{},
)

var (
	// The epoch clock ticks before anything reads it.
	orderBeginBlockers = []string{
		daotypes.ModuleName,
	}

	// Auctions settle first, then the epoch's reward is split and declared,
	// then vesting releases into the mine.
	orderEndBlockers = []string{
		auctiontypes.ModuleName,
		throttletypes.ModuleName,
		distributortypes.ModuleName,
	}

	orderInitGenesis = []string{
		crisistypes.ModuleName,
		daotypes.ModuleName,
		auctiontypes.ModuleName,
		overflowtypes.ModuleName,
		distributortypes.ModuleName,
		minetypes.ModuleName,
		throttletypes.ModuleName,
		escapehatchtypes.ModuleName,
	}
)

// NewModuleManager creates the module manager for the wired keepers.
func (k *Keepers) NewModuleManager() *module.Manager {
	mm := module.NewManager(
		dao.NewAppModule(k.DAOKeeper),
		auction.NewAppModule(k.AuctionKeeper),
		overflow.NewAppModule(k.OverflowKeeper),
		distributor.NewAppModule(k.DistributorKeeper),
		mine.NewAppModule(k.MineKeeper),
		throttle.NewAppModule(k.ThrottleKeeper),
		escapehatch.NewAppModule(k.EscapeHatchKeeper),
		crisis.NewAppModule(k.CrisisKeeper),
	)
	mm.SetOrderBeginBlockers(orderBeginBlockers...)
	mm.SetOrderEndBlockers(orderEndBlockers...)
	mm.SetOrderInitGenesis(orderInitGenesis...)
	mm.SetOrderExportGenesis(orderInitGenesis...)
	return mm
}

// RegisterInvariants registers every module's invariants with ir.
func RegisterInvariants(mm *module.Manager, ir sdk.InvariantRegistry) {
	mm.RegisterInvariants(ir)
}
