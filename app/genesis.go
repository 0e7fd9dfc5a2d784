package app

import (
	"encoding/json"
	"fmt"

	sdk "github.com/cosmos/cosmos-sdk/types"
	"github.com/cosmos/cosmos-sdk/types/module"
)

// GenesisState represents the genesis state of the stabilization modules,
// keyed by module name.
type GenesisState map[string]json.RawMessage

// NewDefaultGenesisState generates the default state for every module.
func NewDefaultGenesisState() GenesisState {
	return ModuleBasics.DefaultGenesis(nil)
}

// ValidateGenesis validates every module's section of genesis.
func ValidateGenesis(genesis GenesisState) error {
	return ModuleBasics.ValidateGenesis(nil, nil, genesis)
}

// InitGenesis initializes the modules in genesis order. The stabilization
// modules carry no validator set, so this runs them directly instead of
// through module.Manager.InitGenesis, which requires one.
func InitGenesis(ctx sdk.Context, mm *module.Manager, genesis GenesisState) error {
	if err := ValidateGenesis(genesis); err != nil {
		return err
	}
	for _, name := range mm.OrderInitGenesis {
		bz, ok := genesis[name]
		if !ok {
			continue
		}
		mod, ok := mm.Modules[name].(module.HasABCIGenesis)
		if !ok {
			return fmt.Errorf("module %s has no genesis", name)
		}
		mod.InitGenesis(ctx, nil, bz)
	}
	return nil
}

// ExportGenesis exports every module sequentially in export order.
func ExportGenesis(ctx sdk.Context, mm *module.Manager) GenesisState {
	genesis := make(GenesisState, len(mm.OrderExportGenesis))
	for _, name := range mm.OrderExportGenesis {
		if mod, ok := mm.Modules[name].(module.HasABCIGenesis); ok {
			genesis[name] = mod.ExportGenesis(ctx, nil)
		}
	}
	return genesis
}
