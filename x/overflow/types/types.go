package types

import (
	"fmt"

	sdkmath "cosmossdk.io/math"
	sdk "github.com/cosmos/cosmos-sdk/types"

	"github.com/maltprotocol/malt/internal/access"
	"github.com/maltprotocol/malt/internal/fixedpoint"
)

// Params configures the overflow pool.
type Params struct {
	ReserveDenom string `json:"reserve_denom"`

	// MaxFulfillment is the per-mille of the pool balance one request may
	// draw.
	MaxFulfillment uint64 `json:"max_fulfillment"`
}

// DefaultParams caps each draw at half the pool.
func DefaultParams() Params {
	return Params{
		ReserveDenom:   "ureserve",
		MaxFulfillment: 500,
	}
}

// Validate checks params.
func (p Params) Validate() error {
	if err := sdk.ValidateDenom(p.ReserveDenom); err != nil {
		return fmt.Errorf("invalid reserve denom: %w", err)
	}
	if p.MaxFulfillment > fixedpoint.PerMilleBase {
		return fmt.Errorf("max fulfillment %d exceeds %d", p.MaxFulfillment, fixedpoint.PerMilleBase)
	}
	return nil
}

// GenesisState is the overflow genesis.
type GenesisState struct {
	Params            Params         `json:"params"`
	Roles             []access.Grant `json:"roles"`
	AuctionIDs        []uint64       `json:"auction_ids"`
	ReplenishingIndex uint64         `json:"replenishing_index"`
	TotalForfeited    sdkmath.Int    `json:"total_forfeited"`
}

// DefaultGenesis returns an empty pool.
func DefaultGenesis() *GenesisState {
	return &GenesisState{Params: DefaultParams()}
}

// Validate checks the genesis state.
func (gs GenesisState) Validate() error {
	if err := gs.Params.Validate(); err != nil {
		return fmt.Errorf("invalid overflow params: %w", err)
	}
	if err := access.ValidateGrants(gs.Roles); err != nil {
		return err
	}
	if gs.ReplenishingIndex > uint64(len(gs.AuctionIDs)) {
		return fmt.Errorf("replenishing index %d beyond %d recorded auctions", gs.ReplenishingIndex, len(gs.AuctionIDs))
	}
	if !gs.TotalForfeited.IsNil() && gs.TotalForfeited.IsNegative() {
		return fmt.Errorf("negative forfeited total %s", gs.TotalForfeited)
	}
	return nil
}
