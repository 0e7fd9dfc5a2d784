package types

import (
	"fmt"

	sdkmath "cosmossdk.io/math"

	"github.com/maltprotocol/malt/internal/access"
	"github.com/maltprotocol/malt/internal/fixedpoint"
)

// GenesisState is the auction genesis.
type GenesisState struct {
	Params                Params                 `json:"params"`
	Roles                 []access.Grant         `json:"roles"`
	Auctions              []Auction              `json:"auctions"`
	Participations        []AccountParticipation `json:"participations"`
	NextAuctionID         uint64                 `json:"next_auction_id"`
	ReplenishingAuctionID uint64                 `json:"replenishing_auction_id"`
	FinalizationCursor    uint64                 `json:"finalization_cursor"`
	ExcessRewards         sdkmath.Int            `json:"excess_rewards"`
}

// DefaultGenesis returns an empty auction history.
func DefaultGenesis() *GenesisState {
	return &GenesisState{
		Params:        DefaultParams(),
		ExcessRewards: sdkmath.ZeroInt(),
	}
}

// Validate checks the genesis state, including that participations sum to
// each auction's commitments.
func (gs GenesisState) Validate() error {
	if err := gs.Params.Validate(); err != nil {
		return fmt.Errorf("invalid auction params: %w", err)
	}
	if err := access.ValidateGrants(gs.Roles); err != nil {
		return err
	}
	if gs.ReplenishingAuctionID > gs.NextAuctionID || gs.FinalizationCursor > gs.NextAuctionID {
		return fmt.Errorf("auction cursors exceed next auction id %d", gs.NextAuctionID)
	}
	if fixedpoint.OrZero(gs.ExcessRewards).IsNegative() {
		return fmt.Errorf("negative excess rewards")
	}

	sums := make(map[uint64]sdkmath.Int, len(gs.Auctions))
	for _, a := range gs.Auctions {
		if a.ID >= gs.NextAuctionID {
			return fmt.Errorf("auction %d not below next auction id %d", a.ID, gs.NextAuctionID)
		}
		if _, dup := sums[a.ID]; dup {
			return fmt.Errorf("duplicate auction %d", a.ID)
		}
		if a.Commitments.GT(a.MaxCommitments) {
			return fmt.Errorf("auction %d commitments exceed max", a.ID)
		}
		if a.ClaimableTokens.GT(a.MaltPurchased) {
			return fmt.Errorf("auction %d claimable exceeds arbitrage tokens", a.ID)
		}
		sums[a.ID] = sdkmath.ZeroInt()
	}
	for _, p := range gs.Participations {
		sum, ok := sums[p.AuctionID]
		if !ok {
			return fmt.Errorf("participation for unknown auction %d", p.AuctionID)
		}
		sums[p.AuctionID] = sum.Add(p.Commitment)
	}
	for _, a := range gs.Auctions {
		if !sums[a.ID].Equal(a.Commitments) {
			return fmt.Errorf("auction %d commitments %s do not match participations %s", a.ID, a.Commitments, sums[a.ID])
		}
	}
	return nil
}
