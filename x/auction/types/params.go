package types

import (
	"fmt"

	sdkmath "cosmossdk.io/math"
	sdk "github.com/cosmos/cosmos-sdk/types"

	"github.com/maltprotocol/malt/internal/fixedpoint"
)

// Params configures auctions.
type Params struct {
	// ReserveDenom is the collateral token participants commit.
	ReserveDenom string `json:"reserve_denom"`

	// AuctionLength is the price decay window in seconds.
	AuctionLength uint64 `json:"auction_length"`

	// MaxAuctionEnd caps the ending price at this per-mille of the starting
	// price, so every auction decays by at least 1-MaxAuctionEnd/1000.
	MaxAuctionEnd uint64 `json:"max_auction_end"`

	// ArbTokenReplenishSplit is the bps share of each reward allocation
	// applied to outstanding arbitrage tokens.
	ArbTokenReplenishSplit uint64 `json:"arb_token_replenish_split"`

	// MinReserveRatio is the 1e18 reserve ratio below which finalization
	// skips the protocol burn.
	MinReserveRatio sdkmath.Int `json:"min_reserve_ratio"`
}

// DefaultParams returns the launch configuration.
func DefaultParams() Params {
	return Params{
		ReserveDenom:           "ureserve",
		AuctionLength:          600,
		MaxAuctionEnd:          900,
		ArbTokenReplenishSplit: 7000,
		MinReserveRatio:        fixedpoint.MustFromDecimalString("0.3"),
	}
}

// Validate checks params.
func (p Params) Validate() error {
	if err := sdk.ValidateDenom(p.ReserveDenom); err != nil {
		return fmt.Errorf("invalid reserve denom: %w", err)
	}
	if p.AuctionLength == 0 {
		return fmt.Errorf("auction length must be positive")
	}
	if p.MaxAuctionEnd == 0 || p.MaxAuctionEnd > fixedpoint.PerMilleBase {
		return fmt.Errorf("max auction end %d must be in (0, %d]", p.MaxAuctionEnd, fixedpoint.PerMilleBase)
	}
	if p.ArbTokenReplenishSplit > fixedpoint.BpsBase {
		return fmt.Errorf("arb token replenish split %d exceeds %d", p.ArbTokenReplenishSplit, fixedpoint.BpsBase)
	}
	if p.MinReserveRatio.IsNil() || p.MinReserveRatio.IsNegative() {
		return fmt.Errorf("min reserve ratio must be non-negative")
	}
	if p.MinReserveRatio.GT(fixedpoint.Unity) {
		return fmt.Errorf("min reserve ratio %s exceeds 1", fixedpoint.Format(p.MinReserveRatio))
	}
	return nil
}
