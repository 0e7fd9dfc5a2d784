package types

import (
	"errors"
	"fmt"

	sdkmath "cosmossdk.io/math"
	sdk "github.com/cosmos/cosmos-sdk/types"

	"github.com/maltprotocol/malt/internal/fixedpoint"
)

type Params struct {
	MaltDenom    string `json:"malt_denom"`
	ReserveDenom string `json:"reserve_denom"`
	// MaxEarlyExitBps caps the profit an exit realizes, relative to the
	// exited commitment.
	MaxEarlyExitBps uint64 `json:"max_early_exit_bps"`
	// CooloffPeriod is how long after an auction ends the profit cap takes
	// to ramp from zero to MaxEarlyExitBps, in seconds.
	CooloffPeriod int64 `json:"cooloff_period"`
}

func DefaultParams() Params {
	return Params{
		MaltDenom:       "umalt",
		ReserveDenom:    "ureserve",
		MaxEarlyExitBps: 200,
		CooloffPeriod:   86_400,
	}
}

func (p Params) Validate() error {
	if err := sdk.ValidateDenom(p.MaltDenom); err != nil {
		return fmt.Errorf("invalid malt denom: %w", err)
	}
	if err := sdk.ValidateDenom(p.ReserveDenom); err != nil {
		return fmt.Errorf("invalid reserve denom: %w", err)
	}
	if p.MaltDenom == p.ReserveDenom {
		return errors.New("malt and reserve denoms must differ")
	}
	if p.MaxEarlyExitBps > fixedpoint.BpsBase {
		return fmt.Errorf("max early exit %d exceeds %d bps", p.MaxEarlyExitBps, fixedpoint.BpsBase)
	}
	if p.CooloffPeriod <= 0 {
		return fmt.Errorf("cooloff period must be positive, got %d", p.CooloffPeriod)
	}
	return nil
}

// ExitRecord is one early exit.
type ExitRecord struct {
	ID        uint64      `json:"id"`
	Account   string      `json:"account"`
	AuctionID uint64      `json:"auction_id"`
	Amount    sdkmath.Int `json:"amount"`
	MaltSold  sdkmath.Int `json:"malt_sold"`
	Proceeds  sdkmath.Int `json:"proceeds"`
	Returned  sdkmath.Int `json:"returned"`
	Time      int64       `json:"time"`
}

// ExitTotals aggregates exits of one account or of everyone.
type ExitTotals struct {
	Exits     uint64      `json:"exits"`
	Committed sdkmath.Int `json:"committed"`
	MaltSold  sdkmath.Int `json:"malt_sold"`
	Returned  sdkmath.Int `json:"returned"`
}

func NewExitTotals() ExitTotals {
	return ExitTotals{
		Committed: sdkmath.ZeroInt(),
		MaltSold:  sdkmath.ZeroInt(),
		Returned:  sdkmath.ZeroInt(),
	}
}

// Add folds an exit into the totals.
func (t ExitTotals) Add(r ExitRecord) ExitTotals {
	return ExitTotals{
		Exits:     t.Exits + 1,
		Committed: t.Committed.Add(r.Amount),
		MaltSold:  t.MaltSold.Add(r.MaltSold),
		Returned:  t.Returned.Add(r.Returned),
	}
}

type GenesisState struct {
	Params Params       `json:"params"`
	Exits  []ExitRecord `json:"exits"`
}

func DefaultGenesis() *GenesisState {
	return &GenesisState{Params: DefaultParams()}
}

func (gs GenesisState) Validate() error {
	if err := gs.Params.Validate(); err != nil {
		return fmt.Errorf("invalid escape hatch params: %w", err)
	}
	for i, r := range gs.Exits {
		if r.ID != uint64(i) {
			return fmt.Errorf("exit %d out of sequence at position %d", r.ID, i)
		}
		if _, err := sdk.AccAddressFromBech32(r.Account); err != nil {
			return fmt.Errorf("exit %d account: %w", r.ID, err)
		}
		if r.Amount.IsNil() || r.MaltSold.IsNil() || r.Proceeds.IsNil() || r.Returned.IsNil() {
			return fmt.Errorf("exit %d has unset amounts", r.ID)
		}
	}
	return nil
}
