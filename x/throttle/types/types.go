package types

import (
	"fmt"

	sdkmath "cosmossdk.io/math"
	sdk "github.com/cosmos/cosmos-sdk/types"

	"github.com/maltprotocol/malt/internal/fixedpoint"
)

type Params struct {
	RewardDenom string `json:"reward_denom"`
	// Throttle is the headroom, in basis points, an epoch's target profit
	// gets above the smoothed realized return.
	Throttle uint64 `json:"throttle"`
	// SmoothingPeriod is how many past epochs the realized return averages.
	SmoothingPeriod uint64 `json:"smoothing_period"`
}

func DefaultParams() Params {
	return Params{
		RewardDenom:     "ureserve",
		Throttle:        200,
		SmoothingPeriod: 48,
	}
}

func (p Params) Validate() error {
	if err := sdk.ValidateDenom(p.RewardDenom); err != nil {
		return fmt.Errorf("invalid reward denom: %w", err)
	}
	if p.Throttle > fixedpoint.BpsBase {
		return fmt.Errorf("throttle %d exceeds %d bps", p.Throttle, fixedpoint.BpsBase)
	}
	if p.SmoothingPeriod == 0 {
		return fmt.Errorf("smoothing period must be positive")
	}
	return nil
}

// EpochRecord tracks one epoch's rewards. Profit is what arrived naturally;
// Rewarded is what was declared, including overflow backfill.
type EpochRecord struct {
	Epoch          uint64      `json:"epoch"`
	Profit         sdkmath.Int `json:"profit"`
	Rewarded       sdkmath.Int `json:"rewarded"`
	BondedValue    sdkmath.Int `json:"bonded_value"`
	ThrottleAmount uint64      `json:"throttle_amount"`
}

// NewEpochRecord snapshots bonded value and throttle for an epoch.
func NewEpochRecord(epoch uint64, bondedValue sdkmath.Int, throttle uint64) EpochRecord {
	return EpochRecord{
		Epoch:          epoch,
		Profit:         sdkmath.ZeroInt(),
		Rewarded:       sdkmath.ZeroInt(),
		BondedValue:    bondedValue,
		ThrottleAmount: throttle,
	}
}

func (r EpochRecord) Validate() error {
	if r.Profit.IsNil() || r.Profit.IsNegative() {
		return fmt.Errorf("epoch %d profit must be non-negative", r.Epoch)
	}
	if r.Rewarded.IsNil() || r.Rewarded.IsNegative() {
		return fmt.Errorf("epoch %d rewarded must be non-negative", r.Epoch)
	}
	if r.BondedValue.IsNil() || r.BondedValue.IsNegative() {
		return fmt.Errorf("epoch %d bonded value must be non-negative", r.Epoch)
	}
	return nil
}

// HandleRewardResult reports where one HandleReward call sent funds.
type HandleRewardResult struct {
	Epoch         uint64
	Received      sdkmath.Int
	ToDistributor sdkmath.Int
	ToOverflow    sdkmath.Int
	FromOverflow  sdkmath.Int
}

type GenesisState struct {
	Params Params        `json:"params"`
	Epochs []EpochRecord `json:"epochs"`
}

func DefaultGenesis() *GenesisState {
	return &GenesisState{Params: DefaultParams()}
}

func (gs GenesisState) Validate() error {
	if err := gs.Params.Validate(); err != nil {
		return fmt.Errorf("invalid throttle params: %w", err)
	}
	seen := make(map[uint64]struct{}, len(gs.Epochs))
	for _, r := range gs.Epochs {
		if err := r.Validate(); err != nil {
			return err
		}
		if _, dup := seen[r.Epoch]; dup {
			return fmt.Errorf("duplicate epoch %d", r.Epoch)
		}
		seen[r.Epoch] = struct{}{}
	}
	return nil
}
