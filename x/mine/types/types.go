package types

import (
	"errors"
	"fmt"

	sdkmath "cosmossdk.io/math"
	sdk "github.com/cosmos/cosmos-sdk/types"

	"github.com/maltprotocol/malt/internal/access"
)

// InitialPaddingMultiplier pads the first bond so later ratios keep
// precision.
const InitialPaddingMultiplier int64 = 1_000_000

type Params struct {
	RewardDenom string `json:"reward_denom"`
}

func DefaultParams() Params {
	return Params{RewardDenom: "ureserve"}
}

func (p Params) Validate() error {
	if err := sdk.ValidateDenom(p.RewardDenom); err != nil {
		return fmt.Errorf("invalid reward denom: %w", err)
	}
	return nil
}

// AccountState is a staker's padding and reconciled withdrawals.
type AccountState struct {
	Address      string      `json:"address"`
	StakePadding sdkmath.Int `json:"stake_padding"`
	Withdrawn    sdkmath.Int `json:"withdrawn"`
}

type GenesisState struct {
	Params            Params         `json:"params"`
	Roles             []access.Grant `json:"roles"`
	Accounts          []AccountState `json:"accounts"`
	TotalStakePadding sdkmath.Int    `json:"total_stake_padding"`
	GlobalWithdrawn   sdkmath.Int    `json:"global_withdrawn"`
}

func DefaultGenesis() *GenesisState {
	return &GenesisState{
		Params:            DefaultParams(),
		TotalStakePadding: sdkmath.ZeroInt(),
		GlobalWithdrawn:   sdkmath.ZeroInt(),
	}
}

func (gs GenesisState) Validate() error {
	if err := gs.Params.Validate(); err != nil {
		return fmt.Errorf("invalid mine params: %w", err)
	}
	if err := access.ValidateGrants(gs.Roles); err != nil {
		return err
	}
	if gs.TotalStakePadding.IsNil() || gs.TotalStakePadding.IsNegative() {
		return errors.New("total stake padding must be non-negative")
	}
	if gs.GlobalWithdrawn.IsNil() || gs.GlobalWithdrawn.IsNegative() {
		return errors.New("global withdrawn must be non-negative")
	}
	sum := sdkmath.ZeroInt()
	seen := make(map[string]struct{}, len(gs.Accounts))
	for _, a := range gs.Accounts {
		if _, err := sdk.AccAddressFromBech32(a.Address); err != nil {
			return fmt.Errorf("invalid account %q: %w", a.Address, err)
		}
		if _, dup := seen[a.Address]; dup {
			return fmt.Errorf("duplicate account %s", a.Address)
		}
		seen[a.Address] = struct{}{}
		if a.StakePadding.IsNil() || a.StakePadding.IsNegative() || a.Withdrawn.IsNil() || a.Withdrawn.IsNegative() {
			return fmt.Errorf("account %s has negative state", a.Address)
		}
		sum = sum.Add(a.StakePadding)
	}
	if !sum.Equal(gs.TotalStakePadding) {
		return fmt.Errorf("account paddings sum to %s, total is %s", sum, gs.TotalStakePadding)
	}
	return nil
}
