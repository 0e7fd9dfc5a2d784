package types

import (
	"fmt"
)

// SecondsPerYear is the year length used for APR annualisation.
const SecondsPerYear = 365 * 24 * 60 * 60

// Params configures the epoch clock.
type Params struct {
	// EpochLength is the epoch duration in seconds.
	EpochLength uint64 `json:"epoch_length"`
}

// DefaultParams returns 30 minute epochs.
func DefaultParams() Params {
	return Params{EpochLength: 30 * 60}
}

// Validate checks params.
func (p Params) Validate() error {
	if p.EpochLength == 0 {
		return fmt.Errorf("epoch length must be positive")
	}
	if p.EpochLength > SecondsPerYear {
		return fmt.Errorf("epoch length %d exceeds a year", p.EpochLength)
	}
	return nil
}

// EpochsPerYear is the number of epochs in a year at the current length.
func (p Params) EpochsPerYear() uint64 {
	return SecondsPerYear / p.EpochLength
}

// EpochState is the clock position.
type EpochState struct {
	Epoch         uint64 `json:"epoch"`
	StartTimeUnix int64  `json:"start_time_unix"`
}

// GenesisState is the dao genesis.
type GenesisState struct {
	Params Params     `json:"params"`
	State  EpochState `json:"state"`
}

// DefaultGenesis starts at epoch 0. A zero start time is replaced with the
// genesis block time.
func DefaultGenesis() *GenesisState {
	return &GenesisState{Params: DefaultParams()}
}

// Validate checks the genesis state.
func (gs GenesisState) Validate() error {
	if err := gs.Params.Validate(); err != nil {
		return fmt.Errorf("invalid dao params: %w", err)
	}
	if gs.State.StartTimeUnix < 0 {
		return fmt.Errorf("negative epoch start time")
	}
	return nil
}
