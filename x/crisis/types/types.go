package types

import (
	"fmt"
	"strings"
)

// CouncilConfig defines who may halt the stabilization flows: any
// Threshold distinct members acting together.
type CouncilConfig struct {
	Threshold int      `json:"threshold"`
	Members   []string `json:"members"`
}

func (c CouncilConfig) Validate() error {
	if len(c.Members) == 0 {
		return fmt.Errorf("security council must have members")
	}
	if c.Threshold < 1 || c.Threshold > len(c.Members) {
		return fmt.Errorf("threshold %d outside 1..%d", c.Threshold, len(c.Members))
	}
	// half the council must never be able to halt on its own
	if 2*c.Threshold <= len(c.Members) {
		return fmt.Errorf("threshold %d-of-%d is not a strict majority", c.Threshold, len(c.Members))
	}

	seen := make(map[string]struct{}, len(c.Members))
	for _, member := range c.Members {
		addr := strings.TrimSpace(member)
		if addr == "" {
			return fmt.Errorf("security council member address cannot be empty")
		}
		if _, exists := seen[addr]; exists {
			return fmt.Errorf("duplicate council member address: %s", addr)
		}
		seen[addr] = struct{}{}
	}
	return nil
}

// MsgHalt freezes the named flows, or all of them when Scopes is empty.
type MsgHalt struct {
	Requester string   `json:"requester"`
	Reason    string   `json:"reason"`
	Signers   []string `json:"signers"`
	Scopes    []string `json:"scopes"`
}

func (m MsgHalt) ValidateBasic() error {
	if strings.TrimSpace(m.Requester) == "" {
		return fmt.Errorf("requester cannot be empty")
	}
	if strings.TrimSpace(m.Reason) == "" {
		return fmt.Errorf("halt reason cannot be empty")
	}
	if len(m.Signers) == 0 {
		return fmt.Errorf("halt request requires signers")
	}
	for _, scope := range m.Scopes {
		if !IsKnownScope(scope) {
			return fmt.Errorf("unknown halt scope %q", scope)
		}
	}
	return nil
}

// IsKnownScope reports whether scope names a haltable flow.
func IsKnownScope(scope string) bool {
	for _, s := range AllScopes {
		if s == scope {
			return true
		}
	}
	return false
}

// HaltState tracks the emergency freeze.
type HaltState struct {
	Active               bool     `json:"active"`
	Reason               string   `json:"reason"`
	TriggeredBy          []string `json:"triggered_by"`
	TriggeredByRequester string   `json:"triggered_by_requester"`
	TriggeredAtHeight    int64    `json:"triggered_at_height"`
	TriggeredAtUnix      int64    `json:"triggered_at_unix"`
	AuctionsHalted       bool     `json:"auctions_halted"`
	EarlyExitsHalted     bool     `json:"early_exits_halted"`
	RewardsHalted        bool     `json:"rewards_halted"`
}

type GenesisState struct {
	Council *CouncilConfig `json:"council,omitempty"`
	Halt    HaltState      `json:"halt"`
}

func DefaultGenesis() *GenesisState {
	return &GenesisState{}
}

func (gs GenesisState) Validate() error {
	if gs.Council != nil {
		if err := gs.Council.Validate(); err != nil {
			return err
		}
	}
	if gs.Halt.Active && !gs.Halt.AuctionsHalted && !gs.Halt.EarlyExitsHalted && !gs.Halt.RewardsHalted {
		return fmt.Errorf("active halt freezes no flow")
	}
	return nil
}
