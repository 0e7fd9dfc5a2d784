package types

const (
	// ModuleName is the stabilization emergency-response module namespace.
	ModuleName = "stability_crisis"

	// StoreKey is the module KV store key.
	StoreKey = ModuleName
)

var (
	// HaltStateKey stores the active halt state.
	HaltStateKey = []byte{0x01}

	// CouncilConfigKey stores council membership and threshold.
	CouncilConfigKey = []byte{0x02}
)

// Flows a halt can freeze.
const (
	ScopeAuctions   = "auctions"
	ScopeEarlyExits = "early_exits"
	ScopeRewards    = "rewards"
)

// AllScopes is every haltable flow.
var AllScopes = []string{ScopeAuctions, ScopeEarlyExits, ScopeRewards}

const (
	EventTypeHalted  = "stability_halted"
	EventTypeResumed = "stability_resumed"
)
