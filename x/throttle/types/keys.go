package types

const (
	// ModuleName is the reward throttle namespace. Upstream reward sources
	// deposit into this module account.
	ModuleName = "throttle"

	// StoreKey is the module KV store key.
	StoreKey = ModuleName
)

var (
	ParamsKey          = []byte{0x01}
	EpochRecordsPrefix = []byte{0x02}
)

const EventTypeHandleReward = "throttle_handle_reward"
