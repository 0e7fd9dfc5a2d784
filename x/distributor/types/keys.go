package types

const (
	// ModuleName is the reward distributor namespace. The module account
	// holds declared rewards until they vest.
	ModuleName = "distributor"

	// StoreKey is the module KV store key.
	StoreKey = ModuleName
)

const (
	// RoleThrottler may declare rewards.
	RoleThrottler = "throttler"

	// RoleRewardMine may decrement and forfeit declared rewards.
	RoleRewardMine = "reward_mine"
)

var (
	ParamsKey          = []byte{0x01}
	RolesKeyPrefix     = []byte{0x02}
	SchedulesKeyPrefix = []byte{0x03}
	ScheduleSeqKey     = []byte{0x04}
	TotalDeclaredKey   = []byte{0x05}
	TotalReleasedKey   = []byte{0x06}
	FocalStartKey      = []byte{0x07}
)

// Event types emitted by the distributor.
const (
	EventTypeDeclareReward = "distributor_declare_reward"
	EventTypeVest          = "distributor_vest"
	EventTypeForfeit       = "distributor_forfeit"
	EventTypeDecrement     = "distributor_decrement"
)
