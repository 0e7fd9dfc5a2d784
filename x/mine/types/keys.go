package types

const (
	// ModuleName is the vested reward mine namespace. Vested rewards are
	// held by this module account until stakers withdraw them.
	ModuleName = "mine"

	// StoreKey is the module KV store key.
	StoreKey = ModuleName

	// MiningServiceName names the account the mining service calls mines as.
	MiningServiceName = "mining_service"
)

// Roles checked by the mine and the mining service.
const (
	// RoleMiningService may report bond changes and withdraw for accounts.
	RoleMiningService = "mining_service"

	// RoleBonding may notify the mining service of bond changes.
	RoleBonding = "bonding"

	// RoleReinvestor may withdraw rewards on behalf of stakers.
	RoleReinvestor = "reinvestor"
)

var (
	ParamsKey             = []byte{0x01}
	RolesKeyPrefix        = []byte{0x02}
	StakePaddingKeyPrefix = []byte{0x03}
	TotalStakePaddingKey  = []byte{0x04}
	WithdrawnKeyPrefix    = []byte{0x05}
	GlobalWithdrawnKey    = []byte{0x06}
)

const (
	EventTypeBond     = "mine_bond"
	EventTypeUnbond   = "mine_unbond"
	EventTypeWithdraw = "mine_withdraw"
)
