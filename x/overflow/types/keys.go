package types

const (
	// ModuleName is the reward overflow pool namespace.
	ModuleName = "overflow"

	// StoreKey is the module KV store key.
	StoreKey = ModuleName
)

// Roles checked by the overflow keeper.
const (
	// RoleCapitalRequester may draw capital to backfill reward shortfalls.
	RoleCapitalRequester = "capital_requester"

	// RoleAuctionOperator may commit pool capital to auctions.
	RoleAuctionOperator = "auction_operator"
)

var (
	// ParamsKey stores module params.
	ParamsKey = []byte{0x01}

	// RolesKeyPrefix stores role grants.
	RolesKeyPrefix = []byte{0x02}

	// AuctionIDsKeyPrefix stores auctions the pool committed to, by position.
	AuctionIDsKeyPrefix = []byte{0x03}

	// AuctionCountKey stores the number of recorded auctions.
	AuctionCountKey = []byte{0x04}

	// ReplenishingIndexKey stores the first recorded auction not fully claimed.
	ReplenishingIndexKey = []byte{0x05}

	// TotalForfeitedKey stores the rewards forfeited into the pool.
	TotalForfeitedKey = []byte{0x06}
)
