package types

const (
	// ModuleName is the auction module namespace.
	ModuleName = "auction"

	// StoreKey is the module KV store key.
	StoreKey = ModuleName
)

// Roles checked by the auction keeper.
const (
	// RoleStabilizer may trigger auctions and allocate arbitrage rewards.
	RoleStabilizer = "stabilizer"

	// RoleAuctionAmender may rewrite an account's participation after an
	// early exit.
	RoleAuctionAmender = "auction_amender"
)

var (
	// ParamsKey stores module params.
	ParamsKey = []byte{0x01}

	// RolesKeyPrefix stores role grants.
	RolesKeyPrefix = []byte{0x02}

	// AuctionKeyPrefix stores auctions by id.
	AuctionKeyPrefix = []byte{0x03}

	// ParticipationKeyPrefix stores participations by (account, auction id).
	ParticipationKeyPrefix = []byte{0x04}

	// AuctionSequenceKey stores the next auction id.
	AuctionSequenceKey = []byte{0x05}

	// ReplenishingAuctionIDKey stores the replenishment cursor.
	ReplenishingAuctionIDKey = []byte{0x06}

	// FinalizationCursorKey stores the lowest auction id that may still be
	// unfinalized.
	FinalizationCursorKey = []byte{0x07}

	// ExcessRewardsKey stores reserve held by the module but not yet
	// allocated to any auction.
	ExcessRewardsKey = []byte{0x08}
)

// Event types.
const (
	EventTypeAuctionTriggered  = "auction_triggered"
	EventTypeAuctionCommitted  = "auction_committed"
	EventTypeAuctionClosed     = "auction_closed_early"
	EventTypeAuctionFinalized  = "auction_finalized"
	EventTypeAuctionReplenish  = "auction_replenished"
	EventTypeArbitrageClaimed  = "auction_arbitrage_claimed"
	EventTypeParticipationEdit = "auction_participation_amended"
)
