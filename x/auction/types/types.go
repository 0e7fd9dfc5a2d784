package types

import (
	sdkmath "cosmossdk.io/math"

	"github.com/maltprotocol/malt/internal/fixedpoint"
)

// Auction is a Dutch auction selling discounted MALT for reserve. Prices
// and the reserve ratio are 1e18 fixed point; quantities are base units.
//
// MaltPurchased is also the number of arbitrage tokens the auction owes:
// each token redeems for one unit of reserve once replenished.
type Auction struct {
	ID           uint64 `json:"id"`
	StartingTime int64  `json:"starting_time"`
	EndingTime   int64  `json:"ending_time"`
	// ClosedTime is set when commitments reach the maximum before EndingTime.
	ClosedTime int64 `json:"closed_time,omitempty"`

	PegPrice      sdkmath.Int `json:"peg_price"`
	StartingPrice sdkmath.Int `json:"starting_price"`
	EndingPrice   sdkmath.Int `json:"ending_price"`
	ReserveRatio  sdkmath.Int `json:"reserve_ratio"`

	MaxCommitments  sdkmath.Int `json:"max_commitments"`
	Commitments     sdkmath.Int `json:"commitments"`
	MaltPurchased   sdkmath.Int `json:"malt_purchased"`
	ClaimableTokens sdkmath.Int `json:"claimable_tokens"`

	FinalPrice      sdkmath.Int `json:"final_price"`
	FinalBurnBudget sdkmath.Int `json:"final_burn_budget"`
	FinalPurchased  sdkmath.Int `json:"final_purchased"`

	Active    bool `json:"active"`
	Finalized bool `json:"finalized"`
}

// NewAuction returns an active auction with zeroed counters.
func NewAuction(id uint64, start, end int64, peg, startingPrice, endingPrice, reserveRatio, maxCommitments sdkmath.Int) Auction {
	return Auction{
		ID:              id,
		StartingTime:    start,
		EndingTime:      end,
		PegPrice:        peg,
		StartingPrice:   startingPrice,
		EndingPrice:     endingPrice,
		ReserveRatio:    reserveRatio,
		MaxCommitments:  maxCommitments,
		Commitments:     sdkmath.ZeroInt(),
		MaltPurchased:   sdkmath.ZeroInt(),
		ClaimableTokens: sdkmath.ZeroInt(),
		FinalPrice:      sdkmath.ZeroInt(),
		FinalBurnBudget: sdkmath.ZeroInt(),
		FinalPurchased:  sdkmath.ZeroInt(),
		Active:          true,
	}
}

// EndTime is when bidding stopped: the early close time, else EndingTime.
func (a Auction) EndTime() int64 {
	if a.ClosedTime != 0 && a.ClosedTime < a.EndingTime {
		return a.ClosedTime
	}
	return a.EndingTime
}

// RemainingCapacity is the commitment still accepted.
func (a Auction) RemainingCapacity() sdkmath.Int {
	return fixedpoint.SaturatingSub(a.MaxCommitments, a.Commitments)
}

// OutstandingArbTokens are arbitrage tokens not yet replenished.
func (a Auction) OutstandingArbTokens() sdkmath.Int {
	return fixedpoint.SaturatingSub(a.MaltPurchased, a.ClaimableTokens)
}

// AccountParticipation is one account's position in one auction. Redeemed
// counts arbitrage tokens already paid out; Exited counts commitment
// withdrawn through the escape hatch.
type AccountParticipation struct {
	AuctionID     uint64      `json:"auction_id"`
	Account       string      `json:"account"`
	Commitment    sdkmath.Int `json:"commitment"`
	Redeemed      sdkmath.Int `json:"redeemed"`
	MaltPurchased sdkmath.Int `json:"malt_purchased"`
	Exited        sdkmath.Int `json:"exited"`
}

// NewAccountParticipation returns an empty participation.
func NewAccountParticipation(auctionID uint64, account string) AccountParticipation {
	return AccountParticipation{
		AuctionID:     auctionID,
		Account:       account,
		Commitment:    sdkmath.ZeroInt(),
		Redeemed:      sdkmath.ZeroInt(),
		MaltPurchased: sdkmath.ZeroInt(),
		Exited:        sdkmath.ZeroInt(),
	}
}
