package keeper

import (
	"fmt"

	"cosmossdk.io/collections"
	sdkmath "cosmossdk.io/math"
	sdk "github.com/cosmos/cosmos-sdk/types"

	"github.com/maltprotocol/malt/x/auction/types"
)

// RegisterInvariants registers all module invariants with the invariant registry.
func RegisterInvariants(ir sdk.InvariantRegistry, k Keeper) {
	ir.RegisterRoute(types.ModuleName, "commitments-conservation", CommitmentsConservationInvariant(k))
	ir.RegisterRoute(types.ModuleName, "replenish-bounds", ReplenishBoundsInvariant(k))
	ir.RegisterRoute(types.ModuleName, "reserve-backing", ReserveBackingInvariant(k))
}

// AllInvariants runs all invariants of the auction module.
func AllInvariants(k Keeper) sdk.Invariant {
	return func(ctx sdk.Context) (string, bool) {
		for _, inv := range []sdk.Invariant{
			CommitmentsConservationInvariant(k),
			ReplenishBoundsInvariant(k),
			ReserveBackingInvariant(k),
		} {
			if msg, broken := inv(ctx); broken {
				return msg, broken
			}
		}
		return "", false
	}
}

type participationTotals struct {
	commitment sdkmath.Int
	redeemed   sdkmath.Int
}

func sumParticipations(ctx sdk.Context, k Keeper) (map[uint64]participationTotals, error) {
	totals := make(map[uint64]participationTotals)
	err := k.Participations.Walk(ctx, nil, func(key collections.Pair[sdk.AccAddress, uint64], p types.AccountParticipation) (bool, error) {
		t, ok := totals[key.K2()]
		if !ok {
			t = participationTotals{commitment: sdkmath.ZeroInt(), redeemed: sdkmath.ZeroInt()}
		}
		t.commitment = t.commitment.Add(p.Commitment)
		t.redeemed = t.redeemed.Add(p.Redeemed)
		totals[key.K2()] = t
		return false, nil
	})
	return totals, err
}

// CommitmentsConservationInvariant checks that participations sum to each
// auction's commitments and that no auction exceeds its maximum.
func CommitmentsConservationInvariant(k Keeper) sdk.Invariant {
	return func(ctx sdk.Context) (string, bool) {
		totals, err := sumParticipations(ctx, k)
		if err != nil {
			return sdk.FormatInvariant(types.ModuleName, "commitments-conservation", err.Error()), true
		}

		var msg string
		broken := false
		_ = k.Auctions.Walk(ctx, nil, func(id uint64, a types.Auction) (bool, error) {
			sum := sdkmath.ZeroInt()
			if t, ok := totals[id]; ok {
				sum = t.commitment
			}
			if !sum.Equal(a.Commitments) {
				msg += fmt.Sprintf("INVARIANT BROKEN: auction %d commitments %s != participations %s\n", id, a.Commitments, sum)
				broken = true
			}
			if a.Commitments.GT(a.MaxCommitments) {
				msg += fmt.Sprintf("INVARIANT BROKEN: auction %d commitments %s exceed max %s\n", id, a.Commitments, a.MaxCommitments)
				broken = true
			}
			return false, nil
		})

		return sdk.FormatInvariant(types.ModuleName, "commitments-conservation", msg), broken
	}
}

// ReplenishBoundsInvariant checks redeemed <= claimable <= arbitrage tokens
// and that the cursor never passes the auction sequence.
func ReplenishBoundsInvariant(k Keeper) sdk.Invariant {
	return func(ctx sdk.Context) (string, bool) {
		totals, err := sumParticipations(ctx, k)
		if err != nil {
			return sdk.FormatInvariant(types.ModuleName, "replenish-bounds", err.Error()), true
		}

		var msg string
		broken := false
		_ = k.Auctions.Walk(ctx, nil, func(id uint64, a types.Auction) (bool, error) {
			if a.ClaimableTokens.GT(a.MaltPurchased) {
				msg += fmt.Sprintf("INVARIANT BROKEN: auction %d claimable %s exceeds arb tokens %s\n", id, a.ClaimableTokens, a.MaltPurchased)
				broken = true
			}
			if t, ok := totals[id]; ok && t.redeemed.GT(a.ClaimableTokens) {
				msg += fmt.Sprintf("INVARIANT BROKEN: auction %d redeemed %s exceeds claimable %s\n", id, t.redeemed, a.ClaimableTokens)
				broken = true
			}
			return false, nil
		})

		cursor, _ := k.getUint64(ctx, k.ReplenishingAuctionID)
		next, _ := k.AuctionSeq.Peek(ctx)
		if cursor > next {
			msg += fmt.Sprintf("INVARIANT BROKEN: replenishing cursor %d beyond next auction %d\n", cursor, next)
			broken = true
		}

		return sdk.FormatInvariant(types.ModuleName, "replenish-bounds", msg), broken
	}
}

// ReserveBackingInvariant checks the module account holds every claimable
// but unredeemed token plus carried excess.
func ReserveBackingInvariant(k Keeper) sdk.Invariant {
	return func(ctx sdk.Context) (string, bool) {
		totals, err := sumParticipations(ctx, k)
		if err != nil {
			return sdk.FormatInvariant(types.ModuleName, "reserve-backing", err.Error()), true
		}
		params, err := k.GetParams(ctx)
		if err != nil {
			return sdk.FormatInvariant(types.ModuleName, "reserve-backing", err.Error()), true
		}

		owed, _ := k.getExcess(ctx)
		_ = k.Auctions.Walk(ctx, nil, func(id uint64, a types.Auction) (bool, error) {
			owed = owed.Add(a.ClaimableTokens)
			if t, ok := totals[id]; ok {
				owed = owed.Sub(t.redeemed)
			}
			return false, nil
		})

		balance := k.bankKeeper.GetBalance(ctx, k.ModuleAddress(), params.ReserveDenom).Amount
		if balance.LT(owed) {
			msg := fmt.Sprintf("INVARIANT BROKEN: module holds %s but owes %s\n", balance, owed)
			return sdk.FormatInvariant(types.ModuleName, "reserve-backing", msg), true
		}
		return sdk.FormatInvariant(types.ModuleName, "reserve-backing", ""), false
	}
}
