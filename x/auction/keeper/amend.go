package keeper

import (
	"context"
	"fmt"

	errorsmod "cosmossdk.io/errors"
	sdkmath "cosmossdk.io/math"
	sdk "github.com/cosmos/cosmos-sdk/types"

	"github.com/maltprotocol/malt/internal/fixedpoint"
	"github.com/maltprotocol/malt/internal/sdkctx"
	"github.com/maltprotocol/malt/x/auction/types"
)

// AmendAccountParticipation removes exitedCommitment from an account's
// position after an early exit and records newMaltPurchased as its
// remaining purchase. A full exit takes the commitment to zero, dropping the
// account from future replenishment.
//
// The auction's arbitrage tokens and claimable tokens shrink by the exited
// commitment's pro-rata share, so every other participant's balance is
// unchanged. The released claimable reserve is carried as excess for the
// next allocation.
func (k Keeper) AmendAccountParticipation(
	ctx context.Context,
	caller string,
	account sdk.AccAddress,
	id uint64,
	exitedCommitment sdkmath.Int,
	newMaltPurchased sdkmath.Int,
) error {
	if err := k.Roles.Require(ctx, caller, types.RoleAuctionAmender); err != nil {
		return err
	}
	if exitedCommitment.IsNil() || exitedCommitment.IsNegative() || newMaltPurchased.IsNil() || newMaltPurchased.IsNegative() {
		return errorsmod.Wrap(types.ErrInvalidAmount, "amendment amounts must be non-negative")
	}

	auction, err := k.GetAuction(ctx, id)
	if err != nil {
		return err
	}
	if auction.Active {
		return errorsmod.Wrapf(types.ErrAuctionActive, "cannot amend active auction %d", id)
	}
	participation, found, err := k.getParticipation(ctx, account, id)
	if err != nil {
		return err
	}
	if !found {
		return errorsmod.Wrapf(types.ErrParticipationNotFound, "account %s auction %d", account, id)
	}
	if exitedCommitment.GT(participation.Commitment) || newMaltPurchased.GT(participation.MaltPurchased) {
		return errorsmod.Wrapf(types.ErrAmendExceedsParticipation,
			"commitment %s (exiting %s), malt %s (new %s)",
			participation.Commitment, exitedCommitment, participation.MaltPurchased, newMaltPurchased)
	}

	tokensRemoved := sdkmath.ZeroInt()
	claimableRemoved := sdkmath.ZeroInt()
	if exitedCommitment.IsPositive() {
		if tokensRemoved, err = fixedpoint.MulDiv(exitedCommitment, auction.MaltPurchased, auction.Commitments); err != nil {
			return err
		}
		if claimableRemoved, err = fixedpoint.MulDiv(exitedCommitment, auction.ClaimableTokens, auction.Commitments); err != nil {
			return err
		}
	}

	previousClaimable := auction.ClaimableTokens
	auction.Commitments = auction.Commitments.Sub(exitedCommitment)
	auction.MaltPurchased = fixedpoint.SaturatingSub(auction.MaltPurchased, tokensRemoved)
	auction.ClaimableTokens = fixedpoint.Min(
		fixedpoint.SaturatingSub(auction.ClaimableTokens, claimableRemoved),
		auction.MaltPurchased,
	)
	released := previousClaimable.Sub(auction.ClaimableTokens)
	participation.Commitment = participation.Commitment.Sub(exitedCommitment)
	participation.MaltPurchased = newMaltPurchased
	participation.Exited = participation.Exited.Add(exitedCommitment)

	excess, err := k.getExcess(ctx)
	if err != nil {
		return err
	}
	if err := k.ExcessRewards.Set(ctx, excess.Add(released)); err != nil {
		return err
	}
	if err := k.setAuction(ctx, auction); err != nil {
		return err
	}
	if err := k.setParticipation(ctx, account, participation); err != nil {
		return err
	}

	sdkctx.EmitEvent(ctx, sdk.NewEvent(
		types.EventTypeParticipationEdit,
		sdk.NewAttribute("auction_id", fmt.Sprintf("%d", id)),
		sdk.NewAttribute("account", account.String()),
		sdk.NewAttribute("exited_commitment", exitedCommitment.String()),
		sdk.NewAttribute("malt_purchased", newMaltPurchased.String()),
	))
	return nil
}
