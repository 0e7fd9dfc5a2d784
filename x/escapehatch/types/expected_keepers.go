package types

import (
	"context"

	sdkmath "cosmossdk.io/math"
	sdk "github.com/cosmos/cosmos-sdk/types"

	auctiontypes "github.com/maltprotocol/malt/x/auction/types"
)

type BankKeeper interface {
	MintCoins(ctx context.Context, moduleName string, amt sdk.Coins) error
	SendCoinsFromModuleToAccount(ctx context.Context, senderModule string, recipient sdk.AccAddress, amt sdk.Coins) error
	SendCoinsFromModuleToModule(ctx context.Context, senderModule, recipientModule string, amt sdk.Coins) error
}

// AuctionKeeper exposes the positions being exited.
type AuctionKeeper interface {
	GetAuction(ctx context.Context, id uint64) (auctiontypes.Auction, error)
	GetAccountParticipation(ctx context.Context, account sdk.AccAddress, id uint64) (auctiontypes.AccountParticipation, error)
	AmendAccountParticipation(ctx context.Context, caller string, account sdk.AccAddress, id uint64, exitedCommitment, newMaltPurchased sdkmath.Int) error
}

// DexHandler prices and sells MALT.
type DexHandler interface {
	// MaltMarketPrice returns the MALT price in reserve with the given
	// decimals.
	MaltMarketPrice(ctx context.Context) (price sdkmath.Int, decimals uint32, err error)
	// SellMalt sells amount of MALT held by seller and credits seller
	// with the reserve received, which it returns.
	SellMalt(ctx context.Context, seller sdk.AccAddress, amount sdkmath.Int) (sdkmath.Int, error)
}

// CrisisKeeper reports whether early exits are frozen.
type CrisisKeeper interface {
	IsEarlyExitsHalted(ctx context.Context) bool
}
