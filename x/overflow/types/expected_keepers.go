package types

import (
	"context"

	sdkmath "cosmossdk.io/math"
	sdk "github.com/cosmos/cosmos-sdk/types"

	auctiontypes "github.com/maltprotocol/malt/x/auction/types"
)

// BankKeeper reads the pool balance and releases capital.
type BankKeeper interface {
	GetBalance(ctx context.Context, addr sdk.AccAddress, denom string) sdk.Coin
	SendCoinsFromModuleToAccount(ctx context.Context, senderModule string, recipient sdk.AccAddress, amt sdk.Coins) error
}

// AuctionKeeper is the auction surface the pool participates through.
type AuctionKeeper interface {
	GetActiveAuctionID(ctx context.Context) (uint64, bool, error)
	PurchaseArbitrageTokens(ctx context.Context, buyer sdk.AccAddress, amount sdkmath.Int) (sdkmath.Int, error)
	ClaimArbitrage(ctx context.Context, account sdk.AccAddress, id uint64) (sdkmath.Int, error)
	BalanceOfArbTokens(ctx context.Context, id uint64, account sdk.AccAddress) (sdkmath.Int, error)
	GetAccountParticipation(ctx context.Context, account sdk.AccAddress, id uint64) (auctiontypes.AccountParticipation, error)
}
