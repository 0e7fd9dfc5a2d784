package types

import (
	"context"

	sdkmath "cosmossdk.io/math"
	sdk "github.com/cosmos/cosmos-sdk/types"
)

// BankKeeper moves reserve between participants, the liquidity extension
// and the auction module account.
type BankKeeper interface {
	GetBalance(ctx context.Context, addr sdk.AccAddress, denom string) sdk.Coin
	SendCoins(ctx context.Context, from, to sdk.AccAddress, amt sdk.Coins) error
	SendCoinsFromAccountToModule(ctx context.Context, sender sdk.AccAddress, recipientModule string, amt sdk.Coins) error
	SendCoinsFromModuleToAccount(ctx context.Context, senderModule string, recipient sdk.AccAddress, amt sdk.Coins) error
}

// LiquidityExtension holds collateral and buys MALT off the market to burn.
type LiquidityExtension interface {
	// Address receives committed reserve before PurchaseAndBurn.
	Address() sdk.AccAddress
	// ReserveRatio returns collateral/supply with the given decimals.
	ReserveRatio(ctx context.Context) (ratio sdkmath.Int, decimals uint32, err error)
	// PurchaseAndBurn spends amount of reserve on MALT, burns it and returns
	// the MALT bought.
	PurchaseAndBurn(ctx context.Context, amount sdkmath.Int) (sdkmath.Int, error)
}

// ImpliedCollateralService sources deficit capital from other protocol
// pools before an auction opens.
type ImpliedCollateralService interface {
	HandleDeficit(ctx context.Context, amount sdkmath.Int) error
}

// AuctionBurnReserveSkew sizes the protocol's own purchase at finalization.
type AuctionBurnReserveSkew interface {
	GetRealBurnBudget(ctx context.Context, deficit, reserveRatio sdkmath.Int) (sdkmath.Int, error)
}

// CrisisKeeper reports whether auction flows are frozen.
type CrisisKeeper interface {
	IsAuctionsHalted(ctx context.Context) bool
}
