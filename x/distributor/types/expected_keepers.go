package types

import (
	"context"

	sdkmath "cosmossdk.io/math"
	sdk "github.com/cosmos/cosmos-sdk/types"
)

type BankKeeper interface {
	GetBalance(ctx context.Context, addr sdk.AccAddress, denom string) sdk.Coin
	SendCoinsFromModuleToModule(ctx context.Context, senderModule, recipientModule string, amt sdk.Coins) error
	SendCoinsFromModuleToAccount(ctx context.Context, senderModule string, recipient sdk.AccAddress, amt sdk.Coins) error
}

// BondingKeeper reports the stake rewards are declared against.
type BondingKeeper interface {
	TotalBonded(ctx context.Context) (sdkmath.Int, error)
}

// ForfeitHandler receives rewards nobody is entitled to.
type ForfeitHandler interface {
	Address() sdk.AccAddress
	HandleForfeit(ctx context.Context, amount sdkmath.Int) error
}
