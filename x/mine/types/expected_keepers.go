package types

import (
	"context"

	sdkmath "cosmossdk.io/math"
	sdk "github.com/cosmos/cosmos-sdk/types"
)

type BankKeeper interface {
	GetBalance(ctx context.Context, addr sdk.AccAddress, denom string) sdk.Coin
	SendCoinsFromModuleToAccount(ctx context.Context, senderModule string, recipient sdk.AccAddress, amt sdk.Coins) error
}

// BondingKeeper owns real stake. The mine reads it before the stake
// changes.
type BondingKeeper interface {
	TotalBonded(ctx context.Context) (sdkmath.Int, error)
	BalanceOfBonded(ctx context.Context, account sdk.AccAddress) (sdkmath.Int, error)
}

// DistributorKeeper declares and vests the rewards the mine accounts for.
type DistributorKeeper interface {
	TotalDeclaredReward(ctx context.Context) (sdkmath.Int, error)
	TotalReleasedReward(ctx context.Context) (sdkmath.Int, error)
	DecrementRewards(ctx context.Context, caller string, amount sdkmath.Int) error
	Forfeit(ctx context.Context, caller string, amount sdkmath.Int) error
}

// RewardMine is a mine the mining service fans bond changes out to.
type RewardMine interface {
	OnBond(ctx context.Context, caller string, account sdk.AccAddress, amount sdkmath.Int) error
	OnUnbond(ctx context.Context, caller string, account sdk.AccAddress, amount sdkmath.Int) error
	BalanceOfRewards(ctx context.Context, account sdk.AccAddress) (sdkmath.Int, error)
	Earned(ctx context.Context, account sdk.AccAddress) (sdkmath.Int, error)
	WithdrawForAccount(ctx context.Context, caller string, account sdk.AccAddress, amount sdkmath.Int, to sdk.AccAddress) (sdkmath.Int, error)
}
