package types

import (
	"context"

	sdkmath "cosmossdk.io/math"
	sdk "github.com/cosmos/cosmos-sdk/types"
)

type BankKeeper interface {
	GetBalance(ctx context.Context, addr sdk.AccAddress, denom string) sdk.Coin
	SendCoinsFromModuleToModule(ctx context.Context, senderModule, recipientModule string, amt sdk.Coins) error
}

// DAOKeeper is the epoch clock.
type DAOKeeper interface {
	Epoch(ctx context.Context) (uint64, error)
	EpochsPerYear(ctx context.Context) (uint64, error)
}

// BondingKeeper reports the value bonded during an epoch.
type BondingKeeper interface {
	AverageBondedValue(ctx context.Context, epoch uint64) (sdkmath.Int, error)
}

// DistributorKeeper vests declared rewards to stakers. The throttle moves
// the reward into the distributor module before declaring it.
type DistributorKeeper interface {
	DeclareReward(ctx context.Context, caller string, amount sdkmath.Int) error
}

// OverflowKeeper buffers excess rewards and backfills shortfalls.
type OverflowKeeper interface {
	RequestCapital(ctx context.Context, caller string, amount sdkmath.Int) (sdkmath.Int, error)
}

// CrisisKeeper reports whether reward routing is frozen.
type CrisisKeeper interface {
	IsRewardsHalted(ctx context.Context) bool
}
