package keeper

import (
	"context"

	errorsmod "cosmossdk.io/errors"
	sdkmath "cosmossdk.io/math"
	sdk "github.com/cosmos/cosmos-sdk/types"
	authtypes "github.com/cosmos/cosmos-sdk/x/auth/types"

	"github.com/maltprotocol/malt/internal/access"
	"github.com/maltprotocol/malt/internal/fixedpoint"
	"github.com/maltprotocol/malt/x/mine/types"
)

// MiningService fans bond changes out to every registered reward mine and
// aggregates their views. Mines see it as the mining service account.
type MiningService struct {
	roles access.Roles
	mines []types.RewardMine
}

// NewMiningService creates a service gated by roles.
func NewMiningService(roles access.Roles, mines ...types.RewardMine) *MiningService {
	return &MiningService{roles: roles, mines: mines}
}

// Address is the account the service calls mines as.
func (s *MiningService) Address() sdk.AccAddress {
	return authtypes.NewModuleAddress(types.MiningServiceName)
}

// AddMine registers a reward mine.
func (s *MiningService) AddMine(m types.RewardMine) {
	s.mines = append(s.mines, m)
}

// Mines returns the registered mines.
func (s *MiningService) Mines() []types.RewardMine {
	return s.mines
}

// OnBond notifies every mine of a bond before it is recorded.
func (s *MiningService) OnBond(ctx context.Context, caller string, account sdk.AccAddress, amount sdkmath.Int) error {
	if err := s.roles.Require(ctx, caller, types.RoleBonding); err != nil {
		return err
	}
	self := s.Address().String()
	for i, m := range s.mines {
		if err := m.OnBond(ctx, self, account, amount); err != nil {
			return errorsmod.Wrapf(err, "mine %d", i)
		}
	}
	return nil
}

// OnUnbond notifies every mine of an unbond before it is recorded.
func (s *MiningService) OnUnbond(ctx context.Context, caller string, account sdk.AccAddress, amount sdkmath.Int) error {
	if err := s.roles.Require(ctx, caller, types.RoleBonding); err != nil {
		return err
	}
	self := s.Address().String()
	for i, m := range s.mines {
		if err := m.OnUnbond(ctx, self, account, amount); err != nil {
			return errorsmod.Wrapf(err, "mine %d", i)
		}
	}
	return nil
}

// BalanceOfRewards sums the account's reward balance over all mines.
func (s *MiningService) BalanceOfRewards(ctx context.Context, account sdk.AccAddress) (sdkmath.Int, error) {
	return s.sum(ctx, account, types.RewardMine.BalanceOfRewards)
}

// Earned sums the account's withdrawable reward over all mines.
func (s *MiningService) Earned(ctx context.Context, account sdk.AccAddress) (sdkmath.Int, error) {
	return s.sum(ctx, account, types.RewardMine.Earned)
}

func (s *MiningService) sum(
	ctx context.Context,
	account sdk.AccAddress,
	view func(types.RewardMine, context.Context, sdk.AccAddress) (sdkmath.Int, error),
) (sdkmath.Int, error) {
	total := sdkmath.ZeroInt()
	for _, m := range s.mines {
		v, err := view(m, ctx, account)
		if err != nil {
			return sdkmath.ZeroInt(), err
		}
		total = total.Add(v)
	}
	return total, nil
}

// WithdrawRewardsForAccount withdraws up to amount of the account's
// earned reward across mines in registration order, paying to.
func (s *MiningService) WithdrawRewardsForAccount(
	ctx context.Context,
	caller string,
	account sdk.AccAddress,
	amount sdkmath.Int,
	to sdk.AccAddress,
) (sdkmath.Int, error) {
	if err := s.roles.Require(ctx, caller, types.RoleReinvestor); err != nil {
		return sdkmath.ZeroInt(), err
	}
	self := s.Address().String()
	remaining := amount
	paid := sdkmath.ZeroInt()
	for _, m := range s.mines {
		if !remaining.IsPositive() {
			break
		}
		earned, err := m.Earned(ctx, account)
		if err != nil {
			return paid, err
		}
		out, err := m.WithdrawForAccount(ctx, self, account, fixedpoint.Min(remaining, earned), to)
		if err != nil {
			return paid, err
		}
		paid = paid.Add(out)
		remaining = remaining.Sub(out)
	}
	return paid, nil
}
