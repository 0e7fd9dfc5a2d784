package keeper_test

import (
	"context"
	"testing"
	"time"

	sdkmath "cosmossdk.io/math"
	sdk "github.com/cosmos/cosmos-sdk/types"
	"github.com/stretchr/testify/require"

	"github.com/maltprotocol/malt/internal/access"
	"github.com/maltprotocol/malt/testutil"
	distributorkeeper "github.com/maltprotocol/malt/x/distributor/keeper"
	distributortypes "github.com/maltprotocol/malt/x/distributor/types"
	"github.com/maltprotocol/malt/x/mine/keeper"
	"github.com/maltprotocol/malt/x/mine/types"
)

const rewardDenom = "ureserve"

var (
	bondingAcct = sdk.AccAddress([]byte("bonding_____________"))
	reinvestor  = sdk.AccAddress([]byte("reinvestor__________"))
	throttler   = sdk.AccAddress([]byte("throttler___________"))
	stakerA     = sdk.AccAddress([]byte("staker_a____________"))
	stakerB     = sdk.AccAddress([]byte("staker_b____________"))
)

type mockBonding struct {
	balances map[string]sdkmath.Int
}

func (m *mockBonding) TotalBonded(context.Context) (sdkmath.Int, error) {
	total := sdkmath.ZeroInt()
	for _, b := range m.balances {
		total = total.Add(b)
	}
	return total, nil
}

func (m *mockBonding) BalanceOfBonded(_ context.Context, account sdk.AccAddress) (sdkmath.Int, error) {
	if b, ok := m.balances[account.String()]; ok {
		return b, nil
	}
	return sdkmath.ZeroInt(), nil
}

type mockForfeitHandler struct{}

func (mockForfeitHandler) Address() sdk.AccAddress {
	return testutil.ModuleAddress("forfeit")
}

func (mockForfeitHandler) HandleForfeit(context.Context, sdkmath.Int) error { return nil }

type fixture struct {
	k           keeper.Keeper
	service     *keeper.MiningService
	distributor distributorkeeper.Keeper
	env         *testutil.Env
	bank        *testutil.Bank
	bonding     *mockBonding
}

func setupKeeper(t *testing.T) *fixture {
	t.Helper()

	env := testutil.NewEnv(t, types.StoreKey, distributortypes.StoreKey)
	bank := testutil.NewBank()
	bonding := &mockBonding{balances: make(map[string]sdkmath.Int)}

	dk := distributorkeeper.NewKeeper(env.StoreService(distributortypes.StoreKey), testutil.Authority, bank, types.ModuleName)
	dk.SetBondingKeeper(bonding)
	dk.SetForfeitHandler(mockForfeitHandler{})
	require.NoError(t, dk.InitGenesis(env.Ctx, distributortypes.DefaultGenesis()))

	k := keeper.NewKeeper(env.StoreService(types.StoreKey), testutil.Authority, bank, dk)
	k.SetBondingKeeper(bonding)
	require.NoError(t, k.InitGenesis(env.Ctx, types.DefaultGenesis()))
	service := keeper.NewMiningService(k.Roles, k)

	require.NoError(t, dk.Roles.Grant(env.Ctx, testutil.Authority, distributortypes.RoleThrottler, throttler.String()))
	require.NoError(t, dk.Roles.Grant(env.Ctx, testutil.Authority, distributortypes.RoleRewardMine, k.ModuleAddress().String()))
	require.NoError(t, k.Roles.Grant(env.Ctx, testutil.Authority, types.RoleMiningService, service.Address().String()))
	require.NoError(t, k.Roles.Grant(env.Ctx, testutil.Authority, types.RoleBonding, bondingAcct.String()))
	require.NoError(t, k.Roles.Grant(env.Ctx, testutil.Authority, types.RoleReinvestor, reinvestor.String()))

	bank.FundModule(distributortypes.ModuleName, rewardDenom, sdkmath.NewInt(10_000))
	return &fixture{k: k, service: service, distributor: dk, env: env, bank: bank, bonding: bonding}
}

func (f *fixture) bond(t *testing.T, account sdk.AccAddress, amount int64) {
	t.Helper()
	amt := sdkmath.NewInt(amount)
	require.NoError(t, f.service.OnBond(f.env.Ctx, bondingAcct.String(), account, amt))
	current, _ := f.bonding.BalanceOfBonded(f.env.Ctx, account)
	f.bonding.balances[account.String()] = current.Add(amt)
}

func (f *fixture) unbond(t *testing.T, account sdk.AccAddress, amount int64) {
	t.Helper()
	amt := sdkmath.NewInt(amount)
	require.NoError(t, f.service.OnUnbond(f.env.Ctx, bondingAcct.String(), account, amt))
	current, _ := f.bonding.BalanceOfBonded(f.env.Ctx, account)
	f.bonding.balances[account.String()] = current.Sub(amt)
}

func (f *fixture) declare(t *testing.T, amount int64) {
	t.Helper()
	require.NoError(t, f.distributor.DeclareReward(f.env.Ctx, throttler.String(), sdkmath.NewInt(amount)))
}

func (f *fixture) requireRewards(t *testing.T, account sdk.AccAddress, want int64) {
	t.Helper()
	got, err := f.k.BalanceOfRewards(f.env.Ctx, account)
	require.NoError(t, err)
	require.Equal(t, sdkmath.NewInt(want), got, "rewards of %s", account)
}

func requireInvariantsHold(t *testing.T, f *fixture) {
	t.Helper()
	msg, broken := keeper.AllInvariants(f.k)(f.env.Ctx)
	require.False(t, broken, msg)
}

func TestLateBonderEarnsNothingFromEarlierRewards(t *testing.T) {
	f := setupKeeper(t)

	f.bond(t, stakerA, 1000)
	f.requireRewards(t, stakerA, 0)
	padding, err := f.k.BalanceOfStakePadding(f.env.Ctx, stakerA)
	require.NoError(t, err)
	require.Equal(t, sdkmath.NewInt(1_000_000_000), padding)

	f.declare(t, 2347)
	f.requireRewards(t, stakerA, 2347)

	f.bond(t, stakerB, 1000)
	f.requireRewards(t, stakerA, 2347)
	f.requireRewards(t, stakerB, 0)
	requireInvariantsHold(t, f)

	f.declare(t, 1000)
	f.requireRewards(t, stakerA, 2847)
	f.requireRewards(t, stakerB, 500)

	total, err := f.service.BalanceOfRewards(f.env.Ctx, stakerA)
	require.NoError(t, err)
	require.Equal(t, sdkmath.NewInt(2847), total)
	requireInvariantsHold(t, f)
}

func TestEarnedIsCappedByVestedReward(t *testing.T) {
	f := setupKeeper(t)
	f.bond(t, stakerA, 1000)
	f.declare(t, 2000)

	earned, err := f.k.Earned(f.env.Ctx, stakerA)
	require.NoError(t, err)
	require.True(t, earned.IsZero())

	f.env.Advance(24 * time.Hour)
	_, err = f.distributor.Vest(f.env.Ctx)
	require.NoError(t, err)

	earned, err = f.k.Earned(f.env.Ctx, stakerA)
	require.NoError(t, err)
	require.Equal(t, sdkmath.NewInt(1000), earned)

	paid, err := f.k.Withdraw(f.env.Ctx, stakerA, sdkmath.NewInt(5000))
	require.NoError(t, err)
	require.Equal(t, sdkmath.NewInt(1000), paid)
	paid, err = f.k.WithdrawAll(f.env.Ctx, stakerA)
	require.NoError(t, err)
	require.True(t, paid.IsZero())

	f.env.Advance(24 * time.Hour)
	_, err = f.distributor.Vest(f.env.Ctx)
	require.NoError(t, err)
	paid, err = f.k.WithdrawAll(f.env.Ctx, stakerA)
	require.NoError(t, err)
	require.Equal(t, sdkmath.NewInt(1000), paid)
	require.Equal(t, sdkmath.NewInt(2000), f.bank.Balance(stakerA, rewardDenom))
	f.requireRewards(t, stakerA, 2000)
	requireInvariantsHold(t, f)
}

func TestFullUnbondPaysEarnedAndForfeitsTheRest(t *testing.T) {
	f := setupKeeper(t)
	f.bond(t, stakerA, 1000)
	f.declare(t, 2347)
	f.bond(t, stakerB, 1000)

	f.env.Advance(24 * time.Hour)
	released, err := f.distributor.Vest(f.env.Ctx)
	require.NoError(t, err)
	require.Equal(t, sdkmath.NewInt(1173), released)

	f.unbond(t, stakerA, 1000)
	require.Equal(t, sdkmath.NewInt(1173), f.bank.Balance(stakerA, rewardDenom))
	require.Equal(t, sdkmath.NewInt(1174), f.bank.Balance(mockForfeitHandler{}.Address(), rewardDenom))

	declared, err := f.distributor.TotalDeclaredReward(f.env.Ctx)
	require.NoError(t, err)
	require.True(t, declared.IsZero())
	padding, err := f.k.BalanceOfStakePadding(f.env.Ctx, stakerA)
	require.NoError(t, err)
	require.True(t, padding.IsZero())
	withdrawn, err := f.k.WithdrawnBy(f.env.Ctx, stakerA)
	require.NoError(t, err)
	require.True(t, withdrawn.IsZero())

	f.requireRewards(t, stakerA, 0)
	f.requireRewards(t, stakerB, 0)
	requireInvariantsHold(t, f)
}

func TestPartialUnbondKeepsRemainingShare(t *testing.T) {
	f := setupKeeper(t)
	f.bond(t, stakerA, 1000)
	f.declare(t, 1000)

	f.unbond(t, stakerA, 500)
	f.requireRewards(t, stakerA, 500)
	declared, err := f.distributor.TotalDeclaredReward(f.env.Ctx)
	require.NoError(t, err)
	require.Equal(t, sdkmath.NewInt(500), declared)

	f.bond(t, stakerB, 1000)
	f.requireRewards(t, stakerA, 500)
	f.requireRewards(t, stakerB, 0)
	requireInvariantsHold(t, f)
}

func TestUnbondBeyondStakeFails(t *testing.T) {
	f := setupKeeper(t)
	f.bond(t, stakerA, 100)
	err := f.service.OnUnbond(f.env.Ctx, bondingAcct.String(), stakerA, sdkmath.NewInt(101))
	require.ErrorIs(t, err, types.ErrUnbondExceedsBond)
}

func TestMiningServiceRoles(t *testing.T) {
	f := setupKeeper(t)

	err := f.service.OnBond(f.env.Ctx, stakerA.String(), stakerA, sdkmath.NewInt(10))
	require.ErrorIs(t, err, access.ErrUnauthorized)
	err = f.k.OnBond(f.env.Ctx, bondingAcct.String(), stakerA, sdkmath.NewInt(10))
	require.ErrorIs(t, err, access.ErrUnauthorized)

	f.bond(t, stakerA, 1000)
	f.declare(t, 400)
	f.env.Advance(48 * time.Hour)
	_, err = f.distributor.Vest(f.env.Ctx)
	require.NoError(t, err)

	_, err = f.service.WithdrawRewardsForAccount(f.env.Ctx, stakerA.String(), stakerA, sdkmath.NewInt(100), reinvestor)
	require.ErrorIs(t, err, access.ErrUnauthorized)

	paid, err := f.service.WithdrawRewardsForAccount(f.env.Ctx, reinvestor.String(), stakerA, sdkmath.NewInt(100), reinvestor)
	require.NoError(t, err)
	require.Equal(t, sdkmath.NewInt(100), paid)
	require.Equal(t, sdkmath.NewInt(100), f.bank.Balance(reinvestor, rewardDenom))

	earned, err := f.service.Earned(f.env.Ctx, stakerA)
	require.NoError(t, err)
	require.Equal(t, sdkmath.NewInt(300), earned)
}

func TestMineGenesisRoundTrip(t *testing.T) {
	f := setupKeeper(t)
	f.bond(t, stakerA, 1000)
	f.declare(t, 1000)
	f.env.Advance(48 * time.Hour)
	_, err := f.distributor.Vest(f.env.Ctx)
	require.NoError(t, err)
	_, err = f.k.Withdraw(f.env.Ctx, stakerA, sdkmath.NewInt(250))
	require.NoError(t, err)

	exported, err := f.k.ExportGenesis(f.env.Ctx)
	require.NoError(t, err)
	require.NoError(t, exported.Validate())
	require.Len(t, exported.Accounts, 1)
	require.Equal(t, sdkmath.NewInt(250), exported.Accounts[0].Withdrawn)
	require.Equal(t, sdkmath.NewInt(250), exported.GlobalWithdrawn)

	exported.TotalStakePadding = sdkmath.NewInt(1)
	require.Error(t, exported.Validate())
}
