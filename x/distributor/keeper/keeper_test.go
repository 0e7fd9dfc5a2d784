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
	"github.com/maltprotocol/malt/x/distributor/keeper"
	"github.com/maltprotocol/malt/x/distributor/types"
)

const (
	rewardDenom = "ureserve"
	mineModule  = "mine"
)

var (
	throttler = sdk.AccAddress([]byte("throttler___________"))
	mine      = sdk.AccAddress([]byte("mine________________"))
)

type mockBonding struct {
	total sdkmath.Int
}

func (m *mockBonding) TotalBonded(context.Context) (sdkmath.Int, error) {
	return m.total, nil
}

type mockForfeitHandler struct {
	handled []sdkmath.Int
}

func (m *mockForfeitHandler) Address() sdk.AccAddress {
	return testutil.ModuleAddress("forfeit")
}

func (m *mockForfeitHandler) HandleForfeit(_ context.Context, amount sdkmath.Int) error {
	m.handled = append(m.handled, amount)
	return nil
}

type fixture struct {
	k       keeper.Keeper
	env     *testutil.Env
	bank    *testutil.Bank
	bonding *mockBonding
	forfeit *mockForfeitHandler
}

func setupKeeper(t *testing.T) *fixture {
	t.Helper()

	env := testutil.NewEnv(t, types.StoreKey)
	bank := testutil.NewBank()
	bonding := &mockBonding{total: sdkmath.NewInt(1000)}
	forfeit := &mockForfeitHandler{}
	k := keeper.NewKeeper(env.StoreService(types.StoreKey), testutil.Authority, bank, mineModule)
	k.SetBondingKeeper(bonding)
	k.SetForfeitHandler(forfeit)
	require.NoError(t, k.InitGenesis(env.Ctx, types.DefaultGenesis()))
	require.NoError(t, k.Roles.Grant(env.Ctx, testutil.Authority, types.RoleThrottler, throttler.String()))
	require.NoError(t, k.Roles.Grant(env.Ctx, testutil.Authority, types.RoleRewardMine, mine.String()))

	bank.FundModule(types.ModuleName, rewardDenom, sdkmath.NewInt(2000))
	return &fixture{k: k, env: env, bank: bank, bonding: bonding, forfeit: forfeit}
}

func (f *fixture) declare(t *testing.T, amount int64) {
	t.Helper()
	require.NoError(t, f.k.DeclareReward(f.env.Ctx, throttler.String(), sdkmath.NewInt(amount)))
}

func (f *fixture) vest(t *testing.T) sdkmath.Int {
	t.Helper()
	released, err := f.k.Vest(f.env.Ctx)
	require.NoError(t, err)
	return released
}

func requireInvariantHolds(t *testing.T, f *fixture) {
	t.Helper()
	msg, broken := keeper.VestingBoundsInvariant(f.k)(f.env.Ctx)
	require.False(t, broken, msg)
}

func TestDeclareRewardVestsLinearlyToFocalEnd(t *testing.T) {
	f := setupKeeper(t)
	f.declare(t, 1000)

	schedules, err := f.k.OpenSchedules(f.env.Ctx)
	require.NoError(t, err)
	require.Len(t, schedules, 1)
	require.Equal(t, testutil.GenesisTime.Unix()+types.DefaultFocalLength, schedules[0].WindowEnd)

	require.True(t, f.vest(t).IsZero())

	f.env.Advance(24 * time.Hour)
	require.Equal(t, sdkmath.NewInt(500), f.vest(t))
	require.True(t, f.vest(t).IsZero())
	require.Equal(t, sdkmath.NewInt(500), f.bank.ModuleBalance(mineModule, rewardDenom))

	f.env.Advance(48 * time.Hour)
	require.Equal(t, sdkmath.NewInt(500), f.vest(t))

	schedules, err = f.k.OpenSchedules(f.env.Ctx)
	require.NoError(t, err)
	require.Empty(t, schedules)
	released, err := f.k.TotalReleasedReward(f.env.Ctx)
	require.NoError(t, err)
	require.Equal(t, sdkmath.NewInt(1000), released)
	declared, err := f.k.TotalDeclaredReward(f.env.Ctx)
	require.NoError(t, err)
	require.Equal(t, sdkmath.NewInt(1000), declared)
	requireInvariantHolds(t, f)
}

func TestOverlappingSchedulesVestIndependently(t *testing.T) {
	f := setupKeeper(t)
	f.declare(t, 1000)

	f.env.Advance(24 * time.Hour)
	f.declare(t, 1000)
	require.Equal(t, sdkmath.NewInt(500), f.bank.ModuleBalance(mineModule, rewardDenom))

	schedules, err := f.k.OpenSchedules(f.env.Ctx)
	require.NoError(t, err)
	require.Len(t, schedules, 2)
	require.Equal(t, schedules[0].WindowEnd, schedules[1].WindowEnd)

	f.env.Advance(12 * time.Hour)
	require.Equal(t, sdkmath.NewInt(750), f.vest(t))

	f.env.Advance(12 * time.Hour)
	require.Equal(t, sdkmath.NewInt(750), f.vest(t))
	require.Equal(t, sdkmath.NewInt(2000), f.bank.ModuleBalance(mineModule, rewardDenom))

	id, err := f.k.FocalID(f.env.Ctx)
	require.NoError(t, err)
	require.Equal(t, uint64(1), id)
	requireInvariantHolds(t, f)
}

func TestDeclareRewardWithoutStakeGoesToForfeitHandler(t *testing.T) {
	f := setupKeeper(t)
	f.bonding.total = sdkmath.ZeroInt()

	f.declare(t, 300)
	require.Equal(t, sdkmath.NewInt(300), f.bank.Balance(f.forfeit.Address(), rewardDenom))
	require.Equal(t, []sdkmath.Int{sdkmath.NewInt(300)}, f.forfeit.handled)

	declared, err := f.k.TotalDeclaredReward(f.env.Ctx)
	require.NoError(t, err)
	require.True(t, declared.IsZero())
	schedules, err := f.k.OpenSchedules(f.env.Ctx)
	require.NoError(t, err)
	require.Empty(t, schedules)
}

func TestDeclareRewardPreconditions(t *testing.T) {
	f := setupKeeper(t)

	err := f.k.DeclareReward(f.env.Ctx, mine.String(), sdkmath.NewInt(10))
	require.ErrorIs(t, err, access.ErrUnauthorized)

	err = f.k.DeclareReward(f.env.Ctx, throttler.String(), sdkmath.ZeroInt())
	require.ErrorIs(t, err, types.ErrInvalidAmount)

	f.declare(t, 1500)
	err = f.k.DeclareReward(f.env.Ctx, throttler.String(), sdkmath.NewInt(501))
	require.ErrorIs(t, err, types.ErrInsufficientBalance)
	f.declare(t, 500)
}

func TestDecrementRewardsBoundedByDeclared(t *testing.T) {
	f := setupKeeper(t)
	f.declare(t, 1000)

	err := f.k.DecrementRewards(f.env.Ctx, throttler.String(), sdkmath.NewInt(1))
	require.ErrorIs(t, err, access.ErrUnauthorized)

	err = f.k.DecrementRewards(f.env.Ctx, mine.String(), sdkmath.NewInt(1001))
	require.ErrorIs(t, err, types.ErrExceedsDeclared)

	require.NoError(t, f.k.DecrementRewards(f.env.Ctx, mine.String(), sdkmath.NewInt(400)))
	declared, err := f.k.TotalDeclaredReward(f.env.Ctx)
	require.NoError(t, err)
	require.Equal(t, sdkmath.NewInt(600), declared)

	err = f.k.Forfeit(f.env.Ctx, mine.String(), sdkmath.NewInt(601))
	require.ErrorIs(t, err, types.ErrExceedsDeclared)
}

func TestForfeitTakesNewestSchedulesFirst(t *testing.T) {
	f := setupKeeper(t)
	f.declare(t, 1000)
	f.env.Advance(24 * time.Hour)
	f.declare(t, 1000)

	require.NoError(t, f.k.Forfeit(f.env.Ctx, mine.String(), sdkmath.NewInt(1200)))
	require.Equal(t, []sdkmath.Int{sdkmath.NewInt(1200)}, f.forfeit.handled)
	require.Equal(t, sdkmath.NewInt(1200), f.bank.Balance(f.forfeit.Address(), rewardDenom))

	schedules, err := f.k.OpenSchedules(f.env.Ctx)
	require.NoError(t, err)
	require.Len(t, schedules, 1)
	require.Equal(t, uint64(0), schedules[0].ID)
	require.Equal(t, sdkmath.NewInt(300), schedules[0].Unvested())
	require.Equal(t, f.env.Ctx.BlockTime().Unix(), schedules[0].WindowStart)

	declared, err := f.k.TotalDeclaredReward(f.env.Ctx)
	require.NoError(t, err)
	require.Equal(t, sdkmath.NewInt(800), declared)
	requireInvariantHolds(t, f)

	f.env.Advance(24 * time.Hour)
	require.Equal(t, sdkmath.NewInt(300), f.vest(t))
	requireInvariantHolds(t, f)
}

func TestForfeitKeepsRemainderVesting(t *testing.T) {
	f := setupKeeper(t)
	f.declare(t, 1000)
	f.env.Advance(24 * time.Hour)

	require.NoError(t, f.k.Forfeit(f.env.Ctx, mine.String(), sdkmath.NewInt(300)))
	require.Equal(t, sdkmath.NewInt(500), f.bank.ModuleBalance(mineModule, rewardDenom))
	require.Equal(t, sdkmath.NewInt(300), f.bank.Balance(f.forfeit.Address(), rewardDenom))

	// half of the remaining window releases half of what is left
	f.env.Advance(12 * time.Hour)
	require.Equal(t, sdkmath.NewInt(100), f.vest(t))
	requireInvariantHolds(t, f)

	f.env.Advance(12 * time.Hour)
	require.Equal(t, sdkmath.NewInt(100), f.vest(t))
	unvested, err := f.k.Unvested(f.env.Ctx)
	require.NoError(t, err)
	require.True(t, unvested.IsZero())
	requireInvariantHolds(t, f)
}

func TestDistributorGenesisRoundTrip(t *testing.T) {
	f := setupKeeper(t)
	f.declare(t, 1000)
	f.env.Advance(24 * time.Hour)
	f.vest(t)

	exported, err := f.k.ExportGenesis(f.env.Ctx)
	require.NoError(t, err)
	require.NoError(t, exported.Validate())
	require.Len(t, exported.Schedules, 1)
	require.Equal(t, uint64(1), exported.NextScheduleID)
	require.Equal(t, testutil.GenesisTime.Unix(), exported.FocalStart)

	other := setupKeeper(t)
	require.NoError(t, other.k.InitGenesis(other.env.Ctx, exported))
	unvested, err := other.k.Unvested(other.env.Ctx)
	require.NoError(t, err)
	require.Equal(t, sdkmath.NewInt(500), unvested)

	exported.Schedules[0].Vested = sdkmath.NewInt(2000)
	require.Error(t, exported.Validate())
}
