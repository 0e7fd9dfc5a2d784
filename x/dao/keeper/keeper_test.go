package keeper_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/maltprotocol/malt/testutil"
	"github.com/maltprotocol/malt/x/dao/keeper"
	"github.com/maltprotocol/malt/x/dao/types"
)

func setupKeeper(t *testing.T) (keeper.Keeper, *testutil.Env) {
	t.Helper()

	env := testutil.NewEnv(t, types.StoreKey)
	k := keeper.NewKeeper(env.StoreService(types.StoreKey), testutil.Authority)
	require.NoError(t, k.InitGenesis(env.Ctx, types.DefaultGenesis()))
	return k, env
}

func TestDAOAdvancesOnlyAfterFullEpoch(t *testing.T) {
	k, env := setupKeeper(t)

	advanced, err := k.Advance(env.Ctx)
	require.NoError(t, err)
	require.False(t, advanced)

	env.Advance(29 * time.Minute)
	advanced, err = k.Advance(env.Ctx)
	require.NoError(t, err)
	require.False(t, advanced)

	env.Advance(time.Minute)
	advanced, err = k.Advance(env.Ctx)
	require.NoError(t, err)
	require.True(t, advanced)

	epoch, err := k.Epoch(env.Ctx)
	require.NoError(t, err)
	require.Equal(t, uint64(1), epoch)

	start, err := k.EpochStartTime(env.Ctx)
	require.NoError(t, err)
	require.Equal(t, testutil.GenesisTime.Add(30*time.Minute).Unix(), start)
}

func TestDAOAdvanceCatchesUpOneEpochPerCall(t *testing.T) {
	k, env := setupKeeper(t)
	env.Advance(3 * time.Hour)

	for i := 0; i < 6; i++ {
		advanced, err := k.Advance(env.Ctx)
		require.NoError(t, err)
		require.True(t, advanced)
	}
	advanced, err := k.Advance(env.Ctx)
	require.NoError(t, err)
	require.False(t, advanced)

	epoch, err := k.Epoch(env.Ctx)
	require.NoError(t, err)
	require.Equal(t, uint64(6), epoch)
}

func TestDAOEpochsPerYear(t *testing.T) {
	k, env := setupKeeper(t)

	perYear, err := k.EpochsPerYear(env.Ctx)
	require.NoError(t, err)
	require.Equal(t, uint64(17520), perYear)

	require.Error(t, k.UpdateParams(env.Ctx, "malt1someone", types.Params{EpochLength: 3600}))
	require.Error(t, k.UpdateParams(env.Ctx, testutil.Authority, types.Params{}))
	require.NoError(t, k.UpdateParams(env.Ctx, testutil.Authority, types.Params{EpochLength: 3600}))

	perYear, err = k.EpochsPerYear(env.Ctx)
	require.NoError(t, err)
	require.Equal(t, uint64(8760), perYear)
}

func TestDAOGenesisRoundTrip(t *testing.T) {
	k, env := setupKeeper(t)
	env.Advance(time.Hour)
	_, err := k.Advance(env.Ctx)
	require.NoError(t, err)

	exported, err := k.ExportGenesis(env.Ctx)
	require.NoError(t, err)
	require.Equal(t, uint64(1), exported.State.Epoch)

	other, otherEnv := setupKeeper(t)
	require.NoError(t, other.InitGenesis(otherEnv.Ctx, exported))
	epoch, err := other.Epoch(otherEnv.Ctx)
	require.NoError(t, err)
	require.Equal(t, uint64(1), epoch)
}
