// Package testutil builds keeper test fixtures: a multistore-backed
// sdk.Context and an in-memory bank keeper.
package testutil

import (
	"testing"
	"time"

	"cosmossdk.io/core/store"
	"cosmossdk.io/log"
	storemetrics "cosmossdk.io/store/metrics"
	"cosmossdk.io/store/rootmulti"
	storetypes "cosmossdk.io/store/types"
	tmproto "github.com/cometbft/cometbft/proto/tendermint/types"
	dbm "github.com/cosmos/cosmos-db"
	"github.com/cosmos/cosmos-sdk/runtime"
	sdk "github.com/cosmos/cosmos-sdk/types"
	"github.com/stretchr/testify/require"
)

// GenesisTime is the block time every test context starts at.
var GenesisTime = time.Unix(1_770_000_000, 0).UTC()

// Authority is the governance address used by keeper tests.
const Authority = "malt1gov"

// Env is a test chain: one context over a multistore with a KV store per
// module name.
type Env struct {
	Ctx      sdk.Context
	services map[string]store.KVStoreService
}

// NewEnv mounts one IAVL store per name on a MemDB.
func NewEnv(t *testing.T, storeNames ...string) *Env {
	t.Helper()

	db := dbm.NewMemDB()
	cms := rootmulti.NewStore(db, log.NewNopLogger(), storemetrics.NoOpMetrics{})
	services := make(map[string]store.KVStoreService, len(storeNames))
	for _, name := range storeNames {
		key := storetypes.NewKVStoreKey(name)
		cms.MountStoreWithDB(key, storetypes.StoreTypeIAVL, nil)
		services[name] = runtime.NewKVStoreService(key)
	}
	require.NoError(t, cms.LoadLatestVersion())

	header := tmproto.Header{
		ChainID: "malt-test-1",
		Height:  1,
		Time:    GenesisTime,
	}
	return &Env{
		Ctx:      sdk.NewContext(cms, header, false, log.NewNopLogger()),
		services: services,
	}
}

// StoreService returns the KV store service mounted under name.
func (e *Env) StoreService(name string) store.KVStoreService {
	svc, ok := e.services[name]
	if !ok {
		panic("store not mounted: " + name)
	}
	return svc
}

// Advance moves block time forward by d and bumps the height.
func (e *Env) Advance(d time.Duration) {
	e.Ctx = e.Ctx.WithBlockTime(e.Ctx.BlockTime().Add(d)).WithBlockHeight(e.Ctx.BlockHeight() + 1)
}

// SetTime moves block time to t.
func (e *Env) SetTime(t time.Time) {
	e.Ctx = e.Ctx.WithBlockTime(t.UTC())
}
