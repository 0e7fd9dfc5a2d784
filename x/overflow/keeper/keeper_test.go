package keeper_test

import (
	"context"
	"testing"

	sdkmath "cosmossdk.io/math"
	sdk "github.com/cosmos/cosmos-sdk/types"
	"github.com/stretchr/testify/require"

	"github.com/maltprotocol/malt/internal/access"
	"github.com/maltprotocol/malt/testutil"
	auctiontypes "github.com/maltprotocol/malt/x/auction/types"
	"github.com/maltprotocol/malt/x/overflow/keeper"
	"github.com/maltprotocol/malt/x/overflow/types"
)

const reserveDenom = "ureserve"

var (
	throttler = sdk.AccAddress([]byte("throttler___________"))
	operator  = sdk.AccAddress([]byte("operator____________"))
	stranger  = sdk.AccAddress([]byte("stranger____________"))
)

type position struct {
	balance  sdkmath.Int
	redeemed sdkmath.Int
	payable  sdkmath.Int
}

type mockAuction struct {
	activeID  uint64
	active    bool
	purchases []sdkmath.Int
	positions map[uint64]*position
}

func (m *mockAuction) GetActiveAuctionID(context.Context) (uint64, bool, error) {
	return m.activeID, m.active, nil
}

func (m *mockAuction) PurchaseArbitrageTokens(_ context.Context, _ sdk.AccAddress, amount sdkmath.Int) (sdkmath.Int, error) {
	if !m.active {
		return sdkmath.ZeroInt(), auctiontypes.ErrAuctionNotActive
	}
	m.purchases = append(m.purchases, amount)
	p, ok := m.positions[m.activeID]
	if !ok {
		p = &position{balance: sdkmath.ZeroInt(), redeemed: sdkmath.ZeroInt(), payable: sdkmath.ZeroInt()}
		m.positions[m.activeID] = p
	}
	p.balance = p.balance.Add(amount)
	return amount, nil
}

func (m *mockAuction) ClaimArbitrage(_ context.Context, _ sdk.AccAddress, id uint64) (sdkmath.Int, error) {
	p, ok := m.positions[id]
	if !ok || p.payable.IsZero() {
		return sdkmath.ZeroInt(), auctiontypes.ErrNothingToClaim
	}
	paid := p.payable
	p.redeemed = p.redeemed.Add(paid)
	p.payable = sdkmath.ZeroInt()
	return paid, nil
}

func (m *mockAuction) BalanceOfArbTokens(_ context.Context, id uint64, _ sdk.AccAddress) (sdkmath.Int, error) {
	if p, ok := m.positions[id]; ok {
		return p.balance, nil
	}
	return sdkmath.ZeroInt(), nil
}

func (m *mockAuction) GetAccountParticipation(_ context.Context, account sdk.AccAddress, id uint64) (auctiontypes.AccountParticipation, error) {
	p, ok := m.positions[id]
	if !ok {
		return auctiontypes.AccountParticipation{}, auctiontypes.ErrParticipationNotFound
	}
	return auctiontypes.AccountParticipation{
		AuctionID:  id,
		Account:    account.String(),
		Commitment: p.balance,
		Redeemed:   p.redeemed,
	}, nil
}

type fixture struct {
	k       keeper.Keeper
	env     *testutil.Env
	bank    *testutil.Bank
	auction *mockAuction
}

func setupKeeper(t *testing.T) *fixture {
	t.Helper()

	env := testutil.NewEnv(t, types.StoreKey)
	bank := testutil.NewBank()
	auction := &mockAuction{positions: make(map[uint64]*position)}
	k := keeper.NewKeeper(env.StoreService(types.StoreKey), testutil.Authority, bank)
	k.SetAuctionKeeper(auction)
	require.NoError(t, k.InitGenesis(env.Ctx, types.DefaultGenesis()))
	require.NoError(t, k.Roles.Grant(env.Ctx, testutil.Authority, types.RoleCapitalRequester, throttler.String()))
	require.NoError(t, k.Roles.Grant(env.Ctx, testutil.Authority, types.RoleAuctionOperator, operator.String()))

	bank.FundModule(types.ModuleName, reserveDenom, sdkmath.NewInt(1000))
	return &fixture{k: k, env: env, bank: bank, auction: auction}
}

func TestRequestCapitalCapsAtHalfThePool(t *testing.T) {
	f := setupKeeper(t)

	released, err := f.k.RequestCapital(f.env.Ctx, throttler.String(), sdkmath.NewInt(800))
	require.NoError(t, err)
	require.Equal(t, sdkmath.NewInt(500), released)
	require.Equal(t, sdkmath.NewInt(500), f.bank.Balance(throttler, reserveDenom))

	released, err = f.k.RequestCapital(f.env.Ctx, throttler.String(), sdkmath.NewInt(100))
	require.NoError(t, err)
	require.Equal(t, sdkmath.NewInt(100), released)

	balance, err := f.k.Balance(f.env.Ctx)
	require.NoError(t, err)
	require.Equal(t, sdkmath.NewInt(400), balance)
}

func TestRequestCapitalFromEmptyPool(t *testing.T) {
	f := setupKeeper(t)
	require.NoError(t, f.bank.SendCoinsFromModuleToAccount(f.env.Ctx, types.ModuleName, stranger,
		sdk.NewCoins(sdk.NewInt64Coin(reserveDenom, 1000))))

	released, err := f.k.RequestCapital(f.env.Ctx, throttler.String(), sdkmath.NewInt(100))
	require.NoError(t, err)
	require.True(t, released.IsZero())

	released, err = f.k.RequestCapital(f.env.Ctx, throttler.String(), sdkmath.ZeroInt())
	require.NoError(t, err)
	require.True(t, released.IsZero())
}

func TestRequestCapitalRequiresRole(t *testing.T) {
	f := setupKeeper(t)
	_, err := f.k.RequestCapital(f.env.Ctx, stranger.String(), sdkmath.NewInt(100))
	require.ErrorIs(t, err, access.ErrUnauthorized)

	_, err = f.k.PurchaseArbitrageTokens(f.env.Ctx, throttler.String(), sdkmath.NewInt(100))
	require.ErrorIs(t, err, access.ErrUnauthorized)
}

func TestPurchaseArbitrageTokensRecordsAuctionOnce(t *testing.T) {
	f := setupKeeper(t)

	committed, err := f.k.PurchaseArbitrageTokens(f.env.Ctx, operator.String(), sdkmath.NewInt(100))
	require.NoError(t, err)
	require.True(t, committed.IsZero())

	f.auction.active = true
	f.auction.activeID = 3
	committed, err = f.k.PurchaseArbitrageTokens(f.env.Ctx, operator.String(), sdkmath.NewInt(900))
	require.NoError(t, err)
	require.Equal(t, sdkmath.NewInt(500), committed)
	_, err = f.k.PurchaseArbitrageTokens(f.env.Ctx, operator.String(), sdkmath.NewInt(10))
	require.NoError(t, err)

	ids, err := f.k.ParticipatedAuctions(f.env.Ctx)
	require.NoError(t, err)
	require.Equal(t, []uint64{3}, ids)
	require.Len(t, f.auction.purchases, 2)
}

func TestClaimArbitrageAdvancesPastRedeemedAuctions(t *testing.T) {
	f := setupKeeper(t)
	f.auction.active = true
	for _, id := range []uint64{1, 2} {
		f.auction.activeID = id
		_, err := f.k.PurchaseArbitrageTokens(f.env.Ctx, operator.String(), sdkmath.NewInt(100))
		require.NoError(t, err)
	}
	f.auction.active = false

	f.auction.positions[1].payable = sdkmath.NewInt(100)
	f.auction.positions[2].payable = sdkmath.NewInt(40)

	claimed, err := f.k.ClaimArbitrage(f.env.Ctx)
	require.NoError(t, err)
	require.Equal(t, sdkmath.NewInt(140), claimed)
	index, err := f.k.ReplenishingIndex.Get(f.env.Ctx)
	require.NoError(t, err)
	require.Equal(t, uint64(1), index)

	claimed, err = f.k.ClaimArbitrage(f.env.Ctx)
	require.NoError(t, err)
	require.True(t, claimed.IsZero())

	f.auction.positions[2].payable = sdkmath.NewInt(60)
	claimed, err = f.k.ClaimArbitrage(f.env.Ctx)
	require.NoError(t, err)
	require.Equal(t, sdkmath.NewInt(60), claimed)
	index, err = f.k.ReplenishingIndex.Get(f.env.Ctx)
	require.NoError(t, err)
	require.Equal(t, uint64(2), index)
}

func TestHandleForfeitAccumulates(t *testing.T) {
	f := setupKeeper(t)
	require.Equal(t, f.k.ModuleAddress(), f.k.Address())

	f.bank.Fund(f.k.Address(), reserveDenom, sdkmath.NewInt(200))
	require.NoError(t, f.k.HandleForfeit(f.env.Ctx, sdkmath.NewInt(200)))
	require.NoError(t, f.k.HandleForfeit(f.env.Ctx, sdkmath.ZeroInt()))
	total, err := f.k.GetTotalForfeited(f.env.Ctx)
	require.NoError(t, err)
	require.Equal(t, sdkmath.NewInt(200), total)

	// forfeits back the pool like any other deposit
	released, err := f.k.RequestCapital(f.env.Ctx, throttler.String(), sdkmath.NewInt(1000))
	require.NoError(t, err)
	require.Equal(t, sdkmath.NewInt(600), released)
}

func TestOverflowGenesisRoundTrip(t *testing.T) {
	f := setupKeeper(t)
	require.NoError(t, f.k.HandleForfeit(f.env.Ctx, sdkmath.NewInt(40)))
	f.auction.active = true
	f.auction.activeID = 7
	_, err := f.k.PurchaseArbitrageTokens(f.env.Ctx, operator.String(), sdkmath.NewInt(10))
	require.NoError(t, err)

	exported, err := f.k.ExportGenesis(f.env.Ctx)
	require.NoError(t, err)
	require.Equal(t, []uint64{7}, exported.AuctionIDs)
	require.Len(t, exported.Roles, 2)

	other := setupKeeper(t)
	require.NoError(t, other.k.InitGenesis(other.env.Ctx, exported))
	ids, err := other.k.ParticipatedAuctions(other.env.Ctx)
	require.NoError(t, err)
	require.Equal(t, []uint64{7}, ids)
	forfeited, err := other.k.GetTotalForfeited(other.env.Ctx)
	require.NoError(t, err)
	require.Equal(t, sdkmath.NewInt(40), forfeited)

	exported.ReplenishingIndex = 5
	require.Error(t, exported.Validate())
}
