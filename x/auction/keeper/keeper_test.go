package keeper_test

import (
	"context"
	"testing"
	"time"

	sdkmath "cosmossdk.io/math"
	sdk "github.com/cosmos/cosmos-sdk/types"
	"github.com/stretchr/testify/require"

	"github.com/maltprotocol/malt/internal/access"
	"github.com/maltprotocol/malt/internal/fixedpoint"
	"github.com/maltprotocol/malt/testutil"
	"github.com/maltprotocol/malt/x/auction/keeper"
	"github.com/maltprotocol/malt/x/auction/types"
)

const reserveDenom = "ureserve"

var (
	stabilizer = sdk.AccAddress([]byte("stabilizer__________"))
	buyerA     = sdk.AccAddress([]byte("buyer_a_____________"))
	buyerB     = sdk.AccAddress([]byte("buyer_b_____________"))
)

type mockLiquidityExtension struct {
	ratio     sdkmath.Int
	decimals  uint32
	price     sdkmath.Int
	purchases []sdkmath.Int
}

func (m *mockLiquidityExtension) Address() sdk.AccAddress {
	return testutil.ModuleAddress("liquidity_extension")
}

func (m *mockLiquidityExtension) ReserveRatio(context.Context) (sdkmath.Int, uint32, error) {
	return m.ratio, m.decimals, nil
}

func (m *mockLiquidityExtension) PurchaseAndBurn(_ context.Context, amount sdkmath.Int) (sdkmath.Int, error) {
	m.purchases = append(m.purchases, amount)
	return fixedpoint.DivUnity(amount, m.price)
}

type mockImpliedCollateral struct {
	deficits []sdkmath.Int
}

func (m *mockImpliedCollateral) HandleDeficit(_ context.Context, amount sdkmath.Int) error {
	m.deficits = append(m.deficits, amount)
	return nil
}

type mockBurnSkew struct {
	budget sdkmath.Int
}

func (m mockBurnSkew) GetRealBurnBudget(context.Context, sdkmath.Int, sdkmath.Int) (sdkmath.Int, error) {
	return m.budget, nil
}

type fixture struct {
	k    keeper.Keeper
	env  *testutil.Env
	bank *testutil.Bank
	le   *mockLiquidityExtension
	ics  *mockImpliedCollateral
}

func setupKeeper(t *testing.T) *fixture {
	t.Helper()

	env := testutil.NewEnv(t, types.StoreKey)
	bank := testutil.NewBank()
	le := &mockLiquidityExtension{
		ratio:    sdkmath.NewInt(4000),
		decimals: 4,
		price:    fixedpoint.Unity,
	}
	ics := &mockImpliedCollateral{}
	k := keeper.NewKeeper(
		env.StoreService(types.StoreKey),
		testutil.Authority,
		bank,
		le,
		ics,
		mockBurnSkew{budget: sdkmath.ZeroInt()},
	)
	require.NoError(t, k.InitGenesis(env.Ctx, types.DefaultGenesis()))
	require.NoError(t, k.Roles.Grant(env.Ctx, testutil.Authority, types.RoleStabilizer, stabilizer.String()))

	bank.Fund(buyerA, reserveDenom, sdkmath.NewInt(10_000))
	bank.Fund(buyerB, reserveDenom, sdkmath.NewInt(10_000))
	bank.Fund(stabilizer, reserveDenom, sdkmath.NewInt(10_000))

	return &fixture{k: k, env: env, bank: bank, le: le, ics: ics}
}

func (f *fixture) trigger(t *testing.T, purchase int64) types.Auction {
	t.Helper()
	a, err := f.k.TriggerAuction(f.env.Ctx, stabilizer.String(), fixedpoint.Unity, sdkmath.NewInt(purchase))
	require.NoError(t, err)
	return a
}

func (f *fixture) finalize(t *testing.T) {
	t.Helper()
	f.env.Advance(10 * time.Minute)
	_, err := f.k.CheckAuctionFinalization(f.env.Ctx)
	require.NoError(t, err)
}

func requireInvariantsHold(t *testing.T, f *fixture) {
	t.Helper()
	msg, broken := keeper.AllInvariants(f.k)(f.env.Ctx)
	require.False(t, broken, msg)
}

func TestAuctionLifecycleClosesEarlyWhenFull(t *testing.T) {
	f := setupKeeper(t)

	a := f.trigger(t, 1000)
	require.Equal(t, sdkmath.NewInt(600), a.MaxCommitments)
	require.Equal(t, fixedpoint.Unity, a.StartingPrice)
	require.Equal(t, fixedpoint.MustFromDecimalString("0.4"), a.EndingPrice)
	require.Equal(t, []sdkmath.Int{sdkmath.NewInt(1000)}, f.ics.deficits)

	taken, err := f.k.PurchaseArbitrageTokens(f.env.Ctx, buyerA, sdkmath.NewInt(400))
	require.NoError(t, err)
	require.Equal(t, sdkmath.NewInt(400), taken)

	f.env.Advance(5 * time.Minute)
	price, err := f.k.CurrentPrice(f.env.Ctx, a.ID)
	require.NoError(t, err)
	require.Equal(t, fixedpoint.MustFromDecimalString("0.7"), price)

	taken, err = f.k.PurchaseArbitrageTokens(f.env.Ctx, buyerB, sdkmath.NewInt(400))
	require.NoError(t, err)
	require.Equal(t, sdkmath.NewInt(200), taken)
	require.Equal(t, sdkmath.NewInt(9_800), f.bank.Balance(buyerB, reserveDenom))

	active, err := f.k.IsAuctionActive(f.env.Ctx, a.ID)
	require.NoError(t, err)
	require.False(t, active)

	_, err = f.k.PurchaseArbitrageTokens(f.env.Ctx, buyerB, sdkmath.NewInt(1))
	require.ErrorIs(t, err, types.ErrAuctionNotActive)

	finalized, err := f.k.CheckAuctionFinalization(f.env.Ctx)
	require.NoError(t, err)
	require.False(t, finalized)

	f.env.Advance(5 * time.Minute)
	finalized, err = f.k.CheckAuctionFinalization(f.env.Ctx)
	require.NoError(t, err)
	require.True(t, finalized)

	_, _, final, err := f.k.GetAuctionPrices(f.env.Ctx, a.ID)
	require.NoError(t, err)
	require.Equal(t, fixedpoint.MustFromDecimalString("0.7"), final)

	commitments, maxCommitments, err := f.k.GetAuctionCommitments(f.env.Ctx, a.ID)
	require.NoError(t, err)
	require.Equal(t, maxCommitments, commitments)

	finalized, err = f.k.CheckAuctionFinalization(f.env.Ctx)
	require.NoError(t, err)
	require.False(t, finalized)
	requireInvariantsHold(t, f)
}

func TestAuctionPriceDecaysLinearlyWithinBounds(t *testing.T) {
	f := setupKeeper(t)
	a := f.trigger(t, 1000)

	expect := map[time.Duration]string{
		0:                 "1",
		150 * time.Second: "0.85",
		300 * time.Second: "0.7",
		600 * time.Second: "0.4",
		900 * time.Second: "0.4",
	}
	start := f.env.Ctx.BlockTime()
	for offset, want := range expect {
		f.env.SetTime(start.Add(offset))
		price, err := f.k.CurrentPrice(f.env.Ctx, a.ID)
		require.NoError(t, err)
		require.Equal(t, fixedpoint.MustFromDecimalString(want), price, "offset %s", offset)
	}
}

func TestAuctionEndingPriceCappedByMaxAuctionEnd(t *testing.T) {
	f := setupKeeper(t)
	f.le.ratio = sdkmath.NewInt(9500)

	a := f.trigger(t, 10_000)
	require.Equal(t, sdkmath.NewInt(500), a.MaxCommitments)
	require.Equal(t, fixedpoint.MustFromDecimalString("0.9"), a.EndingPrice)
}

func TestTriggerAuctionPreconditions(t *testing.T) {
	f := setupKeeper(t)

	_, err := f.k.TriggerAuction(f.env.Ctx, buyerA.String(), fixedpoint.Unity, sdkmath.NewInt(1000))
	require.ErrorIs(t, err, access.ErrUnauthorized)

	_, err = f.k.TriggerAuction(f.env.Ctx, stabilizer.String(), fixedpoint.Unity, sdkmath.ZeroInt())
	require.ErrorIs(t, err, types.ErrInvalidAmount)

	f.le.ratio = sdkmath.NewInt(10_000)
	_, err = f.k.TriggerAuction(f.env.Ctx, stabilizer.String(), fixedpoint.Unity, sdkmath.NewInt(1000))
	require.ErrorIs(t, err, types.ErrInvalidAmount)

	f.le.ratio = sdkmath.NewInt(4000)
	f.trigger(t, 1000)
	_, err = f.k.TriggerAuction(f.env.Ctx, stabilizer.String(), fixedpoint.Unity, sdkmath.NewInt(1000))
	require.ErrorIs(t, err, types.ErrAuctionActive)

	// once the first auction expires the next trigger finalizes it and opens a new one
	f.env.Advance(10 * time.Minute)
	next := f.trigger(t, 1000)
	require.Equal(t, uint64(1), next.ID)
	finalized, err := f.k.IsAuctionFinalized(f.env.Ctx, 0)
	require.NoError(t, err)
	require.True(t, finalized)
}

type mockCrisis struct {
	halted bool
}

func (m *mockCrisis) IsAuctionsHalted(context.Context) bool { return m.halted }

func TestHaltedAuctionsRejectTriggerAndPurchase(t *testing.T) {
	f := setupKeeper(t)
	crisis := &mockCrisis{}
	f.k.SetCrisisKeeper(crisis)

	f.trigger(t, 1000)
	crisis.halted = true

	_, err := f.k.PurchaseArbitrageTokens(f.env.Ctx, buyerA, sdkmath.NewInt(100))
	require.ErrorIs(t, err, types.ErrAuctionsHalted)
	require.Equal(t, sdkmath.NewInt(10_000), f.bank.Balance(buyerA, reserveDenom))

	f.env.Advance(10 * time.Minute)
	_, err = f.k.TriggerAuction(f.env.Ctx, stabilizer.String(), fixedpoint.Unity, sdkmath.NewInt(1000))
	require.ErrorIs(t, err, types.ErrAuctionsHalted)

	crisis.halted = false
	next := f.trigger(t, 1000)
	require.Equal(t, uint64(1), next.ID)
}

func TestFinalizationSpendsBurnBudgetOnRemainingDeficit(t *testing.T) {
	f := setupKeeper(t)
	f.k.SetBurnReserveSkew(mockBurnSkew{budget: sdkmath.NewInt(5_000)})

	a := f.trigger(t, 1000)
	_, err := f.k.PurchaseArbitrageTokens(f.env.Ctx, buyerA, sdkmath.NewInt(100))
	require.NoError(t, err)
	f.finalize(t)

	got, err := f.k.GetAuction(f.env.Ctx, a.ID)
	require.NoError(t, err)
	require.True(t, got.Finalized)
	require.False(t, got.Active)
	require.Equal(t, sdkmath.NewInt(500), got.FinalBurnBudget)
	require.Equal(t, sdkmath.NewInt(500), got.FinalPurchased)
	require.Equal(t, got.EndingPrice, got.FinalPrice)
	require.Equal(t, sdkmath.NewInt(500), f.le.purchases[len(f.le.purchases)-1])
	// protocol purchases do not mint arbitrage tokens
	require.Equal(t, sdkmath.NewInt(100), got.MaltPurchased)
}

func TestFinalizationSkipsBurnBelowMinReserveRatio(t *testing.T) {
	f := setupKeeper(t)
	f.k.SetBurnReserveSkew(mockBurnSkew{budget: sdkmath.NewInt(5_000)})
	f.le.ratio = sdkmath.NewInt(2000)

	a := f.trigger(t, 1000)
	f.finalize(t)

	got, err := f.k.GetAuction(f.env.Ctx, a.ID)
	require.NoError(t, err)
	require.True(t, got.Finalized)
	require.True(t, got.FinalBurnBudget.IsZero())
	require.Empty(t, f.le.purchases)
}

func TestAllocateArbRewardsAppliesSplitAndHoldsCursor(t *testing.T) {
	f := setupKeeper(t)
	f.le.ratio = sdkmath.NewInt(5000)

	a := f.trigger(t, 2000)
	_, err := f.k.PurchaseArbitrageTokens(f.env.Ctx, buyerA, sdkmath.NewInt(1000))
	require.NoError(t, err)
	f.finalize(t)

	balance, err := f.k.BalanceOfArbTokens(f.env.Ctx, a.ID, buyerA)
	require.NoError(t, err)
	require.Equal(t, sdkmath.NewInt(1000), balance)

	returned, err := f.k.AllocateArbRewards(f.env.Ctx, stabilizer.String(), sdkmath.NewInt(100))
	require.NoError(t, err)
	require.Equal(t, sdkmath.NewInt(30), returned)
	require.Equal(t, sdkmath.NewInt(9_930), f.bank.Balance(stabilizer, reserveDenom))

	got, err := f.k.GetAuction(f.env.Ctx, a.ID)
	require.NoError(t, err)
	require.Equal(t, sdkmath.NewInt(70), got.ClaimableTokens)
	cursor, err := f.k.GetReplenishingAuctionID(f.env.Ctx)
	require.NoError(t, err)
	require.Equal(t, uint64(0), cursor)

	paid, err := f.k.ClaimArbitrage(f.env.Ctx, buyerA, a.ID)
	require.NoError(t, err)
	require.Equal(t, sdkmath.NewInt(70), paid)
	_, err = f.k.ClaimArbitrage(f.env.Ctx, buyerA, a.ID)
	require.ErrorIs(t, err, types.ErrNothingToClaim)

	returned, err = f.k.AllocateArbRewards(f.env.Ctx, stabilizer.String(), sdkmath.NewInt(2000))
	require.NoError(t, err)
	require.Equal(t, sdkmath.NewInt(1070), returned)
	cursor, err = f.k.GetReplenishingAuctionID(f.env.Ctx)
	require.NoError(t, err)
	require.Equal(t, uint64(1), cursor)

	claimable, err := f.k.UserClaimableArbTokens(f.env.Ctx, buyerA, a.ID)
	require.NoError(t, err)
	require.Equal(t, balance, claimable)
	requireInvariantsHold(t, f)
}

func TestAllocateArbRewardsRequiresStabilizer(t *testing.T) {
	f := setupKeeper(t)
	_, err := f.k.AllocateArbRewards(f.env.Ctx, buyerA.String(), sdkmath.NewInt(100))
	require.ErrorIs(t, err, access.ErrUnauthorized)

	returned, err := f.k.AllocateArbRewards(f.env.Ctx, stabilizer.String(), sdkmath.ZeroInt())
	require.NoError(t, err)
	require.True(t, returned.IsZero())
}

func TestReplenishSkipsAuctionsWithoutCommitments(t *testing.T) {
	f := setupKeeper(t)

	f.trigger(t, 1000)
	f.finalize(t)
	second := f.trigger(t, 1000)
	_, err := f.k.PurchaseArbitrageTokens(f.env.Ctx, buyerA, sdkmath.NewInt(100))
	require.NoError(t, err)

	// the open auction blocks the walk; the empty one is skipped
	returned, err := f.k.AllocateArbRewards(f.env.Ctx, stabilizer.String(), sdkmath.NewInt(100))
	require.NoError(t, err)
	require.Equal(t, sdkmath.NewInt(100), returned)
	cursor, err := f.k.GetReplenishingAuctionID(f.env.Ctx)
	require.NoError(t, err)
	require.Equal(t, second.ID, cursor)

	f.finalize(t)
	returned, err = f.k.AllocateArbRewards(f.env.Ctx, stabilizer.String(), sdkmath.NewInt(100))
	require.NoError(t, err)
	require.Equal(t, sdkmath.NewInt(30), returned)

	first, err := f.k.GetAuction(f.env.Ctx, 0)
	require.NoError(t, err)
	require.True(t, first.ClaimableTokens.IsZero())
}

func TestAmendAccountParticipationKeepsOtherBalances(t *testing.T) {
	f := setupKeeper(t)
	amender := testutil.ModuleAddress("escapehatch").String()
	require.NoError(t, f.k.Roles.Grant(f.env.Ctx, testutil.Authority, types.RoleAuctionAmender, amender))

	a := f.trigger(t, 1000)
	_, err := f.k.PurchaseArbitrageTokens(f.env.Ctx, buyerA, sdkmath.NewInt(300))
	require.NoError(t, err)
	f.le.price = fixedpoint.MustFromDecimalString("0.5")
	_, err = f.k.PurchaseArbitrageTokens(f.env.Ctx, buyerB, sdkmath.NewInt(300))
	require.NoError(t, err)
	f.finalize(t)

	err = f.k.AmendAccountParticipation(f.env.Ctx, buyerA.String(), buyerA, a.ID, sdkmath.NewInt(300), sdkmath.ZeroInt())
	require.ErrorIs(t, err, access.ErrUnauthorized)

	returned, err := f.k.AllocateArbRewards(f.env.Ctx, stabilizer.String(), sdkmath.NewInt(1000))
	require.NoError(t, err)
	require.Equal(t, sdkmath.NewInt(300), returned)

	balanceB, err := f.k.BalanceOfArbTokens(f.env.Ctx, a.ID, buyerB)
	require.NoError(t, err)
	require.Equal(t, sdkmath.NewInt(450), balanceB)
	claimableB, err := f.k.UserClaimableArbTokens(f.env.Ctx, buyerB, a.ID)
	require.NoError(t, err)
	require.Equal(t, sdkmath.NewInt(350), claimableB)

	err = f.k.AmendAccountParticipation(f.env.Ctx, amender, buyerA, a.ID, sdkmath.NewInt(301), sdkmath.ZeroInt())
	require.ErrorIs(t, err, types.ErrAmendExceedsParticipation)
	require.NoError(t, f.k.AmendAccountParticipation(f.env.Ctx, amender, buyerA, a.ID, sdkmath.NewInt(300), sdkmath.ZeroInt()))

	got, err := f.k.GetAuction(f.env.Ctx, a.ID)
	require.NoError(t, err)
	require.Equal(t, sdkmath.NewInt(300), got.Commitments)
	require.Equal(t, sdkmath.NewInt(450), got.MaltPurchased)
	require.Equal(t, sdkmath.NewInt(350), got.ClaimableTokens)

	balanceAfter, err := f.k.BalanceOfArbTokens(f.env.Ctx, a.ID, buyerB)
	require.NoError(t, err)
	require.Equal(t, balanceB, balanceAfter)
	claimableAfter, err := f.k.UserClaimableArbTokens(f.env.Ctx, buyerB, a.ID)
	require.NoError(t, err)
	require.Equal(t, claimableB, claimableAfter)

	participation, err := f.k.GetAccountParticipation(f.env.Ctx, buyerA, a.ID)
	require.NoError(t, err)
	require.True(t, participation.Commitment.IsZero())
	require.Equal(t, sdkmath.NewInt(300), participation.Exited)
	requireInvariantsHold(t, f)

	// the exited share is carried and spent before new rewards
	returned, err = f.k.AllocateArbRewards(f.env.Ctx, stabilizer.String(), sdkmath.NewInt(100))
	require.NoError(t, err)
	require.Equal(t, sdkmath.NewInt(100), returned)
	cursor, err := f.k.GetReplenishingAuctionID(f.env.Ctx)
	require.NoError(t, err)
	require.Equal(t, uint64(1), cursor)
	requireInvariantsHold(t, f)
}

func TestGetAccountCommitmentsListsPositions(t *testing.T) {
	f := setupKeeper(t)

	f.trigger(t, 1000)
	_, err := f.k.PurchaseArbitrageTokens(f.env.Ctx, buyerA, sdkmath.NewInt(10))
	require.NoError(t, err)
	f.finalize(t)
	f.trigger(t, 1000)
	_, err = f.k.PurchaseArbitrageTokens(f.env.Ctx, buyerA, sdkmath.NewInt(20))
	require.NoError(t, err)
	_, err = f.k.PurchaseArbitrageTokens(f.env.Ctx, buyerB, sdkmath.NewInt(5))
	require.NoError(t, err)

	positions, err := f.k.GetAccountCommitments(f.env.Ctx, buyerA)
	require.NoError(t, err)
	require.Len(t, positions, 2)
	require.Equal(t, uint64(0), positions[0].AuctionID)
	require.Equal(t, sdkmath.NewInt(20), positions[1].Commitment)

	id, active, err := f.k.GetActiveAuctionID(f.env.Ctx)
	require.NoError(t, err)
	require.True(t, active)
	require.Equal(t, uint64(1), id)
}

func TestAuctionGenesisRoundTrip(t *testing.T) {
	f := setupKeeper(t)
	f.trigger(t, 1000)
	_, err := f.k.PurchaseArbitrageTokens(f.env.Ctx, buyerA, sdkmath.NewInt(250))
	require.NoError(t, err)
	f.finalize(t)

	exported, err := f.k.ExportGenesis(f.env.Ctx)
	require.NoError(t, err)
	require.NoError(t, exported.Validate())
	require.Len(t, exported.Auctions, 1)
	require.Len(t, exported.Participations, 1)
	require.Equal(t, uint64(1), exported.NextAuctionID)

	other := setupKeeper(t)
	require.NoError(t, other.k.InitGenesis(other.env.Ctx, exported))
	balance, err := other.k.BalanceOfArbTokens(other.env.Ctx, 0, buyerA)
	require.NoError(t, err)
	require.Equal(t, sdkmath.NewInt(250), balance)

	exported.Participations[0].Commitment = sdkmath.NewInt(1)
	require.Error(t, exported.Validate())
}
