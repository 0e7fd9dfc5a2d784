package testutil

import (
	"context"
	"fmt"

	sdkmath "cosmossdk.io/math"
	sdk "github.com/cosmos/cosmos-sdk/types"
	authtypes "github.com/cosmos/cosmos-sdk/x/auth/types"
)

// Bank is an in-memory bank keeper keyed by bech32 address. Module
// accounts resolve through authtypes.NewModuleAddress.
type Bank struct {
	balances map[string]sdk.Coins
	supply   sdk.Coins
}

// NewBank returns an empty bank.
func NewBank() *Bank {
	return &Bank{balances: make(map[string]sdk.Coins)}
}

// ModuleAddress returns the account address of a module.
func ModuleAddress(module string) sdk.AccAddress {
	return authtypes.NewModuleAddress(module)
}

// Fund mints amount of denom to addr.
func (b *Bank) Fund(addr sdk.AccAddress, denom string, amount sdkmath.Int) {
	coins := sdk.NewCoins(sdk.NewCoin(denom, amount))
	b.balances[addr.String()] = b.balances[addr.String()].Add(coins...)
	b.supply = b.supply.Add(coins...)
}

// FundModule mints amount of denom to a module account.
func (b *Bank) FundModule(module, denom string, amount sdkmath.Int) {
	b.Fund(ModuleAddress(module), denom, amount)
}

// Balance returns the amount of denom held by addr.
func (b *Bank) Balance(addr sdk.AccAddress, denom string) sdkmath.Int {
	return b.balances[addr.String()].AmountOf(denom)
}

// ModuleBalance returns the amount of denom held by a module account.
func (b *Bank) ModuleBalance(module, denom string) sdkmath.Int {
	return b.Balance(ModuleAddress(module), denom)
}

// Supply returns the total minted minus burned amount of denom.
func (b *Bank) Supply(denom string) sdkmath.Int {
	return b.supply.AmountOf(denom)
}

func (b *Bank) GetBalance(_ context.Context, addr sdk.AccAddress, denom string) sdk.Coin {
	return sdk.NewCoin(denom, b.Balance(addr, denom))
}

func (b *Bank) SendCoins(_ context.Context, from, to sdk.AccAddress, amt sdk.Coins) error {
	return b.move(from, to, amt)
}

func (b *Bank) SendCoinsFromModuleToAccount(_ context.Context, module string, to sdk.AccAddress, amt sdk.Coins) error {
	return b.move(ModuleAddress(module), to, amt)
}

func (b *Bank) SendCoinsFromAccountToModule(_ context.Context, from sdk.AccAddress, module string, amt sdk.Coins) error {
	return b.move(from, ModuleAddress(module), amt)
}

func (b *Bank) SendCoinsFromModuleToModule(_ context.Context, from, to string, amt sdk.Coins) error {
	return b.move(ModuleAddress(from), ModuleAddress(to), amt)
}

func (b *Bank) MintCoins(_ context.Context, module string, amt sdk.Coins) error {
	addr := ModuleAddress(module).String()
	b.balances[addr] = b.balances[addr].Add(amt...)
	b.supply = b.supply.Add(amt...)
	return nil
}

func (b *Bank) BurnCoins(_ context.Context, module string, amt sdk.Coins) error {
	addr := ModuleAddress(module).String()
	remaining, hasNeg := b.balances[addr].SafeSub(amt...)
	if hasNeg {
		return fmt.Errorf("insufficient funds to burn %s from %s", amt, module)
	}
	b.balances[addr] = remaining
	b.supply = b.supply.Sub(amt...)
	return nil
}

func (b *Bank) move(from, to sdk.AccAddress, amt sdk.Coins) error {
	if !amt.IsValid() {
		return fmt.Errorf("invalid coins %s", amt)
	}
	remaining, hasNeg := b.balances[from.String()].SafeSub(amt...)
	if hasNeg {
		return fmt.Errorf("insufficient funds: %s has %s, needs %s", from, b.balances[from.String()], amt)
	}
	b.balances[from.String()] = remaining
	b.balances[to.String()] = b.balances[to.String()].Add(amt...)
	return nil
}
