package types

import (
	errorsmod "cosmossdk.io/errors"
)

var (
	ErrInvalidAmount       = errorsmod.Register(ModuleName, 2, "invalid reward amount")
	ErrInsufficientBalance = errorsmod.Register(ModuleName, 3, "insufficient undeclared balance")
	ErrExceedsDeclared     = errorsmod.Register(ModuleName, 4, "amount exceeds declared reward")
	ErrNoBondingKeeper     = errorsmod.Register(ModuleName, 5, "bonding keeper not configured")
	ErrNoForfeitHandler    = errorsmod.Register(ModuleName, 6, "forfeit handler not configured")
)
