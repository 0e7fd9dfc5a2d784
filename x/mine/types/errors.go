package types

import (
	errorsmod "cosmossdk.io/errors"
)

var (
	ErrInvalidAmount     = errorsmod.Register(ModuleName, 2, "invalid amount")
	ErrNoBondingKeeper   = errorsmod.Register(ModuleName, 3, "bonding keeper not configured")
	ErrNoDistributor     = errorsmod.Register(ModuleName, 4, "reward distributor not configured")
	ErrInvalidRecipient  = errorsmod.Register(ModuleName, 5, "invalid recipient")
	ErrUnbondExceedsBond = errorsmod.Register(ModuleName, 6, "unbond amount exceeds bonded balance")
)
