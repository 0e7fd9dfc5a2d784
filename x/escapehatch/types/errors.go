package types

import (
	errorsmod "cosmossdk.io/errors"
)

var (
	ErrActiveAuctionExit    = errorsmod.Register(ModuleName, 2, "Cannot exit early on an active auction")
	ErrNothingToClaim       = errorsmod.Register(ModuleName, 3, "Nothing to claim")
	ErrSlippage             = errorsmod.Register(ModuleName, 4, "return below minimum")
	ErrInsufficientProceeds = errorsmod.Register(ModuleName, 5, "sale proceeds below return")
	ErrInvalidPrice         = errorsmod.Register(ModuleName, 6, "invalid price")
	ErrNotConfigured        = errorsmod.Register(ModuleName, 7, "collaborator not configured")
	ErrEarlyExitsHalted     = errorsmod.Register(ModuleName, 8, "early exits are halted")
)
