package types

import (
	errorsmod "cosmossdk.io/errors"
)

var (
	ErrAuctionActive             = errorsmod.Register(ModuleName, 2, "auction already active")
	ErrAuctionNotActive          = errorsmod.Register(ModuleName, 3, "no active auction")
	ErrAuctionNotFound           = errorsmod.Register(ModuleName, 4, "auction not found")
	ErrNothingToClaim            = errorsmod.Register(ModuleName, 5, "Nothing to claim")
	ErrInvalidAmount             = errorsmod.Register(ModuleName, 6, "invalid amount")
	ErrInvalidPrice              = errorsmod.Register(ModuleName, 7, "invalid price")
	ErrParticipationNotFound     = errorsmod.Register(ModuleName, 8, "participation not found")
	ErrAmendExceedsParticipation = errorsmod.Register(ModuleName, 9, "amendment exceeds participation")
	ErrInvalidRecipient          = errorsmod.Register(ModuleName, 10, "invalid recipient")
	ErrAuctionsHalted            = errorsmod.Register(ModuleName, 11, "auctions are halted")
)
