package types

import (
	errorsmod "cosmossdk.io/errors"
)

var (
	ErrInvalidRecipient = errorsmod.Register(ModuleName, 2, "invalid recipient")
	ErrNoAuctionKeeper  = errorsmod.Register(ModuleName, 3, "auction keeper not configured")
)
