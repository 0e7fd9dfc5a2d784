package types

import (
	errorsmod "cosmossdk.io/errors"
)

var (
	ErrUnauthorized           = errorsmod.Register(ModuleName, 2, "unauthorized")
	ErrCouncilNotConfigured   = errorsmod.Register(ModuleName, 3, "security council is not configured")
	ErrInsufficientSignatures = errorsmod.Register(ModuleName, 4, "insufficient signatures")
	ErrNotCouncilMember       = errorsmod.Register(ModuleName, 5, "not a security council member")
	ErrInvalidHalt            = errorsmod.Register(ModuleName, 6, "invalid halt request")
)
