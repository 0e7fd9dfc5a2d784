package types

import (
	errorsmod "cosmossdk.io/errors"
)

var (
	ErrNotConfigured = errorsmod.Register(ModuleName, 3, "collaborator not configured")
	ErrInvalidEpochs = errorsmod.Register(ModuleName, 4, "invalid epoch range")
)
