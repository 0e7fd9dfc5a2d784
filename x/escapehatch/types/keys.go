package types

const (
	// ModuleName is the auction escape hatch namespace. The module account
	// mints and sells MALT for exiting participants.
	ModuleName = "escapehatch"

	// StoreKey is the module KV store key.
	StoreKey = ModuleName
)

var (
	ParamsKey             = []byte{0x01}
	ExitsKeyPrefix        = []byte{0x02}
	ExitSequenceKey       = []byte{0x03}
	AccountExitsKeyPrefix = []byte{0x04}
	GlobalExitsKey        = []byte{0x05}
)

const EventTypeEarlyExit = "escapehatch_early_exit"
