package types

const (
	// ModuleName is the dao module namespace.
	ModuleName = "dao"

	// StoreKey is the module KV store key.
	StoreKey = ModuleName
)

var (
	// ParamsKey stores module params.
	ParamsKey = []byte{0x01}

	// EpochStateKey stores the current epoch and its start time.
	EpochStateKey = []byte{0x02}
)
