// Package sdkctx derives block time, logging and event emission from a
// context that may or may not carry an sdk.Context.
package sdkctx

import (
	"context"
	"time"

	"cosmossdk.io/log"
	sdk "github.com/cosmos/cosmos-sdk/types"
)

// Unwrap returns the sdk.Context carried by ctx, if any.
func Unwrap(ctx context.Context) (sdk.Context, bool) {
	if ctx == nil {
		return sdk.Context{}, false
	}
	if sdkCtx, ok := ctx.(sdk.Context); ok {
		return sdkCtx, true
	}
	if val := ctx.Value(sdk.SdkContextKey); val != nil {
		if sdkCtx, ok := val.(sdk.Context); ok {
			return sdkCtx, true
		}
	}
	return sdk.Context{}, false
}

// Now returns the block time. Outside a block it falls back to wall clock.
func Now(ctx context.Context) (sdk.Context, time.Time) {
	if sdkCtx, ok := Unwrap(ctx); ok {
		return sdkCtx, sdkCtx.BlockTime()
	}
	return sdk.Context{}, time.Now().UTC()
}

// NowUnix is Now in unix seconds.
func NowUnix(ctx context.Context) int64 {
	_, now := Now(ctx)
	return now.Unix()
}

// EmitEvent emits event when ctx has an event manager.
func EmitEvent(ctx context.Context, event sdk.Event) {
	sdkCtx, ok := Unwrap(ctx)
	if !ok {
		return
	}
	if em := sdkCtx.EventManager(); em != nil {
		em.EmitEvent(event)
	}
}

// Logger returns the block logger scoped to module, or a nop logger.
func Logger(ctx context.Context, module string) log.Logger {
	sdkCtx, ok := Unwrap(ctx)
	if !ok || sdkCtx.Logger() == nil {
		return log.NewNopLogger()
	}
	return sdkCtx.Logger().With("module", "x/"+module)
}
