/*
Context helpers.

We pass context through context.Context between app, middleware, and
handlers. Common keys are defined here, such as block height, chain id and
network id. Each extension may add its own keys to enrich the context.

There exist two functions for every XYZ of type T that we want to support in
Context:

	WithXYZ(Context, T) Context
	GetXYZ(Context) (val T, ok bool)

WithXYZ panics if the value was previously set to avoid lower-level modules
overwriting the value (eg. height, chain id).
*/
package realm

import (
	"context"
	"fmt"
	"math/big"
	"regexp"
	"time"

	"github.com/tendermint/tendermint/libs/log"
)

// Context is just an alias for the standard implementation.
// We use functions to extend it to our domain.
type Context = context.Context

type contextKey int

const (
	contextKeyHeight contextKey = iota
	contextKeyChainID
	contextKeyNetworkID
	contextKeyBlockTime
	contextKeyLogger
)

var (
	// DefaultLogger is used for all context that have not
	// set anything themselves
	DefaultLogger = log.NewNopLogger()

	// IsValidChainID is the RegExp to ensure valid chain IDs
	IsValidChainID = regexp.MustCompile(`^[a-zA-Z0-9_\-]{6,50}$`).MatchString
)

// WithHeight sets the block height for the context.
// Panics if the height was already set.
func WithHeight(ctx Context, height int64) Context {
	if _, ok := ctx.Value(contextKeyHeight).(int64); ok {
		panic("height already set")
	}
	return context.WithValue(ctx, contextKeyHeight, height)
}

// GetHeight returns the current block height.
// If none was set, it returns (0, false).
func GetHeight(ctx Context) (int64, bool) {
	val, ok := ctx.Value(contextKeyHeight).(int64)
	return val, ok
}

// WithChainID sets the chain id for the context. Panics if the chain id was
// already set or is not a valid chain id.
func WithChainID(ctx Context, chainID string) Context {
	if ctx.Value(contextKeyChainID) != nil {
		panic("chain id already set")
	}
	if !IsValidChainID(chainID) {
		panic(fmt.Sprintf("invalid chain id: %q", chainID))
	}
	return context.WithValue(ctx, contextKeyChainID, chainID)
}

// GetChainID returns the chain id set for the context, or an empty string.
func GetChainID(ctx Context) string {
	val, _ := ctx.Value(contextKeyChainID).(string)
	return val
}

// WithNetworkID sets the numeric network identifier. Structured-data
// signatures are bound to this value. Panics if already set.
func WithNetworkID(ctx Context, id *big.Int) Context {
	if ctx.Value(contextKeyNetworkID) != nil {
		panic("network id already set")
	}
	if id == nil || id.Sign() <= 0 {
		panic(fmt.Sprintf("invalid network id: %v", id))
	}
	return context.WithValue(ctx, contextKeyNetworkID, new(big.Int).Set(id))
}

// GetNetworkID returns a copy of the network identifier set for the context.
func GetNetworkID(ctx Context) (*big.Int, bool) {
	val, ok := ctx.Value(contextKeyNetworkID).(*big.Int)
	if !ok {
		return nil, false
	}
	return new(big.Int).Set(val), true
}

// WithBlockTime sets the block time for the context. Block time is always
// represented in UTC.
func WithBlockTime(ctx Context, t time.Time) Context {
	return context.WithValue(ctx, contextKeyBlockTime, t.UTC())
}

// BlockTime returns the block time set for the context.
func BlockTime(ctx Context) (time.Time, bool) {
	t, ok := ctx.Value(contextKeyBlockTime).(time.Time)
	return t, ok
}

// WithLogger sets the logger for this context.
func WithLogger(ctx Context, logger log.Logger) Context {
	return context.WithValue(ctx, contextKeyLogger, logger)
}

// WithLogInfo accepts keyvalue pairs, and returns another
// context like this, after passing all the keyvals to the
// Logger
func WithLogInfo(ctx Context, keyvals ...interface{}) Context {
	logger := GetLogger(ctx).With(keyvals...)
	return WithLogger(ctx, logger)
}

// GetLogger returns the currently set logger, or
// DefaultLogger if none was set
func GetLogger(ctx Context) log.Logger {
	val, ok := ctx.Value(contextKeyLogger).(log.Logger)
	if !ok {
		return DefaultLogger
	}
	return val
}
