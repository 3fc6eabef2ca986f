package realmtest

import (
	"context"
	"math/big"
	"time"

	"github.com/herorealm/realm"
)

const (
	// ChainID is the chain id set by Ctx.
	ChainID = "realm-test"
	// NetworkID is the network id set by Ctx, used in signing domains.
	NetworkID = 43114
)

// Ctx returns a context prepared the way the application prepares it for
// a transaction of the first block.
func Ctx() realm.Context {
	ctx := context.Background()
	ctx = realm.WithChainID(ctx, ChainID)
	ctx = realm.WithNetworkID(ctx, big.NewInt(NetworkID))
	ctx = realm.WithHeight(ctx, 1)
	ctx = realm.WithBlockTime(ctx, time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC))
	return ctx
}

// SequenceID returns the 8 byte big endian form of n, the way orm
// sequences encode ids.
func SequenceID(n uint64) []byte {
	b := make([]byte, 8)
	for i := 7; i >= 0; i-- {
		b[i] = byte(n)
		n >>= 8
	}
	return b
}
