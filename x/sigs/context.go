package sigs

import (
	"context"

	"github.com/ethereum/go-ethereum/common"
	"github.com/herorealm/realm"
	"github.com/herorealm/realm/x"
)

type contextKey int // local to the sigs module

const (
	contextKeySigners contextKey = iota
)

// withSigners is a private method, as only this module
// can add a signer
func withSigners(ctx realm.Context, signers []common.Address) realm.Context {
	return context.WithValue(ctx, contextKeySigners, signers)
}

// Authenticate exposes the verified signers of the current transaction.
type Authenticate struct{}

var _ x.Authenticator = Authenticate{}

// GetAddresses returns who signed the current Context.
// May be empty
func (a Authenticate) GetAddresses(ctx realm.Context) []common.Address {
	val, _ := ctx.Value(contextKeySigners).([]common.Address)
	return val
}

// HasAddress returns true if the address signed the current Context.
func (a Authenticate) HasAddress(ctx realm.Context, addr common.Address) bool {
	for _, s := range a.GetAddresses(ctx) {
		if s == addr {
			return true
		}
	}
	return false
}
