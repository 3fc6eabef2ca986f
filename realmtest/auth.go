package realmtest

import (
	"context"
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/herorealm/realm"
)

// Auth is a mock implementing x.Authenticator interface.
//
// This structure authenticates any of referenced addresses.
// You can use either Signer or Signers (or both) attributes to reference
// addresses. Signer is always returned first.
type Auth struct {
	// Signer represents an authentication of a single signer.
	Signer common.Address

	// Signers represents an authentication of multiple signers.
	Signers []common.Address
}

func (a *Auth) GetAddresses(realm.Context) []common.Address {
	if a.Signer != (common.Address{}) {
		return append([]common.Address{a.Signer}, a.Signers...)
	}
	return a.Signers
}

func (a *Auth) HasAddress(ctx realm.Context, addr common.Address) bool {
	for _, s := range a.GetAddresses(ctx) {
		if s == addr {
			return true
		}
	}
	return false
}

// CtxAuth is a mock implementing x.Authenticator interface.
//
// This implementation is using context to store and retrieve addresses, so
// a single handler instance can be called by different signers.
type CtxAuth struct {
	// Key used to set and retrieve addresses from the context.
	Key string
}

type ctxAuthKey string

// SetAddresses returns a context authenticated by the given addresses.
func (a *CtxAuth) SetAddresses(ctx realm.Context, addrs ...common.Address) realm.Context {
	return context.WithValue(ctx, ctxAuthKey(a.Key), addrs)
}

func (a *CtxAuth) GetAddresses(ctx realm.Context) []common.Address {
	val := ctx.Value(ctxAuthKey(a.Key))
	if val == nil {
		return nil
	}
	addrs, ok := val.([]common.Address)
	if !ok {
		panic(fmt.Sprintf("instead of []common.Address got %T", val))
	}
	return addrs
}

func (a *CtxAuth) HasAddress(ctx realm.Context, addr common.Address) bool {
	for _, s := range a.GetAddresses(ctx) {
		if s == addr {
			return true
		}
	}
	return false
}
