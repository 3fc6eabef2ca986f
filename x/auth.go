package x

import (
	"context"

	"github.com/ethereum/go-ethereum/common"
	"github.com/herorealm/realm"
)

// Authenticator is an interface we can use to extract authentication info
// from the context. This should be passed into the constructor of
// handlers, so we can plug in another authentication system,
// rather than hard-coding x/sigs for all extensions.
type Authenticator interface {
	// GetAddresses returns all addresses that authorized the current
	// call, main signer first.
	GetAddresses(realm.Context) []common.Address
	// HasAddress checks if the address authorized the current call.
	HasAddress(realm.Context, common.Address) bool
}

type contextKey int

const contextKeyCallFrame contextKey = iota

// WithCallFrame returns a context in which the given address is the only
// authorized caller for every MultiAuth. A module account (such as a
// multisig wallet) uses it to dispatch a stored message as itself. The
// transaction signers are not visible inside the frame.
func WithCallFrame(ctx realm.Context, addr common.Address) realm.Context {
	return context.WithValue(ctx, contextKeyCallFrame, addr)
}

// CallFrame returns the address of the current call frame, if any.
func CallFrame(ctx realm.Context) (common.Address, bool) {
	addr, ok := ctx.Value(contextKeyCallFrame).(common.Address)
	return addr, ok
}

// MultiAuth chains together many Authenticators into one
type MultiAuth struct {
	impls []Authenticator
}

var _ Authenticator = MultiAuth{}

// ChainAuth groups together a series of Authenticator
func ChainAuth(impls ...Authenticator) MultiAuth {
	return MultiAuth{impls}
}

// GetAddresses combines all addresses from all Authenticators, without
// duplicates. Inside a call frame only the frame address is returned.
func (m MultiAuth) GetAddresses(ctx realm.Context) []common.Address {
	if addr, ok := CallFrame(ctx); ok {
		return []common.Address{addr}
	}
	var res []common.Address
	seen := make(map[common.Address]struct{})
	for _, impl := range m.impls {
		for _, a := range impl.GetAddresses(ctx) {
			if _, ok := seen[a]; ok {
				continue
			}
			seen[a] = struct{}{}
			res = append(res, a)
		}
	}
	return res
}

// HasAddress returns true iff any Authenticator support this
func (m MultiAuth) HasAddress(ctx realm.Context, addr common.Address) bool {
	if frame, ok := CallFrame(ctx); ok {
		return frame == addr
	}
	for _, impl := range m.impls {
		if impl.HasAddress(ctx, addr) {
			return true
		}
	}
	return false
}

// MainSigner returns the first authorized address, if any.
func MainSigner(ctx realm.Context, auth Authenticator) (common.Address, bool) {
	addrs := auth.GetAddresses(ctx)
	if len(addrs) == 0 {
		return common.Address{}, false
	}
	return addrs[0], true
}

// HasAllAddresses returns true if all elements in required are
// also in context.
func HasAllAddresses(ctx realm.Context, auth Authenticator, required []common.Address) bool {
	for _, r := range required {
		if !auth.HasAddress(ctx, r) {
			return false
		}
	}
	return true
}

// HasNAddresses returns true if at least n elements in requested are
// also in context.
func HasNAddresses(ctx realm.Context, auth Authenticator, required []common.Address, n int) bool {
	if n <= 0 {
		return true
	}
	for _, r := range required {
		if auth.HasAddress(ctx, r) {
			n--
			if n == 0 {
				return true
			}
		}
	}
	return false
}
