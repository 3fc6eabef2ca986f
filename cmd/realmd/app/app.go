/*
Package realmd links together all the various components
to construct the realmd app.
*/
package realmd

import (
	"context"
	"path/filepath"

	"github.com/herorealm/realm"
	"github.com/herorealm/realm/app"
	"github.com/herorealm/realm/errors"
	"github.com/herorealm/realm/store"
	"github.com/herorealm/realm/x"
	"github.com/herorealm/realm/x/market"
	"github.com/herorealm/realm/x/multisig"
	"github.com/herorealm/realm/x/nft"
	"github.com/herorealm/realm/x/sigs"
	"github.com/herorealm/realm/x/token"
	"github.com/herorealm/realm/x/utils"
	"github.com/herorealm/realm/x/vault"
)

// Name is reported by the ABCI Info call.
const Name = "realmd"

// Authenticator returns the typical authentication, the secp256k1
// signers of a transaction. A multisig wallet acts through a call frame
// that replaces the signers.
func Authenticator() x.Authenticator {
	return x.ChainAuth(sigs.Authenticate{})
}

// Chain returns a chain of decorators, to handle authentication,
// logging, metrics and recovery
func Chain() app.Decorators {
	return app.ChainDecorators(
		utils.NewLogging(),
		utils.NewRecovery(),
		utils.NewMetrics(),
		// on CheckTx, bad tx don't affect state
		utils.NewSavepoint().OnCheck(),
		sigs.NewDecorator(),
		utils.NewActionTagger(),
		// on DeliverTx, bad tx will increment nonce
		// even if the message fails
		utils.NewSavepoint().OnDeliver(),
	)
}

// Router returns a router with the routes of all extensions.
func Router(auth x.Authenticator) *app.Router {
	r := app.NewRouter()
	tokens := token.NewController()
	nfts := nft.NewController()

	sigs.RegisterRoutes(r, auth)
	token.RegisterRoutes(r, auth, tokens)
	vault.RegisterRoutes(r, auth, tokens)
	nft.RegisterRoutes(r, auth, nfts, tokens)
	market.RegisterRoutes(r, auth, nfts, tokens)
	// wallet transactions are dispatched through the router itself,
	// signatures were already checked for the outer transaction
	multisig.RegisterRoutes(r, auth, r, tokens)
	return r
}

// QueryRouter returns a query router with the queries of all extensions.
func QueryRouter() realm.QueryRouter {
	r := realm.NewQueryRouter()
	r.RegisterAll(
		sigs.RegisterQuery,
		token.RegisterQuery,
		vault.RegisterQuery,
		nft.RegisterQuery,
		market.RegisterQuery,
		multisig.RegisterQuery,
	)
	return r
}

// Initializers loads the genesis sections of all extensions. Tokens go
// first as the other sections refer to them.
func Initializers() realm.Initializer {
	return app.ChainInitializers(
		&token.Initializer{},
		&nft.Initializer{},
		&vault.Initializer{},
		&market.Initializer{},
		&multisig.Initializer{},
	)
}

// Stack wires up a standard router with a standard decorator
// chain. This can be passed into BaseApp.
func Stack() realm.Handler {
	return Chain().WithHandler(Router(Authenticator()))
}

// Application constructs a basic ABCI application with
// the given arguments. If you are not sure what to use
// for the Handler, just use Stack().
//
// It panics if the state cannot be loaded from kv.
func Application(name string, h realm.Handler, kv realm.CommitKVStore, debug bool) app.BaseApp {
	storeApp := app.NewStoreApp(name, kv, QueryRouter(), context.Background())
	storeApp.WithInit(Initializers())
	return app.NewBaseApp(storeApp, app.DecodeTx, h, debug)
}

// CommitKVStore returns an initialized KVStore that persists
// the data to the named directory. An empty path creates an in-memory
// store.
func CommitKVStore(dbPath string) (*store.CommitStore, error) {
	if dbPath == "" {
		return store.NewMemCommitStore()
	}
	path, err := filepath.Abs(dbPath)
	if err != nil {
		return nil, errors.Wrapf(errors.ErrInput, "invalid database path %q", dbPath)
	}
	return store.NewCommitStore(path)
}
