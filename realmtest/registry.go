package realmtest

import (
	"fmt"

	"github.com/herorealm/realm"
	"github.com/herorealm/realm/errors"
)

// Registry collects handlers by message path, so that extension tests can
// route transactions without building the application.
type Registry map[string]realm.Handler

var (
	_ realm.Registry = Registry{}
	_ realm.Handler  = Registry{}
)

func (r Registry) Handle(path string, h realm.Handler) {
	if _, ok := r[path]; ok {
		panic(fmt.Sprintf("re-registering route: %s", path))
	}
	r[path] = h
}

func (r Registry) handler(tx realm.Tx) (realm.Handler, error) {
	path := realm.GetPath(tx)
	h, ok := r[path]
	if !ok {
		return nil, errors.Wrapf(errors.ErrNotFound, "no handler for %q", path)
	}
	return h, nil
}

// Check routes the transaction to the handler of its message.
func (r Registry) Check(ctx realm.Context, db realm.KVStore, tx realm.Tx) (*realm.CheckResult, error) {
	h, err := r.handler(tx)
	if err != nil {
		return nil, err
	}
	return h.Check(ctx, db, tx)
}

// Deliver routes the transaction to the handler of its message.
func (r Registry) Deliver(ctx realm.Context, db realm.KVStore, tx realm.Tx) (*realm.DeliverResult, error) {
	h, err := r.handler(tx)
	if err != nil {
		return nil, err
	}
	return h.Deliver(ctx, db, tx)
}
