package utils

import (
	"github.com/herorealm/realm"
	"github.com/herorealm/realm/errors"
)

// Savepoint runs the rest of the chain against a cache wrap of the store.
// The cache is written back when the call succeeds and dropped when it
// fails, so a failing transaction leaves no partial state behind.
type Savepoint struct {
	onCheck   bool
	onDeliver bool
}

var _ realm.Decorator = Savepoint{}

// NewSavepoint creates a Savepoint decorator that is inactive until
// OnCheck or OnDeliver is called.
func NewSavepoint() Savepoint {
	return Savepoint{}
}

// OnCheck returns a savepoint that will trigger on CheckTx
func (s Savepoint) OnCheck() Savepoint {
	s.onCheck = true
	return s
}

// OnDeliver returns a savepoint that will trigger on DeliverTx
func (s Savepoint) OnDeliver() Savepoint {
	s.onDeliver = true
	return s
}

// Check will optionally set a savepoint
func (s Savepoint) Check(ctx realm.Context, db realm.KVStore, tx realm.Tx, next realm.Checker) (*realm.CheckResult, error) {
	cstore, ok := db.(realm.CacheableKVStore)
	if !s.onCheck || !ok {
		return next.Check(ctx, db, tx)
	}

	cache := cstore.CacheWrap()
	res, err := next.Check(ctx, cache, tx)
	if err != nil {
		cache.Discard()
		return nil, err
	}
	if err := cache.Write(); err != nil {
		return nil, errors.Wrap(err, "write savepoint")
	}
	return res, nil
}

// Deliver will optionally set a savepoint
func (s Savepoint) Deliver(ctx realm.Context, db realm.KVStore, tx realm.Tx, next realm.Deliverer) (*realm.DeliverResult, error) {
	cstore, ok := db.(realm.CacheableKVStore)
	if !s.onDeliver || !ok {
		return next.Deliver(ctx, db, tx)
	}

	cache := cstore.CacheWrap()
	res, err := next.Deliver(ctx, cache, tx)
	if err != nil {
		cache.Discard()
		return nil, err
	}
	if err := cache.Write(); err != nil {
		return nil, errors.Wrap(err, "write savepoint")
	}
	return res, nil
}
