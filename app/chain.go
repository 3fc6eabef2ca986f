package app

import (
	"github.com/herorealm/realm"
)

// Decorators holds a chain of decorators, not yet resolved by a Handler
type Decorators struct {
	chain []realm.Decorator
}

/*
ChainDecorators takes a chain of decorators,
and upon adding a final Handler (often a Router),
returns a Handler that will execute this whole stack.

	app.ChainDecorators(
		utils.NewLogging(),
		utils.NewRecovery(),
		sigs.NewDecorator(),
		utils.NewSavepoint().OnDeliver(),
	).WithHandler(
		router,
	)
*/
func ChainDecorators(chain ...realm.Decorator) Decorators {
	return Decorators{}.Chain(chain...)
}

// Chain returns a new Decorators with the given decorators appended. Nil
// decorators are skipped, so optional steps can be passed unconditionally.
func (d Decorators) Chain(chain ...realm.Decorator) Decorators {
	next := make([]realm.Decorator, 0, len(d.chain)+len(chain))
	next = append(next, d.chain...)
	for _, dec := range chain {
		if dec != nil {
			next = append(next, dec)
		}
	}
	return Decorators{chain: next}
}

// WithHandler resolves the stack and returns a concrete Handler
// that will pass through the chain of decorators before calling
// the final Handler.
func (d Decorators) WithHandler(h realm.Handler) realm.Handler {
	// the first decorator of the chain is the outermost one
	for i := len(d.chain) - 1; i >= 0; i-- {
		h = step{d: d.chain[i], next: h}
	}
	return h
}

// step captures one decorator executed around a specific Handler.
type step struct {
	d    realm.Decorator
	next realm.Handler
}

var _ realm.Handler = step{}

func (s step) Check(ctx realm.Context, db realm.KVStore, tx realm.Tx) (*realm.CheckResult, error) {
	return s.d.Check(ctx, db, tx, s.next)
}

func (s step) Deliver(ctx realm.Context, db realm.KVStore, tx realm.Tx) (*realm.DeliverResult, error) {
	return s.d.Deliver(ctx, db, tx, s.next)
}
