package realmtest

import "github.com/herorealm/realm"

// Decorator is a mock implementation of the realm.Decorator interface.
//
// Set CheckErr or DeliverErr to force error response for corresponding method.
// If error attributes are not set then wrapped handler method is called and
// its result returned.
// Each method call is counted. Regardless of the method call result the
// counter is incremented.
type Decorator struct {
	checkCall int
	// CheckErr if set is returned by the Check method before calling
	// the wrapped handler.
	CheckErr error

	deliverCall int
	// DeliverErr if set is returned by the Deliver method before calling
	// the wrapped handler.
	DeliverErr error
}

var _ realm.Decorator = (*Decorator)(nil)

func (d *Decorator) Check(ctx realm.Context, db realm.KVStore, tx realm.Tx, next realm.Checker) (*realm.CheckResult, error) {
	d.checkCall++
	if d.CheckErr != nil {
		return nil, d.CheckErr
	}
	return next.Check(ctx, db, tx)
}

func (d *Decorator) Deliver(ctx realm.Context, db realm.KVStore, tx realm.Tx, next realm.Deliverer) (*realm.DeliverResult, error) {
	d.deliverCall++
	if d.DeliverErr != nil {
		return nil, d.DeliverErr
	}
	return next.Deliver(ctx, db, tx)
}

func (d *Decorator) CheckCallCount() int {
	return d.checkCall
}

func (d *Decorator) DeliverCallCount() int {
	return d.deliverCall
}

func (d *Decorator) CallCount() int {
	return d.checkCall + d.deliverCall
}

// Decorate returns a handler that calls h through d.
func Decorate(h realm.Handler, d realm.Decorator) realm.Handler {
	return &decoratedHandler{hn: h, dc: d}
}

type decoratedHandler struct {
	hn realm.Handler
	dc realm.Decorator
}

var _ realm.Handler = (*decoratedHandler)(nil)

func (d *decoratedHandler) Check(ctx realm.Context, db realm.KVStore, tx realm.Tx) (*realm.CheckResult, error) {
	return d.dc.Check(ctx, db, tx, d.hn)
}

func (d *decoratedHandler) Deliver(ctx realm.Context, db realm.KVStore, tx realm.Tx) (*realm.DeliverResult, error) {
	return d.dc.Deliver(ctx, db, tx, d.hn)
}
