package utils

import (
	"fmt"

	"github.com/herorealm/realm"
	"github.com/herorealm/realm/errors"
)

// Recovery turns a panic raised below it into an ErrPanic error, so the
// transaction fails and its cache wrap is dropped instead of the node going
// down. Clients only see a redacted internal error for ErrPanic, so the
// panic value is logged here together with the message path.
type Recovery struct{}

var _ realm.Decorator = Recovery{}

// NewRecovery creates a Recovery decorator
func NewRecovery() Recovery {
	return Recovery{}
}

func (Recovery) Check(ctx realm.Context, db realm.KVStore, tx realm.Tx, next realm.Checker) (_ *realm.CheckResult, err error) {
	defer recoverTx(ctx, tx, &err)
	return next.Check(ctx, db, tx)
}

func (Recovery) Deliver(ctx realm.Context, db realm.KVStore, tx realm.Tx, next realm.Deliverer) (_ *realm.DeliverResult, err error) {
	defer recoverTx(ctx, tx, &err)
	return next.Deliver(ctx, db, tx)
}

func recoverTx(ctx realm.Context, tx realm.Tx, err *error) {
	r := recover()
	if r == nil {
		return
	}
	path := "unknown"
	if tx != nil {
		if msg, e := tx.GetMsg(); e == nil && msg != nil {
			path = msg.Path()
		}
	}
	realm.GetLogger(ctx).Error("panic in handler", "path", path, "panic", fmt.Sprint(r))
	*err = errors.Wrapf(errors.ErrPanic, "%v", r)
}
