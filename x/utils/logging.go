package utils

import (
	"time"

	"github.com/herorealm/realm"
)

// Logging is a decorator that logs every transaction together with the
// time it took to process it.
type Logging struct{}

var _ realm.Decorator = Logging{}

// NewLogging creates a Logging decorator
func NewLogging() Logging {
	return Logging{}
}

// Check logs failures at error level and successes at debug level.
func (Logging) Check(ctx realm.Context, db realm.KVStore, tx realm.Tx, next realm.Checker) (*realm.CheckResult, error) {
	start := time.Now()
	res, err := next.Check(ctx, db, tx)
	var msg string
	if err == nil {
		msg = res.Log
	}
	logDuration(ctx, start, msg, err, true)
	return res, err
}

// Deliver logs failures at error level and successes at info level.
func (Logging) Deliver(ctx realm.Context, db realm.KVStore, tx realm.Tx, next realm.Deliverer) (*realm.DeliverResult, error) {
	start := time.Now()
	res, err := next.Deliver(ctx, db, tx)
	var msg string
	if err == nil {
		msg = res.Log
	}
	logDuration(ctx, start, msg, err, false)
	return res, err
}

func logDuration(ctx realm.Context, start time.Time, msg string, err error, lowPrio bool) {
	logger := realm.GetLogger(ctx).With("duration", time.Since(start)/time.Microsecond)
	switch {
	case err != nil:
		logger.With("err", err).Error(msg)
	case lowPrio:
		logger.Debug(msg)
	default:
		logger.Info(msg)
	}
}
