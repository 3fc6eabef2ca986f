package utils

import (
	"strconv"

	"github.com/herorealm/realm"
	"github.com/herorealm/realm/errors"
	"github.com/prometheus/client_golang/prometheus"
)

var deliveredTxs = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: "realm",
		Name:      "delivered_transactions_total",
		Help:      "Number of delivered transactions by message path and ABCI code.",
	},
	[]string{"path", "code"},
)

func init() {
	prometheus.MustRegister(deliveredTxs)
}

// Metrics counts delivered transactions per message path and result code.
// Check calls are not counted.
type Metrics struct{}

var _ realm.Decorator = Metrics{}

// NewMetrics creates a Metrics decorator
func NewMetrics() Metrics {
	return Metrics{}
}

// Check just passes the request along
func (Metrics) Check(ctx realm.Context, db realm.KVStore, tx realm.Tx, next realm.Checker) (*realm.CheckResult, error) {
	return next.Check(ctx, db, tx)
}

// Deliver increments the counter for the outcome of the call.
func (Metrics) Deliver(ctx realm.Context, db realm.KVStore, tx realm.Tx, next realm.Deliverer) (*realm.DeliverResult, error) {
	res, err := next.Deliver(ctx, db, tx)
	code, _ := errors.ABCIInfo(err, false)
	deliveredTxs.WithLabelValues(realm.GetPath(tx), strconv.FormatUint(uint64(code), 10)).Inc()
	return res, err
}
