package multisig

import "github.com/prometheus/client_golang/prometheus"

var (
	executions = prometheus.NewCounter(
		prometheus.CounterOpts{
			Help:      "Number of executed wallet transactions",
			Name:      "multisig_executions_total",
			Namespace: "realm",
		},
	)
	executionFailures = prometheus.NewCounter(
		prometheus.CounterOpts{
			Help:      "Number of wallet transaction executions that failed and stayed pending",
			Name:      "multisig_execution_failures_total",
			Namespace: "realm",
		},
	)
)

func init() {
	prometheus.MustRegister(executions, executionFailures)
}
