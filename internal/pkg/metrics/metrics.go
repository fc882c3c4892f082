package metrics

import "github.com/prometheus/client_golang/prometheus"

var (
	// QuotesTotal counts quote requests by outcome: ok, no_quote,
	// no_liquidity, error.
	QuotesTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "dexgate",
		Name:      "quotes_total",
		Help:      "Quote engine requests by outcome.",
	}, []string{"outcome"})

	QuoteDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: "dexgate",
		Name:      "quote_duration_seconds",
		Help:      "Latency of quote computation including the router call.",
		Buckets:   prometheus.DefBuckets,
	})

	// TransactionsTotal counts orchestrated intents by kind (swap,
	// add_liquidity, remove_liquidity) and terminal outcome.
	TransactionsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "dexgate",
		Name:      "transactions_total",
		Help:      "Orchestrated transactions by kind and terminal outcome.",
	}, []string{"kind", "outcome"})

	RPCRequestsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "dexgate",
		Name:      "rpc_requests_total",
		Help:      "Provider JSON-RPC requests by method and outcome.",
	}, []string{"method", "outcome"})

	ReceiptPollAttempts = prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: "dexgate",
		Name:      "receipt_poll_attempts",
		Help:      "Polling attempts needed before a receipt was observed.",
		Buckets:   []float64{1, 2, 3, 5, 8, 13, 21, 34, 40},
	})
)

// MustRegister installs all gateway collectors on the default registry.
func MustRegister() {
	prometheus.MustRegister(
		QuotesTotal,
		QuoteDuration,
		TransactionsTotal,
		RPCRequestsTotal,
		ReceiptPollAttempts,
	)
}
