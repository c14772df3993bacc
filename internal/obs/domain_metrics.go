package obs

import (
	"fmt"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	domainOnce sync.Once

	// BridgeOrdersTotal counts confirmation outcomes by submit mode and result.
	BridgeOrdersTotal *prometheus.CounterVec
	// ReconcileStrategyTotal counts which reconciliation branch handled a request.
	ReconcileStrategyTotal *prometheus.CounterVec
	// UpstreamRequestsTotal counts outbound calls to the payment processor and
	// commerce platform by outcome.
	UpstreamRequestsTotal *prometheus.CounterVec
	// UpstreamLatency records outbound call latency in milliseconds.
	UpstreamLatency *prometheus.HistogramVec
)

// MustRegisterDomainMetrics initialises and registers domain-specific Prometheus collectors.
func MustRegisterDomainMetrics(namespace string, reg prometheus.Registerer) {
	domainOnce.Do(func() {
		if reg == nil {
			reg = prometheus.DefaultRegisterer
		}
		BridgeOrdersTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "bridge_orders_total",
			Help:      "Count of payment confirmation outcomes by submit mode and result.",
		}, []string{"mode", "result"})
		ReconcileStrategyTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "reconcile_strategy_total",
			Help:      "Count of reconciliation strategies applied to confirmed payments.",
		}, []string{"strategy"})
		UpstreamRequestsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "upstream_requests_total",
			Help:      "Count of outbound upstream calls by target and result.",
		}, []string{"target", "result"})
		UpstreamLatency = prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "upstream_request_duration_ms",
			Help:      "Latency of outbound upstream calls in milliseconds.",
			Buckets:   []float64{10, 25, 50, 100, 250, 500, 1000, 2500, 5000},
		}, []string{"target"})

		mustRegisterCollector(reg, BridgeOrdersTotal, func(existing prometheus.Collector) {
			if v, ok := existing.(*prometheus.CounterVec); ok {
				BridgeOrdersTotal = v
			}
		})
		mustRegisterCollector(reg, ReconcileStrategyTotal, func(existing prometheus.Collector) {
			if v, ok := existing.(*prometheus.CounterVec); ok {
				ReconcileStrategyTotal = v
			}
		})
		mustRegisterCollector(reg, UpstreamRequestsTotal, func(existing prometheus.Collector) {
			if v, ok := existing.(*prometheus.CounterVec); ok {
				UpstreamRequestsTotal = v
			}
		})
		mustRegisterCollector(reg, UpstreamLatency, func(existing prometheus.Collector) {
			if v, ok := existing.(*prometheus.HistogramVec); ok {
				UpstreamLatency = v
			}
		})
	})
}

func mustRegisterCollector(reg prometheus.Registerer, collector prometheus.Collector, reuse func(prometheus.Collector)) {
	if err := reg.Register(collector); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if reuse != nil {
				reuse(are.ExistingCollector)
			}
			return
		}
		panic(fmt.Errorf("register domain metric: %w", err))
	}
}

// ObserveUpstream records one outbound call outcome.
func ObserveUpstream(target, result string, millis float64) {
	if UpstreamRequestsTotal != nil {
		UpstreamRequestsTotal.WithLabelValues(target, result).Inc()
	}
	if UpstreamLatency != nil {
		UpstreamLatency.WithLabelValues(target).Observe(millis)
	}
}
