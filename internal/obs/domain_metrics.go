package obs

import (
	"fmt"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	domainOnce sync.Once

	// OrdersTotal counts order create/update/delete outcomes.
	OrdersTotal *prometheus.CounterVec
	// ShipmentStatusTotal counts shipment status changes by target status.
	ShipmentStatusTotal *prometheus.CounterVec
	// FXFetchTotal counts exchange-rate fetch outcomes against the upstream provider.
	FXFetchTotal *prometheus.CounterVec
	// FXFetchLatency records upstream exchange-rate fetch latency in milliseconds.
	FXFetchLatency prometheus.Histogram
	// LoginTotal counts login attempts by outcome.
	LoginTotal *prometheus.CounterVec
	// DashboardCacheTotal counts dashboard cache hits and misses.
	DashboardCacheTotal *prometheus.CounterVec
)

// MustRegisterDomainMetrics initialises and registers domain-specific Prometheus collectors.
func MustRegisterDomainMetrics(namespace string, reg prometheus.Registerer) {
	domainOnce.Do(func() {
		if reg == nil {
			reg = prometheus.DefaultRegisterer
		}
		OrdersTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "orders_total",
			Help:      "Count of order mutations by operation and result.",
		}, []string{"op", "result"})
		ShipmentStatusTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "shipment_status_total",
			Help:      "Count of shipment status transitions by target status.",
		}, []string{"status"})
		FXFetchTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "fx_fetch_total",
			Help:      "Count of exchange-rate fetches by outcome.",
		}, []string{"result"})
		FXFetchLatency = prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "fx_fetch_duration_ms",
			Help:      "Latency of upstream exchange-rate fetches in milliseconds.",
			Buckets:   []float64{25, 50, 100, 250, 500, 1000, 2500, 5000},
		})
		LoginTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "login_total",
			Help:      "Count of login attempts by outcome.",
		}, []string{"result"})
		DashboardCacheTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "dashboard_cache_total",
			Help:      "Dashboard cache lookups by outcome.",
		}, []string{"result"})

		mustRegisterCollector(reg, OrdersTotal, func(existing prometheus.Collector) {
			if v, ok := existing.(*prometheus.CounterVec); ok {
				OrdersTotal = v
			}
		})
		mustRegisterCollector(reg, ShipmentStatusTotal, func(existing prometheus.Collector) {
			if v, ok := existing.(*prometheus.CounterVec); ok {
				ShipmentStatusTotal = v
			}
		})
		mustRegisterCollector(reg, FXFetchTotal, func(existing prometheus.Collector) {
			if v, ok := existing.(*prometheus.CounterVec); ok {
				FXFetchTotal = v
			}
		})
		mustRegisterCollector(reg, FXFetchLatency, func(existing prometheus.Collector) {
			if v, ok := existing.(prometheus.Histogram); ok {
				FXFetchLatency = v
			}
		})
		mustRegisterCollector(reg, LoginTotal, func(existing prometheus.Collector) {
			if v, ok := existing.(*prometheus.CounterVec); ok {
				LoginTotal = v
			}
		})
		mustRegisterCollector(reg, DashboardCacheTotal, func(existing prometheus.Collector) {
			if v, ok := existing.(*prometheus.CounterVec); ok {
				DashboardCacheTotal = v
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
