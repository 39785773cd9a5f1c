package service

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/Alturino/storefront/internal/common/constants"
)

type Metrics struct {
	OrdersPlaced    prometheus.Counter
	OrdersFailed    prometheus.Counter
	PromoRejections prometheus.Counter
}

// NewMetrics registers the checkout counters on reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	namespace := "storefront"
	subsystem := "checkout"
	m := &Metrics{
		OrdersPlaced: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace:   namespace,
			Subsystem:   subsystem,
			Name:        "orders_placed_total",
			Help:        "Orders accepted by the order submitter.",
			ConstLabels: prometheus.Labels{"service": constants.APP_CHECKOUT_SERVICE},
		}),
		OrdersFailed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace:   namespace,
			Subsystem:   subsystem,
			Name:        "orders_failed_total",
			Help:        "Order submissions that failed or were abandoned.",
			ConstLabels: prometheus.Labels{"service": constants.APP_CHECKOUT_SERVICE},
		}),
		PromoRejections: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace:   namespace,
			Subsystem:   subsystem,
			Name:        "promo_rejections_total",
			Help:        "Promo codes that did not resolve to a rule.",
			ConstLabels: prometheus.Labels{"service": constants.APP_CHECKOUT_SERVICE},
		}),
	}
	reg.MustRegister(m.OrdersPlaced, m.OrdersFailed, m.PromoRejections)
	return m
}
