// Package metrics объявляет счётчики Prometheus, которые отдаются на /metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// PaymentsSubmitted: принятые заявки на оплату по плану и способу.
	PaymentsSubmitted = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "pelisbot_payments_submitted_total",
		Help: "Payment requests accepted for review.",
	}, []string{"plan", "method"})

	// Reviews: решения администраторов по заявкам.
	Reviews = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "pelisbot_payment_reviews_total",
		Help: "Payment request reviews by outcome.",
	}, []string{"outcome"})

	// Deliveries: отправленные фильмы.
	Deliveries = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "pelisbot_deliveries_total",
		Help: "Movies forwarded to subscribers.",
	}, []string{"protected", "result"})

	// Notifications: уведомления по результату.
	Notifications = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "pelisbot_notifications_total",
		Help: "Notifications sent or enqueued.",
	}, []string{"result"})
)
