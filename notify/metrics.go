package notify

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var alertsSent = promauto.NewCounter(prometheus.CounterOpts{
	Name: "warden_alerts_sent",
	Help: "Number of operator alerts delivered to the webhook",
})

var alertsDropped = promauto.NewCounter(prometheus.CounterOpts{
	Name: "warden_alerts_dropped",
	Help: "Number of operator alerts dropped by the rate limiter",
})
