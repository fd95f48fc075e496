package main

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var eventsReceived = promauto.NewCounter(prometheus.CounterOpts{
	Name: "wardend_events_received",
	Help: "Number of event frames received from the gateway",
})

var eventsFailed = promauto.NewCounter(prometheus.CounterOpts{
	Name: "wardend_events_failed",
	Help: "Number of event frames that failed decoding or processing",
})

var currentCursor = promauto.NewGauge(prometheus.GaugeOpts{
	Name: "wardend_current_cursor",
	Help: "Unix millis of the last consumed event",
})
