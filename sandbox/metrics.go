package sandbox

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var execDuration = promauto.NewHistogram(prometheus.HistogramOpts{
	Name: "warden_sandbox_exec_duration_sec",
	Help: "Duration of completed sandboxed pattern matches",
})

var timeoutCount = promauto.NewCounter(prometheus.CounterOpts{
	Name: "warden_sandbox_timeouts",
	Help: "Number of pattern matches which exceeded their deadline",
})

var busyCount = promauto.NewCounter(prometheus.CounterOpts{
	Name: "warden_sandbox_busy",
	Help: "Number of pattern matches rejected because the pool was saturated",
})

var poolWorkers = promauto.NewGauge(prometheus.GaugeOpts{
	Name: "warden_sandbox_pool_workers",
	Help: "Configured sandbox worker pool size",
})

var abandonedGauge = promauto.NewGauge(prometheus.GaugeOpts{
	Name: "warden_sandbox_workers_abandoned",
	Help: "Workers currently abandoned mid-job due to deadline misses",
})
