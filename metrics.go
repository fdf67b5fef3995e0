package settings

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// notificationsTotal counts cross-window notifications by outcome
	notificationsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "settings_notifications_total",
		Help: "Cross-window settings notifications by outcome",
	}, []string{"outcome"})

	// localWritesTotal counts local edits by result
	localWritesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "settings_local_writes_total",
		Help: "Local settings writes by result",
	}, []string{"result"})

	// ruleEvalDuration tracks display rule latency per engine
	ruleEvalDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "settings_rule_eval_duration_seconds",
		Help:    "Display rule evaluation duration in seconds",
		Buckets: prometheus.ExponentialBuckets(0.00001, 2, 12), // 10us to ~20ms
	}, []string{"engine"})
)

func recordLocalWrite(err error) {
	if err != nil {
		localWritesTotal.WithLabelValues("error").Inc()
		return
	}
	localWritesTotal.WithLabelValues("ok").Inc()
}
