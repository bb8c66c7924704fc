// Package metrics exposes Prometheus instruments for the tracker.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type Manager struct {
	// counters
	CounterRequests             *prometheus.CounterVec
	CounterExercisesCompleted   *prometheus.CounterVec
	CounterRoutinesCompleted    *prometheus.CounterVec
	CounterAchievementsUnlocked prometheus.Counter
	CounterDailyResets          prometheus.Counter
	CounterRemindersSent        *prometheus.CounterVec
	CounterPersistenceFailures  *prometheus.CounterVec
	CounterBackups              *prometheus.CounterVec
	CounterRateLimitedRequests  prometheus.Counter

	// gauges
	GaugeTimerActive prometheus.Gauge
	GaugeWSClients   prometheus.Gauge
	GaugeStreak      prometheus.Gauge
	GaugeLevel       prometheus.Gauge

	// histograms
	HistogramRequestDuration *prometheus.HistogramVec
	HistBackupDuration       prometheus.Histogram
}

// NewRegistry returns a registry with the Go build, runtime and process collectors.
func NewRegistry() *prometheus.Registry {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewBuildInfoCollector(),
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return reg
}

func NewTestManager() (*Manager, *prometheus.Registry) {
	reg := prometheus.NewRegistry()
	return NewManager("mobilityquest", "test", reg), reg
}

func NewManager(namespace, subsystem string, reg prometheus.Registerer) *Manager {
	factory := promauto.With(reg)

	counter := func(name, help string) prometheus.Counter {
		return factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      name,
			Help:      help,
		})
	}
	counterVec := func(name, help string, labels ...string) *prometheus.CounterVec {
		return factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      name,
			Help:      help,
		}, labels)
	}
	gauge := func(name, help string) prometheus.Gauge {
		return factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      name,
			Help:      help,
		})
	}

	return &Manager{
		CounterRequests:             counterVec("requests_total", "The total number of incoming requests", "method", "status"),
		CounterExercisesCompleted:   counterVec("exercises_completed_total", "Exercises completed by the timer", "routine"),
		CounterRoutinesCompleted:    counterVec("routines_completed_total", "Routines completed", "routine"),
		CounterAchievementsUnlocked: counter("achievements_unlocked_total", "Achievements unlocked"),
		CounterDailyResets:          counter("daily_resets_total", "Daily routine resets performed"),
		CounterRemindersSent:        counterVec("reminders_sent_total", "Routine reminders delivered", "routine"),
		CounterPersistenceFailures:  counterVec("persistence_failures_total", "Swallowed persistence failures", "op"),
		CounterBackups:              counterVec("backups_total", "Backups attempted", "status"),
		CounterRateLimitedRequests:  counter("rate_limited_requests_total", "The total number of rate limited requests"),

		GaugeTimerActive: gauge("timer_active", "Whether an exercise countdown is running"),
		GaugeWSClients:   gauge("websocket_clients", "Connected websocket clients"),
		GaugeStreak:      gauge("streak_days", "Current daily streak"),
		GaugeLevel:       gauge("level", "Current level"),

		HistogramRequestDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "request_duration_seconds",
			Help:      "Histogram of response time for requests in seconds",
			Buckets:   []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
		}, []string{"route", "method", "status_code"}),
		HistBackupDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "backup_duration_seconds",
			Help:      "Duration of a single backup in seconds",
			Buckets:   []float64{0.01, 0.1, 0.5, 1, 5, 10, 30, 60},
		}),
	}
}

// Handler serves the registry in the Prometheus exposition format.
func Handler(reg *prometheus.Registry) http.Handler {
	return promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg})
}
