package service

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the service's Prometheus collectors
type Metrics struct {
	SessionsCreated prometheus.Counter
	Plays           *prometheus.CounterVec
	FoodEaten       prometheus.Counter
	GamesOver       *prometheus.CounterVec
	RunningDrivers  prometheus.Gauge
	PlayDuration    prometheus.Histogram
}

// NewMetrics creates the collectors and registers them with reg.
// A nil reg leaves them unregistered.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		SessionsCreated: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "snake_sessions_created_total",
			Help: "Total number of game sessions created",
		}),
		Plays: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "snake_plays_total",
			Help: "Total number of engine plays by source (manual, bulk, tick)",
		}, []string{"source"}),
		FoodEaten: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "snake_food_eaten_total",
			Help: "Total number of food items eaten",
		}),
		GamesOver: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "snake_games_over_total",
			Help: "Total number of games ended, by reason",
		}, []string{"reason"}),
		RunningDrivers: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "snake_running_drivers",
			Help: "Number of sessions currently driven by the tick driver",
		}),
		PlayDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "snake_play_duration_seconds",
			Help:    "Time spent inside a single engine play",
			Buckets: prometheus.ExponentialBuckets(0.000001, 4, 10),
		}),
	}

	if reg != nil {
		reg.MustRegister(m.SessionsCreated, m.Plays, m.FoodEaten, m.GamesOver, m.RunningDrivers, m.PlayDuration)
	}
	return m
}

func (m *Metrics) observePlay(source string, seconds float64, foodAte bool, reason string) {
	if m == nil {
		return
	}
	m.Plays.WithLabelValues(source).Inc()
	m.PlayDuration.Observe(seconds)
	if foodAte {
		m.FoodEaten.Inc()
	}
	if reason != "" {
		m.GamesOver.WithLabelValues(reason).Inc()
	}
}
