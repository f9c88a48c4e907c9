package service

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/wricardo/stacktower/game/engine"
)

// Metrics holds the Prometheus collectors for game activity
type Metrics struct {
	placements     *prometheus.CounterVec
	debris         prometheus.Counter
	gamesOver      prometheus.Counter
	sessionsActive prometheus.Gauge
}

// NewMetrics creates the game collectors and registers them with reg.
// A nil reg leaves them unregistered. Collectors already present in reg
// are reused, so several services can share one registry.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		placements: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "stacktower",
			Name:      "placements_total",
			Help:      "Placements by result (hit, grow, cut, game_over).",
		}, []string{"result"}),
		debris: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "stacktower",
			Name:      "debris_total",
			Help:      "Debris pieces cut off placed tiles.",
		}),
		gamesOver: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "stacktower",
			Name:      "games_over_total",
			Help:      "Games that ended with a missed placement.",
		}),
		sessionsActive: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "stacktower",
			Name:      "sessions_active",
			Help:      "Sessions currently held in memory.",
		}),
	}

	if reg != nil {
		m.placements = register(reg, m.placements)
		m.debris = register(reg, m.debris)
		m.gamesOver = register(reg, m.gamesOver)
		m.sessionsActive = register(reg, m.sessionsActive)
	}
	return m
}

func register[C prometheus.Collector](reg prometheus.Registerer, c C) C {
	if err := reg.Register(c); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := are.ExistingCollector.(C); ok {
				return existing
			}
		}
		panic(err)
	}
	return c
}

// observePlacement counts one placement and the events it produced
func (m *Metrics) observePlacement(result engine.PlacementResult, events []GameEvent) {
	if m == nil {
		return
	}
	m.placements.WithLabelValues(string(result)).Inc()
	for _, ev := range events {
		switch ev.Type {
		case EventDebris:
			m.debris.Inc()
		case EventGameOver:
			m.gamesOver.Inc()
		}
	}
}

func (m *Metrics) setSessions(n int) {
	if m == nil {
		return
	}
	m.sessionsActive.Set(float64(n))
}

// Placements returns the placement counter for a result
func (m *Metrics) Placements(result engine.PlacementResult) prometheus.Counter {
	return m.placements.WithLabelValues(string(result))
}

// Debris returns the debris counter
func (m *Metrics) Debris() prometheus.Counter { return m.debris }

// GamesOver returns the game over counter
func (m *Metrics) GamesOver() prometheus.Counter { return m.gamesOver }

// SessionsActive returns the active sessions gauge
func (m *Metrics) SessionsActive() prometheus.Gauge { return m.sessionsActive }
