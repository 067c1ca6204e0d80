package gameapi

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the counters the handler bumps as games progress.
type Metrics struct {
	GamesCreated       prometheus.Counter
	GamesFinished      prometheus.Counter
	CardsDrawn         prometheus.Counter
	InvitationsCreated prometheus.Counter
}

// NewMetrics registers the handler's counters on reg. A nil reg gets a
// private registry so tests never collide on the default one.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.NewRegistry()
	}
	f := promauto.With(reg)
	return &Metrics{
		GamesCreated: f.NewCounter(prometheus.CounterOpts{
			Name: "pontoon_games_created_total",
			Help: "Games created through the API.",
		}),
		GamesFinished: f.NewCounter(prometheus.CounterOpts{
			Name: "pontoon_games_finished_total",
			Help: "Games that reached the finished phase.",
		}),
		CardsDrawn: f.NewCounter(prometheus.CounterOpts{
			Name: "pontoon_cards_drawn_total",
			Help: "Cards drawn by players.",
		}),
		InvitationsCreated: f.NewCounter(prometheus.CounterOpts{
			Name: "pontoon_invitations_created_total",
			Help: "Invitations issued.",
		}),
	}
}
