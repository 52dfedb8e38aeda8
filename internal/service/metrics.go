package service

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	TapsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "economy_taps_total",
			Help: "Taps resolved by the economy engine",
		},
		[]string{"result"},
	)
	CoinsEarned = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "economy_coins_earned_total",
			Help: "Coins credited to players",
		},
		[]string{"source"},
	)
	CoinsSpent = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "economy_coins_spent_total",
			Help: "Coins debited from players",
		},
		[]string{"sink"},
	)
	SaveConflicts = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "economy_save_conflicts_total",
			Help: "Optimistic version conflicts while saving a player",
		},
	)
	LevelUps = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "economy_level_ups_total",
			Help: "Player level increases",
		},
	)
)

func init() {
	prometheus.MustRegister(TapsTotal, CoinsEarned, CoinsSpent, SaveConflicts, LevelUps)
}
