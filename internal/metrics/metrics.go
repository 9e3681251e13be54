package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	BracketsBuilt = promauto.NewCounter(prometheus.CounterOpts{
		Name: "college_cup_brackets_built_total",
		Help: "Brackets generated and persisted.",
	})

	MatchesCreated = promauto.NewCounter(prometheus.CounterOpts{
		Name: "college_cup_matches_created_total",
		Help: "Matches persisted by bracket generation.",
	})

	ByesAwarded = promauto.NewCounter(prometheus.CounterOpts{
		Name: "college_cup_byes_awarded_total",
		Help: "Round-1 byes handed out during bracket generation.",
	})

	// outcome is one of scored, decided, noop, rejected, conflict
	ResultsRecorded = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "college_cup_results_recorded_total",
		Help: "Match result submissions by outcome.",
	}, []string{"outcome"})

	WinnersSeeded = promauto.NewCounter(prometheus.CounterOpts{
		Name: "college_cup_winners_seeded_total",
		Help: "Winners placed into their next match.",
	})

	TournamentsCompleted = promauto.NewCounter(prometheus.CounterOpts{
		Name: "college_cup_tournaments_completed_total",
		Help: "Tournaments whose final has been decided.",
	})

	RepairsApplied = promauto.NewCounter(prometheus.CounterOpts{
		Name: "college_cup_repairs_applied_total",
		Help: "Missing winner seedings or tournament completions fixed by the repair pass.",
	})
)
