package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/emilythestrangee/decision-board/backend/internal/models"
)

var (
	// VotesTotal counts completed vote toggles by the write they performed.
	VotesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "decision_board",
		Name:      "votes_total",
		Help:      "Vote toggles by action (created, updated, removed).",
	}, []string{"action"})

	VoteConflicts = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "decision_board",
		Name:      "vote_conflicts_total",
		Help:      "Vote toggles rejected because a concurrent toggle won.",
	})

	DecisionsCreated = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "decision_board",
		Name:      "decisions_created_total",
		Help:      "Decisions posted.",
	})

	CommentsCreated = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "decision_board",
		Name:      "comments_created_total",
		Help:      "Comments posted.",
	})

	BreakdownCache = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "decision_board",
		Name:      "breakdown_cache_total",
		Help:      "Gender breakdown cache lookups by result (hit, miss).",
	}, []string{"result"})

	EventPublishFailures = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "decision_board",
		Name:      "event_publish_failures_total",
		Help:      "Events dropped because the producer was full or the brokers rejected them.",
	})
)

func ObserveVote(action models.VoteAction) {
	VotesTotal.WithLabelValues(string(action)).Inc()
}
