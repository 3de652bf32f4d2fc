// Package metrics provides Prometheus metrics for the interview engine.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "interview_engine"

// Metrics holds all Prometheus metrics for the engine.
type Metrics struct {
	// Poller metrics
	PollTicks  prometheus.Counter
	PollErrors prometheus.Counter

	// Question delivery metrics
	QuestionsApplied prometheus.Counter
	DuplicateDrops   prometheus.Counter

	// Answer metrics
	AnswersSubmitted prometheus.Counter
	SubmitErrors     prometheus.Counter

	// Partial-answer evaluation metrics
	EvaluationsIssued  prometheus.Counter
	EvaluationsStale   prometheus.Counter
	EvaluationsFailed  prometheus.Counter
	EvaluationsByClass *prometheus.CounterVec

	// Countdown metrics
	TimeoutsFired prometheus.Counter

	// Session metrics
	SessionsStarted   prometheus.Counter
	SessionsCompleted prometheus.Counter
}

// Default is the global metrics instance.
var Default = New()

// New creates and registers all Prometheus metrics.
func New() *Metrics {
	return &Metrics{
		PollTicks: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "poll_ticks_total",
			Help:      "Total number of mailbox poll ticks",
		}),
		PollErrors: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "poll_errors_total",
			Help:      "Total number of failed mailbox polls",
		}),
		QuestionsApplied: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "questions_applied_total",
			Help:      "Total number of question turns applied to the session",
		}),
		DuplicateDrops: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "duplicate_drops_total",
			Help:      "Total number of duplicate question deliveries absorbed",
		}),
		AnswersSubmitted: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "answers_submitted_total",
			Help:      "Total number of answers submitted",
		}),
		SubmitErrors: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "submit_errors_total",
			Help:      "Total number of failed answer submissions",
		}),
		EvaluationsIssued: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "evaluations_issued_total",
			Help:      "Total number of partial-answer evaluation requests issued",
		}),
		EvaluationsStale: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "evaluations_stale_total",
			Help:      "Total number of evaluation results discarded as stale",
		}),
		EvaluationsFailed: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "evaluations_failed_total",
			Help:      "Total number of failed evaluation requests",
		}),
		EvaluationsByClass: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "evaluations_by_class_total",
			Help:      "Evaluation results by classification",
		}, []string{"action"}),
		TimeoutsFired: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "timeouts_fired_total",
			Help:      "Total number of question countdowns that expired",
		}),
		SessionsStarted: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "sessions_started_total",
			Help:      "Total number of interview sessions started",
		}),
		SessionsCompleted: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "sessions_completed_total",
			Help:      "Total number of interview sessions completed",
		}),
	}
}
