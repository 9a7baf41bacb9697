package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	WorkerJobsCompleted = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "worker_jobs_completed_total",
			Help: "Total number of jobs completed by worker",
		},
		[]string{"task_type"},
	)

	WorkerJobsFailed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "worker_jobs_failed_total",
			Help: "Total number of jobs failed by worker",
		},
		[]string{"task_type", "error_code"},
	)

	WorkerJobDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name: "worker_job_duration_seconds",
			Help: "Duration of job processing in seconds",
		},
		[]string{"task_type"},
	)

	WorkerJobsActive = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "worker_jobs_active",
			Help: "Number of active jobs per worker",
		},
		[]string{"task_type"},
	)

	TrackerOperations = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "jobtrail_operations_total",
			Help: "Tracker operations by name and outcome",
		},
		[]string{"operation", "outcome"},
	)

	ApplicationsCreated = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "jobtrail_applications_created_total",
			Help: "Applications recorded",
		},
	)

	FollowUpsCompleted = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "jobtrail_follow_ups_completed_total",
			Help: "Follow-ups marked completed",
		},
	)

	RemindersSent = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "jobtrail_reminders_sent_total",
			Help: "Follow-up reminders by channel and outcome",
		},
		[]string{"channel", "outcome"},
	)
)

const (
	OutcomeSuccess = "success"
	OutcomeFailure = "failure"
)

// RecordOperation counts one tracker operation.
func RecordOperation(operation string, err error) {
	outcome := OutcomeSuccess
	if err != nil {
		outcome = OutcomeFailure
	}
	TrackerOperations.WithLabelValues(operation, outcome).Inc()
}
