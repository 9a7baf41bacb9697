package createapplicationrecord

import (
	"context"
	"encoding/json"
	"time"

	apperrors "jobtrail/internal/common/errors"
	"jobtrail/internal/common/logger"
	"jobtrail/internal/common/metrics"
	"jobtrail/internal/common/observability"
	"jobtrail/internal/common/validation"
	"jobtrail/internal/models"
	"jobtrail/internal/service"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
)

const (
	TaskType = "create-application-record"
)

// ApplicationCreator records an application on behalf of a user.
type ApplicationCreator interface {
	CreateApplication(ctx context.Context, userID string, in service.ApplicationInput) (*models.ApplicationDetail, error)
}

type Handler struct {
	config     *Config
	tracker    ApplicationCreator
	errHandler *apperrors.ErrorHandler
	obs        *observability.Observability
	logger     logger.Logger
}

func NewHandler(config *Config, tracker ApplicationCreator, obs *observability.Observability, log logger.Logger) *Handler {
	log = log.WithFields(map[string]interface{}{"taskType": TaskType})
	if obs == nil {
		obs = &observability.Observability{}
	}
	return &Handler{
		config:     config,
		tracker:    tracker,
		errHandler: apperrors.NewErrorHandler(log),
		obs:        obs,
		logger:     log,
	}
}

func (h *Handler) Handle(client worker.JobClient, job entities.Job) {
	start := time.Now()
	metrics.WorkerJobsActive.WithLabelValues(TaskType).Inc()
	defer metrics.WorkerJobsActive.WithLabelValues(TaskType).Dec()

	h.logger.Info("processing job", map[string]interface{}{
		"jobKey":      job.Key,
		"workflowKey": job.ProcessInstanceKey,
	})

	ctx, cancel := context.WithTimeout(context.Background(), h.config.Timeout)
	defer cancel()

	output, err := h.handle(ctx, []byte(job.Variables))
	status := "completed"
	if err != nil {
		status = "failed"
		metrics.WorkerJobsFailed.WithLabelValues(TaskType, string(apperrors.Normalize(err).Code)).Inc()
		h.errHandler.HandleJobError(ctx, client, job, err)
	} else {
		metrics.WorkerJobsCompleted.WithLabelValues(TaskType).Inc()
		h.completeJob(ctx, client, job, output)
	}

	elapsed := time.Since(start)
	metrics.WorkerJobDuration.WithLabelValues(TaskType).Observe(elapsed.Seconds())
	h.obs.RecordJobProcessed(ctx, TaskType, status)
	h.obs.RecordJobDuration(ctx, TaskType, elapsed, status)
}

func (h *Handler) handle(ctx context.Context, variables []byte) (*Output, error) {
	result, err := validation.CreateApplicationJobSchema.ValidateJSON(variables)
	if err != nil {
		return nil, apperrors.NewValidationError(err.Error())
	}
	if err := result.AsError(); err != nil {
		return nil, err
	}

	var input Input
	if err := json.Unmarshal(variables, &input); err != nil {
		return nil, apperrors.NewValidationError(err.Error())
	}
	return h.execute(ctx, &input)
}

func (h *Handler) execute(ctx context.Context, input *Input) (*Output, error) {
	applied, err := models.ParseDate(input.AppliedDate)
	if err != nil {
		return nil, apperrors.NewValidationError(err.Error())
	}

	detail, err := h.tracker.CreateApplication(ctx, input.UserID, service.ApplicationInput{
		Company:     input.Company,
		Role:        input.Role,
		AppliedDate: applied,
		JobLink:     input.JobLink,
		Notes:       input.Notes,
	})
	if err != nil {
		return nil, err
	}

	dates := make([]string, 0, len(detail.FollowUps))
	for _, fu := range detail.FollowUps {
		dates = append(dates, fu.FollowUpDate.String())
	}

	h.logger.Info("application record created", map[string]interface{}{
		"applicationId": detail.Application.ID,
		"userId":        input.UserID,
	})

	return &Output{
		ApplicationID: detail.Application.ID,
		Status:        string(detail.Application.Status),
		FollowUpDates: dates,
		CreatedAt:     detail.Application.CreatedAt.UTC().Format(time.RFC3339),
	}, nil
}

func (h *Handler) completeJob(ctx context.Context, client worker.JobClient, job entities.Job, output *Output) {
	cmd, err := client.NewCompleteJobCommand().
		JobKey(job.Key).
		VariablesFromObject(output)
	if err != nil {
		h.logger.Error("failed to create complete job command", map[string]interface{}{
			"error": err.Error(),
		})
		return
	}
	if _, err := cmd.Send(ctx); err != nil {
		h.logger.Error("failed to send complete job command", map[string]interface{}{
			"error": err.Error(),
		})
		return
	}
	h.logger.Info("job completed successfully", map[string]interface{}{
		"jobKey": job.Key,
	})
}

func (h *Handler) Execute(ctx context.Context, input *Input) (*Output, error) {
	return h.execute(ctx, input)
}
