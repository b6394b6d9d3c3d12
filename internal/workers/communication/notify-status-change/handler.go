// Package notifystatuschange tells an applicant about a status decision by
// email and SMS.
package notifystatuschange

import (
	"context"
	"encoding/json"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"

	"recruitment-portal/internal/common/camunda"
	"recruitment-portal/internal/common/errors"
	"recruitment-portal/internal/common/logger"
	"recruitment-portal/internal/common/validation"
	"recruitment-portal/pkg/registry"
)

const TaskType = "notify-status-change"

type Handler struct {
	config   *Config
	service  *Service
	activity *registry.Activity
	logger   logger.Logger
}

func NewHandler(config *Config, deps ServiceDependencies) *Handler {
	if config == nil {
		config = DefaultConfig()
	}
	log := deps.Logger.WithFields(map[string]interface{}{"taskType": TaskType})
	deps.Logger = log
	return &Handler{
		config:   config,
		service:  NewService(deps, config),
		activity: registry.MustActivity(TaskType),
		logger:   log,
	}
}

func (h *Handler) Handle(client worker.JobClient, job entities.Job) {
	h.logger.Info("processing job", map[string]interface{}{
		"jobKey":      job.Key,
		"workflowKey": job.ProcessInstanceKey,
	})

	ctx, cancel := context.WithTimeout(context.Background(), h.config.Timeout)
	defer cancel()

	if err := validation.ValidateJobVariables(h.activity, job.Variables); err != nil {
		camunda.FailJob(ctx, client, job, err, h.logger)
		return
	}
	var input Input
	if err := json.Unmarshal([]byte(job.Variables), &input); err != nil {
		camunda.FailJob(ctx, client, job, errors.NewInvalidJobInputError(err.Error()), h.logger)
		return
	}

	output, err := h.service.Execute(ctx, &input)
	if err != nil {
		camunda.FailJob(ctx, client, job, err, h.logger)
		return
	}
	camunda.CompleteJob(ctx, client, job, output, h.logger)
}
