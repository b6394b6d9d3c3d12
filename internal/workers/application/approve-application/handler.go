// internal/workers/application/approve-application/handler.go
package approveapplication

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"fmt"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"

	"recruitment-portal/internal/common/camunda"
	"recruitment-portal/internal/common/errors"
	"recruitment-portal/internal/common/logger"
	"recruitment-portal/internal/common/validation"
	"recruitment-portal/internal/models"
	"recruitment-portal/internal/store"
	"recruitment-portal/pkg/registry"
)

const TaskType = "approve-application"

type Store interface {
	Approve(ctx context.Context, applicationID string) (string, error)
	Audit(ctx context.Context, entry models.AuditLog)
}

type Handler struct {
	config   *Config
	store    Store
	activity *registry.Activity
	logger   logger.Logger
}

func NewHandler(config *Config, s Store, log logger.Logger) *Handler {
	if config == nil {
		config = LoadConfig()
	}
	return &Handler{
		config:   config,
		store:    s,
		activity: registry.MustActivity(TaskType),
		logger:   log.WithFields(map[string]interface{}{"taskType": TaskType}),
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

	output, err := h.execute(ctx, &input)
	if err != nil {
		camunda.FailJob(ctx, client, job, err, h.logger)
		return
	}
	camunda.CompleteJob(ctx, client, job, output, h.logger)
}

func (h *Handler) execute(ctx context.Context, input *Input) (*Output, error) {
	examNumber, err := h.store.Approve(ctx, input.ApplicationID)
	switch {
	case stderrors.Is(err, store.ErrNotFound):
		return nil, errors.NewApplicationNotFoundError(input.ApplicationID)
	case stderrors.Is(err, store.ErrInvalidTransition):
		return nil, errors.NewInvalidStatusChangeError(string(models.StatusRejected), string(models.StatusApproved))
	case err != nil:
		return nil, errors.NewPersistenceFailedError(fmt.Errorf("approve %s: %w", input.ApplicationID, err))
	}

	actor := input.Actor
	if actor == "" {
		actor = "workflow"
	}
	h.store.Audit(ctx, models.AuditLog{
		Actor:      actor,
		Action:     models.AuditActionApprove,
		TargetID:   input.ApplicationID,
		TargetType: "application",
		Metadata:   map[string]interface{}{"examNumber": examNumber},
	})

	h.logger.Info("application approved", map[string]interface{}{
		"applicationId": input.ApplicationID,
		"examNumber":    examNumber,
	})
	return &Output{
		ApplicationID: input.ApplicationID,
		ExamNumber:    examNumber,
		Status:        string(models.StatusApproved),
	}, nil
}

func (h *Handler) Execute(ctx context.Context, input *Input) (*Output, error) {
	return h.execute(ctx, input)
}
