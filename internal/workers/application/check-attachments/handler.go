// Package checkattachments reports which required documents an application
// is still missing.
package checkattachments

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"

	"recruitment-portal/internal/common/camunda"
	"recruitment-portal/internal/common/errors"
	"recruitment-portal/internal/common/logger"
	"recruitment-portal/internal/common/validation"
	"recruitment-portal/internal/ingest"
	"recruitment-portal/pkg/registry"
)

const TaskType = "check-attachments"

type Store interface {
	MissingDocuments(ctx context.Context, applicationID string, required []string) ([]string, error)
}

type Handler struct {
	config   *Config
	store    Store
	required []string
	activity *registry.Activity
	logger   logger.Logger
}

func NewHandler(config *Config, s Store, log logger.Logger) *Handler {
	if config == nil {
		config = LoadConfig()
	}
	var required []string
	for _, slot := range ingest.RequiredSlots() {
		required = append(required, string(slot))
	}
	return &Handler{
		config:   config,
		store:    s,
		required: required,
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
	missing, err := h.store.MissingDocuments(ctx, input.ApplicationID, h.required)
	if err != nil {
		return nil, errors.NewPersistenceFailedError(fmt.Errorf("check attachments %s: %w", input.ApplicationID, err))
	}
	if len(missing) > 0 {
		h.logger.Info("application has missing documents", map[string]interface{}{
			"applicationId": input.ApplicationID,
			"missing":       missing,
		})
	}
	return &Output{
		ApplicationID: input.ApplicationID,
		Missing:       missing,
		Complete:      len(missing) == 0,
	}, nil
}

func (h *Handler) Execute(ctx context.Context, input *Input) (*Output, error) {
	return h.execute(ctx, input)
}
