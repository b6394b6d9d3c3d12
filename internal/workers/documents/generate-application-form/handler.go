// Package generateapplicationform renders the A4 application form PDF for a
// submitted application and stores it with the applicant's documents.
package generateapplicationform

import (
	"context"
	"encoding/json"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"

	"recruitment-portal/internal/common/camunda"
	"recruitment-portal/internal/common/errors"
	"recruitment-portal/internal/common/logger"
	"recruitment-portal/internal/common/validation"
	"recruitment-portal/internal/models"
	"recruitment-portal/internal/synthesis"
	"recruitment-portal/internal/workers/documents/docsource"
	"recruitment-portal/pkg/registry"
)

const TaskType = "generate-application-form"

type Handler struct {
	config   *Config
	source   *docsource.Source
	engine   docsource.Synthesizer
	activity *registry.Activity
	logger   logger.Logger
}

func NewHandler(config *Config, s docsource.Store, blobs docsource.Blobs, engine docsource.Synthesizer, log logger.Logger) *Handler {
	if config == nil {
		config = LoadConfig()
	}
	log = log.WithFields(map[string]interface{}{"taskType": TaskType})
	return &Handler{
		config:   config,
		source:   docsource.New(s, blobs, log),
		engine:   engine,
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

	output, err := h.execute(ctx, &input)
	if err != nil {
		camunda.FailJob(ctx, client, job, err, h.logger)
		return
	}
	camunda.CompleteJob(ctx, client, job, output, h.logger)
}

func (h *Handler) execute(ctx context.Context, input *Input) (*Output, error) {
	subject, err := h.source.Load(ctx, input.ApplicationID)
	if err != nil {
		return nil, err
	}
	app := subject.Application

	form := &synthesis.ApplicationForm{
		Application:  app,
		Position:     subject.Position,
		Organisation: h.config.Organisation,
		Photo:        subject.Photo,
	}
	res, err := h.engine.Synthesize(ctx, form, synthesis.A4Portrait, synthesis.FormFileName(app.FullName))
	if err != nil {
		return nil, docsource.SynthesisError(err)
	}

	stored, err := h.source.Store(ctx, app.ID, models.DocumentKindApplicationForm, models.AuditActionGenerateApplicationForm, res)
	if err != nil {
		return nil, err
	}
	return &Output{ApplicationForm: stored}, nil
}

func (h *Handler) Execute(ctx context.Context, input *Input) (*Output, error) {
	return h.execute(ctx, input)
}
