// Package indexapplication keeps the staff search index in step with the
// application table.
package indexapplication

import (
	"bytes"
	"context"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"time"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
	"github.com/elastic/go-elasticsearch/v8"

	"recruitment-portal/internal/citizenid"
	"recruitment-portal/internal/common/camunda"
	"recruitment-portal/internal/common/errors"
	"recruitment-portal/internal/common/logger"
	"recruitment-portal/internal/common/validation"
	"recruitment-portal/internal/models"
	"recruitment-portal/internal/store"
	"recruitment-portal/pkg/registry"
)

const TaskType = "index-application"

type Store interface {
	GetApplication(ctx context.Context, id string) (*models.Application, error)
	GetPosition(ctx context.Context, id string) (*models.Position, error)
	Audit(ctx context.Context, entry models.AuditLog)
}

type Handler struct {
	config   *Config
	store    Store
	client   *elasticsearch.Client
	activity *registry.Activity
	logger   logger.Logger
	now      func() time.Time
}

func NewHandler(config *Config, s Store, client *elasticsearch.Client, log logger.Logger) *Handler {
	if config == nil {
		config = LoadConfig()
	}
	return &Handler{
		config:   config,
		store:    s,
		client:   client,
		activity: registry.MustActivity(TaskType),
		logger:   log.WithFields(map[string]interface{}{"taskType": TaskType}),
		now:      time.Now,
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
	app, err := h.store.GetApplication(ctx, input.ApplicationID)
	if stderrors.Is(err, store.ErrNotFound) {
		return nil, errors.NewApplicationNotFoundError(input.ApplicationID)
	}
	if err != nil {
		return nil, errors.NewPersistenceFailedError(err)
	}

	doc := h.project(ctx, app)
	body, err := json.Marshal(doc)
	if err != nil {
		return nil, errors.NewIndexingFailedError(fmt.Errorf("marshal projection: %w", err))
	}

	res, err := h.client.Index(
		h.config.Index,
		bytes.NewReader(body),
		h.client.Index.WithDocumentID(app.ID),
		h.client.Index.WithContext(ctx),
	)
	if err != nil {
		return nil, errors.NewIndexingFailedError(err)
	}
	defer res.Body.Close()
	if res.IsError() {
		return nil, errors.NewIndexingFailedError(fmt.Errorf("index %s: %s", app.ID, res.Status()))
	}

	var ack struct {
		Result  string `json:"result"`
		Version int64  `json:"_version"`
	}
	if err := json.NewDecoder(res.Body).Decode(&ack); err != nil {
		return nil, errors.NewIndexingFailedError(fmt.Errorf("decode index response: %w", err))
	}

	h.store.Audit(ctx, models.AuditLog{
		Actor:      "workflow",
		Action:     models.AuditActionIndex,
		TargetID:   app.ID,
		TargetType: "application",
		Metadata:   map[string]interface{}{"index": h.config.Index, "version": ack.Version},
	})
	return &Output{ApplicationID: app.ID, Index: h.config.Index, Result: ack.Result, Version: ack.Version}, nil
}

func (h *Handler) project(ctx context.Context, app *models.Application) *Document {
	title := ""
	if pos, err := h.store.GetPosition(ctx, app.PositionID); err == nil {
		title = pos.Title
	}
	return &Document{
		ApplicationID:   app.ID,
		PositionID:      app.PositionID,
		PositionTitle:   title,
		FullName:        app.FullName,
		CitizenIDMasked: citizenid.Mask(app.CitizenID),
		PhoneMasked:     citizenid.MaskPhone(app.Phone),
		EducationLevel:  app.EducationLevel,
		Institution:     app.Institution,
		Major:           app.Major,
		GPA:             app.GPA,
		DisabilityType:  app.DisabilityType,
		Status:          string(app.Status),
		ExamNumber:      app.ExamNumber,
		SubmittedAt:     app.CreatedAt,
		IndexedAt:       h.now().UTC(),
	}
}

func (h *Handler) Execute(ctx context.Context, input *Input) (*Output, error) {
	return h.execute(ctx, input)
}
