// Package generateexamcard renders exam admission cards for approved
// applications, one at a time or as a bounded-concurrency batch.
package generateexamcard

import (
	"context"
	"encoding/json"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
	"golang.org/x/sync/errgroup"

	"recruitment-portal/internal/common/camunda"
	"recruitment-portal/internal/common/errors"
	"recruitment-portal/internal/common/logger"
	"recruitment-portal/internal/common/validation"
	"recruitment-portal/internal/models"
	"recruitment-portal/internal/synthesis"
	"recruitment-portal/internal/workers/documents/docsource"
	"recruitment-portal/pkg/registry"
)

const TaskType = "generate-exam-card"

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
	if config.Concurrency <= 0 {
		config.Concurrency = 1
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

// execute renders every requested card. A single-card request fails with the
// card's error; a batch fails only when no card could be produced.
func (h *Handler) execute(ctx context.Context, input *Input) (*Output, error) {
	ids := input.ids()
	if len(ids) == 0 {
		return nil, errors.NewInvalidJobInputError("applicationId or applicationIds is required")
	}

	cards := make([]*docsource.Stored, len(ids))
	errs := make([]error, len(ids))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(h.config.Concurrency)
	for i, id := range ids {
		i, id := i, id
		g.Go(func() error {
			cards[i], errs[i] = h.generate(gctx, id)
			return nil
		})
	}
	_ = g.Wait()

	out := &Output{ExamCards: []*docsource.Stored{}, Failed: []Failure{}}
	for i, id := range ids {
		if errs[i] == nil {
			out.ExamCards = append(out.ExamCards, cards[i])
			continue
		}
		stdErr := errors.Normalize(errs[i])
		out.Failed = append(out.Failed, Failure{ApplicationID: id, Code: string(stdErr.Code), Message: stdErr.Message})
	}

	if len(out.ExamCards) == 0 {
		return nil, errs[0]
	}
	if len(out.Failed) > 0 {
		h.logger.Warn("some exam cards failed", map[string]interface{}{
			"generated": len(out.ExamCards),
			"failed":    len(out.Failed),
		})
	}
	return out, nil
}

func (h *Handler) generate(ctx context.Context, applicationID string) (*docsource.Stored, error) {
	subject, err := h.source.Load(ctx, applicationID)
	if err != nil {
		return nil, err
	}
	app := subject.Application
	if app.Status != models.StatusApproved || app.ExamNumber == "" {
		return nil, errors.NewApplicationNotApprovedError(app.ID, string(app.Status))
	}

	card := &synthesis.ExamCard{
		Application:   app,
		Position:      subject.Position,
		Organisation:  h.config.Organisation,
		Photo:         subject.Photo,
		VerifyURLBase: h.config.VerifyURLBase,
	}
	res, err := h.engine.Synthesize(ctx, card, synthesis.CardLandscape, synthesis.CardFileName(app.ExamNumber, app.FullName))
	if err != nil {
		return nil, docsource.SynthesisError(err)
	}
	return h.source.Store(ctx, app.ID, models.DocumentKindExamCard, models.AuditActionGenerateExamCard, res)
}

func (h *Handler) Execute(ctx context.Context, input *Input) (*Output, error) {
	return h.execute(ctx, input)
}
