// Package wizard runs the four-step application flow: it folds user events
// through a pure reducer, gates every forward move on step validation and
// submits the finished draft.
package wizard

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"recruitment-portal/internal/citizenid"
	"recruitment-portal/internal/common/logger"
	"recruitment-portal/internal/common/metrics"
	"recruitment-portal/internal/ingest"
	"recruitment-portal/internal/models"
	"recruitment-portal/internal/store"
)

var (
	ErrConsentRequired  = errors.New("consent required before starting an application")
	ErrValidation       = errors.New("step validation failed")
	ErrCooldown         = errors.New("submission cooldown active")
	ErrAlreadyApplied   = errors.New("citizen id already applied")
	ErrPersistence      = errors.New("application could not be saved")
	ErrNotAtDocuments   = errors.New("submission is only possible from the documents step")
	ErrAlreadySubmitted = errors.New("application already submitted")
)

type ValidationError struct {
	Fields ErrorMap
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%v: %d field(s)", ErrValidation, len(e.Fields))
}

func (e *ValidationError) Unwrap() error { return ErrValidation }

type CooldownError struct {
	Remaining time.Duration
}

func (e *CooldownError) Error() string {
	return fmt.Sprintf("%v: retry in %s", ErrCooldown, e.Remaining.Round(time.Millisecond))
}

func (e *CooldownError) Unwrap() error { return ErrCooldown }

type PositionSource interface {
	ActivePositions(ctx context.Context) ([]models.Position, error)
}

type Repository interface {
	InsertApplication(ctx context.Context, app *models.Application) error
	InsertDocument(ctx context.Context, doc *models.Document) error
	Audit(ctx context.Context, entry models.AuditLog)
}

type BlobWriter interface {
	Put(ctx context.Context, key string, data []byte, contentType string) (string, error)
}

type Ingester interface {
	Ingest(ctx context.Context, slot ingest.SlotKey, f ingest.File) (*ingest.Record, error)
}

// WorkflowStarter starts the back-office process for a submitted application.
type WorkflowStarter interface {
	StartApplicationProcess(ctx context.Context, applicationID string) (int64, error)
}

type Deps struct {
	Positions      PositionSource
	Repository     Repository
	Blobs          BlobWriter
	Ingester       Ingester
	Workflow       WorkflowStarter
	Cooldown       Cooldown
	CooldownWindow time.Duration
	Logger         logger.Logger
}

// FailedAttachment names a slot whose blob or metadata write did not land.
type FailedAttachment struct {
	Slot  ingest.SlotKey `json:"slot"`
	Error string         `json:"error"`
}

type SubmitResult struct {
	ApplicationID     string             `json:"applicationId"`
	ProcessKey        int64              `json:"processKey,omitempty"`
	Stored            []ingest.SlotKey   `json:"stored"`
	FailedAttachments []FailedAttachment `json:"failedAttachments"`
}

// Controller owns one applicant's wizard state.
type Controller struct {
	id      string
	consent Consent
	deps    Deps
	log     logger.Logger

	mu        sync.Mutex
	state     State
	touchedAt time.Time
}

// NewController opens a wizard. No state is created without consent.
func NewController(consent Consent, deps Deps) (*Controller, error) {
	if !consent.Given() {
		return nil, ErrConsentRequired
	}
	if deps.Cooldown == nil {
		deps.Cooldown = NewMemoryCooldown()
	}
	if deps.CooldownWindow <= 0 {
		deps.CooldownWindow = 10 * time.Second
	}
	if deps.Logger == nil {
		deps.Logger = logger.NewNoOpLogger()
	}

	id := uuid.NewString()
	return &Controller{
		id:        id,
		consent:   consent,
		deps:      deps,
		log:       deps.Logger.WithFields(map[string]interface{}{"component": "wizard", "wizardId": id}),
		state:     NewState(),
		touchedAt: time.Now(),
	}, nil
}

func (c *Controller) ID() string { return c.id }

// State returns a copy of the current state.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state.clone()
}

// IdleSince reports when the controller last handled a call.
func (c *Controller) IdleSince() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.touchedAt
}

func (c *Controller) apply(ev Event) State {
	c.state = Reduce(c.state, ev)
	c.touchedAt = time.Now()
	return c.state.clone()
}

// SetFields merges draft fields and clears their errors.
func (c *Controller) SetFields(fields map[string]string) (State, error) {
	if err := CheckFields(fields); err != nil {
		return c.State(), err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state.Step == StepSubmitted {
		return c.state.clone(), ErrAlreadySubmitted
	}
	return c.apply(FieldsChanged{Fields: fields}), nil
}

// Next advances one step when the current step validates.
func (c *Controller) Next(ctx context.Context) (State, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state.Step == StepSubmitted {
		return c.state.clone(), ErrAlreadySubmitted
	}

	var positions []models.Position
	if c.state.Step == StepPosition && c.deps.Positions != nil {
		var err error
		positions, err = c.deps.Positions.ActivePositions(ctx)
		if err != nil {
			return c.state.clone(), fmt.Errorf("load positions: %w", err)
		}
	}

	from := c.state.Step
	st := c.apply(Next{Positions: positions})
	if len(st.Errors) > 0 {
		return st, &ValidationError{Fields: st.Errors}
	}
	c.log.Debug("step advanced", map[string]interface{}{"from": from.String(), "to": st.Step.String()})
	return st, nil
}

func (c *Controller) Back() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.apply(Back{})
}

// Attach ingests a file into a slot. A rejected file leaves the slot as it was.
func (c *Controller) Attach(ctx context.Context, slot ingest.SlotKey, f ingest.File) (State, error) {
	if st := c.State(); st.Step == StepSubmitted {
		return st, ErrAlreadySubmitted
	}

	rec, err := c.deps.Ingester.Ingest(ctx, slot, f)

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state.Step == StepSubmitted {
		return c.state.clone(), ErrAlreadySubmitted
	}
	if err != nil {
		var ingestErr *ingest.IngestError
		if errors.As(err, &ingestErr) {
			return c.apply(Rejected{Slot: slot, Message: ingestErr.Message}), err
		}
		return c.state.clone(), err
	}
	return c.apply(Attached{Record: rec}), nil
}

func (c *Controller) Remove(slot ingest.SlotKey) State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.apply(Detached{Slot: slot})
}

// Submit persists the application, then stores each populated slot under a
// key scoped to the new application id. Attachment failures are reported in
// the result and never undo the application record.
func (c *Controller) Submit(ctx context.Context) (*SubmitResult, error) {
	ctx, span := otel.Tracer("recruitment-portal/wizard").Start(ctx, "wizard.submit")
	defer span.End()

	c.mu.Lock()
	defer c.mu.Unlock()

	result, err := c.submit(ctx)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		metrics.Submissions.WithLabelValues(submitOutcome(err)).Inc()
		return nil, err
	}
	span.SetAttributes(
		attribute.String("application.id", result.ApplicationID),
		attribute.Int("attachments.failed", len(result.FailedAttachments)),
	)
	metrics.Submissions.WithLabelValues("ok").Inc()
	return result, nil
}

func (c *Controller) submit(ctx context.Context) (*SubmitResult, error) {
	switch c.state.Step {
	case StepSubmitted:
		return nil, ErrAlreadySubmitted
	case StepDocuments:
	default:
		return nil, ErrNotAtDocuments
	}

	if err := c.revalidate(ctx); err != nil {
		return nil, err
	}

	draft := c.state.Draft
	cooldownKey := draft.CitizenID
	ok, remaining, err := c.deps.Cooldown.Acquire(ctx, cooldownKey, c.deps.CooldownWindow)
	if err != nil {
		c.log.Warn("cooldown unavailable, continuing", map[string]interface{}{"error": err})
	} else if !ok {
		return nil, &CooldownError{Remaining: remaining}
	}

	app := draft.Application()
	app.ID = uuid.NewString()
	app.ConsentAt = c.consent.At

	if err := c.deps.Repository.InsertApplication(ctx, app); err != nil {
		if errors.Is(err, store.ErrDuplicateApplication) {
			c.log.Info("duplicate application rejected", map[string]interface{}{
				"citizenId": citizenid.Mask(app.CitizenID),
			})
			return nil, ErrAlreadyApplied
		}
		c.log.Error("application insert failed", map[string]interface{}{"error": err})
		return nil, fmt.Errorf("%w: %v", ErrPersistence, err)
	}

	result := &SubmitResult{ApplicationID: app.ID, FailedAttachments: []FailedAttachment{}}
	for _, slot := range ingest.Slots() {
		rec := c.state.Slots[slot.Key]
		if rec == nil {
			continue
		}
		key, err := c.storeAttachment(ctx, app.ID, rec)
		if err != nil {
			metrics.AttachmentWriteFailures.WithLabelValues(string(slot.Key)).Inc()
			c.log.Error("attachment write failed, skipping", map[string]interface{}{
				"applicationId": app.ID,
				"slot":          string(slot.Key),
				"error":         err,
			})
			result.FailedAttachments = append(result.FailedAttachments, FailedAttachment{Slot: slot.Key, Error: err.Error()})
			continue
		}
		stored := *rec
		stored.StorageKey = key
		c.state.Slots[slot.Key] = &stored
		result.Stored = append(result.Stored, slot.Key)
	}

	c.deps.Repository.Audit(ctx, models.AuditLog{
		Actor:      "applicant",
		Action:     models.AuditActionSubmit,
		TargetID:   app.ID,
		TargetType: "application",
		Metadata: map[string]interface{}{
			"positionId":        app.PositionID,
			"failedAttachments": len(result.FailedAttachments),
		},
	})

	if c.deps.Workflow != nil {
		key, err := c.deps.Workflow.StartApplicationProcess(ctx, app.ID)
		if err != nil {
			c.log.Warn("workflow start failed, application kept", map[string]interface{}{
				"applicationId": app.ID,
				"error":         err,
			})
		} else {
			result.ProcessKey = key
		}
	}

	c.apply(Submitted{ApplicationID: app.ID})
	c.log.Info("application submitted", map[string]interface{}{
		"applicationId":     app.ID,
		"citizenId":         citizenid.Mask(app.CitizenID),
		"storedAttachments": len(result.Stored),
		"failedAttachments": len(result.FailedAttachments),
	})
	return result, nil
}

// revalidate checks every step against the current draft, since fields stay
// editable after their step was left. On failure the wizard moves back to the
// first failing step.
func (c *Controller) revalidate(ctx context.Context) error {
	var positions []models.Position
	if c.deps.Positions != nil {
		var err error
		positions, err = c.deps.Positions.ActivePositions(ctx)
		if err != nil {
			return fmt.Errorf("load positions: %w", err)
		}
	}
	for step := StepPosition; step <= StepDocuments; step++ {
		errs := ValidateStep(step, c.state.Draft, c.state.Slots, positions)
		if len(errs) == 0 {
			continue
		}
		if step < c.state.Step {
			c.log.Info("submit sent back to an earlier step", map[string]interface{}{"step": step.String()})
		}
		c.state.Step = step
		c.state.Errors = errs
		c.touchedAt = time.Now()
		return &ValidationError{Fields: errs}
	}
	return nil
}

func (c *Controller) storeAttachment(ctx context.Context, applicationID string, rec *ingest.Record) (string, error) {
	key, err := ingest.StorageKey(applicationID, rec.MimeType)
	if err != nil {
		return "", err
	}
	url, err := c.deps.Blobs.Put(ctx, key, rec.Bytes(), rec.MimeType)
	if err != nil {
		return "", fmt.Errorf("blob write: %w", err)
	}

	err = c.deps.Repository.InsertDocument(ctx, &models.Document{
		ApplicationID: applicationID,
		FileType:      string(rec.Slot),
		StorageKey:    key,
		FileURL:       url,
		MimeType:      rec.MimeType,
		ByteSize:      rec.ByteSize,
		OriginalName:  rec.OriginalName,
	})
	if err != nil {
		return "", err
	}
	return key, nil
}

func submitOutcome(err error) string {
	switch {
	case errors.Is(err, ErrValidation):
		return "invalid"
	case errors.Is(err, ErrCooldown):
		return "cooldown"
	case errors.Is(err, ErrAlreadyApplied):
		return "duplicate"
	case errors.Is(err, ErrNotAtDocuments), errors.Is(err, ErrAlreadySubmitted):
		return "wrong_step"
	default:
		return "error"
	}
}
