// internal/workers/communication/notify-status-change/service.go
package notifystatuschange

import (
	"context"
	stderrors "errors"
	"fmt"

	"recruitment-portal/internal/citizenid"
	"recruitment-portal/internal/common/errors"
	"recruitment-portal/internal/common/logger"
	"recruitment-portal/internal/models"
	"recruitment-portal/internal/store"
)

type Store interface {
	GetApplication(ctx context.Context, id string) (*models.Application, error)
	GetPosition(ctx context.Context, id string) (*models.Position, error)
}

// Mailer is satisfied by *aws.SESClient.
type Mailer interface {
	SendText(ctx context.Context, to, subject, body string) (string, error)
}

// SMSSender is satisfied by *aws.SNSClient.
type SMSSender interface {
	SendSMS(ctx context.Context, phone, message string) (string, error)
}

type ServiceDependencies struct {
	Store  Store
	Mailer Mailer
	SMS    SMSSender
	Logger logger.Logger
}

type Service struct {
	config *Config
	deps   ServiceDependencies
	logger logger.Logger
}

func NewService(deps ServiceDependencies, config *Config) *Service {
	return &Service{
		config: config,
		deps:   deps,
		logger: deps.Logger,
	}
}

// Execute sends the status message on every enabled channel the applicant
// has an address for. It fails only when every attempted channel failed.
func (s *Service) Execute(ctx context.Context, input *Input) (*Output, error) {
	app, err := s.deps.Store.GetApplication(ctx, input.ApplicationID)
	if stderrors.Is(err, store.ErrNotFound) {
		return nil, errors.NewApplicationNotFoundError(input.ApplicationID)
	}
	if err != nil {
		return nil, errors.NewPersistenceFailedError(err)
	}

	positionTitle := app.PositionID
	if pos, err := s.deps.Store.GetPosition(ctx, app.PositionID); err == nil {
		positionTitle = pos.Title
	}

	reason := input.Reason
	if reason == "" {
		reason = app.RejectReason
	}
	n := models.StatusNotification{
		ApplicationID: app.ID,
		FullName:      app.FullName,
		PositionTitle: positionTitle,
		Status:        input.Status,
		ExamNumber:    app.ExamNumber,
		Email:         app.Email,
		Phone:         app.Phone,
	}
	msg, err := buildMessage(n, reason, s.config.PortalURL)
	if err != nil {
		return nil, errors.NewInvalidJobInputError(err.Error())
	}

	out := &Output{
		ApplicationID: app.ID,
		Email:         ChannelResult{Status: models.NotificationDisabled},
		SMS:           ChannelResult{Status: models.NotificationDisabled},
	}

	var attempted, failed int
	var lastErr error
	if s.config.EmailEnabled && s.deps.Mailer != nil && n.Email != "" {
		attempted++
		id, err := s.deps.Mailer.SendText(ctx, n.Email, msg.Subject, msg.Body)
		out.Email = result(id, err)
		if err != nil {
			failed++
			lastErr = errors.NewNotificationSendFailedError("email", err)
		}
	}
	if s.config.SMSEnabled && s.deps.SMS != nil && n.Phone != "" {
		attempted++
		id, err := s.deps.SMS.SendSMS(ctx, n.Phone, msg.SMS)
		out.SMS = result(id, err)
		if err != nil {
			failed++
			lastErr = errors.NewNotificationSendFailedError("sms", err)
		}
	}

	s.logger.Info("status notification processed", map[string]interface{}{
		"applicationId": app.ID,
		"status":        string(n.Status),
		"email":         string(out.Email.Status),
		"sms":           string(out.SMS.Status),
		"phone":         citizenid.MaskPhone(n.Phone),
	})

	if attempted > 0 && failed == attempted {
		return nil, lastErr
	}
	return out, nil
}

func result(messageID string, err error) ChannelResult {
	if err != nil {
		return ChannelResult{Status: models.NotificationFailed, Error: fmt.Sprint(err)}
	}
	return ChannelResult{Status: models.NotificationSent, MessageID: messageID}
}
