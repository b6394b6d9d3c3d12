// internal/workers/communication/notify-status-change/models.go
package notifystatuschange

import "recruitment-portal/internal/models"

type Input struct {
	ApplicationID string                   `json:"applicationId"`
	Status        models.ApplicationStatus `json:"status"`
	Reason        string                   `json:"reason,omitempty"`
}

type ChannelResult struct {
	Status    models.NotificationStatus `json:"status"`
	MessageID string                    `json:"messageId,omitempty"`
	Error     string                    `json:"error,omitempty"`
}

type Output struct {
	ApplicationID string        `json:"applicationId"`
	Email         ChannelResult `json:"email"`
	SMS           ChannelResult `json:"sms"`
}
