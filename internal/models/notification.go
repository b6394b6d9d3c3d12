package models

// StatusNotification is the payload sent to an applicant when staff change
// the application status.
type StatusNotification struct {
	ApplicationID string            `json:"applicationId"`
	FullName      string            `json:"fullName"`
	PositionTitle string            `json:"positionTitle"`
	Status        ApplicationStatus `json:"status"`
	ExamNumber    string            `json:"examNumber,omitempty"`
	Email         string            `json:"email,omitempty"`
	Phone         string            `json:"phone,omitempty"`
}

type NotificationStatus string

const (
	NotificationSent     NotificationStatus = "sent"
	NotificationFailed   NotificationStatus = "failed"
	NotificationDisabled NotificationStatus = "disabled"
)
