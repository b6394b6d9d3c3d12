package models

import "time"

type ApplicationStatus string

const (
	StatusPending       ApplicationStatus = "pending"
	StatusApproved      ApplicationStatus = "approved"
	StatusRejected      ApplicationStatus = "rejected"
	StatusEditRequested ApplicationStatus = "edit_requested"
)

// Valid reports whether s is one of the known statuses.
func (s ApplicationStatus) Valid() bool {
	switch s {
	case StatusPending, StatusApproved, StatusRejected, StatusEditRequested:
		return true
	}
	return false
}

// Application is the persisted applicant record.
type Application struct {
	ID                string            `json:"id" db:"id"`
	PositionID        string            `json:"positionId" db:"position_id"`
	CitizenID         string            `json:"citizenId" db:"citizen_id"`
	FullName          string            `json:"fullName" db:"full_name"`
	BirthDate         string            `json:"birthDate" db:"birth_date"`
	Address           string            `json:"address" db:"address"`
	Phone             string            `json:"phone" db:"phone"`
	Email             string            `json:"email,omitempty" db:"email"`
	EducationLevel    string            `json:"educationLevel" db:"education_level"`
	Institution       string            `json:"institution" db:"institution"`
	Major             string            `json:"major,omitempty" db:"major"`
	GPA               *float64          `json:"gpa,omitempty" db:"gpa"`
	GraduationDate    string            `json:"graduationDate,omitempty" db:"graduation_date"`
	CurrentOccupation string            `json:"currentOccupation,omitempty" db:"current_occupation"`
	WorkPlace         string            `json:"workPlace,omitempty" db:"work_place"`
	Skills            string            `json:"skills,omitempty" db:"skills"`
	DisabilityType    string            `json:"disabilityType,omitempty" db:"disability_type"`
	SignatureImage    string            `json:"signatureImage,omitempty" db:"signature"`
	Status            ApplicationStatus `json:"status" db:"status"`
	ExamNumber        string            `json:"examNumber,omitempty" db:"exam_number"`
	RejectReason      string            `json:"rejectReason,omitempty" db:"reject_reason"`
	ConsentAt         time.Time         `json:"consentAt" db:"consent_at"`
	CreatedAt         time.Time         `json:"createdAt" db:"created_at"`
}

// Position is an advertised vacancy applicants choose in the first step.
type Position struct {
	ID         string `json:"id" db:"id"`
	Title      string `json:"title" db:"title"`
	Department string `json:"department,omitempty" db:"department"`
	IsActive   bool   `json:"isActive" db:"is_active"`
}

// Document is the metadata row written for every stored attachment.
type Document struct {
	ID            string    `json:"id" db:"id"`
	ApplicationID string    `json:"applicationId" db:"application_id"`
	FileType      string    `json:"fileType" db:"file_type"`
	StorageKey    string    `json:"storageKey" db:"storage_key"`
	FileURL       string    `json:"fileUrl,omitempty" db:"file_url"`
	MimeType      string    `json:"mimeType" db:"mime_type"`
	ByteSize      int64     `json:"byteSize" db:"byte_size"`
	OriginalName  string    `json:"originalName" db:"original_name"`
	CreatedAt     time.Time `json:"createdAt" db:"created_at"`
}

// Document kinds written by the generators, alongside the upload slot keys.
const (
	DocumentKindApplicationForm = "application_form"
	DocumentKindExamCard        = "exam_card"
)

// AuditLog records an action taken against an application.
type AuditLog struct {
	ID         string                 `json:"id" db:"id"`
	Actor      string                 `json:"actor" db:"actor"`
	Action     string                 `json:"action" db:"action"`
	TargetID   string                 `json:"targetId" db:"target_id"`
	TargetType string                 `json:"targetType" db:"target_type"`
	Metadata   map[string]interface{} `json:"metadata,omitempty" db:"metadata"`
	CreatedAt  time.Time              `json:"createdAt" db:"created_at"`
}

const (
	AuditActionSubmit                  = "submit"
	AuditActionApprove                 = "approve"
	AuditActionGenerateExamCard        = "generate_exam_card"
	AuditActionGenerateApplicationForm = "generate_application_form"
	AuditActionIndex                   = "index_application"
)
