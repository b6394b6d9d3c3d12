// internal/workers/data-access/index-application/models.go
package indexapplication

import "time"

type Input struct {
	ApplicationID string `json:"applicationId"`
}

// Document is the search projection of an application. Identifiers that
// identify the applicant outside the portal are stored masked only.
type Document struct {
	ApplicationID   string    `json:"applicationId"`
	PositionID      string    `json:"positionId"`
	PositionTitle   string    `json:"positionTitle"`
	FullName        string    `json:"fullName"`
	CitizenIDMasked string    `json:"citizenIdMasked"`
	PhoneMasked     string    `json:"phoneMasked"`
	EducationLevel  string    `json:"educationLevel"`
	Institution     string    `json:"institution"`
	Major           string    `json:"major,omitempty"`
	GPA             *float64  `json:"gpa,omitempty"`
	DisabilityType  string    `json:"disabilityType,omitempty"`
	Status          string    `json:"status"`
	ExamNumber      string    `json:"examNumber,omitempty"`
	SubmittedAt     time.Time `json:"submittedAt"`
	IndexedAt       time.Time `json:"indexedAt"`
}

type Output struct {
	ApplicationID string `json:"applicationId"`
	Index         string `json:"index"`
	Result        string `json:"result"`
	Version       int64  `json:"version"`
}
