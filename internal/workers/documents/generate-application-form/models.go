// internal/workers/documents/generate-application-form/models.go
package generateapplicationform

import "recruitment-portal/internal/workers/documents/docsource"

type Input struct {
	ApplicationID string `json:"applicationId"`
}

type Output struct {
	ApplicationForm *docsource.Stored `json:"applicationForm"`
}
