// internal/workers/application/approve-application/models.go
package approveapplication

type Input struct {
	ApplicationID string `json:"applicationId"`
	Actor         string `json:"actor,omitempty"`
}

type Output struct {
	ApplicationID string `json:"applicationId"`
	ExamNumber    string `json:"examNumber"`
	Status        string `json:"status"`
}
