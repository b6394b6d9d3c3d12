// internal/workers/application/check-attachments/models.go
package checkattachments

type Input struct {
	ApplicationID string `json:"applicationId"`
}

// Output feeds the gateway that decides between review and an edit request.
type Output struct {
	ApplicationID string   `json:"applicationId"`
	Missing       []string `json:"missingDocuments"`
	Complete      bool     `json:"documentsComplete"`
}
