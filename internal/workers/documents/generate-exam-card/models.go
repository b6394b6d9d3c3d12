// internal/workers/documents/generate-exam-card/models.go
package generateexamcard

import "recruitment-portal/internal/workers/documents/docsource"

// Input carries a single application or a batch, never both empty.
type Input struct {
	ApplicationID  string   `json:"applicationId,omitempty"`
	ApplicationIDs []string `json:"applicationIds,omitempty"`
}

func (i *Input) ids() []string {
	seen := make(map[string]bool)
	var out []string
	for _, id := range append([]string{i.ApplicationID}, i.ApplicationIDs...) {
		if id == "" || seen[id] {
			continue
		}
		seen[id] = true
		out = append(out, id)
	}
	return out
}

type Failure struct {
	ApplicationID string `json:"applicationId"`
	Code          string `json:"code"`
	Message       string `json:"message"`
}

type Output struct {
	ExamCards []*docsource.Stored `json:"examCards"`
	Failed    []Failure           `json:"failed"`
}
