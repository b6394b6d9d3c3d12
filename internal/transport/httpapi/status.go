// internal/transport/httpapi/status.go
package httpapi

import (
	stderrors "errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"recruitment-portal/internal/citizenid"
	"recruitment-portal/internal/common/errors"
	"recruitment-portal/internal/models"
	"recruitment-portal/internal/store"
)

const msgStatusCitizenID = "กรุณากรอกเลขบัตรประชาชน 13 หลักที่ถูกต้อง"

type statusResponse struct {
	ApplicationID string                   `json:"applicationId"`
	CitizenID     string                   `json:"citizenId"`
	PositionID    string                   `json:"positionId"`
	Status        models.ApplicationStatus `json:"status"`
	ExamNumber    string                   `json:"examNumber,omitempty"`
	RejectReason  string                   `json:"rejectReason,omitempty"`
	SubmittedAt   time.Time                `json:"submittedAt"`
}

// HandleStatus returns the latest application filed under a citizen id.
func (h *Handler) HandleStatus(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "citizenId")
	if !citizenid.Valid(id) {
		writeError(w, errors.NewValidationFailedError(map[string]string{"citizen_id": msgStatusCitizenID}))
		return
	}

	app, err := h.status.LatestByCitizenID(r.Context(), id)
	if stderrors.Is(err, store.ErrNotFound) {
		writeError(w, errors.NewApplicationNotFoundError(citizenid.Mask(id)))
		return
	}
	if err != nil {
		h.log.Error("status lookup failed", map[string]interface{}{"citizenId": citizenid.Mask(id), "error": err})
		writeError(w, errors.NewDatabaseConnectionFailedError(err))
		return
	}

	writeJSON(w, http.StatusOK, statusResponse{
		ApplicationID: app.ID,
		CitizenID:     citizenid.Mask(app.CitizenID),
		PositionID:    app.PositionID,
		Status:        app.Status,
		ExamNumber:    app.ExamNumber,
		RejectReason:  app.RejectReason,
		SubmittedAt:   app.CreatedAt,
	})
}

func (h *Handler) HandleListPositions(w http.ResponseWriter, r *http.Request) {
	positions, err := h.positions.ActivePositions(r.Context())
	if err != nil {
		h.log.Error("position list failed", map[string]interface{}{"error": err})
		writeError(w, errors.NewDatabaseConnectionFailedError(err))
		return
	}
	if positions == nil {
		positions = []models.Position{}
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"positions": positions})
}
