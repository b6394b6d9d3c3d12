// internal/transport/httpapi/wizard.go
package httpapi

import (
	stderrors "errors"
	"fmt"
	"io"
	"math"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"recruitment-portal/internal/common/errors"
	"recruitment-portal/internal/ingest"
	"recruitment-portal/internal/wizard"
)

type consentResponse struct {
	ConsentID string    `json:"consentId"`
	ConsentAt time.Time `json:"consentAt"`
	ExpiresAt time.Time `json:"expiresAt"`
}

type openWizardRequest struct {
	ConsentID string `json:"consentId"`
}

type stateView struct {
	SessionID     string                            `json:"sessionId"`
	Step          string                            `json:"step"`
	StepIndex     int                               `json:"stepIndex"`
	Draft         wizard.Draft                      `json:"draft"`
	Attachments   map[ingest.SlotKey]*ingest.Record `json:"attachments"`
	Errors        wizard.ErrorMap                   `json:"errors"`
	ApplicationID string                            `json:"applicationId,omitempty"`
}

func toStateView(id string, st wizard.State) stateView {
	return stateView{
		SessionID:     id,
		Step:          st.Step.String(),
		StepIndex:     int(st.Step),
		Draft:         st.Draft,
		Attachments:   st.Slots,
		Errors:        st.Errors,
		ApplicationID: st.ApplicationID,
	}
}

// HandleConsent records the data-protection consent and returns its id.
func (h *Handler) HandleConsent(w http.ResponseWriter, r *http.Request) {
	sess, err := h.consents.Record(r.Context())
	if err != nil {
		h.log.Error("consent record failed", map[string]interface{}{"error": err})
		writeError(w, errors.NewInternalError(err))
		return
	}
	writeJSON(w, http.StatusCreated, consentResponse{ConsentID: sess.ID, ConsentAt: sess.ConsentAt, ExpiresAt: sess.ExpiresAt})
}

// HandleOpenWizard starts a wizard against a recorded, unexpired consent.
func (h *Handler) HandleOpenWizard(w http.ResponseWriter, r *http.Request) {
	var req openWizardRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, err)
		return
	}
	if req.ConsentID == "" {
		writeError(w, errors.NewConsentRequiredError())
		return
	}
	sess, err := h.consents.Lookup(r.Context(), req.ConsentID)
	if stderrors.Is(err, wizard.ErrConsentNotFound) {
		writeError(w, errors.NewConsentRequiredError())
		return
	}
	if err != nil {
		writeError(w, errors.NewInternalError(err))
		return
	}

	ctrl, err := wizard.NewController(wizard.Consent{SessionID: sess.ID, At: sess.ConsentAt}, h.deps)
	if err != nil {
		writeError(w, h.wizardError("", err))
		return
	}
	h.sessions.Add(ctrl)
	writeJSON(w, http.StatusCreated, toStateView(ctrl.ID(), ctrl.State()))
}

func (h *Handler) controller(w http.ResponseWriter, r *http.Request) (*wizard.Controller, bool) {
	id := chi.URLParam(r, "id")
	ctrl, err := h.sessions.Get(id)
	if err != nil {
		writeError(w, errors.NewSessionNotFoundError(id))
		return nil, false
	}
	return ctrl, true
}

func (h *Handler) HandleGetWizard(w http.ResponseWriter, r *http.Request) {
	ctrl, ok := h.controller(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, toStateView(ctrl.ID(), ctrl.State()))
}

// HandleAbandonWizard drops the session; nothing was persisted for it.
func (h *Handler) HandleAbandonWizard(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if !h.sessions.Remove(id) {
		writeError(w, errors.NewSessionNotFoundError(id))
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) HandleSetFields(w http.ResponseWriter, r *http.Request) {
	ctrl, ok := h.controller(w, r)
	if !ok {
		return
	}
	var fields map[string]string
	if err := decodeJSON(w, r, &fields); err != nil {
		writeError(w, err)
		return
	}
	st, err := ctrl.SetFields(fields)
	if err != nil {
		writeError(w, h.wizardError(ctrl.ID(), err))
		return
	}
	writeJSON(w, http.StatusOK, toStateView(ctrl.ID(), st))
}

func (h *Handler) HandleNext(w http.ResponseWriter, r *http.Request) {
	ctrl, ok := h.controller(w, r)
	if !ok {
		return
	}
	st, err := ctrl.Next(r.Context())
	if err != nil {
		writeError(w, h.wizardError(ctrl.ID(), err))
		return
	}
	writeJSON(w, http.StatusOK, toStateView(ctrl.ID(), st))
}

func (h *Handler) HandleBack(w http.ResponseWriter, r *http.Request) {
	ctrl, ok := h.controller(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, toStateView(ctrl.ID(), ctrl.Back()))
}

// HandleAttach ingests the multipart "file" part into the slot.
func (h *Handler) HandleAttach(w http.ResponseWriter, r *http.Request) {
	ctrl, ok := h.controller(w, r)
	if !ok {
		return
	}
	slot := ingest.SlotKey(chi.URLParam(r, "slot"))

	r.Body = http.MaxBytesReader(w, r.Body, ingest.MaxUploadBytes+maxUploadOverhead)
	file, header, err := r.FormFile("file")
	if err != nil {
		var maxErr *http.MaxBytesError
		if stderrors.As(err, &maxErr) {
			writeError(w, errors.NewIngestSizeRejectedError(string(slot), maxErr.Limit, ingest.MaxUploadBytes))
			return
		}
		writeError(w, errors.NewInvalidRequestError(fmt.Sprintf("multipart file: %v", err)))
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		writeError(w, errors.NewInvalidRequestError(err.Error()))
		return
	}

	mimeType := header.Header.Get("Content-Type")
	st, err := ctrl.Attach(r.Context(), slot, ingest.File{Name: header.Filename, MimeType: mimeType, Data: data})
	if err != nil {
		writeError(w, h.attachError(ctrl.ID(), slot, mimeType, int64(len(data)), err))
		return
	}
	writeJSON(w, http.StatusOK, toStateView(ctrl.ID(), st))
}

func (h *Handler) HandleDetach(w http.ResponseWriter, r *http.Request) {
	ctrl, ok := h.controller(w, r)
	if !ok {
		return
	}
	st := ctrl.Remove(ingest.SlotKey(chi.URLParam(r, "slot")))
	writeJSON(w, http.StatusOK, toStateView(ctrl.ID(), st))
}

// HandlePreview serves the slot's PNG thumbnail. Documents have none.
func (h *Handler) HandlePreview(w http.ResponseWriter, r *http.Request) {
	ctrl, ok := h.controller(w, r)
	if !ok {
		return
	}
	slot := ingest.SlotKey(chi.URLParam(r, "slot"))
	rec := ctrl.State().Slots[slot]
	if rec == nil || rec.Preview == nil || rec.Preview.Kind != ingest.PreviewThumbnail {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(rec.Preview.Image)
}

func (h *Handler) HandleSubmit(w http.ResponseWriter, r *http.Request) {
	ctrl, ok := h.controller(w, r)
	if !ok {
		return
	}
	res, err := ctrl.Submit(r.Context())
	if err != nil {
		var cd *wizard.CooldownError
		if stderrors.As(err, &cd) {
			w.Header().Set("Retry-After", strconv.Itoa(int(math.Ceil(cd.Remaining.Seconds()))))
		}
		writeError(w, h.wizardError(ctrl.ID(), err))
		return
	}
	writeJSON(w, http.StatusCreated, res)
}

// wizardError translates controller sentinels into API errors.
func (h *Handler) wizardError(sessionID string, err error) error {
	var vErr *wizard.ValidationError
	var cd *wizard.CooldownError
	switch {
	case stderrors.As(err, &vErr):
		return errors.NewValidationFailedError(map[string]string(vErr.Fields))
	case stderrors.As(err, &cd):
		return errors.NewCooldownActiveError(cd.Remaining)
	case stderrors.Is(err, wizard.ErrConsentRequired):
		return errors.NewConsentRequiredError()
	case stderrors.Is(err, wizard.ErrUnknownField):
		return errors.NewInvalidRequestError(err.Error())
	case stderrors.Is(err, wizard.ErrAlreadyApplied):
		return errors.NewDuplicateCitizenIDError()
	case stderrors.Is(err, wizard.ErrNotAtDocuments):
		return errors.NewInvalidStatusChangeError("draft", "submitted")
	case stderrors.Is(err, wizard.ErrAlreadySubmitted):
		return errors.NewInvalidStatusChangeError("submitted", "submitted")
	case stderrors.Is(err, wizard.ErrPersistence):
		return errors.NewPersistenceFailedError(err)
	}
	h.log.Error("wizard request failed", map[string]interface{}{"sessionId": sessionID, "error": err})
	return errors.NewInternalError(err)
}

func (h *Handler) attachError(sessionID string, slot ingest.SlotKey, mimeType string, size int64, err error) error {
	var ingestErr *ingest.IngestError
	if !stderrors.As(err, &ingestErr) {
		return h.wizardError(sessionID, err)
	}
	switch {
	case stderrors.Is(err, ingest.ErrTypeRejected):
		return errors.NewIngestTypeRejectedError(string(slot), mimeType)
	case stderrors.Is(err, ingest.ErrSizeRejected):
		return errors.NewIngestSizeRejectedError(string(slot), size, ingest.MaxUploadBytes)
	}
	return errors.NewValidationFailedError(map[string]string{ingestErr.Field: ingestErr.Message})
}
