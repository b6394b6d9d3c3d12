// internal/common/errors/errors_test.go
package errors

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestConvertToBPMNError(t *testing.T) {
	tests := []struct {
		name        string
		err         *StandardError
		wantRetries int
	}{
		{"persistence is retried", NewPersistenceFailedError(errors.New("conn reset")), 3},
		{"duplicate is final", NewDuplicateCitizenIDError(), 0},
		{"busy retried once", NewSynthesisBusyError(), 1},
		{"not approved is final", NewApplicationNotApprovedError("app-1", "pending"), 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			bpmn := ConvertToBPMNError(tt.err)
			assert.Equal(t, string(tt.err.Code), bpmn.Code)
			assert.Equal(t, tt.wantRetries, bpmn.Retries)

			vars := bpmn.ToErrorVariables()
			assert.Equal(t, string(tt.err.Code), vars["errorCode"])
			assert.Equal(t, string(tt.err.Code), vars["originalErrorCode"])
		})
	}
}

func TestNormalize(t *testing.T) {
	wrapped := fmt.Errorf("submit: %w", NewDuplicateCitizenIDError())
	assert.Equal(t, ErrCodeDuplicateCitizenID, Normalize(wrapped).Code)

	plain := Normalize(errors.New("boom"))
	assert.Equal(t, ErrCodeInternal, plain.Code)
	assert.Equal(t, "boom", plain.Details)
}

func TestHTTPStatus(t *testing.T) {
	assert.Equal(t, http.StatusUnprocessableEntity, HTTPStatus(ErrCodeValidationFailed))
	assert.Equal(t, http.StatusConflict, HTTPStatus(ErrCodeDuplicateCitizenID))
	assert.Equal(t, http.StatusTooManyRequests, HTTPStatus(ErrCodeCooldownActive))
	assert.Equal(t, http.StatusPreconditionRequired, HTTPStatus(ErrCodeConsentRequired))
	assert.Equal(t, http.StatusNotFound, HTTPStatus(ErrCodeSessionNotFound))
	assert.Equal(t, http.StatusInternalServerError, HTTPStatus(ErrCodePersistenceFailed))
}

func TestIngestErrorsCarryField(t *testing.T) {
	typeErr := NewIngestTypeRejectedError("photo", "application/pdf")
	assert.Equal(t, "photo", typeErr.Metadata["field"])

	sizeErr := NewIngestSizeRejectedError("transcript", 6<<20, 5<<20)
	assert.Equal(t, "transcript", sizeErr.Metadata["field"])
	assert.Equal(t, "INGESTION", GetErrorCategory(sizeErr.Code))
}
