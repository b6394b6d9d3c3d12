// internal/common/errors/errors.go
package errors

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"
)

type ErrorCode string

const (
	ErrCodeValidationFailed ErrorCode = "VALIDATION_FAILED"
	ErrCodeConsentRequired  ErrorCode = "CONSENT_REQUIRED"
	ErrCodeCooldownActive   ErrorCode = "COOLDOWN_ACTIVE"
	ErrCodeInvalidJobInput  ErrorCode = "INVALID_JOB_INPUT"
	ErrCodeSessionNotFound  ErrorCode = "SESSION_NOT_FOUND"
	ErrCodeInvalidRequest   ErrorCode = "INVALID_REQUEST"

	ErrCodeIngestTypeRejected ErrorCode = "INGEST_TYPE_REJECTED"
	ErrCodeIngestSizeRejected ErrorCode = "INGEST_SIZE_REJECTED"

	ErrCodeDuplicateCitizenID       ErrorCode = "DUPLICATE_CITIZEN_ID"
	ErrCodePersistenceFailed        ErrorCode = "PERSISTENCE_FAILED"
	ErrCodeAttachmentWriteFailed    ErrorCode = "ATTACHMENT_WRITE_FAILED"
	ErrCodeStorageWriteFailed       ErrorCode = "STORAGE_WRITE_FAILED"
	ErrCodeDatabaseConnectionFailed ErrorCode = "DATABASE_CONNECTION_FAILED"

	ErrCodeApplicationNotFound    ErrorCode = "APPLICATION_NOT_FOUND"
	ErrCodeApplicationNotApproved ErrorCode = "APPLICATION_NOT_APPROVED"
	ErrCodeInvalidStatusChange    ErrorCode = "INVALID_STATUS_CHANGE"
	ErrCodePositionNotFound       ErrorCode = "POSITION_NOT_FOUND"

	ErrCodeSynthesisFailed ErrorCode = "SYNTHESIS_FAILED"
	ErrCodeSynthesisBusy   ErrorCode = "SYNTHESIS_BUSY"

	ErrCodeNotificationSendFailed ErrorCode = "NOTIFICATION_SEND_FAILED"
	ErrCodeIndexingFailed         ErrorCode = "INDEXING_FAILED"
	ErrCodeWorkflowUnavailable    ErrorCode = "WORKFLOW_UNAVAILABLE"

	ErrCodeInternal ErrorCode = "INTERNAL_ERROR"
)

type StandardError struct {
	Code      ErrorCode              `json:"code"`
	Message   string                 `json:"message"`
	Details   string                 `json:"details,omitempty"`
	Retryable bool                   `json:"retryable"`
	Metadata  map[string]interface{} `json:"metadata,omitempty"`
	Timestamp time.Time              `json:"timestamp"`
}

func (e *StandardError) Error() string {
	return fmt.Sprintf("StandardError[%s]: %s", e.Code, e.Message)
}

// WithMetadata returns e with key set in its metadata map.
func (e *StandardError) WithMetadata(key string, value interface{}) *StandardError {
	if e.Metadata == nil {
		e.Metadata = make(map[string]interface{})
	}
	e.Metadata[key] = value
	return e
}

type BPMNError struct {
	Code           string                 `json:"code"`
	Message        string                 `json:"message"`
	Details        string                 `json:"details,omitempty"`
	Retryable      bool                   `json:"retryable"`
	Retries        int                    `json:"retries"`
	ErrorVariables map[string]interface{} `json:"errorVariables,omitempty"`
}

func (e *BPMNError) Error() string {
	return fmt.Sprintf("BPMNError[%s]: %s", e.Code, e.Message)
}

func (e *BPMNError) ToErrorVariables() map[string]interface{} {
	vars := map[string]interface{}{
		"errorCode":    e.Code,
		"errorMessage": e.Message,
		"errorDetails": e.Details,
		"retryable":    e.Retryable,
	}
	for k, v := range e.ErrorVariables {
		vars[k] = v
	}
	return vars
}

func newError(code ErrorCode, message, details string, retryable bool) *StandardError {
	return &StandardError{
		Code:      code,
		Message:   message,
		Details:   details,
		Retryable: retryable,
		Timestamp: time.Now().UTC(),
	}
}

// NewValidationFailedError carries a field→message map in its metadata.
func NewValidationFailedError(fields map[string]string) *StandardError {
	e := newError(ErrCodeValidationFailed, "Validation failed", fmt.Sprintf("%d field(s) invalid", len(fields)), false)
	if len(fields) > 0 {
		e.WithMetadata("fields", fields)
	}
	return e
}

func NewConsentRequiredError() *StandardError {
	return newError(ErrCodeConsentRequired, "Consent must be given before starting an application", "", false)
}

func NewCooldownActiveError(remaining time.Duration) *StandardError {
	return newError(ErrCodeCooldownActive, "Please wait before submitting again",
		fmt.Sprintf("retryAfter: %s", remaining.Round(time.Second)), true)
}

func NewInvalidJobInputError(details string) *StandardError {
	return newError(ErrCodeInvalidJobInput, "Job variables do not match the activity schema", details, false)
}

func NewInvalidRequestError(details string) *StandardError {
	return newError(ErrCodeInvalidRequest, "Malformed request", details, false)
}

func NewSessionNotFoundError(sessionID string) *StandardError {
	return newError(ErrCodeSessionNotFound, "Application session not found or expired", fmt.Sprintf("sessionId: %s", sessionID), false)
}

func NewIngestTypeRejectedError(slot, mimeType string) *StandardError {
	return newError(ErrCodeIngestTypeRejected, "ประเภทไฟล์ไม่ถูกต้อง (รองรับ JPG, PNG, WebP, PDF)",
		fmt.Sprintf("slot: %s, mimeType: %s", slot, mimeType), false).WithMetadata("field", slot)
}

func NewIngestSizeRejectedError(slot string, size, limit int64) *StandardError {
	return newError(ErrCodeIngestSizeRejected, "ขนาดไฟล์ต้องไม่เกิน 5 MB",
		fmt.Sprintf("slot: %s, size: %d, limit: %d", slot, size, limit), false).WithMetadata("field", slot)
}

func NewDuplicateCitizenIDError() *StandardError {
	return newError(ErrCodeDuplicateCitizenID, "หมายเลขบัตรประชาชนนี้ได้ลงทะเบียนสมัครแล้ว กรุณาตรวจสอบอีกครั้ง", "", false)
}

func NewPersistenceFailedError(err error) *StandardError {
	return newError(ErrCodePersistenceFailed, "เกิดข้อผิดพลาดในการส่งใบสมัคร กรุณาลองใหม่อีกครั้ง", err.Error(), true)
}

func NewAttachmentWriteFailedError(kind string, err error) *StandardError {
	return newError(ErrCodeAttachmentWriteFailed, "Attachment could not be stored",
		fmt.Sprintf("kind: %s, error: %s", kind, err.Error()), true)
}

func NewStorageWriteFailedError(key string, err error) *StandardError {
	return newError(ErrCodeStorageWriteFailed, "Blob storage write failed",
		fmt.Sprintf("key: %s, error: %s", key, err.Error()), true)
}

func NewDatabaseConnectionFailedError(err error) *StandardError {
	return newError(ErrCodeDatabaseConnectionFailed, "Database connection error", err.Error(), true)
}

func NewApplicationNotFoundError(applicationID string) *StandardError {
	return newError(ErrCodeApplicationNotFound, "Application not found", fmt.Sprintf("applicationId: %s", applicationID), false)
}

func NewApplicationNotApprovedError(applicationID, status string) *StandardError {
	return newError(ErrCodeApplicationNotApproved, "Application has not been approved",
		fmt.Sprintf("applicationId: %s, status: %s", applicationID, status), false)
}

func NewInvalidStatusChangeError(from, to string) *StandardError {
	return newError(ErrCodeInvalidStatusChange, "Status change not allowed", fmt.Sprintf("from: %s, to: %s", from, to), false)
}

func NewPositionNotFoundError(positionID string) *StandardError {
	return newError(ErrCodePositionNotFound, "Position not found", fmt.Sprintf("positionId: %s", positionID), false)
}

func NewSynthesisFailedError(err error) *StandardError {
	return newError(ErrCodeSynthesisFailed, "Document generation failed", err.Error(), true)
}

func NewSynthesisBusyError() *StandardError {
	return newError(ErrCodeSynthesisBusy, "Document generation already in progress", "", true)
}

func NewNotificationSendFailedError(channel string, err error) *StandardError {
	return newError(ErrCodeNotificationSendFailed, "Notification delivery failed",
		fmt.Sprintf("channel: %s, error: %s", channel, err.Error()), true)
}

func NewIndexingFailedError(err error) *StandardError {
	return newError(ErrCodeIndexingFailed, "Search index update failed", err.Error(), true)
}

func NewWorkflowUnavailableError(operation string, err error) *StandardError {
	return newError(ErrCodeWorkflowUnavailable, "Workflow engine unavailable",
		fmt.Sprintf("operation: %s, error: %s", operation, err.Error()), true)
}

func NewInternalError(err error) *StandardError {
	return newError(ErrCodeInternal, "Unexpected error", err.Error(), false)
}

// As extracts a *StandardError from err's chain.
func As(err error) (*StandardError, bool) {
	var stdErr *StandardError
	if errors.As(err, &stdErr) {
		return stdErr, true
	}
	return nil, false
}

func GetRetryCount(code ErrorCode) int {
	switch code {
	case ErrCodePersistenceFailed,
		ErrCodeDatabaseConnectionFailed,
		ErrCodeStorageWriteFailed,
		ErrCodeAttachmentWriteFailed,
		ErrCodeNotificationSendFailed,
		ErrCodeIndexingFailed,
		ErrCodeWorkflowUnavailable,
		ErrCodeSynthesisFailed:
		return 3

	case ErrCodeSynthesisBusy:
		return 1

	default:
		return 0 // business errors are not retried
	}
}

func ConvertToBPMNError(stdErr *StandardError) *BPMNError {
	retries := GetRetryCount(stdErr.Code)
	if !stdErr.Retryable {
		retries = 0
	}

	return &BPMNError{
		Code:      string(stdErr.Code),
		Message:   stdErr.Message,
		Details:   stdErr.Details,
		Retryable: stdErr.Retryable,
		Retries:   retries,
		ErrorVariables: map[string]interface{}{
			"originalErrorCode": string(stdErr.Code),
			"timestamp":         stdErr.Timestamp.Format(time.RFC3339),
		},
	}
}

func IsRetryableErrorCode(code ErrorCode) bool {
	return GetRetryCount(code) > 0
}

// HTTPStatus maps an error code onto the status returned by the portal API.
func HTTPStatus(code ErrorCode) int {
	switch code {
	case ErrCodeValidationFailed, ErrCodeIngestTypeRejected, ErrCodeIngestSizeRejected:
		return http.StatusUnprocessableEntity
	case ErrCodeConsentRequired:
		return http.StatusPreconditionRequired
	case ErrCodeCooldownActive:
		return http.StatusTooManyRequests
	case ErrCodeDuplicateCitizenID, ErrCodeSynthesisBusy, ErrCodeInvalidStatusChange:
		return http.StatusConflict
	case ErrCodeSessionNotFound, ErrCodeApplicationNotFound, ErrCodePositionNotFound:
		return http.StatusNotFound
	case ErrCodeInvalidJobInput, ErrCodeInvalidRequest:
		return http.StatusBadRequest
	case ErrCodeDatabaseConnectionFailed, ErrCodeWorkflowUnavailable:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func GetErrorCategory(code ErrorCode) string {
	codeStr := string(code)
	switch {
	case strings.HasPrefix(codeStr, "INGEST"):
		return "INGESTION"
	case strings.Contains(codeStr, "SYNTHESIS"):
		return "SYNTHESIS"
	case strings.Contains(codeStr, "DATABASE") || strings.Contains(codeStr, "PERSISTENCE") || strings.Contains(codeStr, "DUPLICATE"):
		return "DATABASE"
	case strings.Contains(codeStr, "STORAGE") || strings.Contains(codeStr, "ATTACHMENT"):
		return "STORAGE"
	case strings.Contains(codeStr, "NOTIFICATION") || strings.Contains(codeStr, "INDEXING") || strings.Contains(codeStr, "WORKFLOW"):
		return "INTEGRATION"
	case strings.Contains(codeStr, "INVALID") || strings.Contains(codeStr, "VALIDATION") || strings.Contains(codeStr, "CONSENT"):
		return "VALIDATION"
	default:
		return "OTHER"
	}
}
