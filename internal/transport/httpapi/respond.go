// internal/transport/httpapi/respond.go
package httpapi

import (
	"encoding/json"
	stderrors "errors"
	"net/http"

	"recruitment-portal/internal/common/errors"
)

// errorBody is the envelope every failed request answers with.
type errorBody struct {
	Code    errors.ErrorCode  `json:"code"`
	Message string            `json:"message"`
	Fields  map[string]string `json:"fields,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	// Headers are already sent; an encode failure cannot change the status.
	_ = json.NewEncoder(w).Encode(body)
}

func writeError(w http.ResponseWriter, err error) {
	stdErr := errors.Normalize(err)
	body := errorBody{Code: stdErr.Code, Message: stdErr.Message}
	if fields, ok := stdErr.Metadata["fields"].(map[string]string); ok && len(fields) > 0 {
		body.Fields = fields
	} else if field, ok := stdErr.Metadata["field"].(string); ok {
		body.Fields = map[string]string{field: stdErr.Message}
	}
	writeJSON(w, errors.HTTPStatus(stdErr.Code), body)
}

func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxJSONBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		var maxErr *http.MaxBytesError
		if stderrors.As(err, &maxErr) {
			return errors.NewInvalidRequestError("request body too large")
		}
		return errors.NewInvalidRequestError(err.Error())
	}
	return nil
}
