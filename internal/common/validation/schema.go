// internal/common/validation/schema.go
package validation

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"

	"github.com/xeipuuv/gojsonschema"

	"recruitment-portal/internal/common/errors"
	"recruitment-portal/pkg/registry"
)

type ValidationResult struct {
	Valid  bool              `json:"valid"`
	Errors []ValidationError `json:"errors,omitempty"`
}

type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
	Code    string `json:"code,omitempty"`
}

// ValidateInput checks a decoded JSON document against a JSON schema.
func ValidateInput(input interface{}, schema map[string]interface{}) (*ValidationResult, error) {
	result, err := gojsonschema.Validate(gojsonschema.NewGoLoader(schema), gojsonschema.NewGoLoader(input))
	if err != nil {
		return nil, fmt.Errorf("validation error: %w", err)
	}

	out := &ValidationResult{Valid: result.Valid()}
	for _, desc := range result.Errors() {
		out.Errors = append(out.Errors, ValidationError{
			Field:   fieldName(desc),
			Message: desc.Description(),
			Code:    strings.ToUpper(desc.Type()),
		})
	}
	return out, nil
}

// ValidateJobVariables checks raw job variables against the activity's input
// schema and returns an INVALID_JOB_INPUT error when they do not conform.
func ValidateJobVariables(activity *registry.Activity, variables string) error {
	var doc interface{}
	if err := json.Unmarshal([]byte(variables), &doc); err != nil {
		return errors.NewInvalidJobInputError(fmt.Sprintf("parse variables: %v", err))
	}
	if len(activity.InputSchema) == 0 {
		return nil
	}
	result, err := ValidateInput(doc, activity.InputSchema)
	if err != nil {
		return errors.NewInternalError(err)
	}
	if !result.Valid {
		return errors.NewInvalidJobInputError(strings.Join(result.GetErrorMessages(), "; ")).
			WithMetadata("taskType", activity.TaskType)
	}
	return nil
}

// gojsonschema reports required-property errors against the parent object.
func fieldName(desc gojsonschema.ResultError) string {
	if desc.Type() == "required" {
		if prop, ok := desc.Details()["property"].(string); ok {
			parent := strings.TrimPrefix(desc.Context().String("."), gojsonschema.STRING_ROOT_SCHEMA_PROPERTY)
			parent = strings.TrimPrefix(parent, ".")
			if parent == "" {
				return prop
			}
			return parent + "." + prop
		}
	}
	return desc.Field()
}

var activityIDPattern = regexp.MustCompile(`^[a-z]+\.[a-z]+\.[a-z]+$`)

// ValidateActivityNaming checks the domain.subdomain.action convention.
func ValidateActivityNaming(activityID string) error {
	if !activityIDPattern.MatchString(activityID) {
		return fmt.Errorf("activity ID must follow format: domain.subdomain.action (e.g., recruitment.application.approve)")
	}
	return nil
}

func (vr *ValidationResult) GetErrorMessages() []string {
	messages := make([]string, len(vr.Errors))
	for i, err := range vr.Errors {
		messages[i] = fmt.Sprintf("%s: %s", err.Field, err.Message)
	}
	return messages
}

func (vr *ValidationResult) HasErrors(field string) bool {
	for _, err := range vr.Errors {
		if err.Field == field {
			return true
		}
	}
	return false
}
