// internal/loan/validation.go
package loan

import (
	"encoding/json"
	"strings"

	"loan-workers/internal/common/errors"
	"loan-workers/internal/common/validation"
	"loan-workers/internal/models"

	"github.com/mitchellh/mapstructure"
)

const applicationSchema = `{
  "$schema": "http://json-schema.org/draft-07/schema#",
  "type": "object",
  "required": ["name", "email", "loanAmount", "creditScore", "annualIncome", "hasBankruptcy"],
  "properties": {
    "name":          {"type": "string", "minLength": 1, "maxLength": 200, "pattern": "\\S"},
    "email":         {"type": "string", "format": "email", "maxLength": 254},
    "loanAmount":    {"type": "number", "exclusiveMinimum": 0},
    "creditScore":   {"type": "integer", "minimum": 300, "maximum": 850},
    "annualIncome":  {"type": "number", "minimum": 0},
    "hasBankruptcy": {"type": "boolean"}
  }
}`

var applicationValidator = validation.MustCompileSchema(applicationSchema)

// ValidateApplication checks a raw application document and returns the
// typed request. Every problem found is reported in one VALIDATION_FAILED
// error; documents that pass are decoded into ApplicationRequest.
func ValidateApplication(document map[string]interface{}) (*models.ApplicationRequest, error) {
	if document == nil {
		return nil, errors.NewValidationError([]string{"application: is required"})
	}

	result, err := applicationValidator.Validate(document)
	if err != nil {
		return nil, errors.NewParseError(err)
	}
	if !result.Valid {
		return nil, errors.NewValidationError(result.GetErrorMessages())
	}

	var req models.ApplicationRequest
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		TagName: "json",
		Result:  &req,
	})
	if err != nil {
		return nil, errors.NewInternalError(err)
	}
	if err := decoder.Decode(document); err != nil {
		return nil, errors.NewParseError(err)
	}
	req.Name = strings.TrimSpace(req.Name)
	return &req, nil
}

// ValidateRequest validates an already typed request, as used by starters
// that reject obviously bad input before creating an instance.
func ValidateRequest(req models.ApplicationRequest) error {
	raw, err := json.Marshal(req)
	if err != nil {
		return errors.NewParseError(err)
	}
	var document map[string]interface{}
	if err := json.Unmarshal(raw, &document); err != nil {
		return errors.NewParseError(err)
	}
	_, err = ValidateApplication(document)
	return err
}
