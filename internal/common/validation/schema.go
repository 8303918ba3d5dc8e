package validation

import (
	"fmt"
	"strings"

	"github.com/xeipuuv/gojsonschema"
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

// Err collapses an invalid result into a single error, nil when valid.
func (r *ValidationResult) Err() error {
	if r.Valid {
		return nil
	}
	msgs := make([]string, 0, len(r.Errors))
	for _, e := range r.Errors {
		msgs = append(msgs, fmt.Sprintf("%s: %s", e.Field, e.Message))
	}
	return fmt.Errorf("schema validation failed: %s", strings.Join(msgs, "; "))
}

// ValidateJSON checks document against a JSON schema given as a string.
// A document that is not JSON at all is reported as an error, not a result.
func ValidateJSON(schema string, document []byte) (*ValidationResult, error) {
	result, err := gojsonschema.Validate(
		gojsonschema.NewStringLoader(schema),
		gojsonschema.NewBytesLoader(document),
	)
	if err != nil {
		return nil, fmt.Errorf("validate document: %w", err)
	}

	out := &ValidationResult{Valid: result.Valid()}
	for _, re := range result.Errors() {
		out.Errors = append(out.Errors, ValidationError{
			Field:   re.Field(),
			Message: re.Description(),
			Code:    strings.ToUpper(re.Type()),
		})
	}
	return out, nil
}

// Check is ValidateJSON folded into a single error.
func Check(schema string, document []byte) error {
	result, err := ValidateJSON(schema, document)
	if err != nil {
		return err
	}
	return result.Err()
}
