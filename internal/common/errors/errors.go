// Package errors provides standardized error handling for the delinquency pipeline.
package errors

import (
	goerrors "errors"
	"fmt"
	"strings"
	"time"
)

// ErrorCode represents standardized internal error codes.
type ErrorCode string

const (
	ErrCodeMalformedInput      ErrorCode = "MALFORMED_INPUT"
	ErrCodeMergeKeyUnavailable ErrorCode = "MERGE_KEY_UNAVAILABLE"

	ErrCodeTemplateNotFound        ErrorCode = "TEMPLATE_NOT_FOUND"
	ErrCodeComplianceViolation     ErrorCode = "COMPLIANCE_VIOLATION"
	ErrCodeMissingField            ErrorCode = "MISSING_FIELD"
	ErrCodeTemplateRegistryInvalid ErrorCode = "TEMPLATE_REGISTRY_INVALID"

	ErrCodeEmptyResult   ErrorCode = "EMPTY_RESULT"
	ErrCodeExportFailed  ErrorCode = "EXPORT_FAILED"
	ErrCodeConfigInvalid ErrorCode = "CONFIG_INVALID"
)

// StandardError represents a structured application error.
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

// NewMalformedInputError marks a source file that cannot be parsed as tabular
// data. Fatal to that file's ingestion only.
func NewMalformedInputError(source string, err error) *StandardError {
	details := fmt.Sprintf("source: %s", source)
	if err != nil {
		details = fmt.Sprintf("source: %s, error: %s", source, err.Error())
	}
	return &StandardError{
		Code:      ErrCodeMalformedInput,
		Message:   "Input cannot be parsed as tabular data",
		Details:   details,
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewMergeKeyUnavailableError reports that neither ssn nor student_id is
// populated on both sides of the join.
func NewMergeKeyUnavailableError(details string) *StandardError {
	return &StandardError{
		Code:      ErrCodeMergeKeyUnavailable,
		Message:   "No join key populated on both datasets",
		Details:   details,
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewTemplateNotFoundError reports a lookup miss in the template store.
func NewTemplateNotFoundError(name string) *StandardError {
	return &StandardError{
		Code:      ErrCodeTemplateNotFound,
		Message:   "Template not found in store",
		Details:   fmt.Sprintf("template: %s", name),
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewComplianceViolationError lists every restricted category matched by the
// static scan of a template body.
func NewComplianceViolationError(template string, categories []string) *StandardError {
	return &StandardError{
		Code:      ErrCodeComplianceViolation,
		Message:   "Template contains restricted student-record categories",
		Details:   fmt.Sprintf("template: %s, categories: %s", template, strings.Join(categories, ", ")),
		Retryable: false,
		Metadata:  map[string]interface{}{"categories": categories},
		Timestamp: time.Now().UTC(),
	}
}

// NewMissingFieldError names the first placeholder with no corresponding value.
func NewMissingFieldError(template, field string) *StandardError {
	return &StandardError{
		Code:      ErrCodeMissingField,
		Message:   "Placeholder has no corresponding field value",
		Details:   fmt.Sprintf("template: %s, field: %s", template, field),
		Retryable: false,
		Metadata:  map[string]interface{}{"field": field},
		Timestamp: time.Now().UTC(),
	}
}

// NewTemplateRegistryInvalidError reports a registry file that failed schema
// validation.
func NewTemplateRegistryInvalidError(details string) *StandardError {
	return &StandardError{
		Code:      ErrCodeTemplateRegistryInvalid,
		Message:   "Template registry failed schema validation",
		Details:   details,
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewEmptyResultError is recoverable: the export sheets are still written.
func NewEmptyResultError(details string) *StandardError {
	return &StandardError{
		Code:      ErrCodeEmptyResult,
		Message:   "Filtered record set is empty",
		Details:   details,
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewExportFailedError wraps a write failure on an export destination.
func NewExportFailedError(sheet string, err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeExportFailed,
		Message:   "Failed to write export sheet",
		Details:   fmt.Sprintf("sheet: %s, error: %s", sheet, err.Error()),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewConfigInvalidError reports a configuration that fails validation.
func NewConfigInvalidError(details string) *StandardError {
	return &StandardError{
		Code:      ErrCodeConfigInvalid,
		Message:   "Invalid pipeline configuration",
		Details:   details,
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// HasCode reports whether err is (or wraps) a StandardError with the given code.
func HasCode(err error, code ErrorCode) bool {
	var stdErr *StandardError
	if goerrors.As(err, &stdErr) {
		return stdErr.Code == code
	}
	return false
}

// MissingField extracts the field name from a MISSING_FIELD error, if any.
func MissingField(err error) string {
	var stdErr *StandardError
	if goerrors.As(err, &stdErr) && stdErr.Code == ErrCodeMissingField {
		if f, ok := stdErr.Metadata["field"].(string); ok {
			return f
		}
	}
	return ""
}

// ViolatedCategories extracts the matched categories from a
// COMPLIANCE_VIOLATION error, if any.
func ViolatedCategories(err error) []string {
	var stdErr *StandardError
	if goerrors.As(err, &stdErr) && stdErr.Code == ErrCodeComplianceViolation {
		if c, ok := stdErr.Metadata["categories"].([]string); ok {
			return c
		}
	}
	return nil
}

// GetErrorCategory returns the category of the error code.
func GetErrorCategory(code ErrorCode) string {
	codeStr := string(code)
	switch {
	case strings.Contains(codeStr, "INPUT") || strings.Contains(codeStr, "MERGE"):
		return "INGESTION"
	case strings.Contains(codeStr, "TEMPLATE") || strings.Contains(codeStr, "COMPLIANCE") || strings.Contains(codeStr, "FIELD"):
		return "COMMUNICATION"
	case strings.Contains(codeStr, "RESULT") || strings.Contains(codeStr, "EXPORT"):
		return "REPORTING"
	case strings.Contains(codeStr, "CONFIG"):
		return "CONFIG"
	default:
		return "OTHER"
	}
}
