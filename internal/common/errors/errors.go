// Package errors provides the standardized failure taxonomy for the insights pipeline.
package errors

import (
	stderrors "errors"
	"fmt"
	"strings"
	"time"
)

// ==========================
// 1. Standard Error Types
// ==========================

// ErrorCode represents standardized internal error codes.
type ErrorCode string

const (
	ErrCodeConfiguration        ErrorCode = "CONFIGURATION_ERROR"
	ErrCodeSourceFetchFailed    ErrorCode = "SOURCE_FETCH_FAILED"
	ErrCodeSourceDecodeFailed   ErrorCode = "SOURCE_DECODE_FAILED"
	ErrCodeGenerationFailed     ErrorCode = "GENERATION_FAILED"
	ErrCodeReportAssemblyFailed ErrorCode = "REPORT_ASSEMBLY_FAILED"
	ErrCodeUploadPrerequisite   ErrorCode = "UPLOAD_PREREQUISITE_MISSING"
	ErrCodeUploadFailed         ErrorCode = "UPLOAD_FAILED"
	ErrCodeInvalidInput         ErrorCode = "INVALID_INPUT"
	ErrCodeInternal             ErrorCode = "INTERNAL_ERROR"
)

// PipelineFailureTag is the short category every failure payload carries.
const PipelineFailureTag = "Pipeline Failure"

// StandardError represents a structured application error.
type StandardError struct {
	Code      ErrorCode `json:"code"`
	Message   string    `json:"message"`
	Details   string    `json:"details,omitempty"`
	Retryable bool      `json:"retryable"`
	Timestamp time.Time `json:"timestamp"`

	cause error
}

func (e *StandardError) Error() string {
	return fmt.Sprintf("StandardError[%s]: %s", e.Code, e.Message)
}

func (e *StandardError) Unwrap() error {
	return e.cause
}

// FailurePayload is the machine-parseable body returned for failed requests.
type FailurePayload struct {
	Error   string `json:"error"`
	Details string `json:"details"`
}

// ==========================
// 2. Error Constructors
// ==========================

// NewConfigurationError names the required settings that are absent.
func NewConfigurationError(missing []string) *StandardError {
	return &StandardError{
		Code:      ErrCodeConfiguration,
		Message:   fmt.Sprintf("Error: environment variables %s not configured.", strings.Join(missing, " or ")),
		Details:   strings.Join(missing, ","),
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

func NewSourceFetchError(bucket, key string, err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeSourceFetchFailed,
		Message:   fmt.Sprintf("Failed to fetch s3://%s/%s", bucket, key),
		Details:   err.Error(),
		Retryable: true,
		Timestamp: time.Now().UTC(),
		cause:     err,
	}
}

// NewSourceDecodeError wraps a read or parse failure that happened mid-stream.
func NewSourceDecodeError(err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeSourceDecodeFailed,
		Message:   "Failed to decode source records",
		Details:   err.Error(),
		Retryable: false,
		Timestamp: time.Now().UTC(),
		cause:     err,
	}
}

func NewGenerationError(modelID string, err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeGenerationFailed,
		Message:   fmt.Sprintf("Narrative generation with %s failed", modelID),
		Details:   err.Error(),
		Retryable: true,
		Timestamp: time.Now().UTC(),
		cause:     err,
	}
}

func NewReportAssemblyError(err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeReportAssemblyFailed,
		Message:   "Report assembly failed",
		Details:   err.Error(),
		Retryable: false,
		Timestamp: time.Now().UTC(),
		cause:     err,
	}
}

// NewInvalidInputError is raised for job variables of the wrong shape.
func NewInvalidInputError(details string) *StandardError {
	return &StandardError{
		Code:      ErrCodeInvalidInput,
		Message:   "Invalid request input",
		Details:   details,
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

func NewUploadPrerequisiteError(missing []string) *StandardError {
	return &StandardError{
		Code:      ErrCodeUploadPrerequisite,
		Message:   "Upload prerequisites missing",
		Details:   strings.Join(missing, ", "),
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

func NewUploadError(bucket, key string, err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeUploadFailed,
		Message:   fmt.Sprintf("Upload to s3://%s/%s failed", bucket, key),
		Details:   err.Error(),
		Retryable: true,
		Timestamp: time.Now().UTC(),
		cause:     err,
	}
}

// ==========================
// 3. Conversion Helpers
// ==========================

// Normalize ensures we always have a StandardError.
func Normalize(err error) *StandardError {
	var stdErr *StandardError
	if stderrors.As(err, &stdErr) {
		return stdErr
	}
	return &StandardError{
		Code:      ErrCodeInternal,
		Message:   "Unexpected error",
		Details:   err.Error(),
		Retryable: false,
		Timestamp: time.Now().UTC(),
		cause:     err,
	}
}

// ToFailurePayload carries the underlying message, not the wrapper text.
func ToFailurePayload(err error) FailurePayload {
	return FailurePayload{
		Error:   PipelineFailureTag,
		Details: Normalize(err).Details,
	}
}

// IsConfiguration reports whether err is a ConfigurationError.
func IsConfiguration(err error) bool {
	var stdErr *StandardError
	return stderrors.As(err, &stdErr) && stdErr.Code == ErrCodeConfiguration
}

// GetErrorCategory groups codes for logging and metrics labels.
func GetErrorCategory(code ErrorCode) string {
	switch code {
	case ErrCodeConfiguration:
		return "configuration"
	case ErrCodeSourceFetchFailed, ErrCodeSourceDecodeFailed:
		return "source"
	case ErrCodeGenerationFailed:
		return "generation"
	case ErrCodeReportAssemblyFailed:
		return "report"
	case ErrCodeUploadPrerequisite, ErrCodeUploadFailed:
		return "upload"
	case ErrCodeInvalidInput:
		return "input"
	default:
		return "internal"
	}
}
