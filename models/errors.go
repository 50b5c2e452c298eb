package models

import "fmt"

// Error codes used across the ingest pipeline.
const (
	ErrCodeBrowserCrash      = "BROWSER_CRASH"
	ErrCodeNavigation        = "NAVIGATION_FAILED"
	ErrCodeChallengeTimeout  = "CHALLENGE_TIMEOUT"
	ErrCodeAcquisitionFailed = "ACQUISITION_FAILED"
	ErrCodeStoreFailure      = "STORE_FAILURE"
	ErrCodeInvalidInput      = "INVALID_INPUT"
)

// IngestError is the internal error type carrying an error code.
// It implements the error interface and supports error wrapping via Unwrap.
type IngestError struct {
	Code    string
	Message string
	Err     error // wrapped original error
}

func (e *IngestError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *IngestError) Unwrap() error {
	return e.Err
}

// NewIngestError creates a new IngestError.
func NewIngestError(code, message string, err error) *IngestError {
	return &IngestError{Code: code, Message: message, Err: err}
}
