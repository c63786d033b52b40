package errors

import "fmt"

type AppError struct {
	Code    string
	Message string
	Cause   error
}

func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Cause
}

func New(code, message string, cause ...error) *AppError {
	var c error
	if len(cause) > 0 {
		c = cause[0]
	}
	return &AppError{
		Code:    code,
		Message: message,
		Cause:   c,
	}
}

var (
	ErrConfigInvalid = &AppError{Code: "CONFIG_001", Message: "invalid configuration"}

	ErrOCRUnavailable = &AppError{Code: "OCR_001", Message: "OCR service unavailable"}
	ErrOCRFailed      = &AppError{Code: "OCR_002", Message: "OCR extraction failed"}

	ErrLLMUnavailable = &AppError{Code: "LLM_001", Message: "classification service unavailable"}
	ErrLLMBadResponse = &AppError{Code: "LLM_002", Message: "unparseable classification response"}

	ErrNoClassification = &AppError{Code: "CLASS_001", Message: "no classification produced"}

	ErrDocumentNotFound = &AppError{Code: "DOC_001", Message: "document not found"}
	ErrManualOverride   = &AppError{Code: "DOC_002", Message: "document is manually overridden"}

	ErrArtifactNotFound = &AppError{Code: "QUEUE_001", Message: "artifact not found"}
	ErrQueueEmpty       = &AppError{Code: "QUEUE_002", Message: "no queued artifacts"}
	ErrRetriesExhausted = &AppError{Code: "QUEUE_003", Message: "artifact retry ceiling reached"}

	ErrPersistFailed = &AppError{Code: "PERSIST_001", Message: "persistence write rejected"}

	ErrUnauthorized = &AppError{Code: "AUTH_001", Message: "unauthorized"}
)

func IsAppError(err error) bool {
	_, ok := err.(*AppError)
	return ok
}

func GetCode(err error) string {
	if appErr, ok := err.(*AppError); ok {
		return appErr.Code
	}
	return "UNKNOWN"
}

func Wrap(err error, code, message string) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
		Cause:   err,
	}
}
