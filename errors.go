package sagaflow

import "fmt"

// ErrorKind is the semantic tag attached to a failure, not a Go type name.
type ErrorKind string

const (
	KindUserError         ErrorKind = "user_error"
	KindRunnerMismatch    ErrorKind = "runner_mismatch"
	KindSerializationErr  ErrorKind = "serialization_error"
	KindUnknownStep       ErrorKind = "unknown_step"
	KindInvalidStrategy   ErrorKind = "invalid_strategy"
	KindCancelled         ErrorKind = "cancelled"
	KindContractViolation ErrorKind = "contract_violation"
)

// ErrorSummary is the structured, serializable shape of a failure.
type ErrorSummary struct {
	Kind    ErrorKind         `json:"kind"`
	Message string            `json:"message"`
	Fields  map[string]string `json:"fields,omitempty"`
}

func (s ErrorSummary) Error() string {
	return fmt.Sprintf("%s: %s", s.Kind, s.Message)
}

// ExecutionError wraps an ErrorSummary as a Go error. Every non-contract_violation
// failure surfaces through Outcome.Errors as one of these; none of them are
// ever returned to a caller as a raw Go error from Run.
type ExecutionError struct {
	Summary ErrorSummary
}

func (e *ExecutionError) Error() string {
	return e.Summary.Error()
}

func newExecutionError(kind ErrorKind, format string, args ...interface{}) *ExecutionError {
	return &ExecutionError{Summary: ErrorSummary{Kind: kind, Message: fmt.Sprintf(format, args...)}}
}

// ContractViolation marks a programming error in the executable tree itself
// (duplicate leaf names, a nil child, re-entrant Run on a live context). Per
// spec this is the only error class that is raised (panicked), never
// returned through Outcome.Errors.
type ContractViolation struct {
	Message string
}

func (c ContractViolation) Error() string {
	return "contract_violation: " + c.Message
}

func panicContractViolation(format string, args ...interface{}) {
	panic(ContractViolation{Message: fmt.Sprintf(format, args...)})
}

// classifyError turns an arbitrary error returned by user code into the
// ErrorKind the retry policy and failure strategy reason about. An error
// that already carries an ExecutionError (e.g. propagated from a nested
// executable) keeps its original kind; anything else from user code is
// user_error.
func classifyError(err error) ErrorKind {
	if err == nil {
		return ""
	}
	if ee, ok := err.(*ExecutionError); ok {
		return ee.Summary.Kind
	}
	return KindUserError
}

func toExecutionError(kind ErrorKind, err error) *ExecutionError {
	if ee, ok := err.(*ExecutionError); ok {
		return ee
	}
	return &ExecutionError{Summary: ErrorSummary{Kind: kind, Message: err.Error()}}
}
