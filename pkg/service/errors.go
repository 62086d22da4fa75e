package service

import "errors"

var (
	// ErrOperationNotFound is returned when no operation matches an action.
	ErrOperationNotFound = errors.New("no operation found for specified action")

	// ErrDuplicateOperation is returned when an operation name is registered twice.
	ErrDuplicateOperation = errors.New("operation already registered")

	// ErrNoInstance is returned when an instance provider yields no service instance.
	ErrNoInstance = errors.New("service instance provider returned no instance")
)

// InvocationError wraps a failure raised while dispatching an operation
// (a recovered panic). Unwrap it before handing the error to a fault
// transformer so dispatch by error type keeps working.
type InvocationError struct {
	Operation string
	Err       error
	Stack     []byte
}

func (e *InvocationError) Error() string {
	return "invocation of " + e.Operation + " failed: " + e.Err.Error()
}

func (e *InvocationError) Unwrap() error {
	return e.Err
}
