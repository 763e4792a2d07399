package chef

import (
	"errors"
	"fmt"
)

// Error codes the chef service uses in its protocol error objects.
const (
	CodeInvalidRequest   = 400
	CodeOrderNotFound    = 404
	CodeAlreadyCancelled = 409
	CodeKitchenClosed    = 503
)

// ProtocolError is an application-level error object returned by the
// chef service inside a well-formed envelope. It is never retried.
type ProtocolError struct {
	Code    int
	Message string
	Data    []byte
}

func (e *ProtocolError) Error() string {
	return fmt.Sprintf("chef error %d: %s", e.Code, e.Message)
}

// SchemaError marks a response that is malformed or semantically
// invalid. A malformed response will not become well-formed on retry,
// so it propagates immediately.
type SchemaError struct {
	Reason string
	Err    error
}

func (e *SchemaError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("chef schema violation: %s: %v", e.Reason, e.Err)
	}
	return fmt.Sprintf("chef schema violation: %s", e.Reason)
}

func (e *SchemaError) Unwrap() error { return e.Err }

// UnavailableError is returned when every transport attempt failed.
// Last holds the error observed on the final attempt.
type UnavailableError struct {
	Attempts int
	Last     error
}

func (e *UnavailableError) Error() string {
	return fmt.Sprintf("chef unavailable after %d attempts: %v", e.Attempts, e.Last)
}

func (e *UnavailableError) Unwrap() error { return e.Last }

// IsUnavailable reports whether err means the chef service could not
// be reached at all (retries exhausted).
func IsUnavailable(err error) bool {
	var ue *UnavailableError
	return errors.As(err, &ue)
}
