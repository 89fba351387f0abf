package analyzer

import (
	"errors"
	"fmt"
)

// ServiceError is returned when the analysis service answers with a non-2xx status.
type ServiceError struct {
	StatusCode int
}

func (e *ServiceError) Error() string {
	return fmt.Sprintf("Server responded with status: %d", e.StatusCode)
}

// TransportError wraps failures where no usable response was obtained:
// the request never completed or the body could not be decoded.
type TransportError struct {
	Op  string
	Err error
}

func (e *TransportError) Error() string {
	if e.Op == "" {
		return e.Err.Error()
	}
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// IsServiceError reports whether err carries a ServiceError and returns its status.
func IsServiceError(err error) (int, bool) {
	var se *ServiceError
	if errors.As(err, &se) {
		return se.StatusCode, true
	}
	return 0, false
}

// IsTransportError reports whether err carries a TransportError.
func IsTransportError(err error) bool {
	var te *TransportError
	return errors.As(err, &te)
}
