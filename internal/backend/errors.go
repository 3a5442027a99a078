package backend

import (
	"errors"
	"fmt"
)

// TransportError covers network failures and non-success HTTP responses.
// The orchestration layer treats it as terminal for the operation that
// produced it; nothing is retried automatically.
type TransportError struct {
	Op         string // "clarify", "submit", "status"
	StatusCode int    // 0 when the request never completed
	Err        error
}

func (e *TransportError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("%s: backend returned status %d", e.Op, e.StatusCode)
	}
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// IsTransport reports whether err is (or wraps) a TransportError.
func IsTransport(err error) bool {
	var te *TransportError
	return errors.As(err, &te)
}
