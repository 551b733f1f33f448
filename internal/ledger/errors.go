package ledger

import (
	"errors"
	"fmt"
)

// Sentinel errors.
var (
	// ErrNotFound means the node does not know the requested object.
	ErrNotFound = errors.New("not found")
	// ErrNetwork matches every *NetworkError.
	ErrNetwork = errors.New("ledger network error")
	// ErrRejected means the node refused a submitted payload.
	ErrRejected = errors.New("payload rejected")
)

// NetworkError is a transport or decoding failure talking to the node.
type NetworkError struct {
	Op  string
	Err error
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("ledger %s: %v", e.Op, e.Err)
}

func (e *NetworkError) Unwrap() error { return e.Err }

// Is makes errors.Is(err, ErrNetwork) true for any NetworkError.
func (e *NetworkError) Is(target error) bool {
	return target == ErrNetwork
}

// NewNetworkError wraps err as a NetworkError for operation op.
func NewNetworkError(op string, err error) error {
	return &NetworkError{Op: op, Err: err}
}
