package common

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidAddress is returned for malformed wallet input. It is never
	// retried.
	ErrInvalidAddress = errors.New("invalid address")
	// ErrChainUnavailable means the RPC provider could not be reached after the
	// reader's retry policy was exhausted, or the scan ran out of time.
	ErrChainUnavailable = errors.New("chain unavailable")
	// ErrResolutionIncomplete flags a result where some approvals could not be
	// verified and were left out.
	ErrResolutionIncomplete = errors.New("resolution incomplete")
	ErrUnsupportedChain     = errors.New("unsupported chain")
)

const (
	CodeInvalidAddress       = "INVALID_ADDRESS"
	CodeChainUnavailable     = "CHAIN_UNAVAILABLE"
	CodeResolutionIncomplete = "RESOLUTION_INCOMPLETE"
	CodeUnsupportedChain     = "UNSUPPORTED_CHAIN"
	CodeInternal             = "INTERNAL"
)

// IncompleteError carries how many approval groups were excluded because
// their live state could not be read.
type IncompleteError struct {
	Unresolved int
	Cause      error
}

func (e *IncompleteError) Error() string {
	if e.Cause == nil {
		return fmt.Sprintf("%s: %d approvals could not be verified", ErrResolutionIncomplete, e.Unresolved)
	}
	return fmt.Sprintf("%s: %d approvals could not be verified: %s", ErrResolutionIncomplete, e.Unresolved, e.Cause)
}

func (e *IncompleteError) Unwrap() []error {
	if e.Cause == nil {
		return []error{ErrResolutionIncomplete}
	}
	return []error{ErrResolutionIncomplete, e.Cause}
}

// ErrorCode maps an error to the stable code surfaced to API callers.
func ErrorCode(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrInvalidAddress):
		return CodeInvalidAddress
	case errors.Is(err, ErrUnsupportedChain):
		return CodeUnsupportedChain
	case errors.Is(err, ErrResolutionIncomplete):
		return CodeResolutionIncomplete
	case errors.Is(err, ErrChainUnavailable):
		return CodeChainUnavailable
	default:
		return CodeInternal
	}
}

// Retryable reports whether repeating the same request later may succeed.
func Retryable(err error) bool {
	switch ErrorCode(err) {
	case CodeChainUnavailable, CodeResolutionIncomplete, CodeInternal:
		return true
	default:
		return false
	}
}
