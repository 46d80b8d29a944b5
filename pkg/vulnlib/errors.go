package vulnlib

import (
	"fmt"

	"github.com/pkg/errors"
)

// ErrInvalidArgument is returned by Lookup when no coordinates are given.
var ErrInvalidArgument = errors.New("at least one package coordinate is required")

// UpstreamError reports a failed or malformed exchange with the vulnerability
// service. The whole batch is lost; nothing is retried.
type UpstreamError struct {
	// StatusCode is set when the service answered with a non-success status.
	StatusCode int
	Err        error
}

func (e *UpstreamError) Error() string {
	if e.StatusCode != 0 && e.Err == nil {
		return fmt.Sprintf("vulnerability service: unexpected response; status: %d", e.StatusCode)
	}
	return fmt.Sprintf("vulnerability service: %v", e.Err)
}

func (e *UpstreamError) Unwrap() error {
	return e.Err
}

// SizeMismatchError means the response did not hold one report per request.
type SizeMismatchError struct {
	Expected int
	Actual   int
}

func (e *SizeMismatchError) Error() string {
	return fmt.Sprintf("result size mismatch; expected: %d, have: %d", e.Expected, e.Actual)
}
