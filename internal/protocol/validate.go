package protocol

import (
	"fmt"

	"github.com/henrykey/kone-elevator-sub000/internal/constants"
)

// Validation error codes surfaced to callers before any I/O happens.
const (
	CodeSameSourceAndDest = "SAME_SOURCE_AND_DEST_FLOOR"
	CodeDelayOutOfRange   = "DELAY_OUT_OF_RANGE"
	CodeInvalidArea       = "INVALID_AREA"
	CodeMissingField      = "MISSING_REQUIRED_FIELD"
)

// ValidationError rejects a malformed call request before a frame is
// ever sent.
type ValidationError struct {
	Code    string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// CallRequest is the caller-facing, already area-resolved form of one
// elevator call. Never mutated after validation.
type CallRequest struct {
	SourceArea      int
	DestinationArea int
	Action          int
	Delay           int
	GroupSize       int
	AllowedLifts    []int
	Priority        int
}

// Validate rejects malformed requests. Area 0 is a real area, ground
// floor under the convention mapping, so only negative ids are
// invalid.
func (r *CallRequest) Validate() error {
	if r.SourceArea < 0 {
		return &ValidationError{Code: CodeInvalidArea, Message: fmt.Sprintf("source area %d is not a valid area id", r.SourceArea)}
	}
	if r.DestinationArea < 0 {
		return &ValidationError{Code: CodeInvalidArea, Message: fmt.Sprintf("destination area %d is not a valid area id", r.DestinationArea)}
	}
	if r.SourceArea == r.DestinationArea {
		return &ValidationError{
			Code:    CodeSameSourceAndDest,
			Message: fmt.Sprintf("source and destination are both area %d", r.SourceArea),
		}
	}
	if r.Delay < 0 || r.Delay > constants.MaxCallDelay {
		return &ValidationError{
			Code:    CodeDelayOutOfRange,
			Message: fmt.Sprintf("delay %d outside [0, %d] seconds", r.Delay, constants.MaxCallDelay),
		}
	}
	return nil
}
