package generation

import "github.com/AI-gora-Boostcamp-AI-Tech-8-NLP-02/PTMT-Backend/pkg/types"

// invalidStateError signals generate() on a curriculum that is not in
// options_saved, for 409 mapping. Rejected without side effects.
type invalidStateError struct {
	id     string
	status types.CurriculumStatus
}

func (e invalidStateError) Error() string {
	return "curriculum " + e.id + " is not in options_saved state (" + string(e.status) + ")"
}

// ErrInvalidState constructs an invalidStateError.
func ErrInvalidState(id string, status types.CurriculumStatus) error {
	return invalidStateError{id: id, status: status}
}

// IsInvalidState reports whether err indicates a lifecycle precondition
// failure on generate.
func IsInvalidState(err error) bool {
	_, ok := err.(invalidStateError)
	return ok
}

// queueFullError signals that the work queue rejected the job, for 429
// mapping. The curriculum is rolled back to options_saved first.
type queueFullError struct{ id string }

func (e queueFullError) Error() string {
	return "generation queue full for curriculum " + e.id + ": retry later"
}

// ErrQueueFull constructs a queueFullError.
func ErrQueueFull(id string) error { return queueFullError{id: id} }

// IsQueueFull reports whether err indicates backpressure (return 429).
func IsQueueFull(err error) bool {
	_, ok := err.(queueFullError)
	return ok
}

// notReadyError signals a graph request before generation finished.
type notReadyError struct{ id string }

func (e notReadyError) Error() string {
	return "curriculum graph not generated yet: " + e.id
}

// ErrNotReady constructs a notReadyError.
func ErrNotReady(id string) error { return notReadyError{id: id} }

// IsNotReady reports whether err indicates the graph is not available.
func IsNotReady(err error) bool {
	_, ok := err.(notReadyError)
	return ok
}

// upstreamError signals a non-success response from the generation service.
type upstreamError struct{ msg string }

func (e upstreamError) Error() string { return e.msg }

// ErrUpstream constructs an upstreamError.
func ErrUpstream(msg string) error { return upstreamError{msg: msg} }

// IsUpstream reports whether err indicates an external service failure.
func IsUpstream(err error) bool {
	_, ok := err.(upstreamError)
	return ok
}

// upstreamTimeoutError signals that the external call exceeded its deadline.
type upstreamTimeoutError struct{}

func (upstreamTimeoutError) Error() string { return "generation service timed out" }

// IsUpstreamTimeout reports whether err indicates an external call timeout.
func IsUpstreamTimeout(err error) bool {
	_, ok := err.(upstreamTimeoutError)
	return ok
}
