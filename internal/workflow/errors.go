package workflow

import "errors"

// Fatal-tier sentinels. These abort the whole workflow and are surfaced to
// the caller verbatim; there is no automatic retry.
var (
	// ErrPlanning means neither the structured nor the simplified planning
	// path produced a usable plan.
	ErrPlanning = errors.New("planning failed: no usable plan could be produced")

	// ErrCriticalTask means a retrieval or processing task failed.
	ErrCriticalTask = errors.New("critical task failed")

	// ErrUnknownAction means the plan references an action outside the
	// closed action set.
	ErrUnknownAction = errors.New("unknown action")
)
