package notify

import "errors"

// Sentinel errors for trigger dispatch.
var (
	// ErrNoTrigger indicates that no trigger is configured for the requested kind.
	ErrNoTrigger = errors.New("no trigger configured for kind")
)
