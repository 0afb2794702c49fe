package scheduling

import "errors"

// Business outcomes and failures callers must branch on. Conflicts and hold
// state violations are expected results, not faults; store unavailability is
// distinguishable so a caller never mistakes it for "slot is free".
var (
	ErrInvalidInterval  = errors.New("scheduling: invalid interval")
	ErrConflict         = errors.New("scheduling: interval conflicts with an existing hold or appointment")
	ErrHoldNotFound     = errors.New("scheduling: hold not found")
	ErrHoldExpired      = errors.New("scheduling: hold has expired")
	ErrHoldInvalidState = errors.New("scheduling: hold is not active")
	ErrStoreUnavailable = errors.New("scheduling: durable store unavailable")
)
