package meeting

import "errors"

// Validation errors. These are detected before any network call and must
// be surfaced to the caller synchronously, with no retry.
var (
	// ErrMissingField indicates a required date or time field was empty.
	// Partial input (date without time, or time without date) is always a
	// missing-field rejection, never silently defaulted.
	ErrMissingField = errors.New("missing required field")

	// ErrInvalidFormat indicates the date or time could not be parsed as a
	// valid calendar date-time (month 13, day 32, hour 25, and so on).
	ErrInvalidFormat = errors.New("invalid date or time format")

	// ErrNotInFuture indicates the composed instant is not strictly after
	// the current instant. Instant meetings bypass this check.
	ErrNotInFuture = errors.New("meeting must be scheduled for a future time")

	// ErrInvalidInterval indicates an explicit end time that is not after
	// the start time.
	ErrInvalidInterval = errors.New("end time must be after start time")
)
