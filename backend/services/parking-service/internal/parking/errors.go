package parking

import "errors"

// Validation errors returned by the engine. Callers match them with errors.Is.
var (
	ErrUnknownZone                    = errors.New("parking: unknown zone")
	ErrOutsideOperatingHours          = errors.New("parking: outside operating hours")
	ErrDurationExceedsOperatingWindow = errors.New("parking: duration exceeds operating window")
	ErrMaxDurationExceeded            = errors.New("parking: extension exceeds closing time")
	ErrInvalidDuration                = errors.New("parking: duration must be a positive number of hours")
	ErrSessionNotActive               = errors.New("parking: session is not active")
	ErrSessionAlreadyActive           = errors.New("parking: vehicle already has an active session")
	ErrSessionNotLapsed               = errors.New("parking: session has not lapsed")
	ErrPaymentFailed                  = errors.New("parking: payment failed")
)

var errorKinds = []struct {
	err  error
	kind string
}{
	{ErrUnknownZone, "unknown_zone"},
	{ErrOutsideOperatingHours, "outside_operating_hours"},
	{ErrDurationExceedsOperatingWindow, "duration_exceeds_operating_window"},
	{ErrMaxDurationExceeded, "max_duration_exceeded"},
	{ErrInvalidDuration, "invalid_duration"},
	{ErrSessionNotActive, "session_not_active"},
	{ErrSessionAlreadyActive, "session_already_active"},
	{ErrSessionNotLapsed, "session_not_lapsed"},
	{ErrPaymentFailed, "payment_failed"},
}

// Kind returns a stable code for err, or "internal" for errors outside the taxonomy.
func Kind(err error) string {
	for _, k := range errorKinds {
		if errors.Is(err, k.err) {
			return k.kind
		}
	}
	return "internal"
}
