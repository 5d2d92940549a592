package attendance

import "errors"

// ErrCalendarNotFound indicates the company work calendar has no entry for
// the requested month, so working days cannot be determined.
var ErrCalendarNotFound = errors.New("work calendar not found for period")
