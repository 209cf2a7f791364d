package calendar

import "errors"

// ErrEmptyCalendar is returned when there are no events to encode
var ErrEmptyCalendar = errors.New("calendar has no events")
