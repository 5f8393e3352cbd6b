package store

import "errors"

// ErrFeedbackNotFound is returned when no record exists for a podcast.
var ErrFeedbackNotFound = errors.New("feedback record not found")
