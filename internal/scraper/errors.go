package scraper

import "errors"

// ErrStopped is returned when a run ends early because its job was moved to a
// terminal state from outside. Callers distinguish it from real failures: a
// stopped run keeps everything written so far and is not an error condition.
var ErrStopped = errors.New("scraping stopped by job state")
