package repository

import "errors"

// Storage-level failures. Implementations translate driver errors into these so
// callers never depend on a specific database.
var (
	// ErrSlotConflict is returned when a live appointment of the same practitioner
	// overlaps the requested interval.
	ErrSlotConflict = errors.New("interval overlaps a live appointment")
	// ErrDuplicateStart is returned when the practitioner already has an appointment
	// starting at the same instant.
	ErrDuplicateStart = errors.New("practitioner already has an appointment at this start time")
	// ErrStaleWrite is returned when a compare-and-set update matched no row.
	ErrStaleWrite = errors.New("record was modified concurrently")
	// ErrDuplicate is returned for any other unique violation.
	ErrDuplicate = errors.New("record already exists")
	// ErrStoreUnavailable is returned when the store did not answer in time or a
	// lock could not be obtained. The operation may be retried.
	ErrStoreUnavailable = errors.New("store temporarily unavailable")
)
