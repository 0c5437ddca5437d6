package repository

import (
	"errors"
	"fmt"
)

var (
	ErrTeacherNotFound    = errors.New("teacher not found")
	ErrDuplicateTeacherID = errors.New("teacher id already exists")
	ErrRatingNotFound     = errors.New("rating not found")
	ErrAmbiguousRating    = errors.New("more than one rating matches")
	ErrInvalidRating      = errors.New("invalid rating")
)

// PersistenceError reports that the backing file could not be rewritten. The
// in-memory state is left as it was before the failed mutation.
type PersistenceError struct {
	Op   string
	Path string
	Err  error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Op, e.Path, e.Err)
}

func (e *PersistenceError) Unwrap() error {
	return e.Err
}

// IsPersistence reports whether err came from a failed file rewrite.
func IsPersistence(err error) bool {
	var pe *PersistenceError
	return errors.As(err, &pe)
}
