package collection

import (
	"errors"
	"fmt"
)

var (
	ErrUserNotFound   = errors.New("user not found")
	ErrMovieNotFound  = errors.New("movie not found")
	ErrDuplicateUser  = errors.New("a user with this name already exists")
	ErrDuplicateMovie = errors.New("movie is already in this user's collection")
	ErrInvalidUser    = errors.New("invalid user data")
	ErrInvalidMovie   = errors.New("invalid movie data")
)

// InvalidFieldError reports a caller-supplied field value that failed
// validation. The whole operation is rejected; no partial write occurs.
type InvalidFieldError struct {
	Field  string
	Reason string
}

func (e *InvalidFieldError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// IsInvalidField reports whether err is an InvalidFieldError, returning it.
func IsInvalidField(err error) (*InvalidFieldError, bool) {
	var fieldErr *InvalidFieldError
	if errors.As(err, &fieldErr) {
		return fieldErr, true
	}
	return nil, false
}
