package irrecoverable

import (
	"errors"
	"fmt"
)

var exceptionType = exception{}

// exception marks an error no caller is expected to handle, such as a ledger
// entry which cannot be decoded. It does not unwrap, so a wrapped sentinel is
// never mistaken for a benign, documented error.
type exception struct {
	err error
}

func (e exception) Error() string {
	return e.err.Error()
}

// NewException turns err into an exception.
func NewException(err error) error {
	return exception{err: err}
}

func NewExceptionf(msg string, args ...any) error {
	return NewException(fmt.Errorf(msg, args...))
}

// IsException returns whether err is or wraps an exception.
func IsException(err error) bool {
	return errors.As(err, &exceptionType)
}
