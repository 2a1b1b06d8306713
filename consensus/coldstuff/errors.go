package coldstuff

import (
	"errors"
	"fmt"
)

// ErrAlreadyProposed is returned when the node proposes twice in the same epoch.
var ErrAlreadyProposed = errors.New("already proposed in current epoch")

// ErrUnknownMessageCode is returned when a payload carries an unknown message code.
type ErrUnknownMessageCode struct {
	code uint8
}

func (e ErrUnknownMessageCode) Error() string {
	return fmt.Sprintf("unknown message code: %d", e.code)
}

// IsErrUnknownMessageCode returns true if an error is ErrUnknownMessageCode.
func IsErrUnknownMessageCode(err error) bool {
	var e ErrUnknownMessageCode
	return errors.As(err, &e)
}
