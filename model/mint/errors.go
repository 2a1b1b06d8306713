package mint

import (
	"errors"
	"fmt"
)

// RejectReason names why a client request was not buffered.
type RejectReason string

const (
	RejectEmpty         RejectReason = "empty"
	RejectTooLarge      RejectReason = "too_large"
	RejectDuplicate     RejectReason = "duplicate"
	RejectAlreadySigned RejectReason = "already_signed"
	RejectPendingFull   RejectReason = "pending_full"
)

// RejectError is returned when a client request is refused. It is a benign
// error which is reported to the client and never affects consensus.
type RejectError struct {
	Reason RejectReason
	err    error
}

// NewRejectErrorf creates a RejectError with the given reason and message.
func NewRejectErrorf(reason RejectReason, msg string, args ...interface{}) error {
	return RejectError{
		Reason: reason,
		err:    fmt.Errorf(msg, args...),
	}
}

func (e RejectError) Error() string {
	return fmt.Sprintf("request rejected (%s): %v", e.Reason, e.err)
}

func (e RejectError) Unwrap() error {
	return e.err
}

// IsRejectError returns whether err is a RejectError.
func IsRejectError(err error) bool {
	var e RejectError
	return errors.As(err, &e)
}

// RejectReasonOf returns the reason of a RejectError, if err is one.
func RejectReasonOf(err error) (RejectReason, bool) {
	var e RejectError
	if errors.As(err, &e) {
		return e.Reason, true
	}
	return "", false
}
