package signature

import (
	"errors"
)

var (
	ErrInvalidFormat      = errors.New("invalid signature format")
	ErrInsufficientShares = errors.New("insufficient threshold signature shares")
	ErrInvalidSignature   = errors.New("invalid signature")
	ErrInvalidInputs      = errors.New("invalid inputs")
)
