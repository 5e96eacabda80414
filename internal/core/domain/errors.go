package domain

import (
	"errors"
	"fmt"
)

// Sentinel errors shared by the adapters.
var (
	ErrNotFound          = errors.New("not found")
	ErrInvalidTemplate   = errors.New("invalid template")
	ErrUnsupportedFormat = errors.New("unsupported record format")
	ErrInvalidWeights    = errors.New("invalid weights")
)

func invalidWeights(msg string) error {
	return fmt.Errorf("%w: %s", ErrInvalidWeights, msg)
}
