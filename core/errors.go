package core

import (
	"errors"
	"fmt"
)

// ErrConfiguration marks invalid scene parameters detected at assembly time.
// It is never recovered from: callers treat it as a startup failure.
var ErrConfiguration = errors.New("configuration error")

// ConfigErrorf returns an error wrapping ErrConfiguration.
func ConfigErrorf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrConfiguration, fmt.Sprintf(format, args...))
}
