package history

import "errors"

// ErrInvalidRetention indicates a non-positive prune retention.
var ErrInvalidRetention = errors.New("history: retention must be positive")
