package device

import "errors"

// Sentinel errors
var (
	ErrNoOutput = errors.New("no output bus for category")
)
