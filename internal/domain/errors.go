package domain

import "errors"

var (
	ErrNotFound          = errors.New("not found")
	ErrInvalidTransition = errors.New("invalid step transition")
	ErrLaunchFailed      = errors.New("job launch failed")
)
