package api

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrInvalidArgument = errors.New("invalid argument")
	ErrOutOfRange      = errors.New("value out of range")
	ErrBridgeNotFound  = errors.New("could not find a Hue bridge on the local network")
	ErrNotFound        = errors.New("not found")
	ErrRemoteOperation = errors.New("remote operation failed")
	ErrDiscovery       = errors.New("bridge discovery failed")
)

// RemoteError reports a bridge or discovery call that did not succeed.
// It matches ErrRemoteOperation with errors.Is.
type RemoteError struct {
	// Operation that failed, e.g. "get all lights"
	Op string
	// HTTP status returned by the remote end
	StatusCode int
	// Description from a Hue error body, if there was one
	Description string
}

func (e *RemoteError) Error() string {
	if e.Description != "" {
		return fmt.Sprintf("failed to %s: status %d: %s", e.Op, e.StatusCode, e.Description)
	}
	return fmt.Sprintf("failed to %s: status %d", e.Op, e.StatusCode)
}

// Is makes errors.Is(err, ErrRemoteOperation) hold for every RemoteError
func (e *RemoteError) Is(target error) bool {
	return target == ErrRemoteOperation
}

// AsyncError wraps a failure surfaced through Await, keeping the original cause
type AsyncError struct {
	Op  string
	Err error
}

func (e *AsyncError) Error() string {
	return e.Op + ": " + e.Err.Error()
}

func (e *AsyncError) Unwrap() error {
	return e.Err
}

// requireNotBlank rejects empty and whitespace-only values
func requireNotBlank(name, value string) error {
	if strings.TrimSpace(value) == "" {
		return fmt.Errorf("%w: %s must not be empty", ErrInvalidArgument, name)
	}
	return nil
}
