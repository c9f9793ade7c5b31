package containers

import "fmt"

// ImageUnavailableError is returned when the configured executor image
// cannot be resolved. Never retried.
type ImageUnavailableError struct {
	Image string
	Cause error
}

func (e *ImageUnavailableError) Error() string {
	return fmt.Sprintf("image unavailable: %s: %v", e.Image, e.Cause)
}

func (e *ImageUnavailableError) Unwrap() error { return e.Cause }

// ContainerUnavailableError is returned when a container cannot be
// acquired or reached for a user id.
type ContainerUnavailableError struct {
	UserID string
	Cause  error
}

func (e *ContainerUnavailableError) Error() string {
	return fmt.Sprintf("container unavailable for user %q: %v", e.UserID, e.Cause)
}

func (e *ContainerUnavailableError) Unwrap() error { return e.Cause }

// StartFailedError wraps a failure to start a container's task. The
// record transitions back to Absent when this is returned.
type StartFailedError struct {
	UserID string
	Cause  error
}

func (e *StartFailedError) Error() string {
	return fmt.Sprintf("failed to start container for user %q: %v", e.UserID, e.Cause)
}

func (e *StartFailedError) Unwrap() error { return e.Cause }
