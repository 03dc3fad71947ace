package protocol

import "fmt"

// ErrorType represents the category of error raised by the engine
type ErrorType int

const (
	// ErrTypeTransport indicates an HID open/read/write failure.
	// The session remains usable; the caller decides whether to retry.
	ErrTypeTransport ErrorType = iota
	// ErrTypeFrameDecode indicates a malformed or truncated inbound frame.
	// The listener drops the read and continues.
	ErrTypeFrameDecode
	// ErrTypeTimeout indicates no matching response arrived within the deadline
	ErrTypeTimeout
	// ErrTypeStatus indicates the device answered with status code >= 400
	ErrTypeStatus
	// ErrTypeValidation indicates a rejected argument before any frame was built
	ErrTypeValidation
)

// String returns a human-readable name for the error type
func (et ErrorType) String() string {
	switch et {
	case ErrTypeTransport:
		return "Transport Error"
	case ErrTypeFrameDecode:
		return "Frame Decode Error"
	case ErrTypeTimeout:
		return "Timeout"
	case ErrTypeStatus:
		return "Device Status Error"
	case ErrTypeValidation:
		return "Validation Error"
	default:
		return fmt.Sprintf("ErrorType(%d)", et)
	}
}

// DeviceError represents an error that occurred during device communication
type DeviceError struct {
	Type       ErrorType // Category of error
	Message    string    // Human-readable error message
	StatusCode int       // Device status code (if applicable)
	Detail     int       // Offending value for decode/validation errors
	Err        error     // Underlying error (if any)
	Retryable  bool      // Whether the operation may be retried as-is
}

// Error implements the error interface
func (e *DeviceError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s (caused by: %v)", e.Type, e.Message, e.Err)
	}
	if e.Type == ErrTypeStatus {
		return fmt.Sprintf("%s: %s (status %d)", e.Type, e.Message, e.StatusCode)
	}
	return fmt.Sprintf("%s: %s", e.Type, e.Message)
}

// Unwrap returns the underlying error for error chain inspection
func (e *DeviceError) Unwrap() error {
	return e.Err
}

// NewTransportError creates a transport-level error
func NewTransportError(message string, err error) *DeviceError {
	return &DeviceError{
		Type:      ErrTypeTransport,
		Message:   message,
		Err:       err,
		Retryable: true,
	}
}

// NewFrameDecodeError creates a frame decode error. Detail carries the
// offending value (byte, length) for logging.
func NewFrameDecodeError(message string, detail int) *DeviceError {
	return &DeviceError{
		Type:      ErrTypeFrameDecode,
		Message:   message,
		Detail:    detail,
		Retryable: false,
	}
}

// NewTimeoutError creates a timeout error for an unanswered command
func NewTimeoutError(command string) *DeviceError {
	return &DeviceError{
		Type:      ErrTypeTimeout,
		Message:   fmt.Sprintf("no response for %q within deadline", command),
		Retryable: true,
	}
}

// NewStatusError creates an application-level error from a device response
func NewStatusError(command string, statusCode int) *DeviceError {
	return &DeviceError{
		Type:       ErrTypeStatus,
		Message:    fmt.Sprintf("device rejected %q", command),
		StatusCode: statusCode,
		Retryable:  false,
	}
}

// NewValidationError creates a validation error raised before any frame is built
func NewValidationError(message string) *DeviceError {
	return &DeviceError{
		Type:      ErrTypeValidation,
		Message:   message,
		Retryable: false,
	}
}

// IsTransportError checks if an error is a transport error
func IsTransportError(err error) bool {
	if devErr, ok := err.(*DeviceError); ok {
		return devErr.Type == ErrTypeTransport
	}
	return false
}

// IsFrameDecodeError checks if an error is a frame decode error
func IsFrameDecodeError(err error) bool {
	if devErr, ok := err.(*DeviceError); ok {
		return devErr.Type == ErrTypeFrameDecode
	}
	return false
}

// IsTimeout checks if an error is a command timeout
func IsTimeout(err error) bool {
	if devErr, ok := err.(*DeviceError); ok {
		return devErr.Type == ErrTypeTimeout
	}
	return false
}

// IsStatusError checks if an error is a device status error
func IsStatusError(err error) bool {
	if devErr, ok := err.(*DeviceError); ok {
		return devErr.Type == ErrTypeStatus
	}
	return false
}

// IsValidationError checks if an error is a validation error
func IsValidationError(err error) bool {
	if devErr, ok := err.(*DeviceError); ok {
		return devErr.Type == ErrTypeValidation
	}
	return false
}

// IsRetryable checks if an operation that produced this error may be retried
func IsRetryable(err error) bool {
	if devErr, ok := err.(*DeviceError); ok {
		return devErr.Retryable
	}
	return false
}
