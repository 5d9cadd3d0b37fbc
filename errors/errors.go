// Package errors provides standardized error handling for ActiveKit components.
// It classifies errors into the three failure categories the runtime reacts to
// differently: transient operational failures (retryable), invalid input or
// configuration supplied by a caller, and fatal assembly defects that must
// halt execution rather than be substituted with defaults.
package errors

import (
	"errors"
	"fmt"

	"github.com/c360/activekit/pkg/retry"
)

// ErrorClass represents the classification of errors for handling purposes.
type ErrorClass int

const (
	// ErrorTransient represents temporary operational failures that may be
	// retried, such as backpressure from a full message queue.
	ErrorTransient ErrorClass = iota
	// ErrorInvalid represents failures caused by a caller's input: unknown
	// opcodes, out-of-range parameter values, malformed configuration.
	ErrorInvalid
	// ErrorFatal represents unrecoverable defects in system assembly:
	// uninitialized parameters, unregistered handlers, concurrent drains.
	// Fatal errors must halt the component, never be papered over.
	ErrorFatal
)

// String returns the string representation of ErrorClass.
func (ec ErrorClass) String() string {
	switch ec {
	case ErrorTransient:
		return "transient"
	case ErrorInvalid:
		return "invalid"
	case ErrorFatal:
		return "fatal"
	default:
		return "unknown"
	}
}

// Standard error variables for common runtime conditions.
var (
	// Component lifecycle errors
	ErrAlreadyStarted = errors.New("component already started")
	ErrNotStarted     = errors.New("component not started")
	ErrAlreadyStopped = errors.New("component already stopped")

	// Queue and dispatch errors
	ErrQueueFull        = errors.New("message queue full")
	ErrQueueClosed      = errors.New("message queue closed")
	ErrDrainInProgress  = errors.New("dispatch drain already in progress")
	ErrUnknownPort      = errors.New("no handler registered for port")
	ErrUnknownKind      = errors.New("unknown message kind")
	ErrPayloadMismatch  = errors.New("payload type does not match port")
	ErrPortNotConnected = errors.New("output port not connected")
	ErrPortConnected    = errors.New("output port already connected")

	// Command errors
	ErrInvalidOpcode   = errors.New("no handler registered for opcode")
	ErrZeroSequence    = errors.New("command sequence number must be non-zero")
	ErrDuplicateOpcode = errors.New("opcode already registered")

	// Parameter errors
	ErrUnknownParam       = errors.New("parameter not defined")
	ErrInvalidValue       = errors.New("parameter value rejected by validator")
	ErrParamUninitialized = errors.New("parameter read before initialization")

	// Configuration errors
	ErrInvalidConfig = errors.New("invalid configuration")
	ErrMissingConfig = errors.New("missing required configuration")

	// Assembly errors
	ErrAssemblySealed = errors.New("assembly sealed, wiring is immutable")
)

// ClassifiedError wraps an error with its classification and the component
// and operation it originated from.
type ClassifiedError struct {
	Class     ErrorClass
	Err       error
	Message   string
	Component string
	Operation string
}

// Error implements the error interface.
func (ce *ClassifiedError) Error() string {
	if ce.Message != "" {
		return ce.Message
	}
	return ce.Err.Error()
}

// Unwrap returns the underlying error.
func (ce *ClassifiedError) Unwrap() error {
	return ce.Err
}

// IsTransient checks if an error is transient and may be retried.
func IsTransient(err error) bool {
	if err == nil {
		return false
	}

	var ce *ClassifiedError
	if errors.As(err, &ce) {
		return ce.Class == ErrorTransient
	}

	return errors.Is(err, ErrQueueFull)
}

// IsFatal checks if an error is a fatal assembly defect that must halt the
// component.
func IsFatal(err error) bool {
	if err == nil {
		return false
	}

	var ce *ClassifiedError
	if errors.As(err, &ce) {
		return ce.Class == ErrorFatal
	}

	return errors.Is(err, ErrUnknownPort) ||
		errors.Is(err, ErrUnknownKind) ||
		errors.Is(err, ErrPayloadMismatch) ||
		errors.Is(err, ErrParamUninitialized) ||
		errors.Is(err, ErrDrainInProgress)
}

// IsInvalid checks if an error is due to invalid caller input.
func IsInvalid(err error) bool {
	if err == nil {
		return false
	}

	var ce *ClassifiedError
	if errors.As(err, &ce) {
		return ce.Class == ErrorInvalid
	}

	return errors.Is(err, ErrInvalidOpcode) ||
		errors.Is(err, ErrInvalidValue) ||
		errors.Is(err, ErrInvalidConfig) ||
		errors.Is(err, ErrZeroSequence)
}

// Classify returns the error class for an error. Unclassified errors default
// to transient so callers err on the side of retrying rather than halting.
func Classify(err error) ErrorClass {
	if err == nil {
		return ErrorTransient
	}

	if IsFatal(err) {
		return ErrorFatal
	}
	if IsInvalid(err) {
		return ErrorInvalid
	}
	return ErrorTransient
}

// newClassified creates a new classified error.
// Internal helper - use WrapTransient(), WrapFatal(), or WrapInvalid() instead.
func newClassified(class ErrorClass, err error, component, operation, message string) *ClassifiedError {
	return &ClassifiedError{
		Class:     class,
		Err:       err,
		Message:   message,
		Component: component,
		Operation: operation,
	}
}

// Wrap creates a standardized error with context following the pattern:
// "component.method: action failed: %w"
func Wrap(err error, component, method, action string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s.%s: %s failed: %w", component, method, action, err)
}

// WrapTransient wraps an error as transient with context.
func WrapTransient(err error, component, method, action string) error {
	if err == nil {
		return nil
	}
	wrappedErr := Wrap(err, component, method, action)
	return newClassified(ErrorTransient, wrappedErr, component, method, wrappedErr.Error())
}

// WrapFatal wraps an error as fatal with context.
func WrapFatal(err error, component, method, action string) error {
	if err == nil {
		return nil
	}
	wrappedErr := Wrap(err, component, method, action)
	return newClassified(ErrorFatal, wrappedErr, component, method, wrappedErr.Error())
}

// WrapInvalid wraps an error as invalid with context.
func WrapInvalid(err error, component, method, action string) error {
	if err == nil {
		return nil
	}
	wrappedErr := Wrap(err, component, method, action)
	return newClassified(ErrorInvalid, wrappedErr, component, method, wrappedErr.Error())
}

// RetryPolicy returns a retry configuration suitable for transient
// backpressure failures (queue full) on asynchronous port invocations.
// Jitter is disabled: within one scheduler period, deterministic spacing
// matters more than herd avoidance.
func RetryPolicy(maxAttempts int) retry.Config {
	cfg := retry.DefaultConfig()
	cfg.MaxAttempts = maxAttempts
	cfg.AddJitter = false
	return cfg
}
