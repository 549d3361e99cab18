package errors

import (
	"errors"
	"fmt"
)

// Shared error categories. Concrete failures raised by the client wrap one of
// these so callers can branch with errors.Is without importing every package.

var (
	// ErrNotFound indicates a resource was not found
	ErrNotFound = errors.New("resource not found")

	// ErrInvalidInput indicates invalid input parameters
	ErrInvalidInput = errors.New("invalid input")

	// ErrUnauthorized indicates the request was not authenticated or not permitted
	ErrUnauthorized = errors.New("unauthorized")

	// ErrInternal indicates an internal server error
	ErrInternal = errors.New("internal error")

	// ErrTimeout indicates an operation timeout
	ErrTimeout = errors.New("operation timeout")

	// ErrUnavailable indicates a service is unavailable
	ErrUnavailable = errors.New("service unavailable")

	// ErrConfiguration indicates the client was configured or used incorrectly
	ErrConfiguration = errors.New("invalid client configuration")
)

// Exchange-specific errors

var (
	// ErrTransport indicates the request never produced an application payload
	ErrTransport = errors.New("transport failure")

	// ErrAPI indicates the exchange answered with a non-zero error code
	ErrAPI = errors.New("exchange api error")

	// ErrInsufficientBalance indicates insufficient account balance or margin
	ErrInsufficientBalance = errors.New("insufficient balance")

	// ErrInvalidSymbol indicates invalid trading symbol
	ErrInvalidSymbol = errors.New("invalid trading symbol")

	// ErrOrderRejected indicates order was rejected by exchange
	ErrOrderRejected = errors.New("order rejected by exchange")

	// ErrPositionNotFound indicates position not found
	ErrPositionNotFound = errors.New("position not found")

	// ErrRateLimitExceeded indicates API rate limit exceeded
	ErrRateLimitExceeded = errors.New("rate limit exceeded")

	// ErrConversion indicates a payload could not be decoded into the requested type
	ErrConversion = errors.New("payload conversion failed")
)

// shared lists the categories in the order Category checks them. More
// specific categories come first so a rate limit is not reported as a generic
// API error.
var shared = []error{
	ErrRateLimitExceeded,
	ErrInsufficientBalance,
	ErrPositionNotFound,
	ErrInvalidSymbol,
	ErrOrderRejected,
	ErrConversion,
	ErrNotFound,
	ErrInvalidInput,
	ErrUnauthorized,
	ErrTimeout,
	ErrUnavailable,
	ErrConfiguration,
	ErrTransport,
	ErrAPI,
	ErrInternal,
}

// Category returns the shared category err wraps, or nil when it wraps none.
func Category(err error) error {
	if err == nil {
		return nil
	}
	for _, target := range shared {
		if errors.Is(err, target) {
			return target
		}
	}
	return nil
}

// Helper functions

// Is checks if err is or wraps target
func Is(err, target error) bool {
	return errors.Is(err, target)
}

// As finds the first error in err's chain that matches target type
func As(err error, target interface{}) bool {
	return errors.As(err, target)
}

// Wrap wraps an error with context
func Wrap(err error, message string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", message, err)
}

// Wrapf wraps an error with formatted context
func Wrapf(err error, format string, args ...interface{}) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", fmt.Sprintf(format, args...), err)
}

func New(message string) error {
	return errors.New(message)
}

func Newf(format string, args ...interface{}) error {
	return fmt.Errorf(format, args...)
}
