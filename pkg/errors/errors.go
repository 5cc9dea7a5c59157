package errors

import (
	"errors"
	"fmt"
)

// ErrorCode represents platform API error codes
type ErrorCode int

const (
	// ErrorCodeBadRequest indicates invalid or missing deployment parameters
	ErrorCodeBadRequest ErrorCode = 400

	// ErrorCodeUnauthorized indicates invalid credentials
	ErrorCodeUnauthorized ErrorCode = 401

	// ErrorCodeNotFound indicates the endpoint does not exist
	ErrorCodeNotFound ErrorCode = 404

	// ErrorCodeTimeout indicates request timeout
	ErrorCodeTimeout ErrorCode = 408

	// ErrorCodeConflict indicates an endpoint name collision
	ErrorCodeConflict ErrorCode = 409

	// ErrorCodeValidation indicates the container rejected the request body
	ErrorCodeValidation ErrorCode = 422

	// ErrorCodeRateLimited indicates rate limiting
	ErrorCodeRateLimited ErrorCode = 429

	// ErrorCodeEndpointNotReady indicates the endpoint is not InService
	ErrorCodeEndpointNotReady ErrorCode = 503
)

// ErrorResponse represents an error response from the platform API
type ErrorResponse struct {
	Error struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
		Reason  string `json:"reason,omitempty"`
	} `json:"error"`
}

// ToError converts the ErrorResponse to a Go error
func (e ErrorResponse) ToError() error {
	return &APIError{
		Code:    ErrorCode(e.Error.Code),
		Message: e.Error.Message,
		Reason:  e.Error.Reason,
	}
}

// APIError represents an error returned by the platform API
type APIError struct {
	Code    ErrorCode
	Message string
	Reason  string
}

// Error implements the error interface
func (e *APIError) Error() string {
	return fmt.Sprintf("platform error %d: %s", e.Code, e.Message)
}

// DeploymentError indicates a terminal deployment failure: the platform
// reported the endpoint Failed, the endpoint name collided with an existing
// one, or the request was rejected before provisioning started. Deployments
// are never retried; the error is surfaced to the caller as-is.
type DeploymentError struct {
	EndpointName string
	Reason       string
	Cause        error
}

// Error implements the error interface
func (e *DeploymentError) Error() string {
	if e.Reason != "" {
		return fmt.Sprintf("deployment of endpoint %q failed: %s", e.EndpointName, e.Reason)
	}
	return fmt.Sprintf("deployment of endpoint %q failed", e.EndpointName)
}

// Unwrap returns the underlying cause, if any
func (e *DeploymentError) Unwrap() error {
	return e.Cause
}

// InvocationError indicates a failed request/response exchange against a
// named endpoint: the endpoint was not InService, the container rejected
// the body, or the transport failed.
type InvocationError struct {
	EndpointName string
	Code         ErrorCode
	Message      string
	Cause        error
}

// Error implements the error interface
func (e *InvocationError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("invocation of endpoint %q failed: %s", e.EndpointName, e.Message)
	}
	return fmt.Sprintf("invocation of endpoint %q failed", e.EndpointName)
}

// Unwrap returns the underlying cause, if any
func (e *InvocationError) Unwrap() error {
	return e.Cause
}

// ErrDegenerateBenchmark is returned when a benchmark run collected zero
// elapsed time across all samples, which would otherwise divide by zero
// during aggregation.
var ErrDegenerateBenchmark = errors.New("benchmark collected zero elapsed time across all samples")

// IsDeploymentError returns true if err is a DeploymentError
func IsDeploymentError(err error) bool {
	var de *DeploymentError
	return errors.As(err, &de)
}

// IsInvocationError returns true if err is an InvocationError
func IsInvocationError(err error) bool {
	var ie *InvocationError
	return errors.As(err, &ie)
}

// IsNotFound returns true if err carries a platform 404
func IsNotFound(err error) bool {
	var ae *APIError
	if errors.As(err, &ae) {
		return ae.Code == ErrorCodeNotFound
	}
	return false
}

// IsConflict returns true if err carries a platform 409 (name collision)
func IsConflict(err error) bool {
	var ae *APIError
	if errors.As(err, &ae) {
		return ae.Code == ErrorCodeConflict
	}
	return false
}
