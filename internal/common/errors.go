package common

import (
	"errors"
	"fmt"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// CodeNotFound is the AppError code for missing resources.
const CodeNotFound = "NOT_FOUND"

// AppError attaches a stable code and the affected resource to a sentinel cause.
type AppError struct {
	Code     string
	Resource string
	Cause    error
}

func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Resource, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Resource)
}

func (e *AppError) Unwrap() error {
	return e.Cause
}

var (
	ErrNotFound     = errors.New("resource not found")
	ErrInvalidInput = errors.New("invalid input")
	ErrDatabase     = errors.New("database error")
	ErrValidation   = errors.New("validation failed")
)

func NewAppError(code, resource string, cause error) *AppError {
	return &AppError{Code: code, Resource: resource, Cause: cause}
}

// OrderNotFound reports a missing order id.
func OrderNotFound(orderID string) error {
	return NewAppError(CodeNotFound, "order "+orderID, ErrNotFound)
}

// GRPCCode maps the common sentinels onto gRPC codes. Unknown errors are Internal.
func GRPCCode(err error) codes.Code {
	switch {
	case err == nil:
		return codes.OK
	case errors.Is(err, ErrValidation), errors.Is(err, ErrInvalidInput):
		return codes.InvalidArgument
	case errors.Is(err, ErrNotFound):
		return codes.NotFound
	default:
		return codes.Internal
	}
}

// gRPC error helpers
func InvalidArgumentError(message string) error {
	return status.Error(codes.InvalidArgument, message)
}

func NotFoundError(message string) error {
	return status.Error(codes.NotFound, message)
}

func InternalError(message string) error {
	return status.Error(codes.Internal, message)
}

func InternalErrorf(format string, args ...any) error {
	return InternalError(fmt.Sprintf(format, args...))
}

// NotConfiguredError answers calls whose collaborator was not wired at startup.
func NotConfiguredError(what string) error {
	return status.Error(codes.FailedPrecondition, what+" is not configured")
}
