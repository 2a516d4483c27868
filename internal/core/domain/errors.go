package domain

import (
	"errors"
)

var (
	ErrNotFound                     = errors.New("container instance not found")
	ErrOwnershipMismatch            = errors.New("container instance does not belong to this storage engine")
	ErrConfigMissing                = errors.New("config file not mounted on container instance")
	ErrDirectoryAllocationExhausted = errors.New("failed to allocate volume directory")
	ErrPermissionDenied             = errors.New("failed to create volume directory")
	ErrImageMissing                 = errors.New("storage engine image not found")
	ErrPortExhausted                = errors.New("no free port available on host")
	ErrStartupFailed                = errors.New("container instance failed to start")
	ErrRuntimeUnavailable           = errors.New("container runtime unavailable")
	ErrInvalidConfig                = errors.New("invalid instance config")
	ErrNotInitialized               = errors.New("storage manager not initialized")
	ErrUnknownEngine                = errors.New("unknown storage engine")
)

// ServiceError is the single user-facing error surfaced by storage managers.
// Kind is one of the sentinel errors above.
type ServiceError struct {
	Kind error
	Msg  string
	Err  error
}

func NewServiceError(kind error, msg string) *ServiceError {
	return &ServiceError{Kind: kind, Msg: msg}
}

// WrapServiceError attaches the underlying cause to a service error.
func WrapServiceError(kind error, msg string, err error) *ServiceError {
	return &ServiceError{Kind: kind, Msg: msg, Err: err}
}

func (e *ServiceError) Error() string {
	msg := e.Msg
	if msg == "" {
		msg = e.Kind.Error()
	}
	if e.Err != nil {
		return msg + ": " + e.Err.Error()
	}
	return msg
}

func (e *ServiceError) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Err}
}
