package model

import "errors"

var (
	// ErrNotFound is returned when a resource is not found.
	ErrNotFound = errors.New("not found")
	// ErrAlreadyExists is returned when a resource already exists.
	ErrAlreadyExists = errors.New("already exists")
	// ErrNotValid is returned when a resource is not valid.
	ErrNotValid = errors.New("not valid")
	// ErrRuntimeUnavailable is returned when the container runtime can't be reached.
	ErrRuntimeUnavailable = errors.New("container runtime unavailable")
	// ErrProvisioning is returned when sandbox provisioning (image pull, container
	// create or container start) fails.
	ErrProvisioning = errors.New("sandbox provisioning failed")
)
