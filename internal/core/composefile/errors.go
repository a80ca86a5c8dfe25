package composefile

import (
	"errors"
	"fmt"
)

var (
	// Input errors
	ErrEmptyDocument = errors.New("compose document is empty")
	ErrInvalidYAML   = errors.New("invalid YAML syntax")
	ErrNotMapping    = errors.New("compose document root must be a mapping")

	// Structure errors
	ErrServiceNotFound = errors.New("service entry not found")
	ErrInvalidCompose  = errors.New("compose document failed validation")
)

// ServiceError wraps a structural error with the service name it concerns.
type ServiceError struct {
	Service string
	Err     error
}

func (e *ServiceError) Error() string {
	return fmt.Sprintf("service %q: %v", e.Service, e.Err)
}

func (e *ServiceError) Unwrap() error {
	return e.Err
}
