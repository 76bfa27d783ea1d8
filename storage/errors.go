package storage

import (
	stderrors "errors"

	"github.com/kbukum/blobkit/errors"
)

func invalidArgument(field, reason string) *errors.AppError {
	return errors.InvalidInput(field, reason)
}

func unavailable(operation string, cause error) *errors.AppError {
	return errors.ServiceUnavailable("storage service").
		WithDetail("operation", operation).
		WithCause(cause)
}

func resourceNotFound(container, key string, cause error) *errors.AppError {
	return errors.NotFound("object", container+"/"+key).WithCause(cause)
}

// classify maps a backend error onto the facade's error taxonomy.
func classify(operation, container, key string, err error) error {
	if err == nil {
		return nil
	}
	if stderrors.Is(err, ErrObjectNotFound) {
		return resourceNotFound(container, key, err)
	}
	return unavailable(operation, err)
}

// IsInvalidArgument reports whether err was caused by missing or malformed input.
func IsInvalidArgument(err error) bool {
	return errors.HasCode(err, errors.ErrCodeInvalidInput)
}

// IsNotFound reports whether err means the requested object does not exist.
func IsNotFound(err error) bool {
	return errors.HasCode(err, errors.ErrCodeNotFound)
}

// IsUnavailable reports whether err is a failed call to the storage service.
func IsUnavailable(err error) bool {
	return errors.HasCode(err, errors.ErrCodeServiceUnavailable)
}
