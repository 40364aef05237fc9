package errs

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
)

var ErrNotFound = errors.New("not found")

// Storage errors
var (
	ErrStorage            = errors.New("storage operation failed")
	ErrStorageConnection  = errors.New("storage connection failed")
	ErrStorageQuotaFull   = errors.New("storage quota full")
	ErrDatabaseCorruption = errors.New("stored data corrupted")
)

func NewNotFound(entity string) *ApiErr {
	return &ApiErr{
		StatusCode: http.StatusNotFound,
		err:        fmt.Errorf("%s %w", entity, ErrNotFound),
	}
}

// NewStorageError wraps a failed read or write against a storage key.
func NewStorageError(operation, key string, cause error) *ApiErr {
	details := fmt.Sprintf("Failed to %s %s", operation, key)

	if cause != nil {
		errStr := strings.ToLower(cause.Error())
		switch {
		case strings.Contains(errStr, "no space left"), strings.Contains(errStr, "quota"):
			return &ApiErr{
				StatusCode: http.StatusInsufficientStorage,
				err:        ErrStorageQuotaFull,
				Details:    details,
				Cause:      cause,
			}
		case strings.Contains(errStr, "connection refused"), strings.Contains(errStr, "dial tcp"):
			return &ApiErr{
				StatusCode: http.StatusServiceUnavailable,
				err:        ErrStorageConnection,
				Details:    details,
				Cause:      cause,
			}
		}
	}

	return &ApiErr{
		StatusCode: http.StatusInternalServerError,
		err:        ErrStorage,
		Details:    details,
		Cause:      cause,
	}
}

// NewCorruptedValueError reports a stored value that no longer decodes.
func NewCorruptedValueError(key string, cause error) *ApiErr {
	return &ApiErr{
		StatusCode: http.StatusInternalServerError,
		err:        ErrDatabaseCorruption,
		Details:    fmt.Sprintf("Value under %q could not be decoded", key),
		Cause:      cause,
		Field:      key,
	}
}

func IsStorageError(err error) bool {
	return errors.Is(err, ErrStorage) || errors.Is(err, ErrStorageConnection) || errors.Is(err, ErrStorageQuotaFull)
}

func IsCorruptedValueError(err error) bool {
	return errors.Is(err, ErrDatabaseCorruption)
}
