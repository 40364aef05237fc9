package errs

import (
	"errors"
	"fmt"
	"net/http"
)

var (
	Unauthorized = NewApiErr(http.StatusUnauthorized, "unauthorized")
)

// Request & Input-Validation Errors
var (
	ErrMalformedPayload     = errors.New("malformed payload")
	ErrMissingRequiredField = errors.New("missing required field")
	ErrInvalidField         = errors.New("invalid field")
	ErrInvalidJSON          = errors.New("invalid JSON")
	ErrMediaTooLarge        = errors.New("media too large")
)

// Authentication Errors
var (
	ErrMissingToken   = errors.New("missing access token")
	ErrExpiredToken   = errors.New("expired access token")
	ErrInvalidToken   = errors.New("invalid access token")
	ErrLoginDisabled  = errors.New("login disabled")
	ErrWrongPassword  = errors.New("wrong password")
	ErrSyncConflict   = errors.New("conflicting sync options")
	ErrSyncActive     = errors.New("portfolio is synced to the admin dataset")
	ErrNotAList       = errors.New("payload is not a list")
	ErrUnknownBackend = errors.New("unknown storage backend")
)

func NewMalformedPayloadError(payloadType string, cause error) *ApiErr {
	return &ApiErr{
		StatusCode: http.StatusBadRequest,
		err:        ErrMalformedPayload,
		Details:    fmt.Sprintf("Malformed %s payload", payloadType),
		Cause:      cause,
		Field:      "payload",
	}
}

func NewMissingRequiredFieldError(fieldName string) *ApiErr {
	return &ApiErr{
		StatusCode: http.StatusBadRequest,
		err:        ErrMissingRequiredField,
		Details:    fmt.Sprintf("Missing required field: %s", fieldName),
		Field:      fieldName,
	}
}

func NewInvalidFieldError(fieldName string, reason string) *ApiErr {
	return &ApiErr{
		StatusCode: http.StatusBadRequest,
		err:        ErrInvalidField,
		Details:    fmt.Sprintf("Invalid field %s: %s", fieldName, reason),
		Field:      fieldName,
	}
}

func NewInvalidJSONError(cause error) *ApiErr {
	return &ApiErr{
		StatusCode: http.StatusBadRequest,
		err:        ErrInvalidJSON,
		Details:    "Invalid JSON format",
		Cause:      cause,
		Field:      "json",
	}
}

func NewNotAListError(payloadType string) *ApiErr {
	return &ApiErr{
		StatusCode: http.StatusBadRequest,
		err:        ErrNotAList,
		Details:    fmt.Sprintf("%s must be a JSON array", payloadType),
		Field:      "payload",
	}
}

// NewMediaTooLargeError reports an upload above the per-kind size cap.
func NewMediaTooLargeError(field string, size, limit int64) *ApiErr {
	return &ApiErr{
		StatusCode: http.StatusRequestEntityTooLarge,
		err:        ErrMediaTooLarge,
		Details:    fmt.Sprintf("%s is %.1fMB, the limit is %dMB", field, float64(size)/(1<<20), limit>>20),
		Field:      field,
	}
}

func NewSyncConflictError() *ApiErr {
	return &ApiErr{
		StatusCode: http.StatusBadRequest,
		err:        ErrSyncConflict,
		Details:    "skipDuplicates and mergeDuplicates cannot both be set",
	}
}

// NewSyncActiveError rejects operations that only make sense on the store's own list.
func NewSyncActiveError() *ApiErr {
	return &ApiErr{
		StatusCode: http.StatusConflict,
		err:        ErrSyncActive,
		Details:    "Reset the sync status before importing",
	}
}

func NewMissingTokenError() *ApiErr {
	return &ApiErr{
		StatusCode: http.StatusUnauthorized,
		err:        ErrMissingToken,
		Details:    "Missing access token",
		Field:      "authorization",
	}
}

func NewExpiredTokenError() *ApiErr {
	return &ApiErr{
		StatusCode: http.StatusUnauthorized,
		err:        ErrExpiredToken,
		Details:    "Session has expired",
		Field:      "authorization",
	}
}

func NewInvalidTokenError() *ApiErr {
	return &ApiErr{
		StatusCode: http.StatusUnauthorized,
		err:        ErrInvalidToken,
		Details:    "Invalid access token",
		Field:      "authorization",
	}
}

func NewWrongPasswordError() *ApiErr {
	return &ApiErr{
		StatusCode: http.StatusUnauthorized,
		err:        ErrWrongPassword,
		Details:    "Invalid password",
		Field:      "password",
	}
}

func NewLoginDisabledError() *ApiErr {
	return &ApiErr{
		StatusCode: http.StatusUnauthorized,
		err:        ErrLoginDisabled,
		Details:    "No admin password is configured",
	}
}

func NewUnknownBackendError(name string) *ApiErr {
	return &ApiErr{
		StatusCode: http.StatusInternalServerError,
		err:        ErrUnknownBackend,
		Details:    fmt.Sprintf("STORAGE_BACKEND %q is not supported", name),
		Field:      "STORAGE_BACKEND",
	}
}

func IsInvalidJSONError(err error) bool {
	return errors.Is(err, ErrInvalidJSON)
}

func IsMediaTooLargeError(err error) bool {
	return errors.Is(err, ErrMediaTooLarge)
}

func IsExpiredTokenError(err error) bool {
	return errors.Is(err, ErrExpiredToken)
}

func IsInvalidTokenError(err error) bool {
	return errors.Is(err, ErrInvalidToken)
}
