package gateway

import (
	"errors"
	"net/http"

	"github.com/filegate/filegate/auth"
	"github.com/filegate/filegate/backends"
)

// Gateway-level failures. Backend capability failures live in the backends
// package; together they form the full response taxonomy.
var (
	ErrAdapterNotFound      = errors.New("adapter not found")
	ErrNoAdapterConfigured  = errors.New("no adapter configured")
	ErrUnsupportedOperation = errors.New("unsupported operation")
	ErrInvalidName          = errors.New("invalid name")
)

// ErrorResponse is the standardized error body.
type ErrorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Status  bool   `json:"status"`
}

// classify maps a taxonomy error to an HTTP status and a stable error code.
// Handler failures never propagate past this mapping.
func classify(err error) (int, string) {
	switch {
	case errors.Is(err, backends.ErrNotFound):
		return http.StatusNotFound, "NOT_FOUND"
	case errors.Is(err, backends.ErrAlreadyExists):
		return http.StatusBadRequest, "ALREADY_EXISTS"
	case errors.Is(err, backends.ErrNotDirectory):
		return http.StatusBadRequest, "NOT_A_DIRECTORY"
	case errors.Is(err, backends.ErrNotFile):
		return http.StatusBadRequest, "NOT_A_FILE"
	case errors.Is(err, backends.ErrReadOnly):
		return http.StatusBadRequest, "READ_ONLY"
	case errors.Is(err, backends.ErrForbidden):
		return http.StatusBadRequest, "INVALID_PATH"
	case errors.Is(err, ErrInvalidName):
		return http.StatusBadRequest, "INVALID_NAME"
	case errors.Is(err, ErrAdapterNotFound):
		return http.StatusBadRequest, "ADAPTER_NOT_FOUND"
	case errors.Is(err, ErrNoAdapterConfigured):
		return http.StatusBadRequest, "NO_ADAPTER_CONFIGURED"
	case errors.Is(err, ErrUnsupportedOperation):
		return http.StatusBadRequest, "UNSUPPORTED_OPERATION"
	case errors.Is(err, auth.ErrAuthenticationFailed):
		return http.StatusUnauthorized, "UNAUTHORIZED"
	default:
		return http.StatusInternalServerError, "INTERNAL_ERROR"
	}
}
