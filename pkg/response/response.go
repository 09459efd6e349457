package response

import (
	"net/http"

	"authservice/internal/apperror"
)

// Response represents a standard API response format
type Response struct {
	Status     string      `json:"status"`      // "success" or "error"
	StatusCode int         `json:"status_code"` // HTTP status code
	Data       interface{} `json:"data,omitempty"`
	Error      string      `json:"error,omitempty"`
	Code       string      `json:"code,omitempty"` // machine-readable internal code
}

// Success returns a standard success response wrapping the data
func Success(statusCode int, data interface{}) Response {
	return Response{
		Status:     "success",
		StatusCode: statusCode,
		Data:       data,
	}
}

// Error returns a standard error response wrapping the error message
func Error(statusCode int, err string) Response {
	return Response{
		Status:     "error",
		StatusCode: statusCode,
		Error:      err,
	}
}

// FromError maps a typed application error to a response. 5xx errors hide
// their message behind a generic string; the internal code still travels so
// clients can report it.
func FromError(err error) (int, Response) {
	appErr, ok := apperror.As(err)
	if !ok {
		return http.StatusInternalServerError,
			Error(http.StatusInternalServerError, "internal server error")
	}

	status := appErr.Status()
	msg := appErr.Message
	if status >= http.StatusInternalServerError {
		msg = "internal server error"
	}

	resp := Error(status, msg)
	resp.Code = appErr.Code
	return status, resp
}
