package errors

import "net/http"

var ErrPrimaryAdminMissing = &Exception{
	Message:    "primary admin account not found",
	StatusCode: http.StatusInternalServerError,
}
