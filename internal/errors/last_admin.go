package errors

import "net/http"

var ErrLastAdmin = &Exception{
	Message:    "cannot delete the last admin",
	StatusCode: http.StatusConflict,
}
