package errors

import "net/http"

var ErrCannotDeleteSelf = &Exception{
	Message:    "cannot delete your own account",
	StatusCode: http.StatusConflict,
}
