package errors

import "net/http"

var ErrCreatorRequired = &Exception{
	Message:    "creator id is required",
	StatusCode: http.StatusBadRequest,
}
