package errors

import "net/http"

var ErrAssigneeRequired = &Exception{
	Message:    "assignee id is required",
	StatusCode: http.StatusBadRequest,
}
