package errors

// Exception is an application error carrying the HTTP status it maps to.
// The sentinel values in this package cover every refusal the services can
// produce; anything else is an internal error.
type Exception struct {
	Message    string
	StatusCode int
}

func (e *Exception) Error() string {
	return e.Message
}
