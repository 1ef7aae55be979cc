package error

// GenericError is implemented by all API-facing error kinds so the
// REST recovery middleware can map them to a status code and error code.
type GenericError interface {
	error
	ErrCode() string
	StatusCode() int
}
