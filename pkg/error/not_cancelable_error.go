package error

import "net/http"

// NotCancelableError is returned when a caller tries to cancel a message
// that already left the scheduled state.
type NotCancelableError string

func (err NotCancelableError) Error() string {
	return string(err)
}

func (err NotCancelableError) ErrCode() string {
	return "NOT_CANCELABLE"
}

func (err NotCancelableError) StatusCode() int {
	return http.StatusConflict
}
