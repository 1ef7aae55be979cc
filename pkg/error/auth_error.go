package error

import "net/http"

// InvalidCodeError signals a wrong or expired verification code.
type InvalidCodeError string

func (err InvalidCodeError) Error() string {
	return string(err)
}

func (err InvalidCodeError) ErrCode() string {
	return "INVALID_CODE"
}

func (err InvalidCodeError) StatusCode() int {
	return http.StatusUnauthorized
}

// UpstreamAuthError signals a transport failure while talking to the
// Telegram authentication endpoints.
type UpstreamAuthError string

func (err UpstreamAuthError) Error() string {
	return string(err)
}

func (err UpstreamAuthError) ErrCode() string {
	return "UPSTREAM_AUTH_ERROR"
}

func (err UpstreamAuthError) StatusCode() int {
	return http.StatusBadGateway
}
