package account

import (
	"context"
	"errors"
	"time"
)

// AuthState tracks the account authentication lifecycle:
// unauthenticated -> code_requested -> active, with a dead-end side branch
// code_requested -> two_factor_required that is resolved out of band.
type AuthState string

const (
	StateUnauthenticated   AuthState = "unauthenticated"
	StateCodeRequested     AuthState = "code_requested"
	StateTwoFactorRequired AuthState = "two_factor_required"
	StateActive            AuthState = "active"
)

// AccountSession holds per-account Telegram API credentials and the opaque
// session token obtained from a completed handshake. IsActive is true only
// while a non-empty SessionToken is stored.
type AccountSession struct {
	ID           string    `json:"id"`
	PhoneNumber  string    `json:"phone_number"`
	APIID        string    `json:"api_id"`
	APIHash      string    `json:"api_hash"`
	SessionToken string    `json:"-"`
	IsActive     bool      `json:"is_active"`
	AuthState    AuthState `json:"auth_state"`
	// CodeHash is the pending verification handle; a new code request
	// replaces it, invalidating any in-flight verification.
	CodeHash  string    `json:"-"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

var ErrAccountNotFound = errors.New("account not found")

type CreateAccountRequest struct {
	PhoneNumber string `json:"phone_number"`
	APIID       string `json:"api_id"`
	APIHash     string `json:"api_hash"`
}

// VerifyResult is the outcome of a code verification. TwoFactorRequired is
// a distinct branch, not an error: the upstream wants a second factor that
// this system does not collect.
type VerifyResult struct {
	Authenticated     bool `json:"authenticated"`
	TwoFactorRequired bool `json:"two_factor_required"`
}

type IAccountUsecase interface {
	Create(ctx context.Context, request CreateAccountRequest) (AccountSession, error)
	Get(ctx context.Context, id string) (AccountSession, error)
	List(ctx context.Context) ([]AccountSession, error)
	Delete(ctx context.Context, id string) error
	// RequestCode asks the delivery adapter to send a verification code to
	// the account's phone and returns the code hash that must accompany
	// VerifyCode. Calling it again invalidates the previous hash.
	RequestCode(ctx context.Context, id string) (codeHash string, err error)
	// VerifyCode completes the handshake. On success the session token is
	// persisted and the account becomes active.
	VerifyCode(ctx context.Context, id, code, codeHash string) (VerifyResult, error)
}
