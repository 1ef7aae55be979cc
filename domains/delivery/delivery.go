package delivery

import (
	"context"
	"errors"
)

// ErrCodeRejected signals that the upstream refused the verification code
// itself (wrong or expired). Adapters wrap it so callers can tell a bad
// code from a transport failure.
var ErrCodeRejected = errors.New("verification code rejected")

// Session carries everything an adapter needs to resume an authenticated
// Telegram session. SessionToken may be empty during the auth handshake.
type Session struct {
	APIID        string
	APIHash      string
	PhoneNumber  string
	SessionToken string
}

// VerifyOutcome is returned by Conn.VerifyCode. TwoFactorRequired is an
// expected branch of the handshake, not a failure.
type VerifyOutcome struct {
	SessionToken      string
	TwoFactorRequired bool
}

// Adapter is the boundary to the external messaging protocol. The engine
// depends only on this contract; protocol details live behind it.
type Adapter interface {
	Connect(ctx context.Context, session Session) (Conn, error)
	// RequestCode triggers a verification code delivery for the phone and
	// returns the opaque hash required to verify it.
	RequestCode(ctx context.Context, apiID, apiHash, phone string) (codeHash string, err error)
}

// Conn is one live protocol connection. Not safe for concurrent use; the
// engine serializes calls per account.
type Conn interface {
	Send(ctx context.Context, recipient, text string) error
	VerifyCode(ctx context.Context, code, codeHash string) (VerifyOutcome, error)
	Disconnect() error
}
