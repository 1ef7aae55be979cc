package usecase

import (
	"context"
	"errors"
	"fmt"
	"testing"

	domainAccount "github.com/pmcostaxyz/telegram-chat/domains/account"
	domainDelivery "github.com/pmcostaxyz/telegram-chat/domains/delivery"
	pkgError "github.com/pmcostaxyz/telegram-chat/pkg/error"
	"github.com/pmcostaxyz/telegram-chat/repository"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeAuthAdapter struct {
	requestCodeErr error
	verifyErr      error
	verifyOutcome  domainDelivery.VerifyOutcome
	codeRequests   int
}

func (a *fakeAuthAdapter) RequestCode(ctx context.Context, apiID, apiHash, phone string) (string, error) {
	if a.requestCodeErr != nil {
		return "", a.requestCodeErr
	}
	a.codeRequests++
	return fmt.Sprintf("hash-%d", a.codeRequests), nil
}

func (a *fakeAuthAdapter) Connect(ctx context.Context, session domainDelivery.Session) (domainDelivery.Conn, error) {
	return &fakeAuthConn{adapter: a}, nil
}

type fakeAuthConn struct {
	adapter *fakeAuthAdapter
}

func (c *fakeAuthConn) Send(ctx context.Context, recipient, text string) error { return nil }

func (c *fakeAuthConn) VerifyCode(ctx context.Context, code, codeHash string) (domainDelivery.VerifyOutcome, error) {
	if c.adapter.verifyErr != nil {
		return domainDelivery.VerifyOutcome{}, c.adapter.verifyErr
	}
	return c.adapter.verifyOutcome, nil
}

func (c *fakeAuthConn) Disconnect() error { return nil }

func newAccountFixture(t *testing.T, adapter *fakeAuthAdapter) (*repository.MemoryAccountRepository, domainAccount.IAccountUsecase, string) {
	t.Helper()
	repo := repository.NewMemoryAccountRepository()
	service := NewAccountService(repo, adapter)

	acc, err := service.Create(context.Background(), domainAccount.CreateAccountRequest{
		PhoneNumber: "+34600000001",
		APIID:       "123456",
		APIHash:     "abcdef",
	})
	require.NoError(t, err)
	return repo, service, acc.ID
}

func TestAccountCreate_StartsUnauthenticated(t *testing.T) {
	repo, _, id := newAccountFixture(t, &fakeAuthAdapter{})

	acc, err := repo.GetByID(context.Background(), id)
	require.NoError(t, err)
	assert.Equal(t, domainAccount.StateUnauthenticated, acc.AuthState)
	assert.False(t, acc.IsActive)
	assert.Empty(t, acc.SessionToken)
}

func TestRequestCode_TransitionsToCodeRequested(t *testing.T) {
	repo, service, id := newAccountFixture(t, &fakeAuthAdapter{})

	codeHash, err := service.RequestCode(context.Background(), id)
	require.NoError(t, err)
	assert.Equal(t, "hash-1", codeHash)

	acc, err := repo.GetByID(context.Background(), id)
	require.NoError(t, err)
	assert.Equal(t, domainAccount.StateCodeRequested, acc.AuthState)
	assert.Equal(t, "hash-1", acc.CodeHash)
}

func TestRequestCode_RepeatInvalidatesPreviousHash(t *testing.T) {
	adapter := &fakeAuthAdapter{verifyOutcome: domainDelivery.VerifyOutcome{SessionToken: "tok"}}
	_, service, id := newAccountFixture(t, adapter)

	first, err := service.RequestCode(context.Background(), id)
	require.NoError(t, err)
	second, err := service.RequestCode(context.Background(), id)
	require.NoError(t, err)
	require.NotEqual(t, first, second)

	// Verifying against the superseded hash must fail.
	_, err = service.VerifyCode(context.Background(), id, "12345", first)
	require.Error(t, err)
	_, ok := err.(pkgError.InvalidCodeError)
	assert.True(t, ok)

	// The current hash still works.
	result, err := service.VerifyCode(context.Background(), id, "12345", second)
	require.NoError(t, err)
	assert.True(t, result.Authenticated)
}

func TestRequestCode_UpstreamFailure(t *testing.T) {
	adapter := &fakeAuthAdapter{requestCodeErr: errors.New("bridge unreachable")}
	repo, service, id := newAccountFixture(t, adapter)

	_, err := service.RequestCode(context.Background(), id)
	require.Error(t, err)
	_, ok := err.(pkgError.UpstreamAuthError)
	assert.True(t, ok)

	// State must not move on a failed request.
	acc, err := repo.GetByID(context.Background(), id)
	require.NoError(t, err)
	assert.Equal(t, domainAccount.StateUnauthenticated, acc.AuthState)
}

func TestRequestCode_UnknownAccount(t *testing.T) {
	_, service, _ := newAccountFixture(t, &fakeAuthAdapter{})

	_, err := service.RequestCode(context.Background(), "ghost")
	require.Error(t, err)
	_, ok := err.(pkgError.NotFoundError)
	assert.True(t, ok)
}

func TestVerifyCode_SuccessActivatesAccount(t *testing.T) {
	adapter := &fakeAuthAdapter{verifyOutcome: domainDelivery.VerifyOutcome{SessionToken: "session-token"}}
	repo, service, id := newAccountFixture(t, adapter)

	codeHash, err := service.RequestCode(context.Background(), id)
	require.NoError(t, err)

	result, err := service.VerifyCode(context.Background(), id, "12345", codeHash)
	require.NoError(t, err)
	assert.True(t, result.Authenticated)
	assert.False(t, result.TwoFactorRequired)

	acc, err := repo.GetByID(context.Background(), id)
	require.NoError(t, err)
	assert.Equal(t, domainAccount.StateActive, acc.AuthState)
	assert.True(t, acc.IsActive)
	assert.Equal(t, "session-token", acc.SessionToken)
	assert.Empty(t, acc.CodeHash)
}

func TestVerifyCode_TwoFactorIsADeadEndBranch(t *testing.T) {
	adapter := &fakeAuthAdapter{verifyOutcome: domainDelivery.VerifyOutcome{TwoFactorRequired: true}}
	repo, service, id := newAccountFixture(t, adapter)

	codeHash, err := service.RequestCode(context.Background(), id)
	require.NoError(t, err)

	result, err := service.VerifyCode(context.Background(), id, "12345", codeHash)
	require.NoError(t, err, "two-factor is an outcome, not an error")
	assert.True(t, result.TwoFactorRequired)
	assert.False(t, result.Authenticated)

	acc, err := repo.GetByID(context.Background(), id)
	require.NoError(t, err)
	assert.Equal(t, domainAccount.StateTwoFactorRequired, acc.AuthState)
	assert.False(t, acc.IsActive)
	assert.Empty(t, acc.SessionToken)
}

func TestVerifyCode_WithoutPendingRequest(t *testing.T) {
	_, service, id := newAccountFixture(t, &fakeAuthAdapter{})

	_, err := service.VerifyCode(context.Background(), id, "12345", "hash-1")
	require.Error(t, err)
	_, ok := err.(pkgError.InvalidCodeError)
	assert.True(t, ok)
}

func TestVerifyCode_RejectedByUpstream(t *testing.T) {
	adapter := &fakeAuthAdapter{verifyErr: fmt.Errorf("%w: PHONE_CODE_INVALID", domainDelivery.ErrCodeRejected)}
	repo, service, id := newAccountFixture(t, adapter)

	codeHash, err := service.RequestCode(context.Background(), id)
	require.NoError(t, err)

	_, err = service.VerifyCode(context.Background(), id, "00000", codeHash)
	require.Error(t, err)
	_, ok := err.(pkgError.InvalidCodeError)
	assert.True(t, ok)

	acc, err := repo.GetByID(context.Background(), id)
	require.NoError(t, err)
	assert.Equal(t, domainAccount.StateCodeRequested, acc.AuthState)
	assert.False(t, acc.IsActive)
}

func TestVerifyCode_TransportFailureIsUpstreamError(t *testing.T) {
	adapter := &fakeAuthAdapter{verifyErr: errors.New("bridge sign-in: status 503")}
	repo, service, id := newAccountFixture(t, adapter)

	codeHash, err := service.RequestCode(context.Background(), id)
	require.NoError(t, err)

	// Only a rejected code is the caller's fault; a gateway failure is not.
	_, err = service.VerifyCode(context.Background(), id, "12345", codeHash)
	require.Error(t, err)
	_, ok := err.(pkgError.UpstreamAuthError)
	assert.True(t, ok)

	acc, err := repo.GetByID(context.Background(), id)
	require.NoError(t, err)
	assert.Equal(t, domainAccount.StateCodeRequested, acc.AuthState)
}

func TestAccountCreate_Validation(t *testing.T) {
	repo := repository.NewMemoryAccountRepository()
	service := NewAccountService(repo, &fakeAuthAdapter{})

	_, err := service.Create(context.Background(), domainAccount.CreateAccountRequest{
		PhoneNumber: "+34600000001",
		APIID:       "not-digits",
		APIHash:     "abcdef",
	})
	require.Error(t, err)
	_, ok := err.(pkgError.ValidationError)
	assert.True(t, ok)
}

func TestAccountDelete_UnknownIsNotFound(t *testing.T) {
	_, service, _ := newAccountFixture(t, &fakeAuthAdapter{})

	err := service.Delete(context.Background(), "ghost")
	require.Error(t, err)
	_, ok := err.(pkgError.NotFoundError)
	assert.True(t, ok)
}
