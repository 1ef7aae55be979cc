package usecase

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	domainAccount "github.com/pmcostaxyz/telegram-chat/domains/account"
	domainDelivery "github.com/pmcostaxyz/telegram-chat/domains/delivery"
	pkgError "github.com/pmcostaxyz/telegram-chat/pkg/error"
	"github.com/pmcostaxyz/telegram-chat/repository"
	"github.com/pmcostaxyz/telegram-chat/validations"
	"github.com/sirupsen/logrus"
)

type accountService struct {
	repo    repository.IAccountRepository
	adapter domainDelivery.Adapter
	now     func() time.Time
}

func NewAccountService(repo repository.IAccountRepository, adapter domainDelivery.Adapter) domainAccount.IAccountUsecase {
	return &accountService{
		repo:    repo,
		adapter: adapter,
		now:     time.Now,
	}
}

func (service *accountService) Create(ctx context.Context, request domainAccount.CreateAccountRequest) (domainAccount.AccountSession, error) {
	if err := validations.ValidateCreateAccount(ctx, request); err != nil {
		return domainAccount.AccountSession{}, err
	}

	now := service.now().UTC()
	acc := domainAccount.AccountSession{
		ID:          uuid.NewString(),
		PhoneNumber: request.PhoneNumber,
		APIID:       request.APIID,
		APIHash:     request.APIHash,
		IsActive:    false,
		AuthState:   domainAccount.StateUnauthenticated,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := service.repo.Create(ctx, acc); err != nil {
		return domainAccount.AccountSession{}, err
	}

	logrus.WithField("account_id", acc.ID).Info("[ACCOUNT] account created")
	return acc, nil
}

func (service *accountService) Get(ctx context.Context, id string) (domainAccount.AccountSession, error) {
	acc, err := service.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, domainAccount.ErrAccountNotFound) {
			return domainAccount.AccountSession{}, pkgError.NotFoundError("account not found")
		}
		return domainAccount.AccountSession{}, err
	}
	return acc, nil
}

func (service *accountService) List(ctx context.Context) ([]domainAccount.AccountSession, error) {
	return service.repo.List(ctx)
}

func (service *accountService) Delete(ctx context.Context, id string) error {
	err := service.repo.Delete(ctx, id)
	if errors.Is(err, domainAccount.ErrAccountNotFound) {
		return pkgError.NotFoundError("account not found")
	}
	return err
}

// RequestCode moves the account to code_requested. Repeating the call is
// safe: the stored code hash is replaced, invalidating any verification
// that was in flight against the previous one.
func (service *accountService) RequestCode(ctx context.Context, id string) (string, error) {
	acc, err := service.Get(ctx, id)
	if err != nil {
		return "", err
	}

	codeHash, err := service.adapter.RequestCode(ctx, acc.APIID, acc.APIHash, acc.PhoneNumber)
	if err != nil {
		return "", pkgError.UpstreamAuthError("code request failed: " + err.Error())
	}

	acc.CodeHash = codeHash
	acc.AuthState = domainAccount.StateCodeRequested
	acc.UpdatedAt = service.now().UTC()
	if err := service.repo.Update(ctx, acc); err != nil {
		return "", err
	}

	logrus.WithField("account_id", acc.ID).Info("[ACCOUNT] verification code requested")
	return codeHash, nil
}

func (service *accountService) VerifyCode(ctx context.Context, id, code, codeHash string) (domainAccount.VerifyResult, error) {
	acc, err := service.Get(ctx, id)
	if err != nil {
		return domainAccount.VerifyResult{}, err
	}

	if acc.AuthState != domainAccount.StateCodeRequested || acc.CodeHash == "" {
		return domainAccount.VerifyResult{}, pkgError.InvalidCodeError("no verification pending for this account")
	}
	if codeHash != acc.CodeHash {
		// A newer RequestCode superseded this hash.
		return domainAccount.VerifyResult{}, pkgError.InvalidCodeError("verification code expired, request a new one")
	}

	conn, err := service.adapter.Connect(ctx, domainDelivery.Session{
		APIID:       acc.APIID,
		APIHash:     acc.APIHash,
		PhoneNumber: acc.PhoneNumber,
	})
	if err != nil {
		return domainAccount.VerifyResult{}, pkgError.UpstreamAuthError("connect failed: " + err.Error())
	}
	defer func() { _ = conn.Disconnect() }()

	outcome, err := conn.VerifyCode(ctx, code, codeHash)
	if err != nil {
		if errors.Is(err, domainDelivery.ErrCodeRejected) {
			return domainAccount.VerifyResult{}, pkgError.InvalidCodeError(err.Error())
		}
		return domainAccount.VerifyResult{}, pkgError.UpstreamAuthError("sign-in failed: " + err.Error())
	}

	now := service.now().UTC()
	if outcome.TwoFactorRequired {
		// Dead-end branch: the second factor is resolved in the Telegram
		// app, after which the session becomes importable out of band.
		acc.AuthState = domainAccount.StateTwoFactorRequired
		acc.UpdatedAt = now
		if err := service.repo.Update(ctx, acc); err != nil {
			return domainAccount.VerifyResult{}, err
		}
		logrus.WithField("account_id", acc.ID).Warn("[ACCOUNT] two-factor authentication required")
		return domainAccount.VerifyResult{TwoFactorRequired: true}, nil
	}

	acc.SessionToken = outcome.SessionToken
	acc.IsActive = true
	acc.AuthState = domainAccount.StateActive
	acc.CodeHash = ""
	acc.UpdatedAt = now
	if err := service.repo.Update(ctx, acc); err != nil {
		return domainAccount.VerifyResult{}, err
	}

	logrus.WithField("account_id", acc.ID).Info("[ACCOUNT] authenticated")
	return domainAccount.VerifyResult{Authenticated: true}, nil
}
