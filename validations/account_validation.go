package validations

import (
	"context"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/go-ozzo/ozzo-validation/v4/is"
	domainAccount "github.com/pmcostaxyz/telegram-chat/domains/account"
	pkgError "github.com/pmcostaxyz/telegram-chat/pkg/error"
)

func ValidateCreateAccount(ctx context.Context, request domainAccount.CreateAccountRequest) error {
	err := validation.ValidateStructWithContext(ctx, &request,
		validation.Field(&request.PhoneNumber, validation.Required, validation.Length(5, 20)),
		validation.Field(&request.APIID, validation.Required, is.Digit),
		validation.Field(&request.APIHash, validation.Required),
	)

	if err != nil {
		return pkgError.ValidationError(err.Error())
	}

	return nil
}
