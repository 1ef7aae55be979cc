package validations

import (
	"context"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	domainSchedule "github.com/pmcostaxyz/telegram-chat/domains/schedule"
	pkgError "github.com/pmcostaxyz/telegram-chat/pkg/error"
)

func ValidateCreateMessage(ctx context.Context, request domainSchedule.CreateMessageRequest) error {
	err := validation.ValidateStructWithContext(ctx, &request,
		validation.Field(&request.AccountID, validation.Required),
		validation.Field(&request.Recipient, validation.Required, validation.Length(1, 100)),
		validation.Field(&request.Text, validation.Required, validation.Length(1, 4096)),
		validation.Field(&request.ScheduledTime, validation.Required),
	)

	if err != nil {
		return pkgError.ValidationError(err.Error())
	}

	return nil
}

func ValidateConversation(ctx context.Context, request domainSchedule.ConversationRequest) error {
	err := validation.ValidateStructWithContext(ctx, &request,
		validation.Field(&request.Recipient, validation.Required, validation.Length(1, 100)),
		validation.Field(&request.Steps, validation.Required),
	)
	if err != nil {
		return pkgError.ValidationError(err.Error())
	}

	for _, step := range request.Steps {
		err := validation.ValidateStructWithContext(ctx, &step,
			validation.Field(&step.AccountID, validation.Required),
			validation.Field(&step.Message, validation.Required, validation.Length(1, 4096)),
			validation.Field(&step.DelaySeconds, validation.Min(0)),
		)
		if err != nil {
			return pkgError.ValidationError(err.Error())
		}
	}

	return nil
}

func ValidateGenerateConversation(ctx context.Context, request domainSchedule.GenerateConversationRequest) error {
	err := validation.ValidateStructWithContext(ctx, &request,
		validation.Field(&request.Topic, validation.Required),
		validation.Field(&request.MessageCount, validation.Required, validation.Min(1), validation.Max(8)),
		validation.Field(&request.AccountIDs, validation.Required, validation.Length(2, 0)),
	)

	if err != nil {
		return pkgError.ValidationError(err.Error())
	}

	return nil
}
