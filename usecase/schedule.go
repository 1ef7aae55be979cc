package usecase

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	domainSchedule "github.com/pmcostaxyz/telegram-chat/domains/schedule"
	pkgError "github.com/pmcostaxyz/telegram-chat/pkg/error"
	"github.com/pmcostaxyz/telegram-chat/repository"
	"github.com/pmcostaxyz/telegram-chat/scheduler"
	"github.com/pmcostaxyz/telegram-chat/validations"
	"github.com/sirupsen/logrus"
)

type scheduleService struct {
	repo      repository.IScheduleRepository
	expander  *scheduler.Expander
	generator ConversationProvider
	now       func() time.Time
}

func NewScheduleService(
	repo repository.IScheduleRepository,
	expander *scheduler.Expander,
	generator ConversationProvider,
) domainSchedule.IScheduleUsecase {
	return &scheduleService{
		repo:      repo,
		expander:  expander,
		generator: generator,
		now:       time.Now,
	}
}

func (service *scheduleService) ScheduleMessage(ctx context.Context, request domainSchedule.CreateMessageRequest) ([]string, error) {
	if err := validations.ValidateCreateMessage(ctx, request); err != nil {
		return nil, err
	}

	base := domainSchedule.ScheduledMessage{
		ID:            uuid.NewString(),
		AccountID:     request.AccountID,
		Recipient:     request.Recipient,
		Text:          request.Text,
		ScheduledTime: request.ScheduledTime.UTC(),
		Recurring:     request.Recurring,
		Branching:     request.Branching,
	}

	occurrences, err := service.expander.Expand(ctx, base)
	if err != nil {
		if errors.Is(err, domainSchedule.ErrInvalidSchedule) || errors.Is(err, domainSchedule.ErrInvalidCondition) {
			return nil, pkgError.ValidationError(err.Error())
		}
		return nil, err
	}

	hasRules := (base.Recurring != nil && base.Recurring.Enabled) ||
		(base.Branching != nil && base.Branching.Enabled)

	var ids []string
	if hasRules {
		// The template record keeps the rules; its occurrences do not.
		now := service.now().UTC()
		template := base
		template.IsTemplate = true
		template.Status = domainSchedule.StatusScheduled
		template.CreatedAt = now
		template.UpdatedAt = now
		if err := service.repo.Create(ctx, template); err != nil {
			return nil, err
		}
		ids = append(ids, template.ID)
	}

	for _, occ := range occurrences {
		if err := service.repo.Create(ctx, occ); err != nil {
			return nil, err
		}
		ids = append(ids, occ.ID)
	}

	logrus.WithFields(logrus.Fields{
		"account_id":  request.AccountID,
		"recipient":   request.Recipient,
		"occurrences": len(occurrences),
	}).Info("[SCHEDULE] message scheduled")

	return ids, nil
}

func (service *scheduleService) Cancel(ctx context.Context, id string) error {
	err := service.repo.Delete(ctx, id)
	if err == nil {
		return nil
	}
	// A vanished record and a dispatched one surface identically: there is
	// nothing left to cancel either way.
	if errors.Is(err, domainSchedule.ErrMessageNotFound) || errors.Is(err, domainSchedule.ErrNotCancelable) {
		return pkgError.NotCancelableError("message is not cancelable")
	}
	return err
}

func (service *scheduleService) ListMessages(ctx context.Context, filter domainSchedule.ListFilter) ([]domainSchedule.ScheduledMessage, error) {
	return service.repo.List(ctx, filter)
}

func (service *scheduleService) Summary(ctx context.Context) (domainSchedule.Summary, error) {
	counts, err := service.repo.CountByStatus(ctx)
	if err != nil {
		return domainSchedule.Summary{}, err
	}
	upcoming, err := service.repo.List(ctx, domainSchedule.ListFilter{
		Status: domainSchedule.StatusScheduled,
		Limit:  10,
	})
	if err != nil {
		return domainSchedule.Summary{}, err
	}
	return domainSchedule.Summary{
		Counts:   counts,
		Upcoming: upcoming,
	}, nil
}

func (service *scheduleService) ScheduleConversation(ctx context.Context, request domainSchedule.ConversationRequest) ([]string, error) {
	if err := validations.ValidateConversation(ctx, request); err != nil {
		return nil, err
	}

	messages := scheduler.SequenceConversation(request.Recipient, request.Steps, service.now().UTC())
	ids := make([]string, 0, len(messages))
	for _, msg := range messages {
		if err := service.repo.Create(ctx, msg); err != nil {
			return nil, err
		}
		ids = append(ids, msg.ID)
	}

	logrus.WithFields(logrus.Fields{
		"recipient": request.Recipient,
		"steps":     len(messages),
	}).Info("[SCHEDULE] conversation scheduled")

	return ids, nil
}

func (service *scheduleService) GenerateConversation(ctx context.Context, request domainSchedule.GenerateConversationRequest) ([]domainSchedule.ConversationStep, error) {
	if err := validations.ValidateGenerateConversation(ctx, request); err != nil {
		return nil, err
	}
	return service.generator.Generate(ctx, request.Topic, request.MessageCount, request.AccountIDs)
}
