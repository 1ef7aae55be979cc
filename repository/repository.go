package repository

import (
	"context"
	"time"

	domainAccount "github.com/pmcostaxyz/telegram-chat/domains/account"
	domainSchedule "github.com/pmcostaxyz/telegram-chat/domains/schedule"
)

// IScheduleRepository is the schedule store contract. ListDue is a pure
// read; all mutation goes through Claim / UpdateStatus / Delete.
type IScheduleRepository interface {
	Init(ctx context.Context) error
	Create(ctx context.Context, msg domainSchedule.ScheduledMessage) error
	GetByID(ctx context.Context, id string) (domainSchedule.ScheduledMessage, error)
	List(ctx context.Context, filter domainSchedule.ListFilter) ([]domainSchedule.ScheduledMessage, error)
	// ListDue returns non-template records still scheduled with
	// scheduledTime <= now, ordered by scheduledTime.
	ListDue(ctx context.Context, now time.Time) ([]domainSchedule.ScheduledMessage, error)
	// Claim atomically moves a record from scheduled to processing.
	// Exactly one concurrent caller observes true for a given record.
	Claim(ctx context.Context, id string) (bool, error)
	UpdateStatus(ctx context.Context, id string, status domainSchedule.Status, errorMessage string) error
	// Delete removes a record only while it is still scheduled; it returns
	// ErrNotCancelable otherwise and ErrMessageNotFound for unknown ids.
	Delete(ctx context.Context, id string) error
	// LastTerminalStatus returns the terminal status of the most recent
	// sent-or-failed occurrence for the account/recipient pair.
	LastTerminalStatus(ctx context.Context, accountID, recipient string) (domainSchedule.Status, bool, error)
	CountByStatus(ctx context.Context) (map[domainSchedule.Status]int64, error)
}

type IAccountRepository interface {
	Init(ctx context.Context) error
	Create(ctx context.Context, acc domainAccount.AccountSession) error
	GetByID(ctx context.Context, id string) (domainAccount.AccountSession, error)
	List(ctx context.Context) ([]domainAccount.AccountSession, error)
	Update(ctx context.Context, acc domainAccount.AccountSession) error
	Delete(ctx context.Context, id string) error
}
