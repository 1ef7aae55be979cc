package usecase

import (
	"context"
	"testing"
	"time"

	domainSchedule "github.com/pmcostaxyz/telegram-chat/domains/schedule"
	pkgError "github.com/pmcostaxyz/telegram-chat/pkg/error"
	"github.com/pmcostaxyz/telegram-chat/repository"
	"github.com/pmcostaxyz/telegram-chat/scheduler"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newScheduleFixture(t *testing.T) (*repository.MemoryScheduleRepository, domainSchedule.IScheduleUsecase) {
	t.Helper()
	repo := repository.NewMemoryScheduleRepository()
	expander := scheduler.NewExpander(90*24*time.Hour, repo)
	service := NewScheduleService(repo, expander, &templateProvider{})
	return repo, service
}

func TestScheduleMessage_SingleMessage(t *testing.T) {
	repo, service := newScheduleFixture(t)

	ids, err := service.ScheduleMessage(context.Background(), domainSchedule.CreateMessageRequest{
		AccountID:     "acc-1",
		Recipient:     "@someone",
		Text:          "hello",
		ScheduledTime: time.Now().Add(time.Hour),
	})
	require.NoError(t, err)
	require.Len(t, ids, 1)

	msg, err := repo.GetByID(context.Background(), ids[0])
	require.NoError(t, err)
	assert.Equal(t, domainSchedule.StatusScheduled, msg.Status)
	assert.False(t, msg.IsTemplate)
	assert.Empty(t, msg.TemplateID)
}

func TestScheduleMessage_RecurringPersistsTemplateFirst(t *testing.T) {
	repo, service := newScheduleFixture(t)

	ids, err := service.ScheduleMessage(context.Background(), domainSchedule.CreateMessageRequest{
		AccountID:     "acc-1",
		Recipient:     "@someone",
		Text:          "hello",
		ScheduledTime: time.Now().Add(time.Hour),
		Recurring: &domainSchedule.RecurringSchedule{
			Enabled:   true,
			Frequency: domainSchedule.FrequencyDaily,
		},
	})
	require.NoError(t, err)
	require.Greater(t, len(ids), 2)

	template, err := repo.GetByID(context.Background(), ids[0])
	require.NoError(t, err)
	assert.True(t, template.IsTemplate)
	require.NotNil(t, template.Recurring)

	// Occurrences reference the template and are plain sendable rows.
	for _, id := range ids[1:] {
		occ, err := repo.GetByID(context.Background(), id)
		require.NoError(t, err)
		assert.False(t, occ.IsTemplate)
		assert.Equal(t, template.ID, occ.TemplateID)
		assert.Nil(t, occ.Recurring)
	}

	// The template never shows up as due work.
	due, err := repo.ListDue(context.Background(), time.Now().Add(365*24*time.Hour))
	require.NoError(t, err)
	for _, msg := range due {
		assert.NotEqual(t, template.ID, msg.ID)
	}
}

func TestScheduleMessage_InvalidRecurrenceIsValidationError(t *testing.T) {
	_, service := newScheduleFixture(t)

	_, err := service.ScheduleMessage(context.Background(), domainSchedule.CreateMessageRequest{
		AccountID:     "acc-1",
		Recipient:     "@someone",
		Text:          "hello",
		ScheduledTime: time.Now().Add(time.Hour),
		Recurring: &domainSchedule.RecurringSchedule{
			Enabled:   true,
			Frequency: domainSchedule.FrequencyCustom, // missing interval
		},
	})
	require.Error(t, err)
	_, ok := err.(pkgError.ValidationError)
	assert.True(t, ok, "expected a validation error, got %T", err)
}

func TestScheduleMessage_MissingFields(t *testing.T) {
	_, service := newScheduleFixture(t)

	_, err := service.ScheduleMessage(context.Background(), domainSchedule.CreateMessageRequest{
		Recipient: "@someone",
		Text:      "hello",
	})
	require.Error(t, err)
	_, ok := err.(pkgError.ValidationError)
	assert.True(t, ok)
}

func TestCancel_ScheduledMessage(t *testing.T) {
	repo, service := newScheduleFixture(t)

	ids, err := service.ScheduleMessage(context.Background(), domainSchedule.CreateMessageRequest{
		AccountID:     "acc-1",
		Recipient:     "@someone",
		Text:          "hello",
		ScheduledTime: time.Now().Add(time.Hour),
	})
	require.NoError(t, err)

	require.NoError(t, service.Cancel(context.Background(), ids[0]))
	_, err = repo.GetByID(context.Background(), ids[0])
	assert.ErrorIs(t, err, domainSchedule.ErrMessageNotFound)
}

func TestCancel_IsIdempotentlyNotCancelable(t *testing.T) {
	repo, service := newScheduleFixture(t)

	ids, err := service.ScheduleMessage(context.Background(), domainSchedule.CreateMessageRequest{
		AccountID:     "acc-1",
		Recipient:     "@someone",
		Text:          "hello",
		ScheduledTime: time.Now().Add(time.Hour),
	})
	require.NoError(t, err)
	require.NoError(t, service.Cancel(context.Background(), ids[0]))

	// Second cancel and cancel of a message that never existed look the same.
	secondErr := service.Cancel(context.Background(), ids[0])
	ghostErr := service.Cancel(context.Background(), "never-existed")
	require.Error(t, secondErr)
	require.Error(t, ghostErr)
	assert.Equal(t, secondErr, ghostErr)
	_, ok := secondErr.(pkgError.NotCancelableError)
	assert.True(t, ok)

	// A dispatched message cannot be canceled either.
	moreIDs, err := service.ScheduleMessage(context.Background(), domainSchedule.CreateMessageRequest{
		AccountID:     "acc-1",
		Recipient:     "@someone",
		Text:          "later",
		ScheduledTime: time.Now().Add(time.Hour),
	})
	require.NoError(t, err)
	require.NoError(t, repo.UpdateStatus(context.Background(), moreIDs[0], domainSchedule.StatusSent, ""))
	err = service.Cancel(context.Background(), moreIDs[0])
	_, ok = err.(pkgError.NotCancelableError)
	assert.True(t, ok)
}

func TestScheduleConversation_CumulativeOffsets(t *testing.T) {
	repo, service := newScheduleFixture(t)

	before := time.Now()
	ids, err := service.ScheduleConversation(context.Background(), domainSchedule.ConversationRequest{
		Recipient: "@group",
		Steps: []domainSchedule.ConversationStep{
			{AccountID: "a", Message: "one", DelaySeconds: 5},
			{AccountID: "b", Message: "two", DelaySeconds: 8},
			{AccountID: "a", Message: "three", DelaySeconds: 6},
		},
	})
	require.NoError(t, err)
	require.Len(t, ids, 3)

	var times []time.Time
	for _, id := range ids {
		msg, err := repo.GetByID(context.Background(), id)
		require.NoError(t, err)
		times = append(times, msg.ScheduledTime)
	}
	assert.Equal(t, 8*time.Second, times[1].Sub(times[0]))
	assert.Equal(t, 6*time.Second, times[2].Sub(times[1]))
	assert.True(t, times[0].After(before.Add(4*time.Second)))
}

func TestGenerateConversation_TemplateRoundRobin(t *testing.T) {
	_, service := newScheduleFixture(t)

	steps, err := service.GenerateConversation(context.Background(), domainSchedule.GenerateConversationRequest{
		Topic:        "distributed tracing",
		MessageCount: 6,
		AccountIDs:   []string{"a", "b"},
	})
	require.NoError(t, err)
	require.Len(t, steps, 6)

	for i, step := range steps {
		if i%2 == 0 {
			assert.Equal(t, "a", step.AccountID)
		} else {
			assert.Equal(t, "b", step.AccountID)
		}
		assert.NotEmpty(t, step.Message)
		assert.Positive(t, step.DelaySeconds)
	}
	assert.Contains(t, steps[0].Message, "distributed tracing")
}

func TestGenerateConversation_RequiresTwoAccounts(t *testing.T) {
	_, service := newScheduleFixture(t)

	_, err := service.GenerateConversation(context.Background(), domainSchedule.GenerateConversationRequest{
		Topic:        "anything",
		MessageCount: 4,
		AccountIDs:   []string{"solo"},
	})
	require.Error(t, err)
	_, ok := err.(pkgError.ValidationError)
	assert.True(t, ok)
}

func TestSummary_CountsAndUpcoming(t *testing.T) {
	repo, service := newScheduleFixture(t)

	for i, status := range []domainSchedule.Status{
		domainSchedule.StatusScheduled,
		domainSchedule.StatusScheduled,
		domainSchedule.StatusSent,
		domainSchedule.StatusFailed,
	} {
		require.NoError(t, repo.Create(context.Background(), domainSchedule.ScheduledMessage{
			ID:            string(rune('a' + i)),
			AccountID:     "acc-1",
			Recipient:     "@x",
			Text:          "msg",
			ScheduledTime: time.Now().Add(time.Duration(i) * time.Hour),
			Status:        status,
		}))
	}

	summary, err := service.Summary(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(2), summary.Counts[domainSchedule.StatusScheduled])
	assert.Equal(t, int64(1), summary.Counts[domainSchedule.StatusSent])
	assert.Equal(t, int64(1), summary.Counts[domainSchedule.StatusFailed])
	assert.Len(t, summary.Upcoming, 2)
}
