package scheduler

import (
	"time"

	"github.com/google/uuid"
	domainSchedule "github.com/pmcostaxyz/telegram-chat/domains/schedule"
)

// SequenceConversation turns ordered conversation steps into scheduled
// occurrences. Step delays compose cumulatively: step i fires at
// now + sum(delaySeconds of steps 0..i), not at now + its own delay.
func SequenceConversation(recipient string, steps []domainSchedule.ConversationStep, now time.Time) []domainSchedule.ScheduledMessage {
	messages := make([]domainSchedule.ScheduledMessage, 0, len(steps))
	offset := time.Duration(0)
	for _, step := range steps {
		offset += time.Duration(step.DelaySeconds) * time.Second
		messages = append(messages, domainSchedule.ScheduledMessage{
			ID:            uuid.NewString(),
			AccountID:     step.AccountID,
			Recipient:     recipient,
			Text:          step.Message,
			ScheduledTime: now.Add(offset),
			Status:        domainSchedule.StatusScheduled,
			CreatedAt:     now,
			UpdatedAt:     now,
		})
	}
	return messages
}
