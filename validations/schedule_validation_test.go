package validations

import (
	"context"
	"testing"
	"time"

	domainSchedule "github.com/pmcostaxyz/telegram-chat/domains/schedule"
	pkgError "github.com/pmcostaxyz/telegram-chat/pkg/error"
	"github.com/stretchr/testify/assert"
)

func TestValidateCreateMessage(t *testing.T) {
	valid := domainSchedule.CreateMessageRequest{
		AccountID:     "acc-1",
		Recipient:     "@someone",
		Text:          "hello",
		ScheduledTime: time.Now().Add(time.Hour),
	}

	cases := []struct {
		name    string
		mutate  func(r *domainSchedule.CreateMessageRequest)
		wantErr bool
	}{
		{"valid", func(r *domainSchedule.CreateMessageRequest) {}, false},
		{"missing account", func(r *domainSchedule.CreateMessageRequest) { r.AccountID = "" }, true},
		{"missing recipient", func(r *domainSchedule.CreateMessageRequest) { r.Recipient = "" }, true},
		{"missing text", func(r *domainSchedule.CreateMessageRequest) { r.Text = "" }, true},
		{"missing time", func(r *domainSchedule.CreateMessageRequest) { r.ScheduledTime = time.Time{} }, true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			request := valid
			tc.mutate(&request)
			err := ValidateCreateMessage(context.Background(), request)
			if tc.wantErr {
				assert.Error(t, err)
				_, ok := err.(pkgError.ValidationError)
				assert.True(t, ok)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestValidateConversation(t *testing.T) {
	err := ValidateConversation(context.Background(), domainSchedule.ConversationRequest{
		Recipient: "@group",
		Steps: []domainSchedule.ConversationStep{
			{AccountID: "a", Message: "hi", DelaySeconds: 5},
		},
	})
	assert.NoError(t, err)

	err = ValidateConversation(context.Background(), domainSchedule.ConversationRequest{
		Recipient: "@group",
	})
	assert.Error(t, err)

	err = ValidateConversation(context.Background(), domainSchedule.ConversationRequest{
		Recipient: "@group",
		Steps: []domainSchedule.ConversationStep{
			{AccountID: "", Message: "hi", DelaySeconds: 5},
		},
	})
	assert.Error(t, err)
}

func TestValidateGenerateConversation(t *testing.T) {
	valid := domainSchedule.GenerateConversationRequest{
		Topic:        "observability",
		MessageCount: 4,
		AccountIDs:   []string{"a", "b"},
	}
	assert.NoError(t, ValidateGenerateConversation(context.Background(), valid))

	tooMany := valid
	tooMany.MessageCount = 9
	assert.Error(t, ValidateGenerateConversation(context.Background(), tooMany))

	oneAccount := valid
	oneAccount.AccountIDs = []string{"a"}
	assert.Error(t, ValidateGenerateConversation(context.Background(), oneAccount))

	noTopic := valid
	noTopic.Topic = ""
	assert.Error(t, ValidateGenerateConversation(context.Background(), noTopic))
}
