package usecase

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
	globalConfig "github.com/pmcostaxyz/telegram-chat/config"
	domainSchedule "github.com/pmcostaxyz/telegram-chat/domains/schedule"
	"github.com/sirupsen/logrus"
)

// ConversationProvider drafts a plausible multi-account conversation about
// a topic. Used by the schedule usecase to feed the sequencer.
type ConversationProvider interface {
	Generate(ctx context.Context, topic string, messageCount int, accountIDs []string) ([]domainSchedule.ConversationStep, error)
}

// NewConversationProvider picks the OpenAI-backed provider when an API key
// is configured and falls back to the built-in templates otherwise.
func NewConversationProvider() ConversationProvider {
	if globalConfig.OpenAIAPIKey != "" {
		return &openaiProvider{
			apiKey: globalConfig.OpenAIAPIKey,
			model:  globalConfig.OpenAIModel,
		}
	}
	return &templateProvider{}
}

// --- Template provider ---

// templateProvider rotates canned turns through up to three accounts.
type templateProvider struct{}

type conversationTemplate struct {
	text  string
	delay int
}

var conversationTemplates = []conversationTemplate{
	{"Hey, has anyone looked into %s? I've been researching it lately.", 5},
	{"Yeah, I actually have some experience with %s. What specifically are you interested in?", 8},
	{"I'm curious about the practical applications. Have you implemented it anywhere?", 6},
	{"Yes! I used it in a recent project. The results were quite promising. Want me to share some insights?", 10},
	{"That would be great! Also, I found this interesting approach to %s that might be relevant.", 7},
	{"Interesting! Can you elaborate on that? I'm always looking for new perspectives.", 6},
	{"Sure! The key is to focus on optimization. I saw about 30% improvement using this method.", 9},
	{"That's impressive! Did you run into any challenges during implementation?", 5},
}

func (p *templateProvider) Generate(ctx context.Context, topic string, messageCount int, accountIDs []string) ([]domainSchedule.ConversationStep, error) {
	if messageCount > len(conversationTemplates) {
		messageCount = len(conversationTemplates)
	}
	numAccounts := len(accountIDs)
	if numAccounts > 3 {
		numAccounts = 3
	}

	steps := make([]domainSchedule.ConversationStep, 0, messageCount)
	for i := 0; i < messageCount; i++ {
		tmpl := conversationTemplates[i]
		text := tmpl.text
		if strings.Contains(text, "%s") {
			text = fmt.Sprintf(text, topic)
		}
		steps = append(steps, domainSchedule.ConversationStep{
			AccountID:    accountIDs[i%numAccounts],
			Message:      text,
			DelaySeconds: tmpl.delay,
		})
	}
	return steps, nil
}

// --- OpenAI provider ---

type openaiProvider struct {
	apiKey string
	model  string
}

type generatedTurn struct {
	Message      string `json:"message"`
	DelaySeconds int    `json:"delay_seconds"`
}

func (p *openaiProvider) Generate(ctx context.Context, topic string, messageCount int, accountIDs []string) ([]domainSchedule.ConversationStep, error) {
	client := openai.NewClient(
		option.WithAPIKey(p.apiKey),
	)

	systemPrompt := "You write natural-sounding group chat conversations between several people. " +
		"Respond with a JSON array only, each element {\"message\": string, \"delay_seconds\": number}. " +
		"Delays are seconds between consecutive messages, between 5 and 15."
	userPrompt := fmt.Sprintf("Write a conversation of exactly %d messages about: %s", messageCount, topic)

	params := openai.ChatCompletionNewParams{
		Model: openai.ChatModel(p.model),
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(systemPrompt),
			openai.UserMessage(userPrompt),
		},
	}

	completion, err := client.Chat.Completions.New(ctx, params)
	if err != nil {
		return nil, fmt.Errorf("conversation generation failed: %w", err)
	}
	if len(completion.Choices) == 0 {
		return nil, fmt.Errorf("conversation generation returned no choices")
	}

	raw := strings.TrimSpace(completion.Choices[0].Message.Content)
	raw = strings.TrimPrefix(raw, "```json")
	raw = strings.TrimPrefix(raw, "```")
	raw = strings.TrimSuffix(raw, "```")

	var turns []generatedTurn
	if err := json.Unmarshal([]byte(raw), &turns); err != nil {
		logrus.WithError(err).Warn("[GENERATOR] model output was not valid JSON, falling back to templates")
		return (&templateProvider{}).Generate(ctx, topic, messageCount, accountIDs)
	}

	numAccounts := len(accountIDs)
	if numAccounts > 3 {
		numAccounts = 3
	}
	steps := make([]domainSchedule.ConversationStep, 0, len(turns))
	for i, turn := range turns {
		if turn.DelaySeconds <= 0 {
			turn.DelaySeconds = 5
		}
		steps = append(steps, domainSchedule.ConversationStep{
			AccountID:    accountIDs[i%numAccounts],
			Message:      turn.Message,
			DelaySeconds: turn.DelaySeconds,
		})
	}
	return steps, nil
}
