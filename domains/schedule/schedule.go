package schedule

import (
	"context"
	"time"
)

type Status string

const (
	// StatusScheduled is the only mutable state; scheduled messages can be
	// canceled and are eligible for dispatch once due.
	StatusScheduled Status = "scheduled"
	// StatusProcessing marks a message claimed by a dispatcher. Transient;
	// a message is never observable in this state through ListDue.
	StatusProcessing Status = "processing"
	StatusSent       Status = "sent"
	StatusFailed     Status = "failed"
)

// Terminal reports whether a status admits no further transitions.
func (s Status) Terminal() bool {
	return s == StatusSent || s == StatusFailed
}

type Frequency string

const (
	FrequencyDaily  Frequency = "daily"
	FrequencyWeekly Frequency = "weekly"
	FrequencyCustom Frequency = "custom"
)

// RecurringSchedule describes how a template message repeats.
// IntervalHours is meaningful only for custom frequency, DaysOfWeek
// (0=Sunday .. 6=Saturday) only for weekly.
type RecurringSchedule struct {
	Enabled       bool       `json:"enabled"`
	Frequency     Frequency  `json:"frequency"`
	IntervalHours int        `json:"interval,omitempty"`
	DaysOfWeek    []int      `json:"days_of_week,omitempty"`
	EndDate       *time.Time `json:"end_date,omitempty"`
}

type ConditionType string

const (
	ConditionTime    ConditionType = "time"
	ConditionAccount ConditionType = "account"
	ConditionStatus  ConditionType = "status"
)

type Operator string

const (
	OperatorEquals  Operator = "equals"
	OperatorBetween Operator = "between"
	OperatorBefore  Operator = "before"
	OperatorAfter   Operator = "after"
)

type Action string

const (
	ActionSend  Action = "send"
	ActionSkip  Action = "skip"
	ActionDelay Action = "delay"
)

// BranchCondition is one rule of a branching ruleset. Value2 accompanies
// the between operator, DelayMinutes the delay action.
type BranchCondition struct {
	Type         ConditionType `json:"type"`
	Operator     Operator      `json:"operator"`
	Value        string        `json:"value"`
	Value2       string        `json:"value2,omitempty"`
	Action       Action        `json:"action"`
	DelayMinutes int           `json:"delay_minutes,omitempty"`
}

// BranchingRules gate each generated occurrence. Conditions are evaluated
// in array order and the first match wins; DefaultAction applies when
// nothing matches.
type BranchingRules struct {
	Enabled       bool              `json:"enabled"`
	Conditions    []BranchCondition `json:"conditions"`
	DefaultAction Action            `json:"default_action"`
}

// ScheduledMessage is one row of the schedule store: either a template
// (user-authored, carrying recurrence/branching metadata) or a concrete
// occurrence generated from one. Occurrence times are immutable once
// materialized; only Status and ErrorMessage mutate afterwards.
type ScheduledMessage struct {
	ID            string             `json:"id"`
	TemplateID    string             `json:"template_id,omitempty"`
	AccountID     string             `json:"account_id"`
	Recipient     string             `json:"recipient"`
	Text          string             `json:"text"`
	ScheduledTime time.Time          `json:"scheduled_time"`
	Status        Status             `json:"status"`
	ErrorMessage  string             `json:"error_message,omitempty"`
	IsTemplate    bool               `json:"is_template,omitempty"`
	Recurring     *RecurringSchedule `json:"recurring,omitempty"`
	Branching     *BranchingRules    `json:"branching,omitempty"`
	CreatedAt     time.Time          `json:"created_at"`
	UpdatedAt     time.Time          `json:"updated_at"`
}

// ConversationStep is one turn of a simulated multi-account conversation.
// DelaySeconds composes cumulatively: step i fires at now + sum of the
// delays of steps 0..i.
type ConversationStep struct {
	AccountID    string `json:"account_id"`
	Message      string `json:"message"`
	DelaySeconds int    `json:"delay_seconds"`
}

type CreateMessageRequest struct {
	AccountID     string             `json:"account_id"`
	Recipient     string             `json:"recipient"`
	Text          string             `json:"text"`
	ScheduledTime time.Time          `json:"scheduled_time"`
	Recurring     *RecurringSchedule `json:"recurring,omitempty"`
	Branching     *BranchingRules    `json:"branching,omitempty"`
}

type ConversationRequest struct {
	Recipient string             `json:"recipient"`
	Steps     []ConversationStep `json:"steps"`
}

type GenerateConversationRequest struct {
	Topic        string   `json:"topic"`
	MessageCount int      `json:"message_count"`
	AccountIDs   []string `json:"account_ids"`
}

// ListFilter narrows List results. Zero values mean "no constraint".
type ListFilter struct {
	AccountID        string `json:"account_id,omitempty"`
	Status           Status `json:"status,omitempty"`
	IncludeTemplates bool   `json:"include_templates,omitempty"`
	Limit            int    `json:"limit,omitempty"`
}

// Summary aggregates store contents for list surfaces.
type Summary struct {
	Counts   map[Status]int64   `json:"counts"`
	Upcoming []ScheduledMessage `json:"upcoming"`
}

type IScheduleUsecase interface {
	// ScheduleMessage expands the request into one or more occurrences and
	// persists them, returning the ids of the persisted records (the
	// template id first when recurrence or branching is enabled).
	ScheduleMessage(ctx context.Context, request CreateMessageRequest) ([]string, error)
	// Cancel deletes a message that is still scheduled. It fails with a
	// not-cancelable error once the message left that state or is gone.
	Cancel(ctx context.Context, id string) error
	ListMessages(ctx context.Context, filter ListFilter) ([]ScheduledMessage, error)
	Summary(ctx context.Context) (Summary, error)
	// ScheduleConversation turns ordered steps into occurrences offset by
	// the cumulative step delays.
	ScheduleConversation(ctx context.Context, request ConversationRequest) ([]string, error)
	GenerateConversation(ctx context.Context, request GenerateConversationRequest) ([]ConversationStep, error)
}
