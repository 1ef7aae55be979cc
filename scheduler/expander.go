package scheduler

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	domainSchedule "github.com/pmcostaxyz/telegram-chat/domains/schedule"
)

// HistoryLookup resolves the most recent terminal outcome for an
// account/recipient pair; status-type branch conditions need it.
type HistoryLookup interface {
	LastTerminalStatus(ctx context.Context, accountID, recipient string) (domainSchedule.Status, bool, error)
}

// Expander materializes a template message into concrete occurrences.
// Without an end date a recurrence is capped at the configured horizon to
// keep generation bounded.
type Expander struct {
	horizon time.Duration
	history HistoryLookup
	now     func() time.Time
}

func NewExpander(horizon time.Duration, history HistoryLookup) *Expander {
	return &Expander{
		horizon: horizon,
		history: history,
		now:     time.Now,
	}
}

// Expand returns the occurrences generated from the base message. Each
// occurrence's time is final once returned; callers must not recompute it.
// Occurrences skipped by branching rules are simply absent from the result.
func (e *Expander) Expand(ctx context.Context, base domainSchedule.ScheduledMessage) ([]domainSchedule.ScheduledMessage, error) {
	recurring := base.Recurring != nil && base.Recurring.Enabled
	branching := base.Branching != nil && base.Branching.Enabled

	if recurring {
		if err := e.validateRecurrence(base.Recurring); err != nil {
			return nil, err
		}
	}
	if branching {
		for i, cond := range base.Branching.Conditions {
			if err := validateCondition(cond); err != nil {
				return nil, fmt.Errorf("condition %d: %w", i, err)
			}
		}
	}

	times := []time.Time{base.ScheduledTime}
	if recurring {
		times = e.occurrenceTimes(base.Recurring, base.ScheduledTime)
	}

	created := e.now().UTC()
	occurrences := make([]domainSchedule.ScheduledMessage, 0, len(times))
	for _, t := range times {
		occ := domainSchedule.ScheduledMessage{
			ID:            base.ID,
			AccountID:     base.AccountID,
			Recipient:     base.Recipient,
			Text:          base.Text,
			ScheduledTime: t,
			Status:        domainSchedule.StatusScheduled,
			CreatedAt:     created,
			UpdatedAt:     created,
		}
		if recurring || branching {
			// The template keeps the base id; occurrences get their own.
			occ.ID = uuid.NewString()
			occ.TemplateID = base.ID
		}

		if branching {
			action, delayMinutes, err := e.disposition(ctx, base.Branching, occ)
			if err != nil {
				return nil, err
			}
			switch action {
			case domainSchedule.ActionSkip:
				continue
			case domainSchedule.ActionDelay:
				occ.ScheduledTime = occ.ScheduledTime.Add(time.Duration(delayMinutes) * time.Minute)
			}
		}

		occurrences = append(occurrences, occ)
	}
	return occurrences, nil
}

func (e *Expander) validateRecurrence(rec *domainSchedule.RecurringSchedule) error {
	switch rec.Frequency {
	case domainSchedule.FrequencyDaily:
		if rec.IntervalHours != 0 || len(rec.DaysOfWeek) != 0 {
			return fmt.Errorf("%w: daily frequency takes neither interval nor days of week", domainSchedule.ErrInvalidSchedule)
		}
	case domainSchedule.FrequencyWeekly:
		if rec.IntervalHours != 0 {
			return fmt.Errorf("%w: interval is only valid for custom frequency", domainSchedule.ErrInvalidSchedule)
		}
		if len(rec.DaysOfWeek) == 0 {
			return fmt.Errorf("%w: weekly frequency requires days of week", domainSchedule.ErrInvalidSchedule)
		}
		for _, d := range rec.DaysOfWeek {
			if d < 0 || d > 6 {
				return fmt.Errorf("%w: day of week %d out of range", domainSchedule.ErrInvalidSchedule, d)
			}
		}
	case domainSchedule.FrequencyCustom:
		if rec.IntervalHours < 1 {
			return fmt.Errorf("%w: custom frequency requires an interval of at least one hour", domainSchedule.ErrInvalidSchedule)
		}
		if len(rec.DaysOfWeek) != 0 {
			return fmt.Errorf("%w: days of week are only valid for weekly frequency", domainSchedule.ErrInvalidSchedule)
		}
	default:
		return fmt.Errorf("%w: unknown frequency %q", domainSchedule.ErrInvalidSchedule, rec.Frequency)
	}
	if rec.EndDate != nil && rec.EndDate.Before(startOfDay(e.now().UTC())) {
		return fmt.Errorf("%w: end date is in the past", domainSchedule.ErrInvalidSchedule)
	}
	return nil
}

func (e *Expander) occurrenceTimes(rec *domainSchedule.RecurringSchedule, start time.Time) []time.Time {
	// An explicit end date bounds generation on its own; the horizon caps
	// only open-ended recurrences. Occurrences are materialized once, so
	// clipping a stated end date would lose the tail for good.
	end := start.Add(e.horizon)
	if rec.EndDate != nil {
		end = inclusiveEndDate(*rec.EndDate)
	}

	var times []time.Time
	switch rec.Frequency {
	case domainSchedule.FrequencyDaily, domainSchedule.FrequencyCustom:
		step := 24 * time.Hour
		if rec.Frequency == domainSchedule.FrequencyCustom {
			step = time.Duration(rec.IntervalHours) * time.Hour
		}
		for t := start; !t.After(end); t = t.Add(step) {
			times = append(times, t)
		}
	case domainSchedule.FrequencyWeekly:
		days := make(map[time.Weekday]bool, len(rec.DaysOfWeek))
		for _, d := range rec.DaysOfWeek {
			days[time.Weekday(d)] = true
		}
		for day := startOfDay(start); !day.After(end); day = day.AddDate(0, 0, 1) {
			if !days[day.Weekday()] {
				continue
			}
			t := time.Date(day.Year(), day.Month(), day.Day(),
				start.Hour(), start.Minute(), start.Second(), 0, start.Location())
			if t.Before(start) || t.After(end) {
				continue
			}
			times = append(times, t)
		}
	}
	return times
}

// disposition evaluates the branching conditions in array order; the first
// matching condition wins, otherwise the ruleset's default action applies.
func (e *Expander) disposition(ctx context.Context, rules *domainSchedule.BranchingRules, occ domainSchedule.ScheduledMessage) (domainSchedule.Action, int, error) {
	for _, cond := range rules.Conditions {
		matched, err := e.conditionMatches(ctx, cond, occ)
		if err != nil {
			return "", 0, err
		}
		if matched {
			return cond.Action, cond.DelayMinutes, nil
		}
	}
	if rules.DefaultAction == "" {
		return domainSchedule.ActionSend, 0, nil
	}
	return rules.DefaultAction, 0, nil
}

func (e *Expander) conditionMatches(ctx context.Context, cond domainSchedule.BranchCondition, occ domainSchedule.ScheduledMessage) (bool, error) {
	switch cond.Type {
	case domainSchedule.ConditionTime:
		tod := occ.ScheduledTime.Hour()*60 + occ.ScheduledTime.Minute()
		v, err := parseClock(cond.Value)
		if err != nil {
			return false, err
		}
		switch cond.Operator {
		case domainSchedule.OperatorEquals:
			return tod == v, nil
		case domainSchedule.OperatorBefore:
			return tod < v, nil
		case domainSchedule.OperatorAfter:
			return tod > v, nil
		case domainSchedule.OperatorBetween:
			v2, err := parseClock(cond.Value2)
			if err != nil {
				return false, err
			}
			return tod >= v && tod <= v2, nil
		}
		return false, nil
	case domainSchedule.ConditionAccount:
		return occ.AccountID == cond.Value, nil
	case domainSchedule.ConditionStatus:
		if e.history == nil {
			return false, nil
		}
		status, found, err := e.history.LastTerminalStatus(ctx, occ.AccountID, occ.Recipient)
		if err != nil {
			return false, err
		}
		// No prior terminal occurrence: the condition does not match.
		if !found {
			return false, nil
		}
		return string(status) == cond.Value, nil
	}
	return false, nil
}

func validateCondition(cond domainSchedule.BranchCondition) error {
	switch cond.Type {
	case domainSchedule.ConditionTime:
		switch cond.Operator {
		case domainSchedule.OperatorEquals, domainSchedule.OperatorBefore,
			domainSchedule.OperatorAfter, domainSchedule.OperatorBetween:
		default:
			return fmt.Errorf("%w: unknown operator %q", domainSchedule.ErrInvalidCondition, cond.Operator)
		}
	case domainSchedule.ConditionAccount, domainSchedule.ConditionStatus:
		if cond.Operator != domainSchedule.OperatorEquals {
			return fmt.Errorf("%w: %s conditions only support the equals operator", domainSchedule.ErrInvalidCondition, cond.Type)
		}
	default:
		return fmt.Errorf("%w: unknown condition type %q", domainSchedule.ErrInvalidCondition, cond.Type)
	}
	if cond.Operator == domainSchedule.OperatorBetween && cond.Value2 == "" {
		return fmt.Errorf("%w: between operator requires a second value", domainSchedule.ErrInvalidCondition)
	}
	if cond.Operator != domainSchedule.OperatorBetween && cond.Value2 != "" {
		return fmt.Errorf("%w: second value is only valid with the between operator", domainSchedule.ErrInvalidCondition)
	}
	if cond.Action == domainSchedule.ActionDelay && cond.DelayMinutes <= 0 {
		return fmt.Errorf("%w: delay action requires delay minutes", domainSchedule.ErrInvalidCondition)
	}
	if cond.Action != domainSchedule.ActionDelay && cond.DelayMinutes != 0 {
		return fmt.Errorf("%w: delay minutes are only valid with the delay action", domainSchedule.ErrInvalidCondition)
	}
	return nil
}

func parseClock(value string) (int, error) {
	parts := strings.Split(value, ":")
	if len(parts) != 2 {
		return 0, fmt.Errorf("%w: time value %q must be HH:MM", domainSchedule.ErrInvalidCondition, value)
	}
	hour, err := strconv.Atoi(parts[0])
	if err != nil || hour < 0 || hour > 23 {
		return 0, fmt.Errorf("%w: invalid hour in %q", domainSchedule.ErrInvalidCondition, value)
	}
	minute, err := strconv.Atoi(parts[1])
	if err != nil || minute < 0 || minute > 59 {
		return 0, fmt.Errorf("%w: invalid minute in %q", domainSchedule.ErrInvalidCondition, value)
	}
	return hour*60 + minute, nil
}

func startOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

// inclusiveEndDate widens a date-only end date to the end of that day so
// "until endDate" covers occurrences during the final day.
func inclusiveEndDate(t time.Time) time.Time {
	if t.Hour() == 0 && t.Minute() == 0 && t.Second() == 0 {
		return t.Add(24*time.Hour - time.Second)
	}
	return t
}
