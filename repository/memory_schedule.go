package repository

import (
	"context"
	"sort"
	"sync"
	"time"

	domainSchedule "github.com/pmcostaxyz/telegram-chat/domains/schedule"
)

// MemoryScheduleRepository keeps the schedule store in a map. The engine's
// contract is identical to the durable variant; embedders that do not need
// persistence (and the test suite) use this one.
type MemoryScheduleRepository struct {
	mu       sync.RWMutex
	messages map[string]domainSchedule.ScheduledMessage
}

func NewMemoryScheduleRepository() *MemoryScheduleRepository {
	return &MemoryScheduleRepository{
		messages: make(map[string]domainSchedule.ScheduledMessage),
	}
}

func (r *MemoryScheduleRepository) Init(ctx context.Context) error { return nil }

func (r *MemoryScheduleRepository) Create(ctx context.Context, msg domainSchedule.ScheduledMessage) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.messages[msg.ID] = msg
	return nil
}

func (r *MemoryScheduleRepository) GetByID(ctx context.Context, id string) (domainSchedule.ScheduledMessage, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	msg, ok := r.messages[id]
	if !ok {
		return domainSchedule.ScheduledMessage{}, domainSchedule.ErrMessageNotFound
	}
	return msg, nil
}

func (r *MemoryScheduleRepository) List(ctx context.Context, filter domainSchedule.ListFilter) ([]domainSchedule.ScheduledMessage, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var res []domainSchedule.ScheduledMessage
	for _, msg := range r.messages {
		if filter.AccountID != "" && msg.AccountID != filter.AccountID {
			continue
		}
		if filter.Status != "" && msg.Status != filter.Status {
			continue
		}
		if !filter.IncludeTemplates && msg.IsTemplate {
			continue
		}
		res = append(res, msg)
	}
	sort.Slice(res, func(i, j int) bool {
		return res[i].ScheduledTime.Before(res[j].ScheduledTime)
	})
	if filter.Limit > 0 && len(res) > filter.Limit {
		res = res[:filter.Limit]
	}
	return res, nil
}

func (r *MemoryScheduleRepository) ListDue(ctx context.Context, now time.Time) ([]domainSchedule.ScheduledMessage, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var res []domainSchedule.ScheduledMessage
	for _, msg := range r.messages {
		if msg.IsTemplate || msg.Status != domainSchedule.StatusScheduled {
			continue
		}
		if msg.ScheduledTime.After(now) {
			continue
		}
		res = append(res, msg)
	}
	sort.Slice(res, func(i, j int) bool {
		return res[i].ScheduledTime.Before(res[j].ScheduledTime)
	})
	return res, nil
}

func (r *MemoryScheduleRepository) Claim(ctx context.Context, id string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	msg, ok := r.messages[id]
	if !ok || msg.Status != domainSchedule.StatusScheduled {
		return false, nil
	}
	msg.Status = domainSchedule.StatusProcessing
	msg.UpdatedAt = time.Now().UTC()
	r.messages[id] = msg
	return true, nil
}

func (r *MemoryScheduleRepository) UpdateStatus(ctx context.Context, id string, status domainSchedule.Status, errorMessage string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	msg, ok := r.messages[id]
	if !ok {
		return domainSchedule.ErrMessageNotFound
	}
	msg.Status = status
	if errorMessage != "" {
		msg.ErrorMessage = errorMessage
	}
	msg.UpdatedAt = time.Now().UTC()
	r.messages[id] = msg
	return nil
}

func (r *MemoryScheduleRepository) Delete(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	msg, ok := r.messages[id]
	if !ok {
		return domainSchedule.ErrMessageNotFound
	}
	if msg.Status != domainSchedule.StatusScheduled {
		return domainSchedule.ErrNotCancelable
	}
	delete(r.messages, id)
	return nil
}

func (r *MemoryScheduleRepository) LastTerminalStatus(ctx context.Context, accountID, recipient string) (domainSchedule.Status, bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var (
		latest time.Time
		status domainSchedule.Status
		found  bool
	)
	for _, msg := range r.messages {
		if msg.AccountID != accountID || msg.Recipient != recipient {
			continue
		}
		if !msg.Status.Terminal() {
			continue
		}
		if !found || msg.ScheduledTime.After(latest) {
			latest = msg.ScheduledTime
			status = msg.Status
			found = true
		}
	}
	return status, found, nil
}

func (r *MemoryScheduleRepository) CountByStatus(ctx context.Context) (map[domainSchedule.Status]int64, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	res := make(map[domainSchedule.Status]int64)
	for _, msg := range r.messages {
		if msg.IsTemplate {
			continue
		}
		res[msg.Status]++
	}
	return res, nil
}
