package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	domainSchedule "github.com/pmcostaxyz/telegram-chat/domains/schedule"
	"gorm.io/gorm"
)

// --- Persistence Model ---

type scheduledMessageModel struct {
	ID            string         `gorm:"primaryKey;column:id"`
	TemplateID    sql.NullString `gorm:"column:template_id;index"`
	AccountID     string         `gorm:"column:account_id;not null;index"`
	Recipient     string         `gorm:"column:recipient;not null"`
	Text          string         `gorm:"column:text;not null"`
	ScheduledTime time.Time      `gorm:"column:scheduled_time;not null;index"`
	Status        string         `gorm:"column:status;default:'scheduled';index"`
	ErrorMessage  sql.NullString `gorm:"column:error_message"`
	IsTemplate    bool           `gorm:"column:is_template;default:false;index"`
	Recurring     sql.NullString `gorm:"column:recurring"` // JSON, template rows only
	Branching     sql.NullString `gorm:"column:branching"` // JSON, template rows only
	CreatedAt     time.Time      `gorm:"column:created_at;not null"`
	UpdatedAt     time.Time      `gorm:"column:updated_at;not null"`
}

func (scheduledMessageModel) TableName() string { return "scheduled_messages" }

func toScheduledMessageModel(m domainSchedule.ScheduledMessage) scheduledMessageModel {
	model := scheduledMessageModel{
		ID:            m.ID,
		AccountID:     m.AccountID,
		Recipient:     m.Recipient,
		Text:          m.Text,
		ScheduledTime: m.ScheduledTime.UTC(),
		Status:        string(m.Status),
		IsTemplate:    m.IsTemplate,
		CreatedAt:     m.CreatedAt,
		UpdatedAt:     m.UpdatedAt,
	}
	if m.TemplateID != "" {
		model.TemplateID = sql.NullString{String: m.TemplateID, Valid: true}
	}
	if m.ErrorMessage != "" {
		model.ErrorMessage = sql.NullString{String: m.ErrorMessage, Valid: true}
	}
	if m.Recurring != nil {
		if raw, err := json.Marshal(m.Recurring); err == nil {
			model.Recurring = sql.NullString{String: string(raw), Valid: true}
		}
	}
	if m.Branching != nil {
		if raw, err := json.Marshal(m.Branching); err == nil {
			model.Branching = sql.NullString{String: string(raw), Valid: true}
		}
	}
	return model
}

func fromScheduledMessageModel(model scheduledMessageModel) domainSchedule.ScheduledMessage {
	m := domainSchedule.ScheduledMessage{
		ID:            model.ID,
		TemplateID:    model.TemplateID.String,
		AccountID:     model.AccountID,
		Recipient:     model.Recipient,
		Text:          model.Text,
		ScheduledTime: model.ScheduledTime,
		Status:        domainSchedule.Status(model.Status),
		ErrorMessage:  model.ErrorMessage.String,
		IsTemplate:    model.IsTemplate,
		CreatedAt:     model.CreatedAt,
		UpdatedAt:     model.UpdatedAt,
	}
	if model.Recurring.Valid {
		var rec domainSchedule.RecurringSchedule
		if err := json.Unmarshal([]byte(model.Recurring.String), &rec); err == nil {
			m.Recurring = &rec
		}
	}
	if model.Branching.Valid {
		var br domainSchedule.BranchingRules
		if err := json.Unmarshal([]byte(model.Branching.String), &br); err == nil {
			m.Branching = &br
		}
	}
	return m
}

// --- Repository Implementation ---

type ScheduleGormRepository struct {
	db *gorm.DB
}

func NewScheduleGormRepository(db *gorm.DB) *ScheduleGormRepository {
	return &ScheduleGormRepository{db: db}
}

func (r *ScheduleGormRepository) Init(ctx context.Context) error {
	return r.db.WithContext(ctx).AutoMigrate(&scheduledMessageModel{})
}

func (r *ScheduleGormRepository) Create(ctx context.Context, msg domainSchedule.ScheduledMessage) error {
	model := toScheduledMessageModel(msg)
	return r.db.WithContext(ctx).Create(&model).Error
}

func (r *ScheduleGormRepository) GetByID(ctx context.Context, id string) (domainSchedule.ScheduledMessage, error) {
	var model scheduledMessageModel
	if err := r.db.WithContext(ctx).First(&model, "id = ?", id).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return domainSchedule.ScheduledMessage{}, domainSchedule.ErrMessageNotFound
		}
		return domainSchedule.ScheduledMessage{}, err
	}
	return fromScheduledMessageModel(model), nil
}

func (r *ScheduleGormRepository) List(ctx context.Context, filter domainSchedule.ListFilter) ([]domainSchedule.ScheduledMessage, error) {
	q := r.db.WithContext(ctx).Model(&scheduledMessageModel{})
	if filter.AccountID != "" {
		q = q.Where("account_id = ?", filter.AccountID)
	}
	if filter.Status != "" {
		q = q.Where("status = ?", string(filter.Status))
	}
	if !filter.IncludeTemplates {
		q = q.Where("is_template = ?", false)
	}
	if filter.Limit > 0 {
		q = q.Limit(filter.Limit)
	}
	var models []scheduledMessageModel
	if err := q.Order("scheduled_time ASC").Find(&models).Error; err != nil {
		return nil, err
	}
	res := make([]domainSchedule.ScheduledMessage, len(models))
	for i, model := range models {
		res[i] = fromScheduledMessageModel(model)
	}
	return res, nil
}

func (r *ScheduleGormRepository) ListDue(ctx context.Context, now time.Time) ([]domainSchedule.ScheduledMessage, error) {
	var models []scheduledMessageModel
	err := r.db.WithContext(ctx).
		Where("status = ? AND is_template = ? AND scheduled_time <= ?",
			string(domainSchedule.StatusScheduled), false, now.UTC()).
		Order("scheduled_time ASC").
		Find(&models).Error
	if err != nil {
		return nil, err
	}
	res := make([]domainSchedule.ScheduledMessage, len(models))
	for i, model := range models {
		res[i] = fromScheduledMessageModel(model)
	}
	return res, nil
}

// Claim flips scheduled -> processing with a conditional update; the row
// count tells us whether this caller won the race.
func (r *ScheduleGormRepository) Claim(ctx context.Context, id string) (bool, error) {
	tx := r.db.WithContext(ctx).
		Model(&scheduledMessageModel{}).
		Where("id = ? AND status = ?", id, string(domainSchedule.StatusScheduled)).
		Updates(map[string]any{
			"status":     string(domainSchedule.StatusProcessing),
			"updated_at": time.Now().UTC(),
		})
	if tx.Error != nil {
		return false, tx.Error
	}
	return tx.RowsAffected == 1, nil
}

func (r *ScheduleGormRepository) UpdateStatus(ctx context.Context, id string, status domainSchedule.Status, errorMessage string) error {
	updates := map[string]any{
		"status":     string(status),
		"updated_at": time.Now().UTC(),
	}
	if errorMessage != "" {
		updates["error_message"] = errorMessage
	}
	tx := r.db.WithContext(ctx).
		Model(&scheduledMessageModel{}).
		Where("id = ?", id).
		Updates(updates)
	if tx.Error != nil {
		return tx.Error
	}
	if tx.RowsAffected == 0 {
		return domainSchedule.ErrMessageNotFound
	}
	return nil
}

func (r *ScheduleGormRepository) Delete(ctx context.Context, id string) error {
	tx := r.db.WithContext(ctx).
		Where("id = ? AND status = ?", id, string(domainSchedule.StatusScheduled)).
		Delete(&scheduledMessageModel{})
	if tx.Error != nil {
		return tx.Error
	}
	if tx.RowsAffected == 1 {
		return nil
	}
	// Distinguish a missing row from one that already left scheduled.
	var count int64
	if err := r.db.WithContext(ctx).Model(&scheduledMessageModel{}).Where("id = ?", id).Count(&count).Error; err != nil {
		return err
	}
	if count == 0 {
		return domainSchedule.ErrMessageNotFound
	}
	return domainSchedule.ErrNotCancelable
}

func (r *ScheduleGormRepository) LastTerminalStatus(ctx context.Context, accountID, recipient string) (domainSchedule.Status, bool, error) {
	var model scheduledMessageModel
	err := r.db.WithContext(ctx).
		Where("account_id = ? AND recipient = ? AND status IN ?",
			accountID, recipient,
			[]string{string(domainSchedule.StatusSent), string(domainSchedule.StatusFailed)}).
		Order("scheduled_time DESC").
		First(&model).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return "", false, nil
		}
		return "", false, err
	}
	return domainSchedule.Status(model.Status), true, nil
}

func (r *ScheduleGormRepository) CountByStatus(ctx context.Context) (map[domainSchedule.Status]int64, error) {
	type row struct {
		Status string
		N      int64
	}
	var rows []row
	err := r.db.WithContext(ctx).
		Model(&scheduledMessageModel{}).
		Select("status, count(*) as n").
		Where("is_template = ?", false).
		Group("status").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	res := make(map[domainSchedule.Status]int64, len(rows))
	for _, r := range rows {
		res[domainSchedule.Status(r.Status)] = r.N
	}
	return res, nil
}
