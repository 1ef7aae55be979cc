package repository

import (
	"context"
	"database/sql"
	"time"

	domainAccount "github.com/pmcostaxyz/telegram-chat/domains/account"
	"gorm.io/gorm"
)

type accountSessionModel struct {
	ID           string         `gorm:"primaryKey;column:id"`
	PhoneNumber  string         `gorm:"column:phone_number;not null"`
	APIID        string         `gorm:"column:api_id;not null"`
	APIHash      string         `gorm:"column:api_hash;not null"`
	SessionToken sql.NullString `gorm:"column:session_token"`
	IsActive     bool           `gorm:"column:is_active;default:false"`
	AuthState    string         `gorm:"column:auth_state;default:'unauthenticated'"`
	CodeHash     sql.NullString `gorm:"column:code_hash"`
	CreatedAt    time.Time      `gorm:"column:created_at;not null"`
	UpdatedAt    time.Time      `gorm:"column:updated_at;not null"`
}

func (accountSessionModel) TableName() string { return "account_sessions" }

func toAccountSessionModel(a domainAccount.AccountSession) accountSessionModel {
	model := accountSessionModel{
		ID:          a.ID,
		PhoneNumber: a.PhoneNumber,
		APIID:       a.APIID,
		APIHash:     a.APIHash,
		IsActive:    a.IsActive,
		AuthState:   string(a.AuthState),
		CreatedAt:   a.CreatedAt,
		UpdatedAt:   a.UpdatedAt,
	}
	if a.SessionToken != "" {
		model.SessionToken = sql.NullString{String: a.SessionToken, Valid: true}
	}
	if a.CodeHash != "" {
		model.CodeHash = sql.NullString{String: a.CodeHash, Valid: true}
	}
	return model
}

func fromAccountSessionModel(model accountSessionModel) domainAccount.AccountSession {
	return domainAccount.AccountSession{
		ID:           model.ID,
		PhoneNumber:  model.PhoneNumber,
		APIID:        model.APIID,
		APIHash:      model.APIHash,
		SessionToken: model.SessionToken.String,
		IsActive:     model.IsActive,
		AuthState:    domainAccount.AuthState(model.AuthState),
		CodeHash:     model.CodeHash.String,
		CreatedAt:    model.CreatedAt,
		UpdatedAt:    model.UpdatedAt,
	}
}

type AccountGormRepository struct {
	db *gorm.DB
}

func NewAccountGormRepository(db *gorm.DB) *AccountGormRepository {
	return &AccountGormRepository{db: db}
}

func (r *AccountGormRepository) Init(ctx context.Context) error {
	return r.db.WithContext(ctx).AutoMigrate(&accountSessionModel{})
}

func (r *AccountGormRepository) Create(ctx context.Context, acc domainAccount.AccountSession) error {
	model := toAccountSessionModel(acc)
	return r.db.WithContext(ctx).Create(&model).Error
}

func (r *AccountGormRepository) GetByID(ctx context.Context, id string) (domainAccount.AccountSession, error) {
	var model accountSessionModel
	if err := r.db.WithContext(ctx).First(&model, "id = ?", id).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return domainAccount.AccountSession{}, domainAccount.ErrAccountNotFound
		}
		return domainAccount.AccountSession{}, err
	}
	return fromAccountSessionModel(model), nil
}

func (r *AccountGormRepository) List(ctx context.Context) ([]domainAccount.AccountSession, error) {
	var models []accountSessionModel
	if err := r.db.WithContext(ctx).Order("created_at ASC").Find(&models).Error; err != nil {
		return nil, err
	}
	res := make([]domainAccount.AccountSession, len(models))
	for i, model := range models {
		res[i] = fromAccountSessionModel(model)
	}
	return res, nil
}

// Update persists the full session row, including cleared fields, so a new
// code request reliably invalidates a previous code hash.
func (r *AccountGormRepository) Update(ctx context.Context, acc domainAccount.AccountSession) error {
	model := toAccountSessionModel(acc)
	tx := r.db.WithContext(ctx).
		Model(&accountSessionModel{}).
		Where("id = ?", acc.ID).
		Select("*").
		Omit("id", "created_at").
		Updates(&model)
	if tx.Error != nil {
		return tx.Error
	}
	if tx.RowsAffected == 0 {
		return domainAccount.ErrAccountNotFound
	}
	return nil
}

func (r *AccountGormRepository) Delete(ctx context.Context, id string) error {
	tx := r.db.WithContext(ctx).Delete(&accountSessionModel{}, "id = ?", id)
	if tx.Error != nil {
		return tx.Error
	}
	if tx.RowsAffected == 0 {
		return domainAccount.ErrAccountNotFound
	}
	return nil
}
