package repository

import (
	"context"
	"sort"
	"sync"

	domainAccount "github.com/pmcostaxyz/telegram-chat/domains/account"
)

type MemoryAccountRepository struct {
	mu       sync.RWMutex
	accounts map[string]domainAccount.AccountSession
}

func NewMemoryAccountRepository() *MemoryAccountRepository {
	return &MemoryAccountRepository{
		accounts: make(map[string]domainAccount.AccountSession),
	}
}

func (r *MemoryAccountRepository) Init(ctx context.Context) error { return nil }

func (r *MemoryAccountRepository) Create(ctx context.Context, acc domainAccount.AccountSession) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.accounts[acc.ID] = acc
	return nil
}

func (r *MemoryAccountRepository) GetByID(ctx context.Context, id string) (domainAccount.AccountSession, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	acc, ok := r.accounts[id]
	if !ok {
		return domainAccount.AccountSession{}, domainAccount.ErrAccountNotFound
	}
	return acc, nil
}

func (r *MemoryAccountRepository) List(ctx context.Context) ([]domainAccount.AccountSession, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	res := make([]domainAccount.AccountSession, 0, len(r.accounts))
	for _, acc := range r.accounts {
		res = append(res, acc)
	}
	sort.Slice(res, func(i, j int) bool {
		return res[i].CreatedAt.Before(res[j].CreatedAt)
	})
	return res, nil
}

func (r *MemoryAccountRepository) Update(ctx context.Context, acc domainAccount.AccountSession) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.accounts[acc.ID]; !ok {
		return domainAccount.ErrAccountNotFound
	}
	r.accounts[acc.ID] = acc
	return nil
}

func (r *MemoryAccountRepository) Delete(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.accounts[id]; !ok {
		return domainAccount.ErrAccountNotFound
	}
	delete(r.accounts, id)
	return nil
}
