package leads

import (
	"context"
	"sync"
	"time"
)

// Repository defines the storage contract for leads. Insert must enforce
// phone uniqueness and report a violation as ErrDuplicatePhone so
// concurrent submissions of the same phone stay idempotent.
type Repository interface {
	Insert(ctx context.Context, lead *Lead) error
	FindByPhone(ctx context.Context, phone string) (*Lead, error)
}

// InMemoryRepository keeps leads in a map keyed by phone. Used by tests
// and by deployments running without a database.
type InMemoryRepository struct {
	mu    sync.RWMutex
	leads map[string]*Lead
}

// NewInMemoryRepository creates an empty in-memory repository.
func NewInMemoryRepository() *InMemoryRepository {
	return &InMemoryRepository{leads: make(map[string]*Lead)}
}

// Insert stores the lead, stamping CreatedAt. A second lead with the same
// phone returns ErrDuplicatePhone.
func (r *InMemoryRepository) Insert(ctx context.Context, lead *Lead) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.leads[lead.Phone]; exists {
		return ErrDuplicatePhone
	}

	lead.CreatedAt = time.Now().UTC()
	stored := *lead
	r.leads[lead.Phone] = &stored
	return nil
}

// FindByPhone returns the lead registered under phone, or ErrLeadNotFound.
func (r *InMemoryRepository) FindByPhone(ctx context.Context, phone string) (*Lead, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	lead, ok := r.leads[phone]
	if !ok {
		return nil, ErrLeadNotFound
	}
	found := *lead
	return &found, nil
}

// Count reports the number of stored leads. Test helper.
func (r *InMemoryRepository) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.leads)
}
