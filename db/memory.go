package db

import (
	"context"
	"sync"

	"school_resource_hub/models"
)

// MemStore is an in-memory stand-in for Repo used by the lifecycle and
// reconciliation tests. It implements the same store methods over plain maps
// and can inject per-resource write failures to exercise the partial-failure
// paths that a real backend only produces under outage.
type MemStore struct {
	mu        sync.Mutex
	resources map[string]models.Resource
	loans     map[string]models.Loan

	// FailResourceWrite, when set, makes UpdateResourceStatus fail for the
	// listed resource ids.
	FailResourceWrite map[string]error
}

func NewMemStore() *MemStore {
	return &MemStore{
		resources: make(map[string]models.Resource),
		loans:     make(map[string]models.Loan),
	}
}

// Resources

func (m *MemStore) PutResource(res models.Resource) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.resources[res.ID] = res
}

func (m *MemStore) FindResourceByID(ctx context.Context, id string) (*models.Resource, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	res, ok := m.resources[id]
	if !ok {
		return nil, ErrNotFound
	}
	out := res
	return &out, nil
}

func (m *MemStore) ListResourcesByStatus(ctx context.Context, status models.ResourceStatus) ([]models.Resource, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []models.Resource
	for _, res := range m.resources {
		if res.Status == status {
			out = append(out, res)
		}
	}
	return out, nil
}

func (m *MemStore) UpdateResourceStatus(ctx context.Context, id string, status models.ResourceStatus, notes string) (*models.Resource, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err, ok := m.FailResourceWrite[id]; ok {
		return nil, err
	}
	res, ok := m.resources[id]
	if !ok {
		return nil, ErrNotFound
	}
	if status == models.ResourceAvailable || status == models.ResourceLoaned {
		notes = ""
	}
	res.Status = status
	res.DamageNotes = notes
	m.resources[id] = res
	out := res
	return &out, nil
}

// Loans

func (m *MemStore) CreateLoan(ctx context.Context, l *models.Loan) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.loans[l.ID] = *l
	return nil
}

func (m *MemStore) FindLoanByID(ctx context.Context, id string) (*models.Loan, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	l, ok := m.loans[id]
	if !ok {
		return nil, ErrNotFound
	}
	out := l
	return &out, nil
}

func (m *MemStore) SaveLoan(ctx context.Context, l *models.Loan) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.loans[l.ID] = *l
	return nil
}

func (m *MemStore) ListLoansByStatus(ctx context.Context, status models.LoanStatus) ([]models.Loan, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []models.Loan
	for _, l := range m.loans {
		if status == "" || l.Status == status {
			out = append(out, l)
		}
	}
	return out, nil
}
