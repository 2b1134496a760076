//go:build !integration

package usecase

import (
	"context"
	"sync"

	"foodflow-pickup/internal/domain"
	"foodflow-pickup/internal/domain/model"
	"foodflow-pickup/internal/domain/ports/adapter"
	"foodflow-pickup/internal/domain/ports/repository"

	"github.com/jackc/pgx/v4"
)

type completeCall struct {
	Token      string
	DonationID string
	Code       string
}

// mockCompleter records every call; CompleteFunc overrides the result.
type mockCompleter struct {
	mu           sync.Mutex
	calls        []completeCall
	CompleteFunc func(ctx context.Context, cred adapter.Credential, donationID, code string) error
}

func (m *mockCompleter) CompletePickup(ctx context.Context, cred adapter.Credential, donationID, code string) error {
	m.mu.Lock()
	m.calls = append(m.calls, completeCall{Token: cred.Token, DonationID: donationID, Code: code})
	m.mu.Unlock()
	if m.CompleteFunc != nil {
		return m.CompleteFunc(ctx, cred, donationID, code)
	}
	return nil
}

func (m *mockCompleter) Calls() []completeCall {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]completeCall, len(m.calls))
	copy(out, m.calls)
	return out
}

type mockPolicyProvider struct {
	mu      sync.Mutex
	calls   int
	GetFunc func(ctx context.Context) (*model.TolerancePolicy, error)
}

func (m *mockPolicyProvider) GetTolerancePolicy(ctx context.Context) (*model.TolerancePolicy, error) {
	m.mu.Lock()
	m.calls++
	m.mu.Unlock()
	if m.GetFunc != nil {
		return m.GetFunc(ctx)
	}
	return &model.TolerancePolicy{EarlyToleranceMinutes: 15, LateToleranceMinutes: 10}, nil
}

func (m *mockPolicyProvider) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

// memAttemptRepo is a small in-memory attempt log used by unit tests.
type memAttemptRepo struct {
	mu       sync.Mutex
	attempts []*model.PickupAttempt
	SaveFunc func(ctx context.Context, tx repository.Tx, a *model.PickupAttempt) error
}

func (m *memAttemptRepo) Save(ctx context.Context, tx repository.Tx, a *model.PickupAttempt) error {
	if m.SaveFunc != nil {
		if err := m.SaveFunc(ctx, tx, a); err != nil {
			return err
		}
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *a
	m.attempts = append(m.attempts, &cp)
	return nil
}

func (m *memAttemptRepo) ListByDonation(ctx context.Context, tx repository.Tx, donationID string, limit int) ([]*model.PickupAttempt, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*model.PickupAttempt
	for _, a := range m.attempts {
		if a.DonationID == donationID {
			cp := *a
			out = append(out, &cp)
		}
		if limit > 0 && len(out) == limit {
			break
		}
	}
	return out, nil
}

func (m *memAttemptRepo) All() []*model.PickupAttempt {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]*model.PickupAttempt, len(m.attempts))
	copy(out, m.attempts)
	return out
}

type memToleranceRepo struct {
	mu      sync.Mutex
	policy  *model.TolerancePolicy
	saveErr error
	lastTx  repository.Tx
}

func (m *memToleranceRepo) Get(ctx context.Context, tx repository.Tx) (*model.TolerancePolicy, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.policy == nil {
		return nil, domain.ErrNotFound
	}
	cp := *m.policy
	return &cp, nil
}

func (m *memToleranceRepo) Save(ctx context.Context, tx repository.Tx, p *model.TolerancePolicy) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.lastTx = tx
	if m.saveErr != nil {
		return m.saveErr
	}
	cp := *p
	m.policy = &cp
	return nil
}

// fakeTxManager runs fn directly with a marker tx.
type fakeTxManager struct {
	calls int
	err   error
}

type fakeTx struct{}

func (m *fakeTxManager) WithTx(ctx context.Context, _ pgx.TxOptions, fn func(ctx context.Context, tx repository.Tx) error) error {
	m.calls++
	if m.err != nil {
		return m.err
	}
	return fn(ctx, fakeTx{})
}

type fakeInvalidator struct {
	calls int
	err   error
}

func (f *fakeInvalidator) Invalidate(ctx context.Context) error {
	f.calls++
	return f.err
}
