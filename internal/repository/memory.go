package repository

import (
	"context"
	"sync"

	"renderbot/internal/model"
)

// MemoryLedger is the in-process fallback used when Postgres/Redis are not
// configured, and the ledger double in tests. The mutex is held only for
// the balance arithmetic itself, never across I/O.
type MemoryLedger struct {
	mu       sync.Mutex
	balances map[string]int64
	debits   map[string]struct{}
	applied  map[string]struct{}
}

func NewMemoryLedger() *MemoryLedger {
	return &MemoryLedger{
		balances: make(map[string]int64),
		debits:   make(map[string]struct{}),
		applied:  make(map[string]struct{}),
	}
}

func (m *MemoryLedger) GetBalance(ctx context.Context, userID string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.balances[userID], nil
}

func (m *MemoryLedger) Credit(ctx context.Context, userID string, amount int64) (int64, error) {
	if amount <= 0 {
		return 0, ErrInvalidAmount
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.balances[userID] += amount
	return m.balances[userID], nil
}

func (m *MemoryLedger) Debit(ctx context.Context, userID string, amount int64, idempotencyKey string) (int64, error) {
	if amount <= 0 {
		return 0, ErrInvalidAmount
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, seen := m.debits[idempotencyKey]; seen {
		return 0, ErrAlreadyProcessed
	}
	if m.balances[userID] < amount {
		return 0, ErrInsufficient
	}
	m.balances[userID] -= amount
	m.debits[idempotencyKey] = struct{}{}
	return m.balances[userID], nil
}

// ApplyPayment marks the event and grants its credits under one lock, so
// a delivery either lands completely or not at all.
func (m *MemoryLedger) ApplyPayment(ctx context.Context, ev model.PaymentEvent) (int64, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, seen := m.applied[ev.EventID]; seen {
		return 0, false, nil
	}
	m.applied[ev.EventID] = struct{}{}
	m.balances[ev.UserID] += ev.CreditsToGrant
	return m.balances[ev.UserID], true, nil
}
