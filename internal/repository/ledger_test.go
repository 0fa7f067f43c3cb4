package repository

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/go-redis/redismock/v9"
)

type stubBus struct {
	topics   []string
	payloads [][]byte
}

func (b *stubBus) Publish(topic string, data []byte) error {
	b.topics = append(b.topics, topic)
	b.payloads = append(b.payloads, data)
	return nil
}

func (b *stubBus) Subscribe(topic, group string, handler func(data []byte)) (Subscription, error) {
	return nil, errors.New("not implemented")
}

// A credit must adjust the hot balance in place, never delete or overwrite
// the key: between a debit and its Postgres sync the cache is ahead of the
// database, and a warm-up taken in that window would resurrect the spent
// credits. The mock rejects any command other than the credit script.
func TestLedgerRepo_CreditCacheAdjustsInPlace(t *testing.T) {
	rdb, mock := redismock.NewClientMock()
	repo := NewLedgerRepo(rdb, nil, &stubBus{})

	mock.ExpectEval(creditLuaScript, []string{"balance:42"}, int64(5)).SetVal(int64(6))

	if err := repo.creditCache(context.Background(), "42", 5); err != nil {
		t.Fatal(err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Error(err)
	}
}

func TestLedgerRepo_CreditCacheColdKeyStaysAbsent(t *testing.T) {
	rdb, mock := redismock.NewClientMock()
	repo := NewLedgerRepo(rdb, nil, &stubBus{})

	// Script reports -1 for a missing key; nothing else may be issued.
	mock.ExpectEval(creditLuaScript, []string{"balance:42"}, int64(3)).SetVal(int64(-1))

	if err := repo.creditCache(context.Background(), "42", 3); err != nil {
		t.Fatal(err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Error(err)
	}
}

func TestLedgerRepo_DebitPublishesSyncEvent(t *testing.T) {
	rdb, mock := redismock.NewClientMock()
	bus := &stubBus{}
	repo := NewLedgerRepo(rdb, nil, bus)

	mock.ExpectEval(debitLuaScript, []string{"balance:42", "idem:key-1"}, int64(1)).
		SetVal([]interface{}{int64(1), int64(4)})

	bal, err := repo.Debit(context.Background(), "42", 1, "key-1")
	if err != nil {
		t.Fatal(err)
	}
	if bal != 4 {
		t.Errorf("balance = %d, want 4", bal)
	}

	if len(bus.topics) != 1 || bus.topics[0] != TopicRendersDebited {
		t.Fatalf("published topics = %v, want one %q", bus.topics, TopicRendersDebited)
	}
	var ev struct {
		UserID         string `json:"user_id"`
		Amount         int64  `json:"amount"`
		IdempotencyKey string `json:"idempotency_key"`
	}
	if err := json.Unmarshal(bus.payloads[0], &ev); err != nil {
		t.Fatal(err)
	}
	if ev.UserID != "42" || ev.Amount != 1 || ev.IdempotencyKey != "key-1" {
		t.Errorf("published event = %+v", ev)
	}
}

func TestLedgerRepo_DebitInsufficient(t *testing.T) {
	rdb, mock := redismock.NewClientMock()
	bus := &stubBus{}
	repo := NewLedgerRepo(rdb, nil, bus)

	mock.ExpectEval(debitLuaScript, []string{"balance:42", "idem:key-2"}, int64(1)).
		SetVal([]interface{}{int64(-2), int64(0)})

	if _, err := repo.Debit(context.Background(), "42", 1, "key-2"); !errors.Is(err, ErrInsufficient) {
		t.Errorf("err = %v, want ErrInsufficient", err)
	}
	if len(bus.topics) != 0 {
		t.Errorf("failed debit published %v", bus.topics)
	}
}

func TestLedgerRepo_DebitIdempotent(t *testing.T) {
	rdb, mock := redismock.NewClientMock()
	repo := NewLedgerRepo(rdb, nil, &stubBus{})

	mock.ExpectEval(debitLuaScript, []string{"balance:42", "idem:key-3"}, int64(1)).
		SetVal([]interface{}{int64(0), int64(0)})

	if _, err := repo.Debit(context.Background(), "42", 1, "key-3"); !errors.Is(err, ErrAlreadyProcessed) {
		t.Errorf("err = %v, want ErrAlreadyProcessed", err)
	}
}

func TestLedgerRepo_GetBalanceCacheHit(t *testing.T) {
	rdb, mock := redismock.NewClientMock()
	repo := NewLedgerRepo(rdb, nil, &stubBus{})

	mock.ExpectGet("balance:42").SetVal("7")

	bal, err := repo.GetBalance(context.Background(), "42")
	if err != nil {
		t.Fatal(err)
	}
	if bal != 7 {
		t.Errorf("balance = %d, want 7", bal)
	}
}
