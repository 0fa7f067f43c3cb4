package repository

import (
	"context"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"renderbot/internal/model"
)

//go:embed debit.lua
var debitLuaScript string

//go:embed credit.lua
var creditLuaScript string

var (
	ErrAlreadyProcessed = errors.New("request already processed (idempotency)")
	ErrCacheMiss        = errors.New("balance not found in cache")
	ErrInsufficient     = errors.New("insufficient credit")
	ErrInvalidAmount    = errors.New("amount must be positive")
)

// LedgerRepo keeps the hot balance in Redis and the durable copy in
// Postgres. Debits go through a Lua script so the balance check, the
// decrement and the idempotency mark happen in one atomic step; successful
// debits are published on the bus and synced to Postgres by a worker.
// Credits arrive only through ApplyPayment (payments.go), which writes
// Postgres transactionally and then adjusts the cache in place.
type LedgerRepo struct {
	redisClient *redis.Client
	dbPool      *pgxpool.Pool
	bus         MessageBus
}

func NewLedgerRepo(rdb *redis.Client, db *pgxpool.Pool, bus MessageBus) *LedgerRepo {
	return &LedgerRepo{
		redisClient: rdb,
		dbPool:      db,
		bus:         bus,
	}
}

func balanceKey(userID string) string { return fmt.Sprintf("balance:%s", userID) }
func idemKey(key string) string       { return fmt.Sprintf("idem:%s", key) }

// GetBalance reads the balance from the cache, warming it from Postgres on
// a miss. Unknown users have balance 0.
func (r *LedgerRepo) GetBalance(ctx context.Context, userID string) (int64, error) {
	val, err := r.redisClient.Get(ctx, balanceKey(userID)).Int64()
	if err == nil {
		return val, nil
	}
	if !errors.Is(err, redis.Nil) {
		return 0, fmt.Errorf("redis get balance: %w", err)
	}
	return r.warmUpCache(ctx, userID)
}

// creditCache adds a grant to the hot balance, in place only. The key
// must never be dropped or overwritten here: between a debit and its sync
// the cache is ahead of Postgres, and a warm-up taken in that window would
// resurrect the spent credits.
func (r *LedgerRepo) creditCache(ctx context.Context, userID string, amount int64) error {
	return r.redisClient.Eval(ctx, creditLuaScript, []string{balanceKey(userID)}, amount).Err()
}

// Debit runs the Lua script. On a cold cache it warms up from Postgres and
// retries once.
func (r *LedgerRepo) Debit(ctx context.Context, userID string, amount int64, idempotencyKey string) (int64, error) {
	if amount <= 0 {
		return 0, fmt.Errorf("%w: debit %d", ErrInvalidAmount, amount)
	}

	balance, err := r.executeLua(ctx, userID, amount, idempotencyKey)
	if errors.Is(err, ErrCacheMiss) {
		slog.Info("cold start, warming balance cache from postgres", "user_id", userID)
		if _, err := r.warmUpCache(ctx, userID); err != nil {
			return 0, err
		}
		return r.executeLua(ctx, userID, amount, idempotencyKey)
	}
	return balance, err
}

func (r *LedgerRepo) executeLua(ctx context.Context, userID string, amount int64, idempotencyKey string) (int64, error) {
	keys := []string{balanceKey(userID), idemKey(idempotencyKey)}
	result, err := r.redisClient.Eval(ctx, debitLuaScript, keys, amount).Result()
	if err != nil {
		return 0, fmt.Errorf("error executing lua script: %w", err)
	}

	resArray, ok := result.([]interface{})
	if !ok || len(resArray) < 2 {
		return 0, errors.New("unexpected response format from redis")
	}

	statusCode := resArray[0].(int64)
	switch statusCode {
	case 1:
		newBalance := resArray[1].(int64)
		event := model.DebitEvent{
			UserID:         userID,
			Amount:         amount,
			IdempotencyKey: idempotencyKey,
			CreatedAt:      time.Now(),
		}
		eventData, _ := json.Marshal(event)
		if err := r.bus.Publish(TopicRendersDebited, eventData); err != nil {
			slog.Error("failed to publish debit event", "user_id", userID, "key", idempotencyKey, "error", err)
		}
		return newBalance, nil
	case 0:
		return 0, ErrAlreadyProcessed
	case -1:
		return 0, ErrCacheMiss
	case -2:
		return 0, ErrInsufficient
	default:
		return 0, fmt.Errorf("unknown status from lua: %d", statusCode)
	}
}

// warmUpCache fetches the balance from Postgres and puts it into Redis.
// Missing rows warm up as 0: accounts exist the moment somebody asks.
func (r *LedgerRepo) warmUpCache(ctx context.Context, userID string) (int64, error) {
	var balance int64
	query := `SELECT credits FROM accounts WHERE user_id = $1`
	err := r.dbPool.QueryRow(ctx, query, userID).Scan(&balance)
	if err != nil && !errors.Is(err, pgx.ErrNoRows) {
		return 0, fmt.Errorf("database query error: %w", err)
	}

	// No expiration: Redis is the primary cache, not a TTL cache.
	if err := r.redisClient.Set(ctx, balanceKey(userID), balance, 0).Err(); err != nil {
		return 0, fmt.Errorf("failed to save balance to redis: %w", err)
	}
	return balance, nil
}

// SyncDebit mirrors a cache-side debit into Postgres. The insert and the
// balance update share one transaction; a re-delivered event inserts
// nothing and therefore updates nothing.
func (r *LedgerRepo) SyncDebit(ctx context.Context, event model.DebitEvent) error {
	tx, err := r.dbPool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	tag, err := tx.Exec(ctx, `
		INSERT INTO render_debits (idempotency_key, user_id, amount, created_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (idempotency_key) DO NOTHING`,
		event.IdempotencyKey, event.UserID, event.Amount, event.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert debit: %w", err)
	}

	if tag.RowsAffected() == 1 {
		if _, err := tx.Exec(ctx,
			`UPDATE accounts SET credits = credits - $2 WHERE user_id = $1`,
			event.UserID, event.Amount,
		); err != nil {
			return fmt.Errorf("apply debit to account: %w", err)
		}
	}

	return tx.Commit(ctx)
}
