package repo

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"stylebot/internal/domain"
)

// AtomicPG implements domain.Atomic over a pgx pool. Each WithChat call runs
// its closure inside a transaction holding a per-chat advisory lock, so events
// for the same chat serialize no matter which webhook delivered them.
type AtomicPG struct {
	pool *pgxpool.Pool
}

// NewAtomic constructs the atomic-section runner.
func NewAtomic(pool *pgxpool.Pool) *AtomicPG {
	return &AtomicPG{pool: pool}
}

// WithChat acquires pg_advisory_xact_lock(chatID) and calls fn with
// transaction-backed repositories. The lock releases with the transaction on
// commit or rollback.
func (a *AtomicPG) WithChat(ctx context.Context, chatID int64, fn func(ctx context.Context, r domain.Repos) error) error {
	tx, err := a.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return fmt.Errorf("atomic: begin: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck // rollback after commit is a no-op

	if _, err := tx.Exec(ctx, `SELECT pg_advisory_xact_lock($1);`, chatID); err != nil {
		return fmt.Errorf("atomic: lock chat %d: %w", chatID, err)
	}

	repos := domain.Repos{
		Chats:   NewChatRepository(tx),
		Jobs:    NewJobRepository(tx),
		Support: NewSupportRepository(tx),
	}
	if err := fn(ctx, repos); err != nil {
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("atomic: commit: %w", err)
	}
	return nil
}

// Repos returns pool-backed repositories for reads outside an atomic section.
func (a *AtomicPG) Repos() domain.Repos {
	return domain.Repos{
		Chats:   NewChatRepository(a.pool),
		Jobs:    NewJobRepository(a.pool),
		Support: NewSupportRepository(a.pool),
	}
}
