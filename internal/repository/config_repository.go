package repository

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Ankita19Rathore/QUEUEASE/internal/domain"
)

// ConfigRepository manages the queue configuration singleton. The row is
// created lazily on first access and never deleted.
type ConfigRepository interface {
	Get(ctx context.Context) (*domain.QueueConfig, error)
	SetCapacity(ctx context.Context, shift domain.Shift, value int) (*domain.QueueConfig, error)
	TogglePause(ctx context.Context) (*domain.QueueConfig, error)
	SetCurrentToken(ctx context.Context, tokenID *string) error
}

// ConfigDefaults seed the singleton on first access.
type ConfigDefaults struct {
	MaxTokensMorning int
	MaxTokensEvening int
}

type configRepository struct {
	pool     *pgxpool.Pool
	defaults ConfigDefaults
}

// NewConfigRepository instantiates the singleton store.
func NewConfigRepository(pool *pgxpool.Pool, defaults ConfigDefaults) ConfigRepository {
	if defaults.MaxTokensMorning < 1 {
		defaults.MaxTokensMorning = domain.DefaultMaxTokens
	}
	if defaults.MaxTokensEvening < 1 {
		defaults.MaxTokensEvening = domain.DefaultMaxTokens
	}
	return &configRepository{pool: pool, defaults: defaults}
}

const configColumns = `max_tokens_morning, max_tokens_evening, is_paused, current_token_id, last_updated`

func (r *configRepository) Get(ctx context.Context) (*domain.QueueConfig, error) {
	// ON CONFLICT DO NOTHING keeps concurrent first accesses from racing
	// the lazy insert.
	const insert = `
        INSERT INTO queue_config (id, max_tokens_morning, max_tokens_evening)
        VALUES (1, $1, $2)
        ON CONFLICT (id) DO NOTHING`
	if _, err := r.pool.Exec(ctx, insert, r.defaults.MaxTokensMorning, r.defaults.MaxTokensEvening); err != nil {
		return nil, err
	}
	const query = `SELECT ` + configColumns + ` FROM queue_config WHERE id=1`
	return r.fetch(ctx, query)
}

func (r *configRepository) SetCapacity(ctx context.Context, shift domain.Shift, value int) (*domain.QueueConfig, error) {
	column := "max_tokens_morning"
	if shift == domain.ShiftEvening {
		column = "max_tokens_evening"
	}
	query := `UPDATE queue_config SET ` + column + `=$1, last_updated=NOW() WHERE id=1 RETURNING ` + configColumns
	return r.fetch(ctx, query, value)
}

// TogglePause flips the flag atomically in the database so concurrent
// toggles never lose an update.
func (r *configRepository) TogglePause(ctx context.Context) (*domain.QueueConfig, error) {
	const query = `UPDATE queue_config SET is_paused = NOT is_paused, last_updated=NOW() WHERE id=1 RETURNING ` + configColumns
	return r.fetch(ctx, query)
}

func (r *configRepository) SetCurrentToken(ctx context.Context, tokenID *string) error {
	const query = `UPDATE queue_config SET current_token_id=$1, last_updated=NOW() WHERE id=1`
	_, err := r.pool.Exec(ctx, query, tokenID)
	return err
}

func (r *configRepository) fetch(ctx context.Context, query string, args ...any) (*domain.QueueConfig, error) {
	var (
		cfg         domain.QueueConfig
		lastUpdated time.Time
	)
	if err := r.pool.QueryRow(ctx, query, args...).Scan(
		&cfg.MaxTokensMorning,
		&cfg.MaxTokensEvening,
		&cfg.IsPaused,
		&cfg.CurrentTokenID,
		&lastUpdated,
	); err != nil {
		return nil, err
	}
	cfg.LastUpdated = lastUpdated
	return &cfg, nil
}
