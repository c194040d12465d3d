package journal

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/ruihong457-droid/Block-Chain-MoneyPot/internal/domain"
)

const schema = `
CREATE TABLE IF NOT EXISTS pot_events (
	id         BIGSERIAL PRIMARY KEY,
	kind       TEXT NOT NULL,
	pot_id     BIGINT NOT NULL,
	request_id BIGINT,
	actor      TEXT NOT NULL,
	amount     BIGINT NOT NULL DEFAULT 0,
	payload    JSONB NOT NULL,
	created_at TIMESTAMPTZ NOT NULL
)`

// Journal persists ledger events to Postgres for external indexers and
// UIs. Writes happen after the ledger has committed the operation; a
// failed write is logged and dropped, never surfaced to the caller.
type Journal struct {
	db     *pgxpool.Pool
	logger *zap.Logger
}

func New(ctx context.Context, connString string, logger *zap.Logger) (*Journal, error) {
	config, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, fmt.Errorf("unable to parse database config: %w", err)
	}

	pool, err := pgxpool.NewWithConfig(ctx, config)
	if err != nil {
		return nil, fmt.Errorf("unable to create connection pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		return nil, fmt.Errorf("unable to ping database: %w", err)
	}

	if _, err := pool.Exec(ctx, schema); err != nil {
		pool.Close()
		return nil, fmt.Errorf("unable to ensure schema: %w", err)
	}

	return &Journal{db: pool, logger: logger}, nil
}

func (j *Journal) Close() {
	j.db.Close()
}

// Emit writes one event row.
func (j *Journal) Emit(ctx context.Context, e domain.Event) {
	payload, err := json.Marshal(e)
	if err != nil {
		j.logger.Warn("journal: marshal event", zap.Error(err))
		return
	}
	_, err = j.db.Exec(ctx,
		"INSERT INTO pot_events (kind, pot_id, request_id, actor, amount, payload, created_at) VALUES ($1, $2, $3, $4, $5, $6, $7)",
		e.Kind, e.PotID, e.RequestID, e.Actor, e.Amount, payload, e.CreatedAt,
	)
	if err != nil {
		j.logger.Warn("journal: insert event",
			zap.String("kind", e.Kind),
			zap.Int64("pot_id", e.PotID),
			zap.Error(err))
	}
}

// Recent returns up to limit events for a pot, newest first.
func (j *Journal) Recent(ctx context.Context, potID int64, limit int) ([]domain.Event, error) {
	rows, err := j.db.Query(ctx,
		"SELECT payload FROM pot_events WHERE pot_id = $1 ORDER BY id DESC LIMIT $2",
		potID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var events []domain.Event
	for rows.Next() {
		var payload []byte
		if err := rows.Scan(&payload); err != nil {
			return nil, err
		}
		var e domain.Event
		if err := json.Unmarshal(payload, &e); err != nil {
			return nil, err
		}
		events = append(events, e)
	}
	return events, rows.Err()
}
