// Package audit keeps an optional operator-side trail of custodial
// submissions. The contract is the only system of record for auction state;
// these rows only answer "what did our signer send, for whom, and when".
// Auditing is disabled entirely when no DATABASE_URL is configured.
package audit

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

const schema = `
CREATE TABLE IF NOT EXISTS submissions (
	id          UUID PRIMARY KEY,
	kind        TEXT NOT NULL,                -- 'bid' or 'finalize'
	slot        INT NOT NULL,
	advertiser  TEXT NOT NULL DEFAULT '',
	amount_usd  NUMERIC(18,6),
	tx_hash     TEXT NOT NULL DEFAULT '',
	outcome     TEXT NOT NULL,                -- 'ok', 'rejected', 'failed'
	detail      TEXT NOT NULL DEFAULT '',
	created_at  TIMESTAMPTZ NOT NULL DEFAULT now()
);
CREATE INDEX IF NOT EXISTS submissions_advertiser_idx ON submissions (advertiser);
CREATE INDEX IF NOT EXISTS submissions_created_at_idx ON submissions (created_at);
`

// Recorder writes submission rows. A nil *Recorder is valid and records
// nothing, so callers never branch on whether auditing is enabled.
type Recorder struct {
	pool   *pgxpool.Pool
	logger *zap.Logger
}

// Open connects to Postgres and ensures the schema exists.
func Open(ctx context.Context, databaseURL string, logger *zap.Logger) (*Recorder, error) {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("audit pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("audit ping: %w", err)
	}
	if _, err := pool.Exec(ctx, schema); err != nil {
		pool.Close()
		return nil, fmt.Errorf("audit schema: %w", err)
	}
	logger.Info("audit trail enabled")
	return &Recorder{pool: pool, logger: logger}, nil
}

// Close releases the pool.
func (r *Recorder) Close() {
	if r != nil && r.pool != nil {
		r.pool.Close()
	}
}

// Entry is one custodial submission outcome.
type Entry struct {
	Kind       string
	Slot       int
	Advertiser string
	AmountUSD  string // decimal string, empty for finalizations
	TxHash     string
	Outcome    string
	Detail     string
}

// Record inserts an entry. Best-effort: failures are logged, never surfaced,
// and the insert is bounded so a slow database cannot stall a request.
func (r *Recorder) Record(ctx context.Context, e Entry) {
	if r == nil || r.pool == nil {
		return
	}
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	var amount interface{}
	if e.AmountUSD != "" {
		amount = e.AmountUSD
	}
	_, err := r.pool.Exec(ctx,
		`INSERT INTO submissions (id, kind, slot, advertiser, amount_usd, tx_hash, outcome, detail)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		uuid.New(), e.Kind, e.Slot, e.Advertiser, amount, e.TxHash, e.Outcome, e.Detail,
	)
	if err != nil {
		r.logger.Warn("audit insert failed", zap.Error(err), zap.String("kind", e.Kind))
	}
}
