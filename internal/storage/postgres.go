package storage

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"creative-engine/internal/config"
)

// History records the outcome of creative generation batches.
type History interface {
	SaveBatch(ctx context.Context, batch BatchRecord) error
	RecentBatches(ctx context.Context, limit int) ([]BatchRecord, error)
}

// BatchRecord is one engine invocation's outcome.
type BatchRecord struct {
	ID           string     `json:"id"`
	Topic        string     `json:"topic"`
	CreativeType string     `json:"creative_type"`
	Requested    int        `json:"requested"`
	Succeeded    int        `json:"succeeded"`
	Failed       int        `json:"failed"`
	CreatedAt    time.Time  `json:"created_at"`
	Assets       []AssetRow `json:"assets,omitempty"`
}

// AssetRow is one rendered creative within a batch.
type AssetRow struct {
	Index    int    `json:"index"`
	Variant  string `json:"variant"`
	AssetURL string `json:"asset_url"`
}

type Store struct {
	pool *pgxpool.Pool
}

func New(ctx context.Context, cfg config.Config) (*Store, error) {
	dsn := cfg.DSN()
	poolCfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to parse postgres DSN: %w", err)
	}
	poolCfg.MaxConns = int32(cfg.Postgres.MaxOpenConns)
	poolCfg.MinConns = int32(cfg.Postgres.MaxIdleConns)
	poolCfg.HealthCheckPeriod = time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create postgres pool: %w", err)
	}
	return &Store{pool: pool}, nil
}

func (s *Store) Close() {
	if s.pool != nil {
		s.pool.Close()
	}
}

// SaveBatch writes the batch row and its assets in one transaction.
func (s *Store) SaveBatch(ctx context.Context, batch BatchRecord) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback(ctx)

	_, err = tx.Exec(ctx, `
		INSERT INTO creative_batches (id, topic, creative_type, requested, succeeded, failed, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`, batch.ID, batch.Topic, batch.CreativeType, batch.Requested, batch.Succeeded, batch.Failed, batch.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert batch: %w", err)
	}

	for _, a := range batch.Assets {
		_, err = tx.Exec(ctx, `
			INSERT INTO creative_assets (batch_id, idx, variant, asset_url)
			VALUES ($1, $2, $3, $4)
		`, batch.ID, a.Index, a.Variant, a.AssetURL)
		if err != nil {
			return fmt.Errorf("insert asset %d: %w", a.Index, err)
		}
	}

	return tx.Commit(ctx)
}

// RecentBatches loads the newest batches with their assets.
func (s *Store) RecentBatches(ctx context.Context, limit int) ([]BatchRecord, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	rows, err := s.pool.Query(ctx, `
		SELECT b.id, b.topic, b.creative_type, b.requested, b.succeeded, b.failed, b.created_at,
		       a.idx, a.variant, a.asset_url
		FROM (
			SELECT * FROM creative_batches ORDER BY created_at DESC LIMIT $1
		) b
		LEFT JOIN creative_assets a ON a.batch_id = b.id
		ORDER BY b.created_at DESC, a.idx
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("query batches: %w", err)
	}
	defer rows.Close()

	var (
		out   []BatchRecord
		index = map[string]int{}
	)
	for rows.Next() {
		var (
			b       BatchRecord
			idx     *int
			variant *string
			url     *string
		)
		if err := rows.Scan(&b.ID, &b.Topic, &b.CreativeType, &b.Requested, &b.Succeeded, &b.Failed, &b.CreatedAt, &idx, &variant, &url); err != nil {
			return nil, fmt.Errorf("scan row: %w", err)
		}

		pos, seen := index[b.ID]
		if !seen {
			pos = len(out)
			index[b.ID] = pos
			out = append(out, b)
		}
		if idx != nil {
			out[pos].Assets = append(out[pos].Assets, AssetRow{Index: *idx, Variant: deref(variant), AssetURL: deref(url)})
		}
	}
	if rows.Err() != nil {
		return nil, rows.Err()
	}
	return out, nil
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
