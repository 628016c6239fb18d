package duckdb

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/tinytelemetry/poolstat/internal/model"
)

// maxSamples caps unbounded history reads.
const maxSamples = 10_000

// WriteSample inserts one sample. A zero timestamp is stamped with now.
func (s *Store) WriteSample(ctx context.Context, sample model.HashrateSample) error {
	if sample.Timestamp.IsZero() {
		sample.Timestamp = time.Now()
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.ExecContext(ctx, `INSERT INTO hashrate_samples (
		id, ts, address, hashrate_1m, hashrate_5m, hashrate_1h, hashrate_1d, hashrate_7d,
		accepted_shares, best_share, workers, pool_users, pool_workers
	) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		uuid.NewString(), sample.Timestamp.UTC(), sample.Address,
		sample.Hashrate1m, sample.Hashrate5m, sample.Hashrate1h, sample.Hashrate1d, sample.Hashrate7d,
		sample.AcceptedShares, sample.BestShare, sample.Workers, sample.PoolUsers, sample.PoolWorkers,
	)
	if err != nil {
		return fmt.Errorf("duckdb: insert sample: %w", err)
	}
	return nil
}

// SamplesSince returns the newest limit samples taken at or after since,
// oldest first. limit <= 0 returns up to maxSamples.
func (s *Store) SamplesSince(ctx context.Context, since time.Time, limit int) ([]model.HashrateSample, error) {
	if limit <= 0 || limit > maxSamples {
		limit = maxSamples
	}
	ctx, cancel := s.queryContext(ctx)
	defer cancel()

	rows, err := s.db.QueryContext(ctx, `SELECT ts, address, hashrate_1m, hashrate_5m, hashrate_1h, hashrate_1d, hashrate_7d,
			accepted_shares, best_share, workers, pool_users, pool_workers
		FROM (
			SELECT * FROM hashrate_samples
			WHERE ts >= ?
			ORDER BY ts DESC
			LIMIT ?
		)
		ORDER BY ts ASC`, since.UTC(), limit)
	if err != nil {
		return nil, fmt.Errorf("duckdb: query samples: %w", err)
	}
	defer rows.Close()

	samples := []model.HashrateSample{}
	for rows.Next() {
		var h model.HashrateSample
		if err := rows.Scan(&h.Timestamp, &h.Address, &h.Hashrate1m, &h.Hashrate5m, &h.Hashrate1h,
			&h.Hashrate1d, &h.Hashrate7d, &h.AcceptedShares, &h.BestShare, &h.Workers,
			&h.PoolUsers, &h.PoolWorkers); err != nil {
			return nil, fmt.Errorf("duckdb: scan sample: %w", err)
		}
		samples = append(samples, h)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("duckdb: iterate samples: %w", err)
	}
	return samples, nil
}

// SampleCount returns the number of stored samples.
func (s *Store) SampleCount(ctx context.Context) (int64, error) {
	ctx, cancel := s.queryContext(ctx)
	defer cancel()

	var n int64
	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM hashrate_samples").Scan(&n); err != nil {
		return 0, fmt.Errorf("duckdb: count samples: %w", err)
	}
	return n, nil
}

// DeleteBefore removes samples older than cutoff and returns how many
// were deleted.
func (s *Store) DeleteBefore(cutoff time.Time) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.Exec("DELETE FROM hashrate_samples WHERE ts < ?", cutoff.UTC())
	if err != nil {
		return 0, fmt.Errorf("duckdb: delete samples: %w", err)
	}
	return res.RowsAffected()
}

var (
	_ model.SampleWriter   = (*Store)(nil)
	_ model.HistoryQuerier = (*Store)(nil)
)
