package duckdb

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// ExportParquet writes every stored sample, oldest first, to a Parquet
// file at dstPath. An existing file is replaced.
func (s *Store) ExportParquet(ctx context.Context, dstPath string) error {
	if err := os.MkdirAll(filepath.Dir(dstPath), 0o755); err != nil {
		return fmt.Errorf("duckdb: create export dir: %w", err)
	}

	ctx, cancel := s.queryContext(ctx)
	defer cancel()

	s.mu.Lock()
	defer s.mu.Unlock()

	query := fmt.Sprintf(`COPY (
		SELECT ts, address, hashrate_1m, hashrate_5m, hashrate_1h, hashrate_1d, hashrate_7d,
		       accepted_shares, best_share, workers, pool_users, pool_workers
		FROM hashrate_samples ORDER BY ts
	) TO %s (FORMAT parquet)`, quoteLiteral(dstPath))
	if _, err := s.db.ExecContext(ctx, query); err != nil {
		return fmt.Errorf("duckdb: export parquet: %w", err)
	}
	return nil
}

// quoteLiteral renders s as a SQL string literal. COPY targets cannot be
// bound as parameters.
func quoteLiteral(s string) string {
	return "'" + strings.ReplaceAll(s, "'", "''") + "'"
}
