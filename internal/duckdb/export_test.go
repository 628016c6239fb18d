package duckdb

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/tinytelemetry/poolstat/internal/model"
)

func TestExportParquet(t *testing.T) {
	store := newTestStore(t)
	base := time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)
	writeSamples(t, store,
		model.HashrateSample{Timestamp: base.Add(time.Minute), Address: "bc1q", Hashrate1m: 2e12},
		model.HashrateSample{Timestamp: base, Address: "bc1q", Hashrate1m: 1e12},
	)

	dst := filepath.Join(t.TempDir(), "nested", "it's.parquet")
	if err := store.ExportParquet(context.Background(), dst); err != nil {
		t.Fatalf("ExportParquet: %v", err)
	}
	if info, err := os.Stat(dst); err != nil || info.Size() == 0 {
		t.Fatalf("export file missing or empty: %v", err)
	}

	var n int
	var first float64
	q := fmt.Sprintf("SELECT count(*), first(hashrate_1m) FROM read_parquet(%s)", quoteLiteral(dst))
	if err := store.db.QueryRow(q).Scan(&n, &first); err != nil {
		t.Fatalf("read back: %v", err)
	}
	if n != 2 || first != 1e12 {
		t.Errorf("count=%d first=%v, want 2 and the oldest sample first", n, first)
	}
}

func TestQuoteLiteral(t *testing.T) {
	if got := quoteLiteral("a'b"); got != "'a''b'" {
		t.Errorf("quoteLiteral = %s", got)
	}
}
