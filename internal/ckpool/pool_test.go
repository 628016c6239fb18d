package ckpool

import (
	"testing"

	"github.com/tinytelemetry/poolstat/internal/model"
)

var poolLines = []string{
	`[2024-01-01 00:00:00.000] Pool:{"diff":9.9,"Idle":7}`,
	`[2024-01-01 00:00:01.000] Pool:{"runtime":10,"lastupdate":100,"Users":1,"Workers":2,"Disconnected":0}`,
	`[2024-01-01 00:00:02.000] Pool:{"hashrate1m":"2T","hashrate5m":"2T","hashrate15m":"2T","hashrate1hr":"2T","hashrate6hr":"2T","hashrate1d":"2T","hashrate7d":"2T"}`,
	`[2024-01-01 00:00:03.000] Pool:{"accepted":5,"rejected":0,"bestshare":9,"runtime":30,"SPS1m":0.5,"extra":"x"}`,
}

func TestScanPool_Policies(t *testing.T) {
	tests := []struct {
		policy  MergePolicy
		runtime float64
	}{
		{MergeNewest, 30},
		{MergeOverwrite, 10},
	}

	for _, tt := range tests {
		t.Run(string(tt.policy), func(t *testing.T) {
			opts := testOptions("")
			opts.PoolMerge = tt.policy
			stats, diag := ParseLines(poolLines, opts)
			pool := stats.Pool

			if pool["runtime"] != tt.runtime {
				t.Errorf("runtime = %v, want %v", pool["runtime"], tt.runtime)
			}
			if pool["users"] != float64(1) || pool["workers"] != float64(2) {
				t.Errorf("users/workers = %v/%v", pool["users"], pool["workers"])
			}
			if pool["hashrate1m"] != "2T" || pool["SPS1m"] != 0.5 {
				t.Errorf("pool = %v", pool)
			}
			// The scan stops before reaching the first line.
			if _, ok := pool["diff"]; ok {
				t.Errorf("diff should not be merged after completion: %v", pool)
			}
			if _, ok := pool["idle"]; ok {
				t.Errorf("idle should not be merged after completion: %v", pool)
			}
			if _, ok := pool["extra"]; ok {
				t.Error("untranslated keys must be dropped")
			}
			if _, ok := pool["Users"]; ok {
				t.Error("source key names must be translated")
			}
			if diag.PoolLines != 3 {
				t.Errorf("PoolLines = %d, want 3", diag.PoolLines)
			}
		})
	}
}

func TestScanPool_IncompleteScansEverything(t *testing.T) {
	lines := []string{
		`Pool:{"runtime":1,"diff":0.1}`,
		`plain text`,
		`Pool:{"runtime":2}`,
		`Pool: {"Users":3}`,
	}
	stats, diag := ParseLines(lines, testOptions(""))
	if stats.Pool["runtime"] != float64(2) {
		t.Errorf("runtime = %v, want most recent", stats.Pool["runtime"])
	}
	if stats.Pool["diff"] != 0.1 || stats.Pool["users"] != float64(3) {
		t.Errorf("pool = %v", stats.Pool)
	}
	if diag.PoolLines != 3 {
		t.Errorf("PoolLines = %d", diag.PoolLines)
	}
}

func TestScanPool_MalformedAndEmpty(t *testing.T) {
	lines := []string{
		`Pool:{"runtime":1}`,
		`Pool:{"runtime":}`,
		`Pool:{}`,
		`Pool:[1,2]`,
	}
	stats, diag := ParseLines(lines, testOptions(""))
	if stats.Pool["runtime"] != float64(1) {
		t.Errorf("runtime = %v", stats.Pool["runtime"])
	}
	if diag.Skipped[model.SkipPoolMalformed] != 2 {
		t.Errorf("pool skips = %d, want 2", diag.Skipped[model.SkipPoolMalformed])
	}
}

func TestPoolAccumulator_Complete(t *testing.T) {
	acc := NewPoolAccumulator(MergeNewest)
	if acc.Complete() {
		t.Fatal("empty accumulator is not complete")
	}
	for _, set := range poolRequired {
		obj := map[string]any{}
		for _, k := range set {
			obj[k] = 1
		}
		acc.Merge(obj)
	}
	if !acc.Complete() {
		t.Error("expected accumulator to be complete")
	}
	if acc.Merged != len(poolRequired) {
		t.Errorf("Merged = %d", acc.Merged)
	}
}

func TestParseMergePolicy(t *testing.T) {
	tests := []struct {
		in      string
		want    MergePolicy
		wantErr bool
	}{
		{"", MergeNewest, false},
		{"newest", MergeNewest, false},
		{" Overwrite ", MergeOverwrite, false},
		{"first", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseMergePolicy(tt.in)
			if (err != nil) != tt.wantErr {
				t.Fatalf("err = %v, wantErr %v", err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("got %q, want %q", got, tt.want)
			}
		})
	}
}
