package sampler

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/tinytelemetry/poolstat/internal/model"
)

type fakeStats struct {
	result *model.StatsResult
}

func (f fakeStats) Stats(context.Context) (*model.StatsResult, *model.Diagnostics) {
	return f.result, model.NewDiagnostics("test.log")
}

type recordingSink struct {
	mu      sync.Mutex
	samples []model.HashrateSample
	err     error
}

func (r *recordingSink) WriteSample(_ context.Context, s model.HashrateSample) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.samples = append(r.samples, s)
	return r.err
}

func (r *recordingSink) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.samples)
}

func testStats() *model.StatsResult {
	stats := model.NewStatsResult()
	stats.Hashrate1m = "1.5T"
	stats.Hashrate1hr = "900G"
	stats.Hashrate7d = "garbage"
	stats.Workers = 3
	stats.BestShare = 123.5
	stats.Pool = model.PoolSnapshot{"users": float64(7), "workers": float64(11)}
	return stats
}

func TestFromStats(t *testing.T) {
	ts := time.Unix(1_700_000_000, 0)
	s := FromStats(testStats(), "bc1q", ts)

	if s.Hashrate1m != 1.5e12 || s.Hashrate1h != 9e11 || s.Hashrate7d != 0 {
		t.Errorf("hashrates = %v %v %v", s.Hashrate1m, s.Hashrate1h, s.Hashrate7d)
	}
	if s.PoolUsers != 7 || s.PoolWorkers != 11 || s.Workers != 3 || s.BestShare != 123.5 {
		t.Errorf("sample = %+v", s)
	}
	if !s.Timestamp.Equal(ts) || s.Address != "bc1q" {
		t.Errorf("sample = %+v", s)
	}
}

func TestSampleOnce_FansOut(t *testing.T) {
	failing := &recordingSink{err: errors.New("disk full")}
	ok := &recordingSink{}
	s := New(fakeStats{testStats()}, func() string { return "bc1q" }, time.Minute, failing, ok)

	s.SampleOnce(context.Background())

	if failing.count() != 1 || ok.count() != 1 {
		t.Errorf("sinks got %d and %d samples, want 1 each", failing.count(), ok.count())
	}
}

func TestRun_StopsOnCancel(t *testing.T) {
	sink := &recordingSink{}
	s := New(fakeStats{testStats()}, nil, 10*time.Millisecond, sink)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Run(ctx) }()

	deadline := time.After(2 * time.Second)
	for sink.count() < 2 {
		select {
		case <-deadline:
			t.Fatal("sampler did not tick")
		case <-time.After(5 * time.Millisecond):
		}
	}
	cancel()

	select {
	case err := <-done:
		if err != nil {
			t.Errorf("Run returned %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not return after cancel")
	}
}

func TestNew_DefaultInterval(t *testing.T) {
	s := New(fakeStats{testStats()}, nil, 0)
	if s.interval != model.DefaultSampleInterval {
		t.Errorf("interval = %v", s.interval)
	}
}
