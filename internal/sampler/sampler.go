// Package sampler periodically records the tracked user's hashrate.
package sampler

import (
	"context"
	"log"
	"time"

	"github.com/tinytelemetry/poolstat/internal/mining"
	"github.com/tinytelemetry/poolstat/internal/model"
)

// Sampler parses the log on a ticker and hands each HashrateSample to
// every sink. A failing sink is logged and does not stop the others.
type Sampler struct {
	stats    model.StatsReader
	address  func() string
	sinks    []model.SampleWriter
	interval time.Duration
	now      func() time.Time
}

// New returns a Sampler. address is re-read on every sample so it follows
// the resolver.
func New(stats model.StatsReader, address func() string, interval time.Duration, sinks ...model.SampleWriter) *Sampler {
	if interval <= 0 {
		interval = model.DefaultSampleInterval
	}
	return &Sampler{
		stats:    stats,
		address:  address,
		sinks:    sinks,
		interval: interval,
		now:      time.Now,
	}
}

// Run samples immediately and then every interval until ctx is done.
func (s *Sampler) Run(ctx context.Context) error {
	s.SampleOnce(ctx)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			s.SampleOnce(ctx)
		}
	}
}

// SampleOnce takes one sample and writes it to every sink.
func (s *Sampler) SampleOnce(ctx context.Context) model.HashrateSample {
	stats, diag := s.stats.Stats(ctx)
	if diag != nil && diag.ReadError != "" {
		log.Printf("sampler: read %s: %s", diag.LogPath, diag.ReadError)
	}
	addr := ""
	if s.address != nil {
		addr = s.address()
	}
	sample := FromStats(stats, addr, s.now())
	for _, sink := range s.sinks {
		if err := sink.WriteSample(ctx, sample); err != nil {
			log.Printf("sampler: write sample: %v", err)
		}
	}
	return sample
}

// FromStats converts a parsed result into a sample taken at ts.
func FromStats(stats *model.StatsResult, address string, ts time.Time) model.HashrateSample {
	return model.HashrateSample{
		Timestamp:      ts,
		Address:        address,
		Hashrate1m:     mining.ParseHashrate(stats.Hashrate1m),
		Hashrate5m:     mining.ParseHashrate(stats.Hashrate5m),
		Hashrate1h:     mining.ParseHashrate(stats.Hashrate1hr),
		Hashrate1d:     mining.ParseHashrate(stats.Hashrate1d),
		Hashrate7d:     mining.ParseHashrate(stats.Hashrate7d),
		AcceptedShares: stats.AcceptedShares,
		BestShare:      stats.BestShare,
		Workers:        stats.Workers,
		PoolUsers:      poolInt(stats.Pool, "users"),
		PoolWorkers:    poolInt(stats.Pool, "workers"),
	}
}

func poolInt(pool model.PoolSnapshot, key string) int64 {
	switch v := pool[key].(type) {
	case float64:
		return int64(v)
	case int64:
		return v
	case int:
		return int64(v)
	default:
		return 0
	}
}
