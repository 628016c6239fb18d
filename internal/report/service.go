// Package report combines parsed ckpool statistics with network difficulty
// and electricity prices into the /metrics document.
package report

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/hako/durafmt"
	"golang.org/x/sync/errgroup"

	"github.com/tinytelemetry/poolstat/internal/ckpool"
	"github.com/tinytelemetry/poolstat/internal/logsource"
	"github.com/tinytelemetry/poolstat/internal/mining"
	"github.com/tinytelemetry/poolstat/internal/model"
)

// DifficultySource reports the current network difficulty.
type DifficultySource interface {
	GetDifficulty(ctx context.Context) (float64, error)
}

// PriceSource reports recent electricity prices.
type PriceSource interface {
	Recent(ctx context.Context) ([]model.PricePoint, error)
}

// Config wires a Service. Difficulty, Prices and History are optional.
type Config struct {
	Source     logsource.Source
	ShareLimit int
	PoolMerge  ckpool.MergePolicy
	Difficulty DifficultySource
	Prices     PriceSource
	History    model.HistoryQuerier
}

// Service implements model.ReadAPI. Every call re-resolves the log path
// and re-parses the log.
type Service struct {
	source     logsource.Source
	shareLimit int
	poolMerge  ckpool.MergePolicy
	difficulty DifficultySource
	prices     PriceSource
	history    model.HistoryQuerier
	now        func() time.Time
}

// New returns a Service for cfg.
func New(cfg Config) *Service {
	return &Service{
		source:     cfg.Source,
		shareLimit: cfg.ShareLimit,
		poolMerge:  cfg.PoolMerge,
		difficulty: cfg.Difficulty,
		prices:     cfg.Prices,
		history:    cfg.History,
		now:        time.Now,
	}
}

// Stats parses the currently resolved log.
func (s *Service) Stats(ctx context.Context) (*model.StatsResult, *model.Diagnostics) {
	return s.parse(s.source.LogPath(), s.source.Address())
}

func (s *Service) parse(path, address string) (*model.StatsResult, *model.Diagnostics) {
	return ckpool.ParseFile(path, ckpool.Options{
		Address:    address,
		ShareLimit: s.shareLimit,
		PoolMerge:  s.poolMerge,
		Now:        s.now,
	})
}

// Report builds the /metrics document. Difficulty and prices are fetched
// concurrently; either failing degrades to the stats difficulty and an
// empty price list.
func (s *Service) Report(ctx context.Context) (*model.MetricsReport, error) {
	path := s.source.LogPath()
	address := s.source.Address()
	stats, _ := s.parse(path, address)

	var (
		networkDiff float64
		prices      = []model.PricePoint{}
	)
	g, gctx := errgroup.WithContext(ctx)
	if s.difficulty != nil {
		g.Go(func() error {
			d, err := s.difficulty.GetDifficulty(gctx)
			if err != nil {
				log.Printf("report: getdifficulty failed: %v", err)
				return nil
			}
			networkDiff = d
			return nil
		})
	}
	if s.prices != nil {
		g.Go(func() error {
			p, err := s.prices.Recent(gctx)
			if err != nil {
				log.Printf("report: price feed failed: %v", err)
				return nil
			}
			prices = p
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("report: %w", err)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if networkDiff == 0 {
		networkDiff = stats.Difficulty
	}

	return Build(stats, path, address, networkDiff, prices), nil
}

// Build assembles a MetricsReport from already fetched inputs.
func Build(stats *model.StatsResult, logPath, address string, networkDiff float64, prices []model.PricePoint) *model.MetricsReport {
	if prices == nil {
		prices = []model.PricePoint{}
	}
	odds := mining.HorizonOdds(stats.Hashrate1m, stats.Hashrate1d, stats.Hashrate7d, networkDiff)
	return &model.MetricsReport{
		Config:            model.ReportConfig{LogPath: logPath, BTCAddress: address},
		ComedFuturePrices: prices,

		WorkerCount:    stats.Workers,
		BestShares:     stats.BestShare,
		LastShareTime:  stats.LastShareTime,
		AcceptedShares: stats.AcceptedShares,

		Hashrate1minTHs: mining.HashesToTH(mining.ParseHashrate(stats.Hashrate1m)),
		Hashrate5minTHs: mining.HashesToTH(mining.ParseHashrate(stats.Hashrate5m)),
		Hashrate1hrTHs:  mining.HashesToTH(mining.ParseHashrate(stats.Hashrate1hr)),
		Hashrate1dTHs:   mining.HashesToTH(mining.ParseHashrate(stats.Hashrate1d)),
		Hashrate7dTHs:   mining.HashesToTH(mining.ParseHashrate(stats.Hashrate7d)),

		Odds1yrPercent:  odds.Year,
		Odds24hrPercent: odds.Day,
		Odds7dPercent:   odds.Week,
		Odds30dPercent:  odds.Month,

		NetworkDifficulty: networkDiff,
		PoolRuntimeHuman:  PoolRuntime(stats.Pool),

		Workers:      stats.WorkerStats,
		Pool:         stats.Pool,
		LastWorkInfo: stats.LastWorkInfo,
		RecentShares: stats.RecentShares,
		ShareAgg:     stats.ShareAgg,
	}
}

// PoolRuntime renders the pool's runtime (seconds) as a short human
// duration such as "3 days 4 hours". Empty when runtime is missing.
func PoolRuntime(pool model.PoolSnapshot) string {
	secs, ok := pool["runtime"].(float64)
	if !ok || secs <= 0 {
		return ""
	}
	return durafmt.Parse(time.Duration(secs) * time.Second).LimitFirstN(2).String()
}

// History returns samples recorded within window, oldest first.
func (s *Service) History(ctx context.Context, window time.Duration, limit int) ([]model.HashrateSample, error) {
	if s.history == nil {
		return nil, model.ErrHistoryDisabled
	}
	return s.history.SamplesSince(ctx, s.now().Add(-window), limit)
}

var _ model.ReadAPI = (*Service)(nil)
