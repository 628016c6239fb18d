// Package ckpool derives per-user mining statistics from a ckpool log.
//
// Every call re-reads and re-parses the whole log. Nothing is cached and
// nothing fails: unreadable or malformed input yields default values, and
// what was dropped is counted in the returned model.Diagnostics.
package ckpool

import (
	"errors"
	"io/fs"
	"strings"
	"time"

	"github.com/tinytelemetry/poolstat/internal/model"
)

const lastShareLayout = "2006-01-02 15:04:05"

// Options controls one parse.
type Options struct {
	// Address is the tracked payout address. Empty disables share
	// filtering and the User lookup.
	Address string
	// ShareLimit bounds recent_shares. Zero or negative keeps every share.
	ShareLimit int
	// PoolMerge selects Pool: field precedence. Empty means MergeNewest.
	PoolMerge MergePolicy
	// Now supplies the aggregation reference when no share carries a
	// timestamp. Defaults to time.Now.
	Now func() time.Time
	// Location formats last_share_time. Defaults to time.Local.
	Location *time.Location
}

// DefaultOptions returns options for address with the default share limit.
func DefaultOptions(address string) Options {
	return Options{
		Address:    address,
		ShareLimit: model.DefaultShareLimit,
		PoolMerge:  MergeNewest,
	}
}

// ParseFile reads the log at path and parses it. A missing file yields
// the empty result; other read failures are recorded in the diagnostics.
func ParseFile(path string, opts Options) (*model.StatsResult, *model.Diagnostics) {
	lines, err := ReadLines(path)
	if err != nil {
		diag := model.NewDiagnostics(path)
		if !errors.Is(err, fs.ErrNotExist) {
			diag.ReadError = err.Error()
		}
		return model.NewStatsResult(), diag
	}
	stats, diag := ParseLines(lines, opts)
	diag.LogPath = path
	return stats, diag
}

// ParseLines runs the forward METRIC pass and both reverse scans over an
// in-memory copy of the log.
func ParseLines(lines []string, opts Options) (*model.StatsResult, *model.Diagnostics) {
	stats := model.NewStatsResult()
	diag := model.NewDiagnostics("")
	diag.LinesRead = len(lines)
	address := strings.TrimSpace(opts.Address)

	shares, workInfo, maxTS := collectMetrics(lines, address, diag)
	stats.LastWorkInfo = workInfo
	stats.RecentShares = sortShares(shares, opts.ShareLimit)
	diag.SharesAccepted = len(shares)

	snap := scanSnapshots(lines, address, diag)
	stats.WorkerStats = snap.Workers
	diag.UserFound = snap.User != nil
	if snap.User != nil {
		applyUser(stats, snap.User, opts.Location)
	}

	acc := NewPoolAccumulator(opts.PoolMerge)
	scanPool(lines, acc, diag)
	stats.Pool = acc.Snapshot()

	ref := maxTS
	if ref == 0 {
		now := time.Now
		if opts.Now != nil {
			now = opts.Now
		}
		ref = now().Unix()
	}
	stats.ShareAgg = Aggregate(stats.RecentShares, ref)
	return stats, diag
}

// collectMetrics reconstructs METRIC events, filters shares by address and
// keeps the latest workinfo. It returns the accepted shares in log order
// and the largest accepted share timestamp.
func collectMetrics(lines []string, address string, diag *model.Diagnostics) ([]model.ShareRecord, *model.WorkInfo, int64) {
	var (
		shares   []model.ShareRecord
		workInfo *model.WorkInfo
		maxTS    int64
	)
	rec := NewReconstructor()
	for _, line := range lines {
		out := rec.Feed(line)
		if out.Superseded {
			diag.Skip(model.SkipMetricSuperseded)
		}
		if out.Skip != "" {
			diag.Skip(out.Skip)
		}
		if out.Event == nil {
			continue
		}
		diag.MetricEvents++
		if out.Repaired {
			diag.Repaired++
		}

		switch ev := out.Event; ev.Kind {
		case EventShare:
			if !acceptShare(ev, address) {
				diag.Skip(model.SkipShareFiltered)
				continue
			}
			shares = append(shares, ev.Share)
			if ev.Share.Timestamp > maxTS {
				maxTS = ev.Share.Timestamp
			}
		case EventWorkInfo:
			if workInfo == nil || ev.WorkInfo.Timestamp >= workInfo.Timestamp {
				wi := ev.WorkInfo
				workInfo = &wi
			}
		}
	}
	if rec.Flush() {
		diag.Skip(model.SkipMetricTruncated)
	}
	if shares == nil {
		shares = []model.ShareRecord{}
	}
	return shares, workInfo, maxTS
}

// acceptShare matches a share to the tracked address by username or by a
// "<address>." worker name prefix. Without an address every share passes.
func acceptShare(ev *Event, address string) bool {
	if address == "" {
		return true
	}
	return ev.Username == address || strings.HasPrefix(ev.Share.WorkerName, address+".")
}

func applyUser(stats *model.StatsResult, u *model.UserSnapshot, loc *time.Location) {
	if loc == nil {
		loc = time.Local
	}
	stats.LastShareTime = time.Unix(u.LastShare, 0).In(loc).Format(lastShareLayout)
	stats.AcceptedShares = u.Shares
	stats.Hashrate1m = u.Hashrate1m
	stats.Hashrate5m = u.Hashrate5m
	stats.Hashrate1hr = u.Hashrate1hr
	stats.Hashrate1d = u.Hashrate1d
	stats.Hashrate7d = u.Hashrate7d
	stats.Workers = u.Workers
	stats.BestShare = u.BestShare
	stats.Difficulty = u.Difficulty
}
