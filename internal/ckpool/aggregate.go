package ckpool

import (
	"math"
	"sort"

	"github.com/tinytelemetry/poolstat/internal/model"
)

const (
	window10m = 10 * 60
	window1h  = 60 * 60
	window24h = 24 * 60 * 60
)

// sortShares orders shares newest first and truncates to limit.
// A limit <= 0 keeps everything.
func sortShares(shares []model.ShareRecord, limit int) []model.ShareRecord {
	sort.SliceStable(shares, func(i, j int) bool {
		return shares[i].Timestamp > shares[j].Timestamp
	})
	if limit > 0 && len(shares) > limit {
		shares = shares[:limit]
	}
	return shares
}

// Aggregate computes the windowed and grouped summaries over shares
// relative to ref (unix seconds).
func Aggregate(shares []model.ShareRecord, ref int64) model.ShareAggregate {
	c10, a10 := windowStats(shares, ref, window10m)
	c1h, a1h := windowStats(shares, ref, window1h)

	best := 0.0
	for _, s := range shares {
		if s.Timestamp >= ref-window24h && s.SDiff > best {
			best = s.SDiff
		}
	}

	return model.ShareAggregate{
		Last10m:      model.WindowAggregate{Count: c10, AvgSDiff: round3(a10)},
		Last1h:       model.WindowAggregate{Count: c1h, AvgSDiff: round3(a1h)},
		BestSDiff24h: round3(best),
		ByAgent:      countBy(shares, func(s model.ShareRecord) string { return s.Agent }),
		ByWorker:     countBy(shares, func(s model.ShareRecord) string { return s.WorkerName }),
	}
}

func windowStats(shares []model.ShareRecord, ref, window int64) (int, float64) {
	lo := ref - window
	count := 0
	sum := 0.0
	for _, s := range shares {
		if s.Timestamp >= lo {
			count++
			sum += s.SDiff
		}
	}
	if count == 0 {
		return 0, 0
	}
	return count, sum / float64(count)
}

// countBy groups shares by key, skipping empty keys, and orders the result
// by descending count. Ties keep first-seen order.
func countBy(shares []model.ShareRecord, key func(model.ShareRecord) string) model.OrderedCounts {
	out := model.OrderedCounts{}
	index := make(map[string]int)
	for _, s := range shares {
		k := key(s)
		if k == "" {
			continue
		}
		if i, ok := index[k]; ok {
			out[i].Count++
			continue
		}
		index[k] = len(out)
		out = append(out, model.NamedCount{Name: k, Count: 1})
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Count > out[j].Count
	})
	return out
}

func round3(v float64) float64 {
	return math.Round(v*1000) / 1000
}
