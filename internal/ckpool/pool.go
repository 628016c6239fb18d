package ckpool

import (
	"fmt"
	"strings"

	"github.com/bytedance/sonic"

	"github.com/tinytelemetry/poolstat/internal/logparse"
	"github.com/tinytelemetry/poolstat/internal/model"
)

// MergePolicy decides which Pool: line wins when several carry a field.
type MergePolicy string

const (
	// MergeNewest keeps the value from the line closest to the end of the
	// log for every field.
	MergeNewest MergePolicy = "newest"
	// MergeOverwrite updates the accumulator in place on every hit of the
	// backward scan, so an older line reached before the stop condition
	// replaces a newer value.
	MergeOverwrite MergePolicy = "overwrite"
)

// ParseMergePolicy validates a configured policy name. Empty selects MergeNewest.
func ParseMergePolicy(s string) (MergePolicy, error) {
	switch MergePolicy(strings.ToLower(strings.TrimSpace(s))) {
	case "", MergeNewest:
		return MergeNewest, nil
	case MergeOverwrite:
		return MergeOverwrite, nil
	default:
		return "", fmt.Errorf("ckpool: unknown pool merge policy %q", s)
	}
}

// poolRequired lists the key sets that must all be present before the
// merger stops scanning.
var poolRequired = [][]string{
	{"runtime", "lastupdate", "Users", "Workers"},
	{"hashrate1m", "hashrate5m", "hashrate15m", "hashrate1hr", "hashrate6hr", "hashrate1d", "hashrate7d"},
	{"accepted", "rejected", "bestshare"},
}

// poolFieldNames maps source keys to output keys. Keys not listed are dropped.
var poolFieldNames = []struct{ src, dst string }{
	{"runtime", "runtime"},
	{"lastupdate", "lastupdate"},
	{"Users", "users"},
	{"Workers", "workers"},
	{"Idle", "idle"},
	{"Disconnected", "disconnected"},
	{"hashrate1m", "hashrate1m"},
	{"hashrate5m", "hashrate5m"},
	{"hashrate15m", "hashrate15m"},
	{"hashrate1hr", "hashrate1hr"},
	{"hashrate6hr", "hashrate6hr"},
	{"hashrate1d", "hashrate1d"},
	{"hashrate7d", "hashrate7d"},
	{"diff", "diff"},
	{"accepted", "accepted"},
	{"rejected", "rejected"},
	{"bestshare", "bestshare"},
	{"SPS1m", "SPS1m"},
	{"SPS5m", "SPS5m"},
	{"SPS15m", "SPS15m"},
	{"SPS1h", "SPS1h"},
}

// PoolAccumulator merges decoded Pool: objects under a MergePolicy.
type PoolAccumulator struct {
	Policy MergePolicy
	Fields map[string]any
	Merged int
}

// NewPoolAccumulator returns an empty accumulator.
func NewPoolAccumulator(policy MergePolicy) *PoolAccumulator {
	if policy == "" {
		policy = MergeNewest
	}
	return &PoolAccumulator{Policy: policy, Fields: make(map[string]any)}
}

// Merge folds one object into the accumulator.
func (a *PoolAccumulator) Merge(obj map[string]any) {
	for k, v := range obj {
		if a.Policy == MergeNewest {
			if _, seen := a.Fields[k]; seen {
				continue
			}
		}
		a.Fields[k] = v
	}
	a.Merged++
}

// Complete reports whether every required key has been collected.
func (a *PoolAccumulator) Complete() bool {
	for _, set := range poolRequired {
		for _, k := range set {
			if _, ok := a.Fields[k]; !ok {
				return false
			}
		}
	}
	return true
}

// Snapshot translates the accumulated fields to output names.
func (a *PoolAccumulator) Snapshot() model.PoolSnapshot {
	out := model.PoolSnapshot{}
	for _, f := range poolFieldNames {
		if v, ok := a.Fields[f.src]; ok {
			out[f.dst] = v
		}
	}
	return out
}

// scanPool walks lines from the end, merging Pool: objects until acc is
// complete.
func scanPool(lines []string, acc *PoolAccumulator, diag *model.Diagnostics) {
	for i := len(lines) - 1; i >= 0; i-- {
		obj, ok := parsePoolLine(lines[i], diag)
		if !ok {
			continue
		}
		acc.Merge(obj)
		diag.PoolLines++
		if acc.Complete() {
			return
		}
	}
}

// parsePoolLine decodes the object after "Pool:". Empty objects are
// ignored like malformed ones.
func parsePoolLine(raw string, diag *model.Diagnostics) (map[string]any, bool) {
	content := strings.TrimSpace(logparse.StripTimestamp(raw))
	rest, found := strings.CutPrefix(content, "Pool:")
	if !found {
		return nil, false
	}
	var obj map[string]any
	if err := sonic.UnmarshalString(strings.TrimSpace(rest), &obj); err != nil {
		diag.Skip(model.SkipPoolMalformed)
		return nil, false
	}
	if len(obj) == 0 {
		return nil, false
	}
	return obj, true
}
