package model

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
)

// StatsResult is the per-call output of the ckpool log parser.
// It is built fresh for every parse and owned by the caller.
type StatsResult struct {
	LastShareTime  string           `json:"last_share_time"`
	AcceptedShares float64          `json:"accepted_shares"`
	Hashrate1m     string           `json:"hashrate1m"`
	Hashrate5m     string           `json:"hashrate5m"`
	Hashrate1hr    string           `json:"hashrate1hr"`
	Hashrate1d     string           `json:"hashrate1d"`
	Hashrate7d     string           `json:"hashrate7d"`
	Workers        int64            `json:"workers"`
	BestShare      float64          `json:"bestshare"`
	Difficulty     float64          `json:"difficulty"`
	WorkerStats    []WorkerSnapshot `json:"worker_stats"`
	Pool           PoolSnapshot     `json:"pool"`
	LastWorkInfo   *WorkInfo        `json:"last_workinfo"`
	RecentShares   []ShareRecord    `json:"recent_shares"`
	ShareAgg       ShareAggregate   `json:"share_agg"`
}

// NewStatsResult returns the empty result reported when nothing could be read.
func NewStatsResult() *StatsResult {
	return &StatsResult{
		LastShareTime: NotAvailable,
		Hashrate1m:    "0",
		Hashrate5m:    "0",
		Hashrate1hr:   "0",
		Hashrate1d:    "0",
		Hashrate7d:    "0",
		WorkerStats:   []WorkerSnapshot{},
		Pool:          PoolSnapshot{},
		RecentShares:  []ShareRecord{},
		ShareAgg: ShareAggregate{
			ByAgent:  OrderedCounts{},
			ByWorker: OrderedCounts{},
		},
	}
}

// ShareRecord is one accepted share submission taken from a METRIC share event.
type ShareRecord struct {
	Timestamp  int64   `json:"ts"`
	WorkInfoID int64   `json:"workinfoid"`
	ClientID   int64   `json:"clientid"`
	Enonce1    string  `json:"enonce1"`
	Nonce2     string  `json:"nonce2"`
	Nonce      string  `json:"nonce"`
	NTime      string  `json:"ntime"`
	Diff       float64 `json:"diff"`
	SDiff      float64 `json:"sdiff"`
	Hash       string  `json:"hash"`
	Result     bool    `json:"result"`
	Errn       int64   `json:"errn"`
	WorkerName string  `json:"workername"`
	Agent      string  `json:"agent"`
	Address    string  `json:"address"`
}

// WorkInfo is the latest block template announcement seen in the log.
type WorkInfo struct {
	Timestamp    int64  `json:"ts"`
	WorkInfoID   int64  `json:"workinfoid"`
	Pool         string `json:"pool"`
	PoolInstance string `json:"poolinstance"`
	PrevHash     string `json:"prevhash"`
	Version      string `json:"version"`
	NTime        string `json:"ntime"`
	Bits         string `json:"bits"`
	Reward       int64  `json:"reward"`
}

// UserSnapshot mirrors one `User <address>:{...}` status line.
type UserSnapshot struct {
	LastShare   int64   `json:"lastshare"`
	Shares      float64 `json:"shares"`
	Hashrate1m  string  `json:"hashrate1m"`
	Hashrate5m  string  `json:"hashrate5m"`
	Hashrate1hr string  `json:"hashrate1hr"`
	Hashrate1d  string  `json:"hashrate1d"`
	Hashrate7d  string  `json:"hashrate7d"`
	Workers     int64   `json:"workers"`
	BestShare   float64 `json:"bestshare"`
	Difficulty  float64 `json:"difficulty"`
}

// WorkerSnapshot mirrors one `Worker <name>:{...}` status line.
type WorkerSnapshot struct {
	WorkerName  string  `json:"workername"`
	Hashrate1m  string  `json:"hashrate1m"`
	Hashrate5m  string  `json:"hashrate5m"`
	Hashrate1hr string  `json:"hashrate1hr"`
	Hashrate1d  string  `json:"hashrate1d"`
	Hashrate7d  string  `json:"hashrate7d"`
	LastShare   int64   `json:"lastshare"`
	Shares      float64 `json:"shares"`
	BestShare   float64 `json:"bestshare"`
	BestEver    float64 `json:"bestever"`
}

// PoolSnapshot holds the merged `Pool:` fields under their output names
// (users, workers, hashrate1m, SPS1m, ...).
type PoolSnapshot map[string]any

// WindowAggregate is the share count and mean sdiff over one time window.
type WindowAggregate struct {
	Count    int     `json:"count"`
	AvgSDiff float64 `json:"avg_sdiff"`
}

// ShareAggregate summarizes the retained recent shares.
type ShareAggregate struct {
	Last10m      WindowAggregate `json:"last_10m"`
	Last1h       WindowAggregate `json:"last_1h"`
	BestSDiff24h float64         `json:"best_sdiff_24h"`
	ByAgent      OrderedCounts   `json:"by_agent"`
	ByWorker     OrderedCounts   `json:"by_worker"`
}

// NamedCount is one entry of an OrderedCounts mapping.
type NamedCount struct {
	Name  string
	Count int
}

// OrderedCounts is a name->count mapping that keeps its order when encoded
// as a JSON object.
type OrderedCounts []NamedCount

// Get returns the count recorded for name.
func (o OrderedCounts) Get(name string) (int, bool) {
	for _, nc := range o {
		if nc.Name == name {
			return nc.Count, true
		}
	}
	return 0, false
}

func (o OrderedCounts) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, nc := range o {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(nc.Name)
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')
		buf.WriteString(strconv.Itoa(nc.Count))
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// UnmarshalJSON decodes an object back into a mapping. Key order of the
// source document is preserved.
func (o *OrderedCounts) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if tok == nil {
		*o = nil
		return nil
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return fmt.Errorf("ordered counts: expected object, got %v", tok)
	}
	out := OrderedCounts{}
	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return err
		}
		var n int
		if err := dec.Decode(&n); err != nil {
			return err
		}
		out = append(out, NamedCount{Name: keyTok.(string), Count: n})
	}
	*o = out
	return nil
}
