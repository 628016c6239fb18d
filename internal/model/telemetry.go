package model

import "time"

// HashrateSample is one periodic reading persisted to the history store
// and exported as OTLP gauges. Hashrates are in H/s.
type HashrateSample struct {
	Timestamp      time.Time `json:"timestamp"`
	Address        string    `json:"address"`
	Hashrate1m     float64   `json:"hashrate_1m"`
	Hashrate5m     float64   `json:"hashrate_5m"`
	Hashrate1h     float64   `json:"hashrate_1h"`
	Hashrate1d     float64   `json:"hashrate_1d"`
	Hashrate7d     float64   `json:"hashrate_7d"`
	AcceptedShares float64   `json:"accepted_shares"`
	BestShare      float64   `json:"best_share"`
	Workers        int64     `json:"workers"`
	PoolUsers      int64     `json:"pool_users"`
	PoolWorkers    int64     `json:"pool_workers"`
}

// PricePoint is one electricity price reading from the external feed.
type PricePoint struct {
	Time  string `json:"time"`
	Price string `json:"price"`
}

// ReportConfig echoes the resolved inputs a report was built from.
type ReportConfig struct {
	LogPath    string `json:"log_path"`
	BTCAddress string `json:"btc_address"`
}

// MetricsReport is the document served on /metrics. It combines the parsed
// stats with network difficulty and the price feed.
type MetricsReport struct {
	Config            ReportConfig `json:"config"`
	ComedFuturePrices []PricePoint `json:"comed_future_prices"`

	WorkerCount    int64   `json:"worker_count"`
	BestShares     float64 `json:"best_shares"`
	LastShareTime  string  `json:"last_share_time"`
	AcceptedShares float64 `json:"accepted_shares"`

	Hashrate1minTHs float64 `json:"hashrate_1min_ths"`
	Hashrate5minTHs float64 `json:"hashrate_5min_ths"`
	Hashrate1hrTHs  float64 `json:"hashrate_1hr_ths"`
	Hashrate1dTHs   float64 `json:"hashrate_1d_ths"`
	Hashrate7dTHs   float64 `json:"hashrate_7d_ths"`

	Odds1yrPercent  float64 `json:"odds_1yr_percent"`
	Odds24hrPercent float64 `json:"odds_24hr_percent"`
	Odds7dPercent   float64 `json:"odds_7d_percent"`
	Odds30dPercent  float64 `json:"odds_30d_percent"`

	NetworkDifficulty float64 `json:"network_difficulty"`
	PoolRuntimeHuman  string  `json:"pool_runtime_human,omitempty"`

	Workers      []WorkerSnapshot `json:"workers"`
	Pool         PoolSnapshot     `json:"pool"`
	LastWorkInfo *WorkInfo        `json:"last_workinfo"`
	RecentShares []ShareRecord    `json:"recent_shares"`
	ShareAgg     ShareAggregate   `json:"share_agg"`
}
